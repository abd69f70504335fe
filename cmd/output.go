package cmd

import (
	"fmt"
	"io"
	"os"
)

// Status icons shared by every command. The interactive session prints the
// same set through its own writer.
const (
	iconOK   = "✓"
	iconErr  = "✗"
	iconWarn = "⚠"
	iconSkip = "○"
	iconMiss = "-"
	iconInfo = "~"
)

// printSection prints a header such as "=== ls: list hidden files ===".
func printSection(title string) {
	fmt.Printf("\n=== %s ===\n", title)
}

// printBullet prints a group title such as "● Cached models".
func printBullet(title string) {
	fmt.Printf("\n● %s\n", title)
}

// printLine writes "  <icon>  msg", or "  <icon>  [name] msg" when name is set.
func printLine(w io.Writer, icon, name, msg string) {
	if name != "" {
		msg = "[" + name + "] " + msg
	}
	fmt.Fprintf(w, "  %s  %s\n", icon, msg)
}

func printOK(name, msg string)   { printLine(os.Stdout, iconOK, name, msg) }
func printErr(name, msg string)  { printLine(os.Stderr, iconErr, name, msg) }
func printWarn(name, msg string) { printLine(os.Stdout, iconWarn, name, msg) }
func printSkip(name, msg string) { printLine(os.Stdout, iconSkip, name, msg) }
func printMiss(name, msg string) { printLine(os.Stdout, iconMiss, name, msg) }
func printInfo(name, msg string) { printLine(os.Stdout, iconInfo, name, msg) }
