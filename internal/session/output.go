package session

import (
	"fmt"
	"io"
)

// printer writes session messages using the same icons as the CLI:
//
//	✓  success
//	✗  error
//	⚠  warning
//	-  not found
//	~  neutral info / state change
type printer struct {
	w io.Writer
}

func (p printer) line(icon, msg string) {
	fmt.Fprintf(p.w, "  %s  %s\n", icon, msg)
}

func (p printer) ok(msg string)   { p.line("✓", msg) }
func (p printer) err(msg string)  { p.line("✗", msg) }
func (p printer) warn(msg string) { p.line("⚠", msg) }
func (p printer) miss(msg string) { p.line("-", msg) }
func (p printer) info(msg string) { p.line("~", msg) }

func (p printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}
