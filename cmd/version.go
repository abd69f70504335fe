package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X github.com/kamusis/mansh/cmd.version=..." at release time.
var (
	version   = "dev"
	commit    = ""
	buildDate = ""
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show mansh version and build information",
	RunE:  runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(_ *cobra.Command, _ []string) error {
	v, c, d := buildInfo()
	fmt.Printf("mansh %s\n", v)
	printInfo("commit", orNA(c))
	printInfo("built", orNA(d))
	printInfo("go", runtime.Version()+" "+runtime.GOOS+"/"+runtime.GOARCH)
	return nil
}

// buildInfo fills values missing from ldflags with what the Go toolchain
// embedded (module version, vcs revision and time).
func buildInfo() (v, c, d string) {
	v, c, d = version, commit, buildDate
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return v, c, d
	}
	if v == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		v = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch {
		case s.Key == "vcs.revision" && c == "":
			c = s.Value
			if len(c) > 12 {
				c = c[:12]
			}
		case s.Key == "vcs.time" && d == "":
			d = s.Value
		}
	}
	return v, c, d
}

func orNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}
