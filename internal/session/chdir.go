package session

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kamusis/mansh/internal/config"
)

// Chdir handles "cd [path]" lines. A bare cd goes home, "cd -" returns to the
// previous directory and a leading ~ is expanded. handled is false when line
// is not a cd command.
func (s *Session) Chdir(line string) (handled bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "cd" {
		return false, nil
	}
	target := "~"
	if len(fields) >= 2 {
		target = fields[1]
	}
	if target == "-" {
		if s.prevDir == "" {
			return true, errors.New("cd: no previous directory")
		}
		target = s.prevDir
	}
	target, err = config.ExpandPath(target)
	if err != nil {
		return true, err
	}

	cur, err := os.Getwd()
	if err != nil {
		return true, fmt.Errorf("cd: %w", err)
	}
	if err := os.Chdir(target); err != nil {
		return true, fmt.Errorf("cd: %w", err)
	}
	s.prevDir = cur
	return true, nil
}
