// Package manpage reads manual pages through the system man command and
// splits them into paragraphs.
package manpage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/kamusis/mansh/internal/logging"
)

// ErrNotFound is returned when no manual page exists for a command.
var ErrNotFound = errors.New("no man page found")

// Fetcher runs `man <command>` and splits the output into paragraphs.
type Fetcher struct {
	bin string
	log *zap.Logger
}

// NewFetcher returns a Fetcher that invokes bin ("man" when empty).
func NewFetcher(bin string, log *zap.Logger) *Fetcher {
	if bin == "" {
		bin = "man"
	}
	return &Fetcher{bin: bin, log: logging.OrNop(log)}
}

// Fetch returns the manual page of command split by delimiter. A non-zero exit
// status of man is reported as ErrNotFound; failing to start man at all is a
// regular error.
func (f *Fetcher) Fetch(ctx context.Context, command, delimiter string) ([]string, error) {
	command = strings.TrimSpace(command)
	if command == "" || strings.HasPrefix(command, "-") {
		return nil, fmt.Errorf("%w for %q", ErrNotFound, command)
	}
	text, err := f.Page(ctx, command)
	if err != nil {
		return nil, err
	}
	paragraphs := Split(text, delimiter)
	f.log.Debug("man page fetched",
		zap.String("command", command),
		zap.Int("bytes", len(text)),
		zap.Int("paragraphs", len(paragraphs)),
	)
	return paragraphs, nil
}

// Page returns the raw text (valid UTF-8, NFC-normalized) of the manual page for command.
func (f *Fetcher) Page(ctx context.Context, command string) (string, error) {
	c := exec.CommandContext(ctx, f.bin, command)
	c.Env = append(os.Environ(), "MANPAGER=cat", "PAGER=cat", "MAN_KEEP_FORMATTING=")
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	if err := c.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			f.log.Debug("man exited non-zero",
				zap.String("command", command),
				zap.Int("code", exitErr.ExitCode()),
				zap.String("stderr", strings.TrimSpace(stderr.String())),
			)
			return "", fmt.Errorf("%w for %s", ErrNotFound, command)
		}
		return "", fmt.Errorf("cannot run %s: %w", f.bin, err)
	}
	return norm.NFC.String(strings.ToValidUTF8(stdout.String(), "\uFFFD")), nil
}

// Split cuts text by delimiter. Empty and whitespace-only paragraphs are kept.
func Split(text, delimiter string) []string {
	if delimiter == "" {
		return []string{text}
	}
	return strings.Split(text, delimiter)
}
