package session

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

// Control keys seen by ReadKey in raw mode, where the terminal no longer
// turns them into signals or end of input.
const (
	keyInterrupt = '\x03' // Ctrl-C
	keyEOF       = '\x04' // Ctrl-D
)

// Terminal is a Prompter over a reader and a writer. When the reader is a
// terminal, ReadKey puts it in raw mode so a single key press is returned
// without waiting for Enter.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
	tty bool
}

// NewTerminal returns a Terminal reading from in and writing prompts to out.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	t := &Terminal{in: bufio.NewReader(in), out: out, fd: -1}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		t.fd = int(f.Fd())
		t.tty = true
	}
	return t
}

// ReadLine implements Prompter.
func (t *Terminal) ReadLine(prompt string) (string, error) {
	fmt.Fprint(t.out, prompt)
	line, err := t.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ReadKey implements Prompter. Ctrl-C comes back as keyInterrupt, which no
// prompt accepts, so it declines. Ctrl-D is reported as io.EOF.
func (t *Terminal) ReadKey(prompt string) (rune, error) {
	fmt.Fprint(t.out, prompt)
	if t.tty {
		if old, err := term.MakeRaw(t.fd); err == nil {
			r, _, rerr := t.in.ReadRune()
			_ = term.Restore(t.fd, old)
			fmt.Fprintln(t.out)
			if rerr != nil {
				return 0, rerr
			}
			return rawKey(r)
		}
	}

	line, err := t.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return 0, err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return '\n', nil
	}
	r, _ := utf8.DecodeRuneInString(line)
	return rawKey(r)
}

// rawKey maps a key read in raw mode to what the line fallback would return.
func rawKey(r rune) (rune, error) {
	switch r {
	case '\r':
		return '\n', nil
	case keyEOF:
		return 0, io.EOF
	}
	return r, nil
}
