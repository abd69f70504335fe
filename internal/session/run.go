package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kamusis/mansh/internal/search"
)

const helpText = `Usage:
  <command> <query...>   search the man page of <command>, e.g. "ls list hidden files"
  cd [dir|-]             change the working directory
  !<shell command>       run a shell command
  !!                     run the last suggested command
  :p, :params            change the model or the delimiter
  :s, :save              save the cache now
  :m, :models            list cached models
  :a, :add <model>       create an empty cache for <model>, e.g. ":a ollama:all-minilm"
  :c, :commands          list commands cached for the current delimiter
  :h, :help              show this help
  :q, :quit, exit        leave (asks to save unsaved changes)
`

// Run reads and executes lines until the user quits or input ends. Only
// failures to read or write the cache end the loop with an error.
func (s *Session) Run(ctx context.Context) error {
	s.out.info(fmt.Sprintf("model %s, delimiter %s (:h for help)", s.model, strconv.Quote(s.delimiter)))
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := s.prompter.ReadLine("mansh> ")
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(s.out.w)
			return s.finish()
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		quit, err := s.dispatch(ctx, line)
		if err != nil {
			return err
		}
		if quit {
			return s.finish()
		}
	}
}

func (s *Session) finish() error {
	_, err := s.ConfirmPersist()
	return err
}

func (s *Session) dispatch(ctx context.Context, line string) (quit bool, err error) {
	if handled, err := s.Chdir(line); handled {
		if err != nil {
			s.out.err(err.Error())
		}
		return false, nil
	}

	if strings.HasPrefix(line, "!") {
		cmdline := strings.TrimSpace(line[1:])
		if cmdline == "!" {
			if s.lastSuggestion == "" {
				s.out.warn("No suggested command yet")
				return false, nil
			}
			cmdline = s.lastSuggestion
			s.out.info(cmdline)
		}
		if cmdline == "" {
			s.out.warn("Nothing to run")
			return false, nil
		}
		s.runShell(ctx, cmdline)
		return false, nil
	}

	switch line {
	case ":p", ":params":
		return false, s.ChangeParams(ctx)
	case ":s", ":save":
		return false, s.Save()
	case ":m", ":models":
		return false, s.ListModels()
	case ":c", ":commands":
		s.ListCommands()
		return false, nil
	case ":h", ":help":
		fmt.Fprint(s.out.w, helpText)
		return false, nil
	case ":q", ":quit", "exit":
		return true, nil
	}

	if fields := strings.Fields(line); fields[0] == ":a" || fields[0] == ":add" {
		if len(fields) != 2 {
			s.out.warn("Usage: :a <model>, e.g. :a ollama:all-minilm")
			return false, nil
		}
		_, err := s.AddModel(ctx, fields[1])
		return false, err
	}

	if strings.HasPrefix(line, ":") {
		s.out.warn("Unknown command " + line + " (:h for help)")
		return false, nil
	}

	command := strings.Fields(line)[0]
	query := strings.TrimSpace(line[len(command):])
	if query == "" {
		s.out.warn("Usage: <command> <query...>, e.g. ls list hidden files")
		return false, nil
	}

	res, err := s.Search(ctx, command, query)
	switch {
	case errors.Is(err, search.ErrEmptyQuery):
		s.out.warn("Nothing left to search for once stop words are removed")
	case err != nil:
		s.log.Debug("search failed", zap.String("command", command), zap.Error(err))
		s.out.err(err.Error())
	default:
		s.Render(command, res)
	}
	return false, nil
}

func (s *Session) runShell(ctx context.Context, cmdline string) {
	release := holdInterrupts()
	defer release()
	cmd := exec.CommandContext(ctx, s.shell, "-c", cmdline)
	cmd.Stdin = s.stdin
	cmd.Stdout = s.out.w
	cmd.Stderr = s.out.w
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			s.out.warn("exit status " + strconv.Itoa(exitErr.ExitCode()))
			return
		}
		s.out.err(err.Error())
	}
}
