package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
)

// Param is a session setting the user can change from a fixed list of options.
type Param struct {
	Key     rune
	Name    string
	Options []string
	Current string
	Apply   func(ctx context.Context, value string) error
}

// ChooseOption lists options, marking current with '*', and asks for an index.
// Invalid input is reported and asked again. Empty input or EOF cancels.
// Choosing the current option prints a warning and changes nothing.
func ChooseOption(p Prompter, w io.Writer, options []string, current string) (string, bool, error) {
	cur := -1
	for i, o := range options {
		if o == current {
			cur = i
			break
		}
	}
	if cur < 0 {
		return current, false, fmt.Errorf("current value %s is not one of the available options", strconv.Quote(current))
	}

	fmt.Fprintln(w, "Available options :")
	for i, o := range options {
		mark := " "
		if i == cur {
			mark = "*"
		}
		fmt.Fprintf(w, "%s[%d] : %s\n", mark, i, strconv.Quote(o))
	}

	valid := make([]string, len(options))
	for i := range options {
		valid[i] = strconv.Itoa(i)
	}
	for {
		in, err := p.ReadLine("Enter choice ID : ")
		if errors.Is(err, io.EOF) {
			return current, false, nil
		}
		if err != nil {
			return current, false, err
		}
		in = strings.TrimSpace(in)
		if in == "" {
			return current, false, nil
		}
		id, err := strconv.Atoi(in)
		if err != nil || id < 0 || id >= len(options) {
			fmt.Fprintf(w, "Error : ID needs to be one of - [%s]\n", strings.Join(valid, ", "))
			continue
		}
		if id == cur {
			fmt.Fprintln(w, "Warning : Same ID as current option. Not changing.")
			return current, false, nil
		}
		return options[id], true, nil
	}
}

// ChangeParams asks which parameter to change and applies the chosen option.
func (s *Session) ChangeParams(ctx context.Context) error {
	params, err := s.params()
	if err != nil {
		return err
	}
	keys := make([]string, len(params))
	for i, p := range params {
		keys[i] = fmt.Sprintf("%s(%c)", p.Name, p.Key)
	}
	k, err := s.prompter.ReadKey("Change " + strings.Join(keys, " or ") + "? : ")
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return err
	}
	k = unicode.ToLower(k)
	for _, p := range params {
		if p.Key != k {
			continue
		}
		value, changed, err := ChooseOption(s.prompter, s.out.w, p.Options, p.Current)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		return p.Apply(ctx, value)
	}
	return nil
}

func (s *Session) params() ([]Param, error) {
	models, err := s.store.Models()
	if err != nil {
		return nil, err
	}
	return []Param{
		{
			Key:     'm',
			Name:    "model",
			Options: withCurrent(models, s.model),
			Current: s.model,
			Apply:   s.switchModel,
		},
		{
			Key:     'd',
			Name:    "delimiter",
			Options: withCurrent(s.delimiters, s.delimiter),
			Current: s.delimiter,
			Apply: func(ctx context.Context, value string) error {
				s.delimiter = value
				s.out.info("Delimiter set to " + strconv.Quote(value))
				return nil
			},
		},
	}, nil
}

func withCurrent(options []string, current string) []string {
	out := append([]string(nil), options...)
	for _, o := range out {
		if o == current {
			return out
		}
	}
	return append(out, current)
}
