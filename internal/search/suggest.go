package search

import "strings"

// SuggestCommand builds "<command> <switch>" from the first line of text that
// starts with '-', e.g. "-a, --all" yields "ls -a". It returns "" when no line
// looks like an option.
func SuggestCommand(command, text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "-") {
			continue
		}
		sw := strings.Fields(line)[0]
		sw, _, _ = strings.Cut(sw, ",")
		return command + " " + sw
	}
	return ""
}
