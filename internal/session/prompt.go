package session

// Prompter reads user input for the interactive session.
//
// ReadLine shows prompt and returns one line without its trailing newline.
// ReadKey shows prompt and returns a single key press. Both return io.EOF
// when input is exhausted.
type Prompter interface {
	ReadLine(prompt string) (string, error)
	ReadKey(prompt string) (rune, error)
}
