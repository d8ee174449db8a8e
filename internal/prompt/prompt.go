package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompter reads lines from an input stream after printing a prompt.
// It satisfies the session Prompter contract.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// New creates a Prompter reading from in and printing prompts to out.
// Pass os.Stdin and os.Stderr for terminal use; prompts go to stderr so
// piped stdout stays clean.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// ReadLine prints the prompt and returns one line of input with the
// trailing newline and surrounding whitespace removed.
func (p *Prompter) ReadLine(prompt string) (string, error) {
	if _, err := fmt.Fprint(p.out, prompt); err != nil {
		return "", fmt.Errorf("write prompt: %w", err)
	}

	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
