package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

var errNoInput = errors.New("no input")

// prompter reads answers line by line. Prompts go to w so that stdout
// stays clean for output.
type prompter struct {
	r *bufio.Reader
	w io.Writer
}

func newPrompter(in io.Reader, w io.Writer) *prompter {
	if in == nil {
		in = strings.NewReader("")
	}
	return &prompter{r: bufio.NewReader(in), w: w}
}

// ask prints label and returns the trimmed answer.
func (p *prompter) ask(label string) (string, error) {
	fmt.Fprintf(p.w, "%s: ", label)
	line, err := p.r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		fmt.Fprintln(p.w)
		if err == io.EOF {
			return "", errNoInput
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// confirm asks a yes/no question defaulting to no.
func (p *prompter) confirm(question string) bool {
	fmt.Fprintf(p.w, "%s [y/N] ", question)
	line, err := p.r.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(p.w)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// valueOrAsk returns v, prompting for it when empty.
func (p *prompter) valueOrAsk(v, label string) (string, error) {
	if v != "" {
		return v, nil
	}
	return p.ask(label)
}
