package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// prompter reads answers for 'config init'. Passwords are read without echo
// when input is a terminal.
type prompter struct {
	in    *bufio.Reader
	out   io.Writer
	stdin *os.File // nil when input is not a terminal
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	p := &prompter{in: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.stdin = f
	}
	return p
}

// line asks for a value; an empty answer or end of input yields def.
func (p *prompter) line(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}

	input, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return def, nil
	}
	return input, nil
}

// password asks for a secret; an empty answer keeps current.
func (p *prompter) password(label, current string) (string, error) {
	if current != "" {
		fmt.Fprintf(p.out, "%s [keep current]: ", label)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}

	var input string
	if p.stdin != nil {
		b, err := term.ReadPassword(int(p.stdin.Fd()))
		fmt.Fprintln(p.out)
		if err != nil {
			return "", err
		}
		input = string(b)
	} else {
		s, err := p.in.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", err
		}
		input = strings.TrimRight(s, "\r\n")
	}

	if input == "" {
		return current, nil
	}
	return input, nil
}

// confirm asks a yes/no question; anything but y/yes is no.
func (p *prompter) confirm(question string) bool {
	fmt.Fprintf(p.out, "%s [y/N]: ", question)
	input, _ := p.in.ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}
