// Package prompt asks the user for missing values on a line-based terminal.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/term"
)

// ErrNoInput is returned when input ends before an answer was given.
var ErrNoInput = errors.New("no input available")

// maxAttempts bounds re-prompting on invalid answers.
const maxAttempts = 5

// Prompter reads answers from in and writes prompts to out.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int

	start sync.Once
	lines chan line
}

type line struct {
	text string
	err  error
}

// New creates a Prompter over arbitrary streams. It is never reported as
// interactive.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out, fd: -1}
}

// NewStdio creates a Prompter on stdin/stderr, keeping stdout for labels.
func NewStdio() *Prompter {
	return &Prompter{in: bufio.NewReader(os.Stdin), out: os.Stderr, fd: int(os.Stdin.Fd())}
}

// Interactive reports whether input comes from a terminal.
func (p *Prompter) Interactive() bool {
	return p.fd >= 0 && term.IsTerminal(p.fd)
}

// =============================================================================
// Questions
// =============================================================================

// String asks for a text value. An empty answer returns def.
func (p *Prompter) String(ctx context.Context, name, def string) (string, error) {
	answer, err := p.ask(ctx, fmt.Sprintf("Enter value for %s%s: ", quoteName(name), hint(def)))
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// Required asks for a text value until a non-empty one is given.
func (p *Prompter) Required(ctx context.Context, name, def string) (string, error) {
	return p.Validated(ctx, name, def, nil)
}

// Validated asks for a non-empty text value until check accepts it. The
// rejection is shown before asking again. A nil check accepts any value.
func (p *Prompter) Validated(ctx context.Context, name, def string, check func(string) error) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		value, err := p.String(ctx, name, def)
		if err != nil {
			return "", err
		}
		if value == "" {
			fmt.Fprintf(p.out, "Input of %s is mandatory.\n", quoteName(name))
			continue
		}
		if check != nil {
			if err := check(value); err != nil {
				fmt.Fprintf(p.out, "Invalid %s: %v\n", quoteName(name), err)
				continue
			}
		}
		return value, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNoInput, name)
}

// Int asks for an integer in [lo, hi]. An empty answer returns def when def
// is in range.
func (p *Prompter) Int(ctx context.Context, name string, def, lo, hi int) (int, error) {
	hasDef := def >= lo && def <= hi
	defText := ""
	if hasDef {
		defText = strconv.Itoa(def)
	}
	for i := 0; i < maxAttempts; i++ {
		answer, err := p.ask(ctx, fmt.Sprintf("Enter value for %s (integer)%s: ", quoteName(name), hint(defText)))
		if err != nil {
			return 0, err
		}
		if answer == "" && hasDef {
			return def, nil
		}
		n, err := strconv.Atoi(answer)
		switch {
		case err != nil:
			fmt.Fprintf(p.out, "%q is not an integer.\n", answer)
		case n < lo || n > hi:
			fmt.Fprintf(p.out, "Please enter a number between %d and %d.\n", lo, hi)
		default:
			return n, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrNoInput, name)
}

// Bool asks a yes/no question. An empty answer returns def.
func (p *Prompter) Bool(ctx context.Context, name string, def bool) (bool, error) {
	choices := " (yes/No)"
	if def {
		choices = " (Yes/no)"
	}
	answer, err := p.ask(ctx, fmt.Sprintf("Enter value for %s%s: ", quoteName(name), choices))
	if err != nil {
		return false, err
	}
	if answer == "" {
		return def, nil
	}
	switch strings.ToLower(answer) {
	case "y", "yes", "true", "1":
		return true, nil
	default:
		return false, nil
	}
}

// Select asks the user to pick one of options by number. A single option is
// returned without asking; an empty answer picks the first.
func (p *Prompter) Select(ctx context.Context, item string, options []string) (int, error) {
	if len(options) == 0 {
		return 0, fmt.Errorf("no %ss to choose from", item)
	}
	if len(options) == 1 {
		return 0, nil
	}

	fmt.Fprintf(p.out, "Found multiple %ss.\n", item)
	for i, option := range options {
		fmt.Fprintf(p.out, " %d. %s\n", i+1, option)
	}

	label := strings.ToUpper(item[:1]) + item[1:]
	for i := 0; i < maxAttempts; i++ {
		answer, err := p.ask(ctx, fmt.Sprintf("%s number to use (default 1): ", label))
		if err != nil {
			return 0, err
		}
		if answer == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		fmt.Fprintf(p.out, "Please enter a number between 1 and %d.\n", len(options))
	}
	return 0, fmt.Errorf("%w: %s selection", ErrNoInput, item)
}

// =============================================================================
// Helpers
// =============================================================================

// ask prints question and waits for the next line or for ctx to end. Lines
// are read by a single background goroutine so a blocked read never holds up
// cancellation.
func (p *Prompter) ask(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.start.Do(func() {
		p.lines = make(chan line)
		go p.readLines()
	})

	fmt.Fprint(p.out, question)
	select {
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return "", ctx.Err()
	case l, ok := <-p.lines:
		if !ok {
			return "", ErrNoInput
		}
		if l.err != nil && (l.text == "" || !errors.Is(l.err, io.EOF)) {
			if errors.Is(l.err, io.EOF) {
				return "", ErrNoInput
			}
			return "", fmt.Errorf("read answer: %w", l.err)
		}
		return strings.TrimSpace(l.text), nil
	}
}

func (p *Prompter) readLines() {
	defer close(p.lines)
	for {
		text, err := p.in.ReadString('\n')
		p.lines <- line{text: text, err: err}
		if err != nil {
			return
		}
	}
}

// quoteName renders "tls_resolver" as 'tls resolver'.
func quoteName(name string) string {
	return "'" + strings.ReplaceAll(name, "_", " ") + "'"
}

func hint(def string) string {
	if def == "" {
		return ""
	}
	return " [" + def + "]"
}
