package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Line prompts with one answer per input line.
type Line struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewLine creates a line-based Prompter.
func NewLine(in io.Reader, out io.Writer) *Line {
	return &Line{in: bufio.NewScanner(in), out: out}
}

// Input prints the title and reads one line.
func (l *Line) Input(title, placeholder string) (string, error) {
	fmt.Fprintf(l.out, "%s: ", title)
	return l.readLine()
}

// Select reads an index. Blank, "q" and "b" go back; invalid answers ask again.
func (l *Line) Select(title string, options []string, backLabel string) (int, error) {
	for {
		fmt.Fprintf(l.out, "%s (blank: %s): ", title, strings.ToLower(backLabel))
		answer, err := l.readLine()
		if err != nil {
			return Back, err
		}

		switch strings.ToLower(answer) {
		case "", "q", "b":
			return Back, nil
		}

		idx, err := strconv.Atoi(answer)
		if err != nil || idx < 0 || idx >= len(options) {
			fmt.Fprintf(l.out, "Invalid selection %q, expected 0-%d\n", answer, len(options)-1)
			continue
		}
		return idx, nil
	}
}

// Run prints the title and calls fn.
func (l *Line) Run(ctx context.Context, title string, fn func(context.Context) error) error {
	fmt.Fprintln(l.out, title)
	return fn(ctx)
}

func (l *Line) readLine() (string, error) {
	if !l.in.Scan() {
		if err := l.in.Err(); err != nil {
			return "", errors.Join(ErrQuit, err)
		}
		return "", ErrQuit
	}
	return strings.TrimSpace(l.in.Text()), nil
}

// FormatIndex zero-pads idx to the width of count.
func FormatIndex(idx, count int) string {
	width := len(strconv.Itoa(count))
	return fmt.Sprintf("%0*d", width, idx)
}
