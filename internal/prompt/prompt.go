// Package prompt asks the user for the series, subtitle locale, season and episode.
//
// Terminals get huh forms; piped input falls back to one answer per line.
package prompt

import (
	"context"
	"errors"
	"os"
)

// Back is returned by Select when the user leaves the list without choosing.
const Back = -1

// ErrQuit is returned when the user aborts or input ends.
var ErrQuit = errors.New("quit")

// Prompter is the interactive surface used by the main loop.
type Prompter interface {
	// Input asks for free text. An empty answer is returned as "".
	Input(title, placeholder string) (string, error)
	// Select asks for an index into options, or Back.
	Select(title string, options []string, backLabel string) (int, error)
	// Run executes fn while showing title as a progress indicator.
	Run(ctx context.Context, title string, fn func(context.Context) error) error
}

// New returns a huh-backed Prompter when in is a terminal and a line-based one otherwise.
func New(in, out *os.File) Prompter {
	if isTerminal(in) {
		return &Form{}
	}
	return NewLine(in, out)
}

func isTerminal(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice != 0
}
