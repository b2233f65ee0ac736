package prompt

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
)

const selectHeight = 15

// Form prompts with huh widgets.
type Form struct{}

// Input asks for free text. An empty answer is returned as is.
func (f *Form) Input(title, placeholder string) (string, error) {
	var value string
	err := huh.NewInput().
		Title(title).
		Placeholder(placeholder).
		Value(&value).
		Run()
	if err != nil {
		return "", formErr(err)
	}
	return value, nil
}

// Select shows indexed options followed by backLabel, which returns Back.
func (f *Form) Select(title string, options []string, backLabel string) (int, error) {
	opts := make([]huh.Option[int], 0, len(options)+1)
	for idx, label := range options {
		opts = append(opts, huh.NewOption(fmt.Sprintf("%s %s", FormatIndex(idx, len(options)), label), idx))
	}
	opts = append(opts, huh.NewOption(backLabel, Back))

	var selected int
	err := huh.NewSelect[int]().
		Title(title).
		Description("Press / to filter.").
		Options(opts...).
		Height(selectHeight).
		Value(&selected).
		Run()
	if err != nil {
		return Back, formErr(err)
	}
	return selected, nil
}

// Run shows a spinner until fn returns or ctx is canceled.
func (f *Form) Run(ctx context.Context, title string, fn func(context.Context) error) error {
	return spinner.New().
		Title(title).
		Context(ctx).
		ActionWithErr(fn).
		Run()
}

func formErr(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrQuit
	}
	return fmt.Errorf("run prompt: %w", err)
}
