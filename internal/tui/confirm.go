package tui

import (
	"errors"

	"github.com/charmbracelet/huh"
)

// Confirm asks a yes/no question on the terminal. Aborting the prompt
// (ctrl-c, esc) counts as "no".
func Confirm(title, description string) (bool, error) {
	ok := false
	confirm := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Apply").
		Negative("Cancel").
		Value(&ok)

	err := huh.NewForm(huh.NewGroup(confirm)).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return ok, nil
}
