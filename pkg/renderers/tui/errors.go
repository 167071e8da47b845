package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrInvalid is returned when the collected values fail a forced
	// validation.
	ErrInvalid = errors.New("tui: form is invalid")
	// ErrNoChoices is returned for a selection control without options.
	ErrNoChoices = errors.New("tui: no options to choose from")
)
