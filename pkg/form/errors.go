package form

import "errors"

var (
	// ErrEntryNotFound is returned when no entry is registered under a name.
	ErrEntryNotFound = errors.New("form: entry not found")
	// ErrNotParameter is returned when a named entry is not a parameter.
	ErrNotParameter = errors.New("form: entry is not a parameter")
	// ErrNotSection is returned when a named entry is not a section.
	ErrNotSection = errors.New("form: entry is not a section")
	// ErrNotSubForm is returned when a named entry is not a sub-form.
	ErrNotSubForm = errors.New("form: entry is not a sub-form")
	// ErrDuplicateEntry is returned when an entry name is registered twice.
	ErrDuplicateEntry = errors.New("form: duplicate entry")
	// ErrInvalidName is returned for blank entry names.
	ErrInvalidName = errors.New("form: entry name required")
	// ErrNilContainer is returned when an entry is declared without a form.
	ErrNilContainer = errors.New("form: nil container")
	// ErrIndexOutOfRange is returned by list editing helpers.
	ErrIndexOutOfRange = errors.New("form: index out of range")
)
