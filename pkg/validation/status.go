package validation

import (
	"fmt"
	"strings"
)

// Level is the severity of a validation result.
type Level string

const (
	LevelOK       Level = "ok"
	LevelWarn     Level = "warn"
	LevelError    Level = "error"
	LevelCanceled Level = "canceled"
)

// Severity ranks levels so the most severe status can be selected. Canceled
// ranks lowest.
func (l Level) Severity() int {
	switch l {
	case LevelError:
		return 3
	case LevelWarn:
		return 2
	case LevelOK:
		return 1
	default:
		return 0
	}
}

// Status is the outcome of validating a single field or the form as a whole.
// Forced marks results produced by a run that must surface errors regardless
// of whether the user has touched the field (typically a submit).
type Status struct {
	Level   Level  `json:"level" yaml:"level"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
	Data    any    `json:"data,omitempty" yaml:"data,omitempty"`
	Forced  bool   `json:"forced,omitempty" yaml:"forced,omitempty"`
}

// OK returns a passing status.
func OK() *Status {
	return &Status{Level: LevelOK}
}

// Warn returns a warning status.
func Warn(message string) *Status {
	return &Status{Level: LevelWarn, Message: strings.TrimSpace(message)}
}

// Error returns an error status.
func Error(message string) *Status {
	return &Status{Level: LevelError, Message: strings.TrimSpace(message)}
}

// Errorf formats an error status.
func Errorf(format string, args ...any) *Status {
	return Error(fmt.Sprintf(format, args...))
}

// Canceled returns the status assigned to superseded validation runs.
func Canceled() *Status {
	return &Status{Level: LevelCanceled, Message: "Validation canceled"}
}

// WithData attaches validator-specific payload (for example an error code
// such as "duplicateContainer") and returns the receiver.
func (s *Status) WithData(data any) *Status {
	if s == nil {
		return nil
	}
	s.Data = data
	return s
}

// IsOK reports whether s is non-nil and passing.
func (s *Status) IsOK() bool {
	return s != nil && s.Level == LevelOK
}

// IsError reports whether s is an error-level status.
func (s *Status) IsError() bool {
	return s != nil && s.Level == LevelError
}

// Clone returns a shallow copy so callers can flip Forced without touching
// shared results.
func (s *Status) Clone() *Status {
	if s == nil {
		return nil
	}
	out := *s
	return &out
}

func (s *Status) String() string {
	if s == nil {
		return "<nil>"
	}
	if s.Message == "" {
		return string(s.Level)
	}
	return string(s.Level) + ": " + s.Message
}

// MostSevere returns the most severe non-nil status, preferring the earliest
// when severities tie.
func MostSevere(statuses ...*Status) *Status {
	var best *Status
	for _, status := range statuses {
		if status == nil {
			continue
		}
		if best == nil || status.Level.Severity() > best.Level.Severity() {
			best = status
		}
	}
	return best
}
