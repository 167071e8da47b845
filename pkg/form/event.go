package form

import (
	"github.com/goliatone/go-formflow/pkg/events"
	"github.com/goliatone/go-formflow/pkg/validation"
)

const (
	// EventChange fires after the value bag is replaced.
	EventChange events.Name = "change"
	// EventValidate fires after each phase of a validation run.
	EventValidate events.Name = "validate"
)

// Event is the payload delivered to form handlers. Change events carry the
// new and previous bags; validate events carry a copy of the snapshot.
type Event struct {
	Name      events.Name
	NewValues Values
	OldValues Values
	Snapshot  validation.Snapshot
}

// EventHandler receives form events.
type EventHandler = events.Handler[Event]
