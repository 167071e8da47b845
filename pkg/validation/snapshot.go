package validation

import (
	"fmt"
	"sort"
	"sync"
)

type completion struct {
	once sync.Once
	ch   chan struct{}
}

func newCompletion() *completion {
	return &completion{ch: make(chan struct{})}
}

func (c *completion) close() {
	c.once.Do(func() { close(c.ch) })
}

// Snapshot is the combined validation state of a form for one validation pass.
// Async validators may resolve after sync ones, so the same pass is usually
// published twice: once with SyncValidationComplete and again with
// AsyncValidationComplete.
type Snapshot struct {
	Values                  map[string]any     `json:"values,omitempty" yaml:"values,omitempty"`
	SyncValidationComplete  bool               `json:"syncValidationComplete" yaml:"syncValidationComplete"`
	AsyncValidationComplete bool               `json:"asyncValidationComplete" yaml:"asyncValidationComplete"`
	EntryStatus             map[string]*Status `json:"entryStatus,omitempty" yaml:"entryStatus,omitempty"`
	OverallStatus           *Status            `json:"overallStatus,omitempty" yaml:"overallStatus,omitempty"`
	OnValidateSyncStatus    *Status            `json:"onValidateSyncStatus,omitempty" yaml:"onValidateSyncStatus,omitempty"`
	OnValidateAsyncStatus   *Status            `json:"onValidateAsyncStatus,omitempty" yaml:"onValidateAsyncStatus,omitempty"`

	initial bool
	done    *completion
}

// NewSnapshot starts an in-progress snapshot of values.
func NewSnapshot(values map[string]any) *Snapshot {
	return &Snapshot{
		Values:      values,
		EntryStatus: make(map[string]*Status),
		done:        newCompletion(),
	}
}

// NewInitialSnapshot returns the completed placeholder a form holds before
// its first validation run.
func NewInitialSnapshot(values map[string]any) *Snapshot {
	s := NewSnapshot(values)
	s.initial = true
	s.done.close()
	return s
}

// Initial reports whether s is the placeholder created with the form.
func (s *Snapshot) Initial() bool {
	return s != nil && s.initial
}

// Done is closed once the pass finishes or is canceled. Clones share the
// channel of the snapshot they were taken from.
func (s *Snapshot) Done() <-chan struct{} {
	if s == nil || s.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return s.done.ch
}

// Completed reports whether Done has been closed.
func (s *Snapshot) Completed() bool {
	select {
	case <-s.Done():
		return true
	default:
		return false
	}
}

// Complete closes Done. Calling it more than once is harmless.
func (s *Snapshot) Complete() {
	if s == nil || s.done == nil {
		return
	}
	s.done.close()
}

// Cancel marks the pass as superseded and completes it.
func (s *Snapshot) Cancel() {
	if s == nil {
		return
	}
	s.OverallStatus = Canceled()
	s.Complete()
}

// UpdateOverallStatus folds every entry and form-level status into one
// banner status. Entry results are summarised first; the form callbacks only
// win when they are strictly more severe.
func (s *Snapshot) UpdateOverallStatus() {
	if s == nil {
		return
	}
	entries := make([]*Status, 0, len(s.EntryStatus))
	for _, name := range sortedKeys(s.EntryStatus) {
		entries = append(entries, s.EntryStatus[name])
	}
	overall := Overall(entries...)
	if callbacks := Overall(s.OnValidateSyncStatus, s.OnValidateAsyncStatus); callbacks.Level.Severity() > overall.Level.Severity() {
		overall = callbacks
	}
	s.OverallStatus = overall
}

// Overall builds the banner status for a set of results.
func Overall(statuses ...*Status) *Status {
	var errs, warns []*Status
	for _, status := range statuses {
		switch {
		case status == nil:
		case status.Level == LevelError:
			errs = append(errs, status)
		case status.Level == LevelWarn:
			warns = append(warns, status)
		}
	}
	switch {
	case len(errs) == 1:
		return &Status{Level: LevelError, Message: errs[0].Message, Data: errs[0].Data}
	case len(errs) > 1:
		return &Status{Level: LevelError, Message: fmt.Sprintf("%d errors found", len(errs))}
	case len(warns) == 1:
		return &Status{Level: LevelWarn, Message: warns[0].Message, Data: warns[0].Data}
	case len(warns) > 1:
		return &Status{Level: LevelWarn, Message: fmt.Sprintf("%d warnings found", len(warns))}
	default:
		return OK()
	}
}

// Clone returns a copy whose maps and statuses can be read without racing
// the validation run that owns s.
func (s *Snapshot) Clone() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	out := Snapshot{
		SyncValidationComplete:  s.SyncValidationComplete,
		AsyncValidationComplete: s.AsyncValidationComplete,
		OverallStatus:           s.OverallStatus.Clone(),
		OnValidateSyncStatus:    s.OnValidateSyncStatus.Clone(),
		OnValidateAsyncStatus:   s.OnValidateAsyncStatus.Clone(),
		initial:                 s.initial,
		done:                    s.done,
	}
	if s.Values != nil {
		out.Values = make(map[string]any, len(s.Values))
		for k, v := range s.Values {
			out.Values[k] = v
		}
	}
	out.EntryStatus = make(map[string]*Status, len(s.EntryStatus))
	for k, v := range s.EntryStatus {
		out.EntryStatus[k] = v.Clone()
	}
	return out
}

func sortedKeys(m map[string]*Status) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
