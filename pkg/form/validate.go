package form

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-formflow/pkg/validation"
)

// ValidateOptions controls a validation run.
type ValidateOptions struct {
	// Force marks every resulting status as forced and makes the run final:
	// it is never canceled by a newer run and skips the async delay.
	Force bool
}

// ValidationState tracks where the current run is.
type ValidationState int

const (
	StateIdle ValidationState = iota
	StateSyncRunning
	StateSyncDone
	StateAsyncRunning
	StateAsyncDone
)

func (s ValidationState) String() string {
	switch s {
	case StateSyncRunning:
		return "sync-running"
	case StateSyncDone:
		return "sync-done"
	case StateAsyncRunning:
		return "async-running"
	case StateAsyncDone:
		return "async-done"
	default:
		return "idle"
	}
}

type validationRun struct {
	ctx                context.Context
	cancel             context.CancelFunc
	snapshot           *validation.Snapshot
	opts               ValidateOptions
	previousInProgress bool
}

// Validate runs both validation phases and returns a copy of the resulting
// snapshot. A validate event is published after each phase. When a newer run
// starts before this one finishes (and this one is not forced), the returned
// snapshot carries a canceled overall status and no second event fires.
func (f *Form) Validate(ctx context.Context, opts ValidateOptions) (validation.Snapshot, error) {
	run := f.beginValidation(ctx, opts)
	return f.finishValidation(run)
}

// ValidateSync runs only the synchronous phase. The resulting snapshot
// becomes current and complete.
func (f *Form) ValidateSync(ctx context.Context, opts ValidateOptions) validation.Snapshot {
	run := f.beginValidation(ctx, opts)
	defer run.cancel()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.snapshot == run.snapshot {
		f.state = StateIdle
	}
	run.snapshot.Complete()
	return run.snapshot.Clone()
}

func (f *Form) beginValidation(ctx context.Context, opts ValidateOptions) *validationRun {
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancel(ctx)

	f.mu.Lock()
	previous := f.snapshot
	run := &validationRun{
		ctx:                runCtx,
		cancel:             cancel,
		opts:               opts,
		snapshot:           validation.NewSnapshot(f.values),
		previousInProgress: !previous.Completed(),
	}
	if f.runCancel != nil && !f.runForced {
		f.runCancel()
	}
	f.snapshot = run.snapshot
	f.runCancel = cancel
	f.runForced = opts.Force
	f.forced = nil
	f.state = StateSyncRunning
	f.mu.Unlock()

	statuses := f.syncStatuses(runCtx, run.snapshot.Values, opts)
	var formStatus *validation.Status
	if f.cfg.onValidateSync != nil {
		formStatus = forcedCopy(f.cfg.onValidateSync(run.snapshot.Values), opts.Force)
	}

	f.mu.Lock()
	run.snapshot.EntryStatus = statuses
	run.snapshot.OnValidateSyncStatus = formStatus
	run.snapshot.SyncValidationComplete = true
	run.snapshot.UpdateOverallStatus()
	if f.snapshot == run.snapshot {
		f.state = StateSyncDone
	}
	copied := run.snapshot.Clone()
	f.mu.Unlock()

	f.bus.Publish(EventValidate, Event{Name: EventValidate, Snapshot: copied})
	return run
}

func (f *Form) syncStatuses(ctx context.Context, values Values, opts ValidateOptions) map[string]*validation.Status {
	statuses := make(map[string]*validation.Status)
	for _, entry := range f.AllEntries() {
		switch typed := entry.(type) {
		case Parameter:
			statuses[typed.Name()] = forcedCopy(typed.ValidateSync(ctx), opts.Force)
		case *SubForm:
			child := typed.Child()
			snap := validation.NewSnapshot(child.Values())
			snap.EntryStatus = child.syncStatuses(ctx, snap.Values, opts)
			if child.cfg.onValidateSync != nil {
				snap.OnValidateSyncStatus = child.cfg.onValidateSync(snap.Values)
			}
			snap.UpdateOverallStatus()
			statuses[typed.Name()] = forcedCopy(snap.OverallStatus, opts.Force)
		}
	}
	return statuses
}

func (f *Form) finishValidation(run *validationRun) (validation.Snapshot, error) {
	defer run.cancel()

	if run.previousInProgress && !run.opts.Force && f.cfg.asyncValidationDelay > 0 {
		timer := time.NewTimer(f.cfg.asyncValidationDelay)
		select {
		case <-timer.C:
		case <-run.ctx.Done():
			timer.Stop()
		}
	}
	if snap, canceled := f.cancelIfSuperseded(run); canceled {
		return snap, nil
	}
	if err := run.ctx.Err(); err != nil {
		return f.abort(run, err)
	}

	f.setState(run, StateAsyncRunning)
	results, err := f.asyncStatuses(run)
	if snap, canceled := f.cancelIfSuperseded(run); canceled {
		return snap, nil
	}
	if err != nil {
		return f.abort(run, err)
	}

	var formStatus *validation.Status
	if f.cfg.onValidateAsync != nil {
		status, err := f.cfg.onValidateAsync(run.ctx, run.snapshot.Values)
		if err != nil {
			if run.ctx.Err() != nil {
				if snap, canceled := f.cancelIfSuperseded(run); canceled {
					return snap, nil
				}
				return f.abort(run, err)
			}
			status = validation.Error(err.Error())
		}
		formStatus = forcedCopy(status, run.opts.Force)
	}
	if snap, canceled := f.cancelIfSuperseded(run); canceled {
		return snap, nil
	}

	f.mu.Lock()
	if !run.opts.Force && f.snapshot != run.snapshot {
		run.snapshot.Cancel()
		canceled := run.snapshot.Clone()
		f.mu.Unlock()
		return canceled, nil
	}
	if run.opts.Force && f.snapshot != run.snapshot {
		// a forced result replaces runs started while it was in flight
		f.snapshot = run.snapshot
	}
	for name, status := range results {
		if !run.snapshot.EntryStatus[name].IsError() {
			run.snapshot.EntryStatus[name] = status
		}
	}
	run.snapshot.OnValidateAsyncStatus = formStatus
	run.snapshot.AsyncValidationComplete = true
	run.snapshot.UpdateOverallStatus()
	if f.snapshot == run.snapshot {
		f.state = StateAsyncDone
	}
	copied := run.snapshot.Clone()
	f.mu.Unlock()

	f.bus.Publish(EventValidate, Event{Name: EventValidate, Snapshot: copied})

	f.mu.Lock()
	if f.snapshot == run.snapshot {
		f.state = StateIdle
	}
	run.snapshot.Complete()
	f.mu.Unlock()
	return copied, nil
}

func (f *Form) asyncStatuses(run *validationRun) (map[string]*validation.Status, error) {
	var (
		mu      sync.Mutex
		results = make(map[string]*validation.Status)
	)
	record := func(name string, status *validation.Status) {
		mu.Lock()
		results[name] = forcedCopy(status, run.opts.Force)
		mu.Unlock()
	}

	f.mu.RLock()
	syncStatus := run.snapshot.EntryStatus
	f.mu.RUnlock()

	g, ctx := errgroup.WithContext(run.ctx)
	for _, entry := range f.AllEntries() {
		switch typed := entry.(type) {
		case Parameter:
			if syncStatus[typed.Name()].IsError() {
				continue
			}
			param := typed
			g.Go(func() error {
				if err := param.WaitForLoad(ctx); err != nil {
					return err
				}
				status, err := param.ValidateAsync(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					status = validation.Error(err.Error())
				}
				record(param.Name(), status)
				return nil
			})
		case *SubForm:
			sub := typed
			g.Go(func() error {
				snap, err := sub.Child().Validate(ctx, run.opts)
				if err != nil {
					return err
				}
				record(sub.Name(), snap.OverallStatus)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (f *Form) cancelIfSuperseded(run *validationRun) (validation.Snapshot, bool) {
	if run.opts.Force {
		return validation.Snapshot{}, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.snapshot == run.snapshot {
		return validation.Snapshot{}, false
	}
	run.snapshot.Cancel()
	return run.snapshot.Clone(), true
}

func (f *Form) abort(run *validationRun, err error) (validation.Snapshot, error) {
	f.mu.Lock()
	run.snapshot.Cancel()
	if f.snapshot == run.snapshot {
		f.state = StateIdle
	}
	copied := run.snapshot.Clone()
	f.mu.Unlock()
	f.logger.Debug("validation aborted", "error", err)
	return copied, err
}

func (f *Form) setState(run *validationRun, state ValidationState) {
	f.mu.Lock()
	if f.snapshot == run.snapshot {
		f.state = state
	}
	f.mu.Unlock()
}

// WaitForValidation blocks until the current run completes and no newer run
// has replaced it, then returns the overall status.
func (f *Form) WaitForValidation(ctx context.Context) (*validation.Status, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		f.mu.RLock()
		seen := f.snapshot
		f.mu.RUnlock()

		select {
		case <-seen.Done():
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		f.mu.RLock()
		same := f.snapshot == seen
		f.mu.RUnlock()
		if same {
			return f.ValidationStatus(), nil
		}
	}
}

// ValidationSnapshot returns a copy of the current snapshot.
func (f *Form) ValidationSnapshot() validation.Snapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.snapshot.Clone()
}

// ValidationStatus returns the current overall status, or the status set
// by ForceValidationStatus since the last run started.
func (f *Form) ValidationStatus() *validation.Status {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.forced != nil {
		return f.forced.Clone()
	}
	return f.snapshot.OverallStatus.Clone()
}

// EntryValidationStatus returns the status of one entry in the current
// snapshot, or nil if none has been computed.
func (f *Form) EntryValidationStatus(name string) *validation.Status {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.snapshot.EntryStatus[name].Clone()
}

// ValidationState reports the phase of the current run.
func (f *Form) ValidationState() ValidationState {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state
}

// ForceValidationStatus overrides the overall status until the next run
// starts and notifies validate handlers.
func (f *Form) ForceValidationStatus(status *validation.Status) {
	f.mu.Lock()
	f.forced = status.Clone()
	copied := f.snapshot.Clone()
	copied.OverallStatus = status.Clone()
	f.mu.Unlock()
	f.bus.Publish(EventValidate, Event{Name: EventValidate, Snapshot: copied})
}

func forcedCopy(status *validation.Status, forced bool) *validation.Status {
	if status == nil {
		status = validation.OK()
	} else {
		status = status.Clone()
	}
	status.Forced = forced
	return status
}
