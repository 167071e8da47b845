package form

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/validation"
)

var parkNamePattern = regexp.MustCompile(`[A-Za-z\s]`)

var allowedStates = []string{"NY", "New York", "CA", "California"}

type parkParameter struct {
	*BaseParameter
}

func newPark(base *BaseParameter) *parkParameter {
	return &parkParameter{BaseParameter: base}
}

func (p *parkParameter) Kind() string { return "park" }

func (p *parkParameter) ValidateAsync(ctx context.Context) (*validation.Status, error) {
	status, err := p.BaseParameter.ValidateAsync(ctx)
	if err != nil || !status.IsOK() {
		return status, err
	}
	state := p.DependencyString("state")
	if state == "" {
		return validation.Error("Cannot validate park name: no state selected"), nil
	}
	for _, allowed := range allowedStates {
		if allowed == state {
			return validation.OK(), nil
		}
	}
	return validation.Error("Invalid state selected. Valid options are: " + strings.Join(allowedStates, ", ")), nil
}

func newNationalParkForm(t *testing.T) *Form {
	t.Helper()
	f := New(Values{},
		WithAsyncValidationDelay(5*time.Millisecond),
		WithOnValidateSync(func(v Values) *validation.Status {
			if v.String("parkName") == "Yosemite" && v.String("state") != "CA" {
				return validation.Error("Invalid park/state combination")
			}
			return validation.OK()
		}),
	)
	MustParam(f, "parkName", newPark, ParamInit{
		Label:        "Park name",
		Required:     true,
		Dependencies: map[string]string{"state": "state"},
		OnValidateSync: func(value any) *validation.Status {
			if s, _ := value.(string); s != "" && !parkNamePattern.MatchString(s) {
				return validation.Error("Invalid park name. Only letters and spaces are allowed.")
			}
			return validation.OK()
		},
	})
	MustParam(f, "state", NewString, ParamInit{
		Required: true,
		OnValidateAsync: func(_ context.Context, value any) (*validation.Status, error) {
			if s, _ := value.(string); len(s) == 2 {
				return validation.OK(), nil
			}
			return validation.Error("State must be exactly 2 characters"), nil
		},
	})
	return f
}

func squareMiles(required bool) ParamInit {
	return ParamInit{
		Label:    "Square miles",
		Required: required,
		OnValidateAsync: func(_ context.Context, value any) (*validation.Status, error) {
			time.Sleep(time.Millisecond)
			if n, ok := ToFloat(value); ok && n <= 0 {
				return validation.Error("Mileage must be a positive number"), nil
			}
			return validation.OK(), nil
		},
	}
}

// startValidation runs the sync phase inline and the rest in a goroutine, so
// several runs can overlap in a deterministic order.
func startValidation(f *Form, opts ValidateOptions) <-chan validation.Snapshot {
	run := f.beginValidation(context.Background(), opts)
	out := make(chan validation.Snapshot, 1)
	go func() {
		snap, _ := f.finishValidation(run)
		out <- snap
	}()
	return out
}

func mustValidate(t *testing.T, f *Form, opts ValidateOptions) validation.Snapshot {
	t.Helper()
	snap, err := f.Validate(context.Background(), opts)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	return snap
}

func expectOverall(t *testing.T, f *Form, level validation.Level, message string) {
	t.Helper()
	status := f.ValidationStatus()
	if status == nil {
		t.Fatalf("expected %s status, got nil", level)
	}
	if status.Level != level || status.Message != message {
		t.Fatalf("expected %s %q, got %s %q", level, message, status.Level, status.Message)
	}
}

func TestValidation(t *testing.T) {
	t.Parallel()

	f := newNationalParkForm(t)
	var mu sync.Mutex
	var seen []validation.Snapshot
	f.OnValidate(func(s validation.Snapshot) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	done := startValidation(f, ValidateOptions{})
	mu.Lock()
	first := seen[0]
	mu.Unlock()
	if !first.SyncValidationComplete || first.AsyncValidationComplete {
		t.Fatalf("expected sync-only snapshot first, got %+v", first)
	}
	if !first.OnValidateSyncStatus.IsOK() {
		t.Fatalf("expected ok form status, got %v", first.OnValidateSyncStatus)
	}
	<-done

	mu.Lock()
	last := seen[len(seen)-1]
	mu.Unlock()
	if !last.AsyncValidationComplete || !last.OverallStatus.IsError() {
		t.Fatalf("expected completed error snapshot, got %+v", last)
	}
	expectOverall(t, f, validation.LevelError, "2 errors found")
	if got := f.EntryValidationStatus("parkName").Message; got != "Park name is required" {
		t.Fatalf("unexpected park status %q", got)
	}
	if got := f.EntryValidationStatus("state").Message; got != "State is required" {
		t.Fatalf("unexpected state status %q", got)
	}

	f.UpdateValue("parkName", "Yosemite")
	mustValidate(t, f, ValidateOptions{})
	expectOverall(t, f, validation.LevelError, "2 errors found")
	if got := f.EntryValidationStatus("parkName").Message; got != "Cannot validate park name: no state selected" {
		t.Fatalf("unexpected park status %q", got)
	}

	f.UpdateValue("state", "California")
	mustValidate(t, f, ValidateOptions{})
	expectOverall(t, f, validation.LevelError, "State must be exactly 2 characters")

	f.UpdateValue("state", "CO")
	mustValidate(t, f, ValidateOptions{})
	expectOverall(t, f, validation.LevelError,
		"Invalid state selected. Valid options are: NY, New York, CA, California")

	f.UpdateValue("state", "CA")
	mustValidate(t, f, ValidateOptions{})
	expectOverall(t, f, validation.LevelOK, "")

	MustParam(f, "squareMiles", NewNumber, squareMiles(false))
	mustValidate(t, f, ValidateOptions{})
	expectOverall(t, f, validation.LevelOK, "")

	f.UpdateValue("squareMiles", -123)
	mustValidate(t, f, ValidateOptions{})
	expectOverall(t, f, validation.LevelError, "Mileage must be a positive number")

	f.UpdateValue("squareMiles", 1187)
	mustValidate(t, f, ValidateOptions{})
	expectOverall(t, f, validation.LevelOK, "")

	// The last of several overlapping runs wins.
	f.UpdateValue("squareMiles", -1)
	r1 := startValidation(f, ValidateOptions{})
	f.UpdateValue("squareMiles", 1)
	r2 := startValidation(f, ValidateOptions{})
	f.UpdateValue("squareMiles", "not-a-number")
	mustValidate(t, f, ValidateOptions{})
	<-r1
	<-r2
	expectOverall(t, f, validation.LevelError, "Square miles must be a number")

	f.UpdateValue("squareMiles", 1)

	preempted := f.beginValidation(context.Background(), ValidateOptions{})
	latest := startValidation(f, ValidateOptions{})
	snap, err := f.finishValidation(preempted)
	if err != nil || snap.OverallStatus.Level != validation.LevelCanceled {
		t.Fatalf("expected canceled run, got %v (err=%v)", snap.OverallStatus, err)
	}
	<-latest

	forced := f.beginValidation(context.Background(), ValidateOptions{Force: true})
	after := startValidation(f, ValidateOptions{})
	forcedSnap, err := f.finishValidation(forced)
	if err != nil {
		t.Fatalf("forced run: %v", err)
	}
	<-after
	if !forcedSnap.OverallStatus.IsOK() {
		t.Fatalf("expected forced run to complete ok, got %v", forcedSnap.OverallStatus)
	}
	if !forcedSnap.EntryStatus["parkName"].Forced {
		t.Fatalf("expected forced flag on entry status")
	}
}

func TestWaitForValidation(t *testing.T) {
	t.Parallel()

	f := newNationalParkForm(t)
	MustParam(f, "squareMiles", NewNumber, squareMiles(true))

	mustValidate(t, f, ValidateOptions{})
	for _, name := range []string{"parkName", "state", "squareMiles"} {
		if !f.EntryValidationStatus(name).IsError() {
			t.Fatalf("expected %s to start in error", name)
		}
	}

	f.UpdateValue("parkName", "Yosemite")
	startValidation(f, ValidateOptions{})
	f.UpdateValue("squareMiles", -123)
	startValidation(f, ValidateOptions{})
	f.UpdateValue("state", "invalid")
	startValidation(f, ValidateOptions{})
	f.UpdateValue("squareMiles", 1187)
	startValidation(f, ValidateOptions{})
	f.UpdateValue("state", "CA")
	startValidation(f, ValidateOptions{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	status, err := f.WaitForValidation(ctx)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if !status.IsOK() {
		t.Fatalf("expected ok after the last run, got %v", status)
	}
	if diff := cmp.Diff(f.ValidationStatus(), status); diff != "" {
		t.Fatalf("status mismatch (-want +got):\n%s", diff)
	}
	if got := f.ValidationState(); got != StateIdle {
		t.Fatalf("expected idle state, got %s", got)
	}
}

func TestWaitForValidationHonoursContext(t *testing.T) {
	t.Parallel()

	f := New(Values{}, WithOnValidateAsync(func(ctx context.Context, _ Values) (*validation.Status, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}))
	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()
	run := f.beginValidation(runCtx, ValidateOptions{})
	go f.finishValidation(run)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := f.WaitForValidation(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestValidateReturnsContextError(t *testing.T) {
	t.Parallel()

	f := New(Values{}, WithOnValidateAsync(func(ctx context.Context, _ Values) (*validation.Status, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	snap, err := f.Validate(ctx, ValidateOptions{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if snap.OverallStatus.Level != validation.LevelCanceled {
		t.Fatalf("expected canceled snapshot, got %v", snap.OverallStatus)
	}
}

func TestValidateOnChangeOrdering(t *testing.T) {
	t.Parallel()

	f := New(Values{}, WithValidateOnChange(true))
	MustParam(f, "name", NewString, ParamInit{Required: true})

	var mu sync.Mutex
	var order []string
	f.On(EventChange, func(Event) {
		mu.Lock()
		order = append(order, "change")
		mu.Unlock()
	})
	f.OnValidate(func(s validation.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		if s.AsyncValidationComplete {
			order = append(order, "async")
		} else {
			order = append(order, "sync")
		}
	})

	f.UpdateValue("name", "Ada")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := f.WaitForValidation(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff([]string{"change", "sync", "async"}, order); diff != "" {
		t.Fatalf("event order mismatch (-want +got):\n%s", diff)
	}
}

func TestAsyncSkippedAfterSyncError(t *testing.T) {
	t.Parallel()

	calls := 0
	f := New(Values{})
	MustParam(f, "name", NewString, ParamInit{
		Required: true,
		OnValidateAsync: func(context.Context, any) (*validation.Status, error) {
			calls++
			return validation.Warn("async ran"), nil
		},
	})

	snap := mustValidate(t, f, ValidateOptions{})
	if calls != 0 {
		t.Fatalf("expected async validator to be skipped, ran %d times", calls)
	}
	if got := snap.EntryStatus["name"].Message; got != "Name is required" {
		t.Fatalf("unexpected status %q", got)
	}

	f.UpdateValue("name", "Ada")
	snap = mustValidate(t, f, ValidateOptions{})
	if calls != 1 || snap.OverallStatus.Level != validation.LevelWarn {
		t.Fatalf("expected async warning, got calls=%d status=%v", calls, snap.OverallStatus)
	}
}

func TestSubFormValidation(t *testing.T) {
	t.Parallel()

	child := New(Values{})
	MustParam(child, "color", NewString, ParamInit{Required: true})
	f := New(Values{})
	if _, err := f.AddSubForm("answers", child, SubFormInit{}); err != nil {
		t.Fatalf("add sub-form: %v", err)
	}

	snap := mustValidate(t, f, ValidateOptions{Force: true})
	status := snap.EntryStatus["answers"]
	if !status.IsError() || status.Message != "Color is required" || !status.Forced {
		t.Fatalf("unexpected sub-form status %+v", status)
	}

	child.UpdateValue("color", "blue")
	snap = mustValidate(t, f, ValidateOptions{})
	if !snap.OverallStatus.IsOK() {
		t.Fatalf("expected ok, got %v", snap.OverallStatus)
	}
}

func TestValidateSyncAndForcedStatus(t *testing.T) {
	t.Parallel()

	f := New(Values{})
	MustParam(f, "name", NewString, ParamInit{Required: true})

	snap := f.ValidateSync(context.Background(), ValidateOptions{})
	if !snap.SyncValidationComplete || snap.AsyncValidationComplete {
		t.Fatalf("expected sync-only snapshot, got %+v", snap)
	}
	expectOverall(t, f, validation.LevelError, "Name is required")

	var published []*validation.Status
	f.OnValidate(func(s validation.Snapshot) { published = append(published, s.OverallStatus) })
	f.ForceValidationStatus(validation.Error("Server rejected the request"))
	expectOverall(t, f, validation.LevelError, "Server rejected the request")
	if len(published) != 1 || published[0].Message != "Server rejected the request" {
		t.Fatalf("expected forced status to be published, got %v", published)
	}

	f.UpdateValue("name", "Ada")
	mustValidate(t, f, ValidateOptions{})
	expectOverall(t, f, validation.LevelOK, "")
}

func TestForcedRunBecomesCurrentWhenItFinishesLast(t *testing.T) {
	t.Parallel()

	gates := map[string]chan struct{}{"a": make(chan struct{}), "b": make(chan struct{})}
	f := New(Values{"name": "a"}, WithAsyncValidationDelay(time.Millisecond))
	MustParam(f, "name", NewString, ParamInit{
		OnValidateAsync: func(ctx context.Context, value any) (*validation.Status, error) {
			select {
			case <-gates[value.(string)]:
				return validation.OK(), nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	})

	forced := startValidation(f, ValidateOptions{Force: true})
	f.UpdateValue("name", "b")
	plain := startValidation(f, ValidateOptions{})

	close(gates["b"])
	if snap := <-plain; !snap.OverallStatus.IsOK() {
		t.Fatalf("expected the newer run to pass, got %v", snap.OverallStatus)
	}
	close(gates["a"])
	<-forced

	current := f.ValidationSnapshot()
	if current.Values["name"] != "a" {
		t.Fatalf("expected the forced run to be current, got values %v", current.Values)
	}
	if status := current.EntryStatus["name"]; !status.IsOK() || !status.Forced {
		t.Fatalf("unexpected current status %+v", status)
	}
	if !current.AsyncValidationComplete || f.ValidationState() != StateIdle {
		t.Fatalf("expected a completed idle form, got state %v", f.ValidationState())
	}
}
