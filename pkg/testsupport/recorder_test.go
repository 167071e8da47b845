package testsupport

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/events"
	"github.com/goliatone/go-formflow/pkg/form"
)

func TestRecorderCapturesChangeThenValidate(t *testing.T) {
	t.Parallel()

	f := form.New(form.Values{"name": "a"})
	form.MustParam(f, "name", form.NewString, form.ParamInit{Required: true})
	rec := Record(f)
	t.Cleanup(rec.Stop)

	f.UpdateValue("name", "b")
	if _, err := f.Validate(Context(t), form.ValidateOptions{}); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := rec.WaitFor(Context(t), 3); err != nil {
		t.Fatalf("wait: %v", err)
	}

	want := []events.Name{form.EventChange, form.EventValidate, form.EventValidate}
	if diff := cmp.Diff(want, rec.Names()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]form.Values{{"name": "b"}}, rec.Changes()); diff != "" {
		t.Fatalf("changes mismatch (-want +got):\n%s", diff)
	}
	snaps := rec.Snapshots()
	if !snaps[0].SyncValidationComplete || snaps[0].AsyncValidationComplete {
		t.Fatalf("first snapshot should be sync only: %+v", snaps[0])
	}
	if !snaps[1].AsyncValidationComplete {
		t.Fatalf("second snapshot should be async complete: %+v", snaps[1])
	}

	rec.Stop()
	f.UpdateValue("name", "c")
	if got := len(rec.Events()); got != 3 {
		t.Fatalf("stopped recorder should ignore events, got %d", got)
	}
}

func TestRecorderWaitHonoursContext(t *testing.T) {
	t.Parallel()

	rec := Record(form.New(form.Values{}))
	t.Cleanup(rec.Stop)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := rec.WaitFor(ctx, 1); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestBuildFormFixture(t *testing.T) {
	t.Parallel()

	f := BuildForm(t, "../definition/testdata/parks.yaml", nil)
	if got := f.Value("park"); got != "Yosemite" {
		t.Fatalf("unexpected park %v", got)
	}
}
