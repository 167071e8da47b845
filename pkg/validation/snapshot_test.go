package validation

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestOverallStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		input  []*Status
		expect *Status
	}{
		{
			name:   "empty is ok",
			expect: OK(),
		},
		{
			name:   "single error keeps message",
			input:  []*Status{OK(), Error("State is required"), nil},
			expect: Error("State is required"),
		},
		{
			name:   "multiple errors are counted",
			input:  []*Status{Error("a"), Warn("w"), Error("b")},
			expect: &Status{Level: LevelError, Message: "2 errors found"},
		},
		{
			name:   "warnings without errors",
			input:  []*Status{Warn("slow"), OK()},
			expect: Warn("slow"),
		},
		{
			name:   "multiple warnings",
			input:  []*Status{Warn("a"), Warn("b"), Warn("c")},
			expect: &Status{Level: LevelWarn, Message: "3 warnings found"},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Overall(tc.input...)
			if diff := cmp.Diff(tc.expect, got); diff != "" {
				t.Fatalf("overall mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSnapshotUpdateOverallIncludesFormCallbacks(t *testing.T) {
	t.Parallel()

	snap := NewSnapshot(map[string]any{"family": "Felidae"})
	snap.EntryStatus["family"] = OK()
	snap.OnValidateSyncStatus = Error("Dogs only!")
	snap.UpdateOverallStatus()

	if !snap.OverallStatus.IsError() || snap.OverallStatus.Message != "Dogs only!" {
		t.Fatalf("expected form callback error to surface, got %v", snap.OverallStatus)
	}
}

func TestSnapshotUpdateOverallPrefersEntryMessageOnTie(t *testing.T) {
	t.Parallel()

	snap := NewSnapshot(nil)
	snap.EntryStatus["state"] = Error("State must be exactly 2 characters")
	snap.EntryStatus["parkName"] = OK()
	snap.OnValidateSyncStatus = Error("Invalid park/state combination")
	snap.UpdateOverallStatus()

	if diff := cmp.Diff(Error("State must be exactly 2 characters"), snap.OverallStatus); diff != "" {
		t.Fatalf("overall mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotCloneIsIndependent(t *testing.T) {
	t.Parallel()

	snap := NewSnapshot(map[string]any{"a": 1})
	snap.EntryStatus["a"] = Error("bad")
	clone := snap.Clone()

	snap.EntryStatus["a"].Message = "changed"
	snap.EntryStatus["b"] = OK()
	snap.Values["a"] = 2

	want := Snapshot{
		Values:      map[string]any{"a": 1},
		EntryStatus: map[string]*Status{"a": Error("bad")},
	}
	if diff := cmp.Diff(want, clone, cmpopts.IgnoreUnexported(Snapshot{})); diff != "" {
		t.Fatalf("clone mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotCompletion(t *testing.T) {
	t.Parallel()

	snap := NewSnapshot(nil)
	clone := snap.Clone()
	if clone.Completed() {
		t.Fatalf("expected in-progress snapshot")
	}
	snap.Cancel()
	snap.Complete()
	if !clone.Completed() {
		t.Fatalf("expected clone to observe completion")
	}
	if snap.OverallStatus.Level != LevelCanceled {
		t.Fatalf("expected canceled level, got %v", snap.OverallStatus)
	}

	initial := NewInitialSnapshot(nil)
	if !initial.Initial() || !initial.Completed() {
		t.Fatalf("expected initial snapshot to be complete")
	}
}

func TestMostSevere(t *testing.T) {
	t.Parallel()

	warn := Warn("w")
	first := Error("first")
	got := MostSevere(OK(), warn, first, Error("second"), nil)
	if got != first {
		t.Fatalf("expected first error, got %v", got)
	}
	if MostSevere() != nil {
		t.Fatalf("expected nil for empty input")
	}
}
