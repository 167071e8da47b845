package events

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBusDeliversInSubscriptionOrder(t *testing.T) {
	t.Parallel()

	bus := New[string]()
	var got []string
	bus.On("change", func(p string) { got = append(got, "first:"+p) })
	bus.On("change", func(p string) { got = append(got, "second:"+p) })
	bus.On("validate", func(p string) { got = append(got, "validate:"+p) })

	bus.Publish("change", "a")

	want := []string{"first:a", "second:a"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("delivery mismatch (-want +got):\n%s", diff)
	}
}

func TestBusOffRemovesOnlyTargetHandler(t *testing.T) {
	t.Parallel()

	bus := New[int]()
	var calls []string
	first := bus.On("change", func(int) { calls = append(calls, "first") })
	bus.On("change", func(int) { calls = append(calls, "second") })

	bus.Off(first)
	bus.Off(first)
	bus.Publish("change", 1)

	if diff := cmp.Diff([]string{"second"}, calls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
	if got := bus.Len("change"); got != 1 {
		t.Fatalf("expected 1 handler, got %d", got)
	}
}

func TestBusOffDuringPublishKeepsInFlightList(t *testing.T) {
	t.Parallel()

	bus := New[int]()
	var calls []string
	var second Subscription
	bus.On("change", func(int) {
		calls = append(calls, "first")
		bus.Off(second)
	})
	second = bus.On("change", func(int) { calls = append(calls, "second") })

	bus.Publish("change", 1)
	bus.Publish("change", 2)

	want := []string{"first", "second", "first"}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestBusReentrantPublish(t *testing.T) {
	t.Parallel()

	bus := New[int]()
	var seen []int
	bus.On("change", func(n int) {
		seen = append(seen, n)
		if n < 3 {
			bus.Publish("change", n+1)
		}
	})

	bus.Publish("change", 1)

	if diff := cmp.Diff([]int{1, 2, 3}, seen); diff != "" {
		t.Fatalf("seen mismatch (-want +got):\n%s", diff)
	}
}

func TestBusRejectsInvalidRegistrations(t *testing.T) {
	t.Parallel()

	bus := New[int]()
	if sub := bus.On("change", nil); sub.Valid() {
		t.Fatalf("expected nil handler to yield invalid subscription")
	}
	if sub := bus.On("  ", func(int) {}); sub.Valid() {
		t.Fatalf("expected blank name to yield invalid subscription")
	}
	var nilBus *Bus[int]
	nilBus.Publish("change", 1)
	if nilBus.Len("change") != 0 {
		t.Fatalf("expected nil bus to report zero handlers")
	}
}
