package tracker

import (
	"context"
	"testing"
	"time"

	"askd/internal/chord"
)

func counters() (activate, deactivate *int, tr func() *Tracker) {
	var a, d int
	activate, deactivate = &a, &d
	tr = func() *Tracker {
		return New(chord.Parse("ctrl+alt+a"), func() { a++ }, func() { d++ })
	}
	return
}

func TestActivateFiresOnceAnyOrder(t *testing.T) {
	orders := [][]string{
		{"ctrl", "alt", "a"},
		{"a", "ctrl", "alt"},
		{"alt", "a", "ctrl"},
	}
	for _, order := range orders {
		act, deact, mk := counters()
		tr := mk()
		for _, k := range order {
			tr.HandlePress(k)
		}
		if *act != 1 {
			t.Errorf("order %v: activations = %d, want 1", order, *act)
		}
		if *deact != 0 {
			t.Errorf("order %v: deactivations = %d, want 0", order, *deact)
		}
	}
}

func TestDeactivateOnAnySingleRelease(t *testing.T) {
	for _, released := range []string{"ctrl", "alt", "a"} {
		act, deact, mk := counters()
		tr := mk()
		tr.HandlePress("ctrl")
		tr.HandlePress("alt")
		tr.HandlePress("a")
		tr.HandleRelease(released)
		if *act != 1 || *deact != 1 {
			t.Errorf("release %q: act=%d deact=%d, want 1/1", released, *act, *deact)
		}
	}
}

func TestRepeatPressDoesNotRefire(t *testing.T) {
	act, _, mk := counters()
	tr := mk()
	tr.HandlePress("ctrl")
	tr.HandlePress("alt")
	tr.HandlePress("a")
	// OS key repeat while holding the chord
	tr.HandlePress("a")
	tr.HandlePress("a")
	tr.HandlePress("ctrl")
	if *act != 1 {
		t.Errorf("activations = %d, want 1", *act)
	}
}

func TestReactivationAfterFullCycle(t *testing.T) {
	act, deact, mk := counters()
	tr := mk()
	for i := 0; i < 3; i++ {
		tr.HandlePress("ctrl")
		tr.HandlePress("alt")
		tr.HandlePress("a")
		tr.HandleRelease("a")
	}
	if *act != 3 || *deact != 3 {
		t.Errorf("act=%d deact=%d, want 3/3", *act, *deact)
	}
}

func TestReleaseOfAbsentKeyIsNoop(t *testing.T) {
	_, deact, mk := counters()
	tr := mk()
	tr.HandleRelease("a")
	tr.HandleRelease("ctrl")
	if *deact != 0 {
		t.Errorf("deactivations = %d, want 0", *deact)
	}
}

func TestSuppressionFreezesState(t *testing.T) {
	act, deact, mk := counters()
	tr := mk()
	tr.HandlePress("ctrl")
	tr.HandlePress("alt")
	tr.HandlePress("a")
	if *act != 1 {
		t.Fatalf("activations = %d, want 1", *act)
	}

	tr.SetSuppressed(true)
	// Events while suppressed change nothing: no deactivate on release,
	// no reactivate on press.
	tr.HandleRelease("a")
	tr.HandlePress("a")
	if *deact != 0 || *act != 1 {
		t.Errorf("suppressed events leaked: act=%d deact=%d", *act, *deact)
	}
	if !tr.Active() {
		t.Error("activation flag changed while suppressed")
	}

	// Unsuppressing resumes from the frozen state.
	tr.SetSuppressed(false)
	tr.HandleRelease("a")
	if *deact != 1 {
		t.Errorf("deactivations after unsuppress = %d, want 1", *deact)
	}
}

func TestNonNormalizableKeyDropped(t *testing.T) {
	act, _, mk := counters()
	tr := mk()
	tr.HandlePress("ctrl")
	tr.HandlePress("alt")
	tr.HandlePress("totally-unknown-key") // dropped, state unaffected
	tr.HandlePress("a")
	if *act != 1 {
		t.Errorf("activations = %d, want 1", *act)
	}
}

func TestCallbackPanicContained(t *testing.T) {
	tr := New(chord.Parse("ctrl+a"),
		func() { panic("boom") },
		nil,
	)
	tr.HandlePress("ctrl")
	tr.HandlePress("a") // must not propagate the panic
	if !tr.Active() {
		t.Error("activation flag corrupted by panicking callback")
	}
	tr.HandleRelease("a")
	if tr.Active() {
		t.Error("tracker stuck active after panic in activate callback")
	}
}

func TestAliasedRawKeysNormalize(t *testing.T) {
	act, _, mk := counters()
	tr := mk()
	tr.HandlePress("Control") // raw names from the source normalize too
	tr.HandlePress("ALT")
	tr.HandlePress("A")
	if *act != 1 {
		t.Errorf("activations = %d, want 1", *act)
	}
}

type fakeSource struct {
	events chan Event
}

func (f *fakeSource) Start(ctx context.Context) error { return nil }
func (f *fakeSource) Stop() error                     { close(f.events); return nil }
func (f *fakeSource) Events() <-chan Event            { return f.events }
func (f *fakeSource) Available() (bool, string)       { return true, "fake" }

func TestRunPumpsEvents(t *testing.T) {
	activated := make(chan struct{}, 1)
	tr := New(chord.Parse("ctrl+a"), func() { activated <- struct{}{} }, nil)

	src := &fakeSource{events: make(chan Event, 8)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		Run(ctx, src, tr)
		close(done)
	}()

	src.events <- Event{Key: "ctrl", Press: true}
	src.events <- Event{Key: "a", Press: true}

	select {
	case <-activated:
	case <-time.After(time.Second):
		t.Fatal("chord never activated via Run")
	}

	src.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after source closed")
	}
}
