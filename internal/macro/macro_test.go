package macro

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestParseSequenceCombo(t *testing.T) {
	steps, err := ParseSequence("ctrl+b->x")
	if err != nil {
		t.Fatalf("ParseSequence: %v", err)
	}
	want := []Step{
		{Keys: []string{"ctrl", "b"}},
		{Keys: []string{"x"}},
	}
	if !reflect.DeepEqual(steps, want) {
		t.Errorf("steps = %+v, want %+v", steps, want)
	}
}

func TestParseSequenceNormalizesNames(t *testing.T) {
	steps, err := ParseSequence("Control + Shift + Escape")
	if err != nil {
		t.Fatalf("ParseSequence: %v", err)
	}
	want := []string{"ctrl", "shift", "esc"}
	if !reflect.DeepEqual(steps[0].Keys, want) {
		t.Errorf("keys = %v, want %v", steps[0].Keys, want)
	}
}

func TestParseSequenceRejectsUnknownKey(t *testing.T) {
	if _, err := ParseSequence("ctrl+notakey"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestParseSequenceRejectsEmpty(t *testing.T) {
	for _, in := range []string{"", "->", " -> "} {
		if _, err := ParseSequence(in); err == nil {
			t.Errorf("ParseSequence(%q) should fail", in)
		}
	}
}

// recordInjector records transitions as "+key" (down) and "-key" (up).
type recordInjector struct {
	ops     []string
	failKey string
}

func (r *recordInjector) KeyDown(token string) error {
	if token == r.failKey {
		return errors.New("injection refused")
	}
	r.ops = append(r.ops, "+"+token)
	return nil
}

func (r *recordInjector) KeyUp(token string) error {
	r.ops = append(r.ops, "-"+token)
	return nil
}

func (r *recordInjector) Close() error { return nil }

func TestRunPressReleaseOrder(t *testing.T) {
	inj := &recordInjector{}
	r := NewRunner(inj)

	if err := r.Run(context.Background(), "ctrl+s"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"+ctrl", "+s", "-s", "-ctrl"}
	if !reflect.DeepEqual(inj.ops, want) {
		t.Errorf("ops = %v, want %v", inj.ops, want)
	}
}

func TestRunMultiStep(t *testing.T) {
	inj := &recordInjector{}
	r := NewRunner(inj)

	if err := r.Run(context.Background(), "ctrl+b->x"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"+ctrl", "+b", "-b", "-ctrl", "+x", "-x"}
	if !reflect.DeepEqual(inj.ops, want) {
		t.Errorf("ops = %v, want %v", inj.ops, want)
	}
}

func TestRunReleasesHeldKeysOnFailure(t *testing.T) {
	inj := &recordInjector{failKey: "s"}
	r := NewRunner(inj)

	if err := r.Run(context.Background(), "ctrl+s"); err == nil {
		t.Fatal("expected error")
	}
	// ctrl went down before the failure and must come back up.
	want := []string{"+ctrl", "-ctrl"}
	if !reflect.DeepEqual(inj.ops, want) {
		t.Errorf("ops = %v, want %v", inj.ops, want)
	}
}

func TestRunParseErrorTouchesNothing(t *testing.T) {
	inj := &recordInjector{}
	r := NewRunner(inj)

	if err := r.Run(context.Background(), "ctrl+bogus"); err == nil {
		t.Fatal("expected error")
	}
	if len(inj.ops) != 0 {
		t.Errorf("ops = %v, want none on parse error", inj.ops)
	}
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inj := &recordInjector{}
	r := NewRunner(inj)
	if err := r.Run(ctx, "ctrl+s"); err == nil {
		t.Error("expected context error")
	}
}
