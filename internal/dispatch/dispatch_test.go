package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"askd/internal/confirm"
	"askd/internal/interpret"
)

type fakeClipboard struct {
	texts []string
	err   error
}

func (f *fakeClipboard) Write(text string) error {
	if f.err != nil {
		return f.err
	}
	f.texts = append(f.texts, text)
	return nil
}

type fakeNotes struct {
	titles []string
	err    error
}

func (f *fakeNotes) Add(ctx context.Context, title, content, question string) error {
	if f.err != nil {
		return f.err
	}
	f.titles = append(f.titles, title)
	return nil
}

type fakeMacros struct {
	runs []string
	err  error
}

func (f *fakeMacros) Run(ctx context.Context, keys string) error {
	if f.err != nil {
		return f.err
	}
	f.runs = append(f.runs, keys)
	return nil
}

type countingGate struct {
	calls    int
	decision confirm.Decision
}

func (g *countingGate) Request(description string, timeout time.Duration) confirm.Decision {
	g.calls++
	return g.decision
}

func approveGate() *countingGate {
	return &countingGate{decision: confirm.Decision{Approved: true, Outcome: confirm.OutcomeApproved}}
}

func TestClipboardNeverConfirms(t *testing.T) {
	cb := &fakeClipboard{}
	gate := approveGate()
	d := New(cb, nil, nil, gate)

	rec := d.Dispatch(context.Background(), interpret.Document{Clipboard: "x"}, Options{})

	if gate.calls != 0 {
		t.Errorf("gate calls = %d, clipboard must never confirm", gate.calls)
	}
	if len(cb.texts) != 1 || cb.texts[0] != "x" {
		t.Errorf("clipboard writes = %v", cb.texts)
	}
	if len(rec.Entries) != 1 || rec.Entries[0].Outcome != OutcomeSuccess {
		t.Errorf("record = %+v", rec)
	}
}

func TestMacroConfirmsExactlyOnce(t *testing.T) {
	m := &fakeMacros{}
	gate := approveGate()
	d := New(nil, nil, m, gate)

	doc := interpret.Document{Macro: &interpret.Macro{Keys: "ctrl+s"}}
	rec := d.Dispatch(context.Background(), doc, Options{})

	if gate.calls != 1 {
		t.Errorf("gate calls = %d, want exactly 1", gate.calls)
	}
	if len(m.runs) != 1 {
		t.Errorf("macro runs = %v", m.runs)
	}
	if rec.Entries[0].Outcome != OutcomeExecuted {
		t.Errorf("record = %+v", rec)
	}
}

func TestMacroDenied(t *testing.T) {
	m := &fakeMacros{}
	gate := &countingGate{decision: confirm.Decision{Outcome: confirm.OutcomeDenied}}
	d := New(nil, nil, m, gate)

	doc := interpret.Document{Macro: &interpret.Macro{Keys: "ctrl+s"}}
	rec := d.Dispatch(context.Background(), doc, Options{})

	if len(m.runs) != 0 {
		t.Error("denied macro must not run")
	}
	if rec.Entries[0].Outcome != OutcomeDenied {
		t.Errorf("record = %+v", rec)
	}
}

func TestMacroTimedOutIsDistinctFromDenied(t *testing.T) {
	gate := &countingGate{decision: confirm.Decision{Outcome: confirm.OutcomeTimedOut}}
	d := New(nil, nil, &fakeMacros{}, gate)

	doc := interpret.Document{Macro: &interpret.Macro{Keys: "ctrl+s"}}
	rec := d.Dispatch(context.Background(), doc, Options{})

	if rec.Entries[0].Outcome != OutcomeTimedOut {
		t.Errorf("outcome = %q, want timed_out", rec.Entries[0].Outcome)
	}
}

func TestAutoExecuteBypassesGate(t *testing.T) {
	m := &fakeMacros{}
	gate := &countingGate{decision: confirm.Decision{Outcome: confirm.OutcomeDenied}}
	d := New(nil, nil, m, gate)

	doc := interpret.Document{Macro: &interpret.Macro{Keys: "ctrl+s"}}
	d.Dispatch(context.Background(), doc, Options{AutoExecute: true})

	if gate.calls != 0 {
		t.Errorf("gate calls = %d, auto-execute must bypass the gate", gate.calls)
	}
	if len(m.runs) != 1 {
		t.Errorf("macro runs = %v", m.runs)
	}
}

func TestFullDocumentOrderAndIndependence(t *testing.T) {
	cb := &fakeClipboard{err: errors.New("no display")}
	n := &fakeNotes{}
	m := &fakeMacros{}
	d := New(cb, n, m, approveGate())

	doc := interpret.Document{
		Speech:    "done",
		Clipboard: "text",
		Notes:     &interpret.Note{Title: "t", Content: "c"},
		Macro:     &interpret.Macro{Keys: "ctrl+s"},
	}
	rec := d.Dispatch(context.Background(), doc, Options{})

	if len(rec.Entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(rec.Entries))
	}
	wantKinds := []Kind{KindClipboard, KindNotes, KindMacro}
	for i, k := range wantKinds {
		if rec.Entries[i].Kind != k {
			t.Errorf("entry %d kind = %q, want %q", i, rec.Entries[i].Kind, k)
		}
	}
	// Clipboard failed but notes and macro still ran.
	if rec.Entries[0].Outcome != OutcomeFailure {
		t.Errorf("clipboard outcome = %q", rec.Entries[0].Outcome)
	}
	if rec.Entries[1].Outcome != OutcomeSuccess || rec.Entries[2].Outcome != OutcomeExecuted {
		t.Errorf("later actions blocked by clipboard failure: %+v", rec)
	}
}

func TestNotesDefaultTitle(t *testing.T) {
	n := &fakeNotes{}
	d := New(nil, n, nil, approveGate())

	doc := interpret.Document{Notes: &interpret.Note{Content: "c"}}
	d.Dispatch(context.Background(), doc, Options{Question: "q"})

	if len(n.titles) != 1 || n.titles[0] == "" {
		t.Fatalf("titles = %v", n.titles)
	}
	if got := n.titles[0]; len(got) < len("Note from ") {
		t.Errorf("default title = %q", got)
	}
}

func TestEmptyDocumentProducesEmptyRecord(t *testing.T) {
	d := New(&fakeClipboard{}, &fakeNotes{}, &fakeMacros{}, approveGate())
	rec := d.Dispatch(context.Background(), interpret.Document{Speech: "hi"}, Options{})
	if len(rec.Entries) != 0 {
		t.Errorf("record = %+v, want no entries", rec)
	}
	if rec.Executed() {
		t.Error("empty record must not report execution")
	}
}

func TestMacroRunnerFailure(t *testing.T) {
	m := &fakeMacros{err: errors.New("uinput unavailable")}
	d := New(nil, nil, m, approveGate())

	doc := interpret.Document{Macro: &interpret.Macro{Keys: "ctrl+s"}}
	rec := d.Dispatch(context.Background(), doc, Options{})

	if rec.Entries[0].Outcome != OutcomeFailed {
		t.Errorf("outcome = %q, want failed", rec.Entries[0].Outcome)
	}
}
