package session

import (
	"os"
	"strings"
	"testing"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := New(Options{Dir: t.TempDir()}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return m
}

func TestAddInteractionCreatesFile(t *testing.T) {
	m := newTestManager(t)

	if err := m.AddInteraction("what time is it?", "it is noon"); err != nil {
		t.Fatalf("AddInteraction failed: %v", err)
	}

	data, err := os.ReadFile(m.Path())
	if err != nil {
		t.Fatalf("transcript not written: %v", err)
	}
	s := string(data)
	if !strings.HasPrefix(s, "# Assistant Session") {
		t.Errorf("missing header, got %q", s[:40])
	}
	if !strings.Contains(s, "what time is it?") || !strings.Contains(s, "it is noon") {
		t.Errorf("interaction not recorded:\n%s", s)
	}
}

func TestHistoryBounded(t *testing.T) {
	m := newTestManager(t)

	for _, q := range []string{"q1", "q2", "q3", "q4"} {
		if err := m.AddInteraction(q, "a-"+q); err != nil {
			t.Fatalf("AddInteraction failed: %v", err)
		}
	}

	h := m.History(2)
	if strings.Contains(h, "q2") {
		t.Errorf("history should only hold last 2 entries:\n%s", h)
	}
	if !strings.Contains(h, "q3") || !strings.Contains(h, "q4") {
		t.Errorf("recent entries missing:\n%s", h)
	}
	if strings.Contains(h, "# Assistant Session") {
		t.Errorf("bounded history should not include the file header")
	}
}

func TestHistoryEmptyWhenNoFile(t *testing.T) {
	m := newTestManager(t)
	if h := m.History(5); h != "" {
		t.Errorf("expected empty history, got %q", h)
	}
}

func TestStartNewSwitchesFile(t *testing.T) {
	m := newTestManager(t)
	if err := m.AddInteraction("old", "answer"); err != nil {
		t.Fatalf("AddInteraction failed: %v", err)
	}

	old := m.Path()
	m.StartNew()
	if m.Path() == old {
		t.Fatalf("StartNew did not switch transcripts")
	}
	if h := m.History(5); strings.Contains(h, "old") {
		t.Errorf("new session should not see old history")
	}
}
