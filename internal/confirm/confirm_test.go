package confirm

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"
)

func TestApprove(t *testing.T) {
	g := NewConsoleGate(strings.NewReader("y\n"), io.Discard, nil)
	d := g.Request("run macro", time.Second)
	if !d.Approved || d.Outcome != OutcomeApproved {
		t.Errorf("got %+v, want approved", d)
	}
}

func TestDeny(t *testing.T) {
	g := NewConsoleGate(strings.NewReader("no\n"), io.Discard, nil)
	d := g.Request("run macro", time.Second)
	if d.Approved || d.Outcome != OutcomeDenied {
		t.Errorf("got %+v, want denied", d)
	}
}

func TestInvalidInputReprompts(t *testing.T) {
	var out bytes.Buffer
	g := NewConsoleGate(strings.NewReader("maybe\nwhat\ny\n"), &out, nil)
	d := g.Request("run macro", 2*time.Second)
	if !d.Approved {
		t.Errorf("got %+v, want approved after re-prompts", d)
	}
	if n := strings.Count(out.String(), "Invalid input"); n != 2 {
		t.Errorf("re-prompt count = %d, want 2", n)
	}
}

func TestTimeoutResolvesToDenyWithinBound(t *testing.T) {
	// A reader that never produces input.
	r, _ := io.Pipe()
	g := NewConsoleGate(r, io.Discard, nil)

	timeout := 50 * time.Millisecond
	start := time.Now()
	d := g.Request("run macro", timeout)
	elapsed := time.Since(start)

	if d.Approved || d.Outcome != OutcomeTimedOut {
		t.Errorf("got %+v, want timed_out denial", d)
	}
	if elapsed < timeout {
		t.Errorf("resolved before timeout: %s", elapsed)
	}
	if elapsed > timeout+500*time.Millisecond {
		t.Errorf("took too long past timeout: %s", elapsed)
	}
}

func TestLateAnswerDoesNotLeakIntoNextRequest(t *testing.T) {
	r, w := io.Pipe()
	g := NewConsoleGate(r, io.Discard, nil)

	// First request times out with no input.
	d := g.Request("first", 30*time.Millisecond)
	if d.Outcome != OutcomeTimedOut {
		t.Fatalf("first request: %+v", d)
	}

	// The abandoned worker now receives a stale "y".
	go func() {
		io.WriteString(w, "y\n")
	}()
	time.Sleep(20 * time.Millisecond) // let the worker buffer it

	// The stale line must be discarded; with no fresh input the second
	// request times out instead of resolving to the stale approval.
	d = g.Request("second", 30*time.Millisecond)
	if d.Approved {
		t.Errorf("stale answer leaked into next request: %+v", d)
	}
}

type recordingNotifier struct {
	summaries []string
}

func (r *recordingNotifier) Notify(summary, body string) error {
	r.summaries = append(r.summaries, summary)
	return nil
}

func TestNotifierInvoked(t *testing.T) {
	n := &recordingNotifier{}
	g := NewConsoleGate(strings.NewReader("y\n"), io.Discard, n)
	g.Request("run macro", time.Second)
	if len(n.summaries) != 1 {
		t.Errorf("notifier calls = %d, want 1", len(n.summaries))
	}
}

func TestAutoGate(t *testing.T) {
	g := AutoGate{Decide: Decision{Approved: true, Outcome: OutcomeApproved}}
	if d := g.Request("anything", 0); !d.Approved {
		t.Errorf("got %+v", d)
	}
}
