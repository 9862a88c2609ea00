package ipc

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

type fakeHandler struct {
	autoExecute bool
	shutdowns   int
	asked       []string
}

func (h *fakeHandler) Status() StatusResponse {
	return StatusResponse{
		Version:     "test",
		Chord:       "ctrl+alt+a",
		Listening:   true,
		AutoExecute: h.autoExecute,
		Provider:    "gemini",
		NoteCount:   3,
	}
}

func (h *fakeHandler) Ask(_ context.Context, req AskRequest) AskResponse {
	h.asked = append(h.asked, req.Question)
	if req.Question == "" {
		return AskResponse{Error: "empty question"}
	}
	return AskResponse{Success: true, Speech: "answer to " + req.Question}
}

func (h *fakeHandler) SetAutoExecute(enabled bool) error {
	h.autoExecute = enabled
	return nil
}

func (h *fakeHandler) NewSession() (string, error) {
	return "/tmp/session_x.md", nil
}

func (h *fakeHandler) ListNotes(_ context.Context, limit int) ([]NoteSummary, error) {
	if limit < 0 {
		return nil, fmt.Errorf("bad limit")
	}
	return []NoteSummary{{ID: "n1", Title: "t", Content: "c"}}, nil
}

func (h *fakeHandler) Shutdown() { h.shutdowns++ }

func startTestServer(t *testing.T) (*Client, *fakeHandler) {
	t.Helper()

	socket := filepath.Join(t.TempDir(), "askd.sock")
	h := &fakeHandler{}
	srv := NewServer(socket, 5*time.Second, h, nil)
	if err := srv.Start(); err != nil {
		t.Fatalf("server Start failed: %v", err)
	}
	t.Cleanup(func() { srv.Stop() })

	c, err := Dial(socket, 5*time.Second)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c, h
}

func TestPing(t *testing.T) {
	c, _ := startTestServer(t)
	if err := c.Ping(); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestStatus(t *testing.T) {
	c, _ := startTestServer(t)

	st, err := c.Status()
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if st.Chord != "ctrl+alt+a" || !st.Listening || st.NoteCount != 3 {
		t.Errorf("unexpected status: %+v", st)
	}
}

func TestAsk(t *testing.T) {
	c, h := startTestServer(t)

	resp, err := c.Ask(AskRequest{Question: "what is this?"})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if !resp.Success || resp.Speech != "answer to what is this?" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if len(h.asked) != 1 || h.asked[0] != "what is this?" {
		t.Errorf("handler did not receive question: %v", h.asked)
	}
}

func TestSetAutoExecute(t *testing.T) {
	c, h := startTestServer(t)

	resp, err := c.SetAutoExecute(true)
	if err != nil {
		t.Fatalf("SetAutoExecute failed: %v", err)
	}
	if !resp.Success || !resp.Enabled {
		t.Errorf("unexpected response: %+v", resp)
	}
	if !h.autoExecute {
		t.Errorf("handler state not updated")
	}
}

func TestListNotesAndNewSession(t *testing.T) {
	c, _ := startTestServer(t)

	notes, err := c.ListNotes(10)
	if err != nil {
		t.Fatalf("ListNotes failed: %v", err)
	}
	if len(notes) != 1 || notes[0].ID != "n1" {
		t.Errorf("unexpected notes: %+v", notes)
	}

	sess, err := c.NewSession()
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	if !sess.Success || sess.Path == "" {
		t.Errorf("unexpected session response: %+v", sess)
	}
}

func TestShutdown(t *testing.T) {
	c, h := startTestServer(t)

	if err := c.Shutdown(); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	// Shutdown is dispatched asynchronously after the ack.
	deadline := time.Now().Add(2 * time.Second)
	for h.shutdowns == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if h.shutdowns != 1 {
		t.Errorf("handler Shutdown not invoked")
	}
}

func TestSequentialRequestsOnOneConnection(t *testing.T) {
	c, _ := startTestServer(t)

	for i := 0; i < 5; i++ {
		if err := c.Ping(); err != nil {
			t.Fatalf("ping %d failed: %v", i, err)
		}
	}
	if _, err := c.Status(); err != nil {
		t.Fatalf("status after pings failed: %v", err)
	}
}

func TestMessageRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	msg := NewMessage(MsgAskRequest, 42, []byte(`{"question":"q"}`))
	if err := msg.Write(&buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := ReadMessage(&buf)
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	if got.Header.Type != MsgAskRequest || got.Header.RequestID != 42 {
		t.Errorf("header mangled: %+v", got.Header)
	}
	if string(got.Payload) != `{"question":"q"}` {
		t.Errorf("payload mangled: %q", got.Payload)
	}
}

func TestReadMessageRejectsBadMagic(t *testing.T) {
	var buf bytes.Buffer
	msg := NewMessage(MsgPing, 1, nil)
	msg.Header.Magic = 0xDEADBEEF
	if err := msg.Write(&buf); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadMessage(&buf); err == nil {
		t.Fatal("expected magic validation error")
	}
}
