package app

import (
	"context"
	"time"

	"askd/internal/ipc"
)

// The assistant implements ipc.Handler so client tools can drive it.

// Status reports current daemon state.
func (a *Assistant) Status() ipc.StatusResponse {
	count, err := a.notes.Count(context.Background())
	if err != nil {
		a.log.Warn("note count failed", "error", err)
	}
	return ipc.StatusResponse{
		Version:     a.version,
		StartedAt:   a.startedAt,
		Uptime:      time.Since(a.startedAt),
		Chord:       a.spec.String(),
		Listening:   true,
		AutoExecute: a.autoExecute.Load(),
		Provider:    a.connector.Name(),
		SessionFile: a.sessions.Path(),
		NoteCount:   count,
	}
}

// Ask runs a typed question through the full pipeline, optionally with
// a fresh screen capture.
func (a *Assistant) Ask(ctx context.Context, req ipc.AskRequest) ipc.AskResponse {
	if req.Question == "" {
		return ipc.AskResponse{Error: "question is empty"}
	}

	a.interactionMu.Lock()
	defer a.interactionMu.Unlock()

	var capture []byte
	var mime string
	if req.WithCapture {
		var err error
		capture, mime, err = a.capturer.Capture(ctx)
		if err != nil {
			return ipc.AskResponse{Error: "screen capture failed: " + err.Error()}
		}
	}

	doc, rec, err := a.answer(ctx, req.Question, capture, mime)
	if err != nil {
		return ipc.AskResponse{Error: err.Error()}
	}
	return ipc.AskResponse{
		Success: true,
		Speech:  doc.Speech,
		Actions: rec.Entries,
	}
}

// SetAutoExecute toggles macro auto-execution at runtime.
func (a *Assistant) SetAutoExecute(enabled bool) error {
	a.autoExecute.Store(enabled)
	a.log.Info("auto execute changed", "enabled", enabled)
	return nil
}

// NewSession starts a fresh transcript.
func (a *Assistant) NewSession() (string, error) {
	return a.sessions.StartNew(), nil
}

// ListNotes returns recent notes, newest first.
func (a *Assistant) ListNotes(ctx context.Context, limit int) ([]ipc.NoteSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	stored, err := a.notes.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]ipc.NoteSummary, 0, len(stored))
	for _, n := range stored {
		out = append(out, ipc.NoteSummary{
			ID:        n.ID,
			Title:     n.Title,
			Content:   n.Content,
			CreatedAt: n.CreatedAt,
		})
	}
	return out, nil
}

// Shutdown asks the daemon to exit.
func (a *Assistant) Shutdown() {
	a.shutdownOnce.Do(func() { close(a.shutdownCh) })
}
