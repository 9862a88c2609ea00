//go:build !linux

package tracker

import "context"

// stubSource is used on platforms without a capture implementation.
// The tracker itself is platform-independent; callers can still drive it
// directly via HandlePress/HandleRelease.
type stubSource struct {
	events chan Event
}

func newPlatformSource() Source {
	return &stubSource{events: make(chan Event)}
}

func (s *stubSource) Start(ctx context.Context) error {
	return ErrNotAvailable
}

func (s *stubSource) Stop() error {
	return nil
}

func (s *stubSource) Events() <-chan Event {
	return s.events
}

func (s *stubSource) Available() (bool, string) {
	return false, "keyboard capture not implemented on this platform"
}
