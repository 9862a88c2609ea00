package tracker

import (
	"context"
	"errors"
)

// Event is a single raw key transition from a platform source. Key is
// the source's name for the key; the tracker normalizes it.
type Event struct {
	Key   string
	Press bool
}

// Source delivers raw keyboard events from the platform.
type Source interface {
	// Start begins delivering events. The source stops when ctx is
	// cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop stops event delivery and closes the event channel.
	Stop() error

	// Events returns the channel events are delivered on.
	Events() <-chan Event

	// Available reports whether keyboard capture works on this
	// platform with current permissions, with a reason when not.
	Available() (bool, string)
}

// ErrNotAvailable is returned when keyboard capture isn't available.
var ErrNotAvailable = errors.New("keyboard capture not available on this platform")

// ErrAlreadyRunning is returned by Start on a running source.
var ErrAlreadyRunning = errors.New("key source already running")

// Run pumps events from src into t until ctx is cancelled or the source
// channel closes. It is the single event-delivery goroutine: all key
// state mutation happens here.
func Run(ctx context.Context, src Source, t *Tracker) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-src.Events():
			if !ok {
				return
			}
			if ev.Press {
				t.HandlePress(ev.Key)
			} else {
				t.HandleRelease(ev.Key)
			}
		}
	}
}

// NewSource returns a Source for the current platform.
func NewSource() Source {
	return newPlatformSource()
}
