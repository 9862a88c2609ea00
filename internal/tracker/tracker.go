// Package tracker turns a raw stream of key press/release events into
// edge-triggered chord activation callbacks.
//
// One Tracker instance tracks exactly one chord. Events are delivered
// serially from a single goroutine (see Run); the suppression flag is the
// only piece of state touched from other goroutines and is atomic.
package tracker

import (
	"sync/atomic"

	"askd/internal/chord"
	"askd/internal/logging"
)

// Tracker maintains the set of currently-down keys and fires the
// activation callbacks on chord state transitions.
type Tracker struct {
	spec         chord.Spec
	onActivate   func()
	onDeactivate func()

	// down and active are owned by the event-delivery goroutine.
	down   map[string]struct{}
	active bool

	suppressed atomic.Bool
	log        *logging.Logger
}

// New creates a Tracker for the given chord. Either callback may be nil.
func New(spec chord.Spec, onActivate, onDeactivate func()) *Tracker {
	return &Tracker{
		spec:         spec,
		onActivate:   onActivate,
		onDeactivate: onDeactivate,
		down:         make(map[string]struct{}),
		log:          logging.Default().WithComponent("tracker"),
	}
}

// SetSuppressed blinds or unblinds the tracker. While suppressed,
// incoming events neither mutate key state nor fire callbacks. Safe to
// call from any goroutine; used while synthesized input (text-to-speech
// playback, macro injection) could feed events back into the stream.
func (t *Tracker) SetSuppressed(v bool) {
	t.suppressed.Store(v)
}

// Suppressed reports whether event processing is currently suppressed.
func (t *Tracker) Suppressed() bool {
	return t.suppressed.Load()
}

// Active reports whether the chord is currently held. Only meaningful
// when read from the event-delivery goroutine.
func (t *Tracker) Active() bool {
	return t.active
}

// HandlePress processes a raw key-down event. Must be called serially
// with HandleRelease from the event-delivery goroutine.
func (t *Tracker) HandlePress(raw string) {
	tok, ok := chord.Normalize(raw)
	if !ok {
		t.log.Warn("dropping non-normalizable key event", "raw", raw)
		return
	}
	if t.suppressed.Load() {
		return
	}

	// Key repeat is an idempotent add; the set never double-counts.
	t.down[tok] = struct{}{}

	if !t.active && t.spec.HeldIn(t.down) {
		t.active = true
		t.log.Debug("chord activated", "chord", t.spec.String())
		t.invoke(t.onActivate)
	}
}

// HandleRelease processes a raw key-up event. Must be called serially
// with HandlePress from the event-delivery goroutine.
func (t *Tracker) HandleRelease(raw string) {
	tok, ok := chord.Normalize(raw)
	if !ok {
		t.log.Warn("dropping non-normalizable key event", "raw", raw)
		return
	}
	if t.suppressed.Load() {
		return
	}

	// Releasing a key we never saw is a no-op, not an error.
	delete(t.down, tok)

	if t.active && !t.spec.HeldIn(t.down) {
		t.active = false
		t.log.Debug("chord deactivated", "chord", t.spec.String())
		t.invoke(t.onDeactivate)
	}
}

// invoke runs a callback, containing panics so a misbehaving callback
// cannot corrupt key state or kill the event source.
func (t *Tracker) invoke(fn func()) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			t.log.Error("chord callback panicked", "panic", r)
		}
	}()
	fn()
}
