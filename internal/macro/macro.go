// Package macro parses and executes keyboard macro sequences.
//
// A sequence is one or more steps separated by "->". A step is either a
// single key ("x") or a chord of keys pressed together ("ctrl+b").
// Key names use the shared chord vocabulary, so a model asking for
// "ctrl+shift+escape" resolves the same way the hotkey config does.
package macro

import (
	"context"
	"fmt"
	"strings"
	"time"

	"askd/internal/chord"
	"askd/internal/logging"
)

// Step is one element of a macro sequence: keys held together, pressed
// in order and released in reverse.
type Step struct {
	Keys []string
}

// ParseSequence parses "ctrl+b->x" into its steps. Unlike chord
// parsing, an unknown key here is an error: injecting a wrong macro is
// worse than injecting none.
func ParseSequence(sequence string) ([]Step, error) {
	var steps []Step
	for _, part := range strings.Split(sequence, "->") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var step Step
		for _, name := range strings.Split(part, "+") {
			tok, ok := chord.Normalize(name)
			if !ok {
				return nil, fmt.Errorf("unknown key %q in macro sequence %q", strings.TrimSpace(name), sequence)
			}
			step.Keys = append(step.Keys, tok)
		}
		if len(step.Keys) > 0 {
			steps = append(steps, step)
		}
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("macro sequence %q has no keys", sequence)
	}
	return steps, nil
}

// Injector delivers synthetic key transitions to the OS.
type Injector interface {
	KeyDown(token string) error
	KeyUp(token string) error
	Close() error
}

const (
	holdDelay = 50 * time.Millisecond
	stepDelay = 200 * time.Millisecond
)

// Runner executes macro sequences through an Injector.
type Runner struct {
	injector Injector
	log      *logging.Logger
}

// NewRunner creates a Runner. With a nil injector the platform default
// is used.
func NewRunner(injector Injector) *Runner {
	if injector == nil {
		injector = newPlatformInjector()
	}
	return &Runner{
		injector: injector,
		log:      logging.Default().WithComponent("macro"),
	}
}

// Run parses and executes a sequence. Keys within a step go down in
// order and up in reverse; short settle delays separate transitions the
// way a human chord would.
func (r *Runner) Run(ctx context.Context, sequence string) error {
	steps, err := ParseSequence(sequence)
	if err != nil {
		return err
	}

	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.runStep(step); err != nil {
			return fmt.Errorf("step %d of %q: %w", i+1, sequence, err)
		}
		if i < len(steps)-1 {
			sleep(ctx, stepDelay)
		}
	}
	r.log.Info("executed macro sequence", "sequence", sequence)
	return nil
}

func (r *Runner) runStep(step Step) error {
	var pressed []string
	defer func() {
		// Whatever happened, never leave keys stuck down.
		for i := len(pressed) - 1; i >= 0; i-- {
			if err := r.injector.KeyUp(pressed[i]); err != nil {
				r.log.Warn("key release failed", "key", pressed[i], "error", err)
			}
		}
	}()

	for _, key := range step.Keys {
		if err := r.injector.KeyDown(key); err != nil {
			return fmt.Errorf("press %q: %w", key, err)
		}
		pressed = append(pressed, key)
	}
	time.Sleep(holdDelay)
	return nil
}

// Close releases the injector.
func (r *Runner) Close() error {
	return r.injector.Close()
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
