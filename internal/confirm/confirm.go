// Package confirm implements the bounded-wait yes/no checkpoint that
// guards irreversible actions.
//
// A request blocks its caller for at most the configured timeout. Input
// is read by a worker goroutine; if the timeout elapses first the caller
// proceeds with a timed-out denial and the worker is abandoned. An
// abandoned worker's late answer is discarded at the start of the next
// request, so it can never retroactively change a resolved dispatch.
package confirm

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"askd/internal/logging"
)

// Outcome describes how a confirmation request resolved. A timeout and
// an explicit denial both mean non-execution, but they are distinct
// audit outcomes.
type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeDenied   Outcome = "denied"
	OutcomeTimedOut Outcome = "timed_out"
)

// Decision is the result of a confirmation request.
type Decision struct {
	Approved bool
	Outcome  Outcome
}

// Gate presents a yes/no decision with a bounded wait.
type Gate interface {
	// Request presents description to the user and waits up to timeout
	// for an explicit answer. Invalid input re-prompts without
	// restarting the clock. It never fails; no answer means denial.
	Request(description string, timeout time.Duration) Decision
}

// Notifier posts an out-of-band notice that a confirmation is pending,
// e.g. a desktop notification banner.
type Notifier interface {
	Notify(summary, body string) error
}

// ConsoleGate reads y/n answers from an input stream, normally stdin.
type ConsoleGate struct {
	in       io.Reader
	out      io.Writer
	notifier Notifier
	log      *logging.Logger

	startOnce sync.Once
	lines     chan string
}

// NewConsoleGate creates a gate reading from in and prompting on out.
// notifier may be nil.
func NewConsoleGate(in io.Reader, out io.Writer, notifier Notifier) *ConsoleGate {
	return &ConsoleGate{
		in:       in,
		out:      out,
		notifier: notifier,
		log:      logging.Default().WithComponent("confirm"),
		lines:    make(chan string, 1),
	}
}

// Request implements Gate.
func (g *ConsoleGate) Request(description string, timeout time.Duration) Decision {
	g.startOnce.Do(g.startReader)

	// Discard anything typed before this request opened, including a
	// late answer abandoned by a previous timed-out request.
	for {
		select {
		case <-g.lines:
			continue
		default:
		}
		break
	}

	if g.notifier != nil {
		if err := g.notifier.Notify("Confirmation required", description); err != nil {
			g.log.Debug("desktop notification failed", "error", err)
		}
	}

	fmt.Fprintf(g.out, "\n%s\n", strings.Repeat("=", 50))
	fmt.Fprintf(g.out, "CONFIRMATION REQUIRED: %s\n", description)
	fmt.Fprintf(g.out, "Type y to execute or n to cancel (timeout in %s)\n", timeout)
	fmt.Fprintf(g.out, "%s\n", strings.Repeat("=", 50))

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case line := <-g.lines:
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "y", "yes":
				return Decision{Approved: true, Outcome: OutcomeApproved}
			case "n", "no":
				return Decision{Approved: false, Outcome: OutcomeDenied}
			default:
				// The clock keeps running across re-prompts.
				fmt.Fprintln(g.out, "Invalid input. Type y to execute or n to cancel.")
			}
		case <-timer.C:
			g.log.Info("confirmation timed out", "description", description)
			fmt.Fprintln(g.out, "Confirmation timeout - action cancelled")
			return Decision{Approved: false, Outcome: OutcomeTimedOut}
		}
	}
}

// startReader launches the single input worker. It outlives individual
// requests; a line arriving after its request resolved sits in the
// buffer until the next request drains it.
func (g *ConsoleGate) startReader() {
	go func() {
		scanner := bufio.NewScanner(g.in)
		for scanner.Scan() {
			g.lines <- scanner.Text()
		}
	}()
}

// AutoGate resolves every request without waiting. Used for headless
// operation and tests.
type AutoGate struct {
	Decide Decision
}

// Request implements Gate.
func (a AutoGate) Request(string, time.Duration) Decision {
	return a.Decide
}
