// Package dispatch turns an interpreted action document into side
// effects and an audit record.
//
// Actions run in a fixed order (clipboard, notes, macro) and are
// independent: one failing or being denied never blocks the others.
// Only the macro, which manipulates the user's input stream, passes
// through the confirmation gate.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"askd/internal/confirm"
	"askd/internal/interpret"
	"askd/internal/logging"
)

// Kind identifies the action an audit entry belongs to.
type Kind string

const (
	KindClipboard Kind = "clipboard"
	KindNotes     Kind = "notes"
	KindMacro     Kind = "macro"
)

// Outcomes for clipboard and notes entries.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Outcomes for macro entries.
const (
	OutcomeExecuted = "executed"
	OutcomeDenied   = "denied"
	OutcomeTimedOut = "timed_out"
	OutcomeFailed   = "failed"
)

// Entry records one attempted action.
type Entry struct {
	Kind    Kind   `json:"kind"`
	Outcome string `json:"outcome"`
	Detail  string `json:"detail,omitempty"`
}

// Record is the ordered, append-only audit trail of a dispatch. Order
// is a contract: entries appear as clipboard, notes, macro.
type Record struct {
	Entries []Entry `json:"entries"`
}

// Executed reports whether any entry succeeded or executed.
func (r Record) Executed() bool {
	for _, e := range r.Entries {
		if e.Outcome == OutcomeSuccess || e.Outcome == OutcomeExecuted {
			return true
		}
	}
	return false
}

func (r *Record) append(kind Kind, outcome, detail string) {
	r.Entries = append(r.Entries, Entry{Kind: kind, Outcome: outcome, Detail: detail})
}

// ClipboardWriter places text on the system clipboard.
type ClipboardWriter interface {
	Write(text string) error
}

// NoteStore persists a note.
type NoteStore interface {
	Add(ctx context.Context, title, content, relatedQuestion string) error
}

// MacroRunner executes a keyboard macro sequence.
type MacroRunner interface {
	Run(ctx context.Context, keys string) error
}

// Options configures one dispatch.
type Options struct {
	// AutoExecute runs macros without confirmation. Default false:
	// macros always confirm unless explicitly enabled.
	AutoExecute bool

	// ConfirmationTimeout bounds the macro confirmation wait.
	ConfirmationTimeout time.Duration

	// Question is the user question that produced the document, stored
	// alongside notes for context.
	Question string
}

// DefaultConfirmationTimeout is used when Options leaves it zero.
const DefaultConfirmationTimeout = 10 * time.Second

// Dispatcher executes action documents against a set of executors.
// Safe for concurrent use when the executors are.
type Dispatcher struct {
	clipboard ClipboardWriter
	notes     NoteStore
	macros    MacroRunner
	gate      confirm.Gate
	log       *logging.Logger
}

// New creates a Dispatcher. Any executor may be nil; its actions are
// then recorded as failures rather than attempted.
func New(clipboard ClipboardWriter, notes NoteStore, macros MacroRunner, gate confirm.Gate) *Dispatcher {
	return &Dispatcher{
		clipboard: clipboard,
		notes:     notes,
		macros:    macros,
		gate:      gate,
		log:       logging.Default().WithComponent("dispatch"),
	}
}

// Dispatch runs the actions implied by doc and returns the audit
// record. It never fails; every problem is contained in an entry.
func (d *Dispatcher) Dispatch(ctx context.Context, doc interpret.Document, opts Options) Record {
	var rec Record

	if doc.Clipboard != "" {
		d.dispatchClipboard(&rec, doc.Clipboard)
	}
	if doc.Notes != nil && doc.Notes.Content != "" {
		d.dispatchNotes(ctx, &rec, doc.Notes, opts.Question)
	}
	if doc.Macro != nil && doc.Macro.Keys != "" {
		d.dispatchMacro(ctx, &rec, doc.Macro, opts)
	}

	return rec
}

func (d *Dispatcher) dispatchClipboard(rec *Record, text string) {
	if d.clipboard == nil {
		rec.append(KindClipboard, OutcomeFailure, "no clipboard writer configured")
		return
	}
	if err := d.clipboard.Write(text); err != nil {
		d.log.Warn("clipboard write failed", "error", err)
		rec.append(KindClipboard, OutcomeFailure, err.Error())
		return
	}
	rec.append(KindClipboard, OutcomeSuccess, fmt.Sprintf("%d bytes", len(text)))
}

func (d *Dispatcher) dispatchNotes(ctx context.Context, rec *Record, note *interpret.Note, question string) {
	if d.notes == nil {
		rec.append(KindNotes, OutcomeFailure, "no note store configured")
		return
	}
	title := note.Title
	if title == "" {
		title = "Note from " + time.Now().Format("2006-01-02 15:04:05")
	}
	if err := d.notes.Add(ctx, title, note.Content, question); err != nil {
		d.log.Warn("note save failed", "title", title, "error", err)
		rec.append(KindNotes, OutcomeFailure, err.Error())
		return
	}
	rec.append(KindNotes, OutcomeSuccess, title)
}

func (d *Dispatcher) dispatchMacro(ctx context.Context, rec *Record, macro *interpret.Macro, opts Options) {
	if d.macros == nil {
		rec.append(KindMacro, OutcomeFailed, "no macro runner configured")
		return
	}

	if !opts.AutoExecute {
		desc := macro.Description
		if desc == "" {
			desc = "Execute keyboard shortcut"
		}
		timeout := opts.ConfirmationTimeout
		if timeout <= 0 {
			timeout = DefaultConfirmationTimeout
		}
		decision := d.gate.Request(fmt.Sprintf("%s (%s)", desc, macro.Keys), timeout)
		switch decision.Outcome {
		case confirm.OutcomeDenied:
			rec.append(KindMacro, OutcomeDenied, macro.Keys)
			return
		case confirm.OutcomeTimedOut:
			rec.append(KindMacro, OutcomeTimedOut, macro.Keys)
			return
		}
	}

	if err := d.macros.Run(ctx, macro.Keys); err != nil {
		d.log.Warn("macro execution failed", "keys", macro.Keys, "error", err)
		rec.append(KindMacro, OutcomeFailed, err.Error())
		return
	}
	rec.append(KindMacro, OutcomeExecuted, macro.Keys)
}
