// Package app wires the assistant together: chord activation, capture,
// transcription, model processing, action dispatch, and playback.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"askd/internal/audio"
	"askd/internal/chord"
	"askd/internal/clipboard"
	"askd/internal/config"
	"askd/internal/confirm"
	"askd/internal/dispatch"
	"askd/internal/interpret"
	"askd/internal/ipc"
	"askd/internal/logging"
	"askd/internal/macro"
	"askd/internal/model"
	"askd/internal/notes"
	"askd/internal/screenshot"
	"askd/internal/session"
	"askd/internal/tracker"
)

// Deps are the assistant's collaborators. Nil fields are filled with
// real implementations built from the configuration; tests inject
// fakes.
type Deps struct {
	Source      tracker.Source
	Capturer    screenshot.Capturer
	Recorder    audio.Recorder
	Transcriber audio.Transcriber
	Speaker     audio.Speaker
	Connector   model.Connector
	Gate        confirm.Gate
	Clipboard   dispatch.ClipboardWriter
	Macros      dispatch.MacroRunner
	Notes       *notes.Store
	Sessions    *session.Manager
}

// Assistant is the long-running daemon core.
type Assistant struct {
	cfg       *config.Config
	log       *logging.Logger
	version   string
	startedAt time.Time

	spec        chord.Spec
	tracker     *tracker.Tracker
	source      tracker.Source
	capturer    screenshot.Capturer
	recorder    audio.Recorder
	transcriber audio.Transcriber
	speaker     audio.Speaker
	connector   model.Connector
	dispatcher  *dispatch.Dispatcher
	notes       *notes.Store
	sessions    *session.Manager

	autoExecute    atomic.Bool
	confirmTimeout time.Duration
	historyEntries int

	// interactionMu serializes voice and typed interactions.
	interactionMu sync.Mutex

	// captureMu guards the screenshot taken at activation.
	captureMu   sync.Mutex
	capture     []byte
	captureMIME string

	ipcServer    *ipc.Server
	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

// New builds an assistant from configuration, filling missing deps
// with real implementations.
func New(cfg *config.Config, deps Deps, version string, log *logging.Logger) (*Assistant, error) {
	if log == nil {
		log = logging.Default()
	}
	log = log.WithComponent("app")

	spec := chord.Parse(cfg.Hotkey.Chord)
	if spec.Empty() {
		return nil, fmt.Errorf("hotkey chord %q has no recognizable keys", cfg.Hotkey.Chord)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	if deps.Notes == nil {
		store, err := notes.Open(cfg.Actions.NotesDB)
		if err != nil {
			return nil, fmt.Errorf("open note store: %w", err)
		}
		deps.Notes = store
	}

	if deps.Sessions == nil {
		opts := session.Options{Dir: cfg.Session.Directory}
		if !cfg.Session.NewSessionOnStartup && cfg.Session.DefaultFile != "" {
			opts.File = filepath.Join(cfg.Session.Directory, cfg.Session.DefaultFile)
		}
		mgr, err := session.New(opts, log)
		if err != nil {
			return nil, fmt.Errorf("create session manager: %w", err)
		}
		deps.Sessions = mgr
	}

	if deps.Connector == nil {
		conn, err := model.NewFromConfig(cfg.Models, log)
		if err != nil {
			return nil, fmt.Errorf("create model connector: %w", err)
		}
		deps.Connector = conn
	}

	if deps.Capturer == nil {
		cap, err := screenshot.NewExecCapturer(cfg.Screenshot.Command, cfg.Screenshot.Dir, log)
		if err != nil {
			return nil, fmt.Errorf("create screen capturer: %w", err)
		}
		deps.Capturer = cap
	}

	if deps.Recorder == nil {
		deps.Recorder = audio.NewExecRecorder(cfg.Speech.STT.RecordCommand, "", log)
	}
	if deps.Transcriber == nil {
		deps.Transcriber = audio.NewHTTPTranscriber(cfg.Speech.STT, log)
	}

	if deps.Speaker == nil {
		if cfg.Speech.TTS.Enabled {
			sp, err := audio.NewExecSpeaker(cfg.Speech.TTS.Command, log)
			if err != nil {
				log.Warn("text-to-speech unavailable, answers will not be spoken", "error", err)
				deps.Speaker = audio.NopSpeaker{}
			} else {
				deps.Speaker = sp
			}
		} else {
			deps.Speaker = audio.NopSpeaker{}
		}
	}

	if deps.Gate == nil {
		deps.Gate = confirm.NewConsoleGate(os.Stdin, os.Stdout, confirm.NewDesktopNotifier("askd"))
	}
	if deps.Clipboard == nil {
		deps.Clipboard = clipboard.NewWriter()
	}
	if deps.Macros == nil {
		deps.Macros = macro.NewRunner(nil)
	}
	if deps.Source == nil {
		deps.Source = tracker.NewSource()
	}

	a := &Assistant{
		cfg:            cfg,
		log:            log,
		version:        version,
		spec:           spec,
		source:         deps.Source,
		capturer:       deps.Capturer,
		recorder:       deps.Recorder,
		transcriber:    deps.Transcriber,
		speaker:        deps.Speaker,
		connector:      deps.Connector,
		notes:          deps.Notes,
		sessions:       deps.Sessions,
		confirmTimeout: time.Duration(cfg.Actions.ConfirmationTimeoutSec) * time.Second,
		historyEntries: cfg.Session.HistoryEntries,
		shutdownCh:     make(chan struct{}),
	}
	a.autoExecute.Store(cfg.Actions.AutoExecute)
	a.tracker = tracker.New(spec, a.onActivate, a.onDeactivate)
	a.dispatcher = dispatch.New(deps.Clipboard, deps.Notes, deps.Macros, deps.Gate)

	return a, nil
}

// Run starts the assistant and blocks until ctx is cancelled or a
// shutdown is requested over IPC.
func (a *Assistant) Run(ctx context.Context) error {
	a.startedAt = time.Now()

	if ok, reason := a.source.Available(); !ok {
		return fmt.Errorf("keyboard capture unavailable: %s", reason)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.source.Start(ctx); err != nil {
		return fmt.Errorf("start key source: %w", err)
	}
	defer a.source.Stop()

	if a.cfg.IPC.Enabled {
		a.ipcServer = ipc.NewServer(
			a.cfg.IPC.SocketPath,
			time.Duration(a.cfg.IPC.TimeoutSec)*time.Second,
			a,
			a.log,
		)
		if err := a.ipcServer.Start(); err != nil {
			return fmt.Errorf("start control socket: %w", err)
		}
		defer a.ipcServer.Stop()
	}

	a.log.Info("assistant started",
		"chord", a.spec.String(),
		"provider", a.connector.Name(),
		"auto_execute", a.autoExecute.Load())

	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		tracker.Run(ctx, a.source, a.tracker)
	}()

	select {
	case <-ctx.Done():
	case <-a.shutdownCh:
	}
	cancel()
	<-pumpDone

	a.log.Info("assistant stopped")
	return nil
}

// Close releases resources not tied to Run's lifetime.
func (a *Assistant) Close() error {
	if a.notes != nil {
		return a.notes.Close()
	}
	return nil
}

// onActivate runs when the chord completes: grab the screen, start
// listening.
func (a *Assistant) onActivate() {
	a.log.Info("chord activated, capturing")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	data, mime, err := a.capturer.Capture(ctx)
	if err != nil {
		a.log.Error("screen capture failed", "error", err)
		data, mime = nil, ""
	}
	a.captureMu.Lock()
	a.capture, a.captureMIME = data, mime
	a.captureMu.Unlock()

	if err := a.recorder.Start(context.Background()); err != nil {
		a.log.Error("start recording failed", "error", err)
	}
}

// onDeactivate runs when any chord key lifts: stop listening and
// process the question off the event pump.
func (a *Assistant) onDeactivate() {
	a.log.Info("chord released, processing")
	go a.processVoiceInteraction()
}

func (a *Assistant) processVoiceInteraction() {
	a.interactionMu.Lock()
	defer a.interactionMu.Unlock()

	path, err := a.recorder.Stop()
	if err != nil {
		a.log.Warn("no usable recording", "error", err)
		return
	}
	defer os.Remove(path)

	ctx := context.Background()

	question, err := a.transcriber.Transcribe(ctx, path)
	if err != nil {
		a.log.Error("transcription failed", "error", err)
		return
	}
	if question == "" {
		a.log.Warn("empty transcription, ignoring")
		return
	}

	a.captureMu.Lock()
	capture, mime := a.capture, a.captureMIME
	a.capture, a.captureMIME = nil, ""
	a.captureMu.Unlock()

	if len(capture) == 0 {
		a.log.Error("no screenshot captured for question", "question", question)
		return
	}

	a.answer(ctx, question, capture, mime)
}

// answer runs the model/interpret/dispatch/speak pipeline for one
// question. Key event processing is suppressed for the whole span so
// synthetic input and TTS audio cannot retrigger the chord.
func (a *Assistant) answer(ctx context.Context, question string, capture []byte, mime string) (interpret.Document, dispatch.Record, error) {
	a.tracker.SetSuppressed(true)
	defer a.tracker.SetSuppressed(false)

	history := a.sessions.History(a.historyEntries)

	raw, err := a.connector.Process(ctx, model.Request{
		Question:    question,
		Capture:     capture,
		CaptureMIME: mime,
		History:     history,
	})
	if err != nil {
		a.log.Error("model request failed", "error", err)
		return interpret.Document{}, dispatch.Record{}, err
	}

	doc := interpret.Interpret(raw)
	a.log.Info("response interpreted",
		"structured", doc.Structured,
		"has_clipboard", doc.Clipboard != "",
		"has_notes", doc.Notes != nil,
		"has_macro", doc.Macro != nil)

	rec := a.dispatcher.Dispatch(ctx, doc, dispatch.Options{
		AutoExecute:         a.autoExecute.Load(),
		ConfirmationTimeout: a.confirmTimeout,
		Question:            question,
	})
	for _, entry := range rec.Entries {
		a.log.Info("action dispatched", "kind", entry.Kind, "outcome", entry.Outcome, "detail", entry.Detail)
	}

	if err := a.sessions.AddInteraction(question, doc.Raw); err != nil {
		a.log.Warn("session write failed", "error", err)
	}

	done, err := a.speaker.Speak(ctx, doc.Speech)
	if err != nil {
		a.log.Warn("speech playback failed", "error", err)
	} else {
		// Hold suppression until playback finishes.
		<-done
	}

	return doc, rec, nil
}
