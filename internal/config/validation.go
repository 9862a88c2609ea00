// Package config handles configuration loading and validation for askd.
package config

import (
	"fmt"
	"net/url"
	"strings"

	"askd/internal/chord"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// ValidateConfig performs validation of the configuration.
func ValidateConfig(c *Config) error {
	var errs ValidationErrors

	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}

	errs = append(errs, validateHotkey(&c.Hotkey)...)
	errs = append(errs, validateActions(&c.Actions)...)
	errs = append(errs, validateSession(&c.Session)...)
	errs = append(errs, validateModels(&c.Models)...)
	errs = append(errs, validateSpeech(&c.Speech)...)
	errs = append(errs, validateLogging(&c.Logging)...)
	errs = append(errs, validateIPC(&c.IPC)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateHotkey(h *HotkeyConfig) ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(h.Chord) == "" {
		errs = append(errs, ValidationError{
			Field:   "hotkey.chord",
			Message: "chord cannot be empty",
		})
		return errs
	}
	if chord.Parse(h.Chord).Empty() {
		errs = append(errs, ValidationError{
			Field:   "hotkey.chord",
			Message: fmt.Sprintf("no recognizable keys in %q", h.Chord),
		})
	}
	return errs
}

func validateActions(a *ActionsConfig) ValidationErrors {
	var errs ValidationErrors

	if a.ConfirmationTimeoutSec <= 0 {
		errs = append(errs, ValidationError{
			Field:   "actions.confirmation_timeout_sec",
			Message: "must be positive",
		})
	}
	if a.NotesDB == "" {
		errs = append(errs, ValidationError{
			Field:   "actions.notes_db",
			Message: "path cannot be empty",
		})
	}
	return errs
}

func validateSession(s *SessionConfig) ValidationErrors {
	var errs ValidationErrors

	if s.Directory == "" {
		errs = append(errs, ValidationError{
			Field:   "session.directory",
			Message: "directory cannot be empty",
		})
	}
	if s.HistoryEntries < 0 {
		errs = append(errs, ValidationError{
			Field:   "session.history_entries",
			Message: "cannot be negative",
		})
	}
	return errs
}

func validateModels(m *ModelsConfig) ValidationErrors {
	var errs ValidationErrors

	if m.Default != "" {
		if _, ok := m.Providers[m.Default]; !ok {
			errs = append(errs, ValidationError{
				Field:   "models.default",
				Message: fmt.Sprintf("provider %q is not configured", m.Default),
			})
		}
	}

	anyEnabled := false
	for name, p := range m.Providers {
		if p.Enabled {
			anyEnabled = true
		}
		if p.TimeoutSec < 0 {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("models.providers.%s.timeout_sec", name),
				Message: "cannot be negative",
			})
		}
		if p.BaseURL != "" {
			if _, err := url.Parse(p.BaseURL); err != nil {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("models.providers.%s.base_url", name),
					Message: fmt.Sprintf("invalid URL: %v", err),
				})
			}
		}
	}
	if len(m.Providers) > 0 && !anyEnabled {
		errs = append(errs, ValidationError{
			Field:   "models.providers",
			Message: "no provider is enabled",
		})
	}
	return errs
}

func validateSpeech(s *SpeechConfig) ValidationErrors {
	var errs ValidationErrors

	if s.STT.URL != "" {
		u, err := url.Parse(s.STT.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, ValidationError{
				Field:   "speech.stt.url",
				Message: "must be an http or https URL",
			})
		}
	}
	if s.STT.TimeoutSec < 0 {
		errs = append(errs, ValidationError{
			Field:   "speech.stt.timeout_sec",
			Message: "cannot be negative",
		})
	}
	return errs
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	switch l.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("unknown level %q", l.Level),
		})
	}

	switch l.Format {
	case "", "text", "json":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("unknown format %q", l.Format),
		})
	}

	switch l.Output {
	case "", "stdout", "stderr":
	case "file":
		if l.FilePath == "" {
			errs = append(errs, ValidationError{
				Field:   "logging.file_path",
				Message: "required when output is file",
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.output",
			Message: fmt.Sprintf("unknown output %q", l.Output),
		})
	}

	if l.MaxSizeMB < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_size_mb",
			Message: "cannot be negative",
		})
	}
	return errs
}

func validateIPC(i *IPCConfig) ValidationErrors {
	var errs ValidationErrors

	if i.Enabled && i.SocketPath == "" {
		errs = append(errs, ValidationError{
			Field:   "ipc.socket_path",
			Message: "required when ipc is enabled",
		})
	}
	if i.TimeoutSec < 0 {
		errs = append(errs, ValidationError{
			Field:   "ipc.timeout_sec",
			Message: "cannot be negative",
		})
	}
	return errs
}
