// Package config handles configuration loading, validation, and management for askd.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete daemon configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Hotkey configuration for chord activation.
	Hotkey HotkeyConfig `toml:"hotkey" json:"hotkey" yaml:"hotkey"`

	// Actions configuration for dispatching model-proposed actions.
	Actions ActionsConfig `toml:"actions" json:"actions" yaml:"actions"`

	// Session configuration for conversation transcripts.
	Session SessionConfig `toml:"session" json:"session" yaml:"session"`

	// Models configuration for AI providers.
	Models ModelsConfig `toml:"models" json:"models" yaml:"models"`

	// Speech configuration for transcription and playback.
	Speech SpeechConfig `toml:"speech" json:"speech" yaml:"speech"`

	// Screenshot configuration for screen capture.
	Screenshot ScreenshotConfig `toml:"screenshot" json:"screenshot" yaml:"screenshot"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`

	// IPC configuration for the control socket.
	IPC IPCConfig `toml:"ipc" json:"ipc" yaml:"ipc"`
}

// HotkeyConfig holds chord activation configuration.
type HotkeyConfig struct {
	// Chord is the activation combination, e.g. "ctrl+alt+a".
	// Keys are joined with '+'; order does not matter.
	Chord string `toml:"chord" json:"chord" yaml:"chord"`
}

// ActionsConfig holds action dispatch configuration.
type ActionsConfig struct {
	// AutoExecute skips macro confirmation entirely when true.
	AutoExecute bool `toml:"auto_execute" json:"auto_execute" yaml:"auto_execute"`

	// ConfirmationTimeoutSec is how long to wait for a macro
	// confirmation answer before treating it as a timeout.
	ConfirmationTimeoutSec int `toml:"confirmation_timeout_sec" json:"confirmation_timeout_sec" yaml:"confirmation_timeout_sec"`

	// NotesDB is the path to the SQLite note database.
	NotesDB string `toml:"notes_db" json:"notes_db" yaml:"notes_db"`
}

// SessionConfig holds conversation transcript configuration.
type SessionConfig struct {
	// Directory holds session transcript files.
	Directory string `toml:"directory" json:"directory" yaml:"directory"`

	// DefaultFile is the transcript to reuse when
	// NewSessionOnStartup is false.
	DefaultFile string `toml:"default_file" json:"default_file" yaml:"default_file"`

	// NewSessionOnStartup starts a fresh timestamped transcript on
	// each daemon start.
	NewSessionOnStartup bool `toml:"new_session_on_startup" json:"new_session_on_startup" yaml:"new_session_on_startup"`

	// HistoryEntries is how many past interactions to replay into
	// model requests.
	HistoryEntries int `toml:"history_entries" json:"history_entries" yaml:"history_entries"`
}

// ModelsConfig holds AI provider configuration.
type ModelsConfig struct {
	// Default is the provider name to try first.
	Default string `toml:"default" json:"default" yaml:"default"`

	// SystemPromptFile overrides the built-in system prompt.
	SystemPromptFile string `toml:"system_prompt_file" json:"system_prompt_file" yaml:"system_prompt_file"`

	// Providers maps provider names to their settings.
	Providers map[string]ProviderConfig `toml:"providers" json:"providers" yaml:"providers"`
}

// ProviderConfig holds settings for one AI provider.
type ProviderConfig struct {
	// Enabled determines whether this provider may be selected.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// APIKey authenticates requests (set via environment where possible).
	APIKey string `toml:"api_key" json:"api_key" yaml:"api_key"`

	// Model is the provider-specific model identifier.
	Model string `toml:"model" json:"model" yaml:"model"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `toml:"base_url" json:"base_url" yaml:"base_url"`

	// TimeoutSec bounds each model request.
	TimeoutSec int `toml:"timeout_sec" json:"timeout_sec" yaml:"timeout_sec"`
}

// SpeechConfig holds speech-to-text and text-to-speech configuration.
type SpeechConfig struct {
	STT STTConfig `toml:"stt" json:"stt" yaml:"stt"`
	TTS TTSConfig `toml:"tts" json:"tts" yaml:"tts"`
}

// STTConfig holds transcription configuration.
type STTConfig struct {
	// URL is the transcription endpoint (multipart audio upload).
	URL string `toml:"url" json:"url" yaml:"url"`

	// APIKey authenticates transcription requests.
	APIKey string `toml:"api_key" json:"api_key" yaml:"api_key"`

	// Model is the transcription model identifier.
	Model string `toml:"model" json:"model" yaml:"model"`

	// RecordCommand records microphone audio to the file given as
	// its final argument.
	RecordCommand []string `toml:"record_command" json:"record_command" yaml:"record_command"`

	// TimeoutSec bounds each transcription request.
	TimeoutSec int `toml:"timeout_sec" json:"timeout_sec" yaml:"timeout_sec"`
}

// TTSConfig holds speech playback configuration.
type TTSConfig struct {
	// Enabled determines whether answers are spoken aloud.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// Command speaks the text passed as its final argument.
	Command []string `toml:"command" json:"command" yaml:"command"`
}

// ScreenshotConfig holds screen capture configuration.
type ScreenshotConfig struct {
	// Command captures the screen to the file given as its final
	// argument. Empty means probe for a known tool.
	Command []string `toml:"command" json:"command" yaml:"command"`

	// Dir is where captures are written.
	Dir string `toml:"dir" json:"dir" yaml:"dir"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is the log format: text or json.
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is the log destination: stdout, stderr, or file.
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the log file path when Output is file.
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`

	// MaxSizeMB rolls the log file over past this size.
	MaxSizeMB int `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`
}

// IPCConfig holds control socket configuration.
type IPCConfig struct {
	// Enabled determines whether the control socket is served.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// SocketPath is the unix socket path.
	SocketPath string `toml:"socket_path" json:"socket_path" yaml:"socket_path"`

	// TimeoutSec bounds each IPC request.
	TimeoutSec int `toml:"timeout_sec" json:"timeout_sec" yaml:"timeout_sec"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	dir := AskdDir()

	return &Config{
		Version: Version,
		Hotkey: HotkeyConfig{
			Chord: "ctrl+alt+a",
		},
		Actions: ActionsConfig{
			AutoExecute:            false,
			ConfirmationTimeoutSec: 10,
			NotesDB:                filepath.Join(dir, "notes.db"),
		},
		Session: SessionConfig{
			Directory:           filepath.Join(dir, "sessions"),
			DefaultFile:         "",
			NewSessionOnStartup: true,
			HistoryEntries:      5,
		},
		Models: ModelsConfig{
			Default: "gemini",
			Providers: map[string]ProviderConfig{
				"gemini": {
					Enabled:    true,
					Model:      "gemini-2.0-flash",
					TimeoutSec: 60,
				},
				"openai": {
					Enabled:    false,
					Model:      "gpt-4o",
					TimeoutSec: 60,
				},
			},
		},
		Speech: SpeechConfig{
			STT: STTConfig{
				URL:        "https://api.openai.com/v1/audio/transcriptions",
				Model:      "whisper-1",
				TimeoutSec: 30,
			},
			TTS: TTSConfig{
				Enabled: true,
			},
		},
		Screenshot: ScreenshotConfig{
			Dir: filepath.Join(dir, "captures"),
		},
		Logging: LoggingConfig{
			Level:     "info",
			Format:    "text",
			Output:    "file",
			FilePath:  filepath.Join(PlatformLogDir(), "askd.log"),
			MaxSizeMB: 10,
		},
		IPC: IPCConfig{
			Enabled:    true,
			SocketPath: defaultSocketPath(),
			TimeoutSec: 30,
		},
	}
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(PlatformConfigDir(), "config.toml")
}

// AskdDir returns the base askd data directory.
// Uses platform-specific paths or the ASKD_DATA_DIR environment override.
func AskdDir() string {
	if envDir := os.Getenv("ASKD_DATA_DIR"); envDir != "" {
		return envDir
	}
	return PlatformDataDir()
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// EnsureDirectories creates all directories the daemon writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		filepath.Dir(c.Actions.NotesDB),
		c.Session.Directory,
		c.Screenshot.Dir,
		filepath.Dir(c.Logging.FilePath),
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ApplyEnvOverrides applies environment variable overrides.
// Variables are prefixed with ASKD_.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("ASKD_CHORD"); v != "" {
		c.Hotkey.Chord = v
	}
	if v := os.Getenv("ASKD_AUTO_EXECUTE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Actions.AutoExecute = b
		}
	}
	if v := os.Getenv("ASKD_NOTES_DB"); v != "" {
		c.Actions.NotesDB = v
	}
	if v := os.Getenv("ASKD_SESSIONS_DIR"); v != "" {
		c.Session.Directory = v
	}
	if v := os.Getenv("ASKD_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("ASKD_LOG_PATH"); v != "" {
		c.Logging.FilePath = v
	}
	if v := os.Getenv("ASKD_SOCKET_PATH"); v != "" {
		c.IPC.SocketPath = v
	}

	// Provider credentials come from env so they stay out of config files.
	if v := os.Getenv("ASKD_GEMINI_API_KEY"); v != "" {
		p := c.Models.Providers["gemini"]
		p.APIKey = v
		c.setProvider("gemini", p)
	}
	if v := os.Getenv("ASKD_OPENAI_API_KEY"); v != "" {
		p := c.Models.Providers["openai"]
		p.APIKey = v
		c.setProvider("openai", p)
	}
	if v := os.Getenv("ASKD_STT_API_KEY"); v != "" {
		c.Speech.STT.APIKey = v
	}
}

func (c *Config) setProvider(name string, p ProviderConfig) {
	if c.Models.Providers == nil {
		c.Models.Providers = map[string]ProviderConfig{}
	}
	c.Models.Providers[name] = p
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c

	clone.Models.Providers = make(map[string]ProviderConfig, len(c.Models.Providers))
	for name, p := range c.Models.Providers {
		clone.Models.Providers[name] = p
	}
	clone.Speech.STT.RecordCommand = append([]string{}, c.Speech.STT.RecordCommand...)
	clone.Speech.TTS.Command = append([]string{}, c.Speech.TTS.Command...)
	clone.Screenshot.Command = append([]string{}, c.Screenshot.Command...)

	return &clone
}

// SaveConfig writes the configuration to the given path as TOML.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// SaveConfigTo writes the configuration to w as TOML.
func SaveConfigTo(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}
