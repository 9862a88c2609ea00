package audio

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"askd/internal/logging"
)

// ExecSpeaker speaks text by running an external TTS tool with the
// text as its final argument.
type ExecSpeaker struct {
	command []string
	log     *logging.Logger
}

// NewExecSpeaker returns a speaker running the given command. An empty
// command probes for a known TTS tool on PATH.
func NewExecSpeaker(command []string, log *logging.Logger) (*ExecSpeaker, error) {
	if log == nil {
		log = logging.Default()
	}
	if len(command) == 0 {
		command = probeSpeakCommand()
		if command == nil {
			return nil, fmt.Errorf("no text-to-speech tool found on PATH")
		}
	}
	return &ExecSpeaker{
		command: command,
		log:     log.WithComponent("tts"),
	}, nil
}

func probeSpeakCommand() []string {
	candidates := [][]string{
		{"espeak-ng"},
		{"espeak"},
		{"spd-say", "-w"},
	}
	if runtime.GOOS == "darwin" {
		candidates = append([][]string{{"say"}}, candidates...)
	}
	for _, c := range candidates {
		if _, err := exec.LookPath(c[0]); err == nil {
			return c
		}
	}
	return nil
}

// Speak starts playback and returns a channel closed when the TTS
// process exits.
func (s *ExecSpeaker) Speak(ctx context.Context, text string) (<-chan struct{}, error) {
	done := make(chan struct{})
	if text == "" {
		close(done)
		return done, nil
	}

	args := append(append([]string{}, s.command[1:]...), text)
	cmd := exec.CommandContext(ctx, s.command[0], args...)
	if err := cmd.Start(); err != nil {
		close(done)
		return done, fmt.Errorf("start speak command %q: %w", s.command[0], err)
	}

	go func() {
		defer close(done)
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			s.log.Warn("speak command failed", "error", err)
		}
	}()
	return done, nil
}
