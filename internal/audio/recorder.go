package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"askd/internal/logging"
)

// stopGrace is how long a record process gets to exit after interrupt
// before it is killed.
const stopGrace = 3 * time.Second

// ExecRecorder records microphone audio by running an external capture
// tool. The output file path is appended as the command's final
// argument.
type ExecRecorder struct {
	command []string
	dir     string
	log     *logging.Logger

	mu   sync.Mutex
	cmd  *exec.Cmd
	path string
}

// NewExecRecorder returns a recorder running the given command.
// An empty command selects a platform default. dir is where recordings
// are written; empty means the system temp directory.
func NewExecRecorder(command []string, dir string, log *logging.Logger) *ExecRecorder {
	if len(command) == 0 {
		command = defaultRecordCommand()
	}
	if dir == "" {
		dir = os.TempDir()
	}
	if log == nil {
		log = logging.Default()
	}
	return &ExecRecorder{
		command: command,
		dir:     dir,
		log:     log.WithComponent("recorder"),
	}
}

func defaultRecordCommand() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"sox", "-d", "-r", "16000", "-c", "1"}
	default:
		return []string{"arecord", "-q", "-f", "S16_LE", "-r", "16000", "-c", "1"}
	}
}

// Start launches the capture process.
func (r *ExecRecorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cmd != nil {
		return ErrAlreadyRecording
	}

	path := filepath.Join(r.dir, fmt.Sprintf("ask_%d.wav", time.Now().UnixNano()))
	args := append(append([]string{}, r.command[1:]...), path)

	cmd := exec.CommandContext(ctx, r.command[0], args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start record command %q: %w", r.command[0], err)
	}

	r.cmd = cmd
	r.path = path
	r.log.Info("recording started", "path", path)
	return nil
}

// Stop interrupts the capture process, waits for it to exit, and
// returns the recorded file path. A recording that produced no data
// yields ErrNoAudio.
func (r *ExecRecorder) Stop() (string, error) {
	r.mu.Lock()
	cmd := r.cmd
	path := r.path
	r.cmd = nil
	r.path = ""
	r.mu.Unlock()

	if cmd == nil {
		return "", ErrNotRecording
	}

	// Capture tools finalize their output on SIGINT.
	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		_ = cmd.Process.Kill()
	}

	waitErr := make(chan error, 1)
	go func() { waitErr <- cmd.Wait() }()

	select {
	case err := <-waitErr:
		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			os.Remove(path)
			return "", fmt.Errorf("record command: %w", err)
		}
	case <-time.After(stopGrace):
		_ = cmd.Process.Kill()
		<-waitErr
	}

	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		os.Remove(path)
		return "", ErrNoAudio
	}

	r.log.Info("recording stopped", "path", path, "bytes", info.Size())
	return path, nil
}
