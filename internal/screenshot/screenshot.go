// Package screenshot captures the current screen for model context.
package screenshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"askd/internal/logging"
)

// ErrNoCaptureTool is returned when no screenshot tool is available.
var ErrNoCaptureTool = errors.New("screenshot: no capture tool found on PATH")

// Capturer grabs the screen and returns encoded image data plus its
// MIME type.
type Capturer interface {
	Capture(ctx context.Context) (data []byte, mime string, err error)
}

// ExecCapturer captures the screen by running an external tool that
// writes a PNG to the file given as its final argument.
type ExecCapturer struct {
	command []string
	dir     string
	log     *logging.Logger
}

// NewExecCapturer returns a capturer running the given command. An
// empty command probes for a known tool. dir receives the temporary
// capture files; empty means the system temp directory.
func NewExecCapturer(command []string, dir string, log *logging.Logger) (*ExecCapturer, error) {
	if log == nil {
		log = logging.Default()
	}
	if len(command) == 0 {
		command = probeCaptureCommand()
		if command == nil {
			return nil, ErrNoCaptureTool
		}
	}
	if dir == "" {
		dir = os.TempDir()
	}
	return &ExecCapturer{
		command: command,
		dir:     dir,
		log:     log.WithComponent("screenshot"),
	}, nil
}

func probeCaptureCommand() []string {
	candidates := [][]string{
		{"grim"},
		{"gnome-screenshot", "-f"},
		{"scrot", "-o"},
		{"import", "-window", "root"},
	}
	if runtime.GOOS == "darwin" {
		candidates = [][]string{{"screencapture", "-x"}}
	}
	for _, c := range candidates {
		if _, err := exec.LookPath(c[0]); err == nil {
			return c
		}
	}
	return nil
}

// Capture grabs the screen and returns the PNG bytes.
func (c *ExecCapturer) Capture(ctx context.Context) ([]byte, string, error) {
	if err := os.MkdirAll(c.dir, 0o700); err != nil {
		return nil, "", fmt.Errorf("create capture directory: %w", err)
	}

	path := filepath.Join(c.dir, fmt.Sprintf("capture_%d.png", time.Now().UnixNano()))
	defer os.Remove(path)

	args := append(append([]string{}, c.command[1:]...), path)
	cmd := exec.CommandContext(ctx, c.command[0], args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, "", fmt.Errorf("capture command %q: %w (%s)", c.command[0], err, string(out))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read capture: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("capture command produced an empty image")
	}

	c.log.Info("screen captured", "bytes", len(data))
	return data, "image/png", nil
}
