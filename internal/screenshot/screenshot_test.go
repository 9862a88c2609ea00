package screenshot

import (
	"context"
	"testing"
)

func TestExecCapturer(t *testing.T) {
	// Stand-in capture tool writes fixed bytes to the output path.
	c, err := NewExecCapturer([]string{"sh", "-c", `printf 'PNGDATA' > "$0"`}, t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewExecCapturer failed: %v", err)
	}

	data, mime, err := c.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if string(data) != "PNGDATA" {
		t.Errorf("unexpected capture data: %q", data)
	}
	if mime != "image/png" {
		t.Errorf("mime = %q", mime)
	}
}

func TestExecCapturerCommandFailure(t *testing.T) {
	c, err := NewExecCapturer([]string{"false"}, t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewExecCapturer failed: %v", err)
	}
	if _, _, err := c.Capture(context.Background()); err == nil {
		t.Fatal("expected error from failing command")
	}
}

func TestExecCapturerEmptyOutput(t *testing.T) {
	c, err := NewExecCapturer([]string{"touch"}, t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewExecCapturer failed: %v", err)
	}
	if _, _, err := c.Capture(context.Background()); err == nil {
		t.Fatal("expected error for empty capture")
	}
}
