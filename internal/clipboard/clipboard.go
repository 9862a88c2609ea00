// Package clipboard writes text to the system clipboard.
package clipboard

import (
	"fmt"

	"github.com/atotto/clipboard"

	"askd/internal/logging"
)

// Writer places text on the system clipboard.
type Writer struct {
	log *logging.Logger
}

// NewWriter creates a clipboard writer.
func NewWriter() *Writer {
	return &Writer{log: logging.Default().WithComponent("clipboard")}
}

// Write copies text to the clipboard.
func (w *Writer) Write(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	w.log.Debug("copied to clipboard", "bytes", len(text))
	return nil
}
