// Package session records conversation transcripts as markdown files
// and replays recent history back into model requests.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"askd/internal/logging"
)

const fileTimeLayout = "20060102_150405"

// Manager maintains the current session transcript.
type Manager struct {
	dir  string
	file string
	log  *logging.Logger
}

// Options configure a session manager.
type Options struct {
	// Dir is the directory holding session transcripts.
	Dir string
	// File forces a specific transcript path. Empty means start a
	// fresh timestamped file under Dir.
	File string
}

// New returns a manager writing under opts.Dir.
func New(opts Options, log *logging.Logger) (*Manager, error) {
	if log == nil {
		log = logging.Default()
	}
	if opts.Dir == "" {
		opts.Dir = "sessions"
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sessions directory: %w", err)
	}

	m := &Manager{dir: opts.Dir, log: log.WithComponent("session")}
	if opts.File != "" {
		m.file = opts.File
	} else {
		m.file = m.newSessionPath()
	}
	return m, nil
}

// Path returns the current transcript path.
func (m *Manager) Path() string { return m.file }

// StartNew switches to a fresh timestamped transcript and returns its path.
func (m *Manager) StartNew() string {
	m.file = m.newSessionPath()
	m.log.Info("started new session", "file", m.file)
	return m.file
}

func (m *Manager) newSessionPath() string {
	base := time.Now().Format(fileTimeLayout)
	path := filepath.Join(m.dir, fmt.Sprintf("session_%s.md", base))
	for n := 1; path == m.file; n++ {
		path = filepath.Join(m.dir, fmt.Sprintf("session_%s_%d.md", base, n))
	}
	return path
}

// AddInteraction appends a question/answer pair to the transcript,
// creating the file with a header on first write.
func (m *Manager) AddInteraction(question, answer string) error {
	ts := time.Now().Format("2006-01-02 15:04:05")

	if _, err := os.Stat(m.file); os.IsNotExist(err) {
		header := fmt.Sprintf("# Assistant Session\n\nStarted: %s\n", ts)
		if err := os.WriteFile(m.file, []byte(header), 0o644); err != nil {
			return fmt.Errorf("create session file: %w", err)
		}
	}

	f, err := os.OpenFile(m.file, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open session file: %w", err)
	}
	defer f.Close()

	entry := fmt.Sprintf("\n## Question (%s)\n\n%s\n\n## Answer\n\n%s\n", ts, question, answer)
	if _, err := f.WriteString(entry); err != nil {
		return fmt.Errorf("append interaction: %w", err)
	}
	return nil
}

// History returns the most recent question/answer entries from the
// transcript as a formatted string, oldest first. maxEntries <= 0
// returns the whole transcript body.
func (m *Manager) History(maxEntries int) string {
	data, err := os.ReadFile(m.file)
	if err != nil {
		if !os.IsNotExist(err) {
			m.log.Warn("read session history", "error", err)
		}
		return ""
	}

	content := string(data)
	if maxEntries <= 0 {
		return content
	}

	// Entries start at "## Question" headings. Keep the last N.
	const marker = "\n## Question"
	var starts []int
	for i := 0; ; {
		j := strings.Index(content[i:], marker)
		if j < 0 {
			break
		}
		starts = append(starts, i+j)
		i += j + len(marker)
	}
	if len(starts) == 0 {
		return ""
	}
	if len(starts) > maxEntries {
		starts = starts[len(starts)-maxEntries:]
	}
	return strings.TrimSpace(content[starts[0]:])
}
