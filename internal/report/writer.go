package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const stampLayout = "20060102_150405"

// Writer saves reports as <kind>_report_<YYYYMMDD_HHMMSS>.txt in Dir.
// Names carry second resolution; a save within the same second as the
// previous one is stamped one second later so files never collide.
type Writer struct {
	Dir string
	Now func() time.Time

	mu   sync.Mutex
	last time.Time
}

func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir, Now: time.Now}
}

func (w *Writer) Save(kind, body string) (string, error) {
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(w.Dir, fmt.Sprintf("%s_report_%s.txt", kind, w.stamp().Format(stampLayout)))
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

func (w *Writer) stamp() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	ts := now().Truncate(time.Second)
	if !w.last.IsZero() && !ts.After(w.last) {
		ts = w.last.Add(time.Second)
	}
	w.last = ts
	return ts
}
