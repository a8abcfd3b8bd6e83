// Package export persists captured log records for offline analysis.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xcwatch/xcwatch/internal/oslog"
	"github.com/xcwatch/xcwatch/internal/utils/fileutil"
	xcerrors "github.com/xcwatch/xcwatch/pkg/errors"
)

// Sink persists a batch of records under a label (the device or session
// they came from).
type Sink interface {
	Write(label string, records []oslog.Record) (path string, err error)
}

// FileSink writes one plain-text file per export. The format is meant for
// humans and grep, not for round-tripping.
type FileSink struct {
	// Dir is the destination directory, created on first write.
	Dir string
	// now is swappable for tests.
	now func() time.Time
}

// NewFileSink builds a sink writing under dir.
func NewFileSink(dir string) *FileSink {
	return &FileSink{Dir: dir, now: time.Now}
}

// Write renders the records and writes them atomically. The returned path
// includes a timestamp so repeated exports never clobber each other.
func (s *FileSink) Write(label string, records []oslog.Record) (string, error) {
	if s.Dir == "" {
		return "", xcerrors.ErrInvalidFilePath
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", xcerrors.ErrInvalidFilePath, err)
	}

	now := s.now()
	name := fmt.Sprintf("%s_logs_%s.txt", sanitizeLabel(label), now.Format("20060102_150405"))
	path := filepath.Join(s.Dir, name)

	if err := fileutil.AtomicWriteFile(path, []byte(Render(label, records, now)), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Render produces the export text: a header line, then one block per
// record.
func Render(label string, records []oslog.Record, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s logs - %s\n\n", label, now.Format(time.RFC3339))

	for _, rec := range records {
		fmt.Fprintf(&b, "[%s] %s %s: %s\n",
			rec.Timestamp.Format(time.RFC3339),
			strings.ToUpper(string(rec.Level)),
			rec.Process,
			rec.Message)
		if rec.Subsystem != "" {
			fmt.Fprintf(&b, "  Subsystem: %s\n", rec.Subsystem)
		}
		if rec.Category != "" {
			fmt.Fprintf(&b, "  Category: %s\n", rec.Category)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// sanitizeLabel keeps the label filesystem-safe.
func sanitizeLabel(label string) string {
	if label == "" {
		return "device"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, label)
}
