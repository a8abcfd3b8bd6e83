package export

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xcwatch/xcwatch/internal/oslog"
)

func sampleRecords() []oslog.Record {
	ts := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	return []oslog.Record{
		{
			Timestamp: ts,
			Level:     oslog.LevelError,
			Process:   "MyApp",
			Subsystem: "com.example.net",
			Category:  "network",
			Message:   "Connection failed",
		},
		{
			Timestamp: ts.Add(time.Second),
			Level:     oslog.LevelInfo,
			Process:   "MyApp",
			Message:   "retrying",
		},
	}
}

func TestRender(t *testing.T) {
	now := time.Date(2024, 1, 15, 11, 0, 0, 0, time.UTC)
	out := Render("iPhone 15", sampleRecords(), now)

	assert.True(t, strings.HasPrefix(out, "# iPhone 15 logs - 2024-01-15T11:00:00Z\n"))
	assert.Contains(t, out, "[2024-01-15T10:30:00Z] ERROR MyApp: Connection failed\n")
	assert.Contains(t, out, "  Subsystem: com.example.net\n")
	assert.Contains(t, out, "  Category: network\n")
	// Records without subsystem/category stay two lines: entry plus blank.
	assert.Contains(t, out, "[2024-01-15T10:30:01Z] INFO MyApp: retrying\n\n")
}

func TestFileSinkWrite(t *testing.T) {
	dir := t.TempDir()
	s := NewFileSink(dir)
	s.now = func() time.Time { return time.Date(2024, 1, 15, 11, 0, 0, 0, time.UTC) }

	path, err := s.Write("iPhone 15 (Pro)", sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, "iPhone_15__Pro__logs_20240115_110000.txt", strings.TrimPrefix(path, dir+string(os.PathSeparator)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Connection failed")
}

func TestFileSinkEmptyDir(t *testing.T) {
	_, err := (&FileSink{now: time.Now}).Write("x", nil)
	assert.Error(t, err)
}
