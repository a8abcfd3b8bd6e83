package capture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xcwatch/xcwatch/internal/oslog"
)

func TestFilterLevel(t *testing.T) {
	records := []oslog.Record{
		{Level: oslog.LevelError, Message: "a"},
		{Level: oslog.LevelInfo, Message: "b"},
		{Level: oslog.LevelError, Message: "c"},
	}

	got := FilterLevel(records, oslog.LevelError)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Message)
	assert.Equal(t, "c", got[1].Message)

	assert.Len(t, FilterLevel(records, ""), 3)
}

func TestFilterContainsMessageOnly(t *testing.T) {
	records := []oslog.Record{
		{Process: "MyApp", Message: "Connection TIMEOUT on retry"},
		{Process: "timeout-daemon", Message: "all good"},
	}

	got := FilterContains(records, "timeout")
	// Case-insensitive on message; process names never match.
	require.Len(t, got, 1)
	assert.Equal(t, "MyApp", got[0].Process)
}

func TestFilterSince(t *testing.T) {
	now := time.Now()
	records := []oslog.Record{
		{Timestamp: now.Add(-time.Hour), Message: "old"},
		{Timestamp: now, Message: "cutoff"},
		{Timestamp: now.Add(time.Minute), Message: "new"},
	}

	got := FilterSince(records, now)
	require.Len(t, got, 2)
	assert.Equal(t, "cutoff", got[0].Message)
}

func TestBuildErrors(t *testing.T) {
	records := []oslog.Record{
		{Process: "xcodebuild", Level: oslog.LevelInfo, Message: "main.swift:3:1: error: boom"},
		{Process: "xcodebuild", Level: oslog.LevelInfo, Message: "Planning build"},
		{Process: "xcodebuild", Level: oslog.LevelError, Message: "something broke"},
		{Process: "Safari", Level: oslog.LevelError, Message: "error: not a build tool"},
	}

	got := BuildErrors(records)
	require.Len(t, got, 2)
	assert.Equal(t, "main.swift:3:1: error: boom", got[0].Message)
	assert.Equal(t, "something broke", got[1].Message)
}

func TestErrorLogs(t *testing.T) {
	now := time.Now()
	records := []oslog.Record{
		{Process: "Xcode", Level: oslog.LevelError, Timestamp: now, Message: "keep"},
		{Process: "Xcode", Level: oslog.LevelFault, Timestamp: now, Message: "keep too"},
		{Process: "Xcode", Level: oslog.LevelWarning, Timestamp: now, Message: "wrong level"},
		{Process: "Finder", Level: oslog.LevelError, Timestamp: now, Message: "wrong process"},
		{Process: "Xcode", Level: oslog.LevelError, Timestamp: now.Add(-time.Hour), Message: "too old"},
	}

	got := ErrorLogs(records, now.Add(-time.Minute))
	require.Len(t, got, 2)
	assert.Equal(t, "keep", got[0].Message)
	assert.Equal(t, "keep too", got[1].Message)
}
