package capture

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xcwatch/xcwatch/internal/oslog"
)

func record(msg string) oslog.Record {
	return oslog.Record{Level: oslog.LevelInfo, Process: "Xcode", Message: msg}
}

func TestBufferEvictsOldestWhenFull(t *testing.T) {
	b := NewBuffer(3)
	for i := 0; i < 5; i++ {
		b.Append(record(fmt.Sprintf("m%d", i)))
	}

	assert.Equal(t, 3, b.Len())
	got := b.Drain(0)
	require.Len(t, got, 3)
	// The two oldest were evicted; arrival order survives.
	assert.Equal(t, "m2", got[0].Message)
	assert.Equal(t, "m4", got[2].Message)
}

func TestDrainPopsFromQueueHead(t *testing.T) {
	b := NewBuffer(10)
	for i := 0; i < 5; i++ {
		b.Append(record(fmt.Sprintf("m%d", i)))
	}

	got := b.Drain(2)
	require.Len(t, got, 2)
	assert.Equal(t, "m0", got[0].Message)
	assert.Equal(t, "m1", got[1].Message)

	// Records not taken stay queued for the next reader.
	assert.Equal(t, 3, b.Len())

	got = b.Drain(0)
	require.Len(t, got, 3)
	assert.Equal(t, "m2", got[0].Message)
	assert.Equal(t, "m4", got[2].Message)
	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.Drain(10))
}

func TestDrainDoesNotReserveRecords(t *testing.T) {
	b := NewBuffer(10)
	b.Append(record("m0"))
	b.Append(record("m1"))

	first := b.Drain(1)
	b.Append(record("m2"))
	second := b.Drain(0)

	require.Len(t, first, 1)
	assert.Equal(t, "m0", first[0].Message)
	require.Len(t, second, 2)
	assert.Equal(t, "m1", second[0].Message)
	assert.Equal(t, "m2", second[1].Message)
}

func TestBufferDefaultCapacity(t *testing.T) {
	b := NewBuffer(0)
	assert.Equal(t, DefaultBufferSize, b.capacity)
}
