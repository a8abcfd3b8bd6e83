package logger

import (
	"context"
	"testing"
)

func TestInit(t *testing.T) {
	cfg := LoggingConfig{
		Enabled: false,
		Level:   "info",
	}

	Init(cfg)

	log := Get(nil)
	if log == nil {
		t.Error("Get should not return nil")
	}

	// Sync may return an error on stderr, which is expected.
	_ = Sync()
}

func TestGet(t *testing.T) {
	log := Get(nil)
	if log == nil {
		t.Error("Get(nil) should not return nil")
	}

	ctx := context.Background()
	log = Get(ctx)
	if log == nil {
		t.Error("Get(context) should not return nil")
	}
}

func TestWithContext(t *testing.T) {
	Init(LoggingConfig{Enabled: false, Level: "info"})

	log := Get(nil)
	ctx := WithContext(context.Background(), log)

	retrieved := Get(ctx)
	if retrieved == nil {
		t.Error("Get should not return nil after WithContext")
	}
}
