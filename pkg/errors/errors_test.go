package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrappedErrorsUnwrap(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"tool error", NewToolError("xcodebuild", errors.New("exit 1")), ErrToolFailed},
		{"timeout error", NewTimeoutError("dry-run build"), ErrTimeout},
		{"project error", NewProjectError("MyApp"), ErrProjectNotFound},
		{"rule error", NewRuleError("r1", errors.New("syntax")), ErrInvalidRule},
		{"config error", NewConfigError(errors.New("buffer_size must be positive")), ErrConfigInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.err, tt.sentinel))
			assert.NotEqual(t, tt.sentinel.Error(), tt.err.Error())
		})
	}
}
