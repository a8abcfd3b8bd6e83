package errors

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyMonitoring = errors.New("already monitoring")
	ErrNotMonitoring     = errors.New("not monitoring")
	ErrInvalidMode       = errors.New("invalid capture mode")
	ErrToolNotFound      = errors.New("required tool not found")
	ErrToolFailed        = errors.New("external tool failed")
	ErrTimeout           = errors.New("operation timeout")
	ErrProjectNotFound   = errors.New("project not found")
	ErrNoSchemes         = errors.New("no build schemes found")
	ErrNoBuildLog        = errors.New("no build log found")
	ErrNoDiagnostics     = errors.New("no diagnostics available")
	ErrDeviceNotFound    = errors.New("device not found")
	ErrInvalidRule       = errors.New("invalid watch rule")
	ErrConfigNotFound    = errors.New("config not found")
	ErrConfigInvalid     = errors.New("invalid configuration")
	ErrInvalidFilePath   = errors.New("invalid file path")
)

func NewToolError(tool string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrToolFailed, tool, err)
}

func NewTimeoutError(op string) error {
	return fmt.Errorf("%w: %s", ErrTimeout, op)
}

func NewProjectError(name string) error {
	return fmt.Errorf("%w: %s", ErrProjectNotFound, name)
}

func NewRuleError(id string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrInvalidRule, id, err)
}

func NewConfigError(err error) error {
	return fmt.Errorf("%w: %v", ErrConfigInvalid, err)
}
