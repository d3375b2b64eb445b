package shader

import (
	"errors"
	"fmt"
)

// ErrNotReady is returned when a failed or released program is activated.
var ErrNotReady = errors.New("shader program not ready")

// StageCompileError reports a stage that could not be compiled (or whose
// source could not be read).
type StageCompileError struct {
	Stage Stage
	Log   string
}

func (e *StageCompileError) Error() string {
	return fmt.Sprintf("%s shader compile failed: %s", e.Stage, e.Log)
}

type LinkError struct {
	Log string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("shader program link failed: %s", e.Log)
}

type ValidationError struct {
	Log string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("shader program validation failed: %s", e.Log)
}
