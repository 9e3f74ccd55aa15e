package pipeline

import (
	"errors"
	"fmt"

	"cleansed/internal/parsers"
)

// ErrorType classifies a pipeline error.
type ErrorType string

const (
	// ErrorTypeNotFound means the input file or a referenced path is absent.
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeParse means malformed or unsupported input structure.
	ErrorTypeParse ErrorType = "parse_failure"
	// ErrorTypeValidation means a data-level schema mismatch. Accumulated,
	// never fatal to the run.
	ErrorTypeValidation ErrorType = "validation_failure"
	// ErrorTypeStage means an in-stage failure fatal to the run.
	ErrorTypeStage ErrorType = "stage_failure"
	// ErrorTypeColumn means a single column's transform failed. Recorded in
	// the stage report, stage continues.
	ErrorTypeColumn ErrorType = "column_failure"
)

// StageError carries the failing stage and classification alongside the
// underlying cause.
type StageError struct {
	Type    ErrorType      `json:"type"`
	Stage   string         `json:"stage,omitempty"`
	Message string         `json:"message"`
	Cause   error          `json:"-"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *StageError) Error() string {
	if e == nil {
		return "unknown pipeline error"
	}
	if e.Stage != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Type, e.Stage, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewStageError wraps a fatal in-stage failure.
func NewStageError(stage string, cause error) *StageError {
	return &StageError{
		Type:    ErrorTypeStage,
		Stage:   stage,
		Message: cause.Error(),
		Cause:   cause,
	}
}

// classifyParseError maps parser sentinels onto the pipeline taxonomy.
func classifyParseError(err error) *StageError {
	errType := ErrorTypeParse
	if errors.Is(err, parsers.ErrNotFound) {
		errType = ErrorTypeNotFound
	}
	return &StageError{
		Type:    errType,
		Stage:   StageParse,
		Message: err.Error(),
		Cause:   err,
	}
}

// ErrTypeOf reports the taxonomy type of an error, defaulting to a stage
// failure for plain errors.
func ErrTypeOf(err error) ErrorType {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Type
	}
	return ErrorTypeStage
}
