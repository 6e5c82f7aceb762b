package contracts

import (
	"context"
	"errors"
	"fmt"
)

// ⭐ SSOT: 파이프라인 에러 분류는 여기서만

// Sentinel errors for errors.Is matching
var (
	// ErrDataUnavailable empty or missing source data
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrAlignment join produced an empty result or keys do not line up
	ErrAlignment = errors.New("alignment error")
	// ErrConfiguration unknown factor identifier, empty factor set, bad parameters
	ErrConfiguration = errors.New("configuration error")
	// ErrValidation null/NaN rows or invalid values reaching a strict consumer
	ErrValidation = errors.New("validation error")
	// ErrInternal unexpected failure outside the four kinds above
	ErrInternal = errors.New("internal error")
)

// PipelineError identifies which stage and which entity failed
type PipelineError struct {
	Kind   error  // one of the sentinel errors above
	Stage  Stage  // stage that raised the error
	Entity string // symbol, table or factor name
	Msg    string
	Err    error // underlying cause, optional
}

func (e *PipelineError) Error() string {
	msg := fmt.Sprintf("%s [%s]", e.Kind, e.Stage.ShortName())
	if e.Entity != "" {
		msg += " " + e.Entity
	}
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As
func (e *PipelineError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewDataUnavailableError creates a DataUnavailable error
func NewDataUnavailableError(stage Stage, entity, msg string, err error) error {
	return &PipelineError{Kind: ErrDataUnavailable, Stage: stage, Entity: entity, Msg: msg, Err: err}
}

// NewAlignmentError creates an Alignment error
func NewAlignmentError(stage Stage, entity, msg string) error {
	return &PipelineError{Kind: ErrAlignment, Stage: stage, Entity: entity, Msg: msg}
}

// NewConfigurationError creates a Configuration error
func NewConfigurationError(stage Stage, entity, msg string) error {
	return &PipelineError{Kind: ErrConfiguration, Stage: stage, Entity: entity, Msg: msg}
}

// NewValidationError creates a Validation error
func NewValidationError(stage Stage, entity, msg string) error {
	return &PipelineError{Kind: ErrValidation, Stage: stage, Entity: entity, Msg: msg}
}

// StageOf returns the stage recorded in err, if any
func StageOf(err error) (Stage, bool) {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Stage, true
	}
	return "", false
}

// AttributeError attaches stage and entity to an error that carries neither.
// Pipeline errors and context cancellation are returned unchanged; a bare
// ingestion failure becomes DataUnavailable, anything later Internal.
func AttributeError(stage Stage, entity string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := StageOf(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	kind := ErrInternal
	if stage == StageIngestion {
		kind = ErrDataUnavailable
	}
	return &PipelineError{Kind: kind, Stage: stage, Entity: entity, Err: err}
}

// KindOf returns a short label of the error class, used as a metric label and API error code
func KindOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrDataUnavailable):
		return "data_unavailable"
	case errors.Is(err, ErrAlignment):
		return "alignment"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}
