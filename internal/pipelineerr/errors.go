// Package pipelineerr provides the structured error taxonomy shared by every
// stage of the ingestion pipeline. It generalizes the teacher's
// per-service ServiceError into the eight-kind classification the
// orchestrator uses to decide whether a failure is per-file (tolerated) or
// stage-fatal (aborts the session while preserving its state).
package pipelineerr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTransient    = errors.New("transient external error")
	ErrRateLimit    = errors.New("rate limited")
	ErrClientMisuse = errors.New("client misuse")
	ErrResource     = errors.New("resource exhaustion")
	ErrPermission   = errors.New("media permission error")
	ErrBackendGone  = errors.New("no transcription backend available")
	ErrValidation   = errors.New("validation failure")
	ErrVerifyMiss   = errors.New("store verification miss")
)

// Kind is the abstract error category from spec §7.
type Kind string

const (
	KindTransient    Kind = "transient_external"
	KindRateLimit    Kind = "rate_limit_external"
	KindClientMisuse Kind = "client_misuse"
	KindResource     Kind = "resource_exhaustion"
	KindPermission   Kind = "media_permission"
	KindBackendGone  Kind = "backend_absence"
	KindValidation   Kind = "validation_failure"
	KindVerifyMiss   Kind = "store_verification_miss"
)

// StageError carries structured context for a failure raised inside a
// pipeline stage, mirroring the teacher's ServiceError shape.
type StageError struct {
	Marker    error
	Kind      Kind
	Stage     string
	Operation string
	Message   string
	Cause     error
	// Fatal marks a stage-level pre-flight failure: the stage produced no
	// usable output and the session must be preserved without advancing.
	Fatal bool
}

func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	detail := strings.TrimSpace(e.Stage)
	if e.Operation != "" {
		if detail != "" {
			detail += ": "
		}
		detail += e.Operation
	}
	if e.Message != "" {
		if detail != "" {
			detail += ": "
		}
		detail += e.Message
	}
	if detail == "" {
		detail = "pipeline error"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", detail, e.Cause)
	}
	return detail
}

func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func (e *StageError) Is(target error) bool {
	if e == nil || target == nil {
		return false
	}
	if e.Marker != nil && errors.Is(e.Marker, target) {
		return true
	}
	return errors.Is(e.Cause, target)
}

// Wrap builds a StageError tagged with the given marker/kind.
func Wrap(marker error, kind Kind, stage, operation, message string, cause error) error {
	return &StageError{
		Marker:    marker,
		Kind:      kind,
		Stage:     strings.TrimSpace(stage),
		Operation: strings.TrimSpace(operation),
		Message:   strings.TrimSpace(message),
		Cause:     cause,
	}
}

// Fatal builds a stage-fatal StageError: the stage could not produce any
// usable output (backend absence, disk full, state unreadable).
func Fatal(marker error, kind Kind, stage, operation, message string, cause error) error {
	se := Wrap(marker, kind, stage, operation, message, cause).(*StageError)
	se.Fatal = true
	return se
}

// Details extracts structured fields for logging.
type Details struct {
	Kind    Kind
	Stage   string
	Message string
	Fatal   bool
	Cause   error
}

func Describe(err error) Details {
	var se *StageError
	if errors.As(err, &se) && se != nil {
		return Details{Kind: se.Kind, Stage: se.Stage, Message: se.Error(), Fatal: se.Fatal, Cause: se.Cause}
	}
	return Details{Kind: KindTransient, Message: err.Error(), Cause: err}
}

// IsFatal reports whether the stage that produced err must abort rather than
// record a per-file failure and continue.
func IsFatal(err error) bool {
	var se *StageError
	if errors.As(err, &se) && se != nil {
		return se.Fatal
	}
	return false
}
