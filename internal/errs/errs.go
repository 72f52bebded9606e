// Package errs holds the error classes shared by the clip planner and the
// pipeline: validation failures, render failures and best-effort cleanup
// failures.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is caught before anything is submitted to the render engine.
	ErrValidation = errors.New("validation error")
	// ErrRender is fatal to a run and never retried.
	ErrRender = errors.New("render error")
	// ErrCleanup is logged and counted, never escalated.
	ErrCleanup = errors.New("cleanup error")
)

var (
	ErrInvalidGeometry     = fmt.Errorf("%w: invalid geometry", ErrValidation)
	ErrInvalidAnchors      = fmt.Errorf("%w: invalid anchors", ErrValidation)
	ErrInvalidZoom         = fmt.Errorf("%w: invalid zoom settings", ErrValidation)
	ErrInvalidTimeline     = fmt.Errorf("%w: invalid timeline", ErrValidation)
	ErrInsufficientOverlap = fmt.Errorf("%w: accumulated duration shorter than transition overlap", ErrValidation)
)

// StageError identifies the clip or transition an error belongs to.
type StageError struct {
	Op    string // "clip", "transition", "stage", "finalize"
	Index int
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s %d: %v", e.Op, e.Index, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// At wraps err with the identity of the operation it came from.
func At(op string, index int, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Op: op, Index: index, Err: err}
}

// Render marks err as a render failure unless it already is one.
func Render(err error) error {
	if err == nil || errors.Is(err, ErrRender) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrRender, err)
}

// Cleanup marks err as a cleanup failure.
func Cleanup(err error) error {
	if err == nil || errors.Is(err, ErrCleanup) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrCleanup, err)
}
