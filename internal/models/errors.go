package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInput marks missing or invalid request fields.
	ErrInput = errors.New("invalid input")
	// ErrUnauthorized marks a request without a usable identity.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound marks a podcast or document that does not exist or is not owned by the caller.
	ErrNotFound = errors.New("not found")
	// ErrNotReady marks an operation that requires a ready podcast.
	ErrNotReady = errors.New("podcast not ready")
	// ErrNoAudio marks assembly of a podcast without any usable segment audio.
	ErrNoAudio = errors.New("no audio available")
)

// Stage names a generation pipeline stage.
type Stage string

const (
	StageExtraction  Stage = "extraction"
	StagePlanning    Stage = "planning"
	StageSynthesis   Stage = "synthesis"
	StagePersistence Stage = "persistence"
)

// StageError is a failure that aborts a whole generation run.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// NewStageError wraps err as a failure of stage. A nil err returns nil.
func NewStageError(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

// AssemblyError is a failure to fetch or package a segment asset.
type AssemblyError struct {
	SegmentID string
	Err       error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("assemble segment %s: %v", e.SegmentID, e.Err)
}

func (e *AssemblyError) Unwrap() error { return e.Err }

// InputErrorf returns an error wrapping ErrInput with a formatted message.
func InputErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInput, fmt.Sprintf(format, args...))
}
