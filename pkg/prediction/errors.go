package prediction

import (
	"errors"
	"fmt"
)

// Stage names a step of the prediction workflow.
type Stage string

const (
	StageFetch    Stage = "FETCH"
	StageExtract  Stage = "EXTRACT"
	StageScale    Stage = "SCALE"
	StageClassify Stage = "CLASSIFY"
	StageDecide   Stage = "DECIDE"
	StagePersist  Stage = "PERSIST"
	StageNotify   Stage = "NOTIFY"
)

// ErrorKind classifies failures.
type ErrorKind string

const (
	KindDataFetch      ErrorKind = "DataFetchError"
	KindMissingField   ErrorKind = "MissingFieldError"
	KindArtifactLoad   ErrorKind = "ArtifactLoadError"
	KindClassification ErrorKind = "ClassificationError"
	KindPersist        ErrorKind = "PersistError"
	KindNotification   ErrorKind = "NotificationError"
	KindEmptyResult    ErrorKind = "EmptyResultError"
)

// ErrEmptyResult marks a collection without records. It is a valid outcome, not a failure.
var ErrEmptyResult = errors.New("no documents found in the collection")

// StageError is the structured error payload attached to an outcome.
type StageError struct {
	Stage   Stage     `json:"stage"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func newStageError(stage Stage, kind ErrorKind, err error) *StageError {
	return &StageError{Stage: stage, Kind: kind, Message: err.Error(), Err: err}
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed (%s): %s", e.Stage, e.Kind, e.Message)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Transient reports whether re-running the invocation may succeed.
func (e *StageError) Transient() bool {
	switch e.Kind {
	case KindDataFetch, KindPersist, KindArtifactLoad:
		return true
	default:
		return false
	}
}

// KindOf returns the kind of a *StageError in err's chain, or "".
func KindOf(err error) ErrorKind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
