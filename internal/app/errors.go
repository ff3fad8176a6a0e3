package app

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrSessionInvalid = errors.New("session expired or invalid")
)

const (
	SessionInvalidMessage = "Session expired or invalid. Please upload documents again."
	UploadSuccessMessage  = "Upload success and RAG chain built"
	GenericErrorMessage   = "Something went wrong while generating the answer. Please try again later."
	OutOfDomainAnswer     = "I can only help with career-related questions such as resumes, skills, interviews and job planning. Please ask something about your career."
)

// Stage names the step of an upload or ask that failed.
type Stage string

const (
	StageSweep    Stage = "sweep"
	StageLookup   Stage = "lookup"
	StageClassify Stage = "classify"
	StageTouch    Stage = "touch"
	StageRetrieve Stage = "retrieve"
	StageGenerate Stage = "generate"
	StageIngest   Stage = "ingest"
	StageIndex    Stage = "index"
	StageSession  Stage = "session"
)

type Kind string

const (
	KindInvalidInput         Kind = "invalid_input"
	KindSessionInvalid       Kind = "session_invalid"
	KindUnsupportedFormat    Kind = "unsupported_format"
	KindNoReadableText       Kind = "no_readable_text"
	KindEmptyChunks          Kind = "empty_chunks"
	KindZeroDocumentsIndexed Kind = "zero_documents_indexed"
	KindRetrieval            Kind = "retrieval"
	KindGeneration           Kind = "generation"
	KindInternal             Kind = "internal"
)

// StageError is the result of a failed pipeline step. Callers branch on Kind.
type StageError struct {
	Stage Stage
	Kind  Kind
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// AskError is what the ask boundary hands to transports. Message is already
// safe to show to the caller for the current mode.
type AskError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AskError) Error() string {
	return e.Message
}

func (e *AskError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind carried by err, or KindInternal.
func KindOf(err error) Kind {
	var askErr *AskError
	if errors.As(err, &askErr) {
		return askErr.Kind
	}
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Kind
	}
	if errors.Is(err, ErrInvalidInput) {
		return KindInvalidInput
	}
	return KindInternal
}
