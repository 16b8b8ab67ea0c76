// Package engine defines the interface for speech-recognition engine
// providers (whisper-cli, Google, OpenAI-compatible, mock) and the
// process-wide handle that owns the selected provider.
package engine

import (
	"errors"
	"fmt"

	"whisper-transcription-service/internal/models"
)

// Directives force the generation task and target language instead of
// letting the engine auto-detect. Language is the engine's special-token
// form, e.g. "<|de|>".
type Directives struct {
	Task     string `json:"task"`
	Language string `json:"language"`
}

// Options is the parameter schema every provider accepts. ChunkLengthS and
// BatchSize are service-level tuning constants, not request-configurable;
// providers that have no use for them may ignore them.
type Options struct {
	ChunkLengthS     int         `json:"chunk_length_s"`
	BatchSize        int         `json:"batch_size"`
	ReturnTimestamps bool        `json:"return_timestamps"`
	Generate         *Directives `json:"generate_kwargs,omitempty"`
}

// Engine converts a staged audio file into text. Implementations must be
// safe for concurrent use; serialization on the underlying accelerator is
// the provider's concern, not the caller's.
type Engine interface {
	// Transcribe runs recognition on the audio file at path. The call is
	// blocking and not preemptible once inference has started.
	Transcribe(path string, opts Options) (*models.TranscriptionResult, error)

	// Name identifies the provider in logs and metrics.
	Name() string

	// Close releases provider resources (device memory, connections).
	Close() error
}

// Error is the domain-level failure produced at the invocation boundary.
// Message is safe to return to callers; Detail carries the full operator
// diagnostics (stderr, stack) and must never leave the server logs.
type Error struct {
	Message string
	Detail  string
	Cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError wraps a provider failure into an Error. The message is taken
// from cause; detail is optional operator context.
func NewError(cause error, detail string) *Error {
	return &Error{
		Message: cause.Error(),
		Detail:  detail,
		Cause:   cause,
	}
}

// IsEngineError reports whether err is (or wraps) an engine Error.
func IsEngineError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// ErrNotInitialized is returned when the handle is used before Init or
// after Close.
var ErrNotInitialized = fmt.Errorf("engine handle not initialized")
