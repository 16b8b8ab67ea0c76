// Package mock provides a scripted engine for tests and for running the
// service without a model or cloud credentials.
package mock

import (
	"os"
	"sync"

	"whisper-transcription-service/internal/engine"
	"whisper-transcription-service/internal/models"
)

// DefaultText is returned when no script is configured.
const DefaultText = "This is a mock transcription."

// DefaultSegments is returned alongside DefaultText when timestamps are
// requested.
var DefaultSegments = []models.Segment{
	{Start: 0.0, End: 1.2, Text: "This is a"},
	{Start: 1.2, End: 2.5, Text: "mock transcription."},
}

// Invocation records one Transcribe call for test assertions.
type Invocation struct {
	Path string
	Opts engine.Options
}

// Engine implements engine.Engine with canned responses. The zero value is
// usable; set Err to simulate an engine failure.
type Engine struct {
	Text     string
	Segments []models.Segment
	Err      error

	mu    sync.Mutex
	calls []Invocation
}

// New creates a mock engine returning the default script.
func New() *Engine {
	return &Engine{}
}

// Transcribe returns the scripted result. It verifies the staged file
// actually exists, mirroring a real engine's path-based contract.
func (e *Engine) Transcribe(path string, opts engine.Options) (*models.TranscriptionResult, error) {
	e.mu.Lock()
	e.calls = append(e.calls, Invocation{Path: path, Opts: opts})
	e.mu.Unlock()

	if e.Err != nil {
		return nil, e.Err
	}

	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	text := e.Text
	if text == "" {
		text = DefaultText
	}

	result := &models.TranscriptionResult{Text: text}
	if opts.ReturnTimestamps {
		if e.Segments != nil {
			result.Segments = e.Segments
		} else {
			result.Segments = DefaultSegments
		}
	}
	return result, nil
}

// Name identifies the provider.
func (e *Engine) Name() string {
	return "mock"
}

// Close is a no-op.
func (e *Engine) Close() error {
	return nil
}

// Invocations returns a copy of all recorded calls.
func (e *Engine) Invocations() []Invocation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Invocation{}, e.calls...)
}
