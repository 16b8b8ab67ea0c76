// Package models defines the data structures exchanged over the HTTP API
// and on the event bus.
package models

// Segment is a time-aligned slice of the transcription. Start and End are
// offsets in seconds from the beginning of the audio.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// TranscriptionResult is the successful response body of POST /transcribe.
// Segments is only populated when timestamps were requested and the engine
// produced them.
type TranscriptionResult struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments,omitempty"`
}

// ErrorPayload is the failure response body. The message is the sanitized
// engine/validation message; diagnostics stay in the server logs.
type ErrorPayload struct {
	Error string `json:"error"`
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status string `json:"status"`
}

// RequestMetadata carries the optional caller-supplied metadata form field.
// Unknown keys are dropped; a metadata field that fails to parse is ignored
// rather than rejected.
type RequestMetadata struct {
	User    string `json:"user,omitempty"`
	AppName string `json:"app_name,omitempty"`
}

// TranscriptionCompleted is the event published after a successful
// transcription when event publishing is enabled.
type TranscriptionCompleted struct {
	EventType  string `json:"eventType"`
	RequestID  string `json:"requestId"`
	Timestamp  int64  `json:"timestamp"`
	Language   string `json:"language"`
	Provider   string `json:"provider"`
	Text       string `json:"text"`
	Segments   int    `json:"segments"`
	DurationMs int64  `json:"durationMs"`
	AudioBytes int64  `json:"audioBytes"`
	User       string `json:"user,omitempty"`
	AppName    string `json:"appName,omitempty"`
}
