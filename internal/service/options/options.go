// Package options translates request-level flags into the engine
// parameter schema.
package options

import (
	"fmt"
	"strings"

	"whisper-transcription-service/internal/engine"
)

// Tuning constants for throughput vs. accelerator memory. These are
// service-level policy, not request-configurable.
const (
	ChunkLengthSeconds = 30
	BatchSize          = 24
)

// AutoLanguage is the sentinel that leaves language detection to the
// engine.
const AutoLanguage = "auto"

// TaskTranscribe forces the transcription task (as opposed to
// translation) when a language directive is attached.
const TaskTranscribe = "transcribe"

// Build is a pure function of (language, timestamp). For any concrete
// language the directive wraps the lowercased code in the engine's
// special-token delimiters; "auto" omits the directive entirely.
func Build(language string, timestamp bool) engine.Options {
	opts := engine.Options{
		ChunkLengthS:     ChunkLengthSeconds,
		BatchSize:        BatchSize,
		ReturnTimestamps: timestamp,
	}

	if !strings.EqualFold(language, AutoLanguage) {
		opts.Generate = &engine.Directives{
			Task:     TaskTranscribe,
			Language: LanguageToken(language),
		}
	}
	return opts
}

// LanguageToken formats a language code as the engine's special token,
// e.g. "DE" -> "<|de|>".
func LanguageToken(code string) string {
	return fmt.Sprintf("<|%s|>", strings.ToLower(code))
}
