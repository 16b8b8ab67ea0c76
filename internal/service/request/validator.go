// Package request validates transcription uploads before any filesystem
// or engine work happens.
package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"whisper-transcription-service/internal/models"
)

// DefaultLanguage is used when the language field is omitted entirely.
const DefaultLanguage = "EN"

// languagePattern accepts a two-letter ISO 639-1 code or the "auto"
// sentinel.
var languagePattern = regexp.MustCompile(`^(?:[A-Za-z]{2}|auto)$`)

// ValidationError marks client-side input problems. These are rejected
// with a client-error status and never reach staging or the engine.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// ErrMissingFile is returned when the upload field is absent.
var ErrMissingFile = &ValidationError{Field: "file", Reason: "audio file is required"}

// Language validates and normalizes the language field. An empty field
// defaults to DefaultLanguage.
func Language(raw string) (string, error) {
	if raw == "" {
		return DefaultLanguage, nil
	}
	if !languagePattern.MatchString(raw) {
		return "", &ValidationError{
			Field:  "language",
			Reason: fmt.Sprintf("%q must be a two-letter ISO 639-1 code or \"auto\"", raw),
		}
	}
	return raw, nil
}

// Timestamp parses the timestamp flag. An empty field defaults to false.
func Timestamp(raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &ValidationError{
			Field:  "timestamp",
			Reason: fmt.Sprintf("%q is not a boolean", raw),
		}
	}
	return v, nil
}

// Metadata parses the optional metadata form field. Malformed JSON is
// tolerated: the field exists for downstream bookkeeping only and must
// never fail a transcription.
func Metadata(raw string) models.RequestMetadata {
	var md models.RequestMetadata
	if raw == "" {
		return md
	}
	if err := json.Unmarshal([]byte(raw), &md); err != nil {
		return models.RequestMetadata{}
	}
	return md
}
