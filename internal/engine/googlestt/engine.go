// Package googlestt provides a Google Cloud Speech-to-Text engine
// provider. It performs batch recognition on the staged file contents.
// Requires GOOGLE_APPLICATION_CREDENTIALS to be set.
package googlestt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "google.golang.org/genproto/googleapis/cloud/speech/v1"

	"whisper-transcription-service/internal/engine"
	"whisper-transcription-service/internal/models"
)

// Config holds Google STT provider configuration.
type Config struct {
	// DefaultLanguage is used when the request does not force a language
	// (Google has no auto-detect in batch recognition).
	DefaultLanguage string
}

// Engine implements engine.Engine against the Cloud Speech API. The
// accelerator runs on Google's side, so the execution tier is external.
type Engine struct {
	client *speech.Client
	cfg    Config
}

// New creates the client once at startup; a failure is fatal to the
// service, matching the engine lifecycle contract.
func New(ctx context.Context, cfg Config) (*Engine, error) {
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = "en-US"
	}
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("google speech client: %w", err)
	}
	return &Engine{client: c, cfg: cfg}, nil
}

// Name identifies the provider.
func (e *Engine) Name() string {
	return "google"
}

// Close releases the underlying gRPC connection.
func (e *Engine) Close() error {
	return e.client.Close()
}

// Transcribe reads the staged file and runs batch recognition on it.
func (e *Engine) Transcribe(path string, opts engine.Options) (*models.TranscriptionResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, engine.NewError(fmt.Errorf("read staged audio: %w", err), "")
	}

	resp, err := e.client.Recognize(context.Background(), &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			LanguageCode:          e.languageCode(opts),
			EnableWordTimeOffsets: opts.ReturnTimestamps,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: data},
		},
	})
	if err != nil {
		return nil, engine.NewError(errors.New("speech recognition failed"), err.Error())
	}

	return mapResponse(resp, opts.ReturnTimestamps), nil
}

// languageCode resolves the request directive against the configured
// default. Directives arrive in special-token form ("<|fr|>").
func (e *Engine) languageCode(opts engine.Options) string {
	if opts.Generate == nil {
		return e.cfg.DefaultLanguage
	}
	code := strings.TrimSuffix(strings.TrimPrefix(opts.Generate.Language, "<|"), "|>")
	if code == "" {
		return e.cfg.DefaultLanguage
	}
	return code
}

// mapResponse flattens recognition results into the service result shape.
// With timestamps, each result becomes one segment spanning its first and
// last word offsets.
func mapResponse(resp *speechpb.RecognizeResponse, withTimestamps bool) *models.TranscriptionResult {
	var texts []string
	var segments []models.Segment

	for _, res := range resp.Results {
		if len(res.Alternatives) == 0 {
			continue
		}
		alt := res.Alternatives[0]
		texts = append(texts, strings.TrimSpace(alt.Transcript))

		if !withTimestamps || len(alt.Words) == 0 {
			continue
		}
		first := alt.Words[0]
		last := alt.Words[len(alt.Words)-1]
		segments = append(segments, models.Segment{
			Start: first.StartTime.AsDuration().Seconds(),
			End:   last.EndTime.AsDuration().Seconds(),
			Text:  strings.TrimSpace(alt.Transcript),
		})
	}

	result := &models.TranscriptionResult{Text: strings.Join(texts, " ")}
	if withTimestamps {
		result.Segments = segments
	}
	return result
}
