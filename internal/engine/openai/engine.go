// Package openai provides an engine backed by an OpenAI-compatible
// audio/transcriptions endpoint (api.openai.com or a self-hosted server
// speaking the same protocol).
package openai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"whisper-transcription-service/internal/engine"
	"whisper-transcription-service/internal/models"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "whisper-1"
)

// Config holds remote endpoint configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Engine implements engine.Engine over HTTP multipart upload.
type Engine struct {
	cfg        Config
	httpClient *http.Client
}

// New validates the configuration. The API key is required because the
// provider cannot work without it, and startup is the only failure point
// allowed to be fatal.
func New(cfg Config) (*Engine, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai engine: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &Engine{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Name identifies the provider.
func (e *Engine) Name() string {
	return "openai"
}

// Close is a no-op; the HTTP client holds no persistent resources.
func (e *Engine) Close() error {
	return nil
}

// verboseResponse is the verbose_json response shape.
type verboseResponse struct {
	Text     string `json:"text"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe uploads the staged file and maps the verbose_json response.
func (e *Engine) Transcribe(path string, opts engine.Options) (*models.TranscriptionResult, error) {
	body, contentType, err := e.buildForm(path, opts)
	if err != nil {
		return nil, engine.NewError(fmt.Errorf("build upload: %w", err), "")
	}

	url := strings.TrimRight(e.cfg.BaseURL, "/") + "/audio/transcriptions"
	req, err := http.NewRequest(http.MethodPost, url, body)
	if err != nil {
		return nil, engine.NewError(err, "")
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, engine.NewError(errors.New("transcription endpoint unreachable"), err.Error())
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, engine.NewError(errors.New("read transcription response"), err.Error())
	}
	if resp.StatusCode != http.StatusOK {
		return nil, engine.NewError(
			fmt.Errorf("transcription endpoint returned %s", resp.Status),
			string(respBody),
		)
	}

	var vr verboseResponse
	if err := json.Unmarshal(respBody, &vr); err != nil {
		return nil, engine.NewError(errors.New("transcription response is not valid JSON"), err.Error())
	}

	result := &models.TranscriptionResult{Text: strings.TrimSpace(vr.Text)}
	if opts.ReturnTimestamps {
		for _, seg := range vr.Segments {
			result.Segments = append(result.Segments, models.Segment{
				Start: seg.Start,
				End:   seg.End,
				Text:  strings.TrimSpace(seg.Text),
			})
		}
	}
	return result, nil
}

// buildForm assembles the multipart request. The language directive is
// unwrapped to the bare code the API expects; absent a directive the
// endpoint auto-detects.
func (e *Engine) buildForm(path string, opts engine.Options) (io.Reader, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	var buf bytes.Buffer
	mp := multipart.NewWriter(&buf)

	if err := mp.WriteField("model", e.cfg.Model); err != nil {
		return nil, "", err
	}
	if err := mp.WriteField("response_format", "verbose_json"); err != nil {
		return nil, "", err
	}
	if opts.Generate != nil {
		code := strings.TrimSuffix(strings.TrimPrefix(opts.Generate.Language, "<|"), "|>")
		if code != "" {
			if err := mp.WriteField("language", code); err != nil {
				return nil, "", err
			}
		}
	}

	fw, err := mp.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return nil, "", err
	}
	if err := mp.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mp.FormDataContentType(), nil
}
