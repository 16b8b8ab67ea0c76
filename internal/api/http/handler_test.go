package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"whisper-transcription-service/internal/engine"
	"whisper-transcription-service/internal/engine/mock"
	"whisper-transcription-service/internal/events"
	"whisper-transcription-service/internal/models"
	"whisper-transcription-service/internal/service/staging"
	"whisper-transcription-service/internal/service/transcribe"
)

type fixture struct {
	engine     *mock.Engine
	stagingDir string
	server     http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	eng := mock.New()
	dir := t.TempDir()

	invoker := transcribe.New(engine.NewHandle(eng, engine.TierStandard), zerolog.Nop())
	store := staging.New(dir, zerolog.Nop())
	handler := NewHandler(invoker, store, events.New(nil), zerolog.Nop(), 32<<20)

	return &fixture{
		engine:     eng,
		stagingDir: dir,
		server:     NewRouter(handler),
	}
}

// multipartBody builds a multipart form with an optional file part and
// arbitrary extra fields.
func multipartBody(t *testing.T, filename string, fields map[string]string) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte("fake audio content"))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	return &buf, w.FormDataContentType()
}

func (f *fixture) post(t *testing.T, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) requireStagingEmpty(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(f.stagingDir)
	require.NoError(t, err)
	require.Empty(t, entries, "staged files must not outlive the request")
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) models.TranscriptionResult {
	t.Helper()
	var result models.TranscriptionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	return result
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorPayload {
	t.Helper()
	var payload models.ErrorPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestTranscribe_Defaults(t *testing.T) {
	f := newFixture(t)

	body, ct := multipartBody(t, "speech.wav", nil)
	rec := f.post(t, body, ct)

	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeResult(t, rec)
	require.Equal(t, mock.DefaultText, result.Text)
	require.Nil(t, result.Segments, "segments are omitted unless requested")

	calls := f.engine.Invocations()
	require.Len(t, calls, 1)

	// Default language EN becomes a forced-transcribe directive.
	require.NotNil(t, calls[0].Opts.Generate)
	require.Equal(t, "transcribe", calls[0].Opts.Generate.Task)
	require.Equal(t, "<|en|>", calls[0].Opts.Generate.Language)
	require.Equal(t, 30, calls[0].Opts.ChunkLengthS)
	require.Equal(t, 24, calls[0].Opts.BatchSize)
	require.False(t, calls[0].Opts.ReturnTimestamps)

	f.requireStagingEmpty(t)
}

func TestTranscribe_WithTimestamps(t *testing.T) {
	f := newFixture(t)

	body, ct := multipartBody(t, "speech.wav", map[string]string{"timestamp": "true"})
	rec := f.post(t, body, ct)

	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeResult(t, rec)
	require.Equal(t, mock.DefaultSegments, result.Segments)

	calls := f.engine.Invocations()
	require.Len(t, calls, 1)
	require.True(t, calls[0].Opts.ReturnTimestamps)
}

func TestTranscribe_AutoLanguageOmitsDirective(t *testing.T) {
	f := newFixture(t)

	body, ct := multipartBody(t, "speech.wav", map[string]string{"language": "auto"})
	rec := f.post(t, body, ct)

	require.Equal(t, http.StatusOK, rec.Code)
	calls := f.engine.Invocations()
	require.Len(t, calls, 1)
	require.Nil(t, calls[0].Opts.Generate, "auto must leave detection to the engine")
}

func TestTranscribe_ExtensionPreserved(t *testing.T) {
	f := newFixture(t)

	body, ct := multipartBody(t, "podcast.episode.mp3", nil)
	rec := f.post(t, body, ct)

	require.Equal(t, http.StatusOK, rec.Code)
	calls := f.engine.Invocations()
	require.Len(t, calls, 1)
	require.True(t, strings.HasSuffix(calls[0].Path, ".mp3"),
		"staged path %q should keep the upload's extension", calls[0].Path)
}

func TestTranscribe_MissingFile(t *testing.T) {
	f := newFixture(t)

	body, ct := multipartBody(t, "", map[string]string{"language": "de"})
	rec := f.post(t, body, ct)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotEmpty(t, decodeError(t, rec).Error)
	require.Empty(t, f.engine.Invocations(), "engine must not run without a file")
	f.requireStagingEmpty(t)
}

func TestTranscribe_NotMultipart(t *testing.T) {
	f := newFixture(t)

	rec := f.post(t, strings.NewReader(`{"file":"nope"}`), "application/json")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, f.engine.Invocations())
}

func TestTranscribe_InvalidLanguage(t *testing.T) {
	f := newFixture(t)

	for _, lang := range []string{"english", "e1", "ENG"} {
		body, ct := multipartBody(t, "speech.wav", map[string]string{"language": lang})
		rec := f.post(t, body, ct)

		require.Equal(t, http.StatusBadRequest, rec.Code, "language %q", lang)
		require.NotEmpty(t, decodeError(t, rec).Error)
	}

	require.Empty(t, f.engine.Invocations(), "invalid language must be rejected before inference")
	f.requireStagingEmpty(t)
}

func TestTranscribe_InvalidTimestamp(t *testing.T) {
	f := newFixture(t)

	body, ct := multipartBody(t, "speech.wav", map[string]string{"timestamp": "yes please"})
	rec := f.post(t, body, ct)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, f.engine.Invocations())
}

func TestTranscribe_EngineFailure(t *testing.T) {
	f := newFixture(t)
	f.engine.Err = errors.New("inference backend unavailable")

	body, ct := multipartBody(t, "speech.wav", nil)
	rec := f.post(t, body, ct)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "inference backend unavailable", decodeError(t, rec).Error)
	f.requireStagingEmpty(t)
}

func TestTranscribe_EngineFailureHidesDetail(t *testing.T) {
	f := newFixture(t)
	f.engine.Err = engine.NewError(
		errors.New("whisper-cli is missing required shared libraries"),
		"libggml.so: cannot open shared object file: No such file or directory",
	)

	body, ct := multipartBody(t, "speech.wav", nil)
	rec := f.post(t, body, ct)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "whisper-cli is missing required shared libraries", decodeError(t, rec).Error)
	require.NotContains(t, rec.Body.String(), "libggml.so", "operator detail must never reach clients")
	f.requireStagingEmpty(t)
}

func TestTranscribe_MalformedMetadataTolerated(t *testing.T) {
	f := newFixture(t)

	body, ct := multipartBody(t, "speech.wav", map[string]string{"metadata": "{not json"})
	rec := f.post(t, body, ct)

	require.Equal(t, http.StatusOK, rec.Code, "metadata is advisory and must not fail the request")
}
