package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"whisper-transcription-service/internal/events"
	"whisper-transcription-service/internal/models"
	"whisper-transcription-service/internal/observability/metrics"
	"whisper-transcription-service/internal/service/lifecycle"
	"whisper-transcription-service/internal/service/options"
	"whisper-transcription-service/internal/service/request"
	"whisper-transcription-service/internal/service/staging"
	"whisper-transcription-service/internal/service/transcribe"
)

// Handler orchestrates one transcription request: validate, stage, build
// options, invoke the engine, shape the response. Staged audio is released
// on every exit path.
type Handler struct {
	invoker   *transcribe.Invoker
	staging   *staging.Store
	publisher *events.Publisher
	logger    zerolog.Logger
	m         *metrics.Metrics

	// maxUploadBytes caps the in-memory portion of multipart parsing.
	maxUploadBytes int64
}

// NewHandler wires the request pipeline.
func NewHandler(
	invoker *transcribe.Invoker,
	store *staging.Store,
	publisher *events.Publisher,
	logger zerolog.Logger,
	maxUploadBytes int64,
) *Handler {
	return &Handler{
		invoker:        invoker,
		staging:        store,
		publisher:      publisher,
		logger:         logger,
		m:              metrics.DefaultMetrics,
		maxUploadBytes: maxUploadBytes,
	}
}

// Health is a liveness probe. It deliberately does not consult the engine
// handle: a loaded-but-busy engine still counts as live, and readiness is
// the observability server's concern.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthStatus{Status: "ok"})
}

// Transcribe handles POST /transcribe.
func (h *Handler) Transcribe(w http.ResponseWriter, r *http.Request) {
	lc := lifecycle.New()
	requestId := middleware.GetReqID(r.Context())

	// --- validate ---

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.reject(w, lc, "file", "request body must be multipart/form-data with a file field")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.reject(w, lc, "file", request.ErrMissingFile.Error())
		return
	}
	defer file.Close()

	language, err := request.Language(r.FormValue("language"))
	if err != nil {
		h.reject(w, lc, "language", err.Error())
		return
	}

	timestamp, err := request.Timestamp(r.FormValue("timestamp"))
	if err != nil {
		h.reject(w, lc, "timestamp", err.Error())
		return
	}

	metadata := request.Metadata(r.FormValue("metadata"))

	lc.Validated()

	logger := h.logger.With().
		Str("requestId", requestId).
		Str("language", language).
		Bool("timestamp", timestamp).
		Logger()

	// --- stage ---

	staged, err := h.staging.Stage(file, staging.ExtensionOf(header.Filename))
	if err != nil {
		logger.Error().Err(err).Msg("failed to stage upload")
		h.fail(w, lc, "failed to stage audio")
		return
	}
	defer h.staging.Release(staged)

	lc.Staged()
	logger.Debug().
		Str("path", staged.Path).
		Int64("bytes", staged.Size).
		Msg("audio staged")

	// --- infer ---

	opts := options.Build(language, timestamp)
	start := time.Now()

	result, err := h.invoker.Invoke(staged.Path, opts)
	if err != nil {
		// Diagnostics were already logged at the invocation boundary;
		// only the sanitized message leaves the process.
		h.fail(w, lc, err.Error())
		return
	}

	lc.Inferred()

	// --- respond ---

	h.announce(requestId, language, staged, result, metadata, time.Since(start))
	writeJSON(w, http.StatusOK, result)
	lc.Responded()
}

// reject ends the request with a client-error status before any staging or
// engine work.
func (h *Handler) reject(w http.ResponseWriter, lc *lifecycle.Lifecycle, field, msg string) {
	h.m.RecordValidationFailure(field)
	lc.Fail()
	writeJSON(w, http.StatusBadRequest, models.ErrorPayload{Error: msg})
}

// fail ends the request with the fixed server-error status.
func (h *Handler) fail(w http.ResponseWriter, lc *lifecycle.Lifecycle, msg string) {
	lc.Fail()
	writeJSON(w, http.StatusInternalServerError, models.ErrorPayload{Error: msg})
}

// announce publishes the completed-transcription event. Best-effort: a
// publish failure is logged by the publisher and never affects the
// response.
func (h *Handler) announce(
	requestId, language string,
	staged *staging.StagedAudio,
	result *models.TranscriptionResult,
	metadata models.RequestMetadata,
	elapsed time.Duration,
) {
	ev := models.TranscriptionCompleted{
		EventType:  "transcription.completed",
		RequestID:  requestId,
		Timestamp:  time.Now().UnixMilli(),
		Language:   language,
		Provider:   h.invoker.Provider(),
		Text:       result.Text,
		Segments:   len(result.Segments),
		DurationMs: elapsed.Milliseconds(),
		AudioBytes: staged.Size,
		User:       metadata.User,
		AppName:    metadata.AppName,
	}
	_ = h.publisher.Publish(context.Background(), requestId, ev)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
