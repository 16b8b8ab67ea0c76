// Package transcribe invokes the engine handle and forms the error
// boundary between engine internals and the request layer.
package transcribe

import (
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"

	"whisper-transcription-service/internal/engine"
	"whisper-transcription-service/internal/models"
	"whisper-transcription-service/internal/observability/metrics"
)

// Invoker calls the process-wide engine handle. Any fault below this
// boundary — provider error or panic — surfaces as *engine.Error with full
// diagnostics logged here and only the message text propagated upward.
type Invoker struct {
	handle *engine.Handle
	logger zerolog.Logger
	m      *metrics.Metrics
}

// New creates an invoker bound to the engine handle.
func New(handle *engine.Handle, logger zerolog.Logger) *Invoker {
	return &Invoker{handle: handle, logger: logger, m: metrics.DefaultMetrics}
}

// Provider returns the underlying provider name for logs and events.
func (i *Invoker) Provider() string {
	return i.handle.Provider()
}

// Invoke runs the engine on the staged file. The call is synchronous and
// occupies the request goroutine for the full inference duration; there is
// no preemption once inference has started.
func (i *Invoker) Invoke(path string, opts engine.Options) (result *models.TranscriptionResult, err error) {
	provider := i.handle.Provider()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = i.fault(
				fmt.Errorf("engine panic: %v", r),
				string(debug.Stack()),
				provider,
			)
		}
		i.m.RecordEngineInvocation(provider, time.Since(start).Seconds(), err != nil)
	}()

	result, err = i.handle.Transcribe(path, opts)
	if err != nil {
		var detail string
		var engErr *engine.Error
		if errors.As(err, &engErr) {
			detail = engErr.Detail
		}
		return nil, i.fault(err, detail, provider)
	}

	return result, nil
}

// fault normalizes a failure into *engine.Error and logs the operator
// diagnostics. The returned error's message is the only part that may
// reach a caller.
func (i *Invoker) fault(cause error, detail string, provider string) error {
	var engErr *engine.Error
	if !errors.As(cause, &engErr) {
		engErr = engine.NewError(cause, detail)
	}

	evt := i.logger.Error().
		Str("provider", provider).
		Str("error", engErr.Message)
	if engErr.Detail != "" {
		evt = evt.Str("detail", engErr.Detail)
	}
	evt.Msg("engine invocation failed")

	return engErr
}
