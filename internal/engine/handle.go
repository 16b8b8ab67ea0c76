package engine

import (
	"sync"

	"whisper-transcription-service/internal/models"
)

// Tier names the execution path selected by the startup capability probe.
type Tier string

const (
	// TierFlashAttention is the preferred fast attention implementation.
	TierFlashAttention Tier = "flash_attention"
	// TierStandard is the baseline implementation.
	TierStandard Tier = "standard"
	// TierExternal marks providers whose accelerator lives outside this
	// process (remote APIs); no local probe applies.
	TierExternal Tier = "external"
)

// Handle is the process-wide owner of the recognition engine. It is
// constructed once at startup and released once at shutdown; there is no
// re-initialization path. The request layer treats it as read-only.
type Handle struct {
	mu     sync.RWMutex
	engine Engine
	tier   Tier
}

// NewHandle wraps an initialized provider. The provider must already have
// completed its capability probing; tier records the outcome.
func NewHandle(eng Engine, tier Tier) *Handle {
	return &Handle{engine: eng, tier: tier}
}

// Transcribe forwards to the underlying provider. Returns
// ErrNotInitialized after Close.
func (h *Handle) Transcribe(path string, opts Options) (*models.TranscriptionResult, error) {
	h.mu.RLock()
	eng := h.engine
	h.mu.RUnlock()

	if eng == nil {
		return nil, ErrNotInitialized
	}
	return eng.Transcribe(path, opts)
}

// Provider returns the provider name, or "none" once released.
func (h *Handle) Provider() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.engine == nil {
		return "none"
	}
	return h.engine.Name()
}

// Tier returns the execution tier chosen at startup.
func (h *Handle) Tier() Tier {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.tier
}

// Close releases the engine reference so device resources can be
// reclaimed. Safe to call more than once.
func (h *Handle) Close() error {
	h.mu.Lock()
	eng := h.engine
	h.engine = nil
	h.mu.Unlock()

	if eng == nil {
		return nil
	}
	return eng.Close()
}
