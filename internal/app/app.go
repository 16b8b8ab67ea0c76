// Package app owns process-wide state: configuration, the logger, and the
// engine handle lifecycle (construct once at startup, release at shutdown).
package app

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"whisper-transcription-service/internal/config"
	"whisper-transcription-service/internal/engine"
	"whisper-transcription-service/internal/engine/googlestt"
	"whisper-transcription-service/internal/engine/mock"
	"whisper-transcription-service/internal/engine/openai"
	"whisper-transcription-service/internal/engine/whispercli"
	"whisper-transcription-service/internal/observability/logging"
	"whisper-transcription-service/internal/observability/metrics"
)

// Application holds process-wide state for the service.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Config
	Engine      *engine.Handle
}

// New constructs a new Application from the provided configuration.
func New(cfg *config.Config) *Application {
	return &Application{
		Cfg:    cfg,
		Logger: logging.WithComponent("application"),
	}
}

// Start initializes the recognition engine exactly once. A returned error
// is fatal: the service must not reach serving state without an engine.
func (a *Application) Start(ctx context.Context) error {
	a.StartupTime = time.Now().UTC()

	eng, tier, err := a.buildEngine(ctx)
	if err != nil {
		return fmt.Errorf("engine init: %w", err)
	}

	a.Engine = engine.NewHandle(eng, tier)
	metrics.DefaultMetrics.SetEngineInfo(eng.Name(), string(tier))

	a.Logger.Info().
		Time("startupTime", a.StartupTime).
		Str("provider", eng.Name()).
		Str("tier", string(tier)).
		Msg("Engine initialized, service starting")
	return nil
}

// Shutdown releases the engine handle so device resources can be
// reclaimed.
func (a *Application) Shutdown() {
	a.Logger.Info().Msg("Service shutting down")

	if a.Engine == nil {
		return
	}
	if err := a.Engine.Close(); err != nil {
		a.Logger.Error().Err(err).Msg("Failed to release engine")
	}
}

// buildEngine constructs the configured provider. Only the whispercli
// provider hosts the accelerator in-process, so only it carries a probed
// tier; remote providers report TierExternal.
func (a *Application) buildEngine(ctx context.Context) (engine.Engine, engine.Tier, error) {
	ecfg := a.Cfg.Engine

	switch ecfg.Provider {
	case "whispercli":
		binary, err := resolveBinary(ecfg.WhisperBinary)
		if err != nil {
			return nil, "", err
		}
		eng, err := whispercli.New(whispercli.Config{
			Executable: binary,
			ModelPath:  ecfg.WhisperModel,
			Threads:    ecfg.WhisperThreads,
		}, logging.WithComponent("whispercli"))
		if err != nil {
			return nil, "", err
		}
		return eng, eng.Tier(), nil

	case "google":
		eng, err := googlestt.New(ctx, googlestt.Config{
			DefaultLanguage: ecfg.GoogleDefaultLanguage,
		})
		if err != nil {
			return nil, "", err
		}
		return eng, engine.TierExternal, nil

	case "openai":
		eng, err := openai.New(openai.Config{
			BaseURL: ecfg.OpenAIBaseURL,
			APIKey:  ecfg.OpenAIAPIKey,
			Model:   ecfg.OpenAIModel,
			Timeout: ecfg.OpenAITimeout,
		})
		if err != nil {
			return nil, "", err
		}
		return eng, engine.TierExternal, nil

	case "mock":
		return mock.New(), engine.TierStandard, nil

	default:
		return nil, "", fmt.Errorf("unknown engine provider %q", ecfg.Provider)
	}
}

// resolveBinary turns a bare command name into an absolute path via PATH
// lookup; explicit paths pass through untouched.
func resolveBinary(name string) (string, error) {
	if strings.ContainsRune(name, '/') {
		return name, nil
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("whisper-cli not found in PATH: %w", err)
	}
	return path, nil
}
