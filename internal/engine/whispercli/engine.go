// Package whispercli runs a local whisper-cli binary on staged audio
// files. The binary decodes the container format itself, which is why it
// is handed a filesystem path rather than raw bytes.
package whispercli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"whisper-transcription-service/internal/engine"
	"whisper-transcription-service/internal/models"
)

// Config holds whisper-cli provider configuration.
type Config struct {
	Executable string // path to the whisper-cli binary
	ModelPath  string // path to the ggml model file
	Threads    int    // 0 = binary default
}

// Engine invokes whisper-cli once per request. The attention tier is
// probed exactly once at construction and never re-evaluated.
type Engine struct {
	cfg    Config
	tier   engine.Tier
	logger zerolog.Logger
}

// New validates the binary and model, probes flash-attention support, and
// returns the engine with its selected tier. A failure here is fatal to
// service startup.
func New(cfg Config, logger zerolog.Logger) (*Engine, error) {
	if err := ensureExecutable(cfg.Executable); err != nil {
		return nil, fmt.Errorf("whisper-cli binary: %w", err)
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("whisper model: %w", err)
	}

	tier := probeAttentionTier(cfg.Executable)
	logger.Info().
		Str("executable", cfg.Executable).
		Str("model", cfg.ModelPath).
		Str("tier", string(tier)).
		Msg("whisper-cli engine initialized")

	return &Engine{cfg: cfg, tier: tier, logger: logger}, nil
}

// probeAttentionTier checks once whether the binary supports the
// flash-attention flag. Any probe failure selects the standard tier; there
// is no retry.
func probeAttentionTier(executable string) engine.Tier {
	out, err := exec.Command(executable, "--help").CombinedOutput()
	if err == nil && bytes.Contains(out, []byte("--flash-attn")) {
		return engine.TierFlashAttention
	}
	return engine.TierStandard
}

// Tier returns the execution tier selected at construction.
func (e *Engine) Tier() engine.Tier {
	return e.tier
}

// Name identifies the provider.
func (e *Engine) Name() string {
	return "whispercli"
}

// Close releases the engine. The binary holds no persistent state between
// invocations, so this only drops the reference.
func (e *Engine) Close() error {
	return nil
}

// Transcribe runs whisper-cli on the file at path and parses its JSON
// output. The call blocks for the full inference duration.
func (e *Engine) Transcribe(path string, opts engine.Options) (*models.TranscriptionResult, error) {
	outDir, err := os.MkdirTemp("", "whispercli-out-*")
	if err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	outBase := filepath.Join(outDir, "result")
	args := e.buildArgs(path, outBase, opts)

	start := time.Now()
	cmd := exec.Command(e.cfg.Executable, args...)
	var stderr bytes.Buffer
	cmd.Stdout = &bytes.Buffer{}
	cmd.Stderr = &stderr

	e.logger.Debug().Strs("args", args).Msg("running whisper-cli")
	if err := cmd.Run(); err != nil {
		return nil, classifyRunError(err, stderr.String())
	}

	output, err := parseOutput(outBase + ".json")
	if err != nil {
		return nil, err
	}

	result := &models.TranscriptionResult{Text: output.text()}
	if opts.ReturnTimestamps {
		result.Segments = output.segments()
	}

	e.logger.Debug().
		Dur("elapsed", time.Since(start)).
		Int("segments", len(result.Segments)).
		Msg("whisper-cli finished")
	return result, nil
}

// buildArgs translates Options into whisper-cli flags. The language
// directive arrives in special-token form ("<|de|>") and is unwrapped to
// the bare code the binary expects.
func (e *Engine) buildArgs(audioPath, outBase string, opts engine.Options) []string {
	args := []string{
		"-m", e.cfg.ModelPath,
		"-f", audioPath,
		"-oj",
		"-of", outBase,
	}
	if e.cfg.Threads > 0 {
		args = append(args, "-t", fmt.Sprintf("%d", e.cfg.Threads))
	}
	if e.tier == engine.TierFlashAttention {
		args = append(args, "--flash-attn")
	}
	if opts.Generate != nil {
		if lang := unwrapLanguageToken(opts.Generate.Language); lang != "" {
			args = append(args, "-l", lang)
		}
	}
	return args
}

// unwrapLanguageToken strips the <|..|> delimiters from a language
// directive. Returns "" for malformed tokens.
func unwrapLanguageToken(token string) string {
	if !strings.HasPrefix(token, "<|") || !strings.HasSuffix(token, "|>") {
		return ""
	}
	return strings.TrimSuffix(strings.TrimPrefix(token, "<|"), "|>")
}

// classifyRunError turns whisper-cli failures into engine errors with
// actionable messages, keeping the raw stderr as operator detail.
func classifyRunError(err error, stderr string) error {
	errText := strings.TrimSpace(stderr)
	lower := strings.ToLower(errText)

	switch {
	case strings.Contains(lower, "error while loading shared libraries"),
		strings.Contains(lower, "cannot open shared object file"),
		strings.Contains(lower, "dyld: library not loaded"):
		return engine.NewError(errors.New("whisper-cli is missing required shared libraries"), errText)
	case strings.Contains(lower, "illegal instruction"):
		return engine.NewError(errors.New("whisper-cli crashed with an illegal CPU instruction"), errText)
	case strings.Contains(lower, "failed to read") || strings.Contains(lower, "failed to open"):
		return engine.NewError(fmt.Errorf("unsupported or unreadable audio file: %s", firstLine(errText)), errText)
	default:
		return engine.NewError(fmt.Errorf("whisper-cli failed: %v", err), errText)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func ensureExecutable(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("path is empty")
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if info.Mode()&0o111 == 0 {
		return fmt.Errorf("%s is not executable", path)
	}
	return nil
}

// cliOutput mirrors the subset of whisper-cli's -oj JSON we consume.
type cliOutput struct {
	Transcription []cliSegment `json:"transcription"`
}

type cliSegment struct {
	Offsets struct {
		From int64 `json:"from"` // milliseconds
		To   int64 `json:"to"`
	} `json:"offsets"`
	Text string `json:"text"`
}

func parseOutput(jsonPath string) (*cliOutput, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, engine.NewError(errors.New("whisper-cli produced no output"), err.Error())
	}
	var out cliOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, engine.NewError(errors.New("whisper-cli output is not valid JSON"), err.Error())
	}
	return &out, nil
}

func (o *cliOutput) text() string {
	parts := make([]string, 0, len(o.Transcription))
	for _, seg := range o.Transcription {
		parts = append(parts, strings.TrimSpace(seg.Text))
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func (o *cliOutput) segments() []models.Segment {
	segs := make([]models.Segment, 0, len(o.Transcription))
	for _, seg := range o.Transcription {
		segs = append(segs, models.Segment{
			Start: float64(seg.Offsets.From) / 1000.0,
			End:   float64(seg.Offsets.To) / 1000.0,
			Text:  strings.TrimSpace(seg.Text),
		})
	}
	return segs
}
