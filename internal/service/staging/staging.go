// Package staging writes uploaded audio to transient files so path-based
// engines can consume it. Every staged file is request-exclusive and must
// be released on all exit paths.
package staging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"whisper-transcription-service/internal/observability/metrics"
)

// StagedAudio is one staged upload. Path is unique per request; Size is
// the number of bytes written.
type StagedAudio struct {
	Path string
	Size int64
}

// Store stages uploads under a directory (os.TempDir by default).
type Store struct {
	dir    string
	logger zerolog.Logger
	m      *metrics.Metrics
}

// New creates a staging store rooted at dir. An empty dir uses the
// system temp directory.
func New(dir string, logger zerolog.Logger) *Store {
	return &Store{dir: dir, logger: logger, m: metrics.DefaultMetrics}
}

// Stage writes r to a uniquely named file carrying ext as its suffix.
// The extension must survive staging because engines dispatch their audio
// decoder on it. The caller owns the returned file and must call Release.
func (s *Store) Stage(r io.Reader, ext string) (*StagedAudio, error) {
	pattern := "upload-*"
	if ext != "" {
		pattern += "." + strings.TrimPrefix(ext, ".")
	}

	f, err := os.CreateTemp(s.dir, pattern)
	if err != nil {
		return nil, fmt.Errorf("create staged file: %w", err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("write staged file: %w", err)
	}

	s.m.RecordAudioStaged(n)
	return &StagedAudio{Path: f.Name(), Size: n}, nil
}

// Release removes the staged file. It is safe to call with nil or after a
// previous release; cleanup failures are logged, never propagated, because
// release runs on error paths that already carry a more useful error.
func (s *Store) Release(a *StagedAudio) {
	if a == nil || a.Path == "" {
		return
	}
	if err := os.Remove(a.Path); err != nil && !os.IsNotExist(err) {
		s.logger.Error().Err(err).Str("path", a.Path).Msg("failed to remove staged file")
		return
	}
	s.m.RecordAudioReleased()
}

// ExtensionOf returns the substring after the last dot of filename, or ""
// when there is no extension. "audio.tar.gz" yields "gz", matching the
// original filename-suffix contract.
func ExtensionOf(filename string) string {
	idx := strings.LastIndexByte(filename, '.')
	if idx < 0 || idx == len(filename)-1 {
		return ""
	}
	return filename[idx+1:]
}
