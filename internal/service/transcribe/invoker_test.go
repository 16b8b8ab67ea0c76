package transcribe

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"whisper-transcription-service/internal/engine"
	"whisper-transcription-service/internal/engine/mock"
	"whisper-transcription-service/internal/models"
)

// panicEngine blows up inside Transcribe to exercise the recovery boundary.
type panicEngine struct{}

func (panicEngine) Transcribe(string, engine.Options) (*models.TranscriptionResult, error) {
	panic("flash attention kernel fault")
}

func (panicEngine) Name() string { return "panic" }
func (panicEngine) Close() error { return nil }

func stagedFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload-test.wav")
	require.NoError(t, os.WriteFile(path, []byte("audio"), 0o600))
	return path
}

func TestInvoke_Success(t *testing.T) {
	eng := mock.New()
	inv := New(engine.NewHandle(eng, engine.TierStandard), zerolog.Nop())

	path := stagedFixture(t)
	result, err := inv.Invoke(path, engine.Options{ChunkLengthS: 30, BatchSize: 24})
	require.NoError(t, err)
	require.Equal(t, mock.DefaultText, result.Text)
	require.Nil(t, result.Segments)

	calls := eng.Invocations()
	require.Len(t, calls, 1)
	require.Equal(t, path, calls[0].Path)
}

func TestInvoke_EngineErrorNormalized(t *testing.T) {
	eng := mock.New()
	eng.Err = errors.New("model tensor mismatch")
	inv := New(engine.NewHandle(eng, engine.TierStandard), zerolog.Nop())

	_, err := inv.Invoke(stagedFixture(t), engine.Options{})
	require.Error(t, err)

	var engErr *engine.Error
	require.True(t, errors.As(err, &engErr))
	require.Equal(t, "model tensor mismatch", engErr.Message)
}

func TestInvoke_PreservesEngineErrorDetail(t *testing.T) {
	eng := mock.New()
	eng.Err = engine.NewError(errors.New("decode failed"), "stderr: unreadable audio header")
	inv := New(engine.NewHandle(eng, engine.TierStandard), zerolog.Nop())

	_, err := inv.Invoke(stagedFixture(t), engine.Options{})

	var engErr *engine.Error
	require.True(t, errors.As(err, &engErr))
	require.Equal(t, "decode failed", engErr.Message)
	require.Equal(t, "stderr: unreadable audio header", engErr.Detail)
}

func TestInvoke_RecoversEnginePanic(t *testing.T) {
	inv := New(engine.NewHandle(panicEngine{}, engine.TierFlashAttention), zerolog.Nop())

	result, err := inv.Invoke(stagedFixture(t), engine.Options{})
	require.Nil(t, result)
	require.Error(t, err)

	var engErr *engine.Error
	require.True(t, errors.As(err, &engErr))
	require.Contains(t, engErr.Message, "engine panic")
	require.NotEmpty(t, engErr.Detail, "panic stack should be captured as detail")
}

func TestInvoke_ClosedHandle(t *testing.T) {
	handle := engine.NewHandle(mock.New(), engine.TierStandard)
	require.NoError(t, handle.Close())

	inv := New(handle, zerolog.Nop())
	require.Equal(t, "none", inv.Provider())

	_, err := inv.Invoke(stagedFixture(t), engine.Options{})
	require.ErrorIs(t, err, engine.ErrNotInitialized)
}
