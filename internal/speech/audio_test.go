package speech

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWAV(t *testing.T, path string, sampleRate, channels, n int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:   make([]int, n*channels),
	}
	for i := range buf.Data {
		buf.Data[i] = int(10000 * math.Sin(float64(i)/20))
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())
}

func TestReadSamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speech.wav")
	writeWAV(t, path, whisperSampleRate, 1, 1600)

	samples, err := readSamples(path)
	require.NoError(t, err)
	assert.Len(t, samples, 1600)

	// Samples must be normalized floats, not raw PCM magnitudes
	for _, s := range samples {
		assert.LessOrEqual(t, math.Abs(float64(s)), 1.0)
	}
}

func TestReadSamples_RejectsWrongFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	writeWAV(t, path, 44100, 2, 100)

	_, err := readSamples(path)
	assert.Error(t, err)
}

func TestReadSamples_MissingFile(t *testing.T) {
	_, err := readSamples(filepath.Join(t.TempDir(), "nope.wav"))
	assert.Error(t, err)
}
