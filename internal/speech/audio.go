package speech

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/go-audio/wav"

	"mandi/pkg/errors"
)

// whisperSampleRate is the only sample rate whisper.cpp accepts
const whisperSampleRate = 16000

// convertToWAV shells out to ffmpeg to normalize any uploaded container
// (webm, ogg, m4a) to 16 kHz mono 16-bit PCM. Returns the temp WAV path;
// the caller removes it.
func convertToWAV(ctx context.Context, ffmpegPath, inputPath string) (string, error) {
	outPath := filepath.Join(os.TempDir(), filepath.Base(inputPath)+".wav")

	cmd := exec.CommandContext(ctx, ffmpegPath,
		"-y",
		"-i", inputPath,
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		outPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", errors.Wrapf(errors.ErrTranscriptionFailed, "ffmpeg: %v: %s", err, out)
	}
	return outPath, nil
}

// readSamples decodes a WAV file into float32 samples
func readSamples(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, errors.Wrap(errors.ErrTranscriptionFailed, "decode wav")
	}
	if dec.SampleRate != whisperSampleRate || dec.NumChans != 1 {
		return nil, errors.Wrapf(errors.ErrTranscriptionFailed,
			"unexpected wav format: %d Hz, %d channels", dec.SampleRate, dec.NumChans)
	}

	// 16-bit signed PCM to normalized float32
	samples := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float32(v) / 32768
	}
	return samples, nil
}
