package speech

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"mandi/internal/metrics"
	"mandi/pkg/errors"
	"mandi/pkg/logger"
)

// Whisper is a Transcriber backed by a local whisper.cpp model
type Whisper struct {
	model      whisper.Model
	ffmpegPath string
	log        *logger.Logger

	// whisper contexts are not safe for concurrent use
	mu sync.Mutex
}

// NewWhisper loads the ggml model from disk
func NewWhisper(modelPath, ffmpegPath string, log *logger.Logger) (*Whisper, error) {
	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, errors.Wrapf(err, "load whisper model %s", modelPath)
	}
	log.Infof("Whisper model loaded from %s", modelPath)

	return &Whisper{
		model:      model,
		ffmpegPath: ffmpegPath,
		log:        log,
	}, nil
}

// Transcribe converts the audio file to text
func (w *Whisper) Transcribe(ctx context.Context, audioPath, language string) (string, error) {
	start := time.Now()

	wavPath, err := convertToWAV(ctx, w.ffmpegPath, audioPath)
	if err != nil {
		metrics.AssistantCalls.WithLabelValues("whisper", "error").Inc()
		return "", err
	}
	defer func() { _ = os.Remove(wavPath) }()

	samples, err := readSamples(wavPath)
	if err != nil {
		metrics.AssistantCalls.WithLabelValues("whisper", "error").Inc()
		return "", err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	wctx, err := w.model.NewContext()
	if err != nil {
		metrics.AssistantCalls.WithLabelValues("whisper", "error").Inc()
		return "", errors.Wrap(err, "create whisper context")
	}
	// English is the default model behavior; only hint other languages
	if language == "" || language == "en" {
		language = "auto"
	}
	if err := wctx.SetLanguage(language); err != nil {
		w.log.Debugf("Whisper language hint %q rejected: %v", language, err)
	}

	if err := wctx.Process(samples, nil, nil); err != nil {
		metrics.AssistantCalls.WithLabelValues("whisper", "error").Inc()
		return "", errors.Wrap(errors.ErrTranscriptionFailed, err.Error())
	}

	var sb strings.Builder
	for {
		segment, err := wctx.NextSegment()
		if err != nil {
			break
		}
		sb.WriteString(segment.Text)
		sb.WriteString(" ")
	}

	text := strings.TrimSpace(sb.String())
	metrics.AssistantCalls.WithLabelValues("whisper", "success").Inc()
	metrics.AssistantLatency.WithLabelValues("whisper").Observe(time.Since(start).Seconds())
	w.log.Infof("Transcribed %d samples in %s", len(samples), time.Since(start).Round(time.Millisecond))
	return text, nil
}

// Close releases the model
func (w *Whisper) Close() error {
	return w.model.Close()
}
