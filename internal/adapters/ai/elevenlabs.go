package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"mandi/internal/adapters/config"
	"mandi/internal/metrics"
	"mandi/pkg/errors"
	"mandi/pkg/logger"
)

// voiceIDs maps UI language codes to ElevenLabs voices
var voiceIDs = map[string]string{
	"en": "21m00Tcm4TlvDq8ikWAM", // Rachel
	"hi": "FiIgWdzVKAalJyAgg8Pg",
	"ta": "Z0ocGS7BSRxFSMhV00nB",
}

// ElevenLabsClient synthesizes speech through the ElevenLabs API
type ElevenLabsClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	log     *logger.Logger
}

// NewElevenLabsClient creates a TTS client from config
func NewElevenLabsClient(cfg config.AssistantConfig, log *logger.Logger) *ElevenLabsClient {
	return &ElevenLabsClient{
		apiKey:  cfg.ElevenLabsKey,
		baseURL: cfg.ElevenLabsURL,
		model:   cfg.TTSModel,
		client:  &http.Client{Timeout: cfg.Timeout},
		log:     log,
	}
}

type ttsRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// Synthesize converts text to MP3 audio using the voice for the given
// language. The returned reader streams the audio body; the caller closes it.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text, language string) (io.ReadCloser, error) {
	if c.apiKey == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "elevenlabs API key not configured")
	}

	voice, ok := voiceIDs[language]
	if !ok {
		voice = voiceIDs["en"]
	}

	body, err := json.Marshal(ttsRequest{Text: text, ModelID: c.model})
	if err != nil {
		return nil, errors.Wrap(err, "marshal tts request")
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, voice)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "create HTTP request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("xi-api-key", c.apiKey)

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		metrics.AssistantCalls.WithLabelValues("elevenlabs", "error").Inc()
		return nil, errors.Wrap(errors.ErrExternal, err.Error())
	}

	metrics.AssistantLatency.WithLabelValues("elevenlabs").Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		defer func() { _ = resp.Body.Close() }()
		metrics.AssistantCalls.WithLabelValues("elevenlabs", "error").Inc()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, errors.Wrapf(errors.ErrExternal, "elevenlabs API error (%d): %s",
			resp.StatusCode, string(respBody))
	}

	metrics.AssistantCalls.WithLabelValues("elevenlabs", "success").Inc()
	return resp.Body, nil
}
