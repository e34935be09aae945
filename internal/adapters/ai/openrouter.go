package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"mandi/internal/adapters/config"
	"mandi/internal/metrics"
	"mandi/pkg/errors"
	"mandi/pkg/logger"
)

// DefaultCropPrompt is used when the farmer sends an image without a question
const DefaultCropPrompt = "Analyze this crop image. Diagnose any diseases and suggest treatments."

// OpenRouterClient calls a hosted vision model through the OpenRouter API
type OpenRouterClient struct {
	apiKey      string
	url         string
	model       string
	frontendURL string
	client      *http.Client
	limiter     *rate.Limiter
	log         *logger.Logger
}

// NewOpenRouterClient creates a vision chat client from config
func NewOpenRouterClient(cfg config.AssistantConfig, log *logger.Logger) *OpenRouterClient {
	return &OpenRouterClient{
		apiKey:      cfg.OpenRouterKey,
		url:         cfg.OpenRouterURL,
		model:       cfg.VisionModel,
		frontendURL: cfg.FrontendURL,
		client:      &http.Client{Timeout: cfg.Timeout},
		limiter:     rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), 1),
		log:         log,
	}
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// AnalyzeImage sends the crop photo and question to the vision model and
// returns its reply in the requested language.
func (c *OpenRouterClient) AnalyzeImage(ctx context.Context, image []byte, mimeType, prompt, language string) (string, error) {
	if c.apiKey == "" {
		return "", errors.Wrap(errors.ErrInvalidInput, "openrouter API key not configured")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", errors.Wrap(err, "rate limiter wait")
	}

	if prompt == "" {
		prompt = DefaultCropPrompt
	}

	system := fmt.Sprintf(
		"You are an expert agricultural AI. Analyze the crop image and answer the user's question. Reply ONLY in %s. Keep it helpful and concise for a farmer.",
		LanguageName(language))

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: prompt},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
			}},
		},
	})
	if err != nil {
		return "", errors.Wrap(err, "marshal openrouter request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.url, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "create HTTP request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("HTTP-Referer", c.frontendURL)

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		metrics.AssistantCalls.WithLabelValues("openrouter", "error").Inc()
		return "", errors.Wrap(errors.ErrExternal, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.AssistantCalls.WithLabelValues("openrouter", "error").Inc()
		return "", errors.Wrap(err, "read openrouter response")
	}

	metrics.AssistantLatency.WithLabelValues("openrouter").Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		metrics.AssistantCalls.WithLabelValues("openrouter", "error").Inc()
		var errResp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			return "", errors.Wrapf(errors.ErrExternal, "openrouter API error (%d): %s",
				resp.StatusCode, errResp.Error.Message)
		}
		return "", errors.Wrapf(errors.ErrExternal, "openrouter API error (%d): %s",
			resp.StatusCode, string(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		metrics.AssistantCalls.WithLabelValues("openrouter", "error").Inc()
		return "", errors.Wrap(err, "unmarshal openrouter response")
	}
	if len(parsed.Choices) == 0 {
		metrics.AssistantCalls.WithLabelValues("openrouter", "error").Inc()
		return "", errors.Wrap(errors.ErrExternal, "openrouter returned no choices")
	}

	metrics.AssistantCalls.WithLabelValues("openrouter", "success").Inc()
	return parsed.Choices[0].Message.Content, nil
}
