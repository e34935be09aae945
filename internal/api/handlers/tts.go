package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"mandi/pkg/errors"
	"mandi/pkg/logger"
)

// Synthesizer turns text into speech audio
type Synthesizer interface {
	Synthesize(ctx context.Context, text, language string) (io.ReadCloser, error)
}

// TTSHandler serves POST /assistant/text-to-speech
type TTSHandler struct {
	synth Synthesizer
	log   *logger.Logger
}

// NewTTSHandler creates the text-to-speech endpoint
func NewTTSHandler(synth Synthesizer, log *logger.Logger) *TTSHandler {
	return &TTSHandler{synth: synth, log: log}
}

type ttsPayload struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// Handle streams the synthesized MP3 back to the client
func (h *TTSHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var payload ttsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(payload.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if payload.Language == "" {
		payload.Language = "en"
	}

	audio, err := h.synth.Synthesize(r.Context(), payload.Text, payload.Language)
	if err != nil {
		h.log.Errorf("Speech synthesis failed: %v", err)
		status := http.StatusInternalServerError
		if errors.Is(err, errors.ErrExternal) {
			status = http.StatusBadGateway
		}
		writeError(w, status, err.Error())
		return
	}
	defer func() { _ = audio.Close() }()

	w.Header().Set("Content-Type", "audio/mpeg")
	if _, err := io.Copy(w, audio); err != nil {
		h.log.Warnf("Streaming audio to client failed: %v", err)
	}
}
