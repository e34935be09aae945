package handlers

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"mandi/internal/speech"
	"mandi/pkg/errors"
	"mandi/pkg/logger"
)

// maxUploadBytes caps the multipart form the assistant accepts
const maxUploadBytes = 20 << 20

// VisionModel answers a question about a crop image
type VisionModel interface {
	AnalyzeImage(ctx context.Context, image []byte, mimeType, prompt, language string) (string, error)
}

// AssistantHandler serves POST /assistant/analyze: optional voice input is
// transcribed locally, then the image and question go to the vision model.
type AssistantHandler struct {
	vision      VisionModel
	transcriber speech.Transcriber
	log         *logger.Logger
}

// NewAssistantHandler creates the analyze endpoint. transcriber may be nil
// when speech support is unavailable; voice input is then ignored.
func NewAssistantHandler(vision VisionModel, transcriber speech.Transcriber, log *logger.Logger) *AssistantHandler {
	return &AssistantHandler{vision: vision, transcriber: transcriber, log: log}
}

// AnalyzeResponse is the assistant's reply
type AnalyzeResponse struct {
	Response          string `json:"response"`
	TranscribedPrompt string `json:"transcribed_prompt"`
}

// Handle processes the multipart form: prompt, language, optional audio,
// required image.
func (h *AssistantHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	prompt := strings.TrimSpace(r.FormValue("prompt"))
	language := r.FormValue("language")
	if language == "" {
		language = "en"
	}

	// Voice input overrides the typed prompt, but transcription failure
	// must not block the analysis
	if transcribed := h.transcribeUpload(r, language); transcribed != "" {
		prompt = transcribed
	}

	imageFile, imageHeader, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Please upload an image for the Agronomist to analyze.")
		return
	}
	defer func() { _ = imageFile.Close() }()

	imageBytes, err := io.ReadAll(imageFile)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read image upload")
		return
	}

	mimeType := imageHeader.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(imageBytes)
	}

	reply, err := h.vision.AnalyzeImage(r.Context(), imageBytes, mimeType, prompt, language)
	if err != nil {
		h.log.Errorf("Vision analysis failed: %v", err)
		status := http.StatusInternalServerError
		if errors.Is(err, errors.ErrExternal) {
			status = http.StatusBadGateway
		}
		writeError(w, status, "AI Error: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, AnalyzeResponse{
		Response:          reply,
		TranscribedPrompt: prompt,
	})
}

// transcribeUpload saves the audio part to a temp file and transcribes it.
// Returns empty on any failure; the temp file is always removed.
func (h *AssistantHandler) transcribeUpload(r *http.Request, language string) string {
	if h.transcriber == nil {
		return ""
	}

	audioFile, audioHeader, err := r.FormFile("audio")
	if err != nil {
		return ""
	}
	defer func() { _ = audioFile.Close() }()

	ext := filepath.Ext(audioHeader.Filename)
	if ext == "" {
		ext = ".webm"
	}
	tmpPath := filepath.Join(os.TempDir(), "assistant-"+uuid.NewString()+ext)

	tmp, err := os.Create(tmpPath)
	if err != nil {
		h.log.Warnf("Could not create temp audio file: %v", err)
		return ""
	}
	defer func() { _ = os.Remove(tmpPath) }()

	_, err = io.Copy(tmp, audioFile)
	closeErr := tmp.Close()
	if err != nil || closeErr != nil {
		h.log.Warnf("Could not save audio upload: %v", err)
		return ""
	}

	text, err := h.transcriber.Transcribe(r.Context(), tmpPath, language)
	if err != nil {
		h.log.Warnf("Transcription failed, falling back to typed prompt: %v", err)
		return ""
	}
	return strings.TrimSpace(text)
}
