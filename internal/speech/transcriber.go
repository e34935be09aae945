// Package speech provides local audio transcription for the assistant:
// ffmpeg normalizes uploads to 16 kHz mono WAV and a whisper.cpp model
// turns the samples into text.
package speech

import "context"

// Transcriber converts an audio file into text. The language hint is a
// two-letter code; empty means auto-detect.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, language string) (string, error)
}
