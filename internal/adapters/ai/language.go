// Package ai contains clients for the hosted models behind the agronomist
// assistant: OpenRouter for vision chat and ElevenLabs for speech synthesis.
package ai

// languageNames maps the UI language codes to the names used in prompts
var languageNames = map[string]string{
	"en": "English",
	"hi": "Hindi",
	"ta": "Tamil",
}

// LanguageName resolves a two-letter code to a prompt language, defaulting
// to English for unknown codes
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return "English"
}
