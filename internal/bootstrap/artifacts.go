// Package bootstrap wires the trained pipeline artifacts into the API
// process at startup.
package bootstrap

import (
	"mandi/internal/adapters/config"
	"mandi/internal/ml"
	"mandi/internal/ml/gbdt"
	"mandi/internal/speech"
	"mandi/pkg/logger"
)

// Artifacts holds everything the API loads from disk at startup. Each field
// is nil when its artifact is missing; handlers degrade per capability
// instead of refusing to start.
type Artifacts struct {
	Model       *gbdt.Model
	Encoders    *ml.EncoderBundle
	Transcriber speech.Transcriber
}

// LoadArtifacts loads the model, encoders, and speech model from the
// configured paths. Failures are logged and leave the capability disabled.
func LoadArtifacts(cfg *config.Config, log *logger.Logger) *Artifacts {
	a := &Artifacts{}

	model, err := gbdt.Load(cfg.Paths.ModelBundle)
	if err != nil {
		log.Warnf("Price model not loaded from %s: %v", cfg.Paths.ModelBundle, err)
	} else {
		a.Model = model
		log.Infof("Price model loaded: %d trees, %d features", len(model.Trees), len(model.FeatureNames))
	}

	encoders, err := ml.LoadEncoderBundle(cfg.Paths.EncoderBundle)
	if err != nil {
		log.Warnf("Encoders not loaded from %s: %v", cfg.Paths.EncoderBundle, err)
	} else {
		a.Encoders = encoders
		log.Infof("Encoders loaded: %d categorical columns", len(encoders.Encoders))
	}

	if cfg.Speech.Enabled {
		whisper, err := speech.NewWhisper(cfg.Speech.ModelPath, cfg.Speech.FFmpegPath, log)
		if err != nil {
			log.Warnf("Speech model not loaded, voice input disabled: %v", err)
		} else {
			a.Transcriber = whisper
		}
	} else {
		log.Info("Speech transcription disabled by config")
	}

	return a
}

// Predictor builds the serving predictor over the loaded artifacts.
// Safe to call with missing artifacts; prediction then fails per request.
func (a *Artifacts) Predictor(log *logger.Logger) *ml.Predictor {
	return ml.NewPredictor(a.Model, a.Encoders, log)
}
