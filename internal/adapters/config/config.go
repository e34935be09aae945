package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"mandi/pkg/errors"
)

type Config struct {
	App           AppConfig
	Server        ServerConfig
	Paths         PathsConfig
	Assistant     AssistantConfig
	Speech        SpeechConfig
	Scraper       ScraperConfig
	Training      TrainingConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"mandi"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

type ServerConfig struct {
	Port int `envconfig:"SERVER_PORT" default:"5000"`
}

// PathsConfig holds locations of all pipeline artifacts.
// Each artifact is overwritten on every pipeline run; there is no rotation.
type PathsConfig struct {
	RawDir        string `envconfig:"RAW_DATA_DIR" default:"data/raw"`
	CleanCSV      string `envconfig:"CLEAN_DATA_PATH" default:"data/processed/clean_data.csv"`
	FeaturesCSV   string `envconfig:"FEATURES_PATH" default:"data/features/training_data.csv"`
	EncoderBundle string `envconfig:"ENCODER_PATH" default:"models/encoders.gob"`
	ModelBundle   string `envconfig:"MODEL_PATH" default:"models/best_model.gob"`
	ExperimentLog string `envconfig:"EXPERIMENT_LOG_PATH" default:"models/experiments.jsonl"`
}

type AssistantConfig struct {
	OpenRouterKey string        `envconfig:"OPENROUTER_API_KEY"`
	OpenRouterURL string        `envconfig:"OPENROUTER_URL" default:"https://openrouter.ai/api/v1/chat/completions"`
	VisionModel   string        `envconfig:"VISION_MODEL" default:"qwen/qwen2.5-vl-32b-instruct"`
	ElevenLabsKey string        `envconfig:"ELEVENLABS_API_KEY"`
	ElevenLabsURL string        `envconfig:"ELEVENLABS_URL" default:"https://api.elevenlabs.io/v1/text-to-speech"`
	TTSModel      string        `envconfig:"TTS_MODEL" default:"eleven_multilingual_v2"`
	FrontendURL   string        `envconfig:"FRONTEND_URL" default:"http://127.0.0.1:5000"`
	Timeout       time.Duration `envconfig:"ASSISTANT_TIMEOUT" default:"60s"`
	RateLimitRPS  float64       `envconfig:"ASSISTANT_RATE_LIMIT_RPS" default:"2"`
}

type SpeechConfig struct {
	Enabled    bool   `envconfig:"SPEECH_ENABLED" default:"true"`
	ModelPath  string `envconfig:"WHISPER_MODEL_PATH" default:"models/ggml-base.bin"`
	FFmpegPath string `envconfig:"FFMPEG_PATH" default:"ffmpeg"`
}

type ScraperConfig struct {
	URL             string        `envconfig:"SCRAPER_URL" default:"https://agmarknet.gov.in/"`
	Headless        bool          `envconfig:"SCRAPER_HEADLESS" default:"true"`
	NavTimeout      time.Duration `envconfig:"SCRAPER_NAV_TIMEOUT" default:"60s"`
	SelectorTimeout time.Duration `envconfig:"SCRAPER_SELECTOR_TIMEOUT" default:"30s"`
	TableTimeout    time.Duration `envconfig:"SCRAPER_TABLE_TIMEOUT" default:"30s"`
	DownloadTimeout time.Duration `envconfig:"SCRAPER_DOWNLOAD_TIMEOUT" default:"60s"`
	ScreenshotPath  string        `envconfig:"SCRAPER_SCREENSHOT_PATH" default:"agent_error.png"`
}

// TrainingConfig mirrors the fixed hyperparameters of the price model.
// Defaults match the artifact currently in production.
type TrainingConfig struct {
	Rounds              int     `envconfig:"TRAIN_ROUNDS" default:"1000"`
	LearningRate        float64 `envconfig:"TRAIN_LEARNING_RATE" default:"0.05"`
	MaxDepth            int     `envconfig:"TRAIN_MAX_DEPTH" default:"10"`
	NumLeaves           int     `envconfig:"TRAIN_NUM_LEAVES" default:"31"`
	MinSamplesLeaf      int     `envconfig:"TRAIN_MIN_SAMPLES_LEAF" default:"20"`
	EarlyStoppingRounds int     `envconfig:"TRAIN_EARLY_STOPPING_ROUNDS" default:"50"`
	TestFraction        float64 `envconfig:"TRAIN_TEST_FRACTION" default:"0.2"`
	Seed                int64   `envconfig:"TRAIN_SEED" default:"42"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}
