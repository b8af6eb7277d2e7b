package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Backend names accepted by LoadConfig.
const (
	BackendGemini = "gemini"
	BackendOpenAI = "openai"
)

// Config holds the application configuration, loaded from environment
// variables (with an optional .env file for local runs).
type Config struct {
	// Which LLM backend to use: "gemini" or "openai". The openai
	// backend works against any OpenAI-compatible endpoint, including
	// a local Ollama server.
	Backend string `envconfig:"LLM_BACKEND" default:"gemini"`

	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`

	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"`
	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY"`

	Model       string  `envconfig:"LLM_MODEL" default:"gemini-2.5-flash"`
	Temperature float32 `envconfig:"LLM_TEMPERATURE" default:"0.7"`

	// Language the generators are asked to reply in.
	Language string `envconfig:"GAME_LANGUAGE" default:"English"`

	SaveDir string `envconfig:"SAVE_DIR" default:".saves"`
	LogFile string `envconfig:"LOG_FILE" default:"game.log"`
}

// LoadConfig loads the configuration from the environment.
func LoadConfig() (*Config, error) {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	switch cfg.Backend {
	case BackendGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable is not set")
		}
	case BackendOpenAI:
		if cfg.OpenAIBaseURL == "" && cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY or OPENAI_BASE_URL must be set for the openai backend")
		}
	default:
		return nil, fmt.Errorf("unknown LLM_BACKEND %q", cfg.Backend)
	}

	return &cfg, nil
}
