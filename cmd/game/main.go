package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/tatianab/infinite-legends/internal/config"
	"github.com/tatianab/infinite-legends/internal/engine"
	"github.com/tatianab/infinite-legends/internal/game"
	"github.com/tatianab/infinite-legends/internal/models"
	"github.com/tatianab/infinite-legends/internal/tui"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Logs go to a file so they do not fight the TUI for the terminal.
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Printf("Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger := zerolog.New(logFile).With().Timestamp().Logger()

	models.SaveDir = cfg.SaveDir

	var backend engine.Backend
	switch cfg.Backend {
	case config.BackendGemini:
		gemini, err := engine.NewGeminiBackend(ctx, cfg.GeminiAPIKey, cfg.Model)
		if err != nil {
			fmt.Printf("Error creating Gemini backend: %v\n", err)
			os.Exit(1)
		}
		defer gemini.Close()
		backend = gemini
	case config.BackendOpenAI:
		backend = engine.NewOpenAIBackend(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.Model, cfg.Temperature)
	}

	manager := game.NewManager(backend, logger, cfg.Language)

	if err := tui.Run(manager); err != nil {
		logger.Error().Err(err).Msg("tui exited with error")
		fmt.Printf("Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
