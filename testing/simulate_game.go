// Self-play harness: an LLM "player" picks choices against the real
// engine for a handful of turns. Useful for eyeballing prompt and
// pacing changes without sitting through a manual session.
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tatianab/infinite-legends/internal/config"
	"github.com/tatianab/infinite-legends/internal/engine"
	"github.com/tatianab/infinite-legends/internal/game"
	"github.com/tatianab/infinite-legends/internal/models"
)

const maxTurns = 10

func main() {
	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	models.SaveDir = cfg.SaveDir
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	backend, cleanup, err := newBackend(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create backend: %v", err)
	}
	defer cleanup()

	manager := game.NewManager(backend, logger, cfg.Language)

	fmt.Println("--- Step 1: Generating the story ---")
	if err := manager.StartNewGame(ctx, []string{"dragon", "temple", "lost civilization"}); err != nil {
		log.Fatalf("Failed to start game: %v", err)
	}
	round, _ := manager.CurrentRound()

	for turn := 1; turn <= maxTurns; turn++ {
		fmt.Printf("--- Turn %d ---\n", turn)
		fmt.Printf("GM: %s\n", round.Narrative)
		for i, choice := range round.Choices {
			fmt.Printf("  %d. %s\n", i+1, choice)
		}

		if round.GameOver {
			fmt.Println("Game over.")
			break
		}
		if len(round.Choices) == 0 {
			fmt.Println("No choices offered; stopping.")
			break
		}

		index := pickChoice(ctx, backend, round)
		fmt.Printf("Player picks: %d. %s\n\n", index+1, round.Choices[index])

		next, err := manager.SubmitChoice(ctx, index)
		if err != nil {
			fmt.Printf("Turn failed: %v\n", err)
			break
		}
		round = *next
	}

	fmt.Printf("Records: %d, Inventory: %v\n", len(manager.Records()), manager.Inventory())
}

// pickChoice asks the backend to play the player's side; any trouble
// falls back to a random pick.
func pickChoice(ctx context.Context, backend engine.Backend, round models.Round) int {
	var b strings.Builder
	b.WriteString("You are playing a text-based adventure game. The scene:\n\n")
	b.WriteString(round.Narrative)
	b.WriteString("\n\nYour options:\n")
	for i, choice := range round.Choices {
		fmt.Fprintf(&b, "%d. %s\n", i+1, choice)
	}
	b.WriteString("\nReturn ONLY the number of the option you pick, nothing else.")

	reply, err := backend.Generate(ctx, b.String())
	if err != nil {
		return rand.Intn(len(round.Choices))
	}
	index, err := strconv.Atoi(strings.TrimSpace(reply))
	if err != nil || index < 1 || index > len(round.Choices) {
		return rand.Intn(len(round.Choices))
	}
	return index - 1
}

func newBackend(ctx context.Context, cfg *config.Config) (engine.Backend, func(), error) {
	if cfg.Backend == config.BackendOpenAI {
		return engine.NewOpenAIBackend(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.Model, cfg.Temperature), func() {}, nil
	}
	gemini, err := engine.NewGeminiBackend(ctx, cfg.GeminiAPIKey, cfg.Model)
	if err != nil {
		return nil, nil, err
	}
	return gemini, gemini.Close, nil
}
