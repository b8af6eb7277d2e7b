package engine

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"strings"
	"text/template"

	"github.com/rs/zerolog"
	"github.com/tatianab/infinite-legends/internal/models"
)

//go:embed prompts/next_round.txt
var nextRoundPrompt string

// GameMaster generates rounds for one session. It is bound to the
// session's premise at construction; the per-turn inputs carry
// everything that changes between rounds.
type GameMaster struct {
	backend     Backend
	log         zerolog.Logger
	language    string
	attempts    int
	premiseYAML string
	tmpl        *template.Template
}

func NewGameMaster(backend Backend, log zerolog.Logger, language string, premise models.Premise) *GameMaster {
	return &GameMaster{
		backend:     backend,
		log:         log.With().Str("component", "game_master").Logger(),
		language:    language,
		attempts:    DefaultAttempts,
		premiseYAML: renderYAML(premise),
		tmpl:        template.Must(template.New("next_round").Parse(nextRoundPrompt)),
	}
}

// NextRoundInput is the per-turn context for the game master. All
// fields are optional on the first round of a session.
type NextRoundInput struct {
	PlayerAction       string // rendered player record, e.g. "PLAYER: Enter the temple"
	KeyInformation     *models.KeyInformation
	RecentInteractions []string // rendered records, oldest first
	Inventory          []models.Item
}

// NextRound asks for the next narrative beat given the turn context.
func (gm *GameMaster) NextRound(ctx context.Context, in NextRoundInput) (*models.Round, error) {
	keyInfo := ""
	if in.KeyInformation != nil {
		keyInfo = renderYAML(in.KeyInformation)
	}
	inventory := make([]string, len(in.Inventory))
	for i, item := range in.Inventory {
		inventory[i] = item.String()
	}

	var buf bytes.Buffer
	err := gm.tmpl.Execute(&buf, struct {
		Premise            string
		KeyInformation     string
		Inventory          string
		RecentInteractions string
		PlayerAction       string
		Language           string
	}{
		Premise:            gm.premiseYAML,
		KeyInformation:     keyInfo,
		Inventory:          strings.Join(inventory, "\n"),
		RecentInteractions: strings.Join(in.RecentInteractions, "\n\n"),
		PlayerAction:       in.PlayerAction,
		Language:           gm.language,
	})
	if err != nil {
		return nil, err
	}

	round, err := generate(ctx, gm.backend, gm.log, "game_master", buf.String(), gm.attempts, validateRound)
	if err != nil {
		return nil, err
	}
	normalizeRound(round)
	return round, nil
}

func validateRound(r *models.Round) error {
	if r.Narrative == "" {
		return errors.New("round missing narrative")
	}
	for _, c := range r.Choices {
		if c.Text == "" {
			return errors.New("round choice missing text")
		}
	}
	for _, item := range append(append([]models.Item{}, r.GetItems...), r.LoseItems...) {
		if item.Name == "" {
			return errors.New("round item missing name")
		}
	}
	return nil
}

// normalizeRound applies the threshold policy for roll choices: an
// omitted threshold becomes the default, an out-of-range one is clamped
// into [1, 20].
func normalizeRound(r *models.Round) {
	for i := range r.Choices {
		c := &r.Choices[i]
		if !c.RequiresRoll {
			continue
		}
		switch {
		case c.SuccessThreshold == 0:
			c.SuccessThreshold = models.DefaultThreshold
		case c.SuccessThreshold < 1:
			c.SuccessThreshold = 1
		case c.SuccessThreshold > 20:
			c.SuccessThreshold = 20
		}
	}
}
