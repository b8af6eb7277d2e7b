package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tatianab/infinite-legends/internal/engine"
	"github.com/tatianab/infinite-legends/internal/models"
)

// Context windows for the two generation stages. The record keeper sees
// a long window so nothing significant falls out of the summary; the
// game master sees a short one plus the summary itself.
const (
	summaryWindowTurns = 50
	roundWindowTurns   = 10
)

var (
	// ErrNoSession is returned when an operation needs a running game
	// and there is none.
	ErrNoSession = errors.New("no active session")
	// ErrGameOver is returned when a player action is submitted after
	// the current round ended the game.
	ErrGameOver = errors.New("game is over")
	// ErrInvalidChoice is returned for a choice index outside the
	// current round's choice list.
	ErrInvalidChoice = errors.New("invalid choice")
	// ErrItemNotHeld is returned when the player tries to use an item
	// that is not in the inventory.
	ErrItemNotHeld = errors.New("item not in inventory")
	// ErrAutosaveFailed wraps a persistence error after a turn already
	// succeeded: the returned round and the state change stand, only
	// the save could not be confirmed.
	ErrAutosaveFailed = errors.New("autosave failed")
)

// Manager orchestrates a game session: it owns the world state,
// sequences the record keeper and game master calls for each turn,
// applies accepted rounds, and autosaves. Exactly one turn is in
// flight at a time.
type Manager struct {
	backend  engine.Backend
	log      zerolog.Logger
	language string

	session   *Session
	sessionID uuid.UUID
	story     *engine.StoryGenerator
	gm        *engine.GameMaster
	rk        *engine.RecordKeeper

	rollDie func() int // d20, swapped out in tests
}

func NewManager(backend engine.Backend, log zerolog.Logger, language string) *Manager {
	return &Manager{
		backend:  backend,
		log:      log.With().Str("component", "game_manager").Logger(),
		language: language,
		story:    engine.NewStoryGenerator(backend, log, language),
		rollDie:  func() int { return rand.Intn(20) + 1 },
	}
}

// HasSession reports whether a game is running.
func (m *Manager) HasSession() bool { return m.session != nil }

// GameOver reports whether the current round ended the game.
func (m *Manager) GameOver() bool {
	return m.session != nil && m.session.CurrentRound().GameOver
}

// StartNewGame generates a premise from the keywords (or a sampled
// default theme) and the opening round, then creates the session. On
// any generation failure no session is created.
func (m *Manager) StartNewGame(ctx context.Context, keywords []string) error {
	premise, err := m.story.GenerateStory(ctx, keywords)
	if err != nil {
		return fmt.Errorf("generating story: %w", err)
	}

	gm := engine.NewGameMaster(m.backend, m.log, m.language, *premise)
	firstRound, err := gm.NextRound(ctx, engine.NextRoundInput{})
	if err != nil {
		return fmt.Errorf("generating first round: %w", err)
	}

	m.session = NewSession(*premise)
	m.sessionID = uuid.New()
	m.gm = gm
	m.rk = engine.NewRecordKeeper(m.backend, m.log, m.language, *premise)
	m.applyRound(*firstRound)

	m.log.Info().
		Str("session_id", m.sessionID.String()).
		Str("title", premise.Title).
		Strs("keywords", keywords).
		Msg("new game started")
	return nil
}

// CurrentRound returns the round the player is facing.
func (m *Manager) CurrentRound() (models.Round, error) {
	if m.session == nil {
		return models.Round{}, ErrNoSession
	}
	return m.session.CurrentRound(), nil
}

// Inventory returns the held items in acquisition order.
func (m *Manager) Inventory() []models.Item {
	if m.session == nil {
		return nil
	}
	return m.session.Inventory()
}

// Records returns the full session log.
func (m *Manager) Records() []models.Record {
	if m.session == nil {
		return nil
	}
	return m.session.Records()
}

// SubmitChoice plays one of the current round's choices. For a choice
// that requires a roll, the d20 is thrown here, at submission time, and
// both the roll and the threshold go into the player record for the
// game master to interpret. Returns the new round; on ErrAutosaveFailed
// the round is still valid.
func (m *Manager) SubmitChoice(ctx context.Context, index int) (*models.Round, error) {
	if m.session == nil {
		return nil, ErrNoSession
	}
	if m.session.CurrentRound().GameOver {
		return nil, ErrGameOver
	}
	choices := m.session.CurrentRound().Choices
	if index < 0 || index >= len(choices) {
		return nil, fmt.Errorf("%w: index %d of %d choices", ErrInvalidChoice, index, len(choices))
	}

	choice := choices[index]
	text := choice.Text
	if choice.RequiresRoll {
		roll := m.rollDie()
		text = fmt.Sprintf("%s (roll: %d / success threshold: %d)", choice.Text, roll, choice.SuccessThreshold)
	}
	return m.runTurn(ctx, models.Record{Kind: models.RecordPlayerChoice, Text: text})
}

// UseItem plays an item from the inventory. The item is removed before
// the turn runs; if a later generation stage fails the removal stands.
func (m *Manager) UseItem(ctx context.Context, name string) (*models.Round, error) {
	if m.session == nil {
		return nil, ErrNoSession
	}
	if m.session.CurrentRound().GameOver {
		return nil, ErrGameOver
	}
	item, ok := m.session.Item(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrItemNotHeld, name)
	}

	m.session.RemoveItem(item.Name)
	return m.runTurn(ctx, models.Record{Kind: models.RecordItemUsed, Text: item.String()})
}

// runTurn is the shared two-stage turn body: summarize, generate the
// next round, then commit the player record, the round, and an
// autosave. Failure at either stage aborts with no further state
// change; the player record is only appended once both stages succeed.
func (m *Manager) runTurn(ctx context.Context, playerRec models.Record) (*models.Round, error) {
	keyInfo, err := m.rk.Summarize(ctx, m.session.KeyInformation(), m.session.RecentInteractions(summaryWindowTurns))
	if err != nil {
		return nil, fmt.Errorf("summarizing records: %w", err)
	}
	m.session.SetKeyInformation(keyInfo)

	round, err := m.gm.NextRound(ctx, engine.NextRoundInput{
		PlayerAction:       playerRec.String(),
		KeyInformation:     keyInfo,
		RecentInteractions: m.session.RecentInteractions(roundWindowTurns),
		Inventory:          m.session.Inventory(),
	})
	if err != nil {
		return nil, fmt.Errorf("generating round: %w", err)
	}

	m.session.AppendRecord(playerRec)
	m.applyRound(*round)

	if err := m.Save(""); err != nil {
		m.log.Error().Err(err).Str("session_id", m.sessionID.String()).Msg("autosave failed")
		return round, fmt.Errorf("%w: %v", ErrAutosaveFailed, err)
	}
	return round, nil
}

// applyRound commits an accepted round to the world state: losses
// first, then gains, then the narration record, then the round itself.
func (m *Manager) applyRound(round models.Round) {
	for _, item := range round.LoseItems {
		m.session.RemoveItem(item.Name)
		m.session.AppendRecord(models.Record{Kind: models.RecordItemRemoved, Text: item.String()})
	}
	for _, item := range round.GetItems {
		m.session.AddItem(item)
		m.session.AppendRecord(models.Record{Kind: models.RecordItemAcquired, Text: item.String()})
	}
	m.session.AppendRecord(models.Record{Kind: models.RecordTurn, Text: round.Narrative})
	m.session.SetCurrentRound(round)
}

// Save persists the session under the given name, or under the
// premise-derived autosave name when the name is empty.
func (m *Manager) Save(name string) error {
	if m.session == nil {
		return ErrNoSession
	}
	if name == "" {
		name = models.AutoSaveName(m.session.Premise().Title)
	}
	return m.session.Snapshot().Save(name)
}

// Load restores a saved session and rebinds the premise-scoped
// gateways. On any load failure the running session, if any, is left
// untouched.
func (m *Manager) Load(name string) error {
	snap, err := models.LoadSnapshot(name)
	if err != nil {
		return err
	}
	m.session = SessionFromSnapshot(snap)
	m.sessionID = uuid.New()
	m.gm = engine.NewGameMaster(m.backend, m.log, m.language, snap.Premise)
	m.rk = engine.NewRecordKeeper(m.backend, m.log, m.language, snap.Premise)

	m.log.Info().
		Str("session_id", m.sessionID.String()).
		Str("snapshot", name).
		Str("title", snap.Premise.Title).
		Msg("game loaded")
	return nil
}

// ListSaves enumerates the available snapshot names.
func (m *Manager) ListSaves() ([]string, error) {
	return models.ListSnapshots()
}

// EndSession saves one last time and drops the session. Ending with no
// session is a no-op.
func (m *Manager) EndSession() error {
	if m.session == nil {
		return nil
	}
	err := m.Save("")
	m.session = nil
	m.gm = nil
	m.rk = nil
	return err
}
