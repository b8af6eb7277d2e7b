package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tatianab/infinite-legends/internal/models"
)

// fakeBackend replays a script of replies and errors, one per call.
type fakeBackend struct {
	script  []scriptStep
	calls   int
	prompts []string
}

type scriptStep struct {
	reply string
	err   error
}

func (f *fakeBackend) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.calls >= len(f.script) {
		return "", errors.New("fake backend: script exhausted")
	}
	step := f.script[f.calls]
	f.calls++
	return step.reply, step.err
}

const premiseYAML = `title: The Sunken Temple
setting: A drowned jungle city
main_conflict: The dragon guards the last dry vault
key_characters:
  - name: Iric
    role: protagonist
    description: A treasure hunter
key_items:
  - name: Brass Key
    description: Opens the vault
`

const roundYAML = `narrative: You stand before a temple.
choices:
  - text: Enter
  - text: Climb the wall
    requires_roll: true
    success_threshold: 15
get_items: []
lose_items: []
game_over: false
`

const keyInfoYAML = `plot_developments:
  - The temple was found
summary_of_recent_events: Iric reached the temple.
`

var testLog = zerolog.Nop()

func TestStoryGeneratorSuccess(t *testing.T) {
	backend := &fakeBackend{script: []scriptStep{{reply: premiseYAML}}}
	gen := NewStoryGenerator(backend, testLog, "English")

	premise, err := gen.GenerateStory(context.Background(), []string{"dragon", "temple"})
	require.NoError(t, err)
	assert.Equal(t, "The Sunken Temple", premise.Title)
	assert.Len(t, premise.KeyCharacters, 1)
	assert.Equal(t, 1, backend.calls)
	assert.Contains(t, backend.prompts[0], "dragon, temple")
}

func TestStoryGeneratorSamplesDefaultKeywords(t *testing.T) {
	backend := &fakeBackend{script: []scriptStep{{reply: premiseYAML}}}
	gen := NewStoryGenerator(backend, testLog, "English")

	_, err := gen.GenerateStory(context.Background(), nil)
	require.NoError(t, err)
	// With no keywords the prompt still names some themes.
	assert.Contains(t, backend.prompts[0], "## Keywords")
	assert.NotContains(t, backend.prompts[0], "## Keywords\n\n\n")
}

func TestStoryGeneratorRetriesTransportFailure(t *testing.T) {
	backend := &fakeBackend{script: []scriptStep{
		{err: errors.New("connection refused")},
		{err: errors.New("connection refused")},
		{reply: premiseYAML},
	}}
	gen := NewStoryGenerator(backend, testLog, "English")

	premise, err := gen.GenerateStory(context.Background(), []string{"dragon"})
	require.NoError(t, err)
	assert.Equal(t, "The Sunken Temple", premise.Title)
	assert.Equal(t, 3, backend.calls)
}

func TestStoryGeneratorExhaustsRetries(t *testing.T) {
	transport := errors.New("connection refused")
	backend := &fakeBackend{script: []scriptStep{
		{err: transport}, {err: transport}, {err: transport},
	}}
	gen := NewStoryGenerator(backend, testLog, "English")

	premise, err := gen.GenerateStory(context.Background(), []string{"dragon"})
	assert.Nil(t, premise)

	var genErr *GenerateError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, 3, genErr.Attempts)
	assert.Equal(t, "story_generator", genErr.Role)
	assert.ErrorIs(t, genErr, transport)
}

func TestStoryGeneratorRetriesDecodeFailure(t *testing.T) {
	backend := &fakeBackend{script: []scriptStep{
		{reply: "I would be happy to help with that!"}, // not YAML
		{reply: "title: Incomplete"},                   // fails validation
		{reply: premiseYAML},
	}}
	gen := NewStoryGenerator(backend, testLog, "English")

	premise, err := gen.GenerateStory(context.Background(), []string{"dragon"})
	require.NoError(t, err)
	assert.Equal(t, "The Sunken Temple", premise.Title)
	assert.Equal(t, 3, backend.calls)
}

func TestStoryGeneratorDecodeErrorClass(t *testing.T) {
	backend := &fakeBackend{script: []scriptStep{
		{reply: "title: Incomplete"},
		{reply: "title: Incomplete"},
		{reply: "title: Incomplete"},
	}}
	gen := NewStoryGenerator(backend, testLog, "English")

	_, err := gen.GenerateStory(context.Background(), []string{"dragon"})
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Contains(t, decodeErr.Output, "Incomplete")
}

func TestStoryGeneratorDecodeErrorWrapsOnce(t *testing.T) {
	backend := &fakeBackend{script: []scriptStep{
		{reply: ": not yaml"},
		{reply: ": not yaml"},
		{reply: ": not yaml"},
	}}
	gen := NewStoryGenerator(backend, testLog, "English")

	_, err := gen.GenerateStory(context.Background(), []string{"dragon"})
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	var inner *DecodeError
	assert.False(t, errors.As(decodeErr.Err, &inner), "parse failure should carry a single DecodeError layer")
}

func TestGameMasterNextRound(t *testing.T) {
	backend := &fakeBackend{script: []scriptStep{{reply: "```yaml\n" + roundYAML + "```"}}}
	premise := mustPremise(t)
	gm := NewGameMaster(backend, testLog, "English", premise)

	round, err := gm.NextRound(context.Background(), NextRoundInput{
		PlayerAction:       "PLAYER: Enter",
		RecentInteractions: []string{"GAME MASTER: You stand before a temple."},
		Inventory:          []models.Item{{Name: "Rope", Description: "Fifty feet of hemp"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "You stand before a temple.", round.Narrative)
	require.Len(t, round.Choices, 2)
	assert.False(t, round.Choices[0].RequiresRoll)
	assert.Equal(t, 15, round.Choices[1].SuccessThreshold)

	prompt := backend.prompts[0]
	assert.Contains(t, prompt, "The Sunken Temple")
	assert.Contains(t, prompt, "PLAYER: Enter")
	assert.Contains(t, prompt, "Rope: Fifty feet of hemp")
	assert.Contains(t, prompt, "GAME MASTER: You stand before a temple.")
	assert.Contains(t, prompt, "Reply to the best of your ability in English.")
}

func TestGameMasterRendersLanguage(t *testing.T) {
	backend := &fakeBackend{script: []scriptStep{{reply: roundYAML}}}
	gm := NewGameMaster(backend, testLog, "French", mustPremise(t))

	_, err := gm.NextRound(context.Background(), NextRoundInput{})
	require.NoError(t, err)
	require.Len(t, backend.prompts, 1)
	assert.Contains(t, backend.prompts[0], "Reply to the best of your ability in French.")
}

func TestGameMasterThresholdPolicy(t *testing.T) {
	tests := []struct {
		name     string
		yamlBody string
		want     int
	}{
		{"omitted defaults to 10", "requires_roll: true", 10},
		{"in range kept", "requires_roll: true\n    success_threshold: 20", 20},
		{"above range clamped", "requires_roll: true\n    success_threshold: 21", 20},
		{"below range clamped", "requires_roll: true\n    success_threshold: -3", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := "narrative: A scene.\nchoices:\n  - text: Try it\n    " + tt.yamlBody + "\ngame_over: false\n"
			backend := &fakeBackend{script: []scriptStep{{reply: reply}}}
			gm := NewGameMaster(backend, testLog, "English", mustPremise(t))

			round, err := gm.NextRound(context.Background(), NextRoundInput{})
			require.NoError(t, err)
			require.Len(t, round.Choices, 1)
			assert.Equal(t, tt.want, round.Choices[0].SuccessThreshold)
		})
	}
}

func TestGameMasterRejectsEmptyNarrative(t *testing.T) {
	bad := "narrative: \"\"\nchoices: []\ngame_over: false\n"
	backend := &fakeBackend{script: []scriptStep{{reply: bad}, {reply: bad}, {reply: bad}}}
	gm := NewGameMaster(backend, testLog, "English", mustPremise(t))

	round, err := gm.NextRound(context.Background(), NextRoundInput{})
	assert.Nil(t, round)

	var genErr *GenerateError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, "game_master", genErr.Role)
}

func TestRecordKeeperSummarize(t *testing.T) {
	backend := &fakeBackend{script: []scriptStep{{reply: keyInfoYAML}}}
	rk := NewRecordKeeper(backend, testLog, "English", mustPremise(t))

	prev := &models.KeyInformation{SummaryOfRecentEvents: "The journey began."}
	keyInfo, err := rk.Summarize(context.Background(), prev, []string{"GAME MASTER: You stand before a temple."})
	require.NoError(t, err)
	assert.Equal(t, "Iric reached the temple.", keyInfo.SummaryOfRecentEvents)
	assert.Equal(t, []string{"The temple was found"}, keyInfo.PlotDevelopments)

	prompt := backend.prompts[0]
	assert.Contains(t, prompt, "The journey began.")
	assert.Contains(t, prompt, "You stand before a temple.")
	assert.Contains(t, prompt, "Reply to the best of your ability in English.")
}

func TestRecordKeeperFirstTurnWithoutPrevious(t *testing.T) {
	backend := &fakeBackend{script: []scriptStep{{reply: keyInfoYAML}}}
	rk := NewRecordKeeper(backend, testLog, "English", mustPremise(t))

	keyInfo, err := rk.Summarize(context.Background(), nil, []string{"GAME MASTER: It begins."})
	require.NoError(t, err)
	assert.NotEmpty(t, keyInfo.SummaryOfRecentEvents)
	assert.NotContains(t, backend.prompts[0], "## Current Key Information")
}

func TestDecodeYAMLStripsFences(t *testing.T) {
	out, err := decodeYAML[models.KeyInformation]("```yaml\n" + keyInfoYAML + "\n```")
	require.NoError(t, err)
	assert.Equal(t, "Iric reached the temple.", out.SummaryOfRecentEvents)

	out, err = decodeYAML[models.KeyInformation]("```\n" + keyInfoYAML + "\n```")
	require.NoError(t, err)
	assert.Equal(t, "Iric reached the temple.", out.SummaryOfRecentEvents)
}

func mustPremise(t *testing.T) models.Premise {
	t.Helper()
	out, err := decodeYAML[models.Premise](premiseYAML)
	require.NoError(t, err)
	return *out
}
