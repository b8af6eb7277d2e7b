package models

import "fmt"

// Character is one of the key figures in a generated premise.
type Character struct {
	Name        string `yaml:"name"`
	Role        string `yaml:"role"` // e.g. protagonist, antagonist, ally
	Description string `yaml:"description"`
}

// Item is a carryable object. Items are identified by name: acquiring an
// item whose name is already in the inventory replaces its description.
type Item struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

func (i Item) String() string {
	return fmt.Sprintf("%s: %s", i.Name, i.Description)
}

// Premise is the fixed story seed generated once per session. It never
// changes after creation.
type Premise struct {
	Title         string      `yaml:"title"`
	Setting       string      `yaml:"setting"`
	MainConflict  string      `yaml:"main_conflict"`
	KeyCharacters []Character `yaml:"key_characters"`
	KeyItems      []Item      `yaml:"key_items"`
}

// Choice is one selectable option in a round. A choice that requires a
// roll carries a D20 success threshold in [1, 20]; the zero value means
// "use the default" and is normalized to DefaultThreshold on decode.
type Choice struct {
	Text             string `yaml:"text"`
	RequiresRoll     bool   `yaml:"requires_roll"`
	SuccessThreshold int    `yaml:"success_threshold"`
}

// DefaultThreshold is the success threshold assumed when the generator
// omits one for a roll-requiring choice.
const DefaultThreshold = 10

// String renders the choice for display and for prompt context. The
// "(R<n>)" suffix is part of the wire contract with the game master.
func (c Choice) String() string {
	if !c.RequiresRoll {
		return c.Text
	}
	return fmt.Sprintf("%s (R%d)", c.Text, c.SuccessThreshold)
}

// Round is one generated narrative beat: the scene text, the choices
// offered to the player, and the item deltas for this turn.
type Round struct {
	Narrative string   `yaml:"narrative"`
	Choices   []Choice `yaml:"choices"`
	GetItems  []Item   `yaml:"get_items"`
	LoseItems []Item   `yaml:"lose_items"`
	GameOver  bool     `yaml:"game_over"`
}

// RecordKind tags a Record with who (or what) produced it. The values
// double as the display labels rendered into prompt context, so they
// must stay stable.
type RecordKind string

const (
	RecordTurn         RecordKind = "GAME MASTER"
	RecordPlayerChoice RecordKind = "PLAYER"
	RecordItemAcquired RecordKind = "PLAYER GET ITEM"
	RecordItemUsed     RecordKind = "PLAYER USE ITEM"
	RecordItemRemoved  RecordKind = "PLAYER LOSE ITEM"
)

// Valid reports whether k is one of the five known record kinds.
func (k RecordKind) Valid() bool {
	switch k {
	case RecordTurn, RecordPlayerChoice, RecordItemAcquired, RecordItemUsed, RecordItemRemoved:
		return true
	}
	return false
}

// Record is one immutable entry in the session log. Records are only
// ever appended; their order is the order of play.
type Record struct {
	Kind RecordKind `yaml:"kind"`
	Text string     `yaml:"text"`
}

func (r Record) String() string {
	return fmt.Sprintf("%s: %s", r.Kind, r.Text)
}

// KeyInformation is the rolling summary the record keeper regenerates
// each turn: the plot developments worth remembering plus a short prose
// synopsis of recent events. It is replaced wholesale, never merged.
type KeyInformation struct {
	PlotDevelopments      []string `yaml:"plot_developments"`
	SummaryOfRecentEvents string   `yaml:"summary_of_recent_events"`
}
