// Package game owns the live session state and the turn orchestration
// around the generation gateways.
package game

import (
	"github.com/tatianab/infinite-legends/internal/models"
)

// Session is the world state for one running game: the fixed premise,
// the current round, the inventory, the append-only record log, and
// the rolling key information. A session is exclusively owned by its
// Manager; nothing else mutates it.
type Session struct {
	premise      models.Premise
	currentRound models.Round
	inventory    map[string]models.Item
	invOrder     []string // item names in acquisition order
	records      []models.Record
	keyInfo      *models.KeyInformation
}

func NewSession(premise models.Premise) *Session {
	return &Session{
		premise:   premise,
		inventory: make(map[string]models.Item),
	}
}

func (s *Session) Premise() models.Premise { return s.premise }

func (s *Session) CurrentRound() models.Round { return s.currentRound }

func (s *Session) SetCurrentRound(r models.Round) { s.currentRound = r }

// AddItem upserts an item into the inventory, keyed by name. Acquiring
// an item again keeps its slot and acquisition order but refreshes the
// description.
func (s *Session) AddItem(item models.Item) {
	if _, ok := s.inventory[item.Name]; !ok {
		s.invOrder = append(s.invOrder, item.Name)
	}
	s.inventory[item.Name] = item
}

// RemoveItem drops an item by name. Removing an item that is not held
// is a no-op, not an error.
func (s *Session) RemoveItem(name string) {
	if _, ok := s.inventory[name]; !ok {
		return
	}
	delete(s.inventory, name)
	for i, n := range s.invOrder {
		if n == name {
			s.invOrder = append(s.invOrder[:i], s.invOrder[i+1:]...)
			break
		}
	}
}

// Item looks up a held item by name.
func (s *Session) Item(name string) (models.Item, bool) {
	item, ok := s.inventory[name]
	return item, ok
}

// Inventory returns the held items in acquisition order.
func (s *Session) Inventory() []models.Item {
	items := make([]models.Item, 0, len(s.invOrder))
	for _, name := range s.invOrder {
		items = append(items, s.inventory[name])
	}
	return items
}

func (s *Session) AppendRecord(rec models.Record) {
	s.records = append(s.records, rec)
}

// Records returns the full log, oldest first. The returned slice is a
// view of the stored log and must not be modified.
func (s *Session) Records() []models.Record {
	return s.records
}

// RecentInteractions renders the most recent records for prompt
// context: a window of up to turns*2 entries, covering one GM and one
// player record per turn. The stored log is not touched.
func (s *Session) RecentInteractions(turns int) []string {
	start := len(s.records) - turns*2
	if start < 0 {
		start = 0
	}
	window := s.records[start:]
	out := make([]string, len(window))
	for i, rec := range window {
		out[i] = rec.String()
	}
	return out
}

func (s *Session) KeyInformation() *models.KeyInformation { return s.keyInfo }

// SetKeyInformation replaces the rolling summary wholesale.
func (s *Session) SetKeyInformation(ki *models.KeyInformation) { s.keyInfo = ki }

// Snapshot captures the session for persistence.
func (s *Session) Snapshot() *models.Snapshot {
	return &models.Snapshot{
		Premise:        s.premise,
		CurrentRound:   s.currentRound,
		Inventory:      s.Inventory(),
		Records:        s.records,
		KeyInformation: s.keyInfo,
	}
}

// SessionFromSnapshot rebuilds a session from a loaded snapshot.
func SessionFromSnapshot(snap *models.Snapshot) *Session {
	s := NewSession(snap.Premise)
	s.currentRound = snap.CurrentRound
	for _, item := range snap.Inventory {
		s.AddItem(item)
	}
	s.records = snap.Records
	s.keyInfo = snap.KeyInformation
	return s
}
