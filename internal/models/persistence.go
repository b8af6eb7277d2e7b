package models

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SaveDir is where snapshots live. Overridden from config at startup.
var SaveDir = ".saves"

const snapshotExt = ".yaml"

// ErrSnapshotNotFound is returned by LoadSnapshot when no snapshot with
// the given name exists.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot is the serialized form of a full session: everything needed
// to resume play. A nil KeyInformation round-trips as null and means
// "no summary yet".
type Snapshot struct {
	Premise        Premise         `yaml:"premise"`
	CurrentRound   Round           `yaml:"current_round"`
	Inventory      []Item          `yaml:"inventory"`
	Records        []Record        `yaml:"records"`
	KeyInformation *KeyInformation `yaml:"key_information"`
}

// AutoSaveName derives the autosave snapshot name for a premise title.
// The same title always maps to the same name, so autosaves overwrite
// in place rather than piling up.
func AutoSaveName(title string) string {
	return "AUTO_SAVE_" + sanitizeName(title)
}

func sanitizeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, strings.TrimSpace(s))
}

// Save writes the snapshot under the given name, overwriting any
// existing snapshot with that name.
func (s *Snapshot) Save(name string) error {
	if err := os.MkdirAll(SaveDir, 0755); err != nil {
		return fmt.Errorf("creating save dir: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	path := filepath.Join(SaveDir, name+snapshotExt)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a named snapshot back. A missing file reports
// ErrSnapshotNotFound; a file that fails to parse reports the parse
// error, and no partial state is returned in either case.
func LoadSnapshot(name string) (*Snapshot, error) {
	path := filepath.Join(SaveDir, name+snapshotExt)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, name)
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", name, err)
	}
	for _, rec := range snap.Records {
		if !rec.Kind.Valid() {
			return nil, fmt.Errorf("parsing snapshot %s: unknown record kind %q", name, rec.Kind)
		}
	}
	return &snap, nil
}

// ListSnapshots returns the names of all snapshots in the save dir, or
// an empty slice when the dir does not exist yet.
func ListSnapshots() ([]string, error) {
	entries, err := os.ReadDir(SaveDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), snapshotExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), snapshotExt))
	}
	return names, nil
}
