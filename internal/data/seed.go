package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cosmicrafts/galaxy/internal/galaxy"
	"github.com/cosmicrafts/galaxy/internal/geom"
)

// SeedEntry is one entity placed at cold start. The same shape comes from
// the yaml seed file, the Lua generator and the database catalog.
type SeedEntry struct {
	ID          uint64       `yaml:"id,omitempty"` // 0 lets the world assign one
	Kind        string       `yaml:"kind"`
	Owner       string       `yaml:"owner,omitempty"`
	X           float64      `yaml:"x"`
	Y           float64      `yaml:"y"`
	Payload     string       `yaml:"payload,omitempty"`
	Velocity    *geom.Vector `yaml:"velocity,omitempty"`
	Destination *geom.Point  `yaml:"destination,omitempty"`
	Note        string       `yaml:"note,omitempty"`
}

// Entity converts the entry, rejecting unknown kinds.
func (s *SeedEntry) Entity() (galaxy.Entity, error) {
	kind, err := galaxy.ParseKind(s.Kind)
	if err != nil {
		return galaxy.Entity{}, err
	}
	e := galaxy.Entity{
		ID:     galaxy.EntityID(s.ID),
		Owner:  s.Owner,
		Kind:   kind,
		Coords: geom.Pt(s.X, s.Y),
	}
	if s.Payload != "" {
		e.Payload = []byte(s.Payload)
	}
	return e, nil
}

// Motion returns the entry's initial motion, false when it starts still.
func (s *SeedEntry) Motion() (galaxy.Motion, bool) {
	if s.Velocity == nil && s.Destination == nil {
		return galaxy.Motion{}, false
	}
	var m galaxy.Motion
	if s.Velocity != nil {
		m.Velocity = *s.Velocity
	}
	if s.Destination != nil {
		dest := *s.Destination
		m.Destination = &dest
	}
	return m, true
}

// SeedTable holds the seed entries in file order.
type SeedTable struct {
	entries []SeedEntry
}

// LoadSeedTable loads galaxy_seed.yaml.
func LoadSeedTable(path string) (*SeedTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed list: %w", err)
	}
	var entries []SeedEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse seed list: %w", err)
	}
	for i := range entries {
		if _, err := entries[i].Entity(); err != nil {
			return nil, fmt.Errorf("seed list entry %d: %w", i, err)
		}
	}
	return &SeedTable{entries: entries}, nil
}

// NewSeedTable wraps entries produced elsewhere.
func NewSeedTable(entries []SeedEntry) *SeedTable {
	return &SeedTable{entries: entries}
}

// Entries returns the entries in file order.
func (t *SeedTable) Entries() []SeedEntry { return t.entries }

// Count returns the total number of entries loaded.
func (t *SeedTable) Count() int { return len(t.entries) }

// Merge appends other's entries after t's.
func (t *SeedTable) Merge(other *SeedTable) {
	if other != nil {
		t.entries = append(t.entries, other.entries...)
	}
}

// Write encodes the table as a yaml seed list.
func (t *SeedTable) Write(path, header string) error {
	out, err := yaml.Marshal(t.entries)
	if err != nil {
		return fmt.Errorf("encode seed list: %w", err)
	}
	if header != "" {
		out = append([]byte("# "+header+"\n"), out...)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write seed list: %w", err)
	}
	return nil
}

// Populate loads every entry into w and starts the motions the entries
// carry. Every entry and motion is checked first; on error w is untouched.
func (t *SeedTable) Populate(w *galaxy.World) ([]galaxy.Entity, error) {
	entities := make([]galaxy.Entity, len(t.entries))
	motions := make(map[int]galaxy.Motion)
	for i := range t.entries {
		e, err := t.entries[i].Entity()
		if err != nil {
			return nil, fmt.Errorf("seed entry %d: %w", i, err)
		}
		entities[i] = e
		if m, ok := t.entries[i].Motion(); ok {
			if err := m.Validate(); err != nil {
				return nil, fmt.Errorf("seed entry %d motion: %w", i, err)
			}
			motions[i] = m
		}
	}
	loaded, err := w.Populate(entities)
	if err != nil {
		return nil, err
	}
	for i, m := range motions {
		if err := w.SetMotion(loaded[i].ID, m); err != nil {
			return nil, fmt.Errorf("seed entry %d motion: %w", i, err)
		}
	}
	return loaded, nil
}
