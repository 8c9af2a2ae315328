package galaxy

import (
	"errors"
	"fmt"
	"slices"

	"github.com/cosmicrafts/galaxy/internal/geom"
	"github.com/cosmicrafts/galaxy/internal/spatial"
)

// Index keeps entities in an R-tree for spatial queries and in an id map
// for identity lookups. Both structures are updated together by every
// mutation, so they never disagree about which entities exist or where.
//
// Entities go in and come out by value; payload bytes are copied both ways.
// Single-goroutine access only (game loop).
type Index struct {
	tree *spatial.Tree
	byID map[EntityID]*Entity
}

// NewIndex creates an empty index whose tree nodes hold between
// minChildren and maxChildren entries.
func NewIndex(minChildren, maxChildren int) (*Index, error) {
	tree, err := spatial.New(minChildren, maxChildren)
	if err != nil {
		return nil, fmt.Errorf("spatial tree: %w", err)
	}
	return &Index{
		tree: tree,
		byID: make(map[EntityID]*Entity, 1024),
	}, nil
}

// NewDefaultIndex creates an index with the default tree fan-out.
func NewDefaultIndex() *Index {
	idx, err := NewIndex(spatial.DefaultMinChildren, spatial.DefaultMaxChildren)
	if err != nil {
		panic(err)
	}
	return idx
}

func item(e *Entity) spatial.Item {
	return spatial.Item{ID: uint64(e.ID), Pt: e.Coords}
}

// Len returns the number of entities present.
func (x *Index) Len() int { return len(x.byID) }

// Bounds returns the box covering every entity, false when empty.
func (x *Index) Bounds() (geom.Rect, bool) { return x.tree.Bounds() }

// Insert adds e at its coordinates. Non-finite coordinates are rejected
// with a *CoordinateError. Inserting an id that is already present is a
// caller bug and panics with a *DuplicateIDError; use TryInsert when the
// id comes from outside the process.
func (x *Index) Insert(e Entity) error {
	if err := x.TryInsert(e); err != nil {
		var dup *DuplicateIDError
		if errors.As(err, &dup) {
			panic(err)
		}
		return err
	}
	return nil
}

// TryInsert is Insert reporting a duplicate id as an error instead of
// panicking.
func (x *Index) TryInsert(e Entity) error {
	if err := checkPoint("insert", e.Coords); err != nil {
		return err
	}
	if _, ok := x.byID[e.ID]; ok {
		return &DuplicateIDError{ID: e.ID}
	}
	stored := e.clone()
	x.byID[e.ID] = &stored
	x.tree.Insert(item(&stored))
	return nil
}

// Remove deletes the entity and returns its last state.
func (x *Index) Remove(id EntityID) (Entity, error) {
	stored, ok := x.byID[id]
	if !ok {
		return Entity{}, notFound(id)
	}
	x.mustDelete(stored)
	delete(x.byID, id)
	return *stored, nil
}

// mustDelete takes stored out of the tree. A miss means the tree and the
// id map diverged, which no caller can recover from.
func (x *Index) mustDelete(stored *Entity) {
	if !x.tree.Delete(item(stored)) {
		panic(fmt.Sprintf("galaxy: entity %d at (%v, %v) missing from spatial tree",
			stored.ID, stored.Coords.X, stored.Coords.Y))
	}
}

// Get returns a copy of the entity with the given id.
func (x *Index) Get(id EntityID) (Entity, bool) {
	stored, ok := x.byID[id]
	if !ok {
		return Entity{}, false
	}
	return stored.clone(), true
}

// Has reports whether id is present.
func (x *Index) Has(id EntityID) bool {
	_, ok := x.byID[id]
	return ok
}

// Relocate moves the entity to `to`. A nil payload keeps the current one;
// a non-nil payload (including an empty one) replaces it. The entity
// leaves its old tree position before it is reinserted, so queries never
// see it at the old point once Relocate returns.
func (x *Index) Relocate(id EntityID, to geom.Point, payload []byte) error {
	if err := checkPoint("relocate", to); err != nil {
		return err
	}
	stored, ok := x.byID[id]
	if !ok {
		return notFound(id)
	}
	if payload != nil {
		stored.Payload = clonePayload(payload)
	}
	if stored.Coords.Identical(to) {
		return nil
	}
	x.mustDelete(stored)
	stored.Coords = to
	x.tree.Insert(item(stored))
	return nil
}

// SetOwner transfers the entity to owner. Position is unaffected.
func (x *Index) SetOwner(id EntityID, owner string) error {
	stored, ok := x.byID[id]
	if !ok {
		return notFound(id)
	}
	stored.Owner = owner
	return nil
}

// SetPayload replaces the entity's payload.
func (x *Index) SetPayload(id EntityID, payload []byte) error {
	stored, ok := x.byID[id]
	if !ok {
		return notFound(id)
	}
	stored.Payload = clonePayload(payload)
	return nil
}

// QueryRange returns every entity inside the closed box spanned by lower
// and upper. A box with lower above upper on either axis is empty.
func (x *Index) QueryRange(lower, upper geom.Point) ([]Entity, error) {
	if err := checkPoint("query range", lower); err != nil {
		return nil, err
	}
	if err := checkPoint("query range", upper); err != nil {
		return nil, err
	}
	var out []Entity
	x.tree.Search(geom.Rect{Min: lower, Max: upper}, func(it spatial.Item) bool {
		out = append(out, x.byID[EntityID(it.ID)].clone())
		return true
	})
	return out, nil
}

// QueryRadius returns every entity at Euclidean distance at most radius
// from center.
func (x *Index) QueryRadius(center geom.Point, radius float64) ([]Entity, error) {
	if err := checkPoint("query radius", center); err != nil {
		return nil, err
	}
	if err := checkScalar("query radius", radius, false); err != nil {
		return nil, err
	}
	var out []Entity
	x.tree.Within(center, radius, func(it spatial.Item) bool {
		out = append(out, x.byID[EntityID(it.ID)].clone())
		return true
	})
	return out, nil
}

// QueryNearest returns the entity closest to p. Ties go to the smallest id.
// The bool is false when the index is empty.
func (x *Index) QueryNearest(p geom.Point) (Entity, bool, error) {
	if err := checkPoint("query nearest", p); err != nil {
		return Entity{}, false, err
	}
	it, ok := x.tree.Nearest(p)
	if !ok {
		return Entity{}, false, nil
	}
	return x.byID[EntityID(it.ID)].clone(), true, nil
}

// All returns a copy of every entity, ordered by id.
func (x *Index) All() []Entity {
	out := make([]Entity, 0, len(x.byID))
	for _, stored := range x.byID {
		out = append(out, stored.clone())
	}
	slices.SortFunc(out, func(a, b Entity) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

// BulkLoad replaces the whole index with entities in one packed rebuild.
// Every entity is validated first; on error the index is left unchanged.
func (x *Index) BulkLoad(entities []Entity) error {
	byID := make(map[EntityID]*Entity, len(entities))
	items := make([]spatial.Item, 0, len(entities))
	for i := range entities {
		if err := checkPoint("bulk load", entities[i].Coords); err != nil {
			return err
		}
		if _, dup := byID[entities[i].ID]; dup {
			return &DuplicateIDError{ID: entities[i].ID}
		}
		stored := entities[i].clone()
		byID[stored.ID] = &stored
		items = append(items, item(&stored))
	}
	x.byID = byID
	x.tree.BulkLoad(items)
	return nil
}

// Move is one relocation in a batch.
type Move struct {
	ID EntityID
	To geom.Point
}

// RelocateMany applies a batch of moves atomically: every id and point is
// checked before anything changes. When the batch touches more than
// rebuildRatio of the index, the tree is repacked once instead of doing
// one remove and reinsert per move; the result is the same either way.
func (x *Index) RelocateMany(moves []Move, rebuildRatio float64) error {
	for _, m := range moves {
		if err := checkPoint("relocate", m.To); err != nil {
			return err
		}
		if _, ok := x.byID[m.ID]; !ok {
			return notFound(m.ID)
		}
	}
	if len(moves) == 0 {
		return nil
	}
	if float64(len(moves)) <= rebuildRatio*float64(len(x.byID)) {
		for _, m := range moves {
			if err := x.Relocate(m.ID, m.To, nil); err != nil {
				return err
			}
		}
		return nil
	}

	for _, m := range moves {
		x.byID[m.ID].Coords = m.To
	}
	items := make([]spatial.Item, 0, len(x.byID))
	for _, stored := range x.byID {
		items = append(items, item(stored))
	}
	x.tree.BulkLoad(items)
	return nil
}
