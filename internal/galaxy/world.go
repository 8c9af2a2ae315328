package galaxy

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cosmicrafts/galaxy/internal/core/event"
	"github.com/cosmicrafts/galaxy/internal/core/ident"
	"github.com/cosmicrafts/galaxy/internal/core/store"
	"github.com/cosmicrafts/galaxy/internal/geom"
	"github.com/cosmicrafts/galaxy/internal/spatial"
)

// DefaultRebuildRatio is the share of moving entities above which Advance
// repacks the whole tree instead of relocating one by one.
const DefaultRebuildRatio = 0.5

// Options configures a World. Zero values pick the defaults.
type Options struct {
	MinChildren  int
	MaxChildren  int
	RebuildRatio float64
	Bus          *event.Bus
	Logger       *zap.Logger
}

// World is the single owner of the galaxy: the spatial index, the id
// counter and the motion table. The composition root builds one and hands
// it to whatever drives the game; there is no package-level state.
// Single-goroutine access only (game loop).
type World struct {
	index        *Index
	ids          *ident.Counter
	motions      *store.Store[EntityID, Motion]
	bus          *event.Bus
	log          *zap.Logger
	rebuildRatio float64
}

// NewWorld creates an empty world.
func NewWorld(opts Options) (*World, error) {
	if opts.MinChildren == 0 && opts.MaxChildren == 0 {
		opts.MinChildren, opts.MaxChildren = spatial.DefaultMinChildren, spatial.DefaultMaxChildren
	}
	if opts.RebuildRatio == 0 {
		opts.RebuildRatio = DefaultRebuildRatio
	}
	if opts.RebuildRatio < 0 {
		return nil, fmt.Errorf("rebuild ratio %v: must not be negative", opts.RebuildRatio)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	idx, err := NewIndex(opts.MinChildren, opts.MaxChildren)
	if err != nil {
		return nil, err
	}
	return &World{
		index:        idx,
		ids:          ident.NewCounter(),
		motions:      store.New[EntityID, Motion](),
		bus:          opts.Bus,
		log:          opts.Logger.With(zap.String("component", "world")),
		rebuildRatio: opts.RebuildRatio,
	}, nil
}

// Bus returns the bus World emits on, nil if none was configured.
func (w *World) Bus() *event.Bus { return w.bus }

// Len returns the number of live entities.
func (w *World) Len() int { return w.index.Len() }

// LastID returns the most recently issued entity id.
func (w *World) LastID() EntityID { return EntityID(w.ids.Last()) }

// ReserveIDs makes sure Spawn never issues an id at or below last, e.g.
// ids of entities that were despawned before a snapshot was taken.
func (w *World) ReserveIDs(last EntityID) { w.ids.Observe(uint64(last)) }

// Spawn creates an entity with a fresh id and places it at coords.
func (w *World) Spawn(kind Kind, owner string, coords geom.Point, payload []byte) (Entity, error) {
	if err := checkPoint("spawn", coords); err != nil {
		return Entity{}, err
	}
	e := Entity{
		ID:      EntityID(w.ids.Next()),
		Owner:   owner,
		Kind:    kind,
		Coords:  coords,
		Payload: payload,
	}
	if err := w.index.Insert(e); err != nil {
		return Entity{}, err
	}
	e = e.clone()
	event.Emit(w.bus, EntitySpawned{Entity: e})
	return e, nil
}

// Adopt inserts an entity whose id was assigned elsewhere, e.g. loaded from
// a catalog. The counter skips past the id so Spawn never reuses it.
func (w *World) Adopt(e Entity) error {
	if e.ID == 0 {
		return fmt.Errorf("adopt: entity has no id")
	}
	if err := w.index.TryInsert(e); err != nil {
		return err
	}
	w.ids.Observe(uint64(e.ID))
	event.Emit(w.bus, EntitySpawned{Entity: e.clone()})
	return nil
}

// Populate replaces the world with entities in one bulk load. Entities
// with a zero id get fresh ids in slice order; non-zero ids are kept.
// Every motion is cleared. Meant for cold start only.
func (w *World) Populate(entities []Entity) ([]Entity, error) {
	ids := ident.NewCounter()
	ids.Observe(w.ids.Last())
	for _, e := range entities {
		ids.Observe(uint64(e.ID))
	}

	loaded := make([]Entity, len(entities))
	for i, e := range entities {
		if e.ID == 0 {
			e.ID = EntityID(ids.Next())
		}
		loaded[i] = e
	}
	if err := w.index.BulkLoad(loaded); err != nil {
		return nil, fmt.Errorf("populate: %w", err)
	}
	w.ids = ids
	w.motions.Clear()

	for i := range loaded {
		loaded[i] = loaded[i].clone()
		event.Emit(w.bus, EntitySpawned{Entity: loaded[i]})
	}
	w.log.Info("world populated", zap.Int("entities", len(loaded)), zap.Uint64("last_id", ids.Last()))
	return loaded, nil
}

// Despawn removes the entity and any motion it had.
func (w *World) Despawn(id EntityID) (Entity, error) {
	e, err := w.index.Remove(id)
	if err != nil {
		return Entity{}, err
	}
	w.motions.Remove(id)
	event.Emit(w.bus, EntityRemoved{Entity: e})
	w.log.Debug("entity despawned", zap.Uint64("id", uint64(id)), zap.Stringer("kind", e.Kind))
	return e, nil
}

// Relocate moves the entity to `to`, replacing its payload when payload is
// non-nil. Ownership is not checked here; callers authorise moves before
// calling. Any running motion continues from the new position.
func (w *World) Relocate(id EntityID, to geom.Point, payload []byte) error {
	before, ok := w.index.Get(id)
	if !ok {
		return notFound(id)
	}
	if err := w.index.Relocate(id, to, payload); err != nil {
		return err
	}
	if before.Coords != to {
		event.Emit(w.bus, EntityMoved{ID: id, From: before.Coords, To: to})
	}
	if payload != nil {
		event.Emit(w.bus, PayloadChanged{ID: id})
	}
	return nil
}

// Transfer hands the entity to a new owner.
func (w *World) Transfer(id EntityID, owner string) error {
	before, ok := w.index.Get(id)
	if !ok {
		return notFound(id)
	}
	if err := w.index.SetOwner(id, owner); err != nil {
		return err
	}
	if before.Owner != owner {
		event.Emit(w.bus, OwnerChanged{ID: id, From: before.Owner, To: owner})
	}
	return nil
}

// SetPayload replaces the entity's payload.
func (w *World) SetPayload(id EntityID, payload []byte) error {
	if err := w.index.SetPayload(id, payload); err != nil {
		return err
	}
	event.Emit(w.bus, PayloadChanged{ID: id})
	return nil
}

// Get returns a copy of the entity.
func (w *World) Get(id EntityID) (Entity, bool) { return w.index.Get(id) }

// QueryRange returns the entities inside the closed box [lower, upper].
func (w *World) QueryRange(lower, upper geom.Point) ([]Entity, error) {
	return w.index.QueryRange(lower, upper)
}

// QueryRadius returns the entities within radius of center.
func (w *World) QueryRadius(center geom.Point, radius float64) ([]Entity, error) {
	return w.index.QueryRadius(center, radius)
}

// QueryNearest returns the entity closest to p.
func (w *World) QueryNearest(p geom.Point) (Entity, bool, error) {
	return w.index.QueryNearest(p)
}

// All returns every entity ordered by id.
func (w *World) All() []Entity { return w.index.All() }

// Bounds returns the box covering every entity.
func (w *World) Bounds() (geom.Rect, bool) { return w.index.Bounds() }
