package galaxy

import "github.com/cosmicrafts/galaxy/internal/geom"

// Events emitted by World onto its bus. They describe changes that already
// happened; handlers must not assume the entity still exists.

type EntitySpawned struct {
	Entity Entity
}

type EntityMoved struct {
	ID   EntityID
	From geom.Point
	To   geom.Point
}

type EntityRemoved struct {
	Entity Entity
}

type OwnerChanged struct {
	ID   EntityID
	From string
	To   string
}

type PayloadChanged struct {
	ID EntityID
}

// EntityArrived fires when a motion with a destination reaches it.
type EntityArrived struct {
	ID EntityID
	At geom.Point
}
