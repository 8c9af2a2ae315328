package galaxy

import (
	"bytes"
	"fmt"

	"github.com/cosmicrafts/galaxy/internal/geom"
)

// EntityID identifies an entity for the lifetime of the process.
type EntityID uint64

// Kind tags what an entity is. The index carries it but never reads it.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindStar
	KindPlanet
	KindFleet
	KindBuilding
	KindShip
	KindMine
	KindPlayer
)

var kindNames = [...]string{
	KindUnknown:  "unknown",
	KindStar:     "star",
	KindPlanet:   "planet",
	KindFleet:    "fleet",
	KindBuilding: "building",
	KindShip:     "ship",
	KindMine:     "mine",
	KindPlayer:   "player",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind maps a kind name back to its tag.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s && Kind(i) != KindUnknown {
			return Kind(i), nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown entity kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) {
	if int(k) >= len(kindNames) {
		return nil, fmt.Errorf("cannot marshal entity kind %d", uint8(k))
	}
	return []byte(kindNames[k]), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	if string(b) == kindNames[KindUnknown] {
		*k = KindUnknown
		return nil
	}
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Entity is a positioned game object.
type Entity struct {
	ID      EntityID   `msgpack:"id"`
	Owner   string     `msgpack:"owner"`
	Kind    Kind       `msgpack:"kind"`
	Coords  geom.Point `msgpack:"coords"`
	Payload []byte     `msgpack:"payload,omitempty"`
}

// clone returns a copy that shares no memory with e.
func (e Entity) clone() Entity {
	e.Payload = clonePayload(e.Payload)
	return e
}

func clonePayload(p []byte) []byte {
	if p == nil {
		return nil
	}
	return bytes.Clone(p)
}

// Equal reports whether two entities carry the same fields.
func (e Entity) Equal(o Entity) bool {
	return e.ID == o.ID && e.Owner == o.Owner && e.Kind == o.Kind &&
		e.Coords == o.Coords && bytes.Equal(e.Payload, o.Payload)
}
