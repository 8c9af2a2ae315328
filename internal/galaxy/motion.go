package galaxy

import (
	"github.com/cosmicrafts/galaxy/internal/geom"
)

// Motion drives an entity across the plane when World.Advance runs.
// Velocity is in units per second, Acceleration in units per second².
// With a Destination the entity stops exactly there once a step heading
// towards it would reach or pass it, and the motion is dropped. A step
// heading away never counts as arrival.
type Motion struct {
	Velocity     geom.Vector `msgpack:"velocity"`
	Acceleration geom.Vector `msgpack:"acceleration"`
	Destination  *geom.Point `msgpack:"destination,omitempty"`
}

func (m Motion) idle() bool {
	return m.Velocity.IsZero() && m.Acceleration.IsZero()
}

// Validate reports an ErrInvalidCoordinate error when a vector or the
// destination is not finite. SetMotion runs the same check.
func (m Motion) Validate() error { return m.validate("motion") }

func (m Motion) validate(op string) error {
	if !m.Velocity.Finite() || !m.Acceleration.Finite() {
		return &CoordinateError{Op: op, Point: geom.Pt(m.Velocity.DX, m.Velocity.DY)}
	}
	if m.Destination != nil {
		return checkPoint(op, *m.Destination)
	}
	return nil
}

// step integrates m over dt seconds from p with semi-implicit Euler and
// reports the new position, the updated motion and whether the
// destination was reached.
func (m Motion) step(p geom.Point, dt float64) (geom.Point, Motion, bool) {
	m.Velocity = m.Velocity.Plus(m.Acceleration.Scale(dt))
	next := p.Add(m.Velocity, dt)
	if m.Destination == nil {
		return next, m, false
	}
	dest := *m.Destination
	to := dest.Sub(p)
	if to.IsZero() {
		return dest, m, true
	}
	// Arrived when the step projected onto p->dest covers the whole way.
	if along := next.Sub(p).Dot(to); along > 0 && along >= to.Dot(to) {
		return dest, m, true
	}
	return next, m, false
}
