package galaxy

import (
	"go.uber.org/zap"

	"github.com/cosmicrafts/galaxy/internal/core/event"
	"github.com/cosmicrafts/galaxy/internal/geom"
)

// SetMotion gives the entity a velocity and acceleration. An idle motion
// without destination clears it.
func (w *World) SetMotion(id EntityID, m Motion) error {
	if !w.index.Has(id) {
		return notFound(id)
	}
	if err := m.validate("set motion"); err != nil {
		return err
	}
	if m.idle() && m.Destination == nil {
		w.motions.Remove(id)
		return nil
	}
	if m.Destination != nil {
		dest := *m.Destination
		m.Destination = &dest
	}
	w.motions.Set(id, &m)
	return nil
}

// ClearMotion stops the entity where it is.
func (w *World) ClearMotion(id EntityID) error {
	if !w.index.Has(id) {
		return notFound(id)
	}
	w.motions.Remove(id)
	return nil
}

// MotionOf returns the entity's current motion, false when it is still.
func (w *World) MotionOf(id EntityID) (Motion, bool) {
	m, ok := w.motions.Get(id)
	if !ok {
		return Motion{}, false
	}
	out := *m
	if out.Destination != nil {
		dest := *out.Destination
		out.Destination = &dest
	}
	return out, true
}

// Moving returns how many entities have a motion.
func (w *World) Moving() int { return w.motions.Len() }

// MoveTo sets a constant velocity that brings the entity to target after
// duration seconds, where it stops.
func (w *World) MoveTo(id EntityID, target geom.Point, duration float64) error {
	if err := checkPoint("move to", target); err != nil {
		return err
	}
	if err := checkScalar("move to duration", duration, false); err != nil {
		return err
	}
	if duration == 0 {
		return &CoordinateError{Op: "move to duration", Value: duration, Scalar: true}
	}
	e, ok := w.index.Get(id)
	if !ok {
		return notFound(id)
	}
	if e.Coords == target {
		w.motions.Remove(id)
		return nil
	}
	dest := target
	w.motions.Set(id, &Motion{
		Velocity:    target.Sub(e.Coords).Scale(1 / duration),
		Destination: &dest,
	})
	return nil
}

// Advance integrates every motion over dt seconds and applies the new
// positions to the index in one batch. It returns how many entities moved.
// Nothing changes when any resulting position would be non-finite.
func (w *World) Advance(dt float64) (int, error) {
	if err := checkScalar("advance", dt, false); err != nil {
		return 0, err
	}
	if dt == 0 || w.motions.Len() == 0 {
		return 0, nil
	}

	type plan struct {
		id      EntityID
		from    geom.Point
		to      geom.Point
		motion  Motion
		arrived bool
	}
	var (
		plans []plan
		moves []Move
	)
	for _, id := range w.motions.Keys() {
		m, _ := w.motions.Get(id)
		e, ok := w.index.Get(id)
		if !ok {
			// Despawn drops motions, so this is a bookkeeping bug; heal it.
			w.motions.Remove(id)
			w.log.Warn("motion without entity dropped", zap.Uint64("id", uint64(id)))
			continue
		}
		next, updated, arrived := m.step(e.Coords, dt)
		if !next.Finite() || !updated.Velocity.Finite() {
			return 0, &CoordinateError{Op: "advance", Point: next}
		}
		plans = append(plans, plan{id: id, from: e.Coords, to: next, motion: updated, arrived: arrived})
		if next != e.Coords {
			moves = append(moves, Move{ID: id, To: next})
		}
	}

	if err := w.index.RelocateMany(moves, w.rebuildRatio); err != nil {
		return 0, err
	}

	for _, p := range plans {
		if p.to != p.from {
			event.Emit(w.bus, EntityMoved{ID: p.id, From: p.from, To: p.to})
		}
		if p.arrived {
			w.motions.Remove(p.id)
			event.Emit(w.bus, EntityArrived{ID: p.id, At: p.to})
			w.log.Debug("entity arrived", zap.Uint64("id", uint64(p.id)),
				zap.Float64("x", p.to.X), zap.Float64("y", p.to.Y))
			continue
		}
		m, _ := w.motions.Get(p.id)
		*m = p.motion
	}
	return len(moves), nil
}
