package galaxy

import (
	"errors"
	"testing"

	"github.com/cosmicrafts/galaxy/internal/core/event"
	"github.com/cosmicrafts/galaxy/internal/geom"
)

func TestMoveToArrivesAndStops(t *testing.T) {
	w, bus := newWorld(t)
	var arrived []EntityArrived
	event.Subscribe(bus, func(e EntityArrived) { arrived = append(arrived, e) })

	fleet, _ := w.Spawn(KindFleet, "alice", geom.Pt(0, 0), nil)
	if err := w.MoveTo(fleet.ID, geom.Pt(10, 0), 2); err != nil {
		t.Fatal(err)
	}

	n, err := w.Advance(1)
	if err != nil || n != 1 {
		t.Fatalf("Advance = %d, %v", n, err)
	}
	if e, _ := w.Get(fleet.ID); e.Coords != geom.Pt(5, 0) {
		t.Fatalf("after 1s at %v, want (5,0)", e.Coords)
	}

	if _, err := w.Advance(1.5); err != nil {
		t.Fatal(err)
	}
	if e, _ := w.Get(fleet.ID); e.Coords != geom.Pt(10, 0) {
		t.Fatalf("overshoot not clamped: at %v", e.Coords)
	}
	if _, ok := w.MotionOf(fleet.ID); ok {
		t.Error("motion kept after arrival")
	}
	got, _ := w.QueryRadius(geom.Pt(10, 0), 0)
	if len(got) != 1 {
		t.Errorf("index does not see the fleet at its destination: %v", idsOf(got))
	}

	bus.Flush()
	if len(arrived) != 1 || arrived[0].ID != fleet.ID || arrived[0].At != geom.Pt(10, 0) {
		t.Errorf("arrived = %+v", arrived)
	}

	if n, _ := w.Advance(1); n != 0 {
		t.Errorf("Advance with no motions moved %d", n)
	}
}

func TestMovingAwayNeverArrives(t *testing.T) {
	w, bus := newWorld(t)
	var arrived int
	event.Subscribe(bus, func(EntityArrived) { arrived++ })

	e, _ := w.Spawn(KindFleet, "", geom.Pt(0, 0), nil)
	dest := geom.Pt(10, 0)
	if err := w.SetMotion(e.ID, Motion{Velocity: geom.Vector{DX: -20}, Destination: &dest}); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Advance(1); err != nil {
		t.Fatal(err)
	}
	if got, _ := w.Get(e.ID); got.Coords != geom.Pt(-20, 0) {
		t.Fatalf("at %v, want (-20,0)", got.Coords)
	}
	if _, ok := w.MotionOf(e.ID); !ok {
		t.Error("motion dropped while heading away from the destination")
	}

	// A sideways step whose projection covers the way in still arrives.
	_ = w.Relocate(e.ID, geom.Pt(0, 0), nil)
	_ = w.SetMotion(e.ID, Motion{Velocity: geom.Vector{DX: 12, DY: 3}, Destination: &dest})
	if _, err := w.Advance(1); err != nil {
		t.Fatal(err)
	}
	if got, _ := w.Get(e.ID); got.Coords != dest {
		t.Errorf("at %v, want the destination", got.Coords)
	}
	bus.Flush()
	if arrived != 1 {
		t.Errorf("arrivals = %d, want 1", arrived)
	}
}

func TestMoveToValidation(t *testing.T) {
	w, _ := newWorld(t)
	e, _ := w.Spawn(KindShip, "", geom.Pt(1, 1), nil)

	if err := w.MoveTo(e.ID, geom.Pt(2, 2), 0); !errors.Is(err, ErrInvalidCoordinate) {
		t.Errorf("zero duration err = %v", err)
	}
	if err := w.MoveTo(e.ID, geom.Pt(2, 2), -1); !errors.Is(err, ErrInvalidCoordinate) {
		t.Errorf("negative duration err = %v", err)
	}
	if err := w.MoveTo(99, geom.Pt(2, 2), 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown id err = %v", err)
	}
	if err := w.MoveTo(e.ID, geom.Pt(1, 1), 1); err != nil || w.Moving() != 0 {
		t.Errorf("move to own position: err = %v, moving = %d", err, w.Moving())
	}
}

func TestAccelerationIntegrates(t *testing.T) {
	w, _ := newWorld(t)
	e, _ := w.Spawn(KindShip, "", geom.Pt(0, 0), nil)
	if err := w.SetMotion(e.ID, Motion{Acceleration: geom.Vector{DX: 2}}); err != nil {
		t.Fatal(err)
	}
	for _, want := range []geom.Point{geom.Pt(2, 0), geom.Pt(6, 0)} {
		if _, err := w.Advance(1); err != nil {
			t.Fatal(err)
		}
		if got, _ := w.Get(e.ID); got.Coords != want {
			t.Fatalf("at %v, want %v", got.Coords, want)
		}
	}
	m, ok := w.MotionOf(e.ID)
	if !ok || m.Velocity != (geom.Vector{DX: 4}) {
		t.Errorf("motion = %+v, %v", m, ok)
	}
}

func TestAdvanceIsAtomic(t *testing.T) {
	w, _ := newWorld(t)
	a, _ := w.Spawn(KindShip, "", geom.Pt(0, 0), nil)
	b, _ := w.Spawn(KindShip, "", geom.Pt(0, 0), nil)
	_ = w.SetMotion(a.ID, Motion{Velocity: geom.Vector{DX: 1}})
	_ = w.SetMotion(b.ID, Motion{Velocity: geom.Vector{DX: 1e308}})

	if _, err := w.Advance(10); !errors.Is(err, ErrInvalidCoordinate) {
		t.Fatalf("overflowing advance err = %v", err)
	}
	for _, id := range []EntityID{a.ID, b.ID} {
		if e, _ := w.Get(id); e.Coords != geom.Pt(0, 0) {
			t.Errorf("entity %d moved to %v by a failed advance", id, e.Coords)
		}
	}
}

func TestAdvanceRepacksLargeBatches(t *testing.T) {
	w, _ := newWorld(t)
	for i := 0; i < 20; i++ {
		e, _ := w.Spawn(KindFleet, "", geom.Pt(float64(i), 0), nil)
		_ = w.SetMotion(e.ID, Motion{Velocity: geom.Vector{DY: 1}})
	}
	n, err := w.Advance(3)
	if err != nil || n != 20 {
		t.Fatalf("Advance = %d, %v", n, err)
	}
	got, _ := w.QueryRange(geom.Pt(0, 3), geom.Pt(19, 3))
	if len(got) != 20 {
		t.Errorf("%d entities on the new row, want 20", len(got))
	}
	got, _ = w.QueryRange(geom.Pt(0, 0), geom.Pt(19, 0))
	if len(got) != 0 {
		t.Errorf("%d entities left on the old row", len(got))
	}
}

func TestSetMotionIdleClears(t *testing.T) {
	w, _ := newWorld(t)
	e, _ := w.Spawn(KindShip, "", geom.Pt(0, 0), nil)
	dest := geom.Pt(4, 4)
	_ = w.SetMotion(e.ID, Motion{Velocity: geom.Vector{DX: 1, DY: 1}, Destination: &dest})
	dest.X = 100
	m, _ := w.MotionOf(e.ID)
	if *m.Destination != geom.Pt(4, 4) {
		t.Errorf("motion aliases the caller's destination: %v", *m.Destination)
	}

	if err := w.SetMotion(e.ID, Motion{}); err != nil {
		t.Fatal(err)
	}
	if w.Moving() != 0 {
		t.Error("idle motion did not clear")
	}

	_ = w.SetMotion(e.ID, Motion{Velocity: geom.Vector{DX: 1}})
	if _, err := w.Despawn(e.ID); err != nil {
		t.Fatal(err)
	}
	if w.Moving() != 0 {
		t.Error("despawn left a motion behind")
	}
}
