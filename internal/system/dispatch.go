package system

import (
	"time"

	"github.com/cosmicrafts/galaxy/internal/core/event"
	coresys "github.com/cosmicrafts/galaxy/internal/core/system"
)

// DispatchSystem delivers the events emitted so far this tick.
// Phase 2 (PostUpdate).
type DispatchSystem struct {
	bus       *event.Bus
	delivered int
}

func NewDispatchSystem(bus *event.Bus) *DispatchSystem {
	return &DispatchSystem{bus: bus}
}

func (s *DispatchSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *DispatchSystem) Update(_ time.Duration) {
	s.delivered += s.bus.Flush()
}

// Delivered returns how many events have been dispatched.
func (s *DispatchSystem) Delivered() int { return s.delivered }
