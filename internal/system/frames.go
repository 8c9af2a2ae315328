package system

import (
	"time"

	coresys "github.com/cosmicrafts/galaxy/internal/core/system"
	"github.com/cosmicrafts/galaxy/internal/galaxy"
)

// FrameSystem closes one frame per tick, stamped in Unix milliseconds.
// Phase 3 (Output).
type FrameSystem struct {
	world  *galaxy.World
	frames *galaxy.FrameLog
	now    func() time.Time
}

func NewFrameSystem(w *galaxy.World, frames *galaxy.FrameLog, now func() time.Time) *FrameSystem {
	if now == nil {
		now = time.Now
	}
	return &FrameSystem{world: w, frames: frames, now: now}
}

func (s *FrameSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *FrameSystem) Update(_ time.Duration) {
	s.frames.Record(s.world, s.now().UnixMilli())
}
