package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/cosmicrafts/galaxy/internal/core/system"
	"github.com/cosmicrafts/galaxy/internal/galaxy"
)

// MotionSystem advances every moving entity by the tick length.
// Phase 1 (Update).
type MotionSystem struct {
	world *galaxy.World
	log   *zap.Logger
	moved int
}

func NewMotionSystem(w *galaxy.World, log *zap.Logger) *MotionSystem {
	return &MotionSystem{world: w, log: log.With(zap.String("component", "motion"))}
}

func (s *MotionSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *MotionSystem) Update(dt time.Duration) {
	n, err := s.world.Advance(dt.Seconds())
	if err != nil {
		// The world is unchanged; the offending motion keeps failing until
		// someone clears it, so this is logged every tick.
		s.log.Error("advance failed", zap.Duration("dt", dt), zap.Error(err))
		return
	}
	s.moved += n
}

// Moved returns the total number of entity moves applied so far.
func (s *MotionSystem) Moved() int { return s.moved }
