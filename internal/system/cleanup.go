package system

import (
	"errors"
	"time"

	"go.uber.org/zap"

	coresys "github.com/cosmicrafts/galaxy/internal/core/system"
	"github.com/cosmicrafts/galaxy/internal/galaxy"
)

// CleanupSystem despawns entities queued during the tick once every other
// phase has run, so nothing in the same tick sees an entity vanish halfway.
// Phase 4 (Cleanup).
type CleanupSystem struct {
	world *galaxy.World
	queue []galaxy.EntityID
	log   *zap.Logger
}

func NewCleanupSystem(w *galaxy.World, log *zap.Logger) *CleanupSystem {
	return &CleanupSystem{world: w, log: log.With(zap.String("component", "cleanup"))}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

// Queue schedules id for removal at the end of the tick.
func (s *CleanupSystem) Queue(id galaxy.EntityID) {
	s.queue = append(s.queue, id)
}

func (s *CleanupSystem) Update(_ time.Duration) {
	for _, id := range s.queue {
		if _, err := s.world.Despawn(id); err != nil && !errors.Is(err, galaxy.ErrNotFound) {
			s.log.Warn("despawn failed", zap.Uint64("id", uint64(id)), zap.Error(err))
		}
	}
	s.queue = s.queue[:0]
}
