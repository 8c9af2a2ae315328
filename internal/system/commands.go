package system

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	coresys "github.com/cosmicrafts/galaxy/internal/core/system"
	"github.com/cosmicrafts/galaxy/internal/galaxy"
	"github.com/cosmicrafts/galaxy/internal/geom"
)

// ErrQueueFull is returned by Submit when the command queue has no room.
var ErrQueueFull = errors.New("command queue full")

// Command is a world mutation requested from outside the game loop.
type Command struct {
	Name string
	Run  func(w *galaxy.World) error
}

// Launch returns a command that spawns a fleet for owner at from and
// sends it to dest, arriving after travel. Nothing is spawned when travel
// is not positive.
func Launch(owner string, from, dest geom.Point, travel time.Duration) Command {
	return Command{Name: "launch", Run: func(w *galaxy.World) error {
		if travel <= 0 {
			return fmt.Errorf("launch: travel time %s not positive", travel)
		}
		fleet, err := w.Spawn(galaxy.KindFleet, owner, from, nil)
		if err != nil {
			return err
		}
		return w.MoveTo(fleet.ID, dest, travel.Seconds())
	}}
}

// CommandSystem is the only way other goroutines reach the World: they
// Submit commands, and the game loop runs up to maxPerTick of them at the
// start of each tick. Phase 0 (Input).
type CommandSystem struct {
	world      *galaxy.World
	queue      chan Command
	maxPerTick int
	log        *zap.Logger
	failed     int
}

func NewCommandSystem(w *galaxy.World, capacity, maxPerTick int, log *zap.Logger) *CommandSystem {
	if capacity <= 0 {
		capacity = 1024
	}
	if maxPerTick <= 0 {
		maxPerTick = capacity
	}
	return &CommandSystem{
		world:      w,
		queue:      make(chan Command, capacity),
		maxPerTick: maxPerTick,
		log:        log.With(zap.String("component", "commands")),
	}
}

func (s *CommandSystem) Phase() coresys.Phase { return coresys.PhaseInput }

// Submit queues cmd without blocking. Safe for concurrent use.
func (s *CommandSystem) Submit(cmd Command) error {
	select {
	case s.queue <- cmd:
		return nil
	default:
		return ErrQueueFull
	}
}

func (s *CommandSystem) Update(_ time.Duration) {
	for i := 0; i < s.maxPerTick; i++ {
		select {
		case cmd := <-s.queue:
			if err := cmd.Run(s.world); err != nil {
				s.failed++
				s.log.Debug("command failed", zap.String("command", cmd.Name), zap.Error(err))
			}
		default:
			return
		}
	}
}

// Pending returns how many commands wait for the next tick.
func (s *CommandSystem) Pending() int { return len(s.queue) }

// Failed returns how many commands returned an error.
func (s *CommandSystem) Failed() int { return s.failed }
