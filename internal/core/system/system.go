package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain queued commands
	PhaseUpdate                  // 1: integrate motion
	PhasePostUpdate              // 2: deliver this tick's events
	PhaseOutput                  // 3: close the frame
	PhaseCleanup                 // 4: despawn queued entities
)

var phaseNames = [...]string{"input", "update", "post_update", "output", "cleanup"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
