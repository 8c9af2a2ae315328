package galaxy

import (
	"slices"

	"github.com/cosmicrafts/galaxy/internal/core/event"
)

// DefaultFrameHistory is how many frames a FrameLog keeps when asked for
// a non-positive capacity.
const DefaultFrameHistory = 256

// Frame lists what changed since the previous frame: the current state of
// every entity spawned, moved, transferred or updated, and the ids of the
// entities removed. Renderers replay frames in Number order on top of an
// initial All() snapshot.
type Frame struct {
	Number    uint64     `msgpack:"n"`
	Timestamp int64      `msgpack:"ts"`
	Entities  []Entity   `msgpack:"entities"`
	Removed   []EntityID `msgpack:"removed,omitempty"`
}

// FrameLog records frames from World events into a bounded history.
type FrameLog struct {
	frames   []Frame
	capacity int
	last     uint64
	touched  map[EntityID]struct{}
}

// NewFrameLog creates a log that keeps the newest capacity frames and
// subscribes to the world events on bus.
func NewFrameLog(capacity int, bus *event.Bus) *FrameLog {
	if capacity <= 0 {
		capacity = DefaultFrameHistory
	}
	l := &FrameLog{
		capacity: capacity,
		touched:  make(map[EntityID]struct{}),
	}
	event.Subscribe(bus, func(e EntitySpawned) { l.touch(e.Entity.ID) })
	event.Subscribe(bus, func(e EntityMoved) { l.touch(e.ID) })
	event.Subscribe(bus, func(e EntityRemoved) { l.touch(e.Entity.ID) })
	event.Subscribe(bus, func(e OwnerChanged) { l.touch(e.ID) })
	event.Subscribe(bus, func(e PayloadChanged) { l.touch(e.ID) })
	return l
}

func (l *FrameLog) touch(id EntityID) { l.touched[id] = struct{}{} }

// Record closes the current frame. The state of each touched entity is
// read from w at this moment, so the frame is consistent no matter in which
// order the events were delivered.
func (l *FrameLog) Record(w *World, timestamp int64) Frame {
	ids := make([]EntityID, 0, len(l.touched))
	for id := range l.touched {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	clear(l.touched)

	l.last++
	f := Frame{Number: l.last, Timestamp: timestamp, Entities: []Entity{}}
	for _, id := range ids {
		if e, ok := w.Get(id); ok {
			f.Entities = append(f.Entities, e)
		} else {
			f.Removed = append(f.Removed, id)
		}
	}

	l.frames = append(l.frames, f)
	if len(l.frames) > l.capacity {
		l.frames = slices.Delete(l.frames, 0, len(l.frames)-l.capacity)
	}
	return f
}

// Latest returns the number of the newest frame, 0 before the first one.
func (l *FrameLog) Latest() uint64 { return l.last }

// Since returns the retained frames numbered after n, oldest first. A
// caller that falls further behind than the history gets only what is
// left and should resync from a full snapshot; Oldest tells it when.
func (l *FrameLog) Since(n uint64) []Frame {
	if n >= l.last {
		return nil
	}
	i, _ := slices.BinarySearchFunc(l.frames, n+1, func(f Frame, target uint64) int {
		switch {
		case f.Number < target:
			return -1
		case f.Number > target:
			return 1
		}
		return 0
	})
	return slices.Clone(l.frames[i:])
}

// Oldest returns the number of the oldest retained frame, 0 when empty.
func (l *FrameLog) Oldest() uint64 {
	if len(l.frames) == 0 {
		return 0
	}
	return l.frames[0].Number
}
