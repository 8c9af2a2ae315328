// Package snapshot exports the galaxy in msgpack so an offline renderer or
// a later cold start can pick it up.
package snapshot

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/cosmicrafts/galaxy/internal/galaxy"
)

// Version is bumped whenever the encoded layout changes.
const Version = 1

// ErrVersion means the snapshot was written by an incompatible build.
var ErrVersion = errors.New("unsupported snapshot version")

// MotionRecord pairs a motion with the entity it belongs to.
type MotionRecord struct {
	ID     galaxy.EntityID `msgpack:"id"`
	Motion galaxy.Motion   `msgpack:"motion"`
}

// Snapshot is the full state of a world at one frame.
type Snapshot struct {
	Version   int             `msgpack:"v"`
	Name      string          `msgpack:"name"`
	Timestamp int64           `msgpack:"ts"`
	Frame     uint64          `msgpack:"frame"`
	LastID    galaxy.EntityID `msgpack:"last_id"`
	Entities  []galaxy.Entity `msgpack:"entities"`
	Motions   []MotionRecord  `msgpack:"motions,omitempty"`
	Frames    []galaxy.Frame  `msgpack:"frames,omitempty"`
}

// Capture copies the world's state. frames may be nil; when set, the
// retained frame history is included.
func Capture(name string, w *galaxy.World, frames *galaxy.FrameLog, timestamp int64) *Snapshot {
	s := &Snapshot{
		Version:   Version,
		Name:      name,
		Timestamp: timestamp,
		LastID:    w.LastID(),
		Entities:  w.All(),
	}
	for _, e := range s.Entities {
		if m, ok := w.MotionOf(e.ID); ok {
			s.Motions = append(s.Motions, MotionRecord{ID: e.ID, Motion: m})
		}
	}
	if frames != nil {
		s.Frame = frames.Latest()
		s.Frames = frames.Since(0)
	}
	return s
}

// Restore replaces w's contents with the snapshot's entities and motions.
func (s *Snapshot) Restore(w *galaxy.World) error {
	if _, err := w.Populate(s.Entities); err != nil {
		return fmt.Errorf("restore entities: %w", err)
	}
	w.ReserveIDs(s.LastID)
	for _, r := range s.Motions {
		if err := w.SetMotion(r.ID, r.Motion); err != nil {
			return fmt.Errorf("restore motion of %d: %w", r.ID, err)
		}
	}
	return nil
}

// Encode writes s to out.
func Encode(out io.Writer, s *Snapshot) error {
	enc := msgpack.NewEncoder(out)
	enc.UseCompactInts(true)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// Decode reads a snapshot and checks its version.
func Decode(in io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := msgpack.NewDecoder(in).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, s.Version)
	}
	return &s, nil
}

// WriteFile encodes s into path.
func WriteFile(path string, s *Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	bw := bufio.NewWriter(f)
	if err := Encode(bw, s); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	return f.Close()
}

// ReadFile decodes the snapshot stored at path.
func ReadFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	return Decode(bufio.NewReader(f))
}
