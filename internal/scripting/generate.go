package scripting

import (
	"encoding/binary"
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/cosmicrafts/galaxy/internal/data"
	"github.com/cosmicrafts/galaxy/internal/geom"
)

// DeriveSeed hashes a phrase into a generator seed, so a galaxy can be
// named instead of numbered and still come out the same every time.
func DeriveSeed(phrase string) int64 {
	sum := blake2b.Sum256([]byte(phrase))
	return int64(binary.LittleEndian.Uint64(sum[:8]))
}

// ClusterContext is passed to Lua generate_cluster(ctx).
type ClusterContext struct {
	Count  int
	Radius float64
	Kind   string
	Center geom.Point
	Owner  string
	Seed   int64
}

// GenerateCluster calls Lua generate_cluster(ctx) and returns the entities
// it lays out. Each returned row needs kind (defaults to ctx.Kind), x and
// y; owner, payload, note, vx and vy are optional.
func (e *Engine) GenerateCluster(ctx ClusterContext) ([]data.SeedEntry, error) {
	fn, ok := e.vm.GetGlobal("generate_cluster").(*lua.LFunction)
	if !ok {
		return nil, fmt.Errorf("lua generate_cluster not defined")
	}
	e.Reseed(ctx.Seed)

	t := e.vm.NewTable()
	t.RawSetString("count", lua.LNumber(ctx.Count))
	t.RawSetString("radius", lua.LNumber(ctx.Radius))
	t.RawSetString("kind", lua.LString(ctx.Kind))
	t.RawSetString("center_x", lua.LNumber(ctx.Center.X))
	t.RawSetString("center_y", lua.LNumber(ctx.Center.Y))
	t.RawSetString("owner", lua.LString(ctx.Owner))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua generate_cluster error", zap.Error(err), zap.Int("count", ctx.Count))
		return nil, fmt.Errorf("generate_cluster: %w", err)
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("generate_cluster returned %s, want table", result.Type())
	}

	var entries []data.SeedEntry
	var rowErr error
	rt.ForEach(func(_, v lua.LValue) {
		row, ok := v.(*lua.LTable)
		if !ok || rowErr != nil {
			return
		}
		entry := data.SeedEntry{
			Kind:    lStr(row, "kind"),
			Owner:   lStr(row, "owner"),
			X:       lNum(row, "x"),
			Y:       lNum(row, "y"),
			Payload: lStr(row, "payload"),
			Note:    lStr(row, "note"),
		}
		if entry.Kind == "" {
			entry.Kind = ctx.Kind
		}
		if !geom.Pt(entry.X, entry.Y).Finite() {
			rowErr = fmt.Errorf("generate_cluster row %d: non-finite position", len(entries)+1)
			return
		}
		if vel := (geom.Vector{DX: lNum(row, "vx"), DY: lNum(row, "vy")}); !vel.IsZero() {
			entry.Velocity = &vel
		}
		entries = append(entries, entry)
	})
	if rowErr != nil {
		return nil, rowErr
	}

	e.log.Debug("cluster generated", zap.Int("requested", ctx.Count), zap.Int("entities", len(entries)))
	return entries, nil
}
