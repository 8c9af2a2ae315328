package scripting

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM running the world generation scripts.
// Single-goroutine access only.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
	rng *rand.Rand
}

// NewEngine creates a Lua engine and loads all scripts from the given directory.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{
		vm:  vm,
		log: log.With(zap.String("component", "lua")),
		rng: rand.New(rand.NewSource(1)),
	}
	e.registerRandom()

	// Core helpers first, then generators that use them.
	for _, sub := range []string{"core", "world"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}

	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// registerRandom exposes a seedable generator to scripts. math.random is
// left alone but generators should use these so output depends only on
// the seed.
func (e *Engine) registerRandom() {
	e.vm.SetGlobal("rand_float", e.vm.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(e.rng.Float64()))
		return 1
	}))
	e.vm.SetGlobal("rand_int", e.vm.NewFunction(func(L *lua.LState) int {
		lo := L.CheckInt(1)
		hi := L.CheckInt(2)
		if hi < lo {
			L.ArgError(2, "upper bound below lower bound")
			return 0
		}
		L.Push(lua.LNumber(lo + e.rng.Intn(hi-lo+1)))
		return 1
	}))
}

// Reseed restarts the script random generator.
func (e *Engine) Reseed(seed int64) {
	e.rng.Seed(seed)
}

// HasFunc reports whether a global Lua function with that name is loaded.
func (e *Engine) HasFunc(name string) bool {
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// --- Lua helpers ---

// lNum reads a number field from a Lua table.
func lNum(t *lua.LTable, key string) float64 {
	return float64(lua.LVAsNumber(t.RawGetString(key)))
}

// lStr reads a string field from a Lua table.
func lStr(t *lua.LTable, key string) string {
	return lua.LVAsString(t.RawGetString(key))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
