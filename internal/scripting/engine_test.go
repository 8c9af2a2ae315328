package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/cosmicrafts/galaxy/internal/geom"
)

func shippedEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(filepath.Join("..", "..", "scripts"), zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestDeriveSeed(t *testing.T) {
	if DeriveSeed("cosmicrafts") != DeriveSeed("cosmicrafts") {
		t.Error("seed not deterministic")
	}
	if DeriveSeed("cosmicrafts") == DeriveSeed("cosmicraft") {
		t.Error("different phrases gave the same seed")
	}
}

func TestGenerateClusterShipped(t *testing.T) {
	e := shippedEngine(t)
	if !e.HasFunc("generate_cluster") {
		t.Fatal("generate_cluster not loaded")
	}
	ctx := ClusterContext{Count: 50, Radius: 100, Kind: "star", Center: geom.Pt(10, -10), Seed: DeriveSeed("test")}
	first, err := e.GenerateCluster(ctx)
	if err != nil {
		t.Fatalf("GenerateCluster: %v", err)
	}
	if len(first) != 50 {
		t.Fatalf("got %d entries", len(first))
	}
	for i, s := range first {
		if d := geom.Dist(ctx.Center, geom.Pt(s.X, s.Y)); d > ctx.Radius+1e-9 {
			t.Errorf("entry %d at distance %v outside radius", i, d)
		}
		if _, err := s.Entity(); err != nil {
			t.Errorf("entry %d: %v", i, err)
		}
	}

	second, err := e.GenerateCluster(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for i := range first {
		if first[i].X != second[i].X || first[i].Y != second[i].Y || first[i].Payload != second[i].Payload {
			t.Fatalf("entry %d differs between runs with the same seed", i)
		}
	}
}

func TestGenerateFleetsDrift(t *testing.T) {
	e := shippedEngine(t)
	entries, err := e.GenerateCluster(ClusterContext{Count: 5, Radius: 10, Kind: "fleet", Owner: "alice", Seed: 1})
	if err != nil {
		t.Fatal(err)
	}
	for i, s := range entries {
		if s.Velocity == nil || s.Owner != "alice" {
			t.Errorf("fleet %d = %+v", i, s)
		}
	}
}

func TestGenerateClusterErrors(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "world"), 0o755); err != nil {
		t.Fatal(err)
	}
	script := `
function generate_cluster(ctx)
    if ctx.count < 0 then error("negative count") end
    return { { x = 0/0, y = 1 } }
end
`
	if err := os.WriteFile(filepath.Join(dir, "world", "bad.lua"), []byte(script), 0o644); err != nil {
		t.Fatal(err)
	}
	e, err := NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	if _, err := e.GenerateCluster(ClusterContext{Count: -1, Kind: "star"}); err == nil {
		t.Error("lua error not reported")
	}
	if _, err := e.GenerateCluster(ClusterContext{Count: 1, Kind: "star"}); err == nil {
		t.Error("NaN position accepted")
	}

	empty, err := NewEngine(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer empty.Close()
	if _, err := empty.GenerateCluster(ClusterContext{Count: 1}); err == nil {
		t.Error("missing generate_cluster not reported")
	}
}

func TestLoadReportsSyntaxErrors(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "core"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "core", "broken.lua"), []byte("function ("), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewEngine(dir, zap.NewNop()); err == nil {
		t.Error("syntax error not reported")
	}
}
