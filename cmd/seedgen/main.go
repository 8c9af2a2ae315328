// seedgen runs the Lua cluster generator and writes the result as a yaml
// seed list that galaxyd can load.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/cosmicrafts/galaxy/internal/data"
	"github.com/cosmicrafts/galaxy/internal/galaxy"
	"github.com/cosmicrafts/galaxy/internal/geom"
	"github.com/cosmicrafts/galaxy/internal/scripting"
)

func main() {
	scripts := flag.String("scripts", "scripts", "lua scripts directory")
	count := flag.Int("count", 100, "entities to generate")
	radius := flag.Float64("radius", 1000, "cluster radius")
	kind := flag.String("kind", "star", "entity kind")
	owner := flag.String("owner", "", "owner of every generated entity")
	phrase := flag.String("phrase", "cosmicrafts", "seed phrase")
	cx := flag.Float64("cx", 0, "cluster centre x")
	cy := flag.Float64("cy", 0, "cluster centre y")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: seedgen [flags] <output.yaml>")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if _, err := galaxy.ParseKind(*kind); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	engine, err := scripting.NewEngine(*scripts, zap.NewNop())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer engine.Close()

	entries, err := engine.GenerateCluster(scripting.ClusterContext{
		Count:  *count,
		Radius: *radius,
		Kind:   *kind,
		Center: geom.Pt(*cx, *cy),
		Owner:  *owner,
		Seed:   scripting.DeriveSeed(*phrase),
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	header := fmt.Sprintf("Galaxy seed, generated from phrase %q (%d entries)", *phrase, len(entries))
	if err := data.NewSeedTable(entries).Write(flag.Arg(0), header); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %d seed entries to %s\n", len(entries), flag.Arg(0))
}
