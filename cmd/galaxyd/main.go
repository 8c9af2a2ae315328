package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cosmicrafts/galaxy/internal/config"
	"github.com/cosmicrafts/galaxy/internal/core/event"
	coresys "github.com/cosmicrafts/galaxy/internal/core/system"
	"github.com/cosmicrafts/galaxy/internal/data"
	"github.com/cosmicrafts/galaxy/internal/galaxy"
	"github.com/cosmicrafts/galaxy/internal/geom"
	"github.com/cosmicrafts/galaxy/internal/persist"
	"github.com/cosmicrafts/galaxy/internal/scripting"
	"github.com/cosmicrafts/galaxy/internal/snapshot"
	"github.com/cosmicrafts/galaxy/internal/system"
)

const scoutTravel = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgFlag := flag.String("config", "", "config file (default $"+config.EnvPath+" or "+config.DefaultPath+")")
	ticks := flag.Int("ticks", 0, "run this many ticks back to back and exit; 0 runs until interrupted")
	dt := flag.Duration("dt", 0, "simulated time per tick (default simulation.tick_rate)")
	export := flag.String("export", "", "write a msgpack snapshot here on exit")
	scouts := flag.Int("scouts", 4, "scout fleets to launch towards the corners of the galaxy at startup")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load(config.Path(*cfgFlag))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	step := cfg.Simulation.TickRate
	if *dt > 0 {
		step = *dt
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name)

	// 3. Gather seeds
	printSection("seeds")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	seeds, err := loadSeeds(ctx, cfg, log)
	if err != nil {
		return err
	}

	// 4. Build the world
	bus := event.NewBus()
	world, err := galaxy.NewWorld(galaxy.Options{
		MinChildren:  cfg.Index.MinChildren,
		MaxChildren:  cfg.Index.MaxChildren,
		RebuildRatio: cfg.Simulation.RebuildRatio,
		Bus:          bus,
		Logger:       log,
	})
	if err != nil {
		return fmt.Errorf("world: %w", err)
	}
	frames := galaxy.NewFrameLog(cfg.Simulation.FrameHistory, bus)
	if _, err := seeds.Populate(world); err != nil {
		return fmt.Errorf("populate: %w", err)
	}
	printStat("entities", world.Len())
	printStat("moving", world.Moving())
	fmt.Println()

	// 5. Create systems and register with runner
	runner := coresys.NewRunner()
	// Every producer outside the game loop (an admin console, a network
	// front end, the startup scouts below) goes through commands.Submit.
	commands := system.NewCommandSystem(world, cfg.Simulation.CommandQueueSize, cfg.Simulation.MaxCommandsPerTick, log)
	motion := system.NewMotionSystem(world, log)
	dispatch := system.NewDispatchSystem(bus)
	cleanup := system.NewCleanupSystem(world, log)
	runner.Register(commands)
	runner.Register(motion)
	runner.Register(dispatch)
	runner.Register(system.NewFrameSystem(world, frames, nil))
	runner.Register(cleanup)

	// Fleets that arrive are done; clear them out at the end of the tick.
	event.Subscribe(bus, func(e galaxy.EntityArrived) {
		if ent, ok := world.Get(e.ID); ok && ent.Kind == galaxy.KindFleet {
			cleanup.Queue(e.ID)
		}
	})

	printStat("scouts queued", launchScouts(world, commands, *scouts, log))

	// 6. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	printSection("simulation")
	if *ticks > 0 {
		printReady(fmt.Sprintf("running %d ticks of %s", *ticks, step))
		runTicks(runner, *ticks, step, shutdownCh, log)
	} else {
		printReady(fmt.Sprintf("game loop started (tick: %s)", step))
		runLoop(runner, cfg.Simulation.TickRate, step, shutdownCh, log)
	}

	// 7. Report
	fmt.Println()
	printSection("stats")
	printStat("ticks", int(runner.Ticks()))
	printStat("entities", world.Len())
	printStat("moving", world.Moving())
	printStat("moves applied", motion.Moved())
	printStat("events delivered", dispatch.Delivered())
	printStat("failed commands", commands.Failed())
	printStat("frames retained", len(frames.Since(0)))
	if box, ok := world.Bounds(); ok {
		printValue("bounds", fmt.Sprintf("(%.1f, %.1f) to (%.1f, %.1f)", box.Min.X, box.Min.Y, box.Max.X, box.Max.Y))
	}
	if near, ok, _ := world.QueryNearest(geom.Pt(0, 0)); ok {
		printValue("nearest to origin", fmt.Sprintf("#%d %s", near.ID, near.Kind))
	}

	if *export != "" {
		snap := snapshot.Capture(cfg.Server.Name, world, frames, time.Now().UnixMilli())
		if err := snapshot.WriteFile(*export, snap); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		printOK(fmt.Sprintf("snapshot written to %s", *export))
	}
	log.Info("galaxy stopped", zap.Uint64("ticks", runner.Ticks()))
	return nil
}

// launchScouts queues n fleets that leave the entity nearest the centre of
// the galaxy for its corners. It returns how many were queued.
func launchScouts(world *galaxy.World, commands *system.CommandSystem, n int, log *zap.Logger) int {
	box, ok := world.Bounds()
	if n <= 0 || !ok {
		return 0
	}
	centre := geom.Pt(box.Min.X/2+box.Max.X/2, box.Min.Y/2+box.Max.Y/2)
	home, ok, err := world.QueryNearest(centre)
	if err != nil || !ok {
		return 0
	}
	corners := []geom.Point{box.Max, box.Min, geom.Pt(box.Min.X, box.Max.Y), geom.Pt(box.Max.X, box.Min.Y)}
	queued := 0
	for i := 0; i < n; i++ {
		cmd := system.Launch("scouts", home.Coords, corners[i%len(corners)], scoutTravel)
		if err := commands.Submit(cmd); err != nil {
			log.Warn("scout not launched", zap.Int("scout", i), zap.Error(err))
			break
		}
		queued++
	}
	return queued
}

// loadSeeds merges the yaml seed, the database catalog and the Lua
// generator output, in that order. Each source is optional.
func loadSeeds(ctx context.Context, cfg *config.Config, log *zap.Logger) (*data.SeedTable, error) {
	seeds := data.NewSeedTable(nil)

	if cfg.Seed.YAMLPath != "" {
		table, err := data.LoadSeedTable(cfg.Seed.YAMLPath)
		if err != nil {
			return nil, fmt.Errorf("seed table: %w", err)
		}
		seeds.Merge(table)
		printStat("yaml seed", table.Count())
	}

	if cfg.Database.Enabled {
		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		table, err := persist.NewCatalogRepo(db).LoadSeeds(ctx)
		if err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		seeds.Merge(table)
		printStat("catalog", table.Count())
	}

	if cfg.Seed.LuaDir != "" && cfg.Seed.GenerateCount > 0 {
		engine, err := scripting.NewEngine(cfg.Seed.LuaDir, log)
		if err != nil {
			return nil, fmt.Errorf("lua engine: %w", err)
		}
		defer engine.Close()
		generated, err := engine.GenerateCluster(scripting.ClusterContext{
			Count:  cfg.Seed.GenerateCount,
			Radius: cfg.Seed.GenerateRadius,
			Kind:   cfg.Seed.GenerateKind,
			Seed:   scripting.DeriveSeed(cfg.Seed.GeneratePhrase),
		})
		if err != nil {
			return nil, err
		}
		seeds.Merge(data.NewSeedTable(generated))
		printStat("generated", len(generated))
	}

	return seeds, nil
}

// runTicks runs n ticks as fast as possible, stopping early on a signal.
func runTicks(runner *coresys.Runner, n int, step time.Duration, shutdownCh <-chan os.Signal, log *zap.Logger) {
	for i := 0; i < n; i++ {
		select {
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()), zap.Int("tick", i))
			return
		default:
		}
		runner.Tick(step)
	}
}

// runLoop ticks on a wall-clock ticker until a signal arrives.
func runLoop(runner *coresys.Runner, rate, step time.Duration, shutdownCh <-chan os.Signal, log *zap.Logger) {
	ticker := time.NewTicker(rate)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			runner.Tick(step)
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			return
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
