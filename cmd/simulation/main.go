package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"gridrange-sim/internal/channel"
	"gridrange-sim/internal/config"
	"gridrange-sim/internal/headless"
	"gridrange-sim/internal/simulation"
	"gridrange-sim/internal/visualization"
	"gridrange-sim/pkg/logger"

	"github.com/hajimehoshi/ebiten/v2"
)

func init() {
	logger.Init()
}

func main() {
	// --- Configuration ---
	configPath := flag.String("config", "", "Path to a TOML config file")
	seed := flag.Int64("seed", 0, "Random seed for node radii")
	fifoPath := flag.String("fifo", "", "Control FIFO path")
	rows := flag.Int("rows", 0, "Grid rows")
	cols := flag.Int("cols", 0, "Grid columns")
	grid := flag.Int("grid", 0, "Grid cell size in pixels")
	numStationary := flag.Int("stationary", 0, "Number of stationary nodes")
	numMobile := flag.Int("mobile", 0, "Number of mobile nodes")
	isHeadless := flag.Bool("headless", false, "Run without a window")
	checkRanges := flag.Bool("check-ranges", false, "Run pairwise range detection every tick")
	removeOutside := flag.Bool("remove-outside", false, "Remove nodes that leave the grid")
	showRadius := flag.Bool("show-radius", false, "Draw communication radii")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Log.Fatalf("Error loading config: %v", err)
		}
		cfg = loaded
	}

	// Flags given explicitly win over the file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "seed":
			cfg.Seed = *seed
		case "fifo":
			cfg.FifoPath = *fifoPath
		case "rows":
			cfg.Rows = *rows
		case "cols":
			cfg.Cols = *cols
		case "grid":
			cfg.GridSize = *grid
		case "stationary":
			cfg.NumStationary = *numStationary
		case "mobile":
			cfg.NumMobile = *numMobile
		case "headless":
			cfg.Headless = *isHeadless
		case "check-ranges":
			cfg.CheckRanges = *checkRanges
		case "remove-outside":
			cfg.RemoveOutside = *removeOutside
		}
	})
	if err := cfg.Validate(); err != nil {
		logger.Log.Fatalf("Error in configuration: %v", err)
	}

	// --- Control channel ---
	fifo, err := channel.Open(cfg.FifoPath, cfg.BufferSize)
	if err != nil {
		logger.Log.Fatalf("Error opening control channel: %v", err)
	}
	defer fifo.Close()
	logger.Log.WithField("fifo", fifo.Path()).Info("Listening for node positions")

	if cfg.Headless {
		err = runHeadless(cfg, fifo)
	} else {
		err = runWindow(cfg, fifo, *showRadius)
	}
	if err != nil {
		fifo.Close()
		logger.Log.Fatalf("Simulation failed: %v", err)
	}
	logger.Log.Info("Application finished.")
}

func runHeadless(cfg config.Config, fifo *channel.FIFO) error {
	runner := headless.NewRunner()
	world, err := simulation.NewFromConfig(cfg, fifo, runner, runner)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := world.Start(); err != nil {
		return err
	}
	err = runner.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Log.Info("Shutting down...")
		return nil
	}
	return err
}

func runWindow(cfg config.Config, fifo *channel.FIFO, showRadius bool) error {
	renderer := visualization.NewRenderer(cfg.Rows, cfg.Cols, float64(cfg.GridSize), showRadius)
	world, err := simulation.NewFromConfig(cfg, fifo, renderer, renderer)
	if err != nil {
		return err
	}
	if err := world.Start(); err != nil {
		return err
	}

	width, height := renderer.ScreenSize()
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowTitle("Grid Range Simulation")
	return ebiten.RunGame(renderer)
}
