package simulation

import (
	"fmt"
	"math/rand"

	"gridrange-sim/internal/config"
	"gridrange-sim/internal/geometry"
)

// Start positions, in grid cells, of every mobile node.
const (
	mobileStartRow = 3
	mobileStartCol = 5
)

// NewFromConfig builds a world and populates it: stationary nodes in the middle
// of the grid first, then mobile nodes. The seed only affects the radii.
func NewFromConfig(cfg config.Config, control ControlSource, drawer Drawer, scheduler Scheduler) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	w, err := NewWorld(Options{
		Rows:          cfg.Rows,
		Cols:          cfg.Cols,
		GridSize:      float64(cfg.GridSize),
		Interval:      cfg.RefreshInterval(),
		CheckRanges:   cfg.CheckRanges,
		RemoveOutside: cfg.RemoveOutside,
	}, control, drawer, scheduler)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	grid := float64(cfg.GridSize)

	anchors := make([]geometry.Point, 0, cfg.NumStationary)
	for i := 0; i < cfg.NumStationary; i++ {
		n, err := NewNode(fmt.Sprintf("s%d", i), float64(cfg.Rows/2), float64(cfg.Cols/2), rng.Float64()*4+2, grid,
			NodeOptions{Kind: Stationary})
		if err != nil {
			return nil, fmt.Errorf("failed to create stationary node %d: %w", i, err)
		}
		w.AddNode(n)
		anchors = append(anchors, n.Center)
	}

	for i := 0; i < cfg.NumMobile; i++ {
		opts := NodeOptions{Kind: Mobile}
		if cfg.AssignTargets {
			opts.Targets = anchors
		}
		n, err := NewNode(mobileID(cfg.MobileIDs, i), mobileStartRow, mobileStartCol, rng.Float64()*3+0.5, grid, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to create mobile node %d: %w", i, err)
		}
		w.AddNode(n)
	}
	return w, nil
}

// mobileID names mobile node i from the configured list, falling back to m<i>.
func mobileID(ids []string, i int) string {
	if i < len(ids) && ids[i] != "" {
		return ids[i]
	}
	return fmt.Sprintf("m%d", i)
}
