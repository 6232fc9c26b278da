package simulation

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gridrange-sim/internal/geometry"
	"gridrange-sim/pkg/logger"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultRefreshRate is the best-effort delay between two ticks.
const DefaultRefreshRate = 15 * time.Millisecond

// State of the tick loop. Stopped is terminal.
type State int

const (
	Running State = iota
	Stopped
)

func (s State) String() string {
	if s == Stopped {
		return "stopped"
	}
	return "running"
}

// Options configures a World.
type Options struct {
	Rows, Cols int
	GridSize   float64       // Cell size in pixels
	Interval   time.Duration // Delay between ticks

	CheckRanges   bool // Run pairwise range detection every tick
	RemoveOutside bool // Drop nodes whose circle left the grid entirely
}

// World owns the node set and drives the fixed-interval update loop.
// It is not safe for concurrent use; all ticks must run on one goroutine.
type World struct {
	id            string
	rows, cols    int
	gridSize      float64
	bounds        geometry.Rect
	interval      time.Duration
	checkRanges   bool
	removeOutside bool

	nodes         []*Node // Stationary nodes first, then mobile nodes
	numStationary int

	control   ControlSource
	drawer    Drawer
	scheduler Scheduler

	lastPayload string
	hasPayload  bool // lastPayload holds the previous tick's payload

	dirty      map[*Node]struct{}
	dirtyOrder []*Node

	state State
	ticks int
	log   *logrus.Entry
}

// NewWorld creates an empty world wired to its collaborators.
func NewWorld(opts Options, control ControlSource, drawer Drawer, scheduler Scheduler) (*World, error) {
	if opts.Rows <= 0 || opts.Cols <= 0 {
		return nil, fmt.Errorf("grid must have positive rows and cols, got %dx%d", opts.Rows, opts.Cols)
	}
	if opts.GridSize <= 0 {
		return nil, fmt.Errorf("grid size must be positive, got %.3f", opts.GridSize)
	}
	if control == nil || drawer == nil || scheduler == nil {
		return nil, errors.New("world needs a control source, a drawer and a scheduler")
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultRefreshRate
	}

	id := uuid.NewString()[:8]
	return &World{
		id:            id,
		rows:          opts.Rows,
		cols:          opts.Cols,
		gridSize:      opts.GridSize,
		bounds:        geometry.NewRect(float64(opts.Cols)*opts.GridSize, float64(opts.Rows)*opts.GridSize),
		interval:      opts.Interval,
		checkRanges:   opts.CheckRanges,
		removeOutside: opts.RemoveOutside,
		control:       control,
		drawer:        drawer,
		scheduler:     scheduler,
		dirty:         make(map[*Node]struct{}),
		state:         Running,
		log:           logger.Log.WithField("run", id),
	}, nil
}

// AddNode appends a node. Stationary nodes count towards the stop threshold
// and are expected to be added before any mobile node.
func (w *World) AddNode(n *Node) {
	w.nodes = append(w.nodes, n)
	if n.Kind == Stationary {
		w.numStationary++
	}
}

// ID returns the run identifier used in log lines.
func (w *World) ID() string { return w.id }

// Rows returns the number of grid rows.
func (w *World) Rows() int { return w.rows }

// Cols returns the number of grid columns.
func (w *World) Cols() int { return w.cols }

// GridSize returns the cell size in pixels.
func (w *World) GridSize() float64 { return w.gridSize }

// Bounds returns the grid rectangle in pixels.
func (w *World) Bounds() geometry.Rect { return w.bounds }

// State returns the loop state.
func (w *World) State() State { return w.state }

// Ticks returns how many ticks have run.
func (w *World) Ticks() int { return w.ticks }

// NumStationary returns the stop threshold fixed at initialization.
func (w *World) NumStationary() int { return w.numStationary }

// Nodes returns the nodes in insertion order.
func (w *World) Nodes() []*Node {
	nodes := make([]*Node, len(w.nodes))
	copy(nodes, w.nodes)
	return nodes
}

// Node returns the first node with the given ID.
func (w *World) Node(id string) (*Node, bool) {
	for _, n := range w.nodes {
		if n.ID == id {
			return n, true
		}
	}
	return nil, false
}

// Start draws every node once and runs the first tick. Later ticks are
// scheduled by the tick itself.
func (w *World) Start() error {
	w.log.WithFields(logrus.Fields{
		"rows":       w.rows,
		"cols":       w.cols,
		"grid":       w.gridSize,
		"stationary": w.numStationary,
		"nodes":      len(w.nodes),
	}).Info("Starting simulation")
	for _, n := range w.nodes {
		w.drawer.RequestDraw(n.Snapshot())
	}
	return w.Tick()
}

// Tick runs one iteration of the update loop: poll the control channel,
// apply new updates, redraw changed nodes, then stop or schedule the next tick.
func (w *World) Tick() error {
	if w.state == Stopped {
		return nil
	}
	w.ticks++

	payload, ok, err := w.control.Poll()
	if err != nil {
		w.state = Stopped
		w.log.WithError(err).Error("Control channel failed, stopping")
		return fmt.Errorf("tick %d: %w", w.ticks, err)
	}
	w.Receive(payload, ok)

	if w.checkRanges {
		w.CheckRanges()
	}
	if w.removeOutside {
		w.removeOutsideNodes()
	}
	w.flushDraws()

	// Only stationary nodes left
	if len(w.nodes) <= w.numStationary {
		w.state = Stopped
		w.log.WithField("ticks", w.ticks).Info("No mobile nodes left, simulation stopped")
		return nil
	}
	w.scheduler.ScheduleTick(w.interval, w.Tick)
	return nil
}

// Receive handles the outcome of one poll. A payload is applied only when it
// is non-empty and differs from the one received on the previous poll.
// It returns the number of node updates applied.
func (w *World) Receive(payload string, ok bool) int {
	applied := 0
	if ok && payload != "" && !(w.hasPayload && payload == w.lastPayload) {
		applied = w.ApplyPayload(payload)
	}
	w.lastPayload, w.hasPayload = payload, ok
	return applied
}

// ApplyPayload parses a control payload and teleports the named mobile nodes.
// Stationary nodes never accept updates; unknown names are ignored.
// It returns the number of node updates applied.
func (w *World) ApplyPayload(payload string) int {
	records, skipped := ParsePayload(payload)
	if skipped > 0 {
		w.log.WithField("skipped", skipped).Debug("Control payload had malformed records")
	}

	applied := 0
	for _, rec := range records {
		target := geometry.Pt(float64(rec.X), float64(rec.Y))
		matched := false
		for _, n := range w.nodes {
			if n.Kind == Stationary || n.ID != rec.Name {
				continue
			}
			dist, rads := geometry.DistanceAngle(n.Center, target)
			n.Direction = rads * 180 / math.Pi
			n.Center = target
			w.markDirty(n)
			matched = true
			applied++

			w.log.WithFields(rec.fields()).WithField("distance", dist).Info("Node moved")
		}
		if !matched {
			w.log.WithFields(rec.fields()).Debug("No mobile node with that name")
		}
	}
	return applied
}

func (w *World) markDirty(n *Node) {
	if _, ok := w.dirty[n]; ok {
		return
	}
	w.dirty[n] = struct{}{}
	w.dirtyOrder = append(w.dirtyOrder, n)
}

// flushDraws requests one redraw per node changed during this tick.
func (w *World) flushDraws() {
	for _, n := range w.dirtyOrder {
		if _, ok := w.dirty[n]; ok {
			w.drawer.RequestDraw(n.Snapshot())
		}
	}
	w.dirtyOrder = w.dirtyOrder[:0]
	clear(w.dirty)
}

// removeOutsideNodes erases and drops every node whose communication circle
// lies entirely outside the grid.
func (w *World) removeOutsideNodes() {
	kept := w.nodes[:0]
	for _, n := range w.nodes {
		if !n.OutsideGrid(w.bounds) {
			kept = append(kept, n)
			continue
		}
		w.drawer.RequestErase(n.ID)
		delete(w.dirty, n)
		w.log.WithField("node", n.ID).WithField("center", geometry.Format(n.Center)).Info("Node left the grid, removed")
	}
	for i := len(kept); i < len(w.nodes); i++ {
		w.nodes[i] = nil
	}
	w.nodes = kept
}
