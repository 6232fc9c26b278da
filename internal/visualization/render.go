package visualization

import (
	"fmt"
	"image/color"
	"math"
	"sort"
	"time"

	"gridrange-sim/internal/simulation"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	arrowScale  = 10.0 // Arrow length per unit of velocity
	arrowHead   = 6.0
	strokeWidth = 1.0
)

var (
	backgroundColor = color.RGBA{255, 255, 255, 255}
	gridColor       = color.RGBA{173, 216, 230, 255} // Light blue
	stationaryColor = color.RGBA{65, 105, 225, 255}  // Royal blue
	mobileColor     = color.RGBA{128, 128, 128, 255} // Gray
	radiusColor     = color.RGBA{0, 0, 200, 60}
	arrowColor      = color.RGBA{0, 0, 0, 255}
)

type pendingTick struct {
	due time.Time
	fn  func() error
}

// Renderer implements ebiten.Game. It also serves as the simulation's Drawer
// and Scheduler, so every tick runs on ebiten's game goroutine.
type Renderer struct {
	rows, cols int
	gridSize   float64
	showRadius bool

	frame   map[string]simulation.Snapshot
	pending []pendingTick
	ticks   int
	stopped bool

	now func() time.Time
}

// NewRenderer creates a renderer for a rows x cols grid of gridSize pixel cells.
func NewRenderer(rows, cols int, gridSize float64, showRadius bool) *Renderer {
	return &Renderer{
		rows:       rows,
		cols:       cols,
		gridSize:   gridSize,
		showRadius: showRadius,
		frame:      make(map[string]simulation.Snapshot),
		now:        time.Now,
	}
}

// ScreenSize returns the window size the grid needs.
func (r *Renderer) ScreenSize() (int, int) {
	return int(float64(r.cols) * r.gridSize), int(float64(r.rows) * r.gridSize)
}

// ScheduleTick queues fn to run from Update once delay has elapsed.
// Timing is best effort, bounded by ebiten's tick rate.
func (r *Renderer) ScheduleTick(delay time.Duration, fn func() error) {
	r.pending = append(r.pending, pendingTick{due: r.now().Add(delay), fn: fn})
}

// RequestDraw stores the node state shown from the next frame on.
func (r *Renderer) RequestDraw(n simulation.Snapshot) {
	r.frame[n.ID] = n
}

// RequestErase removes the node from the picture.
func (r *Renderer) RequestErase(id string) {
	delete(r.frame, id)
}

// Update runs every simulation tick that is due. An error from a tick ends the game loop.
func (r *Renderer) Update() error {
	now := r.now()
	due := r.pending
	r.pending = nil // Ticks scheduled while running land here

	for _, p := range due {
		if p.due.After(now) {
			r.pending = append(r.pending, p)
			continue
		}
		r.ticks++
		if err := p.fn(); err != nil {
			r.stopped = true
			return err
		}
	}
	if len(r.pending) == 0 {
		r.stopped = true
	}
	return nil
}

// Draw is called every frame to render the grid and the nodes.
func (r *Renderer) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)
	r.drawGrid(screen)

	// Stationary nodes first so mobile nodes stay on top
	nodes := make([]simulation.Snapshot, 0, len(r.frame))
	for _, n := range r.frame {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Kind != nodes[j].Kind {
			return nodes[i].Kind < nodes[j].Kind
		}
		return nodes[i].ID < nodes[j].ID
	})
	for _, n := range nodes {
		r.drawNode(screen, n)
	}

	r.drawDebugInfo(screen, len(nodes))
}

func (r *Renderer) drawGrid(screen *ebiten.Image) {
	g := float32(r.gridSize)
	for row := 0; row < r.rows; row++ {
		for col := 0; col < r.cols; col++ {
			vector.StrokeRect(screen, float32(col)*g, float32(row)*g, g, g, strokeWidth, gridColor, false)
		}
	}
}

func (r *Renderer) drawNode(screen *ebiten.Image, n simulation.Snapshot) {
	cx, cy := float32(n.Center.X), float32(n.Center.Y)

	if r.showRadius && n.CommRadius > 0 {
		vector.StrokeCircle(screen, cx, cy, float32(n.CommRadius), strokeWidth, radiusColor, true)
	}

	fill := stationaryColor
	if n.Kind == simulation.Mobile {
		fill = mobileColor
	}
	vector.DrawFilledCircle(screen, cx, cy, float32(n.Width/2), fill, true)

	if n.Kind != simulation.Mobile || n.Velocity <= 0 {
		return
	}
	// Direction vector; screen y grows downwards
	rads := n.Direction * math.Pi / 180
	length := arrowScale * n.Velocity
	tipX := n.Center.X + length*math.Cos(rads)
	tipY := n.Center.Y - length*math.Sin(rads)
	vector.StrokeLine(screen, cx, cy, float32(tipX), float32(tipY), strokeWidth, arrowColor, true)
	for _, side := range []float64{-1, 1} {
		back := rads + math.Pi + side*math.Pi/6
		hx := tipX + arrowHead*math.Cos(back)
		hy := tipY - arrowHead*math.Sin(back)
		vector.StrokeLine(screen, float32(tipX), float32(tipY), float32(hx), float32(hy), strokeWidth, arrowColor, true)
	}
}

func (r *Renderer) drawDebugInfo(screen *ebiten.Image, visible int) {
	state := "running"
	if r.stopped {
		state = "stopped"
	}
	msg := fmt.Sprintf("Ticks: %d (%s)\n", r.ticks, state)
	msg += fmt.Sprintf("FPS: %.1f, TPS: %.1f\n", ebiten.ActualFPS(), ebiten.ActualTPS())
	msg += fmt.Sprintf("Nodes: %d", visible)
	ebitenutil.DebugPrint(screen, msg)
}

// Layout keeps the logical screen at the grid size regardless of the window size.
func (r *Renderer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return r.ScreenSize()
}
