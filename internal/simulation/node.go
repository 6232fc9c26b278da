package simulation

import (
	"errors"
	"fmt"

	"gridrange-sim/internal/geometry"
)

// Slices is how many steps a single grid box is split into.
const Slices = 50

// ErrInvalidState reports an operation called on a node that cannot support it.
var ErrInvalidState = errors.New("invalid node state")

// Kind tells stationary nodes apart from mobile ones.
type Kind int

const (
	Stationary Kind = iota
	Mobile
)

func (k Kind) String() string {
	switch k {
	case Stationary:
		return "stationary"
	case Mobile:
		return "mobile"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// RangeResult is the outcome of a range test between two nodes.
type RangeResult int

const (
	OutOfRange RangeResult = iota
	InRange
	NotApplicable // A node compared with itself
)

func (r RangeResult) String() string {
	switch r {
	case OutOfRange:
		return "out of range"
	case InRange:
		return "in range"
	case NotApplicable:
		return "not applicable"
	default:
		return fmt.Sprintf("RangeResult(%d)", int(r))
	}
}

// Node is a stationary or mobile participant on the grid.
type Node struct {
	ID         string
	Center     geometry.Point
	CommRadius float64 // Own detection range, in pixels
	Kind       Kind
	Velocity   float64
	Direction  float64 // Heading in degrees, mobile nodes only
	Width      float64 // Drawn diameter, in pixels

	Targets     []geometry.Point
	TargetIndex int

	gridSize float64
}

// NodeOptions carries the optional parts of a node.
type NodeOptions struct {
	Kind      Kind
	Velocity  float64
	Direction float64
	Targets   []geometry.Point
}

// NewNode creates a node at the given row and column, scaling the radius (in
// grid cells) to pixels.
func NewNode(id string, row, col, commRadius, gridSize float64, opts NodeOptions) (*Node, error) {
	if commRadius < 0 {
		return nil, fmt.Errorf("node %s: communication radius must not be negative, got %.3f", id, commRadius)
	}
	if gridSize <= 0 {
		return nil, fmt.Errorf("node %s: grid size must be positive, got %.3f", id, gridSize)
	}
	targets := make([]geometry.Point, len(opts.Targets))
	copy(targets, opts.Targets)
	return &Node{
		ID:         id,
		Center:     geometry.Pt(col*gridSize, row*gridSize),
		CommRadius: commRadius * gridSize,
		Kind:       opts.Kind,
		Velocity:   opts.Velocity,
		Direction:  opts.Direction,
		Width:      0.5 * gridSize,
		Targets:    targets,
		gridSize:   gridSize,
	}, nil
}

// StepSize is the distance a mobile node covers in one step at its velocity.
// Stationary nodes do not step.
func (n *Node) StepSize() float64 {
	if n.Kind != Mobile {
		return 0
	}
	return n.Velocity * (n.gridSize / Slices)
}

// InRange reports whether other's center lies within the circle of other's
// radius around this node's center. The test uses the other node's radius,
// so a.InRange(b) and b.InRange(a) may differ.
func (n *Node) InRange(other *Node) RangeResult {
	if n == other {
		return NotApplicable
	}
	if geometry.CircleContains(n.Center, other.CommRadius, other.Center) {
		return InRange
	}
	return OutOfRange
}

// CurrentTarget returns the waypoint the node is heading to, if it has any.
func (n *Node) CurrentTarget() (geometry.Point, bool) {
	if len(n.Targets) == 0 {
		return geometry.Point{}, false
	}
	return n.Targets[n.TargetIndex%len(n.Targets)], true
}

// AdvanceTarget moves to the next waypoint, wrapping around, and returns it.
func (n *Node) AdvanceTarget() (geometry.Point, error) {
	if len(n.Targets) == 0 {
		return geometry.Point{}, fmt.Errorf("%w: node %s has no targets to advance", ErrInvalidState, n.ID)
	}
	n.TargetIndex = (n.TargetIndex + 1) % len(n.Targets)
	return n.Targets[n.TargetIndex], nil
}

// OverlapsBoundary reports whether the node sits outside rect while its
// communication circle still crosses rect's boundary.
func (n *Node) OverlapsBoundary(rect geometry.Rect) bool {
	return geometry.RectangleBoundaryOverlap(n.Center, n.CommRadius, rect)
}

// OutsideGrid reports whether the node and its whole communication circle lie outside rect.
func (n *Node) OutsideGrid(rect geometry.Rect) bool {
	return !geometry.RectContains(rect, n.Center) && !n.OverlapsBoundary(rect)
}

// Snapshot is a copy of the node state a renderer needs.
type Snapshot struct {
	ID         string
	Center     geometry.Point
	CommRadius float64
	Kind       Kind
	Velocity   float64
	Direction  float64
	Width      float64
}

// Snapshot copies the drawable state of the node.
func (n *Node) Snapshot() Snapshot {
	return Snapshot{
		ID:         n.ID,
		Center:     n.Center,
		CommRadius: n.CommRadius,
		Kind:       n.Kind,
		Velocity:   n.Velocity,
		Direction:  n.Direction,
		Width:      n.Width,
	}
}

// String representation for logging
func (n *Node) String() string {
	return fmt.Sprintf("Node[%s] %s Pos: %s Radius: %.2f", n.ID, n.Kind, geometry.Format(n.Center), n.CommRadius)
}
