package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Point represents a position on the grid in pixel coordinates.
type Point = r2.Vec

// Rect is an axis-aligned rectangle given by its min and max corners.
type Rect = r2.Box

// Pt is a shorthand constructor for Point.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// NewRect creates a rectangle spanning [0, width] x [0, height].
func NewRect(width, height float64) Rect {
	return Rect{Min: Pt(0, 0), Max: Pt(width, height)}
}

// Format returns a short string representation of a point for logging.
func Format(p Point) string {
	return fmt.Sprintf("(%.1f, %.1f)", p.X, p.Y)
}

// DistanceAngle calculates the Euclidean distance from p1 to p2 and the heading
// of p2 as seen from p1, in radians within (-Pi, Pi].
func DistanceAngle(p1, p2 Point) (float64, float64) {
	d := r2.Sub(p2, p1)
	return r2.Norm(d), math.Atan2(d.Y, d.X)
}

// Distance calculates the Euclidean distance between two points.
func Distance(p1, p2 Point) float64 {
	return r2.Norm(r2.Sub(p2, p1))
}

// PointSegmentDistance returns the distance from p to the closest point on the
// finite segment [a, b].
func PointSegmentDistance(a, b, p Point) float64 {
	ab := r2.Sub(b, a)
	lenSq := r2.Norm2(ab)
	// Degenerate segment, avoids dividing by zero during projection
	if lenSq == 0 {
		return Distance(b, p)
	}

	t := r2.Dot(r2.Sub(p, a), ab) / lenSq
	t = math.Max(0, math.Min(1, t))
	proj := r2.Add(a, r2.Scale(t, ab))
	return Distance(proj, p)
}

// CircleContains reports whether point lies within the circle of the given
// radius around center. It is optimized for points lying outside the circle.
func CircleContains(center Point, radius float64, point Point) bool {
	dx := math.Abs(center.X - point.X)
	dy := math.Abs(center.Y - point.Y)

	// Outside the square drawn around the circle
	if dx > radius || dy > radius {
		return false
	}
	// Inside the diamond inscribed in the circle
	if dx+dy <= radius {
		return true
	}
	return dx*dx+dy*dy <= radius*radius
}

// RectContains reports whether p lies within r, edges included.
func RectContains(r Rect, p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// RectangleBoundaryOverlap reports whether a circle whose center lies outside
// rect still reaches across the rectangle's boundary. A center inside the
// rectangle yields false; callers treat that case as "inside".
func RectangleBoundaryOverlap(center Point, radius float64, rect Rect) bool {
	if RectContains(rect, center) {
		return false
	}

	// The side the circle is closest to is unknown, so check all four edges.
	topLeft := rect.Min
	topRight := Pt(rect.Max.X, rect.Min.Y)
	bottomLeft := Pt(rect.Min.X, rect.Max.Y)
	bottomRight := rect.Max

	dist := math.Min(
		math.Min(PointSegmentDistance(topLeft, topRight, center), PointSegmentDistance(topLeft, bottomLeft, center)),
		math.Min(PointSegmentDistance(bottomRight, topRight, center), PointSegmentDistance(bottomRight, bottomLeft, center)),
	)
	return dist < radius
}
