// Package route computes drawable edge paths between two points that avoid a
// set of rectangular obstacles. It is pure geometry with no graph
// dependencies, and the scan order is deterministic: identical inputs always
// produce an identical path.
package route

import (
	"fmt"
	"math"
	"strings"
)

// Point is a position on the drawing surface.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned obstacle rectangle, typically a node box.
type Rect struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PathKind identifies which routing strategy produced a path.
type PathKind string

const (
	// PathDirect is a smooth cubic curve along the unobstructed segment.
	PathDirect PathKind = "direct"
	// PathElbowH routes through a vertical middle segment at a scanned x.
	PathElbowH PathKind = "elbow-h"
	// PathElbowV routes through a horizontal middle segment at a scanned y.
	PathElbowV PathKind = "elbow-v"
	// PathFallback is an exaggerated curve with no avoidance guarantee.
	PathFallback PathKind = "fallback"
)

// Path is a drawable route description. D is an SVG-style path string.
type Path struct {
	Kind   PathKind `json:"kind"`
	Points []Point  `json:"points"`
	D      string   `json:"d"`
}

// DefaultStep is the grid-cell-sized step used when scanning for an
// unobstructed elbow.
const DefaultStep = 20.0

// defaultScanAttempts bounds the outward midpoint scan in each variant.
const defaultScanAttempts = 100

// Router computes obstacle-avoiding paths. The zero value uses DefaultStep.
type Router struct {
	// Step is the distance between scanned elbow positions.
	Step float64
	// ScanAttempts caps how many midpoints each elbow variant tries.
	ScanAttempts int
}

// Route computes a drawable path from start to end avoiding the obstacles.
// Rectangles whose id is in exclude (usually the two boxes being connected)
// are ignored. Strategies are tried in order: direct curve, horizontal-elbow
// scan, vertical-elbow scan, exaggerated fallback curve.
func (r Router) Route(start, end Point, obstacles []Rect, exclude map[string]bool) Path {
	step := r.Step
	if step <= 0 {
		step = DefaultStep
	}
	attempts := r.ScanAttempts
	if attempts <= 0 {
		attempts = defaultScanAttempts
	}
	blocked := filterRects(obstacles, exclude)

	if segmentClear(start, end, blocked) {
		return curvePath(PathDirect, start, end, math.Max(60, math.Abs(end.X-start.X)/2))
	}
	if p, ok := scanElbowH(start, end, blocked, step, attempts); ok {
		return p
	}
	if p, ok := scanElbowV(start, end, blocked, step, attempts); ok {
		return p
	}
	return curvePath(PathFallback, start, end, math.Max(120, math.Abs(end.X-start.X)))
}

// Route computes a path with the default router settings.
func Route(start, end Point, obstacles []Rect, exclude map[string]bool) Path {
	return Router{}.Route(start, end, obstacles, exclude)
}

func filterRects(obstacles []Rect, exclude map[string]bool) []Rect {
	if len(exclude) == 0 {
		return obstacles
	}
	out := make([]Rect, 0, len(obstacles))
	for _, o := range obstacles {
		if exclude[o.ID] {
			continue
		}
		out = append(out, o)
	}
	return out
}

// scanElbowH looks for a clear start→(mx,startY)→(mx,endY)→end route, trying
// mx values from the segment midpoint outward in both directions.
func scanElbowH(start, end Point, blocked []Rect, step float64, attempts int) (Path, bool) {
	mid := (start.X + end.X) / 2
	for i := 0; i < attempts; i++ {
		for _, mx := range candidates(mid, i, step) {
			a := Point{X: mx, Y: start.Y}
			b := Point{X: mx, Y: end.Y}
			if segmentClear(start, a, blocked) && segmentClear(a, b, blocked) && segmentClear(b, end, blocked) {
				return elbowPath(PathElbowH, start, a, b, end), true
			}
		}
	}
	return Path{}, false
}

// scanElbowV is the axis-swapped variant: start→(startX,my)→(endX,my)→end.
func scanElbowV(start, end Point, blocked []Rect, step float64, attempts int) (Path, bool) {
	mid := (start.Y + end.Y) / 2
	for i := 0; i < attempts; i++ {
		for _, my := range candidates(mid, i, step) {
			a := Point{X: start.X, Y: my}
			b := Point{X: end.X, Y: my}
			if segmentClear(start, a, blocked) && segmentClear(a, b, blocked) && segmentClear(b, end, blocked) {
				return elbowPath(PathElbowV, start, a, b, end), true
			}
		}
	}
	return Path{}, false
}

// candidates yields the midpoint offsets for scan iteration i: the midpoint
// itself first, then one step outward on each side per iteration.
func candidates(mid float64, i int, step float64) []float64 {
	if i == 0 {
		return []float64{mid}
	}
	offset := float64(i) * step
	return []float64{mid + offset, mid - offset}
}

func curvePath(kind PathKind, start, end Point, offset float64) Path {
	c1 := Point{X: start.X + offset, Y: start.Y}
	c2 := Point{X: end.X - offset, Y: end.Y}
	d := fmt.Sprintf("M %s %s C %s %s, %s %s, %s %s",
		coord(start.X), coord(start.Y),
		coord(c1.X), coord(c1.Y),
		coord(c2.X), coord(c2.Y),
		coord(end.X), coord(end.Y))
	return Path{Kind: kind, Points: []Point{start, c1, c2, end}, D: d}
}

func elbowPath(kind PathKind, pts ...Point) Path {
	var sb strings.Builder
	for i, p := range pts {
		if i == 0 {
			sb.WriteString("M ")
		} else {
			sb.WriteString(" L ")
		}
		sb.WriteString(coord(p.X))
		sb.WriteString(" ")
		sb.WriteString(coord(p.Y))
	}
	return Path{Kind: kind, Points: pts, D: sb.String()}
}

func coord(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

// segmentClear reports whether the segment intersects none of the rectangles.
func segmentClear(p1, p2 Point, rects []Rect) bool {
	for _, r := range rects {
		if segmentIntersectsRect(p1, p2, r) {
			return false
		}
	}
	return true
}

// segmentIntersectsRect reports whether the segment p1-p2 intersects the
// rectangle: either endpoint inside it, or the segment crossing any of its
// four edges.
func segmentIntersectsRect(p1, p2 Point, r Rect) bool {
	if r.contains(p1) || r.contains(p2) {
		return true
	}
	tl := Point{X: r.X, Y: r.Y}
	tr := Point{X: r.X + r.Width, Y: r.Y}
	br := Point{X: r.X + r.Width, Y: r.Y + r.Height}
	bl := Point{X: r.X, Y: r.Y + r.Height}
	return segmentsIntersect(p1, p2, tl, tr) ||
		segmentsIntersect(p1, p2, tr, br) ||
		segmentsIntersect(p1, p2, br, bl) ||
		segmentsIntersect(p1, p2, bl, tl)
}

func (r Rect) contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// segmentsIntersect implements the standard orientation-based line-segment
// intersection test, including collinear overlap.
func segmentsIntersect(p1, p2, p3, p4 Point) bool {
	d1 := cross(p3, p4, p1)
	d2 := cross(p3, p4, p2)
	d3 := cross(p1, p2, p3)
	d4 := cross(p1, p2, p4)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	if d1 == 0 && onSegment(p3, p4, p1) {
		return true
	}
	if d2 == 0 && onSegment(p3, p4, p2) {
		return true
	}
	if d3 == 0 && onSegment(p1, p2, p3) {
		return true
	}
	if d4 == 0 && onSegment(p1, p2, p4) {
		return true
	}
	return false
}

func cross(a, b, c Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

func onSegment(a, b, p Point) bool {
	return math.Min(a.X, b.X) <= p.X && p.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= p.Y && p.Y <= math.Max(a.Y, b.Y)
}
