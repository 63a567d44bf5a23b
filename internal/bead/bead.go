// Package bead defines the value types shared by the beading strategies and
// the skeletal trapezoidation: Beading (a thickness decomposed into beads),
// and the extrusion geometry (junctions, lines, and inset buckets) that
// those beads are rendered into.
package bead

import "math"

// Coord is a signed coordinate or length in micrometers.
type Coord = int64

// Point is a 2D point in micrometers.
type Point struct {
	X, Y Coord
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Add returns p + q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Scale returns p scaled by f, rounding to the nearest micrometer.
func (p Point) Scale(f float64) Point {
	return Point{
		X: Coord(math.Round(float64(p.X) * f)),
		Y: Coord(math.Round(float64(p.Y) * f)),
	}
}

// Lerp linearly interpolates between p and q by t in [0,1].
func Lerp(p, q Point, t float64) Point {
	return Point{
		X: p.X + Coord(math.Round(float64(q.X-p.X)*t)),
		Y: p.Y + Coord(math.Round(float64(q.Y-p.Y)*t)),
	}
}

// Dist returns the Euclidean distance between p and q.
func Dist(p, q Point) float64 {
	dx := float64(q.X - p.X)
	dy := float64(q.Y - p.Y)
	return math.Hypot(dx, dy)
}

// Beading is the decomposition of a local cross-section thickness into a
// sequence of bead widths and centerline offsets ("toolpath locations"),
// as produced by a BeadingStrategy for one (thickness, bead count) pair.
type Beading struct {
	TotalThickness    Coord
	BeadWidths        []Coord
	ToolpathLocations []Coord
	LeftOver          Coord
	// FlowRatios is parallel to BeadWidths; nil means "all 1.0".
	FlowRatios []float64
}

// FlowRatio returns the flow multiplier for bead i, defaulting to 1.0.
func (b Beading) FlowRatio(i int) float64 {
	if i < 0 || i >= len(b.FlowRatios) {
		return 1.0
	}
	return b.FlowRatios[i]
}

// Valid checks the structural invariants of a Beading: equal-length
// parallel slices, strictly increasing locations, and a thickness that
// balances against bead widths plus left-over.
func (b Beading) Valid() bool {
	if len(b.BeadWidths) != len(b.ToolpathLocations) {
		return false
	}
	for i := 1; i < len(b.ToolpathLocations); i++ {
		if b.ToolpathLocations[i] <= b.ToolpathLocations[i-1] {
			return false
		}
	}
	var sum Coord
	for _, w := range b.BeadWidths {
		sum += w
	}
	// Allow a few micrometers of rounding slack; this is integer geometry
	// built from float-derived ratios.
	diff := b.TotalThickness - (sum + b.LeftOver)
	if diff < 0 {
		diff = -diff
	}
	return diff <= 2
}

// Interpolate produces a Beading that blends left and right by ratioLeft
// (1.0 == all left, 0.0 == all right). Bead widths and
// toolpath locations are blended component-wise; a bead that is zero-width
// on either side stays zero (these mark the 0-width "contour lines" used
// for inner-contour extraction, and must never acquire spurious width from
// blending with a real bead on the other side).
//
// If switchingRadius is non-nil, the caller is interpolating around the
// radius at which one bead disappears. If the blended toolpath_location for
// the inset immediately outside switchingRadius would still exceed it, the
// ratio is re-solved so that inset lands exactly on switchingRadius, biased
// by +0.1 and clamped to [0,1], and the interpolation re-run once. This
// keeps an inset from visually "jumping inward" across the transition.
func Interpolate(left Beading, ratioLeft float64, right Beading, switchingRadius *Coord) Beading {
	out := interpolateOnce(left, ratioLeft, right)
	if switchingRadius == nil {
		return out
	}

	n := len(out.ToolpathLocations)
	outsideIdx := -1
	for i := 0; i < n; i++ {
		if out.ToolpathLocations[i] > *switchingRadius {
			outsideIdx = i
			break
		}
	}
	if outsideIdx < 0 {
		return out
	}

	lLoc := locationOrZero(left, outsideIdx)
	rLoc := locationOrZero(right, outsideIdx)
	denom := float64(lLoc - rLoc)
	if denom == 0 {
		return out
	}
	// Solve for ratio such that lerp(rLoc, lLoc, ratio) == switchingRadius.
	ratio := float64(*switchingRadius-rLoc) / denom
	ratio += 0.1
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return interpolateOnce(left, ratio, right)
}

func locationOrZero(b Beading, idx int) Coord {
	if idx < len(b.ToolpathLocations) {
		return b.ToolpathLocations[idx]
	}
	if len(b.ToolpathLocations) > 0 {
		return b.ToolpathLocations[len(b.ToolpathLocations)-1]
	}
	return 0
}

func interpolateOnce(left Beading, ratioLeft float64, right Beading) Beading {
	n := len(left.BeadWidths)
	if len(right.BeadWidths) > n {
		n = len(right.BeadWidths)
	}
	widths := make([]Coord, n)
	locs := make([]Coord, n)
	flows := make([]float64, n)
	for i := 0; i < n; i++ {
		lw := widthOrZero(left, i)
		rw := widthOrZero(right, i)
		if lw == 0 || rw == 0 {
			widths[i] = 0
		} else {
			widths[i] = lerpCoord(lw, rw, ratioLeft)
		}
		locs[i] = lerpCoord(locationOrZero(left, i), locationOrZero(right, i), ratioLeft)
		flows[i] = left.FlowRatio(i)*ratioLeft + right.FlowRatio(i)*(1-ratioLeft)
	}
	thickness := lerpCoord(left.TotalThickness, right.TotalThickness, ratioLeft)
	leftOver := lerpCoord(left.LeftOver, right.LeftOver, ratioLeft)
	return Beading{
		TotalThickness:    thickness,
		BeadWidths:        widths,
		ToolpathLocations: locs,
		LeftOver:          leftOver,
		FlowRatios:        flows,
	}
}

func widthOrZero(b Beading, idx int) Coord {
	if idx < len(b.BeadWidths) {
		return b.BeadWidths[idx]
	}
	return 0
}

func lerpCoord(a, b Coord, ratioA float64) Coord {
	return Coord(math.Round(float64(a)*ratioA + float64(b)*(1-ratioA)))
}

// ExtrusionJunction is one centerline sample of a bead: a point, its width,
// and the perimeter (inset) index it belongs to. Owned by its enclosing
// ExtrusionLine.
type ExtrusionJunction struct {
	P              Point
	W              Coord
	PerimeterIndex int
}

// ExtrusionLine is a polyline of junctions forming one continuous bead
// toolpath segment.
type ExtrusionLine struct {
	Junctions []ExtrusionJunction
	IsClosed  bool
	// IsOdd marks a single-bead thin-feature segment (an odd bead count
	// region collapsed to one centerline).
	IsOdd bool
	// InsetIdx is the perimeter ring this line belongs to; 0 is the outer wall.
	InsetIdx int
}

// IsOuterWall reports whether this line is the outermost wall (inset 0).
func (l *ExtrusionLine) IsOuterWall() bool { return l.InsetIdx == 0 }

// Length returns the total polyline length.
func (l *ExtrusionLine) Length() float64 {
	var total float64
	for i := 1; i < len(l.Junctions); i++ {
		total += Dist(l.Junctions[i-1].P, l.Junctions[i].P)
	}
	return total
}

// MinWidth returns the smallest junction width on the line, or 0 if empty.
func (l *ExtrusionLine) MinWidth() Coord {
	if len(l.Junctions) == 0 {
		return 0
	}
	min := l.Junctions[0].W
	for _, j := range l.Junctions[1:] {
		if j.W < min {
			min = j.W
		}
	}
	return min
}

// Front returns the first junction.
func (l *ExtrusionLine) Front() ExtrusionJunction { return l.Junctions[0] }

// Back returns the last junction.
func (l *ExtrusionLine) Back() ExtrusionJunction { return l.Junctions[len(l.Junctions)-1] }

// VariableWidthLines bundles every ExtrusionLine sharing one inset index.
type VariableWidthLines struct {
	InsetIdx int
	Lines    []*ExtrusionLine
}

// Empty reports whether the bucket has no non-empty lines.
func (v VariableWidthLines) Empty() bool {
	for _, l := range v.Lines {
		if len(l.Junctions) > 0 {
			return false
		}
	}
	return true
}
