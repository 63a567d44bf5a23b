// Package beading implements the beading-strategy chain: a composable stack
// of bead-count/bead-width decision rules invoked locally along the medial
// axis by the skeletal trapezoidation. A base distributed strategy is
// wrapped by zero or more decorators, each overriding some of the four core
// questions (optimal thickness, transition thickness, optimal bead count,
// compute) while delegating the rest to its parent.
package beading

import (
	"math"

	"github.com/wsd07/CuraEngine/internal/bead"
)

// Strategy answers the four questions of a beading engine, plus the three
// auxiliary queries the skeletal trapezoidation needs to place transitions
// and extra sampling ribs. Every decorator keeps all seven as distinct
// methods rather than fusing them, since a single override (e.g. only
// OptimalBeadCount) must not silently change the others.
type Strategy interface {
	// OptimalThickness is the thickness at which n beads of nominal width
	// exactly fit.
	OptimalThickness(n int) bead.Coord
	// TransitionThickness is the thickness at which the engine flips from
	// n to n+1 beads.
	TransitionThickness(n int) bead.Coord
	// OptimalBeadCount is the chosen bead count at thickness t.
	OptimalBeadCount(t bead.Coord) int
	// Compute produces a full Beading for thickness t at count n.
	Compute(t bead.Coord, n int) bead.Beading
	// TransitioningLength is the length (in edge-distance units) a
	// transition between n and n+1 beads spans.
	TransitioningLength(n int) bead.Coord
	// TransitionAnchorPos is the fraction in [0,1] locating the
	// transition mid along the transition length.
	TransitionAnchorPos(n int) float64
	// NonlinearThicknesses returns extra thicknesses at which rib edges
	// should be inserted to capture nonlinear width changes for beads
	// count n.
	NonlinearThicknesses(n int) []bead.Coord
}

func clampCoord(v, lo, hi bead.Coord) bead.Coord {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Distributed is the base strategy: n beads of nominal width, with the
// deviation from the optimal total absorbed by the innermost
// DistributionCount beads and an even/odd-count asymmetric transition
// threshold.
type Distributed struct {
	OptimalWidth         bead.Coord
	SplitMiddleThreshold float64 // applied for the n -> n+1 transition when n is odd
	AddMiddleThreshold   float64 // applied for the n -> n+1 transition when n is even
	// DistributionCount is how many centermost beads absorb the difference
	// between the section thickness and n beads of nominal width
	// (wall_distribution_count). The outer beads hold their nominal width.
	DistributionCount     int
	DefaultTransitionLen  bead.Coord
	DefaultTransitionAnch float64
}

// NewDistributed returns a Distributed strategy with the given nominal
// bead width and default thresholds (0.5 for both, i.e. midpoint flips).
func NewDistributed(optimalWidth bead.Coord) *Distributed {
	return &Distributed{
		OptimalWidth:          optimalWidth,
		SplitMiddleThreshold:  0.5,
		AddMiddleThreshold:    0.5,
		DistributionCount:     1,
		DefaultTransitionLen:  optimalWidth,
		DefaultTransitionAnch: 0.5,
	}
}

func (d *Distributed) OptimalThickness(n int) bead.Coord {
	if n <= 0 {
		return 0
	}
	return bead.Coord(n) * d.OptimalWidth
}

func (d *Distributed) TransitionThickness(n int) bead.Coord {
	threshold := d.AddMiddleThreshold
	if n%2 == 1 {
		threshold = d.SplitMiddleThreshold
	}
	optN := d.OptimalThickness(n)
	optN1 := d.OptimalThickness(n + 1)
	return optN + bead.Coord(threshold*float64(optN1-optN))
}

func (d *Distributed) OptimalBeadCount(t bead.Coord) int {
	if d.OptimalWidth <= 0 || t <= 0 {
		return 0
	}
	n := int(t / d.OptimalWidth)
	if t >= d.TransitionThickness(n) {
		n++
	}
	return n
}

func (d *Distributed) Compute(t bead.Coord, n int) bead.Beading {
	if n <= 0 {
		return bead.Beading{TotalThickness: t, LeftOver: t}
	}
	widths := make([]bead.Coord, n)
	for i := range widths {
		widths[i] = d.OptimalWidth
	}

	// The outer beads hold their nominal width for surface quality; the
	// innermost DistributionCount beads (widened to a symmetric span when
	// the remainder would otherwise sit off-center) absorb the deviation.
	diff := t - bead.Coord(n)*d.OptimalWidth
	m := d.DistributionCount
	if m < 1 {
		m = 1
	}
	if m > n {
		m = n
	}
	if (n-m)%2 == 1 {
		m++
	}
	lo := (n - m) / 2
	perBead := float64(diff) / float64(m)
	var acc float64
	var assigned bead.Coord
	for i := lo; i < lo+m; i++ {
		acc += perBead
		w := bead.Coord(math.Round(acc)) - assigned
		widths[i] += w
		assigned += w
	}

	locs := make([]bead.Coord, n)
	var cursor bead.Coord
	for i := 0; i < n; i++ {
		locs[i] = cursor + widths[i]/2
		cursor += widths[i]
	}
	return bead.Beading{TotalThickness: t, BeadWidths: widths, ToolpathLocations: locs, LeftOver: 0}
}

func (d *Distributed) TransitioningLength(n int) bead.Coord { return d.DefaultTransitionLen }

func (d *Distributed) TransitionAnchorPos(n int) float64 { return d.DefaultTransitionAnch }

func (d *Distributed) NonlinearThicknesses(n int) []bead.Coord { return nil }

// Widening decorates a parent strategy: when the thickness is smaller than
// the parent's single-bead optimal width, it either emits one clamped bead
// (if the feature is at least MinInputWidth) or declares the feature
// unprintable (left_over = t).
type Widening struct {
	Parent         Strategy
	MinInputWidth  bead.Coord
	MinOutputWidth bead.Coord
}

func (w *Widening) optimalWidth() bead.Coord { return w.Parent.OptimalThickness(1) }

func (w *Widening) OptimalThickness(n int) bead.Coord { return w.Parent.OptimalThickness(n) }

func (w *Widening) TransitionThickness(n int) bead.Coord { return w.Parent.TransitionThickness(n) }

func (w *Widening) OptimalBeadCount(t bead.Coord) int {
	ow := w.optimalWidth()
	if t < ow {
		if t >= w.MinInputWidth {
			return 1
		}
		return 0
	}
	return w.Parent.OptimalBeadCount(t)
}

func (w *Widening) Compute(t bead.Coord, n int) bead.Beading {
	ow := w.optimalWidth()
	if t < ow {
		if t >= w.MinInputWidth {
			width := clampCoord(t, w.MinOutputWidth, ow)
			return bead.Beading{
				TotalThickness:    t,
				BeadWidths:        []bead.Coord{width},
				ToolpathLocations: []bead.Coord{t / 2},
				LeftOver:          t - width,
			}
		}
		return bead.Beading{TotalThickness: t, LeftOver: t}
	}
	return w.Parent.Compute(t, n)
}

func (w *Widening) TransitioningLength(n int) bead.Coord    { return w.Parent.TransitioningLength(n) }
func (w *Widening) TransitionAnchorPos(n int) float64       { return w.Parent.TransitionAnchorPos(n) }
func (w *Widening) NonlinearThicknesses(n int) []bead.Coord { return w.Parent.NonlinearThicknesses(n) }

// LimitedCount caps the bead count at MaxBeadCount. A section thicker than
// the cap's optimal thickness keeps the capped profile: the outer beads hold
// their optimal widths hugging both sides of the section, the middle stays
// unfilled (left_over), and a zero-width marker bead is inserted at the
// inner edge of each walled band. Those zero-width "contour line" beads are
// what the wall orchestrator's inner-contour separation keys on.
type LimitedCount struct {
	Parent       Strategy
	MaxBeadCount int
}

func (l *LimitedCount) OptimalThickness(n int) bead.Coord { return l.Parent.OptimalThickness(n) }

func (l *LimitedCount) TransitionThickness(n int) bead.Coord {
	if n >= l.MaxBeadCount {
		return bead.Coord(math.MaxInt64)
	}
	return l.Parent.TransitionThickness(n)
}

// OptimalBeadCount returns the parent's count up to the cap; anything past
// the cap reports MaxBeadCount+1, which Compute recognizes as "capped
// profile plus contour markers".
func (l *LimitedCount) OptimalBeadCount(t bead.Coord) int {
	n := l.Parent.OptimalBeadCount(t)
	if n > l.MaxBeadCount {
		return l.MaxBeadCount + 1
	}
	return n
}

func (l *LimitedCount) Compute(t bead.Coord, n int) bead.Beading {
	if n <= l.MaxBeadCount {
		return l.Parent.Compute(t, n)
	}

	max := l.MaxBeadCount
	opt := l.Parent.OptimalThickness(max)
	b := l.Parent.Compute(opt, max)
	b.LeftOver += t - b.TotalThickness
	b.TotalThickness = t

	widths := append([]bead.Coord(nil), b.BeadWidths...)
	locs := append([]bead.Coord(nil), b.ToolpathLocations...)
	if max%2 == 1 {
		// A center bead stays centered in the widened section.
		locs[max/2] = t / 2
	}
	for i := max/2 + max%2; i < max; i++ {
		locs[i] += t - opt
	}

	// Zero-width markers at the inner edge of each walled band. They emit
	// zero-width junctions tracing the boundary of the unfilled middle,
	// which the orchestrator separates out as the inner contour. With an
	// odd cap the center bead floats inside the unfilled middle, so the
	// markers bracket it.
	nearMark, farMark := opt/2, t-opt/2
	nearEnd := max / 2
	farStart := max/2 + max%2
	outWidths := make([]bead.Coord, 0, max+2)
	outLocs := make([]bead.Coord, 0, max+2)
	outWidths = append(outWidths, widths[:nearEnd]...)
	outLocs = append(outLocs, locs[:nearEnd]...)
	outWidths = append(outWidths, 0)
	outLocs = append(outLocs, nearMark)
	if max%2 == 1 {
		outWidths = append(outWidths, widths[nearEnd])
		outLocs = append(outLocs, locs[nearEnd])
	}
	outWidths = append(outWidths, 0)
	outLocs = append(outLocs, farMark)
	outWidths = append(outWidths, widths[farStart:]...)
	outLocs = append(outLocs, locs[farStart:]...)

	b.BeadWidths = outWidths
	b.ToolpathLocations = outLocs
	return b
}

func (l *LimitedCount) TransitioningLength(n int) bead.Coord { return l.Parent.TransitioningLength(n) }
func (l *LimitedCount) TransitionAnchorPos(n int) float64    { return l.Parent.TransitionAnchorPos(n) }

// NonlinearThicknesses adds the cap's optimal thickness to the parent's
// list: the capped profile kicks in abruptly there, so the skeleton needs a
// sampling rib at that radius to track it.
func (l *LimitedCount) NonlinearThicknesses(n int) []bead.Coord {
	out := append([]bead.Coord(nil), l.Parent.NonlinearThicknesses(n)...)
	if n >= l.MaxBeadCount {
		out = append(out, l.Parent.OptimalThickness(l.MaxBeadCount))
	}
	return out
}

// OuterWallOffset shifts the outermost toolpath location inward by a fixed
// offset, used to compensate for extrusion die-swell on the visible surface
// wall.
type OuterWallOffset struct {
	Parent Strategy
	Offset bead.Coord
}

func (o *OuterWallOffset) OptimalThickness(n int) bead.Coord    { return o.Parent.OptimalThickness(n) }
func (o *OuterWallOffset) TransitionThickness(n int) bead.Coord { return o.Parent.TransitionThickness(n) }
func (o *OuterWallOffset) OptimalBeadCount(t bead.Coord) int    { return o.Parent.OptimalBeadCount(t) }
func (o *OuterWallOffset) TransitioningLength(n int) bead.Coord { return o.Parent.TransitioningLength(n) }
func (o *OuterWallOffset) TransitionAnchorPos(n int) float64    { return o.Parent.TransitionAnchorPos(n) }
func (o *OuterWallOffset) NonlinearThicknesses(n int) []bead.Coord {
	return o.Parent.NonlinearThicknesses(n)
}

func (o *OuterWallOffset) Compute(t bead.Coord, n int) bead.Beading {
	b := o.Parent.Compute(t, n)
	if len(b.ToolpathLocations) > 0 {
		locs := append([]bead.Coord(nil), b.ToolpathLocations...)
		locs[0] += o.Offset
		b.ToolpathLocations = locs
	}
	return b
}

// FixedOuterWall pins the two outermost beads to a fixed width WFixed and
// delegates only the interior portion to the parent.
type FixedOuterWall struct {
	Parent                   Strategy
	WFixed                   bead.Coord
	MinimumVariableLineRatio float64
}

func (f *FixedOuterWall) OptimalThickness(n int) bead.Coord {
	switch {
	case n <= 0:
		return 0
	case n == 1:
		return f.WFixed
	case n == 2:
		return 2 * f.WFixed
	default:
		return 2*f.WFixed + f.Parent.OptimalThickness(n-2)
	}
}

func (f *FixedOuterWall) TransitionThickness(n int) bead.Coord {
	switch n {
	case 0:
		return bead.Coord(f.MinimumVariableLineRatio * float64(f.WFixed))
	case 1:
		return f.WFixed + bead.Coord(f.MinimumVariableLineRatio*float64(f.WFixed))
	case 2:
		return 2*f.WFixed + bead.Coord(f.MinimumVariableLineRatio*float64(f.Parent.OptimalThickness(1)))
	default:
		return 2*f.WFixed + f.Parent.TransitionThickness(n-2)
	}
}

func (f *FixedOuterWall) OptimalBeadCount(t bead.Coord) int {
	n := 0
	for n < 10_000 && t >= f.TransitionThickness(n) {
		n++
	}
	return n
}

func (f *FixedOuterWall) Compute(t bead.Coord, n int) bead.Beading {
	switch {
	case n <= 0:
		return bead.Beading{TotalThickness: t, LeftOver: t}
	case n == 1:
		return bead.Beading{
			TotalThickness:    t,
			BeadWidths:        []bead.Coord{f.WFixed},
			ToolpathLocations: []bead.Coord{t / 2},
			LeftOver:          t - f.WFixed,
		}
	case n == 2:
		return bead.Beading{
			TotalThickness:    t,
			BeadWidths:        []bead.Coord{f.WFixed, f.WFixed},
			ToolpathLocations: []bead.Coord{f.WFixed / 2, t - f.WFixed/2},
			LeftOver:          t - 2*f.WFixed,
		}
	default:
		inner := t - 2*f.WFixed
		parentB := f.Parent.Compute(inner, n-2)
		widths := make([]bead.Coord, n)
		locs := make([]bead.Coord, n)
		widths[0] = f.WFixed
		widths[n-1] = f.WFixed
		for i, w := range parentB.BeadWidths {
			widths[i+1] = w
		}
		locs[0] = f.WFixed / 2
		for i, l := range parentB.ToolpathLocations {
			locs[i+1] = l + f.WFixed
		}
		locs[n-1] = t - f.WFixed/2
		return bead.Beading{
			TotalThickness:    t,
			BeadWidths:        widths,
			ToolpathLocations: locs,
			LeftOver:          parentB.LeftOver,
		}
	}
}

func (f *FixedOuterWall) TransitioningLength(n int) bead.Coord {
	if n >= 3 {
		return f.Parent.TransitioningLength(n - 2)
	}
	return f.WFixed
}

func (f *FixedOuterWall) TransitionAnchorPos(n int) float64 {
	if n >= 3 {
		return f.Parent.TransitionAnchorPos(n - 2)
	}
	return 0.5
}

func (f *FixedOuterWall) NonlinearThicknesses(n int) []bead.Coord {
	if n >= 3 {
		return f.Parent.NonlinearThicknesses(n - 2)
	}
	return nil
}

// FlowCompensated recomputes with a stable bead width between
// MinTargetWidth and MinStableWidth and attaches a per-bead flow-ratio
// multiplier so the extruded volume still matches the true thickness times
// the nominal width, instead of under-extruding at the narrower true width.
type FlowCompensated struct {
	Parent         Strategy
	MinTargetWidth bead.Coord
	MinStableWidth bead.Coord
}

func (c *FlowCompensated) OptimalThickness(n int) bead.Coord    { return c.Parent.OptimalThickness(n) }
func (c *FlowCompensated) TransitionThickness(n int) bead.Coord { return c.Parent.TransitionThickness(n) }
func (c *FlowCompensated) OptimalBeadCount(t bead.Coord) int    { return c.Parent.OptimalBeadCount(t) }
func (c *FlowCompensated) TransitioningLength(n int) bead.Coord { return c.Parent.TransitioningLength(n) }
func (c *FlowCompensated) TransitionAnchorPos(n int) float64    { return c.Parent.TransitionAnchorPos(n) }
func (c *FlowCompensated) NonlinearThicknesses(n int) []bead.Coord {
	return c.Parent.NonlinearThicknesses(n)
}

func (c *FlowCompensated) Compute(t bead.Coord, n int) bead.Beading {
	if t < c.MinTargetWidth || t >= c.MinStableWidth {
		return c.Parent.Compute(t, n)
	}
	stable := c.Parent.Compute(c.MinStableWidth, n)
	if c.MinStableWidth == 0 {
		return stable
	}
	ratio := float64(t) / float64(c.MinStableWidth)
	flows := make([]float64, len(stable.BeadWidths))
	for i := range flows {
		flows[i] = ratio
	}
	stable.FlowRatios = flows
	stable.TotalThickness = t
	return stable
}
