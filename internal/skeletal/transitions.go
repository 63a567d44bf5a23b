package skeletal

import (
	"math"
	"sort"

	"github.com/wsd07/CuraEngine/internal/bead"
	"github.com/wsd07/CuraEngine/internal/beading"
)

// TransitionMiddle is the point along an upward (increasing-radius)
// central edge where the strategy's bead count steps from LowerBeadCount
// to LowerBeadCount+1.
type TransitionMiddle struct {
	// Pos is the parametric position along the edge, 0 (From) to 1 (To).
	Pos            float64
	LowerBeadCount int
}

// TransitionEnd is one of the two points, on either side of a
// TransitionMiddle, where the transition is considered to have fully
// committed to one side's bead count.
type TransitionEnd struct {
	Pos            float64
	LowerBeadCount int
	IsLowerEnd     bool
}

// AssignBeadCounts seeds bead counts onto the graph:
// every central edge's "to" node, and every peak node, gets a bead count
// from the strategy at its own local thickness (2x distance to boundary).
// Nodes that already carry a count (from a prior call, or ApplyTransitions)
// are left untouched.
func AssignBeadCounts(g *Graph, strategy beading.Strategy) {
	for _, id := range g.AllEdgeIDs() {
		e := g.Edge(id)
		if !e.Central {
			continue
		}
		assignIfUnset(g, e.To, strategy)
	}
	for _, id := range g.AllNodeIDs() {
		n := g.Node(id)
		if n.IsPeak {
			assignIfUnset(g, id, strategy)
		}
	}
}

func assignIfUnset(g *Graph, id NodeID, strategy beading.Strategy) {
	n := g.Node(id)
	if n.BeadCount >= 0 {
		return
	}
	n.BeadCount = strategy.OptimalBeadCount(bead.Coord(2 * n.DistanceToBoundary))
	g.SetNode(id, n)
}

// GenerateTransitionMiddles marks where bead counts change:
// for every central edge whose radius increases from From to To
// and whose endpoints carry different bead counts, place one
// TransitionMiddle per integer bead count crossed, at the position along
// the edge where the radius equals that count's transition thickness.
func GenerateTransitionMiddles(g *Graph, strategy beading.Strategy) {
	for _, id := range g.AllEdgeIDs() {
		e := g.Edge(id)
		if !e.Central {
			continue
		}
		from := g.Node(e.From)
		to := g.Node(e.To)
		if to.DistanceToBoundary <= from.DistanceToBoundary {
			continue
		}
		if from.BeadCount < 0 || to.BeadCount < 0 || from.BeadCount >= to.BeadCount {
			continue
		}
		span := to.DistanceToBoundary - from.DistanceToBoundary
		var mids []TransitionMiddle
		lastPos := -1.0
		for k := from.BeadCount; k < to.BeadCount; k++ {
			targetR := float64(strategy.TransitionThickness(k)) / 2
			pos := (targetR - from.DistanceToBoundary) / span
			if pos < 0 {
				pos = 0
			}
			if pos > 1 {
				pos = 1
			}
			if pos <= lastPos {
				pos = lastPos + 1e-6
			}
			mids = append(mids, TransitionMiddle{Pos: pos, LowerBeadCount: k})
			lastPos = pos
		}
		e.TransitionMids = mids
		g.SetEdge(id, e)
	}
}

// GenerateTransitionEnds places, for every TransitionMiddle, a lower end
// anchor*transitioningLength before it and an upper end
// (1-anchor)*transitioningLength after it, each clamped to
// the edge it's on. A fuller treatment would let an end cross into a
// neighboring edge and recurse; this implementation clamps at the edge
// boundary instead of walking onto the next edge in the chain, so a
// transition wider than the edge it starts on simply fades over the whole
// edge rather than spilling into the next one.
func GenerateTransitionEnds(g *Graph, strategy beading.Strategy) {
	for _, id := range g.AllEdgeIDs() {
		e := g.Edge(id)
		if len(e.TransitionMids) == 0 {
			continue
		}
		from := g.Node(e.From)
		to := g.Node(e.To)
		length := bead.Dist(from.Pos, to.Pos)
		if length == 0 {
			continue
		}
		var ends []TransitionEnd
		for _, mid := range e.TransitionMids {
			tlen := float64(strategy.TransitioningLength(mid.LowerBeadCount))
			anchor := strategy.TransitionAnchorPos(mid.LowerBeadCount)
			lowerPos := mid.Pos - anchor*tlen/length
			upperPos := mid.Pos + (1-anchor)*tlen/length
			if lowerPos < 0 {
				lowerPos = 0
			}
			if upperPos > 1 {
				upperPos = 1
			}
			ends = append(ends,
				TransitionEnd{Pos: lowerPos, LowerBeadCount: mid.LowerBeadCount, IsLowerEnd: true},
				TransitionEnd{Pos: upperPos, LowerBeadCount: mid.LowerBeadCount, IsLowerEnd: false},
			)
		}
		sort.Slice(ends, func(i, j int) bool { return ends[i].Pos < ends[j].Pos })
		e.TransitionEnds = ends
		g.SetEdge(id, e)
	}
}

// FilterTransitions drops transitions not worth making:
// working from the last transition on each edge inward, a transition is
// dissolved when the central region above it ends within filterDist and
// holding the lower bead count up there keeps the per-bead width within
// allowedDeviation of the nominal width, and clipped when its upper half
// has less room before the end of centrality than it needs to complete.
// Dissolving backs the upper node's bead count down to the lower count so
// no transition is generated for a bump that filtering decided to ignore.
func FilterTransitions(g *Graph, strategy beading.Strategy, filterDist, allowedDeviation float64) {
	optimal := float64(strategy.OptimalThickness(1))
	for _, id := range g.AllEdgeIDs() {
		e := g.Edge(id)
		if !e.Central || len(e.TransitionMids) == 0 {
			continue
		}
		from := g.Node(e.From)
		to := g.Node(e.To)
		length := bead.Dist(from.Pos, to.Pos)

		mids := append([]TransitionMiddle(nil), e.TransitionMids...)
		for len(mids) > 0 {
			mid := mids[len(mids)-1]
			k := mid.LowerBeadCount
			runAbove := centralRunLength(g, id, mid.Pos, length, filterDist)

			dissolve := false
			if k > 0 && runAbove <= filterDist {
				widthAtLower := 2 * to.DistanceToBoundary / float64(k)
				dissolve = math.Abs(widthAtLower-optimal) <= allowedDeviation
			}
			clip := false
			if !dissolve {
				upperHalf := (1 - strategy.TransitionAnchorPos(k)) * float64(strategy.TransitioningLength(k))
				clip = runAbove < upperHalf
			}
			if !dissolve && !clip {
				break
			}
			mids = mids[:len(mids)-1]
			n := g.Node(e.To)
			n.BeadCount = k
			g.SetNode(e.To, n)
		}
		e.TransitionMids = mids
		g.SetEdge(id, e)
	}
}

// centralRunLength measures how much central edge remains past parametric
// position pos on edge id, following Next, capped at limit.
func centralRunLength(g *Graph, id EdgeID, pos, length, limit float64) float64 {
	total := (1 - pos) * length
	cur := g.Edge(id).Next
	for total < limit && cur != 0 {
		ce := g.Edge(cur)
		if !ce.Central {
			break
		}
		total += bead.Dist(g.Node(ce.From).Pos, g.Node(ce.To).Pos)
		cur = ce.Next
	}
	return total
}

// snapDist is how close (in micrometers) a transition end may sit to an
// existing node before ApplyTransitions keeps the existing node instead of
// splitting off a sliver edge.
const snapDist = 20.0

// splitMarker is one point at which ApplyTransitions splits an edge: a
// transition end fully committed to one side's bead count (ratio 0 or 1),
// or the transition middle itself, partway between them.
type splitMarker struct {
	pos   float64
	count int
	ratio float64
}

// ApplyTransitions turns transition markers into graph nodes: every
// TransitionEnd on a central edge is spliced in with Graph.InsertNode,
// carrying the bead count on its lower side (LowerBeadCount, or
// LowerBeadCount+1 past the matching TransitionMiddle) and a
// TransitionRatio recording how far through the transition that point
// sits. The TransitionMiddle itself is spliced in too, with a ratio equal
// to the strategy's anchor position, so SeedBeadings interpolates between
// the two bead counts there instead of stepping discretely from one end
// straight to the other.
func ApplyTransitions(g *Graph, strategy beading.Strategy) {
	originals := g.AllEdgeIDs()
	for _, id := range originals {
		e := g.Edge(id)
		if len(e.TransitionEnds) == 0 && len(e.TransitionMids) == 0 {
			continue
		}
		markers := make([]splitMarker, 0, len(e.TransitionEnds)+len(e.TransitionMids))
		for _, end := range e.TransitionEnds {
			count := end.LowerBeadCount
			ratio := 0.0
			if !end.IsLowerEnd {
				count++
				ratio = 1
			}
			markers = append(markers, splitMarker{pos: end.Pos, count: count, ratio: ratio})
		}
		for _, mid := range e.TransitionMids {
			markers = append(markers, splitMarker{
				pos:   mid.Pos,
				count: mid.LowerBeadCount,
				ratio: strategy.TransitionAnchorPos(mid.LowerBeadCount),
			})
		}
		sort.Slice(markers, func(i, j int) bool { return markers[i].pos < markers[j].pos })

		length := bead.Dist(g.Node(e.From).Pos, g.Node(e.To).Pos)
		cur := id
		offset := 0.0
		for _, m := range markers {
			span := 1 - offset
			if span <= 1e-9 {
				continue
			}
			if m.pos*length < snapDist || (1-m.pos)*length < snapDist {
				continue
			}
			t := (m.pos - offset) / span
			if t <= 1e-9 || t >= 1-1e-9 {
				continue
			}
			tail := g.InsertNode(cur, t, m.count)
			newNodeID := g.Edge(tail).From
			n := g.Node(newNodeID)
			n.TransitionRatio = m.ratio
			g.SetNode(newNodeID, n)
			cur = tail
			offset = m.pos
		}
	}
}

// GenerateExtraRibs adds sampling nodes for nonlinear width changes: for
// every upward central edge, each nonlinear thickness the strategy reports
// for the lower endpoint's bead count whose radius falls strictly between
// the endpoint radii gets a node inserted at the linearly interpolated
// position, carrying the smaller endpoint bead count, so junction
// generation has a sample wherever the strategy's widths change
// nonlinearly with thickness.
func GenerateExtraRibs(g *Graph, strategy beading.Strategy) {
	for _, id := range g.AllEdgeIDs() {
		e := g.Edge(id)
		if !e.Central {
			continue
		}
		from := g.Node(e.From)
		to := g.Node(e.To)
		if to.DistanceToBoundary <= from.DistanceToBoundary || from.BeadCount < 0 {
			continue
		}
		count := from.BeadCount
		if to.BeadCount >= 0 && to.BeadCount < count {
			count = to.BeadCount
		}

		radii := make([]float64, 0)
		for _, th := range strategy.NonlinearThicknesses(from.BeadCount) {
			r := float64(th) / 2
			if r > from.DistanceToBoundary && r < to.DistanceToBoundary {
				radii = append(radii, r)
			}
		}
		sort.Float64s(radii)

		cur := id
		offset := 0.0
		span := to.DistanceToBoundary - from.DistanceToBoundary
		for _, r := range radii {
			pos := (r - from.DistanceToBoundary) / span
			remaining := 1 - offset
			if remaining <= 1e-9 {
				break
			}
			t := (pos - offset) / remaining
			if t <= 1e-9 || t >= 1-1e-9 {
				continue
			}
			cur = g.InsertNode(cur, t, count)
			offset = pos
		}
	}
}
