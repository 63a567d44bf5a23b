package skeletal

import (
	"sort"

	"github.com/wsd07/CuraEngine/internal/bead"
	"github.com/wsd07/CuraEngine/internal/beading"
)

// BeadingPropagation is a Beading computed at (or carried to) one node,
// plus how far that particular copy has travelled from whichever node
// actually seeded it.
type BeadingPropagation struct {
	Beading                bead.Beading
	DistFromTopSource      float64
	DistToBottomSource     float64
	IsUpwardPropagatedOnly bool
}

// SeedBeadings computes a Beading at every node that has a bead count,
// via strategy.Compute at the node's own local thickness. A node whose
// TransitionRatio sits strictly between 0 and 1 — the transition-middle
// nodes ApplyTransitions splices in at the strategy's anchor position —
// instead gets the interpolation of the two candidate bead counts'
// Beadings, so the bead layout tapers through the transition rather than
// stepping discretely at its ends.
func SeedBeadings(g *Graph, strategy beading.Strategy) {
	for _, id := range g.AllNodeIDs() {
		n := g.Node(id)
		if n.BeadCount < 0 || n.Propagation != nil {
			continue
		}
		thickness := bead.Coord(2 * n.DistanceToBoundary)
		var result bead.Beading
		if n.TransitionRatio <= 0 || n.TransitionRatio >= 1 {
			result = strategy.Compute(thickness, n.BeadCount)
		} else {
			lower := strategy.Compute(thickness, n.BeadCount)
			upper := strategy.Compute(thickness, n.BeadCount+1)
			result = bead.Interpolate(lower, 1-n.TransitionRatio, upper, nil)
		}
		n.Propagation = &BeadingPropagation{Beading: result}
		g.SetNode(id, n)
	}
}

// PropagateBeadings carries Beadings across the graph after SeedBeadings
// has given every bead-counted node its own. It makes two passes over the
// central half-edges: the first, ordered by the To node's radius from high
// to low, copies a Propagation from each edge's From node to its To node;
// the second, ordered from low to high, copies from To back to From. A node
// only receives a copy while it has none. Both half-edges of every central
// pair are in the list, so either pass can copy toward the lower-radius
// endpoint as well as the higher one; the radii only set the order.
func PropagateBeadings(g *Graph) {
	central := make([]EdgeID, 0)
	for _, id := range g.AllEdgeIDs() {
		e := g.Edge(id)
		if e.Central && e.From != e.To {
			central = append(central, id)
		}
	}

	byRadiusDesc := func(i, j int) bool {
		return g.Node(g.Edge(central[i]).To).DistanceToBoundary > g.Node(g.Edge(central[j]).To).DistanceToBoundary
	}
	sort.SliceStable(central, byRadiusDesc)
	for _, id := range central {
		propagateAlong(g, id, true)
	}

	byRadiusAsc := func(i, j int) bool {
		return g.Node(g.Edge(central[i]).To).DistanceToBoundary < g.Node(g.Edge(central[j]).To).DistanceToBoundary
	}
	sort.SliceStable(central, byRadiusAsc)
	for _, id := range central {
		propagateAlong(g, id, false)
	}
}

// propagateAlong copies a Propagation across half-edge id when the source
// endpoint has one and the destination has none: upward copies from the
// From node to the To node, !upward from To to From. The endpoints' radii
// are not compared, so the source may lie on either side of the
// destination.
func propagateAlong(g *Graph, id EdgeID, upward bool) {
	e := g.Edge(id)
	srcID, dstID := e.From, e.To
	if !upward {
		srcID, dstID = e.To, e.From
	}
	src := g.Node(srcID)
	dst := g.Node(dstID)
	if src.Propagation == nil || dst.Propagation != nil {
		return
	}
	copied := *src.Propagation
	copied.IsUpwardPropagatedOnly = upward
	if upward {
		copied.DistFromTopSource += dst.DistanceToBoundary - src.DistanceToBoundary
	} else {
		copied.DistToBottomSource += src.DistanceToBoundary - dst.DistanceToBoundary
	}
	dst.Propagation = &copied
	g.SetNode(dstID, dst)
}
