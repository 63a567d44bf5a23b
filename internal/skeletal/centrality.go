package skeletal

import (
	"math"

	"github.com/wsd07/CuraEngine/internal/bead"
)

// ComputeCentrality flags the edges that belong to the medial axis proper,
// as distinct from a corner fan's ribs. An edge from A to B is central
// when its radius doesn't change too fast relative to its own length:
//
//	dR  = |r(B) - r(A)|
//	cap = sin(transitionAngle / 2)
//	central = dR < ab * cap
//
// where ab is the edge's Euclidean length. Boundary edges are never
// central. Edges whose endpoints both sit within outerFilterLength of the
// boundary are also excluded outright (see FilterOuterCentralEdges for
// the optional "no prev" pass layered on top).
func ComputeCentrality(g *Graph, transitionAngle float64, outerFilterLength float64) {
	capRatio := math.Sin(transitionAngle / 2)
	for _, id := range g.AllEdgeIDs() {
		e := g.Edge(id)
		if e.Kind != KindCentral {
			continue
		}
		from := g.Node(e.From)
		to := g.Node(e.To)
		ab := bead.Dist(from.Pos, to.Pos)
		central := false
		if ab > 0 {
			dR := math.Abs(to.DistanceToBoundary - from.DistanceToBoundary)
			central = dR < ab*capRatio
		}
		if central && math.Max(from.DistanceToBoundary, to.DistanceToBoundary) <= outerFilterLength {
			central = false
		}
		e.Central = central
		g.SetEdge(id, e)
	}
}

// FilterOuterCentralEdges clears centrality on every quad-start edge
// (Prev == 0, i.e. the central edge directly attached to the boundary),
// so the outermost ring of a wall never grows a transition of its own
// right at the contour. Optional, gated by BuildOptions.
func FilterOuterCentralEdges(g *Graph) {
	for _, id := range g.AllEdgeIDs() {
		e := g.Edge(id)
		if e.Kind == KindCentral && e.Prev == 0 && e.Central {
			e.Central = false
			g.SetEdge(id, e)
		}
	}
}
