package skeletal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wsd07/CuraEngine/internal/bead"
	"github.com/wsd07/CuraEngine/internal/beading"
	"github.com/wsd07/CuraEngine/internal/geomkernel"
)

func squareShape(side bead.Coord) geomkernel.Shape {
	return geomkernel.Shape{{
		{X: 0, Y: 0}, {X: side, Y: 0}, {X: side, Y: side}, {X: 0, Y: side},
	}}
}

func TestBuildProducesValidGraph(t *testing.T) {
	g := Build(squareShape(2000), BuildOptions{StepSize: 50})
	assert.Greater(t, g.NodeCount(), 4)
	assert.Empty(t, g.Validate())
}

func TestBuildEveryNodeHasNonNegativeDistance(t *testing.T) {
	g := Build(squareShape(2000), BuildOptions{StepSize: 50})
	for _, id := range g.AllNodeIDs() {
		assert.GreaterOrEqual(t, g.Node(id).DistanceToBoundary, 0.0)
	}
}

func TestBuildReachesAPeakNearHalfTheSquare(t *testing.T) {
	g := Build(squareShape(2000), BuildOptions{StepSize: 50})
	maxDist := 0.0
	for _, id := range g.AllNodeIDs() {
		if d := g.Node(id).DistanceToBoundary; d > maxDist {
			maxDist = d
		}
	}
	assert.InDelta(t, 1000, maxDist, 150)
}

func TestMakeRibInsertsNodeAndSpansRibToSource(t *testing.T) {
	g := NewGraph()
	a := g.AddNode(Node{Pos: bead.Point{X: 0, Y: 0}, IsBoundary: true})
	b := g.AddNode(Node{Pos: bead.Point{X: 1000, Y: 0}, IsPeak: true, DistanceToBoundary: 500})
	e := g.AddEdgePair(a, b, KindCentral)

	mid := g.MakeRib(e, 0.5, bead.Point{X: 0, Y: -250}, bead.Point{X: 1000, Y: -250})
	assert.Equal(t, bead.Point{X: 500, Y: 0}, g.Node(mid).Pos)
	assert.InDelta(t, 250, g.Node(mid).DistanceToBoundary, 1e-6)

	ribs := 0
	for _, id := range g.AllEdgeIDs() {
		edge := g.Edge(id)
		if edge.Kind == KindRib && (edge.From == mid || edge.To == mid) {
			ribs++
		}
	}
	assert.Equal(t, 2, ribs)
	assert.Empty(t, g.Validate())
}

// wedgeShape returns a shallow symmetric wedge, 400µm thick at the left
// end widening to 1000µm at the right, so the ridge's local thickness
// crosses a bead-count boundary partway along its length.
func wedgeShape() geomkernel.Shape {
	return geomkernel.Shape{{
		{X: 0, Y: -200}, {X: 9000, Y: -500}, {X: 9000, Y: 500}, {X: 0, Y: 200},
	}}
}

// The wedge's sides diverge at well under the transitioning angle, so the
// ridge traced between them must pass the centrality test.
func TestBuildTracesCentralRidgeOnWedge(t *testing.T) {
	g := Build(wedgeShape(), BuildOptions{StepSize: 50, Strategy: beading.NewDistributed(400)})

	central := 0
	for _, id := range g.AllEdgeIDs() {
		if g.Edge(id).Central {
			central++
		}
	}
	assert.Greater(t, central, 0)
	assert.Empty(t, g.Validate())
}

// The wedge thickens from one bead's worth to more than two, so bead
// counts must differ along the ridge and a transition must actually be
// applied, leaving a partial-ratio middle node behind.
func TestBuildAppliesTransitionsOnWedge(t *testing.T) {
	g := Build(wedgeShape(), BuildOptions{StepSize: 50, Strategy: beading.NewDistributed(400)})

	counts := make(map[int]bool)
	fractional := false
	for _, id := range g.AllNodeIDs() {
		n := g.Node(id)
		if n.BeadCount >= 0 {
			counts[n.BeadCount] = true
		}
		if n.TransitionRatio > 0 && n.TransitionRatio < 1 {
			fractional = true
			assert.NotNil(t, n.Propagation)
		}
	}
	assert.GreaterOrEqual(t, len(counts), 2, "bead counts must differ along the widening ridge")
	assert.True(t, fractional, "an applied transition leaves a partial-ratio middle node")
}

func TestBuildRidgeNodesCarryExactHalfThickness(t *testing.T) {
	g := Build(wedgeShape(), BuildOptions{StepSize: 50, Strategy: beading.NewDistributed(400)})

	// Every central edge endpoint's radius must match its true distance to
	// the wedge boundary; the ridge runs along y=0 where that distance is
	// the local half-thickness, between 200 and 500.
	for _, id := range g.AllEdgeIDs() {
		e := g.Edge(id)
		if !e.Central {
			continue
		}
		for _, nid := range []NodeID{e.From, e.To} {
			n := g.Node(nid)
			assert.GreaterOrEqual(t, n.DistanceToBoundary, 150.0)
			assert.LessOrEqual(t, n.DistanceToBoundary, 550.0)
		}
	}
}

func TestCollapseSmallEdgesMergesShortSegments(t *testing.T) {
	g := NewGraph()
	a := g.AddNode(Node{Pos: bead.Point{X: 0, Y: 0}, IsBoundary: true})
	b := g.AddNode(Node{Pos: bead.Point{X: 5, Y: 0}})
	g.AddEdgePair(a, b, KindCentral)
	g.CollapseSmallEdges(50)
	merged := 0
	for _, id := range g.AllEdgeIDs() {
		e := g.Edge(id)
		if e.From == e.To {
			merged++
		}
	}
	assert.Greater(t, merged, 0)
}
