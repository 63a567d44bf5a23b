package skeletal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wsd07/CuraEngine/internal/bead"
	"github.com/wsd07/CuraEngine/internal/beading"
)

// centralEdge builds a one-edge graph from a boundary node to an interior
// node with the given radius and endpoint bead counts, flagged central.
func centralEdge(toRadius float64, fromCount, toCount int) (*Graph, EdgeID) {
	g := NewGraph()
	a := g.AddNode(Node{Pos: bead.Point{X: 0, Y: 0}, IsBoundary: true, BeadCount: fromCount})
	b := g.AddNode(Node{Pos: bead.Point{X: 1000, Y: 0}, DistanceToBoundary: toRadius, IsPeak: true, BeadCount: toCount})
	id := g.AddEdgePair(a, b, KindCentral)
	e := g.Edge(id)
	e.Central = true
	g.SetEdge(id, e)
	return g, id
}

func TestGenerateTransitionMiddlesPlacesMidAtTransitionRadius(t *testing.T) {
	g, id := centralEdge(500, 1, 2)
	strategy := beading.NewDistributed(400)

	GenerateTransitionMiddles(g, strategy)

	mids := g.Edge(id).TransitionMids
	require.Len(t, mids, 1)
	assert.Equal(t, 1, mids[0].LowerBeadCount)
	// The 1->2 flip happens at thickness 600, i.e. radius 300, which is
	// 60% of the way up a 0..500 edge.
	assert.InDelta(t, 0.6, mids[0].Pos, 1e-9)
}

func TestApplyTransitionsSplitsEdgeAtEndsAndMiddle(t *testing.T) {
	g, _ := centralEdge(500, 1, 2)
	strategy := beading.NewDistributed(400)

	GenerateTransitionMiddles(g, strategy)
	GenerateTransitionEnds(g, strategy)
	before := g.NodeCount()
	ApplyTransitions(g, strategy)

	// One node per marker: the lower end, the middle, and the upper end.
	assert.Equal(t, before+3, g.NodeCount())
	sawUpper, sawMiddle := false, false
	for _, nid := range g.AllNodeIDs() {
		n := g.Node(nid)
		if n.TransitionRatio == 1 {
			sawUpper = true
			assert.Equal(t, 2, n.BeadCount)
		}
		if n.TransitionRatio > 0 && n.TransitionRatio < 1 {
			sawMiddle = true
			assert.Equal(t, 1, n.BeadCount)
			assert.InDelta(t, 0.5, n.TransitionRatio, 1e-9)
		}
	}
	assert.True(t, sawUpper)
	assert.True(t, sawMiddle, "the transition middle becomes a partial-ratio node")
	assert.Empty(t, g.Validate())
}

func TestFilterTransitionsDissolvesShallowBump(t *testing.T) {
	// A 1->2 bump whose upper thickness (440) deviates from the nominal
	// width (400) by only 40: within the allowed deviation, so the
	// transition dissolves and the upper node keeps one bead.
	g, id := centralEdge(220, 1, 2)
	strategy := beading.NewDistributed(400)

	GenerateTransitionMiddles(g, strategy)
	require.NotEmpty(t, g.Edge(id).TransitionMids)

	FilterTransitions(g, strategy, 100_000, 100)

	assert.Empty(t, g.Edge(id).TransitionMids)
	assert.Equal(t, 1, g.Node(g.Edge(id).To).BeadCount)
}

func TestFilterTransitionsKeepsRealTransition(t *testing.T) {
	// A genuine 1->2 transition: the upper thickness (1000) is far from a
	// single 400 bead, so the deviation test cannot dissolve it, and the
	// clip rule is the only thing that could remove it.
	g, id := centralEdge(500, 1, 2)
	strategy := beading.NewDistributed(400)

	GenerateTransitionMiddles(g, strategy)
	FilterTransitions(g, strategy, 100_000, 100)

	assert.Len(t, g.Edge(id).TransitionMids, 1)
}

func TestGenerateExtraRibsSamplesNonlinearThickness(t *testing.T) {
	g, _ := centralEdge(2000, 5, 5)
	strategy := &beading.LimitedCount{Parent: beading.NewDistributed(400), MaxBeadCount: 4}

	before := g.NodeCount()
	GenerateExtraRibs(g, strategy)

	// The cap's optimal thickness (1600, radius 800) lies between the
	// endpoint radii, so one sampling node is inserted.
	assert.Equal(t, before+1, g.NodeCount())
	assert.Empty(t, g.Validate())
}

func TestHexagonLoopReplacesDegenerateOddSegment(t *testing.T) {
	seg := &bead.ExtrusionLine{
		IsOdd:    true,
		InsetIdx: 1,
		Junctions: []bead.ExtrusionJunction{
			{P: bead.Point{X: 0, Y: 0}, W: 400, PerimeterIndex: 1},
			{P: bead.Point{X: 10, Y: 0}, W: 400, PerimeterIndex: 1},
		},
	}

	hex := hexagonLoop(seg)
	assert.True(t, hex.IsClosed)
	assert.True(t, hex.IsOdd)
	assert.Len(t, hex.Junctions, 6)
	assert.Equal(t, bead.Point{X: 55, Y: 0}, hex.Junctions[0].P)
	for _, j := range hex.Junctions {
		assert.Equal(t, bead.Coord(400), j.W)
		assert.Equal(t, 1, j.PerimeterIndex)
	}
}
