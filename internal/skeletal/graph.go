// Package skeletal builds the half-edge planar subdivision of a polygon's
// interior (the skeletal trapezoidation) and walks it to emit variable-width
// toolpaths. Nodes and edges live in flat arenas addressed by stable integer
// IDs rather than pointers, so the graph survives edge insertion and
// collapsing without invalidating references held elsewhere.
package skeletal

import "github.com/wsd07/CuraEngine/internal/bead"

// NodeID and EdgeID are stable indices into a Graph's arenas. The zero value
// is never a valid id; arenas are 1-indexed so a zero-valued field reads as
// "absent" without a separate boolean.
type NodeID int
type EdgeID int

// Node is a vertex of the skeleton graph: either a point on the original
// polygon boundary (DistanceToBoundary == 0) or an interior point generated
// during erosion, tagged with how far it sits from the nearest boundary
// feature.
type Node struct {
	Pos                bead.Point
	DistanceToBoundary float64
	// IsBoundary marks a node that lies on the original polygon contour
	// (r == 0); these are the boundary_start/boundary_end endpoints of a
	// quad and are never central.
	IsBoundary bool
	// IsPeak marks a node created by a collision/collapse event: the
	// locally maximal point two or more wavefronts reach together.
	IsPeak bool
	// SomeEdge is one half-edge that starts at this node (arbitrary choice
	// among possibly several).
	SomeEdge EdgeID

	// BeadCount is the number of beads the strategy assigns at this node's
	// local thickness. -1 means "not yet assigned"
	// (AssignBeadCounts/ApplyTransitions are what set it).
	BeadCount int
	// TransitionRatio is 0 for an ordinary node, or the blend fraction
	// (0,1) toward BeadCount+1 for a node synthesized by ApplyTransitions
	// in the middle of a bead-count transition.
	TransitionRatio float64
	// Propagation holds the BeadingPropagation this node ended up with
	// after PropagateBeadings; nil until that pass runs.
	Propagation *BeadingPropagation
}

// newNode returns a Node with BeadCount defaulted to "unassigned" (-1),
// rather than Go's zero value (which would misread as "zero beads").
func newNode(pos bead.Point, distanceToBoundary float64, isBoundary, isPeak bool) Node {
	return Node{Pos: pos, DistanceToBoundary: distanceToBoundary, IsBoundary: isBoundary, IsPeak: isPeak, BeadCount: -1}
}

// EdgeKind classifies a half-edge by the role it plays in a quad.
type EdgeKind int

const (
	// KindBoundary is the original polygon edge between boundary_start and
	// boundary_end; never central.
	KindBoundary EdgeKind = iota
	// KindCentral is an up_half/down_half edge: part of the medial axis
	// proper, connecting a boundary node to a peak (or two peaks).
	KindCentral
	// KindRib is a transverse edge subdividing a quad: construction adds
	// one per wavefront step between a lineage's new node and its boundary
	// origin, and MakeRib adds more on demand.
	KindRib
	// KindExtra is a synthesized virtual twin created by RepairTwins:
	// never central, never walked by toolpath generation.
	KindExtra
)

// Edge is one directed half-edge. Twin is the opposing half-edge sharing the
// same two endpoints; Next/Prev walk the face (quad) this half-edge borders
// in CCW order.
type Edge struct {
	From, To   NodeID
	Twin       EdgeID
	Next, Prev EdgeID
	Kind       EdgeKind

	// Central is set by ComputeCentrality: true when this edge's radius
	// changes slowly enough, relative to its length, to belong to the
	// medial axis proper rather than to a corner fan.
	Central bool
	// TransitionMids and TransitionEnds are this edge's bead-count
	// transition markers, populated by
	// GenerateTransitionMiddles/GenerateTransitionEnds and consumed (then
	// spliced away) by ApplyTransitions.
	TransitionMids []TransitionMiddle
	TransitionEnds []TransitionEnd
}

// Graph is the arena-backed half-edge mesh for one Shape's interior.
type Graph struct {
	nodes []Node // index 0 unused
	edges []Edge // index 0 unused
	// edgeThickness caches, per original polygon boundary edge, the
	// approximate local wall thickness computed during construction. See
	// Graph.QuadThickness.
	edgeThickness map[EdgeID]float64
	// boundaryLoops holds, per input polygon, its boundary half-edges in
	// original winding order.
	boundaryLoops [][]EdgeID
	// chainStart maps a boundary node to the first central half-edge of
	// its outward lineage chain (a "quad start", Prev == 0), so toolpath
	// generation can walk from the boundary out to a peak without
	// searching.
	chainStart map[NodeID]EdgeID
}

// BoundaryLoops returns each input polygon's boundary half-edges in
// original winding order.
func (g *Graph) BoundaryLoops() [][]EdgeID { return g.boundaryLoops }

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{nodes: make([]Node, 1), edges: make([]Edge, 1), chainStart: make(map[NodeID]EdgeID)}
}

// SetChainStart records edge as node's outward chain start (a quad-start
// edge, Prev == 0). Called once per boundary node during construction.
func (g *Graph) SetChainStart(node NodeID, edge EdgeID) {
	if _, ok := g.chainStart[node]; !ok {
		g.chainStart[node] = edge
	}
}

// Chain walks the outward central-edge lineage starting at a boundary node,
// following Next until it runs out (reaching a peak), and returns the edges
// in boundary-to-peak order. Returns nil if node has no recorded chain
// start.
func (g *Graph) Chain(node NodeID) []EdgeID {
	start, ok := g.chainStart[node]
	if !ok {
		return nil
	}
	var chain []EdgeID
	for id := start; id != 0; id = g.edges[id].Next {
		chain = append(chain, id)
	}
	return chain
}

// LinkChainStep sets prev.Next = next / next.Prev = prev, and keeps the twin
// pair's reverse chain consistent (next's twin continues into prev's twin),
// so a wavefront lineage's successive central edges form a walkable face
// cycle without a full LinkFace pass.
func (g *Graph) LinkChainStep(prev, next EdgeID) {
	g.edges[next].Prev = prev
	g.edges[prev].Next = next
	pt, nt := g.edges[prev].Twin, g.edges[next].Twin
	if pt != 0 && nt != 0 {
		g.edges[nt].Next = pt
		g.edges[pt].Prev = nt
	}
}

// AddNode appends a node and returns its id.
func (g *Graph) AddNode(n Node) NodeID {
	g.nodes = append(g.nodes, n)
	return NodeID(len(g.nodes) - 1)
}

// Node returns a copy of the node with the given id.
func (g *Graph) Node(id NodeID) Node { return g.nodes[id] }

// SetNode overwrites the node at id.
func (g *Graph) SetNode(id NodeID, n Node) { g.nodes[id] = n }

// NodeCount returns how many nodes are live (including any tombstoned by
// CollapseSmallEdges, which does not compact the arena).
func (g *Graph) NodeCount() int { return len(g.nodes) - 1 }

// EdgeCount returns how many half-edges are live.
func (g *Graph) EdgeCount() int { return len(g.edges) - 1 }

// Edge returns a copy of the edge with the given id.
func (g *Graph) Edge(id EdgeID) Edge { return g.edges[id] }

// SetEdge overwrites the edge at id.
func (g *Graph) SetEdge(id EdgeID, e Edge) { g.edges[id] = e }

// AllNodeIDs returns every live node id in arena order.
func (g *Graph) AllNodeIDs() []NodeID {
	ids := make([]NodeID, 0, len(g.nodes)-1)
	for i := 1; i < len(g.nodes); i++ {
		ids = append(ids, NodeID(i))
	}
	return ids
}

// AllEdgeIDs returns every live edge id in arena order.
func (g *Graph) AllEdgeIDs() []EdgeID {
	ids := make([]EdgeID, 0, len(g.edges)-1)
	for i := 1; i < len(g.edges); i++ {
		ids = append(ids, EdgeID(i))
	}
	return ids
}

// AddEdgePair creates two twinned half-edges between a and b and returns the
// a->b half-edge id. Next/Prev are left zero; callers are expected to stitch
// face cycles with LinkFace once all of a quad's edges exist.
func (g *Graph) AddEdgePair(a, b NodeID, kind EdgeKind) EdgeID {
	g.edges = append(g.edges, Edge{From: a, To: b, Kind: kind})
	fwd := EdgeID(len(g.edges) - 1)
	g.edges = append(g.edges, Edge{From: b, To: a, Kind: kind})
	back := EdgeID(len(g.edges) - 1)
	g.edges[fwd].Twin = back
	g.edges[back].Twin = fwd
	if g.nodes[a].SomeEdge == 0 {
		g.nodes[a].SomeEdge = fwd
	}
	if g.nodes[b].SomeEdge == 0 {
		g.nodes[b].SomeEdge = back
	}
	return fwd
}

// LinkFace sets Next/Prev around a cycle of half-edges, in order, and
// returns to the start (closing the face).
func (g *Graph) LinkFace(cycle []EdgeID) {
	n := len(cycle)
	for i := 0; i < n; i++ {
		cur := cycle[i]
		next := cycle[(i+1)%n]
		g.edges[cur].Next = next
		g.edges[next].Prev = cur
	}
}

// MakeRib splits the central half-edge pair at id at parametric position t
// and spans a pair of KindRib half-edges from the new interior node down to
// the boundary source segment sourceA-sourceB the current cell was generated
// by, anchoring the rib on a new boundary node at the foot of the
// perpendicular. The interior node's distance_to_boundary is the distance
// from the split point to that source segment, not the lerped edge value,
// so ribs stay exact even across discretization error in the split edge.
func (g *Graph) MakeRib(id EdgeID, t float64, sourceA, sourceB bead.Point) NodeID {
	tail := g.InsertNode(id, t, -1)
	mid := g.Edge(tail).From

	n := g.Node(mid)
	foot := projectOntoSegment(n.Pos, sourceA, sourceB)
	n.DistanceToBoundary = bead.Dist(n.Pos, foot)
	g.SetNode(mid, n)

	anchor := g.AddNode(newNode(foot, 0, true, false))
	g.AddEdgePair(mid, anchor, KindRib)
	return mid
}

// projectOntoSegment returns the point on segment a-b closest to p.
func projectOntoSegment(p, a, b bead.Point) bead.Point {
	abx := float64(b.X - a.X)
	aby := float64(b.Y - a.Y)
	lenSq := abx*abx + aby*aby
	if lenSq == 0 {
		return a
	}
	t := (float64(p.X-a.X)*abx + float64(p.Y-a.Y)*aby) / lenSq
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return bead.Lerp(a, b, t)
}

// InsertNode splits the half-edge pair at id at parametric
// position t along its own length, gives the new node beadCount, and
// returns the trailing half-edge (new node -> original e.To), stitching
// Next/Prev across the split on both the edge and its twin so a caller that
// already walked in via id can continue walking via the returned id.
// Distinct from MakeRib, which additionally spans a transverse rib to the
// opposite side of a quad; this only ever touches the one edge pair.
func (g *Graph) InsertNode(id EdgeID, t float64, beadCount int) EdgeID {
	e := g.Edge(id)
	from := g.Node(e.From)
	to := g.Node(e.To)
	pos := bead.Lerp(from.Pos, to.Pos, t)
	dist := from.DistanceToBoundary + (to.DistanceToBoundary-from.DistanceToBoundary)*t
	mid := g.AddNode(newNode(pos, dist, false, false))
	n := g.Node(mid)
	n.BeadCount = beadCount
	g.SetNode(mid, n)

	twinID := e.Twin
	twin := g.Edge(twinID)

	g.edges = append(g.edges, Edge{From: mid, To: e.To, Kind: e.Kind, Central: e.Central, Next: e.Next})
	tail := EdgeID(len(g.edges) - 1)
	g.edges = append(g.edges, Edge{From: e.To, To: mid, Kind: twin.Kind, Central: twin.Central, Prev: twin.Prev})
	tailTwin := EdgeID(len(g.edges) - 1)
	g.edges[tail].Twin = tailTwin
	g.edges[tailTwin].Twin = tail

	if e.Next != 0 {
		g.edges[e.Next].Prev = tail
	}
	if twin.Prev != 0 {
		g.edges[twin.Prev].Next = tailTwin
	}

	g.edges[id].To = mid
	g.edges[id].Next = tail
	g.edges[tail].Prev = id

	g.edges[twinID].From = mid
	g.edges[twinID].Prev = tailTwin
	g.edges[tailTwin].Next = twinID

	return tail
}

// RepairTwins pairs any edge left without a twin with a synthesized
// virtual twin (KindExtra, never central) so the rest of the pipeline can
// keep dereferencing Twin unconditionally, without null checks.
// Construction here always creates edges in twinned pairs (AddEdgePair,
// MakeRib, InsertNode), so in practice this repairs nothing — but nothing
// forces a future graph producer to keep that guarantee, and this module
// doesn't rely on it holding. Returns how many virtual twins it had to
// synthesize.
func (g *Graph) RepairTwins() int {
	repaired := 0
	limit := len(g.edges)
	for i := 1; i < limit; i++ {
		id := EdgeID(i)
		if g.edges[id].Twin != 0 {
			continue
		}
		g.edges = append(g.edges, Edge{From: g.edges[id].To, To: g.edges[id].From, Kind: KindExtra})
		twinID := EdgeID(len(g.edges) - 1)
		g.edges[id].Twin = twinID
		g.edges[twinID].Twin = id
		repaired++
	}
	return repaired
}

// CollapseSmallEdges removes every central or rib edge shorter than
// minLength by merging its endpoints. The From endpoint survives unless it
// is neither a boundary node nor a peak while the To endpoint is one of
// those, in which case the To endpoint survives; this keeps sliver edges
// from accumulating.
func (g *Graph) CollapseSmallEdges(minLength float64) {
	for _, id := range g.AllEdgeIDs() {
		e := g.Edge(id)
		if e.Kind == KindBoundary || e.From == 0 || e.To == 0 {
			continue
		}
		a, b := g.Node(e.From), g.Node(e.To)
		if bead.Dist(a.Pos, b.Pos) >= minLength {
			continue
		}
		survivor := e.From
		victim := e.To
		if !a.IsBoundary && !a.IsPeak && (b.IsBoundary || b.IsPeak) {
			survivor, victim = e.To, e.From
		}
		g.mergeNodes(survivor, victim)
	}
}

// mergeNodes redirects every half-edge endpoint referencing victim to
// survivor. It does not compact the arena; merged nodes are left as
// zero-degree tombstones.
func (g *Graph) mergeNodes(survivor, victim NodeID) {
	if survivor == victim {
		return
	}
	for i := 1; i < len(g.edges); i++ {
		if g.edges[i].From == victim {
			g.edges[i].From = survivor
		}
		if g.edges[i].To == victim {
			g.edges[i].To = survivor
		}
	}
}

// Validate checks the twin/next/prev invariants: every edge's twin points
// back to it, and every edge with a Next set is part of a closed face
// cycle of edges whose From/To endpoints connect consecutively.
func (g *Graph) Validate() []string {
	var problems []string
	for i := 1; i < len(g.edges); i++ {
		id := EdgeID(i)
		e := g.edges[i]
		if e.Twin != 0 {
			twin := g.edges[e.Twin]
			if twin.Twin != id {
				problems = append(problems, "edge twin is not symmetric")
			}
			if twin.From != e.To || twin.To != e.From {
				problems = append(problems, "edge twin endpoints do not match")
			}
		}
		if e.Next != 0 {
			next := g.edges[e.Next]
			if next.From != e.To {
				problems = append(problems, "edge next does not continue from this edge's endpoint")
			}
			if g.edges[e.Next].Prev != id {
				problems = append(problems, "edge next/prev are not mutually consistent")
			}
		}
	}
	return problems
}
