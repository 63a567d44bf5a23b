package skeletal

import (
	"log/slog"
	"math"

	"github.com/wsd07/CuraEngine/internal/bead"
	"github.com/wsd07/CuraEngine/internal/beading"
	"github.com/wsd07/CuraEngine/internal/geomkernel"
)

// BuildOptions controls the discretization of the wavefront construction
// and the strategy/thresholds the centrality, transition, and propagation
// passes need once that construction is done.
type BuildOptions struct {
	// StepSize is how far the wavefront advances per iteration; smaller
	// values trace the medial axis more faithfully at the cost of more
	// nodes. Defaults to 50 (micrometers) if zero.
	StepSize bead.Coord
	// MaxRadius bounds how far the wavefront is allowed to travel; defaults
	// to the shape's bounding-box diagonal if zero.
	MaxRadius bead.Coord

	// Strategy computes bead counts and Beadings from local thickness.
	// Required for the centrality/transition/propagation passes; if nil,
	// Build stops after graph construction and skips them (useful for
	// tests that only care about graph topology).
	Strategy beading.Strategy
	// TransitionAngle is the transitioning angle (radians) for the
	// centrality test dR < ab*sin(angle/2). Defaults to 10 degrees.
	TransitionAngle float64
	// TransitionFilterDistance and TransitionFilterDeviation drive
	// transition filtering: bead-count bumps whose width deviation stays
	// under the allowed deviation within the filter distance are dissolved
	// instead of transitioned.
	TransitionFilterDistance  float64
	TransitionFilterDeviation float64
	// OuterEdgeFilterLength excludes edges wholly within this radius of the
	// boundary from centrality outright.
	OuterEdgeFilterLength float64
	// FilterOuterCentralEdges additionally clears centrality on every
	// quad-start edge when true (Settings.FilterOuterCentralEdges).
	FilterOuterCentralEdges bool
}

func (o BuildOptions) withDefaults(s geomkernel.Shape) BuildOptions {
	if o.StepSize <= 0 {
		o.StepSize = 50
	}
	if o.MaxRadius <= 0 {
		min, max := geomkernel.BoundingBox(s)
		o.MaxRadius = bead.Coord(bead.Dist(min, max))
	}
	if o.TransitionAngle <= 0 {
		o.TransitionAngle = 10 * math.Pi / 180
	}
	return o
}

// wavefrontPoint tracks one still-active lineage point of the shrinking
// polygon: its loop membership, current position, and the node/edge id of
// its most recent central-edge endpoint (the chain grows as the front
// advances).
type wavefrontPoint struct {
	origIndex int // position among the loop's original polygon vertices
	pos       bead.Point
	origin    NodeID // the boundary node this lineage started from
	lastNode  NodeID
	lastEdge  EdgeID // 0 until this lineage's first central edge is created
	dead      bool
}

// loopState is one polygon loop's currently active vertex chain, in order.
type loopState struct {
	orientation   float64 // +1 outer (CCW), -1 hole (CW)
	points        []*wavefrontPoint
	boundaryEdges []EdgeID
	finalR        []float64
}

// recordDeath records the radius a vertex's lineage first collapsed at.
// A lineage that survives a merge and keeps tracing the ridge dies again
// later at a larger radius; only the first collapse describes the quad
// bordering that vertex, so later deaths don't overwrite it.
func (ls *loopState) recordDeath(origIndex int, r float64) {
	if ls.finalR[origIndex] == 0 {
		ls.finalR[origIndex] = r
	}
}

// Build constructs the skeleton graph for shape by simulating an inward
// (for outer loops) / outward (for hole loops) wavefront: each polygon
// vertex is a lineage point whose trajectory is a chain of edges from
// distance_to_boundary 0 up to the point where it collides with a
// neighboring or opposing lineage (including a lineage from a *different*
// loop, so a hole's wavefront correctly meets the outer boundary's), which
// becomes a shared peak node. When two lineages of the same loop meet, one
// of them survives the collision and keeps advancing from the peak — it
// traces the ridge between the boundaries that just met, node by node, the
// way the medial axis continues past a collapse event. Every node's radius
// is its exact distance to the prepared boundary (not the wavefront's
// iteration count), so ridge edges carry near-constant radii and pass the
// centrality test while corner-fan edges, whose radius climbs one step per
// step of length, do not. This is a discrete grassfire-transform
// approximation of the medial axis, standing in for an exact
// Voronoi-diagram construction of the polygon's interior.
//
// Once the graph's topology is in place, Build always runs twin repair and
// validation, then, provided opts.Strategy is set, the rest of the
// pipeline on top of it: centrality, transition-middle generation,
// filtering, end generation and application plus extra sampling ribs, and
// beading propagation. Toolpath
// generation (GenerateToolpaths) then only has to walk the result.
func Build(shape geomkernel.Shape, opts BuildOptions) *Graph {
	opts = opts.withDefaults(shape)
	g := NewGraph()

	loops := make([]*loopState, 0, len(shape))
	for _, poly := range shape {
		if len(poly) < 3 {
			// A degenerate input loop (no interior possible) is skipped,
			// not fatal.
			slog.Debug("skeletal: skipping degenerate polygon loop", "vertex_count", len(poly))
			continue
		}
		orientation := 1.0
		if geomkernel.Area(poly) < 0 {
			orientation = -1.0
		}
		ls := &loopState{orientation: orientation, finalR: make([]float64, len(poly))}
		nodes := make([]NodeID, len(poly))
		for i, p := range poly {
			nodes[i] = g.AddNode(newNode(p, 0, true, false))
		}
		ls.boundaryEdges = make([]EdgeID, len(poly))
		for i := range poly {
			j := (i + 1) % len(poly)
			ls.boundaryEdges[i] = g.AddEdgePair(nodes[i], nodes[j], KindBoundary)
		}
		for i, nid := range nodes {
			wp := &wavefrontPoint{origIndex: i, pos: poly[i], origin: nid, lastNode: nid}
			ls.points = append(ls.points, wp)
		}
		loops = append(loops, ls)
	}

	const maxIterations = 4000
	r := bead.Coord(0)
	for iter := 0; iter < maxIterations && r < opts.MaxRadius; iter++ {
		r += opts.StepSize
		if !advanceWavefront(g, shape, loops, float64(opts.StepSize)) {
			break
		}
	}
	// Anything still active when we hit MaxRadius or the iteration cap
	// becomes a peak in place, so every chain terminates cleanly.
	finalizeSurvivors(g, shape, loops)

	g.edgeThickness = make(map[EdgeID]float64)
	for _, ls := range loops {
		n := len(ls.boundaryEdges)
		for i, edgeID := range ls.boundaryEdges {
			j := (i + 1) % n
			g.edgeThickness[edgeID] = ls.finalR[i] + ls.finalR[j]
		}
		g.boundaryLoops = append(g.boundaryLoops, ls.boundaryEdges)
	}

	// Repair first (pair or synthesize virtual twins), then log anything
	// Validate still finds. Construction only ever creates edges through
	// AddEdgePair, which always assigns a twin, so RepairTwins is not
	// expected to find work here; it runs anyway because nothing upstream
	// guarantees that will always hold.
	if repaired := g.RepairTwins(); repaired > 0 {
		slog.Warn("skeletal: synthesized virtual twins for edges missing one", "count", repaired)
	}
	if problems := g.Validate(); len(problems) > 0 {
		slog.Warn("skeletal: graph integrity problems after construction", "count", len(problems), "first", problems[0])
	}

	if opts.Strategy != nil {
		ComputeCentrality(g, opts.TransitionAngle, opts.OuterEdgeFilterLength)
		if opts.FilterOuterCentralEdges {
			FilterOuterCentralEdges(g)
		}
		AssignBeadCounts(g, opts.Strategy)
		GenerateTransitionMiddles(g, opts.Strategy)
		if opts.TransitionFilterDistance > 0 {
			FilterTransitions(g, opts.Strategy, opts.TransitionFilterDistance, opts.TransitionFilterDeviation)
		}
		GenerateTransitionEnds(g, opts.Strategy)
		ApplyTransitions(g, opts.Strategy)
		GenerateExtraRibs(g, opts.Strategy)
		SeedBeadings(g, opts.Strategy)
		PropagateBeadings(g)
	}

	return g
}

// QuadThickness returns the approximate local wall thickness that the quad
// bordering boundary edge id belongs to: the sum of the two endpoint
// vertices' wavefront travel distance before their lineages met.
func (g *Graph) QuadThickness(id EdgeID) float64 { return g.edgeThickness[id] }

// advanceWavefront moves every active point inward/outward by stepSize
// along its local bisector, then resolves collisions across every loop at
// once (so a hole's wavefront can meet the outer boundary's). It returns
// false once every loop has fully collapsed.
func advanceWavefront(g *Graph, shape geomkernel.Shape, loops []*loopState, stepSize float64) bool {
	anyActive := false
	var stillGrowing []*loopState
	for _, ls := range loops {
		active := activePoints(ls)
		n := len(active)
		if n < 3 {
			if n > 0 {
				collapseRemaining(g, shape, ls, active)
				clearLoop(ls)
			}
			continue
		}
		anyActive = true
		newPos := make([]bead.Point, n)
		for i, wp := range active {
			prev := active[(i-1+n)%n].pos
			next := active[(i+1)%n].pos
			newPos[i] = miterStep(prev, wp.pos, next, ls.orientation, stepSize)
		}
		for i, wp := range active {
			wp.pos = newPos[i]
		}
		stillGrowing = append(stillGrowing, ls)
	}
	if len(stillGrowing) > 0 {
		resolveCollisions(g, shape, stillGrowing)
	}
	return anyActive
}

// miterStep computes the new position of point p (with neighbors prev/next
// in the active polygon) after moving every edge inward by stepSize,
// matching the standard polygon-miter-offset vertex update used by
// geomkernel.Offset, but evaluated locally per vertex since the active
// point set changes shape every iteration.
func miterStep(prev, p, next bead.Point, orientation, stepSize float64) bead.Point {
	n1 := edgeNormal(prev, p, orientation)
	n2 := edgeNormal(p, next, orientation)
	bx, by := n1[0]+n2[0], n1[1]+n2[1]
	blen := math.Hypot(bx, by)
	if blen < 1e-9 {
		// Edges point in opposite directions (needle tip): just back off
		// along the incoming edge's normal.
		return bead.Point{
			X: p.X + bead.Coord(math.Round(n1[0]*stepSize)),
			Y: p.Y + bead.Coord(math.Round(n1[1]*stepSize)),
		}
	}
	bx, by = bx/blen, by/blen
	// cos(half-angle) scales the bisector step so the offset edges land
	// exactly stepSize away, not the bisector itself.
	cosHalf := (n1[0]*bx + n1[1]*by)
	if cosHalf < 0.2 {
		cosHalf = 0.2 // clamp sharp reflex miters to avoid runaway spikes
	}
	scale := stepSize / cosHalf
	return bead.Point{
		X: p.X + bead.Coord(math.Round(bx*scale)),
		Y: p.Y + bead.Coord(math.Round(by*scale)),
	}
}

// edgeNormal returns the unit normal of edge a->b pointing into the
// material (inward for an outer/CCW loop, outward-from-hole for a CW loop).
func edgeNormal(a, b bead.Point, orientation float64) [2]float64 {
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	length := math.Hypot(dx, dy)
	if length == 0 {
		return [2]float64{0, 0}
	}
	// Right-hand normal of (dx,dy) points outward for a CCW loop; negate to
	// point inward, and flip again for a CW (hole) loop so "inward" still
	// means "into the printable material".
	nx, ny := -dy/length, dx/length
	return [2]float64{nx * orientation, ny * orientation}
}

func activePoints(ls *loopState) []*wavefrontPoint {
	out := make([]*wavefrontPoint, 0, len(ls.points))
	for _, p := range ls.points {
		if !p.dead {
			out = append(out, p)
		}
	}
	return out
}

func clearLoop(ls *loopState) {
	for _, p := range ls.points {
		p.dead = true
	}
}

// extendChain grows wp's lineage to a freshly created node at the
// wavefront's new position, recording the chain's start edge (the "quad
// start", Prev == 0) the first time a point moves. The node's radius is
// its exact distance to the prepared boundary, so a ridge tracer's nodes
// carry the local half-thickness rather than the wavefront's iteration
// count. Every intermediate node also gets a rib edge pair back down to
// the lineage's boundary origin, subdividing the quad it borders.
func extendChain(g *Graph, shape geomkernel.Shape, wp *wavefrontPoint) NodeID {
	dist := geomkernel.DistanceToBoundary(wp.pos, shape)
	nid := g.AddNode(newNode(wp.pos, dist, false, false))
	edge := g.AddEdgePair(wp.lastNode, nid, KindCentral)
	if wp.lastEdge != 0 {
		g.LinkChainStep(wp.lastEdge, edge)
	} else {
		g.SetChainStart(wp.lastNode, edge)
	}
	g.AddEdgePair(nid, wp.origin, KindRib)
	wp.lastNode = nid
	wp.lastEdge = edge
	return nid
}

// linkToPeak closes wp's lineage into peak without creating a new
// intermediate node, chaining the final edge onto whatever preceded it,
// and returns the closing edge so a surviving lineage can continue the
// chain past the peak.
func linkToPeak(g *Graph, wp *wavefrontPoint, peak NodeID) EdgeID {
	edge := g.AddEdgePair(wp.lastNode, peak, KindCentral)
	if wp.lastEdge != 0 {
		g.LinkChainStep(wp.lastEdge, edge)
	} else {
		g.SetChainStart(wp.lastNode, edge)
	}
	return edge
}

// resolveCollisions extends every active point's chain to its new
// position, then looks for pairs that have crossed or grown very close —
// first among array-adjacent points within the same loop (the common
// case), then, for whatever survives that pass, across every remaining
// active point regardless of loop, so a hole loop's wavefront correctly
// merges with the outer loop's (or another hole's) rather than only ever
// colliding with itself. A same-loop pair collapses into a shared peak
// node from which one of the two lineages continues as a ridge tracer; a
// cross-loop pair retires both lineages, since stitching two separate
// rings into one is not attempted.
func resolveCollisions(g *Graph, shape geomkernel.Shape, loops []*loopState) {
	type entry struct {
		ls *loopState
		wp *wavefrontPoint
	}
	var all []entry
	byLoop := make(map[*loopState][]*wavefrontPoint)
	for _, ls := range loops {
		active := activePoints(ls)
		byLoop[ls] = active
		for _, wp := range active {
			extendChain(g, shape, wp)
			all = append(all, entry{ls, wp})
		}
	}

	killed := make(map[*wavefrontPoint]bool)

	// Same-loop adjacency: the common case, and the only kind of collision
	// possible for a single simple polygon. The second point of the pair
	// survives in place as the ridge tracer, continuing the first point's
	// chain outward from the peak.
	for _, ls := range loops {
		active := byLoop[ls]
		n := len(active)
		for i := 0; i < n; i++ {
			a := active[i]
			if killed[a] {
				continue
			}
			j := (i + 1) % n
			if j == i || killed[active[j]] {
				continue
			}
			b := active[j]
			if bead.Dist(a.pos, b.pos) < collisionEpsilon {
				peak, chainEdge := mergeLineages(g, shape, ls, a, ls, b)
				killed[a] = true
				b.pos = g.Node(peak).Pos
				b.lastNode = peak
				b.lastEdge = chainEdge
			}
		}
	}

	// Cross-loop proximity: an outer loop's inward wavefront and a hole
	// loop's outward wavefront (or two holes' wavefronts) meeting in the
	// gap between them. O(n^2) over whatever's still active; the active
	// sets shrink every iteration, so this stays cheap in practice.
	for i := 0; i < len(all); i++ {
		if killed[all[i].wp] {
			continue
		}
		for j := i + 1; j < len(all); j++ {
			if all[i].ls == all[j].ls || killed[all[j].wp] {
				continue
			}
			if bead.Dist(all[i].wp.pos, all[j].wp.pos) < collisionEpsilon {
				mergeLineages(g, shape, all[i].ls, all[i].wp, all[j].ls, all[j].wp)
				killed[all[i].wp] = true
				killed[all[j].wp] = true
				break
			}
		}
	}

	for _, e := range all {
		if killed[e.wp] {
			e.wp.dead = true
		}
	}
}

// mergeLineages collapses two lineages into a shared peak node whose
// radius is the peak position's exact distance to the boundary, and
// returns the peak plus the first lineage's closing edge (the edge a
// surviving ridge tracer continues from).
func mergeLineages(g *Graph, shape geomkernel.Shape, lsA *loopState, a *wavefrontPoint, lsB *loopState, b *wavefrontPoint) (NodeID, EdgeID) {
	pos := bead.Lerp(a.pos, b.pos, 0.5)
	dist := geomkernel.DistanceToBoundary(pos, shape)
	peak := g.AddNode(newNode(pos, dist, false, true))
	chainEdge := linkToPeak(g, a, peak)
	linkToPeak(g, b, peak)
	lsA.recordDeath(a.origIndex, dist)
	lsB.recordDeath(b.origIndex, dist)
	return peak, chainEdge
}

// collisionEpsilon is the distance below which two adjacent wavefront
// lineages are considered to have met. It is expressed in micrometers and
// kept deliberately coarse: this is a discretized approximation of an exact
// collapse event (see Build's doc comment), not an attempt at sub-step
// precision.
const collisionEpsilon = 80

func collapseRemaining(g *Graph, shape geomkernel.Shape, ls *loopState, active []*wavefrontPoint) {
	if len(active) == 0 {
		return
	}
	var cx, cy float64
	for _, wp := range active {
		cx += float64(wp.pos.X)
		cy += float64(wp.pos.Y)
	}
	n := float64(len(active))
	pos := bead.Point{X: bead.Coord(math.Round(cx / n)), Y: bead.Coord(math.Round(cy / n))}
	dist := geomkernel.DistanceToBoundary(pos, shape)
	peak := g.AddNode(newNode(pos, dist, false, true))
	for _, wp := range active {
		linkToPeak(g, wp, peak)
		ls.recordDeath(wp.origIndex, dist)
		wp.dead = true
	}
}

func finalizeSurvivors(g *Graph, shape geomkernel.Shape, loops []*loopState) {
	for _, ls := range loops {
		active := activePoints(ls)
		if len(active) > 0 {
			collapseRemaining(g, shape, ls, active)
			clearLoop(ls)
		}
	}
}
