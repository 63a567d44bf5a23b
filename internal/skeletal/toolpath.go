package skeletal

import (
	"math"

	"github.com/wsd07/CuraEngine/internal/bead"
	"github.com/wsd07/CuraEngine/internal/beading"
	"github.com/wsd07/CuraEngine/internal/geomkernel"
)

// junctionSample is one placed junction plus whether it is the single
// center bead of an odd-count region, which stitchBead propagates onto the
// ExtrusionLine's IsOdd flag.
type junctionSample struct {
	j   bead.ExtrusionJunction
	odd bool
}

// GenerateToolpaths performs junction generation and stitching on top of a
// graph Build has already run centrality, transitions, and beading
// propagation over:
// for every original boundary vertex, it walks that vertex's outward
// central-edge chain (Graph.Chain) and, for each bead index, finds the
// edge along the chain whose radius range brackets that bead's
// toolpath_location (read off the propagated Beading at the edge's
// endpoints), placing one ExtrusionJunction there by linearly interpolating
// position between the edge's two node positions. Every original vertex
// contributes at most one junction per bead per quad it borders; stitching
// those in original-vertex order around the polygon produces the
// ExtrusionLine for that bead — closed if every vertex contributed a
// junction, split into separate open segments at any vertex that didn't
// (the bead pinched out locally, e.g. at a sharp corner).
//
// A per-vertex blend of adjacent edge Beadings keyed off QuadThickness
// (blendedFallback), clipped to the near half of each cross-section so the
// opposite boundary places the far half's beads, serves as the baseline;
// junctions placed from the propagated graph overlay it wherever a
// vertex's chain produced one. Corner fans, whose chain nodes never carry
// a propagated Beading, keep their baseline junctions, while ridge chains
// refine theirs with the transition-aware propagated positions.
func GenerateToolpaths(g *Graph, shape geomkernel.Shape, strategy beading.Strategy) []bead.VariableWidthLines {
	lines := make(map[int]*bead.VariableWidthLines)
	maxInset := -1

	loops := g.BoundaryLoops()
	for li, polygon := range shape {
		if li >= len(loops) || len(polygon) < 3 {
			continue
		}
		n := len(polygon)
		nodeIDs := boundaryNodeIDs(g, loops[li], n)

		perVertex, maxCount := blendedFallback(g, loops[li], polygon, strategy)
		for i := 0; i < n; i++ {
			chain := g.Chain(nodeIDs[i])
			if chain == nil {
				continue
			}
			for k, s := range junctionsAlongChain(g, chain) {
				if perVertex[i] == nil {
					perVertex[i] = make(map[int]junctionSample)
				}
				perVertex[i][k] = s
				if k+1 > maxCount {
					maxCount = k + 1
				}
			}
		}

		for k := 0; k < maxCount; k++ {
			for _, segment := range stitchBead(perVertex, k, n) {
				if len(segment.Junctions) < 2 {
					continue
				}
				if segment.IsOdd && segment.Length() < float64(segment.MinWidth())/2 {
					segment = hexagonLoop(segment)
				}
				vwl, ok := lines[k]
				if !ok {
					vwl = &bead.VariableWidthLines{InsetIdx: k}
					lines[k] = vwl
				}
				vwl.Lines = append(vwl.Lines, segment)
				if k > maxInset {
					maxInset = k
				}
			}
		}
	}

	out := make([]bead.VariableWidthLines, 0, maxInset+1)
	for k := 0; k <= maxInset; k++ {
		if vwl, ok := lines[k]; ok {
			out = append(out, *vwl)
		}
	}
	return out
}

// boundaryNodeIDs recovers each polygon vertex's node id from its boundary
// half-edge: edges[i] runs nodeIDs[i] -> nodeIDs[i+1].
func boundaryNodeIDs(g *Graph, edges []EdgeID, n int) []NodeID {
	ids := make([]NodeID, n)
	for i, eid := range edges {
		ids[i] = g.Edge(eid).From
	}
	return ids
}

// junctionsAlongChain walks one vertex's outward central-edge chain and,
// for each bead index present in the propagated Beading at any edge along
// it, places a junction at the position where that bead's
// toolpath_location falls within the edge's radius span.
func junctionsAlongChain(g *Graph, chain []EdgeID) map[int]junctionSample {
	out := make(map[int]junctionSample)
	for _, eid := range chain {
		e := g.Edge(eid)
		to := g.Node(e.To)
		if to.Propagation == nil {
			continue
		}
		from := g.Node(e.From)
		rFrom := from.DistanceToBoundary
		rTo := to.DistanceToBoundary
		locs := to.Propagation.Beading.ToolpathLocations
		widths := to.Propagation.Beading.BeadWidths
		for k, locRaw := range locs {
			if _, already := out[k]; already {
				continue
			}
			loc := float64(locRaw)
			if loc < rFrom || loc > rTo {
				continue
			}
			frac := 0.0
			if rTo > rFrom {
				frac = (loc - rFrom) / (rTo - rFrom)
			}
			pos := bead.Lerp(from.Pos, to.Pos, frac)
			w := bead.Coord(0)
			if k < len(widths) {
				w = widths[k]
			}
			odd := len(widths)%2 == 1 && k == len(widths)/2 && w > 0
			out[k] = junctionSample{
				j:   bead.ExtrusionJunction{P: pos, W: w, PerimeterIndex: k},
				odd: odd,
			}
		}
	}
	return out
}

// stitchBead implements connectJunctions for one bead index: junctions at
// consecutive original vertices (wrapping around the polygon) join into
// one segment; a vertex with no junction for this bead breaks the current
// segment. If every vertex contributed, the single segment closes into a
// loop; otherwise each run of consecutive contributing vertices becomes
// its own open ExtrusionLine.
func stitchBead(perVertex []map[int]junctionSample, k, n int) []*bead.ExtrusionLine {
	present := make([]bool, n)
	count := 0
	allOdd := true
	for i := 0; i < n; i++ {
		if perVertex[i] != nil {
			if s, ok := perVertex[i][k]; ok {
				present[i] = true
				count++
				if !s.odd {
					allOdd = false
				}
			}
		}
	}
	if count == 0 {
		return nil
	}
	if count == n {
		line := &bead.ExtrusionLine{IsClosed: true, InsetIdx: k, IsOdd: allOdd}
		for i := 0; i < n; i++ {
			line.Junctions = append(line.Junctions, perVertex[i][k].j)
		}
		return []*bead.ExtrusionLine{line}
	}

	var out []*bead.ExtrusionLine
	var cur *bead.ExtrusionLine
	curOdd := true
	flush := func() {
		if cur != nil {
			cur.IsOdd = curOdd
			out = append(out, cur)
			cur = nil
			curOdd = true
		}
	}
	// Start just after a vertex without a junction, so a run that wraps
	// past the last vertex stays one segment.
	start := 0
	for present[start] {
		start++
	}
	for step := 1; step <= n; step++ {
		i := (start + step) % n
		if !present[i] {
			flush()
			continue
		}
		if cur == nil {
			cur = &bead.ExtrusionLine{InsetIdx: k}
		}
		s := perVertex[i][k]
		if !s.odd {
			curOdd = false
		}
		cur.Junctions = append(cur.Junctions, s.j)
	}
	flush()
	return out
}

// hexagonLoop replaces a degenerate odd segment (a single-bead region that
// collapsed to nearly a point) with a small closed hexagonal loop around
// the segment's averaged position, radius one eighth of the bead width, so
// the printer still deposits material at an isolated local maximum.
func hexagonLoop(segment *bead.ExtrusionLine) *bead.ExtrusionLine {
	var cx, cy float64
	for _, j := range segment.Junctions {
		cx += float64(j.P.X)
		cy += float64(j.P.Y)
	}
	m := float64(len(segment.Junctions))
	center := bead.Point{X: bead.Coord(math.Round(cx / m)), Y: bead.Coord(math.Round(cy / m))}
	w := segment.Junctions[0].W
	r := float64(w) / 8

	out := &bead.ExtrusionLine{IsClosed: true, IsOdd: true, InsetIdx: segment.InsetIdx}
	for i := 0; i < 6; i++ {
		a := float64(i) * math.Pi / 3
		p := bead.Point{
			X: center.X + bead.Coord(math.Round(r*math.Cos(a))),
			Y: center.Y + bead.Coord(math.Round(r*math.Sin(a))),
		}
		out.Junctions = append(out.Junctions, bead.ExtrusionJunction{P: p, W: w, PerimeterIndex: segment.InsetIdx})
	}
	return out
}

// blendedFallback places the baseline junction set: one junction per bead
// per vertex, positioned by miter-offsetting the vertex to each bead's
// blended toolpath location. It needs only the per-edge quad thickness, so
// it works even when no propagation ran (opts.Strategy was nil); the
// propagated junctions overlay it where they exist.
func blendedFallback(g *Graph, edges []EdgeID, polygon geomkernel.Polygon, strategy beading.Strategy) ([]map[int]junctionSample, int) {
	n := len(polygon)
	orientation := 1.0
	if geomkernel.Area(polygon) < 0 {
		orientation = -1.0
	}
	edgeBeadings := make([]bead.Beading, n)
	for i, eid := range edges {
		thickness := bead.Coord(g.QuadThickness(eid))
		if thickness < 0 {
			thickness = 0
		}
		count := strategy.OptimalBeadCount(thickness)
		edgeBeadings[i] = strategy.Compute(thickness, count)
	}
	perVertex := make([]map[int]junctionSample, n)
	maxCount := 0
	for i := 0; i < n; i++ {
		prevB := edgeBeadings[(i-1+n)%n]
		curB := edgeBeadings[i]
		vb := bead.Interpolate(prevB, 0.5, curB, nil)
		perVertex[i] = make(map[int]junctionSample)
		prev := polygon[(i-1+n)%n]
		cur := polygon[i]
		next := polygon[(i+1)%n]
		for k := range vb.BeadWidths {
			loc := vb.ToolpathLocations[k]
			// Only the near half of the cross-section belongs to this
			// boundary; the opposite boundary's vertices place the far
			// half's beads as their own near insets.
			if 2*loc > vb.TotalThickness+1 {
				continue
			}
			pos := miterStep(prev, cur, next, orientation, float64(loc))
			odd := 2*loc >= vb.TotalThickness-1 && vb.BeadWidths[k] > 0
			perVertex[i][k] = junctionSample{
				j:   bead.ExtrusionJunction{P: pos, W: vb.BeadWidths[k], PerimeterIndex: k},
				odd: odd,
			}
			if k+1 > maxCount {
				maxCount = k + 1
			}
		}
	}
	return perVertex, maxCount
}
