// Package geomkernel provides the 2D polygon operations the wall generator
// builds on: signed area, point containment, offsetting, simplification,
// morphological open/close, and self-intersection repair, all on integer
// micrometer coordinates. No fetchable pure-Go package covers
// integer-coordinate polygon clipping and offsetting (go-libtess2 is a cgo
// binding over bundled C sources, and a tessellator besides), so these are
// implemented here directly; the wall orchestrator and the skeletal
// trapezoidation only use the functions in this file, so a full clipping
// library could be substituted without touching either.
package geomkernel

import (
	"math"
	"sort"

	"github.com/wsd07/CuraEngine/internal/bead"
)

// Polygon is a single closed loop, implicitly closed (last point connects
// to the first). Orientation follows the even-odd fill rule used
// throughout: outer loops are counter-clockwise, holes clockwise, but
// callers must not rely on this for anything beyond area sign.
type Polygon []bead.Point

// Shape is an even-odd collection of polygons.
type Shape []Polygon

// Area returns the signed shoelace area of a single polygon (positive for
// counter-clockwise loops).
func Area(p Polygon) float64 {
	n := len(p)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += float64(p[i].X)*float64(p[j].Y) - float64(p[j].X)*float64(p[i].Y)
	}
	return sum / 2
}

// TotalArea sums the even-odd area of a shape (holes are expected to carry
// negative area already from their clockwise orientation).
func TotalArea(s Shape) float64 {
	var total float64
	for _, p := range s {
		total += Area(p)
	}
	return total
}

// BoundingBox returns the min/max corners across every polygon in the shape.
func BoundingBox(s Shape) (min, max bead.Point) {
	first := true
	for _, poly := range s {
		for _, p := range poly {
			if first {
				min, max = p, p
				first = false
				continue
			}
			if p.X < min.X {
				min.X = p.X
			}
			if p.Y < min.Y {
				min.Y = p.Y
			}
			if p.X > max.X {
				max.X = p.X
			}
			if p.Y > max.Y {
				max.Y = p.Y
			}
		}
	}
	return min, max
}

// DistanceToPolygon returns the minimum distance from pt to the boundary of
// polygon p (treated as a closed loop of segments).
func DistanceToPolygon(pt bead.Point, p Polygon) float64 {
	best := math.Inf(1)
	n := len(p)
	for i := 0; i < n; i++ {
		a := p[i]
		b := p[(i+1)%n]
		d := distanceToSegment(pt, a, b)
		if d < best {
			best = d
		}
	}
	return best
}

// DistanceToBoundary returns the minimum distance from pt to the nearest
// edge of any polygon in the shape.
func DistanceToBoundary(pt bead.Point, s Shape) float64 {
	best := math.Inf(1)
	for _, p := range s {
		if d := DistanceToPolygon(pt, p); d < best {
			best = d
		}
	}
	return best
}

func distanceToSegment(pt, a, b bead.Point) float64 {
	abx := float64(b.X - a.X)
	aby := float64(b.Y - a.Y)
	lenSq := abx*abx + aby*aby
	if lenSq == 0 {
		return bead.Dist(pt, a)
	}
	t := (float64(pt.X-a.X)*abx + float64(pt.Y-a.Y)*aby) / lenSq
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	proj := bead.Point{
		X: a.X + bead.Coord(math.Round(t*abx)),
		Y: a.Y + bead.Coord(math.Round(t*aby)),
	}
	return bead.Dist(pt, proj)
}

// PointInShape reports whether pt is inside the shape under the even-odd
// fill rule (ray casting, one crossing test per polygon, XOR'd together).
func PointInShape(pt bead.Point, s Shape) bool {
	inside := false
	for _, p := range s {
		if pointInPolygonRayCast(pt, p) {
			inside = !inside
		}
	}
	return inside
}

func pointInPolygonRayCast(pt bead.Point, p Polygon) bool {
	n := len(p)
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := p[i], p[j]
		if (pi.Y > pt.Y) != (pj.Y > pt.Y) {
			xIntersect := float64(pj.X-pi.X)*float64(pt.Y-pi.Y)/float64(pj.Y-pi.Y) + float64(pi.X)
			if float64(pt.X) < xIntersect {
				inside = !inside
			}
		}
	}
	return inside
}

// Offset returns a polygon whose edges are each translated inward (negative
// distance) or outward (positive distance) along their normal, with new
// vertices placed at the miter intersection of consecutive offset edges.
// This is the standard per-edge-miter offset: it preserves vertex count and
// topology and is adequate for the single-shot offsets C5/C6 need (it is
// not iterated to find skeleton collapse events — the skeletal
// trapezoidation in internal/skeletal implements its own stepped erosion
// with explicit collapse handling for that purpose).
func Offset(p Polygon, distance float64) Polygon {
	n := len(p)
	if n < 3 || distance == 0 {
		out := make(Polygon, n)
		copy(out, p)
		return out
	}
	lines := make([]lineEq, n)
	for i := 0; i < n; i++ {
		a := p[i]
		b := p[(i+1)%n]
		lines[i] = offsetEdge(a, b, distance)
	}
	out := make(Polygon, n)
	for i := 0; i < n; i++ {
		prev := lines[(i-1+n)%n]
		cur := lines[i]
		pt, ok := intersectLines(prev, cur)
		if !ok {
			// Parallel/degenerate edges: fall back to moving the vertex
			// along the current edge's normal.
			pt = p[i].Add(bead.Point{
				X: bead.Coord(math.Round(cur.nx * distance)),
				Y: bead.Coord(math.Round(cur.ny * distance)),
			})
		}
		out[i] = pt
	}
	return out
}

// OffsetShape offsets every polygon in the shape independently.
func OffsetShape(s Shape, distance float64) Shape {
	out := make(Shape, len(s))
	for i, p := range s {
		out[i] = Offset(p, distance)
	}
	return out
}

type lineEq struct {
	// A point on the offset line plus its unit normal (nx, ny); the line is
	// { pt + t*(dx,dy) }, i.e. it runs in the original edge direction.
	px, py float64
	dx, dy float64 // original edge direction (not normalized)
	nx, ny float64 // unit outward normal used for the offset
}

func offsetEdge(a, b bead.Point, distance float64) lineEq {
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	length := math.Hypot(dx, dy)
	var nx, ny float64
	if length > 0 {
		// Right-hand normal of (dx,dy); for a CCW polygon this points
		// outward, so moving along +distance*normal grows the polygon and
		// -distance shrinks it (consistent with "negative = inward").
		nx, ny = dy/length, -dx/length
	}
	return lineEq{
		px: float64(a.X) + nx*distance,
		py: float64(a.Y) + ny*distance,
		dx: dx, dy: dy,
		nx: nx, ny: ny,
	}
}

func intersectLines(l1, l2 lineEq) (bead.Point, bool) {
	// l1: (px1,py1) + t*(dx1,dy1); l2: (px2,py2) + s*(dx2,dy2)
	denom := l1.dx*l2.dy - l1.dy*l2.dx
	if math.Abs(denom) < 1e-9 {
		return bead.Point{}, false
	}
	t := ((l2.px-l1.px)*l2.dy - (l2.py-l1.py)*l2.dx) / denom
	x := l1.px + t*l1.dx
	y := l1.py + t*l1.dy
	return bead.Point{X: bead.Coord(math.Round(x)), Y: bead.Coord(math.Round(y))}, true
}

// RemoveDegenerate drops vertices that are within epsilon of their
// predecessor (near-zero-length edges) and collinear vertices whose removal
// changes the polygon by less than epsilon.
func RemoveDegenerate(p Polygon, epsilon float64) Polygon {
	n := len(p)
	if n < 4 {
		return p
	}
	out := make(Polygon, 0, n)
	for i := 0; i < n; i++ {
		prev := p[(i-1+n)%n]
		cur := p[i]
		next := p[(i+1)%n]
		if bead.Dist(prev, cur) < epsilon {
			continue
		}
		if isCollinear(prev, cur, next, epsilon) {
			continue
		}
		out = append(out, cur)
	}
	if len(out) < 3 {
		return p
	}
	return out
}

func isCollinear(a, b, c bead.Point, epsilon float64) bool {
	abx, aby := float64(b.X-a.X), float64(b.Y-a.Y)
	acx, acy := float64(c.X-a.X), float64(c.Y-a.Y)
	cross := abx*acy - aby*acx
	lenAC := math.Hypot(acx, acy)
	if lenAC == 0 {
		return true
	}
	dist := math.Abs(cross) / lenAC
	return dist < epsilon
}

// Simplify applies a Douglas-Peucker reduction bounded by maxDeviation, then
// merges any remaining segment shorter than maxResolution into its neighbor.
func Simplify(p Polygon, maxResolution, maxDeviation float64) Polygon {
	if len(p) < 4 {
		return p
	}
	closed := append(append(Polygon{}, p...), p[0])
	reduced := douglasPeucker(closed, maxDeviation)
	if len(reduced) > 1 && reduced[len(reduced)-1] == reduced[0] {
		reduced = reduced[:len(reduced)-1]
	}
	return mergeShortEdges(reduced, minResolutionOrDefault(maxResolution))
}

func minResolutionOrDefault(r float64) float64 {
	if r <= 0 {
		return 1
	}
	return r
}

func douglasPeucker(pts Polygon, epsilon float64) Polygon {
	if len(pts) < 3 {
		return pts
	}
	dmax := 0.0
	index := 0
	end := len(pts) - 1
	for i := 1; i < end; i++ {
		d := distanceToSegment(pts[i], pts[0], pts[end])
		if d > dmax {
			index = i
			dmax = d
		}
	}
	if dmax > epsilon {
		left := douglasPeucker(pts[:index+1], epsilon)
		right := douglasPeucker(pts[index:], epsilon)
		out := make(Polygon, 0, len(left)+len(right)-1)
		out = append(out, left[:len(left)-1]...)
		out = append(out, right...)
		return out
	}
	return Polygon{pts[0], pts[end]}
}

func mergeShortEdges(p Polygon, minLen float64) Polygon {
	if len(p) < 4 {
		return p
	}
	out := make(Polygon, 0, len(p))
	n := len(p)
	skip := make([]bool, n)
	for i := 0; i < n; i++ {
		if skip[i] {
			continue
		}
		j := (i + 1) % n
		if !skip[j] && bead.Dist(p[i], p[j]) < minLen && len(p)-countTrue(skip) > 3 {
			skip[j] = true
		}
	}
	for i := 0; i < n; i++ {
		if !skip[i] {
			out = append(out, p[i])
		}
	}
	if len(out) < 3 {
		return p
	}
	return out
}

func countTrue(b []bool) int {
	c := 0
	for _, v := range b {
		if v {
			c++
		}
	}
	return c
}

// SmoothFluidMotion relaxes micro-jitter left by mesh fixing: any vertex
// whose two adjacent segments are both shorter than 4*shiftDist is pulled a
// quarter of the way toward the midpoint of its neighbors. Corners with at
// least one long adjacent segment are real geometry and stay put.
func SmoothFluidMotion(p Polygon, shiftDist float64) Polygon {
	n := len(p)
	if n < 4 || shiftDist <= 0 {
		return p
	}
	maxSeg := 4 * shiftDist
	out := make(Polygon, n)
	for i := 0; i < n; i++ {
		prev := p[(i-1+n)%n]
		cur := p[i]
		next := p[(i+1)%n]
		if bead.Dist(prev, cur) >= maxSeg || bead.Dist(cur, next) >= maxSeg {
			out[i] = cur
			continue
		}
		mid := bead.Lerp(prev, next, 0.5)
		out[i] = bead.Lerp(cur, mid, 0.25)
	}
	return out
}

// FixSelfIntersections removes a polygon's self-crossings by a bounded
// best-effort pass: it looks for a pair of non-adjacent edges that cross
// and, when found, splits the polygon at the crossing and keeps the larger
// of the two resulting loops. This is not a general Weiler-Atherton
// implementation; it is sufficient to repair the mild self-intersections
// that offsetting and simplification can introduce.
func FixSelfIntersections(p Polygon) Polygon {
	const maxPasses = 8
	cur := p
	for pass := 0; pass < maxPasses; pass++ {
		fixed, changed := fixOnePass(cur)
		cur = fixed
		if !changed {
			break
		}
	}
	return cur
}

func fixOnePass(p Polygon) (Polygon, bool) {
	n := len(p)
	if n < 4 {
		return p, false
	}
	for i := 0; i < n; i++ {
		a1, a2 := p[i], p[(i+1)%n]
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue // adjacent wrap-around edge
			}
			b1, b2 := p[j], p[(j+1)%n]
			if ix, ok := segmentIntersection(a1, a2, b1, b2); ok {
				loopA := append(Polygon{ix}, p[i+1:j+1]...)
				loopB := append(Polygon{ix}, p[j+1:]...)
				loopB = append(loopB, p[:i+1]...)
				if math.Abs(Area(loopA)) >= math.Abs(Area(loopB)) {
					return loopA, true
				}
				return loopB, true
			}
		}
	}
	return p, false
}

func segmentIntersection(a1, a2, b1, b2 bead.Point) (bead.Point, bool) {
	d1x, d1y := float64(a2.X-a1.X), float64(a2.Y-a1.Y)
	d2x, d2y := float64(b2.X-b1.X), float64(b2.Y-b1.Y)
	denom := d1x*d2y - d1y*d2x
	if math.Abs(denom) < 1e-9 {
		return bead.Point{}, false
	}
	t := (float64(b1.X-a1.X)*d2y - float64(b1.Y-a1.Y)*d2x) / denom
	u := (float64(b1.X-a1.X)*d1y - float64(b1.Y-a1.Y)*d1x) / denom
	if t <= 0 || t >= 1 || u <= 0 || u >= 1 {
		return bead.Point{}, false
	}
	x := float64(a1.X) + t*d1x
	y := float64(a1.Y) + t*d1y
	return bead.Point{X: bead.Coord(math.Round(x)), Y: bead.Coord(math.Round(y))}, true
}

// OpenClose performs a morphological opening (erode then dilate, for a
// positive distance) to remove slivers narrower than 2*distance.
func OpenClose(s Shape, distance float64) Shape {
	if distance <= 0 {
		return s
	}
	eroded := OffsetShape(s, -distance)
	kept := make(Shape, 0, len(eroded))
	for i, p := range eroded {
		// A loop eroded past its collapse comes back inverted: its orientation
		// flips, or (a triangle) it is point-reflected with every edge reversed.
		reversed := 0
		for j := range p {
			k := (j + 1) % len(p)
			if float64(p[k].X-p[j].X)*float64(s[i][k].X-s[i][j].X)+float64(p[k].Y-p[j].Y)*float64(s[i][k].Y-s[i][j].Y) < 0 {
				reversed++
			}
		}
		if Area(p)*Area(s[i]) > 0 && reversed < len(p) {
			kept = append(kept, p)
		}
	}
	return OffsetShape(kept, distance)
}

// UnionEvenOdd concatenates shapes under the even-odd fill rule. This is not
// a general polygon-boolean union: it is exact when the input polygons are
// disjoint or properly nested, which is the only case the wall generator
// exercises it for (collecting inner-contour pieces from separate inset
// buckets).
func UnionEvenOdd(shapes ...Shape) Shape {
	var out Shape
	for _, s := range shapes {
		out = append(out, s...)
	}
	return out
}

// RemoveSmallAreas drops polygons whose absolute area is below minArea.
func RemoveSmallAreas(s Shape, minArea float64) Shape {
	out := make(Shape, 0, len(s))
	for _, p := range s {
		if math.Abs(Area(p)) >= minArea {
			out = append(out, p)
		}
	}
	return out
}

// SortByArea returns a copy of the shape's polygons sorted by descending
// absolute area, used to make output ordering deterministic.
func SortByArea(s Shape) Shape {
	out := make(Shape, len(s))
	copy(out, s)
	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(Area(out[i])) > math.Abs(Area(out[j]))
	})
	return out
}
