package wall

import (
	"sort"

	"github.com/wsd07/CuraEngine/internal/bead"
	"github.com/wsd07/CuraEngine/internal/geomkernel"
)

// ZSeamPoint is one user-placed seam anchor: an (x, y) target in
// micrometers, valid at a given layer height z.
type ZSeamPoint struct {
	X, Y bead.Coord
	Z    float64
}

// resolveLayerZ returns the layer's z height; a negative LayerZ is the
// sentinel for "fall back to layer_index * layer_height".
func resolveLayerZ(settings Settings) float64 {
	if settings.LayerZ < 0 {
		return float64(settings.LayerIndex) * settings.LayerHeight
	}
	return settings.LayerZ
}

// interpolateZSeam resolves the seam target for one layer:
// given the current layer's z height, linearly interpolate an (x, y) target
// between the two configured seam points bracketing it by z. Below the
// lowest point, use the lowest; above the highest, return ok=false (no seam)
// if grow is set, otherwise use the highest. Points need not arrive sorted.
func interpolateZSeam(points []ZSeamPoint, z float64, grow bool) (bead.Point, bool) {
	if len(points) == 0 {
		return bead.Point{}, false
	}
	sorted := append([]ZSeamPoint(nil), points...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Z < sorted[j].Z })

	if z <= sorted[0].Z {
		return bead.Point{X: sorted[0].X, Y: sorted[0].Y}, true
	}
	last := sorted[len(sorted)-1]
	if z >= last.Z {
		if grow {
			return bead.Point{}, false
		}
		return bead.Point{X: last.X, Y: last.Y}, true
	}
	for i := 1; i < len(sorted); i++ {
		if z > sorted[i].Z {
			continue
		}
		lo, hi := sorted[i-1], sorted[i]
		span := hi.Z - lo.Z
		if span <= 0 {
			return bead.Point{X: lo.X, Y: lo.Y}, true
		}
		t := (z - lo.Z) / span
		return bead.Lerp(bead.Point{X: lo.X, Y: lo.Y}, bead.Point{X: hi.X, Y: hi.Y}, t), true
	}
	return bead.Point{X: last.X, Y: last.Y}, true
}

// seamTarget resolves the current layer's interpolated seam point, if any is
// configured and active.
func seamTarget(settings Settings) (bead.Point, bool) {
	if !settings.DrawZSeamEnable || len(settings.DrawZSeamPoints) == 0 {
		return bead.Point{}, false
	}
	if !settings.ZSeamPointInterpolation {
		p := settings.DrawZSeamPoints[0]
		return bead.Point{X: p.X, Y: p.Y}, true
	}
	return interpolateZSeam(settings.DrawZSeamPoints, resolveLayerZ(settings), settings.DrawZSeamGrow)
}

// insertSeamPoint finds the polygon edge nearest target and splits it by
// inserting target's projection onto that edge as a new vertex, so the
// polygon has a vertex exactly at the requested seam location. The vertex
// order is not rotated. A no-op for degenerate polygons.
func insertSeamPoint(p geomkernel.Polygon, target bead.Point) geomkernel.Polygon {
	n := len(p)
	if n < 2 {
		return p
	}
	bestIdx := -1
	bestDist := -1.0
	var bestProj bead.Point
	for i := 0; i < n; i++ {
		a, b := p[i], p[(i+1)%n]
		proj := projectOntoSegment(target, a, b)
		d := bead.Dist(target, proj)
		if bestIdx < 0 || d < bestDist {
			bestIdx, bestDist, bestProj = i, d, proj
		}
	}
	if bestIdx < 0 {
		return p
	}
	if bestProj == p[bestIdx] || bestProj == p[(bestIdx+1)%n] {
		return p
	}
	out := make(geomkernel.Polygon, 0, n+1)
	out = append(out, p[:bestIdx+1]...)
	out = append(out, bestProj)
	out = append(out, p[bestIdx+1:]...)
	return out
}

// insertSeamPoints applies insertSeamPoint to every polygon in shape.
func insertSeamPoints(shape geomkernel.Shape, target bead.Point) geomkernel.Shape {
	out := make(geomkernel.Shape, len(shape))
	for i, p := range shape {
		out[i] = insertSeamPoint(p, target)
	}
	return out
}

func projectOntoSegment(p, a, b bead.Point) bead.Point {
	abx, aby := float64(b.X-a.X), float64(b.Y-a.Y)
	lenSq := abx*abx + aby*aby
	if lenSq == 0 {
		return a
	}
	apx, apy := float64(p.X-a.X), float64(p.Y-a.Y)
	t := (apx*abx + apy*aby) / lenSq
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return bead.Lerp(a, b, t)
}
