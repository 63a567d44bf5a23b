package wall

import (
	"log/slog"

	"github.com/wsd07/CuraEngine/internal/bead"
	"github.com/wsd07/CuraEngine/internal/beading"
	"github.com/wsd07/CuraEngine/internal/geomkernel"
	"github.com/wsd07/CuraEngine/internal/skeletal"
)

// Result is the orchestrator's output: the variable-width toolpaths bucketed
// by inset index, plus a lazily computed inner contour (the boundary left
// over once every wall has been cut away, used to seed infill).
type Result struct {
	VariableWidthLines []bead.VariableWidthLines

	shape        geomkernel.Shape
	totalInset   float64
	contour      geomkernel.Shape
	contourFound bool
	innerContour geomkernel.Shape
	innerReady   bool
}

// InnerContour computes (and caches) the region inside every generated
// wall. When the beading engine emitted zero-width contour-marker lines,
// those are the inner contour directly (unioned under the even-odd rule);
// otherwise it falls back to offsetting the outline by the total wall
// depth. It is a lazy getter: most callers only need VariableWidthLines,
// so the extra union/offset pass is skipped unless asked for. With a wall
// count of 0 the preprocessed outline comes back unchanged.
func (r *Result) InnerContour() geomkernel.Shape {
	if r.innerReady {
		return r.innerContour
	}
	if r.contourFound {
		r.innerContour = geomkernel.UnionEvenOdd(r.contour)
		r.innerReady = true
		return r.innerContour
	}
	inner := geomkernel.OffsetShape(r.shape, -r.totalInset)
	cleaned := make(geomkernel.Shape, 0, len(inner))
	for _, p := range inner {
		cleaned = append(cleaned, geomkernel.FixSelfIntersections(p))
	}
	r.innerContour = geomkernel.RemoveSmallAreas(cleaned, 1)
	r.innerReady = true
	return r.innerContour
}

// GenerateWalls is the module's single entry point: it preprocesses shape,
// picks between the skeletal trapezoidation and the simple-offset fallback
// per the beading strategy scope, and returns every generated inset bucket.
func GenerateWalls(shape geomkernel.Shape, settings Settings) (*Result, error) {
	settings = settings.repair()

	prepared := preprocess(shape, settings)
	if len(prepared) == 0 || geomkernel.TotalArea(prepared) <= 0 {
		// Empty or non-positive area after preprocessing is not an error,
		// just an empty result.
		slog.Debug("wall: outline degenerate after preprocessing, returning empty result")
		return &Result{shape: shape}, nil
	}

	if settings.WallCount <= 0 {
		return &Result{shape: prepared}, nil
	}

	var lines []bead.VariableWidthLines
	if useSimpleOffset(prepared, settings) {
		lines = simpleOffsetWalls(prepared, settings)
	} else {
		strategy := buildStrategyStack(settings)
		// Build once over the whole prepared shape (outer loop(s) and holes
		// together), not per polygon: a hole's wavefront has to collide with
		// the outer boundary's (or another hole's) to get correct thickness
		// and centrality for multi-loop shapes (annulus, a square with a
		// hole), and that can only happen if skeletal.Build sees every loop
		// in the same call.
		g := skeletal.Build(prepared, skeletal.BuildOptions{
			StepSize:                  settings.StepSize,
			Strategy:                  strategy,
			TransitionAngle:           settings.WallTransitionAngle,
			TransitionFilterDistance:  float64(settings.WallTransitionFilterDistance),
			TransitionFilterDeviation: float64(settings.WallTransitionFilterDeviation),
			OuterEdgeFilterLength:     float64(settings.OuterEdgeFilterLength),
			FilterOuterCentralEdges:   settings.FilterOuterCentralEdges,
		})
		lines = skeletal.GenerateToolpaths(g, prepared, strategy)
	}
	return finish(prepared, settings, lines), nil
}

// preprocess applies the opening, small-area removal, simplification, and
// optional fluid-motion smoothing passes, then the repair sequence — fix
// self-intersections, remove degenerate and near-collinear vertices, union
// under the even-odd rule, simplify again, and clear any
// near-self-intersections the second simplify introduced — and finally
// pre-inserts the Z-seam interpolation point into each polygon's nearest
// edge (the pre-offset pass of the two-pass Z-seam handling).
func preprocess(shape geomkernel.Shape, settings Settings) geomkernel.Shape {
	opened := geomkernel.OpenClose(shape, float64(settings.MinFeatureSize)/2)
	noSlivers := geomkernel.RemoveSmallAreas(opened, settings.MinWallArea)
	smooth := settings.MeshfixFluidMotionEnabled && settings.SectionType != SectionSupport
	repaired := make(geomkernel.Shape, 0, len(noSlivers))
	for _, p := range noSlivers {
		simplified := geomkernel.Simplify(p, settings.MaxResolution, settings.MaxDeviation)
		if smooth {
			simplified = geomkernel.SmoothFluidMotion(simplified, float64(settings.MaxResolution))
		}
		fixed := geomkernel.FixSelfIntersections(simplified)
		fixed = geomkernel.RemoveDegenerate(fixed, settings.MaxDeviation)
		if len(fixed) >= 3 {
			repaired = append(repaired, fixed)
		}
	}

	unioned := geomkernel.UnionEvenOdd(repaired)
	out := make(geomkernel.Shape, 0, len(unioned))
	for _, p := range unioned {
		p = geomkernel.Simplify(p, settings.MaxResolution, settings.MaxDeviation)
		p = geomkernel.FixSelfIntersections(p)
		if len(p) >= 3 {
			out = append(out, p)
		}
	}

	if target, ok := seamTarget(settings); ok {
		out = insertSeamPoints(out, target)
	}
	return out
}

// beadingEnabled answers whether the configured strategy scope runs the
// variable-width engine for the current section type.
func beadingEnabled(settings Settings) bool {
	switch settings.BeadingStrategyScope {
	case ScopeOff:
		return false
	case ScopeOnlySkin:
		return settings.SectionType == SectionSkin
	case ScopeInnerWallSkin:
		return settings.SectionType == SectionSkin || settings.SectionType == SectionWall
	default:
		return true
	}
}

// useSimpleOffset dispatches to the constant-width fallback when the scope
// disables beading for this section, or when the region is too small for
// the skeletal pipeline to produce anything a plain offset wouldn't.
func useSimpleOffset(shape geomkernel.Shape, settings Settings) bool {
	if !beadingEnabled(settings) {
		return true
	}
	min, max := geomkernel.BoundingBox(shape)
	diag := bead.Dist(min, max)
	return diag < float64(settings.LineWidthX)*float64(settings.WallCount)*2
}

// buildStrategyStack assembles the decorator chain the settings call for.
// The count limiter wraps outermost so every decorator below it sees the
// uncapped demand; its cap is two beads per configured wall, since a
// cross-section's thickness is walled from both sides.
func buildStrategyStack(settings Settings) beading.Strategy {
	distributed := beading.NewDistributed(settings.LineWidthX)
	distributed.DistributionCount = settings.WallDistributionCount
	distributed.DefaultTransitionLen = settings.WallTransitionLength
	var strategy beading.Strategy = distributed

	if settings.FixedOuterWall {
		strategy = &beading.FixedOuterWall{
			Parent:                   strategy,
			WFixed:                   settings.LineWidth0,
			MinimumVariableLineRatio: 0.1,
		}
	} else if settings.Wall0Inset != 0 {
		strategy = &beading.OuterWallOffset{Parent: strategy, Offset: settings.Wall0Inset}
	}

	if settings.FillOutlineGaps {
		strategy = &beading.Widening{
			Parent:         strategy,
			MinInputWidth:  settings.MinFeatureSize,
			MinOutputWidth: settings.MinBeadWidth,
		}
	}

	if settings.FlowCompensate {
		strategy = &beading.FlowCompensated{
			Parent:         strategy,
			MinTargetWidth: settings.MinFlowTargetWidth,
			MinStableWidth: settings.MinFlowStableWidth,
		}
	}

	strategy = &beading.LimitedCount{Parent: strategy, MaxBeadCount: 2 * settings.WallCount}
	return strategy
}

// finish runs the post-processing pipeline over the raw generated lines:
// stitch fragments into longer polylines and close loops, drop unprintable
// small odd fill lines, simplify each line and re-close it, separate the
// zero-width contour-marker lines out as the inner contour, and drop any
// bucket that ended up empty.
func finish(shape geomkernel.Shape, settings Settings, lines []bead.VariableWidthLines) *Result {
	stitchDist := float64(settings.LineWidthX) - 1

	var contour geomkernel.Shape
	contourFound := false
	cleaned := make([]bead.VariableWidthLines, 0, len(lines))
	for _, vwl := range lines {
		stitched := stitchLines(vwl.Lines, stitchDist)
		kept := make([]*bead.ExtrusionLine, 0, len(stitched))
		for _, l := range stitched {
			if len(l.Junctions) < 2 {
				continue
			}
			if l.IsOdd && !l.IsClosed && !l.IsOuterWall() && l.Length() < float64(l.MinWidth())/2 {
				continue
			}
			simplifyLine(l, settings.MaxResolution)
			closeLine(l)
			kept = append(kept, l)
		}
		if len(kept) == 0 {
			continue
		}
		if kept[0].Junctions[0].W == 0 {
			// A contour bucket: its closed even lines trace the boundary of
			// the unfilled interior. Nothing in it is extrudable.
			for _, l := range kept {
				if l.IsClosed && !l.IsOdd {
					if p := lineToPolygon(l); len(p) >= 3 {
						contour = append(contour, p)
						contourFound = true
					}
				}
			}
			continue
		}
		cleaned = append(cleaned, bead.VariableWidthLines{InsetIdx: vwl.InsetIdx, Lines: kept})
	}

	totalInset := float64(settings.Wall0Inset)
	if settings.WallCount > 0 {
		totalInset += float64(settings.LineWidth0) + float64(settings.LineWidthX)*float64(settings.WallCount-1)
	}

	return &Result{
		VariableWidthLines: cleaned,
		shape:              shape,
		totalInset:         totalInset,
		contour:            contour,
		contourFound:       contourFound,
	}
}

// stitchLines joins open polylines whose endpoints sit within stitchDist of
// each other into longer ones, then closes any line whose own endpoints
// meet. Closed inputs pass through untouched. Greedy and index-ordered, so
// the result is deterministic for identical input.
func stitchLines(in []*bead.ExtrusionLine, stitchDist float64) []*bead.ExtrusionLine {
	out := make([]*bead.ExtrusionLine, 0, len(in))
	var open []*bead.ExtrusionLine
	for _, l := range in {
		if len(l.Junctions) == 0 {
			continue
		}
		if l.IsClosed {
			out = append(out, l)
		} else {
			open = append(open, l)
		}
	}

	for i := 0; i < len(open); i++ {
		a := open[i]
		if a == nil {
			continue
		}
		for extended := true; extended; {
			extended = false
			for j := i + 1; j < len(open); j++ {
				b := open[j]
				if b == nil {
					continue
				}
				switch {
				case bead.Dist(a.Back().P, b.Front().P) <= stitchDist:
					a.Junctions = append(a.Junctions, b.Junctions...)
				case bead.Dist(a.Back().P, b.Back().P) <= stitchDist:
					for k := len(b.Junctions) - 1; k >= 0; k-- {
						a.Junctions = append(a.Junctions, b.Junctions[k])
					}
				case bead.Dist(a.Front().P, b.Back().P) <= stitchDist:
					a.Junctions = append(b.Junctions, a.Junctions...)
				default:
					continue
				}
				if !b.IsOdd {
					a.IsOdd = false
				}
				open[j] = nil
				extended = true
			}
		}
		if len(a.Junctions) >= 3 && bead.Dist(a.Front().P, a.Back().P) <= stitchDist {
			a.IsClosed = true
		}
		out = append(out, a)
	}
	return out
}

// simplifyLine drops junctions closer than maxResolution to their
// predecessor, keeping the first and last junction in place.
func simplifyLine(l *bead.ExtrusionLine, maxResolution float64) {
	if len(l.Junctions) < 3 || maxResolution <= 0 {
		return
	}
	kept := l.Junctions[:1]
	for i := 1; i < len(l.Junctions)-1; i++ {
		if bead.Dist(kept[len(kept)-1].P, l.Junctions[i].P) >= maxResolution {
			kept = append(kept, l.Junctions[i])
		}
	}
	kept = append(kept, l.Junctions[len(l.Junctions)-1])
	l.Junctions = kept
}

// closeLine appends a copy of the first junction to a closed line whose
// junction list doesn't end where it starts, so closed lines always satisfy
// front == back.
func closeLine(l *bead.ExtrusionLine) {
	if !l.IsClosed || len(l.Junctions) < 2 {
		return
	}
	if l.Junctions[0].P != l.Junctions[len(l.Junctions)-1].P {
		l.Junctions = append(l.Junctions, l.Junctions[0])
	}
}

// lineToPolygon converts a closed line's junction points to a plain
// polygon, dropping the duplicated closing junction.
func lineToPolygon(l *bead.ExtrusionLine) geomkernel.Polygon {
	n := len(l.Junctions)
	if n > 1 && l.Junctions[0].P == l.Junctions[n-1].P {
		n--
	}
	p := make(geomkernel.Polygon, 0, n)
	for _, j := range l.Junctions[:n] {
		p = append(p, j.P)
	}
	return p
}
