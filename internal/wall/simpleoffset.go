package wall

import (
	"github.com/wsd07/CuraEngine/internal/bead"
	"github.com/wsd07/CuraEngine/internal/geomkernel"
)

// simpleOffsetWalls generates nested constant-width offsets instead of a
// full skeletal trapezoidation, used when beading is disabled for this
// section or the outline is too small to benefit from it. The Z-seam point
// is re-inserted into the outer wall's centerline after offsetting (the
// post-offset pass of the two-pass Z-seam handling).
func simpleOffsetWalls(shape geomkernel.Shape, settings Settings) []bead.VariableWidthLines {
	var out []bead.VariableWidthLines
	seam, hasSeam := seamTarget(settings)
	depth := float64(settings.LineWidth0)/2 + float64(settings.Wall0Inset)
	for k := 0; k < settings.WallCount; k++ {
		width := settings.LineWidthX
		if k == 0 {
			width = settings.LineWidth0
		}
		offset := geomkernel.OffsetShape(shape, -depth)
		offset = geomkernel.RemoveSmallAreas(offset, settings.MinWallArea)
		if len(offset) == 0 {
			break
		}
		if k == 0 && hasSeam {
			offset = insertSeamPoints(offset, seam)
		}
		lines := make([]*bead.ExtrusionLine, 0, len(offset))
		for _, poly := range offset {
			line := &bead.ExtrusionLine{IsClosed: true, InsetIdx: k}
			for _, p := range poly {
				line.Junctions = append(line.Junctions, bead.ExtrusionJunction{P: p, W: width, PerimeterIndex: k})
			}
			lines = append(lines, line)
		}
		out = append(out, bead.VariableWidthLines{InsetIdx: k, Lines: lines})

		if k+1 < settings.WallCount {
			depth += float64(width)/2 + float64(settings.LineWidthX)/2
		}
	}
	return out
}
