package wall

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wsd07/CuraEngine/internal/bead"
	"github.com/wsd07/CuraEngine/internal/geomkernel"
)

func bigSquare() geomkernel.Shape {
	return geomkernel.Shape{{
		{X: 0, Y: 0}, {X: 10000, Y: 0}, {X: 10000, Y: 10000}, {X: 0, Y: 10000},
	}}
}

func TestGenerateWallsOnLargeSquareProducesMultipleInsets(t *testing.T) {
	settings := DefaultSettings()
	settings.WallCount = 3

	result, err := GenerateWalls(bigSquare(), settings)
	require.NoError(t, err)
	assert.NotEmpty(t, result.VariableWidthLines)
	assert.Greater(t, len(result.VariableWidthLines), 1)
	assert.Equal(t, 0, result.VariableWidthLines[0].InsetIdx)
}

func TestGenerateWallsZeroWallCountProducesNoLines(t *testing.T) {
	settings := DefaultSettings()
	settings.WallCount = 0

	result, err := GenerateWalls(bigSquare(), settings)
	require.NoError(t, err)
	assert.Empty(t, result.VariableWidthLines)
}

func TestGenerateWallsSingleWall(t *testing.T) {
	settings := DefaultSettings()
	settings.WallCount = 1

	result, err := GenerateWalls(bigSquare(), settings)
	require.NoError(t, err)
	require.Len(t, result.VariableWidthLines, 1)
	assert.Equal(t, 0, result.VariableWidthLines[0].InsetIdx)
}

// TestGenerateWallsTwoWallSquare pins down the nested-square case: two
// closed walls of constant 400 width, the outer at 200 from the outline and
// the inner at 600, with an 8.4mm inner contour left over.
func TestGenerateWallsTwoWallSquare(t *testing.T) {
	settings := DefaultSettings()
	settings.WallCount = 2

	result, err := GenerateWalls(bigSquare(), settings)
	require.NoError(t, err)
	require.Len(t, result.VariableWidthLines, 2)

	for i, vwl := range result.VariableWidthLines {
		assert.Equal(t, i, vwl.InsetIdx)
		wantOffset := bead.Coord(200 + 400*i)
		for _, line := range vwl.Lines {
			assert.True(t, line.IsClosed)
			for _, j := range line.Junctions {
				assert.Equal(t, bead.Coord(400), j.W)
				assert.Equal(t, i, j.PerimeterIndex)
				assert.GreaterOrEqual(t, j.P.X, wantOffset-5)
				assert.LessOrEqual(t, j.P.X, 10000-wantOffset+5)
			}
		}
	}

	inner := result.InnerContour()
	require.Len(t, inner, 1)
	assert.InDelta(t, 8400.0*8400.0, geomkernel.Area(inner[0]), 8400*10)
}

// TestGenerateWallsScopeOffUsesSimpleOffsets covers the OFF strategy scope:
// same shape, every junction exactly the configured constant width.
func TestGenerateWallsScopeOffUsesSimpleOffsets(t *testing.T) {
	settings := DefaultSettings()
	settings.WallCount = 2
	settings.BeadingStrategyScope = ScopeOff

	result, err := GenerateWalls(bigSquare(), settings)
	require.NoError(t, err)
	require.Len(t, result.VariableWidthLines, 2)
	for _, vwl := range result.VariableWidthLines {
		for _, line := range vwl.Lines {
			assert.True(t, line.IsClosed)
			for _, j := range line.Junctions {
				assert.Equal(t, bead.Coord(400), j.W)
			}
		}
	}
}

func TestGenerateWallsClosedLinesStartAndEndTogether(t *testing.T) {
	settings := DefaultSettings()
	settings.WallCount = 3

	result, err := GenerateWalls(bigSquare(), settings)
	require.NoError(t, err)
	for _, vwl := range result.VariableWidthLines {
		for _, line := range vwl.Lines {
			if line.IsClosed {
				assert.Equal(t, line.Front().P, line.Back().P)
			}
		}
	}
}

func TestStitchLinesJoinsFragmentsIntoClosedLoop(t *testing.T) {
	j := func(x, y bead.Coord) bead.ExtrusionJunction {
		return bead.ExtrusionJunction{P: bead.Point{X: x, Y: y}, W: 400}
	}
	fragments := []*bead.ExtrusionLine{
		{Junctions: []bead.ExtrusionJunction{j(0, 0), j(1000, 0)}},
		{Junctions: []bead.ExtrusionJunction{j(1000, 0), j(1000, 1000)}},
		{Junctions: []bead.ExtrusionJunction{j(1000, 1000), j(0, 1000), j(0, 0)}},
	}

	out := stitchLines(fragments, 399)
	require.Len(t, out, 1)
	assert.True(t, out[0].IsClosed)
	assert.Equal(t, out[0].Front().P, out[0].Back().P)
}

func TestStitchLinesLeavesDistantFragmentsApart(t *testing.T) {
	j := func(x, y bead.Coord) bead.ExtrusionJunction {
		return bead.ExtrusionJunction{P: bead.Point{X: x, Y: y}, W: 400}
	}
	fragments := []*bead.ExtrusionLine{
		{Junctions: []bead.ExtrusionJunction{j(0, 0), j(1000, 0)}},
		{Junctions: []bead.ExtrusionJunction{j(5000, 5000), j(6000, 5000)}},
	}

	out := stitchLines(fragments, 399)
	assert.Len(t, out, 2)
}

func TestGenerateWallsNoZeroWidthJunctionsInOutput(t *testing.T) {
	settings := DefaultSettings()
	settings.WallCount = 2

	result, err := GenerateWalls(bigSquare(), settings)
	require.NoError(t, err)
	for _, vwl := range result.VariableWidthLines {
		for _, line := range vwl.Lines {
			for _, j := range line.Junctions {
				assert.Greater(t, j.W, bead.Coord(0))
			}
		}
	}
}

func TestGenerateWallsInnerContourIsSmallerThanOriginal(t *testing.T) {
	settings := DefaultSettings()
	settings.WallCount = 2

	result, err := GenerateWalls(bigSquare(), settings)
	require.NoError(t, err)
	inner := result.InnerContour()
	require.NotEmpty(t, inner)
	assert.Less(t, geomkernel.Area(inner[0]), geomkernel.Area(bigSquare()[0]))
}

func TestGenerateWallsWithFixedOuterWall(t *testing.T) {
	settings := DefaultSettings()
	settings.WallCount = 4
	settings.FixedOuterWall = true
	settings.LineWidth0 = 400

	result, err := GenerateWalls(bigSquare(), settings)
	require.NoError(t, err)
	assert.NotEmpty(t, result.VariableWidthLines)
}

func TestGenerateWallsDegenerateShapeReturnsEmpty(t *testing.T) {
	tiny := geomkernel.Shape{{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}}
	settings := DefaultSettings()

	result, err := GenerateWalls(tiny, settings)
	require.NoError(t, err)
	assert.Empty(t, result.VariableWidthLines)
}

// annulus returns an outer square with a smaller, oppositely-wound inner
// square hole centered inside it, so the hole's wavefront and the outer
// boundary's wavefront are forced to meet partway across the gap.
func annulus() geomkernel.Shape {
	outer := geomkernel.Polygon{
		{X: 0, Y: 0}, {X: 10000, Y: 0}, {X: 10000, Y: 10000}, {X: 0, Y: 10000},
	}
	hole := geomkernel.Polygon{
		{X: 3000, Y: 3000}, {X: 3000, Y: 7000}, {X: 7000, Y: 7000}, {X: 7000, Y: 3000},
	}
	return geomkernel.Shape{outer, hole}
}

// TestGenerateWallsOnWedgeVariesJunctionWidths runs a shape whose
// thickness genuinely varies (400µm widening to 1000µm) end to end: the
// generated junction widths must vary with the local thickness instead of
// staying constant the way they do on a square.
func TestGenerateWallsOnWedgeVariesJunctionWidths(t *testing.T) {
	wedge := geomkernel.Shape{{
		{X: 0, Y: -200}, {X: 9000, Y: -500}, {X: 9000, Y: 500}, {X: 0, Y: 200},
	}}
	settings := DefaultSettings()
	settings.WallCount = 1

	result, err := GenerateWalls(wedge, settings)
	require.NoError(t, err)
	require.NotEmpty(t, result.VariableWidthLines)

	minW := bead.Coord(1 << 40)
	maxW := bead.Coord(0)
	for _, vwl := range result.VariableWidthLines {
		for _, line := range vwl.Lines {
			for _, j := range line.Junctions {
				if j.W < minW {
					minW = j.W
				}
				if j.W > maxW {
					maxW = j.W
				}
			}
		}
	}
	assert.Less(t, minW, maxW, "junction widths must follow the varying thickness")
}

func TestGenerateWallsOnAnnulusHandlesOuterAndInnerLoopsTogether(t *testing.T) {
	settings := DefaultSettings()
	settings.WallCount = 3

	result, err := GenerateWalls(annulus(), settings)
	require.NoError(t, err)
	require.NotEmpty(t, result.VariableWidthLines)

	for _, vwl := range result.VariableWidthLines {
		for _, line := range vwl.Lines {
			for _, j := range line.Junctions {
				assert.GreaterOrEqual(t, j.P.X, bead.Coord(-1))
				assert.LessOrEqual(t, j.P.X, bead.Coord(10001))
				assert.GreaterOrEqual(t, j.P.Y, bead.Coord(-1))
				assert.LessOrEqual(t, j.P.Y, bead.Coord(10001))
			}
		}
	}
}
