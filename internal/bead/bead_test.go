package bead

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBeadingValid(t *testing.T) {
	b := Beading{
		TotalThickness:    1000,
		BeadWidths:        []Coord{400, 400},
		ToolpathLocations: []Coord{200, 600},
		LeftOver:          200,
	}
	assert.True(t, b.Valid())
}

func TestBeadingValidRejectsNonMonotonicLocations(t *testing.T) {
	b := Beading{
		TotalThickness:    1000,
		BeadWidths:        []Coord{400, 400},
		ToolpathLocations: []Coord{600, 600},
		LeftOver:          200,
	}
	assert.False(t, b.Valid())
}

func TestBeadingValidRejectsMismatchedLengths(t *testing.T) {
	b := Beading{
		TotalThickness:    1000,
		BeadWidths:        []Coord{400, 400},
		ToolpathLocations: []Coord{200},
	}
	assert.False(t, b.Valid())
}

func TestFlowRatioDefaultsToOne(t *testing.T) {
	b := Beading{BeadWidths: []Coord{400, 400}}
	assert.Equal(t, 1.0, b.FlowRatio(0))
	assert.Equal(t, 1.0, b.FlowRatio(5))
}

func TestInterpolateBlendsWidthsAndLocations(t *testing.T) {
	left := Beading{
		TotalThickness:    1000,
		BeadWidths:        []Coord{400},
		ToolpathLocations: []Coord{500},
	}
	right := Beading{
		TotalThickness:    1200,
		BeadWidths:        []Coord{600},
		ToolpathLocations: []Coord{600},
	}
	mid := Interpolate(left, 0.5, right, nil)
	assert.Equal(t, Coord(500), mid.BeadWidths[0])
	assert.Equal(t, Coord(550), mid.ToolpathLocations[0])
	assert.Equal(t, Coord(1100), mid.TotalThickness)
}

func TestInterpolateKeepsZeroWidthBeadsZero(t *testing.T) {
	left := Beading{
		BeadWidths:        []Coord{0, 400},
		ToolpathLocations: []Coord{100, 500},
	}
	right := Beading{
		BeadWidths:        []Coord{300, 400},
		ToolpathLocations: []Coord{150, 550},
	}
	mid := Interpolate(left, 0.5, right, nil)
	assert.Equal(t, Coord(0), mid.BeadWidths[0])
	assert.Equal(t, Coord(400), mid.BeadWidths[1])
}

func TestInterpolateSwitchingRadiusPreventsInwardJump(t *testing.T) {
	left := Beading{
		BeadWidths:        []Coord{400, 400},
		ToolpathLocations: []Coord{200, 900},
	}
	right := Beading{
		BeadWidths:        []Coord{400},
		ToolpathLocations: []Coord{200},
	}
	switching := Coord(500)
	mid := Interpolate(left, 0.5, right, &switching)
	// The plain blend puts the outside inset at 550, past the switching
	// radius, so the ratio is re-solved from it: (500-200)/(900-200) + 0.1,
	// which places the inset at 570 instead of letting it jump inward.
	assert.Equal(t, Coord(570), mid.ToolpathLocations[1])
	assert.LessOrEqual(t, switching, mid.ToolpathLocations[len(mid.ToolpathLocations)-1]+1)
}

func TestExtrusionLineLengthAndWidth(t *testing.T) {
	l := &ExtrusionLine{
		InsetIdx: 0,
		Junctions: []ExtrusionJunction{
			{P: Point{0, 0}, W: 400, PerimeterIndex: 0},
			{P: Point{1000, 0}, W: 350, PerimeterIndex: 0},
			{P: Point{1000, 1000}, W: 500, PerimeterIndex: 0},
		},
	}
	assert.Equal(t, 2000.0, l.Length())
	assert.Equal(t, Coord(350), l.MinWidth())
	assert.True(t, l.IsOuterWall())
}

func TestVariableWidthLinesEmpty(t *testing.T) {
	v := VariableWidthLines{InsetIdx: 1, Lines: []*ExtrusionLine{{}}}
	assert.True(t, v.Empty())
	v.Lines[0].Junctions = append(v.Lines[0].Junctions, ExtrusionJunction{})
	assert.False(t, v.Empty())
}
