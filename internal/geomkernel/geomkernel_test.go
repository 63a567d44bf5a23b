package geomkernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wsd07/CuraEngine/internal/bead"
)

func square(side bead.Coord) Polygon {
	return Polygon{
		{X: 0, Y: 0},
		{X: side, Y: 0},
		{X: side, Y: side},
		{X: 0, Y: side},
	}
}

func TestAreaOfSquareIsPositive(t *testing.T) {
	assert.Equal(t, 10000.0, Area(square(100)))
}

func TestOffsetShrinksSquare(t *testing.T) {
	shrunk := Offset(square(1000), -100)
	assert.InDelta(t, 800*800, Area(shrunk), 1)
}

func TestOffsetGrowsSquare(t *testing.T) {
	grown := Offset(square(1000), 100)
	assert.InDelta(t, 1200*1200, Area(grown), 1)
}

func TestPointInShapeEvenOdd(t *testing.T) {
	outer := square(1000)
	hole := Polygon{{X: 200, Y: 200}, {X: 200, Y: 800}, {X: 800, Y: 800}, {X: 800, Y: 200}}
	s := Shape{outer, hole}
	assert.True(t, PointInShape(bead.Point{X: 50, Y: 50}, s))
	assert.False(t, PointInShape(bead.Point{X: 500, Y: 500}, s))
}

func TestDistanceToBoundary(t *testing.T) {
	s := Shape{square(1000)}
	assert.InDelta(t, 500, DistanceToBoundary(bead.Point{X: 500, Y: 500}, s), 1e-6)
	assert.InDelta(t, 0, DistanceToBoundary(bead.Point{X: 0, Y: 500}, s), 1e-6)
}

func TestRemoveSmallAreasDropsSlivers(t *testing.T) {
	s := Shape{square(1000), square(2)}
	out := RemoveSmallAreas(s, 100)
	assert.Len(t, out, 1)
}

func TestSimplifyRemovesNearCollinearPoints(t *testing.T) {
	p := Polygon{
		{X: 0, Y: 0}, {X: 500, Y: 0}, {X: 1000, Y: 0},
		{X: 1000, Y: 1000}, {X: 0, Y: 1000},
	}
	out := Simplify(p, 10, 5)
	assert.Len(t, out, 4)
}

func TestFixSelfIntersectionsBowtie(t *testing.T) {
	bowtie := Polygon{
		{X: 0, Y: 0}, {X: 1000, Y: 1000}, {X: 1000, Y: 0}, {X: 0, Y: 1000},
	}
	fixed := FixSelfIntersections(bowtie)
	assert.GreaterOrEqual(t, len(fixed), 3)
}
