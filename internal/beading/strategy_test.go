package beading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wsd07/CuraEngine/internal/bead"
)

func TestDistributedComputeEvenSplit(t *testing.T) {
	d := NewDistributed(400)
	b := d.Compute(1000, 2)
	assert.Equal(t, []bead.Coord{500, 500}, b.BeadWidths)
	assert.Equal(t, []bead.Coord{250, 750}, b.ToolpathLocations)
	assert.Equal(t, bead.Coord(0), b.LeftOver)
}

func TestDistributedOptimalBeadCount(t *testing.T) {
	d := NewDistributed(400)
	assert.Equal(t, 2, d.OptimalBeadCount(800))
	assert.Equal(t, 3, d.OptimalBeadCount(1300))
}

func TestWideningEmitsSingleClampedBead(t *testing.T) {
	parent := NewDistributed(400)
	w := &Widening{Parent: parent, MinInputWidth: 100, MinOutputWidth: 300}

	b := w.Compute(250, 1)
	assert.Len(t, b.BeadWidths, 1)
	assert.Equal(t, bead.Coord(300), b.BeadWidths[0]) // clamped up to MinOutputWidth
}

func TestWideningDeclaresUnprintableBelowMinInput(t *testing.T) {
	parent := NewDistributed(400)
	w := &Widening{Parent: parent, MinInputWidth: 100, MinOutputWidth: 300}

	b := w.Compute(50, 1)
	assert.Empty(t, b.BeadWidths)
	assert.Equal(t, bead.Coord(50), b.LeftOver)
}

func TestLimitedCountSignalsCapWithExtraCount(t *testing.T) {
	parent := NewDistributed(400)
	l := &LimitedCount{Parent: parent, MaxBeadCount: 2}

	assert.Equal(t, 1, l.OptimalBeadCount(400))
	assert.Equal(t, 3, l.OptimalBeadCount(10_000))
}

func TestLimitedCountHoldsCappedProfileWithContourMarkers(t *testing.T) {
	parent := NewDistributed(400)
	l := &LimitedCount{Parent: parent, MaxBeadCount: 4}

	b := l.Compute(10_000, l.OptimalBeadCount(10_000))
	assert.Equal(t, []bead.Coord{400, 400, 0, 0, 400, 400}, b.BeadWidths)
	assert.Equal(t, []bead.Coord{200, 600, 800, 9200, 9400, 9800}, b.ToolpathLocations)
	assert.Equal(t, bead.Coord(10_000-1600), b.LeftOver)
	assert.True(t, b.Valid())
}

func TestLimitedCountBelowCapDelegates(t *testing.T) {
	parent := NewDistributed(400)
	l := &LimitedCount{Parent: parent, MaxBeadCount: 4}

	b := l.Compute(1200, 3)
	assert.Equal(t, parent.Compute(1200, 3), b)
}

func TestLimitedCountReportsCapThicknessAsNonlinear(t *testing.T) {
	parent := NewDistributed(400)
	l := &LimitedCount{Parent: parent, MaxBeadCount: 4}

	assert.Empty(t, l.NonlinearThicknesses(2))
	assert.Contains(t, l.NonlinearThicknesses(5), bead.Coord(1600))
}

func TestDistributedConcentratesDeviationInCenterBead(t *testing.T) {
	d := NewDistributed(400)

	b := d.Compute(1300, 3)
	assert.Equal(t, []bead.Coord{400, 500, 400}, b.BeadWidths)
	assert.Equal(t, []bead.Coord{200, 650, 1100}, b.ToolpathLocations)
}

func TestDistributedSpreadsDeviationOverDistributionCount(t *testing.T) {
	d := NewDistributed(400)
	d.DistributionCount = 3

	b := d.Compute(1600, 3)
	assert.Equal(t, []bead.Coord{533, 534, 533}, b.BeadWidths)
	assert.Equal(t, bead.Coord(1600), b.TotalThickness)
}

func TestOuterWallOffsetShiftsOnlyFirstLocation(t *testing.T) {
	parent := NewDistributed(400)
	o := &OuterWallOffset{Parent: parent, Offset: 50}

	b := o.Compute(1200, 3)
	parentB := parent.Compute(1200, 3)
	assert.Equal(t, parentB.ToolpathLocations[0]+50, b.ToolpathLocations[0])
	assert.Equal(t, parentB.ToolpathLocations[1], b.ToolpathLocations[1])
}

// A 1600 thickness at four beads with a 400 fixed outer width leaves two
// variable 400 beads in the middle and the fixed pair at the edges.
func TestFixedOuterWallFourBeads(t *testing.T) {
	parent := NewDistributed(500)
	f := &FixedOuterWall{Parent: parent, WFixed: 400, MinimumVariableLineRatio: 0.1}

	b := f.Compute(1600, 4)
	assert.Equal(t, []bead.Coord{400, 400, 400, 400}, b.BeadWidths)
	assert.Equal(t, []bead.Coord{200, 600, 1000, 1400}, b.ToolpathLocations)
}

func TestFixedOuterWallZeroAndOneAndTwoBeads(t *testing.T) {
	parent := NewDistributed(500)
	f := &FixedOuterWall{Parent: parent, WFixed: 400, MinimumVariableLineRatio: 0.1}

	b0 := f.Compute(100, 0)
	assert.Empty(t, b0.BeadWidths)

	b1 := f.Compute(400, 1)
	assert.Equal(t, []bead.Coord{400}, b1.BeadWidths)
	assert.Equal(t, []bead.Coord{200}, b1.ToolpathLocations)

	b2 := f.Compute(900, 2)
	assert.Equal(t, []bead.Coord{400, 400}, b2.BeadWidths)
	assert.Equal(t, []bead.Coord{200, 700}, b2.ToolpathLocations)
}

func TestFlowCompensatedAttachesFlowRatio(t *testing.T) {
	parent := NewDistributed(400)
	c := &FlowCompensated{Parent: parent, MinTargetWidth: 200, MinStableWidth: 400}

	b := c.Compute(300, 1)
	assert.NotEmpty(t, b.FlowRatios)
	assert.InDelta(t, 0.75, b.FlowRatios[0], 0.001)
	assert.Equal(t, bead.Coord(300), b.TotalThickness)
}

func TestFlowCompensatedPassesThroughOutsideRange(t *testing.T) {
	parent := NewDistributed(400)
	c := &FlowCompensated{Parent: parent, MinTargetWidth: 200, MinStableWidth: 400}

	b := c.Compute(500, 1)
	assert.Empty(t, b.FlowRatios)
}
