package skeletal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wsd07/CuraEngine/internal/beading"
	"github.com/wsd07/CuraEngine/internal/geomkernel"
)

func TestGenerateToolpathsProducesOuterWall(t *testing.T) {
	shape := squareShape(2000)
	g := Build(shape, BuildOptions{StepSize: 50})
	strategy := beading.NewDistributed(400)

	lines := GenerateToolpaths(g, shape, strategy)
	assert.NotEmpty(t, lines)
	assert.Equal(t, 0, lines[0].InsetIdx)
	assert.False(t, lines[0].Empty())
	for _, l := range lines[0].Lines {
		assert.True(t, l.IsClosed)
	}
}

func TestGenerateToolpathsJunctionWidthsAreNonNegative(t *testing.T) {
	shape := squareShape(2000)
	g := Build(shape, BuildOptions{StepSize: 50})
	strategy := beading.NewDistributed(400)

	lines := GenerateToolpaths(g, shape, strategy)
	for _, vwl := range lines {
		for _, l := range vwl.Lines {
			for _, j := range l.Junctions {
				assert.GreaterOrEqual(t, j.W, int64(0))
			}
		}
	}
}

func TestGenerateToolpathsHandlesThinRectangle(t *testing.T) {
	thin := geomkernel.Shape{{
		{X: 0, Y: 0}, {X: 5000, Y: 0}, {X: 5000, Y: 300}, {X: 0, Y: 300},
	}}
	g := Build(thin, BuildOptions{StepSize: 25})
	strategy := beading.NewDistributed(400)
	lines := GenerateToolpaths(g, thin, strategy)
	assert.NotEmpty(t, lines)
}
