package statsreport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/wsd07/CuraEngine/internal/bead"
)

func sampleLines() []bead.VariableWidthLines {
	outer := &bead.ExtrusionLine{
		IsClosed: true,
		InsetIdx: 0,
		Junctions: []bead.ExtrusionJunction{
			{P: bead.Point{X: 0, Y: 0}, W: 400},
			{P: bead.Point{X: 10000, Y: 0}, W: 400},
			{P: bead.Point{X: 10000, Y: 10000}, W: 400},
		},
	}
	return []bead.VariableWidthLines{{InsetIdx: 0, Lines: []*bead.ExtrusionLine{outer}}}
}

func TestWriteProducesReadableWorkbook(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stats.xlsx")

	err := Write(path, sampleLines())
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.True(t, len(rows) >= 2)
	assert.Equal(t, "Inset", rows[0][0])
}

func TestWriteEmptyLinesStillProducesHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.xlsx")

	err := Write(path, nil)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, "Inset", rows[0][0])
}
