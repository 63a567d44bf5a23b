// Package dxfexport writes generated wall toolpaths out as DXF geometry,
// one layer per inset index, so they can be inspected in any CAD viewer.
package dxfexport

import (
	"fmt"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"

	"github.com/wsd07/CuraEngine/internal/bead"
)

// Export writes every VariableWidthLines bucket to path as a DXF drawing,
// one layer named "inset-N" per bucket, colored by inset depth so the
// outer wall and successive insets are visually distinguishable.
func Export(path string, lines []bead.VariableWidthLines) error {
	drawing := dxf.NewDrawing()

	for _, vwl := range lines {
		layerName := fmt.Sprintf("inset-%d", vwl.InsetIdx)
		layerColor := color.ColorNumber((vwl.InsetIdx % 7) + 1)
		if _, err := drawing.AddLayer(layerName, layerColor, dxf.DefaultLineType, true); err != nil {
			return err
		}
		if err := drawing.ChangeLayer(layerName); err != nil {
			return err
		}

		for _, line := range vwl.Lines {
			writeLine(drawing, line)
		}
	}

	return drawing.SaveAs(path)
}

func writeLine(drawing *drawing.Drawing, line *bead.ExtrusionLine) {
	n := len(line.Junctions)
	if n < 2 {
		return
	}
	segments := n
	if !line.IsClosed || line.Junctions[0].P == line.Junctions[n-1].P {
		segments = n - 1
	}
	for i := 0; i < segments; i++ {
		a := line.Junctions[i]
		b := line.Junctions[(i+1)%n]
		drawing.Line(float64(a.P.X), float64(a.P.Y), 0, float64(b.P.X), float64(b.P.Y), 0)
	}
}
