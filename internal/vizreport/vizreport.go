// Package vizreport renders a generated wall result to a one-page-per-layer
// PDF: a scaled plot of every inset line plus a QR code identifying the run,
// so a print technician can scan a sheet on the shop floor and pull up the
// exact settings that produced it.
package vizreport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/wsd07/CuraEngine/internal/bead"
)

// RunInfo is the payload encoded into each report's QR code: enough to
// reproduce or look up the invocation that produced the plotted geometry.
type RunInfo struct {
	InvocationID string    `json:"invocation_id"`
	GeneratedAt  time.Time `json:"generated_at"`
	WallCount    int       `json:"wall_count"`
	LineWidth0   int64     `json:"line_width_0_um"`
	LineWidthX   int64     `json:"line_width_x_um"`
}

const (
	pageWidth  = 210.0 // A4 portrait, mm
	pageHeight = 297.0
	margin     = 15.0
	qrSize     = 30.0
)

// Report renders lines to path as a single-page PDF: a title block, a
// legend of inset colors and line counts, a to-scale plot, and a QR code
// encoding info.
// A fresh InvocationID is generated if info.InvocationID is empty.
func Report(path string, lines []bead.VariableWidthLines, info RunInfo) error {
	if info.InvocationID == "" {
		info.InvocationID = uuid.NewString()
	}
	if info.GeneratedAt.IsZero() {
		info.GeneratedAt = time.Now()
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(margin, margin)
	pdf.CellFormat(0, 8, "Wall Toolpath Report", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(margin, margin+10)
	pdf.CellFormat(0, 5, fmt.Sprintf("Invocation %s", info.InvocationID), "", 1, "L", false, 0, "")
	pdf.SetXY(margin, margin+15)
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated %s", info.GeneratedAt.Format(time.RFC3339)), "", 1, "L", false, 0, "")

	plotTop := margin + 25
	plotHeight := pageHeight - plotTop - margin - qrSize - 10
	plotRect(pdf, margin, plotTop, pageWidth-2*margin, plotHeight, lines)

	if err := embedQR(pdf, info, margin, pageHeight-margin-qrSize); err != nil {
		return fmt.Errorf("embed qr code: %w", err)
	}

	drawLegend(pdf, lines, margin+qrSize+10, pageHeight-margin-qrSize)

	return pdf.OutputFileAndClose(path)
}

// plotRect draws every line's junctions scaled to fit inside the given box,
// one fpdf.Line segment per edge, colored by inset depth.
func plotRect(pdf *fpdf.Fpdf, x, y, w, h float64, lines []bead.VariableWidthLines) {
	pdf.SetDrawColor(80, 80, 80)
	pdf.Rect(x, y, w, h, "D")

	minP, maxP, ok := bounds(lines)
	if !ok {
		return
	}
	spanX := float64(maxP.X - minP.X)
	spanY := float64(maxP.Y - minP.Y)
	if spanX <= 0 || spanY <= 0 {
		return
	}
	scale := (w - 4) / spanX
	if alt := (h - 4) / spanY; alt < scale {
		scale = alt
	}

	for _, vwl := range lines {
		r, g, b := layerColor(vwl.InsetIdx)
		pdf.SetDrawColor(r, g, b)
		for _, line := range vwl.Lines {
			n := len(line.Junctions)
			if n < 2 {
				continue
			}
			segments := n
			if !line.IsClosed || line.Junctions[0].P == line.Junctions[n-1].P {
				segments = n - 1
			}
			for i := 0; i < segments; i++ {
				a := line.Junctions[i].P
				c := line.Junctions[(i+1)%n].P
				ax, ay := toPage(a, minP, scale, x, y, h)
				cx, cy := toPage(c, minP, scale, x, y, h)
				pdf.Line(ax, ay, cx, cy)
			}
		}
	}
}

func toPage(p bead.Point, minP bead.Point, scale, x, y, h float64) (float64, float64) {
	px := x + 2 + float64(p.X-minP.X)*scale
	py := y + h - 2 - float64(p.Y-minP.Y)*scale
	return px, py
}

func bounds(lines []bead.VariableWidthLines) (bead.Point, bead.Point, bool) {
	var min, max bead.Point
	found := false
	for _, vwl := range lines {
		for _, line := range vwl.Lines {
			for _, j := range line.Junctions {
				if !found {
					min, max = j.P, j.P
					found = true
					continue
				}
				if j.P.X < min.X {
					min.X = j.P.X
				}
				if j.P.Y < min.Y {
					min.Y = j.P.Y
				}
				if j.P.X > max.X {
					max.X = j.P.X
				}
				if j.P.Y > max.Y {
					max.Y = j.P.Y
				}
			}
		}
	}
	return min, max, found
}

// layerColor assigns a distinguishable RGB triple per inset index, outer
// wall drawn in black and successive insets cycling through a fixed palette.
func layerColor(insetIdx int) (int, int, int) {
	if insetIdx == 0 {
		return 0, 0, 0
	}
	palette := [][3]int{
		{200, 40, 40}, {40, 120, 200}, {40, 160, 60}, {180, 120, 20}, {130, 60, 180},
	}
	c := palette[(insetIdx-1)%len(palette)]
	return c[0], c[1], c[2]
}

// embedQR generates a QR code for info and drops it into the PDF as an
// inline image.
func embedQR(pdf *fpdf.Fpdf, info RunInfo, x, y float64) error {
	payload, err := json.Marshal(info)
	if err != nil {
		return err
	}
	png, err := qrcode.Encode(string(payload), qrcode.Medium, 256)
	if err != nil {
		return err
	}
	imgName := "qr-" + info.InvocationID
	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	pdf.RegisterImageOptionsReader(imgName, opts, bytes.NewReader(png))
	pdf.ImageOptions(imgName, x, y, qrSize, qrSize, false, opts, 0, "")
	return nil
}

// drawLegend lists each inset index with its representative color and the
// number of extrusion lines plotted, next to the QR code.
func drawLegend(pdf *fpdf.Fpdf, lines []bead.VariableWidthLines, x, y float64) {
	pdf.SetFont("Helvetica", "", 9)
	row := 0.0
	for _, vwl := range lines {
		r, g, b := layerColor(vwl.InsetIdx)
		pdf.SetFillColor(r, g, b)
		pdf.Rect(x, y+row, 4, 4, "F")
		pdf.SetXY(x+6, y+row-1)
		label := "outer wall"
		if vwl.InsetIdx > 0 {
			label = fmt.Sprintf("inset %d", vwl.InsetIdx)
		}
		pdf.CellFormat(40, 6, fmt.Sprintf("%s (%d lines)", label, len(vwl.Lines)), "", 0, "L", false, 0, "")
		row += 6
	}
}
