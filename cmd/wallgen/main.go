// Command wallgen is a demonstration driver for the wall toolpath generator:
// it runs the built-in regression scenarios (internal/scenario.Builtins)
// through internal/wall.GenerateWalls and writes one DXF, one PDF report,
// and one stats workbook per scenario into an output directory.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/wsd07/CuraEngine/internal/dxfexport"
	"github.com/wsd07/CuraEngine/internal/scenario"
	"github.com/wsd07/CuraEngine/internal/statsreport"
	"github.com/wsd07/CuraEngine/internal/vizreport"
	"github.com/wsd07/CuraEngine/internal/wall"
)

func main() {
	outDir := flag.String("out", "wallgen-out", "directory to write per-scenario DXF/PDF/XLSX reports into")
	flag.Parse()

	if err := run(*outDir); err != nil {
		slog.Error("wallgen failed", "err", err)
		os.Exit(1)
	}
}

func run(outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	for _, sc := range scenario.Builtins() {
		result, err := wall.GenerateWalls(sc.Shape, sc.Settings)
		if err != nil {
			return fmt.Errorf("scenario %q: generate walls: %w", sc.Name, err)
		}

		slog.Info("generated scenario", "name", sc.Name, "inset_buckets", len(result.VariableWidthLines))

		dxfPath := filepath.Join(outDir, sc.Name+".dxf")
		if err := dxfexport.Export(dxfPath, result.VariableWidthLines); err != nil {
			return fmt.Errorf("scenario %q: dxf export: %w", sc.Name, err)
		}

		pdfPath := filepath.Join(outDir, sc.Name+".pdf")
		info := vizreport.RunInfo{
			WallCount:  sc.Settings.WallCount,
			LineWidth0: int64(sc.Settings.LineWidth0),
			LineWidthX: int64(sc.Settings.LineWidthX),
		}
		if err := vizreport.Report(pdfPath, result.VariableWidthLines, info); err != nil {
			return fmt.Errorf("scenario %q: pdf report: %w", sc.Name, err)
		}

		xlsxPath := filepath.Join(outDir, sc.Name+".xlsx")
		if err := statsreport.Write(xlsxPath, result.VariableWidthLines); err != nil {
			return fmt.Errorf("scenario %q: stats report: %w", sc.Name, err)
		}
	}

	return nil
}
