// Package scenario persists and loads named test polygons and settings used
// to exercise the wall generator end to end (the cmd/wallgen demo loads
// its built-in scenarios from here; the wall and skeletal package tests
// build their own geometry inline). Scenarios live as indented JSON under a
// user config directory and can be saved, shared, and reloaded by name.
package scenario

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wsd07/CuraEngine/internal/geomkernel"
	"github.com/wsd07/CuraEngine/internal/wall"
)

// Scenario bundles an outline, the wall settings to run it with, and a
// human name, so it can be saved, shared, and reloaded as a single unit.
type Scenario struct {
	Name     string           `json:"name"`
	Shape    geomkernel.Shape `json:"shape"`
	Settings wall.Settings    `json:"settings"`
}

// DefaultDir returns the directory scenarios are stored in by default.
func DefaultDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "wallgen", "scenarios"), nil
}

// Save writes s to <dir>/<name>.json as indented JSON, creating dir if needed.
func Save(dir string, s Scenario) error {
	if s.Name == "" {
		return errors.New("scenario has no name")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, s.Name+".json"), data, 0644)
}

// Load reads a single named scenario back from dir.
func Load(dir, name string) (Scenario, error) {
	data, err := os.ReadFile(filepath.Join(dir, name+".json"))
	if err != nil {
		return Scenario{}, err
	}
	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return Scenario{}, fmt.Errorf("parse scenario %q: %w", name, err)
	}
	return s, nil
}

// LoadAll reads every *.json scenario file in dir. A missing directory
// yields an empty slice rather than an error, matching a fresh install.
func LoadAll(dir string) ([]Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []Scenario
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		s, err := Load(dir, e.Name()[:len(e.Name())-len(".json")])
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func square(side int64) geomkernel.Shape {
	return geomkernel.Shape{{
		{X: 0, Y: 0}, {X: side, Y: 0}, {X: side, Y: side}, {X: 0, Y: side},
	}}
}

func rectangle(w, h int64) geomkernel.Shape {
	return geomkernel.Shape{{
		{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h},
	}}
}

// Builtins returns the generator's fixed regression scenarios: a plain
// square walled under the full skeletal pipeline, the same square forced
// through the simple-offset fallback, a thin rectangle that only supports
// one odd bead, a square with a triangular hole, two disjoint polygons of
// very different sizes, and a fixed-outer-wall case. Each corresponds to
// one of the generator's documented worked examples.
func Builtins() []Scenario {
	base := wall.DefaultSettings()

	squareAll := base
	squareAll.WallCount = 2
	squareAll.LineWidth0, squareAll.LineWidthX = 400, 400

	squareOff := squareAll
	squareOff.BeadingStrategyScope = wall.ScopeOff

	thinRect := base
	thinRect.WallCount = 1
	thinRect.LineWidth0, thinRect.LineWidthX = 400, 400
	thinRect.MinBeadWidth = 300
	thinRect.FillOutlineGaps = true

	holed := base
	holed.WallCount = 5

	fixedOuter := base
	fixedOuter.WallCount = 4
	fixedOuter.FixedOuterWall = true
	fixedOuter.LineWidth0 = 400
	fixedOuter.LineWidthX = 500

	return []Scenario{
		{Name: "square-skeletal", Shape: square(10000), Settings: squareAll},
		{Name: "square-simple-offset", Shape: square(10000), Settings: squareOff},
		{Name: "thin-rectangle", Shape: rectangle(10000, 600), Settings: thinRect},
		{Name: "square-with-triangular-hole", Shape: squareWithTriangularHole(), Settings: holed},
		{Name: "two-disjoint-polygons", Shape: disjointPolygons(), Settings: base},
		{Name: "fixed-outer-wall", Shape: square(10000), Settings: fixedOuter},
	}
}

// squareWithTriangularHole returns a 5mm square outer loop with a small
// triangular inner loop (even-odd fill makes it a hole). The hole is wound
// opposite the outer loop (clockwise where the outer is counter-clockwise)
// so internal/skeletal.Build's orientation check (by polygon signed area)
// treats it as a hole whose wavefront expands outward into the material,
// rather than as an independent second outer loop.
func squareWithTriangularHole() geomkernel.Shape {
	outer := geomkernel.Polygon{
		{X: 0, Y: 0}, {X: 5000, Y: 0}, {X: 5000, Y: 5000}, {X: 0, Y: 5000},
	}
	hole := geomkernel.Polygon{
		{X: 2000, Y: 1500}, {X: 2500, Y: 3000}, {X: 3000, Y: 1500},
	}
	return geomkernel.Shape{outer, hole}
}

// disjointPolygons returns one 1mm square and one 20mm square with no
// shared geometry, used to exercise per-polygon independence.
func disjointPolygons() geomkernel.Shape {
	small := geomkernel.Polygon{
		{X: 0, Y: 0}, {X: 1000, Y: 0}, {X: 1000, Y: 1000}, {X: 0, Y: 1000},
	}
	large := geomkernel.Polygon{
		{X: 50000, Y: 50000}, {X: 70000, Y: 50000}, {X: 70000, Y: 70000}, {X: 50000, Y: 70000},
	}
	return geomkernel.Shape{small, large}
}
