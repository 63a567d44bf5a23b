// Package wall is the orchestrator that turns a Shape into variable-width
// wall toolpaths: it preprocesses the outline, decides between the full
// skeletal-trapezoidation pipeline and a constant-width fallback, assembles
// the beading strategy stack the settings call for, and post-processes the
// resulting lines.
package wall

import (
	"math"

	"github.com/wsd07/CuraEngine/internal/bead"
)

// Settings is the plain, JSON-tagged configuration struct the orchestrator
// reads: everything one GenerateWalls call needs, populated by the caller.
type Settings struct {
	LineWidth0     bead.Coord `json:"wall_line_width_0"`
	LineWidthX     bead.Coord `json:"wall_line_width_x"`
	WallCount      int        `json:"wall_count"`
	Wall0Inset     bead.Coord `json:"wall_0_inset"`
	MinBeadWidth   bead.Coord `json:"min_bead_width"`
	MinFeatureSize bead.Coord `json:"min_feature_size"`

	// BeadingStrategyScope selects which section types run the full
	// variable-width beading engine; everything else falls back to plain
	// constant-width offsets.
	BeadingStrategyScope string `json:"beading_strategy_scope"`
	// FillOutlineGaps enables the widening strategy: features thinner than
	// one nominal bead get a single clamped bead instead of nothing.
	FillOutlineGaps bool `json:"fill_outline_gaps"`

	WallTransitionLength  bead.Coord `json:"wall_transition_length"`
	WallDistributionCount int        `json:"wall_distribution_count"`
	// WallTransitionAngle is the transitioning angle (radians) feeding the
	// skeletal graph's centrality test (internal/skeletal.ComputeCentrality).
	// Defaults to 10 degrees.
	WallTransitionAngle           float64    `json:"wall_transition_angle"`
	WallTransitionFilterDistance  bead.Coord `json:"wall_transition_filter_distance"`
	WallTransitionFilterDeviation bead.Coord `json:"wall_transition_filter_deviation"`

	FixedOuterWall bool `json:"fixed_outer_wall"`

	FlowCompensate     bool       `json:"flow_compensate"`
	MinFlowTargetWidth bead.Coord `json:"min_flow_target_width"`
	MinFlowStableWidth bead.Coord `json:"min_flow_stable_width"`

	MaxResolution             float64 `json:"meshfix_maximum_resolution"`
	MaxDeviation              float64 `json:"meshfix_maximum_deviation"`
	MeshfixFluidMotionEnabled bool    `json:"meshfix_fluid_motion_enabled"`
	MinWallArea               float64 `json:"min_wall_area"`

	// FilterOuterCentralEdges and OuterEdgeFilterLength drive the skeletal
	// graph's outer-edge handling: OuterEdgeFilterLength excludes central
	// edges wholly within that radius of the boundary from
	// internal/skeletal.ComputeCentrality outright, and, when
	// FilterOuterCentralEdges is also true, centrality is cleared on every
	// quad-start edge (internal/skeletal.FilterOuterCentralEdges).
	FilterOuterCentralEdges bool       `json:"filter_outer_central_edges"`
	OuterEdgeFilterLength   bead.Coord `json:"outer_edge_filter_length"`

	// StepSize controls the skeletal trapezoidation's wavefront
	// discretization (internal/skeletal.BuildOptions.StepSize); finer
	// values trace the medial axis more faithfully at higher cost.
	StepSize bead.Coord `json:"step_size"`

	// SectionType and the layer fields below are folded into Settings,
	// rather than threaded as separate GenerateWalls arguments, to keep
	// one plain config struct per call.
	SectionType string  `json:"section_type"`
	LayerIndex  int32   `json:"layer_index"`
	LayerHeight float64 `json:"layer_height_um"`
	// LayerZ < 0 means "fall back to layer_index * layer_height".
	LayerZ float64 `json:"layer_z_um"`

	// Z-seam interpolation.
	DrawZSeamEnable         bool         `json:"draw_z_seam_enable"`
	DrawZSeamPoints         []ZSeamPoint `json:"draw_z_seam_points"`
	ZSeamPointInterpolation bool         `json:"z_seam_point_interpolation"`
	DrawZSeamGrow           bool         `json:"draw_z_seam_grow"`
}

// Section type constants for Settings.SectionType.
const (
	SectionWall    = "WALL"
	SectionSkin    = "SKIN"
	SectionSupport = "SUPPORT"
)

// Beading strategy scope constants for Settings.BeadingStrategyScope.
const (
	ScopeOff           = "OFF"
	ScopeOnlySkin      = "ONLY_SKIN"
	ScopeInnerWallSkin = "INNER_WALL_SKIN"
	ScopeAll           = "ALL"
)

// DefaultSettings returns reasonable defaults for a 0.4mm nozzle profile.
func DefaultSettings() Settings {
	return Settings{
		LineWidth0:                    400,
		LineWidthX:                    400,
		WallCount:                     3,
		Wall0Inset:                    0,
		MinBeadWidth:                  170,
		MinFeatureSize:                100,
		BeadingStrategyScope:          ScopeAll,
		FillOutlineGaps:               false,
		WallTransitionLength:          400,
		WallDistributionCount:         1,
		WallTransitionAngle:           10 * math.Pi / 180,
		WallTransitionFilterDistance:  100_000,
		WallTransitionFilterDeviation: 100,
		FixedOuterWall:                false,
		FlowCompensate:                false,
		MinFlowTargetWidth:            200,
		MinFlowStableWidth:            400,
		MaxResolution:                 5,
		MaxDeviation:                  5,
		MeshfixFluidMotionEnabled:     false,
		MinWallArea:                   100,
		FilterOuterCentralEdges:       true,
		OuterEdgeFilterLength:         50,
		StepSize:                      50,
		SectionType:                   SectionWall,
		LayerZ:                        -1,
	}
}

// repair clamps settings into a usable range before generation: a wall
// count that went negative becomes 0 (no walls), widths below one
// micrometer are bumped up rather than left to produce degenerate beads,
// and the minimum bead width is held at no less than 0.1mm and 40% of the
// widest configured line so the widening strategy can't emit beads the
// printer cannot physically produce.
func (s Settings) repair() Settings {
	if s.WallCount < 0 {
		s.WallCount = 0
	}
	if s.LineWidthX < 1 {
		s.LineWidthX = 1
	}
	if s.LineWidth0 < 1 {
		s.LineWidth0 = s.LineWidthX
	}
	widest := s.LineWidth0
	if s.LineWidthX > widest {
		widest = s.LineWidthX
	}
	minBead := bead.Coord(100)
	if f := 2 * widest / 5; f > minBead {
		minBead = f
	}
	if s.MinBeadWidth < minBead {
		s.MinBeadWidth = minBead
	}
	if s.BeadingStrategyScope == "" {
		s.BeadingStrategyScope = ScopeAll
	}
	if s.WallTransitionLength <= 0 {
		s.WallTransitionLength = s.LineWidthX
	}
	if s.StepSize <= 0 {
		s.StepSize = 50
	}
	if s.WallDistributionCount < 1 {
		s.WallDistributionCount = 1
	}
	if s.WallTransitionAngle <= 0 {
		s.WallTransitionAngle = 10 * math.Pi / 180
	}
	return s
}
