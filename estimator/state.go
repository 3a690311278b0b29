package estimator

import "github.com/john/gcodetime/dialect"

// Units is the unit system for coordinates read from subsequent gcode
// lines. Changing units does not retroactively rescale stored
// positions (spec.md §4.1) — only subsequent coordinates are
// reinterpreted.
type Units byte

const (
	Millimeters Units = iota
	Inches
)

// inchesToMM is the conversion factor G20 coordinates are multiplied
// by before storage.
const inchesToMM = 25.4

// PositioningType selects whether G1 coordinates are absolute targets
// or deltas relative to the current position.
type PositioningType byte

const (
	Absolute PositioningType = iota
	Relative
)

// state is the mutable simulator cursor: dialect, units, positioning
// mode, per-axis limits and live position, and the global scalars
// spec.md §3 groups under "State" (acceleration, additional_time,
// minimum_feedrate). spec.md §2 describes "kinematic profile" and
// "motion state" as separate components for weighting purposes, but
// its own data model (§3) keeps them as one struct — the same
// structure as the original GCodeTimeEstimator::State — so that's
// what's implemented here, with accessor methods grouped by the role
// they serve.
type state struct {
	dialect     dialect.Dialect
	units       Units
	positioning PositioningType
	junction    dialect.JunctionMode
	axis        [numAxis]axisState

	feedrate        float64 // mm/s, last commanded nominal feedrate
	acceleration    float64 // mm/s^2, global
	additionalTime  float64 // s, non-motion wait accumulator
	minimumFeedrate float64 // mm/s, floor; 0 disables the floor
}

// defaultAxisLimits are Marlin's conventional values (spec.md §6).
var defaultAxisLimits = [numAxis]axisState{
	AxisX: {maxFeedrate: 500, maxAcceleration: 9000, maxJerk: 10},
	AxisY: {maxFeedrate: 500, maxAcceleration: 9000, maxJerk: 10},
	AxisZ: {maxFeedrate: 12, maxAcceleration: 500, maxJerk: 0.4},
	AxisE: {maxFeedrate: 120, maxAcceleration: 10000, maxJerk: 2.5},
}

// setDefault resets state to the built-in Marlin defaults (spec.md §6).
func (s *state) setDefault() {
	s.dialect = dialect.Marlin
	s.units = Millimeters
	s.positioning = Absolute
	s.junction = dialect.JunctionJerkDifference
	s.axis = defaultAxisLimits
	s.feedrate = 0
	s.acceleration = 1500
	s.additionalTime = 0
	s.minimumFeedrate = 0
}

func (s *state) dialectEntry() dialect.Entry {
	return dialect.Lookup(s.dialect)
}
