// Package estimator is the motion-planner time model: the
// representation of each linear move as a trapezoidal velocity
// profile, the junction-velocity logic at block boundaries, the
// forward/reverse planning passes that propagate feasible entry
// speeds, and the accumulation of per-block times into a total. It
// reproduces the semantics of a real firmware look-ahead planner
// (grounded on PrusaSlicer's GCodeTimeEstimator) with the invariants
// that keep it numerically stable.
//
// The core never touches a real printer, a file, or a tokenizer
// implementation — it consumes Record values and produces a total
// time. No exceptions escape it: for any sequence of dispatched
// records it produces some nonnegative finite time.
package estimator

import (
	"fmt"

	"github.com/john/gcodetime/dialect"
)

// Estimator simulates a firmware motion planner over a stream of
// gcode records and reports the total wall-clock time the printer
// would take to execute them. It is not re-entrant: concurrent use of
// one instance is undefined, but separate instances share no mutable
// state and may be used in parallel.
type Estimator struct {
	state  state
	curr   feedrates
	prev   feedrates
	blocks []Block
	time   float64 // s, last total computed by GetTime
}

// New creates an Estimator initialized to the built-in Marlin defaults.
func New() *Estimator {
	e := &Estimator{}
	e.SetDefault()
	return e
}

// SetDefault restores the built-in defaults (spec.md §6): dialect
// Marlin, units millimeters, positioning absolute, all axis positions
// 0, Marlin's conventional per-axis feedrate/acceleration/jerk, global
// acceleration 1500, minimum_feedrate 0. Also clears blocks and time.
func (e *Estimator) SetDefault() {
	e.state.setDefault()
	e.Reset()
}

// Reset clears the block list and the time/additional_time
// accumulators and zeros the junction snapshots, preserving kinematic
// limits (axis position/feedrate/acceleration/jerk, dialect, units,
// positioning) unless SetDefault is called instead.
func (e *Estimator) Reset() {
	e.blocks = e.blocks[:0]
	e.time = 0
	e.state.additionalTime = 0
	e.curr.reset()
	e.prev.reset()
}

// AddLine dispatches one tokenized gcode record: it either mutates
// state or appends a Block. Malformed or unsupported commands are
// silently ignored (spec.md §7) — the estimator never aborts.
func (e *Estimator) AddLine(rec Record) {
	letter := rec.CommandLetter()
	number := rec.CommandNumber()

	switch letter {
	case 'G', 'g':
		switch number {
		case 0, 1:
			e.processG1(rec)
		case 4:
			e.processG4(rec)
		case 20:
			e.state.units = Inches
		case 21:
			e.state.units = Millimeters
		case 28:
			e.processG28(rec)
		case 90:
			e.state.positioning = Absolute
		case 91:
			e.state.positioning = Relative
		case 92:
			e.processG92(rec)
		}
	case 'M', 'm':
		switch number {
		case 104:
			e.processHeaterWait(rec, false)
		case 109:
			e.processHeaterWait(rec, true)
		case 203:
			e.processM203(rec)
		case 204:
			e.processM204(rec)
		case 205:
			e.processM205(rec)
		case 566:
			e.processM566(rec)
		}
	}
}

// processG4 handles dwell: P (ms) or S (s) added to additional_time.
func (e *Estimator) processG4(rec Record) {
	if rec.Has('P') {
		e.state.additionalTime += rec.Value('P') / 1000.0
	} else if rec.Has('S') {
		e.state.additionalTime += rec.Value('S')
	}
}

// processG28 handles homing: named axes (or all, if none named) go to
// position 0, plus a fixed dialect-dependent homing time.
func (e *Estimator) processG28(rec Record) {
	letters := []byte{'X', 'Y', 'Z'}
	named := false
	for _, l := range letters {
		if rec.Has(l) {
			named = true
			axis, _ := axisLetter(l)
			e.state.axis[axis].position = 0
		}
	}
	if !named {
		for _, l := range letters {
			axis, _ := axisLetter(l)
			e.state.axis[axis].position = 0
		}
	}
	e.state.additionalTime += e.state.dialectEntry().HomingTimeSec
}

// processG92 handles set-position: overwrite position with the
// supplied value for each axis given, no move, no block.
func (e *Estimator) processG92(rec Record) {
	for _, l := range []byte{'X', 'Y', 'Z', 'E'} {
		if rec.Has(l) {
			axis, _ := axisLetter(l)
			e.state.axis[axis].position = e.toMM(rec.Value(l))
		}
	}
}

// processHeaterWait handles M104/M109: parameters are parsed but
// thermodynamics isn't modeled. Only M109 (wait == true) charges the
// fixed heat-up placeholder to additional_time, per spec.md §4.2 and
// §9's Open Questions ("pick a documented placeholder ... rather than
// guessing").
func (e *Estimator) processHeaterWait(rec Record, wait bool) {
	if wait {
		e.state.additionalTime += e.state.dialectEntry().HeatWaitPlaceholderSec
	}
}

// processM203 updates per-axis max_feedrate from X,Y,Z,E params. The
// dialect's table says whether the values are mm/s (divisor 1) or
// mm/min (divisor 60, RepRapFirmware).
func (e *Estimator) processM203(rec Record) {
	divisor := e.state.dialectEntry().M203FeedrateDivisor
	if divisor == 0 {
		divisor = 1
	}
	for _, l := range []byte{'X', 'Y', 'Z', 'E'} {
		if rec.Has(l) {
			axis, _ := axisLetter(l)
			e.state.axis[axis].maxFeedrate = rec.Value(l) / divisor
		}
	}
}

// processM204 updates global acceleration from S, P (print), T
// (travel); S dominates when present.
func (e *Estimator) processM204(rec Record) {
	switch {
	case rec.Has('S'):
		e.state.acceleration = rec.Value('S')
	case rec.Has('P'):
		e.state.acceleration = rec.Value('P')
	case rec.Has('T'):
		e.state.acceleration = rec.Value('T')
	}
}

// processM205 updates minimum_feedrate (S) and per-axis jerk (X,Y,Z,E).
func (e *Estimator) processM205(rec Record) {
	if rec.Has('S') {
		e.state.minimumFeedrate = rec.Value('S')
	}
	for _, l := range []byte{'X', 'Y', 'Z', 'E'} {
		if rec.Has(l) {
			axis, _ := axisLetter(l)
			e.state.axis[axis].maxJerk = rec.Value(l)
		}
	}
}

// processM566 updates per-axis jerk in mm/min (RepRapFirmware), which
// the dialect's table divides by 60.
func (e *Estimator) processM566(rec Record) {
	divisor := e.state.dialectEntry().M566JerkDivisor
	if divisor == 0 {
		divisor = 1
	}
	for _, l := range []byte{'X', 'Y', 'Z', 'E'} {
		if rec.Has(l) {
			axis, _ := axisLetter(l)
			e.state.axis[axis].maxJerk = rec.Value(l) / divisor
		}
	}
}

// toMM converts a coordinate value read under the current units to mm.
func (e *Estimator) toMM(v float64) float64 {
	if e.state.units == Inches {
		return v * inchesToMM
	}
	return v
}

// --- Configuration surface (spec.md §6) ---

func (e *Estimator) SetAxisPosition(a Axis, mm float64) { e.state.axis[a].position = mm }
func (e *Estimator) AxisPosition(a Axis) float64        { return e.state.axis[a].position }

func (e *Estimator) SetAxisMaxFeedrate(a Axis, v float64) { e.state.axis[a].maxFeedrate = v }
func (e *Estimator) AxisMaxFeedrate(a Axis) float64       { return e.state.axis[a].maxFeedrate }

func (e *Estimator) SetAxisMaxAcceleration(a Axis, v float64) { e.state.axis[a].maxAcceleration = v }
func (e *Estimator) AxisMaxAcceleration(a Axis) float64       { return e.state.axis[a].maxAcceleration }

func (e *Estimator) SetAxisMaxJerk(a Axis, v float64) { e.state.axis[a].maxJerk = v }
func (e *Estimator) AxisMaxJerk(a Axis) float64       { return e.state.axis[a].maxJerk }

func (e *Estimator) SetFeedrate(v float64) { e.state.feedrate = v }
func (e *Estimator) Feedrate() float64     { return e.state.feedrate }

func (e *Estimator) SetAcceleration(v float64) { e.state.acceleration = v }
func (e *Estimator) Acceleration() float64     { return e.state.acceleration }

func (e *Estimator) SetMinimumFeedrate(v float64) { e.state.minimumFeedrate = v }
func (e *Estimator) MinimumFeedrate() float64     { return e.state.minimumFeedrate }

// SetDialect selects the firmware dialect and adopts its table entry's
// junction-velocity formulation as the default; call SetJunctionMode
// afterward to override it explicitly.
func (e *Estimator) SetDialect(d dialect.Dialect) {
	e.state.dialect = d
	e.state.junction = dialect.Lookup(d).Junction
}
func (e *Estimator) Dialect() dialect.Dialect { return e.state.dialect }

func (e *Estimator) SetUnits(u Units) { e.state.units = u }
func (e *Estimator) GetUnits() Units  { return e.state.units }

func (e *Estimator) SetPositioningType(p PositioningType) { e.state.positioning = p }
func (e *Estimator) PositioningType() PositioningType     { return e.state.positioning }

func (e *Estimator) SetJunctionMode(j dialect.JunctionMode) { e.state.junction = j }
func (e *Estimator) JunctionMode() dialect.JunctionMode     { return e.state.junction }

func (e *Estimator) AddAdditionalTime(s float64) { e.state.additionalTime += s }
func (e *Estimator) SetAdditionalTime(s float64) { e.state.additionalTime = s }
func (e *Estimator) AdditionalTime() float64     { return e.state.additionalTime }

// BlockCount returns the number of planned blocks, mostly useful for
// progress reporting while streaming a large program.
func (e *Estimator) BlockCount() int { return len(e.blocks) }

// String renders a short debug summary, in the teacher's terse style.
func (e *Estimator) String() string {
	return fmt.Sprintf("Estimator{dialect=%s blocks=%d time=%.3fs}", e.state.dialect, len(e.blocks), e.time)
}
