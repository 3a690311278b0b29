package estimator

import (
	"math"

	"github.com/john/gcodetime/dialect"
)

// junctionDeviationMM is Marlin's conventional JUNCTION_DEVIATION
// default, used only by the centripetal junction-velocity formulation
// (dialect.JunctionCentripetal). The jerk-difference formulation
// (spec.md §4.3 step 7, the default) doesn't use it.
const junctionDeviationMM = 0.013

// moveLetters are the axis parameter letters read from a G0/G1 line,
// in the fixed order the rest of the package indexes Axis by.
var moveLetters = [numAxis]byte{AxisX: 'X', AxisY: 'Y', AxisZ: 'Z', AxisE: 'E'}

// processG1 handles G0/G1: updates the target position from whichever
// of X,Y,Z,E are present (honoring units and positioning mode),
// updates feedrate from F if present, and emits a Block for the
// resulting move (spec.md §4.2, §4.3).
func (e *Estimator) processG1(rec Record) {
	var target [numAxis]float64
	for a := Axis(0); a < numAxis; a++ {
		target[a] = e.state.axis[a].position
		letter := moveLetters[a]
		if !rec.Has(letter) {
			continue
		}
		v := e.toMM(rec.Value(letter))
		if e.state.positioning == Relative {
			target[a] = e.state.axis[a].position + v
		} else {
			target[a] = v
		}
	}

	if rec.Has('F') {
		// F is mm/min in gcode always; stored internally as mm/s.
		e.state.feedrate = rec.Value('F') / 60.0
	}

	var delta [numAxis]float64
	moved := false
	for a := Axis(0); a < numAxis; a++ {
		delta[a] = target[a] - e.state.axis[a].position
		if delta[a] != 0 {
			moved = true
		}
	}

	for a := Axis(0); a < numAxis; a++ {
		e.state.axis[a].position = target[a]
	}

	if !moved {
		return
	}

	e.emitBlock(delta)
}

// emitBlock implements spec.md §4.3 steps 2-9: given a nonzero
// per-axis displacement, compute the move length, capped per-axis
// feedrate components, the block's acceleration budget, its safe
// (jerk-only) feedrate, the junction-limited max_entry_speed against
// the previous block, and append the resulting Block.
func (e *Estimator) emitBlock(delta [numAxis]float64) {
	length := math.Sqrt(delta[AxisX]*delta[AxisX] + delta[AxisY]*delta[AxisY] + delta[AxisZ]*delta[AxisZ] + delta[AxisE]*delta[AxisE])
	if length == 0 {
		return
	}

	scalar := e.state.feedrate

	// Cap the scalar feedrate so no axis component exceeds that
	// axis's max_feedrate (0 == unbounded).
	scale := 1.0
	for a := Axis(0); a < numAxis; a++ {
		limit := e.state.axis[a].maxFeedrate
		if limit <= 0 {
			continue
		}
		component := math.Abs(delta[a] / length * scalar)
		if component > limit {
			if r := limit / component; r < scale {
				scale = r
			}
		}
	}
	scalar *= scale

	// Floor-after-cap: the minimum_feedrate floor always wins, even
	// if it pushes an axis component back above its own limit — this
	// matches the intent of a minimum-speed guarantee (spec.md §9
	// Open Questions).
	if e.state.minimumFeedrate > 0 && scalar < e.state.minimumFeedrate {
		scalar = e.state.minimumFeedrate
	}

	var axisFeedrate, absAxisFeedrate [numAxis]float64
	for a := Axis(0); a < numAxis; a++ {
		axisFeedrate[a] = delta[a] / length * scalar
		absAxisFeedrate[a] = math.Abs(axisFeedrate[a])
	}

	// Acceleration: reduce the global value so no axis's component
	// exceeds its own max_acceleration.
	accel := e.state.acceleration
	for a := Axis(0); a < numAxis; a++ {
		if delta[a] == 0 {
			continue
		}
		limit := e.state.axis[a].maxAcceleration
		if limit <= 0 {
			continue
		}
		if a2 := limit * length / math.Abs(delta[a]); a2 < accel {
			accel = a2
		}
	}

	// Safe feedrate: the speed this block can enter/exit at using
	// only jerk, no braking.
	safe := scalar
	for a := Axis(0); a < numAxis; a++ {
		jerk := e.state.axis[a].maxJerk
		if jerk <= 0 || absAxisFeedrate[a] <= jerk {
			continue
		}
		if scaled := scalar * jerk / absAxisFeedrate[a]; scaled < safe {
			safe = scaled
		}
	}

	// Junction analysis against the previous block.
	var maxEntrySpeed float64
	if len(e.blocks) == 0 {
		maxEntrySpeed = safe
	} else if e.state.junction == dialect.JunctionCentripetal {
		maxEntrySpeed = e.centripetalMaxEntrySpeed(axisFeedrate, scalar, safe, accel)
	} else {
		candidate := math.Min(scalar, e.curr.feedrate)
		for a := Axis(0); a < numAxis; a++ {
			jerk := e.state.axis[a].maxJerk
			if jerk <= 0 {
				continue
			}
			jv := math.Abs(axisFeedrate[a] - e.curr.axisFeedrate[a])
			if jv > jerk {
				candidate *= jerk / jv
			}
		}
		maxEntrySpeed = math.Max(safe, candidate)
	}

	profile := feedrateProfile{entry: safe, cruise: scalar, exit: safe}
	nominalLength := scalar <= maxAllowableSpeed(accel, 0, length)

	block := Block{
		deltaPos:      delta,
		acceleration:  accel,
		maxEntrySpeed: maxEntrySpeed,
		safeFeedrate:  safe,
		feedrate:      profile,
		axisFeedrate:  axisFeedrate,
		flags:         blockFlags{recalculate: true, nominalLength: nominalLength},
	}
	block.trapezoid.distance = length
	e.blocks = append(e.blocks, block)

	e.prev = e.curr
	e.curr = feedrates{
		feedrate:        scalar,
		axisFeedrate:    axisFeedrate,
		absAxisFeedrate: absAxisFeedrate,
		safeFeedrate:    safe,
	}
}

// centripetalMaxEntrySpeed implements the alternative
// USE_CURA_JUNCTION_VMAX formulation spec.md §4.3 step 7 names: the
// junction speed is bounded by the centripetal acceleration needed to
// turn through the angle between the previous block's exit direction
// and this block's entry direction, using Marlin's junction-deviation
// model instead of a per-axis jerk difference.
func (e *Estimator) centripetalMaxEntrySpeed(axisFeedrate [numAxis]float64, scalar, safe, accel float64) float64 {
	if e.curr.feedrate == 0 || scalar == 0 {
		return safe
	}

	var dot, prevMagSq, currMagSq float64
	for a := Axis(0); a < numAxis; a++ {
		dot += e.curr.axisFeedrate[a] * axisFeedrate[a]
		prevMagSq += e.curr.axisFeedrate[a] * e.curr.axisFeedrate[a]
		currMagSq += axisFeedrate[a] * axisFeedrate[a]
	}
	denom := math.Sqrt(prevMagSq * currMagSq)
	if denom == 0 {
		return safe
	}

	cosTheta := dot / denom
	cosTheta = math.Max(-1, math.Min(1, cosTheta))

	// Collinear (same direction): no junction braking required beyond
	// the speed caps already in effect.
	if cosTheta > 0.9999995 {
		return math.Max(safe, math.Min(scalar, e.curr.feedrate))
	}

	sinHalf := math.Sqrt(math.Max(0, (1-cosTheta)/2))
	if sinHalf > 0.9999 {
		// Near-reversal: brake to the jerk-only safe speed.
		return safe
	}

	v := math.Sqrt(accel * junctionDeviationMM * sinHalf / (1 - sinHalf))
	return math.Max(safe, math.Min(v, math.Min(scalar, e.curr.feedrate)))
}
