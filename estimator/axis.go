package estimator

// Axis identifies one of the four motion axes the planner tracks.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
	AxisE
	numAxis
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	case AxisZ:
		return "Z"
	case AxisE:
		return "E"
	default:
		return "?"
	}
}

// axisLetter maps a gcode parameter letter to an Axis, reporting false
// for any letter that isn't one of the four tracked axes.
func axisLetter(letter byte) (Axis, bool) {
	switch letter {
	case 'X', 'x':
		return AxisX, true
	case 'Y', 'y':
		return AxisY, true
	case 'Z', 'z':
		return AxisZ, true
	case 'E', 'e':
		return AxisE, true
	default:
		return 0, false
	}
}

// axisState holds one axis's live cursor position plus its kinematic
// limits. Setting a limit to 0 disables the corresponding term: 0
// max_feedrate/max_acceleration means "unbounded", 0 max_jerk means
// "no jerk clamp".
type axisState struct {
	position        float64 // mm
	maxFeedrate     float64 // mm/s
	maxAcceleration float64 // mm/s^2
	maxJerk         float64 // mm/s
}
