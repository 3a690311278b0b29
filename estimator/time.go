package estimator

import "fmt"

// GetTime runs the planner (if needed) and returns the total
// estimated wall-clock time in seconds: the sum of every block's
// accelerate/cruise/decelerate time plus additional_time (spec.md
// §4.5).
func (e *Estimator) GetTime() float64 {
	e.Plan()

	total := e.state.additionalTime
	for i := range e.blocks {
		b := &e.blocks[i]
		total += b.accelerationTime() + b.cruiseTime() + b.decelerationTime()
	}
	e.time = total
	return total
}

// GetTimeHMS formats GetTime() as "HH:MM:SS" with zero-padded minutes
// and seconds and unbounded (non-modulo) hours.
func (e *Estimator) GetTimeHMS() string {
	total := e.GetTime()
	if total < 0 {
		total = 0
	}
	totalSeconds := int64(total)
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
