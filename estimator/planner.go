package estimator

// Plan runs the two-pass look-ahead planner over the block list:
// reverse pass, then forward pass, then per-block trapezoid
// recomputation (spec.md §4.4). Safe to call more than once on the
// same block list: the reverse pass recomputes each entry speed from
// the block's own max_entry_speed, acceleration and length and the
// following block, so a repeated call reaches the same speeds.
func (e *Estimator) Plan() {
	if len(e.blocks) == 0 {
		return
	}
	e.reversePass()
	e.forwardPass()
	e.recalculateTrapezoids()
}

// reversePass iterates from last to first, propagating the
// deceleration budget backward so each block's entry speed doesn't
// exceed what the next block's entry speed and this block's own
// acceleration budget allow.
func (e *Estimator) reversePass() {
	n := len(e.blocks)
	for i := n - 1; i >= 0; i-- {
		curr := &e.blocks[i]
		if i == n-1 {
			// The final block's exit is forced to its safe speed in
			// the forward pass, so that is the speed its entry must be
			// able to brake down to.
			end := Block{feedrate: feedrateProfile{entry: curr.safeFeedrate}}
			e.plannerReversePassKernel(curr, &end)
			continue
		}
		next := &e.blocks[i+1]
		e.plannerReversePassKernel(curr, next)
	}

	// The first block's entry is forced to its safe (jerk-only) speed
	// — the machine is assumed to already be moving at that speed,
	// never starting instantaneously from rest mid-stream.
	e.blocks[0].feedrate.entry = e.blocks[0].safeFeedrate
	e.blocks[0].flags.recalculate = true
}

// plannerReversePassKernel reconciles curr's entry speed against
// next's entry speed and curr's own deceleration budget.
func (e *Estimator) plannerReversePassKernel(curr, next *Block) {
	if curr.flags.nominalLength && curr.feedrate.entry == curr.maxEntrySpeed {
		return
	}

	newEntry := minFloat(curr.maxEntrySpeed, maxAllowableSpeed(curr.acceleration, next.feedrate.entry, curr.moveLength()))
	if newEntry != curr.feedrate.entry {
		curr.feedrate.entry = newEntry
		curr.flags.recalculate = true
	}
}

// forwardPass iterates from first to last, propagating the
// acceleration budget forward: if a block can't accelerate enough to
// reach its neighbor's entry speed, the neighbor's entry speed is
// capped to what's achievable, and the exit speed of each block is
// set to the next block's (now-final) entry speed.
func (e *Estimator) forwardPass() {
	n := len(e.blocks)
	for i := 0; i < n-1; i++ {
		prev := &e.blocks[i]
		curr := &e.blocks[i+1]
		e.plannerForwardPassKernel(prev, curr)
	}

	// The final block's exit is forced to its safe (jerk-only) speed
	// — braking to rest (or to whatever "rest" means for a stream
	// that continues beyond this estimate).
	last := &e.blocks[n-1]
	last.feedrate.exit = last.safeFeedrate
	last.flags.recalculate = true
}

// plannerForwardPassKernel caps curr's entry speed to what prev can
// actually accelerate to within its own move length, then sets prev's
// exit speed to curr's (possibly just-capped) entry speed.
func (e *Estimator) plannerForwardPassKernel(prev, curr *Block) {
	if !prev.flags.nominalLength {
		capped := maxAllowableSpeed(prev.acceleration, prev.feedrate.entry, prev.moveLength())
		if capped < curr.feedrate.entry {
			curr.feedrate.entry = capped
			curr.flags.recalculate = true
		}
	}
	if prev.feedrate.exit != curr.feedrate.entry {
		prev.feedrate.exit = curr.feedrate.entry
		prev.flags.recalculate = true
	}
}

// recalculateTrapezoids recomputes accelerate_until/decelerate_after
// for every block flagged recalculate. spec.md §9 notes the flags are
// a caching optimization, not semantically load-bearing — recomputing
// unconditionally for every block would produce the same result.
func (e *Estimator) recalculateTrapezoids() {
	for i := range e.blocks {
		b := &e.blocks[i]
		if !b.flags.recalculate {
			continue
		}
		b.calculateTrapezoid()
	}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
