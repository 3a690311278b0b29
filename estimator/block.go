package estimator

import "math"

// feedrateProfile is a block's velocity profile: the nominal cruise
// target plus the entry/exit speeds the planner refines.
type feedrateProfile struct {
	entry  float64 // mm/s
	cruise float64 // mm/s
	exit   float64 // mm/s
}

// trapezoid is the computed accelerate/cruise/decelerate plan for a
// block, possibly degenerated to a triangle (no cruise segment).
type trapezoid struct {
	distance        float64 // mm, Euclidean length of the move
	accelerateUntil float64 // mm, cumulative distance
	decelerateAfter float64 // mm, cumulative distance
	feedrate        feedrateProfile
}

// accelerationTime returns the time spent accelerating toward cruise speed.
func (t *trapezoid) accelerationTime(acceleration float64) float64 {
	if acceleration == 0 {
		return 0
	}
	return (t.feedrate.cruise - t.feedrate.entry) / acceleration
}

// decelerationTime returns the time spent decelerating from cruise speed.
func (t *trapezoid) decelerationTime(acceleration float64) float64 {
	if acceleration == 0 {
		return 0
	}
	return (t.feedrate.cruise - t.feedrate.exit) / acceleration
}

// cruiseDistance returns the distance covered at constant cruise speed.
func (t *trapezoid) cruiseDistance() float64 {
	return math.Max(0, t.decelerateAfter-t.accelerateUntil)
}

// cruiseTime returns the time spent at cruise speed.
func (t *trapezoid) cruiseTime() float64 {
	if t.feedrate.cruise == 0 {
		return 0
	}
	return t.cruiseDistance() / t.feedrate.cruise
}

// blockFlags are planner bookkeeping, a caching optimization per
// spec.md §9 rather than semantically load-bearing state: dropping
// them and recomputing every block's trapezoid on every pass would be
// equivalent, just slower.
type blockFlags struct {
	recalculate    bool
	nominalLength  bool
}

// Block is one planned linear move: a trapezoidal velocity profile
// plus the planner bookkeeping needed to reconcile it with its
// neighbors. Blocks are appended in stream order and never reordered;
// the planner mutates them in place.
type Block struct {
	deltaPos [numAxis]float64 // mm, signed per-axis displacement

	acceleration  float64 // mm/s^2, used for this block
	maxEntrySpeed float64 // mm/s, junction upper bound on entry
	safeFeedrate  float64 // mm/s, jerk-only entry/exit speed

	feedrate  feedrateProfile
	trapezoid trapezoid

	flags blockFlags

	// axisFeedrate is the block's signed per-axis cruise velocity,
	// kept on the block after the transient feedrates snapshot has
	// moved on. The planner passes do not read it.
	axisFeedrate [numAxis]float64
}

// moveLength returns the Euclidean length of the move over X,Y,Z,E.
func (b *Block) moveLength() float64 {
	var sum float64
	for _, d := range b.deltaPos {
		sum += d * d
	}
	return math.Sqrt(sum)
}

// accelerationTime returns the time this block spends accelerating.
func (b *Block) accelerationTime() float64 {
	return b.trapezoid.accelerationTime(b.acceleration)
}

// cruiseTime returns the time this block spends at cruise speed.
func (b *Block) cruiseTime() float64 {
	return b.trapezoid.cruiseTime()
}

// decelerationTime returns the time this block spends decelerating.
func (b *Block) decelerationTime() float64 {
	return b.trapezoid.decelerationTime(b.acceleration)
}

// cruiseDistance returns the distance this block covers at cruise speed.
func (b *Block) cruiseDistance() float64 {
	return b.trapezoid.cruiseDistance()
}

// calculateTrapezoid computes accelerate_until/decelerate_after for
// the block's current entry/cruise/exit speeds and acceleration, per
// spec.md §4.4 "Trapezoid recomputation".
func (b *Block) calculateTrapezoid() {
	distance := b.trapezoid.distance
	entry := b.feedrate.entry
	cruise := b.feedrate.cruise
	exit := b.feedrate.exit
	accel := b.acceleration

	accelerateUntil := estimateAccelerationDistance(entry, cruise, accel)
	decelerationDistance := estimateAccelerationDistance(cruise, exit, -accel)
	decelerateAfter := distance - decelerationDistance

	if accelerateUntil > decelerateAfter {
		// No plateau: accelerate and decelerate segments meet before
		// reaching cruise. Replace with the intersection point;
		// cruise vanishes.
		mid := intersectionDistance(entry, exit, accel, distance)
		if mid < 0 {
			mid = 0
		}
		if mid > distance {
			mid = distance
		}
		accelerateUntil = mid
		decelerateAfter = mid
	}

	b.trapezoid.accelerateUntil = accelerateUntil
	b.trapezoid.decelerateAfter = decelerateAfter
	b.trapezoid.feedrate = b.feedrate
	b.flags.recalculate = false
}

// maxAllowableSpeed computes the maximum speed achievable at the start
// of a distance d if the move must decelerate (or accelerate) at rate
// a to reach targetVelocity by the end of it.
func maxAllowableSpeed(a, targetVelocity, d float64) float64 {
	v2 := targetVelocity*targetVelocity + 2*a*d
	if v2 < 0 {
		v2 = 0
	}
	return math.Sqrt(v2)
}

// estimateAccelerationDistance returns the distance (not time) needed
// to accelerate from initialRate to targetRate at the given
// acceleration. a == 0 is treated as a zero-length segment, guarding
// against division by zero (spec.md §4.4 "Numeric edge cases").
func estimateAccelerationDistance(initialRate, targetRate, a float64) float64 {
	if a == 0 {
		return 0
	}
	return (targetRate*targetRate - initialRate*initialRate) / (2 * a)
}

// intersectionDistance returns the point at which braking (at -a) must
// begin, having started at initialRate and accelerated at a, to end at
// finalRate after a total travel of distance. Used to find the
// accelerate/decelerate meeting point when a trapezoid has no plateau.
func intersectionDistance(initialRate, finalRate, a, distance float64) float64 {
	if a == 0 {
		return 0
	}
	return (2*a*distance - initialRate*initialRate + finalRate*finalRate) / (4 * a)
}

// accelerationTimeFromDistance returns the time needed to accelerate
// from initialFeedrate to cover the given distance at acceleration a.
func accelerationTimeFromDistance(initialFeedrate, distance, a float64) float64 {
	if a == 0 {
		return 0
	}
	v := speedFromDistance(initialFeedrate, distance, a)
	return (v - initialFeedrate) / a
}

// speedFromDistance returns the final speed reached after
// accelerating at rate a over the given distance from initialFeedrate.
func speedFromDistance(initialFeedrate, distance, a float64) float64 {
	v2 := initialFeedrate*initialFeedrate + 2*a*distance
	if v2 < 0 {
		v2 = 0
	}
	return math.Sqrt(v2)
}
