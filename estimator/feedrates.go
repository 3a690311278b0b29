package estimator

// feedrates is a value-copy snapshot of an emitted block's nominal and
// per-axis feedrates. e.curr holds the most recently emitted block and
// is what the next block's junction analysis reads; e.prev holds the
// one before it. Keeping them as copies instead of
// pointers into the block list avoids any lifetime coupling between
// the snapshots and the blocks they were taken from.
type feedrates struct {
	feedrate        float64       // mm/s, scalar nominal
	axisFeedrate    [numAxis]float64 // mm/s, signed, component-wise
	absAxisFeedrate [numAxis]float64 // mm/s
	safeFeedrate    float64       // mm/s, jerk-bounded junction limit
}

func (f *feedrates) reset() {
	*f = feedrates{}
}
