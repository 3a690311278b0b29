package config

import (
	"github.com/john/gcodetime/dialect"
	"github.com/john/gcodetime/estimator"
)

// Apply seeds e with this ProfileConfig, leaving any zero-valued
// field at the Estimator's built-in default (e is assumed freshly
// created via estimator.New).
func (p ProfileConfig) Apply(e *estimator.Estimator) {
	if p.Dialect != "" {
		e.SetDialect(dialect.Parse(p.Dialect))
	}
	if p.Junction != "" {
		e.SetJunctionMode(dialect.ParseJunctionMode(p.Junction))
	}
	if p.Acceleration > 0 {
		e.SetAcceleration(p.Acceleration)
	}

	applyAxis := func(a estimator.Axis, limits AxisLimits) {
		if limits.MaxFeedrate > 0 {
			e.SetAxisMaxFeedrate(a, limits.MaxFeedrate)
		}
		if limits.MaxAcceleration > 0 {
			e.SetAxisMaxAcceleration(a, limits.MaxAcceleration)
		}
		if limits.MaxJerk > 0 {
			e.SetAxisMaxJerk(a, limits.MaxJerk)
		}
	}
	applyAxis(estimator.AxisX, p.Axis.X)
	applyAxis(estimator.AxisY, p.Axis.Y)
	applyAxis(estimator.AxisZ, p.Axis.Z)
	applyAxis(estimator.AxisE, p.Axis.E)
}
