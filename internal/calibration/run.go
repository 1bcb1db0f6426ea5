package calibration

import (
	"context"
	"errors"
)

// Run ticks until ctx is cancelled. The cadence switches to the continuous
// interval on the tick that accepts the first transform.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := s.deps.Clock.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	s.deps.Logger.Info(component, "calibration started", map[string]interface{}{
		"interval":   s.opts.Interval.String(),
		"trafo_mode": s.opts.Mode.String(),
	})

	for {
		select {
		case <-ctx.Done():
			s.deps.Logger.Info(component, "calibration stopped", s.Snapshot().Fields())
			return nil
		case <-ticker.C():
			report, err := s.Tick(ctx)
			if err != nil {
				if errors.Is(err, ErrNoFrame) || errors.Is(err, ErrStaleFrame) {
					s.deps.Logger.Debug(component, "tick skipped", map[string]interface{}{
						"reason": err.Error(),
					})
				}
				continue
			}

			if report.Transitioned && s.opts.ContinuousInterval > 0 && s.opts.ContinuousInterval != s.opts.Interval {
				ticker.Reset(s.opts.ContinuousInterval)
				s.deps.Logger.Info(component, "tick cadence switched", map[string]interface{}{
					"interval": s.opts.ContinuousInterval.String(),
				})
			}
		}
	}
}
