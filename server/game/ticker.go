package game

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// tpsSampleSize is the number of ticks averaged when estimating the
// effective ticks-per-second rate for the warning log.
const tpsSampleSize = 20

// tpsWarningThreshold is the fraction of the target rate (1/p for a period
// p) below which the sampled ticks-per-second rate triggers a warning.
const tpsWarningThreshold = 0.95

// Ticker drives a Manager's Tick method at a fixed period until its
// context is cancelled, sampling actual tick duration to warn if the
// server falls behind its target rate.
//
// Grounded on the teacher's server/world/tick.go ticker: time.NewTicker,
// a rolling sample window, and dispatch through the strand on every tick.
type Ticker struct {
	Period time.Duration
	Log    *zap.Logger
}

// Run blocks, ticking m.Tick every t.Period until ctx is cancelled.
func (t Ticker) Run(ctx context.Context, m *Manager) {
	log := t.Log
	if log == nil {
		log = zap.NewNop()
	}
	tick := time.NewTicker(t.Period)
	defer tick.Stop()

	targetTPS := 1 / t.Period.Seconds()
	var samples [tpsSampleSize]time.Duration
	var n int

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-tick.C:
			_ = now
			start := time.Now()
			if err := m.Tick(ctx, t.Period); err != nil {
				log.Error("tick aborted", zap.Error(err))
			}
			elapsed := time.Since(start)

			samples[n%tpsSampleSize] = elapsed
			n++
			if n >= tpsSampleSize {
				var total time.Duration
				for _, s := range samples {
					total += s
				}
				avg := total / tpsSampleSize
				if avg > 0 {
					tps := 1 / avg.Seconds()
					if tps < targetTPS*tpsWarningThreshold {
						log.Warn("tick rate below target",
							zap.Float64("tps", tps),
							zap.Float64("target_tps", targetTPS))
					}
				}
			}
		}
	}
}
