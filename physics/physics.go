package physics

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// SettleResult describes an offline layout run
type SettleResult struct {
	Ticks   int
	Settled bool
	Elapsed time.Duration
	// Overflow is set when a bubble ends up partly outside the viewport
	Overflow bool
}

// Settle steps a simulation until it cools to its residual energy, maxTicks is
// reached, or ctx is cancelled. It is used to lay out a graph for static output.
func Settle(ctx context.Context, sim *Simulation, maxTicks int) (SettleResult, error) {
	start := time.Now()
	res := SettleResult{}
	if maxTicks <= 0 {
		maxTicks = 1000
	}

	for res.Ticks < maxTicks {
		select {
		case <-ctx.Done():
			res.Elapsed = time.Since(start)
			return res, fmt.Errorf("layout interrupted after %d ticks: %w", res.Ticks, ctx.Err())
		default:
		}
		if !sim.Step() {
			res.Elapsed = time.Since(start)
			return res, fmt.Errorf("layout stopped after %d ticks", res.Ticks)
		}
		res.Ticks++
		if sim.Settled() {
			res.Settled = true
			break
		}
	}

	res.Elapsed = time.Since(start)
	snap := sim.Snapshot()
	minX, minY, maxX, maxY := snap.Bounds()
	res.Overflow = minX < 0 || minY < 0 || maxX > snap.Viewport.Width || maxY > snap.Viewport.Height
	if res.Overflow {
		sim.logger.Debug("layout extends past the viewport",
			zap.Float64("minX", minX), zap.Float64("minY", minY),
			zap.Float64("maxX", maxX), zap.Float64("maxY", maxY),
		)
	}
	if !res.Settled {
		sim.logger.Warn("layout did not fully settle",
			zap.Int("ticks", res.Ticks),
			zap.Float64("alpha", sim.Alpha()),
		)
	}
	return res, nil
}
