package physics

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultTickInterval is roughly one display frame
const DefaultTickInterval = 16 * time.Millisecond

// Runner drives a Simulation from its own goroutine and fans snapshots out to
// subscribers. All Engine methods are safe for concurrent use.
type Runner struct {
	mu       sync.Mutex
	sim      *Simulation
	interval time.Duration
	logger   *zap.Logger
	started  bool

	subsMu  sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int

	cancel    context.CancelFunc
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewRunner wraps a simulation. The runner does not tick until Start is called.
func NewRunner(sim *Simulation, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Runner{
		sim:      sim,
		interval: interval,
		logger:   sim.logger,
		subs:     make(map[int]func(Snapshot)),
		done:     make(chan struct{}),
	}
}

// Start launches the tick loop. It returns immediately; the loop ends when ctx is
// cancelled or Stop is called.
func (r *Runner) Start(ctx context.Context) {
	r.startOnce.Do(func() {
		r.mu.Lock()
		if r.sim.State() == Stopped {
			r.mu.Unlock()
			return
		}
		r.sim.Start()
		r.started = true
		ctx, r.cancel = context.WithCancel(ctx)
		r.mu.Unlock()

		r.sim.metrics.engineStarted()
		go r.loop(ctx)
	})
}

func (r *Runner) loop(ctx context.Context) {
	defer close(r.done)
	defer r.sim.metrics.engineStopped()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Debug("layout loop started", zap.Duration("interval", r.interval))
	for {
		select {
		case <-ctx.Done():
			r.Stop()
			r.logger.Debug("layout loop stopped")
			return
		case <-ticker.C:
			r.mu.Lock()
			applied := r.sim.Step()
			var snap Snapshot
			if applied {
				snap = r.sim.Snapshot()
			}
			r.mu.Unlock()
			if !applied {
				return
			}
			r.publish(snap)
		}
	}
}

func (r *Runner) publish(snap Snapshot) {
	r.subsMu.Lock()
	fns := make([]func(Snapshot), 0, len(r.subs))
	for _, fn := range r.subs {
		fns = append(fns, fn)
	}
	r.subsMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// Subscribe registers fn to receive a snapshot after every tick. Callbacks run on
// the runner's goroutine and must not block. The returned func unsubscribes.
func (r *Runner) Subscribe(fn func(Snapshot)) func() {
	r.subsMu.Lock()
	defer r.subsMu.Unlock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	return func() {
		r.subsMu.Lock()
		delete(r.subs, id)
		r.subsMu.Unlock()
	}
}

// Step applies one tick synchronously
func (r *Runner) Step() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sim.Step()
}

// Pin fixes a node at a point
func (r *Runner) Pin(id string, x, y float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sim.Pin(id, x, y)
}

// Unpin releases a pinned node
func (r *Runner) Unpin(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sim.Unpin(id)
}

// Resize retargets the layout at a new viewport
func (r *Runner) Resize(vp Viewport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sim.Resize(vp)
}

// Snapshot copies the current layout
func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sim.Snapshot()
}

// State returns the lifecycle state
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sim.State()
}

// Settled reports whether the layout has cooled to its residual energy
func (r *Runner) Settled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sim.Settled()
}

// Stop halts the simulation and ends the tick loop. It does not wait for the loop
// to exit; use Done for that. Calling Stop more than once is safe.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		r.sim.Stop()
		started := r.started
		cancel := r.cancel
		r.mu.Unlock()

		r.subsMu.Lock()
		r.subs = make(map[int]func(Snapshot))
		r.subsMu.Unlock()

		if cancel != nil {
			cancel()
		}
		if !started {
			close(r.done)
		}
	})
}

// Done is closed once the runner has stopped ticking
func (r *Runner) Done() <-chan struct{} {
	return r.done
}
