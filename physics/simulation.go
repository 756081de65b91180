// Package physics lays out the relationship graph with an iterative force simulation.
package physics

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/TFMV/liquiditymap/models"
)

// State is the lifecycle state of a simulation
type State int

const (
	Idle State = iota
	Running
	Dragging
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Dragging:
		return "dragging"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// Engine is the narrow API through which the render layer drives a layout
type Engine interface {
	Step() bool
	Pin(id string, x, y float64) bool
	Unpin(id string) bool
	Resize(vp Viewport)
	Snapshot() Snapshot
	State() State
	Stop()
}

// Config configures a simulation
type Config struct {
	Viewport      Viewport
	Seed          int64
	AlphaMin      float64 // cooling schedule reaches this after ~300 ticks
	AlphaFloor    float64 // residual energy the engine settles at
	DragAlpha     float64 // energy target while a node is pinned
	ResizeAlpha   float64 // energy restored after a resize
	VelocityDecay float64
	Logger        *zap.Logger
	Metrics       *Metrics
}

// DefaultConfig returns the configuration used by the dashboard
func DefaultConfig() Config {
	return Config{
		Viewport:      DefaultViewport,
		Seed:          1,
		AlphaMin:      0.001,
		AlphaFloor:    0.01,
		DragAlpha:     0.3,
		ResizeAlpha:   0.3,
		VelocityDecay: 0.4,
	}
}

type body struct {
	id     string
	group  models.Group
	weight float64
	radius float64 // collision radius, padding included
	pos    r2.Vec
	vel    r2.Vec
	pin    *r2.Vec
	last   r2.Vec // last finite position
}

type link struct {
	source   *body
	target   *body
	strength float64
	bias     float64
}

// Simulation is the single owner of every node's position and velocity.
// It is not safe for concurrent use; Runner wraps it for goroutine-driven hosts.
type Simulation struct {
	cfg      Config
	params   Params
	viewport Viewport
	logger   *zap.Logger
	metrics  *Metrics

	bodies *orderedmap.OrderedMap[string, *body]
	order  []*body
	links  []link

	state       State
	alpha       float64
	alphaDecay  float64
	alphaTarget float64
	ticks       int
	pins        int

	noise       opensimplex.Noise
	jitterCalls int
}

// NewSimulation seeds a simulation for a graph. Edges whose endpoints are not in the
// node set are skipped.
func NewSimulation(g *models.Graph, cfg Config) *Simulation {
	def := DefaultConfig()
	if !cfg.Viewport.Valid() {
		cfg.Viewport = def.Viewport
	}
	if cfg.AlphaMin <= 0 {
		cfg.AlphaMin = def.AlphaMin
	}
	if cfg.AlphaFloor < 0 {
		cfg.AlphaFloor = 0
	}
	if cfg.DragAlpha <= 0 {
		cfg.DragAlpha = def.DragAlpha
	}
	if cfg.ResizeAlpha <= 0 {
		cfg.ResizeAlpha = def.ResizeAlpha
	}
	if cfg.VelocityDecay <= 0 || cfg.VelocityDecay >= 1 {
		cfg.VelocityDecay = def.VelocityDecay
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Simulation{
		cfg:         cfg,
		params:      ParamsFor(cfg.Viewport),
		viewport:    cfg.Viewport,
		logger:      logger,
		metrics:     cfg.Metrics,
		bodies:      orderedmap.New[string, *body](),
		state:       Idle,
		alpha:       1,
		alphaDecay:  1 - math.Pow(cfg.AlphaMin, 1.0/300),
		alphaTarget: cfg.AlphaFloor,
		noise:       opensimplex.New(cfg.Seed),
	}

	for _, n := range g.Nodes {
		if _, exists := s.bodies.Get(n.ID); exists {
			continue
		}
		b := &body{id: n.ID, group: n.Group, weight: n.Weight}
		s.bodies.Set(n.ID, b)
		s.order = append(s.order, b)
	}
	s.resizeBodies()
	s.seedPositions()

	degree := make(map[string]int)
	for _, e := range g.Edges {
		src, okS := s.bodies.Get(e.Source)
		dst, okT := s.bodies.Get(e.Target)
		if !okS || !okT || src == dst {
			logger.Debug("skipping edge with unknown endpoint",
				zap.String("source", e.Source),
				zap.String("target", e.Target),
			)
			continue
		}
		degree[e.Source]++
		degree[e.Target]++
		s.links = append(s.links, link{source: src, target: dst, strength: e.Strength})
	}
	for i := range s.links {
		l := &s.links[i]
		ds, dt := float64(degree[l.source.id]), float64(degree[l.target.id])
		l.strength = l.strength / math.Min(ds, dt)
		l.bias = ds / (ds + dt)
	}

	return s
}

// seedPositions places nodes on a phyllotaxis spiral around the viewport centre.
// The spiral's phase comes from the seed so layouts are reproducible.
func (s *Simulation) seedPositions() {
	center := r2.Vec{X: s.viewport.Width / 2, Y: s.viewport.Height / 2}
	phase := s.noise.Eval2(float64(s.cfg.Seed%1000)*0.1, 0.5) * math.Pi
	golden := math.Pi * (3 - math.Sqrt(5))
	for i, b := range s.order {
		r := s.params.InitialRadius * math.Sqrt(0.5+float64(i))
		a := phase + float64(i)*golden
		b.pos = r2.Add(center, r2.Vec{X: r * math.Cos(a), Y: r * math.Sin(a)})
		b.vel = r2.Vec{}
		b.last = b.pos
	}
}

func (s *Simulation) resizeBodies() {
	for _, b := range s.order {
		b.radius = CollisionRadius(b.weight, s.viewport.Width)
	}
}

// Start moves an idle simulation to Running
func (s *Simulation) Start() {
	if s.state == Idle {
		s.state = Running
	}
}

// State returns the current lifecycle state
func (s *Simulation) State() State {
	return s.state
}

// Alpha returns the current simulation energy
func (s *Simulation) Alpha() float64 {
	return s.alpha
}

// Ticks returns how many steps have been applied
func (s *Simulation) Ticks() int {
	return s.ticks
}

// Viewport returns the surface the layout currently targets
func (s *Simulation) Viewport() Viewport {
	return s.viewport
}

// Settled reports whether the cooling schedule has reached the residual floor
func (s *Simulation) Settled() bool {
	return s.state != Dragging && s.alpha-s.alphaTarget < s.cfg.AlphaMin
}

// Step advances the layout by one tick. It returns false without touching any
// position once the simulation is stopped.
func (s *Simulation) Step() bool {
	switch s.state {
	case Stopped:
		return false
	case Idle:
		s.state = Running
	}

	done := s.metrics.observeTick()
	defer done()

	s.alpha += (s.alphaTarget - s.alpha) * s.alphaDecay

	s.applyLink()
	s.applyCharge()
	for i := 0; i < s.params.CollideIteration; i++ {
		s.applyCollide()
	}
	s.applyGroupX()
	s.applyCenter()
	s.integrate()

	s.ticks++
	return true
}

func (s *Simulation) integrate() {
	keep := 1 - s.cfg.VelocityDecay
	for _, b := range s.order {
		if b.pin != nil {
			*b.pin = s.clampToViewport(*b.pin)
			b.pos = *b.pin
			b.vel = r2.Vec{}
		} else {
			b.vel = r2.Scale(keep, b.vel)
			b.pos = r2.Add(b.pos, b.vel)
		}
		if !finite(b.pos) || !finite(b.vel) {
			s.logger.Debug("discarding non-finite position", zap.String("node", b.id))
			s.metrics.recovered()
			b.pos = b.last
			b.vel = r2.Vec{}
			continue
		}
		b.last = b.pos
	}
}

// Pin fixes a node at a point until Unpin. The pin overrides every force from the
// next tick on and raises the energy so neighbours visibly react.
func (s *Simulation) Pin(id string, x, y float64) bool {
	if s.state == Stopped {
		return false
	}
	b, ok := s.bodies.Get(id)
	if !ok || math.IsNaN(x) || math.IsNaN(y) {
		return false
	}
	p := s.clampToViewport(r2.Vec{X: x, Y: y})
	if b.pin == nil {
		s.pins++
		s.metrics.pinned()
	}
	b.pin = &p
	s.state = Dragging
	s.alphaTarget = s.cfg.DragAlpha
	return true
}

// Unpin releases a node back into the free simulation
func (s *Simulation) Unpin(id string) bool {
	if s.state == Stopped {
		return false
	}
	b, ok := s.bodies.Get(id)
	if !ok || b.pin == nil {
		return false
	}
	b.pin = nil
	s.pins--
	if s.pins <= 0 {
		s.pins = 0
		s.state = Running
		s.alphaTarget = s.cfg.AlphaFloor
	}
	return true
}

// Resize retargets the layout at a new surface. Positions are not rescaled; the
// forces pull nodes to their new targets after the energy is raised.
func (s *Simulation) Resize(vp Viewport) {
	if s.state == Stopped || !vp.Valid() {
		return
	}
	s.viewport = vp
	s.params = ParamsFor(vp)
	s.resizeBodies()
	for _, b := range s.order {
		if b.pin != nil {
			*b.pin = s.clampToViewport(*b.pin)
		}
	}
	s.alpha = math.Max(s.alpha, s.cfg.ResizeAlpha)
}

// Stop halts the simulation. It is safe to call more than once.
func (s *Simulation) Stop() {
	if s.state == Stopped {
		return
	}
	s.state = Stopped
	for _, b := range s.order {
		b.pin = nil
	}
	s.pins = 0
}

func (s *Simulation) clampToViewport(p r2.Vec) r2.Vec {
	return r2.Vec{
		X: math.Max(0, math.Min(s.viewport.Width, p.X)),
		Y: math.Max(0, math.Min(s.viewport.Height, p.Y)),
	}
}

// jiggle returns a tiny non-zero offset used in place of a zero distance component
func (s *Simulation) jiggle() float64 {
	s.jitterCalls++
	v := s.noise.Eval2(float64(s.ticks)*0.731+0.1, float64(s.jitterCalls)*0.377+0.2) * 1e-6
	if v == 0 || math.IsNaN(v) {
		if s.jitterCalls%2 == 0 {
			return 1e-7
		}
		return -1e-7
	}
	return v
}

func finite(v r2.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}
