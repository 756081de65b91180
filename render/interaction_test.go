package render

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/liquiditymap/models"
	"github.com/TFMV/liquiditymap/physics"
)

// stubEngine is a fixed layout that records the calls made on it
type stubEngine struct {
	snap    physics.Snapshot
	pins    map[string][2]float64
	unpins  []string
	resizes []physics.Viewport
	stops   int
}

func newStubEngine(nodes ...physics.NodeState) *stubEngine {
	return &stubEngine{
		snap: physics.Snapshot{Viewport: physics.DefaultViewport, Nodes: nodes},
		pins: make(map[string][2]float64),
	}
}

func (s *stubEngine) Step() bool { return s.stops == 0 }
func (s *stubEngine) Pin(id string, x, y float64) bool {
	if s.stops > 0 {
		return false
	}
	s.pins[id] = [2]float64{x, y}
	return true
}
func (s *stubEngine) Unpin(id string) bool {
	s.unpins = append(s.unpins, id)
	delete(s.pins, id)
	return true
}
func (s *stubEngine) Resize(vp physics.Viewport) { s.resizes = append(s.resizes, vp) }
func (s *stubEngine) Snapshot() physics.Snapshot { return s.snap }
func (s *stubEngine) State() physics.State {
	if s.stops > 0 {
		return physics.Stopped
	}
	return physics.Running
}
func (s *stubEngine) Stop() { s.stops++ }

func controllerGraph() *models.Graph {
	g := models.NewGraph()
	g.AddNode(models.NewNode(models.NewIndicator("on-1", "TGA", 725.4, "$B", 9), models.GroupOnshore))
	g.AddNode(models.NewNode(models.NewIndicator("jp-1", "USDJPY", 142.5, "¥", 10), models.GroupOffshore))
	g.AddNode(models.NewPolicyNode("policy-swap", "Swap Lines", 6))
	return g
}

func controllerEngine() *stubEngine {
	return newStubEngine(
		physics.NodeState{ID: "on-1", X: 300, Y: 300, Radius: 75, Group: models.GroupOnshore},
		physics.NodeState{ID: "jp-1", X: 800, Y: 300, Radius: 80, Group: models.GroupOffshore},
		physics.NodeState{ID: "policy-swap", X: 600, Y: 500, Radius: 60, Group: models.GroupFed},
	)
}

func TestClickSelectsOnce(t *testing.T) {
	engine := controllerEngine()
	var selected []models.Indicator
	c := NewController(engine, controllerGraph(), func(ind models.Indicator) {
		selected = append(selected, ind)
	}, nil)

	id, ok := c.PointerDown(310, 290)
	require.True(t, ok)
	assert.Equal(t, "on-1", id)
	assert.Equal(t, [2]float64{300, 300}, engine.pins["on-1"])

	ind, ok := c.PointerUp(310, 290)
	require.True(t, ok)
	assert.Equal(t, "TGA", ind.Code)
	require.Len(t, selected, 1)
	assert.Equal(t, "on-1", selected[0].ID)
	assert.Equal(t, []string{"on-1"}, engine.unpins)

	// a second release without a press is not a click
	_, ok = c.PointerUp(310, 290)
	assert.False(t, ok)
	assert.Len(t, selected, 1)
}

func TestDragNeverSelects(t *testing.T) {
	engine := controllerEngine()
	calls := 0
	c := NewController(engine, controllerGraph(), func(models.Indicator) { calls++ }, nil)

	_, ok := c.PointerDown(800, 300)
	require.True(t, ok)
	require.True(t, c.PointerMove(801, 300))
	assert.Equal(t, [2]float64{801, 300}, engine.pins["jp-1"])
	require.True(t, c.PointerMove(900, 250))
	assert.Equal(t, [2]float64{900, 250}, engine.pins["jp-1"])

	// returning to the start point is still a drag
	c.PointerMove(800, 300)
	_, ok = c.PointerUp(800, 300)
	assert.False(t, ok)
	assert.Zero(t, calls)
	assert.Equal(t, []string{"jp-1"}, engine.unpins)
	assert.Empty(t, c.Active())
}

func TestDragKeepsGrabOffset(t *testing.T) {
	engine := controllerEngine()
	c := NewController(engine, controllerGraph(), nil, nil)

	_, ok := c.PointerDown(320, 310)
	require.True(t, ok)
	c.PointerMove(420, 410)
	assert.Equal(t, [2]float64{400, 400}, engine.pins["on-1"])
}

func TestPolicyNodeIsNotSelectable(t *testing.T) {
	engine := controllerEngine()
	calls := 0
	c := NewController(engine, controllerGraph(), func(models.Indicator) { calls++ }, nil)

	id, ok := c.PointerDown(600, 500)
	require.True(t, ok)
	assert.Equal(t, "policy-swap", id)
	_, ok = c.PointerUp(600, 500)
	assert.False(t, ok)
	assert.Zero(t, calls)
}

func TestPointerMissesEmptySpace(t *testing.T) {
	engine := controllerEngine()
	c := NewController(engine, controllerGraph(), nil, nil)

	_, ok := c.PointerDown(1190, 10)
	assert.False(t, ok)
	assert.False(t, c.PointerMove(1180, 20))
	assert.Empty(t, engine.pins)
}

func TestCloseStopsEngineAndDropsCallback(t *testing.T) {
	engine := controllerEngine()
	calls := 0
	c := NewController(engine, controllerGraph(), func(models.Indicator) { calls++ }, nil)

	c.PointerDown(300, 300)
	c.Close()
	c.Close()

	assert.Equal(t, 1, engine.stops)
	_, ok := c.PointerUp(300, 300)
	assert.False(t, ok)
	_, ok = c.PointerDown(300, 300)
	assert.False(t, ok)
	c.Resize(400, 400)
	assert.Empty(t, engine.resizes)
	assert.Zero(t, calls)
}

func TestResizeForwardsViewport(t *testing.T) {
	engine := controllerEngine()
	c := NewController(engine, controllerGraph(), nil, nil)
	c.Resize(640, 480)
	require.Len(t, engine.resizes, 1)
	assert.Equal(t, physics.Viewport{Width: 640, Height: 480}, engine.resizes[0])
}

func TestHitTestPrefersTopmost(t *testing.T) {
	snap := physics.Snapshot{Nodes: []physics.NodeState{
		{ID: "under", X: 100, Y: 100, Radius: 50},
		{ID: "over", X: 120, Y: 100, Radius: 50},
	}}
	n, ok := HitTest(snap, 110, 100)
	require.True(t, ok)
	assert.Equal(t, "over", n.ID)

	_, ok = HitTest(snap, 400, 400)
	assert.False(t, ok)
}

func TestClickOnLiveSimulation(t *testing.T) {
	g := controllerGraph()
	cfg := physics.DefaultConfig()
	cfg.Seed = 7
	sim := physics.NewSimulation(g, cfg)
	_, err := physics.Settle(context.Background(), sim, 1000)
	require.NoError(t, err)

	var got []string
	c := NewController(sim, g, func(ind models.Indicator) { got = append(got, ind.ID) }, nil)
	defer c.Close()

	n, ok := sim.Snapshot().Node("on-1")
	require.True(t, ok)
	_, ok = c.PointerDown(n.X, n.Y)
	require.True(t, ok)
	assert.Equal(t, physics.Dragging, sim.State())
	_, ok = c.PointerUp(n.X, n.Y)
	require.True(t, ok)
	assert.Equal(t, []string{"on-1"}, got)
	assert.Equal(t, physics.Running, sim.State())
}
