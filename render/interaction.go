package render

import (
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/TFMV/liquiditymap/models"
	"github.com/TFMV/liquiditymap/physics"
)

// SelectFunc receives the indicator behind a clicked node
type SelectFunc func(models.Indicator)

// Controller turns pointer input on a rendered surface into engine calls. A press on
// a bubble pins it; any movement while pressed drags the pin; releasing unpins, and
// a release without movement on a selectable node is a click.
type Controller struct {
	mu       sync.Mutex
	engine   physics.Engine
	graph    *models.Graph
	onSelect SelectFunc
	logger   *zap.Logger

	active   string
	startX   float64
	startY   float64
	offsetX  float64
	offsetY  float64
	dragged  bool
	closed   bool
	closeOne sync.Once
}

// NewController binds a controller to an engine and the graph it lays out
func NewController(engine physics.Engine, g *models.Graph, onSelect SelectFunc, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{engine: engine, graph: g, onSelect: onSelect, logger: logger}
}

// HitTest returns the topmost node under a point. Bubbles use the same radius as the
// renderers, and later nodes are drawn over earlier ones.
func HitTest(snap physics.Snapshot, x, y float64) (physics.NodeState, bool) {
	for i := len(snap.Nodes) - 1; i >= 0; i-- {
		n := snap.Nodes[i]
		if math.Hypot(x-n.X, y-n.Y) <= n.Radius {
			return n, true
		}
	}
	return physics.NodeState{}, false
}

// PointerDown starts a gesture. It returns the id of the node under the pointer.
func (c *Controller) PointerDown(x, y float64) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return "", false
	}
	if c.active != "" {
		c.engine.Unpin(c.active)
		c.active = ""
	}

	n, ok := HitTest(c.engine.Snapshot(), x, y)
	if !ok {
		return "", false
	}
	if !c.engine.Pin(n.ID, n.X, n.Y) {
		return "", false
	}
	c.active = n.ID
	c.startX, c.startY = x, y
	c.offsetX, c.offsetY = x-n.X, y-n.Y
	c.dragged = false
	c.logger.Debug("pointer down", zap.String("node", n.ID))
	return n.ID, true
}

// PointerMove drags the active node, if any
func (c *Controller) PointerMove(x, y float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.active == "" {
		return false
	}
	if x != c.startX || y != c.startY {
		c.dragged = true
	}
	return c.engine.Pin(c.active, x-c.offsetX, y-c.offsetY)
}

// PointerUp ends the gesture. When it completes a click on a selectable node the
// selection callback runs exactly once and the indicator is returned.
func (c *Controller) PointerUp(x, y float64) (models.Indicator, bool) {
	c.mu.Lock()
	if c.closed || c.active == "" {
		c.mu.Unlock()
		return models.Indicator{}, false
	}
	id := c.active
	c.active = ""
	if x != c.startX || y != c.startY {
		c.dragged = true
	}
	dragged := c.dragged
	c.engine.Unpin(id)

	if dragged {
		c.mu.Unlock()
		c.logger.Debug("drag finished", zap.String("node", id))
		return models.Indicator{}, false
	}

	node, ok := c.graph.NodeByID(id)
	if !ok || !node.Selectable {
		c.mu.Unlock()
		return models.Indicator{}, false
	}
	ind := node.Indicator
	onSelect := c.onSelect
	c.mu.Unlock()

	if onSelect != nil {
		onSelect(ind)
	}
	c.logger.Debug("node selected", zap.String("node", id), zap.String("code", ind.Code))
	return ind, true
}

// Cancel abandons the current gesture without selecting anything
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != "" && !c.closed {
		c.engine.Unpin(c.active)
	}
	c.active = ""
}

// Active returns the node currently held by the pointer
func (c *Controller) Active() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Resize forwards a new surface size to the engine
func (c *Controller) Resize(width, height float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.engine.Resize(physics.Viewport{Width: width, Height: height})
}

// Close stops the engine and drops the selection callback. It is safe to call more
// than once.
func (c *Controller) Close() {
	c.closeOne.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.active = ""
		c.onSelect = nil
		c.mu.Unlock()
		c.engine.Stop()
	})
}
