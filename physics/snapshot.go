package physics

import (
	"github.com/TFMV/liquiditymap/models"
)

// NodeState is the position of one node at a tick
type NodeState struct {
	ID     string       `json:"id"`
	X      float64      `json:"x"`
	Y      float64      `json:"y"`
	VX     float64      `json:"vx"`
	VY     float64      `json:"vy"`
	Radius float64      `json:"radius"`
	Pinned bool         `json:"pinned"`
	Group  models.Group `json:"group"`
}

// Snapshot is an immutable copy of the layout. Renderers read positions only from
// snapshots, never from the simulation itself.
type Snapshot struct {
	Tick     int         `json:"tick"`
	Alpha    float64     `json:"alpha"`
	State    string      `json:"state"`
	Viewport Viewport    `json:"viewport"`
	Nodes    []NodeState `json:"nodes"`

	index map[string]int
}

// Node looks up a node's state by id
func (s Snapshot) Node(id string) (NodeState, bool) {
	if s.index == nil {
		for _, n := range s.Nodes {
			if n.ID == id {
				return n, true
			}
		}
		return NodeState{}, false
	}
	i, ok := s.index[id]
	if !ok {
		return NodeState{}, false
	}
	return s.Nodes[i], true
}

// Bounds returns the bounding box of every bubble including its radius
func (s Snapshot) Bounds() (minX, minY, maxX, maxY float64) {
	for i, n := range s.Nodes {
		if i == 0 {
			minX, minY, maxX, maxY = n.X-n.Radius, n.Y-n.Radius, n.X+n.Radius, n.Y+n.Radius
			continue
		}
		minX = min(minX, n.X-n.Radius)
		minY = min(minY, n.Y-n.Radius)
		maxX = max(maxX, n.X+n.Radius)
		maxY = max(maxY, n.Y+n.Radius)
	}
	return
}

// Snapshot copies the current layout. Radii are the drawn radii, without the
// collision padding.
func (s *Simulation) Snapshot() Snapshot {
	snap := Snapshot{
		Tick:     s.ticks,
		Alpha:    s.alpha,
		State:    s.state.String(),
		Viewport: s.viewport,
		Nodes:    make([]NodeState, 0, s.bodies.Len()),
		index:    make(map[string]int, s.bodies.Len()),
	}
	for pair := s.bodies.Oldest(); pair != nil; pair = pair.Next() {
		b := pair.Value
		snap.index[b.id] = len(snap.Nodes)
		snap.Nodes = append(snap.Nodes, NodeState{
			ID:     b.id,
			X:      b.pos.X,
			Y:      b.pos.Y,
			VX:     b.vel.X,
			VY:     b.vel.Y,
			Radius: Radius(b.weight, s.viewport.Width),
			Pinned: b.pin != nil,
			Group:  b.group,
		})
	}
	return snap
}
