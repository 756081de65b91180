package models

// NodeFilter is a function type used to filter nodes in queries
type NodeFilter func(node *Node) bool

// NodeByID returns the node with the given ID
func (g *Graph) NodeByID(id string) (*Node, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

// NodeByCode returns the first node carrying the given display code
func (g *Graph) NodeByCode(code string) (*Node, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].Code == code {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

// HasNode reports whether a node with the given ID exists
func (g *Graph) HasNode(id string) bool {
	_, ok := g.NodeByID(id)
	return ok
}

// Neighbors returns the IDs of all nodes directly connected to a node
func (g *Graph) Neighbors(id string) []string {
	seen := make(map[string]bool)
	var result []string
	for _, edge := range g.Edges {
		var other string
		switch id {
		case edge.Source:
			other = edge.Target
		case edge.Target:
			other = edge.Source
		default:
			continue
		}
		if !seen[other] {
			seen[other] = true
			result = append(result, other)
		}
	}
	return result
}

// Degree returns how many edges touch a node
func (g *Graph) Degree(id string) int {
	n := 0
	for _, edge := range g.Edges {
		if edge.Source == id || edge.Target == id {
			n++
		}
	}
	return n
}

// FilterNodes returns nodes that match the provided filter function
func (g *Graph) FilterNodes(filter NodeFilter) []Node {
	var result []Node
	for i := range g.Nodes {
		if filter(&g.Nodes[i]) {
			result = append(result, g.Nodes[i])
		}
	}
	return result
}

// NodesInGroup returns all nodes tagged with the given group
func (g *Graph) NodesInGroup(group Group) []Node {
	return g.FilterNodes(func(n *Node) bool { return n.Group == group })
}
