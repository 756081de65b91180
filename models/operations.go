package models

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// NewGraph creates an empty graph with a unique ID and timestamp
func NewGraph() *Graph {
	return &Graph{
		ID:        uuid.New().String(),
		Nodes:     []Node{},
		Edges:     []Edge{},
		CreatedAt: time.Now(),
	}
}

// NewNode wraps an indicator as a selectable node of the given group
func NewNode(ind Indicator, group Group) Node {
	ind.Group = group
	return Node{
		ID:         ind.ID,
		Code:       ind.Code,
		Group:      group,
		Weight:     ind.Weight,
		Selectable: true,
		Indicator:  ind,
	}
}

// NewPolicyNode creates a synthetic, non-selectable node in the fed group
func NewPolicyNode(id, code string, weight float64) Node {
	ind := Indicator{ID: id, Code: code, Weight: weight, Group: GroupFed}
	return Node{
		ID:        id,
		Code:      code,
		Group:     GroupFed,
		Weight:    weight,
		Indicator: ind,
	}
}

// NewIndicator creates an indicator with a numeric current value
func NewIndicator(id, code string, value float64, unit string, weight float64) Indicator {
	v := value
	return Indicator{
		ID:      id,
		Code:    code,
		Value:   strconv.FormatFloat(value, 'f', -1, 64),
		Numeric: &v,
		Unit:    unit,
		Weight:  weight,
	}
}

// Validate checks the indicator's struct constraints
func (i Indicator) Validate() error {
	if err := validatorInstance().Struct(i); err != nil {
		return fmt.Errorf("indicator %q: %w", i.ID, err)
	}
	return nil
}

// DisplayValue returns the current value followed by its unit
func (i Indicator) DisplayValue() string {
	if i.Unit == "" {
		return i.Value
	}
	if i.Unit == "$B" || i.Unit == "$Tril" || i.Unit == "¥" {
		return i.Value + " " + i.Unit
	}
	return i.Value + i.Unit
}

// Validate checks the relationship's struct constraints
func (r Relationship) Validate() error {
	if err := validatorInstance().Struct(r); err != nil {
		return fmt.Errorf("relationship %s -> %s: %w", r.SourceCode, r.TargetCode, err)
	}
	return nil
}

// Validate checks the event's struct constraints
func (e Event) Validate() error {
	if err := validatorInstance().Struct(e); err != nil {
		return fmt.Errorf("event %s: %w", e.Date, err)
	}
	return nil
}

// Time parses the event date
func (e Event) Time() (time.Time, error) {
	return time.Parse("2006-01-02", e.Date)
}

// AddNode appends a node to the graph
func (g *Graph) AddNode(node Node) {
	g.Nodes = append(g.Nodes, node)
}

// AddEdge appends an edge after checking that both endpoints exist
func (g *Graph) AddEdge(edge Edge) error {
	if !g.HasNode(edge.Source) {
		return fmt.Errorf("source node with ID %s does not exist in the graph", edge.Source)
	}
	if !g.HasNode(edge.Target) {
		return fmt.Errorf("target node with ID %s does not exist in the graph", edge.Target)
	}
	g.Edges = append(g.Edges, edge)
	return nil
}

// Valid reports whether the group is one of the known groups
func (gr Group) Valid() bool {
	switch gr {
	case GroupOnshore, GroupOffshore, GroupFed:
		return true
	}
	return false
}
