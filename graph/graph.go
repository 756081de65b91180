// Package graph turns indicator lists and a relationship table into the node/edge
// graph laid out by the physics engine.
package graph

import (
	"github.com/TFMV/liquiditymap/models"
)

type buildOptions struct {
	fed         []models.Indicator
	policyNodes []models.Node
}

// Option customizes Build
type Option func(*buildOptions)

// WithFed appends fed-group indicators after the onshore and offshore lists
func WithFed(fed []models.Indicator) Option {
	return func(o *buildOptions) {
		o.fed = append(o.fed, fed...)
	}
}

// WithPolicyNodes appends synthetic non-selectable nodes
func WithPolicyNodes(nodes ...models.Node) Option {
	return func(o *buildOptions) {
		o.policyNodes = append(o.policyNodes, nodes...)
	}
}

// listGroup tags an indicator with the list it came from unless it is already fed
func listGroup(ind models.Indicator, list models.Group) models.Group {
	if ind.Group == models.GroupFed {
		return models.GroupFed
	}
	return list
}

// Build concatenates the indicator lists, tags each node with its source group (fed indicators keep their own) and
// resolves the relationship table against the result by exact code match.
// Entries whose endpoints are missing are dropped; that is expected when a view
// renders a subset of the catalog. Build has no side effects.
func Build(onshore, offshore []models.Indicator, table Table, opts ...Option) *models.Graph {
	o := &buildOptions{}
	for _, opt := range opts {
		opt(o)
	}

	g := models.NewGraph()
	seenID := make(map[string]bool)
	add := func(n models.Node) {
		if seenID[n.ID] {
			return
		}
		seenID[n.ID] = true
		g.AddNode(n)
	}

	for _, ind := range onshore {
		add(models.NewNode(ind, listGroup(ind, models.GroupOnshore)))
	}
	for _, ind := range offshore {
		add(models.NewNode(ind, listGroup(ind, models.GroupOffshore)))
	}
	for _, ind := range o.fed {
		add(models.NewNode(ind, models.GroupFed))
	}
	for _, n := range o.policyNodes {
		add(n)
	}

	// First occurrence wins when a code appears in more than one list
	byCode := make(map[string]string, len(g.Nodes))
	for _, n := range g.Nodes {
		if _, dup := byCode[n.Code]; !dup {
			byCode[n.Code] = n.ID
		}
	}

	for _, rel := range table.Entries {
		source, ok := byCode[rel.SourceCode]
		if !ok {
			continue
		}
		target, ok := byCode[rel.TargetCode]
		if !ok || source == target {
			continue
		}
		if rel.Strength <= 0 || rel.Strength > 1 {
			continue
		}
		g.Edges = append(g.Edges, models.Edge{
			Source:   source,
			Target:   target,
			Strength: rel.Strength,
		})
	}

	return g
}
