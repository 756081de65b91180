// Package models provides data structures for the liquiditymap application.
// It defines the indicator catalog entities and the node/edge graph laid out by the engine.
package models

import (
	"time"
)

// Group is the categorical tag that biases a node's horizontal position
type Group string

const (
	GroupOnshore  Group = "onshore"
	GroupOffshore Group = "offshore"
	GroupFed      Group = "fed"
)

// Groups lists every known group in display order
var Groups = []Group{GroupOnshore, GroupOffshore, GroupFed}

// Indicator represents a named macroeconomic metric with a current value, unit and weight
type Indicator struct {
	ID          string   `json:"id" yaml:"id" validate:"required"`
	Code        string   `json:"code" yaml:"code" validate:"required"`
	Name        string   `json:"name,omitempty" yaml:"name,omitempty"`
	NameEn      string   `json:"nameEn,omitempty" yaml:"nameEn,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Value       string   `json:"value" yaml:"value"`
	Numeric     *float64 `json:"numeric,omitempty" yaml:"numeric,omitempty"`
	Unit        string   `json:"unit,omitempty" yaml:"unit,omitempty"`
	Change      float64  `json:"change" yaml:"change"`
	Weight      float64  `json:"weight" yaml:"weight" validate:"gte=1,lte=10"`
	Group       Group    `json:"group,omitempty" yaml:"group,omitempty" validate:"omitempty,oneof=onshore offshore fed"`
	SubCategory string   `json:"subCategory,omitempty" yaml:"subCategory,omitempty"`
	Source      string   `json:"source,omitempty" yaml:"source,omitempty"`
	SourceURL   string   `json:"sourceUrl,omitempty" yaml:"sourceUrl,omitempty" validate:"omitempty,url"`
	LastUpdated string   `json:"lastUpdated,omitempty" yaml:"lastUpdated,omitempty"`
}

// Relationship is one entry of the hand-authored correlation table
type Relationship struct {
	SourceCode string  `json:"source" yaml:"source" validate:"required"`
	TargetCode string  `json:"target" yaml:"target" validate:"required"`
	Strength   float64 `json:"strength" yaml:"strength" validate:"gt=0,lte=1"`
}

// Node is the layout-time representation of an Indicator or a synthetic policy entity.
// Simulation state lives in the physics engine, keyed by ID.
type Node struct {
	ID         string    `json:"id"`
	Code       string    `json:"code"`
	Group      Group     `json:"group"`
	Weight     float64   `json:"weight"`
	Selectable bool      `json:"selectable"`
	Indicator  Indicator `json:"indicator"`
}

// Edge represents a weighted relationship between two nodes
type Edge struct {
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Strength float64 `json:"strength"`
}

// Graph is the node set and edge set handed to the layout engine
type Graph struct {
	ID        string    `json:"id"`
	Nodes     []Node    `json:"nodes"`
	Edges     []Edge    `json:"edges"`
	CreatedAt time.Time `json:"created_at"`
}

// Event represents a monetary-policy calendar entry
type Event struct {
	Date      string `json:"date" yaml:"date" validate:"required,datetime=2006-01-02"`
	Type      string `json:"type" yaml:"type" validate:"required"`
	Summary   string `json:"summary" yaml:"summary"`
	SummaryEn string `json:"summaryEn" yaml:"summaryEn"`
	Impact    string `json:"impact" yaml:"impact" validate:"oneof=High Medium Low"`
	Speaker   string `json:"speaker,omitempty" yaml:"speaker,omitempty"`
}
