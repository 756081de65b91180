package graph

import (
	"github.com/TFMV/liquiditymap/models"
)

// DefaultTableVersion identifies the built-in relationship table
const DefaultTableVersion = "2025.2"

// Table is a versioned, replaceable relationship configuration
type Table struct {
	Version string                `json:"version" yaml:"version"`
	Entries []models.Relationship `json:"relationships" yaml:"relationships"`
}

func rel(source, target string, strength float64) models.Relationship {
	return models.Relationship{SourceCode: source, TargetCode: target, Strength: strength}
}

// DefaultTable returns the hand-authored correlation table for the default catalog.
// A fresh copy is returned on every call.
func DefaultTable() Table {
	return Table{
		Version: DefaultTableVersion,
		Entries: []models.Relationship{
			// Onshore
			rel("TGA", "ON RRP", 0.8),
			rel("TGA", "WALCL", 0.5),
			rel("ON RRP", "WALCL", 0.5),
			rel("ON RRP", "SOFR", 0.7),
			rel("SOFR", "EFFR", 0.6),
			rel("UST Basis", "Lev Net Shorts", 0.9),
			rel("UST Basis", "SOFR", 0.5),

			// Offshore
			rel("USDJPY", "JP10Y", 0.9),
			rel("USDJPY", "BOJ Rate", 0.7),
			rel("JP10Y", "BOJ Rate", 0.8),
			rel("BIS Credit", "Fed Custody", 0.6),

			// Cross-border
			rel("EURCBS 3M", "BIS Credit", 0.7),
			rel("USDJPY", "Fed Custody", 0.4),
			rel("Swap Lines", "EURCBS 3M", 0.5),
			rel("Swap Lines", "WALCL", 0.3),

			// Policy
			rel("FFR", "EFFR", 0.9),
			rel("FFR", "SOFR", 0.6),
			rel("FFR", "SEP 2026", 0.7),
			rel("Core PCE", "SEP 2026", 0.6),
			rel("FFR", "USDJPY", 0.4),
		},
	}
}

// LegacyTable returns the first-generation table. Several of its codes were renamed
// or removed from the catalog since, so most views drop a share of its entries.
func LegacyTable() Table {
	return Table{
		Version: "2024.1",
		Entries: []models.Relationship{
			rel("TGA", "ON RRP", 0.8),
			rel("TGA", "WALCL", 0.5),
			rel("ON RRP", "WALCL", 0.5),
			rel("ON RRP", "SOFR", 0.7),
			rel("SOFR", "Repo-IORB", 0.9),
			rel("SOFR", "EFFR", 0.6),
			rel("UST Basis", "Lev Shorts", 0.9),
			rel("UST Basis", "Imp Repo", 0.8),
			rel("Imp Repo", "SOFR", 0.5),
			rel("USDJPY", "JP10Y", 0.9),
			rel("USDJPY", "BOJ Rate", 0.7),
			rel("JP10Y", "BOJ Rate", 0.8),
			rel("Eurodollars", "Offshore Credit", 0.6),
			rel("EURCBS 3M", "Eurodollars", 0.7),
			rel("JPYCBS 3M", "USDJPY", 0.6),
			rel("JPYCBS 3M", "JP10Y", 0.4),
			rel("Swap Lines", "EURCBS 3M", 0.5),
		},
	}
}

// PolicyNodes returns the fixed set of synthetic policy entities. They take part in
// layout and rendering but are never offered to the selection callback.
func PolicyNodes() []models.Node {
	return []models.Node{
		models.NewPolicyNode("policy-swap", "Swap Lines", 6),
	}
}
