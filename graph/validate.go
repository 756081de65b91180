package graph

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/TFMV/liquiditymap/models"
)

// Orphan is a relationship entry that cannot be resolved against the active catalog
type Orphan struct {
	Entry   models.Relationship
	Missing []string
}

// DuplicateCode is a display code present on more than one node
type DuplicateCode struct {
	Code string
	IDs  []string
}

// Report collects build-time diagnostics for a relationship table. None of them are
// fatal: the builder drops whatever it cannot resolve.
type Report struct {
	Version    string
	Resolved   int
	Orphans    []Orphan
	SelfLoops  []models.Relationship
	Duplicates []DuplicateCode
	Invalid    []error
}

// Clean reports whether the table resolved without any diagnostics
func (r *Report) Clean() bool {
	return r.Problems() == 0
}

// Problems counts every diagnostic in the report
func (r *Report) Problems() int {
	return len(r.Orphans) + len(r.SelfLoops) + len(r.Duplicates) + len(r.Invalid)
}

// Validate checks a table against the nodes of the active view
func Validate(table Table, nodes []models.Node) *Report {
	report := &Report{Version: table.Version}

	codes := make(map[string][]string)
	var order []string
	for _, n := range nodes {
		if _, ok := codes[n.Code]; !ok {
			order = append(order, n.Code)
		}
		codes[n.Code] = append(codes[n.Code], n.ID)
	}
	for _, code := range order {
		if ids := codes[code]; len(ids) > 1 {
			report.Duplicates = append(report.Duplicates, DuplicateCode{Code: code, IDs: ids})
		}
	}

	for _, entry := range table.Entries {
		if err := entry.Validate(); err != nil {
			report.Invalid = append(report.Invalid, err)
			continue
		}
		var missing []string
		if _, ok := codes[entry.SourceCode]; !ok {
			missing = append(missing, entry.SourceCode)
		}
		if _, ok := codes[entry.TargetCode]; !ok {
			missing = append(missing, entry.TargetCode)
		}
		if len(missing) > 0 {
			report.Orphans = append(report.Orphans, Orphan{Entry: entry, Missing: missing})
			continue
		}
		// Codes resolve to their first node, so equal codes always collapse to one endpoint
		if entry.SourceCode == entry.TargetCode {
			report.SelfLoops = append(report.SelfLoops, entry)
			continue
		}
		report.Resolved++
	}

	return report
}

// Log emits the report as warning-level diagnostics
func (r *Report) Log(logger *zap.Logger) {
	if logger == nil {
		return
	}
	for _, o := range r.Orphans {
		logger.Warn("orphaned relationship",
			zap.String("table", r.Version),
			zap.String("source", o.Entry.SourceCode),
			zap.String("target", o.Entry.TargetCode),
			zap.Strings("missing", o.Missing),
		)
	}
	for _, e := range r.SelfLoops {
		logger.Warn("self-referencing relationship dropped",
			zap.String("table", r.Version),
			zap.String("code", e.SourceCode),
		)
	}
	for _, d := range r.Duplicates {
		logger.Warn("duplicate indicator code, edges resolve to the first node",
			zap.String("code", d.Code),
			zap.Strings("ids", d.IDs),
		)
	}
	for _, err := range r.Invalid {
		logger.Warn("invalid relationship entry", zap.String("table", r.Version), zap.Error(err))
	}
	logger.Debug("relationship table resolved",
		zap.String("table", r.Version),
		zap.Int("resolved", r.Resolved),
		zap.Int("orphans", len(r.Orphans)),
	)
}

// String summarizes the report on one line
func (r *Report) String() string {
	return fmt.Sprintf("table %s: %d resolved, %d orphaned, %d self-loops, %d duplicate codes, %d invalid",
		r.Version, r.Resolved, len(r.Orphans), len(r.SelfLoops), len(r.Duplicates), len(r.Invalid))
}
