package catalog

import (
	"sort"
	"time"

	"github.com/TFMV/liquiditymap/models"
)

// Impact levels of calendar events
const (
	ImpactHigh   = "High"
	ImpactMedium = "Medium"
	ImpactLow    = "Low"
)

// Events returns the built-in FOMC and policy calendar
func Events() []models.Event {
	return []models.Event{
		{Date: "2025-05-07", Type: "Meeting", SummaryEn: "May Meeting: Watching for pause signals.", Impact: ImpactMedium},
		{Date: "2025-06-18", Type: "Meeting", SummaryEn: "June Meeting & SEP: 2026 neutral rate revision.", Impact: ImpactHigh},
		{Date: "2025-08-21", Type: "Speech", SummaryEn: `Jackson Hole: Powell on "Post-Easing Era" framework.`, Impact: ImpactHigh, Speaker: "Powell"},
		{Date: "2025-09-17", Type: "Meeting", SummaryEn: "Sept Meeting: Confirming QT tapering schedule.", Impact: ImpactHigh},
		{Date: "2025-12-10", Type: "Meeting", SummaryEn: "Year-end Meeting: 2026 inflation outlook confirmation.", Impact: ImpactHigh},
		{Date: "2026-01-28", Type: "Meeting", SummaryEn: "2026 First Meeting: Setting liquidity management tone.", Impact: ImpactHigh},
		{Date: "2026-03-18", Type: "Meeting", SummaryEn: "Assessing lag effects of cuts on the real economy.", Impact: ImpactMedium},
		{Date: "2026-06-17", Type: "Minutes", SummaryEn: "Mid-2026 Economic Outlook Minutes.", Impact: ImpactLow},
	}
}

// Upcoming returns events on or after now's calendar day, soonest first. A limit of
// zero or less returns all of them. Events with unparseable dates are skipped.
func Upcoming(events []models.Event, now time.Time, limit int) []models.Event {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	type dated struct {
		ev models.Event
		at time.Time
	}
	var future []dated
	for _, ev := range events {
		at, err := ev.Time()
		if err != nil || at.Before(today) {
			continue
		}
		future = append(future, dated{ev: ev, at: at})
	}
	sort.SliceStable(future, func(i, j int) bool { return future[i].at.Before(future[j].at) })

	if limit > 0 && len(future) > limit {
		future = future[:limit]
	}
	out := make([]models.Event, 0, len(future))
	for _, d := range future {
		out = append(out, d.ev)
	}
	return out
}

// ImpactRank orders impact levels from most to least significant
func ImpactRank(impact string) int {
	switch impact {
	case ImpactHigh:
		return 0
	case ImpactMedium:
		return 1
	case ImpactLow:
		return 2
	}
	return 3
}
