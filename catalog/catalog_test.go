package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/liquiditymap/graph"
	"github.com/TFMV/liquiditymap/models"
)

func TestDefaultCatalogIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Len(t, c.Onshore, 8)
	assert.Len(t, c.Offshore, 5)
	assert.Len(t, c.Fed, 3)
	assert.Len(t, c.Events, 8)

	for _, ind := range c.Onshore {
		assert.Equal(t, models.GroupOnshore, ind.Group, ind.ID)
	}
	for _, ind := range c.Offshore {
		assert.Equal(t, models.GroupOffshore, ind.Group, ind.ID)
	}
}

func TestDefaultCatalogValues(t *testing.T) {
	c := Default()

	tga, ok := c.Find("on-1")
	require.True(t, ok)
	assert.Equal(t, "TGA", tga.Code)
	assert.Equal(t, 9.0, tga.Weight)
	assert.Equal(t, "725.4 $B", tga.DisplayValue())

	jpy, ok := c.Find("jp-1")
	require.True(t, ok)
	assert.Equal(t, 10.0, jpy.Weight)
	assert.Equal(t, "142.5 ¥", jpy.DisplayValue())

	_, ok = c.Find("nope")
	assert.False(t, ok)
}

func TestDefaultCatalogIsACopy(t *testing.T) {
	a := Default()
	a.Onshore[0].Code = "changed"
	assert.Equal(t, "TGA", Default().Onshore[0].Code)
}

func TestValidateReportsEveryProblem(t *testing.T) {
	c := Default()
	c.Onshore[0].Weight = 0
	c.Offshore = append(c.Offshore, c.Offshore[0])
	c.Events[0].Impact = "Extreme"

	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `indicator "on-1"`)
	assert.Contains(t, err.Error(), `duplicate indicator id "jp-1"`)
	assert.Contains(t, err.Error(), "event 2025-05-07")
}

func TestCatalogGraphResolvesDefaultTable(t *testing.T) {
	c := Default()
	g := c.Graph(graph.DefaultTable())

	assert.Len(t, g.Nodes, 8+5+3+len(graph.PolicyNodes()))
	assert.Len(t, g.Edges, len(graph.DefaultTable().Entries))
	assert.True(t, graph.Validate(graph.DefaultTable(), g.Nodes).Clean())
}

func TestGroupBySubCategory(t *testing.T) {
	sections := GroupBySubCategory(Default().Onshore)
	require.Len(t, sections, 4)
	assert.Equal(t, GeneralOnshore, sections[0].SubCategory)
	assert.Equal(t, RepoMarket, sections[1].SubCategory)
	assert.Equal(t, TreasuryBasis, sections[2].SubCategory)
	assert.Equal(t, XccyBasis, sections[3].SubCategory)
	assert.Len(t, sections[1].Indicators, 3)

	fed := GroupBySubCategory(Fed())
	require.Len(t, fed, 2)
	assert.Equal(t, FedRates, fed[0].SubCategory)
	assert.Len(t, fed[0].Indicators, 2, "non-adjacent members join the first-seen section")
}

func TestUpcoming(t *testing.T) {
	events := Events()
	now := time.Date(2025, 9, 17, 15, 30, 0, 0, time.UTC)

	next := Upcoming(events, now, 2)
	require.Len(t, next, 2)
	assert.Equal(t, "2025-09-17", next[0].Date, "events on the current day are still upcoming")
	assert.Equal(t, "2025-12-10", next[1].Date)

	all := Upcoming(events, now, 0)
	assert.Len(t, all, 5)

	assert.Empty(t, Upcoming(events, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), 3))

	shuffled := []models.Event{events[3], {Date: "bad"}, events[1]}
	got := Upcoming(shuffled, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 0)
	require.Len(t, got, 2)
	assert.Equal(t, "2025-06-18", got[0].Date)
}

func TestImpactRank(t *testing.T) {
	assert.Less(t, ImpactRank(ImpactHigh), ImpactRank(ImpactMedium))
	assert.Less(t, ImpactRank(ImpactMedium), ImpactRank(ImpactLow))
	assert.Equal(t, 3, ImpactRank("unknown"))
}
