// Package catalog holds the built-in indicator catalog and policy calendar.
package catalog

import (
	"errors"
	"fmt"

	"github.com/TFMV/liquiditymap/graph"
	"github.com/TFMV/liquiditymap/models"
)

// Sub-categories used to group indicator cards
const (
	GeneralOnshore = "GENERAL_ONSHORE"
	RepoMarket     = "REPO_MARKET"
	TreasuryBasis  = "TREASURY_BASIS"
	XccyBasis      = "XCCY_BASIS"
	JPYMacro       = "JPY_MACRO"
	EuroMarket     = "EURO_MARKET"
	FedRates       = "FED_RATES"
	FedDots        = "FED_DOTS"
)

// Catalog is the full set of indicators a dashboard can show
type Catalog struct {
	Onshore  []models.Indicator `json:"onshore" yaml:"onshore"`
	Offshore []models.Indicator `json:"offshore" yaml:"offshore"`
	Fed      []models.Indicator `json:"fed" yaml:"fed"`
	Events   []models.Event     `json:"events,omitempty" yaml:"events,omitempty"`
}

type def struct {
	id, code, name string
	value          float64
	unit           string
	change         float64
	weight         float64
	sub            string
	source, url    string
	updated        string
	description    string
}

func (s def) indicator(group models.Group) models.Indicator {
	ind := models.NewIndicator(s.id, s.code, s.value, s.unit, s.weight)
	ind.Name = s.name
	ind.NameEn = s.name
	ind.Change = s.change
	ind.Group = group
	ind.SubCategory = s.sub
	ind.Source = s.source
	ind.SourceURL = s.url
	ind.LastUpdated = s.updated
	ind.Description = s.description
	return ind
}

func build(group models.Group, defs []def) []models.Indicator {
	out := make([]models.Indicator, 0, len(defs))
	for _, s := range defs {
		out = append(out, s.indicator(group))
	}
	return out
}

// Default returns a fresh copy of the built-in catalog
func Default() *Catalog {
	return &Catalog{
		Onshore:  Onshore(),
		Offshore: Offshore(),
		Fed:      Fed(),
		Events:   Events(),
	}
}

// Onshore returns the onshore USD liquidity indicators
func Onshore() []models.Indicator {
	return build(models.GroupOnshore, []def{
		{"on-1", "TGA", "Treasury General Account (TGA)", 725.4, "$B", 12.5, 9, GeneralOnshore,
			"FRED (WTREGEN)", "https://fred.stlouisfed.org/series/WTREGEN", "Live",
			"Monitoring TGA refill post-debt ceiling in 2025. Higher TGA drains system liquidity."},
		{"on-2", "WALCL", "Fed Total Assets", 6750, "$B", -25, 8, GeneralOnshore,
			"FRED (WALCL)", "https://fred.stlouisfed.org/series/WALCL", "Weekly",
			"QT progress. Taper discussion expected late 2025, potential passive growth in 2026."},
		{"repo-1", "ON RRP", "Overnight RRP", 315.2, "$B", -5.4, 9, RepoMarket,
			"NY Fed", "https://www.newyorkfed.org/markets/desk-operations/reverse-repo", "Daily",
			"Liquidity buffer. If balances hit the floor in 2025, stress shifts directly to bank reserves."},
		{"repo-2", "SOFR", "SOFR", 4.30, "%", 0, 7, RepoMarket,
			"NY Fed", "https://www.newyorkfed.org/markets/reference-rates/sofr", "Daily",
			"Repo benchmark. Watching for rate spikes in 2025-2026 due to collateral imbalances."},
		{"repo-3", "EFFR", "Effective Fed Funds Rate", 4.33, "%", 0, 6, RepoMarket,
			"NY Fed", "https://www.newyorkfed.org/markets/reference-rates/effr", "Daily",
			"Unsecured interbank rate. Expected to anchor in the 3.25%-3.50% neutral zone in 2026."},
		{"basis-1", "UST Basis", "Cash-Futures Basis", 0.38, "bps", -0.02, 8, TreasuryBasis,
			"CME", "https://www.cmegroup.com/markets/interest-rates/us-treasury/us-treasury-basis.html", "Live",
			"Basis trade crowding metric. High leverage in 2025 warrants caution against funding squeezes."},
		{"basis-2", "Lev Net Shorts", "Lev Funds Net Shorts", -750, "k contracts", -15, 9, TreasuryBasis,
			"CFTC", "https://www.cftc.gov/MarketReports/CommitmentsofTraders/index.htm", "Fridays",
			"CFTC positioning. Extreme shorts show 2025 crowding and potential re-pricing in 2026."},
		{"xccy-1", "EURCBS 3M", "EUR/USD 3M Basis", -14.2, "bps", -0.5, 7, XccyBasis,
			"Investing.com", "https://www.investing.com/currencies/eur-usd-forward-rates", "Live",
			"USD funding cost for the Eurozone. A widening negative spread signals tightening."},
	})
}

// Offshore returns the offshore USD liquidity indicators
func Offshore() []models.Indicator {
	return build(models.GroupOffshore, []def{
		{"jp-1", "USDJPY", "USD/JPY", 142.50, "¥", 0.3, 10, JPYMacro,
			"Yahoo Finance", "https://finance.yahoo.com/quote/USDJPY=X/", "Live",
			"Carry trade unwind risk in 2025 as spreads narrow. Focus on JPY recovery in 2026."},
		{"jp-2", "JP10Y", "JGB 10Y Yield", 1.15, "%", 0.02, 8, JPYMacro,
			"BoJ", "https://www.boj.or.jp/en/statistics/dl/jgbp/index.htm", "Live",
			"A break above 1.5% could trigger JPY repatriation from US Treasury markets."},
		{"jp-3", "BOJ Rate", "BoJ Policy Rate", 0.50, "%", 0, 7, JPYMacro,
			"BoJ", "https://www.boj.or.jp/en/mopo/mpmsche_minu/index.htm", "Meeting",
			"Multiple hikes expected in 2025. Target rate could reach ~1.0% by 2026."},
		{"eu-1", "BIS Credit", "Global Dollar Credit", 13.8, "$Tril", 0.1, 8, EuroMarket,
			"BIS", "https://www.bis.org/statistics/totcredit.htm", "Quarterly",
			"Total offshore USD credit. Global recovery in 2026 might drive credit expansion."},
		{"eu-2", "Fed Custody", "Fed Custody Holdings", 3.42, "$Tril", -0.01, 6, EuroMarket,
			"FRED", "https://fred.stlouisfed.org/series/WFACTCL", "Weekly",
			"FX intervention proxy. Drops suggest central banks selling USTs to support FX."},
	})
}

// Fed returns the Fed policy indicators
func Fed() []models.Indicator {
	return build(models.GroupFed, []def{
		{"fed-1", "FFR", "Fed Funds Rate Target", 4.50, "%", 0, 10, FedRates,
			"Federal Reserve", "https://www.federalreserve.gov/monetarypolicy/openmarket.htm", "FOMC",
			"Pivot focus in 2025. Watching for stabilization around 3.5% in 2026."},
		{"fed-2", "SEP 2026", "SEP 2026 Projections", 3.4, "%", 0, 9, FedDots,
			"Fed", "https://www.federalreserve.gov/monetarypolicy/fomccalendars.htm", "December",
			"Median expectation for end-2026. Reflects views on the neutral rate."},
		{"fed-3", "Core PCE", "Core PCE (YoY)", 2.6, "%", -0.1, 8, FedRates,
			"BEA", "https://www.bea.gov/data/personal-consumption-expenditures-price-index", "Monthly",
			"Monitoring the move towards the 2.0% target."},
	})
}

// All returns every indicator in group order
func (c *Catalog) All() []models.Indicator {
	out := make([]models.Indicator, 0, len(c.Onshore)+len(c.Offshore)+len(c.Fed))
	out = append(out, c.Onshore...)
	out = append(out, c.Offshore...)
	return append(out, c.Fed...)
}

// Find returns the indicator with the given id
func (c *Catalog) Find(id string) (models.Indicator, bool) {
	for _, ind := range c.All() {
		if ind.ID == id {
			return ind, true
		}
	}
	return models.Indicator{}, false
}

// Validate checks every indicator and event, reporting all failures at once
func (c *Catalog) Validate() error {
	var errs []error
	seen := make(map[string]bool)
	for _, ind := range c.All() {
		if err := ind.Validate(); err != nil {
			errs = append(errs, err)
		}
		if seen[ind.ID] {
			errs = append(errs, fmt.Errorf("duplicate indicator id %q", ind.ID))
		}
		seen[ind.ID] = true
	}
	for _, ev := range c.Events {
		if err := ev.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Graph builds the bubble map for the whole catalog, fed indicators and policy
// nodes included
func (c *Catalog) Graph(table graph.Table) *models.Graph {
	return graph.Build(c.Onshore, c.Offshore, table,
		graph.WithFed(c.Fed),
		graph.WithPolicyNodes(graph.PolicyNodes()...),
	)
}

// Section is a titled group of indicator cards
type Section struct {
	SubCategory string             `json:"subCategory"`
	Indicators  []models.Indicator `json:"indicators"`
}

// GroupBySubCategory groups indicators by sub-category, keeping the order in which
// each sub-category first appears
func GroupBySubCategory(inds []models.Indicator) []Section {
	index := make(map[string]int)
	var out []Section
	for _, ind := range inds {
		i, ok := index[ind.SubCategory]
		if !ok {
			i = len(out)
			index[ind.SubCategory] = i
			out = append(out, Section{SubCategory: ind.SubCategory})
		}
		out[i].Indicators = append(out[i].Indicators, ind)
	}
	return out
}
