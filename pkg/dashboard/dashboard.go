// Package dashboard derives the summary shown on the dashboard from the
// store's current metric collection.
package dashboard

import "github.com/verdantlabs/esgtrack/pkg/esg"

// Summary holds per-category record counts over the entire collection.
// Counts, not value sums: the dashboard answers "how many indicators are
// tracked", not their magnitude.
type Summary struct {
	Environmental int `json:"environmental"`
	Social        int `json:"social"`
	Governance    int `json:"governance"`
}

// TrendPoint is one time-bucketed aggregate per category.
type TrendPoint struct {
	Period        string `json:"period"`
	Environmental int    `json:"environmental"`
	Social        int    `json:"social"`
	Governance    int    `json:"governance"`
}

// Data is the full dashboard payload.
type Data struct {
	Metrics []esg.Metric `json:"metrics"`
	Summary Summary      `json:"summary"`
	Trends  []TrendPoint `json:"trends"`
}

// seedTrends is a static placeholder series, deliberately decoupled from the
// live collection. TODO: derive trends from stored metrics once product
// decides whether the chart should track live data.
var seedTrends = []TrendPoint{
	{Period: "2024-Q1", Environmental: 10, Social: 20, Governance: 5},
	{Period: "2023-Q4", Environmental: 8, Social: 18, Governance: 4},
}

// Snapshot computes the dashboard payload for the given metric collection.
// Pure function: recomputed fresh on every call, never cached.
func Snapshot(metrics []esg.Metric) Data {
	var summary Summary
	for _, m := range metrics {
		switch m.Category {
		case esg.CategoryEnvironmental:
			summary.Environmental++
		case esg.CategorySocial:
			summary.Social++
		case esg.CategoryGovernance:
			summary.Governance++
		}
	}

	trends := make([]TrendPoint, len(seedTrends))
	copy(trends, seedTrends)

	return Data{Metrics: metrics, Summary: summary, Trends: trends}
}
