package dashboard

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/verdantlabs/esgtrack/pkg/esg"
)

func metric(c esg.Category) esg.Metric {
	return esg.Metric{ID: "x", Category: c, Name: "m", Value: 1}
}

func TestSnapshot_SummaryCountsRecords(t *testing.T) {
	metrics := []esg.Metric{
		metric(esg.CategoryEnvironmental),
		metric(esg.CategoryEnvironmental),
		metric(esg.CategorySocial),
		metric(esg.CategoryGovernance),
		metric(esg.CategoryGovernance),
		metric(esg.CategoryGovernance),
	}

	data := Snapshot(metrics)
	require.Equal(t, 2, data.Summary.Environmental)
	require.Equal(t, 1, data.Summary.Social)
	require.Equal(t, 3, data.Summary.Governance)
	require.Len(t, data.Metrics, 6)
}

func TestSnapshot_EmptyCollection(t *testing.T) {
	data := Snapshot(nil)
	require.Equal(t, Summary{}, data.Summary)
	require.NotEmpty(t, data.Trends, "trend seed series is always present")
}

func TestSnapshot_RecomputedFresh(t *testing.T) {
	metrics := []esg.Metric{metric(esg.CategorySocial)}
	require.Equal(t, 1, Snapshot(metrics).Summary.Social)

	metrics = append(metrics, metric(esg.CategorySocial))
	require.Equal(t, 2, Snapshot(metrics).Summary.Social, "no caching between calls")
}

func TestSnapshot_TrendsAreOrderedAndCopied(t *testing.T) {
	first := Snapshot(nil)
	require.Equal(t, "2024-Q1", first.Trends[0].Period)

	first.Trends[0].Environmental = 999
	require.NotEqual(t, 999, Snapshot(nil).Trends[0].Environmental)
}
