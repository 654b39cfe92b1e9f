package csvio

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/verdantlabs/esgtrack/pkg/esg"
	"github.com/verdantlabs/esgtrack/pkg/store"
)

const importHeader = "category,metric,value,unit,period,source,reportedBy,dateReported,verified,notes"

func validRow(name string) string {
	return "environmental," + name + ",100,tonnes,2024,Sensor,Alice,2024-01-01T00:00:00Z,true,ok"
}

func TestImport_AllRowsValid(t *testing.T) {
	s := store.New()
	input := strings.Join([]string{importHeader, validRow("CO2"), validRow("Water Usage")}, "\n")

	res, err := Import(strings.NewReader(input), s)
	require.NoError(t, err)
	require.Len(t, res.Metrics, 2)
	require.Empty(t, res.Skipped)

	require.Equal(t, "CO2", res.Metrics[0].Name)
	require.Equal(t, 100.0, res.Metrics[0].Value)
	require.True(t, res.Metrics[0].Verified)
	require.NotEmpty(t, res.Metrics[0].ID)
	require.NotEqual(t, res.Metrics[0].ID, res.Metrics[1].ID)
	require.Len(t, s.ListAll(), 2)
}

func TestImport_PartialFailureDoesNotAbortBatch(t *testing.T) {
	s := store.New()
	rows := []string{
		importHeader,
		validRow("CO2"),
		"environmental,Bad Value,-5,t,2024,S,R,2024-01-01T00:00:00Z,true,", // negative value
		validRow("Water Usage"),
		"environmental,Bad Period,5,t,Q1-2024,S,R,2024-01-01T00:00:00Z,false,", // malformed period
		"environmental,Not A Number,abc,t,2024,S,R,2024-01-01T00:00:00Z,false,",
	}

	res, err := Import(strings.NewReader(strings.Join(rows, "\n")), s)
	require.NoError(t, err)
	require.Len(t, res.Metrics, 2)
	require.Len(t, res.Skipped, 3)

	// Line numbers count the header as line 1.
	require.Equal(t, 3, res.Skipped[0].Line)
	require.Contains(t, res.Skipped[0].Error, "value")
	require.Equal(t, 5, res.Skipped[1].Line)
	require.Contains(t, res.Skipped[1].Error, "period")
	require.Equal(t, 6, res.Skipped[2].Line)
	require.Len(t, s.ListAll(), 2)
}

func TestImport_NegativeValueExampleRejectsWholeRow(t *testing.T) {
	s := store.New()
	input := importHeader + "\n" +
		`environmental,CO2,-5,t,2024,S,R,2024-01-01T00:00:00.000Z,true,`

	res, err := Import(strings.NewReader(input), s)
	require.NoError(t, err)
	require.Empty(t, res.Metrics)
	require.Len(t, res.Skipped, 1)
	require.Empty(t, s.ListAll())
}

func TestImport_VerifiedCoercion(t *testing.T) {
	s := store.New()
	rows := []string{
		importHeader,
		"social,A,1,h,2024,S,R,2024-01-01T00:00:00Z,true,",
		"social,B,1,h,2024,S,R,2024-01-01T00:00:00Z,TRUE,",
		"social,C,1,h,2024,S,R,2024-01-01T00:00:00Z,yes,",
		"social,D,1,h,2024,S,R,2024-01-01T00:00:00Z,,",
	}

	res, err := Import(strings.NewReader(strings.Join(rows, "\n")), s)
	require.NoError(t, err)
	require.Len(t, res.Metrics, 4)

	// Only the literal string "true" means verified.
	require.True(t, res.Metrics[0].Verified)
	require.False(t, res.Metrics[1].Verified)
	require.False(t, res.Metrics[2].Verified)
	require.False(t, res.Metrics[3].Verified)
}

func TestImport_MissingNotesDefaultsToEmpty(t *testing.T) {
	s := store.New()
	input := "category,metric,value,unit,period,source,reportedBy,dateReported,verified\n" +
		"governance,Board Size,9,members,2024,Registry,R,2024-01-01T00:00:00Z,true"

	res, err := Import(strings.NewReader(input), s)
	require.NoError(t, err)
	require.Len(t, res.Metrics, 1)
	require.Equal(t, "", res.Metrics[0].Notes)
}

func TestImport_EmptyInputs(t *testing.T) {
	s := store.New()

	res, err := Import(strings.NewReader(""), s)
	require.NoError(t, err)
	require.Empty(t, res.Metrics)
	require.Empty(t, res.Skipped)

	res, err = Import(strings.NewReader(importHeader+"\n"), s)
	require.NoError(t, err)
	require.Empty(t, res.Metrics)
	require.Empty(t, res.Skipped)
}

func TestImport_StructuralFailureIsFatal(t *testing.T) {
	s := store.New()
	input := importHeader + "\n" + `environmental,"unterminated,1,t,2024,S,R,2024-01-01T00:00:00Z,true,`

	_, err := Import(strings.NewReader(input), s)
	require.Error(t, err)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
}

func TestImport_NormalizesExportHeaders(t *testing.T) {
	s := store.New()
	input := "ID,Category,Metric,Value,Unit,Period,Source,Reported By,Date Reported,Verified,Notes\n" +
		"old-id,environmental,CO2,12.5,t,2024-Q2,Sensor,Alice,2024-04-01T00:00:00Z,true,note"

	res, err := Import(strings.NewReader(input), s)
	require.NoError(t, err)
	require.Len(t, res.Metrics, 1)

	m := res.Metrics[0]
	require.NotEqual(t, "old-id", m.ID, "ids are always re-assigned")
	require.Equal(t, "Alice", m.ReportedBy)
	require.Equal(t, "2024-04-01T00:00:00Z", m.DateReported)
}

func TestExport_HeaderAndRows(t *testing.T) {
	metrics := []esg.Metric{
		{
			ID: "id-1", Category: esg.CategoryEnvironmental, Name: "CO2", Value: 12.5,
			Unit: "t", Period: "2024-Q2", Source: "Sensor", ReportedBy: "Alice",
			DateReported: "2024-04-01T00:00:00Z", Verified: true, Notes: "has, comma",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, metrics))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, []string{
		"ID", "Category", "Metric", "Value", "Unit", "Period",
		"Source", "Reported By", "Date Reported", "Verified", "Notes",
	}, records[0])
	require.Equal(t, []string{
		"id-1", "environmental", "CO2", "12.5", "t", "2024-Q2",
		"Sensor", "Alice", "2024-04-01T00:00:00Z", "true", "has, comma",
	}, records[1])
}

func TestExport_EmptyCollectionWritesHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, nil))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestRoundTrip_ExportThenImport(t *testing.T) {
	src := store.New()
	src.LoadSampleData()
	original := src.ListAll()

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, original))

	dst := store.New()
	res, err := Import(&buf, dst)
	require.NoError(t, err)
	require.Empty(t, res.Skipped)
	require.Len(t, res.Metrics, len(original))

	for i, got := range res.Metrics {
		want := original[i]
		require.NotEqual(t, want.ID, got.ID, "ids are re-assigned on import")
		got.ID, want.ID = "", ""
		require.Equal(t, want, got)
	}
}
