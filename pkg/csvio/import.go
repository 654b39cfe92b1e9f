package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/verdantlabs/esgtrack/pkg/esg"
)

// Creator commits one validated metric. Satisfied by *store.Store.
type Creator interface {
	Create(esg.MetricInput) esg.Metric
}

// RowError records one skipped row. Line is the 1-based record number in the
// file, counting the header as line 1.
type RowError struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

// ParseError marks a structurally unreadable stream. It is fatal for the
// whole import, unlike row-level failures.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse CSV stream: %v", e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// Result reports what an import accomplished.
type Result struct {
	Metrics []esg.Metric
	Skipped []RowError
}

// fieldKeys maps normalized header names to canonical field keys. The
// normalization (lowercase, spaces removed) is the reconciliation seam
// between export's "Reported By" style headers and the importer's
// reportedBy style keys. An id column is recognized so exported files
// re-import cleanly, but its value is ignored: ids are always re-assigned.
var fieldKeys = map[string]string{
	"id":           "id",
	"category":     "category",
	"metric":       "metric",
	"value":        "value",
	"unit":         "unit",
	"period":       "period",
	"source":       "source",
	"reportedby":   "reportedBy",
	"datereported": "dateReported",
	"verified":     "verified",
	"notes":        "notes",
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ReplaceAll(h, " ", "")
	return strings.ToLower(strings.TrimSpace(h))
}

// Import parses a CSV stream and commits each valid row through create.
// Row-level coercion or validation failures are collected and skipped; they
// never abort the rest of the batch. A structural stream failure returns a
// *ParseError and aborts. A header-only (or empty) stream is a valid,
// empty import.
func Import(r io.Reader, create Creator) (Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return Result{Metrics: []esg.Metric{}}, nil
	}
	if err != nil {
		return Result{}, &ParseError{Err: err}
	}

	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = fieldKeys[normalizeHeader(h)]
	}

	res := Result{Metrics: []esg.Metric{}}
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Result{}, &ParseError{Err: err}
		}
		line++

		fields := make(map[string]string, len(keys))
		for i, cell := range record {
			if i < len(keys) && keys[i] != "" {
				fields[keys[i]] = cell
			}
		}

		in, err := rowToInput(fields)
		if err != nil {
			res.Skipped = append(res.Skipped, RowError{Line: line, Error: err.Error()})
			continue
		}
		if errs := esg.ValidateInput(in); len(errs) > 0 {
			msgs := make([]string, len(errs))
			for i, fe := range errs {
				msgs[i] = fe.Error()
			}
			res.Skipped = append(res.Skipped, RowError{Line: line, Error: strings.Join(msgs, "; ")})
			continue
		}

		res.Metrics = append(res.Metrics, create.Create(in))
	}

	return res, nil
}

// rowToInput converts one row of string fields into a typed creation
// payload. Untyped maps stop here; everything deeper in the system sees
// only MetricInput.
func rowToInput(fields map[string]string) (esg.MetricInput, error) {
	in := esg.MetricInput{
		Category:     fields["category"],
		Name:         fields["metric"],
		Unit:         fields["unit"],
		Period:       fields["period"],
		Source:       fields["source"],
		ReportedBy:   fields["reportedBy"],
		DateReported: fields["dateReported"],
		Verified:     fields["verified"] == "true",
		Notes:        fields["notes"], // absent defaults to ""
	}

	raw, ok := fields["value"]
	if !ok || raw == "" {
		return esg.MetricInput{}, fmt.Errorf("value is required")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return esg.MetricInput{}, fmt.Errorf("value %q is not a number", raw)
	}
	in.Value = &v

	return in, nil
}
