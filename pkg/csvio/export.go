// Package csvio moves metric records in and out of the system as CSV. The
// exporter writes human-readable headers; the importer normalizes headers
// back to the canonical field keys, so exported files round-trip through
// import unchanged.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/verdantlabs/esgtrack/pkg/esg"
)

// exportHeader is the fixed column order of an export.
var exportHeader = []string{
	"ID", "Category", "Metric", "Value", "Unit", "Period",
	"Source", "Reported By", "Date Reported", "Verified", "Notes",
}

// Export serializes the full metric collection as CSV. No filtering happens
// at this layer.
func Export(w io.Writer, metrics []esg.Metric) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for _, m := range metrics {
		row := []string{
			m.ID,
			string(m.Category),
			m.Name,
			strconv.FormatFloat(m.Value, 'f', -1, 64),
			m.Unit,
			m.Period,
			m.Source,
			m.ReportedBy,
			m.DateReported,
			strconv.FormatBool(m.Verified),
			m.Notes,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
