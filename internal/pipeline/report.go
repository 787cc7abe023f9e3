package pipeline

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/Lllllllleong/invoicedocumentflow/internal/models"
)

// ReportHeader is the fixed header row of the evaluation report.
var ReportHeader = []string{"Invoice", "Overall Status", "Field", "Expected", "Actual"}

// BuildReportRows flattens verdicts into report rows: one row per mismatch
// entry, or a single placeholder row for Pass and Error verdicts. Error
// verdicts carry their detail in the Actual column.
func BuildReportRows(results []models.EvaluationResult) [][]string {
	var rows [][]string
	for _, res := range results {
		if res.Status == models.StatusMismatch && len(res.Mismatches) > 0 {
			for _, m := range res.Mismatches {
				rows = append(rows, []string{res.Invoice, res.Status, orNA(m.Field), orNA(m.Expected), orNA(m.Actual)})
			}
			continue
		}

		actual := "-"
		if res.Status == models.StatusError {
			actual = res.ErrorDetail
		}
		rows = append(rows, []string{res.Invoice, res.Status, "-", "-", actual})
	}
	return rows
}

// EncodeReport renders header plus rows as a CSV document.
func EncodeReport(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(ReportHeader); err != nil {
		return nil, fmt.Errorf("failed to encode report header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to encode report row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush report: %w", err)
	}
	return buf.Bytes(), nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
