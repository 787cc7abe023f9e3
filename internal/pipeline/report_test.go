package pipeline

import (
	"reflect"
	"strings"
	"testing"

	"github.com/Lllllllleong/invoicedocumentflow/internal/models"
)

func TestBuildReportRows(t *testing.T) {
	tests := []struct {
		name    string
		results []models.EvaluationResult
		want    [][]string
	}{
		{
			"one mismatch entry",
			[]models.EvaluationResult{{
				Invoice: "doc1",
				Status:  models.StatusMismatch,
				Mismatches: []models.Mismatch{
					{Field: "invoice.invoice_number", Expected: "INV-1", Actual: "INV-2"},
				},
			}},
			[][]string{{"doc1", "Mismatch", "invoice.invoice_number", "INV-1", "INV-2"}},
		},
		{
			"multiple mismatch entries fan out",
			[]models.EvaluationResult{{
				Invoice: "doc1",
				Status:  models.StatusMismatch,
				Mismatches: []models.Mismatch{
					{Field: "invoice.client_name", Expected: "ACME", Actual: "Initech"},
					{Field: "subtotal.total", Expected: "$100.00", Actual: "100.00"},
				},
			}},
			[][]string{
				{"doc1", "Mismatch", "invoice.client_name", "ACME", "Initech"},
				{"doc1", "Mismatch", "subtotal.total", "$100.00", "100.00"},
			},
		},
		{
			"pass gets placeholders",
			[]models.EvaluationResult{{Invoice: "doc2", Status: models.StatusPass}},
			[][]string{{"doc2", "Pass", "-", "-", "-"}},
		},
		{
			"error carries detail in Actual",
			[]models.EvaluationResult{{Invoice: "doc3", Status: models.StatusError, ErrorDetail: "Gemini Output Not Found"}},
			[][]string{{"doc3", "Error", "-", "-", "Gemini Output Not Found"}},
		},
		{
			"parse error gets plain placeholders",
			[]models.EvaluationResult{{Invoice: "doc4", Status: models.StatusParseError}},
			[][]string{{"doc4", "Parse Error", "-", "-", "-"}},
		},
		{
			"mismatch without entries degrades to placeholder row",
			[]models.EvaluationResult{{Invoice: "doc5", Status: models.StatusMismatch}},
			[][]string{{"doc5", "Mismatch", "-", "-", "-"}},
		},
		{
			"partially filled mismatch entry",
			[]models.EvaluationResult{{
				Invoice:    "doc6",
				Status:     models.StatusMismatch,
				Mismatches: []models.Mismatch{{Field: "invoice.invoice_date"}},
			}},
			[][]string{{"doc6", "Mismatch", "invoice.invoice_date", "N/A", "N/A"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildReportRows(tt.results)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("BuildReportRows = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEncodeReport(t *testing.T) {
	body, err := EncodeReport([][]string{{"doc1", "Pass", "-", "-", "-"}})
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	if len(lines) != 2 {
		t.Fatalf("encoded report = %q", body)
	}
	if lines[0] != "Invoice,Overall Status,Field,Expected,Actual" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "doc1,Pass,-,-,-" {
		t.Errorf("row = %q", lines[1])
	}
}
