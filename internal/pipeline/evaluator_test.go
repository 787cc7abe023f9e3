package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/Lllllllleong/invoicedocumentflow/internal/models"
	"github.com/Lllllllleong/invoicedocumentflow/internal/store"
)

var fixedTime = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

func newTestEvaluator(st store.ObjectStore, oracle Oracle) *Evaluator {
	e := NewEvaluator(st, oracle, nil)
	e.Now = func() time.Time { return fixedTime }
	return e
}

func readReport(t *testing.T, st store.ObjectStore, loc store.Location, path string) [][]string {
	t.Helper()
	body, err := st.Read(context.Background(), loc.Bucket, path)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	rows, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	if err != nil {
		t.Fatalf("report is not valid CSV: %v", err)
	}
	return rows
}

func TestEvaluateExtractionsNoOutput(t *testing.T) {
	e := newTestEvaluator(store.NewMemStore(), &fakeOracle{})
	out, err := e.EvaluateExtractions(context.Background(), testLoc())
	if err != nil {
		t.Fatal(err)
	}
	if out.Message != "No extracted data found." {
		t.Errorf("Message = %q", out.Message)
	}
	if out.ReportPath != "" {
		t.Errorf("unexpected report at %q", out.ReportPath)
	}
}

func TestEvaluateExtractionsMismatch(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	loc := testLoc()

	gt := `{"invoice": {"client_name": "ACME Corp", "invoice_number": "INV-1"}, "subtotal": {"total": "$100.00"}}`
	extracted := `{"invoice": {"client_name": "acme corp ", "invoice_number": "INV-2"}, "subtotal": {"total": "$100.00"}}`
	_ = st.Write(ctx, loc.Bucket, loc.Prefix+GroundTruthFolder+"doc1.json", []byte(gt), "")
	_ = st.Write(ctx, loc.Bucket, loc.Prefix+OutputFolder+"doc1.json", []byte(extracted), "")

	// Case differences pass; the invoice number difference is a mismatch.
	verdict := "```json\n" + `{"overall_status": "Mismatch", "mismatches": [{"field": "invoice.invoice_number", "expected": "INV-1", "actual": "INV-2"}]}` + "\n```"
	oracle := &fakeOracle{compare: func(string) (string, error) { return verdict, nil }}

	e := newTestEvaluator(st, oracle)
	out, err := e.EvaluateExtractions(ctx, loc)
	if err != nil {
		t.Fatal(err)
	}

	if len(out.Results) != 1 {
		t.Fatalf("Results = %d, want 1", len(out.Results))
	}
	res := out.Results[0]
	if res.Status != models.StatusMismatch || len(res.Mismatches) != 1 {
		t.Fatalf("result = %+v", res)
	}

	// The judge prompt embeds both bodies and only deal-breaker fields.
	for _, want := range []string{gt, extracted, "- invoice.client_name", "- subtotal.total"} {
		if !strings.Contains(oracle.lastPrompt, want) {
			t.Errorf("judge prompt missing %q", want)
		}
	}

	wantPath := loc.Prefix + ReportsFolder + "evaluation_report_20260314_150926.csv"
	if out.ReportPath != wantPath {
		t.Errorf("ReportPath = %q, want %q", out.ReportPath, wantPath)
	}
	if want := "Pipeline finished. Report is available at: gs://b/" + wantPath; out.Message != want {
		t.Errorf("Message = %q, want %q", out.Message, want)
	}

	rows := readReport(t, st, loc, out.ReportPath)
	if len(rows) != 2 {
		t.Fatalf("report rows = %v", rows)
	}
	want := []string{"doc1", "Mismatch", "invoice.invoice_number", "INV-1", "INV-2"}
	for i, cell := range want {
		if rows[1][i] != cell {
			t.Errorf("row[%d] = %q, want %q", i, rows[1][i], cell)
		}
	}
}

func TestEvaluateExtractionsMissingOutput(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	loc := testLoc()

	_ = st.Write(ctx, loc.Bucket, loc.Prefix+OutputFolder+"doc1.json", []byte(`{}`), "")
	_ = st.Write(ctx, loc.Bucket, loc.Prefix+GroundTruthFolder+"doc1.json", []byte(`{}`), "")
	_ = st.Write(ctx, loc.Bucket, loc.Prefix+GroundTruthFolder+"doc2.json", []byte(`{}`), "")

	oracle := &fakeOracle{compare: func(string) (string, error) {
		return `{"overall_status": "Pass", "mismatches": []}`, nil
	}}

	out, err := newTestEvaluator(st, oracle).EvaluateExtractions(ctx, loc)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Results) != 2 {
		t.Fatalf("Results = %d, want 2", len(out.Results))
	}

	var missing *models.EvaluationResult
	for i := range out.Results {
		if out.Results[i].Invoice == "doc2" {
			missing = &out.Results[i]
		}
	}
	if missing == nil || missing.Status != models.StatusError || missing.ErrorDetail != "Gemini Output Not Found" {
		t.Fatalf("doc2 result = %+v", missing)
	}

	rows := readReport(t, st, loc, out.ReportPath)
	for _, row := range rows[1:] {
		if row[0] != "doc2" {
			continue
		}
		want := []string{"doc2", "Error", "-", "-", "Gemini Output Not Found"}
		for i, cell := range want {
			if row[i] != cell {
				t.Errorf("doc2 row[%d] = %q, want %q", i, row[i], cell)
			}
		}
	}
}

func TestEvaluateExtractionsDegradedVerdicts(t *testing.T) {
	tests := []struct {
		name       string
		verdict    string
		wantStatus string
	}{
		{"unparseable verdict", "the invoices look fine to me", models.StatusError},
		{"missing overall_status", `{"mismatches": []}`, models.StatusParseError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			st := store.NewMemStore()
			loc := testLoc()
			_ = st.Write(ctx, loc.Bucket, loc.Prefix+OutputFolder+"doc1.json", []byte(`{}`), "")
			_ = st.Write(ctx, loc.Bucket, loc.Prefix+GroundTruthFolder+"doc1.json", []byte(`{}`), "")

			oracle := &fakeOracle{compare: func(string) (string, error) { return tt.verdict, nil }}
			out, err := newTestEvaluator(st, oracle).EvaluateExtractions(ctx, loc)
			if err != nil {
				t.Fatalf("degraded verdict must not fail the batch: %v", err)
			}
			if out.Results[0].Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", out.Results[0].Status, tt.wantStatus)
			}
		})
	}
}

func TestEvaluateExtractionsBadGroundTruth(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	loc := testLoc()
	_ = st.Write(ctx, loc.Bucket, loc.Prefix+OutputFolder+"doc1.json", []byte(`{}`), "")
	_ = st.Write(ctx, loc.Bucket, loc.Prefix+GroundTruthFolder+"doc1.json", []byte(`{not json`), "")

	oracle := &fakeOracle{compare: func(string) (string, error) {
		t.Fatal("judge must not be called for unparseable records")
		return "", nil
	}}

	out, err := newTestEvaluator(st, oracle).EvaluateExtractions(ctx, loc)
	if err != nil {
		t.Fatal(err)
	}
	res := out.Results[0]
	if res.Status != models.StatusError || !strings.Contains(res.ErrorDetail, "ground truth") {
		t.Errorf("result = %+v", res)
	}
}

// Extracted records without a ground-truth counterpart never reach the report.
func TestEvaluateExtractionsExtraOutputsIgnored(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	loc := testLoc()
	_ = st.Write(ctx, loc.Bucket, loc.Prefix+OutputFolder+"orphan.json", []byte(`{}`), "")

	out, err := newTestEvaluator(st, &fakeOracle{}).EvaluateExtractions(ctx, loc)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Results) != 0 {
		t.Errorf("orphan extraction produced results: %+v", out.Results)
	}
	rows := readReport(t, st, loc, out.ReportPath)
	if len(rows) != 1 { // header only
		t.Errorf("report rows = %v", rows)
	}
}
