package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Lllllllleong/invoicedocumentflow/internal/models"
	"github.com/Lllllllleong/invoicedocumentflow/internal/prompts"
	"github.com/Lllllllleong/invoicedocumentflow/internal/store"
)

// DealBreakerFields are the load-bearing dotted paths the judge compares.
// Evaluation never looks at the rest of the schema.
var DealBreakerFields = []string{
	"invoice.client_name",
	"invoice.seller_name",
	"invoice.invoice_number",
	"invoice.invoice_date",
	"subtotal.total",
}

// Evaluator compares extracted records against ground truth and writes the
// evaluation report.
type Evaluator struct {
	Store  store.ObjectStore
	Oracle Oracle
	Logger *slog.Logger
	Now    func() time.Time
}

func NewEvaluator(st store.ObjectStore, oracle Oracle, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{Store: st, Oracle: oracle, Logger: logger, Now: time.Now}
}

// EvaluationOutcome is the result of one evaluation run.
type EvaluationOutcome struct {
	Results    []models.EvaluationResult
	ReportPath string // object name of the written report, empty when nothing ran
	Message    string
}

// EvaluateExtractions iterates every ground-truth record in listing order,
// obtains a verdict for each, and persists a timestamped report. Per-record
// failures become Error verdicts; only listing and report persistence can fail
// the run.
func (e *Evaluator) EvaluateExtractions(ctx context.Context, loc store.Location) (*EvaluationOutcome, error) {
	logCtx := e.Logger.With("stage", "evaluation", "location", loc.String())

	extracted, err := e.Store.List(ctx, loc.Bucket, loc.Prefix+OutputFolder)
	if err != nil {
		return nil, fmt.Errorf("failed to list extracted records: %w", err)
	}
	if len(extracted) == 0 {
		return &EvaluationOutcome{Message: "No extracted data found."}, nil
	}

	outputs := make(map[string]string, len(extracted))
	for _, name := range extracted {
		outputs[store.StripExt(store.BaseName(name))] = name
	}

	groundTruth, err := e.Store.List(ctx, loc.Bucket, loc.Prefix+GroundTruthFolder)
	if err != nil {
		return nil, fmt.Errorf("failed to list ground truth records: %w", err)
	}

	var results []models.EvaluationResult
	for _, gtName := range groundTruth {
		res := e.evaluateOne(ctx, logCtx, loc, gtName, outputs)
		results = append(results, res)
		logCtx.Info("Evaluation complete for invoice.", "invoice", res.Invoice, "status", res.Status)
	}

	reportPath, err := e.writeReport(ctx, loc, results)
	if err != nil {
		return nil, err
	}

	return &EvaluationOutcome{
		Results:    results,
		ReportPath: reportPath,
		Message:    fmt.Sprintf("Pipeline finished. Report is available at: gs://%s/%s", loc.Bucket, reportPath),
	}, nil
}

func (e *Evaluator) evaluateOne(ctx context.Context, logCtx *slog.Logger, loc store.Location, gtName string, outputs map[string]string) models.EvaluationResult {
	base := store.StripExt(store.BaseName(gtName))

	outName, ok := outputs[base]
	if !ok {
		return models.EvaluationResult{Invoice: base, Status: models.StatusError, ErrorDetail: "Gemini Output Not Found"}
	}

	gtRaw, err := e.Store.Read(ctx, loc.Bucket, gtName)
	if err != nil {
		return errorResult(base, err)
	}
	outRaw, err := e.Store.Read(ctx, loc.Bucket, outName)
	if err != nil {
		return errorResult(base, err)
	}

	// Both bodies must parse before being handed to the judge; a malformed
	// record is this invoice's error, not the judge's.
	var probe map[string]any
	if err := json.Unmarshal(gtRaw, &probe); err != nil {
		return errorResult(base, fmt.Errorf("invalid ground truth JSON: %w", err))
	}
	if err := json.Unmarshal(outRaw, &probe); err != nil {
		return errorResult(base, fmt.Errorf("invalid extracted JSON: %w", err))
	}

	prompt := prompts.BuildComparisonPrompt(base, gtRaw, outRaw, DealBreakerFields)
	resp, err := e.Oracle.CompareRecords(ctx, prompt)
	if err != nil {
		return errorResult(base, err)
	}

	var verdict models.Verdict
	if err := json.Unmarshal([]byte(stripFences(resp)), &verdict); err != nil {
		logCtx.Error("Failed to parse judge verdict.", "invoice", base, "error", err)
		return errorResult(base, err)
	}

	status := verdict.OverallStatus
	if status == "" {
		status = models.StatusParseError
	}
	res := models.EvaluationResult{Invoice: base, Status: status}
	if status == models.StatusMismatch {
		res.Mismatches = verdict.Mismatches
	}
	return res
}

func errorResult(invoice string, err error) models.EvaluationResult {
	return models.EvaluationResult{Invoice: invoice, Status: models.StatusError, ErrorDetail: err.Error()}
}

// writeReport serializes the verdicts and persists them under reports/ with a
// second-resolution timestamp key.
func (e *Evaluator) writeReport(ctx context.Context, loc store.Location, results []models.EvaluationResult) (string, error) {
	body, err := EncodeReport(BuildReportRows(results))
	if err != nil {
		return "", err
	}

	timestamp := e.Now().Format("20060102_150405")
	name := fmt.Sprintf("%s%sevaluation_report_%s.csv", loc.Prefix, ReportsFolder, timestamp)
	if err := e.Store.Write(ctx, loc.Bucket, name, body, "text/csv"); err != nil {
		return "", fmt.Errorf("failed to persist evaluation report: %w", err)
	}
	return name, nil
}
