// Package pipeline implements the per-document stage state machine and the
// evaluation/report engine. All remote collaborators are narrow interfaces so
// the stage semantics are testable without cloud clients.
package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"unicode"

	"github.com/Lllllllleong/invoicedocumentflow/internal/models"
	"github.com/Lllllllleong/invoicedocumentflow/internal/normalize"
)

// Fixed sub-locations under a pipeline root prefix.
const (
	InputFolder       = "input_invoices/"
	SortedFolder      = "sorted_invoices/"
	ErrorFolder       = "error_invoices/"
	OutputFolder      = "gemini_output/"
	GroundTruthFolder = "ground_truth/"
	ReportsFolder     = "reports/"
)

// BootstrapFolders are the markers created when a fresh root prefix is set up.
var BootstrapFolders = []string{
	InputFolder,
	SortedFolder,
	ErrorFolder,
	OutputFolder,
	GroundTruthFolder,
	ReportsFolder,
}

// UnknownVendor is the routing bucket for documents whose seller the oracle
// could not name.
const UnknownVendor = "Unknown_Vendor"

// Oracle is the generative model the pipeline consults for classification,
// extraction and comparison judgments.
type Oracle interface {
	IdentifySeller(ctx context.Context, doc normalize.Payload) (string, error)
	ExtractInvoice(ctx context.Context, doc normalize.Payload) (string, error)
	CompareRecords(ctx context.Context, prompt string) (string, error)
}

// RunRecorder persists stage-run summaries to a ledger. Recording is
// best-effort; failures never affect the stage outcome.
type RunRecorder interface {
	RecordRun(ctx context.Context, run models.StageRun) error
}

// OracleResponseError reports oracle output missing the expected structure.
type OracleResponseError struct {
	Reason string
}

func (e *OracleResponseError) Error() string {
	return "oracle response error: " + e.Reason
}

// stripFences removes a Markdown code-fence wrapper from model output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// extractJSONObject pulls a JSON object out of free-form model text. The full
// response is tried first; otherwise the span from the first '{' to the last
// '}' is taken. Either way the result must actually parse.
func extractJSONObject(s string) (string, error) {
	t := stripFences(s)
	if strings.HasPrefix(t, "{") && json.Valid([]byte(t)) {
		return t, nil
	}

	i := strings.Index(t, "{")
	j := strings.LastIndex(t, "}")
	if i < 0 || j < i {
		return "", &OracleResponseError{Reason: "no JSON found in extraction response"}
	}
	span := t[i : j+1]
	if !json.Valid([]byte(span)) {
		return "", &OracleResponseError{Reason: "extraction response contains malformed JSON"}
	}
	return span, nil
}

// sanitizeVendor turns an oracle seller response into a safe folder name.
// Whitespace and path separators become underscores so a vendor name can never
// introduce an unintended sub-hierarchy.
func sanitizeVendor(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return UnknownVendor
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, s)
}
