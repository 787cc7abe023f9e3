package models

// Verdict statuses. StatusParseError is applied when the judge response
// carried no overall_status at all.
const (
	StatusPass       = "Pass"
	StatusMismatch   = "Mismatch"
	StatusError      = "Error"
	StatusParseError = "Parse Error"
)

// Mismatch is one deal-breaker field the judge found differing.
type Mismatch struct {
	Field    string `json:"field"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// Verdict is the JSON object the judge model must return.
type Verdict struct {
	OverallStatus string     `json:"overall_status"`
	Mismatches    []Mismatch `json:"mismatches"`
}

// EvaluationResult is a normalized per-invoice outcome. Invariants: Mismatches
// is populated only for StatusMismatch; ErrorDetail only for StatusError and
// StatusParseError.
type EvaluationResult struct {
	Invoice     string
	Status      string
	Mismatches  []Mismatch
	ErrorDetail string
}
