package models

import (
	"fmt"
	"strings"
	"time"
)

// StageSummary is the result of one stage run. Processed and Errored always
// sum to the number of items the run attempted; items that vanished between
// listing and processing are counted in neither.
type StageSummary struct {
	Stage       string
	Processed   int
	Errored     int
	FailedItems []string
	Message     string // set instead of counts for empty listings
}

// String renders the human-readable summary that is the stage's sole contract
// with its caller.
func (s *StageSummary) String() string {
	if s.Message != "" {
		return s.Message
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s process completed.\n", s.Stage)
	fmt.Fprintf(&b, "Successfully processed: %d\n", s.Processed)
	fmt.Fprintf(&b, "Errors: %d\n", s.Errored)
	if len(s.FailedItems) > 0 {
		fmt.Fprintf(&b, "Error invoices moved to error folder: %s", strings.Join(s.FailedItems, ", "))
	}
	return b.String()
}

// StageRun is the ledger record persisted after each stage run.
type StageRun struct {
	Stage       string    `firestore:"stage"`
	Location    string    `firestore:"location"`
	Processed   int       `firestore:"processed"`
	Errored     int       `firestore:"errored"`
	FailedItems []string  `firestore:"failedItems,omitempty"`
	ReportPath  string    `firestore:"reportPath,omitempty"`
	CreatedAt   time.Time `firestore:"createdAt"`
}

// StageRequest is the JSON payload each stage function accepts.
type StageRequest struct {
	Location string `json:"location"`
}

// StageResponse carries the stage summary back to the caller.
type StageResponse struct {
	Status  string `json:"status"`
	Summary string `json:"summary"`
}
