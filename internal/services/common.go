// Package services wires the pipeline core to its cloud collaborators and
// exposes one Process entry point per stage. Every stage returns a summary
// response even under partial failure; only configuration and catastrophic
// store errors surface as errors.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Lllllllleong/invoicedocumentflow/internal/gcp"
	"github.com/Lllllllleong/invoicedocumentflow/internal/models"
	"github.com/Lllllllleong/invoicedocumentflow/internal/pipeline"
	"github.com/Lllllllleong/invoicedocumentflow/internal/store"
)

// StageConfig holds the configuration shared by the oracle-backed stages.
type StageConfig struct {
	ProjectID      string
	VertexAIRegion string
	RunsCollection string
}

func loadStageConfig() (*StageConfig, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	return &StageConfig{
		ProjectID:      projectID,
		VertexAIRegion: gcp.GetEnv("VERTEX_AI_REGION", "us-central1"),
		RunsCollection: gcp.GetEnv("PIPELINE_RUNS_COLLECTION", ""),
	}, nil
}

// newRecorder builds the optional Firestore run ledger. An empty collection
// name disables it.
func newRecorder(ctx context.Context, projectID, collection string) (pipeline.RunRecorder, error) {
	if collection == "" {
		return nil, nil
	}
	client, err := gcp.NewFirestoreClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return gcp.NewFirestoreRecorder(client, collection), nil
}

// invalidLocationMessage is the user-facing validation response for malformed
// location strings. It is a summary, not an error: the caller always gets
// actionable text.
const invalidLocationMessage = "Invalid GCS location format. Please use gs://<bucket_name>/<prefix>."

func invalidLocationResponse() *models.StageResponse {
	return &models.StageResponse{Status: "invalid_request", Summary: invalidLocationMessage}
}

// recordRun appends a stage-run record to the ledger. Best-effort: a ledger
// failure is logged and the stage outcome stands.
func recordRun(ctx context.Context, logger *slog.Logger, recorder pipeline.RunRecorder, stage string, loc store.Location, summary *models.StageSummary, reportPath string) {
	if recorder == nil {
		return
	}
	run := models.StageRun{
		Stage:      stage,
		Location:   loc.String(),
		ReportPath: reportPath,
		CreatedAt:  time.Now(),
	}
	if summary != nil {
		run.Processed = summary.Processed
		run.Errored = summary.Errored
		run.FailedItems = summary.FailedItems
	}
	if err := recorder.RecordRun(ctx, run); err != nil {
		logger.Error("Failed to record stage run.", "stage", stage, "error", err)
	}
}
