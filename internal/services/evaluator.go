package services

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/storage"

	"github.com/Lllllllleong/invoicedocumentflow/internal/gcp"
	"github.com/Lllllllleong/invoicedocumentflow/internal/models"
	"github.com/Lllllllleong/invoicedocumentflow/internal/pipeline"
	"github.com/Lllllllleong/invoicedocumentflow/internal/store"
)

// EvaluatorFunction holds the dependencies for the evaluation stage.
type EvaluatorFunction struct {
	Evaluator *pipeline.Evaluator
	Recorder  pipeline.RunRecorder
	Logger    *slog.Logger
}

// NewEvaluator creates a new EvaluatorFunction instance with real cloud clients.
func NewEvaluator(ctx context.Context) (*EvaluatorFunction, error) {
	config, err := loadStageConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	vertexClient, err := gcp.NewVertexClient(ctx, config.ProjectID, config.VertexAIRegion)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex client: %w", err)
	}
	recorder, err := newRecorder(ctx, config.ProjectID, config.RunsCollection)
	if err != nil {
		return nil, err
	}

	logger := slog.Default()
	return &EvaluatorFunction{
		Evaluator: pipeline.NewEvaluator(store.NewGCSStore(storageClient), vertexClient, logger),
		Recorder:  recorder,
		Logger:    logger,
	}, nil
}

// Process evaluates every ground-truth record at the location and writes the
// timestamped report.
func (f *EvaluatorFunction) Process(ctx context.Context, req *models.StageRequest) (*models.StageResponse, error) {
	loc, err := store.ParseLocation(req.Location)
	if err != nil {
		return invalidLocationResponse(), nil
	}

	outcome, err := f.Evaluator.EvaluateExtractions(ctx, loc)
	if err != nil {
		f.Logger.Error("Evaluation stage failed.", "location", loc.String(), "error", err)
		return nil, err
	}

	summary := evaluationSummary(outcome)
	recordRun(ctx, f.Logger, f.Recorder, "evaluation", loc, summary, outcome.ReportPath)
	return &models.StageResponse{Status: "success", Summary: outcome.Message}, nil
}

// evaluationSummary condenses an evaluation outcome into ledger counts.
func evaluationSummary(outcome *pipeline.EvaluationOutcome) *models.StageSummary {
	summary := &models.StageSummary{Stage: "Evaluation"}
	for _, res := range outcome.Results {
		switch res.Status {
		case models.StatusPass, models.StatusMismatch:
			summary.Processed++
		default:
			summary.Errored++
			summary.FailedItems = append(summary.FailedItems, res.Invoice)
		}
	}
	if len(outcome.Results) == 0 {
		summary.Message = outcome.Message
	}
	return summary
}
