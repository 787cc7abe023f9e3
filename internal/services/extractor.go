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

// ExtractorFunction holds the dependencies for the extraction stage.
type ExtractorFunction struct {
	Runner   *pipeline.Runner
	Recorder pipeline.RunRecorder
	Logger   *slog.Logger
}

// NewExtractor creates a new ExtractorFunction instance with real cloud clients.
func NewExtractor(ctx context.Context) (*ExtractorFunction, error) {
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
	return &ExtractorFunction{
		Runner:   pipeline.NewRunner(store.NewGCSStore(storageClient), vertexClient, logger),
		Recorder: recorder,
		Logger:   logger,
	}, nil
}

// Process extracts a structured record for every sorted invoice at the location.
func (f *ExtractorFunction) Process(ctx context.Context, req *models.StageRequest) (*models.StageResponse, error) {
	loc, err := store.ParseLocation(req.Location)
	if err != nil {
		return invalidLocationResponse(), nil
	}

	summary, err := f.Runner.ExtractData(ctx, loc)
	if err != nil {
		f.Logger.Error("Extraction stage failed.", "location", loc.String(), "error", err)
		return nil, err
	}

	recordRun(ctx, f.Logger, f.Recorder, "extraction", loc, summary, "")
	return &models.StageResponse{Status: "success", Summary: summary.String()}, nil
}
