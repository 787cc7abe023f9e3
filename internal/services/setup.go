package services

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/storage"
	"golang.org/x/sync/errgroup"

	"github.com/Lllllllleong/invoicedocumentflow/internal/models"
	"github.com/Lllllllleong/invoicedocumentflow/internal/pipeline"
	"github.com/Lllllllleong/invoicedocumentflow/internal/store"
)

// SetupFunction bootstraps the folder structure under a fresh root prefix.
type SetupFunction struct {
	Store  store.ObjectStore
	Logger *slog.Logger
}

// NewSetup creates a new SetupFunction instance with a real storage client.
func NewSetup(ctx context.Context) (*SetupFunction, error) {
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &SetupFunction{Store: store.NewGCSStore(storageClient), Logger: slog.Default()}, nil
}

// Process creates the pipeline sub-folders if the location is empty.
func (f *SetupFunction) Process(ctx context.Context, req *models.StageRequest) (*models.StageResponse, error) {
	loc, err := store.ParseLocation(req.Location)
	if err != nil {
		return invalidLocationResponse(), nil
	}

	existing, err := f.Store.List(ctx, loc.Bucket, loc.Prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect location: %w", err)
	}
	// List skips folder markers, so an already-bootstrapped location would
	// read as empty. Probe a marker directly to catch re-runs.
	bootstrapped, err := f.Store.Exists(ctx, loc.Bucket, loc.Prefix+pipeline.InputFolder)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect location: %w", err)
	}
	if len(existing) > 0 || bootstrapped {
		return &models.StageResponse{
			Status:  "success",
			Summary: fmt.Sprintf("GCS location %s is not empty. Skipping folder creation.", loc),
		}, nil
	}

	f.Logger.Info("Location is empty. Creating folder structure.", "location", loc.String())
	g, gctx := errgroup.WithContext(ctx)
	for _, folder := range pipeline.BootstrapFolders {
		marker := loc.Prefix + folder
		g.Go(func() error {
			if err := f.Store.Write(gctx, loc.Bucket, marker, nil, ""); err != nil {
				return fmt.Errorf("failed to create folder %s: %w", marker, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := fmt.Sprintf(
		"Successfully created folders in %s. Please upload your input invoices to the '%s%s' folder and your ground truth JSON files to the '%s%s' folder.",
		loc, loc.Prefix, pipeline.InputFolder, loc.Prefix, pipeline.GroundTruthFolder,
	)
	return &models.StageResponse{Status: "success", Summary: summary}, nil
}
