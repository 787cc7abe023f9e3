package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Lllllllleong/invoicedocumentflow/internal/gcp"
	"github.com/Lllllllleong/invoicedocumentflow/internal/pipeline"
)

// WorkflowStarter starts one orchestrator execution for a pipeline location.
type WorkflowStarter interface {
	Trigger(ctx context.Context, location string) (string, error)
}

// GCSEvent is the payload of a storage object-finalize event.
type GCSEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

// IngestFunction reacts to invoice uploads by handing the pipeline location
// off to the orchestration workflow.
type IngestFunction struct {
	Trigger WorkflowStarter
	Logger  *slog.Logger
}

// NewIngest creates a new IngestFunction instance.
func NewIngest(ctx context.Context) (*IngestFunction, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}

	trigger, err := gcp.NewWorkflowTrigger(ctx,
		projectID,
		gcp.GetEnv("WORKFLOW_LOCATION", "us-central1"),
		gcp.GetEnv("WORKFLOW_ID", "invoice-pipeline-orchestrator"),
	)
	if err != nil {
		return nil, err
	}
	return &IngestFunction{Trigger: trigger, Logger: slog.Default()}, nil
}

// Process inspects one uploaded object and, when it is a fresh document in an
// input folder, triggers the orchestrator for that pipeline root.
func (f *IngestFunction) Process(ctx context.Context, e GCSEvent) error {
	logCtx := f.Logger.With("gcsBucket", e.Bucket, "gcsObject", e.Name)

	if strings.HasSuffix(e.Name, "/") {
		logCtx.Info("Ignoring folder marker.")
		return nil
	}
	// The input folder must be a whole path segment; an object like
	// "foo_input_invoices/x.pdf" is not an upload.
	var root string
	switch {
	case strings.HasPrefix(e.Name, pipeline.InputFolder):
		root = ""
	case strings.Contains(e.Name, "/"+pipeline.InputFolder):
		root = e.Name[:strings.Index(e.Name, "/"+pipeline.InputFolder)+1]
	default:
		logCtx.Info("Object is not under an input folder. Ignoring.")
		return nil
	}

	location := fmt.Sprintf("gs://%s/%s", e.Bucket, root)
	execution, err := f.Trigger.Trigger(ctx, location)
	if err != nil {
		logCtx.Error("Failed to trigger pipeline workflow.", "location", location, "error", err)
		return err
	}
	logCtx.Info("Triggered pipeline workflow.", "location", location, "execution", execution)
	return nil
}
