package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Lllllllleong/invoicedocumentflow/internal/models"
	"github.com/Lllllllleong/invoicedocumentflow/internal/normalize"
	"github.com/Lllllllleong/invoicedocumentflow/internal/store"
)

// Runner executes the routing and extraction stages over a pipeline location.
// Items are processed one at a time in listing order; each item's failure is
// isolated and quarantines only that item.
type Runner struct {
	Store  store.ObjectStore
	Oracle Oracle
	Logger *slog.Logger
}

func NewRunner(st store.ObjectStore, oracle Oracle, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{Store: st, Oracle: oracle, Logger: logger}
}

// itemOutcome is the explicit per-item result threaded through a stage run.
type itemOutcome int

const (
	itemOK itemOutcome = iota
	itemFailed
	itemSkipped // source vanished between listing and processing
)

// RouteInvoices moves every document under input_invoices/ into a
// vendor-specific folder under sorted_invoices/. Failing documents are
// quarantined under error_invoices/.
func (r *Runner) RouteInvoices(ctx context.Context, loc store.Location) (*models.StageSummary, error) {
	logCtx := r.Logger.With("stage", "routing", "location", loc.String())

	names, err := r.Store.List(ctx, loc.Bucket, loc.Prefix+InputFolder)
	if err != nil {
		return nil, fmt.Errorf("failed to list input invoices: %w", err)
	}
	if len(names) == 0 {
		return &models.StageSummary{Stage: "Routing", Message: "No new invoices found."}, nil
	}

	summary := &models.StageSummary{Stage: "Routing"}
	for _, name := range names {
		outcome := r.routeOne(ctx, logCtx, loc, name)
		switch outcome {
		case itemOK:
			summary.Processed++
		case itemFailed:
			summary.Errored++
			summary.FailedItems = append(summary.FailedItems, name)
		case itemSkipped:
			logCtx.Warn("Item no longer exists; skipping.", "object", name)
		}
	}
	return summary, nil
}

func (r *Runner) routeOne(ctx context.Context, logCtx *slog.Logger, loc store.Location, name string) itemOutcome {
	data, err := r.Store.Read(ctx, loc.Bucket, name)
	if errors.Is(err, store.ErrObjectNotExist) {
		return itemSkipped
	}
	if err != nil {
		return r.quarantine(ctx, logCtx, loc, name, err)
	}

	payload, err := normalize.Normalize(store.BaseName(name), data)
	if err != nil {
		return r.quarantine(ctx, logCtx, loc, name, err)
	}

	seller, err := r.Oracle.IdentifySeller(ctx, payload)
	if err != nil {
		return r.quarantine(ctx, logCtx, loc, name, err)
	}
	vendor := sanitizeVendor(seller)

	newName, err := r.Store.Move(ctx, loc.Bucket, name, loc.Prefix+SortedFolder+vendor)
	if errors.Is(err, store.ErrObjectNotExist) {
		return itemSkipped
	}
	if err != nil {
		return r.quarantine(ctx, logCtx, loc, name, err)
	}

	logCtx.Info("Routed invoice.", "object", name, "vendor", vendor, "destination", newName)
	return itemOK
}

// ExtractData runs structured extraction for every document under
// sorted_invoices/ and writes one JSON record per document under
// gemini_output/, keyed by base name.
func (r *Runner) ExtractData(ctx context.Context, loc store.Location) (*models.StageSummary, error) {
	logCtx := r.Logger.With("stage", "extraction", "location", loc.String())

	names, err := r.Store.List(ctx, loc.Bucket, loc.Prefix+SortedFolder)
	if err != nil {
		return nil, fmt.Errorf("failed to list sorted invoices: %w", err)
	}
	if len(names) == 0 {
		return &models.StageSummary{Stage: "Extraction", Message: "No sorted invoices found."}, nil
	}

	summary := &models.StageSummary{Stage: "Extraction"}
	for _, name := range names {
		outcome := r.extractOne(ctx, logCtx, loc, name)
		switch outcome {
		case itemOK:
			summary.Processed++
		case itemFailed:
			summary.Errored++
			summary.FailedItems = append(summary.FailedItems, name)
		case itemSkipped:
			logCtx.Warn("Item no longer exists; skipping.", "object", name)
		}
	}
	return summary, nil
}

func (r *Runner) extractOne(ctx context.Context, logCtx *slog.Logger, loc store.Location, name string) itemOutcome {
	data, err := r.Store.Read(ctx, loc.Bucket, name)
	if errors.Is(err, store.ErrObjectNotExist) {
		return itemSkipped
	}
	if err != nil {
		return r.quarantine(ctx, logCtx, loc, name, err)
	}

	payload, err := normalize.Normalize(store.BaseName(name), data)
	if err != nil {
		return r.quarantine(ctx, logCtx, loc, name, err)
	}

	resp, err := r.Oracle.ExtractInvoice(ctx, payload)
	if err != nil {
		return r.quarantine(ctx, logCtx, loc, name, err)
	}

	record, err := extractJSONObject(resp)
	if err != nil {
		return r.quarantine(ctx, logCtx, loc, name, err)
	}

	base := store.StripExt(store.BaseName(name))
	outName := loc.Prefix + OutputFolder + base + ".json"
	if err := r.Store.Write(ctx, loc.Bucket, outName, []byte(record), "application/json"); err != nil {
		return r.quarantine(ctx, logCtx, loc, name, err)
	}

	logCtx.Info("Extracted invoice record.", "object", name, "output", outName)
	return itemOK
}

// quarantine relocates a failing item to the error folder. The move is
// best-effort: if it fails too, the item stays put and the failure is still
// counted.
func (r *Runner) quarantine(ctx context.Context, logCtx *slog.Logger, loc store.Location, name string, cause error) itemOutcome {
	logCtx.Error("Item processing failed; quarantining.", "object", name, "error", cause)
	if _, err := r.Store.Move(ctx, loc.Bucket, name, loc.Prefix+ErrorFolder); err != nil && !errors.Is(err, store.ErrObjectNotExist) {
		logCtx.Error("Failed to move item to error folder.", "object", name, "error", err)
	}
	return itemFailed
}
