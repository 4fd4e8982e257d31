package ingest

import (
	"context"
	"os"
	"path/filepath"

	"intake-backend/internal/jobs"
	"intake-backend/internal/shared/telemetry"
)

// Runner feeds watched documents through the intake pipeline one at a time,
// honoring the single-active-job invariant: each file is staged, submitted,
// driven to a terminal phase, then the job is reset before the next file.
type Runner struct {
	Svc *jobs.Service
}

func NewRunner(svc *jobs.Service) *Runner {
	return &Runner{Svc: svc}
}

// Run consumes paths until the channel closes or ctx is cancelled.
func (r *Runner) Run(ctx context.Context, paths <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-paths:
			if !ok {
				return
			}
			r.process(ctx, path)
		}
	}
}

func (r *Runner) process(ctx context.Context, path string) {
	file, err := os.Open(path)
	if err != nil {
		telemetry.Warn("ingest.open_failed", map[string]any{"path": path, "error": err.Error()})
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		telemetry.Warn("ingest.stat_failed", map[string]any{"path": path, "error": err.Error()})
		return
	}

	// Watched files carry no declared content type; the extension check
	// stands alone here.
	job, err := r.Svc.SelectFile(ctx, filepath.Base(path), "", info.Size(), file)
	if err != nil {
		telemetry.Warn("ingest.select_rejected", map[string]any{"path": path, "error": err.Error()})
		return
	}

	if _, err := r.Svc.Submit(ctx); err != nil {
		telemetry.Error("ingest.submit_failed", map[string]any{"job_id": job.ID, "error": err.Error()})
		r.Svc.Reset(ctx)
		return
	}

	// Block until the poll loop resolves the job, then report and reset.
	r.Svc.Wait()
	final := r.Svc.Status()
	fields := map[string]any{
		"job_id":        final.ID,
		"path":          path,
		"phase":         string(final.Phase),
		"records_saved": final.RecordsSaved,
		"webhook_sent":  final.WebhookSent,
	}
	if final.LastError != "" {
		fields["error"] = final.LastError
	}
	switch final.Phase {
	case jobs.PhaseSucceeded:
		telemetry.Info("ingest.processed", fields)
	default:
		telemetry.Error("ingest.failed", fields)
	}
	r.Svc.Reset(ctx)
}
