package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"intake-backend/internal/docai"
	"intake-backend/internal/records"
	"intake-backend/internal/shared/metrics"
	"intake-backend/internal/shared/telemetry"
	"intake-backend/internal/webhook"
)

const timeoutMessage = "Processing timed out. Large documents may need more time; please try again."

// pollLoop drives the job from Polling to a terminal phase. It stops when
// the context is cancelled (reset), the remote reports a terminal status, or
// the attempt ceiling is reached.
func (s *Service) pollLoop(ctx context.Context, jobID, taskID string) {
	defer s.pollingWG.Done()
	start := s.now()

	max := s.opts.PollMaxAttempts
	for attempt := 1; attempt <= max; attempt++ {
		if err := s.sleep(ctx, s.opts.PollInterval); err != nil {
			return
		}

		result, err := s.client.Poll(ctx, taskID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if attempt == max {
				s.resolveFailure(jobID, fmt.Sprintf("polling failed: %v", err))
				metrics.IncJobFailed()
				return
			}
			// Transient failure; retried on the next interval.
			telemetry.Warn("jobs.poll_transient", map[string]any{
				"job_id":  jobID,
				"task_id": taskID,
				"attempt": attempt,
				"error":   err.Error(),
			})
			continue
		}

		switch result.Status {
		case docai.StatusSuccess:
			s.resolveSuccess(context.WithoutCancel(ctx), jobID, result.Payload, start)
			return
		case docai.StatusFailed, docai.StatusError:
			message := result.Message
			if message == "" {
				message = "processing " + result.Status
			}
			s.resolveFailure(jobID, message)
			metrics.IncJobFailed()
			return
		default:
			s.advanceProgress(jobID, attempt)
		}
	}

	s.resolveFailure(jobID, timeoutMessage)
	metrics.IncJobTimedOut()
	telemetry.Error("jobs.poll_timeout", map[string]any{
		"job_id":   jobID,
		"task_id":  taskID,
		"attempts": max,
	})
}

// advanceProgress maps elapsed attempts linearly into 25..90. Progress never
// regresses and never reaches 100 before an actual success.
func (s *Service) advanceProgress(jobID string, attempt int) {
	progress := 25 + attempt*70/s.opts.PollMaxAttempts
	if progress > 90 {
		progress = 90
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job == nil || s.job.ID != jobID {
		return
	}
	if progress > s.job.ProgressPercent {
		s.job.ProgressPercent = progress
		s.job.UpdatedAt = s.now().UTC()
	}
}

func (s *Service) resolveFailure(jobID, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job == nil || s.job.ID != jobID {
		return
	}
	s.job.Phase = PhaseFailed
	s.job.LastError = message
	s.job.UpdatedAt = s.now().UTC()
	s.cancel = nil
}

// resolveSuccess marks the job Succeeded, then runs the two post-success
// side effects. Each side effect's failure is surfaced on the snapshot
// without reverting the Succeeded phase, and neither blocks the other.
func (s *Service) resolveSuccess(ctx context.Context, jobID string, payload json.RawMessage, start time.Time) {
	s.mu.Lock()
	if s.job == nil || s.job.ID != jobID {
		s.mu.Unlock()
		return
	}
	s.job.Phase = PhaseSucceeded
	s.job.ProgressPercent = 100
	s.job.Result = payload
	s.job.UpdatedAt = s.now().UTC()
	s.cancel = nil
	fileName := s.job.FileName
	s.mu.Unlock()

	metrics.IncJobSucceeded()
	metrics.ObserveJobDurationMs(float64(s.now().Sub(start).Milliseconds()))
	telemetry.Info("jobs.succeeded", map[string]any{"job_id": jobID})

	saved, saveErr := s.saveRecords(ctx, payload, fileName)
	sent, dispatchErr := s.dispatch(ctx, payload, fileName)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job == nil || s.job.ID != jobID {
		return
	}
	s.job.RecordsSaved = saved
	if saveErr != nil {
		s.job.SaveError = saveErr.Error()
	}
	s.job.WebhookSent = sent
	if dispatchErr != nil {
		s.job.WebhookError = dispatchErr.Error()
	}
	s.job.UpdatedAt = s.now().UTC()
}

func (s *Service) saveRecords(ctx context.Context, payload json.RawMessage, fileName string) (int, error) {
	recs, err := records.Extract(payload, fileName, s.now())
	if err != nil {
		telemetry.Error("jobs.extract_failed", map[string]any{"file_name": fileName, "error": err.Error()})
		return 0, err
	}
	if len(recs) == 0 {
		return 0, nil
	}
	if err := s.repo.Append(ctx, recs); err != nil {
		telemetry.Error("jobs.record_save_failed", map[string]any{"file_name": fileName, "error": err.Error()})
		return 0, err
	}
	metrics.AddRecordsExtracted(len(recs))
	telemetry.Info("jobs.records_saved", map[string]any{"file_name": fileName, "count": len(recs)})
	return len(recs), nil
}

func (s *Service) dispatch(ctx context.Context, payload json.RawMessage, fileName string) (int, error) {
	if s.dispatcher == nil {
		return 0, webhook.ErrNotConfigured
	}
	return s.dispatcher.Dispatch(ctx, payload, fileName, s.now())
}
