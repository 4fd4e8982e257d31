package jobs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"intake-backend/internal/docai"
	"intake-backend/internal/records"
	"intake-backend/internal/shared/metrics"
	"intake-backend/internal/shared/storage/object"
	"intake-backend/internal/shared/telemetry"
	"intake-backend/internal/webhook"
)

const maxUploadBytes = 10 << 20

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".tif":  true,
	".tiff": true,
	".txt":  true,
	".doc":  true,
	".docx": true,
}

var allowedMIMETypes = map[string]bool{
	"application/pdf":    true,
	"image/jpeg":         true,
	"image/jpg":          true,
	"image/png":          true,
	"image/tiff":         true,
	"text/plain":         true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// Options configures a jobs Service.
type Options struct {
	PollInterval    time.Duration
	PollMaxAttempts int
	MaxPages        int
}

// Service owns the upload -> submit -> poll -> resolve state machine. At
// most one UploadJob is active at a time.
type Service struct {
	files      object.ObjectStore
	client     docai.Client
	repo       records.Repo
	dispatcher *webhook.Dispatcher
	opts       Options

	// now and sleep are swappable in tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu        sync.Mutex
	job       *UploadJob
	cancel    context.CancelFunc
	pollingWG sync.WaitGroup
}

// NewService constructs a Service.
func NewService(files object.ObjectStore, client docai.Client, repo records.Repo, dispatcher *webhook.Dispatcher, opts Options) *Service {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.PollMaxAttempts <= 0 {
		opts.PollMaxAttempts = 540
	}
	return &Service{
		files:      files,
		client:     client,
		repo:       repo,
		dispatcher: dispatcher,
		opts:       opts,
		now:        time.Now,
		sleep:      sleepWithContext,
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SelectFile validates and stages a file for submission. A rejected file
// returns a *ValidationError and leaves the current state untouched. A
// previously staged or resolved job is discarded; a job that is submitting
// or polling blocks the new selection with ErrJobInFlight.
func (s *Service) SelectFile(ctx context.Context, fileName, contentType string, sizeBytes int64, r io.Reader) (UploadJob, error) {
	trimmed := strings.TrimSpace(fileName)
	if trimmed == "" {
		return UploadJob{}, &ValidationError{Message: "file name is required"}
	}
	ext := strings.ToLower(path.Ext(trimmed))
	if !allowedExtensions[ext] {
		return UploadJob{}, &ValidationError{Message: fmt.Sprintf("unsupported file type %q", ext)}
	}
	if mt := mediaType(contentType); mt != "" && mt != "application/octet-stream" && !allowedMIMETypes[mt] {
		return UploadJob{}, &ValidationError{Message: fmt.Sprintf("unsupported content type %q", mt)}
	}
	if sizeBytes > maxUploadBytes {
		return UploadJob{}, &ValidationError{Message: "file exceeds the 10 MiB size limit"}
	}

	data, err := io.ReadAll(io.LimitReader(r, maxUploadBytes+1))
	if err != nil {
		return UploadJob{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > maxUploadBytes {
		return UploadJob{}, &ValidationError{Message: "file exceeds the 10 MiB size limit"}
	}

	if ext == ".pdf" && s.opts.MaxPages > 0 {
		if pages, ok := pdfPageCount(data); ok && pages > s.opts.MaxPages {
			return UploadJob{}, &ValidationError{
				Message: fmt.Sprintf("document has %d pages, exceeding the %d page limit", pages, s.opts.MaxPages),
			}
		}
	}

	s.mu.Lock()
	if s.job != nil && (s.job.Phase == PhaseSubmitting || s.job.Phase == PhasePolling) {
		s.mu.Unlock()
		return UploadJob{}, ErrJobInFlight
	}
	previous := s.job
	s.mu.Unlock()

	key, size, mimeType, err := s.files.Save(ctx, trimmed, bytes.NewReader(data))
	if err != nil {
		return UploadJob{}, fmt.Errorf("stage file: %w", err)
	}

	now := s.now().UTC()
	job := &UploadJob{
		ID:              uuid.NewString(),
		FileName:        trimmed,
		SizeBytes:       size,
		MimeType:        mimeType,
		Phase:           PhaseFileSelected,
		ProgressPercent: 0,
		CreatedAt:       now,
		UpdatedAt:       now,
		storageKey:      key,
	}

	s.mu.Lock()
	s.job = job
	snapshot := *job
	s.mu.Unlock()

	if previous != nil && previous.storageKey != "" {
		if err := s.files.Delete(ctx, previous.storageKey); err != nil {
			telemetry.Warn("jobs.stale_file_cleanup_failed", map[string]any{
				"storage_key": previous.storageKey,
				"error":       err.Error(),
			})
		}
	}

	telemetry.Info("jobs.file_selected", map[string]any{
		"job_id":     job.ID,
		"file_name":  job.FileName,
		"size_bytes": job.SizeBytes,
		"mime_type":  job.MimeType,
	})
	return snapshot, nil
}

// mediaType strips parameters and casing from a declared Content-Type. An
// empty or generic declaration is left to the extension check.
func mediaType(contentType string) string {
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

// pdfPageCount probes the staged PDF for its page count. Probe failures are
// tolerated: a document the library cannot parse is left to the remote
// service to judge.
func pdfPageCount(data []byte) (int, bool) {
	defer func() { _ = recover() }()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, false
	}
	return reader.NumPage(), true
}

// Submit sends the staged file to the remote service and, on success,
// starts the poll loop. Valid only from FileSelected.
func (s *Service) Submit(ctx context.Context) (UploadJob, error) {
	s.mu.Lock()
	if s.job == nil {
		s.mu.Unlock()
		return UploadJob{}, ErrNoJob
	}
	if s.job.Phase == PhaseSubmitting || s.job.Phase == PhasePolling {
		s.mu.Unlock()
		return s.snapshotLocked(), ErrJobInFlight
	}
	if s.job.Phase != PhaseFileSelected {
		snapshot := *s.job
		s.mu.Unlock()
		return snapshot, fmt.Errorf("cannot submit from phase %q", snapshot.Phase)
	}
	s.job.Phase = PhaseSubmitting
	s.job.UpdatedAt = s.now().UTC()
	job := *s.job
	s.mu.Unlock()

	file, err := s.files.Open(ctx, job.storageKey)
	if err != nil {
		return s.fail(job.ID, fmt.Sprintf("failed to read staged file: %v", err)), nil
	}
	taskID, err := s.client.Submit(ctx, job.FileName, file)
	_ = file.Close()
	if err != nil {
		metrics.IncJobFailed()
		telemetry.Error("jobs.submit_failed", map[string]any{
			"job_id": job.ID,
			"error":  err.Error(),
		})
		return s.fail(job.ID, err.Error()), nil
	}
	metrics.IncJobSubmitted()

	pollCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	s.mu.Lock()
	if s.job == nil || s.job.ID != job.ID {
		// Reset raced the remote submit; the job is gone, so no poll loop
		// starts for it.
		s.mu.Unlock()
		cancel()
		return UploadJob{Phase: PhaseIdle}, nil
	}
	s.job.TaskID = taskID
	s.job.Phase = PhasePolling
	s.job.ProgressPercent = 25
	s.job.UpdatedAt = s.now().UTC()
	s.cancel = cancel
	snapshot := *s.job
	s.mu.Unlock()

	telemetry.Info("jobs.submitted", map[string]any{
		"job_id":  snapshot.ID,
		"task_id": taskID,
	})

	s.pollingWG.Add(1)
	go s.pollLoop(pollCtx, snapshot.ID, taskID)

	return snapshot, nil
}

// Status returns a snapshot of the current job; an idle snapshot when none
// exists.
func (s *Service) Status() UploadJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Service) snapshotLocked() UploadJob {
	if s.job == nil {
		return UploadJob{Phase: PhaseIdle}
	}
	return *s.job
}

// Reset discards the current job from any state, cancelling an active poll
// loop and removing the staged file.
func (s *Service) Reset(ctx context.Context) UploadJob {
	s.mu.Lock()
	cancel := s.cancel
	job := s.job
	s.job = nil
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if job != nil && job.storageKey != "" {
		if err := s.files.Delete(ctx, job.storageKey); err != nil {
			telemetry.Warn("jobs.reset_file_cleanup_failed", map[string]any{
				"storage_key": job.storageKey,
				"error":       err.Error(),
			})
		}
	}
	if job != nil {
		telemetry.Info("jobs.reset", map[string]any{"job_id": job.ID, "phase": string(job.Phase)})
	}
	return UploadJob{Phase: PhaseIdle}
}

// Wait blocks until an active poll loop has exited. Test helper and
// shutdown hook.
func (s *Service) Wait() {
	s.pollingWG.Wait()
}

func (s *Service) fail(jobID, message string) UploadJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job == nil || s.job.ID != jobID {
		return UploadJob{Phase: PhaseIdle}
	}
	s.job.Phase = PhaseFailed
	s.job.LastError = message
	s.job.UpdatedAt = s.now().UTC()
	return *s.job
}
