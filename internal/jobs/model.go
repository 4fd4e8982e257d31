package jobs

import (
	"encoding/json"
	"errors"
	"time"
)

// Phase is the orchestrator state for the single in-flight upload.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseFileSelected Phase = "file_selected"
	PhaseSubmitting   Phase = "submitting"
	PhasePolling      Phase = "polling"
	PhaseSucceeded    Phase = "succeeded"
	PhaseFailed       Phase = "failed"
)

// UploadJob is a snapshot of one document-processing request. The service
// hands out copies; only the service mutates the live job.
type UploadJob struct {
	ID              string          `json:"id"`
	FileName        string          `json:"file_name"`
	SizeBytes       int64           `json:"size_bytes"`
	MimeType        string          `json:"mime_type"`
	TaskID          string          `json:"task_id,omitempty"`
	Phase           Phase           `json:"phase"`
	ProgressPercent int             `json:"progress_percent"`
	LastError       string          `json:"last_error,omitempty"`
	Result          json.RawMessage `json:"result,omitempty"`

	// Post-success side effects, independent of each other and of Phase.
	RecordsSaved int    `json:"records_saved"`
	SaveError    string `json:"save_error,omitempty"`
	WebhookSent  int    `json:"webhook_sent"`
	WebhookError string `json:"webhook_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	storageKey string
}

// ErrJobInFlight is returned when an operation would disturb a job that is
// currently submitting or polling.
var ErrJobInFlight = errors.New("an upload is already in flight")

// ErrNoJob is returned by Submit when no file has been selected.
var ErrNoJob = errors.New("no file selected")

// ValidationError rejects a file before any network call; it never creates
// an UploadJob.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
