package docai

import (
	"context"
	"encoding/json"
	"io"
)

// Poll statuses reported by the document-AI service.
const (
	StatusSuccess    = "success"
	StatusFailed     = "failed"
	StatusError      = "error"
	StatusProcessing = "processing"
	StatusPending    = "pending"
)

// Client abstracts the remote document-understanding API.
type Client interface {
	Submit(ctx context.Context, fileName string, file io.Reader) (taskID string, err error)
	Poll(ctx context.Context, taskID string) (PollResult, error)
}

// PollResult is one status response for an in-flight task. Payload holds the
// full response body once Status is terminal-success.
type PollResult struct {
	Status  string
	Message string
	Payload json.RawMessage
}

// Terminal reports whether the status ends the poll loop.
func (r PollResult) Terminal() bool {
	switch r.Status {
	case StatusSuccess, StatusFailed, StatusError:
		return true
	default:
		return false
	}
}
