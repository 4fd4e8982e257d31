package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"intake-backend/internal/records"
	"intake-backend/internal/shared/metrics"
	"intake-backend/internal/shared/telemetry"
)

// ErrNotConfigured is returned when no webhook URL has been set.
var ErrNotConfigured = errors.New("webhook url not configured")

// Dispatcher posts one JSON notification per extracted subject to the
// configured webhook URL. Deliveries are sequential and stop at the first
// failure.
type Dispatcher struct {
	Settings Settings
	Client   *http.Client
}

// NewDispatcher constructs a Dispatcher. A nil client falls back to a
// default with a 30s timeout.
func NewDispatcher(settings Settings, client *http.Client) *Dispatcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Dispatcher{Settings: settings, Client: client}
}

// Dispatch extracts subjects from the analysis payload and posts one
// notification each. It returns the number of notifications delivered; on a
// mid-sequence failure that count reflects the deliveries that went out
// before the error.
func (d *Dispatcher) Dispatch(ctx context.Context, payload json.RawMessage, originalFileName string, now time.Time) (int, error) {
	url, err := d.Settings.GetURL(ctx)
	if err != nil {
		return 0, fmt.Errorf("load webhook url: %w", err)
	}
	if url == "" {
		return 0, ErrNotConfigured
	}

	deliveries, err := records.ExtractDeliveries(payload, originalFileName, now)
	if err != nil {
		return 0, fmt.Errorf("build webhook payloads: %w", err)
	}

	sent := 0
	for _, delivery := range deliveries {
		if err := d.post(ctx, url, delivery); err != nil {
			metrics.IncWebhookFailed()
			telemetry.Error("webhook.dispatch_failed", map[string]any{
				"document_number": delivery.DocumentNumber,
				"patient_number":  delivery.PatientNumber,
				"sent":            sent,
				"error":           err.Error(),
			})
			return sent, fmt.Errorf("deliver document %d: %w", delivery.DocumentNumber, err)
		}
		sent++
	}
	metrics.AddWebhookSent(sent)
	telemetry.Info("webhook.dispatched", map[string]any{
		"file_name": originalFileName,
		"sent":      sent,
	})
	return sent, nil
}

func (d *Dispatcher) post(ctx context.Context, url string, delivery records.Delivery) error {
	body, err := json.Marshal(delivery)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.Client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
