package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

var dispatchNow = time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)

const multiSubjectPayload = `{
	"result": {
		"multi_patient": {
			"is_multi_patient": true,
			"multi_patient_clusters": {"Document-1": "Page 1-3", "Document-2": "Page 4-6"}
		},
		"Document-1": {"result": {
			"document_type": {"overall": {"class": "Fax", "confidence": 0.9}},
			"document_name_tags": {"other": {"document_name": "Fax Cover"}}
		}},
		"Document-2": {"result": {"document_type": {"overall": {"class": "Referral", "confidence": 0.8}}}}
	}
}`

func TestDispatchPostsOnePerSubject(t *testing.T) {
	var mu sync.Mutex
	var bodies []map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		mu.Lock()
		bodies = append(bodies, body)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	d := NewDispatcher(NewMemorySettings(server.URL), server.Client())
	sent, err := d.Dispatch(context.Background(), json.RawMessage(multiSubjectPayload), "intake.pdf", dispatchNow)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if sent != 2 {
		t.Fatalf("sent = %d, want 2", sent)
	}
	if len(bodies) != 2 {
		t.Fatalf("server saw %d posts, want 2", len(bodies))
	}

	first := bodies[0]
	if first["type"] != "Fax" {
		t.Errorf("first payload type = %v", first["type"])
	}
	if first["document_name_upload"] != "intake.pdf" {
		t.Errorf("document_name_upload = %v", first["document_name_upload"])
	}
	if first["document_name"] != "Fax Cover" {
		t.Errorf("document_name = %v", first["document_name"])
	}
	if first["document_number"] != float64(1) || first["patient_number"] != float64(1) {
		t.Errorf("document_number=%v patient_number=%v", first["document_number"], first["patient_number"])
	}
	if first["pages_range"] != "Page 1-3" {
		t.Errorf("pages_range = %v", first["pages_range"])
	}
	if first["timestamp"] != "2025-06-01T12:30:00Z" {
		t.Errorf("timestamp = %v", first["timestamp"])
	}
	if bodies[1]["pages_range"] != "Page 4-6" {
		t.Errorf("second pages_range = %v", bodies[1]["pages_range"])
	}
}

func TestDispatchStopsAtFirstFailure(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	d := NewDispatcher(NewMemorySettings(server.URL), server.Client())
	sent, err := d.Dispatch(context.Background(), json.RawMessage(multiSubjectPayload), "intake.pdf", dispatchNow)
	if err == nil {
		t.Fatal("expected error from failing second delivery")
	}
	if sent != 1 {
		t.Fatalf("sent = %d, want 1 before the failure", sent)
	}
	if calls != 2 {
		t.Fatalf("server saw %d calls, want 2", calls)
	}
}

func TestDispatchUnconfigured(t *testing.T) {
	d := NewDispatcher(NewMemorySettings(""), nil)
	_, err := d.Dispatch(context.Background(), json.RawMessage(`{"result": {}}`), "intake.pdf", dispatchNow)
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
