package docai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*HTTPClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewHTTPClient(srv.URL, "test-token", 200, 5*time.Second)
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}
	return client, srv
}

func TestSubmitSendsMultipartFields(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/fax-ai" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("x-access-tokens"); got != "test-token" {
			t.Errorf("missing access token header, got %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("multi_patient"); got != "full" {
			t.Errorf("expected multi_patient=full, got %q", got)
		}
		if got := r.FormValue("max_pages"); got != "200" {
			t.Errorf("expected max_pages=200, got %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "intake.pdf" {
			t.Errorf("expected file name intake.pdf, got %q", header.Filename)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"is_success": true, "task_id": "task-123"}`))
	})

	taskID, err := client.Submit(context.Background(), "intake.pdf", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if taskID != "task-123" {
		t.Fatalf("expected task-123, got %q", taskID)
	}
}

func TestSubmitRejectedCarriesRemoteMessage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"is_success": false, "message": "unsupported document"}`))
	})

	_, err := client.Submit(context.Background(), "intake.pdf", strings.NewReader("x"))
	if err == nil {
		t.Fatalf("expected error for is_success=false")
	}
	if !strings.Contains(err.Error(), "unsupported document") {
		t.Fatalf("expected remote message in error, got %v", err)
	}
}

func TestSubmitNon2xxFails(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"is_success": true, "task_id": "task-123"}`))
	})

	if _, err := client.Submit(context.Background(), "intake.pdf", strings.NewReader("x")); err == nil {
		t.Fatalf("expected error for non-2xx status")
	}
}

func TestPollReturnsPayloadOnSuccess(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("task_id"); got != "task-123" {
			t.Errorf("expected task_id query, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "success", "result": {"document_type": {"overall": {"class": "Fax"}}}}`))
	})

	res, err := client.Poll(context.Background(), "task-123")
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if res.Status != StatusSuccess {
		t.Fatalf("expected success status, got %q", res.Status)
	}
	if !res.Terminal() {
		t.Fatalf("expected success to be terminal")
	}
	if len(res.Payload) == 0 {
		t.Fatalf("expected payload on success")
	}
}

func TestPollPendingHasNoPayload(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "processing"}`))
	})

	res, err := client.Poll(context.Background(), "task-123")
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if res.Terminal() {
		t.Fatalf("expected processing to be non-terminal")
	}
	if res.Payload != nil {
		t.Fatalf("expected no payload while processing")
	}
}

func TestPollFailureCarriesMessage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "failed", "message": "could not read pages"}`))
	})

	res, err := client.Poll(context.Background(), "task-123")
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if res.Status != StatusFailed || res.Message != "could not read pages" {
		t.Fatalf("unexpected result %+v", res)
	}
}
