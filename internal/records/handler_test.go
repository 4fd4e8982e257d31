package records

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newTestRouter(repo Repo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewHandler(repo)
	handler.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	router := gin.New()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)
	return router
}

func TestRecordsCount(t *testing.T) {
	repo := NewMemoryRepo()
	if err := repo.Append(context.Background(), []SubjectRecord{{PatientNumber: 1}, {PatientNumber: 2}}); err != nil {
		t.Fatalf("seed repo: %v", err)
	}
	router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records/count", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Count != 2 {
		t.Fatalf("count = %d, want 2", body.Count)
	}
}

func TestRecordsExportCSV(t *testing.T) {
	repo := NewMemoryRepo()
	if err := repo.Append(context.Background(), []SubjectRecord{{
		Timestamp:          "2025-06-01T11:00:00Z",
		DocumentNameUpload: "intake.pdf",
		PatientNumber:      1,
		Type:               "Fax",
	}}); err != nil {
		t.Fatalf("seed repo: %v", err)
	}
	router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records/export.csv", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := resp.Header().Get("Content-Disposition"); !strings.Contains(got, "document_records_2025-06-01.csv") {
		t.Errorf("Content-Disposition = %q", got)
	}
	lines := strings.Split(strings.TrimSpace(resp.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "timestamp,document_name_upload,patient_number") {
		t.Errorf("header = %q", lines[0])
	}
}

func TestRecordsExportEmptyIs404(t *testing.T) {
	router := newTestRouter(NewMemoryRepo())

	for _, path := range []string{"/api/v1/records/export.csv", "/api/v1/records/export.xlsx"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404 for empty store, got %d", path, resp.Code)
		}
	}
}

func TestRecordsClear(t *testing.T) {
	repo := NewMemoryRepo()
	if err := repo.Append(context.Background(), []SubjectRecord{{PatientNumber: 1}}); err != nil {
		t.Fatalf("seed repo: %v", err)
	}
	router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/records", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	count, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Fatalf("count = %d after clear", count)
	}
}
