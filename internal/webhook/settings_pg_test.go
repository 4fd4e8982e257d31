package webhook

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGSettingsGetURLReturnsStoredValue(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("SELECT value FROM webhook_settings").
		WithArgs(urlSettingKey).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("https://hooks.example.com/intake"))

	settings := &PGSettings{DB: db}
	url, err := settings.GetURL(context.Background())
	if err != nil {
		t.Fatalf("GetURL: %v", err)
	}
	if url != "https://hooks.example.com/intake" {
		t.Fatalf("url = %q", url)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGSettingsGetURLEmptyWhenUnset(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("SELECT value FROM webhook_settings").
		WithArgs(urlSettingKey).
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	settings := &PGSettings{DB: db}
	url, err := settings.GetURL(context.Background())
	if err != nil {
		t.Fatalf("GetURL: %v", err)
	}
	if url != "" {
		t.Fatalf("expected empty url, got %q", url)
	}
}

func TestPGSettingsSetURLUpserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("INSERT INTO webhook_settings").
		WithArgs(urlSettingKey, "https://hooks.example.com/intake").
		WillReturnResult(sqlmock.NewResult(1, 1))

	settings := &PGSettings{DB: db}
	if err := settings.SetURL(context.Background(), "https://hooks.example.com/intake"); err != nil {
		t.Fatalf("SetURL: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
