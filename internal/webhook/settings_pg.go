package webhook

import (
	"context"
	"database/sql"
	"errors"
)

// PGSettings implements Settings using Postgres.
type PGSettings struct {
	DB *sql.DB
}

func (s *PGSettings) GetURL(ctx context.Context) (string, error) {
	var url string
	err := s.DB.QueryRowContext(ctx,
		`SELECT value FROM webhook_settings WHERE key = $1`, urlSettingKey).Scan(&url)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return url, nil
}

func (s *PGSettings) SetURL(ctx context.Context, url string) error {
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO webhook_settings (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		urlSettingKey, url)
	return err
}

var _ Settings = (*PGSettings)(nil)
