package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const settingsFileName = "settings.json"

// FileSettings persists the webhook URL in a JSON file under the data
// directory. A missing or corrupt file reads as unconfigured.
type FileSettings struct {
	mu   sync.Mutex
	path string
}

// NewFileSettings constructs a FileSettings rooted under dataDir, creating
// the directory if needed.
func NewFileSettings(dataDir string) (*FileSettings, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data dir is required")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileSettings{path: filepath.Join(dataDir, settingsFileName)}, nil
}

func (s *FileSettings) GetURL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()[urlSettingKey], nil
}

func (s *FileSettings) SetURL(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	values := s.load()
	values[urlSettingKey] = url
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace settings file: %w", err)
	}
	return nil
}

func (s *FileSettings) load() map[string]string {
	values := map[string]string{}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return values
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return map[string]string{}
	}
	return values
}

var _ Settings = (*FileSettings)(nil)
