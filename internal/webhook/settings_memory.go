package webhook

import (
	"context"
	"sync"
)

// MemorySettings stores the webhook URL in memory.
type MemorySettings struct {
	mu  sync.RWMutex
	url string
}

// NewMemorySettings constructs a MemorySettings, optionally seeded with a
// default URL.
func NewMemorySettings(url string) *MemorySettings {
	return &MemorySettings{url: url}
}

func (s *MemorySettings) GetURL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.url, nil
}

func (s *MemorySettings) SetURL(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.url = url
	return nil
}

var _ Settings = (*MemorySettings)(nil)
