package records

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const recordsFileName = "records.json"

// FileRepo persists subject records as a single JSON array on disk. The whole
// blob is rewritten on every append; a corrupt or missing file reads as an
// empty sequence. Safe for concurrent use within one process, which is the
// only writer.
type FileRepo struct {
	mu   sync.Mutex
	path string
}

// NewFileRepo constructs a FileRepo rooted under dataDir, creating the
// directory if needed.
func NewFileRepo(dataDir string) (*FileRepo, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data dir is required")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileRepo{path: filepath.Join(dataDir, recordsFileName)}, nil
}

// Append reads the current sequence, concatenates and writes back in full.
func (r *FileRepo) Append(ctx context.Context, recs []SubjectRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	current := r.load()
	return r.write(append(current, recs...))
}

// Count returns the number of stored records.
func (r *FileRepo) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.load()), nil
}

// List returns the stored records in insertion order.
func (r *FileRepo) List(ctx context.Context) ([]SubjectRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(), nil
}

// Clear removes all stored records.
func (r *FileRepo) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove records file: %w", err)
	}
	return nil
}

func (r *FileRepo) load() []SubjectRecord {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil
	}
	var recs []SubjectRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil
	}
	return recs
}

func (r *FileRepo) write(recs []SubjectRecord) error {
	data, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write records file: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace records file: %w", err)
	}
	return nil
}

var _ Repo = (*FileRepo)(nil)
