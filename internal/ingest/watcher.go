package ingest

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"intake-backend/internal/shared/telemetry"
)

// Extensions eligible for automatic intake, matching the upload allow-list.
var defaultExts = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"tif":  {},
	"tiff": {},
	"txt":  {},
	"doc":  {},
	"docx": {},
}

type WatchConfig struct {
	Root        string
	AllowedExts map[string]struct{}
	InitialScan bool          // walk the root and emit existing files first
	Debounce    time.Duration // coalesce rapid write bursts per file
}

// StartWatcher watches Root recursively and emits paths of documents that
// appear or change. The channels close when ctx is cancelled.
func StartWatcher(ctx context.Context, cfg WatchConfig) (<-chan string, <-chan error, error) {
	if cfg.Root == "" {
		return nil, nil, errors.New("watch root is required")
	}
	if cfg.AllowedExts == nil {
		cfg.AllowedExts = defaultExts
	}

	pathCh := make(chan string, 256)
	errCh := make(chan error, 1)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}

	err = filepath.WalkDir(cfg.Root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return w.Add(path)
		}
		if cfg.InitialScan && allowed(path, cfg.AllowedExts) {
			select {
			case pathCh <- path:
			default:
			}
		}
		return nil
	})
	if err != nil {
		_ = w.Close()
		return nil, nil, err
	}

	go func() {
		defer close(pathCh)
		defer close(errCh)
		defer func() { _ = w.Close() }()

		var timer *time.Timer
		pending := map[string]struct{}{}

		flush := func() {
			for p := range pending {
				select {
				case pathCh <- p:
				default:
				}
				delete(pending, p)
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-w.Events:
				if event.Op&fsnotify.Create == fsnotify.Create {
					// New subdirectories join the watch; for files the add
					// fails and is ignored.
					_ = w.Add(event.Name)
				}
				if allowed(event.Name, cfg.AllowedExts) && event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
					pending[event.Name] = struct{}{}
					if cfg.Debounce > 0 {
						if timer != nil {
							timer.Stop()
						}
						timer = time.AfterFunc(cfg.Debounce, flush)
					} else {
						flush()
					}
				}
			case watchErr := <-w.Errors:
				telemetry.Warn("ingest.watch_error", map[string]any{"error": watchErr.Error()})
				select {
				case errCh <- watchErr:
				default:
				}
			}
		}
	}()

	return pathCh, errCh, nil
}

func allowed(path string, exts map[string]struct{}) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	_, ok := exts[ext]
	return ok
}
