// Package ingest watches a local drop directory and registers completed
// audio files as tracks, as an alternative to the admin upload API.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"soundreview/logger"
	"soundreview/model"
	"soundreview/repository"
	"soundreview/storage"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
)

var audioExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".ogg":  true,
	".m4a":  true,
	".flac": true,
}

// Watcher uploads audio files dropped into a directory and inserts the
// corresponding track rows.
type Watcher struct {
	dir    string
	tracks repository.TrackRepository
	store  *storage.AudioStore
}

// NewWatcher creates a Watcher over the given directory.
func NewWatcher(dir string, tracks repository.TrackRepository, store *storage.AudioStore) *Watcher {
	return &Watcher{dir: dir, tracks: tracks, store: store}
}

// Run watches the drop directory until the context is cancelled. Files
// already present at startup are ingested first.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create ingest watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch ingest directory %s: %w", w.dir, err)
	}
	logger.Info("Ingest watcher started", logger.String("dir", w.dir))

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("failed to read ingest directory %s: %w", w.dir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			w.ingest(ctx, filepath.Join(w.dir, entry.Name()))
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.ingest(ctx, event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("Ingest watcher error", logger.ErrorField(err))
		}
	}
}

// ingest waits for the file to stop growing, uploads it to the blob store,
// inserts the track row, and removes the source file.
func (w *Watcher) ingest(ctx context.Context, path string) {
	ext := strings.ToLower(filepath.Ext(path))
	if !audioExtensions[ext] {
		return
	}

	size, err := w.waitStable(ctx, path)
	if err != nil {
		logger.Warn("Skipping ingest candidate", logger.String("path", path), logger.ErrorField(err))
		return
	}

	file, err := os.Open(path)
	if err != nil {
		logger.Error("Failed to open ingest file", logger.String("path", path), logger.ErrorField(err))
		return
	}
	defer file.Close()

	id := uuid.NewString()
	filename := id + ext
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := w.store.Put(ctx, filename, file, size, contentType); err != nil {
		logger.Error("Failed to store ingested audio", logger.String("path", path), logger.ErrorField(err))
		return
	}

	title := strings.TrimSuffix(filepath.Base(path), ext)
	track := &model.Track{UUID: id, Filename: filename, Title: title}
	if _, err := w.tracks.CreateTrack(ctx, track); err != nil {
		if errors.Is(err, repository.ErrDuplicateUUID) {
			track.UUID = uuid.NewString()
			_, err = w.tracks.CreateTrack(ctx, track)
		}
		if err != nil {
			logger.Error("Failed to register ingested track", logger.String("path", path), logger.ErrorField(err))
			return
		}
	}

	if err := os.Remove(path); err != nil {
		logger.Warn("Failed to remove ingested file", logger.String("path", path), logger.ErrorField(err))
	}
	logger.Info("Ingested track", logger.String("title", title), logger.String("uuid", track.UUID))
}

// waitStable polls until the file size stops changing, so half-copied files
// are not ingested.
func (w *Watcher) waitStable(ctx context.Context, path string) (int64, error) {
	var lastSize int64 = -1
	for i := 0; i < 20; i++ {
		info, err := os.Stat(path)
		if err != nil {
			return 0, err
		}
		if info.Size() == lastSize && info.Size() > 0 {
			return info.Size(), nil
		}
		lastSize = info.Size()
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
	return 0, fmt.Errorf("file %s did not stabilize", path)
}
