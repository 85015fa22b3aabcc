package ingest

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const debounceDelay = 500 * time.Millisecond

// WatcherStatus is the watcher state reported by the health endpoint.
type WatcherStatus struct {
	Status         string `json:"status"`
	WatchDir       string `json:"watch_dir"`
	FilesProcessed int64  `json:"files_processed"`
	FilesSkipped   int64  `json:"files_skipped"`
}

// FileWatcher monitors a drop directory for new WAV files and runs them
// through the processor. This is the hands-off alternative to the HTTP
// upload endpoint.
type FileWatcher struct {
	processor  *Processor
	watchDir   string
	archiveDir string
	log        zerolog.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	watcher *fsnotify.Watcher

	// Debounce: coalesce rapid Create+Write events on the same file.
	debounceMu     sync.Mutex
	debounceTimers map[string]*time.Timer

	filesProcessed atomic.Int64
	filesSkipped   atomic.Int64
	status         atomic.Value // string: "starting", "backfilling", "watching", "stopped"
}

// NewFileWatcher creates a watcher over watchDir. Processed files move to
// archiveDir when set.
func NewFileWatcher(processor *Processor, watchDir, archiveDir string, log zerolog.Logger) *FileWatcher {
	fw := &FileWatcher{
		processor:      processor,
		watchDir:       watchDir,
		archiveDir:     archiveDir,
		log:            log.With().Str("component", "watcher").Logger(),
		debounceTimers: make(map[string]*time.Timer),
	}
	fw.status.Store("starting")
	return fw
}

// Start initializes the fsnotify watcher, adds existing directories, and
// begins watching. Files already sitting in the watch directory are
// backfilled in a background goroutine, oldest first.
func (fw *FileWatcher) Start(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	fw.watcher = w
	fw.ctx, fw.cancel = context.WithCancel(ctx)

	dirCount := 0
	err = filepath.WalkDir(fw.watchDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			fw.log.Warn().Err(err).Str("path", path).Msg("error walking directory")
			return nil // continue walking
		}
		if d.IsDir() {
			if addErr := w.Add(path); addErr != nil {
				fw.log.Warn().Err(addErr).Str("path", path).Msg("failed to watch directory")
			} else {
				dirCount++
			}
		}
		return nil
	})
	if err != nil {
		w.Close()
		return err
	}

	fw.log.Info().
		Int("directories", dirCount).
		Str("watch_dir", fw.watchDir).
		Msg("file watcher initialized")

	go fw.watchLoop()
	go fw.backfill()

	return nil
}

// Stop closes the fsnotify watcher and cancels in-flight processing.
func (fw *FileWatcher) Stop() {
	fw.status.Store("stopped")
	if fw.watcher != nil {
		fw.watcher.Close()
	}
	if fw.cancel != nil {
		fw.cancel()
	}
	fw.log.Info().
		Int64("files_processed", fw.filesProcessed.Load()).
		Int64("files_skipped", fw.filesSkipped.Load()).
		Msg("file watcher stopped")
}

// Status returns the current watcher state for the health endpoint.
func (fw *FileWatcher) Status() *WatcherStatus {
	s, _ := fw.status.Load().(string)
	return &WatcherStatus{
		Status:         s,
		WatchDir:       fw.watchDir,
		FilesProcessed: fw.filesProcessed.Load(),
		FilesSkipped:   fw.filesSkipped.Load(),
	}
}

// watchLoop is the main event loop that processes fsnotify events.
func (fw *FileWatcher) watchLoop() {
	for {
		select {
		case <-fw.ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}

			// New directory: add it to the watch set so we catch files in
			// nested drop directories.
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if err := fw.watcher.Add(event.Name); err != nil {
					fw.log.Warn().Err(err).Str("path", event.Name).Msg("failed to watch new directory")
				} else {
					fw.log.Debug().Str("path", event.Name).Msg("watching new directory")
				}
				continue
			}

			if !isWavPath(event.Name) {
				continue
			}

			fw.scheduleProcess(event.Name)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.log.Error().Err(err).Msg("fsnotify error")
		}
	}
}

// scheduleProcess debounces file processing. This coalesces rapid
// Create+Write events and ensures the file is fully written before reading.
func (fw *FileWatcher) scheduleProcess(path string) {
	fw.debounceMu.Lock()
	defer fw.debounceMu.Unlock()

	if t, ok := fw.debounceTimers[path]; ok {
		t.Reset(debounceDelay)
		return
	}

	fw.debounceTimers[path] = time.AfterFunc(debounceDelay, func() {
		fw.debounceMu.Lock()
		delete(fw.debounceTimers, path)
		fw.debounceMu.Unlock()

		fw.processFile(path)
	})
}

func (fw *FileWatcher) processFile(path string) {
	if fw.ctx.Err() != nil {
		return
	}
	if _, _, err := fw.processor.ProcessFile(fw.ctx, path, fw.archiveDir); err != nil {
		fw.log.Warn().Err(err).Str("path", path).Msg("failed to process watched file")
		fw.filesSkipped.Add(1)
		return
	}
	fw.filesProcessed.Add(1)
}

// backfill scans the watch directory for WAV files that arrived before the
// watcher started, oldest first by modification time.
func (fw *FileWatcher) backfill() {
	fw.status.Store("backfilling")
	start := time.Now()

	type fileEntry struct {
		path    string
		modTime time.Time
	}
	var files []fileEntry

	_ = filepath.WalkDir(fw.watchDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !isWavPath(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, fileEntry{path: path, modTime: info.ModTime()})
		return nil
	})

	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.Before(files[j].modTime)
	})

	for _, f := range files {
		if fw.ctx.Err() != nil {
			return
		}
		fw.processFile(f.path)
	}

	fw.status.Store("watching")
	if len(files) > 0 {
		fw.log.Info().
			Int("files", len(files)).
			Dur("elapsed", time.Since(start)).
			Msg("backfill complete")
	}
}

func isWavPath(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".wav")
}
