package drop

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"wsdrop/pkg/types"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// TaskMaker describes a dropped path as a task
type TaskMaker interface {
	NewTask(filePath string) (types.Task, error)
}

// Enqueuer accepts dropped tasks
type Enqueuer interface {
	Enqueue(task types.Task)
}

// Watcher turns files placed into a directory into queued tasks. A file is
// taken once it has seen no write for the settle period, so copies still in
// progress are not picked up half written.
type Watcher struct {
	dir    string
	settle time.Duration
	maker  TaskMaker
	queue  Enqueuer

	mu      sync.Mutex
	pending map[string]*settleTimer
}

// settleTimer is one armed settle period. A path is re-armed with a new
// settleTimer, so a stale one that already fired can tell it was replaced.
type settleTimer struct {
	timer *time.Timer
}

func NewWatcher(dir string, settle time.Duration, maker TaskMaker, queue Enqueuer) *Watcher {
	return &Watcher{
		dir:     dir,
		settle:  settle,
		maker:   maker,
		queue:   queue,
		pending: make(map[string]*settleTimer),
	}
}

// Run watches the directory until ctx is done. Files already present are
// not uploaded.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	log.Info().Str("dir", w.dir).Msg("watching drop directory")

	defer w.stopPending()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				w.schedule(filepath.Clean(event.Name))
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.cancel(filepath.Clean(event.Name))
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("drop watcher error")
		}
	}
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if old, ok := w.pending[path]; ok {
		old.timer.Stop()
	}
	st := &settleTimer{}
	st.timer = time.AfterFunc(w.settle, func() { w.take(path, st) })
	w.pending[path] = st
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if st, ok := w.pending[path]; ok {
		st.timer.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) take(path string, st *settleTimer) {
	w.mu.Lock()
	if w.pending[path] != st {
		// cancelled, or re-armed by a later write
		w.mu.Unlock()
		return
	}
	delete(w.pending, path)
	w.mu.Unlock()

	task, err := w.maker.NewTask(path)
	if err != nil {
		// directories and vanished files are not uploads
		log.Debug().Err(err).Str("path", path).Msg("ignoring drop")
		return
	}
	log.Info().Str("file", task.Name).Int64("size", task.Size).Msg("file dropped")
	w.queue.Enqueue(task)
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, st := range w.pending {
		st.timer.Stop()
		delete(w.pending, path)
	}
}
