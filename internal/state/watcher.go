package state

import (
	"fmt"
	"ftpsched/internal/logger"
	"ftpsched/internal/model"
	"ftpsched/internal/pipeline"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const reloadDelay = 200 * time.Millisecond

// Watcher reloads the state file when something other than this process
// edits it. The parent directory is watched because saves replace the file
// by rename.
type Watcher struct {
	file     *File
	fw       *fsnotify.Watcher
	eventCh  chan model.FileEvent
	doneCh   chan struct{}
	finished chan struct{}
	onChange func(model.State)
}

func NewWatcher(file *File, onChange func(model.State)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Watcher{
		file:     file,
		fw:       fw,
		eventCh:  make(chan model.FileEvent, 16),
		doneCh:   make(chan struct{}),
		finished: make(chan struct{}),
		onChange: onChange,
	}, nil
}

func (w *Watcher) Start() error {
	dir := filepath.Dir(w.file.Path())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}

	if err := w.fw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	go w.run()
	go w.reload(pipeline.Debounce(w.eventCh, reloadDelay))

	logger.Log.Info("state watcher started",
		zap.String("path", w.file.Path()))
	return nil
}

func (w *Watcher) Stop() {
	close(w.doneCh)
	_ = w.fw.Close()
	<-w.finished
}

func (w *Watcher) run() {
	defer close(w.eventCh)

	target := filepath.Clean(w.file.Path())
	for {
		select {
		case <-w.doneCh:
			return

		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target || !(ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write)) {
				continue
			}

			typ := model.EventWrite
			if ev.Op.Has(fsnotify.Create) {
				typ = model.EventCreate
			}

			select {
			case w.eventCh <- model.FileEvent{Type: typ, Path: ev.Name, Timestamp: time.Now()}:
			default:
				logger.Log.Debug("state watcher busy, dropping event",
					zap.String("path", ev.Name))
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			logger.Log.Error("state watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload(events <-chan model.FileEvent) {
	defer close(w.finished)

	for ev := range events {
		data, err := os.ReadFile(ev.Path)
		if err != nil {
			logger.Log.Warn("failed to read changed state file",
				zap.String("path", ev.Path),
				zap.Error(err))
			continue
		}

		if w.file.IsOwnWrite(data) {
			continue
		}

		st, err := Decode(data)
		if err != nil {
			logger.Log.Warn("ignoring invalid state file edit",
				zap.String("path", ev.Path),
				zap.Error(err))
			continue
		}

		w.file.remember(data)
		logger.Log.Info("state file changed externally, reloading",
			zap.String("path", ev.Path),
			zap.Int("endpoints", len(st.Endpoints)))
		w.onChange(st)
	}
}
