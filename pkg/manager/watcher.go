package manager

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/osada/npcmind/internal/config"
	"github.com/osada/npcmind/internal/logger"
	"github.com/osada/npcmind/pkg/types"
)

// rosterWatcher fires onChange when the roster file changes on disk.
// Editors and config tools replace files rather than writing in place, so
// the parent directory is watched and events are filtered by name. Rapid
// event bursts collapse into one trigger per debounce window.
type rosterWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	onChange func()
	logger   *logger.Logger

	stopCh   chan struct{}
	stopOnce sync.Once

	mu           sync.Mutex
	pendingTimer *time.Timer
}

func newRosterWatcher(path string, debounce time.Duration, onChange func(), log *logger.Logger) (*rosterWatcher, error) {
	if debounce <= 0 {
		debounce = config.DefaultWatchDebounce
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, types.WrapError(types.ErrCodeInvalidArgument, "failed to resolve roster path", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, types.WrapError(types.ErrCodeInternal, "failed to create file watcher", err)
	}

	w := &rosterWatcher{
		watcher:  fsw,
		path:     abs,
		debounce: debounce,
		onChange: onChange,
		logger:   log.With("component", "roster_watcher"),
		stopCh:   make(chan struct{}),
	}

	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, types.WrapError(types.ErrCodeInternal, "failed to watch roster directory", err)
	}

	go w.run()
	return w, nil
}

func (w *rosterWatcher) run() {
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("roster watcher error", "error", err)
		}
	}
}

func (w *rosterWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pendingTimer != nil {
		w.pendingTimer.Stop()
	}
	w.pendingTimer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		w.pendingTimer = nil
		w.mu.Unlock()

		select {
		case <-w.stopCh:
			return
		default:
		}
		w.onChange()
	})
}

func (w *rosterWatcher) stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})

	w.mu.Lock()
	if w.pendingTimer != nil {
		w.pendingTimer.Stop()
		w.pendingTimer = nil
	}
	w.mu.Unlock()

	if err := w.watcher.Close(); err != nil {
		w.logger.Warn("failed to close file watcher", "error", err)
	}
}

// WatchRoster reloads the roster file whenever it changes, spawning NPCs
// newly added to it. Watching stops on Close.
func (m *Manager) WatchRoster(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return types.NewError(types.ErrCodeUnavailable, "npc manager is closed")
	}
	if m.watcher != nil {
		return types.NewError(types.ErrCodeAlreadyExists, "roster watch already active")
	}

	w, err := newRosterWatcher(path, m.cfg.Roster.WatchDebounce, func() {
		if added, err := m.LoadRoster(path); err != nil {
			m.logger.Error("roster reload failed", "path", path, "error", err)
		} else if added > 0 {
			m.logger.Info("roster reloaded", "path", path, "spawned", added)
		}
	}, m.baseLog)
	if err != nil {
		return err
	}

	m.watcher = w
	m.logger.Info("watching roster", "path", path, "debounce", m.cfg.Roster.WatchDebounce.String())
	return nil
}
