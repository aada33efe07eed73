package persist

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/osada/npcmind/internal/logger"
	"github.com/osada/npcmind/pkg/types"
)

// EventJournal appends world events to a JSONL file, one event per line.
// The journal survives crashes between snapshots: replaying it over the
// last snapshot reconstructs the event history.
type EventJournal struct {
	mu     sync.Mutex
	path   string
	logger *logger.Logger
	closed bool
}

// NewEventJournal opens a journal at the given path, creating the parent
// directory if needed
func NewEventJournal(path string, log *logger.Logger) (*EventJournal, error) {
	if log == nil {
		var err error
		log, err = logger.NewDefault()
		if err != nil {
			return nil, types.WrapError(types.ErrCodeInternal, "failed to create default logger", err)
		}
	}
	if path == "" {
		return nil, types.NewError(types.ErrCodeInvalidArgument, "journal path is empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), DefaultDirPermissions); err != nil {
		return nil, types.WrapError(types.ErrCodeInternal, "failed to create journal directory", err)
	}

	return &EventJournal{
		path:   path,
		logger: log.With("component", "event_journal"),
	}, nil
}

// Path returns the journal file path
func (j *EventJournal) Path() string {
	return j.path
}

// Close closes the journal. Further appends fail.
func (j *EventJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}
	j.closed = true
	return nil
}

// Append writes one event to the journal
func (j *EventJournal) Append(ev types.WorldEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return types.NewError(types.ErrCodeUnavailable, "event journal is closed")
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return types.WrapError(types.ErrCodeInternal, "failed to marshal event", err)
	}
	data = append(data, '\n')

	lock, err := acquireLock(j.path+LockFileExtension, syscall.LOCK_EX)
	if err != nil {
		return err
	}
	defer releaseLock(j.logger, lock)

	file, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, DefaultFilePermissions)
	if err != nil {
		return types.WrapError(types.ErrCodeInternal, "failed to open journal file", err)
	}
	defer file.Close()

	if _, err := file.Write(data); err != nil {
		return types.WrapError(types.ErrCodeInternal, "failed to append to journal", err)
	}
	if err := file.Sync(); err != nil {
		return types.WrapError(types.ErrCodeInternal, "failed to sync journal", err)
	}
	return nil
}

// Replay calls fn for each journaled event in append order. Corrupt lines
// are skipped with a warning. Replay stops at the first error fn returns.
func (j *EventJournal) Replay(fn func(types.WorldEvent) error) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return types.NewError(types.ErrCodeUnavailable, "event journal is closed")
	}

	lock, err := acquireLock(j.path+LockFileExtension, syscall.LOCK_SH)
	if err != nil {
		return err
	}
	defer releaseLock(j.logger, lock)

	data, err := os.ReadFile(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return types.WrapError(types.ErrCodeInternal, "failed to read journal", err)
	}

	for _, line := range splitLines(data) {
		var ev types.WorldEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			j.logger.Warn("skipping corrupt journal line", "path", j.path, "error", err)
			continue
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
	return nil
}

// splitLines splits data into non-empty lines
func splitLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			if i > start {
				lines = append(lines, data[start:i])
			}
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, data[start:])
	}
	return lines
}
