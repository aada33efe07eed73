// Package persist stores simulation state on disk: whole-world snapshots
// as versioned JSON documents and the world-event journal as append-only
// JSONL. Both guard their files with advisory locks so a running simulator
// and an inspect command can share a state directory.
package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/osada/npcmind/internal/config"
	"github.com/osada/npcmind/internal/logger"
	"github.com/osada/npcmind/pkg/npc"
	"github.com/osada/npcmind/pkg/types"
)

const (
	// DefaultFilePermissions is the default permissions for state files
	DefaultFilePermissions os.FileMode = 0600
	// DefaultDirPermissions is the default permissions for state directories
	DefaultDirPermissions os.FileMode = 0700

	// SnapshotVersion is the current snapshot document version
	SnapshotVersion = 1
	// SnapshotPrefix is the filename prefix for snapshot files
	SnapshotPrefix = "world-"
	// SnapshotExtension is the file extension for snapshot files
	SnapshotExtension = ".json"
	// LockFileExtension is the file extension for lock files
	LockFileExtension = ".lock"

	// snapshotStampLayout orders snapshot filenames chronologically when
	// sorted lexically
	snapshotStampLayout = "20060102T150405.000000000"
)

// Constants for file locking
const (
	// DefaultLockTimeout is the default timeout for acquiring a lock
	DefaultLockTimeout = 30 * time.Second
	// LockRetryInterval is the interval between lock acquisition retries
	LockRetryInterval = 100 * time.Millisecond
)

// WorldSnapshot is one saved world: the sim clock, the recent event tail,
// and every NPC's runtime state keyed by id. Definition-derived data stays
// in the roster file and is not duplicated here.
type WorldSnapshot struct {
	Version int                      `json:"version"`
	SavedAt time.Time                `json:"saved_at"`
	SimTime float64                  `json:"sim_time"`
	Events  []types.WorldEvent       `json:"events,omitempty"`
	NPCs    map[string]*npc.Snapshot `json:"npcs"`
}

// SnapshotStore writes and reads world snapshots in a state directory with
// atomic replace semantics and advisory file locking
type SnapshotStore struct {
	mu     sync.Mutex
	cfg    config.PersistenceConfig
	logger *logger.Logger
	closed bool
}

// fileLock represents an acquired file lock
type fileLock struct {
	file *os.File
	path string
}

// NewSnapshotStore creates a snapshot store rooted at the configured state
// directory, creating the directory if needed
func NewSnapshotStore(cfg config.PersistenceConfig, log *logger.Logger) (*SnapshotStore, error) {
	if log == nil {
		var err error
		log, err = logger.NewDefault()
		if err != nil {
			return nil, types.WrapError(types.ErrCodeInternal, "failed to create default logger", err)
		}
	}

	if err := os.MkdirAll(cfg.StateDir, DefaultDirPermissions); err != nil {
		return nil, types.WrapError(types.ErrCodeInternal, "failed to create state directory", err)
	}

	store := &SnapshotStore{
		cfg:    cfg,
		logger: log.With("component", "snapshot_store"),
	}

	store.logger.Info("snapshot store initialized",
		"state_dir", cfg.StateDir,
		"persistence_enabled", cfg.Enabled)

	return store, nil
}

// Close closes the store. Further saves and loads fail.
func (s *SnapshotStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.logger.Info("snapshot store closed")
	return nil
}

// IsClosed returns true if the store is closed
func (s *SnapshotStore) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// IsEnabled returns true if persistence is enabled
func (s *SnapshotStore) IsEnabled() bool {
	return s.cfg.Enabled
}

// lockPath is the shared lock file guarding the snapshot directory
func (s *SnapshotStore) lockPath() string {
	return filepath.Join(s.cfg.StateDir, "snapshots"+LockFileExtension)
}

// Save writes the snapshot as a new timestamped file, first to a temp file
// and then renamed into place so readers never observe a partial document.
// It returns the path written. Saves are silently skipped when persistence
// is disabled.
func (s *SnapshotStore) Save(snap *WorldSnapshot) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", types.NewError(types.ErrCodeUnavailable, "snapshot store is closed")
	}
	if snap == nil {
		return "", types.NewError(types.ErrCodeInvalidArgument, "snapshot is nil")
	}
	if !s.cfg.Enabled {
		return "", nil
	}

	if snap.Version == 0 {
		snap.Version = SnapshotVersion
	}
	if snap.SavedAt.IsZero() {
		snap.SavedAt = time.Now().UTC()
	}

	lock, err := acquireLock(s.lockPath(), syscall.LOCK_EX)
	if err != nil {
		return "", err
	}
	defer releaseLock(s.logger, lock)

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", types.WrapError(types.ErrCodeInternal, "failed to marshal snapshot", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.cfg.StateDir, ".world-*.tmp")
	if err != nil {
		return "", types.WrapError(types.ErrCodeInternal, "failed to create temp snapshot file", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", types.WrapError(types.ErrCodeInternal, "failed to write snapshot", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", types.WrapError(types.ErrCodeInternal, "failed to sync snapshot", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", types.WrapError(types.ErrCodeInternal, "failed to close temp snapshot file", err)
	}

	final := filepath.Join(s.cfg.StateDir,
		SnapshotPrefix+snap.SavedAt.UTC().Format(snapshotStampLayout)+SnapshotExtension)
	if err := os.Rename(tmpPath, final); err != nil {
		os.Remove(tmpPath)
		return "", types.WrapError(types.ErrCodeInternal, "failed to move snapshot into place", err)
	}

	s.logger.Info("snapshot saved", "path", final, "npcs", len(snap.NPCs), "sim_time", snap.SimTime)
	return final, nil
}

// Load reads one snapshot file and validates its version
func (s *SnapshotStore) Load(path string) (*WorldSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, types.NewError(types.ErrCodeUnavailable, "snapshot store is closed")
	}

	lock, err := acquireLock(s.lockPath(), syscall.LOCK_SH)
	if err != nil {
		return nil, err
	}
	defer releaseLock(s.logger, lock)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.WrapError(types.ErrCodeNotFound, fmt.Sprintf("snapshot not found: %s", path), err)
		}
		return nil, types.WrapError(types.ErrCodeInternal, "failed to read snapshot", err)
	}

	var snap WorldSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, types.WrapError(types.ErrCodeInvalid, "failed to parse snapshot", err)
	}
	if snap.Version > SnapshotVersion {
		return nil, types.NewError(types.ErrCodeInvalid,
			fmt.Sprintf("snapshot version %d is newer than supported %d", snap.Version, SnapshotVersion))
	}

	s.logger.Debug("snapshot loaded", "path", path, "npcs", len(snap.NPCs))
	return &snap, nil
}

// Latest returns the path of the newest snapshot in the state directory
func (s *SnapshotStore) Latest() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", types.NewError(types.ErrCodeUnavailable, "snapshot store is closed")
	}

	entries, err := os.ReadDir(s.cfg.StateDir)
	if err != nil {
		return "", types.WrapError(types.ErrCodeInternal, "failed to read state directory", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, SnapshotPrefix) && strings.HasSuffix(name, SnapshotExtension) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "", types.NewError(types.ErrCodeNotFound, "no snapshots in "+s.cfg.StateDir)
	}

	// The stamp layout makes lexical order chronological
	sort.Strings(names)
	return filepath.Join(s.cfg.StateDir, names[len(names)-1]), nil
}

// Stats returns statistics about the stored snapshots
func (s *SnapshotStore) Stats() (*StoreStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, types.NewError(types.ErrCodeUnavailable, "snapshot store is closed")
	}

	entries, err := os.ReadDir(s.cfg.StateDir)
	if err != nil {
		return nil, types.WrapError(types.ErrCodeInternal, "failed to read state directory", err)
	}

	stats := &StoreStats{StateDir: s.cfg.StateDir, Enabled: s.cfg.Enabled}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, SnapshotPrefix) && strings.HasSuffix(name, SnapshotExtension) {
			stats.Snapshots++
			if name > stats.latestName {
				stats.latestName = name
				stats.LatestPath = filepath.Join(s.cfg.StateDir, name)
			}
		}
	}
	return stats, nil
}

// StoreStats represents statistics about the snapshot store
type StoreStats struct {
	Snapshots  int    `json:"snapshots"`
	LatestPath string `json:"latest_path,omitempty"`
	StateDir   string `json:"state_dir"`
	Enabled    bool   `json:"enabled"`

	latestName string
}

// String returns a string representation of the stats
func (s *StoreStats) String() string {
	return fmt.Sprintf("StoreStats{Snapshots: %d, Latest: %s, StateDir: %s, Enabled: %v}",
		s.Snapshots, s.LatestPath, s.StateDir, s.Enabled)
}

// acquireLock attempts to acquire a file lock with the specified mode and
// retry logic
func acquireLock(lockPath string, lockMode int) (*fileLock, error) {
	if err := os.MkdirAll(filepath.Dir(lockPath), DefaultDirPermissions); err != nil {
		return nil, types.WrapError(types.ErrCodeInternal, "failed to create lock directory", err)
	}

	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_WRONLY, DefaultFilePermissions)
	if err != nil {
		return nil, types.WrapError(types.ErrCodeInternal, "failed to create lock file", err)
	}

	// First attempt without waiting for the ticker
	if err := syscall.Flock(int(lockFile.Fd()), lockMode|syscall.LOCK_NB); err == nil {
		return &fileLock{file: lockFile, path: lockPath}, nil
	}

	timeout := time.After(DefaultLockTimeout)
	ticker := time.NewTicker(LockRetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			lockFile.Close()
			lockType := "exclusive"
			if lockMode&syscall.LOCK_SH != 0 {
				lockType = "shared"
			}
			return nil, types.NewError(types.ErrCodeUnavailable,
				fmt.Sprintf("timeout after %s waiting to acquire %s file lock on %s", DefaultLockTimeout, lockType, lockPath))
		case <-ticker.C:
			if err := syscall.Flock(int(lockFile.Fd()), lockMode|syscall.LOCK_NB); err == nil {
				return &fileLock{file: lockFile, path: lockPath}, nil
			}
			// Lock is held by another process, continue retrying
		}
	}
}

// releaseLock releases a file lock
func releaseLock(log *logger.Logger, lock *fileLock) {
	if lock == nil || lock.file == nil {
		return
	}
	if err := syscall.Flock(int(lock.file.Fd()), syscall.LOCK_UN); err != nil {
		log.Warn("failed to release file lock", "path", lock.path, "error", err)
	}
	if err := lock.file.Close(); err != nil {
		log.Warn("failed to close lock file", "path", lock.path, "error", err)
	}
}
