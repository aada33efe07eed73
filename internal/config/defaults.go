package config

import (
	"os"
	"path/filepath"
	"time"
)

// testConfigPath is an override for the default config path used in testing
// If set, GetDefaultConfigPath will return this value instead of the standard path
var testConfigPath string

// SetTestConfigPath sets a custom config path for testing purposes
// This should only be called from tests
func SetTestConfigPath(path string) {
	testConfigPath = path
}

// GetConfigDir returns the npcmind configuration directory
// Uses ~/.config/npcmind/ on Unix systems
func GetConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "npcmind"), nil
}

// GetDefaultConfigPath returns the default config file path
func GetDefaultConfigPath() (string, error) {
	// If test config path is set, use it
	if testConfigPath != "" {
		return testConfigPath, nil
	}

	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

const (
	// Environment variable names
	EnvLogLevel         = "LOG_LEVEL"
	EnvLogFormat        = "LOG_FORMAT"
	EnvLogOutput        = "LOG_OUTPUT"
	EnvTickInterval     = "TICK_INTERVAL"
	EnvTimeScale        = "TIME_SCALE"
	EnvStartHour        = "START_HOUR"
	EnvSimSeed          = "SIM_SEED"
	EnvEpisodicCapacity = "EPISODIC_CAPACITY"
	EnvStateDir         = "STATE_DIR"
	EnvRosterPath       = "ROSTER_PATH"
)

const (
	// Default Logging settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogOutput = "stdout"

	// Default Simulation settings
	DefaultTickInterval = 1 * time.Second
	DefaultTimeScale    = 60.0
	DefaultStartHour    = 7

	// Default Memory settings
	DefaultEpisodicCapacity      = 1000
	DefaultConsolidationInterval = 1800.0
	DefaultMemoryDecayRate       = 0.001

	// Default Behavior settings
	DefaultScheduleVariation = 0.1
	DefaultDialogueCooldown  = 300.0
	DefaultNapCooldown       = 7200.0
	DefaultWorkBreakCooldown = 3600.0

	// Default Persistence settings
	DefaultStateDir         = "" // Will be set to ~/.config/npcmind/state via GetConfigDir()
	DefaultAutosaveInterval = 5 * time.Minute

	// Default Roster settings
	DefaultWatchDebounce = 500 * time.Millisecond
)

// DefaultLoggingConfig returns the default logging configuration
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:  DefaultLogLevel,
		Format: DefaultLogFormat,
		Output: DefaultLogOutput,
	}
}

// DefaultSimulationConfig returns the default simulation configuration
func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{
		TickInterval: DefaultTickInterval,
		TimeScale:    DefaultTimeScale,
		StartHour:    DefaultStartHour,
		Seed:         0,
	}
}

// DefaultMemoryConfig returns the default memory configuration
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		EpisodicCapacity:      DefaultEpisodicCapacity,
		ConsolidationInterval: DefaultConsolidationInterval,
		DecayRate:             DefaultMemoryDecayRate,
	}
}

// DefaultBehaviorConfig returns the default behavior configuration
func DefaultBehaviorConfig() BehaviorConfig {
	return BehaviorConfig{
		ScheduleVariation: DefaultScheduleVariation,
		DialogueCooldown:  DefaultDialogueCooldown,
		NapCooldown:       DefaultNapCooldown,
		WorkBreakCooldown: DefaultWorkBreakCooldown,
	}
}

// DefaultPersistenceConfig returns the default persistence configuration
func DefaultPersistenceConfig() PersistenceConfig {
	stateDir := DefaultStateDir
	if stateDir == "" {
		if configDir, err := GetConfigDir(); err == nil {
			stateDir = filepath.Join(configDir, "state")
		}
	}

	return PersistenceConfig{
		Enabled:          false,
		StateDir:         stateDir,
		JournalEnabled:   false,
		JournalPath:      "",
		AutosaveInterval: DefaultAutosaveInterval,
	}
}

// DefaultRosterConfig returns the default roster configuration
func DefaultRosterConfig() RosterConfig {
	return RosterConfig{
		Path:          "",
		Watch:         false,
		WatchDebounce: DefaultWatchDebounce,
	}
}
