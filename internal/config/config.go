package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/osada/npcmind/pkg/types"
)

// Config represents the complete configuration for the simulator
type Config struct {
	Logging     LoggingConfig     `json:"logging" yaml:"logging"`
	Simulation  SimulationConfig  `json:"simulation" yaml:"simulation"`
	Memory      MemoryConfig      `json:"memory" yaml:"memory"`
	Behavior    BehaviorConfig    `json:"behavior" yaml:"behavior"`
	Persistence PersistenceConfig `json:"persistence" yaml:"persistence"`
	Roster      RosterConfig      `json:"roster" yaml:"roster"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // json, text
	Output string `json:"output" yaml:"output"` // stdout, stderr, file path
}

// SimulationConfig contains simulation clock configuration
type SimulationConfig struct {
	TickInterval time.Duration `json:"tick_interval" yaml:"tick_interval"`
	TimeScale    float64       `json:"time_scale" yaml:"time_scale"` // sim seconds per real second
	StartHour    int           `json:"start_hour" yaml:"start_hour"` // in-world hour at startup, 0-23
	Seed         int64         `json:"seed" yaml:"seed"`             // 0 means time-derived
}

// MemoryConfig contains memory system tuning
type MemoryConfig struct {
	EpisodicCapacity      int     `json:"episodic_capacity" yaml:"episodic_capacity"`
	ConsolidationInterval float64 `json:"consolidation_interval" yaml:"consolidation_interval"` // sim seconds
	DecayRate             float64 `json:"decay_rate" yaml:"decay_rate"`
}

// BehaviorConfig contains behavior tree tuning
type BehaviorConfig struct {
	ScheduleVariation float64 `json:"schedule_variation" yaml:"schedule_variation"` // chance to skip a schedule slot
	DialogueCooldown  float64 `json:"dialogue_cooldown" yaml:"dialogue_cooldown"`   // sim seconds per dialogue entry
	NapCooldown       float64 `json:"nap_cooldown" yaml:"nap_cooldown"`             // sim seconds between power naps
	WorkBreakCooldown float64 `json:"work_break_cooldown" yaml:"work_break_cooldown"` // sim seconds between work breaks
}

// PersistenceConfig contains state persistence configuration
type PersistenceConfig struct {
	Enabled          bool          `json:"enabled" yaml:"enabled"`
	StateDir         string        `json:"state_dir" yaml:"state_dir"`
	JournalEnabled   bool          `json:"journal_enabled" yaml:"journal_enabled"`
	JournalPath      string        `json:"journal_path,omitempty" yaml:"journal_path,omitempty"`
	AutosaveInterval time.Duration `json:"autosave_interval" yaml:"autosave_interval"`
}

// RosterConfig contains NPC roster loading configuration
type RosterConfig struct {
	Path          string        `json:"path,omitempty" yaml:"path,omitempty"`
	Watch         bool          `json:"watch" yaml:"watch"`
	WatchDebounce time.Duration `json:"watch_debounce" yaml:"watch_debounce"`
}

// applyDefaults fills in default values for any unset configuration fields
func applyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = DefaultLogOutput
	}

	if cfg.Simulation.TickInterval == 0 {
		cfg.Simulation.TickInterval = DefaultTickInterval
	}
	if cfg.Simulation.TimeScale == 0 {
		cfg.Simulation.TimeScale = DefaultTimeScale
	}

	if cfg.Memory.EpisodicCapacity == 0 {
		cfg.Memory.EpisodicCapacity = DefaultEpisodicCapacity
	}
	if cfg.Memory.ConsolidationInterval == 0 {
		cfg.Memory.ConsolidationInterval = DefaultConsolidationInterval
	}
	if cfg.Memory.DecayRate == 0 {
		cfg.Memory.DecayRate = DefaultMemoryDecayRate
	}

	if cfg.Behavior.ScheduleVariation == 0 {
		cfg.Behavior.ScheduleVariation = DefaultScheduleVariation
	}
	if cfg.Behavior.DialogueCooldown == 0 {
		cfg.Behavior.DialogueCooldown = DefaultDialogueCooldown
	}
	if cfg.Behavior.NapCooldown == 0 {
		cfg.Behavior.NapCooldown = DefaultNapCooldown
	}
	if cfg.Behavior.WorkBreakCooldown == 0 {
		cfg.Behavior.WorkBreakCooldown = DefaultWorkBreakCooldown
	}

	if cfg.Persistence.StateDir == "" {
		cfg.Persistence.StateDir = DefaultPersistenceConfig().StateDir
	}
	if cfg.Persistence.AutosaveInterval == 0 {
		cfg.Persistence.AutosaveInterval = DefaultAutosaveInterval
	}

	if cfg.Roster.WatchDebounce == 0 {
		cfg.Roster.WatchDebounce = DefaultWatchDebounce
	}
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv(EnvLogOutput); v != "" {
		cfg.Logging.Output = v
	}
	if v := os.Getenv(EnvTickInterval); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Simulation.TickInterval = d
		}
	}
	if v := os.Getenv(EnvTimeScale); v != "" {
		if scale, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Simulation.TimeScale = scale
		}
	}
	if v := os.Getenv(EnvStartHour); v != "" {
		if hour, err := strconv.Atoi(v); err == nil {
			cfg.Simulation.StartHour = hour
		}
	}
	if v := os.Getenv(EnvSimSeed); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Simulation.Seed = seed
		}
	}
	if v := os.Getenv(EnvEpisodicCapacity); v != "" {
		if capacity, err := strconv.Atoi(v); err == nil {
			cfg.Memory.EpisodicCapacity = capacity
		}
	}
	if v := os.Getenv(EnvStateDir); v != "" {
		cfg.Persistence.StateDir = v
	}
	if v := os.Getenv(EnvRosterPath); v != "" {
		cfg.Roster.Path = v
	}

	return nil
}

// Load creates a new Config from the given path, falling back to the default
// config file if path is empty, and to built-in defaults if neither exists.
// Environment variable overrides are applied after loading.
func Load(path string) (*Config, error) {
	var cfg *Config

	if path != "" {
		loaded, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		// Try the default config file if it exists
		configPath, err := GetDefaultConfigPath()
		if err == nil {
			if _, statErr := os.Stat(configPath); statErr == nil {
				loaded, loadErr := LoadFromFile(configPath)
				if loadErr != nil {
					return nil, loadErr
				}
				cfg = loaded
			} else if !os.IsNotExist(statErr) {
				return nil, fmt.Errorf("failed to check config file: %w", statErr)
			}
		}
	}

	// If no config was loaded from file, use defaults
	if cfg == nil {
		cfg = &Config{
			Logging:     DefaultLoggingConfig(),
			Simulation:  DefaultSimulationConfig(),
			Memory:      DefaultMemoryConfig(),
			Behavior:    DefaultBehaviorConfig(),
			Persistence: DefaultPersistenceConfig(),
			Roster:      DefaultRosterConfig(),
		}
	}

	// Apply environment variable overrides
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for validity
func (c *Config) Validate() error {
	// Validate Logging configuration
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return types.NewError(types.ErrCodeInvalidArgument,
			fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level))
	}
	validLogFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return types.NewError(types.ErrCodeInvalidArgument,
			fmt.Sprintf("invalid log format: %s (must be json or text)", c.Logging.Format))
	}

	// Validate Simulation configuration
	if c.Simulation.TickInterval <= 0 {
		return types.NewError(types.ErrCodeInvalidArgument, "simulation tick interval must be positive")
	}
	if c.Simulation.TimeScale <= 0 {
		return types.NewError(types.ErrCodeInvalidArgument, "simulation time scale must be positive")
	}
	if c.Simulation.StartHour < 0 || c.Simulation.StartHour > 23 {
		return types.NewError(types.ErrCodeInvalidArgument, "simulation start hour must be between 0 and 23")
	}

	// Validate Memory configuration
	if c.Memory.EpisodicCapacity <= 0 {
		return types.NewError(types.ErrCodeInvalidArgument, "episodic capacity must be positive")
	}
	if c.Memory.ConsolidationInterval <= 0 {
		return types.NewError(types.ErrCodeInvalidArgument, "consolidation interval must be positive")
	}
	if c.Memory.DecayRate < 0 || c.Memory.DecayRate > 1 {
		return types.NewError(types.ErrCodeInvalidArgument, "memory decay rate must be between 0 and 1")
	}

	// Validate Behavior configuration
	if c.Behavior.ScheduleVariation < 0 || c.Behavior.ScheduleVariation > 1 {
		return types.NewError(types.ErrCodeInvalidArgument, "schedule variation must be between 0 and 1")
	}
	if c.Behavior.DialogueCooldown < 0 {
		return types.NewError(types.ErrCodeInvalidArgument, "dialogue cooldown cannot be negative")
	}
	if c.Behavior.NapCooldown < 0 {
		return types.NewError(types.ErrCodeInvalidArgument, "nap cooldown cannot be negative")
	}
	if c.Behavior.WorkBreakCooldown < 0 {
		return types.NewError(types.ErrCodeInvalidArgument, "work break cooldown cannot be negative")
	}

	// Validate Persistence configuration
	if c.Persistence.Enabled {
		if c.Persistence.StateDir == "" {
			return types.NewError(types.ErrCodeInvalidArgument, "state dir cannot be empty when persistence is enabled")
		}
		if c.Persistence.AutosaveInterval <= 0 {
			return types.NewError(types.ErrCodeInvalidArgument, "autosave interval must be positive when persistence is enabled")
		}
	}
	if c.Persistence.JournalEnabled && c.Persistence.JournalPath == "" {
		return types.NewError(types.ErrCodeInvalidArgument, "journal path cannot be empty when the journal is enabled")
	}

	// Validate Roster configuration
	if c.Roster.Watch && c.Roster.Path == "" {
		return types.NewError(types.ErrCodeInvalidArgument, "roster path cannot be empty when roster watching is enabled")
	}

	return nil
}

// String returns a human-readable summary of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{logging: %s/%s, tick: %s, time_scale: %.0fx, episodic_capacity: %d, persistence: %t, roster: %q}",
		c.Logging.Level, c.Logging.Format,
		c.Simulation.TickInterval, c.Simulation.TimeScale,
		c.Memory.EpisodicCapacity,
		c.Persistence.Enabled,
		c.Roster.Path)
}
