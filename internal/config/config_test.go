package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/osada/npcmind/pkg/types"
)

// TestConfigPrecedence verifies defaults < file < environment ordering
func TestConfigPrecedence(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
logging:
  level: warn
simulation:
  time_scale: 120
  start_hour: 9
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Run("file over defaults", func(t *testing.T) {
		cfg, err := Load(configPath)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Logging.Level != "warn" {
			t.Errorf("Logging.Level = %v, want warn", cfg.Logging.Level)
		}
		if cfg.Simulation.TimeScale != 120 {
			t.Errorf("Simulation.TimeScale = %v, want 120", cfg.Simulation.TimeScale)
		}
		// Unset fields fall back to defaults
		if cfg.Logging.Format != DefaultLogFormat {
			t.Errorf("Logging.Format = %v, want %v", cfg.Logging.Format, DefaultLogFormat)
		}
		if cfg.Memory.EpisodicCapacity != DefaultEpisodicCapacity {
			t.Errorf("Memory.EpisodicCapacity = %v, want %v", cfg.Memory.EpisodicCapacity, DefaultEpisodicCapacity)
		}
	})

	t.Run("env over file", func(t *testing.T) {
		t.Setenv(EnvLogLevel, "error")
		t.Setenv(EnvTimeScale, "240")

		cfg, err := Load(configPath)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Logging.Level != "error" {
			t.Errorf("Logging.Level = %v, want error", cfg.Logging.Level)
		}
		if cfg.Simulation.TimeScale != 240 {
			t.Errorf("Simulation.TimeScale = %v, want 240", cfg.Simulation.TimeScale)
		}
		// File still wins over defaults for untouched fields
		if cfg.Simulation.StartHour != 9 {
			t.Errorf("Simulation.StartHour = %v, want 9", cfg.Simulation.StartHour)
		}
	})

	t.Run("defaults when no file", func(t *testing.T) {
		SetTestConfigPath(filepath.Join(tmpDir, "does-not-exist.yaml"))
		defer SetTestConfigPath("")

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Logging.Level != DefaultLogLevel {
			t.Errorf("Logging.Level = %v, want %v", cfg.Logging.Level, DefaultLogLevel)
		}
		if cfg.Simulation.TickInterval != DefaultTickInterval {
			t.Errorf("Simulation.TickInterval = %v, want %v", cfg.Simulation.TickInterval, DefaultTickInterval)
		}
	})
}

// TestValidate exercises the validation rules for each section
func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Logging:     DefaultLoggingConfig(),
			Simulation:  DefaultSimulationConfig(),
			Memory:      DefaultMemoryConfig(),
			Behavior:    DefaultBehaviorConfig(),
			Persistence: DefaultPersistenceConfig(),
			Roster:      DefaultRosterConfig(),
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid defaults",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: true,
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: true,
		},
		{
			name:    "zero tick interval",
			mutate:  func(c *Config) { c.Simulation.TickInterval = 0 },
			wantErr: true,
		},
		{
			name:    "negative time scale",
			mutate:  func(c *Config) { c.Simulation.TimeScale = -1 },
			wantErr: true,
		},
		{
			name:    "start hour out of range",
			mutate:  func(c *Config) { c.Simulation.StartHour = 24 },
			wantErr: true,
		},
		{
			name:    "zero episodic capacity",
			mutate:  func(c *Config) { c.Memory.EpisodicCapacity = 0 },
			wantErr: true,
		},
		{
			name:    "decay rate above one",
			mutate:  func(c *Config) { c.Memory.DecayRate = 1.5 },
			wantErr: true,
		},
		{
			name:    "schedule variation above one",
			mutate:  func(c *Config) { c.Behavior.ScheduleVariation = 2 },
			wantErr: true,
		},
		{
			name: "persistence enabled without state dir",
			mutate: func(c *Config) {
				c.Persistence.Enabled = true
				c.Persistence.StateDir = ""
			},
			wantErr: true,
		},
		{
			name: "journal enabled without path",
			mutate: func(c *Config) {
				c.Persistence.JournalEnabled = true
				c.Persistence.JournalPath = ""
			},
			wantErr: true,
		},
		{
			name: "roster watch without path",
			mutate: func(c *Config) {
				c.Roster.Watch = true
				c.Roster.Path = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && err != nil {
				if !types.IsErrCode(err, types.ErrCodeInvalidArgument) {
					t.Errorf("Validate() error code = %v, want %v", types.GetErrorCode(err), types.ErrCodeInvalidArgument)
				}
			}
		})
	}
}

// TestApplyDefaults verifies zero values are filled without clobbering set ones
func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.Simulation.TimeScale = 30
	cfg.Memory.EpisodicCapacity = 250

	applyDefaults(cfg)

	if cfg.Logging.Level != DefaultLogLevel {
		t.Errorf("Logging.Level = %v, want %v", cfg.Logging.Level, DefaultLogLevel)
	}
	if cfg.Simulation.TickInterval != DefaultTickInterval {
		t.Errorf("Simulation.TickInterval = %v, want %v", cfg.Simulation.TickInterval, DefaultTickInterval)
	}
	if cfg.Simulation.TimeScale != 30 {
		t.Errorf("Simulation.TimeScale = %v, want 30 (should not be clobbered)", cfg.Simulation.TimeScale)
	}
	if cfg.Memory.EpisodicCapacity != 250 {
		t.Errorf("Memory.EpisodicCapacity = %v, want 250 (should not be clobbered)", cfg.Memory.EpisodicCapacity)
	}
	if cfg.Behavior.DialogueCooldown != DefaultDialogueCooldown {
		t.Errorf("Behavior.DialogueCooldown = %v, want %v", cfg.Behavior.DialogueCooldown, DefaultDialogueCooldown)
	}
	if cfg.Persistence.AutosaveInterval != 5*time.Minute {
		t.Errorf("Persistence.AutosaveInterval = %v, want 5m", cfg.Persistence.AutosaveInterval)
	}
}
