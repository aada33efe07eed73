package config

import (
	"strings"
	"testing"
	"time"
)

// TestDefaultSimulationConfig verifies the default simulation clock settings
func TestDefaultSimulationConfig(t *testing.T) {
	config := DefaultSimulationConfig()

	if config.TickInterval != 1*time.Second {
		t.Errorf("Expected TickInterval to be 1s, got %v", config.TickInterval)
	}

	if config.TimeScale != DefaultTimeScale {
		t.Errorf("Expected TimeScale to be %v, got %v", DefaultTimeScale, config.TimeScale)
	}

	if config.StartHour != DefaultStartHour {
		t.Errorf("Expected StartHour to be %d, got %d", DefaultStartHour, config.StartHour)
	}

	// Seed zero means the runner derives one from the wall clock
	if config.Seed != 0 {
		t.Errorf("Expected Seed to be 0 by default, got %d", config.Seed)
	}
}

// TestDefaultMemoryConfig verifies the default memory tuning values
func TestDefaultMemoryConfig(t *testing.T) {
	config := DefaultMemoryConfig()

	if config.EpisodicCapacity != DefaultEpisodicCapacity {
		t.Errorf("Expected EpisodicCapacity to be %d, got %d", DefaultEpisodicCapacity, config.EpisodicCapacity)
	}

	if config.ConsolidationInterval != DefaultConsolidationInterval {
		t.Errorf("Expected ConsolidationInterval to be %v, got %v", DefaultConsolidationInterval, config.ConsolidationInterval)
	}

	if config.DecayRate != DefaultMemoryDecayRate {
		t.Errorf("Expected DecayRate to be %v, got %v", DefaultMemoryDecayRate, config.DecayRate)
	}
}

// TestDefaultBehaviorConfig verifies the default behavior tuning values
func TestDefaultBehaviorConfig(t *testing.T) {
	config := DefaultBehaviorConfig()

	if config.ScheduleVariation != DefaultScheduleVariation {
		t.Errorf("Expected ScheduleVariation to be %v, got %v", DefaultScheduleVariation, config.ScheduleVariation)
	}

	if config.DialogueCooldown != DefaultDialogueCooldown {
		t.Errorf("Expected DialogueCooldown to be %v, got %v", DefaultDialogueCooldown, config.DialogueCooldown)
	}
}

// TestDefaultPersistenceConfig verifies persistence is off by default but has
// a usable state directory
func TestDefaultPersistenceConfig(t *testing.T) {
	config := DefaultPersistenceConfig()

	if config.Enabled {
		t.Errorf("Expected Enabled to be false by default, got true")
	}

	if config.StateDir == "" {
		t.Errorf("Expected StateDir to be set, got empty string")
	}

	if config.AutosaveInterval != DefaultAutosaveInterval {
		t.Errorf("Expected AutosaveInterval to be %v, got %v", DefaultAutosaveInterval, config.AutosaveInterval)
	}
}

// TestDefaultRosterConfig verifies roster watching is opt-in
func TestDefaultRosterConfig(t *testing.T) {
	config := DefaultRosterConfig()

	if config.Watch {
		t.Errorf("Expected Watch to be false by default, got true")
	}

	if config.WatchDebounce != DefaultWatchDebounce {
		t.Errorf("Expected WatchDebounce to be %v, got %v", DefaultWatchDebounce, config.WatchDebounce)
	}
}

// TestGetDefaultConfigPath verifies the test override and the standard path
func TestGetDefaultConfigPath(t *testing.T) {
	SetTestConfigPath("/tmp/npcmind-test/config.yaml")
	defer SetTestConfigPath("")

	path, err := GetDefaultConfigPath()
	if err != nil {
		t.Fatalf("GetDefaultConfigPath() error = %v", err)
	}
	if path != "/tmp/npcmind-test/config.yaml" {
		t.Errorf("Expected test override path, got %s", path)
	}

	SetTestConfigPath("")
	path, err = GetDefaultConfigPath()
	if err != nil {
		t.Fatalf("GetDefaultConfigPath() error = %v", err)
	}
	if !strings.HasSuffix(path, "npcmind/config.yaml") {
		t.Errorf("Expected path ending in npcmind/config.yaml, got %s", path)
	}
}
