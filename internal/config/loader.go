package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/osada/npcmind/pkg/types"
)

// envVarPattern matches ${VAR_NAME} and ${VAR_NAME:-default}
var envVarPattern = regexp.MustCompile(`\$\{([a-zA-Z_][a-zA-Z0-9_]*)(:-([^}]*))?\}`)

// interpolateEnvVars replaces environment variable placeholders with their values
// Supports ${VAR_NAME} and ${VAR_NAME:-default_value} syntax
func interpolateEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultValue := ""
		if len(parts) >= 4 && parts[3] != "" {
			defaultValue = parts[3]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}

// interpolateEnvVarsInConfig applies env var interpolation to all string fields
// of the config that may reasonably carry placeholders (paths and log output)
func interpolateEnvVarsInConfig(cfg *Config) {
	cfg.Logging.Output = interpolateEnvVars(cfg.Logging.Output)
	cfg.Persistence.StateDir = interpolateEnvVars(cfg.Persistence.StateDir)
	cfg.Persistence.JournalPath = interpolateEnvVars(cfg.Persistence.JournalPath)
	cfg.Roster.Path = interpolateEnvVars(cfg.Roster.Path)
}

// decodeDuration reads a YAML scalar as a duration, accepting both "500ms"
// strings and integer nanoseconds
func decodeDuration(node *yaml.Node, field string) (time.Duration, error) {
	if node.Tag == "!!int" {
		var n int64
		if err := node.Decode(&n); err != nil {
			return 0, types.WrapError(types.ErrCodeInvalid, "invalid duration for "+field, err)
		}
		return time.Duration(n), nil
	}

	var s string
	if err := node.Decode(&s); err != nil {
		return 0, types.WrapError(types.ErrCodeInvalid, "invalid duration for "+field, err)
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, types.WrapError(types.ErrCodeInvalid,
			fmt.Sprintf("invalid duration %q for %s", s, field), err)
	}
	return d, nil
}

// UnmarshalYAML decodes the simulation section, parsing tick_interval as a
// duration string
func (s *SimulationConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		TickInterval yaml.Node `yaml:"tick_interval"`
		TimeScale    float64   `yaml:"time_scale"`
		StartHour    int       `yaml:"start_hour"`
		Seed         int64     `yaml:"seed"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	if !raw.TickInterval.IsZero() {
		d, err := decodeDuration(&raw.TickInterval, "simulation.tick_interval")
		if err != nil {
			return err
		}
		s.TickInterval = d
	}
	s.TimeScale = raw.TimeScale
	s.StartHour = raw.StartHour
	s.Seed = raw.Seed
	return nil
}

// UnmarshalYAML decodes the persistence section, parsing autosave_interval
// as a duration string
func (p *PersistenceConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Enabled          bool      `yaml:"enabled"`
		StateDir         string    `yaml:"state_dir"`
		JournalEnabled   bool      `yaml:"journal_enabled"`
		JournalPath      string    `yaml:"journal_path"`
		AutosaveInterval yaml.Node `yaml:"autosave_interval"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	if !raw.AutosaveInterval.IsZero() {
		d, err := decodeDuration(&raw.AutosaveInterval, "persistence.autosave_interval")
		if err != nil {
			return err
		}
		p.AutosaveInterval = d
	}
	p.Enabled = raw.Enabled
	p.StateDir = raw.StateDir
	p.JournalEnabled = raw.JournalEnabled
	p.JournalPath = raw.JournalPath
	return nil
}

// UnmarshalYAML decodes the roster section, parsing watch_debounce as a
// duration string
func (r *RosterConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Path          string    `yaml:"path"`
		Watch         bool      `yaml:"watch"`
		WatchDebounce yaml.Node `yaml:"watch_debounce"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	if !raw.WatchDebounce.IsZero() {
		d, err := decodeDuration(&raw.WatchDebounce, "roster.watch_debounce")
		if err != nil {
			return err
		}
		r.WatchDebounce = d
	}
	r.Path = raw.Path
	r.Watch = raw.Watch
	return nil
}

// validateFilePath checks if the file path is valid and has the correct extension
func validateFilePath(path string) error {
	if path == "" {
		return types.NewError(types.ErrCodeInvalidArgument, "configuration file path cannot be empty")
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return types.NewError(types.ErrCodeInvalidArgument,
			"configuration file must have .yaml or .yml extension, got: "+ext)
	}

	return nil
}

// validateYAMLContent validates the YAML content and provides detailed error messages
func validateYAMLContent(data []byte, path string) error {
	if len(data) == 0 {
		return types.NewError(types.ErrCodeInvalid, "configuration file is empty: "+path)
	}

	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return types.NewError(types.ErrCodeInvalid, "configuration file contains only whitespace: "+path)
	}

	// Parse YAML to validate syntax
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return types.WrapError(types.ErrCodeInvalid, "invalid YAML syntax in "+path, err)
	}

	if node.Kind == 0 && len(node.Content) == 0 {
		return types.NewError(types.ErrCodeInvalid, "configuration file contains no valid YAML content: "+path)
	}

	return nil
}

// formatYAMLError formats a YAML error with file context
func formatYAMLError(err error, path string) error {
	if err == nil {
		return nil
	}

	if yamlErr, ok := err.(*yaml.TypeError); ok {
		return types.WrapError(types.ErrCodeInvalid, "YAML type error in "+path, yamlErr)
	}

	return types.WrapError(types.ErrCodeInvalid, "failed to parse YAML configuration from "+path, err)
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	if err := validateFilePath(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.WrapError(types.ErrCodeNotFound, "configuration file not found: "+path, err)
		}
		return nil, types.WrapError(types.ErrCodeInvalidArgument, "failed to read configuration file: "+path, err)
	}

	// Validate YAML content before parsing
	if err := validateYAMLContent(data, path); err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, formatYAMLError(err, path)
	}

	interpolateEnvVarsInConfig(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
