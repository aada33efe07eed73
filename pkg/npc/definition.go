package npc

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/osada/npcmind/pkg/types"
)

// StatBlock holds base combat attributes. Zero values roll randomly at
// construction.
type StatBlock struct {
	Strength  int `json:"strength,omitempty" yaml:"strength,omitempty"`
	Endurance int `json:"endurance,omitempty" yaml:"endurance,omitempty"`
	Agility   int `json:"agility,omitempty" yaml:"agility,omitempty"`
}

// RelationshipSeed is an initial relationship entry in the roster file
type RelationshipSeed struct {
	Target      string  `json:"target" yaml:"target"`
	Trust       float64 `json:"trust,omitempty" yaml:"trust,omitempty"`
	Affection   float64 `json:"affection,omitempty" yaml:"affection,omitempty"`
	Respect     float64 `json:"respect,omitempty" yaml:"respect,omitempty"`
	Fear        float64 `json:"fear,omitempty" yaml:"fear,omitempty"`
	Familiarity float64 `json:"familiarity,omitempty" yaml:"familiarity,omitempty"`
}

// GoalDefinition is a goal entry in the roster file
type GoalDefinition struct {
	Name          string   `json:"name" yaml:"name"`
	Priority      float64  `json:"priority" yaml:"priority"`
	Deadline      *float64 `json:"deadline,omitempty" yaml:"deadline,omitempty"`
	Prerequisites []string `json:"prerequisites,omitempty" yaml:"prerequisites,omitempty"`
}

// Definition is one NPC's entry in the roster file. Optional fields fall
// back to sensible defaults at construction.
type Definition struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Role        string   `json:"role" yaml:"role"`
	Personality []string `json:"personality,omitempty" yaml:"personality,omitempty"`
	Quirks      []string `json:"quirks,omitempty" yaml:"quirks,omitempty"`
	Location    string   `json:"location" yaml:"location"`

	Gold      int                `json:"gold,omitempty" yaml:"gold,omitempty"`
	Energy    *float64           `json:"energy,omitempty" yaml:"energy,omitempty"`
	MaxEnergy *float64           `json:"max_energy,omitempty" yaml:"max_energy,omitempty"`
	Hunger    *float64           `json:"hunger,omitempty" yaml:"hunger,omitempty"`
	Thirst    *float64           `json:"thirst,omitempty" yaml:"thirst,omitempty"`
	Stats     StatBlock          `json:"stats,omitempty" yaml:"stats,omitempty"`
	Weapon    string             `json:"weapon,omitempty" yaml:"weapon,omitempty"`
	Armor     map[string]float64 `json:"armor,omitempty" yaml:"armor,omitempty"`
	Inventory map[string]int     `json:"inventory,omitempty" yaml:"inventory,omitempty"`

	Knowledge map[string]string `json:"knowledge,omitempty" yaml:"knowledge,omitempty"`

	Schedule          map[int]string `json:"schedule,omitempty" yaml:"schedule,omitempty"`
	ScheduleTemplate  string         `json:"schedule_template,omitempty" yaml:"schedule_template,omitempty"`
	ScheduleVariation *float64       `json:"schedule_variation,omitempty" yaml:"schedule_variation,omitempty"`

	Goals         []GoalDefinition    `json:"goals,omitempty" yaml:"goals,omitempty"`
	Relationships []RelationshipSeed  `json:"relationships,omitempty" yaml:"relationships,omitempty"`
	Dialogue      map[string][]string `json:"dialogue,omitempty" yaml:"dialogue,omitempty"`
}

// Roster is the full NPC definition file: the cast plus reusable schedule
// templates
type Roster struct {
	NPCs              []Definition              `json:"npcs" yaml:"npcs"`
	ScheduleTemplates map[string]map[int]string `json:"schedule_templates,omitempty" yaml:"schedule_templates,omitempty"`
}

// DefaultSchedule is the prison's standard day: lights out at 22, work
// blocks around three meals, a social window in the evening
func DefaultSchedule() map[int]string {
	schedule := make(map[int]string, 24)
	for hour := 0; hour < 24; hour++ {
		switch {
		case hour >= 22 || hour < 6:
			schedule[hour] = "sleeping"
		case hour < 7:
			schedule[hour] = "waking_routine"
		case hour < 8:
			schedule[hour] = "eating"
		case hour < 12:
			schedule[hour] = "working"
		case hour < 13:
			schedule[hour] = "eating"
		case hour < 18:
			schedule[hour] = "working"
		case hour < 19:
			schedule[hour] = "eating"
		default:
			schedule[hour] = "socializing"
		}
	}
	return schedule
}

// LoadRoster reads, parses, and validates a roster file, resolving schedule
// templates into concrete schedules
func LoadRoster(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.WrapError(types.ErrCodeNotFound, fmt.Sprintf("roster file not found: %s", path), err)
		}
		return nil, types.WrapError(types.ErrCodeInternal, fmt.Sprintf("failed to read roster file: %s", path), err)
	}
	return ParseRoster(data)
}

// ParseRoster parses and validates roster YAML
func ParseRoster(data []byte) (*Roster, error) {
	var roster Roster
	if err := yaml.Unmarshal(data, &roster); err != nil {
		return nil, types.WrapError(types.ErrCodeInvalid, "failed to parse roster file", err)
	}
	if err := roster.Validate(); err != nil {
		return nil, err
	}
	if err := roster.resolveTemplates(); err != nil {
		return nil, err
	}
	return &roster, nil
}

// Validate checks roster entries for structural problems
func (r *Roster) Validate() error {
	seen := make(map[string]bool, len(r.NPCs))
	for i, def := range r.NPCs {
		if def.ID == "" {
			return types.NewError(types.ErrCodeInvalid, fmt.Sprintf("npc %d: id is required", i))
		}
		if seen[def.ID] {
			return types.NewError(types.ErrCodeInvalid, fmt.Sprintf("npc %s: duplicate id", def.ID))
		}
		seen[def.ID] = true

		if def.Name == "" {
			return types.NewError(types.ErrCodeInvalid, fmt.Sprintf("npc %s: name is required", def.ID))
		}
		if def.Location == "" {
			return types.NewError(types.ErrCodeInvalid, fmt.Sprintf("npc %s: location is required", def.ID))
		}

		for hour := range def.Schedule {
			if hour < 0 || hour > 23 {
				return types.NewError(types.ErrCodeInvalid, fmt.Sprintf("npc %s: schedule hour %d out of range", def.ID, hour))
			}
		}
		if def.ScheduleTemplate != "" {
			if _, ok := r.ScheduleTemplates[def.ScheduleTemplate]; !ok {
				return types.NewError(types.ErrCodeInvalid, fmt.Sprintf("npc %s: unknown schedule template %q", def.ID, def.ScheduleTemplate))
			}
		}
		if def.ScheduleVariation != nil && (*def.ScheduleVariation < 0 || *def.ScheduleVariation > 1) {
			return types.NewError(types.ErrCodeInvalid, fmt.Sprintf("npc %s: schedule_variation must be within [0,1]", def.ID))
		}

		for _, goal := range def.Goals {
			if goal.Name == "" {
				return types.NewError(types.ErrCodeInvalid, fmt.Sprintf("npc %s: goal name is required", def.ID))
			}
			if goal.Priority < 0 || goal.Priority > 1 {
				return types.NewError(types.ErrCodeInvalid, fmt.Sprintf("npc %s: goal %s priority must be within [0,1]", def.ID, goal.Name))
			}
		}

		for _, seed := range def.Relationships {
			if seed.Target == "" {
				return types.NewError(types.ErrCodeInvalid, fmt.Sprintf("npc %s: relationship target is required", def.ID))
			}
		}
	}

	for name, template := range r.ScheduleTemplates {
		for hour := range template {
			if hour < 0 || hour > 23 {
				return types.NewError(types.ErrCodeInvalid, fmt.Sprintf("schedule template %s: hour %d out of range", name, hour))
			}
		}
	}

	return nil
}

// resolveTemplates copies named schedule templates into definitions that
// reference them. Explicit schedules win over templates.
func (r *Roster) resolveTemplates() error {
	for i := range r.NPCs {
		def := &r.NPCs[i]
		if def.ScheduleTemplate == "" || len(def.Schedule) > 0 {
			continue
		}
		template := r.ScheduleTemplates[def.ScheduleTemplate]
		def.Schedule = make(map[int]string, len(template))
		for hour, activity := range template {
			def.Schedule[hour] = activity
		}
	}
	return nil
}

// Find returns the definition with the given id
func (r *Roster) Find(id string) (Definition, bool) {
	for _, def := range r.NPCs {
		if def.ID == id {
			return def, true
		}
	}
	return Definition{}, false
}
