package npc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/osada/npcmind/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rosterYAML = `
schedule_templates:
  guard_day:
    6: waking_routine
    7: eating
    8: patrolling
    20: sleeping

npcs:
  - id: brutus
    name: Brutus
    role: warden
    personality: [sadistic, fears_darkness]
    location: warden_office
    gold: 200
    weapon: baton
    armor:
      torso: 0.4
    knowledge:
      prison_layout: "three wings around the yard"
    goals:
      - name: maintain_order
        priority: 0.9
    dialogue:
      default:
        - "Co tu robisz?"

  - id: marek
    name: Marek
    role: guard
    personality: [corruptible, greedy]
    location: gate
    schedule_template: guard_day
    schedule_variation: 0.2
    relationships:
      - target: brutus
        trust: 20
        fear: 60

  - id: anna
    name: Cicha Anna
    role: prisoner
    location: cell_block
    schedule:
      9: working
      21: socializing
    schedule_template: guard_day
`

func TestParseRoster(t *testing.T) {
	roster, err := ParseRoster([]byte(rosterYAML))
	require.NoError(t, err)
	require.Len(t, roster.NPCs, 3)

	brutus, ok := roster.Find("brutus")
	require.True(t, ok)
	assert.Equal(t, "Brutus", brutus.Name)
	assert.Equal(t, "warden", brutus.Role)
	assert.Equal(t, 200, brutus.Gold)
	assert.Equal(t, 0.4, brutus.Armor["torso"])
	assert.Equal(t, "three wings around the yard", brutus.Knowledge["prison_layout"])
	require.Len(t, brutus.Goals, 1)
	assert.Equal(t, 0.9, brutus.Goals[0].Priority)
	assert.Equal(t, []string{"Co tu robisz?"}, brutus.Dialogue["default"])

	// template resolved into a concrete schedule
	marek, _ := roster.Find("marek")
	assert.Equal(t, "patrolling", marek.Schedule[8])
	assert.Equal(t, "sleeping", marek.Schedule[20])
	require.NotNil(t, marek.ScheduleVariation)
	assert.Equal(t, 0.2, *marek.ScheduleVariation)
	require.Len(t, marek.Relationships, 1)
	assert.Equal(t, 60.0, marek.Relationships[0].Fear)

	// explicit schedules win over templates
	anna, _ := roster.Find("anna")
	assert.Equal(t, "working", anna.Schedule[9])
	assert.NotContains(t, anna.Schedule, 8)
}

func TestParseRosterRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"malformed yaml", "npcs: ["},
		{"missing id", `
npcs:
  - name: Nobody
    location: yard
`},
		{"duplicate id", `
npcs:
  - {id: x, name: A, location: yard}
  - {id: x, name: B, location: yard}
`},
		{"missing name", `
npcs:
  - {id: x, location: yard}
`},
		{"missing location", `
npcs:
  - {id: x, name: A}
`},
		{"schedule hour out of range", `
npcs:
  - id: x
    name: A
    location: yard
    schedule:
      24: sleeping
`},
		{"unknown template", `
npcs:
  - {id: x, name: A, location: yard, schedule_template: ghost}
`},
		{"variation out of range", `
npcs:
  - {id: x, name: A, location: yard, schedule_variation: 1.5}
`},
		{"goal without name", `
npcs:
  - id: x
    name: A
    location: yard
    goals:
      - priority: 0.5
`},
		{"goal priority out of range", `
npcs:
  - id: x
    name: A
    location: yard
    goals:
      - {name: g, priority: 1.5}
`},
		{"relationship without target", `
npcs:
  - id: x
    name: A
    location: yard
    relationships:
      - trust: 10
`},
		{"template hour out of range", `
schedule_templates:
  bad:
    25: sleeping
npcs: []
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRoster([]byte(tt.yaml))

			require.Error(t, err)
			assert.True(t, types.IsErrCode(err, types.ErrCodeInvalid), "got %v", err)
		})
	}
}

func TestLoadRoster(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(rosterYAML), 0o644))

	roster, err := LoadRoster(path)

	require.NoError(t, err)
	assert.Len(t, roster.NPCs, 3)
}

func TestLoadRosterMissingFile(t *testing.T) {
	_, err := LoadRoster(filepath.Join(t.TempDir(), "nope.yaml"))

	require.Error(t, err)
	assert.True(t, types.IsErrCode(err, types.ErrCodeNotFound))
}

func TestDefaultSchedule(t *testing.T) {
	schedule := DefaultSchedule()

	require.Len(t, schedule, 24)
	assert.Equal(t, "sleeping", schedule[23])
	assert.Equal(t, "sleeping", schedule[3])
	assert.Equal(t, "waking_routine", schedule[6])
	assert.Equal(t, "eating", schedule[7])
	assert.Equal(t, "working", schedule[10])
	assert.Equal(t, "eating", schedule[12])
	assert.Equal(t, "working", schedule[15])
	assert.Equal(t, "eating", schedule[18])
	assert.Equal(t, "socializing", schedule[20])
}

func TestRosterFindMissing(t *testing.T) {
	roster := &Roster{}

	_, ok := roster.Find("ghost")

	assert.False(t, ok)
}
