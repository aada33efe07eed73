package memory

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/osada/npcmind/internal/config"
	"github.com/osada/npcmind/internal/logger"
	"github.com/osada/npcmind/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSystem(t *testing.T, cfg config.MemoryConfig) *System {
	t.Helper()
	log, err := logger.NewDefault()
	require.NoError(t, err)
	return NewSystem("piotr", cfg, log, rand.New(rand.NewSource(1)))
}

func TestSystemDefaults(t *testing.T) {
	sys := NewSystem("piotr", config.MemoryConfig{}, nil, nil)
	require.NotNil(t, sys)
	assert.Equal(t, "piotr", sys.NPCID)
	assert.Equal(t, config.DefaultEpisodicCapacity, sys.Episodic.Capacity())

	result := sys.ProcessEvent(Event{Type: "conversation"}, 100)
	assert.NotEmpty(t, result.EpisodeID)
}

func TestSystemProcessEventRouting(t *testing.T) {
	sys := newTestSystem(t, config.MemoryConfig{})

	result := sys.ProcessEvent(Event{Type: "meal", Location: "canteen"}, 100)
	assert.NotEmpty(t, result.EpisodeID)
	assert.False(t, result.TraumaRecorded)
	assert.Equal(t, 1, sys.Episodic.Len())
	assert.Equal(t, 0, sys.Semantic.Len())

	sys.ProcessEvent(Event{
		Type:        "overheard",
		LearnedFact: &LearnedFact{Concept: "tunnel_route", Information: "behind the boiler", Category: "escape"},
	}, 110)
	content, ok := sys.Semantic.Retrieve("tunnel_route", 120)
	require.True(t, ok)
	assert.Equal(t, "behind the boiler", content)

	sys.ProcessEvent(Event{
		Type:          "watched",
		SkillObserved: &SkillObservation{Name: "mopping", Steps: []string{"soak", "wring", "sweep"}},
	}, 130)
	assert.Equal(t, 0.1, sys.Procedural.Proficiency("mopping"))

	sys.ProcessEvent(Event{
		Type:            "chat",
		Participants:    []string{"anna"},
		Location:        "yard",
		Timestamp:       140,
		EmotionalImpact: map[string]float64{"happy": 0.6},
	}, 140)
	assert.InDelta(t, 0.18, sys.Emotional.Tags("anna")["happy"], 1e-9)
	assert.InDelta(t, 0.18, sys.Emotional.Tags("yard")["happy"], 1e-9)
	assert.Equal(t, 0, sys.Emotional.TraumaCount())
}

func TestSystemProcessEventTrauma(t *testing.T) {
	sys := newTestSystem(t, config.MemoryConfig{})

	result := sys.ProcessEvent(Event{
		Type:            "beating",
		Participants:    []string{"guard_heniek"},
		Location:        "showers",
		Timestamp:       12 * 3600,
		EmotionalImpact: map[string]float64{"fear": 0.9},
	}, 12*3600)

	assert.True(t, result.TraumaRecorded)
	assert.Equal(t, 2, result.TriggersIdentified)

	// Strong fear is recorded twice: once by context classification and
	// once as a full trauma with event triggers.
	assert.Equal(t, 2, sys.Emotional.TraumaCount())
	assert.Greater(t, sys.Emotional.CheckTriggers(Situation{Location: "showers"}), 0.0)
}

func TestSystemConsolidationInterval(t *testing.T) {
	sys := newTestSystem(t, config.MemoryConfig{ConsolidationInterval: 100})

	sys.ProcessEvent(Event{Type: "meal"}, 50)
	assert.Equal(t, 0.0, sys.LastConsolidation())

	sys.ProcessEvent(Event{Type: "meal"}, 150)
	assert.Equal(t, 150.0, sys.LastConsolidation())

	sys.ProcessEvent(Event{Type: "meal"}, 200)
	assert.Equal(t, 150.0, sys.LastConsolidation())
}

func TestSystemRecallRelevant(t *testing.T) {
	sys := newTestSystem(t, config.MemoryConfig{ConsolidationInterval: 1e9})

	sys.ProcessEvent(Event{
		Type:            "conversation",
		Participants:    []string{"anna"},
		Location:        "yard",
		Timestamp:       1000,
		EmotionalImpact: map[string]float64{"happy": 0.6},
	}, 1000)
	sys.ProcessEvent(Event{
		Type:        "overheard",
		LearnedFact: &LearnedFact{Concept: "tunnel_route", Information: "behind the boiler", Category: "escape"},
	}, 1010)
	sys.ProcessEvent(Event{
		Type:          "watched",
		SkillObserved: &SkillObservation{Name: "mopping", Steps: []string{"soak", "wring"}},
	}, 1020)
	sys.ProcessEvent(Event{
		Type:            "beating",
		Location:        "showers",
		Timestamp:       12 * 3600,
		EmotionalImpact: map[string]float64{"fear": 0.9},
	}, 12*3600)
	for i := 0; i < 10; i++ {
		sys.Procedural.AddHabit("wake_up", "stretch", 0)
	}

	recalled := sys.RecallRelevant(RecallContext{
		TargetNPC:       "anna",
		Location:        "yard",
		ActionType:      "conversation",
		QueryConcept:    "tunnel_route",
		RequiredSkill:   "mopping",
		PresentEntities: []string{"anna"},
		HabitTrigger:    "wake_up",
	}, 50000)

	require.NotEmpty(t, recalled.Episodes)
	assert.Equal(t, "conversation", recalled.Episodes[0].Type)

	assert.True(t, recalled.KnowledgeFound)
	assert.Equal(t, "behind the boiler", recalled.Knowledge)

	assert.InDelta(t, 0.1, recalled.SkillProficiency, 1e-9)
	assert.False(t, recalled.CanExecute)

	require.Contains(t, recalled.EmotionalContext, "anna")
	assert.InDelta(t, 1.0, recalled.EmotionalContext["anna"]["happy"], 1e-9)

	assert.Equal(t, 0.0, recalled.TraumaTriggered)
	assert.Equal(t, []string{"stretch"}, recalled.HabitualActions)

	// Walking back into the trauma location activates both records of it.
	triggered := sys.RecallRelevant(RecallContext{Location: "showers"}, 50000)
	assert.InDelta(t, 0.54, triggered.TraumaTriggered, 1e-9)

	skill, _ := sys.Procedural.Skill("mopping")
	skill.Proficiency = 0.5
	practiced := sys.RecallRelevant(RecallContext{RequiredSkill: "mopping"}, 50000)
	assert.True(t, practiced.CanExecute)
}

func TestSystemSnapshotRestore(t *testing.T) {
	sys := newTestSystem(t, config.MemoryConfig{EpisodicCapacity: 50})

	first := sys.ProcessEvent(Event{
		Type:         "conversation",
		Participants: []string{"anna"},
		Location:     "yard",
		Timestamp:    1000,
	}, 1000)
	sys.ProcessEvent(Event{
		Type:         "conversation",
		Participants: []string{"anna"},
		Location:     "yard",
		Timestamp:    1010,
	}, 1010)
	sys.ProcessEvent(Event{
		Type:        "overheard",
		LearnedFact: &LearnedFact{Concept: "tunnel_route", Information: "behind the boiler", Category: "escape"},
	}, 1020)
	sys.ProcessEvent(Event{
		Type:          "watched",
		SkillObserved: &SkillObservation{Name: "mopping", Steps: []string{"soak", "wring"}},
	}, 1030)
	sys.Procedural.AddHabit("wake_up", "stretch", 0.5)
	sys.Procedural.LearnSequence("escape", []string{"dig", "crawl"})
	sys.Emotional.TagEmotion("anna", "happy", 0.5)
	sys.Emotional.UpdateMood(map[string]float64{"happy": 0.4}, 1040)
	sys.Emotional.UpdateMood(map[string]float64{"happy": 0.6}, 1050)
	sys.ConsolidateAll(1100)

	snap := sys.Snapshot()
	data, err := json.Marshal(snap)
	require.NoError(t, err)

	var decoded SystemState
	require.NoError(t, json.Unmarshal(data, &decoded))

	restored := NewSystem("piotr", config.MemoryConfig{}, nil, rand.New(rand.NewSource(2)))
	require.NoError(t, restored.Restore(&decoded))

	assert.Equal(t, sys.Episodic.Len(), restored.Episodic.Len())
	assert.Equal(t, 50, restored.Episodic.Capacity())
	assert.Equal(t, sys.LastConsolidation(), restored.LastConsolidation())

	original, _ := sys.Episodic.Get(first.EpisodeID)
	copied, ok := restored.Episodic.Get(first.EpisodeID)
	require.True(t, ok)
	assert.Equal(t, original.Strength, copied.Strength)
	assert.Equal(t, original.Associations, copied.Associations)

	// Indexes are rebuilt, so indexed recall works on the restored store.
	results := restored.Episodic.Recall(Query{Participant: "anna"}, 5, 2000)
	assert.Len(t, results, 2)

	fact, ok := restored.Semantic.Get("tunnel_route")
	require.True(t, ok)
	assert.Equal(t, "behind the boiler", fact.Content)

	assert.Equal(t, sys.Procedural.Proficiency("mopping"), restored.Procedural.Proficiency("mopping"))
	seq, ok := restored.Procedural.Sequence("escape")
	require.True(t, ok)
	assert.Equal(t, []string{"dig", "crawl"}, seq)
	assert.Equal(t, 1, restored.Procedural.HabitCount())

	assert.InDelta(t, sys.Emotional.Tags("anna")["happy"], restored.Emotional.Tags("anna")["happy"], 1e-9)
	assert.Len(t, restored.Emotional.moods, 2)

	err = restored.Restore(nil)
	require.Error(t, err)
	assert.True(t, types.IsErrCode(err, types.ErrCodeInvalidArgument))
}

func TestSystemProfile(t *testing.T) {
	sys := newTestSystem(t, config.MemoryConfig{EpisodicCapacity: 10})

	sys.ProcessEvent(Event{Type: "meal", Importance: 0.8}, 100)
	sys.ProcessEvent(Event{
		Type:        "overheard",
		LearnedFact: &LearnedFact{Concept: "tunnel_route", Information: "behind the boiler", Category: "escape"},
	}, 110)
	sys.ProcessEvent(Event{
		Type:          "watched",
		SkillObserved: &SkillObservation{Name: "mopping", Steps: []string{"soak"}},
	}, 120)
	sys.Procedural.AddHabit("wake_up", "stretch", 0)
	sys.Emotional.TagEmotion("anna", "happy", 0.5)

	profile := sys.Profile()
	assert.Equal(t, "piotr", profile.NPCID)
	assert.Equal(t, 3, profile.Episodic.Total)
	assert.Equal(t, 1, profile.SemanticConcepts)
	assert.Contains(t, profile.Skills, "mopping")
	assert.Equal(t, 1, profile.HabitCount)
	assert.Equal(t, 1, profile.TaggedEntities)
	assert.Equal(t, 0, profile.TraumaCount)
	assert.Equal(t, map[string]float64{"stable": 1.0}, profile.MoodTrend)
}
