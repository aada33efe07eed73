package npc

import (
	"math/rand"
	"testing"

	"github.com/osada/npcmind/internal/config"
	"github.com/osada/npcmind/internal/logger"
	"github.com/osada/npcmind/pkg/memory"
	"github.com/osada/npcmind/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.NewDefault()
	require.NoError(t, err)
	return log
}

// testConfig keeps schedule variation at zero so ticks are deterministic
func testConfig() *config.Config {
	return &config.Config{
		Behavior: config.BehaviorConfig{DialogueCooldown: 300},
	}
}

func newTestNPC(t *testing.T, def Definition) *NPC {
	t.Helper()
	return New(def, testConfig(), newTestLogger(t), rand.New(rand.NewSource(1)))
}

func fptr(v float64) *float64 {
	return &v
}

func newCtx(now float64) *Context {
	return &Context{
		Now:        now,
		Hour:       types.HourOf(now),
		NPCs:       make(map[string]*NPC),
		Blackboard: make(map[string]any),
	}
}

func TestNewDefaults(t *testing.T) {
	n := newTestNPC(t, Definition{
		ID:       "heniek",
		Name:     "Heniek",
		Role:     "guard",
		Location: "gate",
		Stats:    StatBlock{Strength: 10, Endurance: 10, Agility: 10},
	})

	assert.Equal(t, StateIdle, n.State)
	assert.Equal(t, EmotionNeutral, n.DominantEmotion())
	assert.InDelta(t, 1.0, n.Emotions.Sum(), 1e-9)
	assert.Equal(t, 100.0, n.Energy)
	assert.Equal(t, 50.0, n.Hunger)
	assert.Equal(t, 50.0, n.Thirst)
	assert.Equal(t, 0, n.Gold)
	assert.True(t, n.Alive())

	// the default day is fully scheduled
	assert.Len(t, n.Schedule, 24)
	assert.Equal(t, "sleeping", n.Schedule[3])
	assert.Equal(t, "working", n.Schedule[10])
	assert.Equal(t, "socializing", n.Schedule[20])

	assert.Len(t, n.Dialogue["default"], 5)

	// guard role modifiers on a 10/10/10 stat line
	assert.InDelta(t, 120.0, n.Combat.MaxHealth, 1e-9)
	assert.InDelta(t, 110.0, n.Combat.MaxStamina, 1e-9)
	assert.InDelta(t, 0.15, n.Combat.DefenseMult, 1e-9)
}

func TestNewAppliesOverrides(t *testing.T) {
	n := newTestNPC(t, Definition{
		ID:          "jozek",
		Name:        "Józek",
		Role:        "prisoner",
		Location:    "cell_block",
		Personality: []string{"quiet", "knowledgeable"},
		Gold:        25,
		Energy:      fptr(40),
		Hunger:      fptr(90),
		Knowledge:   map[string]string{"tunnel_location": "behind the chapel wall"},
		Inventory:   map[string]int{"cigarettes": 3},
		Goals:       []GoalDefinition{{Name: "survive", Priority: 0.8}},
		Relationships: []RelationshipSeed{
			{Target: "heniek", Trust: -40, Fear: 250},
		},
	})

	assert.Equal(t, 25, n.Gold)
	assert.Equal(t, 40.0, n.Energy)
	assert.Equal(t, 90.0, n.Hunger)
	assert.Equal(t, 3, n.Inventory["cigarettes"])
	assert.True(t, n.Traits.Has(TraitQuiet))

	info, ok := n.Memory.Semantic.Retrieve("tunnel_location", 0)
	require.True(t, ok)
	assert.Equal(t, "behind the chapel wall", info)

	rel := n.Relationships["heniek"]
	require.NotNil(t, rel)
	assert.Equal(t, -40.0, rel.Trust)
	assert.Equal(t, 100.0, rel.Fear)

	require.Len(t, n.Goals, 1)
	assert.True(t, n.Goals[0].Active)
	assert.Equal(t, 0.8, n.Goals[0].Priority)
}

func TestUpdateNeedsAging(t *testing.T) {
	n := newTestNPC(t, Definition{
		ID:                "a",
		Name:              "A",
		Role:              "prisoner",
		Location:          "cell_block",
		ScheduleVariation: fptr(1.0),
	})

	n.Update(100, newCtx(6*3600))

	assert.InDelta(t, 51.0, n.Hunger, 1e-9)
	assert.InDelta(t, 52.0, n.Thirst, 1e-9)
	assert.InDelta(t, 99.0, n.Energy, 1e-9)
}

func TestUpdateEnergyByState(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  float64
	}{
		{"sleeping regenerates", StateSleeping, 55.0},
		{"working drains fast", StateWorking, 48.0},
		{"patrolling drains fast", StatePatrolling, 48.0},
		{"idling drains slow", StateIdle, 49.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newTestNPC(t, Definition{
				ID:                "a",
				Name:              "A",
				Role:              "guard",
				Location:          "gate",
				Energy:            fptr(50),
				ScheduleVariation: fptr(1.0),
			})
			n.State = tt.state

			n.Update(100, newCtx(6*3600))

			assert.InDelta(t, tt.want, n.Energy, 1e-9)
		})
	}
}

func TestUpdateNeedsFeedEmotions(t *testing.T) {
	n := newTestNPC(t, Definition{
		ID:                "a",
		Name:              "A",
		Role:              "prisoner",
		Location:          "cell_block",
		Hunger:            fptr(85),
		ScheduleVariation: fptr(1.0),
	})

	n.Update(1, newCtx(6*3600))

	assert.Greater(t, n.Emotions[EmotionAngry], 0.0)
	assert.Greater(t, n.Emotions[EmotionSad], 0.0)
	assert.InDelta(t, 1.0, n.Emotions.Sum(), 1e-6)
}

func TestUpdateDecaysEmotions(t *testing.T) {
	n := newTestNPC(t, Definition{
		ID:                "a",
		Name:              "A",
		Role:              "prisoner",
		Location:          "cell_block",
		ScheduleVariation: fptr(1.0),
	})
	n.ModifyEmotion(EmotionHappy, 0.5)
	before := n.Emotions[EmotionHappy]

	n.Update(10, newCtx(6*3600))

	assert.Less(t, n.Emotions[EmotionHappy], before)
	assert.InDelta(t, 1.0, n.Emotions.Sum(), 1e-6)
}

func TestScheduleMapsActivityToState(t *testing.T) {
	n := newTestNPC(t, Definition{ID: "a", Name: "A", Role: "guard", Location: "gate"})

	n.Update(1, newCtx(10*3600))

	assert.Equal(t, StateWorking, n.State)
	// the transition itself was remembered
	assert.Equal(t, 1, n.Memory.Episodic.Len())
}

func TestSchedulePrisonersIdleInsteadOfWorking(t *testing.T) {
	n := newTestNPC(t, Definition{ID: "a", Name: "A", Role: "prisoner", Location: "cell_block"})

	n.Update(1, newCtx(10*3600))

	assert.Equal(t, StateIdle, n.State)
	assert.Equal(t, 0, n.Memory.Episodic.Len())
}

func TestScheduleNeverOverridesProtectedStates(t *testing.T) {
	for _, state := range []State{StateFleeing, StateAttacking, StateInDialogue} {
		n := newTestNPC(t, Definition{ID: "a", Name: "A", Role: "guard", Location: "gate"})
		n.State = state

		n.Update(1, newCtx(10*3600))

		assert.Equal(t, state, n.State)
	}
}

func TestScheduleVariationSkipsSlot(t *testing.T) {
	n := newTestNPC(t, Definition{
		ID:                "a",
		Name:              "A",
		Role:              "guard",
		Location:          "gate",
		ScheduleVariation: fptr(1.0),
	})

	n.Update(1, newCtx(23*3600))

	assert.Equal(t, StateIdle, n.State)
}

func TestChangeStateRecordsMemory(t *testing.T) {
	n := newTestNPC(t, Definition{ID: "a", Name: "A", Role: "guard", Location: "gate"})

	n.ChangeState(StateWorking, 100)

	assert.Equal(t, StateWorking, n.State)
	require.Equal(t, 1, n.Memory.Episodic.Len())
	episodes := n.Memory.Episodic.Recall(memory.Query{EventType: "state_change"}, 1, 100)
	require.Len(t, episodes, 1)
	assert.InDelta(t, 0.1, episodes[0].Importance, 1e-9)
	assert.Contains(t, episodes[0].Description, "idle")
	assert.Contains(t, episodes[0].Description, "working")

	// repeating the same state is a no-op
	n.ChangeState(StateWorking, 200)
	assert.Equal(t, 1, n.Memory.Episodic.Len())
}

func TestInteractWithHelp(t *testing.T) {
	n := newTestNPC(t, Definition{ID: "a", Name: "A", Role: "prisoner", Location: "yard"})

	n.InteractWith("marek", InteractHelp, 1.0, 500)

	rel := n.Relationships["marek"]
	require.NotNil(t, rel)
	assert.Equal(t, 5.0, rel.Trust)
	assert.Equal(t, 3.0, rel.Affection)
	assert.Equal(t, 2.0, rel.Respect)
	assert.Equal(t, 2.0, rel.Familiarity)
	assert.Equal(t, 1, rel.InteractionCount)
	assert.Equal(t, 500.0, rel.LastInteraction)

	// remembered, and the help felt good
	assert.Equal(t, 1, n.Memory.Episodic.Len())
	assert.Greater(t, n.Emotions[EmotionHappy], 0.0)
	assert.InDelta(t, 1.0, n.Emotions.Sum(), 1e-6)
}

func TestInteractWithThreatFeedsFear(t *testing.T) {
	n := newTestNPC(t, Definition{ID: "a", Name: "A", Role: "prisoner", Location: "yard"})

	n.InteractWith("brutus", InteractThreat, 2.0, 500)

	rel := n.Relationships["brutus"]
	assert.Equal(t, 20.0, rel.Fear)
	assert.Equal(t, -30.0, rel.Trust)
	assert.Greater(t, n.Emotions[EmotionFear], 0.0)
	// the emotional store tagged the aggressor too
	assert.Greater(t, n.Memory.Emotional.Tags("brutus")["fear"], 0.0)
}

func TestUpdateSortsGoals(t *testing.T) {
	n := newTestNPC(t, Definition{
		ID:                "a",
		Name:              "A",
		Role:              "prisoner",
		Location:          "cell_block",
		ScheduleVariation: fptr(1.0),
	})
	deadline := 6*3600.0 + 1800
	n.Goals = []*Goal{
		{Name: "low", Priority: 0.3, Active: true},
		{Name: "high", Priority: 0.9, Active: true},
		{Name: "urgent", Priority: 0.5, Deadline: &deadline, Active: true},
		{Name: "done", Priority: 0.2, Completion: 1.0, Active: true},
	}

	n.Update(1, newCtx(6*3600))

	// urgent doubles to 1.0, beating the 0.9
	assert.Equal(t, "urgent", n.Goals[0].Name)
	assert.Equal(t, "high", n.Goals[1].Name)
	assert.False(t, goalByName(t, n, "done").Active)
}

func goalByName(t *testing.T, n *NPC, name string) *Goal {
	t.Helper()
	for _, g := range n.Goals {
		if g.Name == name {
			return g
		}
	}
	t.Fatalf("goal %s not found", name)
	return nil
}

func TestRelationshipWithLazilyCreates(t *testing.T) {
	n := newTestNPC(t, Definition{ID: "a", Name: "A", Role: "prisoner", Location: "yard"})

	rel := n.RelationshipWith("stranger")

	require.NotNil(t, rel)
	assert.Equal(t, "stranger", rel.TargetID)
	assert.Equal(t, 0.0, rel.Trust)
	assert.Same(t, rel, n.RelationshipWith("stranger"))
}

func TestRecallAbout(t *testing.T) {
	n := newTestNPC(t, Definition{ID: "a", Name: "A", Role: "prisoner", Location: "yard"})
	n.AddMemory(memory.Event{
		Type:         "conversation",
		Description:  "talked about the old days",
		Participants: []string{"a", "anna"},
		Importance:   0.6,
	}, 100)

	recalled := n.RecallAbout("anna", "yard", 200)

	require.NotEmpty(t, recalled.Episodes)
	assert.Equal(t, "conversation", recalled.Episodes[0].Type)
}

func TestInventoryAddRemove(t *testing.T) {
	n := newTestNPC(t, Definition{ID: "jozek"})

	n.AddItem("cigarettes", 2)
	n.AddItem("shiv", 1)
	n.AddItem("", 5)
	n.AddItem("bread", 0)
	assert.Equal(t, map[string]int{"cigarettes": 2, "shiv": 1}, n.Inventory)

	assert.True(t, n.RemoveItem("cigarettes"))
	assert.Equal(t, 1, n.Inventory["cigarettes"])

	// the entry disappears when the last one goes
	assert.True(t, n.RemoveItem("shiv"))
	assert.NotContains(t, n.Inventory, "shiv")

	assert.False(t, n.RemoveItem("bread"))
}
