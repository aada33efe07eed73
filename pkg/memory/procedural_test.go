package memory

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLearnSkillProficiencyGrowth(t *testing.T) {
	store := NewProceduralStore(rand.New(rand.NewSource(1)))

	store.LearnSkill("lockpick", []string{"insert", "tension", "rake"})
	skill, ok := store.Skill("lockpick")
	require.True(t, ok)
	assert.Equal(t, 0.1, skill.Proficiency)
	assert.Equal(t, 0, skill.PracticeCount)
	assert.Empty(t, skill.Variations)

	store.LearnSkill("lockpick", []string{"insert", "twist"})
	assert.Equal(t, 1, skill.PracticeCount)
	assert.Len(t, skill.Variations, 1)
	assert.InDelta(t, 0.1+0.9*(1.0-1.0/1.1), skill.Proficiency, 1e-9)

	prev := skill.Proficiency
	for i := 0; i < 10; i++ {
		store.LearnSkill("lockpick", []string{"insert", "twist"})
		assert.Greater(t, skill.Proficiency, prev)
		assert.Less(t, skill.Proficiency, 1.0)
		prev = skill.Proficiency
	}

	assert.Equal(t, 0.0, store.Proficiency("unknown"))
}

func TestExecuteSkillSuccess(t *testing.T) {
	store := NewProceduralStore(rand.New(rand.NewSource(1)))
	store.LearnSkill("lockpick", []string{"insert", "tension", "rake"})

	skill, _ := store.Skill("lockpick")
	skill.Proficiency = 1.0

	ok, steps := store.ExecuteSkill("lockpick")
	require.True(t, ok)
	assert.Equal(t, []string{"insert", "tension", "rake"}, steps)
	assert.Equal(t, 1, skill.PracticeCount)
	assert.InDelta(t, 0.55, store.successRate("lockpick"), 1e-9)

	ok, steps = store.ExecuteSkill("missing")
	assert.False(t, ok)
	assert.Nil(t, steps)
}

func TestExecuteSkillFailureLowersRate(t *testing.T) {
	store := NewProceduralStore(rand.New(rand.NewSource(7)))
	store.LearnSkill("pickpocket", []string{"approach", "lift"})

	failed := false
	for i := 0; i < 1000; i++ {
		before := store.successRate("pickpocket")
		ok, _ := store.ExecuteSkill("pickpocket")
		if !ok {
			expected := before - 0.02
			if expected < 0 {
				expected = 0
			}
			assert.InDelta(t, expected, store.successRate("pickpocket"), 1e-9)
			failed = true
			break
		}
	}
	require.True(t, failed, "low proficiency skill never failed")
}

func TestExecuteSkillVariations(t *testing.T) {
	store := NewProceduralStore(rand.New(rand.NewSource(42)))
	store.LearnSkill("burglary", []string{"scout", "enter", "grab"})
	store.LearnSkill("burglary", []string{"enter", "grab"})

	skill, _ := store.Skill("burglary")

	seenCanonical := false
	seenVariation := false
	for i := 0; i < 100; i++ {
		skill.Proficiency = 1.0
		ok, steps := store.ExecuteSkill("burglary")
		require.True(t, ok)
		switch len(steps) {
		case 3:
			seenCanonical = true
		case 2:
			seenVariation = true
		}
	}
	assert.True(t, seenCanonical, "canonical steps never returned")
	assert.True(t, seenVariation, "variation never returned")
}

func TestHabits(t *testing.T) {
	store := NewProceduralStore(rand.New(rand.NewSource(3)))

	store.AddHabit("morning", "stretch", 0)
	require.Equal(t, 1, store.HabitCount())
	habit := store.habits[0]
	assert.Equal(t, 0.1, habit.Strength)
	assert.Empty(t, habit.Rewards)

	// Reinforce until the habit fires every time.
	for i := 0; i < 9; i++ {
		store.AddHabit("morning", "stretch", 0.5)
	}
	assert.Equal(t, 9, habit.Executions)
	assert.Len(t, habit.Rewards, 9)
	assert.InDelta(t, 1.0, habit.Strength, 1e-9)

	actions := store.TriggerHabits("morning")
	require.Equal(t, []string{"stretch"}, actions)
	assert.Equal(t, 10, habit.Executions)

	assert.Empty(t, store.TriggerHabits("evening"))

	store.AddHabit("morning", "jog", 0)
	assert.Equal(t, 2, store.HabitCount())
}

func TestLearnSequence(t *testing.T) {
	store := NewProceduralStore(rand.New(rand.NewSource(1)))

	store.LearnSequence("escape", []string{"dig", "crawl", "run"})
	seq, ok := store.Sequence("escape")
	require.True(t, ok)
	assert.Equal(t, []string{"dig", "crawl", "run"}, seq)

	// A shorter resubmission becomes the preferred optimized variant.
	store.LearnSequence("escape", []string{"dig", "run"})
	seq, ok = store.Sequence("escape")
	require.True(t, ok)
	assert.Equal(t, []string{"dig", "run"}, seq)

	// Longer resubmissions are ignored.
	store.LearnSequence("escape", []string{"dig", "crawl", "hide", "run"})
	seq, _ = store.Sequence("escape")
	assert.Equal(t, []string{"dig", "run"}, seq)

	_, ok = store.Sequence("unknown")
	assert.False(t, ok)
}

func TestProceduralConsolidate(t *testing.T) {
	store := NewProceduralStore(rand.New(rand.NewSource(1)))

	store.AddHabit("noise", "flinch", 0)
	store.habits[0].Strength = 0.04

	store.LearnSkill("solid", []string{"step"})
	store.skills["weak"] = &Skill{Proficiency: 0.01}
	store.skills["practiced"] = &Skill{Proficiency: 0.01, PracticeCount: 5}

	store.Consolidate()

	assert.Equal(t, 0, store.HabitCount())
	_, ok := store.Skill("weak")
	assert.False(t, ok)
	_, ok = store.Skill("practiced")
	assert.True(t, ok)
	_, ok = store.Skill("solid")
	assert.True(t, ok)

	skills := store.Skills()
	assert.Contains(t, skills, "solid")
	assert.Contains(t, skills, "practiced")
}
