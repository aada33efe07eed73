package npc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialogueDef(bank map[string][]string) Definition {
	return Definition{
		ID: "d", Name: "Darek", Role: "prisoner", Location: "yard",
		Dialogue: bank,
		Stats:    StatBlock{Strength: 10, Endurance: 10, Agility: 10},
	}
}

func TestDialogueSleepingSaysNothing(t *testing.T) {
	n := newTestNPC(t, dialogueDef(nil))
	n.State = StateSleeping

	_, ok := n.DialogueFor(DialogueContext{PlayerID: "player"}, 100)

	assert.False(t, ok)
}

func TestDialogueSubstitutions(t *testing.T) {
	n := newTestNPC(t, dialogueDef(map[string][]string{
		"default": {"hello {player_name} at {time} in {location}"},
	}))

	line, ok := n.DialogueFor(DialogueContext{PlayerName: "Janusz"}, 8*3600+75)

	require.True(t, ok)
	assert.Equal(t, "hello Janusz at 08:01 in yard", line)
}

func TestDialogueUnnamedPlayerIsStranger(t *testing.T) {
	n := newTestNPC(t, dialogueDef(map[string][]string{
		"default": {"Czego chcesz, {player_name}?"},
	}))

	line, ok := n.DialogueFor(DialogueContext{}, 100)

	require.True(t, ok)
	assert.Equal(t, "Czego chcesz, nieznajomy?", line)
}

func TestDialogueTiers(t *testing.T) {
	bank := map[string][]string{
		"friendly":      {"friendly line"},
		"hostile":       {"hostile line"},
		"fearful":       {"fearful line"},
		"first_meeting": {"first meeting line"},
		"default":       {"default line"},
	}
	tests := []struct {
		name  string
		setup func(rel *Relationship)
		want  string
	}{
		{
			"high disposition",
			func(rel *Relationship) {
				rel.Trust, rel.Affection, rel.Respect, rel.Familiarity = 80, 80, 80, 100
			},
			"friendly line",
		},
		{
			"low disposition",
			func(rel *Relationship) {
				rel.Trust, rel.Affection, rel.Respect, rel.Familiarity = -90, -90, -90, 100
			},
			"hostile line",
		},
		{
			"feared player",
			func(rel *Relationship) {
				rel.Fear, rel.Familiarity = 80, 50
			},
			"fearful line",
		},
		{
			"stranger",
			func(rel *Relationship) {},
			"first meeting line",
		},
		{
			"plain acquaintance",
			func(rel *Relationship) { rel.Familiarity = 40 },
			"default line",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newTestNPC(t, dialogueDef(bank))
			tt.setup(n.RelationshipWith("player"))

			line, ok := n.DialogueFor(DialogueContext{PlayerID: "player"}, 100)

			require.True(t, ok)
			assert.Equal(t, tt.want, line)
		})
	}
}

func TestDialogueEmotionSuffix(t *testing.T) {
	n := newTestNPC(t, dialogueDef(map[string][]string{
		"default":       {"plain"},
		"default_angry": {"grr"},
	}))
	n.ModifyEmotion(EmotionAngry, 1.0)

	line, ok := n.DialogueFor(DialogueContext{}, 8*3600)

	require.True(t, ok)
	assert.Equal(t, "grr", line)
}

func TestDialogueDaypartSuffix(t *testing.T) {
	n := newTestNPC(t, dialogueDef(map[string][]string{
		"default":       {"plain"},
		"default_night": {"psst"},
	}))

	line, ok := n.DialogueFor(DialogueContext{}, 23*3600)

	require.True(t, ok)
	assert.Equal(t, "psst", line)

	line, ok = n.DialogueFor(DialogueContext{}, 14*3600)
	require.True(t, ok)
	assert.Equal(t, "plain", line)
}

func TestDialogueBusySuffix(t *testing.T) {
	n := newTestNPC(t, dialogueDef(map[string][]string{
		"default":              {"plain"},
		"default_morning":      {"morning line"},
		"default_morning_busy": {"not now, working"},
	}))
	n.State = StateWorking

	line, ok := n.DialogueFor(DialogueContext{}, 8*3600)

	require.True(t, ok)
	assert.Equal(t, "not now, working", line)

	n.State = StateIdle
	line, ok = n.DialogueFor(DialogueContext{}, 8*3600)
	require.True(t, ok)
	assert.Equal(t, "morning line", line)
}

func TestDialogueCooldownRotation(t *testing.T) {
	n := newTestNPC(t, dialogueDef(map[string][]string{
		"default": {"first", "second"},
	}))

	a, ok := n.DialogueFor(DialogueContext{}, 0)
	require.True(t, ok)

	// within the cooldown window only the unused line remains
	b, ok := n.DialogueFor(DialogueContext{}, 10)
	require.True(t, ok)
	assert.NotEqual(t, a, b)

	// everything cooling down falls back to a random pick
	c, ok := n.DialogueFor(DialogueContext{}, 20)
	require.True(t, ok)
	assert.NotEmpty(t, c)
}

func TestDialogueCooldownExpires(t *testing.T) {
	n := newTestNPC(t, dialogueDef(map[string][]string{
		"default": {"only line"},
	}))

	a, _ := n.DialogueFor(DialogueContext{}, 0)
	b, ok := n.DialogueFor(DialogueContext{}, 1000)

	require.True(t, ok)
	assert.Equal(t, a, b)
}

func TestDialogueBuiltinFallback(t *testing.T) {
	n := newTestNPC(t, dialogueDef(nil))
	n.Dialogue = DialogueBank{}

	line, ok := n.DialogueFor(DialogueContext{}, 100)

	require.True(t, ok)
	assert.Contains(t, []string{"...", "*Darek milczy*"}, line)
}
