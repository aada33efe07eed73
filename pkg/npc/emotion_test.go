package npc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmotionVectorStartsNeutral(t *testing.T) {
	v := NewEmotionVector()

	assert.Equal(t, 1.0, v[EmotionNeutral])
	assert.InDelta(t, 1.0, v.Sum(), 1e-9)
	assert.Equal(t, EmotionNeutral, v.Dominant())
}

func TestModifyNormalizes(t *testing.T) {
	v := NewEmotionVector()

	v.Modify(EmotionHappy, 0.5)

	// raw values 0.5 happy / 0.75 neutral renormalize to 0.4 / 0.6
	assert.InDelta(t, 0.4, v[EmotionHappy], 1e-9)
	assert.InDelta(t, 0.6, v[EmotionNeutral], 1e-9)
	assert.InDelta(t, 1.0, v.Sum(), 1e-9)
	assert.Equal(t, EmotionNeutral, v.Dominant())
}

func TestModifySequenceKeepsSumOne(t *testing.T) {
	v := NewEmotionVector()

	steps := []struct {
		emotion   Emotion
		intensity float64
	}{
		{EmotionHappy, 0.3},
		{EmotionAngry, 0.8},
		{EmotionFear, 0.1},
		{EmotionSad, 1.0},
		{EmotionHappy, 0.6},
	}
	for _, step := range steps {
		v.Modify(step.emotion, step.intensity)
		assert.InDelta(t, 1.0, v.Sum(), 1e-6)
	}
}

func TestModifyNegativeCalmsEmotion(t *testing.T) {
	v := NewEmotionVector()
	v.Modify(EmotionSad, 0.4)
	before := v[EmotionSad]

	v.Modify(EmotionSad, -0.1)
	assert.Less(t, v[EmotionSad], before)
	assert.InDelta(t, 1.0, v.Sum(), 1e-6)

	// Calming below zero floors instead of going negative
	v.Modify(EmotionSad, -5.0)
	assert.GreaterOrEqual(t, v[EmotionSad], 0.0)
	assert.InDelta(t, 1.0, v.Sum(), 1e-6)
}

func TestModifyIgnoresUnknownEmotion(t *testing.T) {
	v := NewEmotionVector()

	v.Modify(Emotion("melancholy"), 0.5)

	assert.Equal(t, 1.0, v[EmotionNeutral])
	assert.NotContains(t, v, Emotion("melancholy"))
}

func TestDecayDrainsBackToNeutral(t *testing.T) {
	v := NewEmotionVector()
	v.Modify(EmotionHappy, 0.5)

	v.Decay(100)

	// 0.01/s over 100s wipes the 0.4 happy component
	assert.Equal(t, 0.0, v[EmotionHappy])
	assert.InDelta(t, 1.0, v[EmotionNeutral], 1e-9)
	assert.InDelta(t, 1.0, v.Sum(), 1e-9)
}

func TestDecayRestoresNeutralWhenEverythingFades(t *testing.T) {
	v := EmotionVector{EmotionAngry: 0.5}

	v.Decay(100)

	assert.Equal(t, 1.0, v[EmotionNeutral])
	assert.InDelta(t, 1.0, v.Sum(), 1e-9)
}

func TestDecayPartial(t *testing.T) {
	v := NewEmotionVector()
	v.Modify(EmotionAngry, 1.0)
	angryBefore := v[EmotionAngry]

	v.Decay(10)

	assert.Less(t, v[EmotionAngry], angryBefore)
	assert.Greater(t, v[EmotionAngry], 0.0)
	assert.InDelta(t, 1.0, v.Sum(), 1e-6)
}

func TestDominantPrefersCanonicalOrderOnTies(t *testing.T) {
	v := EmotionVector{EmotionHappy: 0.5, EmotionAngry: 0.5}

	assert.Equal(t, EmotionHappy, v.Dominant())
}

func TestParseEmotion(t *testing.T) {
	e, ok := ParseEmotion("fear")
	assert.True(t, ok)
	assert.Equal(t, EmotionFear, e)

	_, ok = ParseEmotion("grumpy")
	assert.False(t, ok)
}

func TestEmotionVectorFromMap(t *testing.T) {
	v := FromMap(map[string]float64{
		"happy":   0.7,
		"sad":     0.3,
		"grumpy":  0.9,
		"neutral": 0,
	})

	assert.InDelta(t, 0.7, v[EmotionHappy], 1e-9)
	assert.InDelta(t, 0.3, v[EmotionSad], 1e-9)
	assert.Equal(t, 0.0, v[EmotionNeutral])
	assert.NotContains(t, v, Emotion("grumpy"))

	empty := FromMap(nil)
	assert.Equal(t, 1.0, empty[EmotionNeutral])
}

func TestEmotionVectorClone(t *testing.T) {
	v := NewEmotionVector()
	v.Modify(EmotionFear, 0.4)

	clone := v.Clone()
	clone.Modify(EmotionHappy, 0.9)

	assert.Equal(t, 0.0, v[EmotionHappy])
	assert.InDelta(t, 1.0, v.Sum(), 1e-6)
}
