package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTraceAccess(t *testing.T) {
	tr := NewTrace(100, 0.5)
	tr.Access(110)
	assert.InDelta(t, 0.55, tr.Strength, 1e-9)
	assert.Equal(t, 1, tr.AccessCount)
	assert.Equal(t, 110.0, tr.LastAccess)

	for i := 0; i < 20; i++ {
		tr.Access(120)
	}
	assert.Equal(t, 1.0, tr.Strength)
}

func TestTraceBounds(t *testing.T) {
	assert.Equal(t, 1.0, NewTrace(0, 1.5).Strength)
	assert.Equal(t, 0.0, NewTrace(0, -0.2).Strength)
}

func TestTraceDecay(t *testing.T) {
	tr := NewTrace(100, 1.0)

	// No time has passed since the last access.
	tr.Decay(50, 0.001)
	assert.Equal(t, 1.0, tr.Strength)
	tr.Decay(100, 0.001)
	assert.Equal(t, 1.0, tr.Strength)

	tr.Decay(200, 0.001)
	assert.InDelta(t, 0.9, tr.Strength, 1e-9)

	tr.Decay(1e7, 0.001)
	assert.Equal(t, 0.0, tr.Strength)
}

func TestTraceDecaySlowedByRehearsal(t *testing.T) {
	fresh := NewTrace(0, 1.0)
	rehearsed := NewTrace(0, 1.0)
	rehearsed.AccessCount = 10
	rehearsed.Strength = 1.0

	fresh.Decay(100, 0.001)
	rehearsed.Decay(100, 0.001)

	assert.InDelta(t, 0.9, fresh.Strength, 1e-9)
	assert.InDelta(t, 0.95, rehearsed.Strength, 1e-9)
	assert.Greater(t, rehearsed.Strength, fresh.Strength)
}
