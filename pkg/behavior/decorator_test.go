package behavior

import (
	"testing"

	"github.com/osada/npcmind/pkg/npc"
	"github.com/stretchr/testify/assert"
)

func TestInverterFlipsOutcome(t *testing.T) {
	n := newTestNPC(t, npc.Definition{ID: "d1", Role: "prisoner", Location: "cell_1"})
	ctx := newCtx(12)

	assert.Equal(t, Failure, NewInverter("inv", stub("s", Success)).Execute(n, ctx))
	assert.Equal(t, Success, NewInverter("inv", stub("f", Failure)).Execute(n, ctx))
	assert.Equal(t, Running, NewInverter("inv", stub("r", Running)).Execute(n, ctx))
}

func TestRepeatRunsChildUpToCount(t *testing.T) {
	n := newTestNPC(t, npc.Definition{ID: "d1", Role: "prisoner", Location: "cell_1"})
	ctx := newCtx(12)

	steady := stub("steady", Success)
	assert.Equal(t, Success, NewRepeat("rep", steady, 3).Execute(n, ctx))
	assert.Equal(t, 3, steady.calls)
}

func TestRepeatStopsOnFirstNonSuccess(t *testing.T) {
	n := newTestNPC(t, npc.Definition{ID: "d1", Role: "prisoner", Location: "cell_1"})
	ctx := newCtx(12)

	flaky := script("flaky", Success, Failure)
	assert.Equal(t, Failure, NewRepeat("rep", flaky, 5).Execute(n, ctx))
	assert.Equal(t, 2, flaky.calls)

	slow := stub("slow", Running)
	assert.Equal(t, Running, NewRepeat("rep", slow, 5).Execute(n, ctx))
	assert.Equal(t, 1, slow.calls)
}

func TestCooldownBlocksUntilElapsed(t *testing.T) {
	n := newTestNPC(t, npc.Definition{ID: "d1", Role: "prisoner", Location: "cell_1"})
	ctx := newCtx(0)

	child := stub("child", Success)
	cd := NewCooldown("cd", child, 100)

	ctx.Now = 50
	assert.Equal(t, Failure, cd.Execute(n, ctx))
	assert.Equal(t, 0, child.calls)

	ctx.Now = 120
	assert.Equal(t, Success, cd.Execute(n, ctx))
	assert.Equal(t, 1, child.calls)

	ctx.Now = 150
	assert.Equal(t, Failure, cd.Execute(n, ctx))
	assert.Equal(t, 1, child.calls)

	ctx.Now = 260
	assert.Equal(t, Success, cd.Execute(n, ctx))
	assert.Equal(t, 2, child.calls)
}

func TestCooldownArmsOnlyOnSuccess(t *testing.T) {
	n := newTestNPC(t, npc.Definition{ID: "d1", Role: "prisoner", Location: "cell_1"})
	ctx := newCtx(0)

	child := script("child", Failure, Running, Success)
	cd := NewCooldown("cd", child, 100)

	ctx.Now = 100
	assert.Equal(t, Failure, cd.Execute(n, ctx))
	ctx.Now = 101
	assert.Equal(t, Running, cd.Execute(n, ctx))
	ctx.Now = 102
	assert.Equal(t, Success, cd.Execute(n, ctx))
	assert.Equal(t, 3, child.calls)

	// armed now, the next attempt inside the window is refused
	ctx.Now = 150
	assert.Equal(t, Failure, cd.Execute(n, ctx))
	assert.Equal(t, 3, child.calls)
}

func TestProbabilityBounds(t *testing.T) {
	n := newTestNPC(t, npc.Definition{ID: "d1", Role: "prisoner", Location: "cell_1"})
	ctx := newCtx(12)

	sure := stub("sure", Success)
	always := NewProbability("always", sure, 1.0)
	for i := 0; i < 20; i++ {
		assert.Equal(t, Success, always.Execute(n, ctx))
	}
	assert.Equal(t, 20, sure.calls)

	skipped := stub("skipped", Success)
	never := NewProbability("never", skipped, 0)
	for i := 0; i < 20; i++ {
		assert.Equal(t, Failure, never.Execute(n, ctx))
	}
	assert.Equal(t, 0, skipped.calls)

	// out-of-range chances clamp instead of misbehaving
	assert.Equal(t, Success, NewProbability("over", stub("s", Success), 1.7).Execute(n, ctx))
	assert.Equal(t, Failure, NewProbability("under", stub("s", Success), -0.4).Execute(n, ctx))
}

func TestTimeGatedDayWindow(t *testing.T) {
	n := newTestNPC(t, npc.Definition{ID: "d1", Role: "prisoner", Location: "cell_1"})

	child := stub("child", Success)
	gate := NewTimeGated("work_hours", child, 8, 17)

	assert.Equal(t, Failure, gate.Execute(n, newCtx(7)))
	assert.Equal(t, 0, child.calls)
	assert.Equal(t, Success, gate.Execute(n, newCtx(8)))
	assert.Equal(t, Success, gate.Execute(n, newCtx(16)))
	assert.Equal(t, Failure, gate.Execute(n, newCtx(17)))
	assert.Equal(t, 2, child.calls)
}

func TestTimeGatedWrapsAroundMidnight(t *testing.T) {
	n := newTestNPC(t, npc.Definition{ID: "d1", Role: "prisoner", Location: "cell_1"})

	child := stub("child", Success)
	gate := NewTimeGated("night", child, 22, 6)

	assert.Equal(t, Failure, gate.Execute(n, newCtx(21)))
	assert.Equal(t, Success, gate.Execute(n, newCtx(22)))
	assert.Equal(t, Success, gate.Execute(n, newCtx(2)))
	assert.Equal(t, Failure, gate.Execute(n, newCtx(6)))
	assert.Equal(t, 2, child.calls)
}

func TestInterruptableSequenceKeepsCursorAcrossTicks(t *testing.T) {
	n := newTestNPC(t, npc.Definition{ID: "d1", Role: "prisoner", Location: "cell_1"})
	ctx := newCtx(12)

	a := script("a", Success)
	b := script("b", Running, Success)
	c := stub("c", Success)
	seq := NewInterruptableSequence("seq", nil, a, b, c)

	assert.Equal(t, Running, seq.Execute(n, ctx))
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
	assert.Equal(t, 0, c.calls)

	// the second tick resumes at the running child, not the beginning
	assert.Equal(t, Success, seq.Execute(n, ctx))
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 2, b.calls)
	assert.Equal(t, 1, c.calls)

	// after finishing, the next tick starts over
	seq.Execute(n, ctx)
	assert.Equal(t, 2, a.calls)
}

func TestInterruptableSequenceInterruptResets(t *testing.T) {
	n := newTestNPC(t, npc.Definition{ID: "d1", Role: "prisoner", Location: "cell_1"})
	ctx := newCtx(12)

	interrupted := false
	a := script("a", Success)
	b := script("b", Running, Success)
	seq := NewInterruptableSequence("seq", func(*npc.NPC, *npc.Context) bool {
		return interrupted
	}, a, b)

	assert.Equal(t, Running, seq.Execute(n, ctx))

	interrupted = true
	assert.Equal(t, Failure, seq.Execute(n, ctx))
	assert.Equal(t, 1, b.calls)

	interrupted = false
	seq.Execute(n, ctx)
	assert.Equal(t, 2, a.calls)
}

func TestInterruptableSequenceFailureResets(t *testing.T) {
	n := newTestNPC(t, npc.Definition{ID: "d1", Role: "prisoner", Location: "cell_1"})
	ctx := newCtx(12)

	a := script("a", Success)
	b := script("b", Failure, Success)
	c := stub("c", Success)
	seq := NewInterruptableSequence("seq", nil, a, b, c)

	assert.Equal(t, Failure, seq.Execute(n, ctx))
	assert.Equal(t, Success, seq.Execute(n, ctx))
	assert.Equal(t, 2, a.calls)
	assert.Equal(t, 2, b.calls)
	assert.Equal(t, 1, c.calls)
}

func TestBlackboardSharesDataWithSubtree(t *testing.T) {
	n := newTestNPC(t, npc.Definition{ID: "d1", Role: "prisoner", Location: "cell_1"})
	ctx := newCtx(12)

	peek := NewAction("peek", func(n *npc.NPC, c *npc.Context) (Status, error) {
		if mood, _ := c.Blackboard["mood"].(string); mood == "sour" {
			c.Blackboard["seen"] = true
			return Success, nil
		}
		return Failure, nil
	})
	root := NewBlackboard("root", peek)
	root.Set("mood", "sour")

	assert.Equal(t, Success, root.Execute(n, ctx))
	seen, ok := root.Get("seen")
	assert.True(t, ok)
	assert.Equal(t, true, seen)
	assert.Equal(t, "sour", ctx.Blackboard["mood"])
}

func TestBlackboardNilChildSucceeds(t *testing.T) {
	n := newTestNPC(t, npc.Definition{ID: "d1", Role: "prisoner", Location: "cell_1"})
	ctx := newCtx(12)

	assert.Equal(t, Success, NewBlackboard("root", nil).Execute(n, ctx))
}
