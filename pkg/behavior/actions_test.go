package behavior

import (
	"testing"

	"github.com/osada/npcmind/pkg/memory"
	"github.com/osada/npcmind/pkg/npc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEatMealByRole(t *testing.T) {
	ctx := newCtx(12)

	prisoner := newTestNPC(t, npc.Definition{
		ID: "wiezien", Role: "prisoner", Location: "cell_1",
		Hunger: fptr(70), Thirst: fptr(50),
	})
	st, err := eatMeal(prisoner, ctx)
	require.NoError(t, err)
	assert.Equal(t, Success, st)
	assert.Equal(t, "mess_hall", prisoner.Location)
	assert.Equal(t, npc.StateEating, prisoner.State)
	assert.Equal(t, 30.0, prisoner.Hunger)
	assert.Equal(t, 20.0, prisoner.Thirst)

	guard := newTestNPC(t, npc.Definition{ID: "straznik", Role: "guard", Location: "corridor_main"})
	eatMeal(guard, ctx)
	assert.Equal(t, "guard_room", guard.Location)

	warden := newTestNPC(t, npc.Definition{ID: "naczelnik", Role: "warden", Location: "corridor_main"})
	eatMeal(warden, ctx)
	assert.Equal(t, "warden_office", warden.Location)

	// hunger never goes negative
	starved := newTestNPC(t, npc.Definition{
		ID: "glodny", Role: "prisoner", Location: "cell_2", Hunger: fptr(20),
	})
	eatMeal(starved, ctx)
	assert.Equal(t, 0.0, starved.Hunger)
}

func TestFleePicksSafeGroundByRole(t *testing.T) {
	ctx := newCtx(14)

	guard := newTestNPC(t, npc.Definition{ID: "straznik", Role: "guard", Location: "main_gate"})
	addToWorld(ctx, guard)
	st, err := flee(guard, ctx)
	require.NoError(t, err)
	assert.Equal(t, Success, st)
	assert.Equal(t, npc.StateFleeing, guard.State)
	assert.Contains(t, []string{"guard_room", "armory", "warden_office", "watchtower"}, guard.Location)
	assert.Greater(t, guard.Emotions[npc.EmotionFear], 0.2)
	assert.NotEmpty(t, guard.Memory.Episodic.Recall(memory.Query{EventType: "fled"}, 1, ctx.Now))

	route, ok := guard.Memory.Procedural.Sequence("escape_route_from_main_gate")
	require.True(t, ok)
	assert.Equal(t, "main_gate", route[0])

	// a prisoner running from a guard hides in the crowd, not in a cell
	chasing := newTestNPC(t, npc.Definition{ID: "goniacy", Role: "guard", Location: "corridor_main"})
	prisoner := newTestNPC(t, npc.Definition{ID: "wiezien", Role: "prisoner", Location: "corridor_main"})
	addToWorld(ctx, chasing, prisoner)
	ctx.Blackboard["threat_source"] = "goniacy"
	flee(prisoner, ctx)
	assert.Contains(t, []string{"mess_hall", "exercise_yard", "workshop", "laundry"}, prisoner.Location)
}

func TestAcceptOfferedBribeRules(t *testing.T) {
	ctx := newCtx(10)

	honest := newTestNPC(t, npc.Definition{ID: "uczciwy", Role: "guard", Location: "gate"})
	ctx.Blackboard["bribe_offer"] = BribeOffer{From: "player", Amount: 100}
	st, err := acceptOfferedBribe(honest, ctx)
	require.NoError(t, err)
	assert.Equal(t, Failure, st)
	assert.Zero(t, honest.Gold)

	venal := newTestNPC(t, npc.Definition{
		ID: "marek", Role: "guard", Location: "gate",
		Personality: []string{"corruptible"},
	})
	ctx.Blackboard["bribe_offer"] = BribeOffer{From: "player", Amount: 30}
	st, _ = acceptOfferedBribe(venal, ctx)
	assert.Equal(t, Failure, st)

	ctx.Blackboard["bribe_offer"] = BribeOffer{From: "player", Amount: 100}
	st, _ = acceptOfferedBribe(venal, ctx)
	assert.Equal(t, Success, st)
	assert.Equal(t, 100, venal.Gold)
	assert.NotNil(t, venal.Relationships["player"])
	_, still := ctx.Blackboard["bribe_offer"]
	assert.False(t, still)
}

func TestPerformWorkAppliesAssignment(t *testing.T) {
	ctx := newCtx(9)

	washer := newTestNPC(t, npc.Definition{ID: "praczka", Role: "prisoner", Location: "cell_1"})
	washer.Memory.Semantic.AddKnowledge("current_work", "laundry", "work", ctx.Now)
	st, err := performWork(washer, ctx)
	require.NoError(t, err)
	assert.Equal(t, Success, st)
	assert.Equal(t, "laundry_room", washer.Location)
	assert.Equal(t, 92.0, washer.Energy)
	assert.Equal(t, npc.StateWorking, washer.State)

	// craft assignments teach a skill on the side
	cook := newTestNPC(t, npc.Definition{ID: "kucharz", Role: "prisoner", Location: "cell_2"})
	cook.Memory.Semantic.AddKnowledge("current_work", "kitchen", "work", ctx.Now)
	performWork(cook, ctx)
	assert.Equal(t, "kitchen", cook.Location)
	assert.Equal(t, 94.0, cook.Energy)
	assert.Greater(t, cook.Memory.Procedural.Proficiency("kitchen_skill"), 0.0)

	// without an assignment the work is generic and stays put
	drifter := newTestNPC(t, npc.Definition{ID: "nikt", Role: "prisoner", Location: "cell_3"})
	performWork(drifter, ctx)
	assert.Equal(t, "cell_3", drifter.Location)
	assert.Equal(t, 95.0, drifter.Energy)
}

func TestDesperateFoodSearchPrefersRememberedSpots(t *testing.T) {
	ctx := newCtx(15)

	hungry := newTestNPC(t, npc.Definition{
		ID: "glodny", Role: "prisoner", Location: "cell_1", Hunger: fptr(95),
	})
	addToWorld(ctx, hungry)
	hungry.AddMemory(memory.Event{
		Type:       "food_found",
		Location:   "kitchen",
		Importance: 0.5,
	}, ctx.Now)

	st, err := desperateFoodSearch(hungry, ctx)
	require.NoError(t, err)
	assert.Equal(t, Success, st)
	assert.Equal(t, "kitchen", hungry.Location)
	assert.Equal(t, 45.0, hungry.Hunger)

	// with no remembered source the NPC leans on whoever carries food
	beggar := newTestNPC(t, npc.Definition{
		ID: "zebrak", Role: "prisoner", Location: "mess_hall", Hunger: fptr(95),
	})
	carrier := newTestNPC(t, npc.Definition{
		ID: "nosiciel", Role: "prisoner", Location: "mess_hall",
		Inventory: map[string]int{"food": 2},
	})
	addToWorld(ctx, beggar, carrier)
	st, _ = desperateFoodSearch(beggar, ctx)
	assert.Equal(t, Running, st)
	assert.NotNil(t, beggar.Relationships["nosiciel"])

	// alone and clueless there is nothing to do
	alone := newTestNPC(t, npc.Definition{
		ID: "sam", Role: "prisoner", Location: "cell_4", Hunger: fptr(95),
	})
	addToWorld(ctx, alone)
	st, _ = desperateFoodSearch(alone, ctx)
	assert.Equal(t, Failure, st)
	assert.Equal(t, 95.0, alone.Hunger)
}

func TestCollapseLeavesHelpSignal(t *testing.T) {
	ctx := newCtx(16)

	n := newTestNPC(t, npc.Definition{
		ID: "padly", Role: "prisoner", Location: "exercise_yard", Energy: fptr(3),
	})
	st, err := collapseAction(n, ctx)
	require.NoError(t, err)
	assert.Equal(t, Success, st)
	assert.Equal(t, 0.0, n.Energy)
	assert.Equal(t, npc.StateResting, n.State)
	assert.Equal(t, "padly", ctx.Blackboard["npc_needs_help"])
	assert.NotEmpty(t, n.Memory.Episodic.Recall(memory.Query{EventType: "collapsed"}, 1, ctx.Now))
}

func TestSleepActionBedsDown(t *testing.T) {
	ctx := newCtx(23)

	n := newTestNPC(t, npc.Definition{
		ID: "wiezien_3", Role: "prisoner", Location: "mess_hall", Energy: fptr(95),
	})
	st, err := sleepAction(n, ctx)
	require.NoError(t, err)
	assert.Equal(t, Success, st)
	assert.Equal(t, npc.StateSleeping, n.State)
	assert.Equal(t, "cell_3", n.Location)
	assert.Equal(t, 100.0, n.Energy)
}

func TestDrinkWaterFloorsAtZero(t *testing.T) {
	ctx := newCtx(12)
	n := newTestNPC(t, npc.Definition{
		ID: "w", Role: "prisoner", Location: "bathroom", Thirst: fptr(30),
	})
	st, err := drinkWater(n, ctx)
	require.NoError(t, err)
	assert.Equal(t, Success, st)
	assert.Equal(t, 0.0, n.Thirst)
}

func TestWakeUpMoodTracksEnergy(t *testing.T) {
	ctx := newCtx(6)

	rested := newTestNPC(t, npc.Definition{
		ID: "wyspany", Role: "prisoner", Location: "cell_1", Energy: fptr(90),
	})
	rested.State = npc.StateSleeping
	wakeUp(rested, ctx)
	assert.Equal(t, npc.StateIdle, rested.State)
	assert.Greater(t, rested.Emotions[npc.EmotionHappy], 0.0)

	groggy := newTestNPC(t, npc.Definition{
		ID: "zmeczony", Role: "prisoner", Location: "cell_2", Energy: fptr(20),
	})
	groggy.State = npc.StateSleeping
	wakeUp(groggy, ctx)
	assert.Greater(t, groggy.Emotions[npc.EmotionSad], 0.0)
	assert.Greater(t, groggy.Emotions[npc.EmotionAngry], 0.0)
}
