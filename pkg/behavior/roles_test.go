package behavior

import (
	"testing"

	"github.com/osada/npcmind/pkg/npc"
	"github.com/osada/npcmind/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspectCellsFlagsContraband(t *testing.T) {
	ctx := newCtx(7)

	warden := newTestNPC(t, npc.Definition{ID: "naczelnik", Role: "warden", Location: "warden_office"})
	smuggler := newTestNPC(t, npc.Definition{
		ID: "przemytnik", Name: "Przemytnik", Role: "prisoner", Location: "cell_2",
		Inventory: map[string]int{"knife": 1},
	})
	clean := newTestNPC(t, npc.Definition{ID: "czysty", Role: "prisoner", Location: "cell_3"})
	addToWorld(ctx, warden, smuggler, clean)

	st, err := inspectCells(warden, ctx)
	require.NoError(t, err)
	assert.Equal(t, Success, st)
	assert.Equal(t, "cell_block", warden.Location)

	note, ok := warden.Memory.Semantic.Retrieve("violations_found", ctx.Now)
	require.True(t, ok)
	assert.Contains(t, note, smuggler.Name)
}

func TestInspectCellsIgnoresPrisonersOutsideCells(t *testing.T) {
	ctx := newCtx(7)

	warden := newTestNPC(t, npc.Definition{ID: "naczelnik", Role: "warden", Location: "warden_office"})
	worker := newTestNPC(t, npc.Definition{
		ID: "pracownik", Role: "prisoner", Location: "laundry_room",
		Inventory: map[string]int{"knife": 1},
	})
	addToWorld(ctx, warden, worker)

	inspectCells(warden, ctx)
	_, ok := warden.Memory.Semantic.Get("violations_found")
	assert.False(t, ok)
}

func TestExecutePunishmentClearsLedger(t *testing.T) {
	ctx := newCtx(9)

	warden := newTestNPC(t, npc.Definition{ID: "naczelnik", Role: "warden", Location: "warden_office"})
	victim := newTestNPC(t, npc.Definition{ID: "skazany", Role: "prisoner", Location: "cell_1"})
	addToWorld(ctx, warden, victim)

	st, _ := executePunishment(warden, ctx)
	assert.Equal(t, Failure, st, "nothing pending, nothing to execute")

	warden.Memory.Semantic.AddKnowledge("violations_found", "contraband on Skazany", "discipline", ctx.Now)
	warden.Memory.Semantic.AddKnowledge("pending_punishment", "solitary", "discipline", ctx.Now)

	st, err := executePunishment(warden, ctx)
	require.NoError(t, err)
	assert.Equal(t, Success, st)
	assert.Equal(t, "solitary", victim.Location)
	assert.Greater(t, victim.Emotions[npc.EmotionFear], 0.0)

	_, ok := warden.Memory.Semantic.Get("pending_punishment")
	assert.False(t, ok)
	_, ok = warden.Memory.Semantic.Get("violations_found")
	assert.False(t, ok)
}

func TestConfiscateItemsStripsContraband(t *testing.T) {
	ctx := newCtx(11)

	guard := newTestNPC(t, npc.Definition{ID: "straznik", Role: "guard", Location: "cell_block"})
	target := newTestNPC(t, npc.Definition{
		ID: "wiezien", Role: "prisoner", Location: "cell_block",
		Inventory: map[string]int{"knife": 1, "rope": 2, "bread": 1},
	})
	addToWorld(ctx, guard, target)

	st, _ := confiscateItems(guard, ctx)
	assert.Equal(t, Failure, st, "no target marked yet")

	ctx.Blackboard["confiscate_from"] = "wiezien"
	st, err := confiscateItems(guard, ctx)
	require.NoError(t, err)
	assert.Equal(t, Success, st)

	assert.Zero(t, target.Inventory["knife"])
	assert.Zero(t, target.Inventory["rope"])
	assert.Equal(t, 1, target.Inventory["bread"], "only contraband is taken")
	assert.Equal(t, 1, guard.Inventory["knife"])
	assert.Equal(t, 2, guard.Inventory["rope"])
	assert.Greater(t, target.Emotions[npc.EmotionAngry], 0.0)

	_, marked := ctx.Blackboard["confiscate_from"]
	assert.False(t, marked)
}

func TestBreakUpFightCalmsFighters(t *testing.T) {
	ctx := newCtx(13)

	guard := newTestNPC(t, npc.Definition{ID: "straznik", Role: "guard", Location: "exercise_yard"})
	first := newTestNPC(t, npc.Definition{ID: "pierwszy", Role: "prisoner", Location: "exercise_yard"})
	second := newTestNPC(t, npc.Definition{ID: "drugi", Role: "prisoner", Location: "exercise_yard"})
	first.State = npc.StateAttacking
	second.State = npc.StateAttacking
	addToWorld(ctx, guard, first, second)

	st, _ := breakUpFight(guard, ctx)
	assert.Equal(t, Failure, st, "no fight on record")

	ctx.Events = append(ctx.Events, types.WorldEvent{
		Type:         types.WorldEventFight,
		Participants: []string{"pierwszy", "drugi"},
		Location:     "exercise_yard",
		Timestamp:    ctx.Now,
	})

	st, err := breakUpFight(guard, ctx)
	require.NoError(t, err)
	assert.Equal(t, Success, st)
	assert.Equal(t, npc.StateIdle, first.State)
	assert.Equal(t, npc.StateIdle, second.State)
	assert.NotNil(t, guard.Relationships["pierwszy"])
	assert.NotNil(t, guard.Relationships["drugi"])
}

func TestDetainFightersSendsFirstPrisonerToSolitary(t *testing.T) {
	ctx := newCtx(13)

	guard := newTestNPC(t, npc.Definition{ID: "straznik", Role: "guard", Location: "exercise_yard"})
	colleague := newTestNPC(t, npc.Definition{ID: "kolega", Role: "guard", Location: "exercise_yard"})
	brawler := newTestNPC(t, npc.Definition{ID: "zadymiarz", Role: "prisoner", Location: "exercise_yard"})
	addToWorld(ctx, guard, colleague, brawler)

	ctx.Events = append(ctx.Events, types.WorldEvent{
		Type:         types.WorldEventFight,
		Participants: []string{"kolega", "zadymiarz"},
		Timestamp:    ctx.Now,
	})

	st, err := detainFighters(guard, ctx)
	require.NoError(t, err)
	assert.Equal(t, Success, st)
	assert.Equal(t, "solitary", brawler.Location)
	assert.Equal(t, "exercise_yard", colleague.Location, "guards are not detained")
}

func TestCoordinatePatrolNeedsTrustedPartner(t *testing.T) {
	ctx := newCtx(10)

	lead := newTestNPC(t, npc.Definition{ID: "pierwszy", Role: "guard", Location: "corridor_main"})
	partner := newTestNPC(t, npc.Definition{ID: "drugi", Role: "guard", Location: "corridor_main"})
	addToWorld(ctx, lead, partner)

	st, _ := coordinatePatrol(lead, ctx)
	assert.Equal(t, Failure, st, "strangers do not split rounds")

	lead.RelationshipWith("drugi").Trust = 40
	st, err := coordinatePatrol(lead, ctx)
	require.NoError(t, err)
	assert.Equal(t, Success, st)
	assert.Equal(t, 41.0, lead.Relationships["drugi"].Trust)
	assert.Equal(t, 1.0, partner.Relationships["pierwszy"].Trust)
}

func TestSearchForScrapsFeedsTheCreature(t *testing.T) {
	ctx := newCtx(22)

	rat := newTestNPC(t, npc.Definition{
		ID: "szczur", Role: "creature", Location: "dungeon", Hunger: fptr(80),
	})
	addToWorld(ctx, rat)

	found := false
	for i := 0; i < 50; i++ {
		if st, _ := searchForScraps(rat, ctx); st == Success {
			found = true
			break
		}
	}
	require.True(t, found, "fifty sniffs should turn something up")
	assert.Contains(t, []string{"garbage", "kitchen", "storage_room"}, rat.Location)
	assert.Equal(t, true, ctx.Blackboard["scraps_found"])

	st, err := eatScraps(rat, ctx)
	require.NoError(t, err)
	assert.Equal(t, Success, st)
	assert.Equal(t, 55.0, rat.Hunger)

	st, _ = eatScraps(rat, ctx)
	assert.Equal(t, Failure, st, "the flag is spent after one meal")
}
