package behavior

import (
	"fmt"
	"sort"
	"strings"

	"github.com/osada/npcmind/pkg/memory"
	"github.com/osada/npcmind/pkg/npc"
	"github.com/osada/npcmind/pkg/types"
)

func hasQuirk(n *npc.NPC, quirk string) bool {
	for _, q := range n.Quirks {
		if q == quirk {
			return true
		}
	}
	return false
}

// buildWardenTree runs the prison. The authority block is a parallel so
// every duty gets a look each tick. Crisis response outranks everything,
// including a warden's own fear of the dark.
func buildWardenTree(n *npc.NPC) Node {
	root := NewPriority("warden_duties")

	inspection := NewInterruptableSequence("inspection_rounds", isRiotStarting,
		NewSequence("morning_inspection",
			NewTimeGated("morning_window", cond("in_morning_window", alwaysTrue), 6, 10),
			act("inspect_cells", inspectCells),
			act("check_prisoner_count", checkPrisonerCount),
			act("document_violations", documentViolations),
		),
		NewSequence("evening_inspection",
			NewTimeGated("evening_window", cond("in_evening_window", alwaysTrue), 18, 22),
			act("evening_rounds", eveningRounds),
			act("order_lockdown", orderLockdown),
		),
	)
	guardManagement := NewSequence("guard_management",
		cond("guards_present", guardsPresent),
		act("assign_duties", assignDuties),
		NewCooldown("evaluation_cooldown", act("evaluate_guards", evaluateGuards), 3600),
	)
	discipline := NewSelector("discipline",
		NewSequence("punishment",
			cond("violations_on_record", hasViolationsRecorded),
			act("decide_punishment", decidePunishment),
			act("execute_punishment", executePunishment),
		),
		NewSequence("rewards",
			NewProbability("generous_mood", cond("feeling_generous", alwaysTrue), 0.1),
			act("grant_privilege", grantPrivilege),
		),
	)
	root.AddChild(NewParallel("prison_authority", 2, 1, inspection, guardManagement, discipline), 90)

	if n.Traits.Has(npc.TraitSadistic) {
		root.AddChild(NewSequence("sadistic_urges",
			cond("prisoners_nearby", prisonersNearby),
			NewProbability("cruel_impulse", act("intimidate", intimidate), 0.4),
		), 85)
	}
	if fearsTheDark(n) {
		root.AddChild(NewSequence("darkness_panic",
			cond("in_darkness", isInDarkness),
			act("hide_in_shadows", hideInShadows),
		), 95)
	}

	crisis := NewSelector("crisis_management",
		NewSequence("riot_response",
			cond("riot_starting", isRiotStarting),
			act("declare_lockdown", declareLockdown),
		),
		NewSequence("disaster_response",
			cond("environmental_danger", isEnvironmentalDanger),
			act("evacuate", evacuate),
		),
	)
	root.AddChild(crisis, 100)

	return root
}

// inspectCells walks the cell block noting which prisoners are carrying
func inspectCells(n *npc.NPC, ctx *npc.Context) (Status, error) {
	n.Location = "cell_block"
	var carrying []string
	for _, other := range ctx.NPCs {
		if other.Role != npc.RolePrisoner || !strings.HasPrefix(other.Location, "cell_") {
			continue
		}
		for _, item := range contrabandItems {
			if other.Inventory[item] > 0 {
				carrying = append(carrying, other.Name)
				break
			}
		}
	}
	if len(carrying) > 0 {
		n.Memory.Semantic.AddKnowledge("violations_found",
			"contraband spotted on "+strings.Join(carrying, ", "), "discipline", ctx.Now)
	}
	n.AddMemory(memory.Event{
		Type:        "inspection",
		Description: fmt.Sprintf("inspected the cell block, %d violations", len(carrying)),
		Importance:  0.3,
	}, ctx.Now)
	return Success, nil
}

// checkPrisonerCount takes the head count and flags anyone out of place
func checkPrisonerCount(n *npc.NPC, ctx *npc.Context) (Status, error) {
	total := 0
	inCells := 0
	var loose []string
	for _, other := range ctx.NPCs {
		if other.Role != npc.RolePrisoner {
			continue
		}
		total++
		if strings.HasPrefix(other.Location, "cell_") {
			inCells++
		} else {
			loose = append(loose, other.Name)
		}
	}
	if len(loose) > 0 {
		n.Memory.Semantic.AddKnowledge("violations_found",
			"out of cell during count: "+strings.Join(loose, ", "), "discipline", ctx.Now)
	}
	n.AddMemory(memory.Event{
		Type:        "head_count",
		Description: fmt.Sprintf("counted %d of %d prisoners in cells", inCells, total),
		Importance:  0.2,
	}, ctx.Now)
	return Success, nil
}

// documentViolations writes up whatever the rounds turned up. The record
// stays on file until a punishment is carried out.
func documentViolations(n *npc.NPC, ctx *npc.Context) (Status, error) {
	if report, ok := n.Memory.Semantic.Retrieve("violations_found", ctx.Now); ok {
		n.AddMemory(memory.Event{
			Type:        "violations_documented",
			Description: "wrote up the morning report: " + report,
			Importance:  0.4,
		}, ctx.Now)
	}
	return Success, nil
}

func eveningRounds(n *npc.NPC, ctx *npc.Context) (Status, error) {
	n.Location = "cell_block"
	n.AddMemory(memory.Event{
		Type:        "evening_rounds",
		Description: "made the evening rounds",
		Importance:  0.2,
	}, ctx.Now)
	return Success, nil
}

// orderLockdown calls lights-out and notes who is not where they should be
func orderLockdown(n *npc.NPC, ctx *npc.Context) (Status, error) {
	var loose []string
	for _, other := range ctx.NPCs {
		if other.Role == npc.RolePrisoner && !strings.HasPrefix(other.Location, "cell_") {
			loose = append(loose, other.ID)
		}
	}
	ev := types.NewWorldEvent(types.WorldEventAlarm, ctx.Now)
	ev.Description = "lockdown ordered for the night"
	ev.Participants = append([]string{n.ID}, loose...)
	ev.Location = n.Location
	ev.Importance = 0.5
	ctx.Emit(ev)

	n.AddMemory(memory.Event{
		Type:        "lockdown",
		Description: fmt.Sprintf("ordered lockdown, %d prisoners still loose", len(loose)),
		Importance:  0.3,
	}, ctx.Now)
	return Success, nil
}

var guardDuties = []string{"patrol", "gate_duty", "cell_inspection", "escort_duty"}

// assignDuties hands every guard a duty for the shift
func assignDuties(n *npc.NPC, ctx *npc.Context) (Status, error) {
	assigned := 0
	for _, other := range ctx.NPCs {
		if other.Role != npc.RoleGuard {
			continue
		}
		duty := randomOf(n, guardDuties)
		other.Memory.Semantic.AddKnowledge("current_work", duty, "work", ctx.Now)
		assigned++
	}
	if assigned == 0 {
		return Failure, nil
	}
	n.AddMemory(memory.Event{
		Type:        "duties_assigned",
		Description: fmt.Sprintf("assigned duties to %d guards", assigned),
		Importance:  0.2,
	}, ctx.Now)
	return Success, nil
}

// evaluateGuards sizes up each guard, respecting the ones still on their
// feet and marking down the worn out
func evaluateGuards(n *npc.NPC, ctx *npc.Context) (Status, error) {
	for _, other := range ctx.NPCs {
		if other.Role != npc.RoleGuard {
			continue
		}
		rel := n.RelationshipWith(other.ID)
		if other.Energy > 50 {
			rel.Adjust(0, 0, 2, 0, 1)
		} else {
			rel.Adjust(0, 0, -1, 0, 1)
		}
	}
	n.AddMemory(memory.Event{
		Type:        "guard_evaluation",
		Description: "reviewed the guard roster",
		Importance:  0.2,
	}, ctx.Now)
	return Success, nil
}

var punishments = []string{"solitary", "extra_duty", "no_meal"}

func decidePunishment(n *npc.NPC, ctx *npc.Context) (Status, error) {
	punishment := randomOf(n, punishments)
	n.Memory.Semantic.AddKnowledge("pending_punishment", punishment, "discipline", ctx.Now)
	return Success, nil
}

// executePunishment carries out the pending sentence on a nearby prisoner
// and closes the violation record
func executePunishment(n *npc.NPC, ctx *npc.Context) (Status, error) {
	punishment, ok := n.Memory.Semantic.Retrieve("pending_punishment", ctx.Now)
	if !ok {
		return Failure, nil
	}
	var prisoners []*npc.NPC
	for _, other := range ctx.NPCs {
		if other.Role == npc.RolePrisoner {
			prisoners = append(prisoners, other)
		}
	}
	if len(prisoners) == 0 {
		return Failure, nil
	}
	victim := prisoners[n.Rand().Intn(len(prisoners))]
	n.InteractWith(victim.ID, npc.InteractThreat, 1.0, ctx.Now)
	victim.ModifyEmotion(npc.EmotionFear, 0.3)
	if punishment == "solitary" {
		victim.Location = "solitary"
	}
	n.AddMemory(memory.Event{
		Type:         "punishment",
		Description:  fmt.Sprintf("sentenced %s to %s", victim.Name, punishment),
		Participants: []string{n.ID, victim.ID},
		Importance:   0.5,
	}, ctx.Now)
	n.Memory.Semantic.Forget("pending_punishment")
	n.Memory.Semantic.Forget("violations_found")
	return Success, nil
}

// grantPrivilege rewards a random prisoner, the carrot to discipline's stick
func grantPrivilege(n *npc.NPC, ctx *npc.Context) (Status, error) {
	var prisoners []*npc.NPC
	for _, other := range ctx.NPCs {
		if other.Role == npc.RolePrisoner {
			prisoners = append(prisoners, other)
		}
	}
	if len(prisoners) == 0 {
		return Failure, nil
	}
	lucky := prisoners[n.Rand().Intn(len(prisoners))]
	n.RelationshipWith(lucky.ID).Adjust(0, 2, 0, 0, 1)
	lucky.ModifyEmotion(npc.EmotionHappy, 0.2)
	lucky.InteractWith(n.ID, npc.InteractHelp, 0.5, ctx.Now)
	n.AddMemory(memory.Event{
		Type:         "privilege_granted",
		Description:  fmt.Sprintf("granted %s a privilege", lucky.Name),
		Participants: []string{n.ID, lucky.ID},
		Importance:   0.3,
	}, ctx.Now)
	return Success, nil
}

// declareLockdown is the riot response: sound it loud and remember it
func declareLockdown(n *npc.NPC, ctx *npc.Context) (Status, error) {
	ev := types.NewWorldEvent(types.WorldEventAlarm, ctx.Now)
	ev.Description = "emergency lockdown declared"
	ev.Participants = []string{n.ID}
	ev.Location = n.Location
	ev.Importance = 0.9
	ctx.Emit(ev)

	n.AddMemory(memory.Event{
		Type:            "lockdown",
		Description:     "declared an emergency lockdown",
		Importance:      0.6,
		EmotionalImpact: map[string]float64{"fear": 0.2},
	}, ctx.Now)
	return Success, nil
}

// buildGuardTree keeps order. Threat detection outranks the patrol grind,
// and a corruptible guard has a price.
func buildGuardTree(n *npc.NPC) Node {
	root := NewPriority("guard_duties")

	patrolSystem := NewSequence("patrol_shift",
		NewSequence("route_planning",
			cond("shift_start", isShiftStart),
			act("plan_patrol_route", planPatrolRoute),
			act("check_equipment", checkEquipment),
		),
		NewInterruptableSequence("patrol_execution", anyOf(seesSuspiciousActivity, isUnderAttack),
			act("follow_patrol_route", patrol),
			NewProbability("spot_check", act("random_cell_check", randomCellCheck), 0.3),
			act("log_patrol", logPatrolObservations),
		),
	)
	root.AddChild(patrolSystem, 70)

	threatDetection := NewParallel("threat_detection", 1, 1,
		NewSequence("escape_response",
			cond("prisoner_escaping", seesPrisonerEscaping),
			act("raise_alarm", raiseAlarm),
			act("pursue_escapee", pursueEscapee),
		),
		NewSequence("contraband_sweep",
			cond("suspicious_activity", seesSuspiciousActivity),
			act("search_for_contraband", searchForContraband),
			act("confiscate_items", confiscateItems),
		),
		NewSequence("fight_response",
			cond("fight_nearby", fightNearby),
			act("break_up_fight", breakUpFight),
			act("detain_fighters", detainFighters),
		),
	)
	root.AddChild(threatDetection, 85)

	if n.Traits.Has(npc.TraitCorruptible) {
		root.AddChild(NewSequence("corruption",
			cond("bribe_offered", bribeOffered),
			act("accept_bribe", acceptOfferedBribe),
		), 60)
	}

	root.AddChild(NewSequence("guard_teamwork",
		cond("partner_available", canWorkTogether),
		NewCooldown("coordination_cooldown", act("coordinate_patrol", coordinatePatrol), 1800),
	), 65)

	return root
}

func planPatrolRoute(n *npc.NPC, ctx *npc.Context) (Status, error) {
	n.Memory.Semantic.AddKnowledge("patrol_route",
		strings.Join(patrolRoute, " -> "), "work", ctx.Now)
	return Success, nil
}

// checkEquipment swings by the armory if the guard is walking around unarmed
func checkEquipment(n *npc.NPC, ctx *npc.Context) (Status, error) {
	if n.Weapon == "" {
		n.Location = "armory"
		n.AddMemory(memory.Event{
			Type:        "equipment_check",
			Description: "went to the armory to draw a weapon",
			Importance:  0.2,
		}, ctx.Now)
	}
	return Success, nil
}

var cellCheckTargets = []string{"cell_1", "cell_2", "cell_3", "cell_4"}

// randomCellCheck tosses one cell at random
func randomCellCheck(n *npc.NPC, ctx *npc.Context) (Status, error) {
	target := randomOf(n, cellCheckTargets)
	n.Location = target
	for _, other := range othersAt(n, ctx) {
		if other.Role != npc.RolePrisoner {
			continue
		}
		for _, item := range contrabandItems {
			if other.Inventory[item] > 0 {
				n.Memory.Semantic.AddKnowledge("found_contraband",
					fmt.Sprintf("%s is hiding %s in %s", other.Name, item, target), "work", ctx.Now)
				storeBlackboard(ctx, "confiscate_from", other.ID)
				break
			}
		}
	}
	n.AddMemory(memory.Event{
		Type:        "cell_check",
		Description: "tossed " + target,
		Importance:  0.3,
	}, ctx.Now)
	return Success, nil
}

func logPatrolObservations(n *npc.NPC, ctx *npc.Context) (Status, error) {
	n.AddMemory(memory.Event{
		Type:        "patrol_log",
		Description: fmt.Sprintf("logged the round at %s, %d present", n.Location, len(othersAt(n, ctx))),
		Importance:  0.15,
	}, ctx.Now)
	return Success, nil
}

// raiseAlarm puts the whole prison on notice
func raiseAlarm(n *npc.NPC, ctx *npc.Context) (Status, error) {
	ev := types.NewWorldEvent(types.WorldEventAlarm, ctx.Now)
	ev.Description = "alarm raised, prisoner out of bounds"
	ev.Participants = []string{n.ID}
	ev.Location = n.Location
	ev.Importance = 0.8
	ctx.Emit(ev)

	n.AddMemory(memory.Event{
		Type:        "raised_alarm",
		Description: "raised the escape alarm",
		Importance:  0.6,
	}, ctx.Now)
	return Success, nil
}

// pursueEscapee runs down the first prisoner found outside the cells
func pursueEscapee(n *npc.NPC, ctx *npc.Context) (Status, error) {
	var escapee *npc.NPC
	for _, other := range ctx.NPCs {
		if other.Role == npc.RolePrisoner && !strings.HasPrefix(other.Location, "cell_") {
			escapee = other
			break
		}
	}
	if escapee == nil {
		return Failure, nil
	}
	n.ChangeState(npc.StatePatrolling, ctx.Now)
	n.Location = escapee.Location
	n.InteractWith(escapee.ID, npc.InteractThreat, 1.5, ctx.Now)
	escapee.ModifyEmotion(npc.EmotionFear, 0.4)
	n.AddMemory(memory.Event{
		Type:         "pursuit",
		Description:  fmt.Sprintf("ran down %s at %s", escapee.Name, escapee.Location),
		Participants: []string{n.ID, escapee.ID},
		Importance:   0.7,
	}, ctx.Now)
	return Success, nil
}

// searchForContraband pats down nearby prisoners, flagging the first carrier
// for confiscation
func searchForContraband(n *npc.NPC, ctx *npc.Context) (Status, error) {
	n.AddMemory(memory.Event{
		Type:        "search",
		Description: "searched prisoners at " + n.Location,
		Importance:  0.3,
	}, ctx.Now)
	for _, other := range othersAt(n, ctx) {
		if other.Role != npc.RolePrisoner {
			continue
		}
		for _, item := range contrabandItems {
			if other.Inventory[item] > 0 {
				storeBlackboard(ctx, "confiscate_from", other.ID)
				return Success, nil
			}
		}
	}
	return Failure, nil
}

// confiscateItems strips the flagged prisoner of everything on the banned
// list
func confiscateItems(n *npc.NPC, ctx *npc.Context) (Status, error) {
	targetID, _ := ctx.Blackboard["confiscate_from"].(string)
	target, ok := ctx.NPCs[targetID]
	if !ok {
		return Failure, nil
	}
	taken := 0
	for _, item := range contrabandItems {
		for target.RemoveItem(item) {
			n.AddItem(item, 1)
			taken++
		}
	}
	if taken == 0 {
		clearBlackboard(ctx, "confiscate_from")
		return Failure, nil
	}
	n.InteractWith(target.ID, npc.InteractThreat, 0.8, ctx.Now)
	target.ModifyEmotion(npc.EmotionAngry, 0.3)
	n.AddMemory(memory.Event{
		Type:         "confiscation",
		Description:  fmt.Sprintf("confiscated %d items from %s", taken, target.Name),
		Participants: []string{n.ID, target.ID},
		Importance:   0.5,
	}, ctx.Now)
	clearBlackboard(ctx, "confiscate_from")
	return Success, nil
}

// fightersFromEvents pulls the participants of the latest nearby fight
func fightersFromEvents(n *npc.NPC, ctx *npc.Context) []string {
	events := ctx.RecentEvents(5)
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type == types.WorldEventFight {
			return events[i].Participants
		}
	}
	return nil
}

// breakUpFight wades in and threatens everyone involved apart
func breakUpFight(n *npc.NPC, ctx *npc.Context) (Status, error) {
	fighters := fightersFromEvents(n, ctx)
	if len(fighters) == 0 {
		return Failure, nil
	}
	for _, id := range fighters {
		if id == n.ID {
			continue
		}
		n.InteractWith(id, npc.InteractThreat, 1.0, ctx.Now)
		if fighter, ok := ctx.NPCs[id]; ok {
			fighter.ChangeState(npc.StateIdle, ctx.Now)
		}
	}
	n.AddMemory(memory.Event{
		Type:         "break_up_fight",
		Description:  "broke up a fight",
		Participants: append([]string{n.ID}, fighters...),
		Importance:   0.5,
	}, ctx.Now)
	return Success, nil
}

// detainFighters marches the first prisoner involved off to solitary
func detainFighters(n *npc.NPC, ctx *npc.Context) (Status, error) {
	for _, id := range fightersFromEvents(n, ctx) {
		fighter, ok := ctx.NPCs[id]
		if !ok || fighter.Role != npc.RolePrisoner {
			continue
		}
		fighter.Location = "solitary"
		fighter.ModifyEmotion(npc.EmotionFear, 0.3)
		n.AddMemory(memory.Event{
			Type:         "detained",
			Description:  fmt.Sprintf("marched %s to solitary", fighter.Name),
			Participants: []string{n.ID, fighter.ID},
			Importance:   0.5,
		}, ctx.Now)
		return Success, nil
	}
	return Failure, nil
}

func coordinatePatrol(n *npc.NPC, ctx *npc.Context) (Status, error) {
	for _, other := range othersAt(n, ctx) {
		if other.Role != npc.RoleGuard {
			continue
		}
		if rel, ok := n.Relationships[other.ID]; !ok || rel.Trust <= 30 {
			continue
		}
		n.RelationshipWith(other.ID).Adjust(1, 0, 1, 0, 1)
		other.RelationshipWith(n.ID).Adjust(1, 0, 1, 0, 1)
		n.AddMemory(memory.Event{
			Type:         "coordinated_patrol",
			Description:  "split the round with " + other.Name,
			Participants: []string{n.ID, other.ID},
			Importance:   0.2,
		}, ctx.Now)
		return Success, nil
	}
	return Failure, nil
}

// buildPrisonerTree is about getting through the day without drawing
// attention. Planners scheme their way out; the connected trade in
// whispers.
func buildPrisonerTree(n *npc.NPC) Node {
	root := NewPriority("prisoner_survival")

	threatAvoidance := NewSelector("threat_avoidance",
		NewSequence("avoid_guards",
			cond("guard_nearby", guardNearby),
			cond("carrying_contraband", hasContraband),
			act("act_casual", actCasual),
		),
		NewSequence("avoid_enemies",
			cond("enemy_nearby", enemyNearby),
			act("flee", flee),
		),
	)
	alliance := NewSequence("alliance_building",
		cond("needs_allies", needsAllies),
		act("find_ally", findAlly),
		act("build_trust", buildTrust),
	)
	resources := NewSelector("resource_gathering",
		NewSequence("honest_work",
			cond("fit_for_work", energyAbove(30)),
			act("work_for_pay", workForPay),
		),
		NewSequence("trading",
			cond("has_tradeables", hasTradeables),
			act("find_trader", findTrader),
			act("negotiate_trade", negotiateTrade),
		),
		NewSequence("theft",
			cond("desperate", isDesperate),
			NewInverter("unwatched", cond("being_watched", isBeingWatched)),
			act("steal_something", stealSomething),
		),
	)
	root.AddChild(NewParallel("prison_survival", 2, 1, threatAvoidance, alliance, resources), 75)

	if n.Traits.Has(npc.TraitPlanner) || hasQuirk(n, "escape_artist") {
		root.AddChild(NewSequence("escape_planning",
			NewInverter("unobserved", cond("being_watched", isBeingWatched)),
			act("plan_escape", planEscape),
		), 80)
	}
	if n.Traits.Has(npc.TraitTalkative) || n.Traits.Has(npc.TraitInformant) {
		root.AddChild(NewSelector("information_network",
			NewSequence("sell_info",
				cond("has_stock", hasSellableInfo),
				act("trade_information", tradeInformation),
			),
			act("gather_information", gatherInformation),
		), 70)
	}

	root.AddChild(NewSequence("gang_loyalty",
		cond("ally_in_trouble", allyUnderAttack),
		act("back_up_ally", backUpAlly),
	), 65)

	return root
}

// allyUnderAttack checks the recent events for an attack on someone this
// NPC actually likes
func allyUnderAttack(n *npc.NPC, ctx *npc.Context) bool {
	for _, ev := range ctx.RecentEvents(5) {
		if ev.Type != types.WorldEventAttack {
			continue
		}
		for _, p := range ev.Participants {
			if p != n.ID && dispositionToward(n, p) > 30 {
				return true
			}
		}
	}
	return false
}

// actCasual is the art of holding contraband two meters from a guard
func actCasual(n *npc.NPC, ctx *npc.Context) (Status, error) {
	n.ChangeState(npc.StateIdle, ctx.Now)
	n.ModifyEmotion(npc.EmotionFear, 0.1)
	n.AddMemory(memory.Event{
		Type:        "close_call",
		Description: "played it cool with a guard close by",
		Importance:  0.2,
		EmotionalImpact: map[string]float64{
			"fear": 0.2,
		},
	}, ctx.Now)
	return Success, nil
}

// findAlly opens with someone neutral nearby and marks them as a prospect
func findAlly(n *npc.NPC, ctx *npc.Context) (Status, error) {
	for _, other := range othersAt(n, ctx) {
		if other.Role != npc.RolePrisoner {
			continue
		}
		disp := dispositionToward(n, other.ID)
		if disp >= -10 && disp <= 30 {
			n.InteractWith(other.ID, npc.InteractFriendlyChat, 0.8, ctx.Now)
			storeBlackboard(ctx, "ally_prospect", other.ID)
			return Success, nil
		}
	}
	return Failure, nil
}

// buildTrust follows up with the current prospect
func buildTrust(n *npc.NPC, ctx *npc.Context) (Status, error) {
	prospectID, _ := ctx.Blackboard["ally_prospect"].(string)
	prospect, ok := ctx.NPCs[prospectID]
	if !ok || prospect.Location != n.Location {
		return Failure, nil
	}
	n.InteractWith(prospect.ID, npc.InteractHelp, 0.5, ctx.Now)
	if dispositionToward(n, prospect.ID) > 30 {
		clearBlackboard(ctx, "ally_prospect")
	}
	return Success, nil
}

// workForPay is the legal route to a little gold
func workForPay(n *npc.NPC, ctx *npc.Context) (Status, error) {
	n.ChangeState(npc.StateWorking, ctx.Now)
	n.Energy = floorZero(n.Energy - 5)
	n.Gold++
	n.AddMemory(memory.Event{
		Type:        "honest_work",
		Description: "put in a shift for pay",
		Importance:  0.1,
	}, ctx.Now)
	return Success, nil
}

func findTrader(n *npc.NPC, ctx *npc.Context) (Status, error) {
	for _, other := range othersAt(n, ctx) {
		if other.ID != n.ID && other.Gold >= 10 {
			storeBlackboard(ctx, "trade_partner", other.ID)
			return Success, nil
		}
	}
	return Failure, nil
}

// negotiateTrade sells one tradeable to the flagged partner at whatever
// they can pay
func negotiateTrade(n *npc.NPC, ctx *npc.Context) (Status, error) {
	partnerID, _ := ctx.Blackboard["trade_partner"].(string)
	partner, ok := ctx.NPCs[partnerID]
	if !ok || partner.Location != n.Location {
		clearBlackboard(ctx, "trade_partner")
		return Failure, nil
	}

	var item string
	for _, candidate := range tradeableItems {
		if n.Inventory[candidate] > 0 {
			item = candidate
			break
		}
	}
	if item == "" {
		clearBlackboard(ctx, "trade_partner")
		return Failure, nil
	}

	price := 5 + n.Rand().Intn(11)
	if price > partner.Gold {
		price = partner.Gold
	}
	n.RemoveItem(item)
	partner.AddItem(item, 1)
	n.Gold += price
	partner.Gold -= price
	n.InteractWith(partner.ID, npc.InteractFriendlyChat, 0.5, ctx.Now)
	n.AddMemory(memory.Event{
		Type:         "trade",
		Description:  fmt.Sprintf("sold %s to %s for %d gold", item, partner.Name, price),
		Participants: []string{n.ID, partner.ID},
		Importance:   0.3,
	}, ctx.Now)
	clearBlackboard(ctx, "trade_partner")
	return Success, nil
}

// stealSomething lifts a random item off a random mark. A third of the time
// the mark notices.
func stealSomething(n *npc.NPC, ctx *npc.Context) (Status, error) {
	var marks []*npc.NPC
	for _, other := range othersAt(n, ctx) {
		if len(other.Inventory) > 0 {
			marks = append(marks, other)
		}
	}
	if len(marks) == 0 {
		return Failure, nil
	}

	mark := marks[n.Rand().Intn(len(marks))]
	var items []string
	for item := range mark.Inventory {
		items = append(items, item)
	}
	sort.Strings(items)
	item := items[n.Rand().Intn(len(items))]
	mark.RemoveItem(item)
	n.AddItem(item, 1)

	if n.Rand().Float64() < 0.3 {
		mark.InteractWith(n.ID, "theft", 1.0, ctx.Now)
		mark.ModifyEmotion(npc.EmotionAngry, 0.3)
	}
	n.AddMemory(memory.Event{
		Type:            "theft",
		Description:     fmt.Sprintf("lifted %s off %s", item, mark.Name),
		Participants:    []string{n.ID, mark.ID},
		Importance:      0.5,
		EmotionalImpact: map[string]float64{"fear": 0.3},
	}, ctx.Now)
	return Success, nil
}

// backUpAlly moves to an attacked friend and stands with them
func backUpAlly(n *npc.NPC, ctx *npc.Context) (Status, error) {
	for _, ev := range ctx.RecentEvents(5) {
		if ev.Type != types.WorldEventAttack {
			continue
		}
		for _, p := range ev.Participants {
			if p == n.ID || dispositionToward(n, p) <= 30 {
				continue
			}
			ally, ok := ctx.NPCs[p]
			if !ok {
				continue
			}
			n.Location = ally.Location
			n.InteractWith(ally.ID, npc.InteractHelp, 1.0, ctx.Now)
			ally.RelationshipWith(n.ID).Adjust(2, 1, 1, 0, 1)
			n.AddMemory(memory.Event{
				Type:         "backed_up_ally",
				Description:  "stood with " + ally.Name,
				Participants: []string{n.ID, ally.ID},
				Importance:   0.4,
			}, ctx.Now)
			return Success, nil
		}
	}
	return Failure, nil
}

// buildCreatureTree is for the prison's rats and strays. Instinct drives
// everything, and night makes them bold.
func buildCreatureTree(n *npc.NPC) Node {
	root := NewPriority("creature_instincts")

	instincts := NewParallel("base_instincts", 1, 1,
		NewSequence("foraging",
			cond("hungry", isHungry),
			act("search_for_scraps", searchForScraps),
			act("eat_scraps", eatScraps),
		),
		NewSequence("human_avoidance",
			cond("human_nearby", humanNearby),
			act("scurry_to_hiding", scurryToHiding),
		),
		NewSequence("exploration",
			NewInverter("unwatched", cond("being_watched", isBeingWatched)),
			act("explore_area", exploreArea),
		),
	)
	root.AddChild(instincts, 90)

	root.AddChild(NewSequence("nocturnal_activity",
		NewTimeGated("night_window", cond("is_night", alwaysTrue), 20, 5),
		act("increased_activity", increasedActivity),
	), 70)

	return root
}

var scrapSpots = []string{"garbage", "kitchen", "storage_room"}

// searchForScraps noses through the usual spots. A find is remembered, so
// hungry humans can end up following the same trail.
func searchForScraps(n *npc.NPC, ctx *npc.Context) (Status, error) {
	spot := randomOf(n, scrapSpots)
	n.Location = spot
	if n.Rand().Float64() < 0.4 {
		storeBlackboard(ctx, "scraps_found", true)
		n.AddMemory(memory.Event{
			Type:        "food_found",
			Description: "sniffed out scraps at " + spot,
			Location:    spot,
			Importance:  0.3,
		}, ctx.Now)
		return Success, nil
	}
	return Failure, nil
}

func eatScraps(n *npc.NPC, ctx *npc.Context) (Status, error) {
	if found, _ := ctx.Blackboard["scraps_found"].(bool); !found {
		return Failure, nil
	}
	clearBlackboard(ctx, "scraps_found")
	n.Hunger = floorZero(n.Hunger - 25)
	return Success, nil
}

var hidingSpots = []string{"dungeon", "storage_room", "cell_basement"}

func scurryToHiding(n *npc.NPC, ctx *npc.Context) (Status, error) {
	n.ChangeState(npc.StateFleeing, ctx.Now)
	n.ModifyEmotion(npc.EmotionFear, 0.2)
	n.Location = randomOf(n, hidingSpots)
	return Success, nil
}

func increasedActivity(n *npc.NPC, ctx *npc.Context) (Status, error) {
	n.ChangeState(npc.StatePatrolling, ctx.Now)
	n.Energy = floorZero(n.Energy - 2)
	if n.Rand().Float64() < 0.3 {
		n.AddMemory(memory.Event{
			Type:        "night_prowl",
			Description: "prowled the corridors after dark",
			Importance:  0.1,
		}, ctx.Now)
	}
	return Success, nil
}
