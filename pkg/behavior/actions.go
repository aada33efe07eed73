package behavior

import (
	"fmt"
	"strings"

	"github.com/osada/npcmind/pkg/memory"
	"github.com/osada/npcmind/pkg/npc"
	"github.com/osada/npcmind/pkg/types"
)

func floorZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func capAt(v, max float64) float64 {
	if v > max {
		return max
	}
	return v
}

func randomOf(n *npc.NPC, options []string) string {
	return options[n.Rand().Intn(len(options))]
}

// othersAt lists everyone sharing the NPC's location, excluding itself
func othersAt(n *npc.NPC, ctx *npc.Context) []*npc.NPC {
	var out []*npc.NPC
	for _, other := range ctx.NPCsAt(n.Location) {
		if other.ID != n.ID {
			out = append(out, other)
		}
	}
	return out
}

// cellFor derives a prisoner's home cell from the trailing digit of its ID
func cellFor(n *npc.NPC) string {
	if len(n.ID) > 0 {
		last := n.ID[len(n.ID)-1]
		if last >= '0' && last <= '9' {
			return "cell_" + string(last)
		}
	}
	return "cell_1"
}

func storeBlackboard(ctx *npc.Context, key string, value any) {
	if ctx.Blackboard != nil {
		ctx.Blackboard[key] = value
	}
}

func clearBlackboard(ctx *npc.Context, key string) {
	if ctx.Blackboard != nil {
		delete(ctx.Blackboard, key)
	}
}

// flee picks the safest reachable spot and runs there. Threat level comes
// off the blackboard and scales both the panic and how vividly the escape
// is remembered.
func flee(n *npc.NPC, ctx *npc.Context) (Status, error) {
	n.ChangeState(npc.StateFleeing, ctx.Now)

	threat := 0.5
	if t, ok := ctx.Blackboard["threat_level"].(float64); ok {
		threat = t
	}
	threatSource, _ := ctx.Blackboard["threat_source"].(string)
	n.ModifyEmotion(npc.EmotionFear, 0.3+0.4*threat)

	candidates := safeLocationsFor(n, ctx, threatSource)
	var reachable []string
	for _, loc := range candidates {
		if loc != n.Location {
			reachable = append(reachable, loc)
		}
	}
	if len(reachable) == 0 {
		reachable = []string{"corridor_main", "main_hall"}
	}

	from := n.Location
	dest := safestOf(n, ctx, reachable)
	n.Location = dest

	participants := []string{n.ID}
	if threatSource != "" {
		participants = append(participants, threatSource)
	}
	n.AddMemory(memory.Event{
		Type:         "fled",
		Description:  fmt.Sprintf("fled from %s to %s", from, dest),
		Participants: participants,
		Location:     dest,
		Importance:   0.4 + 0.3*threat,
		EmotionalImpact: map[string]float64{
			"fear":     0.5 + 0.3*threat,
			"surprise": 0.2,
		},
	}, ctx.Now)
	n.Memory.Procedural.LearnSequence("escape_route_from_"+from, []string{from, dest})

	n.Log().Info("fled", "from", from, "to", dest, "threat", threat)
	return Success, nil
}

// safeLocationsFor returns where this NPC instinctively runs. A prisoner
// fleeing a guard hides in the crowd; fleeing anyone else it runs for its
// cell or the guards.
func safeLocationsFor(n *npc.NPC, ctx *npc.Context, threatSource string) []string {
	switch n.Role {
	case npc.RolePrisoner:
		if threatNPC, ok := ctx.NPCs[threatSource]; ok && threatNPC.Role == npc.RoleGuard {
			return []string{"mess_hall", "exercise_yard", "workshop", "laundry"}
		}
		return []string{"cell_1", "cell_2", "cell_3", "cell_4", "guard_room"}
	case npc.RoleGuard:
		return []string{"guard_room", "armory", "warden_office", "watchtower"}
	default:
		return []string{"main_hall", "courtyard", "infirmary"}
	}
}

// safestOf scores each candidate against remembered assessments and the
// emotional record, keeping the first strict best
func safestOf(n *npc.NPC, ctx *npc.Context, candidates []string) string {
	best := candidates[0]
	bestScore := -1.0
	for _, loc := range candidates {
		score := 1.0
		for _, ep := range n.Memory.Episodic.Recall(memory.Query{EventType: "location_assessment", Location: loc}, 3, ctx.Now) {
			desc := strings.ToLower(ep.Description)
			if strings.Contains(desc, "danger") {
				score *= 0.5
			}
			if strings.Contains(desc, "safe") {
				score *= 1.5
			}
		}
		resp := n.Memory.Emotional.Response(loc)
		if resp["fear"] > 0.5 {
			score *= 0.3
		}
		if resp["safe"] > 0.5 {
			score *= 2.0
		}
		if score > bestScore {
			best = loc
			bestScore = score
		}
	}
	return best
}

// defendSelf braces against an incoming attack instead of running
func defendSelf(n *npc.NPC, ctx *npc.Context) (Status, error) {
	n.ChangeState(npc.StateAttacking, ctx.Now)
	ok, desc := n.Defend()
	n.Log().Debug("defends", "outcome", desc)
	if ok {
		n.ModifyEmotion(npc.EmotionAngry, 0.3)
		n.ModifyEmotion(npc.EmotionFear, -0.1)
		return Success, nil
	}
	n.ModifyEmotion(npc.EmotionFear, 0.2)
	return Running, nil
}

// attackTarget squares up against the blackboard target, or whoever the
// recent attack events name, and lands a swing if they are in reach
func attackTarget(n *npc.NPC, ctx *npc.Context) (Status, error) {
	targetID, _ := ctx.Blackboard["attack_target"].(string)
	if targetID == "" {
		for _, ev := range ctx.RecentEvents(5) {
			if ev.Type != types.WorldEventAttack || !ev.Involves(n.ID) {
				continue
			}
			for _, p := range ev.Participants {
				if p != n.ID {
					targetID = p
					break
				}
			}
			if targetID != "" {
				break
			}
		}
	}
	if targetID == "" {
		return Failure, nil
	}

	n.ChangeState(npc.StateAttacking, ctx.Now)
	n.ModifyEmotion(npc.EmotionAngry, 0.4)
	storeBlackboard(ctx, "attack_target", targetID)

	if target, ok := ctx.NPCs[targetID]; ok && target.Location == n.Location && target.Alive() {
		hit, desc := n.Attack(target, ctx.Now)
		n.Log().Info("attacks", "target", targetID, "hit", hit, "outcome", desc)
	} else {
		n.Log().Info("squares up", "target", targetID)
	}
	return Success, nil
}

var patrolRoute = []string{"corridor_main", "cell_block", "guard_room", "courtyard", "cell_block"}

// patrol walks the fixed guard route one stop per activation. Spotting a
// prisoner along the way files a suspicious-activity memory and keeps the
// patrol running.
func patrol(n *npc.NPC, ctx *npc.Context) (Status, error) {
	if n.Role != npc.RoleGuard {
		return Failure, nil
	}
	n.ChangeState(npc.StatePatrolling, ctx.Now)

	idx := 0
	if v, ok := ctx.Blackboard["patrol_index"].(int); ok {
		idx = v
	}
	idx = (idx + 1) % len(patrolRoute)
	storeBlackboard(ctx, "patrol_index", idx)
	n.Location = patrolRoute[idx]

	for _, other := range othersAt(n, ctx) {
		if other.Role == npc.RolePrisoner {
			n.AddMemory(memory.Event{
				Type:         "suspicious_activity",
				Description:  fmt.Sprintf("spotted %s out of cell at %s", other.Name, n.Location),
				Participants: []string{n.ID, other.ID},
				Importance:   0.7,
			}, ctx.Now)
			return Running, nil
		}
	}
	return Success, nil
}

// eatMeal heads to where this role takes meals and eats
func eatMeal(n *npc.NPC, ctx *npc.Context) (Status, error) {
	n.ChangeState(npc.StateEating, ctx.Now)
	switch n.Role {
	case npc.RoleGuard:
		n.Location = "guard_room"
	case npc.RoleWarden:
		n.Location = "warden_office"
	default:
		n.Location = "mess_hall"
	}
	n.Hunger = floorZero(n.Hunger - 40)
	n.Thirst = floorZero(n.Thirst - 30)
	n.ModifyEmotion(npc.EmotionHappy, 0.2)
	n.AddMemory(memory.Event{
		Type:        "meal",
		Description: fmt.Sprintf("ate a meal at %s", n.Location),
		Importance:  0.1,
	}, ctx.Now)
	return Success, nil
}

// sleepAction puts the NPC to bed in its own quarters
func sleepAction(n *npc.NPC, ctx *npc.Context) (Status, error) {
	n.ChangeState(npc.StateSleeping, ctx.Now)
	switch n.Role {
	case npc.RolePrisoner:
		if !strings.HasPrefix(n.Location, "cell_") {
			n.Location = cellFor(n)
		}
	case npc.RoleGuard:
		n.Location = "guard_quarters"
	case npc.RoleWarden:
		n.Location = "warden_quarters"
	}
	n.Energy = capAt(n.Energy+10, n.MaxEnergy)
	return Success, nil
}

// workAction is the basic day-shift behavior per role. Guards work by
// patrolling.
func workAction(n *npc.NPC, ctx *npc.Context) (Status, error) {
	n.ChangeState(npc.StateWorking, ctx.Now)
	switch n.Role {
	case npc.RoleGuard:
		return patrol(n, ctx)
	case npc.RoleWarden:
		n.Location = "warden_office"
		n.AddMemory(memory.Event{
			Type:        "work",
			Description: "handled prison paperwork",
			Importance:  0.1,
		}, ctx.Now)
	case npc.RolePrisoner:
		n.Location = randomOf(n, []string{"laundry", "kitchen", "workshop"})
		n.Energy = floorZero(n.Energy - 5)
	}
	return Success, nil
}

// socialize strikes up something with a random co-located NPC, shaded by
// how the NPC already feels about them
func socialize(n *npc.NPC, ctx *npc.Context) (Status, error) {
	n.ChangeState(npc.StateSocializing, ctx.Now)
	partners := othersAt(n, ctx)
	if len(partners) == 0 {
		n.ModifyEmotion(npc.EmotionSad, 0.05)
		return Failure, nil
	}

	partner := partners[n.Rand().Intn(len(partners))]
	disp := n.RelationshipWith(partner.ID).Disposition()
	switch {
	case disp > 30:
		n.InteractWith(partner.ID, npc.InteractFriendlyChat, 1.0, ctx.Now)
		n.ModifyEmotion(npc.EmotionHappy, 0.1)
	case disp < -30:
		if n.Rand().Float64() >= 0.3 {
			return Failure, nil
		}
		n.InteractWith(partner.ID, npc.InteractInsult, 1.0, ctx.Now)
		n.ModifyEmotion(npc.EmotionAngry, 0.2)
	default:
		n.InteractWith(partner.ID, npc.InteractFriendlyChat, 0.5, ctx.Now)
	}
	return Success, nil
}

var rumorTypes = []string{"guard_schedule", "weakness", "secret", "escape_plan"}

// gatherInformation works the room for rumors. Only the chatty and the
// professionally curious bother.
func gatherInformation(n *npc.NPC, ctx *npc.Context) (Status, error) {
	if !n.Traits.Has(npc.TraitTalkative) && !n.Traits.Has(npc.TraitInformant) {
		return Failure, nil
	}
	for _, other := range othersAt(n, ctx) {
		if n.Rand().Float64() >= 0.3 {
			continue
		}
		infoType := randomOf(n, rumorTypes)
		reliability := 0.3 + 0.6*n.Rand().Float64()
		n.Memory.Semantic.AddKnowledge(
			fmt.Sprintf("%s_%s", infoType, other.ID),
			fmt.Sprintf("heard about %s from %s (reliability %.1f)", infoType, other.Name, reliability),
			"gossip", ctx.Now)
		n.AddMemory(memory.Event{
			Type:         "information_gathered",
			Description:  fmt.Sprintf("picked up a rumor about %s", infoType),
			Participants: []string{n.ID, other.ID},
			Importance:   0.4,
		}, ctx.Now)
		return Success, nil
	}
	return Failure, nil
}

// planEscape quietly advances every active escape goal. Once a plan is
// nearly complete and nobody is around outside work hours, the prisoner
// makes for the tunnel.
func planEscape(n *npc.NPC, ctx *npc.Context) (Status, error) {
	if n.Role != npc.RolePrisoner {
		return Failure, nil
	}

	var escapeGoals []*npc.Goal
	for _, g := range n.Goals {
		if g.Active && strings.Contains(strings.ToLower(g.Name), "escape") {
			escapeGoals = append(escapeGoals, g)
		}
	}
	if len(escapeGoals) == 0 {
		if !n.Traits.Has(npc.TraitQuiet) {
			return Failure, nil
		}
		g := npc.NewGoal("escape_plan", 0.7)
		n.Goals = append(n.Goals, g)
		escapeGoals = append(escapeGoals, g)
	}

	for _, g := range escapeGoals {
		g.Advance(0.05)
		if g.Completion > 0.8 && isAlone(n, ctx) && !isWorkTime(n, ctx) {
			n.Location = "tunnel_entrance"
			n.AddMemory(memory.Event{
				Type:        "escape_attempt",
				Description: "slipped away toward the tunnel",
				Importance:  0.9,
				EmotionalImpact: map[string]float64{
					"fear":  0.4,
					"happy": 0.3,
				},
			}, ctx.Now)
			return Success, nil
		}
	}
	return Running, nil
}

// hideInShadows is the panic response of someone afraid of the dark caught
// in it: bolt for anywhere lit
func hideInShadows(n *npc.NPC, ctx *npc.Context) (Status, error) {
	if !isInDarkness(n, ctx) || !fearsTheDark(n) {
		return Failure, nil
	}
	n.ModifyEmotion(npc.EmotionFear, 0.4)
	n.Location = randomOf(n, []string{"main_hall", "courtyard", "guard_room"})
	n.AddMemory(memory.Event{
		Type:            "fear_response",
		Description:     "fled the darkness for somewhere lit",
		Importance:      0.3,
		EmotionalImpact: map[string]float64{"fear": 0.5},
	}, ctx.Now)
	return Success, nil
}

// acceptOfferedBribe takes the money parked on the blackboard. Half the
// time the NPC privately notes who it now owes.
func acceptOfferedBribe(n *npc.NPC, ctx *npc.Context) (Status, error) {
	if !n.Traits.Has(npc.TraitCorruptible) {
		return Failure, nil
	}
	offer, ok := pendingBribe(ctx)
	if !ok || offer.Amount < minimumBribe {
		return Failure, nil
	}

	n.AcceptBribe(offer.Amount, offer.From, ctx.Now)
	n.ModifyEmotion(npc.EmotionHappy, 0.3)
	if n.Rand().Float64() < 0.5 {
		n.Memory.Semantic.AddKnowledge("bribe_debt",
			fmt.Sprintf("owes a favor to %s for %d gold", offer.From, offer.Amount),
			"social", ctx.Now)
	}
	clearBlackboard(ctx, "bribe_offer")
	return Success, nil
}

// shareTunnelInfo passes the tunnel location to whoever asked, but only
// under trust or dread
func shareTunnelInfo(n *npc.NPC, ctx *npc.Context) (Status, error) {
	info, ok := n.Memory.Semantic.Retrieve("tunnel_location", ctx.Now)
	if !ok {
		return Failure, nil
	}
	asker, ok := ctx.Blackboard["asking_npc"].(string)
	if !ok || asker == "" {
		return Failure, nil
	}

	rel := n.RelationshipWith(asker)
	if rel.Trust <= 40 && rel.Fear <= 60 {
		return Failure, nil
	}
	if askerNPC, ok := ctx.NPCs[asker]; ok {
		askerNPC.Memory.Semantic.AddKnowledge("tunnel_location", info, "secret", ctx.Now)
	}
	n.AddMemory(memory.Event{
		Type:         "shared_secret",
		Description:  "gave up the tunnel location",
		Participants: []string{n.ID, asker},
		Importance:   0.6,
	}, ctx.Now)
	clearBlackboard(ctx, "asking_npc")
	return Success, nil
}

// tradeInformation sells a rumor to anyone nearby with coin. Sellers with a
// thin stock go gather more instead.
func tradeInformation(n *npc.NPC, ctx *npc.Context) (Status, error) {
	if !n.Traits.Has(npc.TraitTalkative) {
		return Failure, nil
	}
	if n.Memory.Semantic.Len() < 3 {
		return gatherInformation(n, ctx)
	}

	for _, other := range othersAt(n, ctx) {
		if other.Gold < 10 {
			continue
		}
		if n.Rand().Float64() >= 0.3 {
			continue
		}
		value := 10 + n.Rand().Intn(21)
		n.Gold += value
		n.ModifyEmotion(npc.EmotionHappy, 0.2)
		concepts := n.Memory.Semantic.Concepts()
		sold := concepts[n.Rand().Intn(len(concepts))]
		n.AddMemory(memory.Event{
			Type:         "information_trade",
			Description:  fmt.Sprintf("sold %s to %s for %d gold", sold, other.Name, value),
			Participants: []string{n.ID, other.ID},
			Importance:   0.3,
		}, ctx.Now)
		return Success, nil
	}
	return Failure, nil
}

// intimidate picks a random nearby prisoner and leans on them
func intimidate(n *npc.NPC, ctx *npc.Context) (Status, error) {
	if n.Role != npc.RoleWarden && !n.Traits.Has(npc.TraitSadistic) {
		return Failure, nil
	}
	var victims []*npc.NPC
	for _, other := range othersAt(n, ctx) {
		if other.Role == npc.RolePrisoner {
			victims = append(victims, other)
		}
	}
	if len(victims) == 0 {
		return Failure, nil
	}

	victim := victims[n.Rand().Intn(len(victims))]
	n.InteractWith(victim.ID, npc.InteractThreat, 1.5, ctx.Now)
	n.ModifyEmotion(npc.EmotionHappy, 0.2)
	victim.ModifyEmotion(npc.EmotionFear, 0.5)
	victim.InteractWith(n.ID, "fear", 2.0, ctx.Now)
	n.AddMemory(memory.Event{
		Type:            "intimidation",
		Description:     fmt.Sprintf("put the fear into %s", victim.Name),
		Participants:    []string{n.ID, victim.ID},
		Importance:      0.4,
		EmotionalImpact: map[string]float64{"happy": 0.3},
	}, ctx.Now)
	return Success, nil
}

// restAction settles somewhere fitting the NPC's temperament, recovers a
// little, and lets the day's strongest memories set
func restAction(n *npc.NPC, ctx *npc.Context) (Status, error) {
	n.ChangeState(npc.StateResting, ctx.Now)

	var spots []string
	switch {
	case n.Traits.Has(npc.TraitSolitary):
		spots = []string{"cell", "library", "chapel"}
	case n.Traits.Has(npc.TraitSocial):
		spots = []string{"common_room", "mess_hall", "exercise_yard"}
	default:
		spots = []string{"cell", "common_room", "courtyard"}
	}
	spot := randomOf(n, spots)
	if spot == "cell" {
		spot = cellFor(n)
	}
	n.Location = spot

	regen := 5.0
	switch {
	case strings.HasPrefix(n.Location, "cell"):
		regen = 7
	case n.Location == "chapel" || n.Location == "library":
		regen = 6
	}
	n.Energy = capAt(n.Energy+regen, n.MaxEnergy)

	n.ModifyEmotion(npc.EmotionNeutral, 0.15)
	n.ModifyEmotion(npc.EmotionSad, -0.1)
	n.ModifyEmotion(npc.EmotionAngry, -0.1)

	// Idle reflection reinforces what mattered most
	for _, ep := range n.Memory.Episodic.MostImportant(3) {
		ep.Strength = capAt(ep.Strength+0.05, 1.0)
	}
	return Success, nil
}

// seekMedicalHelp limps to the infirmary and waits for anyone who can treat
func seekMedicalHelp(n *npc.NPC, ctx *npc.Context) (Status, error) {
	n.Location = "infirmary"
	n.ChangeState(npc.StateFleeing, ctx.Now)
	n.AddMemory(memory.Event{
		Type:        "medical_emergency",
		Description: "dragged themselves to the infirmary",
		Importance:  0.8,
		EmotionalImpact: map[string]float64{
			"fear": 0.6,
			"pain": 0.7,
		},
	}, ctx.Now)

	for _, other := range othersAt(n, ctx) {
		id := strings.ToLower(other.ID)
		name := strings.ToLower(other.Name)
		if strings.Contains(id, "medic") || strings.Contains(id, "doctor") ||
			strings.Contains(name, "medic") || strings.Contains(name, "doctor") {
			n.InteractWith(other.ID, npc.InteractHelp, 1.5, ctx.Now)
			return Success, nil
		}
	}
	return Running, nil
}

// evacuate heads for whichever exits make sense for the hazard in the
// recent events
func evacuate(n *npc.NPC, ctx *npc.Context) (Status, error) {
	n.ChangeState(npc.StateFleeing, ctx.Now)
	storeBlackboard(ctx, "emergency_warning", true)

	exits := []string{"main_hall", "courtyard"}
	for _, ev := range ctx.RecentEvents(10) {
		switch ev.Type {
		case types.WorldEventFire:
			exits = []string{"courtyard", "exercise_yard", "main_gate"}
		case types.WorldEventFlood:
			exits = []string{"upper_floor", "roof", "watchtower"}
		}
	}
	n.Location = randomOf(n, exits)
	return Success, nil
}

// exploreArea wanders for a few ticks before declaring the round done
func exploreArea(n *npc.NPC, ctx *npc.Context) (Status, error) {
	n.ChangeState(npc.StatePatrolling, ctx.Now)
	progress := 0.0
	if v, ok := ctx.Blackboard["explore_progress"].(float64); ok {
		progress = v
	}
	progress += 0.1
	if progress >= 1.0 {
		clearBlackboard(ctx, "explore_progress")
		return Success, nil
	}
	storeBlackboard(ctx, "explore_progress", progress)
	return Running, nil
}

// observeEnvironment notes who is around, feeding the episodic store's
// location picture
func observeEnvironment(n *npc.NPC, ctx *npc.Context) (Status, error) {
	others := othersAt(n, ctx)
	present := make([]string, 0, len(others)+1)
	present = append(present, n.ID)
	for _, other := range others {
		present = append(present, other.ID)
	}
	n.AddMemory(memory.Event{
		Type:         "observation",
		Description:  fmt.Sprintf("watched %s, %d others around", n.Location, len(others)),
		Participants: present,
		Importance:   0.1,
	}, ctx.Now)
	return Success, nil
}

// personalActivity is light downtime shaded by temperament
func personalActivity(n *npc.NPC, ctx *npc.Context) (Status, error) {
	switch {
	case n.Traits.Has(npc.TraitQuiet):
		n.Energy = capAt(n.Energy+5, n.MaxEnergy)
		n.Log().Debug("reads in a corner")
	case n.Traits.Has(npc.TraitAggressive):
		n.Log().Debug("does pushups")
	case n.Traits.Has(npc.TraitSocial):
		n.Log().Debug("chats idly")
	default:
		n.Energy = capAt(n.Energy+2, n.MaxEnergy)
	}
	return Success, nil
}

// maintainItems is a pass through the NPC's few possessions
func maintainItems(n *npc.NPC, ctx *npc.Context) (Status, error) {
	if len(n.Inventory) == 0 {
		return Success, nil
	}
	n.AddMemory(memory.Event{
		Type:        "maintenance",
		Description: fmt.Sprintf("went through their %d possessions", len(n.Inventory)),
		Importance:  0.05,
	}, ctx.Now)
	return Success, nil
}

// morningRoutine is the wake-up ritual: gear, hygiene, and a planner's
// daily goal review
func morningRoutine(n *npc.NPC, ctx *npc.Context) (Status, error) {
	if n.Role == npc.RoleGuard && n.Weapon == "" {
		n.Location = "armory"
	}
	if n.Role == npc.RolePrisoner && hasContraband(n, ctx) {
		n.Memory.Semantic.AddKnowledge("contraband_hidden",
			"stash tucked away before morning inspection", "secret", ctx.Now)
	}
	if n.Rand().Float64() < 0.8 {
		n.Location = "bathroom"
		n.Thirst = floorZero(n.Thirst - 10)
	}
	if n.Traits.Has(npc.TraitPlanner) {
		for _, g := range n.Goals {
			if g.Active && g.Priority > 0.5 {
				g.Priority = capAt(g.Priority+0.1, 1.0)
			}
		}
	}
	return Success, nil
}

// eveningRoutine winds the day down according to temperament
func eveningRoutine(n *npc.NPC, ctx *npc.Context) (Status, error) {
	if n.Traits.Has(npc.TraitOrganized) {
		n.Memory.Semantic.AddKnowledge("tomorrow_prepared",
			"laid out everything for the morning", "habit", ctx.Now)
	}
	if n.Traits.Has(npc.TraitReligious) && n.Rand().Float64() < 0.5 {
		n.Location = "chapel"
		n.ModifyEmotion(npc.EmotionNeutral, 0.2)
	}
	if n.Traits.Has(npc.TraitParanoid) {
		n.Memory.Semantic.AddKnowledge("security_checked",
			"checked the locks and sightlines again", "habit", ctx.Now)
	}
	if n.Rand().Float64() < 0.7 {
		n.Location = "bathroom"
	}
	n.Energy = floorZero(n.Energy - 5)
	return Success, nil
}

var foodSpots = []string{"kitchen", "mess_hall", "storage", "garbage"}

// desperateFoodSearch checks every spot the NPC remembers finding food,
// then falls back to begging or stealing from whoever is carrying
func desperateFoodSearch(n *npc.NPC, ctx *npc.Context) (Status, error) {
	for _, loc := range foodSpots {
		if len(n.Memory.Episodic.Recall(memory.Query{EventType: "food_found", Location: loc}, 1, ctx.Now)) > 0 {
			n.Location = loc
			n.Hunger = floorZero(n.Hunger - 50)
			return Success, nil
		}
	}
	for _, other := range othersAt(n, ctx) {
		if other.Inventory["food"] <= 0 {
			continue
		}
		if n.RelationshipWith(other.ID).Trust > 0 {
			n.InteractWith(other.ID, "beg_for_food", 1.0, ctx.Now)
		} else {
			n.InteractWith(other.ID, "steal_attempt", 1.0, ctx.Now)
		}
		return Running, nil
	}
	return Failure, nil
}

func goToMessHall(n *npc.NPC, ctx *npc.Context) (Status, error) {
	n.Location = "mess_hall"
	return Success, nil
}

var mealTopics = []string{"food_quality", "prison_gossip", "guard_behavior", "escape_rumors"}

// mealSocializing is table talk with whoever is eating nearby. Escape talk
// only passes between trusted parties.
func mealSocializing(n *npc.NPC, ctx *npc.Context) (Status, error) {
	var eating []*npc.NPC
	for _, other := range othersAt(n, ctx) {
		if other.State == npc.StateEating {
			eating = append(eating, other)
		}
	}
	if len(eating) == 0 {
		return Failure, nil
	}

	companion := eating[n.Rand().Intn(len(eating))]
	topic := randomOf(n, mealTopics)
	if topic == "escape_rumors" {
		if _, ok := n.Memory.Semantic.Get("escape_plan"); ok {
			if n.RelationshipWith(companion.ID).Trust > 50 {
				companion.Memory.Semantic.AddKnowledge("escape_rumor",
					fmt.Sprintf("%s hinted at a way out", n.Name), "gossip", ctx.Now)
			}
		}
	}
	n.InteractWith(companion.ID, npc.InteractFriendlyChat, 0.5, ctx.Now)
	n.ModifyEmotion(npc.EmotionHappy, 0.1)
	return Success, nil
}

func eatAvailableFood(n *npc.NPC, ctx *npc.Context) (Status, error) {
	if !n.RemoveItem("food") {
		return Failure, nil
	}
	n.Hunger = floorZero(n.Hunger - 30)
	return Success, nil
}

// collapseAction is what happens when energy runs out on its feet
func collapseAction(n *npc.NPC, ctx *npc.Context) (Status, error) {
	n.ChangeState(npc.StateResting, ctx.Now)
	n.Energy = 0
	n.AddMemory(memory.Event{
		Type:        "collapsed",
		Description: "collapsed from exhaustion",
		Importance:  0.7,
		EmotionalImpact: map[string]float64{
			"fear":       0.4,
			"exhaustion": 0.9,
		},
	}, ctx.Now)
	storeBlackboard(ctx, "npc_needs_help", n.ID)
	return Success, nil
}

func goToSleepingArea(n *npc.NPC, ctx *npc.Context) (Status, error) {
	switch n.Role {
	case npc.RolePrisoner:
		n.Location = cellFor(n)
	case npc.RoleGuard:
		n.Location = "guard_quarters"
	case npc.RoleWarden:
		n.Location = "warden_quarters"
	default:
		n.Location = "dormitory"
	}
	return Success, nil
}

func takePowerNap(n *npc.NPC, ctx *npc.Context) (Status, error) {
	n.ChangeState(npc.StateResting, ctx.Now)
	n.Energy = capAt(n.Energy+15, n.MaxEnergy)
	n.AddMemory(memory.Event{
		Type:        "nap",
		Description: "stole a short nap",
		Importance:  0.1,
	}, ctx.Now)
	return Success, nil
}

var waterSpots = []string{"bathroom", "kitchen", "mess_hall", "fountain"}

// findWater checks remembered sources first, otherwise tries its luck spot
// by spot
func findWater(n *npc.NPC, ctx *npc.Context) (Status, error) {
	for _, loc := range waterSpots {
		remembered := len(n.Memory.Episodic.Recall(memory.Query{EventType: "water_found", Location: loc}, 1, ctx.Now)) > 0
		if remembered || n.Rand().Float64() < 0.3 {
			n.Location = loc
			n.AddMemory(memory.Event{
				Type:        "water_found",
				Description: fmt.Sprintf("found water at %s", loc),
				Location:    loc,
				Importance:  0.2,
			}, ctx.Now)
			return Success, nil
		}
	}
	return Failure, nil
}

func drinkWater(n *npc.NPC, ctx *npc.Context) (Status, error) {
	n.Thirst = floorZero(n.Thirst - 40)
	return Success, nil
}

// deepSleep is the overnight recovery pass: body heals, the memory system
// consolidates, and dreams surface whatever the emotional store is carrying
func deepSleep(n *npc.NPC, ctx *npc.Context) (Status, error) {
	n.ChangeState(npc.StateSleeping, ctx.Now)
	n.Energy = capAt(n.Energy+15, n.MaxEnergy)
	n.Combat.Health = capAt(n.Combat.Health+2, n.Combat.MaxHealth)
	n.Memory.ConsolidateAll(ctx.Now)

	roll := n.Rand().Float64()
	if roll < 0.3 {
		if n.Memory.Emotional.TraumaCount() > 0 {
			n.ModifyEmotion(npc.EmotionFear, 0.2)
			n.AddMemory(memory.Event{
				Type:            "nightmare",
				Description:     "woke sweating from a nightmare",
				Importance:      0.2,
				EmotionalImpact: map[string]float64{"fear": 0.3},
			}, ctx.Now)
		}
	} else if roll < 0.6 {
		if n.Memory.Emotional.PositiveCount() > 0 {
			n.ModifyEmotion(npc.EmotionHappy, 0.1)
		}
	}
	return Success, nil
}

// wakeUp surfaces from sleep, mood set by how restful the night was
func wakeUp(n *npc.NPC, ctx *npc.Context) (Status, error) {
	n.ChangeState(npc.StateIdle, ctx.Now)
	if n.Energy > 70 {
		n.ModifyEmotion(npc.EmotionHappy, 0.1)
	} else if n.Energy < 30 {
		n.ModifyEmotion(npc.EmotionSad, 0.1)
		n.ModifyEmotion(npc.EmotionAngry, 0.1)
	}
	return Success, nil
}

// extendedSocializing is the long dinner table session: small talk with the
// group, and gossip propagation if the NPC is the talkative sort
func extendedSocializing(n *npc.NPC, ctx *npc.Context) (Status, error) {
	others := othersAt(n, ctx)
	if len(others) < 2 {
		return Failure, nil
	}
	group := others
	if len(group) > 3 {
		group = group[:3]
	}
	for _, member := range group {
		n.InteractWith(member.ID, npc.InteractFriendlyChat, 0.3, ctx.Now)
	}

	if n.Traits.Has(npc.TraitTalkative) {
		var worth []types.WorldEvent
		for _, ev := range ctx.RecentEvents(20) {
			if ev.Importance > 0.3 && !ev.Involves(n.ID) {
				worth = append(worth, ev)
			}
		}
		if len(worth) > 0 {
			gossip := worth[n.Rand().Intn(len(worth))]
			credibility := 0.3 + 0.6*n.Rand().Float64()
			for _, member := range group {
				rel := n.RelationshipWith(member.ID)
				if rel.Trust <= 20 {
					continue
				}
				member.Memory.Semantic.AddKnowledge(
					fmt.Sprintf("gossip_%s", gossip.ID),
					fmt.Sprintf("%s (heard from %s, credibility %.1f)", gossip.Description, n.Name, credibility),
					"gossip", ctx.Now)
				rel.Adjust(1, 1, 0, 0, 2)
			}
		}
	}
	n.ModifyEmotion(npc.EmotionHappy, 0.2)
	return Success, nil
}

// getWorkAssignment draws today's duty and files it
func getWorkAssignment(n *npc.NPC, ctx *npc.Context) (Status, error) {
	var assignment string
	switch n.Role {
	case npc.RolePrisoner:
		assignment = randomOf(n, []string{"laundry", "kitchen", "workshop", "cleaning", "library"})
	case npc.RoleGuard:
		assignment = randomOf(n, []string{"patrol", "gate_duty", "cell_inspection", "escort_duty"})
	default:
		assignment = "office_work"
	}
	n.Memory.Semantic.AddKnowledge("current_work", assignment, "work", ctx.Now)
	return Success, nil
}

var workplaces = map[string]string{
	"laundry":         "laundry_room",
	"kitchen":         "kitchen",
	"workshop":        "workshop",
	"cleaning":        "corridor_main",
	"library":         "library",
	"patrol":          "corridor_main",
	"gate_duty":       "main_gate",
	"cell_inspection": "cell_block",
	"escort_duty":     "corridor_main",
}

var workEffort = map[string]float64{
	"laundry":         8,
	"kitchen":         6,
	"workshop":        7,
	"cleaning":        5,
	"library":         3,
	"patrol":          10,
	"gate_duty":       4,
	"cell_inspection": 6,
	"escort_duty":     8,
	"office_work":     4,
}

var workFindings = map[string][]string{
	"kitchen":  {"food", "knife", "spoon"},
	"workshop": {"tool", "nail", "wire"},
	"laundry":  {"soap", "cloth", "button"},
	"library":  {"book", "paper", "pen"},
	"cleaning": {"coin", "key", "note"},
	"patrol":   {"contraband", "weapon", "drugs"},
}

// performWork does the assigned duty: travel, effort, the occasional find,
// and skill practice for crafts
func performWork(n *npc.NPC, ctx *npc.Context) (Status, error) {
	n.ChangeState(npc.StateWorking, ctx.Now)

	workType := "general_work"
	if w, ok := n.Memory.Semantic.Retrieve("current_work", ctx.Now); ok {
		workType = w
	}

	if workType == "office_work" {
		if n.Role == npc.RoleWarden {
			n.Location = "warden_office"
		} else {
			n.Location = "guard_room"
		}
	} else if place, ok := workplaces[workType]; ok {
		n.Location = place
	}

	effort := 5.0
	if e, ok := workEffort[workType]; ok {
		effort = e
	}
	n.Energy = floorZero(n.Energy - effort)

	if n.Rand().Float64() < 0.1 {
		findDuringWork(n, ctx, workType)
	}

	switch workType {
	case "workshop", "kitchen", "library":
		n.Memory.Procedural.LearnSkill(workType+"_skill",
			[]string{"work_at_" + workType, "use_tools", "complete_task"})
	}
	return Success, nil
}

// findDuringWork handles the occasional item turned up on the job. Guards
// log contraband instead of pocketing it.
func findDuringWork(n *npc.NPC, ctx *npc.Context, workType string) {
	findings, ok := workFindings[workType]
	if !ok {
		findings = []string{"trash"}
	}
	item := randomOf(n, findings)

	isContraband := item == "contraband" || item == "weapon" || item == "drugs"
	if n.Role == npc.RoleGuard && isContraband {
		n.Memory.Semantic.AddKnowledge("found_contraband",
			fmt.Sprintf("turned up %s during %s", item, workType), "work", ctx.Now)
	} else {
		n.AddItem(item, 1)
	}
	n.AddMemory(memory.Event{
		Type:        "found_item",
		Description: fmt.Sprintf("found %s while doing %s", item, workType),
		Importance:  0.2,
	}, ctx.Now)
}

// takeWorkBreak catches a breather, sometimes drifting into chat
func takeWorkBreak(n *npc.NPC, ctx *npc.Context) (Status, error) {
	n.ChangeState(npc.StateResting, ctx.Now)
	n.Energy = capAt(n.Energy+5, n.MaxEnergy)
	if n.Rand().Float64() < 0.5 {
		socialize(n, ctx)
	}
	return Success, nil
}

var socialSpots = []string{"common_room", "exercise_yard", "mess_hall", "library"}

// findSocialGroup heads for wherever the friendliest faces are gathered
func findSocialGroup(n *npc.NPC, ctx *npc.Context) (Status, error) {
	best := ""
	bestScore := 0.0
	for _, spot := range socialSpots {
		score := 0.0
		for _, other := range ctx.NPCsAt(spot) {
			if other.ID == n.ID {
				continue
			}
			if disp := dispositionToward(n, other.ID); disp > 0 {
				score += disp
			}
		}
		if score > bestScore {
			best = spot
			bestScore = score
		}
	}
	if best != "" {
		n.Location = best
		return Success, nil
	}
	n.Location = randomOf(n, socialSpots)
	return Running, nil
}

var groupActivities = []string{"card_game", "storytelling", "workout", "debate", "singing", "chess"}

// engageInGroupActivity runs one round of a shared pastime, with the
// relationship fallout depending on what was played
func engageInGroupActivity(n *npc.NPC, ctx *npc.Context) (Status, error) {
	n.ChangeState(npc.StateSocializing, ctx.Now)
	participants := othersAt(n, ctx)
	if len(participants) == 0 {
		n.ModifyEmotion(npc.EmotionSad, 0.1)
		return Failure, nil
	}
	if len(participants) > 4 {
		participants = participants[:4]
	}

	activity := randomOf(n, groupActivities)
	ids := []string{n.ID}
	for _, p := range participants {
		ids = append(ids, p.ID)
		n.InteractWith(p.ID, "group_activity", 0.5, ctx.Now)
		rel := n.RelationshipWith(p.ID)
		switch activity {
		case "card_game", "chess":
			if n.Rand().Float64() < 0.5 {
				rel.Adjust(0, 1, 2, 0, 0)
			} else {
				rel.Adjust(0, 1, -1, 0, 0)
			}
		case "storytelling", "singing":
			rel.Adjust(0, 3, 0, 0, 2)
		case "workout":
			rel.Adjust(1, 0, 2, 0, 0)
		}
	}

	n.AddMemory(memory.Event{
		Type:         "group_activity",
		Description:  fmt.Sprintf("joined a round of %s", activity),
		Participants: ids,
		Importance:   0.3,
		EmotionalImpact: map[string]float64{
			"happy":  0.4,
			"social": 0.5,
		},
	}, ctx.Now)
	n.ModifyEmotion(npc.EmotionHappy, 0.3)
	return Success, nil
}

// pursueUrgentGoal throws effort at the most pressing deadline
func pursueUrgentGoal(n *npc.NPC, ctx *npc.Context) (Status, error) {
	var urgent *npc.Goal
	for _, g := range n.Goals {
		if !g.Active || !g.IsUrgent(ctx.Now) {
			continue
		}
		if urgent == nil || g.Priority > urgent.Priority {
			urgent = g
		}
	}
	if urgent == nil {
		return Failure, nil
	}

	name := strings.ToLower(urgent.Name)
	switch {
	case strings.Contains(name, "escape"):
		urgent.Advance(0.1)
	case strings.Contains(name, "survive"):
		if n.Hunger > 70 {
			return eatAvailableFood(n, ctx)
		}
		if n.Energy < 30 {
			return restAction(n, ctx)
		}
	case strings.Contains(name, "revenge"):
		urgent.Advance(0.05)
	default:
		urgent.Advance(0.1)
	}
	return Success, nil
}

// workOnGoal grinds the first unfinished goal. A few goal families map to
// concrete progress measures; the rest just accumulate.
func workOnGoal(n *npc.NPC, ctx *npc.Context) (Status, error) {
	var goal *npc.Goal
	for _, g := range n.Goals {
		if g.Active && g.Completion < 1.0 {
			goal = g
			break
		}
	}
	if goal == nil {
		return Failure, nil
	}

	name := strings.ToLower(goal.Name)
	switch {
	case strings.Contains(name, "wealth"), strings.Contains(name, "money"), strings.Contains(name, "gold"):
		n.Gold++
		goal.Completion = capAt(float64(n.Gold)/100, 1.0)
	case strings.Contains(name, "friend"), strings.Contains(name, "relationship"), strings.Contains(name, "trust"):
		rel := n.RelationshipWith(playerID(ctx))
		rel.Adjust(0.5, 0, 0, 0, 0)
		goal.Completion = capAt(floorZero(rel.Trust/100), 1.0)
	case strings.Contains(name, "learn"), strings.Contains(name, "knowledge"), strings.Contains(name, "study"):
		n.Memory.Semantic.AddKnowledge(
			fmt.Sprintf("study_note_%d", n.Memory.Semantic.Len()),
			"something picked up while studying", "study", ctx.Now)
		goal.Completion = capAt(float64(n.Memory.Semantic.Len())/10, 1.0)
	default:
		goal.Advance(0.02)
	}
	return Success, nil
}
