package behavior

import (
	"fmt"
	"strings"

	"github.com/osada/npcmind/pkg/memory"
	"github.com/osada/npcmind/pkg/npc"
	"github.com/osada/npcmind/pkg/types"
)

// traitBranch is one personality expression: if the NPC has any of the
// listed traits, build gets called and the result mounted
type traitBranch struct {
	name   string
	traits []npc.Trait
	build  func() Node
}

// traitGroup holds mutually exclusive branches at one priority. The first
// branch whose traits match wins; an NPC is not both aggressive and
// peaceful no matter what the roster says.
type traitGroup struct {
	priority float64
	branches []traitBranch
}

var personalityGroups = []traitGroup{
	{70, []traitBranch{
		{"fear_driven", []npc.Trait{npc.TraitCowardly, npc.TraitFearsDarkness, npc.TraitParanoid}, buildFearDrivenBranch},
	}},
	{60, []traitBranch{
		{"aggressive_streak", []npc.Trait{npc.TraitAggressive, npc.TraitViolent}, buildAggressiveBranch},
		{"peaceful_ways", []npc.Trait{npc.TraitPeaceful}, buildPeacefulBranch},
	}},
	{55, []traitBranch{
		{"studious_habits", []npc.Trait{npc.TraitIntelligent, npc.TraitKnowledgeable}, buildStudiousBranch},
	}},
	{50, []traitBranch{
		{"introvert_recharge", []npc.Trait{npc.TraitQuiet, npc.TraitSolitary}, buildIntrovertBranch},
		{"extrovert_itch", []npc.Trait{npc.TraitTalkative, npc.TraitSocial}, buildExtrovertBranch},
	}},
	{45, []traitBranch{
		{"principled_conduct", []npc.Trait{npc.TraitHonest}, buildPrincipledBranch},
		{"scheming", []npc.Trait{npc.TraitCunning}, buildSchemingBranch},
	}},
	{44, []traitBranch{
		{"gold_chasing", []npc.Trait{npc.TraitGreedy, npc.TraitCorruptible}, buildVenalBranch},
	}},
	{43, []traitBranch{
		{"helpfulness", []npc.Trait{npc.TraitHelpful}, buildHelpfulBranch},
	}},
}

func hasAnyTrait(set npc.TraitSet, traits []npc.Trait) bool {
	for _, t := range traits {
		if set.Has(t) {
			return true
		}
	}
	return false
}

// buildPersonalityTree assembles the deep-personality layer from whichever
// groups the NPC's traits light up, plus one branch per obsession quirk.
// NPCs with nothing matching get no layer at all.
func buildPersonalityTree(n *npc.NPC) Node {
	root := NewPriority("personality")
	added := false
	for _, group := range personalityGroups {
		for _, branch := range group.branches {
			if hasAnyTrait(n.Traits, branch.traits) {
				root.AddChild(branch.build(), group.priority)
				added = true
				break
			}
		}
	}
	for _, q := range n.Quirks {
		if strings.HasPrefix(q, "obsessed_") {
			root.AddChild(buildObsessionBranch(strings.TrimPrefix(q, "obsessed_")), 65)
			added = true
		}
	}
	if !added {
		return nil
	}
	return root
}

func buildFearDrivenBranch() Node {
	return NewSelector("fear_driven",
		NewSequence("run_from_danger",
			cond("under_attack", isUnderAttack),
			act("flee", flee),
		),
		NewSequence("panic_in_dark",
			cond("in_darkness", isInDarkness),
			act("hide_in_shadows", hideInShadows),
		),
		NewSequence("nerves",
			cond("stressed", isStressed),
			act("seek_reassurance", seekReassurance),
		),
	)
}

func buildAggressiveBranch() Node {
	return NewSelector("aggressive_streak",
		NewSequence("boiling_over",
			cond("very_angry", isVeryAngry),
			act("find_anger_outlet", findAngerOutlet),
		),
		NewSequence("looking_for_trouble",
			cond("enemy_nearby", enemyNearby),
			NewProbability("feeling_mean", act("pick_fight", pickFight), 0.3),
		),
	)
}

func buildPeacefulBranch() Node {
	return NewSelector("peaceful_ways",
		NewSequence("calm_things_down",
			cond("fight_nearby", fightNearby),
			act("defuse_tension", defuseTension),
		),
		NewSequence("keep_own_peace",
			cond("stressed", isStressed),
			act("rest", restAction),
		),
	)
}

func buildStudiousBranch() Node {
	return NewSequence("studious_habits",
		cond("alone", isAlone),
		NewCooldown("study_cooldown", act("study_quietly", studyQuietly), 3600),
	)
}

func buildIntrovertBranch() Node {
	return NewSequence("introvert_recharge",
		NewInverter("in_company", cond("alone", isAlone)),
		cond("worn_down", energyBelow(50)),
		act("withdraw", withdrawSomewhereQuiet),
	)
}

func buildExtrovertBranch() Node {
	return NewSelector("extrovert_itch",
		NewSequence("find_people",
			cond("alone", isAlone),
			act("find_social_group", findSocialGroup),
		),
		NewProbability("chatty_mood", act("socialize", socialize), 0.4),
	)
}

func buildPrincipledBranch() Node {
	return NewSequence("principled_conduct",
		cond("holding_contraband", hasContraband),
		act("turn_in_contraband", turnInContraband),
	)
}

func buildSchemingBranch() Node {
	return NewSequence("scheming",
		NewInverter("unwatched", cond("being_watched", isBeingWatched)),
		NewProbability("plotting_mood", act("plant_misinformation", plantMisinformation), 0.3),
	)
}

func buildVenalBranch() Node {
	return NewSequence("gold_chasing",
		cond("short_on_gold", goldBelow(20)),
		act("work_for_pay", workForPay),
	)
}

func buildHelpfulBranch() Node {
	return NewSequence("helpfulness",
		cond("someone_needs_help", someoneNeedsHelp),
		act("answer_help_request", answerHelpRequest),
	)
}

func buildObsessionBranch(target string) Node {
	return NewProbability("obsessive_pull",
		act("dwell_on_"+target, dwellOnObsession(target)), 0.3)
}

func goldBelow(v int) Predicate {
	return func(n *npc.NPC, ctx *npc.Context) bool { return n.Gold < v }
}

// someoneNeedsHelp checks the collapsed-NPC flag and the recent help calls
func someoneNeedsHelp(n *npc.NPC, ctx *npc.Context) bool {
	if id, ok := ctx.Blackboard["npc_needs_help"].(string); ok && id != "" && id != n.ID {
		return true
	}
	return helpRequested(n, ctx)
}

// seekReassurance looks for a trusted face; failing that the NPC settles
// itself down alone
func seekReassurance(n *npc.NPC, ctx *npc.Context) (Status, error) {
	for _, other := range othersAt(n, ctx) {
		if rel, ok := n.Relationships[other.ID]; ok && rel.Trust > 30 {
			n.InteractWith(other.ID, npc.InteractFriendlyChat, 0.5, ctx.Now)
			n.ModifyEmotion(npc.EmotionFear, -0.1)
			return Success, nil
		}
	}
	return restAction(n, ctx)
}

// pickFight starts something with a random bystander. Half the time it
// escalates into a proper fight event for the guards to deal with.
func pickFight(n *npc.NPC, ctx *npc.Context) (Status, error) {
	others := othersAt(n, ctx)
	if len(others) == 0 {
		return Failure, nil
	}
	victim := others[n.Rand().Intn(len(others))]
	n.InteractWith(victim.ID, npc.InteractInsult, 1.0, ctx.Now)
	victim.ModifyEmotion(npc.EmotionAngry, 0.2)

	if n.Rand().Float64() < 0.5 {
		ev := types.NewWorldEvent(types.WorldEventFight, ctx.Now)
		ev.Description = fmt.Sprintf("%s started a fight with %s", n.Name, victim.Name)
		ev.Participants = []string{n.ID, victim.ID}
		ev.Location = n.Location
		ev.Importance = 0.6
		ctx.Emit(ev)
	}
	n.AddMemory(memory.Event{
		Type:         "picked_fight",
		Description:  "went after " + victim.Name,
		Participants: []string{n.ID, victim.ID},
		Importance:   0.4,
	}, ctx.Now)
	return Success, nil
}

// defuseTension talks the angriest person present down a notch
func defuseTension(n *npc.NPC, ctx *npc.Context) (Status, error) {
	for _, other := range othersAt(n, ctx) {
		if other.DominantEmotion() != npc.EmotionAngry {
			continue
		}
		n.InteractWith(other.ID, npc.InteractFriendlyChat, 0.5, ctx.Now)
		other.ModifyEmotion(npc.EmotionAngry, -0.1)
		n.AddMemory(memory.Event{
			Type:         "defused_tension",
			Description:  "talked " + other.Name + " down",
			Participants: []string{n.ID, other.ID},
			Importance:   0.3,
		}, ctx.Now)
		return Success, nil
	}
	return Failure, nil
}

// studyQuietly files a note away and sharpens the reading habit
func studyQuietly(n *npc.NPC, ctx *npc.Context) (Status, error) {
	n.Location = "library"
	n.Memory.Semantic.AddKnowledge(
		fmt.Sprintf("study_note_%d", n.Memory.Semantic.Len()),
		"something picked up while reading", "study", ctx.Now)
	n.Memory.Procedural.LearnSkill("reading",
		[]string{"find_book", "read_chapter", "take_notes"})
	n.AddMemory(memory.Event{
		Type:        "study",
		Description: "read alone in the library",
		Importance:  0.15,
	}, ctx.Now)
	return Success, nil
}

var quietCorners = []string{"library", "chapel", "cell"}

// withdrawSomewhereQuiet gets an overpeopled introvert out of the room
func withdrawSomewhereQuiet(n *npc.NPC, ctx *npc.Context) (Status, error) {
	spot := randomOf(n, quietCorners)
	if spot == "cell" {
		spot = cellFor(n)
	}
	n.Location = spot
	n.Energy = capAt(n.Energy+3, n.MaxEnergy)
	n.ModifyEmotion(npc.EmotionNeutral, 0.1)
	return Success, nil
}

// turnInContraband hands anything banned to the nearest guard, or just
// dumps it if none is around
func turnInContraband(n *npc.NPC, ctx *npc.Context) (Status, error) {
	var guard *npc.NPC
	for _, other := range othersAt(n, ctx) {
		if other.Role == npc.RoleGuard {
			guard = other
			break
		}
	}
	surrendered := 0
	for _, item := range contrabandItems {
		for n.RemoveItem(item) {
			surrendered++
			if guard != nil {
				guard.AddItem(item, 1)
			}
		}
	}
	if surrendered == 0 {
		return Failure, nil
	}
	if guard != nil {
		n.InteractWith(guard.ID, npc.InteractHelp, 0.5, ctx.Now)
	}
	n.AddMemory(memory.Event{
		Type:        "turned_in_contraband",
		Description: fmt.Sprintf("handed over %d banned items", surrendered),
		Importance:  0.3,
	}, ctx.Now)
	return Success, nil
}

// plantMisinformation seeds a bogus rumor in someone else's head
func plantMisinformation(n *npc.NPC, ctx *npc.Context) (Status, error) {
	others := othersAt(n, ctx)
	if len(others) == 0 {
		return Failure, nil
	}
	target := others[n.Rand().Intn(len(others))]
	subject := randomOf(n, []string{"tunnel_location", "guard_patterns", "hidden_stash"})
	target.Memory.Semantic.AddKnowledge(
		fmt.Sprintf("rumor_from_%s", n.ID),
		fmt.Sprintf("%s swears the %s story is true", n.Name, subject),
		"gossip", ctx.Now)
	n.AddMemory(memory.Event{
		Type:         "planted_rumor",
		Description:  fmt.Sprintf("fed %s a story about %s", target.Name, subject),
		Participants: []string{n.ID, target.ID},
		Importance:   0.3,
	}, ctx.Now)
	return Success, nil
}

// answerHelpRequest goes to whoever flagged for help, feeding the collapsed
// if there is food to spare
func answerHelpRequest(n *npc.NPC, ctx *npc.Context) (Status, error) {
	if id, ok := ctx.Blackboard["npc_needs_help"].(string); ok && id != "" && id != n.ID {
		fallen, found := ctx.NPCs[id]
		if found {
			n.Location = fallen.Location
			n.InteractWith(fallen.ID, npc.InteractHelp, 1.0, ctx.Now)
			fallen.RelationshipWith(n.ID).Adjust(2, 1, 0, 0, 1)
			if fallen.Energy < 10 && n.Inventory["food"] > 0 {
				n.RemoveItem("food")
				fallen.AddItem("food", 1)
			}
			n.AddMemory(memory.Event{
				Type:         "helped",
				Description:  "came to help " + fallen.Name,
				Participants: []string{n.ID, fallen.ID},
				Importance:   0.3,
			}, ctx.Now)
			clearBlackboard(ctx, "npc_needs_help")
			return Success, nil
		}
	}
	for _, ev := range ctx.RecentEvents(5) {
		if ev.Type != types.WorldEventHelpRequest {
			continue
		}
		if ev.Location != "" {
			n.Location = ev.Location
		}
		n.AddMemory(memory.Event{
			Type:        "helped",
			Description: "answered a call for help",
			Importance:  0.3,
		}, ctx.Now)
		return Success, nil
	}
	return Failure, nil
}

// dwellOnObsession builds the action for one obsession quirk. The fixation
// reinforces itself every time it surfaces.
func dwellOnObsession(target string) ActionFunc {
	return func(n *npc.NPC, ctx *npc.Context) (Status, error) {
		n.Memory.Semantic.AddKnowledge("obsession_"+target,
			"cannot stop thinking about "+target, "obsession", ctx.Now)
		n.AddMemory(memory.Event{
			Type:        "obsession",
			Description: "dwelled on " + target + " again",
			Importance:  0.2,
		}, ctx.Now)
		return Success, nil
	}
}

// buildHabitTree wires the procedural store's habit loop into the tick:
// situations trigger, habits fire, repetition reinforces
func buildHabitTree(n *npc.NPC) Node {
	return NewSelector("habits",
		NewSequence("morning_habit",
			NewTimeGated("early_hours", cond("is_early", alwaysTrue), 5, 8),
			NewCooldown("ritual_cooldown", act("morning_ritual", performMorningRitual), 3600),
		),
		NewSequence("stress_habit",
			cond("stressed", isStressed),
			act("stress_response", performStressHabit),
		),
		NewSequence("social_habit",
			cond("socializing", func(n *npc.NPC, ctx *npc.Context) bool {
				return n.State == npc.StateSocializing
			}),
			NewProbability("quirk_surfaces", act("social_quirk", performSocialQuirk), 0.3),
		),
	)
}

// ensureHabit returns the habitual action for the trigger, seeding a
// trait-appropriate default the first time
func ensureHabit(n *npc.NPC, trigger, fallback string, reward float64) string {
	if actions := n.Memory.Procedural.TriggerHabits(trigger); len(actions) > 0 {
		return actions[0]
	}
	n.Memory.Procedural.AddHabit(trigger, fallback, reward)
	return fallback
}

func performMorningRitual(n *npc.NPC, ctx *npc.Context) (Status, error) {
	fallback := "stretch"
	switch {
	case n.Traits.Has(npc.TraitReligious):
		fallback = "pray"
	case n.Traits.Has(npc.TraitOrganized):
		fallback = "tidy_bunk"
	}
	ritual := ensureHabit(n, "morning", fallback, 0.5)
	if ritual == "pray" {
		n.ModifyEmotion(npc.EmotionNeutral, 0.1)
	}
	n.AddMemory(memory.Event{
		Type:        "morning_ritual",
		Description: "started the day with the usual " + ritual,
		Importance:  0.1,
	}, ctx.Now)
	return Success, nil
}

func performStressHabit(n *npc.NPC, ctx *npc.Context) (Status, error) {
	fallback := "deep_breaths"
	switch {
	case n.Traits.Has(npc.TraitParanoid):
		fallback = "check_locks"
	case n.Traits.Has(npc.TraitAggressive):
		fallback = "pace"
	}
	habit := ensureHabit(n, "stress", fallback, 0.4)
	n.ModifyEmotion(npc.EmotionFear, -0.05)
	n.ModifyEmotion(npc.EmotionAngry, -0.05)
	n.AddMemory(memory.Event{
		Type:        "stress_habit",
		Description: "worked off the nerves with " + habit,
		Importance:  0.1,
	}, ctx.Now)
	return Success, nil
}

func performSocialQuirk(n *npc.NPC, ctx *npc.Context) (Status, error) {
	fallback := "crack_knuckles"
	if n.Traits.Has(npc.TraitTalkative) {
		fallback = "retell_story"
	}
	quirk := ensureHabit(n, "social", fallback, 0.3)
	if quirk == "retell_story" {
		if others := othersAt(n, ctx); len(others) > 0 {
			n.InteractWith(others[0].ID, npc.InteractFriendlyChat, 0.2, ctx.Now)
		}
	}
	n.AddMemory(memory.Event{
		Type:        "social_quirk",
		Description: "did the " + quirk + " thing again",
		Importance:  0.1,
	}, ctx.Now)
	return Success, nil
}

// buildEmotionalReactionTree mounts the involuntary responses: trauma
// flashbacks override everything else here, strong moods leak out below
func buildEmotionalReactionTree(n *npc.NPC) Node {
	root := NewPriority("emotional_reactions")
	root.AddChild(NewSequence("trauma_response",
		cond("trauma_triggered", traumaTriggered),
		act("react_to_trauma", reactToTrauma),
	), 90)
	root.AddChild(NewSequence("anger_boiling",
		cond("very_angry", isVeryAngry),
		act("find_anger_outlet", findAngerOutlet),
	), 60)
	root.AddChild(NewSequence("low_spirits",
		cond("very_sad", isVerySad),
		act("seek_comfort", seekComfort),
	), 50)
	root.AddChild(NewSequence("high_spirits",
		cond("very_happy", isVeryHappy),
		NewProbability("mood_spills_over", act("express_happiness", expressHappiness), 0.5),
	), 40)
	return root
}

// reactToTrauma is the flashback response. A strong trigger sends the NPC
// running; a weaker one just shakes them.
func reactToTrauma(n *npc.NPC, ctx *npc.Context) (Status, error) {
	level := n.Memory.Emotional.CheckTriggers(situationHere(n, ctx))
	n.ModifyEmotion(npc.EmotionFear, 0.3)
	n.AddMemory(memory.Event{
		Type:            "trauma_response",
		Description:     fmt.Sprintf("something about %s brought it all back", n.Location),
		Importance:      0.5,
		EmotionalImpact: map[string]float64{"fear": 0.6},
	}, ctx.Now)
	if level > 0.8 || n.Traits.Has(npc.TraitCowardly) {
		return flee(n, ctx)
	}
	return Success, nil
}

// findAngerOutlet burns the anger off in the yard, unless the NPC is the
// type to burn it off on someone
func findAngerOutlet(n *npc.NPC, ctx *npc.Context) (Status, error) {
	if n.Traits.Has(npc.TraitViolent) && len(othersAt(n, ctx)) > 0 {
		if n.Rand().Float64() < 0.3 {
			return pickFight(n, ctx)
		}
	}
	n.Location = "exercise_yard"
	n.ModifyEmotion(npc.EmotionAngry, -0.2)
	n.AddMemory(memory.Event{
		Type:        "blew_off_steam",
		Description: "worked the anger out in the yard",
		Importance:  0.2,
	}, ctx.Now)
	return Success, nil
}

// seekComfort leans on someone trusted nearby
func seekComfort(n *npc.NPC, ctx *npc.Context) (Status, error) {
	for _, other := range othersAt(n, ctx) {
		if rel, ok := n.Relationships[other.ID]; ok && rel.Trust > 50 {
			n.InteractWith(other.ID, npc.InteractFriendlyChat, 0.8, ctx.Now)
			n.ModifyEmotion(npc.EmotionSad, -0.2)
			n.AddMemory(memory.Event{
				Type:         "sought_comfort",
				Description:  "leaned on " + other.Name + " for a while",
				Participants: []string{n.ID, other.ID},
				Importance:   0.2,
			}, ctx.Now)
			return Success, nil
		}
	}
	return Failure, nil
}

// expressHappiness lets a good mood spill onto whoever is around
func expressHappiness(n *npc.NPC, ctx *npc.Context) (Status, error) {
	others := othersAt(n, ctx)
	for i, other := range others {
		if i >= 2 {
			break
		}
		n.InteractWith(other.ID, npc.InteractFriendlyChat, 0.3, ctx.Now)
	}
	n.AddMemory(memory.Event{
		Type:        "good_mood",
		Description: "could not keep the grin down",
		Importance:  0.1,
	}, ctx.Now)
	return Success, nil
}
