package behavior

import (
	"strings"

	"github.com/osada/npcmind/pkg/memory"
	"github.com/osada/npcmind/pkg/npc"
	"github.com/osada/npcmind/pkg/types"
)

// Threshold constants for the condition library. These are the tuning
// values the whole tree is balanced around; change them together with the
// schedule windows in the factory or NPCs start starving at their desks.
const (
	hungryThreshold     = 60.0
	veryHungryThreshold = 80.0
	starvingThreshold   = 90.0
	tiredThreshold      = 30.0
	exhaustedThreshold  = 10.0
	thirstyThreshold    = 60.0

	minimumBribe = 50
)

// contrabandItems are the things a guard confiscates on sight
var contrabandItems = []string{"knife", "lockpick", "rope", "weapon", "drugs"}

// tradeableItems are the prison currency a prisoner can barter with
var tradeableItems = []string{"cigarettes", "food", "information"}

// defaultPlayerID is the relationship key used for the player when the
// manager has not published one on the blackboard
const defaultPlayerID = "player"

func playerID(ctx *npc.Context) string {
	if id, ok := ctx.Blackboard["player_id"].(string); ok && id != "" {
		return id
	}
	return defaultPlayerID
}

// dispositionToward reads the disposition without creating a relationship
// entry for strangers
func dispositionToward(n *npc.NPC, id string) float64 {
	if rel, ok := n.Relationships[id]; ok {
		return rel.Disposition()
	}
	return 0
}

func isHungry(n *npc.NPC, ctx *npc.Context) bool { return n.Hunger > hungryThreshold }

func isVeryHungry(n *npc.NPC, ctx *npc.Context) bool { return n.Hunger > veryHungryThreshold }

func isTired(n *npc.NPC, ctx *npc.Context) bool { return n.Energy < tiredThreshold }

func isExhausted(n *npc.NPC, ctx *npc.Context) bool { return n.Energy < exhaustedThreshold }

func isThirsty(n *npc.NPC, ctx *npc.Context) bool { return n.Thirst > thirstyThreshold }

func isInjured(n *npc.NPC, ctx *npc.Context) bool { return n.Health() < n.MaxHealth()*0.5 }

func isCriticallyInjured(n *npc.NPC, ctx *npc.Context) bool {
	return n.Health() < n.MaxHealth()*0.2
}

// hungerAbove builds a predicate for one-off hunger gates
func hungerAbove(v float64) Predicate {
	return func(n *npc.NPC, ctx *npc.Context) bool { return n.Hunger > v }
}

// energyAbove builds a predicate for one-off energy gates
func energyAbove(v float64) Predicate {
	return func(n *npc.NPC, ctx *npc.Context) bool { return n.Energy > v }
}

// energyBelow builds a predicate for one-off energy gates
func energyBelow(v float64) Predicate {
	return func(n *npc.NPC, ctx *npc.Context) bool { return n.Energy < v }
}

// isUnderAttack reports whether one of the last five world events is an
// attack naming this NPC
func isUnderAttack(n *npc.NPC, ctx *npc.Context) bool {
	for _, ev := range ctx.RecentEvents(5) {
		if ev.Type == types.WorldEventAttack && ev.Involves(n.ID) {
			return true
		}
	}
	return false
}

// seesPrisonerEscaping is the guard's escape check: any prisoner anywhere
// outside a cell counts as out of place
func seesPrisonerEscaping(n *npc.NPC, ctx *npc.Context) bool {
	if n.Role != npc.RoleGuard {
		return false
	}
	for _, other := range ctx.NPCs {
		if other.Role == npc.RolePrisoner && !strings.HasPrefix(other.Location, "cell_") {
			return true
		}
	}
	return false
}

func isWorkTime(n *npc.NPC, ctx *npc.Context) bool { return ctx.Hour >= 8 && ctx.Hour < 18 }

func isSleepTime(n *npc.NPC, ctx *npc.Context) bool { return ctx.Hour >= 22 || ctx.Hour < 6 }

func isMealTime(n *npc.NPC, ctx *npc.Context) bool {
	return ctx.Hour == 7 || ctx.Hour == 12 || ctx.Hour == 18
}

func isSocialTime(n *npc.NPC, ctx *npc.Context) bool { return ctx.Hour >= 19 && ctx.Hour < 22 }

// isShiftStart marks the guard shift-change hours
func isShiftStart(n *npc.NPC, ctx *npc.Context) bool {
	return ctx.Hour == 8 || ctx.Hour == 14 || ctx.Hour == 20
}

func isAlone(n *npc.NPC, ctx *npc.Context) bool {
	return len(ctx.NPCsAt(n.Location)) <= 1
}

func isInDarkness(n *npc.NPC, ctx *npc.Context) bool {
	return ctx.IsDark(n.Location)
}

// fearsTheDark checks both the trait and the quirk spelling, since roster
// files have used either
func fearsTheDark(n *npc.NPC) bool {
	if n.Traits.Has(npc.TraitFearsDarkness) {
		return true
	}
	for _, q := range n.Quirks {
		if q == string(npc.TraitFearsDarkness) {
			return true
		}
	}
	return false
}

// hasEscapePlan reports whether the first active escape goal has made real
// progress
func hasEscapePlan(n *npc.NPC, ctx *npc.Context) bool {
	for _, g := range n.Goals {
		if g.Active && strings.Contains(strings.ToLower(g.Name), "escape") {
			return g.Completion > 0.3
		}
	}
	return false
}

func knowsAboutTunnel(n *npc.NPC, ctx *npc.Context) bool {
	_, ok := n.Memory.Semantic.Get("tunnel_location")
	return ok
}

func knowsSecretRoute(n *npc.NPC, ctx *npc.Context) bool {
	for _, concept := range []string{"tunnel_location", "secret_passage", "hidden_route"} {
		if _, ok := n.Memory.Semantic.Get(concept); ok {
			return true
		}
	}
	return false
}

func trustsPlayer(n *npc.NPC, ctx *npc.Context) bool {
	if rel, ok := n.Relationships[playerID(ctx)]; ok {
		return rel.Trust > 30
	}
	return false
}

func fearsPlayer(n *npc.NPC, ctx *npc.Context) bool {
	if rel, ok := n.Relationships[playerID(ctx)]; ok {
		return rel.Fear > 50
	}
	return false
}

// isEnvironmentalDanger scans the event tail for a fire or flood
func isEnvironmentalDanger(n *npc.NPC, ctx *npc.Context) bool {
	for _, ev := range ctx.RecentEvents(10) {
		if ev.Type == types.WorldEventFire || ev.Type == types.WorldEventFlood {
			return true
		}
	}
	return false
}

func needsMedicalAttention(n *npc.NPC, ctx *npc.Context) bool {
	if n.Health() < n.MaxHealth()*0.3 {
		return true
	}
	for _, injuries := range n.Injuries {
		for _, injury := range injuries {
			if injury.BleedPerMinute > 0.5 {
				return true
			}
		}
	}
	return false
}

func hasUrgentGoal(n *npc.NPC, ctx *npc.Context) bool {
	for _, g := range n.Goals {
		if g.Active && g.IsUrgent(ctx.Now) {
			return true
		}
	}
	return false
}

func hasActiveGoal(n *npc.NPC, ctx *npc.Context) bool {
	for _, g := range n.Goals {
		if g.Active && g.Completion < 1.0 {
			return true
		}
	}
	return false
}

// isBeingWatched reports a guard or someone on patrol sharing the location
func isBeingWatched(n *npc.NPC, ctx *npc.Context) bool {
	for _, other := range ctx.NPCsAt(n.Location) {
		if other.ID == n.ID {
			continue
		}
		if other.Role == npc.RoleGuard || other.State == npc.StatePatrolling {
			return true
		}
	}
	return false
}

func guardNearby(n *npc.NPC, ctx *npc.Context) bool {
	for _, other := range ctx.NPCsAt(n.Location) {
		if other.ID != n.ID && other.Role == npc.RoleGuard {
			return true
		}
	}
	return false
}

func enemyNearby(n *npc.NPC, ctx *npc.Context) bool {
	for _, other := range ctx.NPCsAt(n.Location) {
		if other.ID != n.ID && dispositionToward(n, other.ID) < -50 {
			return true
		}
	}
	return false
}

func humanNearby(n *npc.NPC, ctx *npc.Context) bool {
	for _, other := range ctx.NPCsAt(n.Location) {
		if other.ID == n.ID {
			continue
		}
		switch other.Role {
		case npc.RoleGuard, npc.RolePrisoner, npc.RoleWarden:
			return true
		}
	}
	return false
}

func prisonersNearby(n *npc.NPC, ctx *npc.Context) bool {
	for _, other := range ctx.NPCsAt(n.Location) {
		if other.ID != n.ID && other.Role == npc.RolePrisoner {
			return true
		}
	}
	return false
}

func guardsPresent(n *npc.NPC, ctx *npc.Context) bool {
	for _, other := range ctx.NPCs {
		if other.Role == npc.RoleGuard {
			return true
		}
	}
	return false
}

func hasFood(n *npc.NPC, ctx *npc.Context) bool {
	return n.Inventory["food"] > 0
}

func hasContraband(n *npc.NPC, ctx *npc.Context) bool {
	for _, item := range contrabandItems {
		if n.Inventory[item] > 0 {
			return true
		}
	}
	return false
}

func hasTradeables(n *npc.NPC, ctx *npc.Context) bool {
	for _, item := range tradeableItems {
		if n.Inventory[item] > 0 {
			return true
		}
	}
	return false
}

// isDesperate marks a prisoner hungry or broke enough to consider theft
func isDesperate(n *npc.NPC, ctx *npc.Context) bool {
	return n.Hunger > 70 || n.Gold < 5
}

func needsAllies(n *npc.NPC, ctx *npc.Context) bool {
	friends := 0
	for _, rel := range n.Relationships {
		if rel.Disposition() > 30 {
			friends++
		}
	}
	return friends < 2
}

func canWorkTogether(n *npc.NPC, ctx *npc.Context) bool {
	for _, other := range ctx.NPCsAt(n.Location) {
		if other.ID == n.ID {
			continue
		}
		if rel, ok := n.Relationships[other.ID]; ok {
			if rel.Trust > 30 && rel.Disposition() > 20 {
				return true
			}
		}
	}
	return false
}

// isRiotStarting counts violent events in the recent tail
func isRiotStarting(n *npc.NPC, ctx *npc.Context) bool {
	violent := 0
	for _, ev := range ctx.RecentEvents(10) {
		if ev.Type.IsViolent() {
			violent++
		}
	}
	return violent >= 3
}

// seesSuspiciousActivity is the guard's gut feeling: prisoners loose at
// night, or too many of them bunched up here
func seesSuspiciousActivity(n *npc.NPC, ctx *npc.Context) bool {
	if n.Role != npc.RoleGuard {
		return false
	}
	if ctx.Hour >= 22 || ctx.Hour < 6 {
		for _, other := range ctx.NPCs {
			if other.Role == npc.RolePrisoner && !strings.HasPrefix(other.Location, "cell_") {
				return true
			}
		}
	}
	prisoners := 0
	for _, other := range ctx.NPCsAt(n.Location) {
		if other.Role == npc.RolePrisoner {
			prisoners++
		}
	}
	return prisoners >= 3
}

func fightNearby(n *npc.NPC, ctx *npc.Context) bool {
	for _, ev := range ctx.RecentEvents(5) {
		if ev.Type == types.WorldEventFight {
			return true
		}
	}
	return false
}

func helpRequested(n *npc.NPC, ctx *npc.Context) bool {
	for _, ev := range ctx.RecentEvents(5) {
		if ev.Type == types.WorldEventHelpRequest {
			return true
		}
	}
	return false
}

func hasImportantInfo(n *npc.NPC, ctx *npc.Context) bool {
	return n.Memory.Semantic.Len() > 0
}

func hasSellableInfo(n *npc.NPC, ctx *npc.Context) bool {
	return n.Memory.Semantic.Len() >= 3
}

func hasViolationsRecorded(n *npc.NPC, ctx *npc.Context) bool {
	_, ok := n.Memory.Semantic.Get("violations_found")
	return ok
}

// BribeOffer is a pending bribe parked on the blackboard, typically by the
// manager when the player slips someone money mid-tick
type BribeOffer struct {
	From   string
	Amount int
}

func pendingBribe(ctx *npc.Context) (BribeOffer, bool) {
	offer, ok := ctx.Blackboard["bribe_offer"].(BribeOffer)
	return offer, ok
}

func bribeOffered(n *npc.NPC, ctx *npc.Context) bool {
	offer, ok := pendingBribe(ctx)
	return ok && offer.Amount >= minimumBribe
}

func askedAboutTunnel(n *npc.NPC, ctx *npc.Context) bool {
	asker, ok := ctx.Blackboard["asking_npc"].(string)
	return ok && asker != ""
}

func isSleepingState(n *npc.NPC, ctx *npc.Context) bool {
	return n.State == npc.StateSleeping
}

func isDominantAngry(n *npc.NPC, ctx *npc.Context) bool {
	return n.DominantEmotion() == npc.EmotionAngry
}

func isDominantFear(n *npc.NPC, ctx *npc.Context) bool {
	return n.DominantEmotion() == npc.EmotionFear
}

func isStressed(n *npc.NPC, ctx *npc.Context) bool {
	return n.Emotions[npc.EmotionFear] > 0.3 || n.Emotions[npc.EmotionAngry] > 0.3
}

func isVeryHappy(n *npc.NPC, ctx *npc.Context) bool {
	return n.Emotions[npc.EmotionHappy] > 0.7
}

func isVeryAngry(n *npc.NPC, ctx *npc.Context) bool {
	return n.Emotions[npc.EmotionAngry] > 0.7
}

func isVerySad(n *npc.NPC, ctx *npc.Context) bool {
	return n.Emotions[npc.EmotionSad] > 0.6
}

func wantsToSocialize(n *npc.NPC, ctx *npc.Context) bool {
	return n.Emotions[npc.EmotionSad] > 0.3 || n.Traits.Has(npc.TraitSocial)
}

// situationHere describes the NPC's current surroundings for the emotional
// memory's trigger matching
func situationHere(n *npc.NPC, ctx *npc.Context) memory.Situation {
	var present []string
	for _, other := range ctx.NPCsAt(n.Location) {
		if other.ID != n.ID {
			present = append(present, other.ID)
		}
	}
	return memory.Situation{
		Location:     n.Location,
		Participants: present,
		TimeOfDay:    memory.TimeOfDayLabel(ctx.Hour),
		IsDark:       ctx.IsDark(n.Location),
	}
}

func traumaTriggered(n *npc.NPC, ctx *npc.Context) bool {
	return n.Memory.Emotional.CheckTriggers(situationHere(n, ctx)) > 0.5
}

// alwaysTrue fills the condition slot of gates that only care about the
// hour window
func alwaysTrue(n *npc.NPC, ctx *npc.Context) bool { return true }
