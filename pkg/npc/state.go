package npc

import "sort"

// State is the current activity state of an NPC
type State string

const (
	StateSleeping    State = "sleeping"
	StateWorking     State = "working"
	StateEating      State = "eating"
	StateSocializing State = "socializing"
	StateResting     State = "resting"
	StatePatrolling  State = "patrolling"
	StateIdle        State = "idle"
	StateInDialogue  State = "in_dialogue"
	StateFleeing     State = "fleeing"
	StateAttacking   State = "attacking"
)

// ScheduleProtected reports whether the schedule checker must leave this
// state alone. Only explicit action logic may override these.
func (s State) ScheduleProtected() bool {
	switch s {
	case StateFleeing, StateAttacking, StateInDialogue:
		return true
	}
	return false
}

// activityStates maps schedule activity names to runtime states
var activityStates = map[string]State{
	"sleeping":       StateSleeping,
	"eating":         StateEating,
	"working":        StateWorking,
	"socializing":    StateSocializing,
	"patrolling":     StatePatrolling,
	"waking_routine": StateIdle,
	"idle":           StateIdle,
}

// ActivityState resolves a schedule activity to a state. Prisoners have no
// assigned work, so their working slots idle instead. Unknown activities
// resolve to idle.
func ActivityState(activity string, role Role) State {
	state, ok := activityStates[activity]
	if !ok {
		return StateIdle
	}
	if state == StateWorking && role == RolePrisoner {
		return StateIdle
	}
	return state
}

// Role is the NPC's function in the prison
type Role string

const (
	RoleWarden    Role = "warden"
	RoleGuard     Role = "guard"
	RolePrisoner  Role = "prisoner"
	RoleMerchant  Role = "merchant"
	RoleInformant Role = "informant"
	RoleCreature  Role = "creature"
	RoleGeneric   Role = "generic"
)

// ParseRole maps a string to a known role, defaulting to generic
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleWarden, RoleGuard, RolePrisoner, RoleMerchant, RoleInformant, RoleCreature:
		return Role(s)
	}
	return RoleGeneric
}

// Trait is a personality tag that selects behavior branches
type Trait string

const (
	TraitAggressive    Trait = "aggressive"
	TraitBrave         Trait = "brave"
	TraitCautious      Trait = "cautious"
	TraitCorruptible   Trait = "corruptible"
	TraitCowardly      Trait = "cowardly"
	TraitCunning       Trait = "cunning"
	TraitFearsDarkness Trait = "fears_darkness"
	TraitGreedy        Trait = "greedy"
	TraitHelpful       Trait = "helpful"
	TraitHonest        Trait = "honest"
	TraitInformant     Trait = "informant"
	TraitIntelligent   Trait = "intelligent"
	TraitKnowledgeable Trait = "knowledgeable"
	TraitOrganized     Trait = "organized"
	TraitParanoid      Trait = "paranoid"
	TraitPeaceful      Trait = "peaceful"
	TraitPlanner       Trait = "planner"
	TraitQuiet         Trait = "quiet"
	TraitReligious     Trait = "religious"
	TraitSadistic      Trait = "sadistic"
	TraitSocial        Trait = "social"
	TraitSolitary      Trait = "solitary"
	TraitTalkative     Trait = "talkative"
	TraitViolent       Trait = "violent"
)

// traitAliases folds legacy spellings into canonical traits
var traitAliases = map[string]Trait{
	"coward": TraitCowardly,
}

// TraitSet is the set of personality traits an NPC carries
type TraitSet map[Trait]bool

// NewTraitSet builds a set from raw personality tags, canonicalizing known
// aliases. Unrecognized tags are kept verbatim so roster data can extend the
// vocabulary.
func NewTraitSet(tags []string) TraitSet {
	set := make(TraitSet, len(tags))
	for _, tag := range tags {
		if canonical, ok := traitAliases[tag]; ok {
			set[canonical] = true
			continue
		}
		set[Trait(tag)] = true
	}
	return set
}

// Has reports whether the trait is present
func (ts TraitSet) Has(t Trait) bool {
	return ts[t]
}

// HasAny reports whether any of the given traits are present
func (ts TraitSet) HasAny(traits ...Trait) bool {
	for _, t := range traits {
		if ts[t] {
			return true
		}
	}
	return false
}

// List returns the traits in sorted order
func (ts TraitSet) List() []Trait {
	out := make([]Trait, 0, len(ts))
	for t := range ts {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings returns the traits as sorted plain strings
func (ts TraitSet) Strings() []string {
	list := ts.List()
	out := make([]string, len(list))
	for i, t := range list {
		out[i] = string(t)
	}
	return out
}
