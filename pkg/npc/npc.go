package npc

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/osada/npcmind/internal/config"
	"github.com/osada/npcmind/internal/logger"
	"github.com/osada/npcmind/pkg/memory"
)

// weakMemoryThreshold is the episodic strength floor below which memories
// are forgotten during the per-tick housekeeping pass
const weakMemoryThreshold = 0.05

// Needs aging rates per sim-second
const (
	hungerRate      = 0.01
	thirstRate      = 0.02
	sleepRegenRate  = 0.05
	workDrainRate   = 0.02
	idleDrainRate   = 0.01
	stateChangeNote = 0.1
)

// NPC is one simulated character: identity, needs, emotions, relationships,
// goals, memory, and an assigned brain. All fields are owned by the manager
// tick loop; an NPC never mutates another NPC's data except through the
// other's exported methods.
type NPC struct {
	ID       string
	Name     string
	Role     Role
	Location string
	Traits   TraitSet
	Quirks   []string

	State    State
	Emotions EmotionVector

	Energy    float64
	MaxEnergy float64
	Hunger    float64
	Thirst    float64
	Gold      int
	Inventory map[string]int

	Combat   CombatStats
	Injuries map[BodyPart][]*Injury
	Weapon   string
	Armor    map[string]float64

	Schedule          map[int]string
	ScheduleVariation float64

	Relationships map[string]*Relationship
	Goals         []*Goal

	Memory *memory.System

	Dialogue          DialogueBank
	dialogueCooldowns map[string]float64
	dialogueCooldown  float64

	Brain Brain

	resolver Resolver
	rng      *rand.Rand
	log      *logger.Logger
}

// New builds an NPC from its roster definition. A nil config uses defaults;
// a nil rng gets a time-derived seed; a nil logger falls back to the global.
func New(def Definition, cfg *config.Config, log *logger.Logger, rng *rand.Rand) *NPC {
	memCfg := config.DefaultMemoryConfig()
	behCfg := config.DefaultBehaviorConfig()
	if cfg != nil {
		memCfg = cfg.Memory
		behCfg = cfg.Behavior
	}
	if log == nil {
		log = logger.Global()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	role := ParseRole(def.Role)
	n := &NPC{
		ID:                def.ID,
		Name:              def.Name,
		Role:              role,
		Location:          def.Location,
		Traits:            NewTraitSet(def.Personality),
		Quirks:            append([]string(nil), def.Quirks...),
		State:             StateIdle,
		Emotions:          NewEmotionVector(),
		Energy:            100,
		MaxEnergy:         100,
		Hunger:            50,
		Thirst:            50,
		Gold:              def.Gold,
		Inventory:         make(map[string]int, len(def.Inventory)),
		Combat:            NewCombatStats(role, def.Stats.Strength, def.Stats.Endurance, def.Stats.Agility, rng),
		Injuries:          make(map[BodyPart][]*Injury),
		Weapon:            def.Weapon,
		Armor:             make(map[string]float64, len(def.Armor)),
		ScheduleVariation: behCfg.ScheduleVariation,
		Relationships:     make(map[string]*Relationship),
		dialogueCooldowns: make(map[string]float64),
		dialogueCooldown:  behCfg.DialogueCooldown,
		resolver:          DefaultResolver{},
		rng:               rng,
		log:               log.With("npc", def.ID),
	}

	if def.Energy != nil {
		n.Energy = *def.Energy
	}
	if def.MaxEnergy != nil {
		n.MaxEnergy = *def.MaxEnergy
	}
	if def.Hunger != nil {
		n.Hunger = *def.Hunger
	}
	if def.Thirst != nil {
		n.Thirst = *def.Thirst
	}
	if def.ScheduleVariation != nil {
		n.ScheduleVariation = *def.ScheduleVariation
	}

	for item, count := range def.Inventory {
		n.Inventory[item] = count
	}
	for slot, protection := range def.Armor {
		n.Armor[slot] = protection
	}

	n.Schedule = def.Schedule
	if len(n.Schedule) == 0 {
		n.Schedule = DefaultSchedule()
	}

	for _, seed := range def.Relationships {
		n.Relationships[seed.Target] = &Relationship{
			TargetID:    seed.Target,
			Trust:       clampSigned(seed.Trust),
			Affection:   clampSigned(seed.Affection),
			Respect:     clampSigned(seed.Respect),
			Fear:        clampUnsigned(seed.Fear),
			Familiarity: clampUnsigned(seed.Familiarity),
		}
	}

	for _, gd := range def.Goals {
		goal := NewGoal(gd.Name, gd.Priority)
		goal.Prerequisites = append([]string(nil), gd.Prerequisites...)
		if gd.Deadline != nil {
			d := *gd.Deadline
			goal.Deadline = &d
		}
		n.Goals = append(n.Goals, goal)
	}

	n.Dialogue = make(DialogueBank, len(def.Dialogue)+1)
	for category, lines := range def.Dialogue {
		n.Dialogue[category] = append([]string(nil), lines...)
	}
	if len(n.Dialogue["default"]) == 0 {
		n.Dialogue["default"] = defaultDialogues()
	}

	n.Memory = memory.NewSystem(def.ID, memCfg, log, rng)
	for concept, info := range def.Knowledge {
		n.Memory.Semantic.AddKnowledge(concept, info, "background", 0)
	}

	n.log.Debug("npc created", "name", def.Name, "role", role, "location", def.Location)
	return n
}

// SetResolver swaps the combat resolver. The zero-value DefaultResolver is
// used until the combat collaborator plugs in its own.
func (n *NPC) SetResolver(r Resolver) {
	if r != nil {
		n.resolver = r
	}
}

// SetBrain assigns the decision-making brain
func (n *NPC) SetBrain(b Brain) {
	n.Brain = b
}

// Rand exposes the NPC's private random stream for behavior nodes
func (n *NPC) Rand() *rand.Rand {
	return n.rng
}

// Log exposes the NPC-scoped logger
func (n *NPC) Log() *logger.Logger {
	return n.log
}

// Alive reports whether the NPC still has health left
func (n *NPC) Alive() bool {
	return n.Combat.Health > 0
}

// Health returns current health
func (n *NPC) Health() float64 {
	return n.Combat.Health
}

// MaxHealth returns the health ceiling
func (n *NPC) MaxHealth() float64 {
	return n.Combat.MaxHealth
}

// DominantEmotion returns the currently strongest emotion
func (n *NPC) DominantEmotion() Emotion {
	return n.Emotions.Dominant()
}

// ModifyEmotion shifts one emotion and renormalizes the vector
func (n *NPC) ModifyEmotion(e Emotion, intensity float64) {
	n.Emotions.Modify(e, intensity)
}

// AddItem puts count of an item into the inventory
func (n *NPC) AddItem(item string, count int) {
	if item == "" || count <= 0 {
		return
	}
	n.Inventory[item] += count
}

// RemoveItem takes one of an item, deleting the entry when it runs out. It
// reports whether anything was removed.
func (n *NPC) RemoveItem(item string) bool {
	if n.Inventory[item] <= 0 {
		return false
	}
	n.Inventory[item]--
	if n.Inventory[item] <= 0 {
		delete(n.Inventory, item)
	}
	return true
}

// RelationshipWith returns the relationship toward the target, creating a
// neutral one on first contact
func (n *NPC) RelationshipWith(targetID string) *Relationship {
	rel, ok := n.Relationships[targetID]
	if !ok {
		rel = NewRelationship(targetID)
		n.Relationships[targetID] = rel
	}
	return rel
}

// Update advances the NPC by dt sim-seconds. The order is fixed: needs age,
// emotions fade, the schedule is consulted, memories are housekept, goals
// re-sort, and only then does the brain run.
func (n *NPC) Update(dt float64, ctx *Context) {
	n.updateNeeds(dt)
	n.Emotions.Decay(dt)
	n.checkSchedule(ctx)
	n.updateMemories(ctx.Now)
	n.updateGoals(ctx.Now)
	if n.Brain != nil {
		n.Brain.Tick(n, ctx)
	}
}

func (n *NPC) updateNeeds(dt float64) {
	n.Hunger = minFloat(100, n.Hunger+dt*hungerRate)
	n.Thirst = minFloat(100, n.Thirst+dt*thirstRate)

	switch n.State {
	case StateSleeping:
		n.Energy = minFloat(n.MaxEnergy, n.Energy+dt*sleepRegenRate)
	case StateWorking, StatePatrolling:
		n.Energy = maxFloat(0, n.Energy-dt*workDrainRate)
	default:
		n.Energy = maxFloat(0, n.Energy-dt*idleDrainRate)
	}

	if n.Hunger > 80 {
		n.ModifyEmotion(EmotionAngry, 0.1)
		n.ModifyEmotion(EmotionSad, 0.05)
	}
	if n.Energy < 20 {
		n.ModifyEmotion(EmotionSad, 0.1)
	}
}

func (n *NPC) checkSchedule(ctx *Context) {
	// Nobody follows a schedule to the minute
	if n.rng.Float64() < n.ScheduleVariation {
		return
	}

	activity, ok := n.Schedule[ctx.Hour]
	if !ok {
		activity = "idle"
	}

	if n.State.ScheduleProtected() {
		return
	}

	target := ActivityState(activity, n.Role)
	if target != n.State {
		n.ChangeState(target, ctx.Now)
	}
}

func (n *NPC) updateMemories(now float64) {
	n.Memory.Episodic.PruneWeak(weakMemoryThreshold)
	n.Memory.MaybeConsolidate(now)
}

func (n *NPC) updateGoals(now float64) {
	sort.SliceStable(n.Goals, func(i, j int) bool {
		pi, pj := n.Goals[i].EffectivePriority(now), n.Goals[j].EffectivePriority(now)
		if pi != pj {
			return pi > pj
		}
		return n.Goals[i].Completion > n.Goals[j].Completion
	})
	for _, g := range n.Goals {
		if g.Completion >= 1.0 {
			g.Active = false
		}
	}
}

// ChangeState transitions the NPC to a new state, recording the change as a
// faint episodic memory. Same-state calls are no-ops.
func (n *NPC) ChangeState(target State, now float64) {
	if n.State == target {
		return
	}
	n.log.Debug("state change", "from", n.State, "to", target)
	n.AddMemory(memory.Event{
		Type:         "state_change",
		Description:  fmt.Sprintf("switched from %s to %s", n.State, target),
		Participants: []string{n.ID},
		Location:     n.Location,
		Importance:   stateChangeNote,
	}, now)
	n.State = target
}

// AddMemory records an event in the memory system and feeds any emotional
// impact into the live emotion vector, scaled by importance
func (n *NPC) AddMemory(ev memory.Event, now float64) {
	if ev.Timestamp == 0 {
		ev.Timestamp = now
	}
	if ev.Location == "" {
		ev.Location = n.Location
	}
	n.Memory.ProcessEvent(ev, now)

	if len(ev.EmotionalImpact) == 0 {
		return
	}
	names := make([]string, 0, len(ev.EmotionalImpact))
	for name := range ev.EmotionalImpact {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if e, ok := ParseEmotion(name); ok {
			n.ModifyEmotion(e, ev.EmotionalImpact[name]*ev.Importance)
		}
	}
}

// InteractWith runs one social interaction toward the target: the
// relationship shifts per the delta table and the moment is remembered with
// an importance proportional to its intensity.
func (n *NPC) InteractWith(targetID string, kind InteractionType, intensity, now float64) {
	rel := n.RelationshipWith(targetID)
	rel.UpdateFromInteraction(kind, intensity, now)

	impact := map[string]float64{}
	switch kind {
	case InteractHelp:
		impact["happy"] = 0.3
	case InteractThreat:
		impact["fear"] = 0.5
		impact["angry"] = 0.3
	case InteractBetray:
		impact["angry"] = 0.6
		impact["sad"] = 0.4
	}
	if len(impact) == 0 {
		impact = nil
	}

	n.AddMemory(memory.Event{
		Type:            "interaction_" + string(kind),
		Description:     fmt.Sprintf("%s interaction with %s", kind, targetID),
		Participants:    []string{n.ID, targetID},
		Location:        n.Location,
		Importance:      0.3 * intensity,
		EmotionalImpact: impact,
	}, now)
}

// RecallAbout pulls everything memory associates with the given subject
func (n *NPC) RecallAbout(subject, location string, now float64) memory.Recalled {
	return n.Memory.RecallRelevant(memory.RecallContext{
		TargetNPC:       subject,
		Location:        location,
		PresentEntities: []string{subject},
	}, now)
}
