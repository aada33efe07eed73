package npc

import (
	"fmt"
	"math/rand"

	"github.com/osada/npcmind/pkg/memory"
)

// BodyPart is a hit location
type BodyPart string

const (
	BodyHead     BodyPart = "head"
	BodyTorso    BodyPart = "torso"
	BodyLeftArm  BodyPart = "left_arm"
	BodyRightArm BodyPart = "right_arm"
	BodyLeftLeg  BodyPart = "left_leg"
	BodyRightLeg BodyPart = "right_leg"
)

// bodyPartWeights drive random hit location selection
var bodyPartWeights = []struct {
	part   BodyPart
	weight float64
}{
	{BodyTorso, 0.40},
	{BodyHead, 0.10},
	{BodyLeftArm, 0.15},
	{BodyRightArm, 0.15},
	{BodyLeftLeg, 0.10},
	{BodyRightLeg, 0.10},
}

// RandomBodyPart picks a weighted hit location
func RandomBodyPart(rng *rand.Rand) BodyPart {
	roll := rng.Float64()
	acc := 0.0
	for _, bw := range bodyPartWeights {
		acc += bw.weight
		if roll < acc {
			return bw.part
		}
	}
	return BodyTorso
}

// DamageType classifies how damage is dealt
type DamageType string

const (
	DamageBlunt  DamageType = "blunt"
	DamageSlash  DamageType = "slash"
	DamagePierce DamageType = "pierce"
)

// Injury is a lingering wound on one body part. It bleeds and heals over
// recovery time.
type Injury struct {
	Name           string  `json:"name"`
	BleedPerMinute float64 `json:"bleed_per_minute"`
	HealMinutes    float64 `json:"heal_minutes"`
}

// CombatStats are the inline combat numbers the core stores per NPC. The
// full combat engine lives outside this package and mutates these through
// the Resolver.
type CombatStats struct {
	Health           float64 `json:"health"`
	MaxHealth        float64 `json:"max_health"`
	Stamina          float64 `json:"stamina"`
	MaxStamina       float64 `json:"max_stamina"`
	Pain             float64 `json:"pain"`
	Exhaustion       float64 `json:"exhaustion"`
	AttackSpeed      float64 `json:"attack_speed"`
	DamageMultiplier float64 `json:"damage_multiplier"`
	DefenseMult      float64 `json:"defense_multiplier"`
}

type roleModifier struct {
	health  float64
	stamina float64
	defense float64
}

var roleModifiers = map[Role]roleModifier{
	RoleGuard:     {1.2, 1.1, 0.15},
	RolePrisoner:  {0.9, 0.9, 0.05},
	RoleMerchant:  {0.8, 0.8, 0.0},
	RoleInformant: {0.85, 1.0, 0.1},
	RoleCreature:  {0.4, 0.6, 0.0},
}

var defaultRoleModifier = roleModifier{1.0, 1.0, 0.1}

// NewCombatStats derives combat numbers from base attributes and role.
// Attributes left at zero roll 8-15.
func NewCombatStats(role Role, strength, endurance, agility int, rng *rand.Rand) CombatStats {
	if strength <= 0 {
		strength = 8 + rng.Intn(8)
	}
	if endurance <= 0 {
		endurance = 8 + rng.Intn(8)
	}
	if agility <= 0 {
		agility = 8 + rng.Intn(8)
	}

	maxHealth := 50.0 + float64(endurance)*5
	maxStamina := 50.0 + float64(endurance)*3 + float64(strength)*2

	mod, ok := roleModifiers[role]
	if !ok {
		mod = defaultRoleModifier
	}

	return CombatStats{
		Health:           maxHealth * mod.health,
		MaxHealth:        maxHealth * mod.health,
		Stamina:          maxStamina * mod.stamina,
		MaxStamina:       maxStamina * mod.stamina,
		AttackSpeed:      1.0 + float64(agility-10)*0.05,
		DamageMultiplier: 1.0 + float64(strength-10)*0.05,
		DefenseMult:      mod.defense,
	}
}

// Resolver adjudicates combat mechanics. The real combat engine implements
// this; DefaultResolver covers standalone simulation and tests.
type Resolver interface {
	// ApplyDamage mutates stats for an incoming, already armor-reduced
	// hit and returns a description of the effect.
	ApplyDamage(stats *CombatStats, amount float64, part BodyPart, kind DamageType) string
	// ResolveAttack decides whether an attack lands and with how much
	// force, charging the attacker's stamina either way.
	ResolveAttack(attacker, target *CombatStats, weaponDamage float64, rng *rand.Rand) (hit bool, damage float64, part BodyPart)
	// ResolveDefense attempts a defensive stance, returning the damage
	// reduction it grants.
	ResolveDefense(stats *CombatStats, rng *rand.Rand) (reduction float64, ok bool)
}

// DefaultResolver is a minimal stand-in for the external combat engine
type DefaultResolver struct{}

// ApplyDamage reduces health by the hit minus the defensive stance, with
// pain tracking the wound
func (DefaultResolver) ApplyDamage(stats *CombatStats, amount float64, part BodyPart, kind DamageType) string {
	effective := amount * (1.0 - clampFraction(stats.DefenseMult))
	stats.Health = maxFloat(0, stats.Health-effective)
	stats.Pain = minFloat(100, stats.Pain+effective*0.8)
	return fmt.Sprintf("%.1f %s damage to the %s", effective, kind, part)
}

// ResolveAttack lands hits more often for fast attackers against undefended
// targets. Swinging costs stamina whether or not it connects.
func (DefaultResolver) ResolveAttack(attacker, target *CombatStats, weaponDamage float64, rng *rand.Rand) (bool, float64, BodyPart) {
	attacker.Stamina = maxFloat(0, attacker.Stamina-8)
	attacker.Exhaustion = minFloat(100, attacker.Exhaustion+4)

	chance := 0.7 * attacker.AttackSpeed * (1.0 - clampFraction(target.DefenseMult)*0.5)
	if attacker.Stamina < 20 {
		chance *= 0.7
	}
	if rng.Float64() >= clampFraction(chance) {
		return false, 0, ""
	}

	damage := weaponDamage * attacker.DamageMultiplier * (0.8 + 0.4*rng.Float64())
	return true, damage, RandomBodyPart(rng)
}

// ResolveDefense grants a 30-50% reduction most of the time, costing a
// little stamina
func (DefaultResolver) ResolveDefense(stats *CombatStats, rng *rand.Rand) (float64, bool) {
	stats.Stamina = maxFloat(0, stats.Stamina-4)
	if rng.Float64() >= 0.8 {
		return 0, false
	}
	return 0.3 + 0.2*rng.Float64(), true
}

func clampFraction(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// bodyPartSlots maps hit locations to armor slots
var bodyPartSlots = map[BodyPart]string{
	BodyHead:     "head",
	BodyTorso:    "torso",
	BodyLeftArm:  "arms",
	BodyRightArm: "arms",
	BodyLeftLeg:  "legs",
	BodyRightLeg: "legs",
}

// armorProtection returns the damage fraction absorbed on the given body
// part. Guard-issue armor caps higher than scavenged prisoner gear.
func (n *NPC) armorProtection(part BodyPart) float64 {
	if len(n.Armor) == 0 {
		return 0
	}
	slot, ok := bodyPartSlots[part]
	if !ok {
		slot = "torso"
	}
	protection, ok := n.Armor[slot]
	if !ok {
		return 0
	}
	if n.Role == RoleGuard {
		return minFloat(0.5, protection)
	}
	return minFloat(0.3, protection)
}

// TakeDamage runs an incoming hit through armor and the resolver, shifts
// emotions, remembers the attack, and rethinks the current state when badly
// hurt. Returns a description of the effect.
func (n *NPC) TakeDamage(attackerID string, amount float64, part BodyPart, kind DamageType, injury *Injury, now float64) string {
	protection := n.armorProtection(part)
	final := amount * (1.0 - protection)

	effect := n.resolver.ApplyDamage(&n.Combat, final, part, kind)

	if injury != nil {
		n.Injuries[part] = append(n.Injuries[part], injury)
	}

	n.ModifyEmotion(EmotionFear, amount/50)
	n.ModifyEmotion(EmotionAngry, amount/100)

	if attackerID == "" {
		attackerID = "unknown"
	}
	n.AddMemory(memory.Event{
		Type:            "attacked",
		Description:     fmt.Sprintf("took %.1f damage to the %s", amount, part),
		Participants:    []string{attackerID},
		Location:        n.Location,
		Importance:      0.8,
		EmotionalImpact: map[string]float64{"fear": 0.6, "angry": 0.4},
	}, now)

	if n.Combat.Health <= 0 {
		n.State = StateIdle
		n.log.Info("npc died", "attacker", attackerID)
		return fmt.Sprintf("%s falls dead!", n.Name)
	}

	if n.Combat.Health < 30 {
		if n.Traits.Has(TraitCowardly) || n.Role == RoleMerchant || n.Role == RoleCreature {
			n.State = StateFleeing
		} else {
			n.State = StateAttacking
		}
	}

	return effect
}

// Attack swings at the target. Trait-driven style shifts the force, the
// resolver decides the outcome, and landed hits practice the weapon skill.
func (n *NPC) Attack(target *NPC, now float64) (bool, string) {
	weaponDamage := 5.0
	kind := DamageBlunt
	skill := "brawling"
	if n.Weapon != "" {
		weaponDamage = 10.0
		kind = DamageSlash
		skill = "swords"
	}

	if n.Traits.Has(TraitAggressive) {
		weaponDamage *= 1.3
	} else if n.Traits.Has(TraitCautious) {
		weaponDamage *= 0.8
	}

	hit, damage, part := n.resolver.ResolveAttack(&n.Combat, &target.Combat, weaponDamage, n.rng)
	if !hit {
		return false, fmt.Sprintf("%s: the attack misses", n.Name)
	}

	effect := target.TakeDamage(n.ID, damage, part, kind, nil, now)
	n.Memory.Procedural.LearnSkill(skill, nil)
	return true, fmt.Sprintf("%s: %s", n.Name, effect)
}

// Defend attempts a defensive stance, storing the granted reduction
func (n *NPC) Defend() (bool, string) {
	reduction, ok := n.resolver.ResolveDefense(&n.Combat, n.rng)
	if !ok {
		return false, fmt.Sprintf("%s fails to brace", n.Name)
	}
	n.Combat.DefenseMult = reduction
	return true, fmt.Sprintf("%s takes a defensive stance", n.Name)
}

// AttemptFlee rolls the escape chance: pain and exhaustion weigh it down,
// cowardice helps, bravery works against it
func (n *NPC) AttemptFlee() bool {
	chance := 0.5
	if n.Combat.Pain > 50 {
		chance -= 0.2
	}
	if n.Combat.Exhaustion > 70 {
		chance -= 0.3
	}
	if n.Traits.Has(TraitCowardly) {
		chance += 0.2
	}
	if n.Traits.Has(TraitBrave) {
		chance -= 0.3
	}

	if n.rng.Float64() < chance {
		n.State = StateFleeing
		return true
	}
	return false
}

// Recover regenerates stamina, works off pain and exhaustion, and ticks
// injuries over the given minutes. Sleeping grants a slow health regen.
func (n *NPC) Recover(minutes float64) {
	if minutes <= 0 {
		return
	}

	rate := 0.1
	if n.State == StateResting {
		rate = 0.25
	}
	n.Combat.Stamina = minFloat(n.Combat.MaxStamina, n.Combat.Stamina+minutes*60*rate)
	n.Combat.Exhaustion = maxFloat(0, n.Combat.Exhaustion-minutes*0.5)
	if n.Combat.Pain > 0 {
		n.Combat.Pain = maxFloat(0, n.Combat.Pain-minutes*0.3)
	}

	for part, injuries := range n.Injuries {
		kept := injuries[:0]
		for _, injury := range injuries {
			if injury.BleedPerMinute > 0 {
				n.Combat.Health = maxFloat(0, n.Combat.Health-injury.BleedPerMinute*minutes)
			}
			injury.HealMinutes -= minutes
			if injury.HealMinutes > 0 {
				kept = append(kept, injury)
			}
		}
		if len(kept) == 0 {
			delete(n.Injuries, part)
		} else {
			n.Injuries[part] = kept
		}
	}

	if n.State == StateSleeping {
		n.Combat.Health = minFloat(n.Combat.MaxHealth, n.Combat.Health+minutes*0.2)
	}
}

// CanBeBribed reports whether an offer would be accepted. Only corruptible
// NPCs take bribes at all; hunger, fatigue, and greed lower the price.
func (n *NPC) CanBeBribed(amount int) bool {
	if !n.Traits.Has(TraitCorruptible) {
		return false
	}

	desperation := (n.Hunger/100)*0.3 + ((100-n.Energy)/100)*0.2
	greed := 0.2
	if n.Traits.Has(TraitGreedy) {
		greed = 0.5
	}

	required := 50 * (1 - desperation - greed)
	return float64(amount) >= required
}

// AcceptBribe pockets the gold, shifts the relationship, remembers the deal
// with a touch of self-disgust, and advances any gold-gathering goal
func (n *NPC) AcceptBribe(amount int, fromID string, now float64) {
	n.Gold += amount
	n.InteractWith(fromID, InteractBribe, float64(amount)/50, now)

	n.AddMemory(memory.Event{
		Type:            "bribe_accepted",
		Description:     fmt.Sprintf("accepted %d gold from %s", amount, fromID),
		Participants:    []string{n.ID, fromID},
		Location:        n.Location,
		Importance:      0.6,
		EmotionalImpact: map[string]float64{"happy": 0.3, "disgust": 0.2},
	}, now)

	for _, goal := range n.Goals {
		if goal.Name == "gather_gold" {
			goal.Advance(float64(amount) / 100)
		}
	}
}

// InfoKind selects what kind of information to ask for
type InfoKind string

const (
	InfoTunnel        InfoKind = "tunnel"
	InfoGuardSchedule InfoKind = "guard_schedule"
	InfoWeakness      InfoKind = "weakness"
	InfoRandom        InfoKind = "random"
)

// Concepts the information kinds map to in semantic memory
const (
	conceptTunnel       = "tunnel_location"
	conceptGuardPattern = "guard_patterns"
)

// ShareInformation decides whether to reveal what the NPC knows. Distrust
// shuts everything down; beyond that each kind has its own gate of trust,
// fear, or desperation.
func (n *NPC) ShareInformation(kind InfoKind, withID string, now float64) (string, bool) {
	rel := n.RelationshipWith(withID)
	if rel.Trust < -20 {
		return "", false
	}

	if kind == InfoRandom {
		kinds := []InfoKind{InfoTunnel, InfoGuardSchedule, InfoWeakness}
		kind = kinds[n.rng.Intn(len(kinds))]
	}

	switch kind {
	case InfoTunnel:
		if _, ok := n.Memory.Semantic.Get(conceptTunnel); ok {
			if rel.Trust > 30 || n.Gold < 20 {
				info, _ := n.Memory.Semantic.Retrieve(conceptTunnel, now)
				return info, true
			}
		}
	case InfoGuardSchedule:
		if _, ok := n.Memory.Semantic.Get(conceptGuardPattern); ok {
			if rel.Trust > 20 || rel.Fear > 60 {
				info, _ := n.Memory.Semantic.Retrieve(conceptGuardPattern, now)
				return info, true
			}
		}
	case InfoWeakness:
		episodes := n.Memory.Episodic.Recall(memory.Query{EventType: "observed_weakness"}, 5, now)
		if len(episodes) > 0 && (rel.Trust > 50 || rel.Fear > 80) {
			return episodes[0].Description, true
		}
	}

	return "", false
}
