package npc

// InteractionType classifies a social interaction between two characters
type InteractionType string

const (
	InteractHelp         InteractionType = "help"
	InteractThreat       InteractionType = "threat"
	InteractBribe        InteractionType = "bribe"
	InteractBetray       InteractionType = "betray"
	InteractFriendlyChat InteractionType = "friendly_chat"
	InteractInsult       InteractionType = "insult"
)

// Relationship tracks one NPC's view of another character. Trust, affection,
// and respect run -100..100; fear and familiarity run 0..100. Each side of a
// pair owns its own Relationship, so views can diverge.
type Relationship struct {
	TargetID         string  `json:"target_id" yaml:"target"`
	Trust            float64 `json:"trust" yaml:"trust"`
	Affection        float64 `json:"affection" yaml:"affection"`
	Respect          float64 `json:"respect" yaml:"respect"`
	Fear             float64 `json:"fear" yaml:"fear"`
	Familiarity      float64 `json:"familiarity" yaml:"familiarity"`
	LastInteraction  float64 `json:"last_interaction,omitempty" yaml:"-"`
	InteractionCount int     `json:"interaction_count,omitempty" yaml:"-"`
}

// NewRelationship creates a neutral relationship toward the target
func NewRelationship(targetID string) *Relationship {
	return &Relationship{TargetID: targetID}
}

// Disposition collapses the relationship into a single valence scalar.
// Familiarity scales the whole thing: strangers evoke nothing either way.
func (r *Relationship) Disposition() float64 {
	return (r.Trust*0.3 + r.Affection*0.3 + r.Respect*0.2 - r.Fear*0.2) * (r.Familiarity / 100)
}

// UpdateFromInteraction applies the fixed delta table for one interaction.
// Every interaction breeds a little familiarity regardless of type.
func (r *Relationship) UpdateFromInteraction(kind InteractionType, intensity, now float64) {
	r.InteractionCount++
	r.Familiarity = minFloat(100, r.Familiarity+2)
	r.LastInteraction = now

	switch kind {
	case InteractHelp:
		r.Trust = minFloat(100, r.Trust+5*intensity)
		r.Affection = minFloat(100, r.Affection+3*intensity)
		r.Respect = minFloat(100, r.Respect+2*intensity)
	case InteractThreat:
		r.Fear = minFloat(100, r.Fear+10*intensity)
		r.Trust = maxFloat(-100, r.Trust-15*intensity)
		r.Respect = maxFloat(-100, r.Respect-5*intensity)
	case InteractBribe:
		r.Trust = minFloat(100, r.Trust+2*intensity)
		r.Respect = maxFloat(-100, r.Respect-3*intensity)
	case InteractBetray:
		r.Trust = maxFloat(-100, r.Trust-30*intensity)
		r.Affection = maxFloat(-100, r.Affection-20*intensity)
		r.Fear = minFloat(100, r.Fear+5*intensity)
	case InteractFriendlyChat:
		r.Affection = minFloat(100, r.Affection+2*intensity)
		r.Familiarity = minFloat(100, r.Familiarity+3)
	case InteractInsult:
		r.Affection = maxFloat(-100, r.Affection-5*intensity)
		r.Respect = maxFloat(-100, r.Respect-8*intensity)
	}
}

// Adjust shifts relationship axes directly, clamping each to its range
func (r *Relationship) Adjust(trust, affection, respect, fear, familiarity float64) {
	r.Trust = clampSigned(r.Trust + trust)
	r.Affection = clampSigned(r.Affection + affection)
	r.Respect = clampSigned(r.Respect + respect)
	r.Fear = clampUnsigned(r.Fear + fear)
	r.Familiarity = clampUnsigned(r.Familiarity + familiarity)
}

// Clone returns an independent copy
func (r *Relationship) Clone() *Relationship {
	out := *r
	return &out
}

func clampSigned(v float64) float64 {
	if v < -100 {
		return -100
	}
	if v > 100 {
		return 100
	}
	return v
}

func clampUnsigned(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
