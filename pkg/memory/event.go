package memory

import "github.com/osada/npcmind/pkg/types"

// Event is the single ingestion unit for the memory system. Every event
// becomes an episodic entry; the optional payloads additionally route it to
// the semantic, procedural, and emotional stores.
type Event struct {
	ID           types.ID   `json:"id,omitempty"`
	Type         string     `json:"type"`
	Description  string     `json:"description,omitempty"`
	Participants []string   `json:"participants,omitempty"`
	Location     string     `json:"location,omitempty"`
	Action       string     `json:"action,omitempty"`
	Timestamp    float64    `json:"timestamp"`
	Importance   float64    `json:"importance"`
	CausedBy     []types.ID `json:"caused_by,omitempty"`

	LearnedFact     *LearnedFact       `json:"learned_fact,omitempty"`
	SkillObserved   *SkillObservation  `json:"skill_observed,omitempty"`
	EmotionalImpact map[string]float64 `json:"emotional_impact,omitempty"`
}

// LearnedFact is the semantic payload of an event
type LearnedFact struct {
	Concept     string `json:"concept"`
	Information string `json:"information"`
	Category    string `json:"category,omitempty"`
}

// SkillObservation is the procedural payload of an event
type SkillObservation struct {
	Name  string   `json:"name"`
	Steps []string `json:"steps"`
}
