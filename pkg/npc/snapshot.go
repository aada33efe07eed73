package npc

import (
	"github.com/osada/npcmind/pkg/memory"
	"github.com/osada/npcmind/pkg/types"
)

// Snapshot is the persistable runtime state of one NPC. Definition-derived
// fields (name, role, traits, schedule, dialogue) are not included; they
// come back from the roster on load.
type Snapshot struct {
	ID            string                   `json:"id"`
	Location      string                   `json:"location"`
	State         State                    `json:"state"`
	Energy        float64                  `json:"energy"`
	Hunger        float64                  `json:"hunger"`
	Thirst        float64                  `json:"thirst"`
	Gold          int                      `json:"gold"`
	Inventory     map[string]int           `json:"inventory,omitempty"`
	Combat        CombatStats              `json:"combat"`
	Emotions      map[string]float64       `json:"emotions"`
	Relationships map[string]*Relationship `json:"relationships,omitempty"`
	Goals         []*Goal                  `json:"goals,omitempty"`
	Memory        *memory.SystemState      `json:"memory,omitempty"`
}

// Snapshot captures the NPC's current runtime state for persistence
func (n *NPC) Snapshot() *Snapshot {
	inventory := make(map[string]int, len(n.Inventory))
	for item, count := range n.Inventory {
		inventory[item] = count
	}

	relationships := make(map[string]*Relationship, len(n.Relationships))
	for id, rel := range n.Relationships {
		relationships[id] = rel.Clone()
	}

	goals := make([]*Goal, len(n.Goals))
	for i, g := range n.Goals {
		goals[i] = g.Clone()
	}

	return &Snapshot{
		ID:            n.ID,
		Location:      n.Location,
		State:         n.State,
		Energy:        n.Energy,
		Hunger:        n.Hunger,
		Thirst:        n.Thirst,
		Gold:          n.Gold,
		Inventory:     inventory,
		Combat:        n.Combat,
		Emotions:      n.Emotions.AsMap(),
		Relationships: relationships,
		Goals:         goals,
		Memory:        n.Memory.Snapshot(),
	}
}

// Restore applies a snapshot taken from the same NPC
func (n *NPC) Restore(s *Snapshot) error {
	if s == nil {
		return types.NewError(types.ErrCodeInvalidArgument, "npc snapshot is nil")
	}
	if s.ID != n.ID {
		return types.NewError(types.ErrCodeInvalidArgument, "snapshot belongs to npc "+s.ID)
	}

	if s.Location != "" {
		n.Location = s.Location
	}
	if s.State != "" {
		n.State = s.State
	}
	n.Energy = s.Energy
	n.Hunger = s.Hunger
	n.Thirst = s.Thirst
	n.Gold = s.Gold

	n.Inventory = make(map[string]int, len(s.Inventory))
	for item, count := range s.Inventory {
		n.Inventory[item] = count
	}

	n.Combat = s.Combat
	n.Emotions = FromMap(s.Emotions)

	n.Relationships = make(map[string]*Relationship, len(s.Relationships))
	for id, rel := range s.Relationships {
		restored := rel.Clone()
		if restored.TargetID == "" {
			restored.TargetID = id
		}
		n.Relationships[id] = restored
	}

	n.Goals = make([]*Goal, len(s.Goals))
	for i, g := range s.Goals {
		n.Goals[i] = g.Clone()
	}

	if s.Memory != nil {
		if err := n.Memory.Restore(s.Memory); err != nil {
			return err
		}
	}

	return nil
}
