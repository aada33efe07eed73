package types

// Simulated time is measured in seconds since the start of the simulation.
// One simulated day is 24 hours of 3600 seconds each.
const (
	SecondsPerHour = 3600.0
	HoursPerDay    = 24
	SecondsPerDay  = SecondsPerHour * HoursPerDay
)

// HourOf returns the hour of the simulated day (0-23) for a simulated time.
func HourOf(now float64) int {
	if now < 0 {
		now = 0
	}
	return int(now/SecondsPerHour) % HoursPerDay
}

// IsNightHour reports whether the given hour falls in the dark part of the
// day (20:00 through 05:59).
func IsNightHour(hour int) bool {
	return hour >= 20 || hour < 6
}

// WorldEventType represents the type of a world event
type WorldEventType string

const (
	WorldEventAttack      WorldEventType = "attack"
	WorldEventFight       WorldEventType = "fight"
	WorldEventRiot        WorldEventType = "riot"
	WorldEventTheft       WorldEventType = "theft"
	WorldEventAlarm       WorldEventType = "alarm"
	WorldEventInteraction WorldEventType = "npc_interaction"
	WorldEventHelpRequest WorldEventType = "help_request"
	WorldEventEscape      WorldEventType = "escape_attempt"
	WorldEventFire        WorldEventType = "fire"
	WorldEventFlood       WorldEventType = "flood"
	WorldEventCollapse    WorldEventType = "collapse"
)

// IsViolent reports whether the event type counts toward unrest detection.
func (t WorldEventType) IsViolent() bool {
	switch t {
	case WorldEventAttack, WorldEventFight, WorldEventRiot:
		return true
	}
	return false
}

// WorldEvent is a single entry in the shared world-event log. Events are
// appended by the manager and by NPC actions, and read back by condition
// predicates on the next tick.
type WorldEvent struct {
	ID           ID             `json:"id"`
	Type         WorldEventType `json:"type"`
	Description  string         `json:"description,omitempty"`
	Participants []string       `json:"participants,omitempty"`
	Location     string         `json:"location,omitempty"`
	Importance   float64        `json:"importance"`
	Timestamp    float64        `json:"timestamp"`
}

// Involves reports whether the given id is listed as a participant.
func (e WorldEvent) Involves(id string) bool {
	for _, p := range e.Participants {
		if p == id {
			return true
		}
	}
	return false
}

// NewWorldEvent creates a world event with a generated ID.
func NewWorldEvent(t WorldEventType, now float64) WorldEvent {
	return WorldEvent{
		ID:        GenerateID(),
		Type:      t,
		Timestamp: now,
	}
}
