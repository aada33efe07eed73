package npc

// urgencyWindow is how close a deadline must be, in sim-seconds, for a goal
// to count as urgent
const urgencyWindow = 3600.0

// Goal is a long-running objective an NPC works toward. Priority is 0..1;
// completion advances toward 1, at which point the goal deactivates.
type Goal struct {
	Name          string   `json:"name" yaml:"name"`
	Priority      float64  `json:"priority" yaml:"priority"`
	Completion    float64  `json:"completion" yaml:"completion"`
	Deadline      *float64 `json:"deadline,omitempty" yaml:"deadline,omitempty"`
	Prerequisites []string `json:"prerequisites,omitempty" yaml:"prerequisites,omitempty"`
	Active        bool     `json:"active" yaml:"active"`
}

// NewGoal creates an active goal with no progress
func NewGoal(name string, priority float64) *Goal {
	return &Goal{Name: name, Priority: priority, Active: true}
}

// IsUrgent reports whether the goal's deadline is within the urgency window
func (g *Goal) IsUrgent(now float64) bool {
	if g.Deadline == nil {
		return false
	}
	return *g.Deadline-now < urgencyWindow
}

// EffectivePriority doubles the base priority for urgent goals
func (g *Goal) EffectivePriority(now float64) float64 {
	if g.IsUrgent(now) {
		return g.Priority * 2
	}
	return g.Priority
}

// Advance adds progress, capped at full completion
func (g *Goal) Advance(amount float64) {
	g.Completion = minFloat(1.0, g.Completion+amount)
}

// Clone returns an independent copy
func (g *Goal) Clone() *Goal {
	out := *g
	if g.Deadline != nil {
		d := *g.Deadline
		out.Deadline = &d
	}
	out.Prerequisites = append([]string(nil), g.Prerequisites...)
	return &out
}
