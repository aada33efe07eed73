package npc

import (
	"sort"

	"github.com/osada/npcmind/pkg/types"
)

// Brain decides what an NPC does each tick. The behavior package provides
// the tree-based implementation; tests can plug in anything.
type Brain interface {
	// Tick evaluates the brain once. A tick that picks no behavior is not
	// an error; the NPC simply keeps its current state.
	Tick(n *NPC, ctx *Context)
}

// Context is the world snapshot an NPC sees during one tick. The manager
// builds it at the start of each pass, so events emitted mid-tick become
// visible on the next one.
type Context struct {
	// Now is the current simulated time in seconds
	Now float64
	// Hour is the 0-23 hour of the simulated day
	Hour int
	// NPCs is the full roster keyed by id
	NPCs map[string]*NPC
	// Events is the recent world-event tail, oldest first
	Events []types.WorldEvent
	// Connections maps each location to its reachable neighbors
	Connections map[string][]string
	// DarkLocations marks places that are dark regardless of hour
	DarkLocations map[string]bool
	// Blackboard is the per-evaluation scratchpad injected by the
	// behavior tree root
	Blackboard map[string]any

	// EmitEvent funnels world-event emission back to the manager. May be
	// nil outside a managed run.
	EmitEvent func(types.WorldEvent)
}

// NPCsAt returns the NPCs currently in the given location, sorted by id
func (c *Context) NPCsAt(location string) []*NPC {
	var out []*NPC
	for _, n := range c.NPCs {
		if n.Location == location {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RecentEvents returns the newest n events, oldest first
func (c *Context) RecentEvents(n int) []types.WorldEvent {
	if n <= 0 || len(c.Events) == 0 {
		return nil
	}
	if n > len(c.Events) {
		n = len(c.Events)
	}
	return c.Events[len(c.Events)-n:]
}

// IsDark reports whether the location is dark right now, either because of
// the hour or because the place itself never sees light
func (c *Context) IsDark(location string) bool {
	if types.IsNightHour(c.Hour) {
		return true
	}
	return c.DarkLocations[location]
}

// Emit appends a world event through the manager's funnel, if one is wired
func (c *Context) Emit(ev types.WorldEvent) {
	if c.EmitEvent != nil {
		c.EmitEvent(ev)
	}
}

// Neighbors returns the locations reachable from the given one
func (c *Context) Neighbors(location string) []string {
	return c.Connections[location]
}
