// Package behavior implements the decision-making brain of an NPC as a
// behavior tree. A tree is built once per NPC by BuildTree and evaluated
// synchronously from the root every tick; nodes carry per-NPC execution
// state (cooldown timers, sequence cursors, the blackboard), so trees are
// never shared between NPCs.
//
// A tick that reaches no behavior is not an error. The root simply returns
// Failure and the NPC keeps doing whatever its state says it is doing.
package behavior

import (
	"github.com/osada/npcmind/pkg/npc"
)

// Status is the result of evaluating a node
type Status string

const (
	Success Status = "success"
	Failure Status = "failure"
	Running Status = "running"
)

// Node is a single behavior-tree node. Execute evaluates the node against
// the NPC and the tick's world snapshot; composites recurse into children.
type Node interface {
	Execute(n *npc.NPC, ctx *npc.Context) Status
	Name() string
}

// Predicate checks a fact about the NPC or the world
type Predicate func(n *npc.NPC, ctx *npc.Context) bool

// ActionFunc performs a behavior and reports how it went. Errors are for
// genuinely broken situations; ordinary "can't do that here" outcomes
// should return Failure with a nil error.
type ActionFunc func(n *npc.NPC, ctx *npc.Context) (Status, error)

// runSafely guards a leaf evaluation. A panicking leaf must never take the
// whole simulation down; it is logged and treated as Failure.
func runSafely(n *npc.NPC, name string, fn func() Status) (st Status) {
	defer func() {
		if r := recover(); r != nil {
			n.Log().Error("behavior node panicked", "node", name, "panic", r)
			st = Failure
		}
	}()
	return fn()
}

// Condition is a leaf that succeeds when its predicate holds
type Condition struct {
	name string
	pred Predicate
}

// NewCondition builds a condition leaf
func NewCondition(name string, pred Predicate) *Condition {
	return &Condition{name: name, pred: pred}
}

func (c *Condition) Name() string { return c.name }

func (c *Condition) Execute(n *npc.NPC, ctx *npc.Context) Status {
	return runSafely(n, c.name, func() Status {
		if c.pred(n, ctx) {
			return Success
		}
		return Failure
	})
}

// Action is a leaf that performs a behavior
type Action struct {
	name string
	fn   ActionFunc
}

// NewAction builds an action leaf
func NewAction(name string, fn ActionFunc) *Action {
	return &Action{name: name, fn: fn}
}

func (a *Action) Name() string { return a.name }

func (a *Action) Execute(n *npc.NPC, ctx *npc.Context) Status {
	return runSafely(n, a.name, func() Status {
		st, err := a.fn(n, ctx)
		if err != nil {
			n.Log().Error("behavior action failed", "node", a.name, "error", err)
			return Failure
		}
		return st
	})
}
