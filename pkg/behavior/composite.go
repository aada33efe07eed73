package behavior

import (
	"sort"

	"github.com/osada/npcmind/pkg/npc"
)

// Selector tries children in order and returns the first non-Failure
// result. It fails only when every child fails.
type Selector struct {
	name     string
	children []Node
}

// NewSelector builds a selector over the given children
func NewSelector(name string, children ...Node) *Selector {
	return &Selector{name: name, children: children}
}

// Add appends children and returns the selector for chaining
func (s *Selector) Add(children ...Node) *Selector {
	s.children = append(s.children, children...)
	return s
}

func (s *Selector) Name() string { return s.name }

func (s *Selector) Execute(n *npc.NPC, ctx *npc.Context) Status {
	for _, child := range s.children {
		if st := child.Execute(n, ctx); st != Failure {
			return st
		}
	}
	return Failure
}

// Sequence runs children in order and returns the first non-Success
// result. It succeeds only when every child succeeds.
type Sequence struct {
	name     string
	children []Node
}

// NewSequence builds a sequence over the given children
func NewSequence(name string, children ...Node) *Sequence {
	return &Sequence{name: name, children: children}
}

// Add appends children and returns the sequence for chaining
func (s *Sequence) Add(children ...Node) *Sequence {
	s.children = append(s.children, children...)
	return s
}

func (s *Sequence) Name() string { return s.name }

func (s *Sequence) Execute(n *npc.NPC, ctx *npc.Context) Status {
	for _, child := range s.children {
		if st := child.Execute(n, ctx); st != Success {
			return st
		}
	}
	return Success
}

// RandomSelector behaves like Selector but tries the children in a fresh
// random order on every evaluation, drawn from the NPC's own rng.
type RandomSelector struct {
	name     string
	children []Node
}

// NewRandomSelector builds a shuffling selector
func NewRandomSelector(name string, children ...Node) *RandomSelector {
	return &RandomSelector{name: name, children: children}
}

// Add appends children and returns the selector for chaining
func (s *RandomSelector) Add(children ...Node) *RandomSelector {
	s.children = append(s.children, children...)
	return s
}

func (s *RandomSelector) Name() string { return s.name }

func (s *RandomSelector) Execute(n *npc.NPC, ctx *npc.Context) Status {
	shuffled := make([]Node, len(s.children))
	copy(shuffled, s.children)
	n.Rand().Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	for _, child := range shuffled {
		if st := child.Execute(n, ctx); st != Failure {
			return st
		}
	}
	return Failure
}

type prioritized struct {
	node     Node
	priority float64
}

// Priority is a selector whose children carry explicit priorities. On every
// evaluation the children are re-sorted highest first; equal priorities
// keep their insertion order.
type Priority struct {
	name     string
	children []prioritized
}

// NewPriority builds an empty priority selector
func NewPriority(name string) *Priority {
	return &Priority{name: name}
}

// AddChild registers a child at the given priority and returns the node
// for chaining
func (p *Priority) AddChild(node Node, priority float64) *Priority {
	p.children = append(p.children, prioritized{node: node, priority: priority})
	return p
}

func (p *Priority) Name() string { return p.name }

func (p *Priority) Execute(n *npc.NPC, ctx *npc.Context) Status {
	sort.SliceStable(p.children, func(i, j int) bool {
		return p.children[i].priority > p.children[j].priority
	})
	for _, child := range p.children {
		if st := child.node.Execute(n, ctx); st != Failure {
			return st
		}
	}
	return Failure
}

// Parallel evaluates every child each tick and aggregates by thresholds:
// enough successes wins, enough failures loses, anything still running
// keeps the node running, and an empty verdict counts as failure.
type Parallel struct {
	name             string
	successThreshold int
	failureThreshold int
	children         []Node
}

// NewParallel builds a parallel node. Thresholds below 1 are raised to 1.
func NewParallel(name string, successThreshold, failureThreshold int, children ...Node) *Parallel {
	if successThreshold < 1 {
		successThreshold = 1
	}
	if failureThreshold < 1 {
		failureThreshold = 1
	}
	return &Parallel{
		name:             name,
		successThreshold: successThreshold,
		failureThreshold: failureThreshold,
		children:         children,
	}
}

// Add appends children and returns the node for chaining
func (p *Parallel) Add(children ...Node) *Parallel {
	p.children = append(p.children, children...)
	return p
}

func (p *Parallel) Name() string { return p.name }

func (p *Parallel) Execute(n *npc.NPC, ctx *npc.Context) Status {
	var successes, failures, running int
	for _, child := range p.children {
		switch child.Execute(n, ctx) {
		case Success:
			successes++
		case Failure:
			failures++
		default:
			running++
		}
	}
	if successes >= p.successThreshold {
		return Success
	}
	if failures >= p.failureThreshold {
		return Failure
	}
	if running > 0 {
		return Running
	}
	return Failure
}
