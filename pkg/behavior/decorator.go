package behavior

import (
	"github.com/osada/npcmind/pkg/npc"
)

// Inverter flips its child's Success and Failure. Running passes through
// untouched.
type Inverter struct {
	name  string
	child Node
}

// NewInverter builds an inverter around the child
func NewInverter(name string, child Node) *Inverter {
	return &Inverter{name: name, child: child}
}

func (i *Inverter) Name() string { return i.name }

func (i *Inverter) Execute(n *npc.NPC, ctx *npc.Context) Status {
	switch i.child.Execute(n, ctx) {
	case Success:
		return Failure
	case Failure:
		return Success
	}
	return Running
}

// Repeat runs its child up to count times within a single evaluation,
// stopping early on the first non-Success result.
type Repeat struct {
	name  string
	child Node
	count int
}

// NewRepeat builds a repeater. A count below 1 is raised to 1.
func NewRepeat(name string, child Node, count int) *Repeat {
	if count < 1 {
		count = 1
	}
	return &Repeat{name: name, child: child, count: count}
}

func (r *Repeat) Name() string { return r.name }

func (r *Repeat) Execute(n *npc.NPC, ctx *npc.Context) Status {
	for i := 0; i < r.count; i++ {
		if st := r.child.Execute(n, ctx); st != Success {
			return st
		}
	}
	return Success
}

// Cooldown gates its child behind a sim-time cooldown. The timer only
// advances when the child succeeds, so a failed attempt may be retried on
// the very next tick.
type Cooldown struct {
	name    string
	child   Node
	seconds float64
	last    float64
}

// NewCooldown builds a cooldown gate of the given sim-seconds
func NewCooldown(name string, child Node, seconds float64) *Cooldown {
	return &Cooldown{name: name, child: child, seconds: seconds}
}

func (c *Cooldown) Name() string { return c.name }

func (c *Cooldown) Execute(n *npc.NPC, ctx *npc.Context) Status {
	if ctx.Now-c.last < c.seconds {
		return Failure
	}
	st := c.child.Execute(n, ctx)
	if st == Success {
		c.last = ctx.Now
	}
	return st
}

// Probability runs its child with the given chance and fails otherwise
type Probability struct {
	name   string
	child  Node
	chance float64
}

// NewProbability builds a probability gate; the chance is clamped to [0,1]
func NewProbability(name string, child Node, chance float64) *Probability {
	if chance < 0 {
		chance = 0
	}
	if chance > 1 {
		chance = 1
	}
	return &Probability{name: name, child: child, chance: chance}
}

func (p *Probability) Name() string { return p.name }

func (p *Probability) Execute(n *npc.NPC, ctx *npc.Context) Status {
	if n.Rand().Float64() < p.chance {
		return p.child.Execute(n, ctx)
	}
	return Failure
}

// TimeGated runs its child only inside an hour window. A start later than
// the end wraps around midnight, so NewTimeGated(name, child, 22, 6) covers
// the night. Outside the window the child is not evaluated at all.
type TimeGated struct {
	name      string
	child     Node
	startHour int
	endHour   int
}

// NewTimeGated builds an hour-window gate
func NewTimeGated(name string, child Node, startHour, endHour int) *TimeGated {
	return &TimeGated{name: name, child: child, startHour: startHour, endHour: endHour}
}

func (t *TimeGated) Name() string { return t.name }

func (t *TimeGated) inWindow(hour int) bool {
	if t.startHour > t.endHour {
		return hour >= t.startHour || hour < t.endHour
	}
	return hour >= t.startHour && hour < t.endHour
}

func (t *TimeGated) Execute(n *npc.NPC, ctx *npc.Context) Status {
	if !t.inWindow(ctx.Hour) {
		return Failure
	}
	return t.child.Execute(n, ctx)
}

// InterruptableSequence is a sequence that remembers where it left off
// across ticks and can be aborted by an interrupt check. An interrupt or a
// failing child resets the cursor to the beginning.
type InterruptableSequence struct {
	name     string
	check    Predicate
	children []Node
	cursor   int
}

// NewInterruptableSequence builds an interruptable sequence. A nil check
// never interrupts.
func NewInterruptableSequence(name string, check Predicate, children ...Node) *InterruptableSequence {
	return &InterruptableSequence{name: name, check: check, children: children}
}

// Add appends children and returns the sequence for chaining
func (s *InterruptableSequence) Add(children ...Node) *InterruptableSequence {
	s.children = append(s.children, children...)
	return s
}

func (s *InterruptableSequence) Name() string { return s.name }

func (s *InterruptableSequence) Execute(n *npc.NPC, ctx *npc.Context) Status {
	if s.check != nil && s.check(n, ctx) {
		s.cursor = 0
		return Failure
	}
	for s.cursor < len(s.children) {
		switch s.children[s.cursor].Execute(n, ctx) {
		case Failure:
			s.cursor = 0
			return Failure
		case Running:
			return Running
		}
		s.cursor++
	}
	s.cursor = 0
	return Success
}

// Blackboard is the tree root. It owns a scratchpad map that survives
// across ticks and publishes it into the context before delegating to its
// child, so any node below can leave notes for later evaluations.
type Blackboard struct {
	name  string
	child Node
	data  map[string]any
}

// NewBlackboard builds the scratchpad root around the child
func NewBlackboard(name string, child Node) *Blackboard {
	return &Blackboard{name: name, child: child, data: make(map[string]any)}
}

func (b *Blackboard) Name() string { return b.name }

// Set stores a value on the scratchpad
func (b *Blackboard) Set(key string, value any) {
	b.data[key] = value
}

// Get reads a value from the scratchpad
func (b *Blackboard) Get(key string) (any, bool) {
	v, ok := b.data[key]
	return v, ok
}

func (b *Blackboard) Execute(n *npc.NPC, ctx *npc.Context) Status {
	ctx.Blackboard = b.data
	if b.child == nil {
		return Success
	}
	return b.child.Execute(n, ctx)
}
