// Package manager runs the shared world: it owns the roster of live NPCs,
// the simulation clock, and the world-event log. Each tick it hands every
// NPC the same read-only view of the world, lets brains run, synthesizes
// chance encounters between socializing NPCs, and trims the event ring.
// It is also the entry point for player actions and for whole-world
// persistence.
package manager

import (
	"fmt"
	"math"
	"math/rand"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/osada/npcmind/internal/config"
	"github.com/osada/npcmind/internal/logger"
	"github.com/osada/npcmind/pkg/behavior"
	"github.com/osada/npcmind/pkg/memory"
	"github.com/osada/npcmind/pkg/npc"
	"github.com/osada/npcmind/pkg/persist"
	"github.com/osada/npcmind/pkg/types"
)

// Event ring sizing. The log grows to eventRingCap during a tick, then is
// cut back to the newest eventRingKeep. NPCs only ever see the newest
// eventContextTail entries.
const (
	eventRingCap     = 100
	eventRingKeep    = 50
	eventContextTail = 10
)

// Chance tuning for ambient world activity
const (
	witnessChance         = 0.5
	bystanderImportance   = 0.2
	participantImportance = 0.5
	interactionChance     = 0.1
	shareInfoChance       = 0.3
)

// Actions accepted by PlayerInteract
const (
	ActionTalk     = "talk"
	ActionBribe    = "bribe"
	ActionAttack   = "attack"
	ActionGiveItem = "give_item"
)

// DefaultAttackDamage is dealt by a player attack when no damage is given
const DefaultAttackDamage = 10.0

// Manager owns the world. All public methods are safe for concurrent use.
type Manager struct {
	mu sync.Mutex

	cfg     *config.Config
	logger  *logger.Logger
	baseLog *logger.Logger
	rng     *rand.Rand

	npcs  map[string]*npc.NPC
	order []string

	events []types.WorldEvent
	simNow float64

	connections   map[string][]string
	darkLocations map[string]bool

	store   *persist.SnapshotStore
	journal *persist.EventJournal
	watcher *rosterWatcher

	ticks        uint64
	interactions uint64
	closed       bool
}

// InteractOptions carries the optional parameters of a player interaction
type InteractOptions struct {
	PlayerName string
	Amount     int
	InfoKind   npc.InfoKind
	Damage     float64
	Item       string
}

// Result is the outcome of one player interaction
type Result struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Response  string `json:"response,omitempty"`
	ExtraInfo string `json:"extra_info,omitempty"`
}

// New creates a world manager. A nil config uses defaults; a nil logger
// creates a default one.
func New(cfg *config.Config, log *logger.Logger) (*Manager, error) {
	if log == nil {
		var err error
		log, err = logger.NewDefault()
		if err != nil {
			return nil, types.WrapError(types.ErrCodeInternal, "failed to create default logger", err)
		}
	}
	if cfg == nil {
		cfg = &config.Config{
			Logging:     config.DefaultLoggingConfig(),
			Simulation:  config.DefaultSimulationConfig(),
			Memory:      config.DefaultMemoryConfig(),
			Behavior:    config.DefaultBehaviorConfig(),
			Persistence: config.DefaultPersistenceConfig(),
			Roster:      config.DefaultRosterConfig(),
		}
	}

	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	m := &Manager{
		cfg:           cfg,
		logger:        log.With("component", "npc_manager"),
		baseLog:       log,
		rng:           rand.New(rand.NewSource(seed)),
		npcs:          make(map[string]*npc.NPC),
		simNow:        float64(cfg.Simulation.StartHour) * types.SecondsPerHour,
		connections:   defaultConnections(),
		darkLocations: defaultDarkLocations(),
	}

	if cfg.Persistence.Enabled {
		store, err := persist.NewSnapshotStore(cfg.Persistence, log)
		if err != nil {
			return nil, err
		}
		m.store = store

		if cfg.Persistence.JournalEnabled {
			path := cfg.Persistence.JournalPath
			if path == "" {
				path = filepath.Join(cfg.Persistence.StateDir, "events.jsonl")
			}
			journal, err := persist.NewEventJournal(path, log)
			if err != nil {
				store.Close()
				return nil, err
			}
			m.journal = journal
		}
	}

	m.logger.Info("npc manager initialized",
		"tick_interval", cfg.Simulation.TickInterval.String(),
		"time_scale", cfg.Simulation.TimeScale,
		"start_hour", cfg.Simulation.StartHour,
		"seed", seed)

	return m, nil
}

// Spawn creates an NPC from its definition and adds it to the world
func (m *Manager) Spawn(def npc.Definition) (*npc.NPC, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, types.NewError(types.ErrCodeUnavailable, "npc manager is closed")
	}
	return m.spawnLocked(def)
}

func (m *Manager) spawnLocked(def npc.Definition) (*npc.NPC, error) {
	if def.ID == "" {
		return nil, types.NewError(types.ErrCodeInvalidArgument, "npc definition has no id")
	}
	if _, ok := m.npcs[def.ID]; ok {
		return nil, types.NewError(types.ErrCodeAlreadyExists, "npc already exists: "+def.ID)
	}

	// Each NPC gets its own stream off the master seed so one NPC's rolls
	// never shift another's
	rng := rand.New(rand.NewSource(m.rng.Int63()))
	n := npc.New(def, m.cfg, m.baseLog, rng)
	n.SetBrain(behavior.NewTreeBrain(behavior.BuildTree(n, m.cfg.Behavior)))

	m.npcs[def.ID] = n
	idx := sort.SearchStrings(m.order, def.ID)
	m.order = append(m.order, "")
	copy(m.order[idx+1:], m.order[idx:])
	m.order[idx] = def.ID

	m.logger.Debug("npc spawned", "id", def.ID, "name", def.Name, "location", def.Location)
	return n, nil
}

// LoadRoster spawns every NPC in the roster file that is not already live
// and returns the number spawned. Live NPCs keep their state; their
// definitions are not re-applied.
func (m *Manager) LoadRoster(path string) (int, error) {
	roster, err := npc.LoadRoster(path)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, types.NewError(types.ErrCodeUnavailable, "npc manager is closed")
	}

	added := 0
	for _, def := range roster.NPCs {
		if _, ok := m.npcs[def.ID]; ok {
			m.logger.Debug("npc already live, skipping roster entry", "id", def.ID)
			continue
		}
		if _, err := m.spawnLocked(def); err != nil {
			return added, err
		}
		added++
	}

	m.logger.Info("roster loaded", "path", path, "spawned", added, "total", len(m.order))
	return added, nil
}

// Get returns the NPC with the given id
func (m *Manager) Get(id string) (*npc.NPC, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.npcs[id]
	return n, ok
}

// NPCsAt returns the NPCs currently in the given location, sorted by id
func (m *Manager) NPCsAt(location string) []*npc.NPC {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*npc.NPC
	for _, id := range m.order {
		if n := m.npcs[id]; n.Location == location {
			out = append(out, n)
		}
	}
	return out
}

// Count returns the number of live NPC records
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order)
}

// SimTime returns the current simulated time in seconds
func (m *Manager) SimTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.simNow
}

// Hour returns the current hour of the simulated day
func (m *Manager) Hour() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return types.HourOf(m.simNow)
}

// Events returns a copy of the recent world-event log, oldest first
func (m *Manager) Events() []types.WorldEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]types.WorldEvent, len(m.events))
	copy(out, m.events)
	return out
}

// SetTopology replaces the location graph and dark-location set NPCs see
// during ticks. Nil arguments keep the current value.
func (m *Manager) SetTopology(connections map[string][]string, dark map[string]bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if connections != nil {
		m.connections = connections
	}
	if dark != nil {
		m.darkLocations = dark
	}
}

// Tick advances the world by one configured tick: the wall-clock tick
// interval scaled to simulation time
func (m *Manager) Tick() {
	m.Advance(m.cfg.Simulation.TickInterval.Seconds() * m.cfg.Simulation.TimeScale)
}

// Advance moves the simulation forward by simDt seconds. Every NPC updates
// against the same world view; events emitted during the pass become
// visible on the next one.
func (m *Manager) Advance(simDt float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || simDt <= 0 {
		return
	}

	m.simNow += simDt
	ctx := m.buildContextLocked()

	for _, id := range m.order {
		n := m.npcs[id]
		if !n.Alive() {
			continue
		}
		n.Update(simDt, ctx)
	}

	m.processInteractionsLocked()
	m.trimEventsLocked()
	m.ticks++
}

// buildContextLocked assembles the per-tick world view. The event tail is
// copied so mid-tick emissions do not leak into the running pass.
func (m *Manager) buildContextLocked() *npc.Context {
	tail := m.events
	if len(tail) > eventContextTail {
		tail = tail[len(tail)-eventContextTail:]
	}
	events := make([]types.WorldEvent, len(tail))
	copy(events, tail)

	return &npc.Context{
		Now:           m.simNow,
		Hour:          types.HourOf(m.simNow),
		NPCs:          m.npcs,
		Events:        events,
		Connections:   m.connections,
		DarkLocations: m.darkLocations,
		EmitEvent:     m.addEventLocked,
	}
}

// processInteractionsLocked rolls for chance encounters: a socializing NPC
// may strike up an exchange with anyone idle or socializing in the same
// place
func (m *Manager) processInteractionsLocked() {
	for _, id1 := range m.order {
		n1 := m.npcs[id1]
		if n1.State != npc.StateSocializing || !n1.Alive() {
			continue
		}
		for _, id2 := range m.order {
			if id2 == id1 {
				continue
			}
			n2 := m.npcs[id2]
			if n2.Location != n1.Location || !n2.Alive() {
				continue
			}
			if n2.State != npc.StateSocializing && n2.State != npc.StateIdle {
				continue
			}
			if m.rng.Float64() >= interactionChance {
				continue
			}
			m.simulateInteractionLocked(n1, n2)
		}
	}
}

// simulateInteractionLocked plays out one ambient exchange. The initiator's
// disposition picks the tone; both sides remember it.
func (m *Manager) simulateInteractionLocked(n1, n2 *npc.NPC) {
	disposition := n1.RelationshipWith(n2.ID).Disposition()

	var kind npc.InteractionType
	switch {
	case disposition > 30:
		kind = npc.InteractFriendlyChat
		if m.rng.Float64() >= 0.7 {
			kind = npc.InteractHelp
		}
	case disposition < -30:
		kind = npc.InteractInsult
		if m.rng.Float64() >= 0.8 {
			kind = npc.InteractThreat
		}
	default:
		kind = npc.InteractFriendlyChat
	}

	n1.InteractWith(n2.ID, kind, 1.0, m.simNow)
	n2.InteractWith(n1.ID, kind, 1.0, m.simNow)
	m.interactions++

	m.addEventLocked(types.WorldEvent{
		Type:         types.WorldEventInteraction,
		Description:  fmt.Sprintf("%s: %s i %s", kind, n1.Name, n2.Name),
		Participants: []string{n1.ID, n2.ID},
		Location:     n1.Location,
		Importance:   0.2,
		Timestamp:    m.simNow,
	})
}

// AddWorldEvent appends an event to the shared log and lets NPCs at the
// scene witness it
func (m *Manager) AddWorldEvent(ev types.WorldEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.addEventLocked(ev)
}

func (m *Manager) addEventLocked(ev types.WorldEvent) {
	if ev.ID == "" {
		ev.ID = types.GenerateID()
	}
	if ev.Timestamp == 0 {
		ev.Timestamp = m.simNow
	}
	m.events = append(m.events, ev)

	if m.journal != nil {
		if err := m.journal.Append(ev); err != nil {
			m.logger.Warn("failed to journal event", "type", ev.Type, "error", err)
		}
	}

	m.logger.Debug("world event", "type", ev.Type, "location", ev.Location, "participants", ev.Participants)

	// Bystanders at the scene may remember what they saw, participants
	// more strongly than onlookers
	for _, id := range m.order {
		witness := m.npcs[id]
		if witness.Location != ev.Location || !witness.Alive() {
			continue
		}
		if m.rng.Float64() >= witnessChance {
			continue
		}

		importance := bystanderImportance
		if ev.Involves(id) {
			importance = participantImportance
		}
		desc := ev.Description
		if desc == "" {
			desc = string(ev.Type)
		}
		witness.AddMemory(memory.Event{
			Type:         "witnessed_" + string(ev.Type),
			Description:  "Był świadkiem: " + desc,
			Participants: ev.Participants,
			Location:     ev.Location,
			Importance:   importance,
		}, m.simNow)
	}
}

func (m *Manager) trimEventsLocked() {
	if len(m.events) <= eventRingCap {
		return
	}
	kept := make([]types.WorldEvent, eventRingKeep)
	copy(kept, m.events[len(m.events)-eventRingKeep:])
	m.events = kept
}

// PlayerInteract runs one player action against an NPC and returns what
// happened. Unknown NPCs and unknown actions fail softly with a message.
func (m *Manager) PlayerInteract(playerID, npcID, action string, opts InteractOptions) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Result{Message: "świat nie działa"}
	}

	n, ok := m.npcs[npcID]
	if !ok {
		return Result{Message: "NPC nie znaleziony"}
	}

	switch action {
	case ActionTalk:
		return m.talkLocked(playerID, n, opts)
	case ActionBribe:
		return m.bribeLocked(playerID, n, opts)
	case ActionAttack:
		return m.attackLocked(playerID, n, opts)
	case ActionGiveItem:
		return m.giveItemLocked(playerID, n, opts)
	}
	return Result{Message: "nieznana akcja: " + action}
}

func (m *Manager) talkLocked(playerID string, n *npc.NPC, opts InteractOptions) Result {
	line, ok := n.DialogueFor(npc.DialogueContext{PlayerID: playerID, PlayerName: opts.PlayerName}, m.simNow)
	if !ok {
		return Result{
			Message:  n.Name + " nie chce rozmawiać",
			Response: fmt.Sprintf("*%s milczy*", n.Name),
		}
	}

	n.ChangeState(npc.StateInDialogue, m.simNow)
	n.InteractWith(playerID, npc.InteractFriendlyChat, 1.0, m.simNow)

	res := Result{Success: true, Response: line}
	if m.rng.Float64() < shareInfoChance {
		if info, shared := n.ShareInformation(npc.InfoRandom, playerID, m.simNow); shared {
			res.ExtraInfo = info
		}
	}
	return res
}

func (m *Manager) bribeLocked(playerID string, n *npc.NPC, opts InteractOptions) Result {
	if !n.CanBeBribed(opts.Amount) {
		n.InteractWith(playerID, npc.InteractInsult, 0.5, m.simNow)
		return Result{Message: n.Name + " odrzucił łapówkę"}
	}

	n.AcceptBribe(opts.Amount, playerID, m.simNow)
	res := Result{Success: true, Message: n.Name + " przyjął łapówkę"}

	kind := opts.InfoKind
	if kind == "" {
		kind = npc.InfoRandom
	}
	if info, shared := n.ShareInformation(kind, playerID, m.simNow); shared {
		res.Response = info
	}
	return res
}

func (m *Manager) attackLocked(playerID string, n *npc.NPC, opts InteractOptions) Result {
	damage := opts.Damage
	if damage <= 0 {
		damage = DefaultAttackDamage
	}

	n.TakeDamage(playerID, damage, npc.BodyTorso, npc.DamageBlunt, nil, m.simNow)
	n.ChangeState(npc.StateFleeing, m.simNow)
	n.InteractWith(playerID, npc.InteractThreat, 2.0, m.simNow)

	m.addEventLocked(types.WorldEvent{
		Type:         types.WorldEventAttack,
		Description:  fmt.Sprintf("%s zaatakował %s", playerID, n.Name),
		Participants: []string{playerID, n.ID},
		Location:     n.Location,
		Importance:   0.8,
		Timestamp:    m.simNow,
	})

	// Guards on the scene go after the attacker
	for _, id := range m.order {
		guard := m.npcs[id]
		if guard.Role != npc.RoleGuard || guard.ID == n.ID || guard.Location != n.Location || !guard.Alive() {
			continue
		}
		guard.ChangeState(npc.StateAttacking, m.simNow)
		guard.InteractWith(playerID, npc.InteractThreat, 1.5, m.simNow)
	}

	return Result{Success: true, Message: "Zaatakowałeś " + n.Name}
}

func (m *Manager) giveItemLocked(playerID string, n *npc.NPC, opts InteractOptions) Result {
	if opts.Item == "" {
		return Result{Message: "nie masz czego dać"}
	}

	n.AddItem(opts.Item, 1)
	n.InteractWith(playerID, npc.InteractHelp, 0.5, m.simNow)

	res := Result{Success: true, Message: fmt.Sprintf("Dałeś %s %s", opts.Item, n.Name)}
	if opts.Item == "food" && n.Hunger > 60 {
		n.Hunger = math.Max(0, n.Hunger-30)
		n.ModifyEmotion(npc.EmotionHappy, 0.3)
		res.Response = "Dziękuję! Byłem bardzo głodny."
	}
	return res
}

// Snapshot captures the whole world: the clock, the newest events, and
// every NPC's runtime state
func (m *Manager) Snapshot() *persist.WorldSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() *persist.WorldSnapshot {
	tail := m.events
	if len(tail) > eventRingKeep {
		tail = tail[len(tail)-eventRingKeep:]
	}
	events := make([]types.WorldEvent, len(tail))
	copy(events, tail)

	npcs := make(map[string]*npc.Snapshot, len(m.npcs))
	for id, n := range m.npcs {
		npcs[id] = n.Snapshot()
	}

	return &persist.WorldSnapshot{
		SimTime: m.simNow,
		Events:  events,
		NPCs:    npcs,
	}
}

// Restore applies a world snapshot to the live roster. Snapshot entries
// for NPCs that are not live are skipped with a warning; definitions come
// from the roster, never from saves.
func (m *Manager) Restore(snap *persist.WorldSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return types.NewError(types.ErrCodeUnavailable, "npc manager is closed")
	}
	if snap == nil {
		return types.NewError(types.ErrCodeInvalidArgument, "world snapshot is nil")
	}

	m.simNow = snap.SimTime
	m.events = make([]types.WorldEvent, len(snap.Events))
	copy(m.events, snap.Events)

	ids := make([]string, 0, len(snap.NPCs))
	for id := range snap.NPCs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	restored := 0
	for _, id := range ids {
		n, ok := m.npcs[id]
		if !ok {
			m.logger.Warn("snapshot references unknown npc, skipping", "id", id)
			continue
		}
		if err := n.Restore(snap.NPCs[id]); err != nil {
			return types.WrapError(types.ErrCodeInternal, "failed to restore npc "+id, err)
		}
		restored++
	}

	m.logger.Info("world restored", "sim_time", m.simNow, "npcs", restored, "events", len(m.events))
	return nil
}

// Save writes a snapshot through the store and returns the path written.
// With persistence disabled it is a no-op.
func (m *Manager) Save() (string, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return "", types.NewError(types.ErrCodeUnavailable, "npc manager is closed")
	}
	if m.store == nil {
		m.mu.Unlock()
		return "", nil
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	// File locking can wait; do not hold the world lock for it
	return m.store.Save(snap)
}

// LoadLatest restores the world from the newest snapshot on disk and
// returns its path
func (m *Manager) LoadLatest() (string, error) {
	if m.store == nil {
		return "", types.NewError(types.ErrCodeFailedPrecondition, "persistence is disabled")
	}

	path, err := m.store.Latest()
	if err != nil {
		return "", err
	}
	snap, err := m.store.Load(path)
	if err != nil {
		return "", err
	}
	return path, m.Restore(snap)
}

// Stats represents runtime counters of the world
type Stats struct {
	NPCs         int     `json:"npcs"`
	Alive        int     `json:"alive"`
	Events       int     `json:"events"`
	Ticks        uint64  `json:"ticks"`
	Interactions uint64  `json:"interactions"`
	SimTime      float64 `json:"sim_time"`
	Hour         int     `json:"hour"`
}

// String returns a string representation of the stats
func (s Stats) String() string {
	return fmt.Sprintf("Stats{NPCs: %d, Alive: %d, Events: %d, Ticks: %d, Interactions: %d, Hour: %d}",
		s.NPCs, s.Alive, s.Events, s.Ticks, s.Interactions, s.Hour)
}

// Stats returns current world counters
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	alive := 0
	for _, n := range m.npcs {
		if n.Alive() {
			alive++
		}
	}

	return Stats{
		NPCs:         len(m.npcs),
		Alive:        alive,
		Events:       len(m.events),
		Ticks:        m.ticks,
		Interactions: m.interactions,
		SimTime:      m.simNow,
		Hour:         types.HourOf(m.simNow),
	}
}

// Close shuts the manager down: the roster watcher stops and the
// persistence files close. It does not take a final snapshot; callers
// decide whether to Save first.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	watcher := m.watcher
	m.watcher = nil
	ticks := m.ticks
	m.mu.Unlock()

	if watcher != nil {
		watcher.stop()
	}
	if m.journal != nil {
		if err := m.journal.Close(); err != nil {
			m.logger.Warn("failed to close event journal", "error", err)
		}
	}
	if m.store != nil {
		if err := m.store.Close(); err != nil {
			m.logger.Warn("failed to close snapshot store", "error", err)
		}
	}

	m.logger.Info("npc manager closed", "ticks", ticks)
	return nil
}

// IsClosed returns true if the manager is closed
func (m *Manager) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
