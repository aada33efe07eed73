package memory

import (
	"math"
	"sort"

	"github.com/osada/npcmind/pkg/types"
)

// AssociationKind describes how two episodes are linked
type AssociationKind string

const (
	AssociationSimilar    AssociationKind = "similar"
	AssociationCausal     AssociationKind = "causal"
	AssociationConcurrent AssociationKind = "concurrent"
	AssociationTemporal   AssociationKind = "temporal"
	AssociationRelated    AssociationKind = "related"
)

// Association links an episode to another by stable ID. Links survive
// eviction of either endpoint; dangling targets are skipped on traversal
// and dropped when the store compacts.
type Association struct {
	Target   types.ID        `json:"target"`
	Kind     AssociationKind `json:"kind"`
	Strength float64         `json:"strength"`
}

// Episode is a single episodic memory entry
type Episode struct {
	ID           types.ID      `json:"id"`
	Type         string        `json:"type"`
	Description  string        `json:"description,omitempty"`
	Participants []string      `json:"participants,omitempty"`
	Location     string        `json:"location,omitempty"`
	Timestamp    float64       `json:"timestamp"`
	Importance   float64       `json:"importance"`
	Strength     float64       `json:"strength"`
	AccessCount  int           `json:"access_count"`
	LastAccess   float64       `json:"last_access"`
	CausedBy     []types.ID    `json:"caused_by,omitempty"`
	Associations []Association `json:"associations,omitempty"`
}

// Query selects episodes for recall. Empty fields are ignored; a fully
// empty query matches nothing.
type Query struct {
	EventType   string
	Participant string
	Location    string
}

// EpisodicStore holds concrete remembered events with an association graph
// and relevance-ranked recall. It is owned by a single NPC and accessed
// only from the manager's tick loop.
type EpisodicStore struct {
	capacity int
	episodes map[types.ID]*Episode
	order    []types.ID // insertion order, newest last

	byType        map[string][]types.ID
	byParticipant map[string][]types.ID
	byLocation    map[string][]types.ID
}

// associationWindow is how many of the newest episodes are scanned for
// links when a new episode is recorded
const associationWindow = 20

// linkThreshold is the minimum similarity for an association to form
const linkThreshold = 0.3

// episodicDecayBase scales consolidation decay; importance divides it so
// important episodes fade slower
const episodicDecayBase = 0.001

// NewEpisodicStore creates an episodic store with the given capacity
func NewEpisodicStore(capacity int) *EpisodicStore {
	if capacity <= 0 {
		capacity = 1000
	}
	return &EpisodicStore{
		capacity:      capacity,
		episodes:      make(map[types.ID]*Episode),
		byType:        make(map[string][]types.ID),
		byParticipant: make(map[string][]types.ID),
		byLocation:    make(map[string][]types.ID),
	}
}

// Record stores a new episode built from the event, links it against the
// most recent episodes, and returns its ID. A zero event timestamp is
// replaced with now; a zero importance defaults to 0.5.
func (s *EpisodicStore) Record(ev Event, now float64) types.ID {
	if ev.Timestamp == 0 {
		ev.Timestamp = now
	}
	if ev.Importance == 0 {
		ev.Importance = 0.5
	}

	ep := &Episode{
		ID:           types.GenerateID(),
		Type:         ev.Type,
		Description:  ev.Description,
		Participants: append([]string(nil), ev.Participants...),
		Location:     ev.Location,
		Timestamp:    ev.Timestamp,
		Importance:   clamp01(ev.Importance),
		Strength:     clamp01(ev.Importance),
		CausedBy:     append([]types.ID(nil), ev.CausedBy...),
	}
	if ev.ID != "" {
		ep.ID = ev.ID
	}

	s.linkAssociations(ep)

	s.episodes[ep.ID] = ep
	s.order = append(s.order, ep.ID)
	s.index(ep)

	if len(s.episodes) > s.capacity {
		s.forgetWeakest()
	}

	return ep.ID
}

// linkAssociations scans the newest episodes and links both directions
// where similarity clears the threshold
func (s *EpisodicStore) linkAssociations(ep *Episode) {
	start := len(s.order) - associationWindow
	if start < 0 {
		start = 0
	}
	for _, id := range s.order[start:] {
		other, ok := s.episodes[id]
		if !ok {
			continue
		}
		sim := similarity(ep, other)
		if sim <= linkThreshold {
			continue
		}
		ep.Associations = append(ep.Associations, Association{
			Target:   other.ID,
			Kind:     associationKind(ep, other),
			Strength: sim,
		})
		other.Associations = append(other.Associations, Association{
			Target:   ep.ID,
			Kind:     associationKind(other, ep),
			Strength: sim,
		})
	}
}

// similarity combines type, participant overlap, location, and temporal
// proximity into a [0,1] score
func similarity(a, b *Episode) float64 {
	score := 0.0

	if a.Type == b.Type {
		score += 0.3
	}

	if len(a.Participants) > 0 && len(b.Participants) > 0 {
		score += 0.3 * jaccard(a.Participants, b.Participants)
	}

	if a.Location != "" && a.Location == b.Location {
		score += 0.2
	}

	dt := math.Abs(a.Timestamp - b.Timestamp)
	if dt < 3600 {
		score += 0.2 * (1 - dt/3600)
	}

	if score > 1 {
		score = 1
	}
	return score
}

func jaccard(a, b []string) float64 {
	setA := make(map[string]struct{}, len(a))
	for _, v := range a {
		setA[v] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, v := range b {
		setB[v] = struct{}{}
	}

	overlap := 0
	for v := range setA {
		if _, ok := setB[v]; ok {
			overlap++
		}
	}
	union := len(setA) + len(setB) - overlap
	if union == 0 {
		return 0
	}
	return float64(overlap) / float64(union)
}

func associationKind(a, b *Episode) AssociationKind {
	if a.Type == b.Type {
		return AssociationSimilar
	}

	if a.Timestamp < b.Timestamp {
		for _, cause := range b.CausedBy {
			if cause == a.ID {
				return AssociationCausal
			}
		}
	}

	dt := math.Abs(a.Timestamp - b.Timestamp)
	if dt < 60 {
		return AssociationConcurrent
	}
	if dt < 3600 {
		return AssociationTemporal
	}
	return AssociationRelated
}

// Recall returns up to limit episodes ranked by relevance to the query.
// Returned episodes are live store entries; recall itself strengthens them
// and spreads activation to their associations.
func (s *EpisodicStore) Recall(q Query, limit int, now float64) []*Episode {
	if limit <= 0 {
		limit = 10
	}

	candidates := s.candidates(q)

	type scored struct {
		relevance float64
		ep        *Episode
	}
	ranked := make([]scored, 0, len(candidates))
	for _, ep := range candidates {
		rel := relevance(ep, q, now)
		if rel > 0 {
			ranked = append(ranked, scored{rel, ep})
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].relevance != ranked[j].relevance {
			return ranked[i].relevance > ranked[j].relevance
		}
		if ranked[i].ep.Timestamp != ranked[j].ep.Timestamp {
			return ranked[i].ep.Timestamp > ranked[j].ep.Timestamp
		}
		return ranked[i].ep.ID < ranked[j].ep.ID
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	results := make([]*Episode, 0, len(ranked))
	for _, r := range ranked {
		r.ep.AccessCount++
		r.ep.LastAccess = now
		r.ep.Strength = clamp01(r.ep.Strength + 0.02)
		s.spreadActivation(r.ep, 0.5)
		results = append(results, r.ep)
	}
	return results
}

// candidates collects episodes matching any query criterion via the
// inverted indexes, or every episode when the query names none
func (s *EpisodicStore) candidates(q Query) []*Episode {
	seen := make(map[types.ID]struct{})
	var out []*Episode

	add := func(ids []types.ID) {
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			if ep, ok := s.episodes[id]; ok {
				seen[id] = struct{}{}
				out = append(out, ep)
			}
		}
	}

	hasCriteria := false
	if q.EventType != "" {
		hasCriteria = true
		add(s.byType[q.EventType])
	}
	if q.Participant != "" {
		hasCriteria = true
		add(s.byParticipant[q.Participant])
	}
	if q.Location != "" {
		hasCriteria = true
		add(s.byLocation[q.Location])
	}

	if !hasCriteria {
		add(s.order)
	}
	return out
}

// relevance scores an episode against a query: match bonuses scaled by
// strength, recency, and access frequency
func relevance(ep *Episode, q Query, now float64) float64 {
	score := 0.0

	if q.EventType != "" && ep.Type == q.EventType {
		score += 0.3
	}
	if q.Participant != "" {
		for _, p := range ep.Participants {
			if p == q.Participant {
				score += 0.3
				break
			}
		}
	}
	if q.Location != "" && ep.Location == q.Location {
		score += 0.2
	}

	score *= ep.Strength

	age := now - ep.Timestamp
	recency := math.Max(0.1, 1.0-age/(7*24*3600))
	score *= 0.7 + 0.3*recency

	frequency := math.Min(1.0, 0.5+float64(ep.AccessCount)*0.1)
	score *= frequency

	return score
}

// spreadActivation boosts episodes associated with the recalled one
func (s *EpisodicStore) spreadActivation(ep *Episode, strength float64) {
	for _, assoc := range ep.Associations {
		target, ok := s.episodes[assoc.Target]
		if !ok {
			continue
		}
		boost := strength * assoc.Strength * 0.1
		target.Strength = clamp01(target.Strength + boost)
	}
}

// Consolidate decays every episode proportionally to its age and inversely
// to its importance, rewards well-rehearsed episodes, then evicts over
// capacity. Returns the number of evicted episodes.
func (s *EpisodicStore) Consolidate(now float64) int {
	for _, ep := range s.episodes {
		age := now - ep.Timestamp
		if age > 0 {
			decayRate := episodicDecayBase / math.Max(0.1, ep.Importance)
			ep.Strength = clamp01(ep.Strength * (1 - decayRate*age/3600))
		}
		if ep.AccessCount > 5 {
			ep.Strength = clamp01(ep.Strength + 0.1)
		}
	}
	return s.forgetWeakest()
}

// PruneWeak removes episodes whose strength fell below the threshold and
// returns how many were removed
func (s *EpisodicStore) PruneWeak(threshold float64) int {
	var doomed []types.ID
	for id, ep := range s.episodes {
		if ep.Strength < threshold {
			doomed = append(doomed, id)
		}
	}
	if len(doomed) == 0 {
		return 0
	}
	for _, id := range doomed {
		delete(s.episodes, id)
	}
	s.compact()
	return len(doomed)
}

// forgetWeakest evicts the lowest strength*importance episodes until the
// store fits its capacity
func (s *EpisodicStore) forgetWeakest() int {
	excess := len(s.episodes) - s.capacity
	if excess <= 0 {
		return 0
	}

	type weighted struct {
		weight float64
		id     types.ID
	}
	all := make([]weighted, 0, len(s.episodes))
	for id, ep := range s.episodes {
		all = append(all, weighted{ep.Strength * ep.Importance, id})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].weight != all[j].weight {
			return all[i].weight < all[j].weight
		}
		return all[i].id < all[j].id
	})

	for _, w := range all[:excess] {
		delete(s.episodes, w.id)
	}
	s.compact()
	return excess
}

// compact rebuilds the insertion order, indexes, and association lists
// after deletions
func (s *EpisodicStore) compact() {
	order := make([]types.ID, 0, len(s.episodes))
	for _, id := range s.order {
		if _, ok := s.episodes[id]; ok {
			order = append(order, id)
		}
	}
	s.order = order

	s.byType = make(map[string][]types.ID)
	s.byParticipant = make(map[string][]types.ID)
	s.byLocation = make(map[string][]types.ID)
	for _, id := range s.order {
		ep := s.episodes[id]
		s.index(ep)

		kept := ep.Associations[:0]
		for _, assoc := range ep.Associations {
			if _, ok := s.episodes[assoc.Target]; ok {
				kept = append(kept, assoc)
			}
		}
		ep.Associations = kept
	}
}

func (s *EpisodicStore) index(ep *Episode) {
	s.byType[ep.Type] = append(s.byType[ep.Type], ep.ID)
	for _, p := range ep.Participants {
		s.byParticipant[p] = append(s.byParticipant[p], ep.ID)
	}
	if ep.Location != "" {
		s.byLocation[ep.Location] = append(s.byLocation[ep.Location], ep.ID)
	}
}

// Get returns the episode with the given ID
func (s *EpisodicStore) Get(id types.ID) (*Episode, bool) {
	ep, ok := s.episodes[id]
	return ep, ok
}

// Len returns the number of stored episodes
func (s *EpisodicStore) Len() int {
	return len(s.episodes)
}

// Capacity returns the store's maximum episode count
func (s *EpisodicStore) Capacity() int {
	return s.capacity
}

// EpisodicSummary reports aggregate store statistics
type EpisodicSummary struct {
	Total           int            `json:"total"`
	AverageStrength float64        `json:"average_strength"`
	CapacityUsed    float64        `json:"capacity_used"`
	CommonTypes     map[string]int `json:"common_types"`
	MostImportant   []*Episode     `json:"most_important"`
}

// Summary returns aggregate statistics over the stored episodes
func (s *EpisodicStore) Summary() EpisodicSummary {
	total := len(s.episodes)
	sum := EpisodicSummary{
		Total:        total,
		CapacityUsed: float64(total) / float64(s.capacity),
		CommonTypes:  make(map[string]int),
	}

	strength := 0.0
	for _, ep := range s.episodes {
		strength += ep.Strength
		sum.CommonTypes[ep.Type]++
	}
	if total > 0 {
		sum.AverageStrength = strength / float64(total)
	}
	sum.MostImportant = s.MostImportant(5)

	return sum
}

// MostImportant returns up to k episodes ranked by importance weighted with
// remaining strength, ties broken by ID for stable output
func (s *EpisodicStore) MostImportant(k int) []*Episode {
	all := make([]*Episode, 0, len(s.episodes))
	for _, ep := range s.episodes {
		all = append(all, ep)
	}
	sort.Slice(all, func(i, j int) bool {
		wi := all[i].Importance * all[i].Strength
		wj := all[j].Importance * all[j].Strength
		if wi != wj {
			return wi > wj
		}
		return all[i].ID < all[j].ID
	})
	if k >= 0 && len(all) > k {
		all = all[:k]
	}
	return all
}
