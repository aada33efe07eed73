package memory

import "github.com/osada/npcmind/pkg/types"

// SystemState is the serializable snapshot of a memory system
type SystemState struct {
	NPCID             string          `json:"npc_id"`
	Episodic          EpisodicState   `json:"episodic"`
	Semantic          SemanticState   `json:"semantic"`
	Procedural        ProceduralState `json:"procedural"`
	Emotional         EmotionalState  `json:"emotional"`
	LastConsolidation float64         `json:"last_consolidation"`
}

// EpisodicState is the serializable form of an episodic store
type EpisodicState struct {
	Capacity int        `json:"capacity"`
	Episodes []*Episode `json:"episodes"`
}

// SemanticState is the serializable form of a semantic store
type SemanticState struct {
	Facts      map[string]*Fact              `json:"facts"`
	Categories map[string][]string           `json:"categories"`
	Relations  map[string]map[string]float64 `json:"relations"`
}

// ProceduralState is the serializable form of a procedural store
type ProceduralState struct {
	Skills       map[string]*Skill   `json:"skills"`
	Habits       []*Habit            `json:"habits"`
	Sequences    map[string][]string `json:"sequences"`
	SuccessRates map[string]float64  `json:"success_rates"`
}

// EmotionalState is the serializable form of an emotional store
type EmotionalState struct {
	Tags      map[string]map[string]float64 `json:"tags"`
	Contexts  []*EmotionalContext           `json:"contexts"`
	Traumas   []*TraumaRecord               `json:"traumas"`
	Positives []*EmotionalContext           `json:"positives"`
	Moods     []MoodEntry                   `json:"moods"`
}

// Snapshot captures the full memory state for persistence
func (s *System) Snapshot() *SystemState {
	return &SystemState{
		NPCID:             s.NPCID,
		Episodic:          s.Episodic.state(),
		Semantic:          s.Semantic.state(),
		Procedural:        s.Procedural.state(),
		Emotional:         s.Emotional.state(),
		LastConsolidation: s.lastConsolidation,
	}
}

// Restore replaces the memory state from a snapshot
func (s *System) Restore(state *SystemState) error {
	if state == nil {
		return types.NewError(types.ErrCodeInvalidArgument, "memory state is nil")
	}

	s.Episodic.restore(state.Episodic)
	s.Semantic.restore(state.Semantic)
	s.Procedural.restore(state.Procedural)
	s.Emotional.restore(state.Emotional)
	s.lastConsolidation = state.LastConsolidation

	return nil
}

func (s *EpisodicStore) state() EpisodicState {
	episodes := make([]*Episode, 0, len(s.order))
	for _, id := range s.order {
		if ep, ok := s.episodes[id]; ok {
			episodes = append(episodes, ep)
		}
	}
	return EpisodicState{
		Capacity: s.capacity,
		Episodes: episodes,
	}
}

func (s *EpisodicStore) restore(state EpisodicState) {
	if state.Capacity > 0 {
		s.capacity = state.Capacity
	}
	s.episodes = make(map[types.ID]*Episode, len(state.Episodes))
	s.order = make([]types.ID, 0, len(state.Episodes))
	for _, ep := range state.Episodes {
		if ep == nil || ep.ID == "" {
			continue
		}
		s.episodes[ep.ID] = ep
		s.order = append(s.order, ep.ID)
	}
	s.compact()
}

func (s *SemanticStore) state() SemanticState {
	return SemanticState{
		Facts:      s.facts,
		Categories: s.categories,
		Relations:  s.relations,
	}
}

func (s *SemanticStore) restore(state SemanticState) {
	s.facts = state.Facts
	if s.facts == nil {
		s.facts = make(map[string]*Fact)
	}
	s.categories = state.Categories
	if s.categories == nil {
		s.categories = make(map[string][]string)
	}
	s.relations = state.Relations
	if s.relations == nil {
		s.relations = make(map[string]map[string]float64)
	}
}

func (s *ProceduralStore) state() ProceduralState {
	return ProceduralState{
		Skills:       s.skills,
		Habits:       s.habits,
		Sequences:    s.sequences,
		SuccessRates: s.successRates,
	}
}

func (s *ProceduralStore) restore(state ProceduralState) {
	s.skills = state.Skills
	if s.skills == nil {
		s.skills = make(map[string]*Skill)
	}
	s.habits = state.Habits
	if s.habits == nil {
		s.habits = make([]*Habit, 0)
	}
	s.sequences = state.Sequences
	if s.sequences == nil {
		s.sequences = make(map[string][]string)
	}
	s.successRates = state.SuccessRates
	if s.successRates == nil {
		s.successRates = make(map[string]float64)
	}
}

func (s *EmotionalStore) state() EmotionalState {
	return EmotionalState{
		Tags:      s.tags,
		Contexts:  s.contexts,
		Traumas:   s.traumas,
		Positives: s.positives,
		Moods:     s.moods,
	}
}

func (s *EmotionalStore) restore(state EmotionalState) {
	s.tags = state.Tags
	if s.tags == nil {
		s.tags = make(map[string]map[string]float64)
	}
	s.contexts = state.Contexts
	s.traumas = state.Traumas
	s.positives = state.Positives
	s.moods = state.Moods
}
