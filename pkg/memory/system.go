package memory

import (
	"math/rand"
	"time"

	"github.com/osada/npcmind/internal/config"
	"github.com/osada/npcmind/internal/logger"
	"github.com/osada/npcmind/pkg/types"
)

// System composes the four memory stores for one NPC. It is the single
// ingestion point for events and the unified recall surface. A System is
// owned by its NPC and accessed only from the manager's tick loop, so it
// carries no locking of its own.
type System struct {
	NPCID      string
	Episodic   *EpisodicStore
	Semantic   *SemanticStore
	Procedural *ProceduralStore
	Emotional  *EmotionalStore

	consolidationInterval float64
	decayRate             float64
	lastConsolidation     float64
	log                   *logger.Logger
}

// NewSystem creates a memory system for the given NPC
func NewSystem(npcID string, cfg config.MemoryConfig, log *logger.Logger, rng *rand.Rand) *System {
	if log == nil {
		log = logger.Global()
	}
	if cfg.EpisodicCapacity <= 0 {
		cfg.EpisodicCapacity = config.DefaultEpisodicCapacity
	}
	if cfg.ConsolidationInterval <= 0 {
		cfg.ConsolidationInterval = config.DefaultConsolidationInterval
	}
	if cfg.DecayRate <= 0 {
		cfg.DecayRate = config.DefaultMemoryDecayRate
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &System{
		NPCID:                 npcID,
		Episodic:              NewEpisodicStore(cfg.EpisodicCapacity),
		Semantic:              NewSemanticStore(),
		Procedural:            NewProceduralStore(rng),
		Emotional:             NewEmotionalStore(),
		consolidationInterval: cfg.ConsolidationInterval,
		decayRate:             cfg.DecayRate,
		log:                   log.With("component", "memory", "npc", npcID),
	}
}

// ProcessResult reports what an event ingestion did beyond the episodic write
type ProcessResult struct {
	EpisodeID          types.ID
	TraumaRecorded     bool
	TriggersIdentified int
}

// ProcessEvent routes an event through every store: always episodic; the
// semantic, procedural, and emotional stores when the matching payload is
// present. Strong fear additionally records a trauma. Consolidation runs
// afterwards if the interval has elapsed.
func (s *System) ProcessEvent(ev Event, now float64) ProcessResult {
	result := ProcessResult{}
	result.EpisodeID = s.Episodic.Record(ev, now)

	if ev.LearnedFact != nil {
		s.Semantic.AddKnowledge(ev.LearnedFact.Concept, ev.LearnedFact.Information, ev.LearnedFact.Category, now)
	}

	if ev.SkillObserved != nil {
		s.Procedural.LearnSkill(ev.SkillObserved.Name, ev.SkillObserved.Steps)
	}

	if len(ev.EmotionalImpact) > 0 {
		entities := append([]string(nil), ev.Participants...)
		if ev.Location != "" {
			entities = append(entities, ev.Location)
		}
		for _, entity := range entities {
			for emotion, intensity := range ev.EmotionalImpact {
				s.Emotional.TagEmotion(entity, emotion, intensity)
			}
		}

		s.Emotional.AddContext(situationFromEvent(ev), ev.EmotionalImpact, now)

		if ev.EmotionalImpact["fear"] > traumaThreshold {
			record := s.Emotional.ProcessTrauma(ev, now)
			result.TraumaRecorded = true
			result.TriggersIdentified = len(record.Triggers)
			s.log.Debug("trauma recorded", "triggers", result.TriggersIdentified, "intensity", record.Intensity)
		}
	}

	s.MaybeConsolidate(now)

	return result
}

// MaybeConsolidate runs a full consolidation pass when the configured
// interval has elapsed since the last one. Reports whether it ran.
func (s *System) MaybeConsolidate(now float64) bool {
	if now-s.lastConsolidation <= s.consolidationInterval {
		return false
	}
	s.ConsolidateAll(now)
	return true
}

func situationFromEvent(ev Event) Situation {
	hour := types.HourOf(ev.Timestamp)
	return Situation{
		Location:     ev.Location,
		Participants: append([]string(nil), ev.Participants...),
		Action:       ev.Action,
		TimeOfDay:    TimeOfDayLabel(hour),
		IsDark:       types.IsNightHour(hour),
	}
}

// RecallContext describes what the caller is doing, so recall can pull the
// relevant episodes, knowledge, skills, habits, and emotional reactions
type RecallContext struct {
	TargetNPC       string
	Location        string
	ActionType      string
	QueryConcept    string
	RequiredSkill   string
	PresentEntities []string
	HabitTrigger    string
	IsDark          bool
}

// Recalled is the unified recall result across all four stores
type Recalled struct {
	Episodes         []*Episode
	Knowledge        string
	KnowledgeFound   bool
	RelatedConcepts  []ConceptStrength
	SkillProficiency float64
	CanExecute       bool
	EmotionalContext map[string]map[string]float64
	TraumaTriggered  float64
	HabitualActions  []string
}

// RecallRelevant gathers everything the memory system associates with the
// given context
func (s *System) RecallRelevant(rc RecallContext, now float64) Recalled {
	recalled := Recalled{}

	recalled.Episodes = s.Episodic.Recall(Query{
		EventType:   rc.ActionType,
		Participant: rc.TargetNPC,
		Location:    rc.Location,
	}, 5, now)

	if rc.QueryConcept != "" {
		if knowledge, ok := s.Semantic.Retrieve(rc.QueryConcept, now); ok {
			recalled.Knowledge = knowledge
			recalled.KnowledgeFound = true
			recalled.RelatedConcepts = s.Semantic.Related(rc.QueryConcept, 5)
		}
	}

	if rc.RequiredSkill != "" {
		recalled.SkillProficiency = s.Procedural.Proficiency(rc.RequiredSkill)
		recalled.CanExecute = recalled.SkillProficiency > 0.3
	}

	if len(rc.PresentEntities) > 0 {
		recalled.EmotionalContext = make(map[string]map[string]float64, len(rc.PresentEntities))
		for _, entity := range rc.PresentEntities {
			recalled.EmotionalContext[entity] = s.Emotional.Response(entity)
		}
	}

	recalled.TraumaTriggered = s.Emotional.CheckTriggers(Situation{
		Location:     rc.Location,
		Participants: rc.PresentEntities,
		IsDark:       rc.IsDark,
	})

	if rc.HabitTrigger != "" {
		recalled.HabitualActions = s.Procedural.TriggerHabits(rc.HabitTrigger)
	}

	return recalled
}

// ConsolidateAll cascades consolidation and decay through every store
func (s *System) ConsolidateAll(now float64) {
	evicted := s.Episodic.Consolidate(now)
	s.Semantic.DecayAll(now, s.decayRate)
	s.Procedural.Consolidate()
	s.Emotional.DecayEmotions(s.decayRate)
	s.lastConsolidation = now

	s.log.Debug("memory consolidated", "episodes", s.Episodic.Len(), "evicted", evicted)
}

// LastConsolidation returns the sim time of the most recent consolidation
func (s *System) LastConsolidation() float64 {
	return s.lastConsolidation
}

// Profile summarizes the memory system's contents for inspection
type Profile struct {
	NPCID            string             `json:"npc_id"`
	Episodic         EpisodicSummary    `json:"episodic"`
	SemanticConcepts int                `json:"semantic_concepts"`
	Skills           map[string]float64 `json:"skills"`
	HabitCount       int                `json:"habit_count"`
	TaggedEntities   int                `json:"tagged_entities"`
	TraumaCount      int                `json:"trauma_count"`
	PositiveCount    int                `json:"positive_count"`
	MoodTrend        map[string]float64 `json:"mood_trend"`
}

// Profile returns a summary of the whole memory system
func (s *System) Profile() Profile {
	return Profile{
		NPCID:            s.NPCID,
		Episodic:         s.Episodic.Summary(),
		SemanticConcepts: s.Semantic.Len(),
		Skills:           s.Procedural.Skills(),
		HabitCount:       s.Procedural.HabitCount(),
		TaggedEntities:   s.Emotional.TaggedEntities(),
		TraumaCount:      s.Emotional.TraumaCount(),
		PositiveCount:    s.Emotional.PositiveCount(),
		MoodTrend:        s.Emotional.MoodTrend(),
	}
}
