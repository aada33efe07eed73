package memory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/osada/npcmind/pkg/types"
)

// Situation captures the elements of a moment that emotional memory keys on
type Situation struct {
	Location     string   `json:"location,omitempty"`
	Participants []string `json:"participants,omitempty"`
	Action       string   `json:"action,omitempty"`
	TimeOfDay    string   `json:"time_of_day,omitempty"`
	IsDark       bool     `json:"is_dark,omitempty"`
}

// EmotionalContext is a remembered situation with the emotions felt in it
type EmotionalContext struct {
	Situation Situation          `json:"situation"`
	Emotions  map[string]float64 `json:"emotions"`
	Timestamp float64            `json:"timestamp"`
	Strength  float64            `json:"strength"`
}

// TraumaRecord is a traumatic memory with the triggers that can reactivate it
type TraumaRecord struct {
	Timestamp float64  `json:"timestamp"`
	Processed bool     `json:"processed"`
	Intensity float64  `json:"intensity"`
	Triggers  []string `json:"triggers"`
}

// MoodEntry is one snapshot in the mood history
type MoodEntry struct {
	Timestamp float64            `json:"timestamp"`
	Emotions  map[string]float64 `json:"emotions"`
}

// EmotionalStore associates emotions with entities and situations, and
// tracks traumatic and positive memories plus a mood history
type EmotionalStore struct {
	tags      map[string]map[string]float64
	contexts  []*EmotionalContext
	moods     []MoodEntry
	traumas   []*TraumaRecord
	positives []*EmotionalContext
}

// opposingEmotions suppresses the opposite pole when an emotion is tagged
var opposingEmotions = map[string]string{
	"happy": "sad",
	"sad":   "happy",
	"angry": "calm",
	"calm":  "angry",
	"fear":  "safe",
	"safe":  "fear",
}

const (
	maxEmotionalContexts  = 500
	trimEmotionalContexts = 400
	maxMoodHistory        = 100
	traumaThreshold       = 0.7
)

// NewEmotionalStore creates an empty emotional store
func NewEmotionalStore() *EmotionalStore {
	return &EmotionalStore{
		tags: make(map[string]map[string]float64),
	}
}

// TagEmotion attaches an emotion to an entity, dampening its opposite
func (s *EmotionalStore) TagEmotion(entity, emotion string, intensity float64) {
	if entity == "" || emotion == "" {
		return
	}
	if s.tags[entity] == nil {
		s.tags[entity] = make(map[string]float64)
	}
	s.tags[entity][emotion] = clamp01(s.tags[entity][emotion] + intensity*0.3)

	if opposite, ok := opposingEmotions[emotion]; ok {
		weakened := s.tags[entity][opposite] - intensity*0.2
		if weakened <= 0 {
			delete(s.tags[entity], opposite)
		} else {
			s.tags[entity][opposite] = weakened
		}
	}
}

// Response returns the normalized emotional reaction to an entity, or
// neutral when nothing is associated with it
func (s *EmotionalStore) Response(entity string) map[string]float64 {
	emotions, ok := s.tags[entity]
	if !ok || len(emotions) == 0 {
		return map[string]float64{"neutral": 1.0}
	}

	total := 0.0
	for _, v := range emotions {
		total += v
	}
	if total <= 0 {
		return map[string]float64{"neutral": 1.0}
	}

	out := make(map[string]float64, len(emotions))
	for e, v := range emotions {
		out[e] = v / total
	}
	return out
}

// AddContext records the emotions felt in a situation, classifying strong
// fear or disgust as trauma and strong happiness as a positive memory
func (s *EmotionalStore) AddContext(situation Situation, emotions map[string]float64, now float64) {
	strength := 0.0
	if len(emotions) > 0 {
		for _, v := range emotions {
			strength += v
		}
		strength /= float64(len(emotions))
	}

	ctx := &EmotionalContext{
		Situation: situation,
		Emotions:  copyEmotions(emotions),
		Timestamp: now,
		Strength:  strength,
	}
	s.contexts = append(s.contexts, ctx)

	if emotions["fear"] > traumaThreshold || emotions["disgust"] > traumaThreshold {
		intensity := emotions["fear"]
		if emotions["disgust"] > intensity {
			intensity = emotions["disgust"]
		}
		s.traumas = append(s.traumas, &TraumaRecord{
			Timestamp: now,
			Intensity: intensity,
			Triggers:  identifySituationTriggers(situation),
		})
	} else if emotions["happy"] > traumaThreshold {
		s.positives = append(s.positives, ctx)
	}

	if len(s.contexts) > maxEmotionalContexts {
		sort.Slice(s.contexts, func(i, j int) bool {
			return s.contexts[i].Strength > s.contexts[j].Strength
		})
		s.contexts = s.contexts[:trimEmotionalContexts]
	}
}

// FindSimilarContext returns the emotions of the most similar remembered
// situation when similarity clears 0.5
func (s *EmotionalStore) FindSimilarContext(situation Situation) (map[string]float64, bool) {
	var best *EmotionalContext
	bestSim := 0.0

	for _, ctx := range s.contexts {
		sim := contextSimilarity(situation, ctx.Situation)
		if sim > bestSim {
			bestSim = sim
			best = ctx
		}
	}

	if best != nil && bestSim > 0.5 {
		return copyEmotions(best.Emotions), true
	}
	return nil, false
}

// contextSimilarity counts matching situation elements, 0.25 each
func contextSimilarity(a, b Situation) float64 {
	sim := 0.0
	if a.Location != "" && a.Location == b.Location {
		sim += 0.25
	}
	if len(a.Participants) > 0 && equalStrings(a.Participants, b.Participants) {
		sim += 0.25
	}
	if a.Action != "" && a.Action == b.Action {
		sim += 0.25
	}
	if a.TimeOfDay != "" && a.TimeOfDay == b.TimeOfDay {
		sim += 0.25
	}
	return sim
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ProcessTrauma records a traumatic event with identified triggers and tags
// its elements with fear and disgust. Returns the new record.
func (s *EmotionalStore) ProcessTrauma(ev Event, now float64) *TraumaRecord {
	intensity := ev.EmotionalImpact["fear"]
	if intensity == 0 {
		intensity = 0.8
	}

	record := &TraumaRecord{
		Timestamp: now,
		Intensity: intensity,
		Triggers:  identifyEventTriggers(ev),
	}
	s.traumas = append(s.traumas, record)

	for _, participant := range ev.Participants {
		s.TagEmotion(participant, "fear", 0.5)
		s.TagEmotion(participant, "disgust", 0.3)
	}
	if ev.Location != "" {
		s.TagEmotion(ev.Location, "fear", 0.5)
		s.TagEmotion(ev.Location, "disgust", 0.3)
	}

	return record
}

// identifyEventTriggers extracts trauma triggers from an event
func identifyEventTriggers(ev Event) []string {
	var triggers []string
	if ev.Location != "" {
		triggers = append(triggers, "location:"+ev.Location)
	}
	for _, p := range ev.Participants {
		triggers = append(triggers, "person:"+p)
	}
	if types.IsNightHour(types.HourOf(ev.Timestamp)) {
		triggers = append(triggers, "darkness")
	}
	if ev.Action != "" {
		triggers = append(triggers, "action:"+ev.Action)
	}
	return triggers
}

// identifySituationTriggers extracts trauma triggers from a situation
func identifySituationTriggers(sit Situation) []string {
	var triggers []string
	if sit.Location != "" {
		triggers = append(triggers, "location:"+sit.Location)
	}
	for _, p := range sit.Participants {
		triggers = append(triggers, "person:"+p)
	}
	if sit.IsDark {
		triggers = append(triggers, "darkness")
	}
	if sit.Action != "" {
		triggers = append(triggers, "action:"+sit.Action)
	}
	return triggers
}

// CheckTriggers accumulates trigger activation from every unprocessed
// trauma against the current situation, capped at 1
func (s *EmotionalStore) CheckTriggers(situation Situation) float64 {
	activation := 0.0

	for _, trauma := range s.traumas {
		if trauma.Processed {
			continue
		}
		for _, trigger := range trauma.Triggers {
			switch {
			case trigger == "darkness":
				if situation.IsDark {
					activation += trauma.Intensity * 0.5
				}
			case strings.HasPrefix(trigger, "location:"):
				if situation.Location != "" && situation.Location == strings.TrimPrefix(trigger, "location:") {
					activation += trauma.Intensity * 0.3
				}
			case strings.HasPrefix(trigger, "person:"):
				person := strings.TrimPrefix(trigger, "person:")
				for _, p := range situation.Participants {
					if p == person {
						activation += trauma.Intensity * 0.4
						break
					}
				}
			}
		}
	}

	if activation > 1 {
		activation = 1
	}
	return activation
}

// UpdateMood appends an emotion snapshot to the mood history
func (s *EmotionalStore) UpdateMood(emotions map[string]float64, now float64) {
	s.moods = append(s.moods, MoodEntry{
		Timestamp: now,
		Emotions:  copyEmotions(emotions),
	})
	if len(s.moods) > maxMoodHistory {
		s.moods = s.moods[len(s.moods)-maxMoodHistory:]
	}
}

// MoodTrend reports each emotion's direction over the last ten snapshots.
// With fewer than two snapshots the mood is reported stable.
func (s *EmotionalStore) MoodTrend() map[string]float64 {
	if len(s.moods) < 2 {
		return map[string]float64{"stable": 1.0}
	}

	recent := s.moods
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}

	series := make(map[string][]float64)
	for _, entry := range recent {
		for emotion, value := range entry.Emotions {
			series[emotion] = append(series[emotion], value)
		}
	}

	trends := make(map[string]float64)
	for emotion, values := range series {
		if len(values) > 1 {
			trends[emotion] = (values[len(values)-1] - values[0]) / float64(len(values))
		}
	}
	return trends
}

// DecayEmotions fades every emotional tag and every trauma's intensity, so
// trigger activation from old traumas weakens over time
func (s *EmotionalStore) DecayEmotions(rate float64) {
	for entity, emotions := range s.tags {
		for emotion := range emotions {
			emotions[emotion] *= 1 - rate
			if emotions[emotion] < 0.01 {
				delete(emotions, emotion)
			}
		}
		if len(emotions) == 0 {
			delete(s.tags, entity)
		}
	}

	for _, trauma := range s.traumas {
		trauma.Intensity *= 1 - rate
	}
}

// TaggedEntities returns the number of entities with emotional associations
func (s *EmotionalStore) TaggedEntities() int {
	return len(s.tags)
}

// TraumaCount returns the number of trauma records
func (s *EmotionalStore) TraumaCount() int {
	return len(s.traumas)
}

// PositiveCount returns the number of positive memories
func (s *EmotionalStore) PositiveCount() int {
	return len(s.positives)
}

// Tags returns the raw emotional tags for an entity, nil if none
func (s *EmotionalStore) Tags(entity string) map[string]float64 {
	return s.tags[entity]
}

func copyEmotions(src map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// TimeOfDayLabel buckets an hour into the labels situations are keyed by
func TimeOfDayLabel(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 18:
		return "afternoon"
	case hour >= 18 && hour < 22:
		return "evening"
	default:
		return "night"
	}
}

// String implements fmt.Stringer for trauma records
func (t *TraumaRecord) String() string {
	return fmt.Sprintf("Trauma{intensity: %.2f, triggers: %d, processed: %t}", t.Intensity, len(t.Triggers), t.Processed)
}
