package memory

import "math/rand"

// Skill is a learned ability: its canonical steps, variations picked up
// through repetition, and a proficiency that grows with practice
type Skill struct {
	Steps         []string   `json:"steps"`
	Proficiency   float64    `json:"proficiency"`
	PracticeCount int        `json:"practice_count"`
	Variations    [][]string `json:"variations,omitempty"`
}

// Habit is a trigger-action pair that fires probabilistically by strength
type Habit struct {
	Trigger    string    `json:"trigger"`
	Action     string    `json:"action"`
	Strength   float64   `json:"strength"`
	Executions int       `json:"executions"`
	Rewards    []float64 `json:"rewards,omitempty"`
}

// ProceduralStore holds skills, habits, and learned action sequences
type ProceduralStore struct {
	skills       map[string]*Skill
	habits       []*Habit
	sequences    map[string][]string
	successRates map[string]float64
	rng          *rand.Rand
}

// NewProceduralStore creates an empty procedural store using the given
// random source for skill execution and habit firing
func NewProceduralStore(rng *rand.Rand) *ProceduralStore {
	return &ProceduralStore{
		skills:       make(map[string]*Skill),
		habits:       make([]*Habit, 0),
		sequences:    make(map[string][]string),
		successRates: make(map[string]float64),
		rng:          rng,
	}
}

// LearnSkill records a new skill at base proficiency, or files the steps as
// a variation of an existing one and counts practice
func (s *ProceduralStore) LearnSkill(name string, steps []string) {
	if name == "" {
		return
	}

	if skill, ok := s.skills[name]; ok {
		skill.Variations = append(skill.Variations, append([]string(nil), steps...))
		skill.PracticeCount++
		improveProficiency(skill)
		return
	}

	s.skills[name] = &Skill{
		Steps:       append([]string(nil), steps...),
		Proficiency: 0.1,
	}
}

// improveProficiency grows proficiency logarithmically with practice
func improveProficiency(skill *Skill) {
	practice := float64(skill.PracticeCount)
	skill.Proficiency = clamp01(0.1 + 0.9*(1-1/(1+practice*0.1)))
}

// ExecuteSkill attempts a learned skill. The success chance scales with
// proficiency; success practices the skill further and may return a
// variation instead of the canonical steps.
func (s *ProceduralStore) ExecuteSkill(name string) (bool, []string) {
	skill, ok := s.skills[name]
	if !ok {
		return false, nil
	}

	if s.rng.Float64() < 0.3+0.7*skill.Proficiency {
		skill.PracticeCount++
		improveProficiency(skill)
		s.successRates[name] = clamp01(s.successRate(name) + 0.05)

		steps := skill.Steps
		if len(skill.Variations) > 0 && s.rng.Float64() < skill.Proficiency {
			pick := s.rng.Intn(len(skill.Variations) + 1)
			if pick > 0 {
				steps = skill.Variations[pick-1]
			}
		}
		return true, steps
	}

	rate := s.successRate(name) - 0.02
	if rate < 0 {
		rate = 0
	}
	s.successRates[name] = rate
	return false, skill.Steps
}

// successRate returns the tracked success rate, starting at the 0.5 baseline
func (s *ProceduralStore) successRate(name string) float64 {
	if rate, ok := s.successRates[name]; ok {
		return rate
	}
	return 0.5
}

// Skill returns the named skill
func (s *ProceduralStore) Skill(name string) (*Skill, bool) {
	sk, ok := s.skills[name]
	return sk, ok
}

// Proficiency returns the proficiency of the named skill, zero if unknown
func (s *ProceduralStore) Proficiency(name string) float64 {
	if sk, ok := s.skills[name]; ok {
		return sk.Proficiency
	}
	return 0
}

// Skills returns the proficiency of every known skill
func (s *ProceduralStore) Skills() map[string]float64 {
	out := make(map[string]float64, len(s.skills))
	for name, sk := range s.skills {
		out[name] = sk.Proficiency
	}
	return out
}

// AddHabit records a trigger-action habit or reinforces an existing one
func (s *ProceduralStore) AddHabit(trigger, action string, reward float64) {
	for _, h := range s.habits {
		if h.Trigger == trigger && h.Action == action {
			h.Strength = clamp01(h.Strength + 0.1)
			h.Executions++
			if reward != 0 {
				h.Rewards = append(h.Rewards, reward)
			}
			return
		}
	}

	habit := &Habit{
		Trigger:  trigger,
		Action:   action,
		Strength: 0.1,
	}
	if reward != 0 {
		habit.Rewards = []float64{reward}
	}
	s.habits = append(s.habits, habit)
}

// TriggerHabits fires habits matching the trigger by strength-weighted
// chance, reinforcing each one that fires, and returns the fired actions
func (s *ProceduralStore) TriggerHabits(trigger string) []string {
	var actions []string
	for _, h := range s.habits {
		if h.Trigger != trigger {
			continue
		}
		if s.rng.Float64() < h.Strength {
			actions = append(actions, h.Action)
			h.Executions++
			h.Strength = clamp01(h.Strength + 0.02)
		}
	}
	return actions
}

// HabitCount returns the number of stored habits
func (s *ProceduralStore) HabitCount() int {
	return len(s.habits)
}

// LearnSequence stores an action sequence. A shorter resubmission is kept
// separately as an optimized variant.
func (s *ProceduralStore) LearnSequence(name string, actions []string) {
	existing, ok := s.sequences[name]
	if !ok {
		s.sequences[name] = append([]string(nil), actions...)
		return
	}
	if len(actions) < len(existing) {
		s.sequences[name+"_optimized"] = append([]string(nil), actions...)
	}
}

// Sequence returns a learned sequence, preferring the optimized variant
func (s *ProceduralStore) Sequence(name string) ([]string, bool) {
	if seq, ok := s.sequences[name+"_optimized"]; ok {
		return seq, true
	}
	seq, ok := s.sequences[name]
	return seq, ok
}

// Consolidate drops weak habits and barely practiced dead-end skills
func (s *ProceduralStore) Consolidate() {
	kept := s.habits[:0]
	for _, h := range s.habits {
		if h.Strength > 0.05 {
			kept = append(kept, h)
		}
	}
	s.habits = kept

	for name, skill := range s.skills {
		if skill.Proficiency < 0.05 && skill.PracticeCount < 3 {
			delete(s.skills, name)
		}
	}
}
