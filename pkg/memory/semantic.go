package memory

import (
	"sort"
	"strings"
)

// Fact is a semantic knowledge entry: a concept's payload plus its trace
type Fact struct {
	Trace
	Content string `json:"content"`
}

// ConceptStrength pairs a related concept with its link strength
type ConceptStrength struct {
	Concept  string  `json:"concept"`
	Strength float64 `json:"strength"`
}

// SemanticStore holds general knowledge keyed by concept strings, with a
// symmetric similarity graph built from token overlap
type SemanticStore struct {
	facts      map[string]*Fact
	categories map[string][]string
	relations  map[string]map[string]float64
}

// semanticLinkThreshold is the minimum token similarity for concepts to link
const semanticLinkThreshold = 0.3

// semanticFallbackThreshold is the minimum similarity for a near-miss lookup
const semanticFallbackThreshold = 0.5

// NewSemanticStore creates an empty semantic store
func NewSemanticStore() *SemanticStore {
	return &SemanticStore{
		facts:      make(map[string]*Fact),
		categories: make(map[string][]string),
		relations:  make(map[string]map[string]float64),
	}
}

// AddKnowledge stores or reinforces a concept. New concepts are filed under
// the category and linked to token-similar concepts.
func (s *SemanticStore) AddKnowledge(concept, information, category string, now float64) {
	if concept == "" {
		return
	}
	if category == "" {
		category = "general"
	}

	if fact, ok := s.facts[concept]; ok {
		fact.Strength = clamp01(fact.Strength + 0.1)
		fact.Access(now)
	} else {
		s.facts[concept] = &Fact{
			Trace:   NewTrace(now, 1.0),
			Content: information,
		}
		s.categories[category] = append(s.categories[category], concept)
	}

	s.linkConcept(concept)
}

// linkConcept builds symmetric similarity links from the concept to every
// sufficiently similar existing concept
func (s *SemanticStore) linkConcept(concept string) {
	for other := range s.facts {
		if other == concept {
			continue
		}
		sim := tokenSimilarity(concept, other)
		if sim > semanticLinkThreshold {
			s.relate(concept, other, sim)
			s.relate(other, concept, sim)
		}
	}
}

func (s *SemanticStore) relate(from, to string, strength float64) {
	if s.relations[from] == nil {
		s.relations[from] = make(map[string]float64)
	}
	s.relations[from][to] = strength
}

// tokenSimilarity is Jaccard overlap over underscore-separated tokens
func tokenSimilarity(a, b string) float64 {
	tokensA := strings.Split(strings.ToLower(a), "_")
	tokensB := strings.Split(strings.ToLower(b), "_")
	return jaccard(tokensA, tokensB)
}

// Retrieve looks up a concept's content, falling back to the most similar
// known concept above the fallback threshold. A successful lookup
// strengthens the fact and spreads a smaller boost to linked concepts.
func (s *SemanticStore) Retrieve(concept string, now float64) (string, bool) {
	if _, ok := s.facts[concept]; !ok {
		similar, found := s.findSimilar(concept)
		if !found {
			return "", false
		}
		concept = similar
	}

	fact := s.facts[concept]
	fact.Access(now)

	for related, strength := range s.relations[concept] {
		if linked, ok := s.facts[related]; ok {
			linked.Strength = clamp01(linked.Strength + strength*0.05)
		}
	}

	return fact.Content, true
}

// findSimilar returns the known concept most token-similar to the query
func (s *SemanticStore) findSimilar(query string) (string, bool) {
	best := ""
	bestSim := 0.0
	for concept := range s.facts {
		sim := tokenSimilarity(query, concept)
		if sim > bestSim || (sim == bestSim && sim > 0 && (best == "" || concept < best)) {
			bestSim = sim
			best = concept
		}
	}
	if bestSim > semanticFallbackThreshold {
		return best, true
	}
	return "", false
}

// Related returns up to limit concepts linked to the given one, strongest first
func (s *SemanticStore) Related(concept string, limit int) []ConceptStrength {
	links := s.relations[concept]
	if len(links) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = 5
	}

	out := make([]ConceptStrength, 0, len(links))
	for c, strength := range links {
		out = append(out, ConceptStrength{Concept: c, Strength: strength})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Strength != out[j].Strength {
			return out[i].Strength > out[j].Strength
		}
		return out[i].Concept < out[j].Concept
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// DecayAll weakens every fact and deletes those that faded out, cleaning
// their category and relation entries
func (s *SemanticStore) DecayAll(now, rate float64) {
	var doomed []string
	for concept, fact := range s.facts {
		fact.Decay(now, rate)
		if fact.Strength < 0.01 {
			doomed = append(doomed, concept)
		}
	}

	for _, concept := range doomed {
		delete(s.facts, concept)
		for category, concepts := range s.categories {
			s.categories[category] = removeString(concepts, concept)
		}
		delete(s.relations, concept)
		for _, links := range s.relations {
			delete(links, concept)
		}
	}
}

func removeString(list []string, v string) []string {
	out := list[:0]
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}

// Len returns the number of known concepts
func (s *SemanticStore) Len() int {
	return len(s.facts)
}

// Get returns the fact for an exact concept key without access bookkeeping
func (s *SemanticStore) Get(concept string) (*Fact, bool) {
	f, ok := s.facts[concept]
	return f, ok
}

// Concepts returns every known concept key in sorted order
func (s *SemanticStore) Concepts() []string {
	out := make([]string, 0, len(s.facts))
	for concept := range s.facts {
		out = append(out, concept)
	}
	sort.Strings(out)
	return out
}

// Forget drops a concept outright, cleaning its category and relation
// entries the same way decay removal does
func (s *SemanticStore) Forget(concept string) {
	if _, ok := s.facts[concept]; !ok {
		return
	}
	delete(s.facts, concept)
	for category, concepts := range s.categories {
		s.categories[category] = removeString(concepts, concept)
	}
	delete(s.relations, concept)
	for _, links := range s.relations {
		delete(links, concept)
	}
}
