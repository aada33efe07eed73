package npc

// Emotion is one of the seven tracked emotional dimensions
type Emotion string

const (
	EmotionHappy    Emotion = "happy"
	EmotionAngry    Emotion = "angry"
	EmotionFear     Emotion = "fear"
	EmotionSad      Emotion = "sad"
	EmotionSurprise Emotion = "surprise"
	EmotionDisgust  Emotion = "disgust"
	EmotionNeutral  Emotion = "neutral"
)

// AllEmotions lists every emotion in canonical order. Iteration over an
// EmotionVector always follows this order so results are deterministic.
var AllEmotions = []Emotion{
	EmotionHappy,
	EmotionAngry,
	EmotionFear,
	EmotionSad,
	EmotionSurprise,
	EmotionDisgust,
	EmotionNeutral,
}

// ParseEmotion maps a string to a known emotion
func ParseEmotion(s string) (Emotion, bool) {
	for _, e := range AllEmotions {
		if string(e) == s {
			return e, true
		}
	}
	return "", false
}

// emotionDecayRate is the per-second fade applied to non-neutral emotions
const emotionDecayRate = 0.01

// EmotionVector is a normalized distribution over the seven emotions. The
// values always sum to 1 after Modify or Decay.
type EmotionVector map[Emotion]float64

// NewEmotionVector creates a fully neutral vector
func NewEmotionVector() EmotionVector {
	v := make(EmotionVector, len(AllEmotions))
	for _, e := range AllEmotions {
		v[e] = 0
	}
	v[EmotionNeutral] = 1.0
	return v
}

// Modify shifts one emotion by intensity (negative values calm it), eats
// into neutrality at half that rate, and renormalizes. Unknown emotions are
// ignored.
func (v EmotionVector) Modify(emotion Emotion, intensity float64) {
	if _, ok := ParseEmotion(string(emotion)); !ok {
		return
	}
	v[emotion] = minFloat(1.0, maxFloat(0, v[emotion]+intensity))
	v[EmotionNeutral] = maxFloat(0, v[EmotionNeutral]-intensity*0.5)
	v.Normalize()
}

// Decay fades every non-neutral emotion toward zero over dt sim-seconds and
// renormalizes. A vector with nothing left collapses back to neutral.
func (v EmotionVector) Decay(dt float64) {
	rate := emotionDecayRate * dt
	for _, e := range AllEmotions {
		if e == EmotionNeutral {
			continue
		}
		v[e] = maxFloat(0, v[e]-rate)
	}
	if v.Sum() > 0 {
		v.Normalize()
	} else {
		v[EmotionNeutral] = 1.0
	}
}

// Normalize rescales the vector to sum to 1 when anything is non-zero
func (v EmotionVector) Normalize() {
	total := v.Sum()
	if total <= 0 {
		return
	}
	for _, e := range AllEmotions {
		v[e] /= total
	}
}

// Sum returns the total mass across all emotions
func (v EmotionVector) Sum() float64 {
	total := 0.0
	for _, e := range AllEmotions {
		total += v[e]
	}
	return total
}

// Dominant returns the strongest emotion, earliest in canonical order on ties
func (v EmotionVector) Dominant() Emotion {
	best := AllEmotions[0]
	for _, e := range AllEmotions[1:] {
		if v[e] > v[best] {
			best = e
		}
	}
	return best
}

// Clone returns an independent copy of the vector
func (v EmotionVector) Clone() EmotionVector {
	out := make(EmotionVector, len(v))
	for e, val := range v {
		out[e] = val
	}
	return out
}

// AsMap converts the vector to plain string keys for snapshots and mood
// tracking
func (v EmotionVector) AsMap() map[string]float64 {
	out := make(map[string]float64, len(v))
	for _, e := range AllEmotions {
		out[string(e)] = v[e]
	}
	return out
}

// FromMap rebuilds a vector from string keys, dropping unknown emotions. An
// empty or all-zero input yields a neutral vector.
func FromMap(m map[string]float64) EmotionVector {
	v := NewEmotionVector()
	v[EmotionNeutral] = 0
	for name, val := range m {
		if e, ok := ParseEmotion(name); ok && val > 0 {
			v[e] = val
		}
	}
	if v.Sum() <= 0 {
		v[EmotionNeutral] = 1.0
	}
	return v
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
