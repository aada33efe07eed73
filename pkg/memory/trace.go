package memory

// Trace carries the strength bookkeeping shared by long-lived memory entries.
// Strength only increases through Access and only decreases through Decay.
type Trace struct {
	Strength    float64 `json:"strength"`
	LastAccess  float64 `json:"last_access"`
	AccessCount int     `json:"access_count"`
	CreatedAt   float64 `json:"created_at"`
}

// NewTrace creates a trace with the given initial strength
func NewTrace(now, strength float64) Trace {
	return Trace{
		Strength:   clamp01(strength),
		LastAccess: now,
		CreatedAt:  now,
	}
}

// Access strengthens the trace and updates its access bookkeeping
func (t *Trace) Access(now float64) {
	t.LastAccess = now
	t.AccessCount++
	t.Strength = clamp01(t.Strength + 0.05)
}

// Decay weakens the trace based on time since last access.
// Frequently accessed traces decay more slowly.
func (t *Trace) Decay(now, rate float64) {
	since := now - t.LastAccess
	if since <= 0 {
		return
	}
	adjusted := rate / (1 + float64(t.AccessCount)*0.1)
	t.Strength *= 1 - adjusted*since
	if t.Strength < 0 {
		t.Strength = 0
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
