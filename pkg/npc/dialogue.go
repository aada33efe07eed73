package npc

import (
	"fmt"
	"strings"

	"github.com/osada/npcmind/pkg/types"
)

// DialogueBank maps dialogue categories to candidate lines. Lines may carry
// {player_name}, {time}, and {location} placeholders.
type DialogueBank map[string][]string

// defaultDialogues are the fallback lines every NPC can always say
func defaultDialogues() []string {
	return []string{
		"Czego chcesz, {player_name}?",
		"Nie mam teraz czasu na rozmowę.",
		"Co?",
		"Hmm?",
		"Tak, {player_name}?",
	}
}

// DialogueContext describes who is addressing the NPC
type DialogueContext struct {
	PlayerID   string
	PlayerName string
}

// dialogueDaypart buckets the hour for dialogue category suffixes
func dialogueDaypart(hour int) string {
	switch {
	case hour >= 22 || hour < 6:
		return "night"
	case hour < 12:
		return "morning"
	case hour < 18:
		return "afternoon"
	default:
		return "evening"
	}
}

// DialogueFor picks a line appropriate to the relationship, mood, hour, and
// current activity. Sleeping NPCs say nothing. Categories resolve from most
// to least specific, ending at "default"; recently used lines sit out a
// cooldown unless nothing else is left.
func (n *NPC) DialogueFor(dc DialogueContext, now float64) (string, bool) {
	if n.State == StateSleeping {
		return "", false
	}

	tier := "default"
	if dc.PlayerID != "" {
		rel := n.RelationshipWith(dc.PlayerID)
		disposition := rel.Disposition()
		switch {
		case disposition > 50:
			tier = "friendly"
		case disposition < -50:
			tier = "hostile"
		case rel.Fear > 70:
			tier = "fearful"
		case rel.Familiarity < 10:
			tier = "first_meeting"
		}
	}

	categories := []string{tier}
	grow := func(suffix string) {
		categories = append(categories, categories[len(categories)-1]+"_"+suffix)
	}

	switch n.Emotions.Dominant() {
	case EmotionAngry:
		grow("angry")
	case EmotionFear:
		grow("fearful")
	case EmotionHappy:
		grow("happy")
	case EmotionSad:
		grow("sad")
	}

	hour := types.HourOf(now)
	grow(dialogueDaypart(hour))

	switch n.State {
	case StateWorking:
		grow("busy")
	case StateEating:
		grow("eating")
	}

	entries, resolved := n.resolveDialogue(categories)

	var available []int
	for i := range entries {
		key := fmt.Sprintf("%s_%d", resolved, i)
		last, used := n.dialogueCooldowns[key]
		if !used || now-last > n.dialogueCooldown {
			available = append(available, i)
		}
	}

	var idx int
	if len(available) == 0 {
		idx = n.rng.Intn(len(entries))
	} else {
		idx = available[n.rng.Intn(len(available))]
	}
	n.dialogueCooldowns[fmt.Sprintf("%s_%d", resolved, idx)] = now

	return n.substitute(entries[idx], dc, now, hour), true
}

// resolveDialogue walks the category chain from most specific to "default"
func (n *NPC) resolveDialogue(categories []string) ([]string, string) {
	for i := len(categories) - 1; i >= 0; i-- {
		if lines := n.Dialogue[categories[i]]; len(lines) > 0 {
			return lines, categories[i]
		}
	}
	if lines := n.Dialogue["default"]; len(lines) > 0 {
		return lines, "default"
	}
	return []string{"...", fmt.Sprintf("*%s milczy*", n.Name)}, "default"
}

func (n *NPC) substitute(line string, dc DialogueContext, now float64, hour int) string {
	name := dc.PlayerName
	if name == "" {
		name = "nieznajomy"
	}
	minute := int(now/60) % 60
	line = strings.ReplaceAll(line, "{player_name}", name)
	line = strings.ReplaceAll(line, "{time}", fmt.Sprintf("%02d:%02d", hour, minute))
	line = strings.ReplaceAll(line, "{location}", n.Location)
	return line
}
