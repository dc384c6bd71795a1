// Package briefing frames a scenario before play: the difficulty tier, its
// tagline, and the traps the drawn config actually enables. Unlike the
// description, this layer names the traps outright; it is the answer key a
// player asks for explicitly.
package briefing

import (
	"fmt"
	"strings"

	"github.com/jfarrand/dimsim/internal/shop"
)

// Briefing is the pre-session framing for one scenario.
type Briefing struct {
	Difficulty  shop.Difficulty `json:"difficulty"`
	Description string          `json:"description"`
	Tagline     string          `json:"tagline"`
	Traps       []shop.Trap     `json:"enabled_traps"`
}

var difficultyDescriptions = map[shop.Difficulty]string{
	shop.DifficultyEasy:        "A forgiving shop with predictable behavior. Good for learning the basics.",
	shop.DifficultyMedium:      "A typical retail shop with some complexity. Expect a few traps.",
	shop.DifficultyHard:        "A challenging shop with many edge cases. Your model will be tested.",
	shop.DifficultyAdversarial: "A hostile shop designed to break naive models. Every trap is enabled.",
}

var difficultyTaglines = map[shop.Difficulty]string{
	shop.DifficultyEasy:        "This shop plays fair... mostly.",
	shop.DifficultyMedium:      "This shop has a few tricks up its sleeve.",
	shop.DifficultyHard:        "This shop wants to see your model sweat.",
	shop.DifficultyAdversarial: "This shop hates clean data models.",
}

// New builds the briefing for a config.
func New(cfg *shop.Config) *Briefing {
	desc, ok := difficultyDescriptions[cfg.Difficulty]
	if !ok {
		desc = "A challenging scenario."
	}
	tagline, ok := difficultyTaglines[cfg.Difficulty]
	if !ok {
		tagline = "Good luck."
	}
	return &Briefing{
		Difficulty:  cfg.Difficulty,
		Description: desc,
		Tagline:     tagline,
		Traps:       shop.EnabledTraps(cfg),
	}
}

// TrapsByCategory groups enabled traps in display order. Catalog order is
// preserved within each category.
func (b *Briefing) TrapsByCategory() [][]shop.Trap {
	order := []shop.TrapCategory{
		shop.TrapGrain, shop.TrapTemporal, shop.TrapIdentity,
		shop.TrapSemantic, shop.TrapRelationship,
	}
	var out [][]shop.Trap
	for _, cat := range order {
		var group []shop.Trap
		for _, t := range b.Traps {
			if t.Category == cat {
				group = append(group, t)
			}
		}
		if len(group) > 0 {
			out = append(out, group)
		}
	}
	return out
}

// ThreatSummary lists the leading threat descriptions, at most five.
func (b *Briefing) ThreatSummary() []string {
	n := min(len(b.Traps), 5)
	out := make([]string, 0, n)
	for _, t := range b.Traps[:n] {
		out = append(out, t.Threat)
	}
	return out
}

// Render produces the text briefing.
func (b *Briefing) Render(shopName string, seed int64, numEvents int) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "=== %s SCENARIO ===\n", strings.ToUpper(string(b.Difficulty)))
	fmt.Fprintf(&sb, "Seed: %d  |  Shop: %s  |  Events: %d\n\n", seed, shopName, numEvents)
	fmt.Fprintf(&sb, "%s\n%s\n", b.Description, b.Tagline)

	if groups := b.TrapsByCategory(); len(groups) > 0 {
		sb.WriteString("\nTraps enabled:\n")
		for _, group := range groups {
			fmt.Fprintf(&sb, "  %s\n", strings.ToUpper(string(group[0].Category)))
			for _, t := range group {
				fmt.Fprintf(&sb, "    - %s (%s)\n", t.Name, t.ConfigSource)
			}
		}
	}

	if threats := b.ThreatSummary(); len(threats) > 0 {
		fmt.Fprintf(&sb, "\n%s will try to break your model by:\n", shopName)
		for _, th := range threats {
			fmt.Fprintf(&sb, "  - %s\n", th)
		}
	}

	return sb.String()
}
