package progress

import (
	"fmt"
	"strings"
	"time"
)

const barWidth = 20

// Render produces the text history for a scenario: best score, attempt
// count, and the last five attempts with score bars and deltas.
func (sc *Scenario) Render(now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Progress: seed %d, %s\n", sc.Seed, sc.Difficulty)
	fmt.Fprintf(&b, "Best score: %d (%.1f%%)\n", sc.BestScore, sc.BestPercentage)
	fmt.Fprintf(&b, "Attempts: %d\n", sc.AttemptCount)

	recent := sc.Attempts
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	if len(recent) > 0 {
		b.WriteString("\nRecent history:\n")
	}
	for i, a := range recent {
		idx := sc.AttemptCount - len(recent) + i + 1

		var marker string
		if idx > 1 {
			prev := sc.Attempts[idx-2]
			switch {
			case a.Percentage > prev.Percentage:
				marker = fmt.Sprintf("  +%.0f%%", a.Percentage-prev.Percentage)
			case a.Percentage < prev.Percentage:
				marker = fmt.Sprintf("  %.0f%%", a.Percentage-prev.Percentage)
			}
		}
		if a.TotalScore == sc.BestScore {
			marker += "  BEST"
		}

		fmt.Fprintf(&b, "  #%d  %5.1f%%  %s%s\n", idx, a.Percentage, scoreBar(a.Percentage), marker)
	}

	if !sc.LastAttempt.IsZero() {
		fmt.Fprintf(&b, "\nLast attempt: %s\n", timeAgo(now.Sub(sc.LastAttempt)))
	}
	return b.String()
}

func scoreBar(pct float64) string {
	filled := int(pct / 100 * barWidth)
	if filled < 0 {
		filled = 0
	}
	if filled > barWidth {
		filled = barWidth
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

func timeAgo(d time.Duration) string {
	switch {
	case d >= 24*time.Hour:
		return fmt.Sprintf("%d days ago", int(d.Hours()/24))
	case d >= time.Hour:
		return fmt.Sprintf("%d hours ago", int(d.Hours()))
	case d >= time.Minute:
		return fmt.Sprintf("%d minutes ago", int(d.Minutes()))
	default:
		return "just now"
	}
}

// Message describes the outcome of a recorded attempt in one line, or ""
// for an unremarkable attempt.
func (o Outcome) Message() string {
	switch {
	case o.Duplicate:
		return "Identical schema already recorded; attempt not stored."
	case o.NewBest:
		return "New personal best!"
	case o.Improvement:
		return "Improvement from last attempt."
	case o.Regression:
		return "Regression from last attempt."
	}
	return ""
}
