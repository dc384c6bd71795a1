// Package explain turns evaluator violations into concrete failing-query
// scenarios. Each scenario picks real events from the log, replays them
// directly to get the true answer, and derives the answer the submitted
// schema would produce; the mismatch is the demonstration.
package explain

import (
	"fmt"
	"strings"

	"github.com/jfarrand/dimsim/internal/evaluator"
)

// Scenario is one worked example of the schema answering a business
// question wrongly.
type Scenario struct {
	Name             string                  `json:"scenario_name"`
	Category         evaluator.ViolationType `json:"category"`
	BusinessQuestion string                  `json:"business_question"`
	Setup            string                  `json:"setup_description"`
	ExpectedAnswer   string                  `json:"expected_answer"`
	SchemaAnswer     string                  `json:"actual_with_schema"`
	WhyWrong         string                  `json:"why_wrong"`
	RootCause        string                  `json:"root_cause"`
	EventsInvolved   []string                `json:"events_involved,omitempty"`
	Severity         evaluator.Severity      `json:"severity"`
}

// Result is a complete explanation run.
type Result struct {
	IssuesFound int        `json:"schema_issues_found"`
	Scenarios   []Scenario `json:"query_scenarios"`
	Summary     string     `json:"summary"`
}

// HasIssues reports whether any failure scenario was found.
func (r *Result) HasIssues() bool { return r.IssuesFound > 0 }

// Render writes the result as readable text.
func (r *Result) Render() string {
	var b strings.Builder
	rule := strings.Repeat("=", 60)
	fmt.Fprintf(&b, "%s\nSCHEMA DIAGNOSIS\n%s\n\n%s\n", rule, rule, r.Summary)
	for i, s := range r.Scenarios {
		fmt.Fprintf(&b, "\n--- Scenario %d: %s [%s/%s] ---\n", i+1, s.Name, s.Category, s.Severity)
		fmt.Fprintf(&b, "Question: %s\n", s.BusinessQuestion)
		fmt.Fprintf(&b, "Setup:\n%s\n", indent(s.Setup))
		fmt.Fprintf(&b, "Expected answer: %s\n", s.ExpectedAnswer)
		fmt.Fprintf(&b, "Your schema's answer: %s\n", s.SchemaAnswer)
		fmt.Fprintf(&b, "Why it is wrong: %s\n", s.WhyWrong)
		fmt.Fprintf(&b, "Root cause: %s\n", s.RootCause)
		if len(s.EventsInvolved) > 0 {
			fmt.Fprintf(&b, "Events: %s\n", strings.Join(s.EventsInvolved, ", "))
		}
	}
	fmt.Fprintf(&b, "\n%s\n", rule)
	return b.String()
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}

// dollars renders cents as a currency string.
func dollars(cents int) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
