package evaluator

import (
	"fmt"
	"sort"

	"github.com/jfarrand/dimsim/internal/events"
	"github.com/jfarrand/dimsim/internal/schema"
	"github.com/jfarrand/dimsim/internal/shop"
)

// Evaluate scores a submission against a shop's rules and its event log.
// It is a pure function of its inputs: the same config, log, and submission
// always produce the same report.
func Evaluate(cfg *shop.Config, log *events.Log, sub *schema.Submission) (*Report, error) {
	if err := sub.Validate(); err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	ctx := NewContext(cfg, log)

	report := &Report{WeightsVersion: WeightsVersion}
	var weighted float64
	for _, a := range allAxes() {
		s := a.evaluate(ctx, sub)
		report.AxisScores = append(report.AxisScores, s)
		report.TotalScore += s.Score
		report.MaxScore += s.MaxScore
		weighted += s.Percentage() * axisWeights[a.name()]
	}
	report.WeightedScore = weighted

	report.Violations = collectViolations(report.AxisScores)
	report.FixPriority = fixPriority(report.Violations)
	report.Critique = critique(report)
	report.Recommendations = recommendations(ctx, report)
	return report, nil
}

// critique summarizes the overall standing in one or two sentences.
func critique(r *Report) string {
	pct := r.WeightedScore
	criticals := 0
	for _, v := range r.Violations {
		if v.Severity == SeverityCritical {
			criticals++
		}
	}
	switch {
	case pct >= 80:
		if criticals == 0 {
			return "A solid model. The remaining findings are refinements, not structural problems."
		}
		return "Strong overall, but the critical finding below undermines an otherwise sound design."
	case pct >= 60:
		return "The core structure works, but several findings would surface as wrong numbers in production reports."
	case pct >= 40:
		return "Significant gaps. The model answers some questions about this shop but misrepresents or drops others."
	default:
		return "The model does not yet fit this shop. Start from the event streams and work outward: one fact per stream, one declared grain per fact."
	}
}

// recommendations picks the highest-value fixes: the worst axes contribute
// their biggest deduction's hint, then shop rules that commonly trip models
// add standing advice.
func recommendations(ctx *Context, r *Report) []string {
	type ranked struct {
		pct  float64
		axis AxisScore
	}
	var axes []ranked
	for _, a := range r.AxisScores {
		if a.Axis == axisQueryability || len(a.Deductions) == 0 {
			continue
		}
		axes = append(axes, ranked{a.Percentage(), a})
	}
	sort.SliceStable(axes, func(i, j int) bool { return axes[i].pct < axes[j].pct })

	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		if s != "" && !seen[s] && len(out) < 5 {
			seen[s] = true
			out = append(out, s)
		}
	}

	for _, ra := range axes {
		worst := ra.axis.Deductions[0]
		for _, d := range ra.axis.Deductions[1:] {
			if d.Points > worst.Points {
				worst = d
			}
		}
		add(worst.FixHint)
	}

	if ctx.Config.Transactions.Grain == shop.GrainMixed {
		add("this shop records at mixed grain; normalize to line items during load and declare the fact at line grain")
	}
	if ctx.Config.Time.TimestampRelation == shop.TimestampDivergent {
		add("always load by business date, never by recording timestamp, for this shop")
	}
	if len(ctx.SCDDimensions) > 0 {
		add("re-check each dimension's SCD strategy against which attributes actually change in the log")
	}
	return out
}
