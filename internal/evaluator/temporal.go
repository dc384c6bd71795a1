package evaluator

import (
	"fmt"

	"github.com/jfarrand/dimsim/internal/events"
	"github.com/jfarrand/dimsim/internal/schema"
	"github.com/jfarrand/dimsim/internal/shop"
)

// temporalCorrectnessAxis checks that the schema tells the truth about time:
// history is kept where the shop rewrites it, and recording time is kept
// apart from business time where the two diverge.
type temporalCorrectnessAxis struct{}

func (temporalCorrectnessAxis) name() string { return axisTemporalCorrectness }

// scdConcepts fixes the check order for dimensions that may require history.
var scdConcepts = []string{"product", "store", "customer"}

func (temporalCorrectnessAxis) evaluate(ctx *Context, sub *schema.Submission) AxisScore {
	score := AxisScore{Axis: axisTemporalCorrectness, MaxScore: 100}
	points := 100

	for _, concept := range scdConcepts {
		reason, required := ctx.SCDDimensions[concept]
		if !required {
			continue
		}
		dims := dimsMatching(sub, concept)
		if len(dims) == 0 {
			d := Deduction{
				Points:      15,
				Reason:      fmt.Sprintf("no %s dimension, yet %s", concept, reason),
				Severity:    SeverityMajor,
				Type:        ViolationTemporal,
				Consequence: fmt.Sprintf("historical facts cannot be attributed to the %s state in effect at the time", concept),
				FixHint:     fmt.Sprintf("add a %s dimension with a type 2 SCD strategy", concept),
			}
			points -= d.Points
			score.Deductions = append(score.Deductions, d)
			continue
		}
		tracked := false
		var names []string
		for _, dim := range dims {
			names = append(names, dim.Name)
			if dim.SCDStrategy.TracksHistory() {
				tracked = true
			}
		}
		if !tracked {
			d := Deduction{
				Points:           20,
				Reason:           fmt.Sprintf("%s dimension overwrites history, but %s", concept, reason),
				Severity:         SeverityCritical,
				AffectedElements: names,
				Type:             ViolationTemporal,
				ConcreteExample:  conceptChangeExample(ctx, concept),
				Consequence:      "past facts are restated under current attributes; last year's numbers change retroactively",
				FixHint:          fmt.Sprintf("switch the %s dimension to SCD type 2 with effective-date versioning", concept),
			}
			points -= d.Points
			score.Deductions = append(score.Deductions, d)
		}
	}

	divergent := ctx.Config.Time.TimestampRelation == shop.TimestampDivergent ||
		ctx.Config.Time.LateArrivingEvents
	if divergent {
		if !dualDateModeled(sub) {
			d := Deduction{
				Points:          15,
				Reason:          "recording timestamps diverge from business dates but the model keeps a single date",
				Severity:        SeverityMajor,
				Type:            ViolationTemporal,
				ConcreteExample: divergenceExample(ctx),
				Consequence:     "end-of-day totals shift depending on which clock the load job reads",
				FixHint:         "carry both a business date key and a recorded-at timestamp, as separate columns or role-playing date keys",
			}
			points -= d.Points
			score.Deductions = append(score.Deductions, d)
		}
	}

	if ctx.Config.HasCorrections() {
		if !correctionsDated(sub) {
			d := Deduction{
				Points:          10,
				Reason:          "backdated corrections have nowhere to record when the change was made versus when it applies",
				Severity:        SeverityModerate,
				Type:            ViolationTemporal,
				ConcreteExample: correctionExample(ctx),
				Consequence:     "a report rerun after a correction silently disagrees with its earlier run",
				FixHint:         "store both the effective date and the posted date on corrected rows",
			}
			points -= d.Points
			score.Deductions = append(score.Deductions, d)
		}
	}

	// A fact with no date handle at all cannot be trended.
	for i := range sub.FactTables {
		f := &sub.FactTables[i]
		if !factMentions(f, []string{"date", "time", "day"}) {
			d := Deduction{
				Points:           10,
				Reason:           fmt.Sprintf("fact %q has no date or time column", f.Name),
				Severity:         SeverityMajor,
				AffectedElements: []string{f.Name},
				Type:             ViolationTemporal,
				Consequence:      "rows cannot be placed in time; no trend or period query works",
				FixHint:          "add a date key referencing a date dimension",
			}
			points -= d.Points
			score.Deductions = append(score.Deductions, d)
		}
	}

	score.Score = clampScore(points, score.MaxScore)
	return score
}

// dualDateModeled reports whether some fact distinguishes business date from
// recorded time, via two date-ish columns or a role-playing date join.
func dualDateModeled(sub *schema.Submission) bool {
	for i := range sub.FactTables {
		f := &sub.FactTables[i]
		business := factMentions(f, []string{"business_date", "business_day", "trade_date", "effective"})
		recorded := factMentions(f, []string{"timestamp", "recorded", "posted", "created", "event_time"})
		if business && recorded {
			return true
		}
	}
	roles := 0
	for _, r := range sub.Relationships {
		if r.RolePlaying && nameMatchesAny(r.DimensionTable, []string{"date", "time"}) {
			roles++
		}
	}
	return roles >= 2
}

// correctionsDated reports whether corrected rows can carry both dates.
func correctionsDated(sub *schema.Submission) bool {
	for i := range sub.FactTables {
		f := &sub.FactTables[i]
		if factMentions(f, []string{"effective", "posted", "recorded", "version", "correct"}) {
			return true
		}
	}
	return false
}

func conceptChangeExample(ctx *Context, concept string) string {
	var kind events.EventKind
	switch concept {
	case "product":
		kind = events.KindProductChange
	case "store":
		kind = events.KindStoreChange
	default:
		return "customers move between households during the simulated period"
	}
	if ev := ctx.Exemplar(kind); ev != nil {
		m := ev.Meta()
		return fmt.Sprintf("event %s changed a %s on %s; rows before that date need the old attributes", m.EventID, concept, m.BusinessDate)
	}
	return fmt.Sprintf("%s attributes change during the simulated period", concept)
}

func divergenceExample(ctx *Context) string {
	for _, ev := range ctx.Log.Events {
		m := ev.Meta()
		if events.DateOf(m.EventTimestamp) != m.BusinessDate {
			return fmt.Sprintf("event %s was recorded at %s but belongs to business date %s",
				m.EventID, m.EventTimestamp.Format("2006-01-02 15:04"), m.BusinessDate)
		}
	}
	return "events can post after midnight against the prior business day"
}

func correctionExample(ctx *Context) string {
	if ev, ok := ctx.Exemplar(events.KindCorrection).(*events.Correction); ok && ev != nil {
		return fmt.Sprintf("correction %s recorded on %s applies to business date %s",
			ev.EventID, events.DateOf(ev.EventTimestamp), ev.BusinessDate)
	}
	return "corrections are recorded days after the business date they amend"
}
