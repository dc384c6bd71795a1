package evaluator

import (
	"fmt"
	"strings"

	"github.com/jfarrand/dimsim/internal/schema"
)

// queryabilityAxis is additive: it starts at zero and rewards structures
// that make the model pleasant to query. Missed rewards are listed as
// zero-severity hints rather than violations.
type queryabilityAxis struct{}

func (queryabilityAxis) name() string { return axisQueryability }

type bonus struct {
	points int
	label  string
	earned func(*Context, *schema.Submission) bool
	hint   string
}

var queryabilityBonuses = []bonus{
	{20, "date dimension", hasDateDimension, "add a date dimension instead of raw date columns"},
	{20, "additive measures", hasAdditiveMeasures, "prefer sum-aggregated measures; ratios and averages do not roll up"},
	{15, "conformed dimensions", hasConformedDimensions, "share dimensions across facts so results can be compared"},
	{15, "degenerate transaction identifier", hasDegenerateTxn, "keep the transaction number on the fact as a degenerate dimension"},
	{10, "role-playing date keys", hasRolePlayingDates, "reuse the date dimension under role names for each date on the fact"},
	{10, "bridge tables", hasBridge, "use bridges for genuinely multi-valued relationships"},
	{10, "surrogate keys on all dimensions", allSurrogateKeys, "give each dimension its own surrogate key"},
}

func (queryabilityAxis) evaluate(ctx *Context, sub *schema.Submission) AxisScore {
	score := AxisScore{Axis: axisQueryability, MaxScore: 100}
	var earned []string
	for _, b := range queryabilityBonuses {
		if b.earned(ctx, sub) {
			score.Score += b.points
			earned = append(earned, b.label)
			continue
		}
		score.Deductions = append(score.Deductions, Deduction{
			Points:   b.points,
			Reason:   fmt.Sprintf("missed: %s", b.label),
			Severity: SeverityMinor,
			FixHint:  b.hint,
		})
	}
	score.Score = clampScore(score.Score, score.MaxScore)
	if len(earned) > 0 {
		score.Commentary = "earned: " + strings.Join(earned, ", ")
	}
	return score
}

func hasDateDimension(_ *Context, sub *schema.Submission) bool {
	return len(dimsMatching(sub, "date")) > 0 || len(dimsMatching(sub, "calendar")) > 0
}

func hasConformedDimensions(_ *Context, sub *schema.Submission) bool {
	if len(sub.FactTables) < 2 {
		return false
	}
	facts := make(map[string]map[string]bool)
	for _, r := range sub.Relationships {
		if facts[r.DimensionTable] == nil {
			facts[r.DimensionTable] = make(map[string]bool)
		}
		facts[r.DimensionTable][r.FactTable] = true
	}
	for _, fs := range facts {
		if len(fs) >= 2 {
			return true
		}
	}
	return false
}

func hasAdditiveMeasures(_ *Context, sub *schema.Submission) bool {
	for _, f := range sub.FactTables {
		for _, m := range f.Measures {
			if m.Aggregation == schema.AggSum {
				return true
			}
		}
	}
	return false
}

func hasDegenerateTxn(_ *Context, sub *schema.Submission) bool {
	for _, f := range sub.FactTables {
		for _, gc := range f.GrainColumns {
			if gc.Degenerate && nameMatchesAny(gc.Name, []string{"transaction", "receipt", "order"}) {
				return true
			}
		}
	}
	return false
}

func hasRolePlayingDates(_ *Context, sub *schema.Submission) bool {
	for _, r := range sub.Relationships {
		if r.RolePlaying && r.RoleName != "" && nameMatchesAny(r.DimensionTable, []string{"date", "calendar"}) {
			return true
		}
	}
	return false
}

func hasBridge(_ *Context, sub *schema.Submission) bool {
	return len(sub.BridgeTables) > 0
}

func allSurrogateKeys(_ *Context, sub *schema.Submission) bool {
	if len(sub.DimensionTables) == 0 {
		return false
	}
	for _, d := range sub.DimensionTables {
		if d.SurrogateKey == "" {
			return false
		}
	}
	return true
}
