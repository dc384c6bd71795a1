package evaluator

import (
	"strings"

	"github.com/jfarrand/dimsim/internal/events"
	"github.com/jfarrand/dimsim/internal/schema"
)

const (
	axisEventPreservation   = "event_preservation"
	axisGrainCorrectness    = "grain_correctness"
	axisTemporalCorrectness = "temporal_correctness"
	axisSemanticFaith       = "semantic_faithfulness"
	axisStructuralOpt       = "structural_optimality"
	axisQueryability        = "queryability"
)

// axis scores one concern of the submission against the evaluation context.
type axis interface {
	name() string
	evaluate(ctx *Context, sub *schema.Submission) AxisScore
}

// allAxes returns the axes in report order.
func allAxes() []axis {
	return []axis{
		eventPreservationAxis{},
		grainCorrectnessAxis{},
		temporalCorrectnessAxis{},
		semanticFaithfulnessAxis{},
		structuralOptimalityAxis{},
		queryabilityAxis{},
	}
}

// kindNamePatterns maps each event kind to substrings that mark a table or
// column as modeling it. Matching is intentionally loose; players name
// tables freely.
var kindNamePatterns = map[events.EventKind][]string{
	events.KindSale:              {"sale", "order", "transaction", "revenue", "line_item", "lineitem"},
	events.KindPayment:           {"payment", "tender", "settlement"},
	events.KindPromotionApplied:  {"promo", "discount", "deal", "offer"},
	events.KindReturn:            {"return", "refund"},
	events.KindVoid:              {"void", "cancel"},
	events.KindCorrection:        {"correction", "adjustment", "audit", "amendment"},
	events.KindPriceAdjustment:   {"price"},
	events.KindProductChange:     {"product"},
	events.KindInventoryMovement: {"inventory", "stock", "snapshot"},
	events.KindStoreChange:       {"store", "location"},
}

func nameMatchesAny(name string, patterns []string) bool {
	lower := strings.ToLower(name)
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// factsMatching returns fact tables whose name suggests they model a kind.
func factsMatching(sub *schema.Submission, kind events.EventKind) []*schema.FactTable {
	var out []*schema.FactTable
	for i := range sub.FactTables {
		if nameMatchesAny(sub.FactTables[i].Name, kindNamePatterns[kind]) {
			out = append(out, &sub.FactTables[i])
		}
	}
	return out
}

// dimsMatching returns dimensions whose name suggests they model a concept.
func dimsMatching(sub *schema.Submission, concept string) []*schema.DimensionTable {
	var out []*schema.DimensionTable
	for i := range sub.DimensionTables {
		if strings.Contains(strings.ToLower(sub.DimensionTables[i].Name), concept) {
			out = append(out, &sub.DimensionTables[i])
		}
	}
	return out
}

// factMentions reports whether any grain column, measure, or dimension key
// of the fact contains one of the substrings.
func factMentions(f *schema.FactTable, patterns []string) bool {
	for _, gc := range f.GrainColumns {
		if nameMatchesAny(gc.Name, patterns) {
			return true
		}
	}
	for _, m := range f.Measures {
		if nameMatchesAny(m.Name, patterns) {
			return true
		}
	}
	for _, k := range f.DimensionKeys {
		if nameMatchesAny(k, patterns) {
			return true
		}
	}
	return false
}

// clampScore keeps an axis score within [0, max].
func clampScore(score, max int) int {
	if score < 0 {
		return 0
	}
	if score > max {
		return max
	}
	return score
}

// tableNames lists fact table names for affected-element reporting.
func tableNames(facts []*schema.FactTable) []string {
	out := make([]string, len(facts))
	for i, f := range facts {
		out[i] = f.Name
	}
	return out
}
