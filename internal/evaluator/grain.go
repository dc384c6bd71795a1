package evaluator

import (
	"fmt"
	"strings"

	"github.com/jfarrand/dimsim/internal/events"
	"github.com/jfarrand/dimsim/internal/schema"
	"github.com/jfarrand/dimsim/internal/shop"
)

// grainCorrectnessAxis checks that each fact's declared grain matches the
// stream it loads, and that multi-valued relationships are bridged instead
// of fanned out.
type grainCorrectnessAxis struct{}

func (grainCorrectnessAxis) name() string { return axisGrainCorrectness }

// mixedGrainIndicators are words in a grain description that admit two
// grains at once. "One row per receipt, or per line item depending on the
// register" is not a grain.
var mixedGrainIndicators = []string{"or", "sometimes", "depending", "either", "mixed", "varies"}

func (grainCorrectnessAxis) evaluate(ctx *Context, sub *schema.Submission) AxisScore {
	score := AxisScore{Axis: axisGrainCorrectness, MaxScore: 100}
	points := 100

	saleFacts := factsMatching(sub, events.KindSale)

	// Ambiguous grain declarations are worse than wrong ones: nothing can
	// be loaded consistently against them.
	for i := range sub.FactTables {
		f := &sub.FactTables[i]
		if word := firstIndicatorWord(f.GrainDescription); word != "" {
			d := Deduction{
				Points:           25,
				Reason:           fmt.Sprintf("fact %q declares an ambiguous grain (%q in the grain description)", f.Name, word),
				Severity:         SeverityCritical,
				AffectedElements: []string{f.Name},
				Type:             ViolationGrain,
				ConcreteExample:  fmt.Sprintf("grain description: %q", f.GrainDescription),
				Consequence:      "rows at two grains in one table double count whichever is coarser",
				FixHint:          "pick one grain per fact table; split mixed streams into separate facts",
			}
			points -= d.Points
			score.Deductions = append(score.Deductions, d)
		}
	}

	// Line-level source data needs a line-level sales fact.
	if ctx.Config.Transactions.Grain != shop.GrainReceiptLevel && len(saleFacts) > 0 {
		if !anyLineGrain(saleFacts) {
			example := "the log records individual line items per transaction"
			if txn := ctx.MultiLineTransaction(); txn != "" {
				example = fmt.Sprintf("transaction %s has multiple sale lines that would collapse into one row", txn)
			}
			d := Deduction{
				Points:           25,
				Reason:           "sales arrive at line item grain but no sales fact declares a line-level grain",
				Severity:         SeverityCritical,
				AffectedElements: tableNames(saleFacts),
				Type:             ViolationGrain,
				ConcreteExample:  example,
				Consequence:      "per-product quantities and discounts are lost when lines are rolled up at load",
				FixHint:          "declare the sales fact at one row per transaction line, with a line number grain column",
			}
			points -= d.Points
			score.Deductions = append(score.Deductions, d)
		}
	}

	// Split tender fans out a sales fact joined directly to payments.
	if ctx.Config.Transactions.MultiplePayments {
		if !paymentsSeparated(sub) {
			example := "transactions can carry several payments"
			if txn := ctx.SplitPaymentTransaction(); txn != "" {
				example = fmt.Sprintf("transaction %s was settled with multiple payments", txn)
			}
			d := Deduction{
				Points:          20,
				Reason:          "multiple payments per transaction with no payment fact or bridge",
				Severity:        SeverityMajor,
				Type:            ViolationFanOut,
				ConcreteExample: example,
				Consequence:     "joining payments onto the sales grain duplicates sale rows and inflates revenue",
				FixHint:         "model payments as their own fact at one row per payment",
			}
			points -= d.Points
			score.Deductions = append(score.Deductions, d)
		}
	}

	// Declared many-to-many relationships need a bridge.
	for _, r := range sub.Relationships {
		if r.Cardinality != "many-to-many" {
			continue
		}
		if hasBridgeFor(sub, r.FactTable, r.DimensionTable) {
			continue
		}
		d := Deduction{
			Points:           20,
			Reason:           fmt.Sprintf("many-to-many between %s and %s without a bridge table", r.FactTable, r.DimensionTable),
			Severity:         SeverityMajor,
			AffectedElements: []string{r.FactTable, r.DimensionTable},
			Type:             ViolationFanOut,
			Consequence:      "direct many-to-many joins multiply fact rows and break additive measures",
			FixHint:          "insert a bridge table with a group key between the fact and the dimension",
		}
		points -= d.Points
		score.Deductions = append(score.Deductions, d)
	}

	// Stackable line promotions cannot hang off a single promotion key.
	if ctx.Config.Promotions.PerLineItem == shop.PromotionsMany || ctx.Config.Promotions.Stackable {
		if singleKeyPromotions(sub) {
			d := Deduction{
				Points:      15,
				Reason:      "promotions stack per line but the model allows only one promotion per fact row",
				Severity:    SeverityModerate,
				Type:        ViolationFanOut,
				Consequence: "only one of the stacked promotions is attributable; discount totals by promotion will be wrong",
				FixHint:     "use a promotion bridge or a promotion-application fact",
			}
			points -= d.Points
			score.Deductions = append(score.Deductions, d)
		}
	}

	score.Score = clampScore(points, score.MaxScore)
	return score
}

// firstIndicatorWord returns the first ambiguity word appearing as a whole
// word in the description, or "".
func firstIndicatorWord(desc string) string {
	words := strings.FieldsFunc(strings.ToLower(desc), func(r rune) bool {
		return !('a' <= r && r <= 'z')
	})
	for _, w := range words {
		for _, ind := range mixedGrainIndicators {
			if w == ind {
				return ind
			}
		}
	}
	return ""
}

// anyLineGrain reports whether any of the facts is declared at line level,
// judged by its grain description or a line-ish grain column.
func anyLineGrain(facts []*schema.FactTable) bool {
	for _, f := range facts {
		if strings.Contains(strings.ToLower(f.GrainDescription), "line") {
			return true
		}
		for _, gc := range f.GrainColumns {
			if nameMatchesAny(gc.Name, []string{"line"}) {
				return true
			}
		}
	}
	return false
}

// paymentsSeparated reports whether payments live in their own fact, a
// bridge, or a payment-named grain column somewhere.
func paymentsSeparated(sub *schema.Submission) bool {
	if len(factsMatching(sub, events.KindPayment)) > 0 {
		return true
	}
	for _, b := range sub.BridgeTables {
		if nameMatchesAny(b.Name, []string{"payment", "tender"}) || nameMatchesAny(b.DimensionTable, []string{"payment", "tender"}) {
			return true
		}
	}
	return false
}

func hasBridgeFor(sub *schema.Submission, fact, dim string) bool {
	for _, b := range sub.BridgeTables {
		if b.FactTable == fact && b.DimensionTable == dim {
			return true
		}
	}
	return false
}

// singleKeyPromotions reports whether promotions are modeled only as a
// single many-to-one key on some fact, with no bridge and no dedicated fact.
func singleKeyPromotions(sub *schema.Submission) bool {
	if len(factsMatching(sub, events.KindPromotionApplied)) > 0 {
		return false
	}
	promoDim := false
	for _, r := range sub.Relationships {
		if nameMatchesAny(r.DimensionTable, []string{"promo", "discount"}) {
			promoDim = true
			if r.Cardinality == "many-to-many" {
				return false
			}
			if hasBridgeFor(sub, r.FactTable, r.DimensionTable) {
				return false
			}
		}
	}
	for _, b := range sub.BridgeTables {
		if nameMatchesAny(b.DimensionTable, []string{"promo", "discount"}) {
			return false
		}
	}
	return promoDim
}
