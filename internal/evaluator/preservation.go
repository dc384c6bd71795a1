package evaluator

import (
	"fmt"

	"github.com/jfarrand/dimsim/internal/events"
	"github.com/jfarrand/dimsim/internal/schema"
)

// eventPreservationAxis checks that every event kind the shop produces has a
// home in the schema. A kind with no home means rows of the source stream
// are silently dropped at load time.
type eventPreservationAxis struct{}

func (eventPreservationAxis) name() string { return axisEventPreservation }

func (eventPreservationAxis) evaluate(ctx *Context, sub *schema.Submission) AxisScore {
	score := AxisScore{Axis: axisEventPreservation, MaxScore: 100}
	points := 100

	for _, kind := range ctx.RequiredKinds {
		if ctx.KindCount(kind) == 0 {
			continue
		}
		if kindHasHome(ctx, sub, kind) {
			continue
		}
		d := Deduction{
			Points:          20,
			Reason:          fmt.Sprintf("no table or column accounts for %s events (%d in the log)", kind, ctx.KindCount(kind)),
			Severity:        SeverityCritical,
			Type:            ViolationDataLoss,
			ConcreteExample: ctx.exampleFor(kind),
			Consequence:     fmt.Sprintf("every %s event is dropped at load time; totals derived from this schema will not reconcile with the source system", kind),
			FixHint:         fixHintForKind(kind),
		}
		points -= d.Points
		score.Deductions = append(score.Deductions, d)
	}

	// A sale home without an additive amount measure preserves rows but
	// loses the numbers analysts ask for first.
	if saleFacts := factsMatching(sub, events.KindSale); len(saleFacts) > 0 {
		hasAmount := false
		for _, f := range saleFacts {
			for _, m := range f.Measures {
				if m.Aggregation == schema.AggSum && nameMatchesAny(m.Name, []string{"amount", "price", "total", "revenue", "cents"}) {
					hasAmount = true
				}
			}
		}
		if !hasAmount {
			d := Deduction{
				Points:           10,
				Reason:           "sales fact has no summable monetary measure",
				Severity:         SeverityMajor,
				AffectedElements: tableNames(saleFacts),
				Type:             ViolationDataLoss,
				Consequence:      "daily and per-store revenue cannot be computed from the model",
				FixHint:          "add a sum-aggregated amount measure to the sales fact",
			}
			points -= d.Points
			score.Deductions = append(score.Deductions, d)
		}
	}

	score.Score = clampScore(points, score.MaxScore)
	return score
}

// kindHasHome decides whether a kind is representable in the submission.
// Facts matching the kind's patterns always count. Product and store changes
// may instead live in a history-tracking dimension; promotions may live as
// discount columns on a sale fact.
func kindHasHome(ctx *Context, sub *schema.Submission, kind events.EventKind) bool {
	if len(factsMatching(sub, kind)) > 0 {
		return true
	}
	switch kind {
	case events.KindProductChange:
		for _, d := range dimsMatching(sub, "product") {
			if d.SCDStrategy.TracksHistory() {
				return true
			}
		}
	case events.KindPriceAdjustment:
		for _, d := range dimsMatching(sub, "product") {
			if d.SCDStrategy.TracksHistory() {
				return true
			}
		}
		for i := range sub.FactTables {
			if factMentions(&sub.FactTables[i], []string{"price"}) {
				return true
			}
		}
	case events.KindStoreChange:
		for _, d := range dimsMatching(sub, "store") {
			if d.SCDStrategy.TracksHistory() {
				return true
			}
		}
	case events.KindPromotionApplied:
		if len(dimsMatching(sub, "promo")) > 0 {
			return true
		}
		for i := range sub.FactTables {
			if factMentions(&sub.FactTables[i], []string{"discount", "promo"}) {
				return true
			}
		}
	case events.KindPayment:
		if len(dimsMatching(sub, "payment")) > 0 {
			return true
		}
		for i := range sub.FactTables {
			if factMentions(&sub.FactTables[i], []string{"payment", "tender"}) {
				return true
			}
		}
	case events.KindVoid:
		for i := range sub.FactTables {
			if factMentions(&sub.FactTables[i], []string{"void", "status", "cancel"}) {
				return true
			}
		}
	case events.KindCorrection:
		for i := range sub.FactTables {
			if factMentions(&sub.FactTables[i], []string{"correct", "adjust", "version", "revision"}) {
				return true
			}
		}
	}
	return false
}

func fixHintForKind(kind events.EventKind) string {
	switch kind {
	case events.KindSale:
		return "add a sales fact table at the line item grain"
	case events.KindPayment:
		return "add a payment fact (or payment columns) so tender amounts survive"
	case events.KindPromotionApplied:
		return "add a promotion dimension and discount measures, or a promotion bridge"
	case events.KindReturn:
		return "add a returns fact, or signed quantities with a reason dimension"
	case events.KindVoid:
		return "record voids, either as a status flag on the sale fact or a separate fact"
	case events.KindCorrection:
		return "add an audit or correction fact so amended values are queryable"
	case events.KindInventoryMovement:
		return "add an inventory fact (periodic snapshot or transactional, matching the shop)"
	case events.KindProductChange, events.KindPriceAdjustment:
		return "track product history with a type 2 product dimension"
	case events.KindStoreChange:
		return "track store lifecycle with a type 2 store dimension"
	}
	return "extend the schema to cover this event stream"
}
