package evaluator

import (
	"fmt"

	"github.com/jfarrand/dimsim/internal/events"
	"github.com/jfarrand/dimsim/internal/schema"
	"github.com/jfarrand/dimsim/internal/shop"
)

// semanticFaithfulnessAxis checks that the model's assumptions match what
// the shop actually does: optional references stay optional, anonymous
// customers stay loadable, grouping structures exist where the business has
// them.
type semanticFaithfulnessAxis struct{}

func (semanticFaithfulnessAxis) name() string { return axisSemanticFaith }

func (semanticFaithfulnessAxis) evaluate(ctx *Context, sub *schema.Submission) AxisScore {
	score := AxisScore{Axis: axisSemanticFaith, MaxScore: 100}
	points := 100
	cfg := ctx.Config

	deduct := func(d Deduction) {
		points -= d.Points
		score.Deductions = append(score.Deductions, d)
	}

	// Returns that may not reference their sale cannot have the original
	// transaction in their grain.
	if cfg.HasReturns() && cfg.Returns.ReferencePolicy != shop.ReturnRefAlways {
		for _, f := range factsMatching(sub, events.KindReturn) {
			if !grainRequires(f, []string{"original", "sale", "order"}) {
				continue
			}
			pts, sev := 15, SeverityMajor
			if cfg.Returns.ReferencePolicy == shop.ReturnRefSometimes {
				pts, sev = 10, SeverityModerate
			}
			deduct(Deduction{
				Points:           pts,
				Reason:           fmt.Sprintf("returns fact %q requires a reference to the original sale, but the shop does not always record one", f.Name),
				Severity:         sev,
				AffectedElements: []string{f.Name},
				Type:             ViolationSemantic,
				ConcreteExample:  orphanReturnExample(ctx),
				Consequence:      "unreferenced returns are rejected at load and refund totals come up short",
				FixHint:          "make the original-sale reference an optional attribute, not part of the grain",
			})
		}
	}

	// Anonymous sales need an unknown-member customer, not a customer in
	// the grain.
	if cfg.Customers.AnonymousAllowed {
		for _, f := range factsMatching(sub, events.KindSale) {
			if !grainRequires(f, []string{"customer"}) {
				continue
			}
			deduct(Deduction{
				Points:           10,
				Reason:           fmt.Sprintf("fact %q has customer in its grain but the shop allows anonymous sales", f.Name),
				Severity:         SeverityModerate,
				AffectedElements: []string{f.Name},
				Type:             ViolationSemantic,
				Consequence:      "anonymous transactions cannot be loaded without inventing customer rows",
				FixHint:          "move customer to a foreign key with an unknown-member row for anonymous sales",
			})
		}
	}

	// A customer dimension models identity the shop never captures.
	if cfg.Customers.IDReliability == shop.CustomerIDAbsent {
		if dims := dimsMatching(sub, "customer"); len(dims) > 0 {
			var names []string
			for _, d := range dims {
				names = append(names, d.Name)
			}
			deduct(Deduction{
				Points:           10,
				Reason:           "customer dimension modeled but the shop records no customer identifiers",
				Severity:         SeverityModerate,
				AffectedElements: names,
				Type:             ViolationOverModel,
				Consequence:      "the dimension can never be populated; every fact row points at unknown",
				FixHint:          "drop the customer dimension for this shop",
			})
		}
	}

	// Household grouping needs somewhere to live.
	if cfg.Customers.HouseholdGrouping && !mentionsAnywhere(sub, []string{"household"}) {
		deduct(Deduction{
			Points:      10,
			Reason:      "customers are grouped into households but the model has no household structure",
			Severity:    SeverityModerate,
			Type:        ViolationUnderModel,
			Consequence: "household-level analysis, the reason the grouping exists, is impossible",
			FixHint:     "add a household attribute or dimension, bridged if membership changes",
		})
	}

	// Bundles need parent and component lines to stay related.
	if cfg.Products.BundledProducts && !mentionsAnywhere(sub, []string{"bundle", "parent", "component"}) {
		deduct(Deduction{
			Points:      10,
			Reason:      "bundled products sell as parent plus component lines but the model cannot relate them",
			Severity:    SeverityModerate,
			Type:        ViolationUnderModel,
			Consequence: "bundle revenue is double counted or unattributable across its components",
			FixHint:     "carry a bundle parent line reference on the sales fact",
		})
	}

	// Online and physical channels should be distinguishable.
	if cfg.Stores.OnlineChannel && cfg.Stores.PhysicalStores > 0 && !mentionsAnywhere(sub, []string{"channel", "online"}) {
		deduct(Deduction{
			Points:      5,
			Reason:      "shop sells through stores and online but the model has no channel attribute",
			Severity:    SeverityMinor,
			Type:        ViolationUnderModel,
			Consequence: "online revenue cannot be separated from store revenue",
			FixHint:     "add a channel attribute to the store dimension",
		})
	}

	// Cross-store returns mean the return's store is not the sale's store.
	if cfg.Stores.CrossStoreReturns {
		for _, f := range factsMatching(sub, events.KindReturn) {
			if !factMentions(f, []string{"store", "location"}) {
				deduct(Deduction{
					Points:           5,
					Reason:           fmt.Sprintf("returns fact %q has no store key, but returns can happen at a different store than the sale", f.Name),
					Severity:         SeverityMinor,
					AffectedElements: []string{f.Name},
					Type:             ViolationSemantic,
					Consequence:      "per-store return rates are wrong whenever a return crosses stores",
					FixHint:          "give the returns fact its own store key",
				})
			}
		}
	}

	// Manual price overrides leave the charged price unequal to the list
	// price; both belong on the fact.
	if cfg.Transactions.ManualOverrides {
		saleFacts := factsMatching(sub, events.KindSale)
		covered := false
		for _, f := range saleFacts {
			if factMentions(f, []string{"override", "charged", "actual", "unit_price"}) {
				covered = true
			}
		}
		if len(saleFacts) > 0 && !covered {
			deduct(Deduction{
				Points:           5,
				Reason:           "cashiers override prices but the model keeps only one price per line",
				Severity:         SeverityMinor,
				AffectedElements: tableNames(saleFacts),
				Type:             ViolationSemantic,
				Consequence:      "margin analysis cannot see which lines were overridden or by how much",
				FixHint:          "store the charged unit price as a measure distinct from the catalog price",
			})
		}
	}

	score.Score = clampScore(points, score.MaxScore)
	return score
}

// grainRequires reports whether a grain column (which cannot be null)
// matches any of the patterns.
func grainRequires(f *schema.FactTable, patterns []string) bool {
	for _, gc := range f.GrainColumns {
		if nameMatchesAny(gc.Name, patterns) {
			return true
		}
	}
	return false
}

// mentionsAnywhere scans every table, column, and attribute name for the
// patterns.
func mentionsAnywhere(sub *schema.Submission, patterns []string) bool {
	for i := range sub.FactTables {
		if nameMatchesAny(sub.FactTables[i].Name, patterns) || factMentions(&sub.FactTables[i], patterns) {
			return true
		}
	}
	for _, d := range sub.DimensionTables {
		if nameMatchesAny(d.Name, patterns) {
			return true
		}
		for _, a := range d.Attributes {
			if nameMatchesAny(a.Name, patterns) {
				return true
			}
		}
	}
	for _, b := range sub.BridgeTables {
		if nameMatchesAny(b.Name, patterns) {
			return true
		}
	}
	return false
}

func orphanReturnExample(ctx *Context) string {
	for _, ev := range ctx.Log.Events {
		if r, ok := ev.(*events.Return); ok && r.OriginalTransactionID == "" {
			return fmt.Sprintf("return %s on %s carries no original transaction reference", r.ReturnID, r.BusinessDate)
		}
	}
	return "some returns carry no reference to their original sale"
}
