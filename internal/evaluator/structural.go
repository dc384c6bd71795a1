package evaluator

import (
	"fmt"

	"github.com/jfarrand/dimsim/internal/events"
	"github.com/jfarrand/dimsim/internal/schema"
)

// structuralOptimalityAxis checks that the schema is as big as the shop
// demands and no bigger: no tables for streams that do not exist, no
// orphaned structures, no gratuitous snowflaking.
type structuralOptimalityAxis struct{}

func (structuralOptimalityAxis) name() string { return axisStructuralOpt }

func (structuralOptimalityAxis) evaluate(ctx *Context, sub *schema.Submission) AxisScore {
	score := AxisScore{Axis: axisStructuralOpt, MaxScore: 100}
	points := 100
	cfg := ctx.Config

	deduct := func(d Deduction) {
		points -= d.Points
		score.Deductions = append(score.Deductions, d)
	}

	// Facts for streams this shop never produces.
	type absent struct {
		kind    events.EventKind
		enabled bool
		points  int
		what    string
	}
	for _, a := range []absent{
		{events.KindInventoryMovement, cfg.HasInventory(), 15, "inventory is not tracked"},
		{events.KindReturn, cfg.HasReturns(), 15, "the shop does not process returns"},
		{events.KindVoid, cfg.HasVoids(), 10, "the shop does not void transactions"},
		{events.KindCorrection, cfg.HasCorrections(), 10, "the shop does not issue corrections"},
	} {
		if a.enabled {
			continue
		}
		facts := factsMatching(sub, a.kind)
		if len(facts) == 0 {
			continue
		}
		deduct(Deduction{
			Points:           a.points,
			Reason:           fmt.Sprintf("fact table for %s events, but %s", a.kind, a.what),
			Severity:         SeverityMajor,
			AffectedElements: tableNames(facts),
			Type:             ViolationOverModel,
			Consequence:      "the table stays empty forever; every query and load path that touches it is wasted",
			FixHint:          fmt.Sprintf("remove the %s fact for this shop", a.kind),
		})
	}

	// Dimensions no fact joins to.
	joined := make(map[string]bool)
	for _, r := range sub.Relationships {
		joined[r.DimensionTable] = true
	}
	for _, b := range sub.BridgeTables {
		joined[b.DimensionTable] = true
	}
	for _, d := range sub.DimensionTables {
		if joined[d.Name] || d.ParentDimension != "" {
			continue
		}
		deduct(Deduction{
			Points:           5,
			Reason:           fmt.Sprintf("dimension %q is not joined to any fact", d.Name),
			Severity:         SeverityMinor,
			AffectedElements: []string{d.Name},
			Type:             ViolationOverModel,
			FixHint:          "relate the dimension to a fact or remove it",
		})
	}

	// History tracking on dimensions whose attributes never change in this
	// shop buys versioning machinery nothing will ever exercise.
	for _, concept := range scdConcepts {
		if _, changes := ctx.SCDDimensions[concept]; changes {
			continue
		}
		for _, d := range dimsMatching(sub, concept) {
			if !d.SCDStrategy.TracksHistory() {
				continue
			}
			deduct(Deduction{
				Points:           5,
				Reason:           fmt.Sprintf("dimension %q tracks history, but %s attributes never change in this shop", d.Name, concept),
				Severity:         SeverityMinor,
				AffectedElements: []string{d.Name},
				Type:             ViolationOverModel,
				Consequence:      "effective-date plumbing and surrogate-key churn with no rows that ever need a second version",
				FixHint:          fmt.Sprintf("use scd_strategy type_1 or none for the %s dimension", concept),
			})
		}
	}

	// Facts with no dimensional context.
	for i := range sub.FactTables {
		f := &sub.FactTables[i]
		if len(sub.RelationshipsForFact(f.Name)) > 0 {
			continue
		}
		deduct(Deduction{
			Points:           10,
			Reason:           fmt.Sprintf("fact %q joins to no dimensions", f.Name),
			Severity:         SeverityModerate,
			AffectedElements: []string{f.Name},
			Type:             ViolationUnderModel,
			Consequence:      "measures can only be totaled, never sliced",
			FixHint:          "declare relationships from the fact to its dimensions",
		})
	}

	// Snowflake chains deeper than one hop slow every query for no
	// analytical gain at this scale.
	for _, d := range sub.DimensionTables {
		if d.ParentDimension == "" {
			continue
		}
		parent := sub.DimensionTable(d.ParentDimension)
		if parent != nil && parent.ParentDimension != "" {
			deduct(Deduction{
				Points:           5,
				Reason:           fmt.Sprintf("dimension %q is snowflaked more than one level deep", d.Name),
				Severity:         SeverityMinor,
				AffectedElements: []string{d.Name, d.ParentDimension},
				Type:             ViolationOverModel,
				FixHint:          "flatten the hierarchy into the base dimension",
			})
		}
	}

	// Bridges that resolve nothing.
	for _, b := range sub.BridgeTables {
		hasM2M := false
		for _, r := range sub.Relationships {
			if r.FactTable == b.FactTable && r.DimensionTable == b.DimensionTable && r.Cardinality == "many-to-many" {
				hasM2M = true
			}
		}
		if !hasM2M {
			deduct(Deduction{
				Points:           5,
				Reason:           fmt.Sprintf("bridge %q has no many-to-many relationship to resolve", b.Name),
				Severity:         SeverityMinor,
				AffectedElements: []string{b.Name},
				Type:             ViolationOverModel,
				FixHint:          "declare the underlying relationship as many-to-many, or drop the bridge",
			})
		}
	}

	// More fact tables than distinct event streams is a sign of splitting
	// one grain across several tables.
	if extra := len(sub.FactTables) - (len(ctx.RequiredKinds) + 1); extra > 0 {
		deduct(Deduction{
			Points:      5 * extra,
			Reason:      fmt.Sprintf("%d fact tables for %d event streams", len(sub.FactTables), len(ctx.RequiredKinds)),
			Severity:    SeverityMinor,
			Type:        ViolationOverModel,
			Consequence: "queries must union facts that share a grain",
			FixHint:     "merge facts that share a grain and a dimensionality",
		})
	}

	score.Score = clampScore(points, score.MaxScore)
	return score
}
