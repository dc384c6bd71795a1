package explain

import (
	"fmt"
	"strings"

	"github.com/jfarrand/dimsim/internal/evaluator"
	"github.com/jfarrand/dimsim/internal/events"
	"github.com/jfarrand/dimsim/internal/schema"
	"github.com/jfarrand/dimsim/internal/shop"
)

// Explain builds one scenario per violation category present, choosing the
// highest-severity violation of each category (the violation list arrives
// sorted) and a distinct transaction per scenario where possible.
func Explain(cfg *shop.Config, log *events.Log, sub *schema.Submission, violations []evaluator.Violation) []Scenario {
	b := &scenarioBuilder{
		cfg:  cfg,
		log:  log,
		sub:  sub,
		used: make(map[string]bool),
	}

	var out []Scenario
	seen := make(map[evaluator.ViolationType]bool)
	for _, v := range violations {
		if seen[v.Type] {
			continue
		}
		seen[v.Type] = true
		if s := b.build(v); s != nil {
			out = append(out, *s)
		}
	}
	return out
}

type scenarioBuilder struct {
	cfg  *shop.Config
	log  *events.Log
	sub  *schema.Submission
	used map[string]bool // transaction IDs already featured
}

func (b *scenarioBuilder) build(v evaluator.Violation) *Scenario {
	switch v.Type {
	case evaluator.ViolationGrain:
		return b.grainScenario(v)
	case evaluator.ViolationFanOut:
		return b.fanOutScenario(v)
	case evaluator.ViolationTemporal:
		return b.temporalScenario(v)
	case evaluator.ViolationDataLoss:
		return b.dataLossScenario(v)
	case evaluator.ViolationSemantic:
		return b.semanticScenario(v)
	case evaluator.ViolationOverModel:
		return b.overModelScenario(v)
	case evaluator.ViolationUnderModel:
		return b.underModelScenario(v)
	}
	return nil
}

// grainScenario replays a real multi-line transaction and shows row
// counting collapsing its lines.
func (b *scenarioBuilder) grainScenario(v evaluator.Violation) *Scenario {
	txnID := findMultiLineTransaction(b.log, b.used)
	if txnID == "" {
		return nil
	}
	b.used[txnID] = true
	t := replayTransaction(b.log, txnID)
	if t == nil {
		return nil
	}
	items, txns := dayItemCount(b.log, t.businessDate)

	setup := fmt.Sprintf("Transaction %s sold %d separate lines that day.\nIn total the day had %d transactions covering %d items.",
		txnID, len(t.saleEventIDs), txns, items)
	answer := fmt.Sprintf("%d (counting fact rows at the declared grain, one per transaction), or an unreliable mix if both grains load into the same table", txns)
	return &Scenario{
		Name:             "The Collapsed Receipt",
		Category:         v.Type,
		BusinessQuestion: fmt.Sprintf("How many items did we sell on %s?", t.businessDate),
		Setup:            setup,
		ExpectedAnswer:   fmt.Sprintf("%d items", items),
		SchemaAnswer:     answer,
		WhyWrong:         "when the grain is coarser than a line, COUNT(*) counts receipts and per-product quantity is unrecoverable",
		RootCause:        v.WhatWentWrong,
		EventsInvolved:   t.saleEventIDs,
		Severity:         v.Severity,
	}
}

// fanOutScenario replays a split-tender transaction and shows the join
// duplicating its revenue.
func (b *scenarioBuilder) fanOutScenario(v evaluator.Violation) *Scenario {
	txnID := findSplitPaymentTransaction(b.log, b.used)
	if txnID == "" {
		return nil
	}
	b.used[txnID] = true
	t := replayTransaction(b.log, txnID)
	if t == nil || len(t.payments) < 2 {
		return nil
	}

	var parts, ids []string
	for _, p := range t.payments {
		parts = append(parts, fmt.Sprintf("%s %s", dollars(p.AmountCents), p.PaymentMethod))
		ids = append(ids, p.EventID)
	}
	setup := fmt.Sprintf("Transaction %s totals %s, settled as %s.",
		txnID, dollars(t.effectiveCents), strings.Join(parts, " + "))
	answer := fmt.Sprintf("%s: the sale row joins to %d payments and its amount is repeated per match",
		dollars(t.effectiveCents*len(t.payments)), len(t.payments))
	return &Scenario{
		Name:             "The Payment Fan-Out",
		Category:         v.Type,
		BusinessQuestion: fmt.Sprintf("What was revenue on %s?", t.businessDate),
		Setup:            setup,
		ExpectedAnswer:   fmt.Sprintf("%s counted once", dollars(t.effectiveCents)),
		SchemaAnswer:     answer,
		WhyWrong:         "joining a multi-valued payment relationship onto the sales grain multiplies every measure by the number of payments",
		RootCause:        v.WhatWentWrong,
		EventsInvolved:   ids,
		Severity:         v.Severity,
	}
}

// temporalScenario replays an amended transaction: the corrected amount is
// the true as-of answer, and a schema without a business date can only
// produce the stale amount or a double count.
func (b *scenarioBuilder) temporalScenario(v evaluator.Violation) *Scenario {
	t := findAmendedTransaction(b.log, b.used)
	if t == nil {
		return b.scdScenario(v)
	}
	b.used[t.transactionID] = true
	c := t.corrections[0]

	ids := append([]string{}, t.saleEventIDs...)
	ids = append(ids, c.CorrectionID)
	setup := fmt.Sprintf("%s was rung up for %s on %s.\nCorrection %s, recorded %s, amends it to %s effective %s.",
		t.transactionID, dollars(t.originalCents), t.businessDate,
		c.CorrectionID, c.EventTimestamp.Format("2006-01-02"), dollars(t.effectiveCents), c.BusinessDate)
	answer := fmt.Sprintf("%s (the correction never lands on the business date) or %s (both rows count)",
		dollars(t.originalCents), dollars(t.originalCents+t.effectiveCents))
	return &Scenario{
		Name:             "The Backdated Correction",
		Category:         v.Type,
		BusinessQuestion: fmt.Sprintf("What were total sales for %s on %s?", t.transactionID, t.businessDate),
		Setup:            setup,
		ExpectedAnswer:   fmt.Sprintf("%s, the corrected amount as of the business date", dollars(t.effectiveCents)),
		SchemaAnswer:     answer,
		WhyWrong:         "without a business-effective date separate from the recording timestamp, a backdated amendment either disappears or double counts",
		RootCause:        v.WhatWentWrong,
		EventsInvolved:   ids,
		Severity:         v.Severity,
	}
}

// scdScenario covers the temporal category when no amended transaction
// exists: a real product change rewrites history under a type 1 dimension.
func (b *scenarioBuilder) scdScenario(v evaluator.Violation) *Scenario {
	for _, ev := range b.log.Events {
		pc, ok := ev.(*events.ProductChange)
		if !ok || pc.ChangeType != "hierarchy" {
			continue
		}
		setup := fmt.Sprintf("%s moved %s from %q to %q on %s. Sales before that date happened under the old category.",
			pc.EventID, pc.SKU, pc.OldValue, pc.NewValue, pc.BusinessDate)
		return &Scenario{
			Name:             "The Rewritten History",
			Category:         v.Type,
			BusinessQuestion: fmt.Sprintf("What were sales by category before %s?", pc.BusinessDate),
			Setup:            setup,
			ExpectedAnswer:   fmt.Sprintf("earlier sales of %s reported under %q", pc.SKU, pc.OldValue),
			SchemaAnswer:     fmt.Sprintf("all of %s's history reported under %q, because the dimension keeps only the current value", pc.SKU, pc.NewValue),
			WhyWrong:         "overwriting the changed attribute restates every historical fact under today's hierarchy",
			RootCause:        v.WhatWentWrong,
			EventsInvolved:   []string{pc.EventID},
			Severity:         v.Severity,
		}
	}
	return nil
}

// dataLossScenario shows a whole event stream vanishing at load.
func (b *scenarioBuilder) dataLossScenario(v evaluator.Violation) *Scenario {
	return &Scenario{
		Name:             "The Vanishing Stream",
		Category:         v.Type,
		BusinessQuestion: "Do warehouse totals reconcile with the source system?",
		Setup:            v.ConcreteExample,
		ExpectedAnswer:   "every recorded event is represented somewhere in the model",
		SchemaAnswer:     "the load job has no target table for these events, so they are discarded",
		WhyWrong:         "a schema that cannot store a stream silently under-reports everything that stream measures",
		RootCause:        v.WhatWentWrong,
		Severity:         v.Severity,
	}
}

// semanticScenario prefers the orphan-return case, which is replayable.
func (b *scenarioBuilder) semanticScenario(v evaluator.Violation) *Scenario {
	if r := findOrphanReturn(b.log); r != nil {
		refund := returnRefundCents(r)
		setup := fmt.Sprintf("Return %s refunds %s with no original transaction reference, which this shop's policy allows.",
			r.ReturnID, dollars(refund))
		return &Scenario{
			Name:             "The Orphan Return",
			Category:         v.Type,
			BusinessQuestion: fmt.Sprintf("What did store %s refund on %s?", r.StoreID, r.BusinessDate),
			Setup:            setup,
			ExpectedAnswer:   fmt.Sprintf("%s included in the day's refunds", dollars(refund)),
			SchemaAnswer:     "the row is rejected (or silently dropped) because the model requires a reference the event does not have",
			WhyWrong:         "modeling an optional reference as required turns legitimate business events into load failures",
			RootCause:        v.WhatWentWrong,
			EventsInvolved:   []string{r.EventID},
			Severity:         v.Severity,
		}
	}
	return &Scenario{
		Name:             "The Misread Policy",
		Category:         v.Type,
		BusinessQuestion: "Does the model's shape match how this shop actually operates?",
		Setup:            v.ConcreteExample,
		ExpectedAnswer:   "structures mirror the shop's recording rules",
		SchemaAnswer:     v.WhatWentWrong,
		WhyWrong:         v.Consequence,
		RootCause:        v.WhatWentWrong,
		Severity:         v.Severity,
	}
}

// overModelScenario shows a table no event will ever populate.
func (b *scenarioBuilder) overModelScenario(v evaluator.Violation) *Scenario {
	table := "the table"
	if len(v.AffectedTables) > 0 {
		table = v.AffectedTables[0]
	}
	return &Scenario{
		Name:             "The Empty Table",
		Category:         v.Type,
		BusinessQuestion: fmt.Sprintf("Why does %s return no rows?", table),
		Setup:            fmt.Sprintf("%s exists in the model, but this shop produces no events that load it.", table),
		ExpectedAnswer:   "the model carries only structures this shop's streams can populate",
		SchemaAnswer:     fmt.Sprintf("%s stays empty; queries against it succeed and always report zero", table),
		WhyWrong:         "an always-empty table reads as real data and reports a misleading zero instead of an absence",
		RootCause:        v.WhatWentWrong,
		Severity:         v.Severity,
	}
}

// underModelScenario shows a question the shop invites but the model cannot
// answer.
func (b *scenarioBuilder) underModelScenario(v evaluator.Violation) *Scenario {
	return &Scenario{
		Name:             "The Unanswerable Question",
		Category:         v.Type,
		BusinessQuestion: "Can the analysis the shop's rules invite actually be run?",
		Setup:            v.WhatWentWrong,
		ExpectedAnswer:   "the model carries the structure the rule exists to support",
		SchemaAnswer:     "no table or column holds the needed grouping, so the query cannot be written",
		WhyWrong:         v.Consequence,
		RootCause:        v.WhatWentWrong,
		Severity:         v.Severity,
	}
}
