package explain

import (
	"strings"
	"testing"
	"time"

	"github.com/jfarrand/dimsim/internal/evaluator"
	"github.com/jfarrand/dimsim/internal/events"
	"github.com/jfarrand/dimsim/internal/schema"
	"github.com/jfarrand/dimsim/internal/shop"
)

func explainConfig() *shop.Config {
	return &shop.Config{
		Seed:       42,
		Difficulty: shop.DifficultyMedium,
		ShopName:   "Harborview Mercantile",
		Transactions: shop.TransactionRules{
			Grain: shop.GrainLineItemLevel,
		},
		Time: shop.TimeRules{
			TimestampRelation: shop.TimestampSame,
		},
		Products: shop.ProductRules{
			HierarchyChanges: shop.HierarchyChangeNone,
		},
		Customers: shop.CustomerRules{
			IDReliability: shop.CustomerIDReliable,
		},
		Stores: shop.StoreRules{
			PhysicalStores: 1,
		},
		Promotions: shop.PromotionRules{
			PerLineItem: shop.PromotionsOne,
		},
		Returns: shop.ReturnRules{
			ReferencePolicy: shop.ReturnRefAlways,
			PricingPolicy:   shop.ReturnPriceOriginal,
		},
	}
}

func at(day, hour int) time.Time {
	return time.Date(2024, 1, day, hour, 0, 0, 0, time.UTC)
}

func envAt(id string, day, hour int) events.Envelope {
	ts := at(day, hour)
	return events.Envelope{EventID: id, EventTimestamp: ts, BusinessDate: events.DateOf(ts)}
}

func saleLine(id string, day int, txn string, line, qty, priceCents int) *events.Sale {
	return &events.Sale{
		Envelope:       envAt(id, day, 12),
		TransactionID:  txn,
		StoreID:        "STORE-001",
		LineNumber:     line,
		SKU:            "SKU-00001",
		Quantity:       qty,
		UnitPriceCents: priceCents,
	}
}

// salesSchema is a single sales star with no payment fact and no dual-date
// columns, enough to trigger the violations each test needs.
func salesSchema(grainDesc string) *schema.Submission {
	return &schema.Submission{
		FactTables: []schema.FactTable{
			{
				Name:             "fact_sales",
				GrainDescription: grainDesc,
				GrainColumns: []schema.GrainColumn{
					{Name: "transaction_id", Degenerate: true},
					{Name: "line_number", Degenerate: true},
				},
				Measures: []schema.Measure{
					{Name: "sale_amount", DataType: "integer", Aggregation: schema.AggSum},
				},
				DimensionKeys: []string{"date_key", "store_key"},
			},
		},
		DimensionTables: []schema.DimensionTable{
			{Name: "dim_date", NaturalKey: []string{"calendar_date"}, SurrogateKey: "date_key", SCDStrategy: schema.SCDNone},
			{Name: "dim_store", NaturalKey: []string{"store_id"}, SurrogateKey: "store_key", SCDStrategy: schema.SCDType1},
		},
		Relationships: []schema.Relationship{
			{FactTable: "fact_sales", DimensionTable: "dim_date", FactColumn: "date_key", DimensionColumn: "date_key", Cardinality: "many-to-one"},
			{FactTable: "fact_sales", DimensionTable: "dim_store", FactColumn: "store_key", DimensionColumn: "store_key", Cardinality: "many-to-one"},
		},
	}
}

func TestReplayAppliesCorrectionsLast(t *testing.T) {
	log := &events.Log{Events: []events.Event{
		saleLine("EVT-00000001", 15, "TXN-00000500", 1, 1, 10000),
		&events.PromotionApplied{Envelope: envAt("EVT-00000002", 16, 10), TransactionID: "TXN-00000500", LineNumber: 1, PromotionCode: "PROMO-001", DiscountCents: 500, PostHoc: true},
		&events.Correction{
			Envelope:              events.Envelope{EventID: "EVT-00000003", EventTimestamp: at(20, 10), BusinessDate: events.Date{Year: 2024, Month: 1, Day: 15}},
			CorrectionID:          "CORR-00000001",
			OriginalTransactionID: "TXN-00000500",
			OriginalEventID:       "EVT-00000001",
			Changes: []events.FieldChange{
				{Field: "line_items[1].unit_price_cents", OldValue: "10000", NewValue: "15000"},
			},
		},
	}}

	r := replayTransaction(log, "TXN-00000500")
	if r == nil {
		t.Fatal("replayTransaction returned nil")
	}
	if r.originalCents != 10000 {
		t.Errorf("originalCents = %d, want 10000", r.originalCents)
	}
	if r.effectiveCents != 15000 {
		t.Errorf("effectiveCents = %d, want 15000", r.effectiveCents)
	}
	if !r.corrected() {
		t.Error("corrected() = false")
	}
}

func TestExplainBackdatedCorrection(t *testing.T) {
	cfg := explainConfig()
	cfg.Time.BackdatedCorrections = true
	log := &events.Log{Events: []events.Event{
		saleLine("EVT-00000001", 15, "TXN-00000500", 1, 1, 10000),
		&events.Correction{
			Envelope:              events.Envelope{EventID: "EVT-00000002", EventTimestamp: at(20, 10), BusinessDate: events.Date{Year: 2024, Month: 1, Day: 15}},
			CorrectionID:          "CORR-00000001",
			OriginalTransactionID: "TXN-00000500",
			OriginalEventID:       "EVT-00000001",
			Changes: []events.FieldChange{
				{Field: "line_items[1].unit_price_cents", OldValue: "10000", NewValue: "15000"},
			},
		},
	}}

	res, err := NewAnalyzer(cfg, log).Analyze(salesSchema("one row per transaction line item"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	var sc *Scenario
	for i := range res.Scenarios {
		if res.Scenarios[i].Category == evaluator.ViolationTemporal {
			sc = &res.Scenarios[i]
		}
	}
	if sc == nil {
		t.Fatalf("no temporal scenario in %+v", res.Scenarios)
	}
	if !strings.Contains(sc.ExpectedAnswer, "$150.00") {
		t.Errorf("expected answer %q does not report the corrected amount", sc.ExpectedAnswer)
	}
	if !strings.Contains(sc.SchemaAnswer, "$100.00") || !strings.Contains(sc.SchemaAnswer, "$250.00") {
		t.Errorf("schema answer %q does not show the stale and doubled amounts", sc.SchemaAnswer)
	}
	wantIDs := map[string]bool{"EVT-00000001": false, "CORR-00000001": false}
	for _, id := range sc.EventsInvolved {
		if _, ok := wantIDs[id]; ok {
			wantIDs[id] = true
		}
	}
	for id, seen := range wantIDs {
		if !seen {
			t.Errorf("scenario does not cite %s: %v", id, sc.EventsInvolved)
		}
	}
}

func TestExplainCollapsedGrain(t *testing.T) {
	cfg := explainConfig()
	cfg.Transactions.Grain = shop.GrainMixed
	log := &events.Log{Events: []events.Event{
		saleLine("EVT-00000001", 10, "TXN-00000001", 1, 2, 500),
		saleLine("EVT-00000002", 10, "TXN-00000001", 2, 1, 1200),
		saleLine("EVT-00000003", 10, "TXN-00000002", 1, 5, 300),
	}}

	res, err := NewAnalyzer(cfg, log).Analyze(salesSchema("one row per receipt, or per line item depending on the register"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	var sc *Scenario
	for i := range res.Scenarios {
		if res.Scenarios[i].Category == evaluator.ViolationGrain {
			sc = &res.Scenarios[i]
		}
	}
	if sc == nil {
		t.Fatalf("no grain scenario in %+v", res.Scenarios)
	}
	if sc.ExpectedAnswer != "8 items" {
		t.Errorf("expected answer = %q, want \"8 items\"", sc.ExpectedAnswer)
	}
	if !strings.Contains(sc.SchemaAnswer, "2 ") {
		t.Errorf("schema answer %q does not show the collapsed row count", sc.SchemaAnswer)
	}
	if sc.Severity != evaluator.SeverityCritical {
		t.Errorf("severity = %s, want critical", sc.Severity)
	}
}

func TestExplainPaymentFanOut(t *testing.T) {
	cfg := explainConfig()
	cfg.Transactions.MultiplePayments = true
	log := &events.Log{Events: []events.Event{
		saleLine("EVT-00000001", 10, "TXN-00000001", 1, 1, 10000),
		&events.Payment{Envelope: envAt("EVT-00000002", 10, 12), TransactionID: "TXN-00000001", StoreID: "STORE-001", PaymentMethod: "cash", AmountCents: 6000},
		&events.Payment{Envelope: envAt("EVT-00000003", 10, 12), TransactionID: "TXN-00000001", StoreID: "STORE-001", PaymentMethod: "credit_card", AmountCents: 4000},
	}}

	res, err := NewAnalyzer(cfg, log).Analyze(salesSchema("one row per transaction line item"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	var sc *Scenario
	for i := range res.Scenarios {
		if res.Scenarios[i].Category == evaluator.ViolationFanOut {
			sc = &res.Scenarios[i]
		}
	}
	if sc == nil {
		t.Fatalf("no fan-out scenario in %+v", res.Scenarios)
	}
	if !strings.Contains(sc.ExpectedAnswer, "$100.00") {
		t.Errorf("expected answer %q does not show the true total", sc.ExpectedAnswer)
	}
	if !strings.Contains(sc.SchemaAnswer, "$200.00") {
		t.Errorf("schema answer %q does not show the doubled total", sc.SchemaAnswer)
	}
}

func TestExplainOrphanReturn(t *testing.T) {
	cfg := explainConfig()
	cfg.Returns.ReferencePolicy = shop.ReturnRefSometimes
	log := &events.Log{Events: []events.Event{
		saleLine("EVT-00000001", 10, "TXN-00000001", 1, 1, 5000),
		&events.Return{
			Envelope: envAt("EVT-00000002", 12, 14),
			ReturnID: "RET-00000001",
			StoreID:  "STORE-001",
			Lines: []events.ReturnLine{
				{LineNumber: 1, SKU: "SKU-00001", Quantity: 1, UnitPriceCents: 5000},
			},
			ReasonCode:         "no_receipt",
			PriceDetermination: "current",
		},
	}}

	sub := salesSchema("one row per transaction line item")
	sub.FactTables = append(sub.FactTables, schema.FactTable{
		Name:             "fact_returns",
		GrainDescription: "one row per returned line item",
		GrainColumns: []schema.GrainColumn{
			{Name: "original_transaction_id", Degenerate: true},
			{Name: "line_number", Degenerate: true},
		},
		Measures: []schema.Measure{
			{Name: "refund_amount", DataType: "integer", Aggregation: schema.AggSum},
		},
		DimensionKeys: []string{"date_key", "store_key"},
	})
	sub.Relationships = append(sub.Relationships, schema.Relationship{
		FactTable: "fact_returns", DimensionTable: "dim_date",
		FactColumn: "date_key", DimensionColumn: "date_key", Cardinality: "many-to-one",
	})

	res, err := NewAnalyzer(cfg, log).Analyze(sub)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	var sc *Scenario
	for i := range res.Scenarios {
		if res.Scenarios[i].Category == evaluator.ViolationSemantic {
			sc = &res.Scenarios[i]
		}
	}
	if sc == nil {
		t.Fatalf("no semantic scenario in %+v", res.Scenarios)
	}
	if !strings.Contains(sc.Setup, "RET-00000001") {
		t.Errorf("setup %q does not cite the orphan return", sc.Setup)
	}
	if !strings.Contains(sc.ExpectedAnswer, "$50.00") {
		t.Errorf("expected answer %q does not show the refund amount", sc.ExpectedAnswer)
	}
}

func TestExplainOneScenarioPerCategory(t *testing.T) {
	cfg := explainConfig()
	cfg.Transactions.Grain = shop.GrainMixed
	cfg.Transactions.MultiplePayments = true
	log := &events.Log{Events: []events.Event{
		saleLine("EVT-00000001", 10, "TXN-00000001", 1, 2, 500),
		saleLine("EVT-00000002", 10, "TXN-00000001", 2, 1, 1200),
		saleLine("EVT-00000003", 11, "TXN-00000002", 1, 1, 10000),
		&events.Payment{Envelope: envAt("EVT-00000004", 11, 12), TransactionID: "TXN-00000002", StoreID: "STORE-001", PaymentMethod: "cash", AmountCents: 6000},
		&events.Payment{Envelope: envAt("EVT-00000005", 11, 12), TransactionID: "TXN-00000002", StoreID: "STORE-001", PaymentMethod: "credit_card", AmountCents: 4000},
	}}

	res, err := NewAnalyzer(cfg, log).Analyze(salesSchema("one row per receipt, or per line item depending on the register"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	seen := make(map[evaluator.ViolationType]bool)
	txns := make(map[string]bool)
	for _, sc := range res.Scenarios {
		if seen[sc.Category] {
			t.Errorf("category %s appears twice", sc.Category)
		}
		seen[sc.Category] = true
	}
	if !seen[evaluator.ViolationGrain] || !seen[evaluator.ViolationFanOut] {
		t.Fatalf("want grain and fan-out scenarios, got %+v", res.Scenarios)
	}
	// The grain and fan-out scenarios must feature different transactions.
	for _, sc := range res.Scenarios {
		key := ""
		switch sc.Category {
		case evaluator.ViolationGrain:
			key = "TXN-00000001"
		case evaluator.ViolationFanOut:
			key = "TXN-00000002"
		default:
			continue
		}
		if txns[key] {
			t.Errorf("transaction %s reused across scenarios", key)
		}
		txns[key] = true
	}
	if !res.HasIssues() {
		t.Error("HasIssues() = false")
	}
}

func TestResultRender(t *testing.T) {
	cfg := explainConfig()
	cfg.Transactions.Grain = shop.GrainMixed
	log := &events.Log{Events: []events.Event{
		saleLine("EVT-00000001", 10, "TXN-00000001", 1, 2, 500),
		saleLine("EVT-00000002", 10, "TXN-00000001", 2, 1, 1200),
	}}
	res, err := NewAnalyzer(cfg, log).Analyze(salesSchema("one row per receipt, or per line item depending on the register"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	text := res.Render()
	for _, want := range []string{"SCHEMA DIAGNOSIS", "Question:", "Expected answer:", "Your schema's answer:"} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered result missing %q", want)
		}
	}
}
