package evaluator

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jfarrand/dimsim/internal/events"
	"github.com/jfarrand/dimsim/internal/scaffold"
	"github.com/jfarrand/dimsim/internal/schema"
	"github.com/jfarrand/dimsim/internal/shop"
)

func evalConfig() *shop.Config {
	return &shop.Config{
		Seed:       7,
		Difficulty: shop.DifficultyEasy,
		ShopName:   "Test Trading Co",
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

func env(id string, day int) events.Envelope {
	ts := time.Date(2024, 1, day, 12, 0, 0, 0, time.UTC)
	return events.Envelope{
		EventID:        id,
		EventTimestamp: ts,
		BusinessDate:   events.DateOf(ts),
	}
}

func evalLog() *events.Log {
	return &events.Log{
		Seed:       7,
		Difficulty: shop.DifficultyEasy,
		ShopName:   "Test Trading Co",
		Events: []events.Event{
			&events.Sale{Envelope: env("EVT-00000001", 2), TransactionID: "TXN-00000001", StoreID: "STORE-001", SKU: "SKU-00001", LineNumber: 1, Quantity: 2, UnitPriceCents: 500},
			&events.Sale{Envelope: env("EVT-00000002", 2), TransactionID: "TXN-00000001", StoreID: "STORE-001", SKU: "SKU-00002", LineNumber: 2, Quantity: 1, UnitPriceCents: 1200},
			&events.PromotionApplied{Envelope: env("EVT-00000003", 2), TransactionID: "TXN-00000001", LineNumber: 1, PromotionCode: "PROMO-001", DiscountCents: 100},
			&events.Payment{Envelope: env("EVT-00000004", 2), TransactionID: "TXN-00000001", StoreID: "STORE-001", PaymentMethod: "card", AmountCents: 2100},
			&events.Return{Envelope: env("EVT-00000005", 3), ReturnID: "RET-00000001", StoreID: "STORE-001", OriginalTransactionID: "TXN-00000001", PriceDetermination: "original"},
		},
	}
}

func soundSubmission() *schema.Submission {
	return &schema.Submission{
		FactTables: []schema.FactTable{
			{
				Name:             "fact_sales",
				GrainDescription: "one row per transaction line item",
				GrainColumns: []schema.GrainColumn{
					{Name: "transaction_id", Degenerate: true},
					{Name: "line_number", Degenerate: true},
				},
				Measures: []schema.Measure{
					{Name: "sale_amount", DataType: "integer", Aggregation: schema.AggSum},
					{Name: "discount_amount", DataType: "integer", Aggregation: schema.AggSum},
				},
				DimensionKeys: []string{"date_key", "product_key", "store_key", "promotion_key"},
			},
			{
				Name:             "fact_payments",
				GrainDescription: "one row per payment",
				GrainColumns: []schema.GrainColumn{
					{Name: "payment_id", Degenerate: true},
					{Name: "transaction_id", Degenerate: true},
				},
				Measures: []schema.Measure{
					{Name: "payment_amount", DataType: "integer", Aggregation: schema.AggSum},
				},
				DimensionKeys: []string{"date_key", "store_key"},
			},
			{
				Name:             "fact_returns",
				GrainDescription: "one row per returned line item",
				GrainColumns: []schema.GrainColumn{
					{Name: "return_id", Degenerate: true},
					{Name: "line_number", Degenerate: true},
				},
				Measures: []schema.Measure{
					{Name: "refund_amount", DataType: "integer", Aggregation: schema.AggSum},
				},
				DimensionKeys: []string{"date_key", "product_key", "store_key"},
			},
		},
		DimensionTables: []schema.DimensionTable{
			{Name: "dim_date", NaturalKey: []string{"calendar_date"}, SurrogateKey: "date_key", SCDStrategy: schema.SCDNone},
			{Name: "dim_product", NaturalKey: []string{"sku"}, SurrogateKey: "product_key", SCDStrategy: schema.SCDType1},
			{Name: "dim_store", NaturalKey: []string{"store_id"}, SurrogateKey: "store_key", SCDStrategy: schema.SCDType1},
			{Name: "dim_promotion", NaturalKey: []string{"promotion_code"}, SurrogateKey: "promotion_key", SCDStrategy: schema.SCDType1},
		},
		Relationships: []schema.Relationship{
			{FactTable: "fact_sales", DimensionTable: "dim_date", FactColumn: "date_key", DimensionColumn: "date_key", Cardinality: "many-to-one"},
			{FactTable: "fact_sales", DimensionTable: "dim_product", FactColumn: "product_key", DimensionColumn: "product_key", Cardinality: "many-to-one"},
			{FactTable: "fact_sales", DimensionTable: "dim_store", FactColumn: "store_key", DimensionColumn: "store_key", Cardinality: "many-to-one"},
			{FactTable: "fact_sales", DimensionTable: "dim_promotion", FactColumn: "promotion_key", DimensionColumn: "promotion_key", Cardinality: "many-to-one"},
			{FactTable: "fact_payments", DimensionTable: "dim_date", FactColumn: "date_key", DimensionColumn: "date_key", Cardinality: "many-to-one"},
			{FactTable: "fact_payments", DimensionTable: "dim_store", FactColumn: "store_key", DimensionColumn: "store_key", Cardinality: "many-to-one"},
			{FactTable: "fact_returns", DimensionTable: "dim_date", FactColumn: "date_key", DimensionColumn: "date_key", Cardinality: "many-to-one"},
			{FactTable: "fact_returns", DimensionTable: "dim_product", FactColumn: "product_key", DimensionColumn: "product_key", Cardinality: "many-to-one"},
			{FactTable: "fact_returns", DimensionTable: "dim_store", FactColumn: "store_key", DimensionColumn: "store_key", Cardinality: "many-to-one"},
		},
	}
}

func hasViolation(r *Report, vt ViolationType, sev Severity) bool {
	for _, v := range r.Violations {
		if v.Type == vt && v.Severity == sev {
			return true
		}
	}
	return false
}

func TestEvaluateSoundSchema(t *testing.T) {
	report, err := Evaluate(evalConfig(), evalLog(), soundSubmission())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	for _, name := range []string{axisEventPreservation, axisGrainCorrectness, axisTemporalCorrectness, axisSemanticFaith, axisStructuralOpt} {
		a := report.Axis(name)
		if a == nil {
			t.Fatalf("missing axis %s", name)
		}
		if a.Score != a.MaxScore {
			t.Errorf("axis %s = %d/%d, deductions %+v", name, a.Score, a.MaxScore, a.Deductions)
		}
	}
	q := report.Axis(axisQueryability)
	if q == nil || q.Score == 0 {
		t.Fatalf("queryability earned nothing: %+v", q)
	}
	for _, v := range report.Violations {
		if v.Severity == SeverityCritical {
			t.Errorf("unexpected critical violation: %+v", v)
		}
	}
	if report.WeightedScore < 80 {
		t.Errorf("weighted score = %.1f, want >= 80", report.WeightedScore)
	}
}

func TestEvaluateAmbiguousGrain(t *testing.T) {
	sub := soundSubmission()
	sub.FactTables[0].GrainDescription = "one row per receipt, or per line item depending on the register"
	cfg := evalConfig()
	cfg.Transactions.Grain = shop.GrainMixed

	report, err := Evaluate(cfg, evalLog(), sub)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !hasViolation(report, ViolationGrain, SeverityCritical) {
		t.Fatalf("want critical grain_violation, got %+v", report.Violations)
	}
	if g := report.Axis(axisGrainCorrectness); g.Score > 75 {
		t.Errorf("grain score = %d, want <= 75", g.Score)
	}
}

func TestEvaluateDroppedEventStream(t *testing.T) {
	sub := soundSubmission()
	sub.FactTables = sub.FactTables[:2] // drop fact_returns
	sub.Relationships = sub.Relationships[:6]

	report, err := Evaluate(evalConfig(), evalLog(), sub)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !hasViolation(report, ViolationDataLoss, SeverityCritical) {
		t.Fatalf("want critical data_loss, got %+v", report.Violations)
	}
	found := false
	for _, v := range report.Violations {
		if v.Type == ViolationDataLoss && strings.Contains(v.ConcreteExample, "EVT-00000005") {
			found = true
		}
	}
	if !found {
		t.Errorf("data_loss violation does not cite the dropped return event: %+v", report.Violations)
	}
}

func TestEvaluateOverModeling(t *testing.T) {
	sub := soundSubmission()
	sub.FactTables = append(sub.FactTables, schema.FactTable{
		Name:             "fact_inventory_snapshots",
		GrainDescription: "one row per store per product per day",
		GrainColumns:     []schema.GrainColumn{{Name: "snapshot_date"}},
		Measures:         []schema.Measure{{Name: "on_hand_quantity", DataType: "integer", Aggregation: schema.AggSum}},
		DimensionKeys:    []string{"date_key", "store_key", "product_key"},
	})
	sub.Relationships = append(sub.Relationships, schema.Relationship{
		FactTable: "fact_inventory_snapshots", DimensionTable: "dim_date",
		FactColumn: "date_key", DimensionColumn: "date_key", Cardinality: "many-to-one",
	})

	report, err := Evaluate(evalConfig(), evalLog(), sub)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	found := false
	for _, v := range report.Violations {
		if v.Type == ViolationOverModel && strings.Contains(v.WhatWentWrong, "inventory") {
			found = true
		}
	}
	if !found {
		t.Fatalf("want over_modeling violation for the inventory fact, got %+v", report.Violations)
	}
}

func TestEvaluateMissingSCDHistory(t *testing.T) {
	cfg := evalConfig()
	cfg.Products.HierarchyChanges = shop.HierarchyChangeOccasional
	log := evalLog()
	log.Events = append(log.Events,
		&events.ProductChange{Envelope: env("EVT-00000006", 4), SKU: "SKU-00001", ChangeType: "hierarchy", OldValue: "Snacks", NewValue: "Pantry"},
		&events.PriceAdjustment{Envelope: env("EVT-00000007", 4), SKU: "SKU-00001", OldPriceCents: 500, NewPriceCents: 550},
	)

	report, err := Evaluate(cfg, log, soundSubmission())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !hasViolation(report, ViolationTemporal, SeverityCritical) {
		t.Fatalf("want critical temporal_lie for type_1 product dim, got %+v", report.Violations)
	}

	// Upgrading the product dimension to type 2 clears the finding and the
	// preservation gap at once.
	fixed := soundSubmission()
	for i := range fixed.DimensionTables {
		if fixed.DimensionTables[i].Name == "dim_product" {
			fixed.DimensionTables[i].SCDStrategy = schema.SCDType2
		}
	}
	report2, err := Evaluate(cfg, log, fixed)
	if err != nil {
		t.Fatalf("Evaluate fixed: %v", err)
	}
	if hasViolation(report2, ViolationTemporal, SeverityCritical) {
		t.Errorf("type_2 product dim still flagged: %+v", report2.Violations)
	}
	if p := report2.Axis(axisEventPreservation); p.Score != p.MaxScore {
		t.Errorf("preservation = %d/%d after SCD fix: %+v", p.Score, p.MaxScore, p.Deductions)
	}
}

func TestEvaluateUnneededSCDHistory(t *testing.T) {
	// evalConfig enables no hierarchy drift, SKU reuse, or store lifecycle
	// changes, so a type_2 product dimension is pure overhead.
	sub := soundSubmission()
	for i := range sub.DimensionTables {
		if sub.DimensionTables[i].Name == "dim_product" {
			sub.DimensionTables[i].SCDStrategy = schema.SCDType2
		}
	}

	report, err := Evaluate(evalConfig(), evalLog(), sub)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	found := false
	for _, v := range report.Violations {
		if v.Type == ViolationOverModel && strings.Contains(v.WhatWentWrong, "tracks history") {
			found = true
		}
	}
	if !found {
		t.Fatalf("want over_modeling violation for type_2 on a static product dim, got %+v", report.Violations)
	}

	report2, err := Evaluate(evalConfig(), evalLog(), soundSubmission())
	if err != nil {
		t.Fatalf("Evaluate sound: %v", err)
	}
	for _, v := range report2.Violations {
		if v.Type == ViolationOverModel && strings.Contains(v.WhatWentWrong, "tracks history") {
			t.Errorf("type_1 product dim flagged as over-modeled: %+v", v)
		}
	}
}

func TestEvaluateSplitPaymentFanOut(t *testing.T) {
	cfg := evalConfig()
	cfg.Transactions.MultiplePayments = true
	log := evalLog()
	log.Events = append(log.Events,
		&events.Payment{Envelope: env("EVT-00000008", 2), TransactionID: "TXN-00000001", StoreID: "STORE-001", PaymentMethod: "cash", AmountCents: 500},
	)

	sub := soundSubmission()
	sub.FactTables = append(sub.FactTables[:1], sub.FactTables[2]) // drop fact_payments
	var rels []schema.Relationship
	for _, r := range sub.Relationships {
		if r.FactTable != "fact_payments" {
			rels = append(rels, r)
		}
	}
	sub.Relationships = rels
	// Keep a tender mention so the stream is preserved, just badly shaped.
	sub.FactTables[0].DimensionKeys = append(sub.FactTables[0].DimensionKeys, "payment_method_key")
	sub.DimensionTables = append(sub.DimensionTables, schema.DimensionTable{
		Name: "dim_payment_method", NaturalKey: []string{"method"}, SurrogateKey: "payment_method_key", SCDStrategy: schema.SCDNone,
	})
	sub.Relationships = append(sub.Relationships, schema.Relationship{
		FactTable: "fact_sales", DimensionTable: "dim_payment_method",
		FactColumn: "payment_method_key", DimensionColumn: "payment_method_key", Cardinality: "many-to-one",
	})

	report, err := Evaluate(cfg, log, sub)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	found := false
	for _, v := range report.Violations {
		if v.Type == ViolationFanOut && strings.Contains(v.ConcreteExample, "TXN-00000001") {
			found = true
		}
	}
	if !found {
		t.Fatalf("want fan_out_risk citing the split transaction, got %+v", report.Violations)
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	cfg, err := shop.Generate(42, shop.DifficultyMedium)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	log, err := events.NewSimulator(cfg).Simulate(200, 10)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	sub := soundSubmission()

	a, err := Evaluate(cfg, log, sub)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	b, err := Evaluate(cfg, log, sub)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	if string(ja) != string(jb) {
		t.Fatal("identical inputs produced different reports")
	}
}

func TestEvaluateRejectsInvalidSubmission(t *testing.T) {
	_, err := Evaluate(evalConfig(), evalLog(), &schema.Submission{})
	if !errors.Is(err, schema.ErrInvalidSubmission) {
		t.Fatalf("err = %v, want ErrInvalidSubmission", err)
	}
}

func TestFixPriorityDedupsAndCaps(t *testing.T) {
	sub := soundSubmission()
	sub.FactTables = sub.FactTables[:1]
	sub.Relationships = sub.Relationships[:4]
	cfg := evalConfig()
	cfg.Transactions.MultiplePayments = true
	cfg.Customers.HouseholdGrouping = true
	cfg.Products.BundledProducts = true

	report, err := Evaluate(cfg, evalLog(), sub)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(report.FixPriority) == 0 || len(report.FixPriority) > 5 {
		t.Fatalf("fix priority length = %d", len(report.FixPriority))
	}
	if len(report.Recommendations) == 0 || len(report.Recommendations) > 5 {
		t.Fatalf("recommendations length = %d", len(report.Recommendations))
	}
}

func TestReportRender(t *testing.T) {
	sub := soundSubmission()
	sub.FactTables = sub.FactTables[:2]
	sub.Relationships = sub.Relationships[:6]
	report, err := Evaluate(evalConfig(), evalLog(), sub)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	text := report.Render()
	for _, want := range []string{"SCHEMA EVALUATION REPORT", "Event Preservation", "VIOLATIONS", "RECOMMENDATIONS"} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered report missing %q", want)
		}
	}
}

func TestEvaluateGeneratedScaffoldAcrossTiers(t *testing.T) {
	// Full pipeline on generator-drawn configs, not hand-built literals, so
	// the packages are exercised against the same Config type end to end.
	for _, d := range shop.Difficulties() {
		t.Run(string(d), func(t *testing.T) {
			cfg, err := shop.Generate(7, d)
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			log, err := events.NewSimulator(cfg).Simulate(200, 10)
			if err != nil {
				t.Fatalf("Simulate: %v", err)
			}
			text, err := scaffold.Generate(cfg).Render()
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			sub, err := schema.Parse([]byte(text))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}

			report, err := Evaluate(cfg, log, sub)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if report.MaxScore == 0 {
				t.Fatal("report has zero max score")
			}
			if report.TotalScore < 0 || report.TotalScore > report.MaxScore {
				t.Errorf("total score %d outside [0, %d]", report.TotalScore, report.MaxScore)
			}
		})
	}
}
