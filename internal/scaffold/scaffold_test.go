package scaffold

import (
	"strings"
	"testing"

	"github.com/jfarrand/dimsim/internal/schema"
	"github.com/jfarrand/dimsim/internal/shop"
)

func scaffoldConfig() *shop.Config {
	return &shop.Config{
		Seed:       11,
		Difficulty: shop.DifficultyMedium,
		ShopName:   "Scaffold Test Mart",
		Transactions: shop.TransactionRules{
			Grain:            shop.GrainLineItemLevel,
			MultiplePayments: false,
		},
		Time: shop.TimeRules{TimestampRelation: shop.TimestampSame},
		Products: shop.ProductRules{
			HierarchyChanges: shop.HierarchyChangeNone,
		},
		Customers: shop.CustomerRules{IDReliability: shop.CustomerIDReliable},
		Stores:    shop.StoreRules{PhysicalStores: 1},
		Promotions: shop.PromotionRules{
			PerLineItem: shop.PromotionsOne,
		},
		Returns: shop.ReturnRules{
			ReferencePolicy: shop.ReturnRefAlways,
			PricingPolicy:   shop.ReturnPriceOriginal,
		},
	}
}

func findTodo(todos []Todo, location string) *Todo {
	for i := range todos {
		if todos[i].Location == location {
			return &todos[i]
		}
	}
	return nil
}

func TestGenerateCoreTables(t *testing.T) {
	sc := Generate(scaffoldConfig())

	for _, name := range []string{"fact_sales", "fact_returns"} {
		if sc.Schema.FactTable(name) == nil {
			t.Errorf("scaffold missing fact table %q", name)
		}
	}
	for _, name := range []string{"dim_date", "dim_product", "dim_store", "dim_customer"} {
		if sc.Schema.DimensionTable(name) == nil {
			t.Errorf("scaffold missing dimension %q", name)
		}
	}
	if len(sc.Schema.Relationships) == 0 {
		t.Error("scaffold has no relationships")
	}
	for _, r := range sc.Schema.Relationships {
		if sc.Schema.DimensionTable(r.DimensionTable) == nil {
			t.Errorf("relationship references missing dimension %q", r.DimensionTable)
		}
	}
}

func TestGenerateMixedGrainTodo(t *testing.T) {
	cfg := scaffoldConfig()
	cfg.Transactions.Grain = shop.GrainMixed

	sc := Generate(cfg)

	td := findTodo(sc.Todos, "fact_sales.grain_description")
	if td == nil {
		t.Fatal("mixed grain produced no grain todo")
	}
	if td.DecisionType != "grain" {
		t.Errorf("decision type = %q, want grain", td.DecisionType)
	}
	fact := sc.Schema.FactTable("fact_sales")
	if !strings.HasPrefix(fact.GrainDescription, "TODO") {
		t.Errorf("grain description %q should be left as a TODO", fact.GrainDescription)
	}
	if !fact.HasGrainColumn("line_number") {
		t.Error("mixed grain scaffold should include line_number")
	}
}

func TestGenerateReceiptGrainOmitsLineNumber(t *testing.T) {
	cfg := scaffoldConfig()
	cfg.Transactions.Grain = shop.GrainReceiptLevel

	sc := Generate(cfg)
	if sc.Schema.FactTable("fact_sales").HasGrainColumn("line_number") {
		t.Error("receipt-level scaffold should not include line_number")
	}
}

func TestGenerateQuestionableSCDDefaults(t *testing.T) {
	cfg := scaffoldConfig()
	cfg.Products.HierarchyChanges = shop.HierarchyChangeFrequent

	sc := Generate(cfg)

	// The skeleton ships the wrong answer on purpose.
	if got := sc.Schema.DimensionTable("dim_product").SCDStrategy; got != schema.SCDType1 {
		t.Errorf("dim_product SCD = %q, want the deliberately wrong type_1", got)
	}
	if findTodo(sc.Todos, "dim_product.scd_strategy") == nil {
		t.Error("changing hierarchy produced no SCD todo")
	}
}

func TestGenerateOmitsDisabledStreams(t *testing.T) {
	cfg := scaffoldConfig()
	cfg.Returns.ReferencePolicy = shop.ReturnRefNever
	cfg.Customers.IDReliability = shop.CustomerIDAbsent

	sc := Generate(cfg)

	if sc.Schema.FactTable("fact_returns") != nil {
		t.Error("scaffold built fact_returns with returns disabled")
	}
	if sc.Schema.DimensionTable("dim_customer") != nil {
		t.Error("scaffold built dim_customer with IDs absent")
	}
}

func TestGenerateInventoryBoth(t *testing.T) {
	cfg := scaffoldConfig()
	cfg.Inventory = shop.InventoryRules{Tracked: true, Mode: shop.InventoryBoth}

	sc := Generate(cfg)

	if sc.Schema.FactTable("fact_inventory_movements") == nil {
		t.Error("missing transactional inventory fact")
	}
	if sc.Schema.FactTable("fact_inventory_snapshot") == nil {
		t.Error("missing snapshot inventory fact")
	}
	if findTodo(sc.Todos, "inventory") == nil {
		t.Error("dual inventory mode produced no reconciliation todo")
	}
}

func TestRenderParsesBack(t *testing.T) {
	sc := Generate(scaffoldConfig())

	text, err := sc.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(text, "# Schema scaffold") {
		t.Error("rendered scaffold missing header comment")
	}

	// The editable portion must round-trip through the submission parser.
	sub, err := schema.Parse([]byte(text))
	if err != nil {
		t.Fatalf("rendered scaffold does not parse: %v", err)
	}
	if sub.FactTable("fact_sales") == nil {
		t.Error("parsed scaffold missing fact_sales")
	}
}
