// Package scaffold generates a starting-point schema for a shop config. The
// skeleton carries structure and open questions, not correct answers: its
// defaults are deliberately questionable (Type 1 dimensions, a single sales
// fact) so that accepting it unchanged scores poorly.
package scaffold

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jfarrand/dimsim/internal/schema"
	"github.com/jfarrand/dimsim/internal/shop"
)

// Todo is an open modeling decision the skeleton leaves to the player.
type Todo struct {
	Location     string   `json:"location" yaml:"location"`
	Question     string   `json:"question" yaml:"question"`
	Hints        []string `json:"hints" yaml:"hints"`
	DecisionType string   `json:"decision_type" yaml:"decision_type"` // grain | scd | relationship | temporal | identity
}

// Scaffold is a partially-filled submission plus the decisions it defers.
type Scaffold struct {
	Schema   schema.Submission `json:"schema" yaml:"schema"`
	Todos    []Todo            `json:"todos" yaml:"todos"`
	Warnings []string          `json:"warnings" yaml:"warnings"`
}

// Generate builds the scaffold for a config. Output is deterministic: it
// depends only on which rules the config enables.
func Generate(cfg *shop.Config) *Scaffold {
	sc := &Scaffold{}

	addSalesFact(sc, cfg)
	addReturnsFact(sc, cfg)
	addInventoryFacts(sc, cfg)

	addDateDimension(sc, cfg)
	addProductDimension(sc, cfg)
	addStoreDimension(sc, cfg)
	addCustomerDimension(sc, cfg)

	addRelationships(sc, cfg)
	addGlobalWarnings(sc, cfg)

	return sc
}

func addSalesFact(sc *Scaffold, cfg *shop.Config) {
	grain := cfg.Transactions.Grain

	cols := []schema.GrainColumn{{Name: "transaction_id", Degenerate: true}}
	if grain == shop.GrainLineItemLevel || grain == shop.GrainMixed {
		cols = append(cols, schema.GrainColumn{Name: "line_number", Degenerate: true})
	}

	fact := schema.FactTable{
		Name:         "fact_sales",
		GrainColumns: cols,
		Measures: []schema.Measure{
			{Name: "quantity", DataType: "int", Aggregation: schema.AggSum},
			{Name: "gross_amount_cents", DataType: "int", Aggregation: schema.AggSum},
			{Name: "discount_cents", DataType: "int", Aggregation: schema.AggSum},
			{Name: "net_amount_cents", DataType: "int", Aggregation: schema.AggSum},
		},
		DimensionKeys: []string{"date_key", "product_key", "store_key", "customer_key"},
	}

	switch grain {
	case shop.GrainMixed:
		fact.GrainDescription = "TODO: define grain; the shop records transactions at mixed levels"
		sc.Warnings = append(sc.Warnings, "fact_sales: mixed grain sources are tricky; consider separate facts per grain")
		sc.Todos = append(sc.Todos, Todo{
			Location: "fact_sales.grain_description",
			Question: "How will you handle mixed line-item and receipt-level transactions?",
			Hints: []string{
				"Option 1: separate fact tables (fact_sales_line, fact_sales_receipt)",
				"Option 2: lowest common grain with an is_aggregated flag",
				"Option 3: always use line-item grain, synthesize lines for receipts",
			},
			DecisionType: "grain",
		})
	case shop.GrainLineItemLevel:
		fact.GrainDescription = "TODO: one row per line item sold"
	default:
		fact.GrainDescription = "TODO: one row per transaction receipt"
	}

	if cfg.Transactions.MultiplePayments {
		sc.Todos = append(sc.Todos, Todo{
			Location: "fact_sales",
			Question: "How will you model multiple payments per transaction?",
			Hints: []string{
				"Option 1: separate fact_payments table",
				"Option 2: bridge table between fact_sales and dim_payment_method",
				"Option 3: denormalized payment columns (payment_1, payment_2, ...)",
			},
			DecisionType: "relationship",
		})
	}

	sc.Schema.FactTables = append(sc.Schema.FactTables, fact)
}

func addReturnsFact(sc *Scaffold, cfg *shop.Config) {
	if !cfg.HasReturns() {
		return
	}

	fact := schema.FactTable{
		Name:             "fact_returns",
		GrainDescription: "TODO: one row per return line item",
		GrainColumns: []schema.GrainColumn{
			{Name: "return_id", Degenerate: true},
			{Name: "line_number", Degenerate: true},
		},
		Measures: []schema.Measure{
			{Name: "quantity_returned", DataType: "int", Aggregation: schema.AggSum},
			{Name: "refund_amount_cents", DataType: "int", Aggregation: schema.AggSum},
		},
		DimensionKeys: []string{"date_key", "product_key", "store_key", "customer_key"},
	}

	switch cfg.Returns.ReferencePolicy {
	case shop.ReturnRefAlways:
		fact.GrainColumns = append(fact.GrainColumns, schema.GrainColumn{Name: "original_transaction_id", Degenerate: true})
	case shop.ReturnRefSometimes:
		sc.Warnings = append(sc.Warnings, "fact_returns: returns only sometimes reference original sales; handle NULLs")
		sc.Todos = append(sc.Todos, Todo{
			Location: "fact_returns.original_transaction_id",
			Question: "How will you handle returns that don't reference original transactions?",
			Hints: []string{
				"Nullable degenerate reference to the original transaction",
				"Separate handling for orphan returns",
				"Special 'unknown transaction' surrogate",
			},
			DecisionType: "relationship",
		})
	}

	sc.Schema.FactTables = append(sc.Schema.FactTables, fact)
}

func addInventoryFacts(sc *Scaffold, cfg *shop.Config) {
	if !cfg.HasInventory() {
		return
	}
	mode := cfg.Inventory.Mode

	if mode == shop.InventoryTransactional || mode == shop.InventoryBoth {
		sc.Schema.FactTables = append(sc.Schema.FactTables, schema.FactTable{
			Name:             "fact_inventory_movements",
			GrainDescription: "TODO: one row per inventory movement",
			GrainColumns:     []schema.GrainColumn{{Name: "movement_id", Degenerate: true}},
			Measures: []schema.Measure{
				{Name: "quantity_change", DataType: "int", Aggregation: schema.AggSum},
			},
			DimensionKeys: []string{"date_key", "product_key", "store_key"},
		})
	}

	if mode == shop.InventorySnapshot || mode == shop.InventoryBoth {
		sc.Schema.FactTables = append(sc.Schema.FactTables, schema.FactTable{
			Name:             "fact_inventory_snapshot",
			GrainDescription: "TODO: one row per product per store per snapshot date",
			GrainColumns: []schema.GrainColumn{
				{Name: "snapshot_date_key", ReferencesDimension: "dim_date"},
				{Name: "product_key", ReferencesDimension: "dim_product"},
				{Name: "store_key", ReferencesDimension: "dim_store"},
			},
			Measures: []schema.Measure{
				{Name: "quantity_on_hand", DataType: "int", Aggregation: schema.AggSum},
			},
			DimensionKeys: []string{"date_key", "product_key", "store_key"},
		})
		sc.Warnings = append(sc.Warnings, "fact_inventory_snapshot: quantity_on_hand is semi-additive; it does not sum across time")
	}

	if mode == shop.InventoryBoth {
		sc.Todos = append(sc.Todos, Todo{
			Location: "inventory",
			Question: "How do transactional and snapshot inventory facts relate?",
			Hints: []string{
				"Transactional: individual movements",
				"Snapshot: point-in-time balances",
				"They serve different query patterns",
			},
			DecisionType: "grain",
		})
	}
}

func addDateDimension(sc *Scaffold, cfg *shop.Config) {
	dim := schema.DimensionTable{
		Name:         "dim_date",
		NaturalKey:   []string{"date_value"},
		SurrogateKey: "date_key",
		SCDStrategy:  schema.SCDType0,
		Attributes: []schema.DimensionAttribute{
			{Name: "date_value", DataType: "date"},
			{Name: "year", DataType: "int"},
			{Name: "quarter", DataType: "int"},
			{Name: "month", DataType: "int"},
			{Name: "month_name", DataType: "varchar"},
			{Name: "day_of_week", DataType: "int"},
			{Name: "day_name", DataType: "varchar"},
			{Name: "is_weekend", DataType: "boolean"},
		},
	}

	if cfg.Time.TimestampRelation == shop.TimestampDivergent {
		sc.Warnings = append(sc.Warnings, "dim_date: timestamps differ from business dates; you may need two date foreign keys")
		sc.Todos = append(sc.Todos, Todo{
			Location: "dim_date",
			Question: "How will you track both event timestamp and business effective date?",
			Hints: []string{
				"Option 1: two role-playing date keys (event_date_key, business_date_key)",
				"Option 2: store business_date on the fact, join to dim_date for reporting",
				"Consider which date matters for which queries",
			},
			DecisionType: "temporal",
		})
	}

	sc.Schema.DimensionTables = append(sc.Schema.DimensionTables, dim)
}

func addProductDimension(sc *Scaffold, cfg *shop.Config) {
	// Type 1 is wrong whenever hierarchies change. That is the point.
	dim := schema.DimensionTable{
		Name:         "dim_product",
		NaturalKey:   []string{"sku"},
		SurrogateKey: "product_key",
		SCDStrategy:  schema.SCDType1,
		Attributes: []schema.DimensionAttribute{
			{Name: "sku", DataType: "varchar"},
			{Name: "product_name", DataType: "varchar"},
			{Name: "category", DataType: "varchar"},
			{Name: "subcategory", DataType: "varchar"},
			{Name: "brand", DataType: "varchar"},
			{Name: "unit_price_cents", DataType: "int"},
		},
	}

	if freq := cfg.Products.HierarchyChanges; freq != shop.HierarchyChangeNone {
		sc.Warnings = append(sc.Warnings, fmt.Sprintf("dim_product: hierarchy changes are %s and Type 1 loses that history", freq))
		sc.Todos = append(sc.Todos, Todo{
			Location: "dim_product.scd_strategy",
			Question: fmt.Sprintf("Product categories change (%s). What SCD strategy?", freq),
			Hints: []string{
				"Type 1: overwrite (loses history)",
				"Type 2: add rows (preserves history, needs effective dates)",
				"Consider marking category attributes as scd_tracked: true",
			},
			DecisionType: "scd",
		})
	}

	if cfg.Products.SKUReuse {
		sc.Warnings = append(sc.Warnings, "dim_product: SKU codes are reused for different products over time")
		sc.Todos = append(sc.Todos, Todo{
			Location: "dim_product.natural_key",
			Question: "SKUs are reused. Is SKU alone sufficient as natural key?",
			Hints: []string{
				"May need a composite key: sku plus effective-from date",
				"Or use the surrogate key and track SKU history",
				"The current setup will conflate different products with the same SKU",
			},
			DecisionType: "identity",
		})
	}

	sc.Schema.DimensionTables = append(sc.Schema.DimensionTables, dim)
}

func addStoreDimension(sc *Scaffold, cfg *shop.Config) {
	dim := schema.DimensionTable{
		Name:         "dim_store",
		NaturalKey:   []string{"store_id"},
		SurrogateKey: "store_key",
		SCDStrategy:  schema.SCDType1,
		Attributes: []schema.DimensionAttribute{
			{Name: "store_id", DataType: "varchar"},
			{Name: "store_name", DataType: "varchar"},
			{Name: "channel", DataType: "varchar"},
		},
	}

	if cfg.Stores.PhysicalStores > 0 {
		dim.Attributes = append(dim.Attributes,
			schema.DimensionAttribute{Name: "address", DataType: "varchar"},
			schema.DimensionAttribute{Name: "city", DataType: "varchar"},
			schema.DimensionAttribute{Name: "state", DataType: "varchar"},
		)
	}

	if cfg.Stores.LifecycleChanges {
		dim.Attributes = append(dim.Attributes,
			schema.DimensionAttribute{Name: "open_date", DataType: "date"},
			schema.DimensionAttribute{Name: "close_date", DataType: "date"},
		)
		sc.Warnings = append(sc.Warnings, "dim_store: stores open, close, and merge; Type 1 loses that history")
		sc.Todos = append(sc.Todos, Todo{
			Location: "dim_store.scd_strategy",
			Question: "Stores have lifecycle changes. How will you track store history?",
			Hints: []string{
				"Type 2 SCD to track openings, closings, and merges",
				"Store merges are particularly tricky",
				"Consider how to attribute historical sales after a merge",
			},
			DecisionType: "scd",
		})
	}

	sc.Schema.DimensionTables = append(sc.Schema.DimensionTables, dim)
}

func addCustomerDimension(sc *Scaffold, cfg *shop.Config) {
	reliability := cfg.Customers.IDReliability
	if reliability == shop.CustomerIDAbsent {
		sc.Warnings = append(sc.Warnings, "no customer IDs in this shop; a customer dimension may not be needed")
		return
	}

	dim := schema.DimensionTable{
		Name:         "dim_customer",
		NaturalKey:   []string{"customer_id"},
		SurrogateKey: "customer_key",
		SCDStrategy:  schema.SCDType1,
		Attributes: []schema.DimensionAttribute{
			{Name: "customer_id", DataType: "varchar"},
			{Name: "customer_type", DataType: "varchar"},
		},
	}

	if reliability == shop.CustomerIDUnreliable {
		sc.Warnings = append(sc.Warnings, "dim_customer: customer IDs are unreliable; they may merge, split, or be duplicated")
		sc.Todos = append(sc.Todos, Todo{
			Location: "dim_customer",
			Question: "Customer IDs are unreliable. How will you handle identity issues?",
			Hints: []string{
				"Consider fuzzy matching or identity resolution",
				"May need a customer alias bridge table",
				"Accept some data quality issues or clean upstream",
			},
			DecisionType: "identity",
		})
	}

	if cfg.Customers.AnonymousAllowed {
		dim.Attributes = append(dim.Attributes, schema.DimensionAttribute{Name: "is_anonymous", DataType: "boolean"})
	}

	if cfg.Customers.HouseholdGrouping {
		dim.Attributes = append(dim.Attributes, schema.DimensionAttribute{Name: "household_id", DataType: "varchar"})
		sc.Todos = append(sc.Todos, Todo{
			Location: "dim_customer.household_id",
			Question: "Customers are grouped into households. How will you model this?",
			Hints: []string{
				"Simple: household_id attribute in dim_customer",
				"Complex: separate dim_household with a relationship",
				"Households change over time; consider SCD",
			},
			DecisionType: "relationship",
		})
	}

	sc.Schema.DimensionTables = append(sc.Schema.DimensionTables, dim)
}

// addRelationships joins each fact to every dimension its key list names,
// provided the dimension actually exists in the skeleton.
func addRelationships(sc *Scaffold, cfg *shop.Config) {
	for _, fact := range sc.Schema.FactTables {
		for _, key := range fact.DimensionKeys {
			dimName := "dim_" + strings.TrimSuffix(key, "_key")
			if sc.Schema.DimensionTable(dimName) == nil {
				continue
			}
			sc.Schema.Relationships = append(sc.Schema.Relationships, schema.Relationship{
				FactTable:       fact.Name,
				DimensionTable:  dimName,
				FactColumn:      key,
				DimensionColumn: key,
				Cardinality:     "many-to-one",
			})
		}
	}

	if cfg.Promotions.PerLineItem == shop.PromotionsMany {
		sc.Todos = append(sc.Todos, Todo{
			Location: "relationships",
			Question: "Multiple promotions can apply to one line item. How will you model that?",
			Hints: []string{
				"Bridge table: bridge_sales_promotion",
				"Separate promotion fact table",
				"Array or JSON column (limited queryability)",
			},
			DecisionType: "relationship",
		})
	}
}

func addGlobalWarnings(sc *Scaffold, cfg *shop.Config) {
	if cfg.HasVoids() {
		sc.Warnings = append(sc.Warnings, "voids are enabled; decide how to track or exclude voided transactions")
	}
	if cfg.Transactions.ManualOverrides {
		sc.Warnings = append(sc.Warnings, "manual price overrides are allowed; decide how to track original versus charged price")
	}
	if cfg.Promotions.PostTransaction {
		sc.Warnings = append(sc.Warnings, "post-transaction promotions exist; adjustments arrive after the sale")
	}
}

// Render produces the scaffold as annotated YAML: warnings and open
// questions as comments above the editable schema document.
func (sc *Scaffold) Render() (string, error) {
	var b strings.Builder
	b.WriteString("# Schema scaffold. Edit freely; the defaults below are a starting point,\n")
	b.WriteString("# not a recommendation.\n")

	if len(sc.Warnings) > 0 {
		b.WriteString("#\n# Warnings:\n")
		for _, w := range sc.Warnings {
			fmt.Fprintf(&b, "#   - %s\n", w)
		}
	}
	if len(sc.Todos) > 0 {
		b.WriteString("#\n# Open decisions:\n")
		for _, td := range sc.Todos {
			fmt.Fprintf(&b, "#   [%s] %s\n", td.Location, td.Question)
			for _, h := range td.Hints {
				fmt.Fprintf(&b, "#       * %s\n", h)
			}
		}
	}
	b.WriteString("\n")

	raw, err := yaml.Marshal(&sc.Schema)
	if err != nil {
		return "", fmt.Errorf("scaffold: render: %w", err)
	}
	b.Write(raw)
	return b.String(), nil
}
