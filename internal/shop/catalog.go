package shop

import "errors"

// TrapCategory groups traps by the kind of modeling hazard they create.
type TrapCategory string

const (
	TrapGrain        TrapCategory = "grain"
	TrapTemporal     TrapCategory = "temporal"
	TrapIdentity     TrapCategory = "identity"
	TrapSemantic     TrapCategory = "semantic"
	TrapRelationship TrapCategory = "relationship"
)

// Trap is a catalog entry for one deliberately difficult modeling condition.
// MinDifficulty is the lowest tier at which the generator may select it;
// higher tiers always include everything a lower tier enables.
type Trap struct {
	ID            string       `json:"id"`
	Category      TrapCategory `json:"category"`
	Name          string       `json:"name"`
	Threat        string       `json:"threat"`        // "will try to break you by ..."
	ConfigSource  string       `json:"config_source"` // config field and value that enables this trap
	MinDifficulty Difficulty   `json:"min_difficulty"`
	Conflicts     []string     `json:"conflicts,omitempty"` // trap IDs that cannot co-occur with this one
	Requires      []string     `json:"requires,omitempty"`  // trap IDs or capabilities this one depends on
}

// Catalog is the full trap table. Constraints between configuration fields
// live in catalogConstraints; this table is what difficulty gating and the
// briefing layer read.
var Catalog = []Trap{
	{ID: "mixed_grain", Category: TrapGrain, Name: "Mixed Transaction Grain",
		Threat:        "mixing line-item and receipt-level transactions unpredictably",
		ConfigSource:  "transactions.grain=mixed",
		MinDifficulty: DifficultyMedium},
	{ID: "receipt_grain", Category: TrapGrain, Name: "Receipt-Level Grain",
		Threat:        "aggregating away line-item detail at the register",
		ConfigSource:  "transactions.grain=receipt_level",
		MinDifficulty: DifficultyEasy},
	{ID: "multi_payment", Category: TrapGrain, Name: "Multiple Payments",
		Threat:        "splitting payments across multiple tender types per transaction",
		ConfigSource:  "transactions.multiple_payments=true",
		MinDifficulty: DifficultyEasy},
	{ID: "multi_promotion", Category: TrapGrain, Name: "Multiple Promotions Per Item",
		Threat:        "stacking multiple promotions on single line items",
		ConfigSource:  "promotions.promotions_per_line_item=many",
		MinDifficulty: DifficultyEasy},

	{ID: "date_divergence", Category: TrapTemporal, Name: "Timestamp/Business Date Divergence",
		Threat:        "recording events at midnight that belong to yesterday's business",
		ConfigSource:  "time.timestamp_business_date_relation=different",
		MinDifficulty: DifficultyEasy},
	{ID: "backdated_corrections", Category: TrapTemporal, Name: "Backdated Corrections",
		Threat:        "recording corrections today that apply to last week's transactions",
		ConfigSource:  "time.backdated_corrections=true",
		MinDifficulty: DifficultyEasy},
	{ID: "late_arrivals", Category: TrapTemporal, Name: "Late-Arriving Events",
		Threat:        "processing events days after they actually occurred",
		ConfigSource:  "time.late_arriving_events=true",
		MinDifficulty: DifficultyEasy},
	{ID: "hierarchy_drift", Category: TrapTemporal, Name: "Product Hierarchy Changes",
		Threat:        "reorganizing product categories while you are not looking",
		ConfigSource:  "products.hierarchy_change_frequency!=none",
		MinDifficulty: DifficultyEasy},
	{ID: "post_hoc_promotions", Category: TrapTemporal, Name: "Post-Transaction Promotions",
		Threat:        "applying promotions to transactions days after they closed",
		ConfigSource:  "promotions.post_transaction_promotions=true",
		MinDifficulty: DifficultyMedium},

	{ID: "unreliable_ids", Category: TrapIdentity, Name: "Unreliable Customer IDs",
		Threat:        "giving you customer IDs that merge and split randomly",
		ConfigSource:  "customers.customer_id_reliability=unreliable",
		MinDifficulty: DifficultyEasy},
	{ID: "no_customer_ids", Category: TrapIdentity, Name: "No Customer IDs",
		Threat:        "having no customer identifiers at all",
		ConfigSource:  "customers.customer_id_reliability=absent",
		MinDifficulty: DifficultyEasy,
		Conflicts:     []string{"household_grouping"}},
	{ID: "sku_reuse", Category: TrapIdentity, Name: "SKU Reuse",
		Threat:        "reusing SKU codes for completely different products over time",
		ConfigSource:  "products.sku_reuse=true",
		MinDifficulty: DifficultyMedium},

	{ID: "optional_return_refs", Category: TrapSemantic, Name: "Optional Return References",
		Threat:        "sometimes referencing original sales on returns, sometimes not",
		ConfigSource:  "returns.reference_policy=sometimes",
		MinDifficulty: DifficultyEasy},
	{ID: "orphan_returns", Category: TrapSemantic, Name: "Orphan Returns",
		Threat:        "accepting returns with no link to original transactions",
		ConfigSource:  "returns.reference_policy=never",
		MinDifficulty: DifficultyEasy},
	{ID: "arbitrary_return_pricing", Category: TrapSemantic, Name: "Arbitrary Return Pricing",
		Threat:        "overriding refund prices with values matching nothing in the system",
		ConfigSource:  "returns.pricing_policy=arbitrary_override",
		MinDifficulty: DifficultyMedium},
	{ID: "voids", Category: TrapSemantic, Name: "Transaction Voids",
		Threat:        "voiding transactions after the fact",
		ConfigSource:  "transactions.voids_enabled=true",
		MinDifficulty: DifficultyEasy},
	{ID: "manual_overrides", Category: TrapSemantic, Name: "Manual Price Overrides",
		Threat:        "letting managers amend prices at the register after the sale",
		ConfigSource:  "transactions.manual_overrides=true",
		MinDifficulty: DifficultyEasy},

	{ID: "cross_store_returns", Category: TrapRelationship, Name: "Cross-Store Returns",
		Threat:        "allowing items bought at one store to be returned at another",
		ConfigSource:  "stores.cross_store_returns=true",
		MinDifficulty: DifficultyEasy,
		Requires:      []string{"physical_stores"}},
	{ID: "store_lifecycle", Category: TrapRelationship, Name: "Store Lifecycle Changes",
		Threat:        "opening, closing, and merging stores over time",
		ConfigSource:  "stores.store_lifecycle_changes=true",
		MinDifficulty: DifficultyMedium},
	{ID: "household_grouping", Category: TrapRelationship, Name: "Household Grouping",
		Threat:        "grouping customers into households that can change",
		ConfigSource:  "customers.household_grouping=true",
		MinDifficulty: DifficultyMedium,
		Conflicts:     []string{"no_customer_ids"}},
	{ID: "bundles", Category: TrapRelationship, Name: "Bundled Products",
		Threat:        "selling products as bundles with component-level tracking",
		ConfigSource:  "products.bundled_products=true",
		MinDifficulty: DifficultyEasy},
}

// TrapByID returns the catalog entry for an ID, or nil.
func TrapByID(id string) *Trap {
	for i := range Catalog {
		if Catalog[i].ID == id {
			return &Catalog[i]
		}
	}
	return nil
}

// EnabledAt returns every trap the generator may select at the given
// difficulty. The set widens monotonically with the tier.
func EnabledAt(d Difficulty) []Trap {
	var out []Trap
	for _, t := range Catalog {
		if d.AtLeast(t.MinDifficulty) {
			out = append(out, t)
		}
	}
	return out
}

// Constraint is an invariant every generated Config must satisfy. The
// generator re-draws on violation; exhausting the retry budget means the
// catalog itself is inconsistent, which is an authoring bug, not user error.
type Constraint struct {
	Name  string
	Check func(*Config) error
}

var (
	errNoChannel          = errors.New("at least one of physical_stores or online_channel required")
	errCrossStoreChannel  = errors.New("cross_store_returns requires at least two physical stores")
	errHouseholdNeedsIDs  = errors.New("household_grouping requires customer_id_reliability != absent")
	errStackNeedsMany     = errors.New("stackable_promotions requires promotions_per_line_item = many")
	errInventoryModeUnset = errors.New("inventory_mode required when tracked")
	errInventoryModeSet   = errors.New("inventory_mode must be empty when not tracked")
	errOrphanReturnRef    = errors.New("return pricing by original price requires reference_policy != never")
)

var catalogConstraints = []Constraint{
	{Name: "store_channel_present", Check: func(c *Config) error {
		if c.Stores.PhysicalStores == 0 && !c.Stores.OnlineChannel {
			return errNoChannel
		}
		return nil
	}},
	{Name: "cross_store_returns_need_stores", Check: func(c *Config) error {
		if c.Stores.CrossStoreReturns && c.Stores.PhysicalStores < 2 {
			return errCrossStoreChannel
		}
		return nil
	}},
	{Name: "households_need_customer_ids", Check: func(c *Config) error {
		if c.Customers.HouseholdGrouping && c.Customers.IDReliability == CustomerIDAbsent {
			return errHouseholdNeedsIDs
		}
		return nil
	}},
	{Name: "stacking_needs_many_promotions", Check: func(c *Config) error {
		if c.Promotions.Stackable && c.Promotions.PerLineItem != PromotionsMany {
			return errStackNeedsMany
		}
		return nil
	}},
	{Name: "inventory_mode_consistency", Check: func(c *Config) error {
		if c.Inventory.Tracked && c.Inventory.Mode == "" {
			return errInventoryModeUnset
		}
		if !c.Inventory.Tracked && c.Inventory.Mode != "" {
			return errInventoryModeSet
		}
		return nil
	}},
	{Name: "original_price_returns_need_reference", Check: func(c *Config) error {
		if c.Returns.PricingPolicy == ReturnPriceOriginal && c.Returns.ReferencePolicy == ReturnRefNever {
			return errOrphanReturnRef
		}
		return nil
	}},
}
