package shop

import "fmt"

// TransactionRules configures transaction recording behavior.
type TransactionRules struct {
	Grain            TransactionGrain `json:"grain" yaml:"grain"`
	MultiplePayments bool             `json:"multiple_payments" yaml:"multiple_payments"`
	VoidsEnabled     bool             `json:"voids_enabled" yaml:"voids_enabled"`
	ManualOverrides  bool             `json:"manual_overrides" yaml:"manual_overrides"`
}

// TimeRules configures time semantics.
type TimeRules struct {
	TimestampRelation    TimestampRelation `json:"timestamp_business_date_relation" yaml:"timestamp_business_date_relation"`
	LateArrivingEvents   bool              `json:"late_arriving_events" yaml:"late_arriving_events"`
	BackdatedCorrections bool              `json:"backdated_corrections" yaml:"backdated_corrections"`
}

// ProductRules configures product catalog behavior.
type ProductRules struct {
	SKUReuse         bool                     `json:"sku_reuse" yaml:"sku_reuse"`
	HierarchyChanges HierarchyChangeFrequency `json:"hierarchy_change_frequency" yaml:"hierarchy_change_frequency"`
	BundledProducts  bool                     `json:"bundled_products" yaml:"bundled_products"`
	VirtualProducts  bool                     `json:"virtual_products" yaml:"virtual_products"`
}

// CustomerRules configures customer identity handling.
type CustomerRules struct {
	AnonymousAllowed  bool                  `json:"anonymous_allowed" yaml:"anonymous_allowed"`
	IDReliability     CustomerIDReliability `json:"customer_id_reliability" yaml:"customer_id_reliability"`
	HouseholdGrouping bool                  `json:"household_grouping" yaml:"household_grouping"`
}

// StoreRules configures store and channel behavior. PhysicalStores is a
// count; zero means online-only.
type StoreRules struct {
	PhysicalStores    int  `json:"physical_stores" yaml:"physical_stores"`
	OnlineChannel     bool `json:"online_channel" yaml:"online_channel"`
	CrossStoreReturns bool `json:"cross_store_returns" yaml:"cross_store_returns"`
	LifecycleChanges  bool `json:"store_lifecycle_changes" yaml:"store_lifecycle_changes"`
}

// PromotionRules configures promotion behavior.
type PromotionRules struct {
	PerLineItem     PromotionsPerLine `json:"promotions_per_line_item" yaml:"promotions_per_line_item"`
	Stackable       bool              `json:"stackable_promotions" yaml:"stackable_promotions"`
	BasketLevel     bool              `json:"basket_level_promotions" yaml:"basket_level_promotions"`
	PostTransaction bool              `json:"post_transaction_promotions" yaml:"post_transaction_promotions"`
}

// ReturnRules configures return handling.
type ReturnRules struct {
	ReferencePolicy ReturnReferencePolicy `json:"reference_policy" yaml:"reference_policy"`
	PricingPolicy   ReturnPricingPolicy   `json:"pricing_policy" yaml:"pricing_policy"`
}

// InventoryRules configures inventory tracking.
type InventoryRules struct {
	Tracked bool          `json:"tracked" yaml:"tracked"`
	Mode    InventoryMode `json:"inventory_mode,omitempty" yaml:"inventory_mode,omitempty"`
}

// Config is the complete resolved rule set for one generated shop. It is
// immutable once generated; evaluation and explanation treat it as ground
// truth. The schema being graded never influences it.
type Config struct {
	Seed       int64      `json:"seed" yaml:"seed"`
	Difficulty Difficulty `json:"difficulty" yaml:"difficulty"`
	ShopName   string     `json:"shop_name" yaml:"shop_name"`

	Transactions TransactionRules `json:"transactions" yaml:"transactions"`
	Time         TimeRules        `json:"time" yaml:"time"`
	Products     ProductRules     `json:"products" yaml:"products"`
	Customers    CustomerRules    `json:"customers" yaml:"customers"`
	Stores       StoreRules       `json:"stores" yaml:"stores"`
	Promotions   PromotionRules   `json:"promotions" yaml:"promotions"`
	Returns      ReturnRules      `json:"returns" yaml:"returns"`
	Inventory    InventoryRules   `json:"inventory" yaml:"inventory"`
}

// HasReturns reports whether return events can occur.
func (c *Config) HasReturns() bool { return c.Returns.ReferencePolicy != ReturnRefNever }

// HasVoids reports whether void events can occur.
func (c *Config) HasVoids() bool { return c.Transactions.VoidsEnabled }

// HasCorrections reports whether backdated correction events can occur.
func (c *Config) HasCorrections() bool { return c.Time.BackdatedCorrections }

// HasInventory reports whether inventory movements are recorded.
func (c *Config) HasInventory() bool { return c.Inventory.Tracked }

// Validate checks the config against every catalog constraint. Generation
// re-draws on failure; a Validate failure on a loaded document means the
// document was edited by hand or produced by a different catalog version.
func (c *Config) Validate() error {
	for _, cn := range catalogConstraints {
		if err := cn.Check(c); err != nil {
			return fmt.Errorf("constraint %s: %w", cn.Name, err)
		}
	}
	return nil
}
