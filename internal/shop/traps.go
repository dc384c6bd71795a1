package shop

// EnabledTraps reports which catalog traps a config actually activates,
// in catalog order. This drives the briefing shown before a session and the
// trap-aware parts of evaluation.
func EnabledTraps(cfg *Config) []Trap {
	active := map[string]bool{
		"mixed_grain":              cfg.Transactions.Grain == GrainMixed,
		"receipt_grain":            cfg.Transactions.Grain == GrainReceiptLevel,
		"multi_payment":            cfg.Transactions.MultiplePayments,
		"multi_promotion":          cfg.Promotions.PerLineItem == PromotionsMany,
		"date_divergence":          cfg.Time.TimestampRelation == TimestampDivergent,
		"backdated_corrections":    cfg.Time.BackdatedCorrections,
		"late_arrivals":            cfg.Time.LateArrivingEvents,
		"hierarchy_drift":          cfg.Products.HierarchyChanges != HierarchyChangeNone,
		"post_hoc_promotions":      cfg.Promotions.PostTransaction,
		"unreliable_ids":           cfg.Customers.IDReliability == CustomerIDUnreliable,
		"no_customer_ids":          cfg.Customers.IDReliability == CustomerIDAbsent,
		"sku_reuse":                cfg.Products.SKUReuse,
		"optional_return_refs":     cfg.Returns.ReferencePolicy == ReturnRefSometimes,
		"orphan_returns":           cfg.Returns.ReferencePolicy == ReturnRefNever,
		"arbitrary_return_pricing": cfg.Returns.PricingPolicy == ReturnPriceOverride,
		"voids":                    cfg.Transactions.VoidsEnabled,
		"manual_overrides":         cfg.Transactions.ManualOverrides,
		"cross_store_returns":      cfg.Stores.CrossStoreReturns,
		"store_lifecycle":          cfg.Stores.LifecycleChanges,
		"household_grouping":       cfg.Customers.HouseholdGrouping,
		"bundles":                  cfg.Products.BundledProducts,
	}

	var out []Trap
	for _, t := range Catalog {
		if active[t.ID] {
			out = append(out, t)
		}
	}
	return out
}
