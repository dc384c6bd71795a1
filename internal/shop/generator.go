package shop

import (
	"errors"
	"fmt"

	"github.com/jfarrand/dimsim/internal/rng"
)

// ErrCatalogExhausted is returned when no constraint-satisfying config could
// be drawn within the retry budget. With the current catalog this is close to
// impossible in practice, but the budget keeps generation bounded.
var ErrCatalogExhausted = errors.New("shop: retry budget exhausted without a valid config")

// maxGenerateAttempts bounds the redraw loop when a drawn config violates a
// catalog constraint. Each attempt uses a distinct fork namespace so that
// retries stay deterministic for a given seed.
const maxGenerateAttempts = 25

var shopNamePrefixes = []string{
	"Quick", "Fresh", "Corner", "Village", "Metro", "Sunrise",
	"Golden", "Harbor", "Summit", "Maple", "Cedar", "Lakeside",
}

var shopNameSuffixes = []string{
	"Mart", "Market", "Goods", "Trading Co", "Supply", "Emporium",
	"Depot", "Outfitters", "Provisions", "General Store",
}

// Generate draws a shop configuration for the given seed and difficulty.
// The same (seed, difficulty) pair always yields the same config. Draws are
// forked per rule domain, so adding draws to one domain does not shift the
// outcomes of another.
func Generate(seed int64, difficulty Difficulty) (*Config, error) {
	w, ok := difficultyWeights[difficulty]
	if !ok {
		return nil, fmt.Errorf("shop: unknown difficulty %q", difficulty)
	}

	base := rng.New(seed)
	name := generateShopName(base.Fork("shop_name"))

	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		cfg := drawConfig(base.Fork(fmt.Sprintf("config_attempt_%d", attempt)), seed, difficulty, name, w)
		if err := cfg.Validate(); err == nil {
			return cfg, nil
		}
	}
	return nil, ErrCatalogExhausted
}

func generateShopName(s *rng.Stream) string {
	return rng.Choice(s, shopNamePrefixes) + " " + rng.Choice(s, shopNameSuffixes)
}

func drawConfig(s *rng.Stream, seed int64, difficulty Difficulty, name string, w tierWeights) *Config {
	p := w.boolTrueProb

	// gate zeroes a probability for traps that only open at higher tiers.
	gate := func(min Difficulty, prob float64) float64 {
		if !difficulty.AtLeast(min) {
			return 0
		}
		return prob
	}

	tx := s.Fork("transactions")
	transactions := TransactionRules{
		Grain:            rng.WeightedChoice(tx, w.grain.options, w.grain.weights),
		MultiplePayments: tx.Bool(p),
		VoidsEnabled:     tx.Bool(p),
		ManualOverrides:  tx.Bool(p * 0.7),
	}

	tm := s.Fork("time")
	timeRules := TimeRules{
		TimestampRelation:    rng.WeightedChoice(tm, w.timeRelation.options, w.timeRelation.weights),
		LateArrivingEvents:   tm.Bool(p),
		BackdatedCorrections: tm.Bool(p * 0.6),
	}

	pr := s.Fork("products")
	products := ProductRules{
		SKUReuse:         pr.Bool(gate(DifficultyMedium, p*0.5)),
		HierarchyChanges: rng.WeightedChoice(pr, w.hierarchy.options, w.hierarchy.weights),
		BundledProducts:  pr.Bool(p * 0.5),
		VirtualProducts:  pr.Bool(p * 0.4),
	}

	cu := s.Fork("customers")
	customers := CustomerRules{
		AnonymousAllowed:  cu.Bool(p),
		IDReliability:     rng.WeightedChoice(cu, w.customerIDs.options, w.customerIDs.weights),
		HouseholdGrouping: cu.Bool(gate(DifficultyMedium, p*0.5)),
	}

	st := s.Fork("stores")
	physical := st.IntRange(0, 5)
	online := st.Bool(0.7)
	if physical == 0 && !online {
		// At least one sales channel must exist.
		online = true
	}
	stores := StoreRules{
		PhysicalStores:    physical,
		OnlineChannel:     online,
		CrossStoreReturns: physical > 1 && st.Bool(p),
		LifecycleChanges:  st.Bool(gate(DifficultyMedium, p*0.5)),
	}

	pm := s.Fork("promotions")
	perLine := rng.WeightedChoice(pm, w.promosPerLn.options, w.promosPerLn.weights)
	promotions := PromotionRules{
		PerLineItem:     perLine,
		Stackable:       perLine == PromotionsMany && pm.Bool(p),
		BasketLevel:     pm.Bool(p),
		PostTransaction: pm.Bool(gate(DifficultyMedium, p*0.4)),
	}

	rt := s.Fork("returns")
	returns := ReturnRules{
		ReferencePolicy: rng.WeightedChoice(rt, w.returnsRef.options, w.returnsRef.weights),
		PricingPolicy:   rng.WeightedChoice(rt, w.returnsPrice.options, w.returnsPrice.weights),
	}
	if returns.PricingPolicy == ReturnPriceOriginal && returns.ReferencePolicy == ReturnRefNever {
		// Original-price refunds need a receipt to look up.
		returns.PricingPolicy = ReturnPriceCurrent
	}

	iv := s.Fork("inventory")
	inventory := InventoryRules{Tracked: iv.Bool(p)}
	if inventory.Tracked {
		inventory.Mode = rng.WeightedChoice(iv, w.invMode.options, w.invMode.weights)
	}

	return &Config{
		Seed:         seed,
		Difficulty:   difficulty,
		ShopName:     name,
		Transactions: transactions,
		Time:         timeRules,
		Products:     products,
		Customers:    customers,
		Stores:       stores,
		Promotions:   promotions,
		Returns:      returns,
		Inventory:    inventory,
	}
}
