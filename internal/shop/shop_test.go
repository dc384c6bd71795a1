package shop

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestGenerateDeterminism(t *testing.T) {
	for _, d := range Difficulties() {
		a, err := Generate(42, d)
		if err != nil {
			t.Fatalf("Generate(42, %s): %v", d, err)
		}
		b, err := Generate(42, d)
		if err != nil {
			t.Fatalf("Generate(42, %s) second call: %v", d, err)
		}
		aj, _ := json.Marshal(a)
		bj, _ := json.Marshal(b)
		if !bytes.Equal(aj, bj) {
			t.Errorf("difficulty %s: repeated generation differs:\n%s\n%s", d, aj, bj)
		}
	}
}

func TestGenerateVariesAcrossSeeds(t *testing.T) {
	seen := make(map[string]bool)
	for seed := int64(0); seed < 20; seed++ {
		cfg, err := Generate(seed, DifficultyMedium)
		if err != nil {
			t.Fatalf("Generate(%d, medium): %v", seed, err)
		}
		j, _ := json.Marshal(cfg)
		seen[string(j)] = true
	}
	if len(seen) < 2 {
		t.Errorf("expected seed to influence the config, got %d distinct configs from 20 seeds", len(seen))
	}
}

func TestGenerateSatisfiesConstraints(t *testing.T) {
	for _, d := range Difficulties() {
		for seed := int64(0); seed < 50; seed++ {
			cfg, err := Generate(seed, d)
			if err != nil {
				t.Fatalf("Generate(%d, %s): %v", seed, d, err)
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("Generate(%d, %s) produced invalid config: %v", seed, d, err)
			}
			if cfg.Seed != seed || cfg.Difficulty != d {
				t.Errorf("Generate(%d, %s): config carries seed=%d difficulty=%s", seed, d, cfg.Seed, cfg.Difficulty)
			}
			if cfg.ShopName == "" {
				t.Errorf("Generate(%d, %s): empty shop name", seed, d)
			}
			if cfg.Stores.PhysicalStores == 0 && !cfg.Stores.OnlineChannel {
				t.Errorf("Generate(%d, %s): no sales channel", seed, d)
			}
		}
	}
}

func TestEasyTierGating(t *testing.T) {
	for seed := int64(0); seed < 100; seed++ {
		cfg, err := Generate(seed, DifficultyEasy)
		if err != nil {
			t.Fatalf("Generate(%d, easy): %v", seed, err)
		}
		if cfg.Transactions.Grain == GrainMixed {
			t.Errorf("seed %d: mixed grain drawn at easy", seed)
		}
		if cfg.Products.SKUReuse {
			t.Errorf("seed %d: SKU reuse drawn at easy", seed)
		}
		if cfg.Customers.HouseholdGrouping {
			t.Errorf("seed %d: household grouping drawn at easy", seed)
		}
		if cfg.Promotions.PostTransaction {
			t.Errorf("seed %d: post-transaction promotions drawn at easy", seed)
		}
		if cfg.Stores.LifecycleChanges {
			t.Errorf("seed %d: store lifecycle changes drawn at easy", seed)
		}
		if cfg.Returns.PricingPolicy == ReturnPriceOverride {
			t.Errorf("seed %d: arbitrary return pricing drawn at easy", seed)
		}
	}
}

func TestEnabledAtMonotonic(t *testing.T) {
	tiers := Difficulties()
	for i := 1; i < len(tiers); i++ {
		prev := make(map[string]bool)
		for _, tr := range EnabledAt(tiers[i-1]) {
			prev[tr.ID] = true
		}
		cur := make(map[string]bool)
		for _, tr := range EnabledAt(tiers[i]) {
			cur[tr.ID] = true
		}
		for id := range prev {
			if !cur[id] {
				t.Errorf("trap %s enabled at %s but not at %s", id, tiers[i-1], tiers[i])
			}
		}
		if len(cur) < len(prev) {
			t.Errorf("trap pool shrank from %s (%d) to %s (%d)", tiers[i-1], len(prev), tiers[i], len(cur))
		}
	}
}

func TestEnabledTraps(t *testing.T) {
	cfg := &Config{
		Seed:       1,
		Difficulty: DifficultyHard,
		ShopName:   "Test Mart",
		Transactions: TransactionRules{
			Grain:        GrainMixed,
			VoidsEnabled: true,
		},
		Time: TimeRules{
			TimestampRelation:    TimestampDivergent,
			BackdatedCorrections: true,
		},
		Customers: CustomerRules{IDReliability: CustomerIDUnreliable},
		Stores:    StoreRules{PhysicalStores: 2, OnlineChannel: true},
		Promotions: PromotionRules{
			PerLineItem: PromotionsOne,
		},
		Returns: ReturnRules{
			ReferencePolicy: ReturnRefAlways,
			PricingPolicy:   ReturnPriceCurrent,
		},
	}

	got := make(map[string]bool)
	for _, tr := range EnabledTraps(cfg) {
		got[tr.ID] = true
	}

	want := []string{"mixed_grain", "voids", "date_divergence", "backdated_corrections", "unreliable_ids"}
	for _, id := range want {
		if !got[id] {
			t.Errorf("expected trap %s to be enabled", id)
		}
	}
	absent := []string{"receipt_grain", "multi_promotion", "orphan_returns", "no_customer_ids", "household_grouping"}
	for _, id := range absent {
		if got[id] {
			t.Errorf("trap %s should not be enabled", id)
		}
	}
}

func TestParseDifficulty(t *testing.T) {
	cases := []struct {
		in      string
		want    Difficulty
		wantErr bool
	}{
		{"easy", DifficultyEasy, false},
		{"medium", DifficultyMedium, false},
		{"hard", DifficultyHard, false},
		{"adversarial", DifficultyAdversarial, false},
		{"EASY", DifficultyEasy, false},
		{"nightmare", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := ParseDifficulty(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseDifficulty(%q): expected error, got %s", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDifficulty(%q): %v", tc.in, err)
		} else if got != tc.want {
			t.Errorf("ParseDifficulty(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestValidateRejectsConflicts(t *testing.T) {
	cfg := &Config{
		Seed:       1,
		Difficulty: DifficultyHard,
		ShopName:   "Test Mart",
		Customers: CustomerRules{
			IDReliability:     CustomerIDAbsent,
			HouseholdGrouping: true,
		},
		Stores:  StoreRules{OnlineChannel: true},
		Returns: ReturnRules{ReferencePolicy: ReturnRefAlways, PricingPolicy: ReturnPriceCurrent},
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected household grouping without customer IDs to fail validation")
	}
}
