package describe

import (
	"strings"
	"testing"

	"github.com/jfarrand/dimsim/internal/shop"
)

func TestGenerateDeterministic(t *testing.T) {
	cfg, err := shop.Generate(42, shop.DifficultyMedium)
	if err != nil {
		t.Fatalf("generate config: %v", err)
	}

	first, err := Generate(cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	second, err := Generate(cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if first != second {
		t.Error("same config produced different descriptions")
	}
}

func TestGenerateSections(t *testing.T) {
	cfg, err := shop.Generate(7, shop.DifficultyHard)
	if err != nil {
		t.Fatalf("generate config: %v", err)
	}

	text, err := Generate(cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !strings.Contains(text, "# "+cfg.ShopName) {
		t.Errorf("description missing shop name heading %q", cfg.ShopName)
	}
	for _, heading := range []string{
		"## Transactions",
		"## Time Semantics",
		"## Products",
		"## Customers",
		"## Stores and Channels",
		"## Promotions",
		"## Returns",
		"## Inventory",
	} {
		if !strings.Contains(text, heading) {
			t.Errorf("description missing section %q", heading)
		}
	}
}

func TestGenerateFlagsMixedGrainAmbiguity(t *testing.T) {
	cfg := &shop.Config{
		Seed:     99,
		ShopName: "Testmart",
		Transactions: shop.TransactionRules{
			Grain:           shop.GrainMixed,
			ManualOverrides: true,
		},
	}

	text, err := Generate(cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !strings.Contains(text, "Things to watch out for:") {
		t.Error("ambiguous config produced no warnings")
	}
	if !strings.Contains(text, "aggregated or itemized") {
		t.Error("mixed grain ambiguity not surfaced")
	}
	if !strings.Contains(text, "Manual overrides are not always distinguishable") {
		t.Error("manual override ambiguity not surfaced")
	}
}

func TestGenerateNoReturns(t *testing.T) {
	cfg := &shop.Config{
		Seed:     3,
		ShopName: "Finality",
		Returns:  shop.ReturnRules{ReferencePolicy: shop.ReturnRefNever},
	}

	text, err := Generate(cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(text, "All sales are final") {
		t.Error("no-returns config should state that sales are final")
	}
}

func TestGenerateNeverNamesTraps(t *testing.T) {
	cfg, err := shop.Generate(42, shop.DifficultyAdversarial)
	if err != nil {
		t.Fatalf("generate config: %v", err)
	}

	text, err := Generate(cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	lower := strings.ToLower(text)
	for _, leak := range []string{"trap", "scd", "slowly changing", "fan-out", "fan out", "grain violation"} {
		if strings.Contains(lower, leak) {
			t.Errorf("description leaks modeling terminology %q", leak)
		}
	}
}
