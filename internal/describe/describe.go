// Package describe renders a shop Config as the prose briefing a modeler
// reads before designing a schema. The text states how the business operates
// and flags its genuine ambiguities, but never names the modeling traps the
// config encodes; discovering those is the exercise.
package describe

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/jfarrand/dimsim/internal/rng"
	"github.com/jfarrand/dimsim/internal/shop"
)

// section is one titled block of the rendered description.
type section struct {
	Title       string
	Paragraphs  []string
	Ambiguities []string
}

type document struct {
	ShopName   string
	Difficulty shop.Difficulty
	Sections   []section
}

var docTemplate = template.Must(template.New("shop").Parse(`# {{.ShopName}}

You have been asked to design a dimensional model for {{.ShopName}}, a retail
business. Below is everything the operations team could tell you about how
the business records its data. Read carefully; the data does not always
behave the way the happy path suggests.

{{range .Sections}}## {{.Title}}

{{range .Paragraphs}}{{.}}
{{end}}
{{- if .Ambiguities}}
Things to watch out for:

{{range .Ambiguities}}- {{.}}
{{end}}
{{- end}}
{{end -}}
`))

// Generate renders the full markdown description for a config. The output is
// a pure function of the config: the same seed always yields the same text.
func Generate(cfg *shop.Config) (string, error) {
	s := rng.New(cfg.Seed).Fork("description")

	doc := document{
		ShopName:   cfg.ShopName,
		Difficulty: cfg.Difficulty,
		Sections: []section{
			transactionsSection(s, cfg),
			timeSection(s, cfg),
			productsSection(s, cfg),
			customersSection(s, cfg),
			storesSection(cfg),
			promotionsSection(cfg),
			returnsSection(s, cfg),
			inventorySection(s, cfg),
		},
	}

	var b strings.Builder
	if err := docTemplate.Execute(&b, doc); err != nil {
		return "", fmt.Errorf("describe: render: %w", err)
	}
	return b.String(), nil
}

func transactionsSection(s *rng.Stream, cfg *shop.Config) section {
	tx := cfg.Transactions
	paras := []string{
		fmt.Sprintf("%s %s.", cfg.ShopName, pickPhrase(s, grainPhrases, string(tx.Grain))),
		pickBoolPhrase(s, multiplePaymentsPhrases, tx.MultiplePayments),
		pickBoolPhrase(s, voidsPhrases, tx.VoidsEnabled),
	}
	if tx.ManualOverrides {
		paras = append(paras, "Cashiers can manually override line prices at the register, for example to honor a shelf tag or appease an unhappy customer.")
	}

	var amb []string
	if tx.Grain == shop.GrainMixed {
		amb = append(amb, "There is no reliable indicator of whether a given transaction record contains aggregated or itemized data.")
	}
	if tx.MultiplePayments && tx.VoidsEnabled {
		amb = append(amb, "When a transaction with multiple payments is voided, the relationship between individual payment voids is not explicit.")
	}
	if tx.ManualOverrides {
		amb = append(amb, "Manual overrides are not always distinguishable from legitimate promotions in the data.")
	}
	return section{Title: "Transactions", Paragraphs: paras, Ambiguities: amb}
}

func timeSection(s *rng.Stream, cfg *shop.Config) section {
	tm := cfg.Time
	paras := []string{
		pickPhrase(s, timestampRelationPhrases, string(tm.TimestampRelation)),
		pickBoolPhrase(s, lateArrivingPhrases, tm.LateArrivingEvents),
		pickBoolPhrase(s, backdatedCorrectionsPhrases, tm.BackdatedCorrections),
	}

	var amb []string
	if tm.TimestampRelation == shop.TimestampDivergent {
		amb = append(amb, "The mapping between transaction timestamps and business dates is not deterministic; two transactions with the same timestamp might have different business dates.")
	}
	if tm.LateArrivingEvents && tm.BackdatedCorrections {
		amb = append(amb, "It can be difficult to distinguish between a late-arriving event and a backdated correction without examining the full context.")
	}
	return section{Title: "Time Semantics", Paragraphs: paras, Ambiguities: amb}
}

func productsSection(s *rng.Stream, cfg *shop.Config) section {
	pr := cfg.Products
	paras := []string{
		pickBoolPhrase(s, skuReusePhrases, pr.SKUReuse),
		pickPhrase(s, hierarchyChangePhrases, string(pr.HierarchyChanges)),
	}
	if pr.BundledProducts {
		paras = append(paras, "Some products are sold as bundles made up of component products.")
	}
	if pr.VirtualProducts {
		paras = append(paras, "The catalog includes virtual products such as gift cards and service fees that have no physical inventory.")
	}

	var amb []string
	if pr.SKUReuse {
		amb = append(amb, "When joining transactions to product master data, you must consider point-in-time accuracy since SKUs may refer to different products over time.")
	}
	if pr.BundledProducts {
		amb = append(amb, "Bundle sales may be recorded at the bundle level, component level, or both. The recording method is not always consistent.")
	}
	return section{Title: "Products", Paragraphs: paras, Ambiguities: amb}
}

func customersSection(s *rng.Stream, cfg *shop.Config) section {
	cu := cfg.Customers
	paras := []string{
		pickPhrase(s, customerReliabilityPhrases, string(cu.IDReliability)),
	}
	if cu.AnonymousAllowed && cu.IDReliability != shop.CustomerIDAbsent {
		paras = append(paras, "Customers may choose to purchase anonymously; such transactions have no customer ID.")
	}
	if cu.HouseholdGrouping {
		paras = append(paras, "Customers are grouped into households for loyalty and marketing purposes.")
	}

	var amb []string
	if cu.IDReliability == shop.CustomerIDUnreliable {
		amb = append(amb, "Customer analytics should account for both split identities (one person with multiple IDs) and merged identities (multiple people sharing an ID).")
	}
	if cu.AnonymousAllowed && cu.IDReliability != shop.CustomerIDAbsent {
		amb = append(amb, "A NULL customer ID could mean an anonymous purchase or a failure to capture the ID; these cases are not distinguished.")
	}
	if cu.HouseholdGrouping {
		amb = append(amb, "Household assignments may change over time. The current household structure may not reflect historical living arrangements.")
	}
	return section{Title: "Customers", Paragraphs: paras, Ambiguities: amb}
}

func storesSection(cfg *shop.Config) section {
	st := cfg.Stores
	var paras []string
	switch {
	case st.PhysicalStores > 0 && st.OnlineChannel:
		paras = append(paras, fmt.Sprintf("%s operates physical store locations and an online sales channel.", cfg.ShopName))
	case st.OnlineChannel:
		paras = append(paras, fmt.Sprintf("%s sells exclusively through its online channel.", cfg.ShopName))
	default:
		paras = append(paras, fmt.Sprintf("%s operates physical store locations only.", cfg.ShopName))
	}
	if st.CrossStoreReturns {
		paras = append(paras, "Purchases made at one store may be returned at a different store.")
	}
	if st.LifecycleChanges {
		paras = append(paras, "Stores open, close, and occasionally merge over the life of the business.")
	}

	var amb []string
	if st.LifecycleChanges {
		amb = append(amb, "When stores merge, historical transactions may reference the old store ID even though the store no longer exists.")
	}
	if st.PhysicalStores > 0 && st.OnlineChannel {
		amb = append(amb, "Some transactions may be ambiguous in terms of channel (e.g., buy-online-pickup-in-store).")
	}
	return section{Title: "Stores and Channels", Paragraphs: paras, Ambiguities: amb}
}

func promotionsSection(cfg *shop.Config) section {
	pm := cfg.Promotions
	var paras []string
	if pm.PerLineItem == shop.PromotionsMany {
		paras = append(paras, "A single line item may have several promotions applied to it at once.")
	} else {
		paras = append(paras, "At most one promotion applies to any given line item.")
	}
	if pm.Stackable {
		paras = append(paras, "Promotions can stack: the discounts combine rather than replacing one another.")
	}
	if pm.BasketLevel {
		paras = append(paras, "Some promotions apply at the basket level rather than to any specific line item.")
	}
	if pm.PostTransaction {
		paras = append(paras, "Certain promotions, such as mail-in rebates, are applied after the transaction has completed.")
	}

	var amb []string
	if pm.PerLineItem == shop.PromotionsMany {
		amb = append(amb, "When multiple promotions apply to a line item, the individual contribution of each promotion to the discount may not be clear.")
	}
	if pm.BasketLevel {
		amb = append(amb, "Basket-level discounts are not allocated to individual line items, making true unit economics difficult to calculate.")
	}
	if pm.PostTransaction {
		amb = append(amb, "Post-transaction promotions may create adjustment events that complicate revenue calculations.")
	}
	return section{Title: "Promotions", Paragraphs: paras, Ambiguities: amb}
}

func returnsSection(s *rng.Stream, cfg *shop.Config) section {
	rt := cfg.Returns
	if !cfg.HasReturns() {
		return section{
			Title:      "Returns",
			Paragraphs: []string{"All sales are final; the business does not accept returns."},
		}
	}
	paras := []string{
		pickPhrase(s, returnsReferencePhrases, string(rt.ReferencePolicy)),
		pickPhrase(s, returnsPricingPhrases, string(rt.PricingPolicy)),
	}

	var amb []string
	if rt.ReferencePolicy == shop.ReturnRefSometimes {
		amb = append(amb, "Returns without original transaction references cannot be reliably matched to their originating sales.")
	}
	if rt.PricingPolicy == shop.ReturnPriceOverride {
		amb = append(amb, "Return prices may not match any price in the system, making it impossible to validate return amounts programmatically.")
	}
	return section{Title: "Returns", Paragraphs: paras, Ambiguities: amb}
}

func inventorySection(s *rng.Stream, cfg *shop.Config) section {
	iv := cfg.Inventory
	if !iv.Tracked {
		return section{
			Title:      "Inventory",
			Paragraphs: []string{"Inventory levels are not tracked in this system."},
		}
	}
	paras := []string{pickPhrase(s, inventoryModePhrases, string(iv.Mode))}

	var amb []string
	if iv.Mode == shop.InventoryBoth {
		amb = append(amb, "Transactional inventory events and periodic snapshots may not always reconcile due to timing differences and untracked adjustments.")
	}
	return section{Title: "Inventory", Paragraphs: paras, Ambiguities: amb}
}
