package events

import (
	"fmt"
	"strings"

	"github.com/jfarrand/dimsim/internal/rng"
	"github.com/jfarrand/dimsim/internal/shop"
)

// Default simulation bounds.
const (
	DefaultEventCount = 1000
	DefaultMaxDays    = 30
)

// Simulator produces an event log for a shop configuration. Every random
// draw comes from a stream forked off the config's seed, so the same config
// always produces the same log.
type Simulator struct {
	cfg      *shop.Config
	state    *WorldState
	emitters []emitter

	clock     *rng.Stream
	changes   *rng.Stream
	lifecycle *rng.Stream
	postHoc   *rng.Stream
}

// NewSimulator prepares a simulator with the emitters the config calls for.
func NewSimulator(cfg *shop.Config) *Simulator {
	base := rng.New(cfg.Seed)
	sim := &Simulator{
		cfg:       cfg,
		state:     NewWorldState(cfg, base.Fork("world")),
		clock:     base.Fork("time"),
		changes:   base.Fork("product_changes"),
		lifecycle: base.Fork("store_lifecycle"),
		postHoc:   base.Fork("post_hoc_promotions"),
	}

	sim.emitters = append(sim.emitters, &saleEmitter{cfg: cfg, r: base.Fork("sales")})
	if cfg.HasReturns() {
		sim.emitters = append(sim.emitters, &returnEmitter{cfg: cfg, r: base.Fork("returns")})
	}
	if cfg.HasVoids() {
		sim.emitters = append(sim.emitters, &voidEmitter{cfg: cfg, r: base.Fork("voids")})
	}
	if cfg.HasCorrections() {
		sim.emitters = append(sim.emitters, &correctionEmitter{cfg: cfg, r: base.Fork("corrections")})
	}
	if cfg.HasInventory() {
		sim.emitters = append(sim.emitters, &inventoryEmitter{cfg: cfg, r: base.Fork("inventory")})
	}
	return sim
}

// Simulate runs day by day until numEvents are produced or maxDays elapse.
// Events are returned timestamp-ordered with emission order as tiebreak.
func (sim *Simulator) Simulate(numEvents, maxDays int) (*Log, error) {
	if numEvents <= 0 {
		numEvents = DefaultEventCount
	}
	if maxDays <= 0 {
		maxDays = DefaultMaxDays
	}
	if err := sim.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("events: invalid config: %w", err)
	}

	var evs []Event
	days := 0
	for len(evs) < numEvents && days < maxDays {
		evs = append(evs, sim.simulateDay()...)
		evs = append(evs, sim.endOfDay()...)
		sim.state.AdvanceBusinessDay()
		days++
	}

	sortEvents(evs)
	truncated := len(evs) < numEvents
	if len(evs) > numEvents {
		evs = evs[:numEvents]
	}

	return &Log{
		Seed:          sim.cfg.Seed,
		Difficulty:    sim.cfg.Difficulty,
		ShopName:      sim.cfg.ShopName,
		DaysSimulated: days,
		Truncated:     truncated,
		Events:        evs,
	}, nil
}

// simulateDay ticks through one business day, opening to close.
func (sim *Simulator) simulateDay() []Event {
	var evs []Event
	for sim.state.Now.Hour() < 23 {
		for _, e := range sim.emitters {
			if e.shouldEmit(sim.state) {
				evs = append(evs, e.emit(sim.state)...)
			}
		}
		sim.state.AdvanceTime(sim.clock.IntRange(5, 30))
	}
	return evs
}

// endOfDay emits the slow-moving events: catalog changes, store lifecycle
// moves, and post-hoc promotions against earlier transactions.
func (sim *Simulator) endOfDay() []Event {
	var evs []Event
	evs = append(evs, sim.maybeProductChange()...)
	evs = append(evs, sim.maybeSKUReuse()...)
	evs = append(evs, sim.maybeStoreChange()...)
	evs = append(evs, sim.maybePostHocPromotion()...)
	return evs
}

func (sim *Simulator) maybeProductChange() []Event {
	var prob float64
	switch sim.cfg.Products.HierarchyChanges {
	case shop.HierarchyChangeOccasional:
		prob = 0.1
	case shop.HierarchyChangeFrequent:
		prob = 0.3
	default:
		return nil
	}
	if !sim.changes.Bool(prob) {
		return nil
	}
	products := sim.state.ActiveProducts()
	if len(products) == 0 {
		return nil
	}
	product := rng.Choice(sim.changes, products)

	if sim.changes.Bool(0.5) {
		old := strings.Join(product.Category, " > ")
		category := rng.Choice(sim.changes, productCategories)
		product.Category = append([]string(nil), category...)
		return []Event{&ProductChange{
			Envelope:   sim.envelopeNow(),
			SKU:        product.SKU,
			ChangeType: "hierarchy",
			OldValue:   old,
			NewValue:   strings.Join(product.Category, " > "),
		}}
	}

	old := product.CurrentPriceCents
	adjusted := old + sim.changes.IntRange(-1000, 1000)
	if adjusted < 100 {
		adjusted = 100
	}
	product.CurrentPriceCents = adjusted
	return []Event{&PriceAdjustment{
		Envelope:      sim.envelopeNow(),
		SKU:           product.SKU,
		OldPriceCents: old,
		NewPriceCents: adjusted,
	}}
}

// maybeSKUReuse reassigns an existing SKU to a brand new product, the
// nastiest identity trap in the catalog.
func (sim *Simulator) maybeSKUReuse() []Event {
	if !sim.cfg.Products.SKUReuse || !sim.changes.Bool(0.05) {
		return nil
	}
	products := sim.state.ActiveProducts()
	if len(products) == 0 {
		return nil
	}
	product := rng.Choice(sim.changes, products)

	oldName := product.Name
	category := rng.Choice(sim.changes, productCategories)
	product.Name = fmt.Sprintf("Product %d (rebadged)", sim.changes.IntRange(1000, 9999))
	product.Category = append([]string(nil), category...)
	product.CurrentPriceCents = sim.changes.IntRange(100, 10000)

	return []Event{&ProductChange{
		Envelope:   sim.envelopeNow(),
		SKU:        product.SKU,
		ChangeType: "sku_reassigned",
		OldValue:   oldName,
		NewValue:   product.Name,
	}}
}

func (sim *Simulator) maybeStoreChange() []Event {
	if !sim.cfg.Stores.LifecycleChanges || !sim.lifecycle.Bool(0.05) {
		return nil
	}
	var physical []*StoreState
	for _, st := range sim.state.Stores {
		if st.Channel == "physical" && st.Open {
			physical = append(physical, st)
		}
	}
	// Closing the last open channel would stop the simulation dead.
	if len(physical) < 2 {
		return nil
	}

	switch rng.Choice(sim.lifecycle, []string{"close", "merge"}) {
	case "close":
		st := rng.Choice(sim.lifecycle, physical)
		st.Open = false
		st.CloseDate = sim.state.BusinessDate
		return []Event{&StoreChange{
			Envelope:   sim.envelopeNow(),
			StoreID:    st.StoreID,
			ChangeType: "close",
		}}
	default:
		picked := rng.Sample(sim.lifecycle, physical, 2)
		from, into := picked[0], picked[1]
		from.Open = false
		from.CloseDate = sim.state.BusinessDate
		return []Event{&StoreChange{
			Envelope:       sim.envelopeNow(),
			StoreID:        from.StoreID,
			ChangeType:     "merge",
			RelatedStoreID: into.StoreID,
		}}
	}
}

// maybePostHocPromotion applies a promotion to a transaction from an earlier
// business day. The promotion's business date is the day it was granted, not
// the day of the sale it discounts.
func (sim *Simulator) maybePostHocPromotion() []Event {
	if !sim.cfg.Promotions.PostTransaction || !sim.postHoc.Bool(0.2) {
		return nil
	}
	var eligible []*TransactionRecord
	for _, rec := range sim.state.Transactions {
		if rec.BusinessDate.Before(sim.state.BusinessDate) && !sim.state.Voided[rec.TransactionID] {
			eligible = append(eligible, rec)
		}
	}
	if len(eligible) == 0 || len(sim.state.Promos) == 0 {
		return nil
	}
	rec := rng.Choice(sim.postHoc, eligible)
	promo := rng.Choice(sim.postHoc, sim.state.Promos)

	discount := promo.DiscountValue
	if promo.DiscountType == "percent" {
		discount = rec.TotalCents * promo.DiscountValue / 100
	}

	lineNumber := 0
	if !promo.BasketLevel && len(rec.Lines) > 0 {
		lineNumber = rng.Choice(sim.postHoc, rec.Lines).LineNumber
	}

	return []Event{&PromotionApplied{
		Envelope:      sim.envelopeNow(),
		TransactionID: rec.TransactionID,
		LineNumber:    lineNumber,
		PromotionCode: promo.Code,
		DiscountCents: discount,
		PostHoc:       true,
	}}
}

func (sim *Simulator) envelopeNow() Envelope {
	return Envelope{
		EventID:        sim.state.NewEventID(),
		EventTimestamp: sim.state.Now,
		BusinessDate:   sim.state.BusinessDate,
	}
}
