package events

import (
	"fmt"
	"time"

	"github.com/jfarrand/dimsim/internal/rng"
	"github.com/jfarrand/dimsim/internal/shop"
)

// ProductState is one product's live master data during simulation.
type ProductState struct {
	SKU               string
	Name              string
	Category          []string
	CurrentPriceCents int
	Active            bool
	Virtual           bool
	BundleComponents  []string
}

// StoreState is one store's live master data during simulation.
type StoreState struct {
	StoreID   string
	Name      string
	Channel   string // "physical", "online"
	Open      bool
	OpenDate  Date
	CloseDate Date
	Registers []string
	Employees []string
}

// CustomerState tracks a known customer.
type CustomerState struct {
	CustomerID  string
	HouseholdID string
}

// PromotionState is one active promotion.
type PromotionState struct {
	Code           string
	Name           string
	DiscountType   string   // "percent", "fixed", "bogo"
	DiscountValue  int      // percent 0-100, or cents
	ApplicableSKUs []string // nil means all products
	StartDate      Date
	EndDate        Date
	BasketLevel    bool
	Stackable      bool
}

// TransactionRecord is the simulator's memory of a completed sale, used for
// returns, voids, and corrections that reference it later. It exists whether
// the sale was emitted as one aggregated event or as per-line events.
type TransactionRecord struct {
	TransactionID string
	EventIDs      []string
	StoreID       string
	CustomerID    string
	Timestamp     time.Time
	BusinessDate  Date
	Aggregated    bool
	Lines         []LineItem
	TotalCents    int
}

// WorldState holds the mutable simulated world. Master data lives in ordered
// slices so that random selection is reproducible; maps are lookup indexes
// only and are never iterated.
type WorldState struct {
	cfg *shop.Config
	rng *rng.Stream

	Now          time.Time
	BusinessDate Date

	Products  []*ProductState
	Stores    []*StoreState
	Customers []*CustomerState
	Promos    []*PromotionState

	productBySKU map[string]*ProductState
	storeByID    map[string]*StoreState

	// inventory[storeID][sku] = on-hand quantity
	inventory map[string]map[string]int

	Transactions []*TransactionRecord
	txnByID      map[string]*TransactionRecord
	Voided       map[string]bool

	eventSeq int
	txnSeq   int
}

// simulationStart is the fixed epoch every simulation begins from. Keeping
// it constant makes logs comparable across seeds.
var simulationStart = time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)

const (
	defaultProductCount   = 50
	defaultPromotionCount = 10
)

// NewWorldState builds the initial world for a config: products, stores,
// promotions, and starting inventory. Customers are created lazily as sales
// happen.
func NewWorldState(cfg *shop.Config, stream *rng.Stream) *WorldState {
	s := &WorldState{
		cfg:          cfg,
		rng:          stream,
		Now:          simulationStart,
		BusinessDate: DateOf(simulationStart),
		productBySKU: make(map[string]*ProductState),
		storeByID:    make(map[string]*StoreState),
		inventory:    make(map[string]map[string]int),
		txnByID:      make(map[string]*TransactionRecord),
		Voided:       make(map[string]bool),
	}
	s.seedProducts(stream.Fork("products"))
	s.seedStores(stream.Fork("stores"))
	s.seedPromotions(stream.Fork("promotions"))
	s.seedInventory(stream.Fork("inventory"))
	return s
}

var productCategories = [][]string{
	{"Grocery", "Dairy"},
	{"Grocery", "Bakery"},
	{"Grocery", "Produce"},
	{"Electronics", "Audio"},
	{"Electronics", "Computing"},
	{"Clothing", "Men"},
	{"Clothing", "Women"},
	{"Home", "Kitchen"},
	{"Home", "Garden"},
}

func (s *WorldState) seedProducts(r *rng.Stream) {
	for i := 0; i < defaultProductCount; i++ {
		sku := fmt.Sprintf("SKU-%05d", i+1)
		category := rng.Choice(r, productCategories)
		virtual := s.cfg.Products.VirtualProducts && r.Bool(0.1)
		bundle := s.cfg.Products.BundledProducts && r.Bool(0.05)

		var components []string
		if bundle && i > 2 {
			existing := make([]string, len(s.Products))
			for j, p := range s.Products {
				existing[j] = p.SKU
			}
			n := r.IntRange(2, min(3, len(existing)))
			components = rng.Sample(r, existing, n)
		}

		p := &ProductState{
			SKU:               sku,
			Name:              fmt.Sprintf("Product %d", i+1),
			Category:          append([]string(nil), category...),
			CurrentPriceCents: r.IntRange(100, 10000),
			Active:            true,
			Virtual:           virtual,
			BundleComponents:  components,
		}
		s.Products = append(s.Products, p)
		s.productBySKU[sku] = p
	}
}

func (s *WorldState) seedStores(r *rng.Stream) {
	for i := 0; i < s.cfg.Stores.PhysicalStores; i++ {
		id := fmt.Sprintf("STORE-%03d", i+1)
		st := &StoreState{
			StoreID:  id,
			Name:     fmt.Sprintf("Store #%d", i+1),
			Channel:  "physical",
			Open:     true,
			OpenDate: s.BusinessDate,
		}
		for j := 0; j < r.IntRange(2, 5); j++ {
			st.Registers = append(st.Registers, fmt.Sprintf("REG-%s-%d", id, j+1))
		}
		for j := 0; j < r.IntRange(5, 15); j++ {
			st.Employees = append(st.Employees, fmt.Sprintf("EMP-%s-%d", id, j+1))
		}
		s.Stores = append(s.Stores, st)
		s.storeByID[id] = st
	}

	if s.cfg.Stores.OnlineChannel {
		st := &StoreState{
			StoreID:   "ONLINE",
			Name:      "Online Store",
			Channel:   "online",
			Open:      true,
			OpenDate:  s.BusinessDate,
			Registers: []string{"WEB-1", "WEB-2", "MOBILE-1"},
		}
		for j := 0; j < 10; j++ {
			st.Employees = append(st.Employees, fmt.Sprintf("EMP-ONLINE-%d", j+1))
		}
		s.Stores = append(s.Stores, st)
		s.storeByID[st.StoreID] = st
	}
}

func (s *WorldState) seedPromotions(r *rng.Stream) {
	skus := make([]string, len(s.Products))
	for i, p := range s.Products {
		skus[i] = p.SKU
	}
	for i := 0; i < defaultPromotionCount; i++ {
		basket := s.cfg.Promotions.BasketLevel && r.Bool(0.3)
		stackable := s.cfg.Promotions.Stackable && r.Bool(0.4)

		var applicable []string
		if !basket && r.Bool(0.7) {
			applicable = rng.Sample(r, skus, r.IntRange(1, 10))
		}

		s.Promos = append(s.Promos, &PromotionState{
			Code:           fmt.Sprintf("PROMO-%03d", i+1),
			Name:           fmt.Sprintf("Promotion %d", i+1),
			DiscountType:   rng.Choice(r, []string{"percent", "fixed", "bogo"}),
			DiscountValue:  r.IntRange(5, 50),
			ApplicableSKUs: applicable,
			StartDate:      s.BusinessDate,
			EndDate:        s.BusinessDate.AddDays(r.IntRange(7, 90)),
			BasketLevel:    basket,
			Stackable:      stackable,
		})
	}
}

func (s *WorldState) seedInventory(r *rng.Stream) {
	if !s.cfg.Inventory.Tracked {
		return
	}
	for _, st := range s.Stores {
		s.inventory[st.StoreID] = make(map[string]int)
		for _, p := range s.Products {
			s.inventory[st.StoreID][p.SKU] = r.IntRange(50, 200)
		}
	}
}

// NewEventID allocates the next event ID in sequence.
func (s *WorldState) NewEventID() string {
	s.eventSeq++
	return fmt.Sprintf("EVT-%08d", s.eventSeq)
}

// EventSeq reports the last allocated event sequence number.
func (s *WorldState) EventSeq() int { return s.eventSeq }

// NewTransactionID allocates the next transaction ID in sequence.
func (s *WorldState) NewTransactionID() string {
	s.txnSeq++
	return fmt.Sprintf("TXN-%08d", s.txnSeq)
}

// AdvanceTime moves the clock forward within the current business day.
func (s *WorldState) AdvanceTime(minutes int) {
	s.Now = s.Now.Add(time.Duration(minutes) * time.Minute)
}

// AdvanceBusinessDay moves to the next business date at opening time.
func (s *WorldState) AdvanceBusinessDay() {
	s.BusinessDate = s.BusinessDate.AddDays(1)
	d := s.BusinessDate
	s.Now = time.Date(d.Year, d.Month, d.Day, 9, 0, 0, 0, time.UTC)
}

// OpenStores returns currently open stores in creation order.
func (s *WorldState) OpenStores() []*StoreState {
	var out []*StoreState
	for _, st := range s.Stores {
		if st.Open {
			out = append(out, st)
		}
	}
	return out
}

// ActiveProducts returns active products in creation order.
func (s *WorldState) ActiveProducts() []*ProductState {
	var out []*ProductState
	for _, p := range s.Products {
		if p.Active {
			out = append(out, p)
		}
	}
	return out
}

// Product looks up a product by SKU.
func (s *WorldState) Product(sku string) *ProductState { return s.productBySKU[sku] }

// Store looks up a store by ID.
func (s *WorldState) Store(id string) *StoreState { return s.storeByID[id] }

// Transaction looks up a recorded transaction by ID.
func (s *WorldState) Transaction(id string) *TransactionRecord { return s.txnByID[id] }

// RecordTransaction stores a completed sale for later reference.
func (s *WorldState) RecordTransaction(rec *TransactionRecord) {
	s.Transactions = append(s.Transactions, rec)
	s.txnByID[rec.TransactionID] = rec
}

// ReturnableTransactions lists transactions a return at storeID could
// reference. Cross-store policy filters out other stores' transactions.
func (s *WorldState) ReturnableTransactions(storeID string) []*TransactionRecord {
	var out []*TransactionRecord
	for _, rec := range s.Transactions {
		if s.Voided[rec.TransactionID] {
			continue
		}
		if storeID != "" && !s.cfg.Stores.CrossStoreReturns && rec.StoreID != storeID {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// CustomerForSale picks or creates a customer ID per the identity rules.
// Empty string means anonymous.
func (s *WorldState) CustomerForSale(r *rng.Stream) string {
	reliability := s.cfg.Customers.IDReliability
	if reliability == shop.CustomerIDAbsent {
		return ""
	}
	if s.cfg.Customers.AnonymousAllowed && r.Bool(0.3) {
		return ""
	}

	// Unreliable IDs sometimes mint a fresh ID for a repeat customer.
	freshID := reliability == shop.CustomerIDUnreliable && r.Bool(0.2)

	if !freshID && len(s.Customers) > 0 && r.Bool(0.7) {
		return rng.Choice(r, s.Customers).CustomerID
	}

	id := fmt.Sprintf("CUST-%06d", len(s.Customers)+1)
	household := ""
	if s.cfg.Customers.HouseholdGrouping && r.Bool(0.4) {
		var households []string
		seen := make(map[string]bool)
		for _, c := range s.Customers {
			if c.HouseholdID != "" && !seen[c.HouseholdID] {
				seen[c.HouseholdID] = true
				households = append(households, c.HouseholdID)
			}
		}
		if len(households) > 0 && r.Bool(0.5) {
			household = rng.Choice(r, households)
		} else {
			household = fmt.Sprintf("HH-%04d", len(households)+1)
		}
	}
	s.Customers = append(s.Customers, &CustomerState{CustomerID: id, HouseholdID: household})
	return id
}

// UpdateInventory applies a stock delta if inventory is tracked.
func (s *WorldState) UpdateInventory(storeID, sku string, delta int) {
	if !s.cfg.Inventory.Tracked {
		return
	}
	if s.inventory[storeID] == nil {
		s.inventory[storeID] = make(map[string]int)
	}
	if _, ok := s.inventory[storeID][sku]; !ok {
		s.inventory[storeID][sku] = 100
	}
	s.inventory[storeID][sku] += delta
}

// InventoryLevel reports current on-hand quantity.
func (s *WorldState) InventoryLevel(storeID, sku string) int {
	return s.inventory[storeID][sku]
}
