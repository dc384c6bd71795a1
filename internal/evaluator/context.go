package evaluator

import (
	"fmt"

	"github.com/jfarrand/dimsim/internal/events"
	"github.com/jfarrand/dimsim/internal/shop"
)

// Context carries everything the axes need: the shop rules, the event log,
// the derived coverage requirements, and exemplar events used to make
// violations concrete.
type Context struct {
	Config *shop.Config
	Log    *events.Log

	// RequiredKinds lists the event kinds the schema must account for,
	// in the order of events.Kinds().
	RequiredKinds []events.EventKind

	// SCDDimensions maps a dimension concept (product, store, customer)
	// to the reason history tracking is required, when it is.
	SCDDimensions map[string]string

	kindCounts map[events.EventKind]int
	exemplars  map[events.EventKind]events.Event

	multiLineTxn    string // a transaction with more than one sale line
	splitPaymentTxn string // a transaction paid with more than one payment
	dayCount        int
}

// NewContext derives the coverage requirements and exemplars for one run.
func NewContext(cfg *shop.Config, log *events.Log) *Context {
	ctx := &Context{
		Config:        cfg,
		Log:           log,
		SCDDimensions: make(map[string]string),
		kindCounts:    make(map[events.EventKind]int),
		exemplars:     make(map[events.EventKind]events.Event),
	}

	required := map[events.EventKind]bool{
		events.KindSale:             true,
		events.KindPayment:          true,
		events.KindPromotionApplied: true,
	}
	if cfg.HasReturns() {
		required[events.KindReturn] = true
	}
	if cfg.HasVoids() {
		required[events.KindVoid] = true
	}
	if cfg.HasCorrections() {
		required[events.KindCorrection] = true
	}
	if cfg.HasInventory() {
		required[events.KindInventoryMovement] = true
	}
	if cfg.Products.HierarchyChanges != shop.HierarchyChangeNone || cfg.Products.SKUReuse {
		required[events.KindProductChange] = true
		required[events.KindPriceAdjustment] = true
	}
	if cfg.Stores.LifecycleChanges {
		required[events.KindStoreChange] = true
	}
	for _, k := range events.Kinds() {
		if required[k] {
			ctx.RequiredKinds = append(ctx.RequiredKinds, k)
		}
	}

	if cfg.Products.HierarchyChanges != shop.HierarchyChangeNone {
		ctx.SCDDimensions["product"] = "product hierarchy changes over time"
	}
	if cfg.Products.SKUReuse {
		ctx.SCDDimensions["product"] = "SKUs are reassigned to different products"
	}
	if cfg.Stores.LifecycleChanges {
		ctx.SCDDimensions["store"] = "stores open, close, and merge"
	}
	if cfg.Customers.HouseholdGrouping {
		ctx.SCDDimensions["customer"] = "customers move between households"
	}

	ctx.scan()
	return ctx
}

// scan walks the log once collecting counts, exemplars, and the transaction
// patterns the axes cite in violations.
func (c *Context) scan() {
	lineCount := make(map[string]int)
	payCount := make(map[string]int)
	days := make(map[events.Date]bool)

	for _, ev := range c.Log.Events {
		kind := ev.Kind()
		c.kindCounts[kind]++
		if _, ok := c.exemplars[kind]; !ok {
			c.exemplars[kind] = ev
		}
		days[ev.Meta().BusinessDate] = true

		switch e := ev.(type) {
		case *events.Sale:
			if !e.Aggregated {
				lineCount[e.TransactionID]++
				if c.multiLineTxn == "" && lineCount[e.TransactionID] > 1 {
					c.multiLineTxn = e.TransactionID
				}
			}
		case *events.Payment:
			payCount[e.TransactionID]++
			if c.splitPaymentTxn == "" && payCount[e.TransactionID] > 1 {
				c.splitPaymentTxn = e.TransactionID
			}
		}
	}
	c.dayCount = len(days)
}

// KindCount reports how many events of a kind the log holds.
func (c *Context) KindCount(k events.EventKind) int { return c.kindCounts[k] }

// Exemplar returns the first event of a kind, or nil.
func (c *Context) Exemplar(k events.EventKind) events.Event {
	return c.exemplars[k]
}

// exampleFor renders a one-line concrete example for a kind, citing a real
// event from the log when one exists.
func (c *Context) exampleFor(k events.EventKind) string {
	ev := c.exemplars[k]
	if ev == nil {
		return fmt.Sprintf("the log contains %s events", k)
	}
	m := ev.Meta()
	return fmt.Sprintf("event %s (%s on %s) has no home in this schema", m.EventID, k, m.BusinessDate)
}

// MultiLineTransaction returns a transaction ID with multiple sale lines,
// or "".
func (c *Context) MultiLineTransaction() string { return c.multiLineTxn }

// SplitPaymentTransaction returns a transaction ID with multiple payments,
// or "".
func (c *Context) SplitPaymentTransaction() string { return c.splitPaymentTxn }
