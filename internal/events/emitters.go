package events

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/jfarrand/dimsim/internal/rng"
	"github.com/jfarrand/dimsim/internal/shop"
)

var paymentMethods = []string{"cash", "credit_card", "debit_card", "gift_card", "mobile_pay"}

var returnReasons = []string{
	"defective", "wrong_item", "changed_mind", "not_as_described",
	"duplicate", "too_small", "too_large", "better_price_elsewhere",
}

var voidReasons = []string{
	"customer_request", "duplicate_entry", "cashier_error",
	"fraud_suspected", "test_transaction", "system_error",
}

var correctionReasons = []string{
	"price_correction", "quantity_correction", "customer_id_correction",
	"promotion_applied_late", "tax_adjustment", "data_entry_error",
}

var adjustmentReasons = []string{
	"receiving", "damage", "theft", "count_correction",
	"transfer_in", "transfer_out", "expired", "return_to_vendor",
}

// emitter produces events for one concern during the day loop.
type emitter interface {
	shouldEmit(s *WorldState) bool
	emit(s *WorldState) []Event
}

// saleEmitter produces sale transactions: Sale events at the configured
// grain plus the Payment and PromotionApplied events belonging to them.
type saleEmitter struct {
	cfg *shop.Config
	r   *rng.Stream
}

func (e *saleEmitter) shouldEmit(s *WorldState) bool {
	h := s.Now.Hour()
	return h >= 8 && h <= 22
}

func (e *saleEmitter) emit(s *WorldState) []Event {
	stores := s.OpenStores()
	if len(stores) == 0 {
		return nil
	}
	store := rng.Choice(e.r, stores)
	register := rng.Choice(e.r, store.Registers)
	employee := ""
	if len(store.Employees) > 0 {
		employee = rng.Choice(e.r, store.Employees)
	}
	customer := s.CustomerForSale(e.r)

	lines, promos := e.generateLines(s)
	if len(lines) == 0 {
		return nil
	}

	total := 0
	for _, li := range lines {
		total += li.UnitPriceCents*li.Quantity - li.DiscountCents
	}

	aggregated := false
	switch e.cfg.Transactions.Grain {
	case shop.GrainReceiptLevel:
		aggregated = true
	case shop.GrainMixed:
		aggregated = e.r.Bool(0.3)
	}

	ts := s.Now
	businessDate := s.BusinessDate

	// Divergent clocks: the sale sometimes posts after midnight while the
	// business still books it on today's date.
	if e.cfg.Time.TimestampRelation == shop.TimestampDivergent && e.r.Bool(0.15) {
		next := businessDate.AddDays(1)
		ts = time.Date(next.Year, next.Month, next.Day, e.r.IntRange(0, 3), e.r.IntRange(0, 59), 0, 0, time.UTC)
	}

	// Late arrivals: the record shows up in the feed days later.
	if e.cfg.Time.LateArrivingEvents && e.r.Bool(0.05) {
		ts = ts.AddDate(0, 0, e.r.IntRange(1, 3))
	}

	txnID := s.NewTransactionID()
	var out []Event
	var eventIDs []string

	if aggregated {
		ev := &Sale{
			Envelope:      Envelope{EventID: s.NewEventID(), EventTimestamp: ts, BusinessDate: businessDate},
			TransactionID: txnID,
			StoreID:       store.StoreID,
			RegisterID:    register,
			EmployeeID:    employee,
			CustomerID:    customer,
			Aggregated:    true,
			TotalCents:    total,
			LineItems:     lines,
		}
		eventIDs = append(eventIDs, ev.EventID)
		out = append(out, ev)
	} else {
		for _, li := range lines {
			ev := &Sale{
				Envelope:         Envelope{EventID: s.NewEventID(), EventTimestamp: ts, BusinessDate: businessDate},
				TransactionID:    txnID,
				StoreID:          store.StoreID,
				RegisterID:       register,
				EmployeeID:       employee,
				CustomerID:       customer,
				LineNumber:       li.LineNumber,
				SKU:              li.SKU,
				Quantity:         li.Quantity,
				UnitPriceCents:   li.UnitPriceCents,
				DiscountCents:    li.DiscountCents,
				BundleParentLine: li.BundleParentLine,
			}
			eventIDs = append(eventIDs, ev.EventID)
			out = append(out, ev)
		}
	}

	for _, pa := range promos {
		pa.Envelope = Envelope{EventID: s.NewEventID(), EventTimestamp: ts, BusinessDate: businessDate}
		pa.TransactionID = txnID
		out = append(out, pa)
	}

	for _, p := range e.generatePayments(total) {
		p.Envelope = Envelope{EventID: s.NewEventID(), EventTimestamp: ts, BusinessDate: businessDate}
		p.TransactionID = txnID
		p.StoreID = store.StoreID
		out = append(out, p)
	}

	s.RecordTransaction(&TransactionRecord{
		TransactionID: txnID,
		EventIDs:      eventIDs,
		StoreID:       store.StoreID,
		CustomerID:    customer,
		Timestamp:     ts,
		BusinessDate:  businessDate,
		Aggregated:    aggregated,
		Lines:         lines,
		TotalCents:    total,
	})

	for _, li := range lines {
		if p := s.Product(li.SKU); p != nil && !p.Virtual {
			s.UpdateInventory(store.StoreID, li.SKU, -li.Quantity)
		}
	}

	return out
}

// generateLines draws the line items of a transaction and the promotion
// events that discount them. Discounts land on the line; the matching
// PromotionApplied event records which promotion produced them.
func (e *saleEmitter) generateLines(s *WorldState) ([]LineItem, []*PromotionApplied) {
	products := s.ActiveProducts()
	if len(products) == 0 {
		return nil, nil
	}

	numItems := e.r.IntRange(1, 10)
	lines := make([]LineItem, 0, numItems)
	var promos []*PromotionApplied

	for i := 0; i < numItems; i++ {
		product := rng.Choice(e.r, products)

		bundleParent := 0
		if len(product.BundleComponents) > 0 && e.r.Bool(0.8) {
			bundleParent = i + 1
		}

		quantity := e.r.IntRange(1, 5)
		discount := 0

		var applicable []*PromotionState
		for _, p := range s.Promos {
			if p.BasketLevel {
				continue
			}
			if p.ApplicableSKUs == nil || slices.Contains(p.ApplicableSKUs, product.SKU) {
				applicable = append(applicable, p)
			}
		}

		var selected []*PromotionState
		if len(applicable) > 0 {
			if e.cfg.Promotions.PerLineItem == shop.PromotionsMany {
				n := e.r.IntRange(0, min(3, len(applicable)))
				if n > 0 {
					selected = rng.Sample(e.r, applicable, n)
				}
			} else if e.r.Bool(0.3) {
				selected = []*PromotionState{rng.Choice(e.r, applicable)}
			}
		}
		for _, promo := range selected {
			d := 0
			switch promo.DiscountType {
			case "percent":
				d = product.CurrentPriceCents * promo.DiscountValue / 100
			case "fixed":
				d = promo.DiscountValue
			}
			discount += d
			promos = append(promos, &PromotionApplied{
				LineNumber:    i + 1,
				PromotionCode: promo.Code,
				DiscountCents: d,
			})
		}

		if e.cfg.Transactions.ManualOverrides && e.r.Bool(0.05) {
			discount = e.r.IntRange(0, product.CurrentPriceCents/2)
		}

		lines = append(lines, LineItem{
			LineNumber:       i + 1,
			SKU:              product.SKU,
			Quantity:         quantity,
			UnitPriceCents:   product.CurrentPriceCents,
			DiscountCents:    discount,
			BundleParentLine: bundleParent,
		})
	}

	return lines, promos
}

func (e *saleEmitter) generatePayments(total int) []*Payment {
	var payments []*Payment
	if e.cfg.Transactions.MultiplePayments && e.r.Bool(0.2) && total > 400 {
		n := e.r.IntRange(2, 3)
		remaining := total
		for i := 0; i < n-1; i++ {
			amount := e.r.IntRange(100, remaining-100*(n-1-i))
			payments = append(payments, &Payment{
				PaymentMethod:   rng.Choice(e.r, paymentMethods),
				AmountCents:     amount,
				ReferenceNumber: fmt.Sprintf("PAY-%06d", e.r.IntRange(100000, 999999)),
			})
			remaining -= amount
		}
		payments = append(payments, &Payment{
			PaymentMethod:   rng.Choice(e.r, paymentMethods),
			AmountCents:     remaining,
			ReferenceNumber: fmt.Sprintf("PAY-%06d", e.r.IntRange(100000, 999999)),
		})
		return payments
	}
	return []*Payment{{
		PaymentMethod:   rng.Choice(e.r, paymentMethods),
		AmountCents:     total,
		ReferenceNumber: fmt.Sprintf("PAY-%06d", e.r.IntRange(100000, 999999)),
	}}
}

// returnEmitter produces return transactions per the reference and pricing
// policies.
type returnEmitter struct {
	cfg *shop.Config
	r   *rng.Stream
}

func (e *returnEmitter) shouldEmit(s *WorldState) bool {
	return len(s.Transactions) > 0 && e.r.Bool(0.15)
}

func (e *returnEmitter) emit(s *WorldState) []Event {
	stores := s.OpenStores()
	if len(stores) == 0 {
		return nil
	}
	store := rng.Choice(e.r, stores)
	register := rng.Choice(e.r, store.Registers)
	employee := ""
	if len(store.Employees) > 0 {
		employee = rng.Choice(e.r, store.Employees)
	}

	returnable := s.ReturnableTransactions(store.StoreID)

	var original *TransactionRecord
	switch e.cfg.Returns.ReferencePolicy {
	case shop.ReturnRefAlways:
		if len(returnable) == 0 {
			return nil
		}
		original = rng.Choice(e.r, returnable)
	case shop.ReturnRefSometimes:
		if len(returnable) > 0 && e.r.Bool(0.6) {
			original = rng.Choice(e.r, returnable)
		}
	}

	lines := e.generateReturnLines(s, original)
	if len(lines) == 0 {
		return nil
	}

	var determination string
	switch e.cfg.Returns.PricingPolicy {
	case shop.ReturnPriceOriginal:
		determination = "original"
	case shop.ReturnPriceCurrent:
		determination = "current"
	default:
		determination = "override"
	}

	customer := ""
	originalTxn := ""
	if original != nil {
		customer = original.CustomerID
		originalTxn = original.TransactionID
	}
	if customer == "" {
		customer = s.CustomerForSale(e.r)
	}

	ev := &Return{
		Envelope:              Envelope{EventID: s.NewEventID(), EventTimestamp: s.Now, BusinessDate: s.BusinessDate},
		ReturnID:              fmt.Sprintf("RET-%08d", s.EventSeq()),
		StoreID:               store.StoreID,
		RegisterID:            register,
		EmployeeID:            employee,
		CustomerID:            customer,
		OriginalTransactionID: originalTxn,
		Lines:                 lines,
		ReasonCode:            rng.Choice(e.r, returnReasons),
		PriceDetermination:    determination,
	}

	for _, li := range lines {
		s.UpdateInventory(store.StoreID, li.SKU, li.Quantity)
	}
	return []Event{ev}
}

func (e *returnEmitter) generateReturnLines(s *WorldState, original *TransactionRecord) []ReturnLine {
	var lines []ReturnLine

	if original != nil && len(original.Lines) > 0 {
		n := e.r.IntRange(1, len(original.Lines))
		picked := rng.Sample(e.r, original.Lines, n)
		for i, orig := range picked {
			quantity := e.r.IntRange(1, orig.Quantity)
			price := orig.UnitPriceCents
			switch e.cfg.Returns.PricingPolicy {
			case shop.ReturnPriceCurrent:
				if p := s.Product(orig.SKU); p != nil {
					price = p.CurrentPriceCents
				}
			case shop.ReturnPriceOverride:
				price = e.r.IntRange(orig.UnitPriceCents/2, orig.UnitPriceCents)
			}
			lines = append(lines, ReturnLine{
				LineNumber:     i + 1,
				SKU:            orig.SKU,
				Quantity:       quantity,
				UnitPriceCents: price,
			})
		}
		return lines
	}

	products := s.ActiveProducts()
	if len(products) == 0 {
		return nil
	}
	n := e.r.IntRange(1, 3)
	for i := 0; i < n; i++ {
		product := rng.Choice(e.r, products)
		price := product.CurrentPriceCents
		if e.cfg.Returns.PricingPolicy == shop.ReturnPriceOverride {
			price = e.r.IntRange(product.CurrentPriceCents/2, product.CurrentPriceCents*2)
		}
		lines = append(lines, ReturnLine{
			LineNumber:     i + 1,
			SKU:            product.SKU,
			Quantity:       e.r.IntRange(1, 3),
			UnitPriceCents: price,
		})
	}
	return lines
}

// voidEmitter cancels prior transactions.
type voidEmitter struct {
	cfg *shop.Config
	r   *rng.Stream
}

func (e *voidEmitter) shouldEmit(s *WorldState) bool {
	return len(s.Transactions) > 0 && e.r.Bool(0.03)
}

func (e *voidEmitter) emit(s *WorldState) []Event {
	var voidable []*TransactionRecord
	for _, rec := range s.Transactions {
		if !s.Voided[rec.TransactionID] {
			voidable = append(voidable, rec)
		}
	}
	if len(voidable) == 0 {
		return nil
	}
	original := rng.Choice(e.r, voidable)

	authorizedBy := "MGR-UNKNOWN"
	if st := s.Store(original.StoreID); st != nil && len(st.Employees) > 0 {
		authorizedBy = rng.Choice(e.r, st.Employees)
	}

	ev := &Void{
		Envelope:              Envelope{EventID: s.NewEventID(), EventTimestamp: s.Now, BusinessDate: s.BusinessDate},
		VoidID:                fmt.Sprintf("VOID-%08d", s.EventSeq()),
		OriginalTransactionID: original.TransactionID,
		OriginalEventID:       original.EventIDs[0],
		Reason:                rng.Choice(e.r, voidReasons),
		AuthorizedBy:          authorizedBy,
	}

	s.Voided[original.TransactionID] = true
	for _, li := range original.Lines {
		s.UpdateInventory(original.StoreID, li.SKU, li.Quantity)
	}
	return []Event{ev}
}

// correctionEmitter produces backdated fixes to prior transactions. The
// business date points back at the original transaction; the timestamp is
// when the fix was recorded.
type correctionEmitter struct {
	cfg *shop.Config
	r   *rng.Stream
}

func (e *correctionEmitter) shouldEmit(s *WorldState) bool {
	return len(s.Transactions) > 0 && e.r.Bool(0.02)
}

func (e *correctionEmitter) emit(s *WorldState) []Event {
	var correctable []*TransactionRecord
	for _, rec := range s.Transactions {
		if !s.Voided[rec.TransactionID] {
			correctable = append(correctable, rec)
		}
	}
	if len(correctable) == 0 {
		return nil
	}
	original := rng.Choice(e.r, correctable)

	changes := e.generateChanges(s, original)
	if len(changes) == 0 {
		return nil
	}

	backdated := original.BusinessDate
	if e.r.Bool(0.3) {
		shifted := backdated.AddDays(e.r.IntRange(0, 3))
		if !s.BusinessDate.Before(shifted) {
			backdated = shifted
		}
	}

	ev := &Correction{
		Envelope:              Envelope{EventID: s.NewEventID(), EventTimestamp: s.Now, BusinessDate: backdated},
		CorrectionID:          fmt.Sprintf("CORR-%08d", s.EventSeq()),
		OriginalTransactionID: original.TransactionID,
		OriginalEventID:       original.EventIDs[0],
		Changes:               changes,
		Reason:                rng.Choice(e.r, correctionReasons),
	}
	return []Event{ev}
}

var correctableFields = []string{
	"customer_id", "employee_id", "line_item_quantity", "line_item_price", "promotion_code",
}

func (e *correctionEmitter) generateChanges(s *WorldState, original *TransactionRecord) []FieldChange {
	var changes []FieldChange
	fields := rng.Sample(e.r, correctableFields, e.r.IntRange(1, 2))

	for _, field := range fields {
		switch field {
		case "customer_id":
			changes = append(changes, FieldChange{
				Field:    "customer_id",
				OldValue: original.CustomerID,
				NewValue: s.CustomerForSale(e.r),
			})
		case "employee_id":
			st := s.Store(original.StoreID)
			if st != nil && len(st.Employees) > 0 {
				changes = append(changes, FieldChange{
					Field:    "employee_id",
					NewValue: rng.Choice(e.r, st.Employees),
				})
			}
		case "line_item_quantity":
			if len(original.Lines) > 0 {
				li := rng.Choice(e.r, original.Lines)
				changes = append(changes, FieldChange{
					Field:    fmt.Sprintf("line_items[%d].quantity", li.LineNumber),
					OldValue: strconv.Itoa(li.Quantity),
					NewValue: strconv.Itoa(e.r.IntRange(1, li.Quantity+2)),
				})
			}
		case "line_item_price":
			if len(original.Lines) > 0 {
				li := rng.Choice(e.r, original.Lines)
				newPrice := li.UnitPriceCents + e.r.IntRange(-500, 500)
				if newPrice < 1 {
					newPrice = 1
				}
				changes = append(changes, FieldChange{
					Field:    fmt.Sprintf("line_items[%d].unit_price_cents", li.LineNumber),
					OldValue: strconv.Itoa(li.UnitPriceCents),
					NewValue: strconv.Itoa(newPrice),
				})
			}
		case "promotion_code":
			if len(s.Promos) > 0 {
				changes = append(changes, FieldChange{
					Field:    "promotion_code_added",
					NewValue: rng.Choice(e.r, s.Promos).Code,
				})
			}
		}
	}
	return changes
}

// inventoryEmitter produces stock adjustments during the day and snapshots
// at closing, per the inventory mode.
type inventoryEmitter struct {
	cfg          *shop.Config
	r            *rng.Stream
	lastSnapshot Date
}

func (e *inventoryEmitter) snapshotDue(s *WorldState) bool {
	mode := e.cfg.Inventory.Mode
	if mode != shop.InventorySnapshot && mode != shop.InventoryBoth {
		return false
	}
	return e.lastSnapshot != s.BusinessDate && s.Now.Hour() >= 22
}

func (e *inventoryEmitter) shouldEmit(s *WorldState) bool {
	if !e.cfg.Inventory.Tracked {
		return false
	}
	if e.snapshotDue(s) {
		return true
	}
	mode := e.cfg.Inventory.Mode
	return (mode == shop.InventoryTransactional || mode == shop.InventoryBoth) && e.r.Bool(0.05)
}

func (e *inventoryEmitter) emit(s *WorldState) []Event {
	if e.snapshotDue(s) {
		e.lastSnapshot = s.BusinessDate
		return e.emitSnapshots(s)
	}
	return e.emitAdjustment(s)
}

func (e *inventoryEmitter) emitAdjustment(s *WorldState) []Event {
	stores := s.OpenStores()
	products := s.ActiveProducts()
	if len(stores) == 0 || len(products) == 0 {
		return nil
	}
	store := rng.Choice(e.r, stores)
	product := rng.Choice(e.r, products)
	reason := rng.Choice(e.r, adjustmentReasons)

	var delta int
	switch reason {
	case "receiving", "transfer_in", "count_correction":
		delta = e.r.IntRange(1, 50)
	case "damage", "theft", "expired", "return_to_vendor", "transfer_out":
		delta = -e.r.IntRange(1, 10)
	default:
		delta = e.r.IntRange(-10, 10)
	}

	s.UpdateInventory(store.StoreID, product.SKU, delta)

	return []Event{&InventoryMovement{
		Envelope:       Envelope{EventID: s.NewEventID(), EventTimestamp: s.Now, BusinessDate: s.BusinessDate},
		MovementID:     fmt.Sprintf("ADJ-%08d", s.EventSeq()),
		StoreID:        store.StoreID,
		SKU:            product.SKU,
		MovementType:   "adjustment",
		QuantityChange: delta,
		ReasonCode:     reason,
	}}
}

func (e *inventoryEmitter) emitSnapshots(s *WorldState) []Event {
	var out []Event
	for _, st := range s.Stores {
		for _, p := range s.Products {
			out = append(out, &InventoryMovement{
				Envelope:       Envelope{EventID: s.NewEventID(), EventTimestamp: s.Now, BusinessDate: s.BusinessDate},
				MovementID:     fmt.Sprintf("SNAP-%08d", s.EventSeq()),
				StoreID:        st.StoreID,
				SKU:            p.SKU,
				MovementType:   "snapshot",
				QuantityOnHand: s.InventoryLevel(st.StoreID, p.SKU),
			})
		}
	}
	return out
}
