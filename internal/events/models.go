// Package events defines the simulated event stream and the simulator that
// produces it. The event set is a closed union: every event in a log is one
// of the kinds below, and consumers are expected to switch exhaustively.
package events

import (
	"fmt"
	"time"
)

// EventKind discriminates the event union on the wire.
type EventKind string

const (
	KindSale              EventKind = "sale"
	KindPayment           EventKind = "payment"
	KindPromotionApplied  EventKind = "promotion_applied"
	KindReturn            EventKind = "return"
	KindVoid              EventKind = "void"
	KindCorrection        EventKind = "correction"
	KindPriceAdjustment   EventKind = "price_adjustment"
	KindProductChange     EventKind = "product_change"
	KindInventoryMovement EventKind = "inventory_movement"
	KindStoreChange       EventKind = "store_change"
)

// Kinds lists every event kind in the union.
func Kinds() []EventKind {
	return []EventKind{
		KindSale, KindPayment, KindPromotionApplied, KindReturn, KindVoid,
		KindCorrection, KindPriceAdjustment, KindProductChange,
		KindInventoryMovement, KindStoreChange,
	}
}

// Date is a civil business date with no clock or zone. It is distinct from
// the event timestamp on purpose: the two can legitimately disagree.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf truncates a timestamp to its civil date.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// ParseDate parses a date in ISO form (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("events: invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Time returns the date at midnight UTC, for arithmetic.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the date shifted by n days.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// Before reports whether d is earlier than other.
func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("events: invalid date %s", s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Envelope carries the fields every event shares. EventTimestamp is when the
// system recorded the event; BusinessDate is the day the business considers
// it effective. The simulator deliberately lets them diverge.
type Envelope struct {
	EventID        string    `json:"event_id"`
	EventTimestamp time.Time `json:"event_timestamp"`
	BusinessDate   Date      `json:"business_effective_date"`
}

// Meta returns the shared envelope of an event.
func (e Envelope) Meta() Envelope { return e }

// Event is the closed union of everything a log can contain.
type Event interface {
	Kind() EventKind
	Meta() Envelope
}

// LineItem is one purchased line within a transaction. It appears inline on
// aggregated (receipt-level) sales; at line-item grain each line is its own
// Sale event instead.
type LineItem struct {
	LineNumber       int    `json:"line_number"`
	SKU              string `json:"sku"`
	Quantity         int    `json:"quantity"`
	UnitPriceCents   int    `json:"unit_price_cents"`
	DiscountCents    int    `json:"discount_cents"`
	BundleParentLine int    `json:"bundle_parent_line,omitempty"`
}

// Sale is a sold line or, when Aggregated is set, a whole receipt collapsed
// into one event. Aggregated sales keep their lines inline so the log stays
// lossless even at receipt grain.
type Sale struct {
	Envelope
	TransactionID string `json:"transaction_id"`
	StoreID       string `json:"store_id"`
	RegisterID    string `json:"register_id"`
	EmployeeID    string `json:"employee_id"`
	CustomerID    string `json:"customer_id,omitempty"`
	Aggregated    bool   `json:"is_aggregated"`

	// Line-level fields, set when Aggregated is false.
	LineNumber       int    `json:"line_number,omitempty"`
	SKU              string `json:"sku,omitempty"`
	Quantity         int    `json:"quantity,omitempty"`
	UnitPriceCents   int    `json:"unit_price_cents,omitempty"`
	DiscountCents    int    `json:"discount_cents,omitempty"`
	BundleParentLine int    `json:"bundle_parent_line,omitempty"`

	// Receipt-level fields, set when Aggregated is true.
	TotalCents int        `json:"total_cents,omitempty"`
	LineItems  []LineItem `json:"line_items,omitempty"`
}

func (*Sale) Kind() EventKind { return KindSale }

// Payment is one tender against a transaction. Split tenders produce several
// Payment events for the same transaction.
type Payment struct {
	Envelope
	TransactionID   string `json:"transaction_id"`
	StoreID         string `json:"store_id"`
	PaymentMethod   string `json:"payment_method"`
	AmountCents     int    `json:"amount_cents"`
	ReferenceNumber string `json:"reference_number,omitempty"`
}

func (*Payment) Kind() EventKind { return KindPayment }

// PromotionApplied records a promotion hitting a transaction. LineNumber zero
// means basket level. PostHoc promotions are recorded after the transaction
// closed, with a later business date than the sale they discount.
type PromotionApplied struct {
	Envelope
	TransactionID string `json:"transaction_id"`
	LineNumber    int    `json:"line_number,omitempty"`
	PromotionCode string `json:"promotion_code"`
	DiscountCents int    `json:"discount_cents"`
	PostHoc       bool   `json:"post_hoc"`
}

func (*PromotionApplied) Kind() EventKind { return KindPromotionApplied }

// ReturnLine is one returned line within a return.
type ReturnLine struct {
	LineNumber     int    `json:"line_number"`
	SKU            string `json:"sku"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int    `json:"unit_price_cents"`
}

// Return is a return transaction. OriginalTransactionID may be empty
// depending on the shop's reference policy; PriceDetermination says how the
// refund prices were chosen ("original", "current", "override").
type Return struct {
	Envelope
	ReturnID              string       `json:"return_id"`
	StoreID               string       `json:"store_id"`
	RegisterID            string       `json:"register_id"`
	EmployeeID            string       `json:"employee_id"`
	CustomerID            string       `json:"customer_id,omitempty"`
	OriginalTransactionID string       `json:"original_transaction_id,omitempty"`
	Lines                 []ReturnLine `json:"lines"`
	ReasonCode            string       `json:"return_reason_code"`
	PriceDetermination    string       `json:"price_determination"`
}

func (*Return) Kind() EventKind { return KindReturn }

// Void cancels a prior transaction after the fact.
type Void struct {
	Envelope
	VoidID                string `json:"void_id"`
	OriginalTransactionID string `json:"original_transaction_id"`
	OriginalEventID       string `json:"original_event_id"`
	Reason                string `json:"void_reason"`
	AuthorizedBy          string `json:"authorized_by"`
}

func (*Void) Kind() EventKind { return KindVoid }

// FieldChange is one amended field within a correction. Values travel as
// strings; numeric fields are parsed by consumers that replay corrections.
type FieldChange struct {
	Field    string `json:"field"`
	OldValue string `json:"old_value,omitempty"`
	NewValue string `json:"new_value"`
}

// Correction amends a prior transaction. Its business date is backdated to
// at or near the original transaction's while its timestamp is when the fix
// was actually recorded. In business-effective replay, corrections apply
// after every other event touching the same transaction.
type Correction struct {
	Envelope
	CorrectionID          string        `json:"correction_id"`
	OriginalTransactionID string        `json:"original_transaction_id"`
	OriginalEventID       string        `json:"original_event_id"`
	Changes               []FieldChange `json:"field_corrections"`
	Reason                string        `json:"correction_reason"`
}

func (*Correction) Kind() EventKind { return KindCorrection }

// PriceAdjustment records a catalog price change for a SKU.
type PriceAdjustment struct {
	Envelope
	SKU           string `json:"sku"`
	OldPriceCents int    `json:"old_price_cents"`
	NewPriceCents int    `json:"new_price_cents"`
}

func (*PriceAdjustment) Kind() EventKind { return KindPriceAdjustment }

// ProductChange records a non-price catalog change: hierarchy moves, status
// flips, or a SKU being reassigned to a different product.
type ProductChange struct {
	Envelope
	SKU        string `json:"sku"`
	ChangeType string `json:"change_type"` // "hierarchy", "status", "sku_reassigned"
	OldValue   string `json:"old_value,omitempty"`
	NewValue   string `json:"new_value"`
}

func (*ProductChange) Kind() EventKind { return KindProductChange }

// InventoryMovement is a stock change or a point-in-time snapshot, selected
// by MovementType. Adjustments carry QuantityChange; snapshots carry
// QuantityOnHand.
type InventoryMovement struct {
	Envelope
	MovementID       string `json:"movement_id"`
	StoreID          string `json:"store_id"`
	SKU              string `json:"sku"`
	MovementType     string `json:"movement_type"` // "adjustment", "snapshot"
	QuantityChange   int    `json:"quantity_change,omitempty"`
	QuantityOnHand   int    `json:"quantity_on_hand,omitempty"`
	ReasonCode       string `json:"reason_code,omitempty"`
	ReferenceEventID string `json:"reference_event_id,omitempty"`
}

func (*InventoryMovement) Kind() EventKind { return KindInventoryMovement }

// StoreChange is a store lifecycle event.
type StoreChange struct {
	Envelope
	StoreID        string `json:"store_id"`
	ChangeType     string `json:"change_type"` // "open", "close", "merge"
	RelatedStoreID string `json:"related_store_id,omitempty"`
}

func (*StoreChange) Kind() EventKind { return KindStoreChange }
