package events

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestEventRoundTrip(t *testing.T) {
	ts := time.Date(2024, time.January, 3, 14, 30, 0, 0, time.UTC)
	env := Envelope{EventID: "EVT-00000001", EventTimestamp: ts, BusinessDate: Date{2024, time.January, 3}}

	cases := []Event{
		&Sale{Envelope: env, TransactionID: "TXN-00000001", StoreID: "STORE-001",
			RegisterID: "REG-STORE-001-1", EmployeeID: "EMP-STORE-001-2",
			CustomerID: "CUST-000001", LineNumber: 1, SKU: "SKU-00004",
			Quantity: 2, UnitPriceCents: 1500, DiscountCents: 100},
		&Sale{Envelope: env, TransactionID: "TXN-00000002", StoreID: "ONLINE",
			RegisterID: "WEB-1", EmployeeID: "EMP-ONLINE-1", Aggregated: true,
			TotalCents: 4200, LineItems: []LineItem{
				{LineNumber: 1, SKU: "SKU-00001", Quantity: 1, UnitPriceCents: 4200},
			}},
		&Payment{Envelope: env, TransactionID: "TXN-00000001", StoreID: "STORE-001",
			PaymentMethod: "cash", AmountCents: 2900, ReferenceNumber: "PAY-123456"},
		&PromotionApplied{Envelope: env, TransactionID: "TXN-00000001", LineNumber: 1,
			PromotionCode: "PROMO-003", DiscountCents: 100, PostHoc: true},
		&Return{Envelope: env, ReturnID: "RET-00000009", StoreID: "STORE-001",
			RegisterID: "REG-STORE-001-1", EmployeeID: "EMP-STORE-001-2",
			OriginalTransactionID: "TXN-00000001", ReasonCode: "defective",
			PriceDetermination: "original", Lines: []ReturnLine{
				{LineNumber: 1, SKU: "SKU-00004", Quantity: 1, UnitPriceCents: 1500},
			}},
		&Void{Envelope: env, VoidID: "VOID-00000010", OriginalTransactionID: "TXN-00000002",
			OriginalEventID: "EVT-00000002", Reason: "cashier_error", AuthorizedBy: "EMP-STORE-001-5"},
		&Correction{Envelope: env, CorrectionID: "CORR-00000011",
			OriginalTransactionID: "TXN-00000001", OriginalEventID: "EVT-00000001",
			Reason: "price_correction", Changes: []FieldChange{
				{Field: "line_items[1].unit_price_cents", OldValue: "1500", NewValue: "1400"},
			}},
		&PriceAdjustment{Envelope: env, SKU: "SKU-00004", OldPriceCents: 1500, NewPriceCents: 1700},
		&ProductChange{Envelope: env, SKU: "SKU-00004", ChangeType: "hierarchy",
			OldValue: "Grocery > Dairy", NewValue: "Grocery > Bakery"},
		&InventoryMovement{Envelope: env, MovementID: "ADJ-00000012", StoreID: "STORE-001",
			SKU: "SKU-00004", MovementType: "adjustment", QuantityChange: -3, ReasonCode: "damage"},
		&StoreChange{Envelope: env, StoreID: "STORE-002", ChangeType: "merge", RelatedStoreID: "STORE-001"},
	}

	kinds := make(map[EventKind]bool)
	for _, original := range cases {
		kinds[original.Kind()] = true
		raw, err := MarshalEvent(original)
		if err != nil {
			t.Fatalf("marshal %s: %v", original.Kind(), err)
		}
		if !strings.Contains(string(raw), `"event_type":"`+string(original.Kind())+`"`) {
			t.Errorf("%s: missing discriminator in %s", original.Kind(), raw)
		}
		decoded, err := UnmarshalEvent(raw)
		if err != nil {
			t.Fatalf("unmarshal %s: %v", original.Kind(), err)
		}
		again, err := MarshalEvent(decoded)
		if err != nil {
			t.Fatalf("re-marshal %s: %v", original.Kind(), err)
		}
		if !bytes.Equal(raw, again) {
			t.Errorf("%s: lossy round trip:\n%s\n%s", original.Kind(), raw, again)
		}
	}

	for _, k := range Kinds() {
		if !kinds[k] {
			t.Errorf("round-trip cases missing kind %s", k)
		}
	}
}

func TestUnmarshalUnknownKind(t *testing.T) {
	if _, err := UnmarshalEvent([]byte(`{"event_type":"refund"}`)); err == nil {
		t.Error("expected error for unknown event_type")
	}
	if _, err := UnmarshalEvent([]byte(`not json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestLogRoundTrip(t *testing.T) {
	cfg := baseConfig(31)
	log := mustSimulate(t, cfg, 200, 30)

	raw, err := json.Marshal(log)
	if err != nil {
		t.Fatalf("marshal log: %v", err)
	}
	var decoded Log
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal log: %v", err)
	}
	again, err := json.Marshal(&decoded)
	if err != nil {
		t.Fatalf("re-marshal log: %v", err)
	}
	if !bytes.Equal(raw, again) {
		t.Error("log round trip is lossy")
	}
	if decoded.Seed != cfg.Seed || len(decoded.Events) != len(log.Events) {
		t.Errorf("decoded log mismatch: seed=%d events=%d", decoded.Seed, len(decoded.Events))
	}
}

func TestWriteJSONLines(t *testing.T) {
	log := mustSimulate(t, baseConfig(37), 50, 30)
	var buf bytes.Buffer
	if err := log.WriteJSONLines(&buf); err != nil {
		t.Fatalf("WriteJSONLines: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != len(log.Events) {
		t.Fatalf("got %d lines, want %d", len(lines), len(log.Events))
	}
	for i, line := range lines {
		if _, err := UnmarshalEvent([]byte(line)); err != nil {
			t.Fatalf("line %d: %v", i, err)
		}
	}
}

func TestDateRoundTrip(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.String() != "2024-02-29" {
		t.Errorf("String() = %s", d.String())
	}
	if got := d.AddDays(1).String(); got != "2024-03-01" {
		t.Errorf("AddDays over month boundary = %s", got)
	}
	if _, err := ParseDate("02/29/2024"); err == nil {
		t.Error("expected error for non-ISO date")
	}
	var parsed Date
	if err := json.Unmarshal([]byte(`"2024-12-31"`), &parsed); err != nil {
		t.Fatalf("unmarshal date: %v", err)
	}
	if parsed != (Date{2024, time.December, 31}) {
		t.Errorf("parsed = %+v", parsed)
	}
}
