package events

import (
	"encoding/json"
	"fmt"
)

// MarshalEvent encodes an event with its discriminator field. The switch is
// exhaustive over the union; a new kind that is not handled here is a bug.
func MarshalEvent(e Event) ([]byte, error) {
	switch ev := e.(type) {
	case *Sale:
		return json.Marshal(struct {
			EventType EventKind `json:"event_type"`
			*Sale
		}{KindSale, ev})
	case *Payment:
		return json.Marshal(struct {
			EventType EventKind `json:"event_type"`
			*Payment
		}{KindPayment, ev})
	case *PromotionApplied:
		return json.Marshal(struct {
			EventType EventKind `json:"event_type"`
			*PromotionApplied
		}{KindPromotionApplied, ev})
	case *Return:
		return json.Marshal(struct {
			EventType EventKind `json:"event_type"`
			*Return
		}{KindReturn, ev})
	case *Void:
		return json.Marshal(struct {
			EventType EventKind `json:"event_type"`
			*Void
		}{KindVoid, ev})
	case *Correction:
		return json.Marshal(struct {
			EventType EventKind `json:"event_type"`
			*Correction
		}{KindCorrection, ev})
	case *PriceAdjustment:
		return json.Marshal(struct {
			EventType EventKind `json:"event_type"`
			*PriceAdjustment
		}{KindPriceAdjustment, ev})
	case *ProductChange:
		return json.Marshal(struct {
			EventType EventKind `json:"event_type"`
			*ProductChange
		}{KindProductChange, ev})
	case *InventoryMovement:
		return json.Marshal(struct {
			EventType EventKind `json:"event_type"`
			*InventoryMovement
		}{KindInventoryMovement, ev})
	case *StoreChange:
		return json.Marshal(struct {
			EventType EventKind `json:"event_type"`
			*StoreChange
		}{KindStoreChange, ev})
	default:
		return nil, fmt.Errorf("events: unknown event type %T", e)
	}
}

// UnmarshalEvent decodes a single event by its discriminator.
func UnmarshalEvent(data []byte) (Event, error) {
	var head struct {
		EventType EventKind `json:"event_type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("events: reading event_type: %w", err)
	}

	var e Event
	switch head.EventType {
	case KindSale:
		e = &Sale{}
	case KindPayment:
		e = &Payment{}
	case KindPromotionApplied:
		e = &PromotionApplied{}
	case KindReturn:
		e = &Return{}
	case KindVoid:
		e = &Void{}
	case KindCorrection:
		e = &Correction{}
	case KindPriceAdjustment:
		e = &PriceAdjustment{}
	case KindProductChange:
		e = &ProductChange{}
	case KindInventoryMovement:
		e = &InventoryMovement{}
	case KindStoreChange:
		e = &StoreChange{}
	default:
		return nil, fmt.Errorf("events: unknown event_type %q", head.EventType)
	}
	if err := json.Unmarshal(data, e); err != nil {
		return nil, fmt.Errorf("events: decoding %s event: %w", head.EventType, err)
	}
	return e, nil
}
