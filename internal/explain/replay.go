package explain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jfarrand/dimsim/internal/events"
)

// replayLine is one line of a transaction during business-effective replay.
type replayLine struct {
	lineNumber     int
	quantity       int
	unitPriceCents int
	discountCents  int
}

// transactionReplay is the business-effective view of one transaction: its
// lines as sold, then as amended. Corrections apply after every other event
// touching the transaction, so the effective totals are what a correct
// as-of query must report for the business date.
type transactionReplay struct {
	transactionID string
	businessDate  events.Date
	saleEventIDs  []string
	corrections   []*events.Correction
	payments      []*events.Payment

	originalCents  int
	effectiveCents int
}

func (t *transactionReplay) corrected() bool { return t.effectiveCents != t.originalCents }

// replayTransaction reconstructs a transaction's true totals from the log
// alone. Returns nil when the transaction has no sale events.
func replayTransaction(log *events.Log, txnID string) *transactionReplay {
	var lines []replayLine
	t := &transactionReplay{transactionID: txnID}

	for _, ev := range log.Events {
		switch e := ev.(type) {
		case *events.Sale:
			if e.TransactionID != txnID {
				continue
			}
			t.saleEventIDs = append(t.saleEventIDs, e.EventID)
			if t.businessDate == (events.Date{}) {
				t.businessDate = e.BusinessDate
			}
			if e.Aggregated {
				for _, li := range e.LineItems {
					lines = append(lines, replayLine{li.LineNumber, li.Quantity, li.UnitPriceCents, li.DiscountCents})
				}
			} else {
				lines = append(lines, replayLine{e.LineNumber, e.Quantity, e.UnitPriceCents, e.DiscountCents})
			}
		case *events.Payment:
			if e.TransactionID == txnID {
				t.payments = append(t.payments, e)
			}
		case *events.Correction:
			if e.OriginalTransactionID == txnID {
				t.corrections = append(t.corrections, e)
			}
		}
	}
	if len(lines) == 0 {
		return nil
	}
	t.originalCents = totalCents(lines)

	// Corrections replay last, in recorded order.
	for _, c := range t.corrections {
		for _, ch := range c.Changes {
			applyFieldChange(lines, ch)
		}
	}
	t.effectiveCents = totalCents(lines)
	return t
}

func totalCents(lines []replayLine) int {
	total := 0
	for _, l := range lines {
		total += l.quantity*l.unitPriceCents - l.discountCents
	}
	return total
}

// applyFieldChange mutates the replayed lines for the field patterns the
// simulator emits: line_items[N].quantity and line_items[N].unit_price_cents.
// Identity fields do not alter totals and are ignored here.
func applyFieldChange(lines []replayLine, ch events.FieldChange) {
	if !strings.HasPrefix(ch.Field, "line_items[") {
		return
	}
	var n int
	var field string
	if _, err := fmt.Sscanf(ch.Field, "line_items[%d].%s", &n, &field); err != nil {
		return
	}
	val, err := strconv.Atoi(ch.NewValue)
	if err != nil {
		return
	}
	for i := range lines {
		if lines[i].lineNumber != n {
			continue
		}
		switch field {
		case "quantity":
			lines[i].quantity = val
		case "unit_price_cents":
			lines[i].unitPriceCents = val
		}
	}
}

// dayItemCount sums sold quantities for a business date across the log.
func dayItemCount(log *events.Log, day events.Date) (items, transactions int) {
	txns := make(map[string]bool)
	for _, ev := range log.Events {
		s, ok := ev.(*events.Sale)
		if !ok || s.BusinessDate != day {
			continue
		}
		txns[s.TransactionID] = true
		if s.Aggregated {
			for _, li := range s.LineItems {
				items += li.Quantity
			}
		} else {
			items += s.Quantity
		}
	}
	return items, len(txns)
}

// findMultiLineTransaction returns a transaction with at least two sale
// lines, skipping any in used.
func findMultiLineTransaction(log *events.Log, used map[string]bool) string {
	counts := make(map[string]int)
	for _, ev := range log.Events {
		s, ok := ev.(*events.Sale)
		if !ok || used[s.TransactionID] {
			continue
		}
		if s.Aggregated {
			if len(s.LineItems) > 1 {
				return s.TransactionID
			}
			continue
		}
		counts[s.TransactionID]++
		if counts[s.TransactionID] > 1 {
			return s.TransactionID
		}
	}
	return ""
}

// findSplitPaymentTransaction returns a transaction settled with more than
// one payment, skipping any in used.
func findSplitPaymentTransaction(log *events.Log, used map[string]bool) string {
	counts := make(map[string]int)
	for _, ev := range log.Events {
		p, ok := ev.(*events.Payment)
		if !ok || used[p.TransactionID] {
			continue
		}
		counts[p.TransactionID]++
		if counts[p.TransactionID] > 1 {
			return p.TransactionID
		}
	}
	return ""
}

// findAmendedTransaction returns a transaction whose correction changes its
// total, preferring backdated corrections, skipping any in used.
func findAmendedTransaction(log *events.Log, used map[string]bool) *transactionReplay {
	var fallback *transactionReplay
	for _, ev := range log.Events {
		c, ok := ev.(*events.Correction)
		if !ok || used[c.OriginalTransactionID] {
			continue
		}
		t := replayTransaction(log, c.OriginalTransactionID)
		if t == nil || !t.corrected() {
			continue
		}
		if c.BusinessDate.Before(events.DateOf(c.EventTimestamp)) {
			return t
		}
		if fallback == nil {
			fallback = t
		}
	}
	return fallback
}

// findOrphanReturn returns a return with no original transaction reference.
func findOrphanReturn(log *events.Log) *events.Return {
	for _, ev := range log.Events {
		if r, ok := ev.(*events.Return); ok && r.OriginalTransactionID == "" {
			return r
		}
	}
	return nil
}

// returnRefundCents totals a return's refund from its lines.
func returnRefundCents(r *events.Return) int {
	total := 0
	for _, l := range r.Lines {
		total += l.Quantity * l.UnitPriceCents
	}
	return total
}
