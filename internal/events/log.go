package events

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/jfarrand/dimsim/internal/shop"
)

// Log is a complete simulated event stream. Events are ordered by recorded
// timestamp with emission order as the tiebreak, so a log is reproducible
// byte for byte from its seed.
type Log struct {
	Seed          int64           `json:"shop_config_seed"`
	Difficulty    shop.Difficulty `json:"difficulty"`
	ShopName      string          `json:"shop_name"`
	DaysSimulated int             `json:"days_simulated"`
	// Truncated is set when the day budget ran out before the requested
	// event count was reached.
	Truncated bool    `json:"truncated"`
	Events    []Event `json:"-"`
}

// logWire mirrors Log for JSON, with events as raw messages.
type logWire struct {
	Seed          int64             `json:"shop_config_seed"`
	Difficulty    shop.Difficulty   `json:"difficulty"`
	ShopName      string            `json:"shop_name"`
	DaysSimulated int               `json:"days_simulated"`
	Truncated     bool              `json:"truncated"`
	EventCount    int               `json:"event_count"`
	Events        []json.RawMessage `json:"events"`
}

func (l *Log) MarshalJSON() ([]byte, error) {
	w := logWire{
		Seed:          l.Seed,
		Difficulty:    l.Difficulty,
		ShopName:      l.ShopName,
		DaysSimulated: l.DaysSimulated,
		Truncated:     l.Truncated,
		EventCount:    len(l.Events),
		Events:        make([]json.RawMessage, 0, len(l.Events)),
	}
	for _, e := range l.Events {
		raw, err := MarshalEvent(e)
		if err != nil {
			return nil, err
		}
		w.Events = append(w.Events, raw)
	}
	return json.Marshal(w)
}

func (l *Log) UnmarshalJSON(data []byte) error {
	var w logWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("events: decoding log: %w", err)
	}
	l.Seed = w.Seed
	l.Difficulty = w.Difficulty
	l.ShopName = w.ShopName
	l.DaysSimulated = w.DaysSimulated
	l.Truncated = w.Truncated
	l.Events = make([]Event, 0, len(w.Events))
	for i, raw := range w.Events {
		e, err := UnmarshalEvent(raw)
		if err != nil {
			return fmt.Errorf("events: event %d: %w", i, err)
		}
		l.Events = append(l.Events, e)
	}
	return nil
}

// WriteJSONLines writes one event per line, without the log header.
func (l *Log) WriteJSONLines(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, e := range l.Events {
		raw, err := MarshalEvent(e)
		if err != nil {
			return err
		}
		if _, err := bw.Write(raw); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// sortEvents orders events by timestamp, preserving emission order for equal
// timestamps.
func sortEvents(evs []Event) {
	sort.SliceStable(evs, func(i, j int) bool {
		return evs[i].Meta().EventTimestamp.Before(evs[j].Meta().EventTimestamp)
	})
}

// CountByKind tallies events per kind.
func (l *Log) CountByKind() map[EventKind]int {
	counts := make(map[EventKind]int)
	for _, e := range l.Events {
		counts[e.Kind()]++
	}
	return counts
}

// TransactionIDs returns the distinct transaction IDs of sale events, in
// first-seen order.
func (l *Log) TransactionIDs() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range l.Events {
		s, ok := e.(*Sale)
		if !ok || seen[s.TransactionID] {
			continue
		}
		seen[s.TransactionID] = true
		out = append(out, s.TransactionID)
	}
	return out
}
