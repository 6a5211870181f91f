package domain

import (
	"math"
	"sort"
)

// Ledger is the running cart: catalog key -> held quantity. A key is present
// only while its quantity is at least 1.
type Ledger struct {
	items map[string]int
}

func NewLedger() *Ledger {
	return &Ledger{items: make(map[string]int)}
}

// RestoreLedger rebuilds a ledger from a persisted snapshot, dropping
// non-positive quantities.
func RestoreLedger(snapshot map[string]int) *Ledger {
	l := NewLedger()
	for k, q := range snapshot {
		if q > 0 {
			l.items[k] = q
		}
	}
	return l
}

func (l *Ledger) Add(key string, qty int) {
	if qty <= 0 {
		return
	}
	l.items[key] += qty
}

// Remove takes up to qty units of key out of the cart and returns how many
// were actually removed. Removing more than held floors at zero.
func (l *Ledger) Remove(key string, qty int) int {
	held, ok := l.items[key]
	if !ok || qty <= 0 {
		return 0
	}
	removed := min(qty, held)
	if held-removed == 0 {
		delete(l.items, key)
	} else {
		l.items[key] = held - removed
	}
	return removed
}

func (l *Ledger) Quantity(key string) int {
	return l.items[key]
}

func (l *Ledger) Len() int {
	return len(l.items)
}

// Keys returns the held keys sorted.
func (l *Ledger) Keys() []string {
	keys := make([]string, 0, len(l.items))
	for k := range l.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Total sums price x quantity, rounded to 2 decimals. Keys the lookup does
// not know contribute nothing.
func (l *Ledger) Total(price func(key string) (float64, bool)) float64 {
	var t float64
	for _, k := range l.Keys() {
		p, ok := price(k)
		if !ok {
			continue
		}
		t += p * float64(l.items[k])
	}
	return RoundCents(t)
}

func (l *Ledger) Snapshot() map[string]int {
	out := make(map[string]int, len(l.items))
	for k, q := range l.items {
		out[k] = q
	}
	return out
}

// RoundCents rounds half away from zero to 2 decimal places.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
