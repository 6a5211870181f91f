package app

import (
	"fmt"

	"github.com/rl1809/voice-pos/internal/core/domain"
)

// CheckInvariant verifies stock + cart == initial stock for every item and
// that no stock level is negative.
func CheckInvariant(initial map[string]int, items []domain.CatalogItem, cart map[string]int) error {
	for _, it := range items {
		if it.Stock < 0 {
			return fmt.Errorf("%s: negative stock %d", it.Key, it.Stock)
		}
		start, ok := initial[it.Key]
		if !ok {
			continue
		}
		if it.Stock+cart[it.Key] != start {
			return fmt.Errorf("%s: stock %d + cart %d != initial %d", it.Key, it.Stock, cart[it.Key], start)
		}
	}
	return nil
}

// InvariantBaseline returns the stock each item had before anything was put
// in the cart, so a restored cart counts as already taken from stock.
func InvariantBaseline(items []domain.CatalogItem, cart map[string]int) map[string]int {
	initial := make(map[string]int, len(items))
	for _, it := range items {
		initial[it.Key] = it.Stock + cart[it.Key]
	}
	return initial
}
