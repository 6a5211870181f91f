package domain

import (
	"errors"
	"fmt"
)

var (
	ErrItemNotFound  = errors.New("catalog item not found")
	ErrNegativeStock = errors.New("stock cannot go negative")
)

// CatalogItem is one sellable product. Key is the stable SKU.
type CatalogItem struct {
	Key         string  `json:"sku" yaml:"sku"`
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description" yaml:"description"`
	Price       float64 `json:"price" yaml:"price"`
	Stock       int     `json:"stock" yaml:"stock"`
}

// SearchText is the text embedded for similarity search.
func (c CatalogItem) SearchText() string {
	return fmt.Sprintf("%s | %s | price %v", c.Name, c.Description, c.Price)
}

// Catalog is the in-memory inventory. Items keep their load order; stock
// changes go through AdjustStock only.
type Catalog struct {
	items []CatalogItem
	index map[string]int
}

func NewCatalog(items []CatalogItem) (*Catalog, error) {
	c := &Catalog{
		items: make([]CatalogItem, 0, len(items)),
		index: make(map[string]int, len(items)),
	}
	for _, it := range items {
		if it.Key == "" {
			return nil, fmt.Errorf("catalog item %q has no sku", it.Name)
		}
		if _, dup := c.index[it.Key]; dup {
			return nil, fmt.Errorf("duplicate sku %q", it.Key)
		}
		if it.Price < 0 {
			return nil, fmt.Errorf("sku %q: negative price", it.Key)
		}
		if it.Stock < 0 {
			return nil, fmt.Errorf("sku %q: %w", it.Key, ErrNegativeStock)
		}
		c.index[it.Key] = len(c.items)
		c.items = append(c.items, it)
	}
	return c, nil
}

func (c *Catalog) Get(key string) (CatalogItem, bool) {
	i, ok := c.index[key]
	if !ok {
		return CatalogItem{}, false
	}
	return c.items[i], true
}

func (c *Catalog) Price(key string) (float64, bool) {
	it, ok := c.Get(key)
	return it.Price, ok
}

func (c *Catalog) Len() int {
	return len(c.items)
}

// Items returns a copy of the catalog in load order.
func (c *Catalog) Items() []CatalogItem {
	out := make([]CatalogItem, len(c.items))
	copy(out, c.items)
	return out
}

// AdjustStock adds delta to the item's stock and returns the new value.
func (c *Catalog) AdjustStock(key string, delta int) (int, error) {
	i, ok := c.index[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrItemNotFound, key)
	}
	next := c.items[i].Stock + delta
	if next < 0 {
		return c.items[i].Stock, fmt.Errorf("%s: %w", key, ErrNegativeStock)
	}
	c.items[i].Stock = next
	return next, nil
}

// StockLevels returns key -> stock for every item.
func (c *Catalog) StockLevels() map[string]int {
	out := make(map[string]int, len(c.items))
	for _, it := range c.items {
		out[it.Key] = it.Stock
	}
	return out
}

// RestoreStock overwrites stock for keys present in levels. Unknown keys and
// negative values are ignored and reported back.
func (c *Catalog) RestoreStock(levels map[string]int) []string {
	var ignored []string
	for key, stock := range levels {
		i, ok := c.index[key]
		if !ok || stock < 0 {
			ignored = append(ignored, key)
			continue
		}
		c.items[i].Stock = stock
	}
	return ignored
}
