package domain

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// CartEntry mirrors the persisted `cart` value: {id, name, price, image, quantity}.
// Name, Price and ImageURL are frozen at first add.
type CartEntry struct {
	ProductID string  `json:"id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	ImageURL  string  `json:"image"`
	Quantity  int     `json:"quantity"`
}

func (e CartEntry) Subtotal() float64 {
	return lineTotal(e.Price, e.Quantity).InexactFloat64()
}

// Cart maps product id to entry. Quantities are always >= 1.
type Cart map[string]CartEntry

func (c Cart) TotalCount() int {
	n := 0
	for _, e := range c {
		n += e.Quantity
	}
	return n
}

func (c Cart) TotalPrice() float64 {
	total := decimal.Zero
	for _, e := range c {
		total = total.Add(lineTotal(e.Price, e.Quantity))
	}
	return total.InexactFloat64()
}

// Entries returns the entries ordered by name, then id.
func (c Cart) Entries() []CartEntry {
	out := make([]CartEntry, 0, len(c))
	for _, e := range c {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if a != b {
			return a < b
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out
}

func lineTotal(price float64, qty int) decimal.Decimal {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(qty)))
}

// Add puts qty (at least 1) of p in the cart. A repeat add keeps the first
// snapshot and only accumulates quantity.
func (c Cart) Add(p Product, qty int) {
	if qty < 1 {
		qty = 1
	}
	if e, ok := c[p.ID]; ok {
		e.Quantity += qty
		c[p.ID] = e
		return
	}
	c[p.ID] = p.Snapshot(qty)
}

// SetQuantity reports whether the entry changed; qty < 1 and unknown ids are ignored.
func (c Cart) SetQuantity(id string, qty int) bool {
	e, ok := c[id]
	if !ok || qty < 1 {
		return false
	}
	e.Quantity = qty
	c[id] = e
	return true
}

func (c Cart) Increment(id string) bool {
	e, ok := c[id]
	if !ok {
		return false
	}
	e.Quantity++
	c[id] = e
	return true
}

// Decrement never drops an entry; use Remove for that.
func (c Cart) Decrement(id string) bool {
	e, ok := c[id]
	if !ok || e.Quantity <= 1 {
		return false
	}
	e.Quantity--
	c[id] = e
	return true
}

func (c Cart) Remove(id string) bool {
	if _, ok := c[id]; !ok {
		return false
	}
	delete(c, id)
	return true
}
