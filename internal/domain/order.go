package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type Customer struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
	Address string `json:"address"`
}

// MarshalJSON writes an empty address as null.
func (c Customer) MarshalJSON() ([]byte, error) {
	var addr *string
	if c.Address != "" {
		addr = &c.Address
	}
	return json.Marshal(struct {
		Name    string  `json:"name"`
		Phone   string  `json:"phone"`
		Address *string `json:"address"`
	}{c.Name, c.Phone, addr})
}

type OrderItem struct {
	ProductID string  `json:"id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

func (i OrderItem) Subtotal() float64 {
	return lineTotal(i.Price, i.Quantity).InexactFloat64()
}

// Order is immutable once appended to history.
type Order struct {
	ID          string      `json:"id"`
	Customer    Customer    `json:"customer"`
	Items       []OrderItem `json:"items"`
	TotalPrice  float64     `json:"totalPrice"`
	SubmittedAt time.Time   `json:"submittedAt"`
}

// NewOrder snapshots the cart; items follow Cart.Entries order.
func NewOrder(id string, customer Customer, cart Cart, at time.Time) Order {
	entries := cart.Entries()
	items := make([]OrderItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, OrderItem{
			ProductID: e.ProductID,
			Name:      e.Name,
			Quantity:  e.Quantity,
			Price:     e.Price,
		})
	}
	o := Order{ID: id, Customer: customer, Items: items, SubmittedAt: at.UTC()}
	o.TotalPrice = o.ComputedTotal()
	return o
}

// ComputedTotal recomputes the total from the items.
func (o Order) ComputedTotal() float64 {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(lineTotal(it.Price, it.Quantity))
	}
	return total.InexactFloat64()
}

func (o Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}
