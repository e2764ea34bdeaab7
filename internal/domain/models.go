package domain

import "github.com/shopspring/decimal"

type Category struct {
	Name     string `json:"name"`
	FeedID   string `json:"sheetId"`
	ImageURL string `json:"imageUrl"`
}

type Product struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Brand           string  `json:"brand"`
	Weight          string  `json:"weight"`
	ListPrice       float64 `json:"listPrice"`
	DiscountedPrice float64 `json:"discountedPrice"` // 0 means no discount
	ImageURL        string  `json:"imageUrl"`
	Tags            string  `json:"tags"`
	Category        string  `json:"category"`
	FeedID          string  `json:"feedId"`
	InStock         bool    `json:"inStock"`
}

// HasDiscount reports whether the discounted price applies.
func (p Product) HasDiscount() bool {
	return p.InStock && p.DiscountedPrice > 0 && p.DiscountedPrice < p.ListPrice
}

// EffectivePrice is the price charged; 0 when out of stock.
func (p Product) EffectivePrice() float64 {
	if !p.InStock {
		return 0
	}
	if p.HasDiscount() {
		return p.DiscountedPrice
	}
	return p.ListPrice
}

// DiscountPercent is the whole-number saving shown on the card, e.g. 100 -> 75 is 25.
func (p Product) DiscountPercent() int {
	if !p.HasDiscount() {
		return 0
	}
	list := decimal.NewFromFloat(p.ListPrice)
	saved := list.Sub(decimal.NewFromFloat(p.DiscountedPrice))
	return int(saved.Div(list).Mul(decimal.NewFromInt(100)).Round(0).IntPart())
}

// Snapshot captures what the cart remembers about a product at add time.
func (p Product) Snapshot(qty int) CartEntry {
	return CartEntry{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.EffectivePrice(),
		ImageURL:  p.ImageURL,
		Quantity:  qty,
	}
}
