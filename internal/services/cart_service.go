package services

import (
	"context"
	"errors"

	"nittosodai/internal/domain"
	"nittosodai/internal/metrics"
	"nittosodai/internal/repos"
)

var ErrOutOfStock = errors.New("product is out of stock")

type CartService struct {
	Carts   *repos.CartRepo
	Prods   *repos.ProductRepo
	Metrics *metrics.Store
}

func NewCartService(carts *repos.CartRepo, prods *repos.ProductRepo, m *metrics.Store) *CartService {
	return &CartService{Carts: carts, Prods: prods, Metrics: m}
}

func (s *CartService) Get(ctx context.Context, sessionID string) (domain.Cart, error) {
	return s.Carts.Get(ctx, sessionID)
}

// Add looks the product up in its feed so the cart only ever holds catalog prices.
func (s *CartService) Add(ctx context.Context, sessionID, feedID, productID string, qty int) (domain.Product, error) {
	p, err := s.Prods.Get(ctx, feedID, productID)
	if err != nil {
		return domain.Product{}, err
	}
	return p, s.AddProduct(ctx, sessionID, p, qty)
}

func (s *CartService) AddProduct(ctx context.Context, sessionID string, p domain.Product, qty int) error {
	if !p.InStock {
		return ErrOutOfStock
	}
	cart, err := s.Carts.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	cart.Add(p, qty)
	if err := s.Carts.Save(ctx, sessionID, cart); err != nil {
		return err
	}
	s.Metrics.CartOp("add")
	return nil
}

func (s *CartService) SetQuantity(ctx context.Context, sessionID, productID string, qty int) error {
	return s.mutate(ctx, sessionID, "set_quantity", func(c domain.Cart) bool {
		return c.SetQuantity(productID, qty)
	})
}

func (s *CartService) Increment(ctx context.Context, sessionID, productID string) error {
	return s.mutate(ctx, sessionID, "increment", func(c domain.Cart) bool {
		return c.Increment(productID)
	})
}

func (s *CartService) Decrement(ctx context.Context, sessionID, productID string) error {
	return s.mutate(ctx, sessionID, "decrement", func(c domain.Cart) bool {
		return c.Decrement(productID)
	})
}

func (s *CartService) Remove(ctx context.Context, sessionID, productID string) error {
	return s.mutate(ctx, sessionID, "remove", func(c domain.Cart) bool {
		return c.Remove(productID)
	})
}

func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	if err := s.Carts.Clear(ctx, sessionID); err != nil {
		return err
	}
	s.Metrics.CartOp("clear")
	return nil
}

// mutate persists only when fn reports a change.
func (s *CartService) mutate(ctx context.Context, sessionID, op string, fn func(domain.Cart) bool) error {
	cart, err := s.Carts.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if !fn(cart) {
		return nil
	}
	if err := s.Carts.Save(ctx, sessionID, cart); err != nil {
		return err
	}
	s.Metrics.CartOp(op)
	return nil
}

type CartView struct {
	Items []domain.CartEntry `json:"items"`
	Count int                `json:"count"`
	Total float64            `json:"total"`
}

func NewCartView(c domain.Cart) CartView {
	return CartView{Items: c.Entries(), Count: c.TotalCount(), Total: c.TotalPrice()}
}

func (s *CartService) View(ctx context.Context, sessionID string) (CartView, error) {
	cart, err := s.Carts.Get(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	return NewCartView(cart), nil
}
