package repos

import (
	"context"
	"encoding/json"
	"errors"

	"nittosodai/internal/domain"
	applog "nittosodai/internal/log"
)

type CartRepo struct{ state StateStore }

func NewCartRepo(state StateStore) *CartRepo { return &CartRepo{state: state} }

// Get returns the session cart. Missing or unparseable state yields an
// empty cart; only storage failures are returned as errors.
func (r *CartRepo) Get(ctx context.Context, sessionID string) (domain.Cart, error) {
	raw, err := r.state.Load(ctx, sessionID, KeyCart)
	if errors.Is(err, ErrStateNotFound) {
		return domain.Cart{}, nil
	}
	if err != nil {
		return nil, err
	}

	var cart domain.Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		applog.Security(nil, "state.corrupt", map[string]any{"key": KeyCart, "error": err.Error()})
		return domain.Cart{}, nil
	}
	if cart == nil {
		return domain.Cart{}, nil
	}
	for id, e := range cart {
		if e.Quantity < 1 {
			delete(cart, id)
			continue
		}
		if e.ProductID == "" {
			e.ProductID = id
			cart[id] = e
		}
	}
	return cart, nil
}

func (r *CartRepo) Save(ctx context.Context, sessionID string, cart domain.Cart) error {
	if cart == nil {
		cart = domain.Cart{}
	}
	b, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return r.state.Save(ctx, sessionID, KeyCart, b)
}

func (r *CartRepo) Clear(ctx context.Context, sessionID string) error {
	return r.state.Delete(ctx, sessionID, KeyCart)
}
