package repos

import (
	"context"
	"encoding/json"
	"errors"

	"nittosodai/internal/domain"
	applog "nittosodai/internal/log"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderRepo is the append-only order history of a session.
type OrderRepo struct{ state StateStore }

func NewOrderRepo(state StateStore) *OrderRepo { return &OrderRepo{state: state} }

// List returns orders in append order, most recent last.
func (r *OrderRepo) List(ctx context.Context, sessionID string) ([]domain.Order, error) {
	raw, err := r.state.Load(ctx, sessionID, KeyPastOrders)
	if errors.Is(err, ErrStateNotFound) {
		return []domain.Order{}, nil
	}
	if err != nil {
		return nil, err
	}
	var out []domain.Order
	if err := json.Unmarshal(raw, &out); err != nil {
		applog.Security(nil, "state.corrupt", map[string]any{"key": KeyPastOrders, "error": err.Error()})
		return []domain.Order{}, nil
	}
	if out == nil {
		out = []domain.Order{}
	}
	return out, nil
}

// Append adds o to the history. limit > 0 keeps only the most recent limit orders.
func (r *OrderRepo) Append(ctx context.Context, sessionID string, o domain.Order, limit int) error {
	orders, err := r.List(ctx, sessionID)
	if err != nil {
		return err
	}
	orders = append(orders, o)
	if limit > 0 && len(orders) > limit {
		orders = orders[len(orders)-limit:]
	}
	b, err := json.Marshal(orders)
	if err != nil {
		return err
	}
	return r.state.Save(ctx, sessionID, KeyPastOrders, b)
}

func (r *OrderRepo) Get(ctx context.Context, sessionID, orderID string) (domain.Order, error) {
	orders, err := r.List(ctx, sessionID)
	if err != nil {
		return domain.Order{}, err
	}
	for _, o := range orders {
		if o.ID != "" && o.ID == orderID {
			return o, nil
		}
	}
	return domain.Order{}, ErrOrderNotFound
}
