package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"nittosodai/internal/domain"
	applog "nittosodai/internal/log"
	"nittosodai/internal/metrics"
	"nittosodai/internal/repos"
)

var ErrEmptyCart = errors.New("cart is empty")

// MissingFieldsError lists the required customer fields left blank.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// SubmissionError means the order never reached the sink; nothing was recorded.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string { return "submitting order: " + e.Err.Error() }
func (e *SubmissionError) Unwrap() error { return e.Err }

// ArchiveError means the sink accepted the order but it could not be added
// to the session history. The cart is left as it was.
type ArchiveError struct {
	OrderID string
	Err     error
}

func (e *ArchiveError) Error() string { return "saving order " + e.OrderID + ": " + e.Err.Error() }
func (e *ArchiveError) Unwrap() error { return e.Err }

// OrderSink delivers a finished order to the store operator.
type OrderSink interface {
	Send(ctx context.Context, o domain.Order) error
}

type OrderService struct {
	Carts        *repos.CartRepo
	Orders       *repos.OrderRepo
	Sink         OrderSink
	HistoryLimit int
	Metrics      *metrics.Store

	Now   func() time.Time
	NewID func() string
}

func NewOrderService(carts *repos.CartRepo, orders *repos.OrderRepo, sink OrderSink, historyLimit int, m *metrics.Store) *OrderService {
	return &OrderService{
		Carts:        carts,
		Orders:       orders,
		Sink:         sink,
		HistoryLimit: historyLimit,
		Metrics:      m,
		Now:          time.Now,
		NewID:        uuid.NewString,
	}
}

var customerValidator = newCustomerValidator()

func newCustomerValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

func checkCustomer(c domain.Customer) error {
	err := customerValidator.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return &MissingFieldsError{Fields: fields}
}

// Submit sends the session cart as an order. The history append and cart
// clear happen only after the sink accepted it, in that order; a failed
// append returns *ArchiveError with the cart untouched.
func (s *OrderService) Submit(ctx context.Context, sessionID string, customer domain.Customer) (domain.Order, error) {
	cart, err := s.Carts.Get(ctx, sessionID)
	if err != nil {
		return domain.Order{}, err
	}
	if len(cart) == 0 {
		s.Metrics.OrderSubmitted("empty_cart")
		return domain.Order{}, ErrEmptyCart
	}

	customer.Name = strings.TrimSpace(customer.Name)
	customer.Phone = strings.TrimSpace(customer.Phone)
	customer.Address = strings.TrimSpace(customer.Address)
	if err := checkCustomer(customer); err != nil {
		s.Metrics.OrderSubmitted("invalid")
		return domain.Order{}, err
	}

	order := domain.NewOrder(s.NewID(), customer, cart, s.Now())

	if err := s.Sink.Send(ctx, order); err != nil {
		s.Metrics.OrderSubmitted("sink_error")
		return domain.Order{}, &SubmissionError{Err: err}
	}
	s.Metrics.OrderSubmitted("ok")

	// The cart is only cleared once the order is in history.
	if err := s.Orders.Append(ctx, sessionID, order, s.HistoryLimit); err != nil {
		return order, &ArchiveError{OrderID: order.ID, Err: err}
	}
	if err := s.Carts.Clear(ctx, sessionID); err != nil {
		applog.Error(nil, "order.cart.clear", err, map[string]any{"order_id": order.ID})
	}
	return order, nil
}

// History returns past orders, most recent first.
func (s *OrderService) History(ctx context.Context, sessionID string) ([]domain.Order, error) {
	orders, err := s.Orders.List(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Order, len(orders))
	for i, o := range orders {
		out[len(orders)-1-i] = o
	}
	return out, nil
}

func (s *OrderService) Get(ctx context.Context, sessionID, orderID string) (domain.Order, error) {
	o, err := s.Orders.Get(ctx, sessionID, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("order %s: %w", orderID, err)
	}
	return o, nil
}
