package repos

import (
	"context"
	"errors"
)

// Keys of the per-session state, same names the storefront always used.
const (
	KeyCart       = "cart"
	KeyPastOrders = "pastOrders"
)

var ErrStateNotFound = errors.New("state not found")

// StateStore is the only writer of session state. Load returns
// ErrStateNotFound for absent keys.
type StateStore interface {
	Load(ctx context.Context, sessionID, key string) ([]byte, error)
	Save(ctx context.Context, sessionID, key string, value []byte) error
	Delete(ctx context.Context, sessionID, key string) error
}
