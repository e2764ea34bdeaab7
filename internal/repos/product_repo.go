package repos

import (
	"context"
	"errors"

	"nittosodai/internal/domain"
)

var ErrProductNotFound = errors.New("product not found")

type ProductRepo struct {
	src   RowSource
	sheet string
}

func NewProductRepo(src RowSource, sheet string) *ProductRepo {
	return &ProductRepo{src: src, sheet: sheet}
}

// ListByFeed returns the products of one category feed.
func (r *ProductRepo) ListByFeed(ctx context.Context, feedID, category string) ([]domain.Product, error) {
	rows, err := r.src.Rows(ctx, feedID, r.sheet)
	if err != nil {
		return nil, err
	}
	return domain.ParseProducts(rows, category, feedID), nil
}

// Get re-reads the feed so prices always come from the catalog, never the client.
func (r *ProductRepo) Get(ctx context.Context, feedID, productID string) (domain.Product, error) {
	products, err := r.ListByFeed(ctx, feedID, "")
	if err != nil {
		return domain.Product{}, err
	}
	for _, p := range products {
		if p.ID == productID {
			return p, nil
		}
	}
	return domain.Product{}, ErrProductNotFound
}
