package repos

import (
	"context"

	"nittosodai/internal/domain"
)

// RowSource yields raw spreadsheet rows, header included.
type RowSource interface {
	Rows(ctx context.Context, spreadsheetID, sheetName string) ([][]string, error)
}

type CategoryRepo struct {
	src           RowSource
	spreadsheetID string
	sheet         string
}

func NewCategoryRepo(src RowSource, spreadsheetID, sheet string) *CategoryRepo {
	return &CategoryRepo{src: src, spreadsheetID: spreadsheetID, sheet: sheet}
}

func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.src.Rows(ctx, r.spreadsheetID, r.sheet)
	if err != nil {
		return nil, err
	}
	return domain.ParseCategories(rows), nil
}
