package domain

import (
	"math"
	"strconv"
	"strings"

	"nittosodai/internal/validate"
)

// Column layout of a product feed row.
const (
	colName = iota
	colBrand
	colWeight
	colListPrice
	colDiscountedPrice
	colImage
	colProductID
	colTags
)

// ParseCategories turns home-sheet rows into categories. Row 0 is the header;
// rows missing a name or feed id are dropped.
func ParseCategories(rows [][]string) []Category {
	out := []Category{}
	for _, row := range skipHeader(rows) {
		c := Category{
			Name:     cell(row, 0),
			FeedID:   cell(row, 1),
			ImageURL: cell(row, 2),
		}
		if c.Name == "" || c.FeedID == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ParseProducts turns feed rows into products. Row 0 is the header; rows
// without a product id cannot be carted and are dropped.
func ParseProducts(rows [][]string, category, feedID string) []Product {
	out := []Product{}
	for _, row := range skipHeader(rows) {
		p, ok := ParseProductRow(row, category, feedID)
		if !ok {
			continue
		}
		out = append(out, p)
	}
	return out
}

func ParseProductRow(row []string, category, feedID string) (Product, bool) {
	// rows whose id could not be posted back to the cart are not sellable
	id, ok := validate.ID(cell(row, colProductID))
	if !ok {
		return Product{}, false
	}
	list, listOK := parsePrice(cell(row, colListPrice))
	disc, discOK := parsePrice(cell(row, colDiscountedPrice))
	if !listOK && discOK {
		// only the sale price is filled in: sell at that price
		list, disc = disc, 0
	}
	return Product{
		ID:              id,
		Name:            cell(row, colName),
		Brand:           cell(row, colBrand),
		Weight:          cell(row, colWeight),
		ListPrice:       list,
		DiscountedPrice: disc,
		ImageURL:        cell(row, colImage),
		Tags:            cell(row, colTags),
		Category:        category,
		FeedID:          feedID,
		InStock:         listOK || discOK,
	}, true
}

func skipHeader(rows [][]string) [][]string {
	if len(rows) <= 1 {
		return nil
	}
	return rows[1:]
}

// cell tolerates short rows; the Sheets API drops trailing empty cells.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parsePrice(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}
