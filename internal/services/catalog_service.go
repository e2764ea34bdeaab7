package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode"

	"golang.org/x/sync/errgroup"

	"nittosodai/internal/domain"
	applog "nittosodai/internal/log"
	"nittosodai/internal/metrics"
	"nittosodai/internal/repos"
)

// feeds fetched at once during a search
const searchParallelism = 4

type CatalogService struct {
	Cats    *repos.CategoryRepo
	Prods   *repos.ProductRepo
	Metrics *metrics.Store
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo, m *metrics.Store) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods, Metrics: m}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	start := time.Now()
	cats, err := s.Cats.List(ctx)
	s.Metrics.CatalogFetch("categories", time.Since(start), err)
	return cats, err
}

func (s *CatalogService) ListProductsByCategory(ctx context.Context, feedID, category string) ([]domain.Product, error) {
	start := time.Now()
	prods, err := s.Prods.ListByFeed(ctx, feedID, category)
	s.Metrics.CatalogFetch("products", time.Since(start), err)
	return prods, err
}

func (s *CatalogService) GetProduct(ctx context.Context, feedID, productID string) (domain.Product, error) {
	start := time.Now()
	p, err := s.Prods.Get(ctx, feedID, productID)
	if errors.Is(err, repos.ErrProductNotFound) {
		s.Metrics.CatalogFetch("products", time.Since(start), nil)
	} else {
		s.Metrics.CatalogFetch("products", time.Since(start), err)
	}
	return p, err
}

// Search returns products from every category whose name, brand or tags
// contain all terms of q, split on whitespace and commas. Feeds that fail to load are
// skipped; failing to load the category list is an error.
func (s *CatalogService) Search(ctx context.Context, q string) ([]domain.Product, error) {
	terms := SearchTerms(q)
	if len(terms) == 0 {
		return []domain.Product{}, nil
	}
	cats, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	perFeed := make([][]domain.Product, len(cats))
	var mu sync.Mutex
	skipped := []string{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(searchParallelism)
	for i, c := range cats {
		g.Go(func() error {
			prods, err := s.ListProductsByCategory(gctx, c.FeedID, c.Name)
			if err != nil {
				mu.Lock()
				skipped = append(skipped, c.Name)
				mu.Unlock()
				return nil
			}
			perFeed[i] = prods
			return nil
		})
	}
	_ = g.Wait()

	if len(skipped) > 0 {
		applog.Error(nil, "catalog.search.skip", nil, map[string]any{"categories": skipped})
	}

	out := []domain.Product{}
	for _, prods := range perFeed {
		for _, p := range prods {
			if Matches(p, terms) {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

// SearchTerms lower-cases q and splits it on whitespace and commas.
func SearchTerms(q string) []string {
	return strings.FieldsFunc(strings.ToLower(q), func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
}

// Matches reports whether every lower-cased term occurs in the product's
// name, brand or tags.
func Matches(p domain.Product, terms []string) bool {
	name := strings.ToLower(p.Name)
	brand := strings.ToLower(p.Brand)
	tags := strings.ToLower(p.Tags)
	for _, t := range terms {
		if !strings.Contains(name, t) && !strings.Contains(brand, t) && !strings.Contains(tags, t) {
			return false
		}
	}
	return true
}
