package services

import (
	"context"
	"database/sql"
	"errors"

	"golang.org/x/sync/errgroup"

	"nittanymarket/internal/domain"
	"nittanymarket/internal/repos"
)

type CatalogService struct {
	Store *repos.Store
}

func NewCatalogService(store *repos.Store) *CatalogService {
	return &CatalogService{Store: store}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.Store.Categories.Tree(ctx)
}

// SortOptions lists the accepted search orders, relevance first.
var SortOptions = []string{repos.SortRelevance, repos.SortPriceLow, repos.SortPriceHigh, repos.SortRating, repos.SortNewest}

// Search normalises the filter and runs it. An unknown sort falls back to
// relevance; a min price above the max is rejected.
func (s *CatalogService) Search(ctx context.Context, f repos.ListingFilter) ([]domain.ListingSummary, error) {
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return nil, ErrInvalidInput
	}
	known := false
	for _, o := range SortOptions {
		if f.Sort == o {
			known = true
			break
		}
	}
	if !known {
		f.Sort = repos.SortRelevance
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}
	return s.Store.Listings.Search(ctx, f)
}

type ProductView struct {
	Listing   domain.ListingSummary
	Reviews   []domain.ListingReview
	UnitsSold int
}

func (s *CatalogService) Product(ctx context.Context, id int64) (ProductView, error) {
	l, err := s.Store.Listings.Summary(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ProductView{}, ErrNotFound
	}
	if err != nil {
		return ProductView{}, err
	}
	v := ProductView{Listing: l}
	if v.Reviews, err = s.Store.Reviews.ByListing(ctx, id); err != nil {
		return ProductView{}, err
	}
	if v.UnitsSold, err = s.Store.Orders.UnitsSold(ctx, id); err != nil {
		return ProductView{}, err
	}
	return v, nil
}

// Home is the landing page catalog: best rated and newest listings.
type Home struct {
	Featured []domain.ListingSummary
	Recent   []domain.ListingSummary
	Tree     []domain.Category
}

// Home loads the three sections concurrently; on SQLite the single pooled
// connection serialises them.
func (s *CatalogService) Home(ctx context.Context, limit int) (Home, error) {
	var h Home
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		h.Featured, err = s.Store.Listings.Featured(ctx, limit)
		return err
	})
	g.Go(func() (err error) {
		h.Recent, err = s.Store.Listings.Recent(ctx, limit)
		return err
	})
	g.Go(func() (err error) {
		h.Tree, err = s.Store.Categories.Tree(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Home{}, err
	}
	return h, nil
}
