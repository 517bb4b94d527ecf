package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"nittanymarket/internal/domain"
	"nittanymarket/internal/repos"
)

type DashboardService struct {
	Store *repos.Store
}

func NewDashboardService(store *repos.Store) *DashboardService {
	return &DashboardService{Store: store}
}

type BuyerDashboard struct {
	Featured []domain.ListingSummary
	Recent   []domain.ListingSummary
	Tree     []domain.Category
	Orders   []domain.OrderDetail
	Payments []domain.PaymentMethod
	Address  *domain.Address
}

func (s *DashboardService) Buyer(ctx context.Context, acct *domain.Account) (BuyerDashboard, error) {
	var d BuyerDashboard
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Featured, err = s.Store.Listings.Featured(ctx, 8)
		return err
	})
	g.Go(func() (err error) {
		d.Recent, err = s.Store.Listings.Recent(ctx, 8)
		return err
	})
	g.Go(func() (err error) {
		d.Tree, err = s.Store.Categories.Tree(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.Orders, err = s.Store.Orders.ListByBuyer(ctx, acct.Email)
		return err
	})
	g.Go(func() (err error) {
		d.Payments, err = s.Store.Payments.ListByOwner(ctx, acct.Email)
		return err
	})
	if acct.Buyer != nil && acct.Buyer.AddressID != nil {
		g.Go(func() error {
			a, err := s.Store.Addresses.Get(ctx, *acct.Buyer.AddressID)
			if err != nil {
				return err
			}
			d.Address = &a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BuyerDashboard{}, err
	}
	return d, nil
}

type SellerDashboard struct {
	Balance     domain.Money
	Listings    []domain.ListingSummary
	Orders      []domain.OrderDetail
	AvgRating   float64
	ReviewCount int
	Address     *domain.Address
}

func (s *DashboardService) Seller(ctx context.Context, acct *domain.Account) (SellerDashboard, error) {
	var d SellerDashboard
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Balance, err = s.Store.Sellers.Balance(ctx, acct.Email)
		return err
	})
	g.Go(func() (err error) {
		d.Listings, err = s.Store.Listings.BySeller(ctx, acct.Email)
		return err
	})
	g.Go(func() (err error) {
		d.Orders, err = s.Store.Orders.ListBySeller(ctx, acct.Email)
		return err
	})
	g.Go(func() (err error) {
		d.AvgRating, d.ReviewCount, err = s.Store.Reviews.SellerStats(ctx, acct.Email)
		return err
	})
	if acct.Seller != nil && acct.Seller.AddressID != nil {
		g.Go(func() error {
			a, err := s.Store.Addresses.Get(ctx, *acct.Seller.AddressID)
			if err != nil {
				return err
			}
			d.Address = &a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SellerDashboard{}, err
	}
	return d, nil
}

type HelpdeskDashboard struct {
	Orders     []domain.OrderDetail
	OrderCount int
}

func (s *DashboardService) Helpdesk(ctx context.Context) (HelpdeskDashboard, error) {
	var d HelpdeskDashboard
	var err error
	if d.Orders, err = s.Store.Orders.ListLatest(ctx, HelpdeskOrderLimit); err != nil {
		return d, err
	}
	if d.OrderCount, err = s.Store.Orders.Count(ctx); err != nil {
		return d, err
	}
	return d, nil
}
