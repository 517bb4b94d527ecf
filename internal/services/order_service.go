package services

import (
	"context"
	"database/sql"
	"errors"

	"nittanymarket/internal/domain"
	"nittanymarket/internal/repos"
)

// HelpdeskOrderLimit bounds the all-orders view.
const HelpdeskOrderLimit = 100

type OrderService struct {
	Orders  *repos.OrderRepo
	Reviews *repos.ReviewRepo
}

func NewOrderService(orders *repos.OrderRepo, reviews *repos.ReviewRepo) *OrderService {
	return &OrderService{Orders: orders, Reviews: reviews}
}

// OrderView is an order plus its review, if any.
type OrderView struct {
	Order  domain.OrderDetail
	Review *domain.Review
}

// View returns an order the account may see: buyers their own purchases,
// sellers orders on their listings, helpdesk everything.
func (s *OrderService) View(ctx context.Context, acct *domain.Account, id int64) (OrderView, error) {
	o, err := s.Orders.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return OrderView{}, ErrNotFound
	}
	if err != nil {
		return OrderView{}, err
	}
	if !CanSeeOrder(acct, o.Order) {
		return OrderView{}, ErrUnauthorized
	}
	v := OrderView{Order: o}
	if o.HasReview {
		rv, err := s.Reviews.ByOrder(ctx, id)
		if err != nil {
			return OrderView{}, err
		}
		v.Review = &rv
	}
	return v, nil
}

func CanSeeOrder(acct *domain.Account, o domain.Order) bool {
	if acct == nil {
		return false
	}
	switch acct.Role {
	case domain.RoleHelpdesk:
		return true
	case domain.RoleBuyer:
		return o.BuyerEmail == acct.Email
	case domain.RoleSeller:
		return o.SellerEmail == acct.Email
	}
	return false
}

// List returns the orders visible to the account, newest first.
func (s *OrderService) List(ctx context.Context, acct *domain.Account) ([]domain.OrderDetail, error) {
	if acct == nil {
		return nil, ErrUnauthorized
	}
	switch acct.Role {
	case domain.RoleBuyer:
		return s.Orders.ListByBuyer(ctx, acct.Email)
	case domain.RoleSeller:
		return s.Orders.ListBySeller(ctx, acct.Email)
	case domain.RoleHelpdesk:
		return s.Orders.ListLatest(ctx, HelpdeskOrderLimit)
	}
	return nil, ErrUnauthorized
}
