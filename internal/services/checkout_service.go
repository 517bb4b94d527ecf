package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"nittanymarket/internal/domain"
	"nittanymarket/internal/metrics"
	"nittanymarket/internal/repos"
)

type PlaceOrderRequest struct {
	BuyerEmail      string
	ListingID       int64
	Quantity        int
	PaymentMethodID int64
}

// CheckoutService places orders. An order, the stock decrement and the
// seller credit are written in one transaction or not at all.
type CheckoutService struct {
	Store   *repos.Store
	Metrics *metrics.Metrics
	Now     func() time.Time
}

func NewCheckoutService(store *repos.Store, m *metrics.Metrics) *CheckoutService {
	return &CheckoutService{Store: store, Metrics: m, Now: time.Now}
}

// CheckoutView is what the checkout page needs to render.
type CheckoutView struct {
	Listing  domain.ListingSummary
	Payments []domain.PaymentMethod
}

func (s *CheckoutService) Prepare(ctx context.Context, buyerEmail string, listingID int64) (CheckoutView, error) {
	l, err := s.Store.Listings.Summary(ctx, listingID)
	if errors.Is(err, sql.ErrNoRows) {
		return CheckoutView{}, ErrNotFound
	}
	if err != nil {
		return CheckoutView{}, err
	}
	if l.Status != domain.ListingActive {
		return CheckoutView{}, ErrNotAvailable
	}
	all, err := s.Store.Payments.ListByOwner(ctx, buyerEmail)
	if err != nil {
		return CheckoutView{}, err
	}
	now := s.now()
	usable := make([]domain.PaymentMethod, 0, len(all))
	for _, p := range all {
		if !p.Expired(now) {
			usable = append(usable, p)
		}
	}
	return CheckoutView{Listing: l, Payments: usable}, nil
}

// PlaceOrder validates the purchase against the listing as it is inside the
// transaction, then reserves stock, records the order and credits the seller.
// Domain failures are returned as their sentinel; anything else is wrapped in
// ErrTransactionFailed. In both cases nothing is written.
func (s *CheckoutService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (orderID int64, err error) {
	start := time.Now()
	defer func() { s.Metrics.ObserveCheckout(outcome(err), time.Since(start)) }()

	if req.Quantity < 1 {
		return 0, ErrInvalidQuantity
	}
	now := s.now()

	err = s.Store.WithTx(ctx, func(r *repos.Repos) error {
		l, err := r.Listings.Get(ctx, req.ListingID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotAvailable
		}
		if err != nil {
			return fmt.Errorf("load listing: %w", err)
		}
		if l.Status != domain.ListingActive || l.Quantity == 0 {
			return ErrNotAvailable
		}
		if req.Quantity > l.Quantity {
			return ErrInsufficientStock
		}

		if req.PaymentMethodID == 0 {
			return ErrInvalidPayment
		}
		pm, err := r.Payments.GetOwned(ctx, req.PaymentMethodID, req.BuyerEmail)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidPayment
		}
		if err != nil {
			return fmt.Errorf("load payment method: %w", err)
		}
		if pm.Expired(now) {
			return ErrInvalidPayment
		}

		ok, err := r.Listings.Reserve(ctx, l.ID, req.Quantity)
		if err != nil {
			return fmt.Errorf("reserve stock: %w", err)
		}
		if !ok {
			// another checkout changed the row after we read it
			cur, err := r.Listings.Get(ctx, l.ID)
			if err != nil {
				return fmt.Errorf("reload listing: %w", err)
			}
			if cur.Status != domain.ListingActive {
				return ErrNotAvailable
			}
			return ErrInsufficientStock
		}

		total := l.UnitPrice.Times(req.Quantity)
		pmID := pm.ID
		id, err := r.Orders.Create(ctx, domain.Order{
			BuyerEmail:      req.BuyerEmail,
			ListingID:       l.ID,
			SellerEmail:     l.SellerEmail,
			PaymentMethodID: &pmID,
			Date:            now.UTC().Format(time.RFC3339),
			Quantity:        req.Quantity,
			UnitPrice:       l.UnitPrice,
			Total:           total,
			PaymentStatus:   domain.PaymentCompleted,
		})
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		if err := r.Sellers.Credit(ctx, l.SellerEmail, total); err != nil {
			return fmt.Errorf("credit seller: %w", err)
		}
		orderID = id
		return nil
	})
	if err != nil {
		if !isCheckoutRejection(err) {
			err = fmt.Errorf("%w: %w", ErrTransactionFailed, err)
		}
		return 0, err
	}
	return orderID, nil
}

func (s *CheckoutService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func isCheckoutRejection(err error) bool {
	for _, e := range []error{ErrNotAvailable, ErrInsufficientStock, ErrInvalidQuantity, ErrInvalidPayment} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotAvailable):
		return "not_available"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, ErrInvalidPayment):
		return "invalid_payment"
	default:
		return "failed"
	}
}
