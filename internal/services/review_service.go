package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"nittanymarket/internal/domain"
	"nittanymarket/internal/repos"
)

const MaxReviewLen = 1000

type ReviewService struct {
	Store *repos.Store
	Now   func() time.Time
}

func NewReviewService(store *repos.Store) *ReviewService {
	return &ReviewService{Store: store, Now: time.Now}
}

// Submit creates or replaces the review of an order. Only the buyer who
// placed the order may review it. created is false when an existing review
// was replaced.
func (s *ReviewService) Submit(ctx context.Context, orderID int64, buyerEmail string, rating int, body string) (created bool, err error) {
	if rating < 1 || rating > 5 {
		return false, ErrInvalidRating
	}
	if utf8.RuneCountInString(body) > MaxReviewLen {
		return false, fmt.Errorf("%w: review text is limited to %d characters", ErrInvalidInput, MaxReviewLen)
	}
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	err = s.Store.WithTx(ctx, func(r *repos.Repos) error {
		o, err := r.Orders.Get(ctx, orderID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if o.BuyerEmail != buyerEmail {
			return ErrUnauthorized
		}
		created = !o.HasReview
		return r.Reviews.Upsert(ctx, domain.Review{OrderID: orderID, Rating: rating, Body: body}, now)
	})
	return created, err
}
