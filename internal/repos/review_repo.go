package repos

import (
	"context"
	"time"

	"nittanymarket/internal/domain"
)

type ReviewRepo struct{ q Querier }

func NewReviewRepo(q Querier) *ReviewRepo { return &ReviewRepo{q: q} }

func (r *ReviewRepo) Exists(ctx context.Context, orderID int64) (bool, error) {
	var n int
	if err := get(ctx, r.q, &n, `SELECT COUNT(*) FROM reviews WHERE order_id=?`, orderID); err != nil {
		return false, err
	}
	return n > 0, nil
}

// Upsert keeps at most one review per order; a second submission replaces
// the rating and text of the first.
func (r *ReviewRepo) Upsert(ctx context.Context, rv domain.Review, now time.Time) error {
	_, err := exec(ctx, r.q, `
		INSERT INTO reviews(order_id, rating, body, updated_at) VALUES(?,?,?,?)
		ON CONFLICT(order_id) DO UPDATE SET
		  rating = excluded.rating,
		  body = excluded.body,
		  updated_at = excluded.updated_at
	`, rv.OrderID, rv.Rating, rv.Body, now.UTC().Format(time.RFC3339))
	return err
}

func (r *ReviewRepo) ByOrder(ctx context.Context, orderID int64) (domain.Review, error) {
	var rv domain.Review
	err := get(ctx, r.q, &rv, `SELECT order_id, rating, body, updated_at FROM reviews WHERE order_id=?`, orderID)
	return rv, err
}

func (r *ReviewRepo) ByListing(ctx context.Context, listingID int64) ([]domain.ListingReview, error) {
	var out []domain.ListingReview
	err := sel(ctx, r.q, &out, `
		SELECT r.order_id, r.rating, r.body, r.updated_at, o.buyer_email, o.order_date
		FROM reviews r
		JOIN orders o ON o.id = r.order_id
		WHERE o.listing_id = ?
		ORDER BY r.order_id DESC
	`, listingID)
	return out, err
}

// SellerStats averages every review left on the seller's orders.
func (r *ReviewRepo) SellerStats(ctx context.Context, sellerEmail string) (avg float64, count int, err error) {
	var row struct {
		Avg   float64 `db:"avg_rating"`
		Count int     `db:"review_count"`
	}
	err = get(ctx, r.q, &row, `
		SELECT COALESCE(CAST(AVG(r.rating) AS DOUBLE PRECISION), 0) AS avg_rating, COUNT(r.order_id) AS review_count
		FROM reviews r
		JOIN orders o ON o.id = r.order_id
		WHERE o.seller_email = ?
	`, sellerEmail)
	return row.Avg, row.Count, err
}
