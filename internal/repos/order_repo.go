package repos

import (
	"context"

	"nittanymarket/internal/domain"
)

type OrderRepo struct{ q Querier }

func NewOrderRepo(q Querier) *OrderRepo { return &OrderRepo{q: q} }

// Create inserts a new order and returns its id.
func (r *OrderRepo) Create(ctx context.Context, o domain.Order) (int64, error) {
	var id int64
	err := get(ctx, r.q, &id, `
		INSERT INTO orders
		  (buyer_email, listing_id, seller_email, payment_method_id, order_date, quantity, price_cents, total_cents, payment_status)
		VALUES (?,?,?,?,?,?,?,?,?)
		RETURNING id
	`, o.BuyerEmail, o.ListingID, o.SellerEmail, o.PaymentMethodID, o.Date, o.Quantity, o.UnitPrice, o.Total,
		string(o.PaymentStatus))
	return id, err
}

const orderDetailSelect = `
SELECT o.id, o.buyer_email, o.listing_id, o.seller_email, o.payment_method_id, o.order_date,
       o.quantity, o.price_cents, o.total_cents, o.payment_status,
       l.title, l.description,
       s.business_name AS seller_name,
       b.business_name AS buyer_name,
       EXISTS(SELECT 1 FROM reviews r WHERE r.order_id = o.id) AS has_review
FROM orders o
JOIN listings l ON l.id = o.listing_id
JOIN sellers s ON s.email = o.seller_email
JOIN buyers b ON b.email = o.buyer_email`

func (r *OrderRepo) Get(ctx context.Context, id int64) (domain.OrderDetail, error) {
	var o domain.OrderDetail
	err := get(ctx, r.q, &o, orderDetailSelect+` WHERE o.id = ?`, id)
	return o, err
}

func (r *OrderRepo) ListByBuyer(ctx context.Context, email string) ([]domain.OrderDetail, error) {
	var out []domain.OrderDetail
	err := sel(ctx, r.q, &out, orderDetailSelect+` WHERE o.buyer_email = ? ORDER BY o.id DESC`, email)
	return out, err
}

func (r *OrderRepo) ListBySeller(ctx context.Context, email string) ([]domain.OrderDetail, error) {
	var out []domain.OrderDetail
	err := sel(ctx, r.q, &out, orderDetailSelect+` WHERE o.seller_email = ? ORDER BY o.id DESC`, email)
	return out, err
}

// ListLatest is the helpdesk view across all accounts.
func (r *OrderRepo) ListLatest(ctx context.Context, limit int) ([]domain.OrderDetail, error) {
	var out []domain.OrderDetail
	err := sel(ctx, r.q, &out, orderDetailSelect+` ORDER BY o.id DESC LIMIT ?`, limit)
	return out, err
}

func (r *OrderRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := get(ctx, r.q, &n, `SELECT COUNT(*) FROM orders`)
	return n, err
}

// UnitsSold sums ordered quantity for a listing.
func (r *OrderRepo) UnitsSold(ctx context.Context, listingID int64) (int, error) {
	var n int
	err := get(ctx, r.q, &n, `SELECT COALESCE(SUM(quantity),0) FROM orders WHERE listing_id = ?`, listingID)
	return n, err
}
