package repos

import (
	"context"
	"strings"
	"time"

	"nittanymarket/internal/domain"
)

type ListingRepo struct{ q Querier }

func NewListingRepo(q Querier) *ListingRepo { return &ListingRepo{q: q} }

const listingCols = `l.id, l.seller_email, COALESCE(l.category,'') AS category, l.title, l.product_name,
  l.description, l.price_cents, l.quantity, l.status`

// summarySelect joins seller names and per-listing review stats. Stats come
// from a derived table so the aliases can be used in ORDER BY on every driver.
const summarySelect = `
SELECT ` + listingCols + `,
  s.business_name AS seller_name,
  COALESCE(st.avg_rating, 0) AS avg_rating,
  COALESCE(st.review_count, 0) AS review_count
FROM listings l
JOIN sellers s ON s.email = l.seller_email
LEFT JOIN (
  SELECT o.listing_id,
         CAST(AVG(r.rating) AS DOUBLE PRECISION) AS avg_rating,
         COUNT(*) AS review_count
  FROM reviews r
  JOIN orders o ON o.id = r.order_id
  GROUP BY o.listing_id
) st ON st.listing_id = l.id`

func (r *ListingRepo) Create(ctx context.Context, l domain.Listing) (int64, error) {
	var id int64
	err := get(ctx, r.q, &id, `
		INSERT INTO listings(seller_email,category,title,product_name,description,price_cents,quantity,status,created_at)
		VALUES(?,?,?,?,?,?,?,?,?)
		RETURNING id
	`, l.SellerEmail, nullable(l.Category), l.Title, l.ProductName, l.Description, l.UnitPrice, l.Quantity,
		string(domain.StatusFor(l.Quantity)), time.Now().UTC().Format(time.RFC3339))
	return id, err
}

func (r *ListingRepo) Get(ctx context.Context, id int64) (domain.Listing, error) {
	var l domain.Listing
	err := get(ctx, r.q, &l, `SELECT `+listingCols+` FROM listings l WHERE l.id = ?`, id)
	return l, err
}

func (r *ListingRepo) Summary(ctx context.Context, id int64) (domain.ListingSummary, error) {
	var l domain.ListingSummary
	err := get(ctx, r.q, &l, summarySelect+` WHERE l.id = ?`, id)
	return l, err
}

// Featured returns the best-rated active listings.
func (r *ListingRepo) Featured(ctx context.Context, limit int) ([]domain.ListingSummary, error) {
	var out []domain.ListingSummary
	err := sel(ctx, r.q, &out, summarySelect+`
		WHERE l.status = 'active'
		ORDER BY avg_rating DESC, review_count DESC, l.id DESC
		LIMIT ?`, limit)
	return out, err
}

// Recent returns the newest active listings.
func (r *ListingRepo) Recent(ctx context.Context, limit int) ([]domain.ListingSummary, error) {
	var out []domain.ListingSummary
	err := sel(ctx, r.q, &out, summarySelect+`
		WHERE l.status = 'active'
		ORDER BY l.id DESC
		LIMIT ?`, limit)
	return out, err
}

func (r *ListingRepo) BySeller(ctx context.Context, email string) ([]domain.ListingSummary, error) {
	var out []domain.ListingSummary
	err := sel(ctx, r.q, &out, summarySelect+`
		WHERE l.seller_email = ?
		ORDER BY l.id DESC`, email)
	return out, err
}

const (
	SortRelevance = "relevance"
	SortPriceLow  = "price_low"
	SortPriceHigh = "price_high"
	SortRating    = "rating"
	SortNewest    = "newest"
)

type ListingFilter struct {
	Query    string
	Category string
	MinPrice *domain.Money
	MaxPrice *domain.Money
	Sort     string
	Limit    int
}

// Search matches active listings by keyword (title, description, seller
// business name), category and price range.
func (r *ListingRepo) Search(ctx context.Context, f ListingFilter) ([]domain.ListingSummary, error) {
	where := []string{`l.status = 'active'`}
	args := []any{}
	like := "%" + strings.ToLower(f.Query) + "%"
	if f.Query != "" {
		where = append(where, `(LOWER(l.title) LIKE ? OR LOWER(l.description) LIKE ? OR LOWER(s.business_name) LIKE ?)`)
		args = append(args, like, like, like)
	}
	if f.Category != "" {
		where = append(where, `l.category = ?`)
		args = append(args, f.Category)
	}
	if f.MinPrice != nil {
		where = append(where, `l.price_cents >= ?`)
		args = append(args, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		where = append(where, `l.price_cents <= ?`)
		args = append(args, *f.MaxPrice)
	}

	order := ` ORDER BY avg_rating DESC, review_count DESC, l.id DESC`
	switch f.Sort {
	case SortPriceLow:
		order = ` ORDER BY l.price_cents ASC, l.id DESC`
	case SortPriceHigh:
		order = ` ORDER BY l.price_cents DESC, l.id DESC`
	case SortRating:
	case SortNewest:
		order = ` ORDER BY l.id DESC`
	default:
		if f.Query != "" {
			// title hits rank above description hits, which rank above seller hits
			order = ` ORDER BY CASE
				WHEN LOWER(l.title) LIKE ? THEN 3
				WHEN LOWER(l.description) LIKE ? THEN 2
				WHEN LOWER(s.business_name) LIKE ? THEN 1
				ELSE 0 END DESC, l.id DESC`
			args = append(args, like, like, like)
		}
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)

	var out []domain.ListingSummary
	err := sel(ctx, r.q, &out, summarySelect+` WHERE `+strings.Join(where, " AND ")+order+` LIMIT ?`, args...)
	return out, err
}

// Reserve decrements stock only if the listing is still active and holds at
// least qty units, moving it to sold when it reaches zero. It reports false
// when the guard did not match, i.e. a concurrent checkout got there first.
func (r *ListingRepo) Reserve(ctx context.Context, id int64, qty int) (bool, error) {
	return execOne(ctx, r.q, `
		UPDATE listings
		SET quantity = quantity - ?,
		    status = CASE WHEN quantity - ? = 0 THEN 'sold' ELSE 'active' END
		WHERE id = ? AND status = 'active' AND quantity >= ?
	`, qty, qty, id, qty)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
