package domain

import "time"

type ListingStatus string

const (
	ListingActive ListingStatus = "active"
	ListingSold   ListingStatus = "sold"
)

// StatusFor derives the status a listing must have for a remaining quantity.
func StatusFor(qty int) ListingStatus {
	if qty > 0 {
		return ListingActive
	}
	return ListingSold
}

type PaymentStatus string

const PaymentCompleted PaymentStatus = "completed"

type Category struct {
	Name   string  `db:"name"`
	Parent *string `db:"parent"`
	Level  int     `db:"level"`
}

type Listing struct {
	ID          int64         `db:"id"`
	SellerEmail string        `db:"seller_email"`
	Category    string        `db:"category"`
	Title       string        `db:"title"`
	ProductName string        `db:"product_name"`
	Description string        `db:"description"`
	UnitPrice   Money         `db:"price_cents"`
	Quantity    int           `db:"quantity"`
	Status      ListingStatus `db:"status"`
}

// ListingSummary is a listing joined with its seller name and review stats.
type ListingSummary struct {
	Listing
	SellerName  string  `db:"seller_name"`
	AvgRating   float64 `db:"avg_rating"`
	ReviewCount int     `db:"review_count"`
}

type Order struct {
	ID              int64         `db:"id"`
	BuyerEmail      string        `db:"buyer_email"`
	ListingID       int64         `db:"listing_id"`
	SellerEmail     string        `db:"seller_email"`
	PaymentMethodID *int64        `db:"payment_method_id"`
	Date            string        `db:"order_date"`
	Quantity        int           `db:"quantity"`
	UnitPrice       Money         `db:"price_cents"`
	Total           Money         `db:"total_cents"`
	PaymentStatus   PaymentStatus `db:"payment_status"`
}

// OrderDetail is an order joined with its listing and both parties' names.
type OrderDetail struct {
	Order
	Title       string `db:"title"`
	Description string `db:"description"`
	SellerName  string `db:"seller_name"`
	BuyerName   string `db:"buyer_name"`
	HasReview   bool   `db:"has_review"`
}

type Review struct {
	OrderID   int64  `db:"order_id"`
	Rating    int    `db:"rating"`
	Body      string `db:"body"`
	UpdatedAt string `db:"updated_at"`
}

// ListingReview is a review shown on a product page.
type ListingReview struct {
	Review
	BuyerEmail string `db:"buyer_email"`
	Date       string `db:"order_date"`
}

type PaymentMethod struct {
	ID          int64  `db:"id"`
	OwnerEmail  string `db:"owner_email"`
	CardNumber  string `db:"card_number"`
	CardType    string `db:"card_type"`
	ExpireMonth int    `db:"expire_month"`
	ExpireYear  int    `db:"expire_year"`
}

// Masked hides all but the last four digits.
func (p PaymentMethod) Masked() string {
	n := len(p.CardNumber)
	if n <= 4 {
		return p.CardNumber
	}
	return "•••• " + p.CardNumber[n-4:]
}

// Expired reports whether the card is unusable at now; cards are valid
// through the last day of their expiry month.
func (p PaymentMethod) Expired(now time.Time) bool {
	y, m, _ := now.Date()
	if p.ExpireYear != y {
		return p.ExpireYear < y
	}
	return p.ExpireMonth < int(m)
}
