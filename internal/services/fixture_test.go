package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"nittanymarket/internal/domain"
	"nittanymarket/internal/repos"
)

const (
	buyerEmail  = "buyer@test.example"
	otherBuyer  = "other@test.example"
	sellerEmail = "seller@test.example"
	password    = "Passw0rd!"
)

type fixture struct {
	store     *repos.Store
	listingID int64
	cardID    int64
	otherCard int64
}

func memStore(t *testing.T) *repos.Store {
	t.Helper()
	db, err := repos.OpenDB(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return repos.NewStore(db)
}

// newFixture creates two buyers with one card each, a seller and one
// listing with the given price and stock.
func newFixture(t *testing.T, price domain.Money, qty int) fixture {
	t.Helper()
	ctx := context.Background()
	s := memStore(t)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	f := fixture{store: s}
	for _, b := range []string{buyerEmail, otherBuyer} {
		require.NoError(t, s.Users.Create(ctx, b, string(hash), domain.RoleBuyer))
		require.NoError(t, s.Users.CreateBuyer(ctx, domain.BuyerProfile{Email: b, BusinessName: "Buyer " + b}))
	}
	require.NoError(t, s.Users.Create(ctx, sellerEmail, string(hash), domain.RoleSeller))
	require.NoError(t, s.Sellers.Create(ctx, domain.SellerProfile{Email: sellerEmail, BusinessName: "Lion Supply"}))

	f.cardID, err = s.Payments.Create(ctx, domain.PaymentMethod{
		OwnerEmail: buyerEmail, CardNumber: "4111111111111111", CardType: "Visa", ExpireMonth: 12, ExpireYear: 2099,
	})
	require.NoError(t, err)
	f.otherCard, err = s.Payments.Create(ctx, domain.PaymentMethod{
		OwnerEmail: otherBuyer, CardNumber: "5500000000000004", CardType: "MasterCard", ExpireMonth: 12, ExpireYear: 2099,
	})
	require.NoError(t, err)

	f.listingID, err = s.Listings.Create(ctx, domain.Listing{
		SellerEmail: sellerEmail,
		Title:       "Wireless Headphones",
		ProductName: "WH-1000",
		Description: "Noise cancelling",
		UnitPrice:   price,
		Quantity:    qty,
	})
	require.NoError(t, err)
	return f
}

func (f fixture) listing(t *testing.T) domain.Listing {
	t.Helper()
	l, err := f.store.Listings.Get(context.Background(), f.listingID)
	require.NoError(t, err)
	return l
}

func (f fixture) balance(t *testing.T) domain.Money {
	t.Helper()
	b, err := f.store.Sellers.Balance(context.Background(), sellerEmail)
	require.NoError(t, err)
	return b
}

func (f fixture) orderCount(t *testing.T) int {
	t.Helper()
	n, err := f.store.Orders.Count(context.Background())
	require.NoError(t, err)
	return n
}
