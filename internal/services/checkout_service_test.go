package services_test

import (
	"context"
	"errors"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"nittanymarket/internal/domain"
	"nittanymarket/internal/repos"
	"nittanymarket/internal/services"
)

func place(t *testing.T, svc *services.CheckoutService, listingID int64, qty int, card int64) (int64, error) {
	t.Helper()
	return svc.PlaceOrder(context.Background(), services.PlaceOrderRequest{
		BuyerEmail:      buyerEmail,
		ListingID:       listingID,
		Quantity:        qty,
		PaymentMethodID: card,
	})
}

func TestPlaceOrder_DecrementsStockAndCreditsSeller(t *testing.T) {
	f := newFixture(t, 1250, 5)
	svc := services.NewCheckoutService(f.store, nil)

	id, err := place(t, svc, f.listingID, 2, f.cardID)
	require.NoError(t, err)
	require.NotZero(t, id)

	l := f.listing(t)
	assert.Equal(t, 3, l.Quantity)
	assert.Equal(t, domain.ListingActive, l.Status)
	assert.Equal(t, domain.Money(2500), f.balance(t))
	assert.Equal(t, 1, f.orderCount(t))

	o, err := f.store.Orders.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, buyerEmail, o.BuyerEmail)
	assert.Equal(t, sellerEmail, o.SellerEmail)
	assert.Equal(t, 2, o.Quantity)
	assert.Equal(t, domain.Money(1250), o.UnitPrice)
	assert.Equal(t, domain.Money(2500), o.Total)
	assert.Equal(t, domain.PaymentCompleted, o.PaymentStatus)
	require.NotNil(t, o.PaymentMethodID)
	assert.Equal(t, f.cardID, *o.PaymentMethodID)
	assert.False(t, o.HasReview)
}

func TestPlaceOrder_SellOutThenNotAvailable(t *testing.T) {
	f := newFixture(t, 1000, 3)
	svc := services.NewCheckoutService(f.store, nil)

	_, err := place(t, svc, f.listingID, 3, f.cardID)
	require.NoError(t, err)

	l := f.listing(t)
	assert.Equal(t, 0, l.Quantity)
	assert.Equal(t, domain.ListingSold, l.Status)
	assert.Equal(t, "30.00", f.balance(t).String())

	_, err = place(t, svc, f.listingID, 1, f.cardID)
	require.ErrorIs(t, err, services.ErrNotAvailable)
	assert.Equal(t, 1, f.orderCount(t))
	assert.Equal(t, domain.Money(3000), f.balance(t))
}

func TestPlaceOrder_RejectionsLeaveStoreUnchanged(t *testing.T) {
	f := newFixture(t, 1000, 3)
	expired, err := f.store.Payments.Create(context.Background(), domain.PaymentMethod{
		OwnerEmail: buyerEmail, CardNumber: "4012888888881881", CardType: "Visa", ExpireMonth: 1, ExpireYear: 2020,
	})
	require.NoError(t, err)

	svc := services.NewCheckoutService(f.store, nil)
	svc.Now = func() time.Time { return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC) }

	cases := []struct {
		name    string
		listing int64
		qty     int
		card    int64
		want    error
	}{
		{"more than stock", f.listingID, 4, f.cardID, services.ErrInsufficientStock},
		{"zero quantity", f.listingID, 0, f.cardID, services.ErrInvalidQuantity},
		{"negative quantity", f.listingID, -2, f.cardID, services.ErrInvalidQuantity},
		{"unknown listing", 9999, 1, f.cardID, services.ErrNotAvailable},
		{"no card", f.listingID, 1, 0, services.ErrInvalidPayment},
		{"unknown card", f.listingID, 1, 9999, services.ErrInvalidPayment},
		{"someone else's card", f.listingID, 1, f.otherCard, services.ErrInvalidPayment},
		{"expired card", f.listingID, 1, expired, services.ErrInvalidPayment},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := place(t, svc, tc.listing, tc.qty, tc.card)
			require.ErrorIs(t, err, tc.want)
			assert.NotErrorIs(t, err, services.ErrTransactionFailed)

			l := f.listing(t)
			assert.Equal(t, 3, l.Quantity)
			assert.Equal(t, domain.ListingActive, l.Status)
			assert.Zero(t, f.balance(t))
			assert.Zero(t, f.orderCount(t))
		})
	}
}

func TestPlaceOrder_CardValidThroughExpiryMonth(t *testing.T) {
	f := newFixture(t, 500, 2)
	card, err := f.store.Payments.Create(context.Background(), domain.PaymentMethod{
		OwnerEmail: buyerEmail, CardNumber: "4012888888881881", CardType: "Visa", ExpireMonth: 6, ExpireYear: 2026,
	})
	require.NoError(t, err)

	svc := services.NewCheckoutService(f.store, nil)
	svc.Now = func() time.Time { return time.Date(2026, 6, 30, 23, 0, 0, 0, time.UTC) }
	_, err = place(t, svc, f.listingID, 1, card)
	require.NoError(t, err)

	svc.Now = func() time.Time { return time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC) }
	_, err = place(t, svc, f.listingID, 1, card)
	require.ErrorIs(t, err, services.ErrInvalidPayment)
}

func TestPlaceOrder_ConcurrentOrdersNeverOversell(t *testing.T) {
	const stock, buyers = 5, 12
	f := newFixture(t, 700, stock)
	svc := services.NewCheckoutService(f.store, nil)

	var ok, rejected atomic.Int32
	var g errgroup.Group
	for i := 0; i < buyers; i++ {
		g.Go(func() error {
			_, err := place(t, svc, f.listingID, 1, f.cardID)
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, services.ErrNotAvailable), errors.Is(err, services.ErrInsufficientStock):
				rejected.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.EqualValues(t, stock, ok.Load())
	assert.EqualValues(t, buyers-stock, rejected.Load())
	l := f.listing(t)
	assert.Equal(t, 0, l.Quantity)
	assert.Equal(t, domain.ListingSold, l.Status)
	assert.Equal(t, domain.Money(700*stock), f.balance(t))
	assert.Equal(t, stock, f.orderCount(t))
}

func TestPlaceOrder_ConcurrentMixedQuantities(t *testing.T) {
	f := newFixture(t, 100, 4)
	svc := services.NewCheckoutService(f.store, nil)

	qtys := []int{3, 3, 2, 1}
	var sold atomic.Int32
	var g errgroup.Group
	for _, q := range qtys {
		q := q
		g.Go(func() error {
			_, err := place(t, svc, f.listingID, q, f.cardID)
			if err == nil {
				sold.Add(int32(q))
				return nil
			}
			if errors.Is(err, services.ErrNotAvailable) || errors.Is(err, services.ErrInsufficientStock) {
				return nil
			}
			return err
		})
	}
	require.NoError(t, g.Wait())

	l := f.listing(t)
	assert.Equal(t, 4-int(sold.Load()), l.Quantity)
	assert.GreaterOrEqual(t, l.Quantity, 0)
	assert.Equal(t, domain.StatusFor(l.Quantity), l.Status)
	assert.Equal(t, domain.Money(100).Times(int(sold.Load())), f.balance(t))
}

// mockStore returns a Store over go-sqlmock. Queries are matched by regexp.
func mockStore(t *testing.T) (*repos.Store, sqlmock.Sqlmock) {
	t.Helper()
	mdb, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mdb.Close() })
	return repos.NewStore(sqlx.NewDb(mdb, "sqlmock")), mock
}

func expectValidatedCheckout(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM listings l WHERE l.id = ?")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "seller_email", "category", "title", "product_name", "description", "price_cents", "quantity", "status",
		}).AddRow(int64(7), sellerEmail, "", "Lamp", "Lamp", "", int64(1000), int64(3), "active"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM payment_methods WHERE id=? AND owner_email=?")).
		WithArgs(int64(11), buyerEmail).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "owner_email", "card_number", "card_type", "expire_month", "expire_year",
		}).AddRow(int64(11), buyerEmail, "4111111111111111", "Visa", int64(12), int64(2099)))
	mock.ExpectExec("UPDATE listings").
		WithArgs(2, 2, int64(7), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestPlaceOrder_StorageFailureRollsBack(t *testing.T) {
	store, mock := mockStore(t)
	expectValidatedCheckout(mock)
	mock.ExpectQuery("INSERT INTO orders").WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	svc := services.NewCheckoutService(store, nil)
	_, err := svc.PlaceOrder(context.Background(), services.PlaceOrderRequest{
		BuyerEmail: buyerEmail, ListingID: 7, Quantity: 2, PaymentMethodID: 11,
	})
	require.ErrorIs(t, err, services.ErrTransactionFailed)
	assert.Contains(t, err.Error(), "disk I/O error")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrder_SellerCreditMissRollsBack(t *testing.T) {
	store, mock := mockStore(t)
	expectValidatedCheckout(mock)
	mock.ExpectQuery("INSERT INTO orders").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(99)))
	mock.ExpectExec("UPDATE sellers SET balance_cents").
		WithArgs(domain.Money(2000), sellerEmail).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	svc := services.NewCheckoutService(store, nil)
	id, err := svc.PlaceOrder(context.Background(), services.PlaceOrderRequest{
		BuyerEmail: buyerEmail, ListingID: 7, Quantity: 2, PaymentMethodID: 11,
	})
	require.ErrorIs(t, err, services.ErrTransactionFailed)
	assert.Zero(t, id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrder_LostRaceReportsCurrentState(t *testing.T) {
	store, mock := mockStore(t)
	mock.ExpectBegin()
	cols := []string{"id", "seller_email", "category", "title", "product_name", "description", "price_cents", "quantity", "status"}
	mock.ExpectQuery(regexp.QuoteMeta("FROM listings l WHERE l.id = ?")).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(7), sellerEmail, "", "Lamp", "Lamp", "", int64(1000), int64(3), "active"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM payment_methods")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_email", "card_number", "card_type", "expire_month", "expire_year"}).
			AddRow(int64(11), buyerEmail, "4111111111111111", "Visa", int64(12), int64(2099)))
	// a concurrent checkout bought the last units first
	mock.ExpectExec("UPDATE listings").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM listings l WHERE l.id = ?")).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(7), sellerEmail, "", "Lamp", "Lamp", "", int64(1000), int64(0), "sold"))
	mock.ExpectRollback()

	svc := services.NewCheckoutService(store, nil)
	_, err := svc.PlaceOrder(context.Background(), services.PlaceOrderRequest{
		BuyerEmail: buyerEmail, ListingID: 7, Quantity: 2, PaymentMethodID: 11,
	})
	require.ErrorIs(t, err, services.ErrNotAvailable)
	assert.NotErrorIs(t, err, services.ErrTransactionFailed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPrepare_HidesExpiredCards(t *testing.T) {
	f := newFixture(t, 1000, 1)
	_, err := f.store.Payments.Create(context.Background(), domain.PaymentMethod{
		OwnerEmail: buyerEmail, CardNumber: "4012888888881881", CardType: "Visa", ExpireMonth: 1, ExpireYear: 2020,
	})
	require.NoError(t, err)

	svc := services.NewCheckoutService(f.store, nil)
	v, err := svc.Prepare(context.Background(), buyerEmail, f.listingID)
	require.NoError(t, err)
	require.Len(t, v.Payments, 1)
	assert.Equal(t, f.cardID, v.Payments[0].ID)
	assert.Equal(t, "Lion Supply", v.Listing.SellerName)

	_, err = svc.Prepare(context.Background(), buyerEmail, 424242)
	require.ErrorIs(t, err, services.ErrNotFound)
}
