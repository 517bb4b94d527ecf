package repos

import (
	"context"

	"nittanymarket/internal/domain"
)

type PaymentRepo struct{ q Querier }

func NewPaymentRepo(q Querier) *PaymentRepo { return &PaymentRepo{q: q} }

const paymentCols = `id, owner_email, card_number, card_type, expire_month, expire_year`

func (r *PaymentRepo) ListByOwner(ctx context.Context, email string) ([]domain.PaymentMethod, error) {
	var out []domain.PaymentMethod
	err := sel(ctx, r.q, &out, `SELECT `+paymentCols+` FROM payment_methods WHERE owner_email=? ORDER BY id`, email)
	return out, err
}

// GetOwned only returns the card when it belongs to owner.
func (r *PaymentRepo) GetOwned(ctx context.Context, id int64, owner string) (domain.PaymentMethod, error) {
	var p domain.PaymentMethod
	err := get(ctx, r.q, &p, `SELECT `+paymentCols+` FROM payment_methods WHERE id=? AND owner_email=?`, id, owner)
	return p, err
}

// NumberExists reports whether another card row already uses number.
func (r *PaymentRepo) NumberExists(ctx context.Context, number string, exceptID int64) (bool, error) {
	var n int
	if err := get(ctx, r.q, &n, `SELECT COUNT(*) FROM payment_methods WHERE card_number=? AND id<>?`, number, exceptID); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PaymentRepo) Create(ctx context.Context, p domain.PaymentMethod) (int64, error) {
	var id int64
	err := get(ctx, r.q, &id, `
		INSERT INTO payment_methods(owner_email, card_number, card_type, expire_month, expire_year)
		VALUES(?,?,?,?,?)
		RETURNING id
	`, p.OwnerEmail, p.CardNumber, p.CardType, p.ExpireMonth, p.ExpireYear)
	return id, err
}

func (r *PaymentRepo) Update(ctx context.Context, p domain.PaymentMethod) (bool, error) {
	return execOne(ctx, r.q, `
		UPDATE payment_methods SET card_number=?, card_type=?, expire_month=?, expire_year=?
		WHERE id=? AND owner_email=?
	`, p.CardNumber, p.CardType, p.ExpireMonth, p.ExpireYear, p.ID, p.OwnerEmail)
}

func (r *PaymentRepo) Delete(ctx context.Context, id int64, owner string) (bool, error) {
	return execOne(ctx, r.q, `DELETE FROM payment_methods WHERE id=? AND owner_email=?`, id, owner)
}
