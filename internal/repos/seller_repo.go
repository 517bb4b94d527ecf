package repos

import (
	"context"
	"fmt"

	"nittanymarket/internal/domain"
)

type SellerRepo struct{ q Querier }

func NewSellerRepo(q Querier) *SellerRepo { return &SellerRepo{q: q} }

func (r *SellerRepo) Create(ctx context.Context, p domain.SellerProfile) error {
	_, err := exec(ctx, r.q, `
		INSERT INTO sellers(email,business_name,address_id,bank_routing_number,bank_account_number,balance_cents)
		VALUES(?,?,?,?,?,?)
	`, p.Email, p.BusinessName, p.AddressID, p.RoutingNumber, p.AccountNumber, p.Balance)
	return err
}

func (r *SellerRepo) Get(ctx context.Context, email string) (domain.SellerProfile, error) {
	var p domain.SellerProfile
	err := get(ctx, r.q, &p, `
		SELECT email,business_name,address_id,bank_routing_number,bank_account_number,balance_cents
		FROM sellers WHERE email=?
	`, email)
	return p, err
}

func (r *SellerRepo) Balance(ctx context.Context, email string) (domain.Money, error) {
	var m domain.Money
	err := get(ctx, r.q, &m, `SELECT balance_cents FROM sellers WHERE email=?`, email)
	return m, err
}

// Credit adds amount to the seller's balance in a single statement.
func (r *SellerRepo) Credit(ctx context.Context, email string, amount domain.Money) error {
	ok, err := execOne(ctx, r.q, `UPDATE sellers SET balance_cents = balance_cents + ? WHERE email = ?`, amount, email)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("credit: seller %s not found", email)
	}
	return nil
}

// UpdateProfile changes business and bank details; the balance is untouched.
func (r *SellerRepo) UpdateProfile(ctx context.Context, p domain.SellerProfile) error {
	_, err := exec(ctx, r.q, `
		UPDATE sellers SET business_name=?, address_id=?, bank_routing_number=?, bank_account_number=?
		WHERE email=?
	`, p.BusinessName, p.AddressID, p.RoutingNumber, p.AccountNumber, p.Email)
	return err
}
