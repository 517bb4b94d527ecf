package services

import (
	"context"
	"database/sql"
	"errors"

	"nittanymarket/internal/domain"
	"nittanymarket/internal/repos"
)

// PaymentService manages a buyer's saved cards. Every call is scoped to the
// owner; a card belonging to someone else behaves as if it did not exist.
type PaymentService struct {
	Payments *repos.PaymentRepo
}

func NewPaymentService(p *repos.PaymentRepo) *PaymentService { return &PaymentService{Payments: p} }

func (s *PaymentService) List(ctx context.Context, owner string) ([]domain.PaymentMethod, error) {
	return s.Payments.ListByOwner(ctx, owner)
}

func (s *PaymentService) Get(ctx context.Context, id int64, owner string) (domain.PaymentMethod, error) {
	p, err := s.Payments.GetOwned(ctx, id, owner)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PaymentMethod{}, ErrNotFound
	}
	return p, err
}

func (s *PaymentService) Add(ctx context.Context, owner string, in CardInput) (int64, error) {
	dup, err := s.Payments.NumberExists(ctx, in.Number, 0)
	if err != nil {
		return 0, err
	}
	if dup {
		return 0, ErrDuplicateCard
	}
	return s.Payments.Create(ctx, domain.PaymentMethod{
		OwnerEmail:  owner,
		CardNumber:  in.Number,
		CardType:    in.Type,
		ExpireMonth: in.ExpireMonth,
		ExpireYear:  in.ExpireYear,
	})
}

// Update changes type and expiry. The number may change too, as long as no
// other card uses it.
func (s *PaymentService) Update(ctx context.Context, id int64, owner string, in CardInput) error {
	cur, err := s.Get(ctx, id, owner)
	if err != nil {
		return err
	}
	if in.Number == "" {
		in.Number = cur.CardNumber
	}
	dup, err := s.Payments.NumberExists(ctx, in.Number, id)
	if err != nil {
		return err
	}
	if dup {
		return ErrDuplicateCard
	}
	ok, err := s.Payments.Update(ctx, domain.PaymentMethod{
		ID:          id,
		OwnerEmail:  owner,
		CardNumber:  in.Number,
		CardType:    in.Type,
		ExpireMonth: in.ExpireMonth,
		ExpireYear:  in.ExpireYear,
	})
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *PaymentService) Delete(ctx context.Context, id int64, owner string) error {
	ok, err := s.Payments.Delete(ctx, id, owner)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
