package services

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"nittanymarket/internal/domain"
	"nittanymarket/internal/repos"
)

type ProfileService struct {
	Store *repos.Store
	Cost  int
}

func NewProfileService(store *repos.Store) *ProfileService {
	return &ProfileService{Store: store, Cost: bcrypt.DefaultCost}
}

// PasswordChange is optional on every profile form; an empty New leaves
// the password alone.
type PasswordChange struct {
	Current string
	New     string
	Confirm string
}

func (p PasswordChange) requested() bool { return p.New != "" }

type ProfileUpdate struct {
	BusinessName string
	Address      AddressInput
	// sellers only
	RoutingNumber string
	AccountNumber string

	Password PasswordChange
}

// Update applies a profile form for the account's role in one transaction:
// either every field and the password change land, or none do. On a
// password change every other session of the account is ended; keepSID is
// the caller's own session.
func (s *ProfileService) Update(ctx context.Context, acct *domain.Account, keepSID string, in ProfileUpdate) error {
	if acct == nil {
		return ErrUnauthorized
	}
	var hash []byte
	if in.Password.requested() {
		var err error
		if hash, err = s.checkPasswordChange(acct, in.Password); err != nil {
			return err
		}
	}

	return s.Store.WithTx(ctx, func(r *repos.Repos) error {
		switch acct.Role {
		case domain.RoleBuyer:
			cur, err := r.Users.Buyer(ctx, acct.Email)
			if err != nil {
				return fmt.Errorf("load buyer: %w", err)
			}
			aid, err := saveAddress(ctx, r, cur.AddressID, in.Address)
			if err != nil {
				return err
			}
			if in.BusinessName != "" {
				cur.BusinessName = in.BusinessName
			}
			cur.AddressID = aid
			if err := r.Users.UpdateBuyer(ctx, cur); err != nil {
				return err
			}
		case domain.RoleSeller:
			cur, err := r.Sellers.Get(ctx, acct.Email)
			if err != nil {
				return fmt.Errorf("load seller: %w", err)
			}
			aid, err := saveAddress(ctx, r, cur.AddressID, in.Address)
			if err != nil {
				return err
			}
			cur.AddressID = aid
			if in.BusinessName != "" {
				cur.BusinessName = in.BusinessName
			}
			if in.RoutingNumber != "" {
				cur.RoutingNumber = in.RoutingNumber
			}
			if in.AccountNumber != "" {
				cur.AccountNumber = in.AccountNumber
			}
			if err := r.Sellers.UpdateProfile(ctx, cur); err != nil {
				return err
			}
		}

		if hash != nil {
			if err := r.Users.UpdatePassword(ctx, acct.Email, string(hash)); err != nil {
				return err
			}
			return r.Users.DeleteSessionsFor(ctx, acct.Email, keepSID)
		}
		return nil
	})
}

func (s *ProfileService) checkPasswordChange(acct *domain.Account, p PasswordChange) ([]byte, error) {
	if bcrypt.CompareHashAndPassword([]byte(acct.Hash), []byte(p.Current)) != nil {
		return nil, ErrBadCreds
	}
	if p.New != p.Confirm {
		return nil, ErrPasswordMismatch
	}
	cost := s.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return bcrypt.GenerateFromPassword([]byte(p.New), cost)
}

// Address resolves an address id for display; nil when none is on file.
func (s *ProfileService) Address(ctx context.Context, id *int64) (*domain.Address, error) {
	if id == nil {
		return nil, nil
	}
	a, err := s.Store.Addresses.Get(ctx, *id)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
