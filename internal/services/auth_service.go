package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"nittanymarket/internal/domain"
	"nittanymarket/internal/repos"
)

type AuthService struct {
	Store       *repos.Store
	SessionTTL  time.Duration
	RememberTTL time.Duration
	Cost        int
	Now         func() time.Time
}

func NewAuthService(store *repos.Store, sessionTTL, rememberTTL time.Duration) *AuthService {
	return &AuthService{
		Store:       store,
		SessionTTL:  sessionTTL,
		RememberTTL: rememberTTL,
		Cost:        bcrypt.DefaultCost,
		Now:         time.Now,
	}
}

// Login checks credentials and opens a new session. A fresh session id is
// issued on every login. The returned TTL is what the cookie should carry.
func (s *AuthService) Login(ctx context.Context, email, password string, remember bool) (string, *domain.Account, time.Duration, error) {
	a, err := s.Store.Users.ByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		// spend comparable time on unknown accounts
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		return "", nil, 0, ErrBadCreds
	}
	if err != nil {
		return "", nil, 0, err
	}
	if bcrypt.CompareHashAndPassword([]byte(a.Hash), []byte(password)) != nil {
		return "", nil, 0, ErrBadCreds
	}

	ttl := s.SessionTTL
	if remember {
		ttl = s.RememberTTL
	}
	sid := uuid.NewString()
	if err := s.Store.Users.CreateSession(ctx, sid, a.Email, ttl, s.now()); err != nil {
		return "", nil, 0, fmt.Errorf("create session: %w", err)
	}
	return sid, a, ttl, nil
}

func (s *AuthService) Logout(ctx context.Context, sid string) error {
	if sid == "" {
		return nil
	}
	return s.Store.Users.DeleteSession(ctx, sid)
}

// CurrentUser resolves a session id to its account with the role payload
// loaded. Idle sessions are deleted and reported as anonymous (nil, nil).
func (s *AuthService) CurrentUser(ctx context.Context, sid string) (*domain.Account, error) {
	if sid == "" {
		return nil, nil
	}
	sess, err := s.Store.Users.Session(ctx, sid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	now := s.now()
	if sess.Expired(now) {
		_ = s.Store.Users.DeleteSession(ctx, sid)
		return nil, nil
	}
	if err := s.Store.Users.TouchSession(ctx, sid, now); err != nil {
		return nil, err
	}
	a := &domain.Account{Email: sess.Email, Hash: sess.Hash, Role: sess.Role}
	if err := loadProfile(ctx, s.Store.Repos, a); err != nil {
		return nil, err
	}
	return a, nil
}

func loadProfile(ctx context.Context, r *repos.Repos, a *domain.Account) error {
	switch a.Role {
	case domain.RoleBuyer:
		p, err := r.Users.Buyer(ctx, a.Email)
		if err != nil {
			return fmt.Errorf("load buyer: %w", err)
		}
		a.Buyer = &p
	case domain.RoleSeller:
		p, err := r.Sellers.Get(ctx, a.Email)
		if err != nil {
			return fmt.Errorf("load seller: %w", err)
		}
		a.Seller = &p
	case domain.RoleHelpdesk:
		p, err := r.Users.Helpdesk(ctx, a.Email)
		if err != nil {
			return fmt.Errorf("load helpdesk: %w", err)
		}
		a.Helpdesk = &p
	}
	return nil
}

// AddressInput is a postal address as entered on a form. City and State
// only matter for a zipcode the store has not seen yet.
type AddressInput struct {
	Zipcode    string
	StreetNum  string
	StreetName string
	City       string
	State      string
}

func (in AddressInput) empty() bool { return in.Zipcode == "" && in.StreetName == "" }

// CardInput is a payment card as entered on a form. CVV is checked by the
// caller and never stored.
type CardInput struct {
	Number      string
	Type        string
	ExpireMonth int
	ExpireYear  int
}

type SignupRequest struct {
	Role     domain.Role
	Email    string
	Password string
	Confirm  string

	BusinessName string
	Address      AddressInput

	// buyer
	Card *CardInput
	// seller
	RoutingNumber string
	AccountNumber string
	// helpdesk
	Position string
}

// Signup creates the credential row and the role payload in one
// transaction.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) error {
	if req.Password != req.Confirm {
		return ErrPasswordMismatch
	}
	role, ok := domain.ParseRole(string(req.Role))
	if !ok {
		return ErrInvalidInput
	}
	req.Role = role
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost())
	if err != nil {
		return err
	}

	return s.Store.WithTx(ctx, func(r *repos.Repos) error {
		taken, err := r.Users.Exists(ctx, req.Email)
		if err != nil {
			return err
		}
		if taken {
			return ErrEmailTaken
		}
		if err := r.Users.Create(ctx, req.Email, string(hash), req.Role); err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		switch req.Role {
		case domain.RoleHelpdesk:
			pos := req.Position
			if pos == "" {
				pos = "Support Staff"
			}
			return r.Users.CreateHelpdesk(ctx, domain.HelpdeskProfile{Email: req.Email, Position: pos})

		case domain.RoleBuyer:
			aid, err := saveAddress(ctx, r, nil, req.Address)
			if err != nil {
				return err
			}
			if err := r.Users.CreateBuyer(ctx, domain.BuyerProfile{
				Email: req.Email, BusinessName: req.BusinessName, AddressID: aid,
			}); err != nil {
				return fmt.Errorf("create buyer: %w", err)
			}
			if req.Card == nil {
				return nil
			}
			dup, err := r.Payments.NumberExists(ctx, req.Card.Number, 0)
			if err != nil {
				return err
			}
			if dup {
				return ErrDuplicateCard
			}
			_, err = r.Payments.Create(ctx, domain.PaymentMethod{
				OwnerEmail:  req.Email,
				CardNumber:  req.Card.Number,
				CardType:    req.Card.Type,
				ExpireMonth: req.Card.ExpireMonth,
				ExpireYear:  req.Card.ExpireYear,
			})
			return err

		default:
			aid, err := saveAddress(ctx, r, nil, req.Address)
			if err != nil {
				return err
			}
			return r.Sellers.Create(ctx, domain.SellerProfile{
				Email:         req.Email,
				BusinessName:  req.BusinessName,
				AddressID:     aid,
				RoutingNumber: req.RoutingNumber,
				AccountNumber: req.AccountNumber,
			})
		}
	})
}

// saveAddress updates the address behind current or creates a new one.
// An empty input keeps current as it is.
func saveAddress(ctx context.Context, r *repos.Repos, current *int64, in AddressInput) (*int64, error) {
	if in.empty() {
		return current, nil
	}
	known, err := r.Addresses.ZipcodeKnown(ctx, in.Zipcode)
	if err != nil {
		return nil, err
	}
	if !known {
		if in.City == "" || in.State == "" {
			return nil, fmt.Errorf("%w: city and state are required for a new zipcode", ErrInvalidInput)
		}
		if err := r.Addresses.EnsureZipcode(ctx, in.Zipcode, in.City, in.State); err != nil {
			return nil, err
		}
	}
	a := domain.Address{Zipcode: in.Zipcode, StreetNum: in.StreetNum, StreetName: in.StreetName}
	if current != nil {
		a.ID = *current
		if err := r.Addresses.Update(ctx, a); err != nil {
			return nil, err
		}
		return current, nil
	}
	id, err := r.Addresses.Create(ctx, a)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (s *AuthService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *AuthService) cost() int {
	if s.Cost == 0 {
		return bcrypt.DefaultCost
	}
	return s.Cost
}

// dummyHash equalises login timing for unknown emails.
var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	return h
})
