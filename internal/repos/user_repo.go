package repos

import (
	"context"
	"time"

	"nittanymarket/internal/domain"
)

type UserRepo struct{ q Querier }

func NewUserRepo(q Querier) *UserRepo { return &UserRepo{q: q} }

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.Account, error) {
	var a domain.Account
	err := get(ctx, r.q, &a, `SELECT email,password_hash,role FROM users WHERE LOWER(email)=LOWER(?)`, email)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *UserRepo) Exists(ctx context.Context, email string) (bool, error) {
	var n int
	if err := get(ctx, r.q, &n, `SELECT COUNT(*) FROM users WHERE LOWER(email)=LOWER(?)`, email); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *UserRepo) Create(ctx context.Context, email, hash string, role domain.Role) error {
	_, err := exec(ctx, r.q, `
		INSERT INTO users(email,password_hash,role,created_at) VALUES(?,?,?,?)
	`, email, hash, string(role), time.Now().UTC().Format(time.RFC3339))
	return err
}

func (r *UserRepo) UpdatePassword(ctx context.Context, email, hash string) error {
	_, err := exec(ctx, r.q, `UPDATE users SET password_hash=? WHERE email=?`, hash, email)
	return err
}

// ---------- Role payloads ----------

func (r *UserRepo) CreateBuyer(ctx context.Context, p domain.BuyerProfile) error {
	_, err := exec(ctx, r.q, `INSERT INTO buyers(email,business_name,address_id) VALUES(?,?,?)`,
		p.Email, p.BusinessName, p.AddressID)
	return err
}

func (r *UserRepo) Buyer(ctx context.Context, email string) (domain.BuyerProfile, error) {
	var p domain.BuyerProfile
	err := get(ctx, r.q, &p, `SELECT email,business_name,address_id FROM buyers WHERE email=?`, email)
	return p, err
}

func (r *UserRepo) UpdateBuyer(ctx context.Context, p domain.BuyerProfile) error {
	_, err := exec(ctx, r.q, `UPDATE buyers SET business_name=?, address_id=? WHERE email=?`,
		p.BusinessName, p.AddressID, p.Email)
	return err
}

func (r *UserRepo) CreateHelpdesk(ctx context.Context, p domain.HelpdeskProfile) error {
	_, err := exec(ctx, r.q, `INSERT INTO helpdesk(email,position) VALUES(?,?)`, p.Email, p.Position)
	return err
}

func (r *UserRepo) Helpdesk(ctx context.Context, email string) (domain.HelpdeskProfile, error) {
	var p domain.HelpdeskProfile
	err := get(ctx, r.q, &p, `SELECT email,position FROM helpdesk WHERE email=?`, email)
	return p, err
}

// ---------- Sessions ----------

// Session is a sessions row joined with its account.
type Session struct {
	ID         string      `db:"id"`
	Email      string      `db:"email"`
	Role       domain.Role `db:"role"`
	Hash       string      `db:"password_hash"`
	TTLSeconds int64       `db:"ttl_seconds"`
	LastSeen   string      `db:"last_seen"`
}

// Expired reports whether the session has been idle longer than its TTL.
func (s Session) Expired(now time.Time) bool {
	seen, err := time.Parse(time.RFC3339, s.LastSeen)
	if err != nil {
		return true
	}
	return now.Sub(seen) > time.Duration(s.TTLSeconds)*time.Second
}

func (r *UserRepo) CreateSession(ctx context.Context, sid, email string, ttl time.Duration, now time.Time) error {
	ts := now.UTC().Format(time.RFC3339)
	_, err := exec(ctx, r.q, `
		INSERT INTO sessions(id,email,ttl_seconds,created_at,last_seen) VALUES(?,?,?,?,?)
	`, sid, email, int64(ttl/time.Second), ts, ts)
	return err
}

func (r *UserRepo) Session(ctx context.Context, sid string) (Session, error) {
	var s Session
	err := get(ctx, r.q, &s, `
		SELECT s.id, s.email, u.role, u.password_hash, s.ttl_seconds, s.last_seen
		FROM sessions s
		JOIN users u ON u.email = s.email
		WHERE s.id = ?
	`, sid)
	return s, err
}

func (r *UserRepo) TouchSession(ctx context.Context, sid string, now time.Time) error {
	_, err := exec(ctx, r.q, `UPDATE sessions SET last_seen=? WHERE id=?`, now.UTC().Format(time.RFC3339), sid)
	return err
}

func (r *UserRepo) DeleteSession(ctx context.Context, sid string) error {
	_, err := exec(ctx, r.q, `DELETE FROM sessions WHERE id=?`, sid)
	return err
}

// DeleteSessionsFor drops every session of an account except keep.
func (r *UserRepo) DeleteSessionsFor(ctx context.Context, email, keep string) error {
	_, err := exec(ctx, r.q, `DELETE FROM sessions WHERE email=? AND id<>?`, email, keep)
	return err
}
