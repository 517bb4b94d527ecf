package repos

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Querier is satisfied by both *sqlx.DB and *sqlx.Tx so every repo can run
// inside or outside a transaction.
type Querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// OpenDB connects with driver "sqlite" (modernc) or "pgx" and applies the schema.
func OpenDB(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// one connection: keeps :memory: databases alive and PRAGMAs applied
		db.SetMaxOpenConns(1)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates any missing tables and indexes. Safe to run on every start.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schemaFor(db.DriverName()) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Repos groups the repositories bound to one Querier.
type Repos struct {
	Users      *UserRepo
	Sellers    *SellerRepo
	Addresses  *AddressRepo
	Categories *CategoryRepo
	Listings   *ListingRepo
	Orders     *OrderRepo
	Reviews    *ReviewRepo
	Payments   *PaymentRepo
}

func newRepos(q Querier) *Repos {
	return &Repos{
		Users:      NewUserRepo(q),
		Sellers:    NewSellerRepo(q),
		Addresses:  NewAddressRepo(q),
		Categories: NewCategoryRepo(q),
		Listings:   NewListingRepo(q),
		Orders:     NewOrderRepo(q),
		Reviews:    NewReviewRepo(q),
		Payments:   NewPaymentRepo(q),
	}
}

// Store exposes repos bound to the pool plus WithTx for multi-statement work.
type Store struct {
	*Repos
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store { return &Store{Repos: newRepos(db), db: db} }

func (s *Store) DB() *sqlx.DB { return s.db }

// WithTx runs fn with repos bound to a single transaction. The transaction
// commits only if fn returns nil; any error rolls every statement back.
func (s *Store) WithTx(ctx context.Context, fn func(r *Repos) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(newRepos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// The helpers below rebind '?' placeholders for the active driver.

func get(ctx context.Context, q Querier, dest any, query string, args ...any) error {
	return q.GetContext(ctx, dest, q.Rebind(query), args...)
}

func sel(ctx context.Context, q Querier, dest any, query string, args ...any) error {
	return q.SelectContext(ctx, dest, q.Rebind(query), args...)
}

func exec(ctx context.Context, q Querier, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, q.Rebind(query), args...)
}

// execOne runs an UPDATE/DELETE and reports whether exactly one row changed.
func execOne(ctx context.Context, q Querier, query string, args ...any) (bool, error) {
	res, err := exec(ctx, q, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
