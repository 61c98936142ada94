package postgres

import (
	"context"
	"database/sql"
	"errors"

	"book-rental-backend/internal/domain"
	"book-rental-backend/internal/repository"

	jsoniter "github.com/json-iterator/go"
	"github.com/lib/pq"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	pqUniqueViolation     = "23505"
	openRequestConstraint = "return_requests_one_open_per_order"
)

type Store struct {
	db            *sql.DB
	Orders        repository.RentalOrderRepository
	Returns       repository.ReturnRequestRepository
	Customers     repository.CustomerRepository
	Ledger        repository.LedgerRepository
	Notifications repository.NotificationRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:            db,
		Orders:        NewRentalOrderRepository(db),
		Returns:       NewReturnRequestRepository(db),
		Customers:     NewCustomerRepository(db),
		Ledger:        NewLedgerRepository(db),
		Notifications: NewNotificationRepository(db),
	}
}

// DB exposes the underlying pool for health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// RunInTx runs fn in a transaction, committing when fn returns nil.
func RunInTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) error {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return mapError(err)
	}

	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return mapError(tx.Commit())
}

type rowScanner interface {
	Scan(dest ...any) error
}

// mapError turns driver failures the services care about into domain errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(domain.ErrUpstreamTimeout, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation && pqErr.Constraint == openRequestConstraint {
		return domain.ErrDuplicateOpenRequest
	}
	return err
}
