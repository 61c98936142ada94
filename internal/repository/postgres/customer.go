package postgres

import (
	"context"
	"database/sql"
	"errors"

	"book-rental-backend/internal/domain"
	"book-rental-backend/internal/repository"
)

type customerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) repository.CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	c := &domain.Customer{}
	query := `SELECT id, full_name, email, COALESCE(phone, '') FROM customers WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.FullName, &c.Email, &c.Phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewInvalidArgumentError("unknown customer " + id)
	}
	if err != nil {
		return nil, mapError(err)
	}
	return c, nil
}
