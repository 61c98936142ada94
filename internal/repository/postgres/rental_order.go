package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"book-rental-backend/internal/domain"
	"book-rental-backend/internal/logger"
	"book-rental-backend/internal/repository"

	"github.com/lib/pq"
)

const rentalOrderColumns = `id, customer_id, items, rental_start_date, rental_end_date, return_window_deadline, status, payment_method, total_amount, created_on, updated_on`

type rentalOrderRepository struct {
	db *sql.DB
}

func NewRentalOrderRepository(db *sql.DB) repository.RentalOrderRepository {
	return &rentalOrderRepository{db: db}
}

func scanRentalOrder(row rowScanner) (*domain.RentalOrder, error) {
	var (
		o     domain.RentalOrder
		items []byte
	)
	err := row.Scan(&o.ID, &o.CustomerID, &items, &o.RentalStartDate, &o.RentalEndDate, &o.ReturnWindowDeadline,
		&o.Status, &o.PaymentMethod, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("decode items of order %s: %w", o.ID, err)
	}
	return &o, nil
}

func collectRentalOrders(rows *sql.Rows) ([]domain.RentalOrder, error) {
	defer rows.Close()
	var orders []domain.RentalOrder
	for rows.Next() {
		o, err := scanRentalOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (r *rentalOrderRepository) GetByID(ctx context.Context, id string) (*domain.RentalOrder, error) {
	logger.EnterMethod("rentalOrderRepository.GetByID", "orderID", id)

	query := `SELECT ` + rentalOrderColumns + ` FROM rental_orders WHERE id = $1`
	o, err := scanRentalOrder(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		logger.ExitMethod("rentalOrderRepository.GetByID", "orderID", id, "found", false)
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		logger.ExitMethodWithError("rentalOrderRepository.GetByID", err, "orderID", id)
		return nil, mapError(err)
	}

	logger.ExitMethod("rentalOrderRepository.GetByID", "orderID", id)
	return o, nil
}

func (r *rentalOrderRepository) ListByCustomer(ctx context.Context, customerID string, statuses ...domain.OrderStatus) ([]domain.RentalOrder, error) {
	logger.EnterMethod("rentalOrderRepository.ListByCustomer", "customerID", customerID, "statuses", statuses)

	query := `SELECT ` + rentalOrderColumns + ` FROM rental_orders WHERE customer_id = $1`
	args := []any{customerID}
	if len(statuses) > 0 {
		names := make([]string, len(statuses))
		for i, s := range statuses {
			names[i] = string(s)
		}
		query += ` AND status = ANY($2)`
		args = append(args, pq.Array(names))
	}
	query += ` ORDER BY rental_end_date ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.ExitMethodWithError("rentalOrderRepository.ListByCustomer", err, "customerID", customerID)
		return nil, mapError(err)
	}
	orders, err := collectRentalOrders(rows)
	if err != nil {
		logger.ExitMethodWithError("rentalOrderRepository.ListByCustomer", err, "customerID", customerID)
		return nil, mapError(err)
	}

	logger.ExitMethod("rentalOrderRepository.ListByCustomer", "customerID", customerID, "count", len(orders))
	return orders, nil
}

func (r *rentalOrderRepository) MarkOverdue(ctx context.Context, asOf time.Time) ([]domain.RentalOrder, error) {
	query := `
		UPDATE rental_orders
		SET status = 'overdue',
		    updated_on = NOW()
		WHERE status = 'active'
		  AND rental_end_date < $1
		RETURNING ` + rentalOrderColumns

	logger.DatabaseCall("MarkOverdue", query, "as_of", asOf.Format("2006-01-02"))
	rows, err := r.db.QueryContext(ctx, query, asOf.Format("2006-01-02"))
	if err != nil {
		logger.DatabaseResult("MarkOverdue", 0, err)
		return nil, mapError(err)
	}
	orders, err := collectRentalOrders(rows)
	logger.DatabaseResult("MarkOverdue", int64(len(orders)), err)
	if err != nil {
		return nil, mapError(err)
	}
	return orders, nil
}

func (r *rentalOrderRepository) ListReturnWindowClosing(ctx context.Context, from, to time.Time) ([]domain.RentalOrder, error) {
	query := `SELECT ` + rentalOrderColumns + ` FROM rental_orders
		WHERE status <> 'closed'
		  AND return_window_deadline >= $1
		  AND return_window_deadline < $2
		ORDER BY return_window_deadline ASC, id ASC`

	logger.DatabaseCall("ListReturnWindowClosing", query, "from", from, "to", to)
	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		logger.DatabaseResult("ListReturnWindowClosing", 0, err)
		return nil, mapError(err)
	}
	orders, err := collectRentalOrders(rows)
	logger.DatabaseResult("ListReturnWindowClosing", int64(len(orders)), err)
	if err != nil {
		return nil, mapError(err)
	}
	return orders, nil
}

func closeOrder(ctx context.Context, q DBTX, orderID string, now time.Time) error {
	_, err := q.ExecContext(ctx, `UPDATE rental_orders SET status = 'closed', updated_on = $1 WHERE id = $2`, now, orderID)
	return err
}
