package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"book-rental-backend/internal/domain"
	"book-rental-backend/internal/logger"
	"book-rental-backend/internal/repository"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"
)

const dialectPostgres = "postgres"

var returnRequestColumns = []string{
	"rr.id", "rr.rma_number", "rr.rental_order_id", "rr.customer_id", "rr.return_method", "rr.items",
	"rr.return_status", "rr.return_deadline", "rr.inspection_notes", "rr.additional_fees",
	"rr.fee_description", "rr.refund_amount", "rr.rental_value", "rr.version", "rr.created_on",
	"rr.updated_on", "c.full_name", "c.email",
}

var selectReturnRequests = `SELECT ` + strings.Join(returnRequestColumns, ", ") + `
	FROM return_requests rr
	LEFT JOIN customers c ON c.id = rr.customer_id`

type returnRequestRepository struct {
	db *sql.DB
}

func NewReturnRequestRepository(db *sql.DB) repository.ReturnRequestRepository {
	return &returnRequestRepository{db: db}
}

func scanReturnRequest(row rowScanner) (*domain.ReturnRequest, error) {
	var (
		rr       domain.ReturnRequest
		method   string
		items    []byte
		notes    sql.NullString
		refund   sql.NullInt64
		fullName sql.NullString
		email    sql.NullString
	)
	err := row.Scan(&rr.ID, &rr.RMANumber, &rr.RentalOrderID, &rr.CustomerID, &method, &items,
		&rr.ReturnStatus, &rr.ReturnDeadline, &notes, &rr.AdditionalFees,
		&rr.FeeDescription, &refund, &rr.RentalValue, &rr.Version, &rr.CreatedAt,
		&rr.UpdatedAt, &fullName, &email)
	if err != nil {
		return nil, err
	}
	rr.ReturnMethod = domain.ReturnMethod(method)
	if err := json.Unmarshal(items, &rr.Items); err != nil {
		return nil, fmt.Errorf("decode items of %s: %w", rr.RMANumber, err)
	}
	if notes.Valid {
		rr.InspectionNotes = &notes.String
	}
	if refund.Valid {
		rr.RefundAmount = &refund.Int64
	}
	if fullName.Valid || email.Valid {
		rr.Customer = &domain.Customer{ID: rr.CustomerID, FullName: fullName.String, Email: email.String}
	}
	return &rr, nil
}

func (r *returnRequestRepository) Create(ctx context.Context, req *domain.ReturnRequest) error {
	logger.EnterMethod("returnRequestRepository.Create", "rma", req.RMANumber, "orderID", req.RentalOrderID)

	items, err := json.Marshal(req.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}

	query := `
		INSERT INTO return_requests (
			id, rma_number, rental_order_id, customer_id, return_method, items,
			return_status, return_deadline, inspection_notes, additional_fees,
			fee_description, refund_amount, rental_value, version, created_on, updated_on
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err = r.db.ExecContext(ctx, query,
		req.ID, req.RMANumber, req.RentalOrderID, req.CustomerID, string(req.ReturnMethod), items,
		req.ReturnStatus.String(), req.ReturnDeadline, req.InspectionNotes, req.AdditionalFees,
		req.FeeDescription, req.RefundAmount, req.RentalValue, req.Version, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		logger.ExitMethodWithError("returnRequestRepository.Create", err, "rma", req.RMANumber)
		return mapError(err)
	}

	logger.ExitMethod("returnRequestRepository.Create", "rma", req.RMANumber)
	return nil
}

func (r *returnRequestRepository) GetByRMA(ctx context.Context, rmaNumber string) (*domain.ReturnRequest, error) {
	logger.EnterMethod("returnRequestRepository.GetByRMA", "rma", rmaNumber)

	rr, err := scanReturnRequest(r.db.QueryRowContext(ctx, selectReturnRequests+` WHERE rr.rma_number = $1`, rmaNumber))
	if errors.Is(err, sql.ErrNoRows) {
		logger.ExitMethod("returnRequestRepository.GetByRMA", "rma", rmaNumber, "found", false)
		return nil, domain.ErrRequestNotFound
	}
	if err != nil {
		logger.ExitMethodWithError("returnRequestRepository.GetByRMA", err, "rma", rmaNumber)
		return nil, mapError(err)
	}

	logger.ExitMethod("returnRequestRepository.GetByRMA", "rma", rmaNumber)
	return rr, nil
}

// escapeLike escapes LIKE metacharacters so search text matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func buildFindQuery(filter repository.ReturnRequestFilter) (string, []any, error) {
	cols := make([]any, len(returnRequestColumns))
	for i, c := range returnRequestColumns {
		cols[i] = goqu.I(c)
	}

	ds := goqu.Dialect(dialectPostgres).
		From(goqu.T("return_requests").As("rr")).
		LeftJoin(goqu.T("customers").As("c"), goqu.On(goqu.I("c.id").Eq(goqu.I("rr.customer_id")))).
		Select(cols...).
		Order(goqu.I("rr.created_on").Desc(), goqu.I("rr.rma_number").Desc())

	if filter.CustomerID != "" {
		ds = ds.Where(goqu.I("rr.customer_id").Eq(filter.CustomerID))
	}
	if filter.Status != nil {
		ds = ds.Where(goqu.I("rr.return_status").Eq(filter.Status.String()))
	}
	if text := strings.TrimSpace(filter.SearchText); text != "" {
		pattern := "%" + escapeLike(text) + "%"
		ds = ds.Where(goqu.Or(
			goqu.I("rr.rma_number").ILike(pattern),
			goqu.I("c.full_name").ILike(pattern),
			goqu.I("c.email").ILike(pattern),
		))
	}

	return ds.Prepared(true).ToSQL()
}

func (r *returnRequestRepository) Find(ctx context.Context, filter repository.ReturnRequestFilter) ([]domain.ReturnRequest, error) {
	logger.EnterMethod("returnRequestRepository.Find", "search", filter.SearchText, "customerID", filter.CustomerID)

	query, args, err := buildFindQuery(filter)
	if err != nil {
		logger.ExitMethodWithError("returnRequestRepository.Find", err)
		return nil, fmt.Errorf("build find query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.ExitMethodWithError("returnRequestRepository.Find", err)
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []domain.ReturnRequest
	for rows.Next() {
		rr, err := scanReturnRequest(rows)
		if err != nil {
			logger.ExitMethodWithError("returnRequestRepository.Find", err)
			return nil, err
		}
		out = append(out, *rr)
	}
	if err := rows.Err(); err != nil {
		logger.ExitMethodWithError("returnRequestRepository.Find", err)
		return nil, mapError(err)
	}

	logger.ExitMethod("returnRequestRepository.Find", "count", len(out))
	return out, nil
}

func openStatusNames() []string {
	open := domain.OpenReturnStatuses()
	names := make([]string, len(open))
	for i, s := range open {
		names[i] = s.String()
	}
	return names
}

func (r *returnRequestRepository) OpenOrderIDs(ctx context.Context, customerID string) (map[string]bool, error) {
	query := `SELECT DISTINCT rental_order_id FROM return_requests WHERE customer_id = $1 AND return_status = ANY($2)`
	rows, err := r.db.QueryContext(ctx, query, customerID, pq.Array(openStatusNames()))
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, mapError(rows.Err())
}

func (r *returnRequestRepository) ReturnedQuantities(ctx context.Context, orderID string) (map[string]int32, error) {
	query := `SELECT items FROM return_requests WHERE rental_order_id = $1 AND return_status = $2`
	rows, err := r.db.QueryContext(ctx, query, orderID, domain.ReturnStatusCompleted.String())
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make(map[string]int32)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var items []domain.ReturnItem
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode items of order %s: %w", orderID, err)
		}
		for _, it := range items {
			out[it.ProductID] += it.Quantity
		}
	}
	return out, mapError(rows.Err())
}

func (r *returnRequestRepository) Update(ctx context.Context, req *domain.ReturnRequest, expectedVersion int64, settlement *domain.Settlement) error {
	logger.EnterMethod("returnRequestRepository.Update", "rma", req.RMANumber, "status", req.ReturnStatus, "expectedVersion", expectedVersion)

	err := RunInTx(ctx, r.db, nil, func(ctx context.Context, tx DBTX) error {
		query := `
			UPDATE return_requests
			SET return_status = $1, inspection_notes = $2, additional_fees = $3, fee_description = $4,
			    refund_amount = $5, version = $6, updated_on = $7
			WHERE id = $8 AND version = $9`
		res, err := tx.ExecContext(ctx, query,
			req.ReturnStatus.String(), req.InspectionNotes, req.AdditionalFees, req.FeeDescription,
			req.RefundAmount, req.Version, req.UpdatedAt, req.ID, expectedVersion)
		if err != nil {
			return mapError(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrConflictRetry
		}

		if settlement == nil {
			return nil
		}
		for i := range settlement.Transactions {
			if err := insertLedgerTransaction(ctx, tx, &settlement.Transactions[i]); err != nil {
				return mapError(err)
			}
		}
		if settlement.CloseOrderID != "" {
			if err := closeOrder(ctx, tx, settlement.CloseOrderID, req.UpdatedAt); err != nil {
				return mapError(err)
			}
		}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("returnRequestRepository.Update", err, "rma", req.RMANumber)
		return err
	}

	logger.ExitMethod("returnRequestRepository.Update", "rma", req.RMANumber, "version", req.Version)
	return nil
}
