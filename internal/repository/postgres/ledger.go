package postgres

import (
	"context"
	"database/sql"

	"book-rental-backend/internal/domain"
	"book-rental-backend/internal/logger"
	"book-rental-backend/internal/repository"
)

type ledgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) repository.LedgerRepository {
	return &ledgerRepository{db: db}
}

func insertLedgerTransaction(ctx context.Context, q DBTX, tx *domain.LedgerTransaction) error {
	query := `INSERT INTO ledger_transactions (user_id, amount, type, related_order_id, related_return_id, description, charged_on, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	return q.QueryRowContext(ctx, query, tx.UserID, tx.Amount, string(tx.Type), tx.RelatedOrderID, tx.RelatedReturnID,
		tx.Description, tx.ChargedOn, tx.CreatedOn).Scan(&tx.ID)
}

func (r *ledgerRepository) CreateTransaction(ctx context.Context, tx *domain.LedgerTransaction) error {
	logger.DatabaseCall("INSERT", "ledger_transactions", "userID", tx.UserID, "type", tx.Type)
	err := insertLedgerTransaction(ctx, r.db, tx)
	logger.DatabaseResult("INSERT", 1, err, "transactionID", tx.ID)
	return mapError(err)
}

func (r *ledgerRepository) ListByUser(ctx context.Context, userID string, limit, offset int32) ([]domain.LedgerTransaction, int32, error) {
	var count int32
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM ledger_transactions WHERE user_id = $1`, userID).Scan(&count); err != nil {
		return nil, 0, mapError(err)
	}

	query := `SELECT id, user_id, amount, type, COALESCE(related_order_id, ''), COALESCE(related_return_id, ''),
	                 COALESCE(description, ''), charged_on, created_on
	          FROM ledger_transactions WHERE user_id = $1 ORDER BY created_on DESC, id DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, mapError(err)
	}
	defer rows.Close()

	var txs []domain.LedgerTransaction
	for rows.Next() {
		var (
			tx  domain.LedgerTransaction
			typ string
		)
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Amount, &typ, &tx.RelatedOrderID, &tx.RelatedReturnID,
			&tx.Description, &tx.ChargedOn, &tx.CreatedOn); err != nil {
			return nil, 0, err
		}
		tx.Type = domain.TransactionType(typ)
		txs = append(txs, tx)
	}
	return txs, count, mapError(rows.Err())
}
