package service

import (
	"context"

	"book-rental-backend/internal/domain"
	"book-rental-backend/internal/repository"
)

type ledgerService struct {
	ledgerRepo repository.LedgerRepository
}

func NewLedgerService(ledgerRepo repository.LedgerRepository) LedgerService {
	return &ledgerService{ledgerRepo: ledgerRepo}
}

func (s *ledgerService) GetTransactions(ctx context.Context, userID string, page, pageSize int32) ([]domain.LedgerTransaction, int32, error) {
	return s.ledgerRepo.ListByUser(ctx, userID, pageSize, pageOffset(page, pageSize))
}
