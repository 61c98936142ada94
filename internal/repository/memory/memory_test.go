package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"book-rental-backend/internal/domain"
	"book-rental-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func seeded(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	s.PutCustomer(domain.Customer{ID: "cust-1", FullName: "Nguyễn Văn An", Email: "an@example.com"})
	s.PutCustomer(domain.Customer{ID: "cust-2", FullName: "Trần Thị Bình", Email: "binh@example.com"})
	s.PutOrder(domain.RentalOrder{
		ID: "order-1", CustomerID: "cust-1", Status: domain.OrderStatusActive,
		Items:           []domain.OrderItem{{ProductID: "book-1", Quantity: 2, UnitPrice: 10000}},
		RentalStartDate: base, RentalEndDate: base.AddDate(0, 0, 4), ReturnWindowDeadline: base.AddDate(0, 0, 11),
	})
	s.PutOrder(domain.RentalOrder{
		ID: "order-2", CustomerID: "cust-1", Status: domain.OrderStatusActive,
		Items:           []domain.OrderItem{{ProductID: "book-2", Quantity: 1, UnitPrice: 5000}},
		RentalStartDate: base, RentalEndDate: base.AddDate(0, 0, 2), ReturnWindowDeadline: base.AddDate(0, 0, 9),
	})
	return s
}

func request(rma, orderID, customerID string, created time.Time) *domain.ReturnRequest {
	return &domain.ReturnRequest{
		ID: rma, RMANumber: rma, RentalOrderID: orderID, CustomerID: customerID,
		ReturnMethod: domain.ReturnMethodShipping, ReturnStatus: domain.ReturnStatusPending,
		Items:   []domain.ReturnItem{{ProductID: "book-1", Quantity: 1, UnitPrice: 10000}},
		Version: 1, CreatedAt: created, UpdatedAt: created,
	}
}

func TestListByCustomerSortedByEndDate(t *testing.T) {
	s := seeded(t)
	orders, err := s.Orders.ListByCustomer(context.Background(), "cust-1", domain.OrderStatusActive)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "order-2", orders[0].ID)
	assert.Equal(t, "order-1", orders[1].ID)
}

func TestCreateRejectsSecondOpenRequest(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	require.NoError(t, s.Returns.Create(ctx, request("RMA-1", "order-1", "cust-1", base)))
	err := s.Returns.Create(ctx, request("RMA-2", "order-1", "cust-1", base))
	assert.ErrorIs(t, err, domain.ErrDuplicateOpenRequest)
}

func TestConcurrentCreateAdmitsOne(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rma := "RMA-" + string(rune('A'+i))
			if err := s.Returns.Create(ctx, request(rma, "order-1", "cust-1", base)); err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, domain.ErrDuplicateOpenRequest)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, success)
}

func TestFindSearchFoldsCase(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()
	require.NoError(t, s.Returns.Create(ctx, request("RMA-OLD", "order-1", "cust-1", base)))
	require.NoError(t, s.Returns.Create(ctx, request("RMA-NEW", "order-2", "cust-1", base.Add(time.Hour))))

	t.Run("ByName", func(t *testing.T) {
		out, err := s.Returns.Find(ctx, repository.ReturnRequestFilter{SearchText: "NGUYỄN"})
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, "RMA-NEW", out[0].RMANumber)
		require.NotNil(t, out[0].Customer)
		assert.Equal(t, "an@example.com", out[0].Customer.Email)
	})

	t.Run("ByRMA", func(t *testing.T) {
		out, err := s.Returns.Find(ctx, repository.ReturnRequestFilter{SearchText: "rma-old"})
		require.NoError(t, err)
		require.Len(t, out, 1)
	})

	t.Run("ByStatus", func(t *testing.T) {
		approved := domain.ReturnStatusApproved
		out, err := s.Returns.Find(ctx, repository.ReturnRequestFilter{Status: &approved})
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("OtherCustomer", func(t *testing.T) {
		out, err := s.Returns.Find(ctx, repository.ReturnRequestFilter{CustomerID: "cust-2"})
		require.NoError(t, err)
		assert.Empty(t, out)
	})
}

func TestUpdateChecksVersionAndSettles(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()
	req := request("RMA-1", "order-1", "cust-1", base)
	require.NoError(t, s.Returns.Create(ctx, req))

	next := req.Clone()
	next.ReturnStatus = domain.ReturnStatusCompleted
	next.Version = 2
	settlement := &domain.Settlement{
		Transactions: []domain.LedgerTransaction{{UserID: "cust-1", Amount: 10000, Type: domain.TransactionTypeRefund}},
		CloseOrderID: "order-1",
	}
	require.NoError(t, s.Returns.Update(ctx, next, 1, settlement))

	stale := req.Clone()
	stale.ReturnStatus = domain.ReturnStatusCancelled
	stale.Version = 2
	assert.ErrorIs(t, s.Returns.Update(ctx, stale, 1, nil), domain.ErrConflictRetry)

	got, err := s.Returns.GetByRMA(ctx, "RMA-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ReturnStatusCompleted, got.ReturnStatus)

	order, err := s.Orders.GetByID(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusClosed, order.Status)

	txs := s.Transactions()
	require.Len(t, txs, 1)
	assert.Equal(t, int64(1), txs[0].ID)

	returned, err := s.Returns.ReturnedQuantities(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int32{"book-1": 1}, returned)
}

func TestMarkOverdue(t *testing.T) {
	s := seeded(t)
	changed, err := s.Orders.MarkOverdue(context.Background(), base.AddDate(0, 0, 4))
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Equal(t, "order-2", changed[0].ID)
	assert.Equal(t, domain.OrderStatusOverdue, changed[0].Status)

	again, err := s.Orders.MarkOverdue(context.Background(), base.AddDate(0, 0, 4))
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestCancelledContextTimesOut(t *testing.T) {
	s := seeded(t)
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	_, err := s.Orders.GetByID(ctx, "order-1")
	assert.ErrorIs(t, err, domain.ErrUpstreamTimeout)
}
