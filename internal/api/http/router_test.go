package http_test

import (
	"bytes"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"book-rental-backend/internal/api/dto"
	httpapi "book-rental-backend/internal/api/http"
	"book-rental-backend/internal/domain"
	"book-rental-backend/internal/repository/memory"
	"book-rental-backend/internal/returns"
	"book-rental-backend/internal/security"
	"book-rental-backend/internal/service"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const secret = "0123456789abcdef0123456789abcdef"

type env struct {
	router http.Handler
	tm     security.TokenManager
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.NewStore()
	store.PutCustomer(domain.Customer{ID: "cust-1", FullName: "Nguyễn Văn An", Email: "an@example.com"})
	store.PutCustomer(domain.Customer{ID: "cust-2", FullName: "Trần Thị Bình", Email: "binh@example.com"})
	today := time.Now().UTC()
	store.PutOrder(domain.RentalOrder{
		ID: "order-1", CustomerID: "cust-1", Status: domain.OrderStatusActive,
		RentalStartDate: today.AddDate(0, 0, -6), RentalEndDate: today.AddDate(0, 0, -2), ReturnWindowDeadline: today.AddDate(0, 0, 5),
		Items: []domain.OrderItem{{ProductID: "book-1", Quantity: 2, UnitPrice: 10000}},
	})

	engine := returns.NewEngine()
	orders := service.NewRentalOrderService(store.Orders, store.Returns, nil, engine.Now, service.ReturnSettings{})
	returnSvc := service.NewReturnRequestService(service.ReturnRequestDeps{
		Engine:       engine,
		Orders:       orders,
		OrderRepo:    store.Orders,
		ReturnRepo:   store.Returns,
		CustomerRepo: store.Customers,
		NoteRepo:     store.Notifications,
	})

	tm := security.NewTokenManager(secret, time.Hour)
	router := httpapi.NewRouter(httpapi.Services{
		Orders:        orders,
		Returns:       returnSvc,
		Ledger:        service.NewLedgerService(store.Ledger),
		Notifications: service.NewNotificationService(store.Notifications),
	}, tm)
	return &env{router: router, tm: tm}
}

func (e *env) do(t *testing.T, method, path string, role domain.Role, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if role != "" {
		token, err := e.tm.GenerateAccessToken(userID, "", role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestHealthAndPublicRoutes(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/healthz", "", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = e.do(t, http.MethodGet, "/api/v1/return-statuses", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	statuses := decodeBody[dto.ListReturnStatusesResponse](t, rec)
	assert.Len(t, statuses.Statuses, int(domain.ReturnStatusCount))
}

func TestQuote(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/api/v1/pricing/quote", "", "", dto.QuoteRequest{
		RentalStartDate: "2024-03-01",
		RentalEndDate:   "2024-03-05",
		Items:           []domain.OrderItem{{ProductID: "book-1", Quantity: 2, UnitPrice: 10000}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	quote := decodeBody[dto.QuoteResponse](t, rec)
	assert.Equal(t, int64(5), quote.Days)
	assert.Equal(t, int64(100000), quote.Total)

	rec = e.do(t, http.MethodPost, "/api/v1/pricing/quote", "", "", dto.QuoteRequest{
		RentalStartDate: "2024-03-05",
		RentalEndDate:   "2024-03-01",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.ErrCodeInvalidRange, decodeBody[errorResponse](t, rec).Error.Code)

	rec = e.do(t, http.MethodPost, "/api/v1/pricing/quote", "", "", dto.QuoteRequest{
		RentalStartDate: "2024-03-01",
		RentalEndDate:   "2024-03-01",
		Items:           []domain.OrderItem{{ProductID: "book-1", Quantity: 4, UnitPrice: math.MaxInt64 / 3}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.ErrCodeInvalidArgument, decodeBody[errorResponse](t, rec).Error.Code)
}

func TestAuthRequired(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodGet, "/api/v1/orders/returnable", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/v1/returns", domain.RoleCustomer, "cust-1", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, domain.ErrCodeForbidden, decodeBody[errorResponse](t, rec).Error.Code)
}

func TestReturnFlowOverHTTP(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/api/v1/orders/returnable", domain.RoleCustomer, "cust-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	orders := decodeBody[dto.ListReturnableOrdersResponse](t, rec)
	require.Len(t, orders.Orders, 1)
	assert.Equal(t, "overdue", orders.Orders[0].Status)

	create := dto.CreateReturnRequestRequest{
		RentalOrderID: "order-1",
		ReturnMethod:  "shipping",
		Items:         []dto.ReturnItem{{ProductID: "book-1", Quantity: 2}},
	}
	rec = e.do(t, http.MethodPost, "/api/v1/returns", domain.RoleCustomer, "cust-1", create)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[dto.ReturnRequestResponse](t, rec).Request
	rma := created.RMANumber

	rec = e.do(t, http.MethodPost, "/api/v1/returns", domain.RoleCustomer, "cust-1", create)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, domain.ErrCodeDuplicateOpenRequest, decodeBody[errorResponse](t, rec).Error.Code)

	rec = e.do(t, http.MethodGet, "/api/v1/returns/"+rma, domain.RoleCustomer, "cust-2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodPatch, "/api/v1/returns/"+rma+"/status", domain.RoleAdmin, "admin-1",
		dto.UpdateReturnStatusRequest{ReturnStatus: "shipped"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, domain.ErrCodeInvalidTransition, decodeBody[errorResponse](t, rec).Error.Code)

	rec = e.do(t, http.MethodPatch, "/api/v1/returns/"+rma+"/status", domain.RoleAdmin, "admin-1",
		dto.UpdateReturnStatusRequest{ReturnStatus: "approved"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/v1/returns/"+rma+"/handover", domain.RoleCustomer, "cust-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "shipped", decodeBody[dto.ReturnRequestResponse](t, rec).Request.ReturnStatus)

	rec = e.do(t, http.MethodGet, "/api/v1/returns?status=shipped&search="+url.QueryEscape("NGUYỄN"), domain.RoleAdmin, "admin-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[dto.ListReturnRequestsResponse](t, rec).Requests, 1)

	rec = e.do(t, http.MethodGet, "/api/v1/returns?status=bogus", domain.RoleAdmin, "admin-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/v1/returns/mine", domain.RoleCustomer, "cust-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	mine := decodeBody[dto.ListReturnRequestsResponse](t, rec)
	require.Len(t, mine.Requests, 1)
	assert.Equal(t, "Đã gửi", mine.Requests[0].StatusLabel)

	rec = e.do(t, http.MethodGet, "/api/v1/notifications", domain.RoleCustomer, "cust-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	notes := decodeBody[dto.GetNotificationsResponse](t, rec)
	assert.Equal(t, int32(3), notes.TotalCount)
}

func TestUnknownFieldRejected(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodPost, "/api/v1/returns", domain.RoleCustomer, "cust-1", map[string]any{"orderId": "order-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.ErrCodeInvalidArgument, decodeBody[errorResponse](t, rec).Error.Code)
}
