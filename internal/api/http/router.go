package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"book-rental-backend/internal/domain"
	"book-rental-backend/internal/security"
	"book-rental-backend/internal/service"
)

// Services is what the HTTP API calls into.
type Services struct {
	Orders        service.RentalOrderService
	Returns       service.ReturnRequestService
	Ledger        service.LedgerService
	Notifications service.NotificationService
}

// NewRouter builds the /api/v1 REST surface. It mirrors the gRPC
// ReturnService and adds the pricing quote used by cart and checkout.
func NewRouter(svc Services, tm security.TokenManager) *mux.Router {
	h := &handler{svc: svc}

	router := mux.NewRouter()
	router.Use(recoverPanic, requestLogging)
	router.HandleFunc("/healthz", h.health).Methods(http.MethodGet)

	public := router.PathPrefix("/api/v1").Subrouter()
	public.HandleFunc("/return-statuses", h.listReturnStatuses).Methods(http.MethodGet)
	public.HandleFunc("/pricing/quote", h.quote).Methods(http.MethodPost)

	customer := requireRole(domain.RoleCustomer)
	admin := requireRole(domain.RoleAdmin)
	anyone := requireRole(domain.RoleCustomer, domain.RoleAdmin)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(authenticate(tm))
	api.HandleFunc("/orders/returnable", customer(h.listReturnableOrders)).Methods(http.MethodGet)
	api.HandleFunc("/returns/mine", customer(h.listMyReturnRequests)).Methods(http.MethodGet)
	api.HandleFunc("/returns", admin(h.listReturnRequests)).Methods(http.MethodGet)
	api.HandleFunc("/returns", customer(h.createReturnRequest)).Methods(http.MethodPost)
	api.HandleFunc("/returns/{rma}", anyone(h.getReturnRequest)).Methods(http.MethodGet)
	api.HandleFunc("/returns/{rma}/status", admin(h.updateReturnStatus)).Methods(http.MethodPatch)
	api.HandleFunc("/returns/{rma}/cancel", anyone(h.cancelReturnRequest)).Methods(http.MethodPost)
	api.HandleFunc("/returns/{rma}/handover", customer(h.confirmHandover)).Methods(http.MethodPost)
	api.HandleFunc("/ledger/transactions", anyone(h.getTransactions)).Methods(http.MethodGet)
	api.HandleFunc("/notifications", anyone(h.getNotifications)).Methods(http.MethodGet)
	api.HandleFunc("/notifications/{id:[0-9]+}/read", anyone(h.markNotificationRead)).Methods(http.MethodPost)

	return router
}
