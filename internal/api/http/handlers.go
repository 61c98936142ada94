package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"book-rental-backend/internal/api/dto"
	"book-rental-backend/internal/domain"
	"book-rental-backend/internal/returns"
	"book-rental-backend/internal/service"
	"book-rental-backend/internal/utils"
)

type handler struct {
	svc Services
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) listReturnStatuses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.ListReturnStatusesResponse{Statuses: dto.StatusTable()})
}

func (h *handler) quote(w http.ResponseWriter, r *http.Request) {
	var req dto.QuoteRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	start, err := utils.ParseDate(req.RentalStartDate)
	if err != nil {
		writeError(w, domain.NewInvalidArgumentError(err.Error()))
		return
	}
	end, err := utils.ParseDate(req.RentalEndDate)
	if err != nil {
		writeError(w, domain.NewInvalidArgumentError(err.Error()))
		return
	}
	total, lines, err := utils.OrderTotal(req.Items, start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	days, _ := utils.RentalDays(start, end)
	writeJSON(w, http.StatusOK, dto.QuoteResponse{Days: days, Lines: lines, Total: total})
}

func (h *handler) listReturnableOrders(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	orders, err := h.svc.Orders.ListReturnable(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]dto.RentalOrder, len(orders))
	for i := range orders {
		out[i] = dto.MapDomainRentalOrder(&orders[i])
	}
	writeJSON(w, http.StatusOK, dto.ListReturnableOrdersResponse{Orders: out})
}

func (h *handler) find(w http.ResponseWriter, r *http.Request, filter service.ReturnFilter) {
	actor, _ := ActorFromContext(r.Context())
	reqs, err := h.svc.Returns.Find(r.Context(), actor, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ListReturnRequestsResponse{Requests: dto.MapDomainReturnRequests(reqs, actor.Role)})
}

func (h *handler) listMyReturnRequests(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	h.find(w, r, service.ReturnFilter{Status: r.URL.Query().Get("status"), CustomerID: actor.UserID})
}

func (h *handler) listReturnRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.find(w, r, service.ReturnFilter{
		SearchText: q.Get("search"),
		Status:     q.Get("status"),
		CustomerID: q.Get("customerId"),
	})
}

func (h *handler) respond(w http.ResponseWriter, r *http.Request, status int, rr *domain.ReturnRequest, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	actor, _ := ActorFromContext(r.Context())
	writeJSON(w, status, dto.ReturnRequestResponse{Request: dto.MapDomainReturnRequest(rr, actor.Role)})
}

func (h *handler) getReturnRequest(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	rr, err := h.svc.Returns.Get(r.Context(), actor, mux.Vars(r)["rma"])
	h.respond(w, r, http.StatusOK, rr, err)
}

func (h *handler) createReturnRequest(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	var req dto.CreateReturnRequestRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	key := req.IdempotencyKey
	if key == "" {
		key = r.Header.Get("Idempotency-Key")
	}
	rr, err := h.svc.Returns.Create(r.Context(), actor, service.CreateReturnInput{
		OrderID:        req.RentalOrderID,
		Method:         domain.ReturnMethod(req.ReturnMethod),
		Items:          dto.MapReturnItems(req.Items),
		IdempotencyKey: key,
	})
	h.respond(w, r, http.StatusCreated, rr, err)
}

func (h *handler) updateReturnStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	var req dto.UpdateReturnStatusRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	target, err := domain.ParseReturnStatus(req.ReturnStatus)
	if err != nil {
		writeError(w, err)
		return
	}
	rr, err := h.svc.Returns.Update(r.Context(), actor, mux.Vars(r)["rma"], returns.TransitionInput{
		Target:          target,
		InspectionNotes: req.InspectionNotes,
		AdditionalFees:  req.AdditionalFees,
		FeeDescription:  req.FeeDescription,
		RefundOverride:  req.RefundAmount,
	})
	h.respond(w, r, http.StatusOK, rr, err)
}

func (h *handler) cancelReturnRequest(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	rr, err := h.svc.Returns.Cancel(r.Context(), actor, mux.Vars(r)["rma"])
	h.respond(w, r, http.StatusOK, rr, err)
}

func (h *handler) confirmHandover(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	rr, err := h.svc.Returns.ConfirmHandover(r.Context(), actor, mux.Vars(r)["rma"])
	h.respond(w, r, http.StatusOK, rr, err)
}

// paging reads page and pageSize query parameters, defaulting to 1 and 20.
func paging(r *http.Request) (int32, int32) {
	page, size := int32(1), int32(20)
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = int32(v)
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("pageSize")); err == nil && v > 0 && v <= 100 {
		size = int32(v)
	}
	return page, size
}

func (h *handler) getTransactions(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	page, size := paging(r)
	txs, count, err := h.svc.Ledger.GetTransactions(r.Context(), actor.UserID, page, size)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]dto.LedgerTransaction, len(txs))
	for i := range txs {
		out[i] = dto.MapDomainTransaction(&txs[i])
	}
	writeJSON(w, http.StatusOK, dto.GetTransactionsResponse{Transactions: out, TotalCount: count})
}

func (h *handler) getNotifications(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	page, size := paging(r)
	notes, count, err := h.svc.Notifications.GetNotifications(r.Context(), actor.UserID, page, size)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]dto.Notification, len(notes))
	for i := range notes {
		out[i] = dto.MapDomainNotification(&notes[i])
	}
	writeJSON(w, http.StatusOK, dto.GetNotificationsResponse{Notifications: out, TotalCount: count})
}

func (h *handler) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, domain.NewInvalidArgumentError("invalid notification id"))
		return
	}
	if err := h.svc.Notifications.MarkAsRead(r.Context(), actor.UserID, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.MarkNotificationReadResponse{Success: true})
}
