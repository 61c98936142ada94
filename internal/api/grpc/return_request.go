package grpc

import (
	"context"

	"book-rental-backend/internal/api/dto"
	"book-rental-backend/internal/domain"
	"book-rental-backend/internal/returns"
	"book-rental-backend/internal/service"
)

type ReturnHandler struct {
	orderSvc  service.RentalOrderService
	returnSvc service.ReturnRequestService
}

func NewReturnHandler(orderSvc service.RentalOrderService, returnSvc service.ReturnRequestService) *ReturnHandler {
	return &ReturnHandler{orderSvc: orderSvc, returnSvc: returnSvc}
}

var _ ReturnServiceServer = (*ReturnHandler)(nil)

func (h *ReturnHandler) ListReturnableOrders(ctx context.Context, req *dto.ListReturnableOrdersRequest) (*dto.ListReturnableOrdersResponse, error) {
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := h.orderSvc.ListReturnable(ctx, actor)
	if err != nil {
		return nil, toStatus(err)
	}
	out := make([]dto.RentalOrder, len(orders))
	for i := range orders {
		out[i] = dto.MapDomainRentalOrder(&orders[i])
	}
	return &dto.ListReturnableOrdersResponse{Orders: out}, nil
}

func (h *ReturnHandler) ListMyReturnRequests(ctx context.Context, req *dto.ListMyReturnRequestsRequest) (*dto.ListReturnRequestsResponse, error) {
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	reqs, err := h.returnSvc.Find(ctx, actor, service.ReturnFilter{Status: req.Status, CustomerID: actor.UserID})
	if err != nil {
		return nil, toStatus(err)
	}
	return &dto.ListReturnRequestsResponse{Requests: dto.MapDomainReturnRequests(reqs, actor.Role)}, nil
}

func (h *ReturnHandler) ListReturnRequests(ctx context.Context, req *dto.ListReturnRequestsRequest) (*dto.ListReturnRequestsResponse, error) {
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	reqs, err := h.returnSvc.Find(ctx, actor, service.ReturnFilter{
		SearchText: req.SearchText,
		Status:     req.Status,
		CustomerID: req.CustomerID,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &dto.ListReturnRequestsResponse{Requests: dto.MapDomainReturnRequests(reqs, actor.Role)}, nil
}

func (h *ReturnHandler) GetReturnRequest(ctx context.Context, req *dto.GetReturnRequestRequest) (*dto.ReturnRequestResponse, error) {
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	rr, err := h.returnSvc.Get(ctx, actor, req.RMANumber)
	return respond(rr, actor, err)
}

func (h *ReturnHandler) CreateReturnRequest(ctx context.Context, req *dto.CreateReturnRequestRequest) (*dto.ReturnRequestResponse, error) {
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	rr, err := h.returnSvc.Create(ctx, actor, service.CreateReturnInput{
		OrderID:        req.RentalOrderID,
		Method:         domain.ReturnMethod(req.ReturnMethod),
		Items:          dto.MapReturnItems(req.Items),
		IdempotencyKey: req.IdempotencyKey,
	})
	return respond(rr, actor, err)
}

func (h *ReturnHandler) UpdateReturnStatus(ctx context.Context, req *dto.UpdateReturnStatusRequest) (*dto.ReturnRequestResponse, error) {
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	target, err := domain.ParseReturnStatus(req.ReturnStatus)
	if err != nil {
		return nil, toStatus(err)
	}
	rr, err := h.returnSvc.Update(ctx, actor, req.RMANumber, returns.TransitionInput{
		Target:          target,
		InspectionNotes: req.InspectionNotes,
		AdditionalFees:  req.AdditionalFees,
		FeeDescription:  req.FeeDescription,
		RefundOverride:  req.RefundAmount,
	})
	return respond(rr, actor, err)
}

func (h *ReturnHandler) CancelReturnRequest(ctx context.Context, req *dto.CancelReturnRequestRequest) (*dto.ReturnRequestResponse, error) {
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	rr, err := h.returnSvc.Cancel(ctx, actor, req.RMANumber)
	return respond(rr, actor, err)
}

func (h *ReturnHandler) ConfirmReturnShipment(ctx context.Context, req *dto.ConfirmReturnShipmentRequest) (*dto.ReturnRequestResponse, error) {
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	rr, err := h.returnSvc.ConfirmHandover(ctx, actor, req.RMANumber)
	return respond(rr, actor, err)
}

func (h *ReturnHandler) ListReturnStatuses(ctx context.Context, req *dto.ListReturnStatusesRequest) (*dto.ListReturnStatusesResponse, error) {
	return &dto.ListReturnStatusesResponse{Statuses: dto.StatusTable()}, nil
}

func respond(rr *domain.ReturnRequest, actor domain.Actor, err error) (*dto.ReturnRequestResponse, error) {
	if err != nil {
		return nil, toStatus(err)
	}
	return &dto.ReturnRequestResponse{Request: dto.MapDomainReturnRequest(rr, actor.Role)}, nil
}
