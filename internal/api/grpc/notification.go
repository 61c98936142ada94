package grpc

import (
	"context"

	"book-rental-backend/internal/api/dto"
	"book-rental-backend/internal/service"
)

type NotificationHandler struct {
	noteSvc service.NotificationService
}

func NewNotificationHandler(noteSvc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{noteSvc: noteSvc}
}

func (h *NotificationHandler) GetNotifications(ctx context.Context, req *dto.GetNotificationsRequest) (*dto.GetNotificationsResponse, error) {
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	notes, count, err := h.noteSvc.GetNotifications(ctx, actor.UserID, req.Page, pageSize(req.PageSize))
	if err != nil {
		return nil, toStatus(err)
	}
	out := make([]dto.Notification, len(notes))
	for i := range notes {
		out[i] = dto.MapDomainNotification(&notes[i])
	}
	return &dto.GetNotificationsResponse{
		Notifications: out,
		TotalCount:    count,
	}, nil
}

func (h *NotificationHandler) MarkNotificationRead(ctx context.Context, req *dto.MarkNotificationReadRequest) (*dto.MarkNotificationReadResponse, error) {
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.noteSvc.MarkAsRead(ctx, actor.UserID, req.NotificationID); err != nil {
		return nil, toStatus(err)
	}
	return &dto.MarkNotificationReadResponse{Success: true}, nil
}
