package service

import (
	"context"
	"fmt"

	"book-rental-backend/internal/domain"
	"book-rental-backend/internal/logger"
	"book-rental-backend/internal/repository"
	"book-rental-backend/internal/utils"
)

type notificationService struct {
	noteRepo repository.NotificationRepository
}

func NewNotificationService(noteRepo repository.NotificationRepository) NotificationService {
	return &notificationService{noteRepo: noteRepo}
}

func (s *notificationService) GetNotifications(ctx context.Context, userID string, page, pageSize int32) ([]domain.Notification, int32, error) {
	return s.noteRepo.List(ctx, userID, pageSize, pageOffset(page, pageSize))
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID string, notificationID int64) error {
	return s.noteRepo.MarkAsRead(ctx, notificationID, userID)
}

// notifier fans a status change out to the in-app inbox and email. Failures
// are logged and never fail the operation that triggered them.
type notifier struct {
	noteRepo     repository.NotificationRepository
	customerRepo repository.CustomerRepository
	emailSvc     EmailService
	adminEmail   string
}

func statusMessage(req *domain.ReturnRequest) string {
	msg := fmt.Sprintf("Yêu cầu trả sách %s: %s", req.RMANumber, req.ReturnStatus.Label().Label)
	switch req.ReturnStatus {
	case domain.ReturnStatusInspected:
		if req.AdditionalFees > 0 {
			msg += fmt.Sprintf(". Phí phát sinh %s (%s)", utils.FormatVND(req.AdditionalFees), req.FeeDescription)
		}
	case domain.ReturnStatusCompleted:
		if req.RefundAmount != nil {
			msg += fmt.Sprintf(". Số tiền hoàn %s", utils.FormatVND(*req.RefundAmount))
		}
	}
	return msg
}

func (n *notifier) returnStatusChanged(ctx context.Context, req *domain.ReturnRequest) {
	if n == nil {
		return
	}
	if n.noteRepo != nil {
		note := &domain.Notification{
			UserID:  req.CustomerID,
			Title:   "Cập nhật yêu cầu trả sách",
			Message: statusMessage(req),
			Attributes: map[string]string{
				"type":   "RETURN_STATUS",
				"rma":    req.RMANumber,
				"status": req.ReturnStatus.String(),
			},
			CreatedOn: req.UpdatedAt,
		}
		if err := n.noteRepo.Create(ctx, note); err != nil {
			logger.Warn("Failed to store notification", "rma", req.RMANumber, "error", err)
		}
	}

	if n.emailSvc == nil || n.customerRepo == nil {
		return
	}
	customer := req.Customer
	if customer == nil {
		c, err := n.customerRepo.GetByID(ctx, req.CustomerID)
		if err != nil {
			logger.Warn("Failed to load customer for email", "customerID", req.CustomerID, "error", err)
			return
		}
		customer = c
	}
	if err := n.emailSvc.SendReturnStatusNotification(ctx, customer.Email, customer.FullName, req); err != nil {
		logger.Warn("Failed to send return status email", "rma", req.RMANumber, "error", err)
	}
}

// returnRequested tells staff a new request is waiting for approval.
func (n *notifier) returnRequested(ctx context.Context, req *domain.ReturnRequest) {
	if n == nil || n.emailSvc == nil || n.adminEmail == "" {
		return
	}
	who := req.CustomerID
	if req.Customer != nil {
		who = fmt.Sprintf("%s <%s>", req.Customer.FullName, req.Customer.Email)
	}
	subject := fmt.Sprintf("Yêu cầu trả sách mới %s", req.RMANumber)
	message := fmt.Sprintf("%s yêu cầu trả %d đầu sách của đơn %s (%s), giá trị thuê %s.",
		who, len(req.Items), req.RentalOrderID, req.ReturnMethod, utils.FormatVND(req.RentalValue))
	if err := n.emailSvc.SendAdminNotification(ctx, n.adminEmail, subject, message); err != nil {
		logger.Warn("Failed to notify staff of new return request", "rma", req.RMANumber, "error", err)
	}
}
