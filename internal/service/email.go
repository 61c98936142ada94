package service

import (
	"context"
	"fmt"

	"book-rental-backend/internal/domain"
	"book-rental-backend/internal/logger"
	"book-rental-backend/internal/utils"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type mailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type sendGridEmailService struct {
	client    mailSender
	fromEmail string
	fromName  string
}

func NewSendGridEmailService(apiKey, fromEmail, fromName string) EmailService {
	return &sendGridEmailService{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *sendGridEmailService) send(ctx context.Context, to, toName, subject, plainText, htmlContent string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	message := mail.NewSingleEmail(from, subject, mail.NewEmail(toName, to), plainText, htmlContent)

	logger.ExternalServiceCall("sendgrid", "Send", "to", to, "subject", subject)
	response, err := s.client.SendWithContext(ctx, message)
	if err == nil && response.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	logger.ExternalServiceResult("sendgrid", "Send", err, "to", to)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *sendGridEmailService) SendReturnStatusNotification(ctx context.Context, email, name string, req *domain.ReturnRequest) error {
	subject := fmt.Sprintf("Yêu cầu trả sách %s: %s", req.RMANumber, req.ReturnStatus.Label().Label)
	plain := fmt.Sprintf("Xin chào %s,\n\n%s.\n\nCảm ơn bạn đã sử dụng dịch vụ thuê sách.", name, statusMessage(req))
	html := fmt.Sprintf(`<html><body><p>Xin chào <strong>%s</strong>,</p><p>%s.</p></body></html>`, name, statusMessage(req))
	return s.send(ctx, email, name, subject, plain, html)
}

func (s *sendGridEmailService) SendReturnReminder(ctx context.Context, email, name string, order *domain.RentalOrder) error {
	deadline := utils.FormatDate(order.ReturnWindowDeadline)
	subject := fmt.Sprintf("Nhắc nhở trả sách cho đơn %s", order.ID)
	plain := fmt.Sprintf("Xin chào %s,\n\nHạn trả sách cho đơn %s là %s. Vui lòng tạo yêu cầu trả sách trước hạn.", name, order.ID, deadline)
	html := fmt.Sprintf(`<html><body><p>Xin chào <strong>%s</strong>,</p><p>Hạn trả sách cho đơn <strong>%s</strong> là %s.</p></body></html>`, name, order.ID, deadline)
	return s.send(ctx, email, name, subject, plain, html)
}

func (s *sendGridEmailService) SendAdminNotification(ctx context.Context, adminEmail, subject, message string) error {
	return s.send(ctx, adminEmail, "", subject, message, "")
}

// logEmailService stands in when no SendGrid key is configured.
type logEmailService struct{}

func NewLogEmailService() EmailService {
	return logEmailService{}
}

func (logEmailService) SendReturnStatusNotification(ctx context.Context, email, name string, req *domain.ReturnRequest) error {
	logger.Info("Email skipped", "kind", "return_status", "to", email, "rma", req.RMANumber, "status", req.ReturnStatus)
	return nil
}

func (logEmailService) SendReturnReminder(ctx context.Context, email, name string, order *domain.RentalOrder) error {
	logger.Info("Email skipped", "kind", "return_reminder", "to", email, "orderID", order.ID)
	return nil
}

func (logEmailService) SendAdminNotification(ctx context.Context, adminEmail, subject, message string) error {
	logger.Info("Email skipped", "kind", "admin", "to", adminEmail, "subject", subject)
	return nil
}
