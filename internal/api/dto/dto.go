// Package dto holds the wire messages shared by the gRPC and HTTP APIs.
package dto

import (
	"time"

	"book-rental-backend/internal/domain"
	"book-rental-backend/internal/returns"
	"book-rental-backend/internal/utils"
)

type ReturnItem struct {
	ProductID string `json:"productId"`
	Quantity  int32  `json:"quantity"`
	UnitPrice int64  `json:"unitPrice,omitempty"`
}

type ReturnRequest struct {
	RMANumber       string       `json:"rmaNumber"`
	RentalOrderID   string       `json:"rentalOrderId"`
	CustomerID      string       `json:"customerId"`
	CustomerName    string       `json:"customerName,omitempty"`
	CustomerEmail   string       `json:"customerEmail,omitempty"`
	ReturnMethod    string       `json:"returnMethod"`
	Items           []ReturnItem `json:"items"`
	ReturnStatus    string       `json:"returnStatus"`
	StatusLabel     string       `json:"statusLabel"`
	StatusColor     string       `json:"statusColor"`
	NextStatuses    []string     `json:"nextStatuses,omitempty"`
	ReturnDeadline  string       `json:"returnDeadline"`
	InspectionNotes *string      `json:"inspectionNotes,omitempty"`
	AdditionalFees  int64        `json:"additionalFees"`
	FeeDescription  string       `json:"feeDescription,omitempty"`
	RefundAmount    *int64       `json:"refundAmount,omitempty"`
	RentalValue     int64        `json:"rentalValue"`
	Version         int64        `json:"version"`
	CreatedAt       string       `json:"createdAt"`
	UpdatedAt       string       `json:"updatedAt"`
}

type OrderItem struct {
	ProductID string `json:"productId"`
	Title     string `json:"title,omitempty"`
	Quantity  int32  `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
	LineTotal int64  `json:"lineTotal"`
}

type RentalOrder struct {
	ID                   string      `json:"id"`
	Status               string      `json:"orderStatus"`
	RentalStartDate      string      `json:"rentalStartDate"`
	RentalEndDate        string      `json:"rentalEndDate"`
	ReturnWindowDeadline string      `json:"returnWindowDeadline"`
	Items                []OrderItem `json:"items"`
	Total                int64       `json:"total"`
}

type StatusInfo struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Color    string `json:"color"`
	Terminal bool   `json:"terminal"`
}

type LedgerTransaction struct {
	ID              int64  `json:"id"`
	Amount          int64  `json:"amount"`
	Type            string `json:"type"`
	RelatedOrderID  string `json:"relatedOrderId,omitempty"`
	RelatedReturnID string `json:"relatedReturnId,omitempty"`
	Description     string `json:"description"`
	ChargedOn       string `json:"chargedOn"`
}

type Notification struct {
	ID         int64             `json:"id"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	IsRead     bool              `json:"isRead"`
	Attributes map[string]string `json:"attributes,omitempty"`
	CreatedOn  string            `json:"createdOn"`
}

// Requests and responses.

type ListReturnableOrdersRequest struct{}

type ListReturnableOrdersResponse struct {
	Orders []RentalOrder `json:"orders"`
}

type ListMyReturnRequestsRequest struct {
	Status string `json:"status,omitempty"`
}

type ListReturnRequestsRequest struct {
	SearchText string `json:"searchText,omitempty"`
	Status     string `json:"status,omitempty"`
	CustomerID string `json:"customerId,omitempty"`
}

type ListReturnRequestsResponse struct {
	Requests []ReturnRequest `json:"requests"`
}

type CreateReturnRequestRequest struct {
	RentalOrderID  string       `json:"rentalOrderId"`
	ReturnMethod   string       `json:"returnMethod"`
	Items          []ReturnItem `json:"items"`
	IdempotencyKey string       `json:"idempotencyKey,omitempty"`
}

type GetReturnRequestRequest struct {
	RMANumber string `json:"rmaNumber"`
}

type UpdateReturnStatusRequest struct {
	RMANumber       string  `json:"rmaNumber"`
	ReturnStatus    string  `json:"returnStatus"`
	InspectionNotes *string `json:"inspectionNotes,omitempty"`
	AdditionalFees  *int64  `json:"additionalFees,omitempty"`
	FeeDescription  *string `json:"feeDescription,omitempty"`
	RefundAmount    *int64  `json:"refundAmount,omitempty"`
}

type CancelReturnRequestRequest struct {
	RMANumber string `json:"rmaNumber"`
}

type ConfirmReturnShipmentRequest struct {
	RMANumber string `json:"rmaNumber"`
}

type ReturnRequestResponse struct {
	Request ReturnRequest `json:"request"`
}

type ListReturnStatusesRequest struct{}

type ListReturnStatusesResponse struct {
	Statuses []StatusInfo `json:"statuses"`
}

type GetTransactionsRequest struct {
	Page     int32 `json:"page"`
	PageSize int32 `json:"pageSize"`
}

type GetTransactionsResponse struct {
	Transactions []LedgerTransaction `json:"transactions"`
	TotalCount   int32               `json:"totalCount"`
}

type GetNotificationsRequest struct {
	Page     int32 `json:"page"`
	PageSize int32 `json:"pageSize"`
}

type GetNotificationsResponse struct {
	Notifications []Notification `json:"notifications"`
	TotalCount    int32          `json:"totalCount"`
}

type MarkNotificationReadRequest struct {
	NotificationID int64 `json:"notificationId"`
}

type MarkNotificationReadResponse struct {
	Success bool `json:"success"`
}

type QuoteRequest struct {
	RentalStartDate string             `json:"rentalStartDate"`
	RentalEndDate   string             `json:"rentalEndDate"`
	Items           []domain.OrderItem `json:"items"`
}

type QuoteResponse struct {
	Days  int64                 `json:"rentalDays"`
	Lines []utils.LineBreakdown `json:"lines"`
	Total int64                 `json:"total"`
}

// Mappers.

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func MapDomainReturnRequest(r *domain.ReturnRequest, viewer domain.Role) ReturnRequest {
	label := r.ReturnStatus.Label()
	out := ReturnRequest{
		RMANumber:       r.RMANumber,
		RentalOrderID:   r.RentalOrderID,
		CustomerID:      r.CustomerID,
		ReturnMethod:    string(r.ReturnMethod),
		Items:           make([]ReturnItem, len(r.Items)),
		ReturnStatus:    r.ReturnStatus.String(),
		StatusLabel:     label.Label,
		StatusColor:     label.Color,
		ReturnDeadline:  utils.FormatDate(r.ReturnDeadline),
		InspectionNotes: r.InspectionNotes,
		AdditionalFees:  r.AdditionalFees,
		FeeDescription:  r.FeeDescription,
		RefundAmount:    r.RefundAmount,
		RentalValue:     r.RentalValue,
		Version:         r.Version,
		CreatedAt:       formatTime(r.CreatedAt),
		UpdatedAt:       formatTime(r.UpdatedAt),
	}
	for i, it := range r.Items {
		out.Items[i] = ReturnItem{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	if r.Customer != nil {
		out.CustomerName = r.Customer.FullName
		out.CustomerEmail = r.Customer.Email
	}
	for _, s := range returns.NextStatuses(r, viewer) {
		out.NextStatuses = append(out.NextStatuses, s.String())
	}
	return out
}

func MapDomainReturnRequests(reqs []domain.ReturnRequest, viewer domain.Role) []ReturnRequest {
	out := make([]ReturnRequest, len(reqs))
	for i := range reqs {
		out[i] = MapDomainReturnRequest(&reqs[i], viewer)
	}
	return out
}

func MapDomainRentalOrder(o *domain.RentalOrder) RentalOrder {
	out := RentalOrder{
		ID:                   o.ID,
		Status:               string(o.Status),
		RentalStartDate:      utils.FormatDate(o.RentalStartDate),
		RentalEndDate:        utils.FormatDate(o.RentalEndDate),
		ReturnWindowDeadline: utils.FormatDate(o.ReturnWindowDeadline),
		Items:                make([]OrderItem, len(o.Items)),
	}
	for i, it := range o.Items {
		// A malformed range prices as zero rather than hiding the order.
		line, _ := utils.LineTotal(it.UnitPrice, it.Quantity, o.RentalStartDate, o.RentalEndDate)
		out.Items[i] = OrderItem{
			ProductID: it.ProductID,
			Title:     it.Title,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: line,
		}
		out.Total += line
	}
	return out
}

func MapReturnItems(items []ReturnItem) []domain.ReturnItem {
	out := make([]domain.ReturnItem, len(items))
	for i, it := range items {
		out[i] = domain.ReturnItem{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return out
}

func StatusTable() []StatusInfo {
	labels := domain.ReturnStatusLabels()
	out := make([]StatusInfo, len(labels))
	for i, l := range labels {
		out[i] = StatusInfo{
			Value:    l.Status.String(),
			Label:    l.Label,
			Color:    l.Color,
			Terminal: l.Status.IsTerminal(),
		}
	}
	return out
}

func MapDomainTransaction(t *domain.LedgerTransaction) LedgerTransaction {
	return LedgerTransaction{
		ID:              t.ID,
		Amount:          t.Amount,
		Type:            string(t.Type),
		RelatedOrderID:  t.RelatedOrderID,
		RelatedReturnID: t.RelatedReturnID,
		Description:     t.Description,
		ChargedOn:       formatTime(t.ChargedOn),
	}
}

func MapDomainNotification(n *domain.Notification) Notification {
	return Notification{
		ID:         n.ID,
		Title:      n.Title,
		Message:    n.Message,
		IsRead:     n.IsRead,
		Attributes: n.Attributes,
		CreatedOn:  formatTime(n.CreatedOn),
	}
}
