package domain

import "time"

type OrderStatus string

const (
	OrderStatusActive  OrderStatus = "active"
	OrderStatusOverdue OrderStatus = "overdue"
	OrderStatusClosed  OrderStatus = "closed"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusActive, OrderStatusOverdue, OrderStatusClosed:
		return true
	}
	return false
}

// OrderItem is one rented title. UnitPrice is the per-day price captured at
// checkout; later catalog price changes never affect the order.
type OrderItem struct {
	ProductID string `json:"productId"`
	Title     string `json:"title,omitempty"`
	Quantity  int32  `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
}

type RentalOrder struct {
	ID                   string      `json:"id"`
	CustomerID           string      `json:"customerId"`
	Items                []OrderItem `json:"items"`
	RentalStartDate      time.Time   `json:"rentalStartDate"`
	RentalEndDate        time.Time   `json:"rentalEndDate"`
	ReturnWindowDeadline time.Time   `json:"returnWindowDeadline"`
	Status               OrderStatus `json:"orderStatus"`
	PaymentMethod        string      `json:"paymentMethod,omitempty"`
	TotalAmount          int64       `json:"totalAmount"`
	CreatedAt            time.Time   `json:"createdAt"`
	UpdatedAt            time.Time   `json:"updatedAt"`
}

// Item looks up the order line for productID.
func (o *RentalOrder) Item(productID string) (OrderItem, bool) {
	for _, it := range o.Items {
		if it.ProductID == productID {
			return it, true
		}
	}
	return OrderItem{}, false
}

// StatusAt is the order status as of now: an active order whose rental end
// date has passed reads as overdue. Closed orders stay closed.
func (o *RentalOrder) StatusAt(now time.Time) OrderStatus {
	if o.Status != OrderStatusActive {
		return o.Status
	}
	end := o.RentalEndDate
	endOfDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, end.Location()).AddDate(0, 0, 1)
	if !now.Before(endOfDay) {
		return OrderStatusOverdue
	}
	return OrderStatusActive
}

// Clone returns a deep copy.
func (o *RentalOrder) Clone() *RentalOrder {
	c := *o
	c.Items = append([]OrderItem(nil), o.Items...)
	return &c
}
