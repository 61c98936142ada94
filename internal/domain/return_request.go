package domain

import "time"

type ReturnMethod string

const (
	ReturnMethodShipping    ReturnMethod = "shipping"
	ReturnMethodStorePickup ReturnMethod = "store_pickup"
)

func (m ReturnMethod) IsValid() bool {
	return m == ReturnMethodShipping || m == ReturnMethodStorePickup
}

// ReturnItem is a quantity of one ordered title being sent back. UnitPrice is
// copied from the order line when the request is created.
type ReturnItem struct {
	ProductID string `json:"productId"`
	Quantity  int32  `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
}

type ReturnRequest struct {
	ID              string       `json:"id"`
	RMANumber       string       `json:"rmaNumber"`
	RentalOrderID   string       `json:"rentalOrderId"`
	CustomerID      string       `json:"customerId"`
	ReturnMethod    ReturnMethod `json:"returnMethod"`
	Items           []ReturnItem `json:"items"`
	ReturnStatus    ReturnStatus `json:"returnStatus"`
	ReturnDeadline  time.Time    `json:"returnDeadline"`
	InspectionNotes *string      `json:"inspectionNotes,omitempty"`
	AdditionalFees  int64        `json:"additionalFees"`
	FeeDescription  string       `json:"feeDescription,omitempty"`
	RefundAmount    *int64       `json:"refundAmount,omitempty"`
	// RentalValue is the full rental value of Items, fixed at creation.
	RentalValue int64     `json:"rentalValue"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Populated on reads only.
	Customer *Customer `json:"customer,omitempty"`
}

func (r *ReturnRequest) IsOpen() bool {
	return r.ReturnStatus.IsOpen()
}

// Clone returns a deep copy so callers can mutate it without touching r.
func (r *ReturnRequest) Clone() *ReturnRequest {
	c := *r
	c.Items = append([]ReturnItem(nil), r.Items...)
	if r.InspectionNotes != nil {
		notes := *r.InspectionNotes
		c.InspectionNotes = &notes
	}
	if r.RefundAmount != nil {
		amount := *r.RefundAmount
		c.RefundAmount = &amount
	}
	if r.Customer != nil {
		cust := *r.Customer
		c.Customer = &cust
	}
	return &c
}

// QuantityByProduct sums item quantities per product.
func (r *ReturnRequest) QuantityByProduct() map[string]int32 {
	out := make(map[string]int32, len(r.Items))
	for _, it := range r.Items {
		out[it.ProductID] += it.Quantity
	}
	return out
}
