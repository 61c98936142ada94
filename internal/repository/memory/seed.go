package memory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"book-rental-backend/internal/domain"
	"book-rental-backend/internal/utils"
)

type seedFile struct {
	Customers []seedCustomer `yaml:"customers"`
	Orders    []seedOrder    `yaml:"orders"`
}

type seedCustomer struct {
	ID       string `yaml:"id"`
	FullName string `yaml:"full_name"`
	Email    string `yaml:"email"`
	Phone    string `yaml:"phone"`
}

type seedOrder struct {
	ID                   string          `yaml:"id"`
	CustomerID           string          `yaml:"customer_id"`
	Status               string          `yaml:"status"`
	RentalStartDate      string          `yaml:"rental_start_date"`
	RentalEndDate        string          `yaml:"rental_end_date"`
	ReturnWindowDeadline string          `yaml:"return_window_deadline"`
	PaymentMethod        string          `yaml:"payment_method"`
	Items                []seedOrderItem `yaml:"items"`
}

type seedOrderItem struct {
	ProductID string `yaml:"product_id"`
	Title     string `yaml:"title"`
	Quantity  int32  `yaml:"quantity"`
	UnitPrice int64  `yaml:"unit_price"`
}

// LoadSeed reads customers and orders from a YAML file into the store.
func (s *Store) LoadSeed(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}
	return s.Seed(data)
}

// Seed loads customers and orders from YAML. Dates use YYYY-MM-DD.
func (s *Store) Seed(data []byte) error {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}

	orders := make([]domain.RentalOrder, 0, len(f.Orders))
	for _, so := range f.Orders {
		o, err := so.toDomain()
		if err != nil {
			return fmt.Errorf("order %s: %w", so.ID, err)
		}
		orders = append(orders, o)
	}

	for _, c := range f.Customers {
		if c.ID == "" {
			return fmt.Errorf("customer without id")
		}
		s.PutCustomer(domain.Customer{ID: c.ID, FullName: c.FullName, Email: c.Email, Phone: c.Phone})
	}
	for _, o := range orders {
		s.PutOrder(o)
	}
	return nil
}

func (so seedOrder) toDomain() (domain.RentalOrder, error) {
	if so.ID == "" || so.CustomerID == "" {
		return domain.RentalOrder{}, fmt.Errorf("id and customer_id are required")
	}
	start, err := utils.ParseDate(so.RentalStartDate)
	if err != nil {
		return domain.RentalOrder{}, err
	}
	end, err := utils.ParseDate(so.RentalEndDate)
	if err != nil {
		return domain.RentalOrder{}, err
	}
	deadline := end.AddDate(0, 0, 7)
	if so.ReturnWindowDeadline != "" {
		if deadline, err = utils.ParseDate(so.ReturnWindowDeadline); err != nil {
			return domain.RentalOrder{}, err
		}
	}
	status := domain.OrderStatus(so.Status)
	if status == "" {
		status = domain.OrderStatusActive
	}
	if !status.IsValid() {
		return domain.RentalOrder{}, fmt.Errorf("unknown order status %q", so.Status)
	}

	o := domain.RentalOrder{
		ID:                   so.ID,
		CustomerID:           so.CustomerID,
		Status:               status,
		RentalStartDate:      start,
		RentalEndDate:        end,
		ReturnWindowDeadline: deadline,
		PaymentMethod:        so.PaymentMethod,
		Items:                make([]domain.OrderItem, len(so.Items)),
	}
	for i, it := range so.Items {
		o.Items[i] = domain.OrderItem{ProductID: it.ProductID, Title: it.Title, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	total, _, err := utils.OrderTotal(o.Items, start, end)
	if err != nil {
		return domain.RentalOrder{}, err
	}
	o.TotalAmount = total
	return o, nil
}
