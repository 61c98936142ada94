package utils

import (
	"fmt"
	"math"
	"time"

	"book-rental-backend/internal/domain"
)

const dateLayout = "2006-01-02"

// ParseDate parses a yyyy-mm-dd string as a UTC calendar date.
func ParseDate(dateStr string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, dateStr, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format, expected yyyy-mm-dd: %w", err)
	}
	return t, nil
}

// FormatDate renders t as yyyy-mm-dd.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// dateOf drops the time-of-day, keeping the calendar date in t's location.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RentalDays counts the days in [start, end], both ends included, on
// calendar dates. Fails with ErrInvalidRange when end is before start.
func RentalDays(start, end time.Time) (int64, error) {
	s, e := dateOf(start), dateOf(end)
	if e.Before(s) {
		return 0, domain.ErrInvalidRange
	}
	return int64(e.Sub(s).Hours()/24) + 1, nil
}

// LineTotal is unitPrice x quantity x rentalDays.
func LineTotal(unitPrice int64, quantity int32, start, end time.Time) (int64, error) {
	if unitPrice < 0 || quantity < 0 {
		return 0, domain.NewInvalidArgumentError("price and quantity must not be negative")
	}
	days, err := RentalDays(start, end)
	if err != nil {
		return 0, err
	}
	if quantity != 0 && unitPrice > math.MaxInt64/int64(quantity) {
		return 0, domain.NewInvalidArgumentError("line total overflows")
	}
	perDay := unitPrice * int64(quantity)
	if perDay != 0 && days > math.MaxInt64/perDay {
		return 0, domain.NewInvalidArgumentError("line total overflows")
	}
	return perDay * days, nil
}

// LineBreakdown is one priced cart or order line.
type LineBreakdown struct {
	ProductID string `json:"productId"`
	Quantity  int32  `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
	Days      int64  `json:"rentalDays"`
	Total     int64  `json:"lineTotal"`
}

// OrderTotal prices every item over the same rental period.
func OrderTotal(items []domain.OrderItem, start, end time.Time) (int64, []LineBreakdown, error) {
	days, err := RentalDays(start, end)
	if err != nil {
		return 0, nil, err
	}
	var total int64
	lines := make([]LineBreakdown, 0, len(items))
	for _, it := range items {
		lt, err := LineTotal(it.UnitPrice, it.Quantity, start, end)
		if err != nil {
			return 0, nil, fmt.Errorf("item %s: %w", it.ProductID, err)
		}
		total += lt
		lines = append(lines, LineBreakdown{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Days:      days,
			Total:     lt,
		})
	}
	return total, lines, nil
}
