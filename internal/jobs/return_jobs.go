package jobs

import (
	"context"
	"fmt"
	"time"

	"book-rental-backend/internal/domain"
	"book-rental-backend/internal/logger"
	"book-rental-backend/internal/utils"
)

// MarkOverdueOrders flips active orders past their rental end date to overdue
func (jr *JobRunner) MarkOverdueOrders() {
	jr.runWithRecovery("MarkOverdueOrders", func() {
		if _, err := jr.MarkOverdueOrdersAt(context.Background(), jr.now()); err != nil {
			logger.Error("Failed to mark overdue orders", "error", err)
		}
	})
}

// MarkOverdueOrdersAt is MarkOverdueOrders for an explicit clock reading.
func (jr *JobRunner) MarkOverdueOrdersAt(ctx context.Context, now time.Time) (int, error) {
	changed, err := jr.deps.Orders.MarkOverdueOrders(ctx, now)
	if err != nil {
		return 0, err
	}
	logger.Info("Marked orders as overdue", "count", len(changed))
	for _, o := range changed {
		logger.Debug("Marked order as overdue",
			"order_id", o.ID,
			"customer_id", o.CustomerID,
			"end_date", utils.FormatDate(o.RentalEndDate))
	}
	return len(changed), nil
}

// SendReturnReminders reminds customers whose return window closes soon and
// who have not started a return yet
func (jr *JobRunner) SendReturnReminders() {
	jr.runWithRecovery("SendReturnReminders", func() {
		if _, err := jr.SendReturnRemindersAt(context.Background(), jr.now()); err != nil {
			logger.Error("Failed to send return reminders", "error", err)
		}
	})
}

// SendReturnRemindersAt is SendReturnReminders for an explicit clock reading.
// It returns the number of customers reminded.
func (jr *JobRunner) SendReturnRemindersAt(ctx context.Context, now time.Time) (int, error) {
	days := jr.config.Returns.ReminderWindowDays
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, days+1)

	orders, err := jr.deps.OrderRepo.ListReturnWindowClosing(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("list orders with closing return window: %w", err)
	}

	open := make(map[string]map[string]bool)
	count := 0
	for i := range orders {
		order := &orders[i]
		if order.StatusAt(now) == domain.OrderStatusClosed {
			continue
		}

		if _, ok := open[order.CustomerID]; !ok {
			ids, err := jr.deps.ReturnRepo.OpenOrderIDs(ctx, order.CustomerID)
			if err != nil {
				logger.Error("Failed to load open return requests", "customer_id", order.CustomerID, "error", err)
				continue
			}
			open[order.CustomerID] = ids
		}
		if open[order.CustomerID][order.ID] {
			continue
		}

		customer, err := jr.deps.CustomerRepo.GetByID(ctx, order.CustomerID)
		if err != nil {
			logger.Error("Failed to load customer", "customer_id", order.CustomerID, "error", err)
			continue
		}

		if jr.deps.Notifications != nil {
			note := &domain.Notification{
				UserID:  customer.ID,
				Title:   "Sắp hết hạn trả sách",
				Message: fmt.Sprintf("Đơn %s cần được trả trước %s", order.ID, utils.FormatDate(order.ReturnWindowDeadline)),
				Attributes: map[string]string{
					"type":    "RETURN_REMINDER",
					"orderId": order.ID,
				},
				CreatedOn: now,
			}
			if err := jr.deps.Notifications.Create(ctx, note); err != nil {
				logger.Warn("Failed to store reminder notification", "order_id", order.ID, "error", err)
			}
		}

		if err := jr.deps.Email.SendReturnReminder(ctx, customer.Email, customer.FullName, order); err != nil {
			logger.Error("Failed to send return reminder email",
				"order_id", order.ID,
				"customer_id", customer.ID,
				"email", customer.Email,
				"error", err)
			continue
		}

		count++
		logger.Debug("Sent return reminder", "order_id", order.ID, "customer_id", customer.ID)
	}

	logger.Info("Sent return reminders", "count", count, "window_days", days)
	return count, nil
}
