package tasks

import (
	"github.com/hibiken/asynq"
)

// Task type names routed through the asynq mux.
const (
	TypeCartExpiry     = "cart:expire"
	TypeInvoiceOverdue = "invoice:overdue"
)

// NewCartExpiryTask sweeps open carts past their TTL.
func NewCartExpiryTask() *asynq.Task {
	return asynq.NewTask(TypeCartExpiry, nil)
}

// NewInvoiceOverdueTask flags unpaid invoices past their due date.
func NewInvoiceOverdueTask() *asynq.Task {
	return asynq.NewTask(TypeInvoiceOverdue, nil)
}
