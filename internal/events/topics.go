package events

// Topic constants for domain events emitted by the platform.
const (
	TopicOrderCreated    = "order.created"
	TopicOrderPaid       = "order.paid"
	TopicOrderCanceled   = "order.canceled"
	TopicInvoicePaid     = "invoice.paid"
	TopicInvoiceOverdue  = "invoice.overdue"
	TopicPaymentFailed   = "payment.failed"
	TopicBalanceCredited = "balance.credited"
	TopicBalanceDebited  = "balance.debited"
)

// DefaultTopics returns the canonical list of emitted topics.
func DefaultTopics() []string {
	return []string{
		TopicOrderCreated,
		TopicOrderPaid,
		TopicOrderCanceled,
		TopicInvoicePaid,
		TopicInvoiceOverdue,
		TopicPaymentFailed,
		TopicBalanceCredited,
		TopicBalanceDebited,
	}
}
