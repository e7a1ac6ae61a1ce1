package domain

// PaymentToleranceCents absorbs rounding left over from split payments.
const PaymentToleranceCents int64 = 1

// ClientOrderStatusFor derives the status of a non-cancelled client order
// from its total and the amount paid so far.
func ClientOrderStatusFor(totalCents int64, paidCents int64) string {
	pending := totalCents - paidCents
	switch {
	case pending <= PaymentToleranceCents:
		return ClientOrderCompleted
	case paidCents > 0:
		return ClientOrderPartial
	default:
		return ClientOrderPending
	}
}

// PendingCents never reports a negative balance.
func PendingCents(totalCents int64, paidCents int64) int64 {
	if paidCents >= totalCents {
		return 0
	}
	return totalCents - paidCents
}

// ExceedsTotal reports whether paid would overshoot the total beyond the tolerance.
func ExceedsTotal(totalCents int64, paidCents int64) bool {
	return paidCents > totalCents+PaymentToleranceCents
}

func ValidPurchaseOrderStatus(status string) bool {
	switch status {
	case PurchaseOrderPending, PurchaseOrderReceived, PurchaseOrderCancelled:
		return true
	}
	return false
}

func ValidPaymentMethod(method string) bool {
	switch method {
	case PaymentCash, PaymentCard, PaymentTransfer, PaymentOther:
		return true
	}
	return false
}
