package enum

// ── Billing core (persisted in bill documents) ──

const (
	BillStatusPaid    = "Paid"
	BillStatusPending = "Pending"
)

const (
	ChannelCash = "CASH"
	ChannelUpi  = "UPI"
)

const (
	PaymentMethodCash    = "CASH"
	PaymentMethodUpi     = "UPI"
	PaymentMethodBoth    = "BOTH"
	PaymentMethodPending = "PENDING"
)

// ── Online orders (sibling subsystem, shares the store) ──

const (
	OnlineOrderPlaced    = "placed"
	OnlineOrderConfirmed = "confirmed"
	OnlineOrderPaid      = "paid"
	OnlineOrderDelivered = "delivered"
	OnlineOrderCanceled  = "canceled"
	OnlineOrderRefunded  = "refunded"
)

// ── Access control ──

const (
	RoleAdmin   = "ADMIN"
	RoleManager = "MANAGER"
	RoleCashier = "CASHIER"
)

// ValidChannel reports whether s names a payment channel.
func ValidChannel(s string) bool {
	switch s {
	case ChannelCash, ChannelUpi:
		return true
	}
	return false
}

// ValidOnlineOrderStatus reports whether s is a member of the closed
// online-order status set.
func ValidOnlineOrderStatus(s string) bool {
	switch s {
	case OnlineOrderPlaced, OnlineOrderConfirmed, OnlineOrderPaid,
		OnlineOrderDelivered, OnlineOrderCanceled, OnlineOrderRefunded:
		return true
	}
	return false
}
