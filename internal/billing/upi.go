package billing

import (
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"
)

// Payee identifies the merchant side of a UPI collect link.
type Payee struct {
	VPA  string
	Name string
}

// Link builds the upi:// deep link a customer scans to pay the amount.
func (p Payee) Link(amount decimal.Decimal) string {
	return fmt.Sprintf("upi://pay?pa=%s&pn=%s&am=%s&cu=INR",
		url.QueryEscape(p.VPA), url.QueryEscape(p.Name), amount.StringFixed(2))
}
