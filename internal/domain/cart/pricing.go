package cart

import (
	"github.com/shopspring/decimal"
)

// Totals are pure derivations over the current items and coupon. They are
// recomputed on every read and never cached in state, so a quantity or coupon
// change is reflected immediately without an explicit recalculation step.
type Totals struct {
	ItemCount      int             `json:"itemCount"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	FinalTotal     decimal.Decimal `json:"finalTotal"`
}

// CalculateTotals derives item count, subtotal, discount and final total.
// The discount never exceeds the subtotal and the final total never goes
// below zero.
func CalculateTotals(items []*LineItem, coupon *Coupon) Totals {
	totals := Totals{
		Subtotal:       decimal.Zero,
		DiscountAmount: decimal.Zero,
		FinalTotal:     decimal.Zero,
	}
	for _, item := range items {
		totals.ItemCount += item.Quantity
		totals.Subtotal = totals.Subtotal.Add(item.LineTotal())
	}
	totals.DiscountAmount = discountAmount(totals.Subtotal, coupon)
	totals.FinalTotal = totals.Subtotal.Sub(totals.DiscountAmount)
	if totals.FinalTotal.IsNegative() {
		totals.FinalTotal = decimal.Zero
	}
	return totals
}

func discountAmount(subtotal decimal.Decimal, coupon *Coupon) decimal.Decimal {
	if coupon == nil {
		return decimal.Zero
	}
	switch coupon.DiscountType {
	case DiscountTypePercentage:
		return subtotal.Mul(coupon.DiscountValue).Div(decimal.NewFromInt(100)).Round(2)
	case DiscountTypeFixedAmount:
		if coupon.DiscountValue.GreaterThan(subtotal) {
			return subtotal
		}
		return coupon.DiscountValue
	}
	return decimal.Zero
}
