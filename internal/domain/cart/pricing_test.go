package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createPricedItem(t *testing.T, productID string, unitPrice float64, quantity int) *LineItem {
	t.Helper()
	item, err := NewLineItem(productID, quantity, "", "", ProductSnapshot{
		ProductID: productID,
		Name:      "Priced Product",
		Slug:      "priced-product",
		UnitPrice: decimal.NewFromFloat(unitPrice),
	})
	require.NoError(t, err)
	return item
}

func TestCalculateTotals_NoCoupon(t *testing.T) {
	items := []*LineItem{
		createPricedItem(t, "P1", 19.99, 2),
		createPricedItem(t, "P2", 5.00, 3),
	}

	totals := CalculateTotals(items, nil)

	assert.Equal(t, 5, totals.ItemCount)
	assert.True(t, totals.Subtotal.Equal(decimal.NewFromFloat(54.98)), "subtotal %s", totals.Subtotal)
	assert.True(t, totals.DiscountAmount.IsZero())
	assert.True(t, totals.FinalTotal.Equal(totals.Subtotal))
}

func TestCalculateTotals_EmptyCart(t *testing.T) {
	totals := CalculateTotals(nil, nil)

	assert.Zero(t, totals.ItemCount)
	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, totals.FinalTotal.IsZero())
}

func TestCalculateTotals_PercentageCoupon(t *testing.T) {
	items := []*LineItem{createPricedItem(t, "P1", 25.00, 4)} // subtotal 100.00
	coupon := &Coupon{Code: "SAVE10", DiscountType: DiscountTypePercentage, DiscountValue: decimal.NewFromInt(10)}

	totals := CalculateTotals(items, coupon)

	assert.True(t, totals.DiscountAmount.Equal(decimal.NewFromFloat(10.00)), "discount %s", totals.DiscountAmount)
	assert.True(t, totals.FinalTotal.Equal(decimal.NewFromFloat(90.00)), "total %s", totals.FinalTotal)

	// Totals are derived on every read: halving the subtotal halves the
	// discount with no explicit recalculation call.
	items[0].Quantity = 2
	totals = CalculateTotals(items, coupon)
	assert.True(t, totals.DiscountAmount.Equal(decimal.NewFromFloat(5.00)), "discount %s", totals.DiscountAmount)
	assert.True(t, totals.FinalTotal.Equal(decimal.NewFromFloat(45.00)), "total %s", totals.FinalTotal)
}

func TestCalculateTotals_PercentageRounding(t *testing.T) {
	items := []*LineItem{createPricedItem(t, "P1", 33.33, 1)}
	coupon := &Coupon{Code: "SAVE15", DiscountType: DiscountTypePercentage, DiscountValue: decimal.NewFromInt(15)}

	totals := CalculateTotals(items, coupon)

	// 33.33 * 0.15 = 4.9995 rounds to 5.00
	assert.True(t, totals.DiscountAmount.Equal(decimal.NewFromFloat(5.00)), "discount %s", totals.DiscountAmount)
	assert.True(t, totals.FinalTotal.Equal(decimal.NewFromFloat(28.33)), "total %s", totals.FinalTotal)
}

func TestCalculateTotals_FixedAmountCoupon(t *testing.T) {
	tests := []struct {
		name         string
		subtotal     float64
		discount     float64
		wantDiscount float64
		wantTotal    float64
	}{
		{"discount below subtotal", 50.00, 15.00, 15.00, 35.00},
		{"discount equals subtotal", 20.00, 20.00, 20.00, 0.00},
		{"discount capped at subtotal", 10.00, 25.00, 10.00, 0.00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := []*LineItem{createPricedItem(t, "P1", tt.subtotal, 1)}
			coupon := &Coupon{
				Code:          "FLAT",
				DiscountType:  DiscountTypeFixedAmount,
				DiscountValue: decimal.NewFromFloat(tt.discount),
			}

			totals := CalculateTotals(items, coupon)

			assert.True(t, totals.DiscountAmount.Equal(decimal.NewFromFloat(tt.wantDiscount)), "discount %s", totals.DiscountAmount)
			assert.True(t, totals.FinalTotal.Equal(decimal.NewFromFloat(tt.wantTotal)), "total %s", totals.FinalTotal)
			assert.False(t, totals.FinalTotal.IsNegative())
		})
	}
}

func TestCouponValidate(t *testing.T) {
	tests := []struct {
		name    string
		coupon  Coupon
		wantErr bool
	}{
		{"valid percentage", Coupon{Code: "SAVE10", DiscountType: DiscountTypePercentage, DiscountValue: decimal.NewFromInt(10)}, false},
		{"valid fixed", Coupon{Code: "FLAT5", DiscountType: DiscountTypeFixedAmount, DiscountValue: decimal.NewFromInt(5)}, false},
		{"empty code", Coupon{DiscountType: DiscountTypePercentage, DiscountValue: decimal.NewFromInt(10)}, true},
		{"unknown type", Coupon{Code: "X", DiscountType: DiscountType("BOGOF"), DiscountValue: decimal.NewFromInt(1)}, true},
		{"negative value", Coupon{Code: "X", DiscountType: DiscountTypeFixedAmount, DiscountValue: decimal.NewFromInt(-1)}, true},
		{"percentage above 100", Coupon{Code: "X", DiscountType: DiscountTypePercentage, DiscountValue: decimal.NewFromInt(101)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.coupon.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
