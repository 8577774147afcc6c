package cart

import (
	"github.com/shopspring/decimal"

	"github.com/shopfront/cartengine/internal/domain/shared"
)

// DiscountType represents how a coupon's discount value is interpreted
type DiscountType string

const (
	DiscountTypePercentage  DiscountType = "PERCENTAGE"
	DiscountTypeFixedAmount DiscountType = "FIXED_AMOUNT"
)

// IsValid checks if the type is a valid DiscountType
func (t DiscountType) IsValid() bool {
	switch t {
	case DiscountTypePercentage, DiscountTypeFixedAmount:
		return true
	}
	return false
}

// String returns the string representation of DiscountType
func (t DiscountType) String() string {
	return string(t)
}

// Coupon is the single applied coupon slot. Eligibility is validated by the
// caller before it reaches the cart; the cart only stores code, type and value.
// The discount amount itself is never stored, it is derived live from the
// current subtotal so cart mutations can never desynchronize it.
type Coupon struct {
	Code          string          `json:"code"`
	DiscountType  DiscountType    `json:"discountType"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	Description   string          `json:"description,omitempty"`
}

// Validate checks structural validity of a coupon before it is applied.
func (c Coupon) Validate() error {
	if c.Code == "" {
		return shared.NewDomainError("INVALID_COUPON_CODE", "Coupon code cannot be empty")
	}
	if !c.DiscountType.IsValid() {
		return shared.NewDomainError("INVALID_DISCOUNT_TYPE", "Unknown discount type")
	}
	if c.DiscountValue.IsNegative() {
		return shared.NewDomainError("INVALID_DISCOUNT_VALUE", "Discount value cannot be negative")
	}
	if c.DiscountType == DiscountTypePercentage && c.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_DISCOUNT_VALUE", "Percentage discount cannot exceed 100")
	}
	return nil
}
