package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopfront/cartengine/internal/domain/shared"
)

// ProductSnapshot is the denormalized display data captured when a product is
// added to the cart. The cart never re-fetches live prices on its own; the
// snapshot is only refreshed when a reconciliation returns updated rows.
type ProductSnapshot struct {
	ProductID     string          `json:"id"`
	Name          string          `json:"name"`
	Slug          string          `json:"slug"`
	UnitPrice     decimal.Decimal `json:"price"`
	PrimaryImage  string          `json:"primaryImage,omitempty"`
	StockQuantity int             `json:"stockQuantity"`
}

// LineItem is one row in the cart: a product, its variant selection and a
// quantity. Line IDs are assigned at creation time and never reused.
type LineItem struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     string          `json:"productId"`
	Quantity      int             `json:"quantity"`
	SelectedColor string          `json:"selectedColor,omitempty"`
	SelectedSize  string          `json:"selectedSize,omitempty"`
	Product       ProductSnapshot `json:"product"`
	AddedAt       time.Time       `json:"addedAt"`
}

// IdentityKey decides whether two line items are the same logical item for
// merge and accumulation purposes. Two rows with equal keys must always be
// collapsed into one.
type IdentityKey struct {
	ProductID string
	Color     string
	Size      string
}

// Key returns the item's identity key.
func (i *LineItem) Key() IdentityKey {
	return IdentityKey{ProductID: i.ProductID, Color: i.SelectedColor, Size: i.SelectedSize}
}

// LineTotal returns unit price times quantity.
func (i *LineItem) LineTotal() decimal.Decimal {
	return i.Product.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// NewLineItem creates a line item with a fresh ID.
func NewLineItem(productID string, quantity int, color, size string, product ProductSnapshot) (*LineItem, error) {
	if productID == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	return &LineItem{
		ID:            uuid.New(),
		ProductID:     productID,
		Quantity:      quantity,
		SelectedColor: color,
		SelectedSize:  size,
		Product:       product,
		AddedAt:       time.Now(),
	}, nil
}
