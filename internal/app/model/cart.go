package model

import (
	"github.com/shopspring/decimal"
)

func init() {
	// prices travel as JSON numbers, the way the mobile app writes them
	decimal.MarshalJSONWithoutQuotes = true
}

// CartLine is one row of the cart: a product, an optional variant and its quantity.
// Price is the snapshot taken when the line was added.
type CartLine struct {
	ProductID     int64           `json:"productId"`
	VariantID     *int64          `json:"variantId,omitempty"`
	Quantity      int             `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	ProductName   string          `json:"productName,omitempty"`
	Image         string          `json:"image,omitempty"`
	SKU           string          `json:"sku,omitempty"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	Discount      decimal.Decimal `json:"discount"`
	Offer         string          `json:"offer,omitempty"`
}

// LineKey is the composite identity of a cart line
type LineKey struct {
	ProductID  int64
	VariantID  int64
	HasVariant bool
}

func NewLineKey(productID int64, variantID *int64) LineKey {
	k := LineKey{ProductID: productID}
	if variantID != nil {
		k.VariantID = *variantID
		k.HasVariant = true
	}
	return k
}

func (l CartLine) Key() LineKey {
	return NewLineKey(l.ProductID, l.VariantID)
}

// Normalized returns the line with quantity forced to at least 1
func (l CartLine) Normalized() CartLine {
	if l.Quantity < 1 {
		l.Quantity = 1
	}
	return l
}

// Subtotal is price times quantity
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// ListPrice is the pre-discount unit price, falling back to the snapshot price
func (l CartLine) ListPrice() decimal.Decimal {
	if l.OriginalPrice.GreaterThan(l.Price) {
		return l.OriginalPrice
	}
	return l.Price
}

// CloneLines returns a copy that shares no variant pointers with lines
func CloneLines(lines []CartLine) []CartLine {
	out := make([]CartLine, len(lines))
	for i, l := range lines {
		if l.VariantID != nil {
			v := *l.VariantID
			l.VariantID = &v
		}
		out[i] = l
	}
	return out
}

// CartSummary aggregates a list of lines
type CartSummary struct {
	Lines         int             `json:"lines"`
	Items         int             `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	OriginalTotal decimal.Decimal `json:"originalTotal"`
	Savings       decimal.Decimal `json:"savings"`
}

func Summarize(lines []CartLine) CartSummary {
	s := CartSummary{Lines: len(lines)}
	for _, l := range lines {
		qty := decimal.NewFromInt(int64(l.Quantity))
		s.Items += l.Quantity
		s.Subtotal = s.Subtotal.Add(l.Subtotal())
		s.OriginalTotal = s.OriginalTotal.Add(l.ListPrice().Mul(qty))
	}
	s.Savings = s.OriginalTotal.Sub(s.Subtotal)
	return s
}
