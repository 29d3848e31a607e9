// Package pricing computes order totals from a cart of line items, a discount
// configuration, and a shipping fee. All amounts are integer minor units
// (VND has no subunit) so sums are exact; rounding happens only at display.
//
// Every function is pure and total over validated input: validation happens at
// construction (NewLineItem, Discount.Validate, ValidateShipping) and the
// computation itself never fails.
package pricing

import "errors"

// Money represents a monetary value stored in minor units.
type Money = int64

var (
	// ErrInvalidQuantity is returned when a line quantity is below one.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	// ErrInvalidPrice is returned when a unit price is negative.
	ErrInvalidPrice = errors.New("unit price must not be negative")
	// ErrInvalidDiscount is returned for a negative discount value or a
	// percentage outside [0,100].
	ErrInvalidDiscount = errors.New("invalid discount value")
	// ErrInvalidShipping is returned when the shipping fee is negative.
	ErrInvalidShipping = errors.New("shipping fee must not be negative")
)

// ItemKind classifies a line item. It carries no pricing semantics; products
// and services price identically but downstream consumers (stock, reports)
// treat them differently.
type ItemKind string

const (
	KindProduct ItemKind = "product"
	KindService ItemKind = "service"
)

// LineItem is one row of an order: a quantity of a single product or service
// at a given unit price. Construct via NewLineItem so invariants hold.
type LineItem struct {
	Kind      ItemKind
	Qty       int
	UnitPrice Money
}

// NewLineItem validates and constructs a line item.
func NewLineItem(kind ItemKind, qty int, unitPrice Money) (LineItem, error) {
	if qty < 1 {
		return LineItem{}, ErrInvalidQuantity
	}
	if unitPrice < 0 {
		return LineItem{}, ErrInvalidPrice
	}
	return LineItem{Kind: kind, Qty: qty, UnitPrice: unitPrice}, nil
}

// Total returns the line total, quantity times unit price.
func (it LineItem) Total() Money {
	return Money(it.Qty) * it.UnitPrice
}

// DiscountMode selects how the discount value is interpreted.
type DiscountMode string

const (
	DiscountNone    DiscountMode = "none"
	DiscountPercent DiscountMode = "percentage"
	DiscountFixed   DiscountMode = "fixed"
)

// Discount is the chosen discount mode and its associated value. In percent
// mode the value is a whole percentage in [0,100]; in fixed mode it is an
// amount in minor units. In none mode the value is ignored entirely, so
// switching back to "none" is safe regardless of leftover form state.
type Discount struct {
	Mode  DiscountMode `json:"mode"`
	Value Money        `json:"value"`
}

// Validate rejects discount configurations outside the documented domain.
func (d Discount) Validate() error {
	switch d.Mode {
	case DiscountNone:
		return nil
	case DiscountPercent:
		if d.Value < 0 || d.Value > 100 {
			return ErrInvalidDiscount
		}
		return nil
	case DiscountFixed:
		if d.Value < 0 {
			return ErrInvalidDiscount
		}
		return nil
	default:
		return ErrInvalidDiscount
	}
}

// ResolveDiscount determines the discount amount for a subtotal. A fixed
// discount larger than the subtotal is silently capped at the subtotal, never
// rejected.
func ResolveDiscount(subtotal Money, d Discount) Money {
	switch d.Mode {
	case DiscountPercent:
		if d.Value <= 0 {
			return 0
		}
		return subtotal * d.Value / 100
	case DiscountFixed:
		if d.Value <= 0 {
			return 0
		}
		if d.Value > subtotal {
			return subtotal
		}
		return d.Value
	default:
		return 0
	}
}

// ValidateShipping rejects a negative shipping fee.
func ValidateShipping(fee Money) error {
	if fee < 0 {
		return ErrInvalidShipping
	}
	return nil
}

// Summary aggregates the computed pricing components of an order.
type Summary struct {
	Subtotal Money `json:"subtotal"`
	Discount Money `json:"discount"`
	Shipping Money `json:"shipping"`
	Total    Money `json:"total"`
}

// ComputeTotals sums the line items, applies the discount, and adds the
// shipping fee. An empty item list yields a zero subtotal; whether an order
// may have zero lines is the caller's policy. The total is clamped at zero.
func ComputeTotals(items []LineItem, d Discount, shipping Money) Summary {
	var subtotal Money
	for _, it := range items {
		subtotal += it.Total()
	}
	discount := ResolveDiscount(subtotal, d)
	total := subtotal - discount + shipping
	if total < 0 {
		total = 0
	}
	return Summary{
		Subtotal: subtotal,
		Discount: discount,
		Shipping: shipping,
		Total:    total,
	}
}
