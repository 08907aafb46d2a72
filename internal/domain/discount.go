package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

var hundred = decimal.NewFromInt(100)

// Discount is an applied reduction. Amount is resolved against the base the
// discount was applied to (a line's price x quantity, or a cart subtotal).
type Discount struct {
	Type   DiscountType    `json:"type"`
	Value  decimal.Decimal `json:"value"`
	Amount decimal.Decimal `json:"amount"`
}

// DiscountInput is what a caller asks for; the amount is derived server side.
type DiscountInput struct {
	Type  DiscountType    `json:"type"`
	Value decimal.Decimal `json:"value"`
}

func PercentageDiscount(value decimal.Decimal, base decimal.Decimal) Discount {
	return Discount{
		Type:   DiscountPercentage,
		Value:  value,
		Amount: base.Mul(value).Div(hundred),
	}
}

func FixedDiscount(value decimal.Decimal) Discount {
	return Discount{Type: DiscountFixed, Value: value, Amount: value}
}

func (in DiscountInput) Validate() error {
	if in.Value.IsNegative() {
		return errors.New("discount value must not be negative")
	}
	switch in.Type {
	case DiscountPercentage:
		if in.Value.GreaterThan(hundred) {
			return errors.New("percentage discount must not exceed 100")
		}
	case DiscountFixed:
	default:
		return fmt.Errorf("unknown discount type %q", in.Type)
	}
	return nil
}

// Apply resolves the input against base.
func (in DiscountInput) Apply(base decimal.Decimal) (Discount, error) {
	if err := in.Validate(); err != nil {
		return Discount{}, err
	}
	if in.Type == DiscountPercentage {
		return PercentageDiscount(in.Value, base), nil
	}
	return FixedDiscount(in.Value), nil
}
