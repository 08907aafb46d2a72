// Package pricing holds the cart arithmetic. Item discounts reduce the
// subtotal first, the order discount applies to that subtotal, and tax is
// charged on what remains. Values are exact decimals and are never rounded.
package pricing

import (
	"github.com/shopspring/decimal"

	"posadmin/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// DefaultTaxRate is the sales tax percentage used when none is configured.
var DefaultTaxRate = decimal.RequireFromString("8.875")

type Line struct {
	Price    decimal.Decimal
	Quantity int
	Discount *domain.Discount
}

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

func LineFromItem(item domain.OrderItem) Line {
	return Line{Price: item.Price, Quantity: item.Quantity, Discount: item.Discount}
}

// Gross is price x quantity before any discount.
func Gross(line Line) decimal.Decimal {
	return line.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
}

func ItemTotal(line Line) decimal.Decimal {
	total := Gross(line)
	if line.Discount != nil {
		total = total.Sub(line.Discount.Amount)
	}
	return total
}

func Subtotal(lines []Line) decimal.Decimal {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(ItemTotal(line))
	}
	return subtotal
}

// OrderDiscountAmount recomputes percentage discounts against subtotal and
// takes fixed discounts at their stored amount.
func OrderDiscountAmount(subtotal decimal.Decimal, discount *domain.Discount) decimal.Decimal {
	if discount == nil {
		return decimal.Zero
	}
	if discount.Type == domain.DiscountPercentage {
		return subtotal.Mul(discount.Value).Div(hundred)
	}
	return discount.Amount
}

func Tax(taxable decimal.Decimal, ratePercent decimal.Decimal, applyTax bool) decimal.Decimal {
	if !applyTax {
		return decimal.Zero
	}
	return taxable.Mul(ratePercent).Div(hundred)
}

func Compute(lines []Line, orderDiscount *domain.Discount, applyTax bool, ratePercent decimal.Decimal) Totals {
	subtotal := Subtotal(lines)
	discount := OrderDiscountAmount(subtotal, orderDiscount)
	tax := Tax(subtotal.Sub(discount), ratePercent, applyTax)
	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Tax:      tax,
		Total:    subtotal.Sub(discount).Add(tax),
	}
}

func ComputeItems(items []domain.OrderItem, orderDiscount *domain.Discount, applyTax bool, ratePercent decimal.Decimal) Totals {
	lines := make([]Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, LineFromItem(item))
	}
	return Compute(lines, orderDiscount, applyTax, ratePercent)
}
