package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"posadmin/internal/domain"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, d(want).Equal(got), "want %s, got %s", want, got)
}

func TestComputePercentageOrderDiscountWithTax(t *testing.T) {
	discount := domain.PercentageDiscount(d("10"), d("100"))
	totals := Compute([]Line{{Price: d("100"), Quantity: 1}}, &discount, true, DefaultTaxRate)

	assertDecimal(t, "100", totals.Subtotal)
	assertDecimal(t, "10", totals.Discount)
	assertDecimal(t, "7.9875", totals.Tax)
	assertDecimal(t, "97.9875", totals.Total)
}

func TestComputeTotalIdentity(t *testing.T) {
	itemDiscount := domain.PercentageDiscount(d("25"), d("20"))
	fixedItem := domain.FixedDiscount(d("1.50"))
	fixedOrder := domain.FixedDiscount(d("5"))
	pctOrder := domain.PercentageDiscount(d("12.5"), d("0"))

	cases := []struct {
		name     string
		lines    []Line
		discount *domain.Discount
		applyTax bool
	}{
		{"no discounts", []Line{{Price: d("3.25"), Quantity: 3}, {Price: d("7"), Quantity: 1}}, nil, true},
		{"item discounts", []Line{{Price: d("10"), Quantity: 2, Discount: &itemDiscount}, {Price: d("4.5"), Quantity: 2, Discount: &fixedItem}}, nil, true},
		{"fixed order discount no tax", []Line{{Price: d("24"), Quantity: 1}}, &fixedOrder, false},
		{"percentage order discount", []Line{{Price: d("19.99"), Quantity: 3, Discount: &fixedItem}}, &pctOrder, true},
		{"empty cart", nil, nil, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			totals := Compute(tc.lines, tc.discount, tc.applyTax, DefaultTaxRate)
			want := totals.Subtotal.Sub(totals.Discount).Add(totals.Tax)
			assert.True(t, want.Equal(totals.Total))

			expectedTax := decimal.Zero
			if tc.applyTax {
				expectedTax = totals.Subtotal.Sub(totals.Discount).Mul(DefaultTaxRate).Div(decimal.NewFromInt(100))
			}
			assert.True(t, expectedTax.Equal(totals.Tax))
		})
	}
}

func TestItemTotalSubtractsDiscountAmount(t *testing.T) {
	discount := domain.PercentageDiscount(d("25"), d("20"))
	assertDecimal(t, "5", discount.Amount)
	assertDecimal(t, "15", ItemTotal(Line{Price: d("10"), Quantity: 2, Discount: &discount}))
	assertDecimal(t, "20", ItemTotal(Line{Price: d("10"), Quantity: 2}))
}

func TestPercentageOrderDiscountFollowsSubtotal(t *testing.T) {
	stale := domain.PercentageDiscount(d("10"), d("50"))
	assertDecimal(t, "20", OrderDiscountAmount(d("200"), &stale))

	fixed := domain.FixedDiscount(d("7"))
	assertDecimal(t, "7", OrderDiscountAmount(d("200"), &fixed))
	assertDecimal(t, "0", OrderDiscountAmount(d("200"), nil))
}

func TestTaxDisabled(t *testing.T) {
	assertDecimal(t, "0", Tax(d("100"), DefaultTaxRate, false))
}

func TestComputeItems(t *testing.T) {
	totals := ComputeItems([]domain.OrderItem{
		{ID: "a", Price: d("2.50"), Quantity: 4},
		{ID: "b", Price: d("1.25"), Quantity: 2},
	}, nil, false, DefaultTaxRate)

	assertDecimal(t, "12.5", totals.Subtotal)
	assertDecimal(t, "12.5", totals.Total)
}
