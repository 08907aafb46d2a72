// Package receipt renders printable order receipts.
package receipt

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/shopspring/decimal"

	"posadmin/internal/domain"
	"posadmin/internal/pricing"
)

const (
	pageWidth = 80.0
	margin    = 4.0
	bodyWidth = pageWidth - 2*margin
)

// Options tweaks rendering. The zero value is ready to use.
type Options struct {
	// Uncompressed disables stream compression so text can be searched in
	// the raw output.
	Uncompressed bool
}

// Render writes a narrow-format PDF receipt for order to w. Refunds recorded
// on the order are listed after the totals.
func Render(w io.Writer, order domain.Order, settings domain.Settings, opts Options) error {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: pageWidth, Ht: pageHeight(order)},
	})
	pdf.SetCompression(!opts.Uncompressed)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetTitle("Receipt "+order.ID, true)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(bodyWidth, 6, tr(storeName(settings)), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 8)
	for _, line := range []string{settings.StoreInfo.Address, settings.StoreInfo.Phone, settings.StoreInfo.Email} {
		if strings.TrimSpace(line) != "" {
			pdf.CellFormat(bodyWidth, 4, tr(line), "", 1, "C", false, 0, "")
		}
	}
	pdf.Ln(2)

	pdf.CellFormat(bodyWidth, 4, tr("Order "+order.ID), "", 1, "L", false, 0, "")
	pdf.CellFormat(bodyWidth, 4, order.Date.Format("02 Jan 2006 15:04"), "", 1, "L", false, 0, "")
	customer := "Walk-in"
	if !order.IsWalkIn() && order.Customer.Name != "" {
		customer = order.Customer.Name
	}
	pdf.CellFormat(bodyWidth, 4, tr("Customer: "+customer), "", 1, "L", false, 0, "")
	pdf.CellFormat(bodyWidth, 4, "Status: "+string(order.Status), "B", 1, "L", false, 0, "")
	pdf.Ln(1)

	for _, item := range order.Items {
		pdf.SetFont("Arial", "", 8)
		pdf.CellFormat(bodyWidth, 4, tr(truncate(item.Name, 40)), "", 1, "L", false, 0, "")
		line := pricing.LineFromItem(item)
		pdf.CellFormat(bodyWidth*0.6, 4, fmt.Sprintf("  %d x %s", item.Quantity, money(item.Price)), "", 0, "L", false, 0, "")
		pdf.CellFormat(bodyWidth*0.4, 4, money(pricing.Gross(line)), "", 1, "R", false, 0, "")
		if item.Discount != nil && item.Discount.Amount.IsPositive() {
			pdf.CellFormat(bodyWidth*0.6, 4, "  discount", "", 0, "L", false, 0, "")
			pdf.CellFormat(bodyWidth*0.4, 4, "-"+money(item.Discount.Amount), "", 1, "R", false, 0, "")
		}
	}
	pdf.CellFormat(bodyWidth, 1, "", "B", 1, "L", false, 0, "")
	pdf.Ln(1)

	total := func(label string, amount decimal.Decimal) {
		pdf.CellFormat(bodyWidth*0.6, 5, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(bodyWidth*0.4, 5, money(amount), "", 1, "R", false, 0, "")
	}
	total("Subtotal", order.Subtotal)
	if order.Discount.IsPositive() {
		total("Discount", order.Discount.Neg())
	}
	if order.Tax.IsPositive() {
		total(fmt.Sprintf("Tax (%s%%)", settings.TaxSettings.Rate.String()), order.Tax)
	}
	pdf.SetFont("Arial", "B", 10)
	total("Total", order.Total)
	pdf.SetFont("Arial", "", 8)

	total("Paid by "+paymentLabel(order.Payment), order.Total)
	if cash := order.Payment.Cash; cash != nil {
		total("Tendered", cash.Tendered)
		total("Change", cash.Change)
	}

	if len(order.Refunds) > 0 {
		pdf.Ln(2)
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(bodyWidth, 5, "Refunds", "B", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 8)
		for _, refund := range order.Refunds {
			pdf.CellFormat(bodyWidth*0.6, 4, tr(refund.ID), "", 0, "L", false, 0, "")
			pdf.CellFormat(bodyWidth*0.4, 4, "-"+money(refund.Amount), "", 1, "R", false, 0, "")
			for _, item := range refund.Items {
				pdf.CellFormat(bodyWidth, 4, tr(fmt.Sprintf("  %d x %s (%s)", item.Quantity, truncate(item.Name, 28), item.Condition)), "", 1, "L", false, 0, "")
			}
		}
		balance := order.Total.Sub(order.RefundedAmount())
		if balance.IsNegative() {
			balance = decimal.Zero
		}
		pdf.SetFont("Arial", "B", 9)
		total("Balance", balance)
	}

	if notes := strings.TrimSpace(order.Notes); notes != "" {
		pdf.Ln(2)
		pdf.SetFont("Arial", "I", 8)
		pdf.MultiCell(bodyWidth, 4, tr(notes), "", "L", false)
	}

	pdf.Ln(3)
	pdf.SetFont("Arial", "", 8)
	pdf.CellFormat(bodyWidth, 4, "Thank you!", "", 1, "C", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render receipt %s: %w", order.ID, err)
	}
	return nil
}

// Filename is the download name for an order's receipt.
func Filename(order domain.Order) string {
	return "receipt-" + order.ID + ".pdf"
}

func pageHeight(order domain.Order) float64 {
	lines := 24 + 2*len(order.Items)
	for _, item := range order.Items {
		if item.Discount != nil {
			lines++
		}
	}
	for _, refund := range order.Refunds {
		lines += 1 + len(refund.Items)
	}
	if len(order.Refunds) > 0 {
		lines += 4
	}
	if order.Notes != "" {
		lines += 3 + len(order.Notes)/40
	}
	return float64(lines)*5 + 2*margin
}

func storeName(settings domain.Settings) string {
	if name := strings.TrimSpace(settings.StoreInfo.Name); name != "" {
		return name
	}
	return "Receipt"
}

func paymentLabel(p domain.Payment) string {
	switch p.Method {
	case domain.PaymentCard:
		if p.Card != nil && p.Card.Last4 != "" {
			return "card ****" + p.Card.Last4
		}
		return "card"
	case domain.PaymentStoreCredit:
		return "store credit"
	case "":
		return "-"
	}
	return string(p.Method)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
