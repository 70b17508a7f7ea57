package services

import (
	"github.com/mitgajera/InvoicePro/internal/models"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Pure invoice arithmetic. No side effects, deterministic given inputs.
// Callers validate at the input boundary (quantity >= 1, price >= 0,
// 0 <= discount <= 100); out-of-range inputs clamp to zero rather than
// producing negative money.

// Totals is the result of applying an invoice-level discount and tax
// rate to a subtotal. The discount reduces the taxable base: tax is
// computed on subtotal - discount, never on the raw subtotal. Reversing
// that order changes totals and is a business-rule violation.
type Totals struct {
	DiscountAmount float64 `json:"discount_amount"`
	TaxAmount      float64 `json:"tax_amount"`
	Total          float64 `json:"total"`
}

// LineAmount returns quantity * price * (1 - discount/100) for a single
// line item, or 0 when quantity or price is out of range.
func LineAmount(quantity int, unitPrice, discountPct float64) float64 {
	if quantity < 1 || unitPrice < 0 {
		return 0
	}
	return float64(quantity) * unitPrice * (1 - discountPct/100)
}

// ItemAmount is LineAmount applied to a model item.
func ItemAmount(item models.InvoiceItem) float64 {
	return LineAmount(item.Quantity, item.UnitPrice, item.DiscountPct)
}

// Subtotal sums the line amounts of all items. Order-independent.
func Subtotal(items []models.InvoiceItem) float64 {
	var sum float64
	for _, item := range items {
		sum += ItemAmount(item)
	}
	return sum
}

// DiscountAmount returns the invoice-level discount on a subtotal.
func DiscountAmount(subtotal, discountPct float64) float64 {
	return subtotal * discountPct / 100
}

// TaxAmount returns the tax on the already-discounted subtotal.
func TaxAmount(discountedSubtotal, taxRatePct float64) float64 {
	return discountedSubtotal * taxRatePct / 100
}

// ComputeTotals applies the invoice-level discount, then tax, to a
// subtotal: total = subtotal - discountAmount + taxAmount.
func ComputeTotals(subtotal, discountPct, taxRatePct float64) Totals {
	discount := DiscountAmount(subtotal, discountPct)
	tax := TaxAmount(subtotal-discount, taxRatePct)
	return Totals{
		DiscountAmount: discount,
		TaxAmount:      tax,
		Total:          subtotal - discount + tax,
	}
}

// FormatCurrency renders a monetary amount for display. Storage always
// keeps raw floats; this is presentation only. Unknown ISO codes fall
// back to USD.
func FormatCurrency(amount float64, code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		unit = currency.USD
	}
	p := message.NewPrinter(language.English)
	return p.Sprintf("%v%v",
		currency.NarrowSymbol(unit),
		number.Decimal(amount, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}
