package services

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/mitgajera/InvoicePro/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestLineAmount(t *testing.T) {
	assert.Equal(t, 2500.0, LineAmount(50, 50, 0))
	assert.Equal(t, 180.0, LineAmount(2, 100, 10))
	assert.Equal(t, 0.0, LineAmount(3, 25, 100), "full discount zeroes the line")

	// out-of-range inputs clamp to zero, callers validate upstream
	assert.Equal(t, 0.0, LineAmount(0, 50, 0))
	assert.Equal(t, 0.0, LineAmount(-1, 50, 0))
	assert.Equal(t, 0.0, LineAmount(2, -10, 0))
}

func TestLineAmountNeverNegative(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		qty := 1 + r.Intn(500)
		price := r.Float64() * 10000
		disc := r.Float64() * 100
		if got := LineAmount(qty, price, disc); got < 0 {
			t.Fatalf("lineAmount(%d, %f, %f) = %f, want >= 0", qty, price, disc, got)
		}
	}
}

func TestSubtotalOrderIndependent(t *testing.T) {
	items := []models.InvoiceItem{
		{Quantity: 2, UnitPrice: 100, DiscountPct: 10},
		{Quantity: 1, UnitPrice: 49.99},
		{Quantity: 7, UnitPrice: 3.5, DiscountPct: 50},
	}
	reversed := []models.InvoiceItem{items[2], items[1], items[0]}
	assert.Equal(t, Subtotal(items), Subtotal(reversed))
	assert.InDelta(t, 180+49.99+12.25, Subtotal(items), 1e-9)
	assert.Equal(t, 0.0, Subtotal(nil))
}

func TestComputeTotalsDiscountBeforeTax(t *testing.T) {
	// tax applies to the discounted base, not the raw subtotal
	got := ComputeTotals(180, 5, 10)
	assert.InDelta(t, 9.00, got.DiscountAmount, 1e-9)
	assert.InDelta(t, 17.10, got.TaxAmount, 1e-9)
	assert.InDelta(t, 188.10, got.Total, 1e-9)

	// ordering matters: tax on the undiscounted base would give 18.00
	assert.NotEqual(t, TaxAmount(180, 10), got.TaxAmount)
}

func TestComputeTotalsScenario(t *testing.T) {
	items := []models.InvoiceItem{{Quantity: 50, UnitPrice: 50}}
	subtotal := Subtotal(items)
	assert.Equal(t, 2500.0, subtotal)

	got := ComputeTotals(subtotal, 0, 8.5)
	assert.InDelta(t, 0, got.DiscountAmount, 1e-9)
	assert.InDelta(t, 212.50, got.TaxAmount, 1e-9)
	assert.InDelta(t, 2712.50, got.Total, 1e-9)
}

func TestComputeTotalsIdentity(t *testing.T) {
	for _, tc := range []struct{ sub, disc, tax float64 }{
		{100, 0, 0}, {2500, 10, 8.5}, {99.99, 33.3, 21}, {0, 50, 50},
	} {
		got := ComputeTotals(tc.sub, tc.disc, tc.tax)
		assert.InDelta(t, tc.sub-got.DiscountAmount+got.TaxAmount, got.Total, 1e-9)
		assert.InDelta(t, DiscountAmount(tc.sub, tc.disc), got.DiscountAmount, 1e-9)
		assert.InDelta(t, TaxAmount(tc.sub-got.DiscountAmount, tc.tax), got.TaxAmount, 1e-9)
	}
}

func TestFormatCurrency(t *testing.T) {
	got := FormatCurrency(2712.5, "USD")
	assert.Contains(t, got, "2,712.50")
	assert.Contains(t, got, "$")

	// unknown codes fall back to USD rather than erroring
	fallback := FormatCurrency(10, "???")
	assert.Contains(t, fallback, "10.00")

	eur := FormatCurrency(99.9, "EUR")
	if !strings.Contains(eur, "99.90") {
		t.Fatalf("unexpected EUR formatting: %q", eur)
	}
}
