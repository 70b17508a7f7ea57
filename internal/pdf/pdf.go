// Package pdf renders an invoice into a downloadable paginated
// document. It prints the stored totals; it never recomputes them.
package pdf

import (
	"bytes"
	"fmt"

	"github.com/mitgajera/InvoicePro/internal/models"
	"github.com/mitgajera/InvoicePro/internal/services"

	"github.com/jung-kurt/gofpdf"
)

// Seller identifies the invoice issuer on the document header.
type Seller struct {
	Name    string
	Company string
	Address string
	Phone   string
	Email   string
}

// Filename is the download name for an invoice document.
func Filename(number string) string {
	return fmt.Sprintf("Invoice-%s.pdf", number)
}

// Render produces the PDF bytes for an invoice. The client and items
// must be attached.
func Render(inv *models.Invoice, seller Seller) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.AddPage()

	money := func(v float64) string { return services.FormatCurrency(v, inv.Currency) }

	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetTextColor(20, 20, 20)
	pdf.Cell(0, 10, "INVOICE")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.Cell(0, 6, inv.Number)
	pdf.Ln(5)
	pdf.Cell(0, 6, "Issued: "+inv.IssueDate.Format("2006-01-02")+"    Due: "+inv.DueDate.Format("2006-01-02"))
	pdf.Ln(5)
	pdf.Cell(0, 6, "Status: "+string(inv.Status))
	pdf.Ln(10)

	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(95, 6, "From")
	pdf.Cell(95, 6, "Bill To")
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 10)
	from := sellerLines(seller)
	to := clientLines(inv.Client)
	for i := 0; i < len(from) || i < len(to); i++ {
		left, right := "", ""
		if i < len(from) {
			left = from[i]
		}
		if i < len(to) {
			right = to[i]
		}
		pdf.Cell(95, 5, left)
		pdf.Cell(95, 5, right)
		pdf.Ln(5)
	}
	pdf.Ln(6)

	// Items table
	colW := []float64{72, 20, 30, 20, 40}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(245, 245, 245)
	pdf.CellFormat(colW[0], 8, "ITEM", "1", 0, "L", true, 0, "")
	pdf.CellFormat(colW[1], 8, "QTY", "1", 0, "C", true, 0, "")
	pdf.CellFormat(colW[2], 8, "PRICE", "1", 0, "R", true, 0, "")
	pdf.CellFormat(colW[3], 8, "DISC %", "1", 0, "C", true, 0, "")
	pdf.CellFormat(colW[4], 8, "AMOUNT", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, item := range inv.Items {
		if pdf.GetY() > 260 {
			pdf.AddPage()
		}
		name := item.Name
		if item.Description != "" {
			name += " - " + item.Description
		}
		pdf.CellFormat(colW[0], 8, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(colW[1], 8, fmt.Sprintf("%d", item.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colW[2], 8, money(item.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colW[3], 8, fmt.Sprintf("%.1f", item.DiscountPct), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colW[4], 8, money(item.Amount), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	// Totals block, right aligned
	label := func(name, value string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(122, 7, "", "", 0, "", false, 0, "")
		pdf.CellFormat(30, 7, name, "", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, value, "", 1, "R", false, 0, "")
	}
	totals := services.ComputeTotals(inv.Subtotal, inv.DiscountPct, inv.TaxRate)
	label("Subtotal", money(inv.Subtotal), false)
	if inv.DiscountPct > 0 {
		label(fmt.Sprintf("Discount (%.1f%%)", inv.DiscountPct), "-"+money(totals.DiscountAmount), false)
	}
	label(fmt.Sprintf("Tax (%.2f%%)", inv.TaxRate), money(inv.TaxAmount), false)
	label("Total", money(inv.Total), true)

	if inv.Notes != "" {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.Cell(0, 6, "Notes")
		pdf.Ln(5)
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(0, 5, inv.Notes, "", "L", false)
	}
	if inv.Terms != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.Cell(0, 6, "Terms")
		pdf.Ln(5)
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(0, 5, inv.Terms, "", "L", false)
	}
	if inv.PaymentLink != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(60, 60, 160)
		pdf.Cell(0, 6, "Pay online: "+inv.PaymentLink)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func sellerLines(s Seller) []string {
	lines := []string{}
	if s.Company != "" {
		lines = append(lines, s.Company)
	}
	if s.Name != "" {
		lines = append(lines, s.Name)
	}
	if s.Address != "" {
		lines = append(lines, s.Address)
	}
	if s.Email != "" {
		lines = append(lines, s.Email)
	}
	if s.Phone != "" {
		lines = append(lines, s.Phone)
	}
	return lines
}

func clientLines(c *models.Client) []string {
	if c == nil {
		return nil
	}
	lines := []string{c.Name}
	if c.Company != "" {
		lines = append(lines, c.Company)
	}
	if c.Address != "" {
		lines = append(lines, c.Address)
	}
	if c.Email != "" {
		lines = append(lines, c.Email)
	}
	return lines
}
