package invoice

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// RenderPDF produces the printable invoice. Layout mirrors the console's
// print template: header with the invoice number, client block from the
// display data, then the charge table and total.
func RenderPDF(inv Invoice) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Invoice "+inv.Number)
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	for _, field := range []struct{ label, value string }{
		{"Client", inv.Data["clientName"]},
		{"Address", inv.Data["address"]},
		{"Service", inv.Data["serviceType"]},
		{"Service Date", inv.ServiceDate},
		{"Invoice Date", inv.Date},
	} {
		if field.value == "" {
			continue
		}
		pdf.Cell(0, 8, fmt.Sprintf("%s: %s", field.label, field.value))
		pdf.Ln(7)
	}
	pdf.Ln(5)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(120, 8, "Description", "1", 0, "", false, 0, "")
	pdf.CellFormat(50, 8, "Amount", "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	rows := []struct {
		label  string
		amount string
		skip   bool
	}{
		{"Service charge", inv.InvoiceAmount.String(), false},
		{"Traveling charges", inv.TravelingCharges.String(), inv.TravelingCharges.IsZero()},
		{"Extra charges", inv.ExtraCharges.String(), inv.ExtraCharges.IsZero()},
	}
	for _, row := range rows {
		if row.skip {
			continue
		}
		pdf.CellFormat(120, 8, row.label, "1", 0, "", false, 0, "")
		pdf.CellFormat(50, 8, row.amount, "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(120, 8, "Total", "1", 0, "", false, 0, "")
	pdf.CellFormat(50, 8, inv.Amount.String(), "1", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
