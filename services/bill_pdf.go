package services

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/yeremiapane/cafe-ordering/models"
	"github.com/yeremiapane/cafe-ordering/utils"
)

// RenderBillPDF writes a printable bill for order. The order must be loaded
// with its items, table and bill.
func RenderBillPDF(w io.Writer, order *models.Order, cafe *models.Cafe, symbol string) error {
	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetTitle(fmt.Sprintf("%s bill %s", cafe.Name, order.PublicID), true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 9, cafe.Name, "", 1, "C", false, 0, "")
	if cafe.Tagline != "" {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(0, 5, cafe.Tagline, "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 9)
	if order.Bill != nil {
		pdf.CellFormat(0, 5, "Bill: "+order.Bill.Number, "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 5, "Order: "+order.PublicID, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Table: %d", order.Table.Number), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, "Date: "+order.CreatedAt.Format("02 Jan 2006 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(62, 6, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(12, 6, "Qty", "B", 0, "R", false, 0, "")
	pdf.CellFormat(27, 6, "Price", "B", 0, "R", false, 0, "")
	pdf.CellFormat(27, 6, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, item := range order.Items {
		pdf.CellFormat(62, 6, item.MenuItem.Name, "", 0, "L", false, 0, "")
		pdf.CellFormat(12, 6, fmt.Sprintf("%d", item.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(27, 6, utils.FormatCurrency(item.UnitPrice, symbol), "", 0, "R", false, 0, "")
		pdf.CellFormat(27, 6, utils.FormatCurrency(item.LineTotal(), symbol), "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(101, 8, "Total", "T", 0, "R", false, 0, "")
	pdf.CellFormat(27, 8, utils.FormatCurrency(order.TotalPrice, symbol), "T", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.Ln(2)
	status := "UNPAID"
	if order.Paid {
		status = "PAID"
		if order.Bill != nil && order.Bill.PaidAt != nil {
			status += " " + order.Bill.PaidAt.Format("02 Jan 2006 15:04")
		}
	}
	pdf.CellFormat(0, 5, fmt.Sprintf("Payment: %s (%s)", status, order.PaymentMethod), "", 1, "L", false, 0, "")
	if order.SpecialInstructions != "" {
		pdf.MultiCell(0, 5, "Notes: "+order.SpecialInstructions, "", "L", false)
	}

	return pdf.Output(w)
}
