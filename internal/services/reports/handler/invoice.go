package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"backoffice-system/internal/database/models"
	"backoffice-system/internal/errs"
)

const (
	invoiceCompany = "NOUVIE"
	invoiceTagline = "The Gift From Nature"
	invoiceFooter  = "Nouvie - The Gift From Nature - www.nouvie.com"
)

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

func formatLongDate(t time.Time) string {
	return fmt.Sprintf("%d de %s de %d", t.Day(), spanishMonths[t.Month()-1], t.Year())
}

// formatCOP renders whole pesos with dot thousands separators: $ 1.234.567.
func formatCOP(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	out := make([]byte, 0, len(digits)+len(digits)/3)
	for i := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, digits[i])
	}
	return sign + "$ " + string(out)
}

// InvoiceFilename is the attachment name for an order document.
func InvoiceFilename(orderNumber string) string {
	return orderNumber + ".pdf"
}

// OrderInvoice writes the order as a one-page PDF document and returns its
// attachment filename.
func (s *ReportsHandler) OrderInvoice(ctx context.Context, w io.Writer, orderID int64) (string, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Product").
		First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", errs.NotFound("order", orderID)
		}
		return "", fmt.Errorf("failed to load order: %w", err)
	}

	pdf := s.renderInvoice(order)
	if err := pdf.Output(w); err != nil {
		return "", fmt.Errorf("failed to render invoice: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"order_number": order.OrderNumber,
		"items":        len(order.Items),
	}).Info("Order invoice generated")
	return InvoiceFilename(order.OrderNumber), nil
}

func (s *ReportsHandler) renderInvoice(order models.Order) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "Letter", "")
	// Content streams stay uncompressed so the text can be searched.
	pdf.SetCompression(false)
	pdf.SetCreationDate(s.now())
	pdf.SetTitle("Pedido "+order.OrderNumber, true)
	pdf.SetCreator(invoiceCompany, true)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 20)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(156, 163, 175)
		pdf.CellFormat(0, 5, tr(invoiceFooter), "T", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	// Header: company on the left, order identity on the right.
	pdf.SetTextColor(4, 64, 165)
	pdf.SetFont("Helvetica", "B", 24)
	pdf.CellFormat(95, 10, invoiceCompany, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 10, "PEDIDO", "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(102, 102, 102)
	pdf.CellFormat(95, 6, invoiceTagline, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 6, order.OrderNumber, "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, tr(formatLongDate(order.OrderDate)), "", 1, "R", false, 0, "")
	if order.InvoiceNumber != nil {
		pdf.CellFormat(0, 5, tr("Factura: "+*order.InvoiceNumber), "", 1, "R", false, 0, "")
	}
	pdf.SetDrawColor(4, 64, 165)
	pdf.SetLineWidth(0.6)
	y := pdf.GetY() + 2
	pdf.Line(15, y, 200.9, y)
	pdf.Ln(6)

	section := func(title string) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetTextColor(4, 64, 165)
		pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	}
	field := func(label, value string) {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(102, 102, 102)
		pdf.CellFormat(30, 6, tr(label), "", 0, "L", false, 0, "")
		pdf.SetTextColor(17, 17, 17)
		pdf.CellFormat(0, 6, tr(value), "", 1, "L", false, 0, "")
	}

	section("CLIENTE")
	customer := models.Customer{}
	if order.Customer != nil {
		customer = *order.Customer
	}
	field("Nombre:", customer.Name)
	field("Cédula:", customer.NationalID)
	phone := customer.Phone
	if phone == "" {
		phone = "No registrado"
	}
	field("Teléfono:", phone)
	if customer.Address != nil && *customer.Address != "" {
		field("Dirección:", *customer.Address)
	}
	if customer.City != nil && *customer.City != "" {
		field("Ciudad:", *customer.City)
	}
	pdf.Ln(4)

	section("PRODUCTOS")
	widths := []float64{86, 30, 35, 35}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(243, 244, 246)
	pdf.SetTextColor(55, 65, 81)
	pdf.SetDrawColor(229, 231, 235)
	pdf.SetLineWidth(0.2)
	for i, h := range []string{"Producto", "Cant.", "Precio", "Subtotal"} {
		align := "R"
		if i == 0 {
			align = "L"
		} else if i == 1 {
			align = "C"
		}
		pdf.CellFormat(widths[i], 8, h, "B", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(17, 17, 17)
	for _, it := range order.Items {
		name, unit := "", ""
		if it.Product != nil {
			name, unit = it.Product.Name, it.Product.Unit
		}
		qty := strconv.FormatInt(it.Quantity, 10)
		if unit != "" {
			qty += " " + unit
		}
		pdf.CellFormat(widths[0], 7, tr(name), "B", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, tr(qty), "B", 0, "C", false, 0, "")
		pdf.CellFormat(widths[2], 7, formatCOP(it.UnitPrice), "B", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, formatCOP(it.Subtotal), "B", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	total := func(label, value string, size float64, bold bool) {
		style := ""
		if bold {
			style = "B"
			pdf.SetTextColor(4, 64, 165)
		} else {
			pdf.SetTextColor(102, 102, 102)
		}
		pdf.SetFont("Helvetica", style, size)
		pdf.CellFormat(151, 7, label, "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, value, "", 1, "R", false, 0, "")
	}
	total("Subtotal:", formatCOP(order.Subtotal), 10, false)
	total("IVA (19%):", formatCOP(order.Tax), 10, false)
	total("TOTAL:", formatCOP(order.Total), 14, true)

	if order.Notes != nil && *order.Notes != "" {
		pdf.Ln(6)
		pdf.SetFillColor(249, 250, 251)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetTextColor(102, 102, 102)
		pdf.CellFormat(0, 6, "NOTAS:", "", 1, "L", true, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(55, 65, 81)
		pdf.MultiCell(0, 5, tr(*order.Notes), "", "L", true)
	}
	return pdf
}
