package handler

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"backoffice-system/internal/cache"
	"backoffice-system/internal/database/models"
)

type ReportsHandler struct {
	db     *gorm.DB
	cache  cache.Cache
	logger *logrus.Logger
	now    func() time.Time
}

func NewReportsHandler(db *gorm.DB, c cache.Cache, logger *logrus.Logger) *ReportsHandler {
	return &ReportsHandler{
		db:     db,
		cache:  c,
		logger: logger,
		now:    time.Now,
	}
}

func (s *ReportsHandler) WithClock(now func() time.Time) *ReportsHandler {
	s.now = now
	return s
}

type DashboardStats struct {
	Customers      int64 `json:"customers"`
	Products       int64 `json:"products"`
	Orders         int64 `json:"orders"`
	OrdersToday    int64 `json:"orders_today"`
	RevenueToday   int64 `json:"revenue_today"`
	LowStock       int64 `json:"low_stock"`
	PendingPayment int64 `json:"pending_payment"`
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Dashboard returns headline counters, served from cache for five minutes.
func (s *ReportsHandler) Dashboard(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	if err := s.cache.Get(ctx, cache.KeyDashboard, &stats); err == nil {
		return &stats, nil
	}

	db := s.db.WithContext(ctx)
	from := startOfDay(s.now())
	to := from.AddDate(0, 0, 1)

	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&stats.Customers, db.Model(&models.Customer{}).Where("active = ?", true)},
		{&stats.Products, db.Model(&models.Product{}).Where("active = ?", true)},
		{&stats.Orders, db.Model(&models.Order{})},
		{&stats.OrdersToday, db.Model(&models.Order{}).Where("order_date >= ? AND order_date < ?", from, to)},
		{&stats.LowStock, db.Model(&models.Product{}).Where("active = ? AND stock <= min_stock", true)},
		{&stats.PendingPayment, db.Model(&models.Order{}).Where("payment_status <> ?", models.PaymentPaid)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return nil, fmt.Errorf("failed to compute dashboard: %w", err)
		}
	}

	if err := db.Model(&models.Order{}).
		Where("order_date >= ? AND order_date < ?", from, to).
		Select("COALESCE(SUM(total), 0)").
		Scan(&stats.RevenueToday).Error; err != nil {
		return nil, fmt.Errorf("failed to compute revenue: %w", err)
	}

	if err := s.cache.Set(ctx, cache.KeyDashboard, stats, cache.TTLShort); err != nil {
		s.logger.Warnf("Failed to cache dashboard: %v", err)
	}
	return &stats, nil
}

const exportSheet = "Pedidos"

var exportColumns = []struct {
	header string
	width  float64
}{
	{"Número de Pedido", 18},
	{"Fecha", 12},
	{"Cliente", 25},
	{"Cédula", 15},
	{"Teléfono", 15},
	{"Productos", 40},
	{"Subtotal", 15},
	{"IVA (19%)", 12},
	{"Total", 15},
	{"Método de Pago", 15},
	{"Estado de Pago", 15},
	{"Estado de Envío", 15},
	{"Número de Factura", 18},
	{"Notas", 30},
}

var (
	paymentMethodLabels = map[models.PaymentMethod]string{
		models.PaymentCash:  "Efectivo",
		models.PaymentNequi: "Nequi",
		models.PaymentBank:  "Banco",
		models.PaymentLink:  "Link",
	}
	paymentStatusLabels = map[models.PaymentStatus]string{
		models.PaymentPending: "Pendiente",
		models.PaymentPartial: "Parcial",
		models.PaymentPaid:    "Pagado",
	}
	shippingStatusLabels = map[models.ShippingStatus]string{
		models.ShippingPreparing: "Por Enviar",
		models.ShippingShipped:   "Enviado",
		models.ShippingDelivered: "Entregado",
	}
)

func label[K ~string](labels map[K]string, k K) string {
	if l, ok := labels[k]; ok {
		return l
	}
	return string(k)
}

// ExportFilter bounds the export by whole days. Either end may be open.
type ExportFilter struct {
	From *time.Time
	To   *time.Time
}

// Filename names the workbook after the requested range.
func (f ExportFilter) Filename() string {
	const layout = "2006-01-02"
	name := "pedidos"
	switch {
	case f.From != nil && f.To != nil:
		name += "-" + f.From.Format(layout) + "-a-" + f.To.Format(layout)
	case f.From != nil:
		name += "-desde-" + f.From.Format(layout)
	case f.To != nil:
		name += "-hasta-" + f.To.Format(layout)
	default:
		name += "-todos"
	}
	return name + ".xlsx"
}

func productsSummary(items []models.OrderItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		name := ""
		if it.Product != nil {
			name = it.Product.Name
		}
		parts = append(parts, fmt.Sprintf("%dx %s", it.Quantity, name))
	}
	return strings.Join(parts, ", ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ExportOrders writes the orders in range as an xlsx workbook and returns
// how many orders it contains.
func (s *ReportsHandler) ExportOrders(ctx context.Context, w io.Writer, f ExportFilter) (int, error) {
	query := s.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Product")
	if f.From != nil {
		query = query.Where("order_date >= ?", startOfDay(*f.From))
	}
	if f.To != nil {
		query = query.Where("order_date < ?", startOfDay(*f.To).AddDate(0, 0, 1))
	}

	var orders []models.Order
	if err := query.Order("order_date DESC").Find(&orders).Error; err != nil {
		return 0, fmt.Errorf("failed to load orders: %w", err)
	}

	file := excelize.NewFile()
	defer func() {
		if err := file.Close(); err != nil {
			s.logger.Warnf("Failed to close workbook: %v", err)
		}
	}()

	if err := s.writeSheet(file, orders); err != nil {
		return 0, fmt.Errorf("failed to build workbook: %w", err)
	}
	if err := file.Write(w); err != nil {
		return 0, fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"orders":   len(orders),
		"filename": f.Filename(),
	}).Info("Orders exported")
	return len(orders), nil
}

func (s *ReportsHandler) writeSheet(file *excelize.File, orders []models.Order) error {
	if err := file.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}

	header, err := file.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"0440A5"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	currencyFmt := `"$"#,##0`
	money, err := file.NewStyle(&excelize.Style{CustomNumFmt: &currencyFmt})
	if err != nil {
		return err
	}
	dateFmt := "dd/mm/yyyy"
	date, err := file.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		return err
	}
	bold, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, CustomNumFmt: &currencyFmt})
	if err != nil {
		return err
	}

	for i, col := range exportColumns {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := file.SetColWidth(exportSheet, name, name, col.width); err != nil {
			return err
		}
		if err := file.SetCellValue(exportSheet, name+"1", col.header); err != nil {
			return err
		}
	}
	if err := file.SetCellStyle(exportSheet, "A1", "N1", header); err != nil {
		return err
	}
	if err := file.SetRowHeight(exportSheet, 1, 25); err != nil {
		return err
	}

	var subtotal, tax, total int64
	for i, o := range orders {
		row := i + 2
		customer := models.Customer{}
		if o.Customer != nil {
			customer = *o.Customer
		}
		values := []interface{}{
			o.OrderNumber,
			o.OrderDate,
			customer.Name,
			customer.NationalID,
			customer.Phone,
			productsSummary(o.Items),
			o.Subtotal,
			o.Tax,
			o.Total,
			label(paymentMethodLabels, o.PaymentMethod),
			label(paymentStatusLabels, o.PaymentStatus),
			label(shippingStatusLabels, o.ShippingStatus),
			deref(o.InvoiceNumber),
			deref(o.Notes),
		}
		if err := file.SetSheetRow(exportSheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return err
		}
		if err := file.SetCellStyle(exportSheet, fmt.Sprintf("B%d", row), fmt.Sprintf("B%d", row), date); err != nil {
			return err
		}
		if err := file.SetCellStyle(exportSheet, fmt.Sprintf("G%d", row), fmt.Sprintf("I%d", row), money); err != nil {
			return err
		}
		subtotal += o.Subtotal
		tax += o.Tax
		total += o.Total
	}

	if len(orders) == 0 {
		return nil
	}
	row := len(orders) + 3
	plural := "s"
	if len(orders) == 1 {
		plural = ""
	}
	summary := []interface{}{fmt.Sprintf("Total: %d pedido%s", len(orders), plural), nil, nil, nil, nil, nil, subtotal, tax, total}
	if err := file.SetSheetRow(exportSheet, fmt.Sprintf("A%d", row), &summary); err != nil {
		return err
	}
	return file.SetCellStyle(exportSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("I%d", row), bold)
}
