package handler

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"backoffice-system/internal/cache"
	"backoffice-system/internal/database/dbtest"
	"backoffice-system/internal/database/models"
	"backoffice-system/internal/errs"
	"backoffice-system/internal/events"
	"backoffice-system/internal/events/eventstest"
	"backoffice-system/internal/logging"
	"backoffice-system/internal/services/inventory/ledger"
)

type fixture struct {
	db       *gorm.DB
	h        *OrderHandler
	events   *eventstest.Recorder
	cache    *cache.Memory
	now      time.Time
	customer models.Customer
	x, y     models.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	logger := logging.Discard()
	rec := &eventstest.Recorder{}
	mem := cache.NewMemory()

	f := &fixture{
		db:     db,
		events: rec,
		cache:  mem,
		now:    time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC),
	}
	f.h = NewOrderHandler(db, ledger.New(logger), rec, mem, logger).
		WithClock(func() time.Time { return f.now })
	f.customer = dbtest.SeedCustomer(t, db, "1020304050", "MARIA PEREZ")
	f.x = dbtest.SeedProduct(t, db, "Product X", 10000, 5)
	f.y = dbtest.SeedProduct(t, db, "Product Y", 20000, 3)
	return f
}

func (f *fixture) createAB(t *testing.T) *models.Order {
	t.Helper()
	order, err := f.h.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: f.customer.ID,
		Items: []CreateOrderItem{
			{ProductID: f.x.ID, Quantity: 2, UnitPrice: 10000},
			{ProductID: f.y.ID, Quantity: 1, UnitPrice: 20000},
		},
		PaymentMethod: "cash",
	})
	require.NoError(t, err)
	return order
}

func strp(s string) *string { return &s }

func TestCreateOrder(t *testing.T) {
	f := newFixture(t)
	order := f.createAB(t)

	assert.Equal(t, "ORD-2026-0001", order.OrderNumber)
	assert.Equal(t, int64(40000), order.Subtotal)
	assert.Equal(t, int64(7600), order.Tax)
	assert.Equal(t, int64(47600), order.Total)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
	assert.Equal(t, models.ShippingPreparing, order.ShippingStatus)
	assert.Nil(t, order.PaymentDate)
	require.NotNil(t, order.Customer)
	assert.Equal(t, "MARIA PEREZ", order.Customer.Name)
	require.Len(t, order.Items, 2)
	assert.Equal(t, int64(20000), order.Items[0].Subtotal)
	require.NotNil(t, order.Items[0].Product)
	assert.Equal(t, "Product X", order.Items[0].Product.Name)

	assert.Equal(t, int64(5), dbtest.Stock(t, f.db, f.x.ID))
	assert.Equal(t, int64(3), dbtest.Stock(t, f.db, f.y.ID))
	assert.Equal(t, []string{events.EventOrderCreated}, f.events.Types())
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.h.CreateOrder(ctx, CreateOrderRequest{CustomerID: f.customer.ID, PaymentMethod: "cash"})
	var v *errs.ValidationError
	require.True(t, errors.As(err, &v))
	assert.Equal(t, "items", v.Fields[0].Field)

	_, err = f.h.CreateOrder(ctx, CreateOrderRequest{
		CustomerID:    f.customer.ID,
		Items:         []CreateOrderItem{{ProductID: f.x.ID, Quantity: 0, UnitPrice: 10000}},
		PaymentMethod: "barter",
	})
	require.True(t, errors.As(err, &v))
	assert.Len(t, v.Fields, 2)

	_, err = f.h.CreateOrder(ctx, CreateOrderRequest{
		CustomerID:    f.customer.ID,
		Items:         []CreateOrderItem{{ProductID: f.x.ID, Quantity: 1, UnitPrice: 10000}},
		PaymentMethod: "",
	})
	require.True(t, errors.As(err, &v))
	assert.Equal(t, "payment_method", v.Fields[0].Field)
}

func TestCreateOrderNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.h.CreateOrder(ctx, CreateOrderRequest{
		CustomerID:    999,
		Items:         []CreateOrderItem{{ProductID: f.x.ID, Quantity: 1, UnitPrice: 10000}},
		PaymentMethod: "nequi",
	})
	var nf *errs.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "customer", nf.Entity)

	_, err = f.h.CreateOrder(ctx, CreateOrderRequest{
		CustomerID: f.customer.ID,
		Items: []CreateOrderItem{
			{ProductID: f.x.ID, Quantity: 1, UnitPrice: 10000},
			{ProductID: 77, Quantity: 1, UnitPrice: 1},
			{ProductID: 78, Quantity: 1, UnitPrice: 1},
		},
		PaymentMethod: "bank",
	})
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, []int64{77, 78}, nf.IDs)
	assertNoOrders(t, f.db)
}

// Scenario C
func TestCreateOrderInsufficientStock(t *testing.T) {
	f := newFixture(t)

	_, err := f.h.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID:    f.customer.ID,
		Items:         []CreateOrderItem{{ProductID: f.x.ID, Quantity: 10, UnitPrice: 10000}},
		PaymentMethod: "link",
	})
	var stockErr *errs.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "Product X", stockErr.ProductName)
	assert.Equal(t, int64(5), stockErr.Available)
	assert.Equal(t, int64(10), stockErr.Required)
	assertNoOrders(t, f.db)
}

func TestCreateOrderChecksAggregatedQuantity(t *testing.T) {
	f := newFixture(t)

	_, err := f.h.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: f.customer.ID,
		Items: []CreateOrderItem{
			{ProductID: f.y.ID, Quantity: 2, UnitPrice: 20000},
			{ProductID: f.y.ID, Quantity: 2, UnitPrice: 20000},
		},
		PaymentMethod: "cash",
	})
	var stockErr *errs.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, int64(4), stockErr.Required)
}

// Scenarios B and D
func TestPayAndRevert(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createAB(t)

	paid, err := f.h.UpdateOrderStatus(ctx, order.ID, UpdateStatusRequest{PaymentStatus: strp("paid")})
	require.NoError(t, err)
	assert.Equal(t, MsgStockDeducted, paid.Message)
	assert.True(t, paid.StockDeducted)
	assert.Equal(t, models.PaymentPaid, paid.Order.PaymentStatus)
	require.NotNil(t, paid.Order.PaymentDate)
	assert.True(t, f.now.Equal(*paid.Order.PaymentDate))
	assert.Equal(t, int64(3), dbtest.Stock(t, f.db, f.x.ID))
	assert.Equal(t, int64(2), dbtest.Stock(t, f.db, f.y.ID))

	reverted, err := f.h.UpdateOrderStatus(ctx, order.ID, UpdateStatusRequest{PaymentStatus: strp("pending")})
	require.NoError(t, err)
	assert.Equal(t, MsgStockRestored, reverted.Message)
	assert.Nil(t, reverted.Order.PaymentDate)
	assert.Equal(t, int64(5), dbtest.Stock(t, f.db, f.x.ID))
	assert.Equal(t, int64(3), dbtest.Stock(t, f.db, f.y.ID))

	assert.Equal(t, []string{
		events.EventOrderCreated,
		events.EventPaymentProcessed,
		events.EventPaymentReverted,
	}, f.events.Types())

	var movements int64
	require.NoError(t, f.db.Model(&models.StockMovement{}).Where("order_id = ?", order.ID).Count(&movements).Error)
	assert.Equal(t, int64(4), movements)
}

func TestPaidToPartialRestoresStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createAB(t)

	_, err := f.h.UpdateOrderStatus(ctx, order.ID, UpdateStatusRequest{PaymentStatus: strp("paid")})
	require.NoError(t, err)
	res, err := f.h.UpdateOrderStatus(ctx, order.ID, UpdateStatusRequest{PaymentStatus: strp("partial")})
	require.NoError(t, err)

	assert.True(t, res.StockRestored)
	assert.NotNil(t, res.Order.PaymentDate)
	assert.Equal(t, int64(5), dbtest.Stock(t, f.db, f.x.ID))
}

func TestPendingPartialNeverTouchesStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createAB(t)

	res, err := f.h.UpdateOrderStatus(ctx, order.ID, UpdateStatusRequest{PaymentStatus: strp("partial")})
	require.NoError(t, err)
	assert.Equal(t, MsgOrderUpdated, res.Message)
	assert.Nil(t, res.Order.PaymentDate)

	_, err = f.h.UpdateOrderStatus(ctx, order.ID, UpdateStatusRequest{ShippingStatus: strp("shipped")})
	require.NoError(t, err)

	assert.Equal(t, int64(5), dbtest.Stock(t, f.db, f.x.ID))
	assert.Equal(t, int64(3), dbtest.Stock(t, f.db, f.y.ID))
}

func TestPayFailsAtomicallyWhenStockWasSoldElsewhere(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createAB(t)

	// Product Y is sold out after the order was taken; X alone would still fit.
	require.NoError(t, f.db.Model(&models.Product{}).Where("id = ?", f.y.ID).Update("stock", 0).Error)

	_, err := f.h.UpdateOrderStatus(ctx, order.ID, UpdateStatusRequest{
		PaymentStatus:  strp("paid"),
		ShippingStatus: strp("shipped"),
	})
	var stockErr *errs.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, f.y.ID, stockErr.ProductID)
	assert.Equal(t, int64(0), stockErr.Available)
	assert.Equal(t, int64(1), stockErr.Required)

	assert.Equal(t, int64(5), dbtest.Stock(t, f.db, f.x.ID))
	assert.Equal(t, int64(0), dbtest.Stock(t, f.db, f.y.ID))

	current, err := f.h.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, current.PaymentStatus)
	assert.Equal(t, models.ShippingPreparing, current.ShippingStatus)
	assert.Nil(t, current.PaymentDate)
	assert.Nil(t, current.ShippingDate)
}

func TestResubmittingSameStatusIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createAB(t)

	first, err := f.h.UpdateOrderStatus(ctx, order.ID, UpdateStatusRequest{
		PaymentStatus:  strp("paid"),
		ShippingStatus: strp("shipped"),
	})
	require.NoError(t, err)

	f.now = f.now.Add(time.Hour)
	again, err := f.h.UpdateOrderStatus(ctx, order.ID, UpdateStatusRequest{
		PaymentStatus:  strp("paid"),
		ShippingStatus: strp("shipped"),
	})
	require.NoError(t, err)

	assert.False(t, again.StockDeducted)
	assert.Equal(t, MsgOrderUpdated, again.Message)
	assert.True(t, first.Order.PaymentDate.Equal(*again.Order.PaymentDate))
	assert.True(t, first.Order.ShippingDate.Equal(*again.Order.ShippingDate))
	assert.Equal(t, int64(3), dbtest.Stock(t, f.db, f.x.ID))
	assert.Equal(t, int64(2), dbtest.Stock(t, f.db, f.y.ID))
}

// Scenario E
func TestDeliveredBackfillsShippingDate(t *testing.T) {
	f := newFixture(t)
	order := f.createAB(t)

	res, err := f.h.UpdateOrderStatus(context.Background(), order.ID, UpdateStatusRequest{ShippingStatus: strp("delivered")})
	require.NoError(t, err)
	require.NotNil(t, res.Order.ShippingDate)
	require.NotNil(t, res.Order.DeliveryDate)
	assert.True(t, res.Order.ShippingDate.Equal(*res.Order.DeliveryDate))
	assert.True(t, f.now.Equal(*res.Order.DeliveryDate))
}

func TestUpdateStatusErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createAB(t)

	_, err := f.h.UpdateOrderStatus(ctx, order.ID, UpdateStatusRequest{})
	assert.Equal(t, "InvalidArgument", errs.Code(err).String())

	_, err = f.h.UpdateOrderStatus(ctx, order.ID, UpdateStatusRequest{PaymentStatus: strp("refunded")})
	assert.Equal(t, "InvalidArgument", errs.Code(err).String())

	_, err = f.h.UpdateOrderStatus(ctx, 4242, UpdateStatusRequest{PaymentStatus: strp("paid")})
	assert.True(t, errs.IsNotFound(err))
}

func TestPayWithVanishedProductIsIntegrityError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createAB(t)

	require.NoError(t, f.db.Exec("DELETE FROM products WHERE id = ?", f.y.ID).Error)

	_, err := f.h.UpdateOrderStatus(ctx, order.ID, UpdateStatusRequest{PaymentStatus: strp("paid")})
	var ie *errs.IntegrityError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, int64(5), dbtest.Stock(t, f.db, f.x.ID))
}

func TestDeletePaidOrderRestoresStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createAB(t)

	_, err := f.h.UpdateOrderStatus(ctx, order.ID, UpdateStatusRequest{PaymentStatus: strp("paid")})
	require.NoError(t, err)
	require.NoError(t, f.h.DeleteOrder(ctx, order.ID))

	assert.Equal(t, int64(5), dbtest.Stock(t, f.db, f.x.ID))
	assert.Equal(t, int64(3), dbtest.Stock(t, f.db, f.y.ID))
	assertNoOrders(t, f.db)

	var items int64
	require.NoError(t, f.db.Model(&models.OrderItem{}).Count(&items).Error)
	assert.Zero(t, items)

	assert.True(t, errs.IsNotFound(f.h.DeleteOrder(ctx, order.ID)))
}

func TestDeleteUnpaidOrderLeavesStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createAB(t)

	require.NoError(t, f.h.DeleteOrder(ctx, order.ID))
	assert.Equal(t, int64(5), dbtest.Stock(t, f.db, f.x.ID))

	var movements int64
	require.NoError(t, f.db.Model(&models.StockMovement{}).Count(&movements).Error)
	assert.Zero(t, movements)
}

func TestSetInvoiceNumber(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createAB(t)

	updated, err := f.h.SetInvoiceNumber(ctx, order.ID, "  FE-1001 ")
	require.NoError(t, err)
	require.NotNil(t, updated.InvoiceNumber)
	assert.Equal(t, "FE-1001", *updated.InvoiceNumber)
	assert.Equal(t, models.PaymentPending, updated.PaymentStatus)

	cleared, err := f.h.SetInvoiceNumber(ctx, order.ID, "   ")
	require.NoError(t, err)
	assert.Nil(t, cleared.InvoiceNumber)

	_, err = f.h.SetInvoiceNumber(ctx, 999, "X")
	assert.True(t, errs.IsNotFound(err))
}

func TestOrderNumbersAreSequentialPerYear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		o := f.createAB(t)
		assert.Equal(t, fmt.Sprintf("ORD-2026-%04d", i), o.OrderNumber)
	}

	f.now = time.Date(2027, 1, 1, 0, 5, 0, 0, time.UTC)
	o := f.createAB(t)
	assert.Equal(t, "ORD-2027-0001", o.OrderNumber)

	// Deleting the latest order does not hand its number out again.
	require.NoError(t, f.h.DeleteOrder(ctx, o.ID))
	o = f.createAB(t)
	assert.Equal(t, "ORD-2027-0002", o.OrderNumber)
}

func TestCounterSeedsFromExistingOrders(t *testing.T) {
	f := newFixture(t)

	legacy := models.Order{
		OrderNumber:    "ORD-2026-0041",
		CustomerID:     f.customer.ID,
		OrderDate:      f.now,
		PaymentMethod:  models.PaymentCash,
		PaymentStatus:  models.PaymentPending,
		ShippingStatus: models.ShippingPreparing,
	}
	require.NoError(t, f.db.Create(&legacy).Error)

	o := f.createAB(t)
	assert.Equal(t, "ORD-2026-0042", o.OrderNumber)
}

func TestCounterSeedsPastFourDigits(t *testing.T) {
	f := newFixture(t)

	for _, number := range []string{"ORD-2026-9999", "ORD-2026-10000"} {
		require.NoError(t, f.db.Create(&models.Order{
			OrderNumber:    number,
			CustomerID:     f.customer.ID,
			OrderDate:      f.now,
			PaymentMethod:  models.PaymentCash,
			PaymentStatus:  models.PaymentPending,
			ShippingStatus: models.ShippingPreparing,
		}).Error)
	}

	o := f.createAB(t)
	assert.Equal(t, "ORD-2026-10001", o.OrderNumber)
}

func TestConcurrentCreationYieldsDistinctNumbers(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(&models.Product{}).Where("1 = 1").Update("stock", 1000).Error)

	const n = 8
	numbers := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o, err := f.h.CreateOrder(context.Background(), CreateOrderRequest{
				CustomerID:    f.customer.ID,
				Items:         []CreateOrderItem{{ProductID: f.x.ID, Quantity: 1, UnitPrice: 10000}},
				PaymentMethod: "cash",
			})
			if assert.NoError(t, err) {
				numbers <- o.OrderNumber
			}
		}()
	}
	wg.Wait()
	close(numbers)

	seen := map[string]bool{}
	for num := range numbers {
		assert.False(t, seen[num], "duplicate %s", num)
		seen[num] = true
	}
	assert.Len(t, seen, n)
	for i := 1; i <= n; i++ {
		assert.True(t, seen[fmt.Sprintf("ORD-2026-%04d", i)])
	}
}

func TestConcurrentPaymentsNeverOversell(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const (
		orders   = 4
		quantity = 2
		stock    = 5
	)
	ids := make([]int64, 0, orders)
	for i := 0; i < orders; i++ {
		o, err := f.h.CreateOrder(ctx, CreateOrderRequest{
			CustomerID:    f.customer.ID,
			Items:         []CreateOrderItem{{ProductID: f.x.ID, Quantity: quantity, UnitPrice: 10000}},
			PaymentMethod: "cash",
		})
		require.NoError(t, err)
		ids = append(ids, o.ID)
	}

	var (
		mu       sync.Mutex
		paid     int
		rejected int
		wg       sync.WaitGroup
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := f.h.UpdateOrderStatus(ctx, id, UpdateStatusRequest{PaymentStatus: strp("paid")})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				paid++
				return
			}
			var stockErr *errs.InsufficientStockError
			if assert.True(t, errors.As(err, &stockErr), err) {
				rejected++
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, stock/quantity, paid)
	assert.Equal(t, orders-stock/quantity, rejected)
	assert.Equal(t, int64(stock%quantity), dbtest.Stock(t, f.db, f.x.ID))

	var paidOrders int64
	require.NoError(t, f.db.Model(&models.Order{}).Where("payment_status = ?", models.PaymentPaid).Count(&paidOrders).Error)
	assert.Equal(t, int64(paid), paidOrders)
}

func TestCreateOrderRejectsOversizedAmounts(t *testing.T) {
	f := newFixture(t)

	_, err := f.h.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID:    f.customer.ID,
		Items:         []CreateOrderItem{{ProductID: f.x.ID, Quantity: 2, UnitPrice: math.MaxInt64 / 2}},
		PaymentMethod: "cash",
	})
	var v *errs.ValidationError
	require.True(t, errors.As(err, &v))
	assert.Equal(t, "items", v.Fields[0].Field)
	assertNoOrders(t, f.db)

	order, err := f.h.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID:    f.customer.ID,
		Items:         []CreateOrderItem{{ProductID: f.x.ID, Quantity: 1, UnitPrice: MaxSubtotal}},
		PaymentMethod: "cash",
	})
	require.NoError(t, err)
	assert.Equal(t, order.Subtotal+order.Tax, order.Total)
	assert.Positive(t, order.Total)
}

func TestCreateOrderRejectsInactiveCustomer(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(&models.Customer{}).Where("id = ?", f.customer.ID).Update("active", false).Error)

	_, err := f.h.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID:    f.customer.ID,
		Items:         []CreateOrderItem{{ProductID: f.x.ID, Quantity: 1, UnitPrice: 10000}},
		PaymentMethod: "cash",
	})
	var v *errs.ValidationError
	require.True(t, errors.As(err, &v))
	assert.Equal(t, "customer_id", v.Fields[0].Field)
	assertNoOrders(t, f.db)
}

func TestOrderChangesDropProductCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key := cache.ProductKey(f.x.ID)
	var out map[string]interface{}

	require.NoError(t, f.cache.Set(ctx, key, map[string]int{"order_count": 0}, time.Minute))
	order := f.createAB(t)
	assert.ErrorIs(t, f.cache.Get(ctx, key, &out), cache.ErrMiss)

	require.NoError(t, f.cache.Set(ctx, key, map[string]int{"order_count": 1}, time.Minute))
	require.NoError(t, f.h.DeleteOrder(ctx, order.ID))
	assert.ErrorIs(t, f.cache.Get(ctx, key, &out), cache.ErrMiss)
}

func TestRedeliveredOrderKeepsDeliveryDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createAB(t)

	delivered, err := f.h.UpdateOrderStatus(ctx, order.ID, UpdateStatusRequest{ShippingStatus: strp("delivered")})
	require.NoError(t, err)

	f.now = f.now.Add(time.Hour)
	shipped, err := f.h.UpdateOrderStatus(ctx, order.ID, UpdateStatusRequest{ShippingStatus: strp("shipped")})
	require.NoError(t, err)
	assert.Equal(t, models.ShippingShipped, shipped.Order.ShippingStatus)
	require.NotNil(t, shipped.Order.DeliveryDate)
	assert.True(t, delivered.Order.DeliveryDate.Equal(*shipped.Order.DeliveryDate))
	assert.True(t, delivered.Order.ShippingDate.Equal(*shipped.Order.ShippingDate))
}

func TestListOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := dbtest.SeedCustomer(t, f.db, "99887766", "CARLOS GOMEZ")

	first := f.createAB(t)
	f.now = f.now.Add(-10 * 24 * time.Hour)
	_, err := f.h.CreateOrder(ctx, CreateOrderRequest{
		CustomerID:    other.ID,
		Items:         []CreateOrderItem{{ProductID: f.x.ID, Quantity: 1, UnitPrice: 10000}},
		PaymentMethod: "nequi",
	})
	require.NoError(t, err)
	f.now = f.now.Add(10 * 24 * time.Hour)

	_, err = f.h.UpdateOrderStatus(ctx, first.ID, UpdateStatusRequest{PaymentStatus: strp("paid")})
	require.NoError(t, err)

	page, err := f.h.ListOrders(ctx, ListOrdersFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, first.ID, page.Orders[0].ID)

	page, err = f.h.ListOrders(ctx, ListOrdersFilter{Search: "carlos"})
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, other.ID, page.Orders[0].CustomerID)

	page, err = f.h.ListOrders(ctx, ListOrdersFilter{Search: "ord-2026-0001"})
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)

	page, err = f.h.ListOrders(ctx, ListOrdersFilter{PaymentStatus: "paid"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	page, err = f.h.ListOrders(ctx, ListOrdersFilter{Period: "week"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	_, err = f.h.ListOrders(ctx, ListOrdersFilter{ShippingStatus: "lost"})
	assert.Equal(t, "InvalidArgument", errs.Code(err).String())
}

func assertNoOrders(t *testing.T, db *gorm.DB) {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}
