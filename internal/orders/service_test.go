package orders_test

import (
	"context"
	"sync"
	"testing"

	"github.com/01moynul/taptosell-orders/internal/models"
	"github.com/01moynul/taptosell-orders/internal/notify"
	"github.com/01moynul/taptosell-orders/internal/orders"
	"github.com/01moynul/taptosell-orders/internal/store/memory"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (p *recordingPublisher) Publish(ev notify.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type ServiceTestSuite struct {
	suite.Suite
	ctx    context.Context
	store  *memory.Store
	events *recordingPublisher
	svc    *orders.Service

	alice, bob int64
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

// SetupTest gives every test a fresh store with two customers.
func (suite *ServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = memory.New()
	suite.events = &recordingPublisher{}
	suite.svc = orders.NewService(suite.store, suite.events, zerolog.Nop())

	suite.alice, suite.bob = 1, 2
	suite.store.SeedUser(models.User{ID: suite.alice, Email: "alice@example.com", FullName: "Alice Tan", Role: models.RoleCustomer})
	suite.store.SeedUser(models.User{ID: suite.bob, Email: "bob@example.com", FullName: "Bob Lee", Role: models.RoleCustomer})
}

func (suite *ServiceTestSuite) addProduct(name, price string, stock int, active bool) int64 {
	p := &models.Product{
		Name:          name,
		Slug:          name,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		IsActive:      active,
	}
	require.NoError(suite.T(), suite.store.CreateProduct(suite.ctx, p))
	return p.ID
}

func (suite *ServiceTestSuite) stockOf(id int64) int {
	p, err := suite.store.GetProduct(suite.ctx, id)
	require.NoError(suite.T(), err)
	return p.StockQuantity
}

func (suite *ServiceTestSuite) requireKind(err error, kind orders.Kind) {
	require.Error(suite.T(), err)
	require.Equal(suite.T(), kind, orders.KindOf(err), err.Error())
}

func (suite *ServiceTestSuite) placeOrder(userID int64, items ...orders.ItemRequest) orders.OrderView {
	v, err := suite.svc.CreateOrder(suite.ctx, userID, orders.CreateOrderRequest{
		Items:           items,
		ShippingAddress: "12 Jalan Ampang, Kuala Lumpur",
		PhoneNumber:     "+60123456789",
	})
	require.NoError(suite.T(), err)
	return v
}

func (suite *ServiceTestSuite) TestCreateOrder_Example() {
	pid := suite.addProduct("phone-case", "19.99", 10, true)

	v := suite.placeOrder(suite.alice, orders.ItemRequest{ProductID: pid, Quantity: 2})

	suite.NotZero(v.ID)
	suite.True(decimal.RequireFromString("39.98").Equal(v.TotalAmount), v.TotalAmount.String())
	suite.Equal("PENDING", v.Status)
	suite.Equal("UNPAID", v.PaymentStatus)
	suite.Equal("alice@example.com", v.UserEmail)
	suite.Equal("Alice Tan", v.UserFullName)
	suite.False(v.CreatedAt.IsZero())
	suite.Equal(8, suite.stockOf(pid))

	require.Len(suite.T(), v.Items, 1)
	suite.NotZero(v.Items[0].ID)
	suite.Equal("phone-case", v.Items[0].ProductName)
	suite.True(decimal.RequireFromString("19.99").Equal(v.Items[0].UnitPrice))

	suite.Equal([]string{notify.OrderCreated}, suite.events.types())
}

func (suite *ServiceTestSuite) TestCreateOrder_TotalIsSumOfSubtotals() {
	a := suite.addProduct("cable", "4.50", 100, true)
	b := suite.addProduct("charger", "29.90", 100, true)
	c := suite.addProduct("sticker", "0.33", 100, true)

	v := suite.placeOrder(suite.alice,
		orders.ItemRequest{ProductID: a, Quantity: 3},
		orders.ItemRequest{ProductID: b, Quantity: 1},
		orders.ItemRequest{ProductID: c, Quantity: 7},
	)

	sum := decimal.Zero
	for _, it := range v.Items {
		suite.True(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))).Equal(it.Subtotal))
		sum = sum.Add(it.Subtotal)
	}
	suite.True(sum.Equal(v.TotalAmount))
	suite.True(decimal.RequireFromString("45.71").Equal(v.TotalAmount), v.TotalAmount.String())

	// items keep request order
	suite.Equal([]int64{a, b, c}, []int64{v.Items[0].ProductID, v.Items[1].ProductID, v.Items[2].ProductID})
}

func (suite *ServiceTestSuite) TestCreateOrder_SameProductTwiceAccumulates() {
	pid := suite.addProduct("mug", "10.00", 5, true)

	suite.placeOrder(suite.alice,
		orders.ItemRequest{ProductID: pid, Quantity: 2},
		orders.ItemRequest{ProductID: pid, Quantity: 3},
	)
	suite.Equal(0, suite.stockOf(pid))

	_, err := suite.svc.CreateOrder(suite.ctx, suite.bob, orders.CreateOrderRequest{
		Items: []orders.ItemRequest{{ProductID: pid, Quantity: 1}},
	})
	suite.requireKind(err, orders.KindInsufficientStock)
}

func (suite *ServiceTestSuite) TestCreateOrder_UnknownUserWinsOverEmptyItems() {
	_, err := suite.svc.CreateOrder(suite.ctx, 999, orders.CreateOrderRequest{})
	suite.requireKind(err, orders.KindNotFound)

	var e *orders.Error
	require.ErrorAs(suite.T(), err, &e)
	suite.Equal("user", e.Resource)
}

func (suite *ServiceTestSuite) TestCreateOrder_NoItems() {
	_, err := suite.svc.CreateOrder(suite.ctx, suite.alice, orders.CreateOrderRequest{})
	suite.requireKind(err, orders.KindInvalidInput)
}

func (suite *ServiceTestSuite) TestCreateOrder_NonPositiveQuantity() {
	pid := suite.addProduct("pen", "1.00", 5, true)

	_, err := suite.svc.CreateOrder(suite.ctx, suite.alice, orders.CreateOrderRequest{
		Items: []orders.ItemRequest{{ProductID: pid, Quantity: 0}},
	})
	suite.requireKind(err, orders.KindInvalidInput)
	suite.Equal(5, suite.stockOf(pid))
}

func (suite *ServiceTestSuite) TestCreateOrder_UnknownProduct() {
	_, err := suite.svc.CreateOrder(suite.ctx, suite.alice, orders.CreateOrderRequest{
		Items: []orders.ItemRequest{{ProductID: 404, Quantity: 1}},
	})
	suite.requireKind(err, orders.KindNotFound)

	var e *orders.Error
	require.ErrorAs(suite.T(), err, &e)
	suite.Equal("product", e.Resource)
	suite.Equal(int64(404), e.ID)
}

func (suite *ServiceTestSuite) TestCreateOrder_InactiveProduct() {
	pid := suite.addProduct("discontinued", "5.00", 5, false)

	_, err := suite.svc.CreateOrder(suite.ctx, suite.alice, orders.CreateOrderRequest{
		Items: []orders.ItemRequest{{ProductID: pid, Quantity: 1}},
	})
	suite.requireKind(err, orders.KindInvalidState)
	suite.Equal(5, suite.stockOf(pid))
}

func (suite *ServiceTestSuite) TestCreateOrder_InsufficientStockLeavesStockUnchanged() {
	pid := suite.addProduct("lamp", "15.00", 3, true)

	_, err := suite.svc.CreateOrder(suite.ctx, suite.alice, orders.CreateOrderRequest{
		Items: []orders.ItemRequest{{ProductID: pid, Quantity: 4}},
	})
	suite.requireKind(err, orders.KindInsufficientStock)

	var e *orders.Error
	require.ErrorAs(suite.T(), err, &e)
	suite.Equal(pid, e.ProductID)
	suite.Equal(3, e.Available)
	suite.Equal(3, suite.stockOf(pid))
}

func (suite *ServiceTestSuite) TestCreateOrder_LateFailureRollsBackEarlierItems() {
	first := suite.addProduct("desk", "120.00", 4, true)
	second := suite.addProduct("chair", "80.00", 1, true)

	_, err := suite.svc.CreateOrder(suite.ctx, suite.alice, orders.CreateOrderRequest{
		Items: []orders.ItemRequest{
			{ProductID: first, Quantity: 2},
			{ProductID: second, Quantity: 2},
		},
	})
	suite.requireKind(err, orders.KindInsufficientStock)

	suite.Equal(4, suite.stockOf(first))
	suite.Equal(1, suite.stockOf(second))

	all, err := suite.svc.GetAllOrders(suite.ctx)
	require.NoError(suite.T(), err)
	suite.Empty(all)
	suite.Empty(suite.events.types())
}

func (suite *ServiceTestSuite) TestCreateOrder_ConcurrentRacersForScarceStock() {
	pid := suite.addProduct("limited-edition", "99.00", 10, true)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = suite.svc.CreateOrder(suite.ctx, suite.alice, orders.CreateOrderRequest{
				Items: []orders.ItemRequest{{ProductID: pid, Quantity: 6}},
			})
		}(i)
	}
	wg.Wait()

	var ok, short int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case orders.KindOf(err) == orders.KindInsufficientStock:
			short++
		default:
			suite.Failf("unexpected error", "%v", err)
		}
	}
	suite.Equal(1, ok)
	suite.Equal(1, short)
	suite.Equal(4, suite.stockOf(pid))
}

func (suite *ServiceTestSuite) TestUpdateOrderStatus() {
	pid := suite.addProduct("tripod", "25.00", 10, true)
	v := suite.placeOrder(suite.alice, orders.ItemRequest{ProductID: pid, Quantity: 1})

	lower, err := suite.svc.UpdateOrderStatus(suite.ctx, v.ID, "shipped")
	require.NoError(suite.T(), err)
	suite.Equal("SHIPPED", lower.Status)
	suite.False(lower.UpdatedAt.Before(v.UpdatedAt))

	upper, err := suite.svc.UpdateOrderStatus(suite.ctx, v.ID, "SHIPPED")
	require.NoError(suite.T(), err)
	suite.Equal(lower.Status, upper.Status)

	// a direct status write to CANCELLED is allowed and never restores stock
	cancelled, err := suite.svc.UpdateOrderStatus(suite.ctx, v.ID, "cancelled")
	require.NoError(suite.T(), err)
	suite.Equal("CANCELLED", cancelled.Status)
	suite.Equal(9, suite.stockOf(pid))
}

func (suite *ServiceTestSuite) TestUpdateOrderStatus_UnknownValueLeavesOrderUnchanged() {
	pid := suite.addProduct("bag", "30.00", 10, true)
	v := suite.placeOrder(suite.alice, orders.ItemRequest{ProductID: pid, Quantity: 1})

	_, err := suite.svc.UpdateOrderStatus(suite.ctx, v.ID, "FOO")
	suite.requireKind(err, orders.KindInvalidInput)

	got, err := suite.svc.GetOrderByID(suite.ctx, v.ID)
	require.NoError(suite.T(), err)
	suite.Equal("PENDING", got.Status)
	suite.Equal(v.UpdatedAt, got.UpdatedAt)
}

func (suite *ServiceTestSuite) TestUpdateOrderStatus_MissingOrder() {
	_, err := suite.svc.UpdateOrderStatus(suite.ctx, 12345, "FOO")
	suite.requireKind(err, orders.KindNotFound)
}

func (suite *ServiceTestSuite) TestUpdatePaymentStatus() {
	pid := suite.addProduct("watch", "199.00", 2, true)
	v := suite.placeOrder(suite.alice, orders.ItemRequest{ProductID: pid, Quantity: 1})

	paid, err := suite.svc.UpdatePaymentStatus(suite.ctx, v.ID, "paid")
	require.NoError(suite.T(), err)
	suite.Equal("PAID", paid.PaymentStatus)
	suite.Equal("PENDING", paid.Status)

	_, err = suite.svc.UpdatePaymentStatus(suite.ctx, v.ID, "FOO")
	suite.requireKind(err, orders.KindInvalidInput)

	view, err := suite.svc.GetPaymentStatus(suite.ctx, v.ID)
	require.NoError(suite.T(), err)
	suite.Equal(orders.PaymentStatusView{OrderID: v.ID, UserID: suite.alice, Status: "PENDING", PaymentStatus: "PAID"}, view)
	suite.Equal(1, suite.stockOf(pid))
}

func (suite *ServiceTestSuite) TestCancelOrder_PaidOrderIsRefundedAndStockRestored() {
	pid := suite.addProduct("phone-case", "19.99", 10, true)
	v := suite.placeOrder(suite.alice, orders.ItemRequest{ProductID: pid, Quantity: 2})
	_, err := suite.svc.UpdatePaymentStatus(suite.ctx, v.ID, "PAID")
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), suite.svc.CancelOrder(suite.ctx, v.ID, suite.alice))

	got, err := suite.svc.GetOrderByID(suite.ctx, v.ID)
	require.NoError(suite.T(), err)
	suite.Equal("CANCELLED", got.Status)
	suite.Equal("REFUNDED", got.PaymentStatus)
	suite.Equal(10, suite.stockOf(pid))
	suite.Contains(suite.events.types(), notify.OrderCancelled)
}

func (suite *ServiceTestSuite) TestCancelOrder_UnpaidAndFailedKeepPaymentStatus() {
	pid := suite.addProduct("speaker", "50.00", 10, true)

	unpaid := suite.placeOrder(suite.alice, orders.ItemRequest{ProductID: pid, Quantity: 1})
	require.NoError(suite.T(), suite.svc.CancelOrder(suite.ctx, unpaid.ID, suite.alice))
	got, err := suite.svc.GetOrderByID(suite.ctx, unpaid.ID)
	require.NoError(suite.T(), err)
	suite.Equal("UNPAID", got.PaymentStatus)

	failed := suite.placeOrder(suite.alice, orders.ItemRequest{ProductID: pid, Quantity: 1})
	_, err = suite.svc.UpdatePaymentStatus(suite.ctx, failed.ID, "failed")
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), suite.svc.CancelOrder(suite.ctx, failed.ID, suite.alice))
	got, err = suite.svc.GetOrderByID(suite.ctx, failed.ID)
	require.NoError(suite.T(), err)
	suite.Equal("FAILED", got.PaymentStatus)

	suite.Equal(10, suite.stockOf(pid))
}

func (suite *ServiceTestSuite) TestCancelOrder_RepeatedProductLinesRestoreTheSum() {
	pid := suite.addProduct("socks", "3.00", 10, true)
	v := suite.placeOrder(suite.alice,
		orders.ItemRequest{ProductID: pid, Quantity: 2},
		orders.ItemRequest{ProductID: pid, Quantity: 5},
	)
	suite.Equal(3, suite.stockOf(pid))

	require.NoError(suite.T(), suite.svc.CancelOrder(suite.ctx, v.ID, suite.alice))
	suite.Equal(10, suite.stockOf(pid))
}

func (suite *ServiceTestSuite) TestCancelOrder_TwiceDoesNotDoubleRestore() {
	pid := suite.addProduct("hat", "12.00", 10, true)
	v := suite.placeOrder(suite.alice, orders.ItemRequest{ProductID: pid, Quantity: 4})

	require.NoError(suite.T(), suite.svc.CancelOrder(suite.ctx, v.ID, suite.alice))
	suite.Equal(10, suite.stockOf(pid))

	err := suite.svc.CancelOrder(suite.ctx, v.ID, suite.alice)
	suite.requireKind(err, orders.KindInvalidState)
	suite.Equal(10, suite.stockOf(pid))
}

func (suite *ServiceTestSuite) TestCancelOrder_ShippedOrDeliveredIsRejected() {
	pid := suite.addProduct("jacket", "89.00", 10, true)

	for _, status := range []string{"SHIPPED", "delivered"} {
		v := suite.placeOrder(suite.alice, orders.ItemRequest{ProductID: pid, Quantity: 1})
		_, err := suite.svc.UpdateOrderStatus(suite.ctx, v.ID, status)
		require.NoError(suite.T(), err)
		before := suite.stockOf(pid)

		err = suite.svc.CancelOrder(suite.ctx, v.ID, suite.alice)
		suite.requireKind(err, orders.KindInvalidState)
		suite.Equal(before, suite.stockOf(pid))
	}
}

func (suite *ServiceTestSuite) TestCancelOrder_ByAnotherUserIsForbidden() {
	pid := suite.addProduct("scarf", "22.00", 10, true)
	v := suite.placeOrder(suite.alice, orders.ItemRequest{ProductID: pid, Quantity: 3})

	err := suite.svc.CancelOrder(suite.ctx, v.ID, suite.bob)
	suite.requireKind(err, orders.KindForbidden)

	got, err := suite.svc.GetOrderByID(suite.ctx, v.ID)
	require.NoError(suite.T(), err)
	suite.Equal("PENDING", got.Status)
	suite.Equal(7, suite.stockOf(pid))
}

func (suite *ServiceTestSuite) TestCancelOrder_MissingOrder() {
	err := suite.svc.CancelOrder(suite.ctx, 77, suite.alice)
	suite.requireKind(err, orders.KindNotFound)
}

func (suite *ServiceTestSuite) TestQueries() {
	pid := suite.addProduct("notebook", "2.50", 100, true)
	first := suite.placeOrder(suite.alice, orders.ItemRequest{ProductID: pid, Quantity: 1})
	second := suite.placeOrder(suite.alice, orders.ItemRequest{ProductID: pid, Quantity: 2})
	other := suite.placeOrder(suite.bob, orders.ItemRequest{ProductID: pid, Quantity: 3})

	mine, err := suite.svc.GetOrdersByUser(suite.ctx, suite.alice)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), mine, 2)
	suite.Equal(second.ID, mine[0].ID)
	suite.Equal(first.ID, mine[1].ID)

	none, err := suite.svc.GetOrdersByUser(suite.ctx, 555)
	require.NoError(suite.T(), err)
	suite.Empty(none)

	all, err := suite.svc.GetAllOrders(suite.ctx)
	require.NoError(suite.T(), err)
	suite.Len(all, 3)

	_, err = suite.svc.UpdateOrderStatus(suite.ctx, other.ID, "confirmed")
	require.NoError(suite.T(), err)

	confirmed, err := suite.svc.GetOrdersByStatus(suite.ctx, "Confirmed")
	require.NoError(suite.T(), err)
	require.Len(suite.T(), confirmed, 1)
	suite.Equal(other.ID, confirmed[0].ID)

	pending, err := suite.svc.GetOrdersByStatus(suite.ctx, "PENDING")
	require.NoError(suite.T(), err)
	suite.Len(pending, 2)

	_, err = suite.svc.GetOrdersByStatus(suite.ctx, "lost")
	suite.requireKind(err, orders.KindInvalidInput)

	_, err = suite.svc.GetOrderByID(suite.ctx, 9999)
	suite.requireKind(err, orders.KindNotFound)

	_, err = suite.svc.GetPaymentStatus(suite.ctx, 9999)
	suite.requireKind(err, orders.KindNotFound)
}

func TestKindOfPlainErrorIsUnknown(t *testing.T) {
	assert.Equal(t, orders.KindUnknown, orders.KindOf(assert.AnError))
	assert.Equal(t, "internal", orders.KindUnknown.String())
	assert.Equal(t, "insufficient_stock", orders.KindInsufficientStock.String())
}
