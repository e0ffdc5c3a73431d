// Package orders is the order engine: it validates and prices new orders
// against live stock, governs status and payment-status changes, and restores
// stock when an order is cancelled. Every mutation runs in one store
// transaction.
package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/taptosell-orders/internal/models"
	"github.com/01moynul/taptosell-orders/internal/notify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	ordersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taptosell",
		Subsystem: "orders",
		Name:      "created_total",
		Help:      "Orders committed by CreateOrder.",
	})
	ordersCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taptosell",
		Subsystem: "orders",
		Name:      "cancelled_total",
		Help:      "Orders cancelled with stock restored.",
	})
)

// Publisher receives committed order events. Implementations must not block.
type Publisher interface {
	Publish(ev notify.Event)
}

// ItemRequest is one requested line of a new order.
type ItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// CreateOrderRequest carries everything a caller may supply for a new order.
// Prices and totals are never taken from the caller.
type CreateOrderRequest struct {
	Items           []ItemRequest `json:"items"`
	ShippingAddress string        `json:"shippingAddress"`
	PhoneNumber     string        `json:"phoneNumber"`
	Notes           string        `json:"notes"`
}

type Service struct {
	store  Store
	events Publisher
	log    zerolog.Logger
	now    func() time.Time
}

// NewService wires the engine. events may be nil.
func NewService(store Store, events Publisher, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		events: events,
		log:    logger.With().Str("component", "orders").Logger(),
		now: func() time.Time {
			return time.Now().UTC().Truncate(time.Microsecond)
		},
	}
}

// CreateOrder validates req against the catalog and persists the order.
//
// Items are processed in request order: each product is read under lock,
// checked, and its stock decremented before the next item is looked at. The
// first failing check aborts the whole transaction, so no stock change or
// order row survives a rejected request.
func (s *Service) CreateOrder(ctx context.Context, userID int64, req CreateOrderRequest) (OrderView, error) {
	now := s.now()
	var order *models.Order

	err := s.store.InTx(ctx, func(tx Tx) error {
		user, err := tx.GetUser(ctx, userID)
		if errors.Is(err, models.ErrRecordNotFound) {
			return notFound("user", userID)
		}
		if err != nil {
			return fmt.Errorf("failed to load user %d: %w", userID, err)
		}

		if len(req.Items) == 0 {
			return invalidInput("order must contain at least one item")
		}

		o := &models.Order{
			UserID:          user.ID,
			TotalAmount:     decimal.Zero,
			Status:          models.OrderStatusPending,
			PaymentStatus:   models.PaymentStatusUnpaid,
			ShippingAddress: req.ShippingAddress,
			PhoneNumber:     req.PhoneNumber,
			Notes:           req.Notes,
			CreatedAt:       now,
			UpdatedAt:       now,
			UserEmail:       user.Email,
			UserFullName:    user.FullName,
			Items:           make([]models.OrderItem, 0, len(req.Items)),
		}

		for _, item := range req.Items {
			line, err := s.reserveItem(ctx, tx, item)
			if err != nil {
				return err
			}
			o.Items = append(o.Items, line)
			o.TotalAmount = o.TotalAmount.Add(line.Subtotal)
		}

		if err := tx.InsertOrder(ctx, o); err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}
		order = o
		return nil
	})
	if err != nil {
		return OrderView{}, err
	}

	ordersCreated.Inc()
	s.log.Info().
		Int64("order_id", order.ID).
		Int64("user_id", order.UserID).
		Int("items", len(order.Items)).
		Str("total", order.TotalAmount.StringFixed(2)).
		Msg("order created")
	s.publish(notify.OrderCreated, order)

	return NewOrderView(order), nil
}

// reserveItem checks one requested line against its product and takes the
// stock. The returned line carries the name and price snapshots.
func (s *Service) reserveItem(ctx context.Context, tx Tx, item ItemRequest) (models.OrderItem, error) {
	if item.Quantity <= 0 {
		return models.OrderItem{}, invalidInput(fmt.Sprintf("quantity for product %d must be greater than zero", item.ProductID))
	}

	p, err := tx.GetProduct(ctx, item.ProductID)
	if errors.Is(err, models.ErrRecordNotFound) {
		return models.OrderItem{}, notFound("product", item.ProductID)
	}
	if err != nil {
		return models.OrderItem{}, fmt.Errorf("failed to load product %d: %w", item.ProductID, err)
	}

	if !p.IsActive {
		return models.OrderItem{}, invalidState(fmt.Sprintf("product %d is inactive", p.ID))
	}
	if p.StockQuantity < item.Quantity {
		return models.OrderItem{}, insufficientStock(p.ID, p.StockQuantity)
	}

	ok, err := tx.DecrementStock(ctx, p.ID, item.Quantity)
	if err != nil {
		return models.OrderItem{}, fmt.Errorf("failed to decrement stock for product %d: %w", p.ID, err)
	}
	if !ok {
		return models.OrderItem{}, insufficientStock(p.ID, p.StockQuantity)
	}

	return models.OrderItem{
		ProductID:   p.ID,
		ProductName: p.Name,
		Quantity:    item.Quantity,
		UnitPrice:   p.Price,
		Subtotal:    p.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
	}, nil
}

// UpdateOrderStatus sets the order status to any known value. It does not
// touch stock; only CancelOrder restores inventory.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID int64, status string) (OrderView, error) {
	order, err := s.updateState(ctx, orderID, func(o *models.Order) error {
		st, err := models.ParseOrderStatus(status)
		if err != nil {
			return invalidInput(fmt.Sprintf("unknown status %q", status))
		}
		o.Status = st
		return nil
	})
	if err != nil {
		return OrderView{}, err
	}

	s.log.Info().Int64("order_id", order.ID).Str("status", string(order.Status)).Msg("order status updated")
	s.publish(notify.OrderStatusChanged, order)
	return NewOrderView(order), nil
}

// UpdatePaymentStatus sets the payment label to any known value.
func (s *Service) UpdatePaymentStatus(ctx context.Context, orderID int64, paymentStatus string) (OrderView, error) {
	order, err := s.updateState(ctx, orderID, func(o *models.Order) error {
		ps, err := models.ParsePaymentStatus(paymentStatus)
		if err != nil {
			return invalidInput(fmt.Sprintf("unknown payment status %q", paymentStatus))
		}
		o.PaymentStatus = ps
		return nil
	})
	if err != nil {
		return OrderView{}, err
	}

	s.log.Info().Int64("order_id", order.ID).Str("payment_status", string(order.PaymentStatus)).Msg("payment status updated")
	s.publish(notify.OrderPaymentStatusChanged, order)
	return NewOrderView(order), nil
}

func (s *Service) updateState(ctx context.Context, orderID int64, apply func(o *models.Order) error) (*models.Order, error) {
	var order *models.Order
	err := s.store.InTx(ctx, func(tx Tx) error {
		o, err := s.lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if err := apply(o); err != nil {
			return err
		}
		o.UpdatedAt = s.now()
		if err := tx.UpdateOrderState(ctx, o); err != nil {
			return fmt.Errorf("failed to update order %d: %w", orderID, err)
		}
		order = o
		return nil
	})
	return order, err
}

// CancelOrder cancels an order on behalf of its owner and puts every item's
// quantity back in stock. A PAID order becomes REFUNDED. Shipped, delivered
// and already cancelled orders are rejected without any stock change.
func (s *Service) CancelOrder(ctx context.Context, orderID, userID int64) error {
	var order *models.Order
	err := s.store.InTx(ctx, func(tx Tx) error {
		o, err := s.lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}

		if o.UserID != userID {
			return errForbidden
		}

		switch o.Status {
		case models.OrderStatusShipped, models.OrderStatusDelivered:
			return invalidState("cannot cancel shipped/delivered order")
		case models.OrderStatusCancelled:
			return invalidState("order already cancelled")
		}

		for _, it := range o.Items {
			if err := tx.IncrementStock(ctx, it.ProductID, it.Quantity); err != nil {
				return fmt.Errorf("failed to restore stock for product %d: %w", it.ProductID, err)
			}
		}

		o.Status = models.OrderStatusCancelled
		if o.PaymentStatus == models.PaymentStatusPaid {
			o.PaymentStatus = models.PaymentStatusRefunded
		}
		o.UpdatedAt = s.now()

		if err := tx.UpdateOrderState(ctx, o); err != nil {
			return fmt.Errorf("failed to update order %d: %w", orderID, err)
		}
		order = o
		return nil
	})
	if err != nil {
		return err
	}

	ordersCancelled.Inc()
	s.log.Info().
		Int64("order_id", order.ID).
		Int64("user_id", userID).
		Str("payment_status", string(order.PaymentStatus)).
		Msg("order cancelled, stock restored")
	s.publish(notify.OrderCancelled, order)
	return nil
}

func (s *Service) lockOrder(ctx context.Context, tx Tx, orderID int64) (*models.Order, error) {
	o, err := tx.GetOrder(ctx, orderID)
	if errors.Is(err, models.ErrRecordNotFound) {
		return nil, notFound("order", orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order %d: %w", orderID, err)
	}
	return o, nil
}

func (s *Service) GetAllOrders(ctx context.Context) ([]OrderView, error) {
	list, err := s.store.ListOrders(ctx, Filter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return newOrderViews(list), nil
}

// GetOrdersByUser returns the user's orders, most recent first. An unknown
// user simply has no orders.
func (s *Service) GetOrdersByUser(ctx context.Context, userID int64) ([]OrderView, error) {
	list, err := s.store.ListOrders(ctx, Filter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for user %d: %w", userID, err)
	}
	return newOrderViews(list), nil
}

func (s *Service) GetOrdersByStatus(ctx context.Context, status string) ([]OrderView, error) {
	st, err := models.ParseOrderStatus(status)
	if err != nil {
		return nil, invalidInput(fmt.Sprintf("unknown status %q", status))
	}

	list, err := s.store.ListOrders(ctx, Filter{Status: st})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s orders: %w", st, err)
	}
	return newOrderViews(list), nil
}

func (s *Service) GetOrderByID(ctx context.Context, orderID int64) (OrderView, error) {
	o, err := s.store.GetOrder(ctx, orderID)
	if errors.Is(err, models.ErrRecordNotFound) {
		return OrderView{}, notFound("order", orderID)
	}
	if err != nil {
		return OrderView{}, fmt.Errorf("failed to load order %d: %w", orderID, err)
	}
	return NewOrderView(o), nil
}

func (s *Service) GetPaymentStatus(ctx context.Context, orderID int64) (PaymentStatusView, error) {
	v, err := s.GetOrderByID(ctx, orderID)
	if err != nil {
		return PaymentStatusView{}, err
	}
	return PaymentStatusView{OrderID: v.ID, UserID: v.UserID, Status: v.Status, PaymentStatus: v.PaymentStatus}, nil
}

func (s *Service) publish(eventType string, o *models.Order) {
	if s.events == nil {
		return
	}
	s.events.Publish(notify.Event{
		Type:          eventType,
		OrderID:       o.ID,
		UserID:        o.UserID,
		UserEmail:     o.UserEmail,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		TotalAmount:   o.TotalAmount,
		OccurredAt:    o.UpdatedAt,
	})
}
