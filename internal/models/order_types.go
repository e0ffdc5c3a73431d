package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrUnknownStatus is returned by the status parsers when no variant matches.
var ErrUnknownStatus = errors.New("unknown status")

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

var orderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// ParseOrderStatus matches s against the known order statuses, ignoring case
// and surrounding whitespace.
func ParseOrderStatus(s string) (OrderStatus, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for _, st := range orderStatuses {
		if string(st) == want {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: order status %q", ErrUnknownStatus, s)
}

// PaymentStatus is a manually managed label; no payment processor drives it.
type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "UNPAID"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
	PaymentStatusFailed   PaymentStatus = "FAILED"
)

var paymentStatuses = []PaymentStatus{
	PaymentStatusUnpaid,
	PaymentStatusPaid,
	PaymentStatusRefunded,
	PaymentStatusFailed,
}

// ParsePaymentStatus is the PaymentStatus counterpart of ParseOrderStatus.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for _, st := range paymentStatuses {
		if string(st) == want {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: payment status %q", ErrUnknownStatus, s)
}

// Order is the model for the 'orders' table
type Order struct {
	ID              int64           `json:"id" db:"id"`
	UserID          int64           `json:"userId" db:"user_id"`
	TotalAmount     decimal.Decimal `json:"totalAmount" db:"total_amount"` // Always derived from the items
	Status          OrderStatus     `json:"status" db:"status"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus" db:"payment_status"`
	ShippingAddress string          `json:"shippingAddress" db:"shipping_address"`
	PhoneNumber     string          `json:"phoneNumber" db:"phone_number"`
	Notes           string          `json:"notes" db:"notes"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`

	// Joins (Not in DB table, populated by the store)
	UserEmail    string      `json:"userEmail" db:"-"`
	UserFullName string      `json:"userFullname" db:"-"`
	Items        []OrderItem `json:"items" db:"-"`
}

// OrderItem is the model for the 'order_items' table.
// ProductName and UnitPrice are snapshots taken at purchase time.
type OrderItem struct {
	ID          int64           `json:"id" db:"id"`
	OrderID     int64           `json:"orderId" db:"order_id"`
	ProductID   int64           `json:"productId" db:"product_id"`
	ProductName string          `json:"productName" db:"product_name"`
	Quantity    int             `json:"quantity" db:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice" db:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal" db:"subtotal"`
}

// Clone returns a deep copy of the order, items included.
func (o *Order) Clone() *Order {
	cp := *o
	cp.Items = append([]OrderItem(nil), o.Items...)
	return &cp
}
