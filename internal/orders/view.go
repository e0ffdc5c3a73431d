package orders

import (
	"time"

	"github.com/01moynul/taptosell-orders/internal/models"
	"github.com/shopspring/decimal"
)

// OrderView is the flattened projection returned to API callers.
type OrderView struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"userId"`
	UserEmail       string          `json:"userEmail"`
	UserFullName    string          `json:"userFullname"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Status          string          `json:"status"`
	PaymentStatus   string          `json:"paymentStatus"`
	ShippingAddress string          `json:"shippingAddress"`
	PhoneNumber     string          `json:"phoneNumber"`
	Notes           string          `json:"notes"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	Items           []OrderItemView `json:"items"`
}

type OrderItemView struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// PaymentStatusView is the reduced projection behind the payment-status lookup.
type PaymentStatusView struct {
	OrderID       int64  `json:"orderId"`
	UserID        int64  `json:"-"`
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus"`
}

// NewOrderView maps an order and its items, keeping item order.
func NewOrderView(o *models.Order) OrderView {
	items := make([]OrderItemView, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemView{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Subtotal:    it.Subtotal,
		})
	}

	return OrderView{
		ID:              o.ID,
		UserID:          o.UserID,
		UserEmail:       o.UserEmail,
		UserFullName:    o.UserFullName,
		TotalAmount:     o.TotalAmount,
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		ShippingAddress: o.ShippingAddress,
		PhoneNumber:     o.PhoneNumber,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		Items:           items,
	}
}

func newOrderViews(list []*models.Order) []OrderView {
	views := make([]OrderView, 0, len(list))
	for _, o := range list {
		views = append(views, NewOrderView(o))
	}
	return views
}
