package orders

import (
	"context"

	"github.com/01moynul/taptosell-orders/internal/models"
)

// Store is the durable order record. Writes that must be atomic with catalog
// stock changes go through InTx.
//
// Lookups return models.ErrRecordNotFound for missing rows, and conflicts that
// are safe to retry are wrapped around models.ErrTransient.
type Store interface {
	// InTx runs fn in one transaction. The transaction commits when fn returns
	// nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrders(ctx context.Context, filter Filter) ([]*models.Order, error)
}

// Filter narrows ListOrders. Zero values match everything.
// Results are always most-recent-first.
type Filter struct {
	UserID int64
	Status models.OrderStatus
}

// Tx is the set of reads and writes available inside a transaction. Reads
// lock the rows they return until the transaction ends.
type Tx interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)

	// DecrementStock subtracts qty only when at least qty is in stock and
	// reports whether it did.
	DecrementStock(ctx context.Context, productID int64, qty int) (bool, error)
	IncrementStock(ctx context.Context, productID int64, qty int) error

	// InsertOrder persists o and its items, assigning their IDs.
	InsertOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id int64) (*models.Order, error)

	// UpdateOrderState writes status, payment status and updated_at.
	UpdateOrderState(ctx context.Context, o *models.Order) error
}
