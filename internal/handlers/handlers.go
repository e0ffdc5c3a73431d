package handlers

import (
	"context"

	"github.com/01moynul/taptosell-orders/internal/models"
	"github.com/01moynul/taptosell-orders/internal/orders"
	"github.com/rs/zerolog"
)

// Catalog is the slice of the product store the admin endpoints use.
type Catalog interface {
	CreateProduct(ctx context.Context, p *models.Product) error
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	UpdateStock(ctx context.Context, id int64, quantity int) error
}

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Orders  *orders.Service
	Catalog Catalog
	Log     zerolog.Logger

	// RetryAttempts bounds how often a mutation is run when the store
	// reports a transient conflict.
	RetryAttempts int
}
