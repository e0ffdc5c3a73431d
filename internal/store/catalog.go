package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/taptosell-orders/internal/models"
)

//
// --- Users ---
//

func getUser(ctx context.Context, q Querier, id int64) (*models.User, error) {
	var u models.User
	err := q.QueryRowContext(ctx,
		"SELECT id, email, full_name, role, created_at FROM users WHERE id = ?", id,
	).Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user %d: %w", id, err)
	}
	return &u, nil
}

// GetUser backs the auth middleware's role lookup.
func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return getUser(ctx, s.DB, id)
}

//
// --- Catalog ---
//

func getProduct(ctx context.Context, q Querier, id int64, lock bool) (*models.Product, error) {
	query := `
		SELECT id, name, slug, price, stock_quantity, is_active, created_at, updated_at
		FROM products
		WHERE id = ?`
	if lock {
		query += " FOR UPDATE"
	}

	var p models.Product
	err := q.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Slug, &p.Price, &p.StockQuantity, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product %d: %w", id, err)
	}
	return &p, nil
}

func (s *Store) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	return getProduct(ctx, s.DB, id, false)
}

// CreateProduct inserts p and assigns its ID. A taken slug yields
// models.ErrDuplicate.
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	now := time.Now().UTC().Truncate(time.Microsecond)
	p.CreatedAt, p.UpdatedAt = now, now

	query := `
		INSERT INTO products (name, slug, price, stock_quantity, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	result, err := s.DB.ExecContext(ctx, query, p.Name, p.Slug, p.Price, p.StockQuantity, p.IsActive, p.CreatedAt, p.UpdatedAt)
	if isDuplicate(err) {
		return models.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}

	p.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get new product ID: %w", err)
	}
	return nil
}

// UpdateStock overwrites the stock level of a product. It is an admin
// correction and bypasses the order engine.
func (s *Store) UpdateStock(ctx context.Context, id int64, quantity int) error {
	result, err := s.DB.ExecContext(ctx,
		"UPDATE products SET stock_quantity = ?, updated_at = ? WHERE id = ?",
		quantity, time.Now().UTC().Truncate(time.Microsecond), id)
	if err != nil {
		return classify(fmt.Errorf("failed to update stock for product %d: %w", id, err))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check stock update: %w", err)
	}
	if n == 0 {
		return models.ErrRecordNotFound
	}
	return nil
}
