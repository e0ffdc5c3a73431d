package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/01moynul/taptosell-orders/internal/models"
	"github.com/01moynul/taptosell-orders/internal/orders"
)

//
// --- Order Queries ---
//

const orderColumns = `
	SELECT o.id, o.user_id, o.total_amount, o.status, o.payment_status,
	       o.shipping_address, o.phone_number, o.notes, o.created_at, o.updated_at,
	       u.email, u.full_name
	FROM orders o
	JOIN users u ON u.id = o.user_id`

const itemColumns = `
	SELECT id, order_id, product_id, product_name, quantity, unit_price, subtotal
	FROM order_items`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(r rowScanner) (*models.Order, error) {
	var o models.Order
	err := r.Scan(
		&o.ID, &o.UserID, &o.TotalAmount, &o.Status, &o.PaymentStatus,
		&o.ShippingAddress, &o.PhoneNumber, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
		&o.UserEmail, &o.UserFullName,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func scanItem(r rowScanner) (models.OrderItem, error) {
	var it models.OrderItem
	err := r.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice, &it.Subtotal)
	return it, err
}

// getOrder loads one order with its items. When lock is set the order row is
// held FOR UPDATE until the surrounding transaction ends.
func getOrder(ctx context.Context, q Querier, id int64, lock bool) (*models.Order, error) {
	query := orderColumns + " WHERE o.id = ?"
	if lock {
		query += " FOR UPDATE OF o"
	}

	o, err := scanOrder(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query order %d: %w", id, err)
	}

	o.Items, err = itemsForOrder(ctx, q, id)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func itemsForOrder(ctx context.Context, q Querier, orderID int64) ([]models.OrderItem, error) {
	rows, err := q.QueryContext(ctx, itemColumns+" WHERE order_id = ? ORDER BY id", orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query items for order %d: %w", orderID, err)
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *Store) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	return getOrder(ctx, s.DB, id, false)
}

// ListOrders returns the matching orders most recent first. Items for the
// whole page are fetched with a single IN query.
func (s *Store) ListOrders(ctx context.Context, filter orders.Filter) ([]*models.Order, error) {
	// 1. --- Build the filter ---
	var (
		where []string
		args  []any
	)
	if filter.UserID != 0 {
		where = append(where, "o.user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		where = append(where, "o.status = ?")
		args = append(args, string(filter.Status))
	}

	query := orderColumns
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY o.created_at DESC, o.id DESC"

	// 2. --- Query Orders ---
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	list := []*models.Order{}
	byID := map[int64]*models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		o.Items = []models.OrderItem{}
		list = append(list, o)
		byID[o.ID] = o
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}
	if len(list) == 0 {
		return list, nil
	}

	// 3. --- Attach Items ---
	placeholders := make([]string, len(list))
	ids := make([]any, len(list))
	for i, o := range list {
		placeholders[i] = "?"
		ids[i] = o.ID
	}
	itemQuery := itemColumns + " WHERE order_id IN (" + strings.Join(placeholders, ",") + ") ORDER BY order_id, id"

	itemRows, err := s.DB.QueryContext(ctx, itemQuery, ids...)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		it, err := scanItem(itemRows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		if o, ok := byID[it.OrderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return list, itemRows.Err()
}

//
// --- Transaction ---
//

type sqlTx struct {
	tx *sql.Tx
}

func (t *sqlTx) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return getUser(ctx, t.tx, id)
}

func (t *sqlTx) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	return getProduct(ctx, t.tx, id, true)
}

// DecrementStock only succeeds while enough stock remains, which keeps
// stock_quantity non-negative even without the preceding row lock.
func (t *sqlTx) DecrementStock(ctx context.Context, productID int64, qty int) (bool, error) {
	res, err := t.tx.ExecContext(ctx,
		"UPDATE products SET stock_quantity = stock_quantity - ? WHERE id = ? AND stock_quantity >= ?",
		qty, productID, qty)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (t *sqlTx) IncrementStock(ctx context.Context, productID int64, qty int) error {
	res, err := t.tx.ExecContext(ctx,
		"UPDATE products SET stock_quantity = stock_quantity + ? WHERE id = ?",
		qty, productID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrRecordNotFound
	}
	return nil
}

func (t *sqlTx) InsertOrder(ctx context.Context, o *models.Order) error {
	// 1. --- Insert the order row ---
	orderQuery := `
		INSERT INTO orders (user_id, total_amount, status, payment_status, shipping_address, phone_number, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := t.tx.ExecContext(ctx, orderQuery,
		o.UserID, o.TotalAmount, string(o.Status), string(o.PaymentStatus),
		o.ShippingAddress, o.PhoneNumber, o.Notes, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return err
	}
	o.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get new order ID: %w", err)
	}

	// 2. --- Snapshot each item ---
	itemQuery := `
		INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price, subtotal)
		VALUES (?, ?, ?, ?, ?, ?)`
	for i := range o.Items {
		it := &o.Items[i]
		it.OrderID = o.ID
		res, err := t.tx.ExecContext(ctx, itemQuery, o.ID, it.ProductID, it.ProductName, it.Quantity, it.UnitPrice, it.Subtotal)
		if err != nil {
			return fmt.Errorf("failed to save order item: %w", err)
		}
		if it.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get new order item ID: %w", err)
		}
	}
	return nil
}

func (t *sqlTx) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	return getOrder(ctx, t.tx, id, true)
}

// UpdateOrderState expects the row to be locked by GetOrder in the same
// transaction.
func (t *sqlTx) UpdateOrderState(ctx context.Context, o *models.Order) error {
	_, err := t.tx.ExecContext(ctx,
		"UPDATE orders SET status = ?, payment_status = ?, updated_at = ? WHERE id = ?",
		string(o.Status), string(o.PaymentStatus), o.UpdatedAt, o.ID)
	return err
}
