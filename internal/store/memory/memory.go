// Package memory is an in-process implementation of the order store, catalog
// and user lookups. Transactions are serialized behind one mutex and work on a
// copy of the data that replaces the live copy only on commit.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/01moynul/taptosell-orders/internal/models"
	"github.com/01moynul/taptosell-orders/internal/orders"
)

type Store struct {
	mu sync.Mutex
	st *state
}

type state struct {
	users    map[int64]models.User
	products map[int64]models.Product
	orders   map[int64]*models.Order

	nextOrderID   int64
	nextItemID    int64
	nextProductID int64
}

func New() *Store {
	return &Store{st: &state{
		users:    map[int64]models.User{},
		products: map[int64]models.Product{},
		orders:   map[int64]*models.Order{},
	}}
}

func (s *state) clone() *state {
	cp := &state{
		users:         make(map[int64]models.User, len(s.users)),
		products:      make(map[int64]models.Product, len(s.products)),
		orders:        make(map[int64]*models.Order, len(s.orders)),
		nextOrderID:   s.nextOrderID,
		nextItemID:    s.nextItemID,
		nextProductID: s.nextProductID,
	}
	for id, u := range s.users {
		cp.users[id] = u
	}
	for id, p := range s.products {
		cp.products[id] = p
	}
	for id, o := range s.orders {
		cp.orders[id] = o.Clone()
	}
	return cp
}

// SeedUser stores u as if the account service had provisioned it.
func (s *Store) SeedUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.st.users[u.ID] = u
}

func (s *Store) GetUser(_ context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.st.users[id]
	if !ok {
		return nil, models.ErrRecordNotFound
	}
	return &u, nil
}

//
// --- Catalog ---
//

func (s *Store) CreateProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.st.products {
		if existing.Slug == p.Slug {
			return models.ErrDuplicate
		}
	}
	now := time.Now().UTC().Truncate(time.Microsecond)
	p.CreatedAt, p.UpdatedAt = now, now
	s.st.nextProductID++
	p.ID = s.st.nextProductID
	s.st.products[p.ID] = *p
	return nil
}

func (s *Store) GetProduct(_ context.Context, id int64) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.st.products[id]
	if !ok {
		return nil, models.ErrRecordNotFound
	}
	return &p, nil
}

func (s *Store) UpdateStock(_ context.Context, id int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.st.products[id]
	if !ok {
		return models.ErrRecordNotFound
	}
	p.StockQuantity = quantity
	p.UpdatedAt = time.Now().UTC()
	s.st.products[id] = p
	return nil
}

//
// --- Orders ---
//

func (s *Store) InTx(_ context.Context, fn func(tx orders.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(&memTx{st: work}); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) GetOrder(_ context.Context, id int64) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.st.orders[id]
	if !ok {
		return nil, models.ErrRecordNotFound
	}
	return o.Clone(), nil
}

func (s *Store) ListOrders(_ context.Context, filter orders.Filter) ([]*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Order
	for _, o := range s.st.orders {
		if filter.UserID != 0 && o.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		out = append(out, o.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

type memTx struct {
	st *state
}

func (t *memTx) GetUser(_ context.Context, id int64) (*models.User, error) {
	u, ok := t.st.users[id]
	if !ok {
		return nil, models.ErrRecordNotFound
	}
	return &u, nil
}

func (t *memTx) GetProduct(_ context.Context, id int64) (*models.Product, error) {
	p, ok := t.st.products[id]
	if !ok {
		return nil, models.ErrRecordNotFound
	}
	return &p, nil
}

func (t *memTx) DecrementStock(_ context.Context, productID int64, qty int) (bool, error) {
	p, ok := t.st.products[productID]
	if !ok || p.StockQuantity < qty {
		return false, nil
	}
	p.StockQuantity -= qty
	p.UpdatedAt = time.Now().UTC()
	t.st.products[productID] = p
	return true, nil
}

func (t *memTx) IncrementStock(_ context.Context, productID int64, qty int) error {
	p, ok := t.st.products[productID]
	if !ok {
		return models.ErrRecordNotFound
	}
	p.StockQuantity += qty
	p.UpdatedAt = time.Now().UTC()
	t.st.products[productID] = p
	return nil
}

func (t *memTx) InsertOrder(_ context.Context, o *models.Order) error {
	t.st.nextOrderID++
	o.ID = t.st.nextOrderID
	for i := range o.Items {
		t.st.nextItemID++
		o.Items[i].ID = t.st.nextItemID
		o.Items[i].OrderID = o.ID
	}
	t.st.orders[o.ID] = o.Clone()
	return nil
}

func (t *memTx) GetOrder(_ context.Context, id int64) (*models.Order, error) {
	o, ok := t.st.orders[id]
	if !ok {
		return nil, models.ErrRecordNotFound
	}
	return o.Clone(), nil
}

func (t *memTx) UpdateOrderState(_ context.Context, o *models.Order) error {
	stored, ok := t.st.orders[o.ID]
	if !ok {
		return models.ErrRecordNotFound
	}
	stored.Status = o.Status
	stored.PaymentStatus = o.PaymentStatus
	stored.UpdatedAt = o.UpdatedAt
	return nil
}
