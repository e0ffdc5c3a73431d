package models

import (
	"errors"
	"time"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User is a read-only view of the 'users' table. Accounts are provisioned
// elsewhere; orders only need the owner's identity and contact snapshot.
type User struct {
	ID        int64     `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	FullName  string    `json:"fullName" db:"full_name"`
	Role      string    `json:"role" db:"role"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

var (
	// ErrRecordNotFound is returned by stores when a row does not exist.
	ErrRecordNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a unique key (such as a product slug) is taken.
	ErrDuplicate = errors.New("duplicate record")

	// ErrTransient marks a store failure that is safe to retry, such as a
	// deadlock or lock wait timeout.
	ErrTransient = errors.New("transient store conflict")
)
