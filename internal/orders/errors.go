package orders

import (
	"errors"
	"fmt"
)

// Kind classifies an engine failure. The HTTP layer maps each kind to a status.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindInvalidInput
	KindInsufficientStock
	KindInvalidState
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidInput:
		return "invalid_input"
	case KindInsufficientStock:
		return "insufficient_stock"
	case KindInvalidState:
		return "invalid_state"
	case KindForbidden:
		return "forbidden"
	}
	return "internal"
}

// Error is the typed failure returned by every Service operation for a
// rejected request. Store and infrastructure failures are returned as-is.
type Error struct {
	Kind    Kind
	Message string

	// Resource and ID identify the missing record for KindNotFound.
	Resource string
	ID       int64

	// ProductID and Available describe a KindInsufficientStock failure.
	ProductID int64
	Available int
}

func (e *Error) Error() string {
	return e.Message
}

// KindOf returns the Kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func notFound(resource string, id int64) *Error {
	return &Error{
		Kind:     KindNotFound,
		Message:  fmt.Sprintf("%s %d not found", resource, id),
		Resource: resource,
		ID:       id,
	}
}

func invalidInput(msg string) *Error {
	return &Error{Kind: KindInvalidInput, Message: msg}
}

func invalidState(msg string) *Error {
	return &Error{Kind: KindInvalidState, Message: msg}
}

func insufficientStock(productID int64, available int) *Error {
	return &Error{
		Kind:      KindInsufficientStock,
		Message:   fmt.Sprintf("insufficient stock for product %d: %d available", productID, available),
		ProductID: productID,
		Available: available,
	}
}

var errForbidden = &Error{Kind: KindForbidden, Message: "order belongs to another user"}
