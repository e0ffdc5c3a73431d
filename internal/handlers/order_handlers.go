package handlers

import (
	"fmt"
	"net/http"

	"github.com/01moynul/taptosell-orders/internal/middleware"
	"github.com/01moynul/taptosell-orders/internal/orders"
	"github.com/gin-gonic/gin"
)

//
// --- Customer Order Handlers ---
//

// CreateOrder is the handler for POST /v1/orders
func (h *Handlers) CreateOrder(c *gin.Context) {
	// 1. --- Get Caller ID ---
	userID := middleware.CallerID(c)

	// 2. --- Bind Input ---
	var input orders.CreateOrderRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		errorJSON(c, http.StatusBadRequest, orders.KindInvalidInput.String(), err.Error())
		return
	}

	// 3. --- Place the order (retried on lock conflicts) ---
	var view orders.OrderView
	err := h.withRetry(c.Request.Context(), func() error {
		var err error
		view, err = h.Orders.CreateOrder(c.Request.Context(), userID, input)
		return err
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	// 4. --- Send Success Response ---
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Order created successfully",
		"data":    view,
	})
}

// GetMyOrders is the handler for GET /v1/orders/me
func (h *Handlers) GetMyOrders(c *gin.Context) {
	list, err := h.Orders.GetOrdersByUser(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetOrderByID is the handler for GET /v1/orders/:id
// Customers only see their own orders; anyone else's order reads as missing.
func (h *Handlers) GetOrderByID(c *gin.Context) {
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	view, err := h.Orders.GetOrderByID(c.Request.Context(), orderID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !middleware.IsAdmin(c) && view.UserID != middleware.CallerID(c) {
		orderNotFound(c, orderID)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetPaymentStatus is the handler for GET /v1/orders/:id/payment-status
func (h *Handlers) GetPaymentStatus(c *gin.Context) {
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	view, err := h.Orders.GetPaymentStatus(c.Request.Context(), orderID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !middleware.IsAdmin(c) && view.UserID != middleware.CallerID(c) {
		orderNotFound(c, orderID)
		return
	}
	c.JSON(http.StatusOK, view)
}

// CancelOrder is the handler for PUT /v1/orders/:id/cancel
func (h *Handlers) CancelOrder(c *gin.Context) {
	// 1. --- Get IDs ---
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}
	userID := middleware.CallerID(c)

	// 2. --- Cancel and restore stock ---
	err := h.withRetry(c.Request.Context(), func() error {
		return h.Orders.CancelOrder(c.Request.Context(), orderID, userID)
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	// 3. --- Return the cancelled order ---
	view, err := h.Orders.GetOrderByID(c.Request.Context(), orderID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Order cancelled successfully",
		"data":    view,
	})
}

func orderNotFound(c *gin.Context, orderID int64) {
	errorJSON(c, http.StatusNotFound, orders.KindNotFound.String(), fmt.Sprintf("order %d not found", orderID))
}

//
// --- Admin Order Handlers ---
//

type UpdateOrderStatusInput struct {
	Status string `json:"status" binding:"required"`
}

type UpdatePaymentStatusInput struct {
	PaymentStatus string `json:"paymentStatus" binding:"required"`
}

// GetAllOrders is the handler for GET /v1/admin/orders
func (h *Handlers) GetAllOrders(c *gin.Context) {
	list, err := h.Orders.GetAllOrders(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetOrdersByUser is the handler for GET /v1/admin/orders/user/:userId
func (h *Handlers) GetOrdersByUser(c *gin.Context) {
	userID, ok := idParam(c, "userId")
	if !ok {
		return
	}

	list, err := h.Orders.GetOrdersByUser(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetOrdersByStatus is the handler for GET /v1/admin/orders/status/:status
func (h *Handlers) GetOrdersByStatus(c *gin.Context) {
	list, err := h.Orders.GetOrdersByStatus(c.Request.Context(), c.Param("status"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// UpdateOrderStatus is the handler for PUT /v1/admin/orders/:id/status
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var input UpdateOrderStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		errorJSON(c, http.StatusBadRequest, orders.KindInvalidInput.String(), err.Error())
		return
	}

	var view orders.OrderView
	err := h.withRetry(c.Request.Context(), func() error {
		var err error
		view, err = h.Orders.UpdateOrderStatus(c.Request.Context(), orderID, input.Status)
		return err
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Order status updated successfully",
		"data":    view,
	})
}

// UpdatePaymentStatus is the handler for PUT /v1/admin/orders/:id/payment-status
func (h *Handlers) UpdatePaymentStatus(c *gin.Context) {
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var input UpdatePaymentStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		errorJSON(c, http.StatusBadRequest, orders.KindInvalidInput.String(), err.Error())
		return
	}

	var view orders.OrderView
	err := h.withRetry(c.Request.Context(), func() error {
		var err error
		view, err = h.Orders.UpdatePaymentStatus(c.Request.Context(), orderID, input.PaymentStatus)
		return err
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Payment status updated successfully",
		"data":    view,
	})
}
