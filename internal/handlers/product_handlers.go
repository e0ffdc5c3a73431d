package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/01moynul/taptosell-orders/internal/models"
	"github.com/01moynul/taptosell-orders/internal/orders"
	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
)

// --- Inputs ---

type CreateProductInput struct {
	Name          string          `json:"name" binding:"required"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity" binding:"gte=0"`
	IsActive      *bool           `json:"isActive"` // defaults to true
}

type UpdateStockInput struct {
	StockQuantity *int `json:"stockQuantity" binding:"required,gte=0"`
}

// CreateProduct is the handler for POST /v1/admin/products
func (h *Handlers) CreateProduct(c *gin.Context) {
	// 1. --- Bind & Validate Input ---
	var input CreateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		errorJSON(c, http.StatusBadRequest, orders.KindInvalidInput.String(), err.Error())
		return
	}
	if !input.Price.IsPositive() {
		errorJSON(c, http.StatusBadRequest, orders.KindInvalidInput.String(), "price must be greater than zero")
		return
	}

	productSlug := slug.Make(input.Name)
	if productSlug == "" {
		errorJSON(c, http.StatusBadRequest, orders.KindInvalidInput.String(), "name must contain letters or digits")
		return
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	// 2. --- Insert ---
	p := &models.Product{
		Name:          input.Name,
		Slug:          productSlug,
		Price:         input.Price.Round(2),
		StockQuantity: input.StockQuantity,
		IsActive:      isActive,
	}
	if err := h.Catalog.CreateProduct(c.Request.Context(), p); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			errorJSON(c, http.StatusConflict, "duplicate", fmt.Sprintf("a product with slug %q already exists", productSlug))
			return
		}
		h.respondError(c, err)
		return
	}

	// 3. --- Send Success Response ---
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Product created successfully",
		"data":    p,
	})
}

// GetProduct is the handler for GET /v1/products/:id
func (h *Handlers) GetProduct(c *gin.Context) {
	productID, ok := idParam(c, "id")
	if !ok {
		return
	}

	p, err := h.Catalog.GetProduct(c.Request.Context(), productID)
	if errors.Is(err, models.ErrRecordNotFound) {
		errorJSON(c, http.StatusNotFound, orders.KindNotFound.String(), fmt.Sprintf("product %d not found", productID))
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// UpdateStock is the handler for PUT /v1/admin/products/:id/stock
// It overwrites the stock level; orders in flight are not consulted.
func (h *Handlers) UpdateStock(c *gin.Context) {
	productID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var input UpdateStockInput
	if err := c.ShouldBindJSON(&input); err != nil {
		errorJSON(c, http.StatusBadRequest, orders.KindInvalidInput.String(), err.Error())
		return
	}

	err := h.withRetry(c.Request.Context(), func() error {
		return h.Catalog.UpdateStock(c.Request.Context(), productID, *input.StockQuantity)
	})
	if errors.Is(err, models.ErrRecordNotFound) {
		errorJSON(c, http.StatusNotFound, orders.KindNotFound.String(), fmt.Sprintf("product %d not found", productID))
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	p, err := h.Catalog.GetProduct(c.Request.Context(), productID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Stock updated successfully",
		"data":    p,
	})
}
