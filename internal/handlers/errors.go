package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/01moynul/taptosell-orders/internal/middleware"
	"github.com/01moynul/taptosell-orders/internal/models"
	"github.com/01moynul/taptosell-orders/internal/orders"
	"github.com/gin-gonic/gin"
)

func errorJSON(c *gin.Context, status int, kind, message string) {
	c.JSON(status, gin.H{"success": false, "error": kind, "message": message})
}

// respondError maps an engine or store error to its HTTP status. Unexpected
// failures are logged with the request ID and hidden from the caller.
func (h *Handlers) respondError(c *gin.Context, err error) {
	var e *orders.Error
	switch {
	case errors.As(err, &e):
		status := http.StatusBadRequest
		switch e.Kind {
		case orders.KindNotFound:
			status = http.StatusNotFound
		case orders.KindForbidden:
			status = http.StatusForbidden
		}
		errorJSON(c, status, e.Kind.String(), e.Message)

	case errors.Is(err, models.ErrTransient):
		_ = c.Error(err)
		h.Log.Warn().Err(err).Str("request_id", c.GetString(middleware.KeyRequestID)).Msg("giving up after transient store conflicts")
		errorJSON(c, http.StatusServiceUnavailable, "unavailable", "The service is busy, please retry")

	default:
		_ = c.Error(err)
		h.Log.Error().Err(err).Str("request_id", c.GetString(middleware.KeyRequestID)).Msg("request failed")
		errorJSON(c, http.StatusInternalServerError, "internal", "Internal server error")
	}
}

// withRetry runs fn until it succeeds, fails with a non-transient error, or
// has been tried RetryAttempts times.
func (h *Handlers) withRetry(ctx context.Context, fn func() error) error {
	attempts := h.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 1; i <= attempts; i++ {
		if err = fn(); err == nil || !errors.Is(err, models.ErrTransient) {
			return err
		}
		if i == attempts {
			break
		}

		h.Log.Debug().Err(err).Int("attempt", i).Msg("retrying after transient store conflict")
		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(time.Duration(i) * 10 * time.Millisecond):
		}
	}
	return err
}

// idParam parses a positive integer path parameter, answering 400 otherwise.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		errorJSON(c, http.StatusBadRequest, orders.KindInvalidInput.String(), fmt.Sprintf("invalid %s", name))
		return 0, false
	}
	return id, true
}
