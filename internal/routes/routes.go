package routes

import (
	"net/http"

	"github.com/01moynul/taptosell-orders/internal/handlers"
	"github.com/01moynul/taptosell-orders/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// CORSMiddleware tells the browser that it is safe for the configured
// frontend origin to call us.
func CORSMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Strictly allow ONLY the configured frontend
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)

		// 2. Allow standard security credentials
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")

		// 3. Allow the headers we actually use (specifically "Authorization" for JWT tokens)
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")

		// 4. Allow the HTTP methods we use in our API
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		// 5. Handle the "Preflight" OPTIONS request
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Options carries what SetupRouter needs besides the handlers.
type Options struct {
	JWTSecret  []byte
	Users      middleware.UserLookup
	CORSOrigin string
	Logger     zerolog.Logger

	// Registry receives the HTTP metrics and backs /metrics. Nil means the
	// prometheus default registry.
	Registry *prometheus.Registry
}

func SetupRouter(h *handlers.Handlers, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	var (
		reg      prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if opts.Registry != nil {
		reg, gatherer = opts.Registry, opts.Registry
	}

	// --- APPLY THE CORS GUARD ---
	// This must run before anything can reject the request
	router.Use(CORSMiddleware(opts.CORSOrigin))
	router.Use(middleware.RequestLogger(opts.Logger))
	router.Use(middleware.NewHTTPMetrics(reg).Middleware())

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	requireUser := middleware.AuthMiddleware(opts.JWTSecret, opts.Users, opts.Logger)

	v1 := router.Group("/v1")
	{
		// --- Ping Route (Public) ---
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})

		// --- Public Product Routes ---
		v1.GET("/products/:id", h.GetProduct)

		// --- Customer Routes (Login Required) ---
		customer := v1.Group("/orders")
		customer.Use(requireUser)
		{
			customer.POST("", h.CreateOrder)
			customer.GET("/me", h.GetMyOrders)
			customer.GET("/:id", h.GetOrderByID)
			customer.GET("/:id/payment-status", h.GetPaymentStatus)
			customer.PUT("/:id/cancel", h.CancelOrder)
		}

		// --- Admin-Only Routes ---
		admin := v1.Group("/admin")
		admin.Use(requireUser)
		admin.Use(middleware.AdminMiddleware())
		{
			admin.GET("/orders", h.GetAllOrders)
			admin.GET("/orders/user/:userId", h.GetOrdersByUser)
			admin.GET("/orders/status/:status", h.GetOrdersByStatus)
			admin.PUT("/orders/:id/status", h.UpdateOrderStatus)
			admin.PUT("/orders/:id/payment-status", h.UpdatePaymentStatus)

			admin.POST("/products", h.CreateProduct)
			admin.PUT("/products/:id/stock", h.UpdateStock)
		}
	}

	return router
}
