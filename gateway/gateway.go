package gateway

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/example/qrdine/pkg/auth"
	"github.com/example/qrdine/pkg/config"
	"github.com/example/qrdine/pkg/metrics"
	"github.com/example/qrdine/pkg/service"
	"github.com/example/qrdine/pkg/session"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Pinger reports store reachability for /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services are the collaborators the HTTP layer calls into.
type Services struct {
	Catalog  *service.CatalogService
	Orders   *service.OrderService
	Waiters  *service.WaiterService
	Sessions *session.Manager
	Verifier auth.Verifier
	// Staff is optional; without it any valid token is accepted.
	Staff   auth.Directory
	Store   Pinger
	Metrics *metrics.Metrics
}

type Gateway struct {
	config    *config.Config
	services  Services
	logger    *zap.Logger
	router    *gin.Engine
	server    *http.Server
	heartbeat time.Duration
}

func NewGateway(cfg *config.Config, logger *zap.Logger, services Services) *Gateway {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger, services.Metrics))

	g := &Gateway{
		config:    cfg,
		services:  services,
		logger:    logger,
		router:    router,
		heartbeat: 25 * time.Second,
	}
	g.SetupRoutes()
	return g
}

func (g *Gateway) SetupRoutes() {
	g.router.GET("/health", g.health)
	if g.services.Metrics != nil {
		g.router.GET("/metrics", gin.WrapH(g.services.Metrics.Handler()))
	}

	staff := auth.RequireStaff(g.services.Verifier, g.services.Staff, g.logger)

	api := g.router.Group("/api")
	if timeout := g.config.Gateway.RequestTimeout; timeout > 0 {
		api.Use(timeoutMiddleware(timeout))
	}
	{
		categories := api.Group("/categories")
		{
			categories.GET("", g.listCategories)
			categories.POST("", g.createCategory)
			categories.PUT("", g.updateCategory)
			categories.DELETE("", g.deleteCategory)
		}

		menu := api.Group("/menu")
		{
			menu.GET("", g.listMenu)
			menu.POST("", g.createMenuItem)
			menu.PUT("", g.updateMenuItem)
			menu.DELETE("", g.deleteMenuItem)
		}

		orders := api.Group("/orders")
		{
			orders.POST("", g.createOrder)
			orders.GET("", g.listOrders)
			orders.PUT("/:id/status", staff, g.updateOrderStatus)
		}

		waiter := api.Group("/waiter-call")
		{
			waiter.POST("", g.callWaiter)
			waiter.POST("/:id/resolve", staff, g.resolveWaiterCall)
		}

		api.GET("/dashboard", staff, g.dashboard)
		api.GET("/qr", g.tableQR)

		sessions := api.Group("/sessions")
		{
			sessions.POST("", g.startSession)
			sessions.DELETE("/:session", g.endSession)
			sessions.GET("/:session/cart", g.getCart)
			sessions.DELETE("/:session/cart", g.clearCart)
			sessions.POST("/:session/cart/items", g.addCartItem)
			sessions.PUT("/:session/cart/items/:itemId", g.updateCartItem)
			sessions.DELETE("/:session/cart/items/:itemId", g.removeCartItem)
			sessions.POST("/:session/checkout", g.checkout)
		}
	}

	// Live streams hold the connection open, so they sit outside the
	// request timeout.
	streams := g.router.Group("/api")
	{
		streams.GET("/categories/stream", g.streamCategories)
		streams.GET("/menu/stream", g.streamMenu)
		streams.GET("/orders/stream", staff, g.streamOrders)
		streams.GET("/waiter-call/stream", staff, g.streamWaiterCalls)
	}

	g.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// Handler exposes the router, mainly for tests.
func (g *Gateway) Handler() http.Handler {
	return g.router
}

func (g *Gateway) Start() error {
	addr := g.config.Gateway.Addr()
	g.server = &http.Server{
		Addr:              addr,
		Handler:           g.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.logger.Info("Gateway starting", zap.String("address", addr))
	if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	if g.server == nil {
		return nil
	}
	return g.server.Shutdown(ctx)
}

func (g *Gateway) health(c *gin.Context) {
	if g.services.Store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := g.services.Store.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func loggerMiddleware(logger *zap.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTP(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), latency.Seconds())

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
		)
	}
}

func timeoutMiddleware(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
