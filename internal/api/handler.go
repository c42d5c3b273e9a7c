package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"art-market/internal/models"
	"art-market/internal/service"
	"art-market/internal/store"
	"art-market/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// DefaultMaxBodyBytes matches the size of a large canvas data URL
const DefaultMaxBodyBytes = 30 << 20

// Handler contains HTTP handlers
type Handler struct {
	marketplace  *service.MarketplaceService
	reconciler   *service.Reconciler
	ledger       *store.Ledger
	maxBodyBytes int64
	logger       *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(ledger *store.Ledger, marketplace *service.MarketplaceService, reconciler *service.Reconciler) *Handler {
	return &Handler{
		marketplace:  marketplace,
		reconciler:   reconciler,
		ledger:       ledger,
		maxBodyBytes: DefaultMaxBodyBytes,
		logger:       util.Named("api"),
	}
}

// WithMaxBodyBytes overrides the request body limit on POST routes
func (h *Handler) WithMaxBodyBytes(n int64) *Handler {
	if n > 0 {
		h.maxBodyBytes = n
	}
	return h
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/gallery", h.gallery)
	router.GET("/image/:artId", h.image)

	post := router.Group("/", bodyLimit(h.maxBodyBytes))
	{
		post.POST("/sell", h.sell)
		post.POST("/create-payment", h.createPayment)
		post.POST("/webhook/pi-events", h.webhook)
		post.POST("/simulate-payment", h.simulatePayment)
		post.POST("/resell", h.resell)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":   true,
		"time": time.Now().Unix(),
	})
}

// readinessCheck reports whether the ledger document can be loaded
func (h *Handler) readinessCheck(c *gin.Context) {
	if err := h.ledger.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "not ready",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// sell handles artwork submission
func (h *Handler) sell(c *gin.Context) {
	var req service.SubmitRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	art, err := h.marketplace.Submit(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, "sell", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"artId":   art.ID,
	})
}

type createPaymentRequest struct {
	ArtID string `json:"artId"`
}

// createPayment opens a payment session for an artwork
func (h *Handler) createPayment(c *gin.Context) {
	var req createPaymentRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	session, err := h.reconciler.RequestPayment(c.Request.Context(), req.ArtID)
	if err != nil {
		h.respondError(c, "create-payment", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"payment": session,
	})
}

// webhook receives provider payment events. Anything the provider would
// consider delivered is acknowledged with 200 so it stops retrying.
func (h *Handler) webhook(c *gin.Context) {
	var doc map[string]any

	if err := c.ShouldBindJSON(&doc); err != nil {
		h.logger.Warn("Unreadable webhook body", zap.Error(err))
		util.WebhookEventsTotal.WithLabelValues("unreadable").Inc()
		c.String(http.StatusOK, "ignored")
		return
	}

	outcome, err := h.reconciler.HandleWebhook(c.Request.Context(), doc)
	if err != nil {
		c.String(http.StatusInternalServerError, "error")
		return
	}

	c.String(http.StatusOK, string(outcome))
}

type simulatePaymentRequest struct {
	PaymentID string `json:"paymentId"`
	TxID      string `json:"txId"`
}

// simulatePayment settles a bound payment without the provider
func (h *Handler) simulatePayment(c *gin.Context) {
	var req simulatePaymentRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	settlement, err := h.reconciler.SimulatePayment(c.Request.Context(), req.PaymentID, req.TxID)
	if err != nil {
		h.respondError(c, "simulate-payment", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"artId":   settlement.Artwork.ID,
	})
}

// resell relists a sold artwork for its owner
func (h *Handler) resell(c *gin.Context) {
	var req service.ResellRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if _, err := h.reconciler.Resell(c.Request.Context(), &req); err != nil {
		h.respondError(c, "resell", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// gallery lists all artworks, most recent first
func (h *Handler) gallery(c *gin.Context) {
	artworks, err := h.marketplace.Gallery(c.Request.Context())
	if err != nil {
		h.respondError(c, "gallery", err)
		return
	}

	c.JSON(http.StatusOK, artworks)
}

// image serves the stored bytes of an artwork
func (h *Handler) image(c *gin.Context) {
	data, contentType, err := h.marketplace.Image(c.Request.Context(), c.Param("artId"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.String(http.StatusNotFound, "Not found")
			return
		}
		h.respondError(c, "image", err)
		return
	}

	c.Header("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.Data(http.StatusOK, contentType, data)
}

// respondError maps the domain error taxonomy onto HTTP statuses
func (h *Handler) respondError(c *gin.Context, op string, err error) {
	var validationErr *models.ValidationError
	status := http.StatusInternalServerError

	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrNotAvailable):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrNotOwner):
		status = http.StatusForbidden
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("op", op), zap.Error(err))
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

// bodyLimit caps request bodies; oversized JSON fails to bind with 400
func bodyLimit(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
