package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter builds the gin engine with middleware and all routes wired
func NewRouter(h *Handlers, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))

	router.GET("/health", h.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/customers", h.CreateCustomer)
		api.GET("/customers", h.ListCustomers)

		api.POST("/invoices", h.CreateInvoice)
		api.GET("/invoices", h.ListInvoices)
		api.GET("/invoices/:id", h.GetInvoice)
		api.PUT("/invoices/:id", h.UpdateInvoice)
		api.DELETE("/invoices/:id", h.DeleteInvoice)

		api.POST("/invoices/:id/export/pdf", h.ExportInvoicePDF)
		api.POST("/invoices/:id/export/items-csv", h.ExportInvoiceItemsCSV)

		api.POST("/exports/invoices/csv", h.ExportInvoicesCSV)
		api.POST("/exports/invoices/xlsx", h.ExportInvoicesXLSX)
	}

	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
