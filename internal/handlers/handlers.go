// Package handlers is the HTTP adapter: a thin layer translating JSON
// requests into service and exporter calls.
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/invoicedesk/invoice-manager/internal/export"
	"github.com/invoicedesk/invoice-manager/internal/models"
	"github.com/invoicedesk/invoice-manager/internal/service"
	"github.com/invoicedesk/invoice-manager/pkg/utils"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	invoices *service.InvoiceService
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	excel    *export.ExcelExporter
	logger   *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	invoices *service.InvoiceService,
	csv *export.CSVExporter,
	pdf *export.PDFExporter,
	excel *export.ExcelExporter,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		invoices: invoices,
		csv:      csv,
		pdf:      pdf,
		excel:    excel,
		logger:   logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// InvoiceRequest is the write payload for creating or updating an invoice
// together with its full item set.
type InvoiceRequest struct {
	CustomerID    int64              `json:"customer_id"`
	InvoiceNumber string             `json:"invoice_number" binding:"required"`
	IssueDate     string             `json:"issue_date" binding:"required"`
	DueDate       string             `json:"due_date" binding:"required"`
	Status        string             `json:"status"`
	Notes         string             `json:"notes"`
	TaxRate       float64            `json:"tax_rate"`
	Items         []InvoiceItemInput `json:"items"`
}

// InvoiceItemInput is one line item in a write payload
type InvoiceItemInput struct {
	Description string  `json:"description" binding:"required"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Amount      float64 `json:"amount"`
}

// CustomerRequest is the write payload for creating a customer
type CustomerRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// ExportRequest optionally overrides the export target path
type ExportRequest struct {
	Path string `json:"path"`
}

// ExportResponse reports where an export was written
type ExportResponse struct {
	Path string `json:"path"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "invoice-manager",
		"time":    time.Now().Format(time.RFC3339),
	})
}

// CreateCustomer handles POST /api/customers
func (h *Handlers) CreateCustomer(c *gin.Context) {
	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid customer payload"})
		return
	}
	if req.Email != "" {
		if err := utils.ValidateEmail(req.Email); err != nil {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
			return
		}
	}

	customer := &models.Customer{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	}
	id, err := h.invoices.CreateCustomer(c.Request.Context(), customer)
	if err != nil {
		h.logger.Error("Failed to create customer", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to create customer"})
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: gin.H{"customer_id": id}})
}

// ListCustomers handles GET /api/customers
func (h *Handlers) ListCustomers(c *gin.Context) {
	customers, err := h.invoices.ListCustomers(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list customers", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to retrieve customers"})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: customers})
}

// CreateInvoice handles POST /api/invoices
func (h *Handlers) CreateInvoice(c *gin.Context) {
	var req InvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid invoice payload"})
		return
	}
	if err := req.validateDates(); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	invoice, items := req.toModel()
	id, err := h.invoices.CreateInvoice(c.Request.Context(), invoice, items)
	if err != nil {
		h.logger.Error("Failed to create invoice", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to create invoice"})
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: gin.H{"invoice_id": id}})
}

// ListInvoices handles GET /api/invoices
func (h *Handlers) ListInvoices(c *gin.Context) {
	summaries, err := h.invoices.ListInvoices(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list invoices", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to retrieve invoices"})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: summaries})
}

// GetInvoice handles GET /api/invoices/:id
func (h *Handlers) GetInvoice(c *gin.Context) {
	id, ok := h.invoiceID(c)
	if !ok {
		return
	}

	detail, err := h.invoices.GetInvoiceWithItems(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrInvoiceNotFound) {
			c.JSON(http.StatusNotFound, Response{Success: false, Error: "invoice not found"})
			return
		}
		h.logger.Error("Failed to get invoice", zap.Int64("invoice_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to retrieve invoice"})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: detail})
}

// UpdateInvoice handles PUT /api/invoices/:id
func (h *Handlers) UpdateInvoice(c *gin.Context) {
	id, ok := h.invoiceID(c)
	if !ok {
		return
	}

	var req InvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid invoice payload"})
		return
	}
	if err := req.validateDates(); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	invoice, items := req.toModel()
	if err := h.invoices.UpdateInvoice(c.Request.Context(), id, invoice, items); err != nil {
		if errors.Is(err, service.ErrInvoiceNotFound) {
			c.JSON(http.StatusNotFound, Response{Success: false, Error: "invoice not found"})
			return
		}
		h.logger.Error("Failed to update invoice", zap.Int64("invoice_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to update invoice"})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"invoice_id": id}})
}

// DeleteInvoice handles DELETE /api/invoices/:id
func (h *Handlers) DeleteInvoice(c *gin.Context) {
	id, ok := h.invoiceID(c)
	if !ok {
		return
	}

	if err := h.invoices.DeleteInvoice(c.Request.Context(), id); err != nil {
		h.logger.Error("Failed to delete invoice", zap.Int64("invoice_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to delete invoice"})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// ExportInvoicesCSV handles POST /api/exports/invoices/csv
func (h *Handlers) ExportInvoicesCSV(c *gin.Context) {
	req := h.exportRequest(c)
	if req == nil {
		return
	}

	path, err := h.csv.ExportInvoices(c.Request.Context(), req.Path)
	h.exportResult(c, path, err)
}

// ExportInvoicesXLSX handles POST /api/exports/invoices/xlsx
func (h *Handlers) ExportInvoicesXLSX(c *gin.Context) {
	req := h.exportRequest(c)
	if req == nil {
		return
	}

	path, err := h.excel.ExportInvoices(c.Request.Context(), req.Path)
	h.exportResult(c, path, err)
}

// ExportInvoicePDF handles POST /api/invoices/:id/export/pdf
func (h *Handlers) ExportInvoicePDF(c *gin.Context) {
	id, ok := h.invoiceID(c)
	if !ok {
		return
	}
	req := h.exportRequest(c)
	if req == nil {
		return
	}

	path, err := h.pdf.ExportInvoice(c.Request.Context(), id, req.Path)
	h.exportResult(c, path, err)
}

// ExportInvoiceItemsCSV handles POST /api/invoices/:id/export/items-csv
func (h *Handlers) ExportInvoiceItemsCSV(c *gin.Context) {
	id, ok := h.invoiceID(c)
	if !ok {
		return
	}
	req := h.exportRequest(c)
	if req == nil {
		return
	}

	path, err := h.csv.ExportInvoiceItems(c.Request.Context(), id, req.Path)
	h.exportResult(c, path, err)
}

func (h *Handlers) invoiceID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid invoice ID"})
		return 0, false
	}
	return id, true
}

// exportRequest parses the optional {"path": ...} body. An empty body is
// fine. Returns nil after writing the error response.
func (h *Handlers) exportRequest(c *gin.Context) *ExportRequest {
	var req ExportRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid export payload"})
			return nil
		}
	}
	return &req
}

func (h *Handlers) exportResult(c *gin.Context, path string, err error) {
	if err != nil {
		switch {
		case errors.Is(err, export.ErrInvoiceNotFound):
			c.JSON(http.StatusNotFound, Response{Success: false, Error: "invoice not found"})
		case errors.Is(err, export.ErrNothingToExport):
			c.JSON(http.StatusConflict, Response{Success: false, Error: "nothing to export"})
		default:
			h.logger.Error("Export failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "export failed"})
		}
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: ExportResponse{Path: path}})
}

func (r *InvoiceRequest) validateDates() error {
	if err := utils.ValidateISODate(r.IssueDate); err != nil {
		return err
	}
	return utils.ValidateISODate(r.DueDate)
}

func (r *InvoiceRequest) toModel() (*models.Invoice, []models.InvoiceItem) {
	status := r.Status
	if status == "" {
		status = models.StatusPending
	}

	invoice := &models.Invoice{
		CustomerID:    r.CustomerID,
		InvoiceNumber: r.InvoiceNumber,
		IssueDate:     r.IssueDate,
		DueDate:       r.DueDate,
		Status:        status,
		Notes:         r.Notes,
		TaxRate:       r.TaxRate,
	}

	items := make([]models.InvoiceItem, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, models.InvoiceItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      item.Amount,
		})
	}
	return invoice, items
}
