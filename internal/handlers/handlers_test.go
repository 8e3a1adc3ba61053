package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/invoicedesk/invoice-manager/internal/export"
	"github.com/invoicedesk/invoice-manager/internal/notify"
	"github.com/invoicedesk/invoice-manager/internal/repository"
	"github.com/invoicedesk/invoice-manager/internal/service"
	"github.com/invoicedesk/invoice-manager/migrations"
	"github.com/invoicedesk/invoice-manager/pkg/database"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	db, err := database.New(database.Config{
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 1,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.NewMigrator(db, logger).Run(context.Background(), migrations.FS))

	invoices := repository.NewInvoiceRepository(db, logger)
	items := repository.NewItemRepository(db, logger)
	customers := repository.NewCustomerRepository(db, logger)
	notifier := notify.Nop{}

	outputDir := t.TempDir()
	svc := service.NewInvoiceService(db, invoices, items, customers, notifier, logger)
	csv := export.NewCSVExporter(invoices, items, outputDir, notifier, logger)
	pdf := export.NewPDFExporter(invoices, items, customers, outputDir, notifier, logger)
	excel := export.NewExcelExporter(invoices, outputDir, notifier, logger)

	h := NewHandlers(svc, csv, pdf, excel, logger)
	return NewRouter(h, logger)
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func invoicePayload(number string) gin.H {
	return gin.H{
		"invoice_number": number,
		"issue_date":     "2024-01-01",
		"due_date":       "2024-01-31",
		"tax_rate":       10,
		"items": []gin.H{
			{"description": "Design work", "quantity": 10, "unit_price": 50, "amount": 500},
		},
	}
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(t)
	w := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCustomerEndpoints(t *testing.T) {
	router := newTestRouter(t)

	t.Run("create then list", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/customers", gin.H{
			"name":  "Acme Corp",
			"email": "billing@acme.example",
		})
		require.Equal(t, http.StatusCreated, w.Code)
		assert.True(t, decode(t, w).Success)

		w = doJSON(t, router, http.MethodGet, "/api/customers", nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode(t, w)
		assert.True(t, resp.Success)
		assert.NotEmpty(t, resp.Data)
	})

	t.Run("missing name is rejected", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/customers", gin.H{"email": "x@y.z"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestInvoiceEndpoints(t *testing.T) {
	router := newTestRouter(t)

	t.Run("create returns the new id", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/invoices", invoicePayload("INV-001"))
		require.Equal(t, http.StatusCreated, w.Code)

		resp := decode(t, w)
		assert.True(t, resp.Success)
	})

	t.Run("get returns invoice with items and computed totals", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/invoices/1", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Success bool `json:"success"`
			Data    struct {
				InvoiceNumber string  `json:"invoice_number"`
				Subtotal      float64 `json:"subtotal"`
				TotalAmount   float64 `json:"total_amount"`
				Items         []struct {
					Description string `json:"description"`
				} `json:"items"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "INV-001", resp.Data.InvoiceNumber)
		assert.Equal(t, 500.0, resp.Data.Subtotal)
		assert.Equal(t, 550.0, resp.Data.TotalAmount)
		require.Len(t, resp.Data.Items, 1)
		assert.Equal(t, "Design work", resp.Data.Items[0].Description)
	})

	t.Run("get missing invoice is 404", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/invoices/99999", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("update missing invoice is 404", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPut, "/api/invoices/99999", invoicePayload("INV-GHOST"))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed dates are rejected", func(t *testing.T) {
		payload := invoicePayload("INV-BAD")
		payload["due_date"] = "31/01/2024"
		w := doJSON(t, router, http.MethodPost, "/api/invoices", payload)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("non-numeric id is 400", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/invoices/abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("delete succeeds and get turns 404", func(t *testing.T) {
		w := doJSON(t, router, http.MethodDelete, "/api/invoices/1", nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, router, http.MethodGet, "/api/invoices/1", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestExportEndpoints(t *testing.T) {
	router := newTestRouter(t)

	t.Run("register export with no invoices is 409", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/exports/invoices/csv", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("register exports report the written path", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/invoices", invoicePayload("INV-100"))
		require.Equal(t, http.StatusCreated, w.Code)

		for _, path := range []string{"/api/exports/invoices/csv", "/api/exports/invoices/xlsx"} {
			w = doJSON(t, router, http.MethodPost, path, nil)
			require.Equal(t, http.StatusOK, w.Code, path)

			var resp struct {
				Data struct {
					Path string `json:"path"`
				} `json:"data"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.FileExists(t, resp.Data.Path)
		}
	})

	t.Run("per-invoice exports", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/invoices/1/export/pdf", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, router, http.MethodPost, "/api/invoices/1/export/items-csv", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("export for a missing invoice is 404", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/invoices/99999/export/pdf", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
