// Package handlers exposes the JSON API over the invoice services.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fairbill/contractor-invoices/auth"
	"github.com/fairbill/contractor-invoices/httpx"
	"github.com/fairbill/contractor-invoices/internal/models"
	"github.com/fairbill/contractor-invoices/internal/services"
	"gorm.io/gorm"
)

const maxMultipartMemory = 32 << 20

// InvoiceHandler serves invoice CRUD. Create and Update delegate to the
// reconciliation engine; everything here is parsing and scoping.
type InvoiceHandler struct {
	db  *gorm.DB
	svc *services.InvoiceService
}

func NewInvoiceHandler(db *gorm.DB, svc *services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{db: db, svc: svc}
}

// invoicePayload is the inbound request body. In multipart requests it
// arrives JSON-encoded in the "data" field with files as separate parts.
type invoicePayload struct {
	Invoice struct {
		ContractorID uint   `json:"contractor_id"`
		Date         string `json:"date"`
		Number       string `json:"number"`
		Notes        string `json:"notes"`
		// EquityPercentage is advisory: reconciliation always overwrites it
		// with the settlement-split calculator's output.
		EquityPercentage int `json:"equity_percentage"`
	} `json:"invoice"`
	LineItems []services.LineItemEdit `json:"invoice_line_items"`
	Expenses  []services.ExpenseEdit  `json:"invoice_expenses"`
}

// List: GET /invoices
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	offset := 0
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			offset = (n - 1) * limit
		}
	}

	// The chain is not reused across Count and Find; each gets a fresh
	// session so neither accumulates the other's clauses.
	base := h.db.Model(&models.Invoice{}).Where("user_id = ?", userID)
	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to list invoices")
		return
	}
	var invs []models.Invoice
	if err := base.Session(&gorm.Session{}).Order("id desc").Limit(limit).Offset(offset).Find(&invs).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to list invoices")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": invs, "total": total, "limit": limit, "offset": offset})
}

// Get: GET /invoices/{id}
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	inv, ok := h.findInvoice(w, r, userID, true)
	if !ok {
		return
	}
	att, err := models.ActiveAttachment(h.db, models.AttachmentOwnerInvoice, inv.ID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to load invoice")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "invoice": inv, "attachment": att})
}

// Create: POST /invoices
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.reconcile(w, r, 0)
}

// Update: POST /invoices/{id}
func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	inv, ok := h.findInvoice(w, r, userID, false)
	if !ok {
		return
	}
	h.reconcile(w, r, inv.ID)
}

// Delete: POST /invoices/{id}/delete — soft delete.
func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	inv, ok := h.findInvoice(w, r, userID, false)
	if !ok {
		return
	}
	if err := h.db.Delete(inv).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to delete invoice")
		return
	}
	httpx.NoContent(w)
}

func (h *InvoiceHandler) reconcile(w http.ResponseWriter, r *http.Request, invoiceID uint) {
	userID, _ := auth.UserIDFromContext(r.Context())

	payload, invoicePDF, err := parsePayload(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	// The contractor engagement must belong to the acting user; the company
	// follows from it.
	var contractor models.Contractor
	if err := h.db.First(&contractor, payload.Invoice.ContractorID).Error; err != nil {
		httpx.Error(w, http.StatusNotFound, "contractor not found")
		return
	}
	if contractor.UserID != userID {
		httpx.Error(w, http.StatusNotFound, "contractor not found")
		return
	}

	var date time.Time
	if payload.Invoice.Date != "" {
		date, err = time.Parse("2006-01-02", payload.Invoice.Date)
		if err != nil {
			httpx.Error(w, http.StatusBadRequest, "invalid invoice date")
			return
		}
	}

	req := services.ReconcileRequest{
		InvoiceID:    invoiceID,
		UserID:       userID,
		CompanyID:    contractor.CompanyID,
		ContractorID: contractor.ID,
		InvoiceDate:  date,
		Number:       payload.Invoice.Number,
		Notes:        payload.Invoice.Notes,
		LineItems:    payload.LineItems,
		Expenses:     payload.Expenses,
		InvoicePDF:   invoicePDF,
	}

	inv, err := h.svc.Reconcile(req)
	if err != nil {
		if services.IsReconcileError(err) {
			httpx.Error(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		httpx.Error(w, http.StatusInternalServerError, "failed to save invoice")
		return
	}

	status := http.StatusOK
	if invoiceID == 0 {
		status = http.StatusCreated
	}
	httpx.JSON(w, status, map[string]any{"success": true, "invoice": inv})
}

// findInvoice loads a path-addressed invoice scoped to the acting user.
func (h *InvoiceHandler) findInvoice(w http.ResponseWriter, r *http.Request, userID uint, preload bool) (*models.Invoice, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		httpx.Error(w, http.StatusBadRequest, "invalid invoice id")
		return nil, false
	}
	q := h.db.Where("user_id = ?", userID)
	if preload {
		q = q.Preload("LineItems").Preload("Expenses").Preload("Expenses.Category")
	}
	var inv models.Invoice
	if err := q.First(&inv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.Error(w, http.StatusNotFound, "invoice not found")
		} else {
			httpx.Error(w, http.StatusInternalServerError, "failed to load invoice")
		}
		return nil, false
	}
	return &inv, true
}

// parsePayload decodes the request body. JSON bodies carry no files;
// multipart bodies put the JSON payload in "data" and files in "invoice_pdf"
// and "invoice_expenses[i][attachment]" parts.
func parsePayload(r *http.Request) (*invoicePayload, *services.Upload, error) {
	ct := r.Header.Get("Content-Type")

	var payload invoicePayload
	if strings.Contains(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return nil, nil, errors.New("invalid multipart body")
		}
		if err := json.Unmarshal([]byte(r.FormValue("data")), &payload); err != nil {
			return nil, nil, errors.New("invalid payload json")
		}
		pdf, err := readUpload(r, "invoice_pdf")
		if err != nil {
			return nil, nil, err
		}
		for i := range payload.Expenses {
			field := fmt.Sprintf("invoice_expenses[%d][attachment]", i)
			receipt, err := readUpload(r, field)
			if err != nil {
				return nil, nil, err
			}
			payload.Expenses[i].Attachment = receipt
		}
		return &payload, pdf, nil
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return nil, nil, errors.New("invalid json")
	}
	return &payload, nil, nil
}

// readUpload reads one optional file part. Absent parts return nil.
func readUpload(r *http.Request, field string) (*services.Upload, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: file part is malformed", field)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: unreadable file part", field)
	}
	return &services.Upload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
