// Package services holds the invoice reconciliation engine and its
// collaborators' glue.
package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fairbill/contractor-invoices/internal/equity"
	"github.com/fairbill/contractor-invoices/internal/models"
	"github.com/fairbill/contractor-invoices/internal/storage"
	"github.com/fairbill/contractor-invoices/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MsgSplitFailed is returned when the settlement-split calculator cannot
// produce a result. The calculator is a hard dependency.
const MsgSplitFailed = "Something went wrong. Please contact the administrator."

// Flat fee applied to each reconciled invoice: 50 cents plus 1.5% of the
// total, capped at $15.00.
const (
	flatFeeBaseCents = 50
	flatFeeCapCents  = 1500
)

// ReconcileError is an expected, user-facing reconciliation failure. The
// whole transaction has been rolled back; Message is one human-readable
// sentence. Anything else that comes out of Reconcile is an infrastructure
// error.
type ReconcileError struct {
	Message string
}

func (e *ReconcileError) Error() string { return e.Message }

func reconcileErr(msg string) error { return &ReconcileError{Message: msg} }

// IsReconcileError reports whether err is an expected reconciliation failure.
func IsReconcileError(err error) bool {
	var re *ReconcileError
	return errors.As(err, &re)
}

// LineItemEdit is one incoming line-item change. A zero ID means a new item;
// a non-zero ID is matched against the invoice's persisted items.
type LineItemEdit struct {
	ID           uint    `json:"id,omitempty"`
	Description  string  `json:"description"`
	Quantity     float64 `json:"quantity"`
	PayRateCents int64   `json:"pay_rate_cents"`
	Hourly       bool    `json:"hourly"`
}

// ExpenseEdit is one incoming expense change, optionally carrying its own
// receipt file.
type ExpenseEdit struct {
	ID          uint    `json:"id,omitempty"`
	Description string  `json:"description"`
	CategoryID  uint    `json:"category_id"`
	TotalCents  int64   `json:"total_cents"`
	Attachment  *Upload `json:"-"`
}

// ReconcileRequest is a complete create-or-update edit for one invoice.
// Acting-context identities are explicit parameters, never ambient state.
type ReconcileRequest struct {
	InvoiceID uint // zero means create a new invoice

	UserID       uint
	CompanyID    uint
	ContractorID uint

	InvoiceDate time.Time // zero means today
	Number      string    // blank means recommend the next number
	Notes       string

	LineItems []LineItemEdit
	Expenses  []ExpenseEdit

	// InvoicePDF is the optional invoice-level attachment. Nil, blank, and
	// zero-byte uploads are all treated as "nothing provided".
	InvoicePDF *Upload
}

// InvoiceService runs the reconciliation-and-settlement transaction.
type InvoiceService struct {
	db    *gorm.DB
	store storage.Store
	calc  equity.Calculator
}

func NewInvoiceService(db *gorm.DB, store storage.Store, calc equity.Calculator) *InvoiceService {
	return &InvoiceService{db: db, store: store, calc: calc}
}

// Reconcile applies the edit to the invoice aggregate as one atomic unit:
// line-item diff, expense diff, settlement split, attachment replacement,
// and persistence all commit together or not at all. On failure the returned
// error is either a *ReconcileError with a user-facing message or an
// infrastructure error; either way nothing was persisted.
//
// Two concurrent reconciliations of the same invoice are not coordinated
// here; the database transaction is the only isolation, so the later commit
// can overwrite the earlier one (no version check).
func (s *InvoiceService) Reconcile(req ReconcileRequest) (*models.Invoice, error) {
	var inv *models.Invoice
	var superseded []string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		inv, superseded, err = s.reconcile(tx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	// Purge is enqueued only after the commit: a rollback restores superseded
	// attachment rows as active, and their blobs must stay readable.
	for _, key := range superseded {
		s.store.SchedulePurge(key)
	}
	return inv, nil
}

// reconcile runs inside the transaction and returns the blob keys of every
// attachment it superseded; the caller purges them once the commit lands.
func (s *InvoiceService) reconcile(tx *gorm.DB, req ReconcileRequest) (*models.Invoice, []string, error) {
	var user models.User
	if err := tx.First(&user, req.UserID).Error; err != nil {
		return nil, nil, fmt.Errorf("load acting user %d: %w", req.UserID, err)
	}

	inv := &models.Invoice{}
	if req.InvoiceID != 0 {
		err := tx.Preload("LineItems").Preload("Expenses").First(inv, req.InvoiceID).Error
		if err != nil {
			return nil, nil, fmt.Errorf("load invoice %d: %w", req.InvoiceID, err)
		}
		if !inv.Editable() {
			return nil, nil, reconcileErr(fmt.Sprintf("Invoice %s can no longer be edited", inv.Number))
		}
	}

	inv.UserID = req.UserID
	inv.CompanyID = req.CompanyID
	inv.ContractorID = req.ContractorID
	inv.Status = models.InvoiceStatusReceived
	inv.Notes = req.Notes
	inv.InvoiceDate = req.InvoiceDate
	if inv.InvoiceDate.IsZero() {
		inv.InvoiceDate = time.Now()
	}
	inv.StreetAddress = user.StreetAddress
	inv.City = user.City
	inv.ZipCode = user.ZipCode
	inv.CountryCode = user.CountryCode
	inv.Number = strings.TrimSpace(req.Number)
	if inv.Number == "" {
		number, err := RecommendInvoiceNumber(tx, req.ContractorID)
		if err != nil {
			return nil, nil, err
		}
		inv.Number = number
	}

	items, removedItemIDs, itemCents := diffLineItems(inv.LineItems, req.LineItems)
	expenses, receipts, removedExpenseIDs, expenseCents := diffExpenses(inv.Expenses, req.Expenses)
	totalCents := itemCents + expenseCents

	// Receipts are validated here, in expense-reconciliation order; they are
	// attached after their rows exist.
	for i := range expenses {
		if receipts[i].Empty() {
			continue
		}
		if msg := validateExpenseFile(expenses[i].Description, receipts[i]); msg != "" {
			return nil, nil, reconcileErr(msg)
		}
	}

	serviceCents := totalCents - expenseCents
	split, err := s.calc.Split(req.ContractorID, req.CompanyID, serviceCents, inv.InvoiceDate.Year())
	if err != nil {
		return nil, nil, fmt.Errorf("settlement split: %w", err)
	}
	if split == nil {
		return nil, nil, reconcileErr(MsgSplitFailed)
	}

	inv.TotalAmountCents = totalCents
	inv.EquityAmountCents = split.EquityCents
	inv.CashAmountCents = totalCents - split.EquityCents
	inv.EquityOptionCount = split.EquityOptionCount
	inv.EquityPercentage = split.EquityPercentage
	inv.FlatFeeCents = flatFeeCents(totalCents)

	if !req.InvoicePDF.Empty() {
		if msg := validateInvoicePDF(req.InvoicePDF); msg != "" {
			return nil, nil, reconcileErr(msg)
		}
	}

	v := make(validation.Violations)
	validateInvoice(inv, items, expenses, v)
	if !v.Empty() {
		return nil, nil, reconcileErr(v.Sentence())
	}

	// Persist the aggregate. Children are managed explicitly below, so the
	// invoice row is saved without association writes.
	inv.LineItems = nil
	inv.Expenses = nil
	if err := tx.Omit(clause.Associations).Save(inv).Error; err != nil {
		return nil, nil, fmt.Errorf("save invoice: %w", err)
	}

	if len(removedItemIDs) > 0 {
		if err := tx.Delete(&models.InvoiceLineItem{}, removedItemIDs).Error; err != nil {
			return nil, nil, fmt.Errorf("remove line items: %w", err)
		}
	}
	for i := range items {
		items[i].InvoiceID = inv.ID
		if err := tx.Save(&items[i]).Error; err != nil {
			return nil, nil, fmt.Errorf("save line item: %w", err)
		}
	}

	var superseded []string
	for _, id := range removedExpenseIDs {
		keys, err := supersedeAttachments(tx, models.AttachmentOwnerExpense, id)
		if err != nil {
			return nil, nil, fmt.Errorf("supersede expense attachments: %w", err)
		}
		superseded = append(superseded, keys...)
	}
	if len(removedExpenseIDs) > 0 {
		if err := tx.Delete(&models.InvoiceExpense{}, removedExpenseIDs).Error; err != nil {
			return nil, nil, fmt.Errorf("remove expenses: %w", err)
		}
	}
	for i := range expenses {
		expenses[i].InvoiceID = inv.ID
		if err := tx.Omit(clause.Associations).Save(&expenses[i]).Error; err != nil {
			return nil, nil, fmt.Errorf("save expense: %w", err)
		}
		keys, err := replaceAttachment(tx, s.store, models.AttachmentOwnerExpense, expenses[i].ID, receipts[i])
		if err != nil {
			return nil, nil, fmt.Errorf("attach expense receipt: %w", err)
		}
		superseded = append(superseded, keys...)
	}

	keys, err := replaceAttachment(tx, s.store, models.AttachmentOwnerInvoice, inv.ID, req.InvoicePDF)
	if err != nil {
		return nil, nil, fmt.Errorf("attach invoice pdf: %w", err)
	}
	superseded = append(superseded, keys...)

	inv.LineItems = items
	inv.Expenses = expenses
	return inv, superseded, nil
}

// diffLineItems merges incoming edits into the currently loaded items by
// identity. A matching edit updates the persisted item in place, a
// non-matching one creates a new item, and loaded items with no
// corresponding edit are returned as removal candidates. The running total
// accumulates every kept item.
func diffLineItems(current []models.InvoiceLineItem, edits []LineItemEdit) (kept []models.InvoiceLineItem, removed []uint, totalCents int64) {
	existing := make(map[uint]*models.InvoiceLineItem, len(current))
	for i := range current {
		existing[current[i].ID] = &current[i]
	}

	kept = make([]models.InvoiceLineItem, 0, len(edits))
	for _, edit := range edits {
		var item models.InvoiceLineItem
		if cur, ok := existing[edit.ID]; edit.ID != 0 && ok {
			item = *cur
			delete(existing, edit.ID)
		}
		item.Description = edit.Description
		item.Quantity = edit.Quantity
		item.PayRateCents = edit.PayRateCents
		item.Hourly = edit.Hourly
		kept = append(kept, item)
		totalCents += item.TotalCents()
	}

	for id := range existing {
		removed = append(removed, id)
	}
	return kept, removed, totalCents
}

// diffExpenses applies the same diff-by-identity merge to expenses. The
// attachment is deliberately excluded from the attribute copy; receipts are
// returned in a slice parallel to kept and handled separately. Both the
// running total contribution and the expenses-only subtotal equal
// expenseCents.
func diffExpenses(current []models.InvoiceExpense, edits []ExpenseEdit) (kept []models.InvoiceExpense, receipts []*Upload, removed []uint, expenseCents int64) {
	existing := make(map[uint]*models.InvoiceExpense, len(current))
	for i := range current {
		existing[current[i].ID] = &current[i]
	}

	kept = make([]models.InvoiceExpense, 0, len(edits))
	receipts = make([]*Upload, 0, len(edits))
	for _, edit := range edits {
		var exp models.InvoiceExpense
		if cur, ok := existing[edit.ID]; edit.ID != 0 && ok {
			exp = *cur
			delete(existing, edit.ID)
		}
		exp.Description = edit.Description
		exp.ExpenseCategoryID = edit.CategoryID
		exp.TotalCents = edit.TotalCents
		exp.Category = nil
		kept = append(kept, exp)
		receipts = append(receipts, edit.Attachment)
		expenseCents += exp.TotalCents
	}

	for id := range existing {
		removed = append(removed, id)
	}
	return kept, receipts, removed, expenseCents
}

func validateInvoice(inv *models.Invoice, items []models.InvoiceLineItem, expenses []models.InvoiceExpense, v validation.Violations) {
	validation.Required("Invoice number", inv.Number, v)
	validation.RequiredID("Company", inv.CompanyID, v)
	validation.RequiredID("Contractor", inv.ContractorID, v)
	validation.NonNegativeCents("Total amount", inv.TotalAmountCents, v)
	validation.MaxLen("Notes", inv.Notes, 2000, v)
	for i := range items {
		validation.Required("Line item description", items[i].Description, v)
		validation.PositiveFloat("Line item quantity", items[i].Quantity, v)
		validation.NonNegativeCents("Line item rate", items[i].PayRateCents, v)
	}
	for i := range expenses {
		validation.Required("Expense description", expenses[i].Description, v)
		validation.RequiredID("Expense category", expenses[i].ExpenseCategoryID, v)
		validation.NonNegativeCents("Expense amount", expenses[i].TotalCents, v)
	}
}

// flatFeeCents derives the processing fee for a reconciled total.
func flatFeeCents(totalCents int64) int64 {
	fee := int64(flatFeeBaseCents) + (totalCents*15+500)/1000 // 1.5%, rounded
	if fee > flatFeeCapCents {
		return flatFeeCapCents
	}
	return fee
}

// RecommendInvoiceNumber suggests the next invoice number for a contractor:
// one past the highest numeric invoice number they have used, starting at
// "1". Non-numeric numbers are ignored.
func RecommendInvoiceNumber(db *gorm.DB, contractorID uint) (string, error) {
	var numbers []string
	err := db.Model(&models.Invoice{}).Where("contractor_id = ?", contractorID).
		Pluck("number", &numbers).Error
	if err != nil {
		return "", fmt.Errorf("recommend invoice number: %w", err)
	}
	best := 0
	for _, n := range numbers {
		if v, err := strconv.Atoi(strings.TrimSpace(n)); err == nil && v > best {
			best = v
		}
	}
	return strconv.Itoa(best + 1), nil
}
