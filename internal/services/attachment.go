package services

import (
	"fmt"
	"time"

	"github.com/fairbill/contractor-invoices/internal/models"
	"github.com/fairbill/contractor-invoices/internal/storage"
	"gorm.io/gorm"
)

// MaxAttachmentBytes is the upload size ceiling: 2 MiB.
const MaxAttachmentBytes = 2 * 1024 * 1024

const pdfContentType = "application/pdf"

// User-facing attachment validation messages.
const (
	MsgInvoicePDFOnly   = "Only PDF files are allowed for the invoice attachment"
	MsgInvoicePDFTooBig = "PDF file size exceeds the 2MB limit"
)

// Upload is a normalized file parameter from a request. A nil Upload, a
// blank-named empty one, and a zero-byte one all mean "no file provided".
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Empty reports whether the upload should be treated as absent. Blank and
// zero-byte inputs are deliberately indistinguishable from nil: providing
// nothing is never an error and never mutates an existing attachment.
func (u *Upload) Empty() bool {
	return u == nil || len(u.Data) == 0
}

// validateInvoicePDF checks a non-empty invoice-level upload. The content
// type check runs first so its message wins when both checks would fail.
// Returns "" when the upload is acceptable.
func validateInvoicePDF(u *Upload) string {
	if u.ContentType != pdfContentType {
		return MsgInvoicePDFOnly
	}
	if int64(len(u.Data)) > MaxAttachmentBytes {
		return MsgInvoicePDFTooBig
	}
	return ""
}

// validateExpenseFile checks a non-empty expense receipt. Receipts may be any
// content type but share the size ceiling.
func validateExpenseFile(description string, u *Upload) string {
	if int64(len(u.Data)) > MaxAttachmentBytes {
		return fmt.Sprintf("Attachment for expense %q exceeds the 2MB limit", description)
	}
	return ""
}

// replaceAttachment attaches the upload to the owner and supersedes any
// currently active attachment. The superseded blob keys are returned, NOT
// handed to the store here: a rollback of tx restores the old rows as
// active, so their blobs may only be purged after the commit.
func replaceAttachment(tx *gorm.DB, store storage.Store, ownerType string, ownerID uint, u *Upload) ([]string, error) {
	if u.Empty() {
		return nil, nil
	}

	superseded, err := supersedeAttachments(tx, ownerType, ownerID)
	if err != nil {
		return nil, err
	}

	key := storage.NewKey()
	if err := store.Put(key, u.ContentType, u.Data); err != nil {
		return nil, err
	}
	att := models.Attachment{
		OwnerType:   ownerType,
		OwnerID:     ownerID,
		FileName:    u.FileName,
		BlobKey:     key,
		ContentType: u.ContentType,
		ByteSize:    int64(len(u.Data)),
	}
	if err := tx.Create(&att).Error; err != nil {
		return nil, err
	}
	return superseded, nil
}

// supersedeAttachments marks every active attachment of the owner for purge
// and returns their blob keys for post-commit purging.
func supersedeAttachments(tx *gorm.DB, ownerType string, ownerID uint) ([]string, error) {
	var active []models.Attachment
	err := tx.Where("owner_type = ? AND owner_id = ? AND scheduled_purge_at IS NULL", ownerType, ownerID).
		Find(&active).Error
	if err != nil {
		return nil, err
	}
	now := time.Now()
	keys := make([]string, 0, len(active))
	for i := range active {
		err := tx.Model(&active[i]).Update("scheduled_purge_at", &now).Error
		if err != nil {
			return nil, err
		}
		keys = append(keys, active[i].BlobKey)
	}
	return keys, nil
}
