package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Attachment owner types.
const (
	AttachmentOwnerInvoice = "Invoice"
	AttachmentOwnerExpense = "InvoiceExpense"
)

// Attachment is file metadata for a blob stored outside the database. An
// owner has at most one *active* attachment; replacing one marks the old row
// for purge instead of deleting it, so both may be enumerable during the
// grace window.
type Attachment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	OwnerType string `gorm:"size:40;not null;index:idx_attachments_owner" json:"owner_type"`
	OwnerID   uint   `gorm:"not null;index:idx_attachments_owner" json:"owner_id"`

	FileName    string `gorm:"size:255;not null" json:"file_name"`
	BlobKey     string `gorm:"size:64;uniqueIndex;not null" json:"-"`
	ContentType string `gorm:"size:100;not null" json:"content_type"`
	ByteSize    int64  `gorm:"not null" json:"byte_size"`

	// ScheduledPurgeAt is nil while the attachment is active. Set when a
	// replacement supersedes it; the blob is deleted asynchronously.
	ScheduledPurgeAt *time.Time `json:"scheduled_purge_at,omitempty"`
}

// Active reports whether the attachment is the owner's current one.
func (a *Attachment) Active() bool {
	return a.ScheduledPurgeAt == nil
}

// ActiveAttachment returns the owner's active attachment, or nil if none.
func ActiveAttachment(db *gorm.DB, ownerType string, ownerID uint) (*Attachment, error) {
	var att Attachment
	err := db.Where("owner_type = ? AND owner_id = ? AND scheduled_purge_at IS NULL", ownerType, ownerID).
		Order("id desc").First(&att).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &att, nil
}
