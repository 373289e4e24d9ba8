package services

import (
	"bytes"
	"strings"
	"testing"
)

func TestUploadEmpty(t *testing.T) {
	tests := []struct {
		name   string
		upload *Upload
		want   bool
	}{
		{"nil", nil, true},
		{"blank", &Upload{}, true},
		{"zero byte with name", &Upload{FileName: "invoice.pdf", ContentType: "application/pdf"}, true},
		{"real upload", &Upload{FileName: "invoice.pdf", ContentType: "application/pdf", Data: []byte("%PDF")}, false},
		{"nameless but with bytes", &Upload{Data: []byte("x")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.upload.Empty(); got != tt.want {
				t.Errorf("Empty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateInvoicePDF(t *testing.T) {
	pdf := func(size int) *Upload {
		return &Upload{FileName: "inv.pdf", ContentType: "application/pdf", Data: bytes.Repeat([]byte("a"), size)}
	}

	t.Run("accepts pdf under limit", func(t *testing.T) {
		if msg := validateInvoicePDF(pdf(1024)); msg != "" {
			t.Errorf("unexpected rejection: %q", msg)
		}
	})

	t.Run("accepts exactly 2MiB", func(t *testing.T) {
		if msg := validateInvoicePDF(pdf(MaxAttachmentBytes)); msg != "" {
			t.Errorf("2MiB file should be accepted, got %q", msg)
		}
	})

	t.Run("rejects 2MiB plus one byte", func(t *testing.T) {
		msg := validateInvoicePDF(pdf(MaxAttachmentBytes + 1))
		if msg != MsgInvoicePDFTooBig {
			t.Errorf("got %q, want %q", msg, MsgInvoicePDFTooBig)
		}
	})

	t.Run("rejects non-pdf content type", func(t *testing.T) {
		u := &Upload{FileName: "photo.jpg", ContentType: "image/jpeg", Data: []byte("jpegdata")}
		if msg := validateInvoicePDF(u); msg != MsgInvoicePDFOnly {
			t.Errorf("got %q, want %q", msg, MsgInvoicePDFOnly)
		}
	})

	t.Run("content type check wins when both fail", func(t *testing.T) {
		u := &Upload{FileName: "big.jpg", ContentType: "image/jpeg", Data: bytes.Repeat([]byte("a"), MaxAttachmentBytes+1)}
		if msg := validateInvoicePDF(u); msg != MsgInvoicePDFOnly {
			t.Errorf("got %q, want %q", msg, MsgInvoicePDFOnly)
		}
	})
}

func TestValidateExpenseFile(t *testing.T) {
	small := &Upload{FileName: "receipt.jpg", ContentType: "image/jpeg", Data: []byte("jpegdata")}
	if msg := validateExpenseFile("Taxi", small); msg != "" {
		t.Errorf("any content type should be accepted for receipts, got %q", msg)
	}

	big := &Upload{FileName: "receipt.jpg", ContentType: "image/jpeg", Data: bytes.Repeat([]byte("a"), MaxAttachmentBytes+1)}
	msg := validateExpenseFile("Taxi", big)
	if msg == "" || !strings.Contains(msg, "Taxi") || !strings.Contains(msg, "2MB") {
		t.Errorf("oversized receipt should be rejected with a named message, got %q", msg)
	}
}
