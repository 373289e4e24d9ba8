package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSignupValidation(t *testing.T) {
	conn := setupInvoiceTestDB(t)
	h := NewAuthHandler(conn)

	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(`{"email": "  ", "password": "short"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.Signup(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Success      bool              `json:"success"`
		ErrorMessage string            `json:"error_message"`
		Details      map[string]string `json:"details"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success {
		t.Errorf("validation failure must not report success")
	}
	if resp.Details["Email"] != "can't be blank" {
		t.Errorf("missing email violation: %v", resp.Details)
	}
	if resp.Details["Password"] != "must be at least 8 characters" {
		t.Errorf("missing password violation: %v", resp.Details)
	}
	if !strings.Contains(resp.ErrorMessage, "Email can't be blank") {
		t.Errorf("message should flatten violations, got %q", resp.ErrorMessage)
	}
}

func TestSignupAndDuplicateEmail(t *testing.T) {
	conn := setupInvoiceTestDB(t)
	h := NewAuthHandler(conn)

	signup := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(`{"email": "new@test", "password": "longenough"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		h.Signup(w, req)
		return w
	}

	if w := signup(); w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	if w := signup(); w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d body=%s", w.Code, w.Body.String())
	}
}
