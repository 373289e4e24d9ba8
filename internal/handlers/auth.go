package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/fairbill/contractor-invoices/auth"
	"github.com/fairbill/contractor-invoices/httpx"
	"github.com/fairbill/contractor-invoices/internal/models"
	"github.com/fairbill/contractor-invoices/validation"
	"gorm.io/gorm"
)

// AuthHandler serves signup, login, and logout.
type AuthHandler struct {
	db *gorm.DB
}

func NewAuthHandler(db *gorm.DB) *AuthHandler {
	return &AuthHandler{db: db}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup: POST /signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	creds.Email = strings.ToLower(strings.TrimSpace(creds.Email))
	v := make(validation.Violations)
	validation.Required("Email", creds.Email, v)
	if len(creds.Password) < 8 {
		v["Password"] = "must be at least 8 characters"
	}
	if !v.Empty() {
		httpx.ErrorDetails(w, http.StatusUnprocessableEntity, v.Sentence(), v)
		return
	}
	hash, err := auth.HashPassword(creds.Password)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to create account")
		return
	}
	user := models.User{Email: creds.Email, PasswordHash: hash}
	if err := h.db.Create(&user).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "UNIQUE") {
			httpx.Error(w, http.StatusConflict, "email already registered")
			return
		}
		httpx.Error(w, http.StatusInternalServerError, "failed to create account")
		return
	}
	auth.CreateSession(w, user.ID)
	httpx.Created(w, map[string]any{"success": true, "user": user})
}

// Login: POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	var user models.User
	err := h.db.Where("email = ?", strings.ToLower(strings.TrimSpace(creds.Email))).First(&user).Error
	if err != nil || !auth.CheckPassword(user.PasswordHash, creds.Password) {
		httpx.Error(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	auth.CreateSession(w, user.ID)
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "user": user})
}

// Logout: POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	httpx.NoContent(w)
}
