package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/egner-npc/pengaduan-masyarakat-app/internal/auth"
	"github.com/egner-npc/pengaduan-masyarakat-app/internal/models"
	"github.com/egner-npc/pengaduan-masyarakat-app/internal/services"
	pkghttp "github.com/egner-npc/pengaduan-masyarakat-app/pkg/http"
	pkglogger "github.com/egner-npc/pengaduan-masyarakat-app/pkg/logger"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Register(ctx context.Context, input services.RegisterInput) (int64, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
}

// AuthHandler handles registration, login and profile requests
type AuthHandler struct {
	service  AuthServiceInterface
	ipConfig *pkghttp.IPConfig
	logger   *slog.Logger
}

func NewAuthHandler(service AuthServiceInterface, ipConfig *pkghttp.IPConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service:  service,
		ipConfig: ipConfig,
		logger:   logger,
	}
}

// Request DTOs. Presence and format rules live in the service; these only
// bound field sizes.

type RegisterRequest struct {
	NIK      string  `json:"nik"`
	Name     string  `json:"nama" validate:"max=255"`
	Email    string  `json:"email" validate:"max=255"`
	Password string  `json:"password"`
	Phone    *string `json:"telepon" validate:"omitempty,max=32"`
	Address  *string `json:"alamat" validate:"omitempty,max=1000"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"max=255"`
	Password string `json:"password"`
}

// Response DTOs

type RegisterResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	UserID  int64  `json:"userId"`
}

type LoginResponse struct {
	Success   bool               `json:"success"`
	Message   string             `json:"message"`
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expiresAt"`
	User      *models.PublicUser `json:"user"`
}

type ProfileResponse struct {
	Success bool               `json:"success"`
	User    *models.PublicUser `json:"user"`
}

// Register handles POST /api/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := pkghttp.DecodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Format data tidak valid")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	userID, err := h.service.Register(r.Context(), services.RegisterInput{
		NIK:      req.NIK,
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Address:  req.Address,
	})
	if err != nil {
		writeServiceError(w, h.logger, err, "Terjadi kesalahan server. Silakan coba lagi.")
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, RegisterResponse{
		Success: true,
		Message: "Registrasi berhasil",
		UserID:  userID,
	})
}

// Login handles POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := pkghttp.DecodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Format data tidak valid")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Info("login rejected",
			slog.String("email", pkglogger.SanitizedEmail(req.Email)),
			slog.String("ip", pkghttp.ExtractClientIP(r, h.ipConfig)))
		writeServiceError(w, h.logger, err, "Terjadi kesalahan server. Silakan coba lagi.")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, LoginResponse{
		Success:   true,
		Message:   "Login berhasil",
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      result.User,
	})
}

// Profile handles GET /api/profile. The identity was loaded by the gate.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, auth.MsgTokenMissing)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, ProfileResponse{
		Success: true,
		User:    user,
	})
}
