package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/egner-npc/pengaduan-masyarakat-app/internal/models"
	pkghttp "github.com/egner-npc/pengaduan-masyarakat-app/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const userContextKey contextKey = "user"

// Rejection messages shown to the mobile client
const (
	MsgTokenMissing   = "Token tidak ditemukan. Silakan login kembali."
	MsgTokenBadFormat = "Format token tidak valid."
	MsgTokenExpired   = "Token telah kadaluarsa. Silakan login kembali."
	MsgTokenInvalid   = "Token tidak valid."
	MsgUserNotFound   = "User tidak ditemukan."
	MsgAuthInternal   = "Terjadi kesalahan dalam autentikasi."
)

// TokenVerifier verifies bearer tokens
type TokenVerifier interface {
	Verify(tokenString string) (*models.TokenClaims, error)
}

// UserRepository fetches the current state of a user
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// Gate authenticates requests on protected routes
type Gate struct {
	tokens TokenVerifier
	users  UserRepository
	logger *slog.Logger
}

func NewGate(tokens TokenVerifier, users UserRepository, logger *slog.Logger) *Gate {
	return &Gate{tokens: tokens, users: users, logger: logger}
}

// Authenticate resolves the identity behind the request's bearer token.
// Only the subject id is taken from the token; role and email come from the store.
func (g *Gate) Authenticate(r *http.Request) (*models.PublicUser, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, models.NewError(models.ErrUnauthenticated, MsgTokenMissing)
	}

	tokenString, err := BearerToken(authHeader)
	if err != nil {
		return nil, err
	}

	claims, err := g.tokens.Verify(tokenString)
	if err != nil {
		g.logger.Info("token rejected", slog.Any("error", err))
		if errors.Is(err, ErrTokenExpired) {
			return nil, models.NewError(models.ErrUnauthenticated, MsgTokenExpired)
		}
		return nil, models.NewError(models.ErrUnauthenticated, MsgTokenInvalid)
	}

	user, err := g.users.GetByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			g.logger.Info("token subject no longer exists", slog.Int64("user_id", claims.UserID))
			return nil, models.NewError(models.ErrForbidden, MsgUserNotFound)
		}
		g.logger.Error("failed to load token subject", slog.Int64("user_id", claims.UserID), slog.Any("error", err))
		return nil, models.NewError(models.ErrInternalServer, MsgAuthInternal)
	}

	return user.Public(), nil
}

// Middleware rejects unauthenticated requests before next runs
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := g.Authenticate(r)
		if err != nil {
			writeGateError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value
func BearerToken(authHeader string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(authHeader), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" || strings.ContainsAny(token, " \t") {
		return "", models.NewError(models.ErrUnauthenticated, MsgTokenBadFormat)
	}
	return token, nil
}

// WithUser stores the authenticated identity in ctx
func WithUser(ctx context.Context, user *models.PublicUser) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// CurrentUser returns the identity stored by the Gate
func CurrentUser(ctx context.Context) (*models.PublicUser, bool) {
	user, ok := ctx.Value(userContextKey).(*models.PublicUser)
	return user, ok && user != nil
}

func writeGateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrUnauthenticated):
		pkghttp.WriteUnauthorized(w, models.MessageOf(err, MsgTokenInvalid))
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, models.MessageOf(err, "Akses ditolak."))
	default:
		pkghttp.WriteInternalError(w, MsgAuthInternal)
	}
}
