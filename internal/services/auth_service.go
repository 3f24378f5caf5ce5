package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/egner-npc/pengaduan-masyarakat-app/internal/models"
	pkgauth "github.com/egner-npc/pengaduan-masyarakat-app/pkg/auth"
	pkglogger "github.com/egner-npc/pengaduan-masyarakat-app/pkg/logger"
	"github.com/go-playground/validator/v10"
)

// Client-facing messages for authentication failures
const (
	MsgRegisterRequired   = "Semua field wajib diisi: NIK, Nama, Email, Password"
	MsgNIKLength          = "NIK harus 16 digit"
	MsgEmailInvalid       = "Format email tidak valid"
	MsgPasswordLength     = "Password minimal 6 karakter dan maksimal 72 karakter"
	MsgAlreadyRegistered  = "Email atau NIK sudah terdaftar"
	MsgLoginRequired      = "Email dan password wajib diisi"
	MsgInvalidCredentials = "Email atau password salah"
)

// CredentialStore is the user storage the authentication service needs
type CredentialStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmailOrNIK(ctx context.Context, email, nik string) (bool, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
}

// TokenIssuer signs session tokens for a user
type TokenIssuer interface {
	Issue(user *models.PublicUser) (string, time.Time, error)
}

// CredentialChecker compares a login secret with a user's digest. It must be
// called with a nil user for unknown accounts.
type CredentialChecker interface {
	Check(user *models.User, password string) bool
}

// RegisterInput carries the fields of a new account
type RegisterInput struct {
	NIK      string
	Name     string
	Email    string
	Password string
	Phone    *string
	Address  *string
}

// LoginResult is a freshly issued session
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.PublicUser
}

// AuthService handles registration and login
type AuthService struct {
	repo     CredentialStore
	hasher   *pkgauth.PasswordHasher
	checker  CredentialChecker
	tokens   TokenIssuer
	validate *validator.Validate
	logger   *slog.Logger
}

func NewAuthService(repo CredentialStore, hasher *pkgauth.PasswordHasher, checker CredentialChecker, tokens TokenIssuer, logger *slog.Logger) *AuthService {
	return &AuthService{
		repo:     repo,
		hasher:   hasher,
		checker:  checker,
		tokens:   tokens,
		validate: validator.New(),
		logger:   logger,
	}
}

// Register creates a citizen account and returns its id
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (int64, error) {
	user, err := s.createAccount(ctx, input, models.RoleCitizen)
	if err != nil {
		return 0, err
	}

	s.logger.Info("user registered", slog.Int64("user_id", user.ID))
	return user.ID, nil
}

// CreateAdmin creates an admin account with the same checks as Register
func (s *AuthService) CreateAdmin(ctx context.Context, input RegisterInput) (*models.PublicUser, error) {
	user, err := s.createAccount(ctx, input, models.RoleAdmin)
	if err != nil {
		return nil, err
	}

	s.logger.Info("admin account created",
		slog.Int64("user_id", user.ID),
		slog.String("email", pkglogger.SanitizedEmail(user.Email)))
	return user.Public(), nil
}

// Startup admin seeding failures that a retry cannot fix
var (
	ErrAdminEmailNotAdmin = errors.New("admin email belongs to a non-admin account")
	ErrAdminNIKTaken      = errors.New("admin NIK belongs to another account")
)

// EnsureAdmin creates the admin account unless an admin with the same email
// already exists. created is false when the existing admin was kept.
func (s *AuthService) EnsureAdmin(ctx context.Context, input RegisterInput) (created bool, err error) {
	_, err = s.CreateAdmin(ctx, input)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, models.ErrConflict) {
		return false, err
	}

	existing, lookupErr := s.repo.GetByEmail(ctx, normalizeEmail(input.Email))
	switch {
	case errors.Is(lookupErr, models.ErrNotFound):
		return false, ErrAdminNIKTaken
	case lookupErr != nil:
		return false, fmt.Errorf("failed to look up admin: %w", lookupErr)
	case !existing.Role.IsAdmin():
		return false, ErrAdminEmailNotAdmin
	}
	return false, nil
}

func (s *AuthService) createAccount(ctx context.Context, input RegisterInput, role models.Role) (*models.User, error) {
	input.NIK = strings.TrimSpace(input.NIK)
	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)

	if err := s.validateRegistration(input); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByEmailOrNIK(ctx, input.Email, input.NIK)
	if err != nil {
		s.logger.Error("failed to check existing user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if exists {
		s.logger.Info("registration failed: email or nik already registered")
		return nil, models.NewError(models.ErrConflict, MsgAlreadyRegistered)
	}

	digest, err := s.hasher.Hash(input.Password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user, err := s.repo.Create(ctx, &models.User{
		NIK:          input.NIK,
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: digest,
		Phone:        emptyToNil(input.Phone),
		Address:      emptyToNil(input.Address),
		Role:         role,
	})
	if err != nil {
		// the unique constraints win a race the pre-check lost
		if errors.Is(err, models.ErrConflict) {
			s.logger.Info("registration lost a uniqueness race")
			return nil, models.NewError(models.ErrConflict, MsgAlreadyRegistered)
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return user, nil
}

func (s *AuthService) validateRegistration(input RegisterInput) error {
	if input.NIK == "" || input.Name == "" || input.Email == "" || input.Password == "" {
		return models.Validation(MsgRegisterRequired)
	}
	if utf8.RuneCountInString(input.NIK) != models.NIKLength {
		return models.Validation(MsgNIKLength)
	}
	if err := s.validate.Var(input.Email, "email"); err != nil {
		return models.Validation(MsgEmailInvalid)
	}
	if n := utf8.RuneCountInString(input.Password); n < pkgauth.MinPasswordLen || len(input.Password) > pkgauth.MaxPasswordLen {
		return models.Validation(MsgPasswordLength)
	}
	return nil
}

// Login checks credentials and issues a session token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, models.Validation(MsgLoginRequired)
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !s.checker.Check(user, password) {
		s.logger.Info("login failed: invalid credentials",
			slog.String("email", pkglogger.SanitizedEmail(email)))
		return nil, models.NewError(models.ErrInvalidCredentials, MsgInvalidCredentials)
	}

	if cost, err := pkgauth.DigestCost(user.PasswordHash); err == nil && cost < s.hasher.Cost() {
		s.logger.Info("password digest below configured cost",
			slog.Int64("user_id", user.ID), slog.Int("digest_cost", cost))
	}

	public := user.Public()
	token, expiresAt, err := s.tokens.Issue(public)
	if err != nil {
		s.logger.Error("failed to issue token", slog.Int64("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user logged in", slog.Int64("user_id", user.ID))

	return &LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      public,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func emptyToNil(s *string) *string {
	if s == nil {
		return nil
	}
	if v := strings.TrimSpace(*s); v != "" {
		return &v
	}
	return nil
}
