package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/egner-npc/pengaduan-masyarakat-app/internal/auth"
	"github.com/egner-npc/pengaduan-masyarakat-app/internal/config"
	"github.com/egner-npc/pengaduan-masyarakat-app/internal/database"
	"github.com/egner-npc/pengaduan-masyarakat-app/internal/models"
	"github.com/egner-npc/pengaduan-masyarakat-app/internal/repositories"
	"github.com/egner-npc/pengaduan-masyarakat-app/internal/services"
	pkgauth "github.com/egner-npc/pengaduan-masyarakat-app/pkg/auth"
	pkglogger "github.com/egner-npc/pengaduan-masyarakat-app/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	createAdminCmd = &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE:  runCreateAdmin,
	}
	adminInput services.RegisterInput
)

func init() {
	flags := createAdminCmd.Flags()
	flags.StringVar(&adminInput.Email, "email", "", "admin email (required)")
	flags.StringVar(&adminInput.Password, "password", "", "admin password (required)")
	flags.StringVar(&adminInput.NIK, "nik", "", "16 digit NIK (defaults to ADMIN_NIK)")
	flags.StringVar(&adminInput.Name, "name", "", "display name (defaults to ADMIN_NAME)")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")
}

func runCreateAdmin(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}

	if adminInput.NIK == "" {
		adminInput.NIK = cfg.Admin.NIK
	}
	if adminInput.Name == "" {
		adminInput.Name = cfg.Admin.Name
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	db, err := database.NewConnection(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	authService, _, err := newAuthService(cfg, repositories.NewUserRepository(db), logger)
	if err != nil {
		return err
	}

	admin, err := authService.CreateAdmin(ctx, adminInput)
	if err != nil {
		return fmt.Errorf("failed to create admin: %s", models.MessageOf(err, err.Error()))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "admin %s created with id %d\n", admin.Email, admin.ID)
	return nil
}

// ensureAdminUser creates the configured administrator on startup if it does not exist yet.
// A conflicting non-admin account is logged and startup continues without an admin.
func ensureAdminUser(ctx context.Context, cfg *config.Config, authService *services.AuthService, logger *slog.Logger) error {
	if !cfg.Admin.AdminEnabled() {
		logger.Info("no ADMIN_EMAIL or ADMIN_PASSWORD set, skipping admin user creation")
		return nil
	}

	email := slog.String("email", pkglogger.SanitizedEmail(cfg.Admin.Email))
	created, err := authService.EnsureAdmin(ctx, services.RegisterInput{
		NIK:      cfg.Admin.NIK,
		Name:     cfg.Admin.Name,
		Email:    cfg.Admin.Email,
		Password: cfg.Admin.Password,
	})
	switch {
	case err == nil && created:
		return nil
	case err == nil:
		logger.Info("admin user already exists", email)
		return nil
	case errors.Is(err, services.ErrAdminNIKTaken):
		logger.Error("admin user not created: ADMIN_NIK is registered to another account", email)
		return nil
	case errors.Is(err, services.ErrAdminEmailNotAdmin):
		logger.Error("admin user not created: ADMIN_EMAIL is registered to a non-admin account", email)
		return nil
	default:
		return fmt.Errorf("failed to create admin user: %w", err)
	}
}

// newAuthService wires the password hasher, credential checker and token manager
func newAuthService(cfg *config.Config, users services.CredentialStore, logger *slog.Logger) (*services.AuthService, *auth.TokenManager, error) {
	hasher := pkgauth.NewPasswordHasher(cfg.Auth.BcryptCost)

	checker, err := auth.NewCredentialChecker(hasher)
	if err != nil {
		return nil, nil, err
	}

	tm := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	return services.NewAuthService(users, hasher, checker, tm, logger), tm, nil
}
