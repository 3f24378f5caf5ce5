package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/egner-npc/pengaduan-masyarakat-app/internal/auth"
	"github.com/egner-npc/pengaduan-masyarakat-app/internal/database"
	"github.com/egner-npc/pengaduan-masyarakat-app/internal/handlers"
	middlewareCustom "github.com/egner-npc/pengaduan-masyarakat-app/internal/middleware"
	"github.com/egner-npc/pengaduan-masyarakat-app/internal/repositories"
	"github.com/egner-npc/pengaduan-masyarakat-app/internal/routes"
	"github.com/egner-npc/pengaduan-masyarakat-app/internal/services"
	pkghttp "github.com/egner-npc/pengaduan-masyarakat-app/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.NewConnection(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx, "up"); err != nil {
			return err
		}
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	complaintRepo := repositories.NewComplaintRepository(db)

	// Initialize services
	authService, tokenManager, err := newAuthService(cfg, userRepo, logger)
	if err != nil {
		return err
	}
	complaintService := services.NewComplaintService(complaintRepo, logger)

	// Bootstrap first admin user if configured
	adminCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := ensureAdminUser(adminCtx, cfg, authService, logger); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
	cancel()

	// Initialize handlers
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	h := routes.Handlers{
		Health:     handlers.NewHealthHandler(db, cfg.Server.Env, version, logger),
		Auth:       handlers.NewAuthHandler(authService, ipConfig, logger),
		Complaints: handlers.NewComplaintHandler(complaintService, logger),
	}
	gate := auth.NewGate(tokenManager, userRepo, logger)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger, ipConfig))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	routes.RegisterRoutes(router, h, gate)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Graceful shutdown
	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
