package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/egner-npc/pengaduan-masyarakat-app/internal/models"
	pkghttp "github.com/egner-npc/pengaduan-masyarakat-app/pkg/http"
)

// writeServiceError maps an error kind to its HTTP status. fallback is the
// message used for internal failures and for kinds that carry no message.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		pkghttp.WriteBadRequest(w, models.MessageOf(err, "Data tidak valid"))
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, models.MessageOf(err, "Data sudah terdaftar"))
	case errors.Is(err, models.ErrInvalidCredentials):
		pkghttp.WriteUnauthorized(w, models.MessageOf(err, "Email atau password salah"))
	case errors.Is(err, models.ErrUnauthenticated):
		pkghttp.WriteUnauthorized(w, models.MessageOf(err, "Token tidak valid."))
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, models.MessageOf(err, "Akses ditolak. Anda tidak memiliki izin."))
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, models.MessageOf(err, "Data tidak ditemukan"))
	default:
		if !errors.Is(err, models.ErrInternalServer) {
			logger.Error("unhandled service error", slog.Any("error", err))
		}
		pkghttp.WriteInternalError(w, fallback)
	}
}
