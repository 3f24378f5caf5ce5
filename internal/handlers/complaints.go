package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/egner-npc/pengaduan-masyarakat-app/internal/auth"
	"github.com/egner-npc/pengaduan-masyarakat-app/internal/models"
	"github.com/egner-npc/pengaduan-masyarakat-app/internal/services"
	pkghttp "github.com/egner-npc/pengaduan-masyarakat-app/pkg/http"
	"github.com/go-chi/chi/v5"
)

// ComplaintServiceInterface defines the interface for complaint business logic
type ComplaintServiceInterface interface {
	Create(ctx context.Context, owner *models.PublicUser, input services.ComplaintInput) (int64, error)
	ListMine(ctx context.Context, owner *models.PublicUser) ([]*models.Complaint, error)
	ListAll(ctx context.Context, identity *models.PublicUser, filter models.ComplaintFilter) ([]*models.Complaint, error)
	Get(ctx context.Context, identity *models.PublicUser, id int64) (*models.Complaint, error)
	UpdateStatus(ctx context.Context, identity *models.PublicUser, id int64, status string, response *string) error
	UpdateContent(ctx context.Context, identity *models.PublicUser, id int64, input services.ComplaintInput) error
}

// ComplaintHandler handles complaint HTTP requests. Every route runs behind the gate.
type ComplaintHandler struct {
	service ComplaintServiceInterface
	logger  *slog.Logger
}

func NewComplaintHandler(service ComplaintServiceInterface, logger *slog.Logger) *ComplaintHandler {
	return &ComplaintHandler{service: service, logger: logger}
}

// Request DTOs

type ComplaintRequest struct {
	Title    string  `json:"judul" validate:"max=255"`
	Body     string  `json:"isi_laporan" validate:"max=10000"`
	Location *string `json:"lokasi"`
	Category string  `json:"kategori" validate:"max=50"`
	PhotoURL *string `json:"foto" validate:"omitempty,max=2048"`
}

func (req ComplaintRequest) input() services.ComplaintInput {
	return services.ComplaintInput{
		Title:    req.Title,
		Body:     req.Body,
		Location: req.Location,
		Category: req.Category,
		PhotoURL: req.PhotoURL,
	}
}

type UpdateStatusRequest struct {
	Status   string  `json:"status"`
	Response *string `json:"tanggapan" validate:"omitempty,max=5000"`
}

// Response DTOs

type CreateComplaintResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	ComplaintID int64  `json:"complaintId"`
}

type ComplaintListResponse struct {
	Success    bool                `json:"success"`
	Complaints []*models.Complaint `json:"complaints"`
}

type ComplaintResponse struct {
	Success   bool              `json:"success"`
	Complaint *models.Complaint `json:"complaint"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Create handles POST /api/complaints
func (h *ComplaintHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req ComplaintRequest
	if err := pkghttp.DecodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Format data tidak valid")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	id, err := h.service.Create(r.Context(), user, req.input())
	if err != nil {
		writeServiceError(w, h.logger, err, "Gagal mengirim pengaduan. Silakan coba lagi.")
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, CreateComplaintResponse{
		Success:     true,
		Message:     "Pengaduan berhasil dikirim",
		ComplaintID: id,
	})
}

// ListMine handles GET /api/my-complaints
func (h *ComplaintHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user, ok := h.identity(w, r)
	if !ok {
		return
	}

	complaints, err := h.service.ListMine(r.Context(), user)
	if err != nil {
		writeServiceError(w, h.logger, err, "Gagal mengambil data pengaduan.")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, ComplaintListResponse{Success: true, Complaints: nonNil(complaints)})
}

// ListAll handles GET /api/complaints?status=&limit=&offset=
func (h *ComplaintHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	user, ok := h.identity(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	filter := models.ComplaintFilter{Status: models.ComplaintStatus(query.Get("status"))}

	var err error
	if filter.Limit, err = queryInt(query.Get("limit")); err != nil {
		pkghttp.WriteBadRequest(w, "Parameter limit tidak valid")
		return
	}
	if filter.Offset, err = queryInt(query.Get("offset")); err != nil {
		pkghttp.WriteBadRequest(w, "Parameter offset tidak valid")
		return
	}

	complaints, err := h.service.ListAll(r.Context(), user, filter)
	if err != nil {
		writeServiceError(w, h.logger, err, "Gagal mengambil data pengaduan.")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, ComplaintListResponse{Success: true, Complaints: nonNil(complaints)})
}

// Get handles GET /api/complaints/{id}
func (h *ComplaintHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := h.identity(w, r)
	if !ok {
		return
	}
	id, ok := complaintID(w, r)
	if !ok {
		return
	}

	complaint, err := h.service.Get(r.Context(), user, id)
	if err != nil {
		writeServiceError(w, h.logger, err, "Gagal mengambil detail pengaduan.")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, ComplaintResponse{Success: true, Complaint: complaint})
}

// UpdateStatus handles PUT /api/complaints/{id}
func (h *ComplaintHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := h.identity(w, r)
	if !ok {
		return
	}

	// role is checked before the body or id are looked at
	if err := auth.Authorize(user, auth.OpChangeComplaintStatus, nil); err != nil {
		writeServiceError(w, h.logger, err, "Gagal memperbarui status pengaduan.")
		return
	}

	id, ok := complaintID(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := pkghttp.DecodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Format data tidak valid")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.UpdateStatus(r.Context(), user, id, req.Status, req.Response); err != nil {
		writeServiceError(w, h.logger, err, "Gagal memperbarui status pengaduan.")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Status pengaduan berhasil diperbarui"})
}

// UpdateContent handles PATCH /api/complaints/{id}
func (h *ComplaintHandler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	user, ok := h.identity(w, r)
	if !ok {
		return
	}
	id, ok := complaintID(w, r)
	if !ok {
		return
	}

	var req ComplaintRequest
	if err := pkghttp.DecodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Format data tidak valid")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.UpdateContent(r.Context(), user, id, req.input()); err != nil {
		writeServiceError(w, h.logger, err, "Gagal memperbarui pengaduan.")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Pengaduan berhasil diperbarui"})
}

func (h *ComplaintHandler) identity(w http.ResponseWriter, r *http.Request) (*models.PublicUser, bool) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, auth.MsgTokenMissing)
	}
	return user, ok
}

// complaintID parses the {id} path parameter. Ids that cannot exist are reported as not found.
func complaintID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		pkghttp.WriteNotFound(w, services.MsgComplaintNotFound)
		return 0, false
	}
	return id, true
}

func queryInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func nonNil(complaints []*models.Complaint) []*models.Complaint {
	if complaints == nil {
		return []*models.Complaint{}
	}
	return complaints
}
