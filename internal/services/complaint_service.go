package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/egner-npc/pengaduan-masyarakat-app/internal/auth"
	"github.com/egner-npc/pengaduan-masyarakat-app/internal/models"
	"github.com/go-playground/validator/v10"
)

const (
	DefaultComplaintLimit = 50
	MaxComplaintLimit     = 100
)

// Client-facing messages for complaint failures
const (
	MsgComplaintRequired   = "Judul, isi laporan, dan kategori wajib diisi"
	MsgTitleTooShort       = "Judul minimal 5 karakter"
	MsgBodyTooShort        = "Isi laporan minimal 10 karakter"
	MsgCategoryInvalid     = "Kategori tidak valid. Pilih: infrastruktur, sosial, lingkungan, keamanan, atau lainnya"
	MsgPhotoInvalid        = "URL foto tidak valid"
	MsgStatusInvalid       = "Status tidak valid. Pilih: pending, diproses, selesai, atau ditolak"
	MsgComplaintNotFound   = "Pengaduan tidak ditemukan"
	MsgComplaintNotPending = "Pengaduan yang sudah diproses tidak dapat diubah"
)

// ComplaintRepository is the complaint storage the service needs
type ComplaintRepository interface {
	Create(ctx context.Context, c *models.Complaint) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Complaint, error)
	ListByOwner(ctx context.Context, userID int64) ([]*models.Complaint, error)
	List(ctx context.Context, filter models.ComplaintFilter) ([]*models.Complaint, error)
	UpdateStatus(ctx context.Context, id int64, status models.ComplaintStatus, response *string) error
	UpdateContent(ctx context.Context, c *models.Complaint) error
	UpdatePendingContent(ctx context.Context, c *models.Complaint) error
}

// ComplaintInput holds the citizen-editable fields of a complaint
type ComplaintInput struct {
	Title    string  `validate:"min=5"`
	Body     string  `validate:"min=10"`
	Location *string `validate:"omitempty,max=255"`
	Category string  `validate:"oneof=infrastruktur sosial lingkungan keamanan lainnya"`
	PhotoURL *string `validate:"omitempty,url"`
}

// ComplaintService applies the role policy to complaint records
type ComplaintService struct {
	repo     ComplaintRepository
	validate *validator.Validate
	logger   *slog.Logger
}

func NewComplaintService(repo ComplaintRepository, logger *slog.Logger) *ComplaintService {
	return &ComplaintService{
		repo:     repo,
		validate: validator.New(),
		logger:   logger,
	}
}

// Create files a new pending complaint owned by owner
func (s *ComplaintService) Create(ctx context.Context, owner *models.PublicUser, input ComplaintInput) (int64, error) {
	if err := auth.Authorize(owner, auth.OpCreateComplaint, nil); err != nil {
		return 0, err
	}

	input = normalizeComplaintInput(input)
	if err := s.validateInput(input); err != nil {
		return 0, err
	}

	id, err := s.repo.Create(ctx, &models.Complaint{
		UserID:   owner.ID,
		Title:    input.Title,
		Body:     input.Body,
		Location: input.Location,
		Category: input.Category,
		PhotoURL: input.PhotoURL,
		Status:   models.StatusPending,
	})
	if err != nil {
		s.logger.Error("failed to create complaint", slog.Int64("user_id", owner.ID), slog.Any("error", err))
		return 0, models.ErrInternalServer
	}

	s.logger.Info("complaint created", slog.Int64("complaint_id", id), slog.Int64("user_id", owner.ID))
	return id, nil
}

// ListMine returns the caller's own complaints, newest first
func (s *ComplaintService) ListMine(ctx context.Context, owner *models.PublicUser) ([]*models.Complaint, error) {
	if err := auth.Authorize(owner, auth.OpListOwnComplaints, nil); err != nil {
		return nil, err
	}

	complaints, err := s.repo.ListByOwner(ctx, owner.ID)
	if err != nil {
		s.logger.Error("failed to list own complaints", slog.Int64("user_id", owner.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return complaints, nil
}

// ListAll returns every complaint matching filter. Admin only.
func (s *ComplaintService) ListAll(ctx context.Context, identity *models.PublicUser, filter models.ComplaintFilter) ([]*models.Complaint, error) {
	if err := auth.Authorize(identity, auth.OpListAllComplaints, nil); err != nil {
		return nil, err
	}

	if filter.Status != "" {
		if _, err := models.ParseComplaintStatus(string(filter.Status)); err != nil {
			return nil, models.Validation(MsgStatusInvalid)
		}
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultComplaintLimit
	}
	if filter.Limit > MaxComplaintLimit {
		filter.Limit = MaxComplaintLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	complaints, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list complaints", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return complaints, nil
}

// Get returns one complaint. Absence is reported before ownership.
func (s *ComplaintService) Get(ctx context.Context, identity *models.PublicUser, id int64) (*models.Complaint, error) {
	complaint, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := auth.Authorize(identity, auth.OpReadComplaint, &auth.Resource{OwnerID: complaint.UserID}); err != nil {
		s.logger.Info("complaint read denied",
			slog.Int64("complaint_id", id),
			slog.Int64("user_id", identity.ID))
		return nil, err
	}
	return complaint, nil
}

// UpdateStatus moves a complaint through triage and records the admin response
func (s *ComplaintService) UpdateStatus(ctx context.Context, identity *models.PublicUser, id int64, status string, response *string) error {
	if err := auth.Authorize(identity, auth.OpChangeComplaintStatus, nil); err != nil {
		return err
	}

	parsed, err := models.ParseComplaintStatus(strings.TrimSpace(status))
	if err != nil {
		return models.Validation(MsgStatusInvalid)
	}

	if err := s.repo.UpdateStatus(ctx, id, parsed, emptyToNil(response)); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.NewError(models.ErrNotFound, MsgComplaintNotFound)
		}
		s.logger.Error("failed to update complaint status", slog.Int64("complaint_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("complaint status updated",
		slog.Int64("complaint_id", id),
		slog.String("status", string(parsed)),
		slog.Int64("admin_id", identity.ID))
	return nil
}

// UpdateContent rewrites a complaint's fields. Citizens may only edit their
// own complaints while they are still pending.
func (s *ComplaintService) UpdateContent(ctx context.Context, identity *models.PublicUser, id int64, input ComplaintInput) error {
	complaint, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if err := auth.Authorize(identity, auth.OpUpdateComplaint, &auth.Resource{OwnerID: complaint.UserID}); err != nil {
		return err
	}
	if !identity.Role.IsAdmin() && complaint.Status != models.StatusPending {
		return models.Validation(MsgComplaintNotPending)
	}

	input = normalizeComplaintInput(input)
	if err := s.validateInput(input); err != nil {
		return err
	}

	complaint.Title = input.Title
	complaint.Body = input.Body
	complaint.Location = input.Location
	complaint.Category = input.Category
	complaint.PhotoURL = input.PhotoURL

	// Citizens write through the status-guarded update; the check above only
	// covers the row as it was read.
	write := s.repo.UpdatePendingContent
	if identity.Role.IsAdmin() {
		write = s.repo.UpdateContent
	}

	if err := write(ctx, complaint); err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			return models.NewError(models.ErrNotFound, MsgComplaintNotFound)
		case errors.Is(err, models.ErrConflict):
			return models.Validation(MsgComplaintNotPending)
		}
		s.logger.Error("failed to update complaint", slog.Int64("complaint_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("complaint updated", slog.Int64("complaint_id", id), slog.Int64("user_id", identity.ID))
	return nil
}

func (s *ComplaintService) load(ctx context.Context, id int64) (*models.Complaint, error) {
	complaint, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewError(models.ErrNotFound, MsgComplaintNotFound)
		}
		s.logger.Error("failed to get complaint", slog.Int64("complaint_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return complaint, nil
}

func (s *ComplaintService) validateInput(input ComplaintInput) error {
	if input.Title == "" || input.Body == "" || input.Category == "" {
		return models.Validation(MsgComplaintRequired)
	}

	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return models.Validation(MsgComplaintRequired)
	}

	switch fieldErrs[0].Field() {
	case "Title":
		return models.Validation(MsgTitleTooShort)
	case "Body":
		return models.Validation(MsgBodyTooShort)
	case "Category":
		return models.Validation(MsgCategoryInvalid)
	case "PhotoURL":
		return models.Validation(MsgPhotoInvalid)
	default:
		return models.Validation("Lokasi maksimal 255 karakter")
	}
}

func normalizeComplaintInput(input ComplaintInput) ComplaintInput {
	input.Title = strings.TrimSpace(input.Title)
	input.Body = strings.TrimSpace(input.Body)
	input.Category = strings.ToLower(strings.TrimSpace(input.Category))
	input.Location = emptyToNil(input.Location)
	input.PhotoURL = emptyToNil(input.PhotoURL)
	return input
}
