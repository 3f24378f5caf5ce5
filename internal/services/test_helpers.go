package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/egner-npc/pengaduan-masyarakat-app/internal/models"
)

// MockCredentialStore implements CredentialStore for testing
type MockCredentialStore struct {
	GetByEmailFunc         func(ctx context.Context, email string) (*models.User, error)
	ExistsByEmailOrNIKFunc func(ctx context.Context, email, nik string) (bool, error)
	CreateFunc             func(ctx context.Context, user *models.User) (*models.User, error)
}

func (m *MockCredentialStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockCredentialStore) ExistsByEmailOrNIK(ctx context.Context, email, nik string) (bool, error) {
	if m.ExistsByEmailOrNIKFunc != nil {
		return m.ExistsByEmailOrNIKFunc(ctx, email, nik)
	}
	return false, nil
}

func (m *MockCredentialStore) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

// MockTokenIssuer implements TokenIssuer for testing
type MockTokenIssuer struct {
	IssueFunc func(user *models.PublicUser) (string, time.Time, error)
}

func (m *MockTokenIssuer) Issue(user *models.PublicUser) (string, time.Time, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(user)
	}
	return "test-token", time.Now().Add(time.Hour), nil
}

// MockComplaintRepository implements ComplaintRepository for testing
type MockComplaintRepository struct {
	CreateFunc               func(ctx context.Context, c *models.Complaint) (int64, error)
	GetByIDFunc              func(ctx context.Context, id int64) (*models.Complaint, error)
	ListByOwnerFunc          func(ctx context.Context, userID int64) ([]*models.Complaint, error)
	ListFunc                 func(ctx context.Context, filter models.ComplaintFilter) ([]*models.Complaint, error)
	UpdateStatusFunc         func(ctx context.Context, id int64, status models.ComplaintStatus, response *string) error
	UpdateContentFunc        func(ctx context.Context, c *models.Complaint) error
	UpdatePendingContentFunc func(ctx context.Context, c *models.Complaint) error
}

func (m *MockComplaintRepository) Create(ctx context.Context, c *models.Complaint) (int64, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, c)
	}
	return 1, nil
}

func (m *MockComplaintRepository) GetByID(ctx context.Context, id int64) (*models.Complaint, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockComplaintRepository) ListByOwner(ctx context.Context, userID int64) ([]*models.Complaint, error) {
	if m.ListByOwnerFunc != nil {
		return m.ListByOwnerFunc(ctx, userID)
	}
	return []*models.Complaint{}, nil
}

func (m *MockComplaintRepository) List(ctx context.Context, filter models.ComplaintFilter) ([]*models.Complaint, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return []*models.Complaint{}, nil
}

func (m *MockComplaintRepository) UpdateStatus(ctx context.Context, id int64, status models.ComplaintStatus, response *string) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status, response)
	}
	return nil
}

func (m *MockComplaintRepository) UpdateContent(ctx context.Context, c *models.Complaint) error {
	if m.UpdateContentFunc != nil {
		return m.UpdateContentFunc(ctx, c)
	}
	return nil
}

func (m *MockComplaintRepository) UpdatePendingContent(ctx context.Context, c *models.Complaint) error {
	if m.UpdatePendingContentFunc != nil {
		return m.UpdatePendingContentFunc(ctx, c)
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewTestIdentity builds an authenticated caller
func NewTestIdentity(id int64, role models.Role) *models.PublicUser {
	return &models.PublicUser{
		ID:    id,
		NIK:   "320101010101000" + string(rune('0'+id%10)),
		Name:  "Warga",
		Email: "warga@mail.id",
		Role:  role,
	}
}

// NewTestComplaint builds a stored complaint owned by ownerID
func NewTestComplaint(id, ownerID int64, status models.ComplaintStatus) *models.Complaint {
	now := time.Now()
	return &models.Complaint{
		ID:        id,
		UserID:    ownerID,
		Title:     "Jalan berlubang",
		Body:      "Jalan di depan pasar berlubang besar",
		Category:  models.CategoryInfrastructure,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func strPtr(s string) *string { return &s }
