package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/egner-npc/pengaduan-masyarakat-app/internal/auth"
	"github.com/egner-npc/pengaduan-masyarakat-app/internal/models"
	"github.com/egner-npc/pengaduan-masyarakat-app/internal/services"
	pkghttp "github.com/egner-npc/pengaduan-masyarakat-app/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithIdentity puts an authenticated user on the request as the gate would
func WithIdentity(req *http.Request, id int64, role models.Role) *http.Request {
	user := &models.PublicUser{
		ID:    id,
		NIK:   "1234567890123456",
		Name:  "Budi",
		Email: "budi@x.com",
		Role:  role,
	}
	return req.WithContext(auth.WithUser(req.Context(), user))
}

// WithURLParam sets a chi route parameter on the request
func WithURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	if target != nil {
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), target), "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks the status, machine code and message of an error body
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedCode, expectedMessage string) {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "Failed to decode error response")
	assert.False(t, resp.Success)
	assert.Equal(t, expectedCode, resp.Code)
	if expectedMessage != "" {
		assert.Equal(t, expectedMessage, resp.Error)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	RegisterFunc func(ctx context.Context, input services.RegisterInput) (int64, error)
	LoginFunc    func(ctx context.Context, email, password string) (*services.LoginResult, error)
}

func (m *MockAuthService) Register(ctx context.Context, input services.RegisterInput) (int64, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, input)
	}
	return 1, nil
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*services.LoginResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return nil, models.ErrInvalidCredentials
}

// MockComplaintService implements ComplaintServiceInterface for testing
type MockComplaintService struct {
	CreateFunc        func(ctx context.Context, owner *models.PublicUser, input services.ComplaintInput) (int64, error)
	ListMineFunc      func(ctx context.Context, owner *models.PublicUser) ([]*models.Complaint, error)
	ListAllFunc       func(ctx context.Context, identity *models.PublicUser, filter models.ComplaintFilter) ([]*models.Complaint, error)
	GetFunc           func(ctx context.Context, identity *models.PublicUser, id int64) (*models.Complaint, error)
	UpdateStatusFunc  func(ctx context.Context, identity *models.PublicUser, id int64, status string, response *string) error
	UpdateContentFunc func(ctx context.Context, identity *models.PublicUser, id int64, input services.ComplaintInput) error
}

func (m *MockComplaintService) Create(ctx context.Context, owner *models.PublicUser, input services.ComplaintInput) (int64, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, owner, input)
	}
	return 1, nil
}

func (m *MockComplaintService) ListMine(ctx context.Context, owner *models.PublicUser) ([]*models.Complaint, error) {
	if m.ListMineFunc != nil {
		return m.ListMineFunc(ctx, owner)
	}
	return nil, nil
}

func (m *MockComplaintService) ListAll(ctx context.Context, identity *models.PublicUser, filter models.ComplaintFilter) ([]*models.Complaint, error) {
	if m.ListAllFunc != nil {
		return m.ListAllFunc(ctx, identity, filter)
	}
	return nil, nil
}

func (m *MockComplaintService) Get(ctx context.Context, identity *models.PublicUser, id int64) (*models.Complaint, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, identity, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockComplaintService) UpdateStatus(ctx context.Context, identity *models.PublicUser, id int64, status string, response *string) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, identity, id, status, response)
	}
	return nil
}

func (m *MockComplaintService) UpdateContent(ctx context.Context, identity *models.PublicUser, id int64, input services.ComplaintInput) error {
	if m.UpdateContentFunc != nil {
		return m.UpdateContentFunc(ctx, identity, id, input)
	}
	return nil
}

// MockHealthChecker implements HealthChecker for testing
type MockHealthChecker struct {
	Err error
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	return m.Err
}
