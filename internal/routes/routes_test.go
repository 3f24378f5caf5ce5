package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/egner-npc/pengaduan-masyarakat-app/internal/auth"
	"github.com/egner-npc/pengaduan-masyarakat-app/internal/handlers"
	"github.com/egner-npc/pengaduan-masyarakat-app/internal/models"
	"github.com/egner-npc/pengaduan-masyarakat-app/internal/services"
	pkgauth "github.com/egner-npc/pengaduan-masyarakat-app/pkg/auth"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore backs users and complaints for router tests
type memoryStore struct {
	mu         sync.Mutex
	users      []*models.User
	complaints []*models.Complaint
}

func (m *memoryStore) GetByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memoryStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memoryStore) ExistsByEmailOrNIK(_ context.Context, email, nik string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email || u.NIK == nik {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryStore) Create(_ context.Context, user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created := *user
	created.ID = int64(len(m.users) + 1)
	m.users = append(m.users, &created)
	result := created
	return &result, nil
}

// complaintStore adapts memoryStore to the complaint repository surface
type complaintStore struct{ *memoryStore }

func (s complaintStore) Create(_ context.Context, c *models.Complaint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *c
	stored.ID = int64(len(s.complaints) + 1)
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	s.complaints = append(s.complaints, &stored)
	return stored.ID, nil
}

func (s complaintStore) GetByID(_ context.Context, id int64) (*models.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.complaints {
		if c.ID == id {
			copied := *c
			return &copied, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s complaintStore) ListByOwner(_ context.Context, userID int64) ([]*models.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.Complaint{}
	for _, c := range s.complaints {
		if c.UserID == userID {
			copied := *c
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s complaintStore) List(_ context.Context, filter models.ComplaintFilter) ([]*models.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.Complaint{}
	for _, c := range s.complaints {
		if filter.Status == "" || c.Status == filter.Status {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s complaintStore) UpdateStatus(_ context.Context, id int64, status models.ComplaintStatus, response *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.complaints {
		if c.ID == id {
			c.Status = status
			c.Response = response
			c.UpdatedAt = time.Now().Add(time.Second)
			return nil
		}
	}
	return models.ErrNotFound
}

func (s complaintStore) UpdateContent(_ context.Context, updated *models.Complaint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.complaints {
		if c.ID == updated.ID {
			copied := *updated
			s.complaints[i] = &copied
			return nil
		}
	}
	return models.ErrNotFound
}

func (s complaintStore) UpdatePendingContent(_ context.Context, updated *models.Complaint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.complaints {
		if c.ID == updated.ID {
			if c.Status != models.StatusPending {
				return models.ErrConflict
			}
			copied := *updated
			s.complaints[i] = &copied
			return nil
		}
	}
	return models.ErrNotFound
}

type healthy struct{}

func (healthy) HealthCheck(context.Context) error { return nil }

type testAPI struct {
	t      *testing.T
	router http.Handler
	store  *memoryStore
	auth   *services.AuthService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := &memoryStore{}

	hasher := pkgauth.NewPasswordHasher(4)
	checker, err := auth.NewCredentialChecker(hasher)
	require.NoError(t, err)
	tm := auth.NewTokenManager("router-test-secret-0123456789abcdef", 7*24*time.Hour)

	authService := services.NewAuthService(store, hasher, checker, tm, logger)
	complaintService := services.NewComplaintService(complaintStore{store}, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, Handlers{
		Health:     handlers.NewHealthHandler(healthy{}, "test", "1.0.0", logger),
		Auth:       handlers.NewAuthHandler(authService, nil, logger),
		Complaints: handlers.NewComplaintHandler(complaintService, logger),
	}, auth.NewGate(tm, store, logger))

	return &testAPI{t: t, router: router, store: store, auth: authService}
}

func (a *testAPI) do(method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var decoded map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &decoded)
	return w, decoded
}

func (a *testAPI) registerAndLogin(nik, email string) string {
	a.t.Helper()
	w, _ := a.do(http.MethodPost, "/api/register", "", map[string]any{
		"nik": nik, "nama": "Warga", "email": email, "password": "secret1",
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())

	w, body := a.do(http.MethodPost, "/api/login", "", map[string]any{"email": email, "password": "secret1"})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	return body["token"].(string)
}

func (a *testAPI) adminToken() string {
	a.t.Helper()
	_, err := a.auth.CreateAdmin(context.Background(), services.RegisterInput{
		NIK: "0000000000000000", Name: "Admin", Email: "admin@pengaduan.id", Password: "admin-secret",
	})
	require.NoError(a.t, err)

	w, body := a.do(http.MethodPost, "/api/login", "", map[string]any{"email": "admin@pengaduan.id", "password": "admin-secret"})
	require.Equal(a.t, http.StatusOK, w.Code)
	return body["token"].(string)
}

func (a *testAPI) createComplaint(token string) int64 {
	a.t.Helper()
	w, body := a.do(http.MethodPost, "/api/complaints", token, map[string]any{
		"judul":       "Jalan berlubang",
		"isi_laporan": "Jalan di depan pasar berlubang besar",
		"kategori":    "infrastruktur",
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return int64(body["complaintId"].(float64))
}

func TestRegisterThenLogin(t *testing.T) {
	api := newTestAPI(t)

	w, body := api.do(http.MethodPost, "/api/register", "", map[string]any{
		"nik": "1234567890123456", "nama": "Budi", "email": "budi@x.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, body["success"])
	assert.IsType(t, float64(0), body["userId"])

	w, body = api.do(http.MethodPost, "/api/login", "", map[string]any{"email": "budi@x.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, body["token"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "budi@x.com", user["email"])
	assert.NotContains(t, user, "password")

	w, body = api.do(http.MethodGet, "/api/profile", body["token"].(string), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Budi", body["user"].(map[string]any)["nama"])
}

func TestGate(t *testing.T) {
	api := newTestAPI(t)

	w, body := api.do(http.MethodGet, "/api/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, auth.MsgTokenMissing, body["error"])

	req := httptest.NewRequest(http.MethodGet, "/api/my-complaints", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	w, body = api.do(http.MethodGet, "/api/profile", "not.a.token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, auth.MsgTokenInvalid, body["error"])

	// a valid token whose subject no longer exists
	token := api.registerAndLogin("1234567890123456", "budi@x.com")
	api.store.mu.Lock()
	api.store.users = nil
	api.store.mu.Unlock()

	w, body = api.do(http.MethodGet, "/api/profile", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, auth.MsgUserNotFound, body["error"])
}

func TestComplaintOwnership(t *testing.T) {
	api := newTestAPI(t)
	tokenA := api.registerAndLogin("1111111111111111", "a@x.com")
	tokenB := api.registerAndLogin("2222222222222222", "b@x.com")

	id := api.createComplaint(tokenA)
	path := "/api/complaints/" + strconv.FormatInt(id, 10)

	w, _ := api.do(http.MethodGet, path, tokenA, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, body := api.do(http.MethodGet, path, tokenB, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, false, body["success"])

	w, _ = api.do(http.MethodGet, "/api/complaints/9999", tokenB, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, body = api.do(http.MethodGet, "/api/my-complaints", tokenB, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["complaints"])
}

func TestAdminStatusUpdate(t *testing.T) {
	api := newTestAPI(t)
	citizen := api.registerAndLogin("1111111111111111", "a@x.com")
	admin := api.adminToken()

	id := api.createComplaint(citizen)
	path := "/api/complaints/" + strconv.FormatInt(id, 10)

	before, err := complaintStore{api.store}.GetByID(context.Background(), id)
	require.NoError(t, err)

	w, _ := api.do(http.MethodPut, path, citizen, map[string]any{"status": "diproses"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body := api.do(http.MethodPut, path, admin, map[string]any{"status": "diproses", "tanggapan": "Sedang ditangani"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Status pengaduan berhasil diperbarui", body["message"])

	after, err := complaintStore{api.store}.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, after.Status)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))

	// the owner can no longer edit once triage has started
	w, _ = api.do(http.MethodPatch, path, citizen, map[string]any{
		"judul": "Judul baru", "isi_laporan": "Isi laporan yang baru", "kategori": "sosial",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = api.do(http.MethodGet, "/api/complaints?status=diproses", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["complaints"], 1)

	w, _ = api.do(http.MethodGet, "/api/complaints", citizen, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUnknownRoute(t *testing.T) {
	api := newTestAPI(t)

	w, body := api.do(http.MethodGet, "/api/does-not-exist", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Endpoint tidak ditemukan", body["error"])

	w, body = api.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
}
