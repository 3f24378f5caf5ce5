package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/egner-npc/pengaduan-masyarakat-app/internal/auth"
	"github.com/egner-npc/pengaduan-masyarakat-app/internal/models"
	pkgauth "github.com/egner-npc/pengaduan-masyarakat-app/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryCredentialStore is a map-backed store with the same uniqueness rules
// as the users table
type memoryCredentialStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*models.User
}

func newMemoryCredentialStore() *memoryCredentialStore {
	return &memoryCredentialStore{users: make(map[int64]*models.User)}
}

func (m *memoryCredentialStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
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

func (m *memoryCredentialStore) ExistsByEmailOrNIK(_ context.Context, email, nik string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email || u.NIK == nik {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryCredentialStore) Create(_ context.Context, user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email || u.NIK == user.NIK {
			return nil, models.ErrConflict
		}
	}
	m.nextID++
	created := *user
	created.ID = m.nextID
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	m.users[created.ID] = &created
	result := created
	return &result, nil
}

func newTestAuthService(t *testing.T, repo CredentialStore) (*AuthService, *auth.TokenManager) {
	t.Helper()
	hasher := pkgauth.NewPasswordHasher(4)
	checker, err := auth.NewCredentialChecker(hasher)
	require.NoError(t, err)
	tm := auth.NewTokenManager("test-secret-at-least-32-bytes-long!!", 7*24*time.Hour)
	return NewAuthService(repo, hasher, checker, tm, discardLogger()), tm
}

func budiInput() RegisterInput {
	return RegisterInput{
		NIK:      "1234567890123456",
		Name:     "Budi",
		Email:    "budi@x.com",
		Password: "secret1",
	}
}

func TestAuthService_RegisterThenLogin(t *testing.T) {
	store := newMemoryCredentialStore()
	svc, tm := newTestAuthService(t, store)
	ctx := context.Background()

	id, err := svc.Register(ctx, budiInput())
	require.NoError(t, err)
	assert.Positive(t, id)

	stored := store.users[id]
	require.NotNil(t, stored)
	assert.Equal(t, models.RoleCitizen, stored.Role)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$2"))

	result, err := svc.Login(ctx, "budi@x.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "budi@x.com", result.User.Email)
	assert.Equal(t, id, result.User.ID)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), result.ExpiresAt, time.Minute)

	claims, err := tm.Verify(result.Token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "budi@x.com", claims.Email)
	assert.Equal(t, models.RoleCitizen, claims.Role)
}

func TestAuthService_Register_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(in *RegisterInput)
		message string
	}{
		{"missing nik", func(in *RegisterInput) { in.NIK = "" }, MsgRegisterRequired},
		{"missing name", func(in *RegisterInput) { in.Name = "  " }, MsgRegisterRequired},
		{"missing email", func(in *RegisterInput) { in.Email = "" }, MsgRegisterRequired},
		{"missing password", func(in *RegisterInput) { in.Password = "" }, MsgRegisterRequired},
		{"nik too short", func(in *RegisterInput) { in.NIK = "123456789012345" }, MsgNIKLength},
		{"nik too long", func(in *RegisterInput) { in.NIK = "12345678901234567" }, MsgNIKLength},
		{"bad email", func(in *RegisterInput) { in.Email = "budi-at-x" }, MsgEmailInvalid},
		{"short password", func(in *RegisterInput) { in.Password = "abc" }, MsgPasswordLength},
		{"long password", func(in *RegisterInput) { in.Password = strings.Repeat("a", 73) }, MsgPasswordLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created := false
			repo := &MockCredentialStore{
				CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
					created = true
					return user, nil
				},
			}
			svc, _ := newTestAuthService(t, repo)

			input := budiInput()
			tt.mutate(&input)

			_, err := svc.Register(context.Background(), input)
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrValidation)
			assert.Equal(t, tt.message, models.MessageOf(err, ""))
			assert.False(t, created)
		})
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	store := newMemoryCredentialStore()
	svc, _ := newTestAuthService(t, store)
	ctx := context.Background()

	_, err := svc.Register(ctx, budiInput())
	require.NoError(t, err)

	sameEmail := budiInput()
	sameEmail.NIK = "6543210987654321"
	_, err = svc.Register(ctx, sameEmail)
	assert.ErrorIs(t, err, models.ErrConflict)
	assert.Equal(t, MsgAlreadyRegistered, models.MessageOf(err, ""))

	sameNIK := budiInput()
	sameNIK.Email = "other@x.com"
	_, err = svc.Register(ctx, sameNIK)
	assert.ErrorIs(t, err, models.ErrConflict)

	assert.Len(t, store.users, 1)
}

func TestAuthService_Register_InsertRaceIsConflict(t *testing.T) {
	repo := &MockCredentialStore{
		ExistsByEmailOrNIKFunc: func(ctx context.Context, email, nik string) (bool, error) {
			return false, nil
		},
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			return nil, models.ErrConflict
		},
	}
	svc, _ := newTestAuthService(t, repo)

	_, err := svc.Register(context.Background(), budiInput())
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestAuthService_Register_ConcurrentDuplicates(t *testing.T) {
	store := newMemoryCredentialStore()
	svc, _ := newTestAuthService(t, store)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Register(context.Background(), budiInput())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, models.ErrConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, 7, conflicts)
}

func TestAuthService_Register_StoreFailure(t *testing.T) {
	repo := &MockCredentialStore{
		ExistsByEmailOrNIKFunc: func(ctx context.Context, email, nik string) (bool, error) {
			return false, errors.New("connection refused")
		},
	}
	svc, _ := newTestAuthService(t, repo)

	_, err := svc.Register(context.Background(), budiInput())
	assert.ErrorIs(t, err, models.ErrInternalServer)
}

func TestAuthService_Register_NormalizesOptionalFields(t *testing.T) {
	var saved *models.User
	repo := &MockCredentialStore{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			saved = user
			user.ID = 9
			return user, nil
		},
	}
	svc, _ := newTestAuthService(t, repo)

	input := budiInput()
	input.Email = "  Budi@X.com "
	input.Phone = strPtr("  ")
	input.Address = strPtr(" Jl. Merdeka 1 ")

	_, err := svc.Register(context.Background(), input)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "budi@x.com", saved.Email)
	assert.Nil(t, saved.Phone)
	require.NotNil(t, saved.Address)
	assert.Equal(t, "Jl. Merdeka 1", *saved.Address)
}

func TestAuthService_CreateAdmin(t *testing.T) {
	store := newMemoryCredentialStore()
	svc, _ := newTestAuthService(t, store)

	admin, err := svc.CreateAdmin(context.Background(), RegisterInput{
		NIK:      "0000000000000000",
		Name:     "Administrator",
		Email:    "admin@pengaduan.id",
		Password: "admin-secret",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)

	result, err := svc.Login(context.Background(), "admin@pengaduan.id", "admin-secret")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, result.User.Role)
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	ctx := context.Background()
	adminInput := RegisterInput{
		NIK:      "0000000000000000",
		Name:     "Administrator",
		Email:    "admin@pengaduan.id",
		Password: "admin-secret",
	}

	t.Run("creates then keeps existing admin", func(t *testing.T) {
		svc, _ := newTestAuthService(t, newMemoryCredentialStore())

		created, err := svc.EnsureAdmin(ctx, adminInput)
		require.NoError(t, err)
		assert.True(t, created)

		created, err = svc.EnsureAdmin(ctx, adminInput)
		require.NoError(t, err)
		assert.False(t, created)
	})

	t.Run("nik taken by a citizen", func(t *testing.T) {
		svc, _ := newTestAuthService(t, newMemoryCredentialStore())
		citizen := budiInput()
		citizen.NIK = adminInput.NIK
		_, err := svc.Register(ctx, citizen)
		require.NoError(t, err)

		created, err := svc.EnsureAdmin(ctx, adminInput)
		assert.False(t, created)
		assert.ErrorIs(t, err, ErrAdminNIKTaken)
	})

	t.Run("email taken by a citizen", func(t *testing.T) {
		svc, _ := newTestAuthService(t, newMemoryCredentialStore())
		citizen := budiInput()
		citizen.Email = "Admin@Pengaduan.id"
		_, err := svc.Register(ctx, citizen)
		require.NoError(t, err)

		created, err := svc.EnsureAdmin(ctx, adminInput)
		assert.False(t, created)
		assert.ErrorIs(t, err, ErrAdminEmailNotAdmin)
	})

	t.Run("invalid input is returned as is", func(t *testing.T) {
		svc, _ := newTestAuthService(t, newMemoryCredentialStore())
		bad := adminInput
		bad.NIK = "123"

		_, err := svc.EnsureAdmin(ctx, bad)
		assert.ErrorIs(t, err, models.ErrValidation)
	})
}

func TestAuthService_Login_Failures(t *testing.T) {
	store := newMemoryCredentialStore()
	svc, _ := newTestAuthService(t, store)
	ctx := context.Background()

	_, err := svc.Register(ctx, budiInput())
	require.NoError(t, err)

	t.Run("empty fields", func(t *testing.T) {
		_, err := svc.Login(ctx, "", "secret1")
		assert.ErrorIs(t, err, models.ErrValidation)
		assert.Equal(t, MsgLoginRequired, models.MessageOf(err, ""))

		_, err = svc.Login(ctx, "budi@x.com", "")
		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("unknown email and wrong password are indistinguishable", func(t *testing.T) {
		_, unknown := svc.Login(ctx, "nobody@x.com", "secret1")
		_, wrong := svc.Login(ctx, "budi@x.com", "wrong-secret")

		require.Error(t, unknown)
		require.Error(t, wrong)
		assert.ErrorIs(t, unknown, models.ErrInvalidCredentials)
		assert.ErrorIs(t, wrong, models.ErrInvalidCredentials)
		assert.Equal(t, unknown.Error(), wrong.Error())
		assert.Equal(t, MsgInvalidCredentials, models.MessageOf(wrong, ""))
	})

	t.Run("store failure", func(t *testing.T) {
		failing, _ := newTestAuthService(t, &MockCredentialStore{
			GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
				return nil, errors.New("connection reset")
			},
		})
		_, err := failing.Login(ctx, "budi@x.com", "secret1")
		assert.ErrorIs(t, err, models.ErrInternalServer)
	})
}

func TestAuthService_Login_IssuerFailure(t *testing.T) {
	hasher := pkgauth.NewPasswordHasher(4)
	digest, err := hasher.Hash("secret1")
	require.NoError(t, err)
	checker, err := auth.NewCredentialChecker(hasher)
	require.NoError(t, err)

	repo := &MockCredentialStore{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return &models.User{ID: 3, Email: email, PasswordHash: digest, Role: models.RoleCitizen}, nil
		},
	}
	issuer := &MockTokenIssuer{
		IssueFunc: func(user *models.PublicUser) (string, time.Time, error) {
			return "", time.Time{}, errors.New("signing failed")
		},
	}
	svc := NewAuthService(repo, hasher, checker, issuer, discardLogger())

	_, err = svc.Login(context.Background(), "budi@x.com", "secret1")
	assert.ErrorIs(t, err, models.ErrInternalServer)
}

func TestAuthService_Login_OlderDigestCost(t *testing.T) {
	digest, err := pkgauth.NewPasswordHasher(4).Hash("secret1")
	require.NoError(t, err)

	hasher := pkgauth.NewPasswordHasher(5)
	checker, err := auth.NewCredentialChecker(hasher)
	require.NoError(t, err)

	repo := &MockCredentialStore{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return &models.User{ID: 3, Email: email, PasswordHash: digest, Role: models.RoleCitizen}, nil
		},
	}
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	tm := auth.NewTokenManager("test-secret-at-least-32-bytes-long!!", time.Hour)
	svc := NewAuthService(repo, hasher, checker, tm, logger)

	result, err := svc.Login(context.Background(), "budi@x.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Contains(t, logs.String(), "password digest below configured cost")
	assert.Contains(t, logs.String(), "digest_cost=4")
}
