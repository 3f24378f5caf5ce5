package repositories

import (
	"context"
	"fmt"

	"github.com/egner-npc/pengaduan-masyarakat-app/internal/database"
	"github.com/egner-npc/pengaduan-masyarakat-app/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository is the credential store backed by the users table
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{pool: db.Pool}
}

// rowScanner is satisfied by pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

const userColumns = `id, nik, nama, email, password, telepon, alamat, role, created_at, updated_at`

func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User
	var role string

	err := scanner.Scan(
		&user.ID, &user.NIK, &user.Name, &user.Email, &user.PasswordHash,
		&user.Phone, &user.Address, &role,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	user.Role, err = models.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", user.ID, err)
	}

	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, email))
}

// ExistsByEmailOrNIK is the registration pre-check
func (r *UserRepository) ExistsByEmailOrNIK(ctx context.Context, email, nik string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 OR nik = $2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, email, nik).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check existing user: %w", database.MapPostgresError(err))
	}
	return exists, nil
}

// Create inserts user and fills in the generated id and timestamps.
// A duplicate email or nik yields models.ErrConflict.
func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.Role == "" {
		user.Role = models.RoleCitizen
	}

	query := `
		INSERT INTO users (nik, nama, email, password, telepon, alamat, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + userColumns

	return scanUserRow(r.pool.QueryRow(ctx, query,
		user.NIK, user.Name, user.Email, user.PasswordHash,
		user.Phone, user.Address, user.Role.String(),
	))
}
