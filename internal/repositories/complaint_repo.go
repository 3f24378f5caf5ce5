package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/egner-npc/pengaduan-masyarakat-app/internal/database"
	"github.com/egner-npc/pengaduan-masyarakat-app/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ComplaintRepository provides CRUD over the complaints table
type ComplaintRepository struct {
	pool *pgxpool.Pool
}

func NewComplaintRepository(db *database.DB) *ComplaintRepository {
	return &ComplaintRepository{pool: db.Pool}
}

const complaintSelect = `
	SELECT c.id, c.user_id, c.judul, c.isi_laporan, c.lokasi, c.kategori, c.foto,
	       c.status, c.tanggapan, c.created_at, c.updated_at,
	       u.nama, u.nik, u.telepon
	FROM complaints c
	JOIN users u ON c.user_id = u.id`

func scanComplaintRow(scanner rowScanner) (*models.Complaint, error) {
	var c models.Complaint
	var status string

	err := scanner.Scan(
		&c.ID, &c.UserID, &c.Title, &c.Body, &c.Location, &c.Category, &c.PhotoURL,
		&status, &c.Response, &c.CreatedAt, &c.UpdatedAt,
		&c.OwnerName, &c.OwnerNIK, &c.OwnerPhone,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	c.Status, err = models.ParseComplaintStatus(status)
	if err != nil {
		return nil, fmt.Errorf("complaint %d: %w", c.ID, err)
	}

	return &c, nil
}

func scanComplaintRows(rows pgx.Rows) ([]*models.Complaint, error) {
	defer rows.Close()

	complaints := make([]*models.Complaint, 0)
	for rows.Next() {
		c, err := scanComplaintRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan complaint: %w", err)
		}
		complaints = append(complaints, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return complaints, nil
}

// Create inserts a complaint and returns its id
func (r *ComplaintRepository) Create(ctx context.Context, c *models.Complaint) (int64, error) {
	if c.Status == "" {
		c.Status = models.StatusPending
	}

	query := `
		INSERT INTO complaints (user_id, judul, isi_laporan, lokasi, kategori, foto, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	var id int64
	err := r.pool.QueryRow(ctx, query,
		c.UserID, c.Title, c.Body, c.Location, c.Category, c.PhotoURL, string(c.Status),
	).Scan(&id)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return id, nil
}

func (r *ComplaintRepository) GetByID(ctx context.Context, id int64) (*models.Complaint, error) {
	return scanComplaintRow(r.pool.QueryRow(ctx, complaintSelect+` WHERE c.id = $1`, id))
}

// ListByOwner returns the owner's complaints, newest first
func (r *ComplaintRepository) ListByOwner(ctx context.Context, userID int64) ([]*models.Complaint, error) {
	rows, err := r.pool.Query(ctx, complaintSelect+` WHERE c.user_id = $1 ORDER BY c.created_at DESC, c.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query complaints: %w", err)
	}
	return scanComplaintRows(rows)
}

// List returns all complaints matching filter, newest first
func (r *ComplaintRepository) List(ctx context.Context, filter models.ComplaintFilter) ([]*models.Complaint, error) {
	var (
		where []string
		args  []any
	)

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("c.status = $%d", len(args)))
	}

	query := complaintSelect
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}

	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(` ORDER BY c.created_at DESC, c.id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query complaints: %w", err)
	}
	return scanComplaintRows(rows)
}

// UpdateStatus sets the triage status and admin response
func (r *ComplaintRepository) UpdateStatus(ctx context.Context, id int64, status models.ComplaintStatus, response *string) error {
	query := `UPDATE complaints SET status = $1, tanggapan = $2, updated_at = NOW() WHERE id = $3`

	result, err := r.pool.Exec(ctx, query, string(status), response, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// UpdateContent rewrites the citizen-editable fields
func (r *ComplaintRepository) UpdateContent(ctx context.Context, c *models.Complaint) error {
	query := `
		UPDATE complaints
		SET judul = $1, isi_laporan = $2, lokasi = $3, kategori = $4, foto = $5, updated_at = NOW()
		WHERE id = $6`

	result, err := r.pool.Exec(ctx, query, c.Title, c.Body, c.Location, c.Category, c.PhotoURL, c.ID)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// UpdatePendingContent is UpdateContent guarded by status = 'pending' in the
// same statement. It returns ErrConflict when the complaint exists but has
// left pending, and ErrNotFound when it is gone.
func (r *ComplaintRepository) UpdatePendingContent(ctx context.Context, c *models.Complaint) error {
	query := `
		UPDATE complaints
		SET judul = $1, isi_laporan = $2, lokasi = $3, kategori = $4, foto = $5, updated_at = NOW()
		WHERE id = $6 AND status = $7`

	result, err := r.pool.Exec(ctx, query, c.Title, c.Body, c.Location, c.Category, c.PhotoURL, c.ID, models.StatusPending)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM complaints WHERE id = $1)`, c.ID).Scan(&exists); err != nil {
		return database.MapPostgresError(err)
	}
	if !exists {
		return models.ErrNotFound
	}
	return models.ErrConflict
}
