package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/database"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/models"
)

const profileColumns = `id, email, username, role, password_changed, created_at, updated_at`

// profileRepo is the concrete implementation of ProfileRepository
type profileRepo struct {
	db database.Querier
}

// NewProfileRepo creates a new profile repository
func NewProfileRepo(db database.Querier) ProfileRepository {
	return &profileRepo{db: db}
}

// Create inserts a profile row. A row that already exists is left as is.
func (r *profileRepo) Create(ctx context.Context, p *models.Profile) error {
	query := `
		INSERT INTO users (id, email, username, role, password_changed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Email, p.Username, p.Role, p.PasswordChanged, p.CreatedAt, p.UpdatedAt,
	)
	return queryError("insert", "users", err)
}

// GetByID retrieves a profile by ID
func (r *profileRepo) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM users WHERE id = $1`

	p, err := scanProfile(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, queryError("select", "users", err)
	}
	return p, nil
}

// List returns every profile, newest first
func (r *profileRepo) List(ctx context.Context) ([]*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM users ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, queryError("select", "users", err)
	}
	defer rows.Close()

	profiles := []*models.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, queryError("scan", "users", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// UpdateRole changes a user's role; false means no such user
func (r *profileRepo) UpdateRole(ctx context.Context, id string, role models.Role) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET role = $1, updated_at = $2 WHERE id = $3`,
		role, time.Now(), id,
	)
	if err != nil {
		return false, queryError("update", "users", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// SetPasswordChanged sets the password_changed flag; false means no such user
func (r *profileRepo) SetPasswordChanged(ctx context.Context, id string, changed bool) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_changed = $1, updated_at = $2 WHERE id = $3`,
		changed, time.Now(), id,
	)
	if err != nil {
		return false, queryError("update", "users", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// Count returns the total number of users
func (r *profileRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, queryError("count", "users", err)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(row rowScanner) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(
		&p.ID, &p.Email, &p.Username, &p.Role, &p.PasswordChanged,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
