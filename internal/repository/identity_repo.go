package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/database"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/models"
)

const identityColumns = `id, email, password_hash, username, requested_role, confirmed_at, created_at`

// identityRepo is the concrete implementation of IdentityRepository
type identityRepo struct {
	db database.Querier
}

// NewIdentityRepo creates a new identity repository
func NewIdentityRepo(db database.Querier) IdentityRepository {
	return &identityRepo{db: db}
}

// Create inserts an identity; a taken email fails with models.ErrDuplicate
func (r *identityRepo) Create(ctx context.Context, identity *models.Identity) error {
	query := `
		INSERT INTO identities (id, email, password_hash, username, requested_role, confirmed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = time.Now()
	}
	identity.Email = strings.ToLower(identity.Email)
	_, err := r.db.ExecContext(ctx, query,
		identity.ID, identity.Email, identity.PasswordHash, identity.Username,
		identity.RequestedRole, identity.ConfirmedAt, identity.CreatedAt,
	)
	return queryError("insert", "identities", err)
}

// GetByID retrieves an identity by ID
func (r *identityRepo) GetByID(ctx context.Context, id string) (*models.Identity, error) {
	return r.getOne(ctx, `SELECT `+identityColumns+` FROM identities WHERE id = $1`, id)
}

// GetByEmail retrieves an identity by email, case-insensitively
func (r *identityRepo) GetByEmail(ctx context.Context, email string) (*models.Identity, error) {
	return r.getOne(ctx, `SELECT `+identityColumns+` FROM identities WHERE email = $1`, strings.ToLower(email))
}

func (r *identityRepo) getOne(ctx context.Context, query string, arg string) (*models.Identity, error) {
	var identity models.Identity
	var confirmedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&identity.ID, &identity.Email, &identity.PasswordHash, &identity.Username,
		&identity.RequestedRole, &confirmedAt, &identity.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, queryError("select", "identities", err)
	}
	if confirmedAt.Valid {
		identity.ConfirmedAt = &confirmedAt.Time
	}
	return &identity, nil
}

// Confirm marks the identity as confirmed if it is not already
func (r *identityRepo) Confirm(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE identities SET confirmed_at = $1 WHERE id = $2 AND confirmed_at IS NULL`,
		at, id,
	)
	return queryError("update", "identities", err)
}

// CreateAuthCode stores a one-time confirmation code
func (r *identityRepo) CreateAuthCode(ctx context.Context, code *models.AuthCode) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO auth_codes (code, identity_id, expires_at) VALUES ($1, $2, $3)`,
		code.Code, code.IdentityID, code.ExpiresAt,
	)
	return queryError("insert", "auth_codes", err)
}

// ConsumeAuthCode atomically marks an unused, unexpired code as used and
// returns it. Unknown, used or expired codes return nil.
func (r *identityRepo) ConsumeAuthCode(ctx context.Context, code string, now time.Time) (*models.AuthCode, error) {
	query := `
		UPDATE auth_codes SET used_at = $1
		WHERE code = $2 AND used_at IS NULL AND expires_at > $1
		RETURNING code, identity_id, expires_at, used_at
	`
	var ac models.AuthCode
	var usedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, now, code).Scan(&ac.Code, &ac.IdentityID, &ac.ExpiresAt, &usedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, queryError("update", "auth_codes", err)
	}
	if usedAt.Valid {
		ac.UsedAt = &usedAt.Time
	}
	return &ac, nil
}

// StoreRefreshToken inserts a refresh token
func (r *identityRepo) StoreRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (token, identity_id, expires_at) VALUES ($1, $2, $3)`,
		token.Token, token.IdentityID, token.ExpiresAt,
	)
	return queryError("insert", "refresh_tokens", err)
}

// GetRefreshToken retrieves a refresh token, revoked or not
func (r *identityRepo) GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var rt models.RefreshToken
	var revokedAt sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT token, identity_id, expires_at, revoked_at FROM refresh_tokens WHERE token = $1`,
		token,
	).Scan(&rt.Token, &rt.IdentityID, &rt.ExpiresAt, &revokedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, queryError("select", "refresh_tokens", err)
	}
	if revokedAt.Valid {
		rt.RevokedAt = &revokedAt.Time
	}
	return &rt, nil
}

// RevokeRefreshToken revokes a token; unknown or revoked tokens are ignored
func (r *identityRepo) RevokeRefreshToken(ctx context.Context, token string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = $1 WHERE token = $2 AND revoked_at IS NULL`,
		at, token,
	)
	return queryError("update", "refresh_tokens", err)
}
