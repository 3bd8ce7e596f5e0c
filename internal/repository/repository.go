package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/database"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/models"
)

// ProfileRepository defines the interface for user profile operations
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	List(ctx context.Context) ([]*models.Profile, error)
	UpdateRole(ctx context.Context, id string, role models.Role) (bool, error)
	SetPasswordChanged(ctx context.Context, id string, changed bool) (bool, error)
	Count(ctx context.Context) (int, error)
}

// IdentityRepository defines the interface for login, confirmation code and
// refresh token storage
type IdentityRepository interface {
	Create(ctx context.Context, identity *models.Identity) error
	GetByID(ctx context.Context, id string) (*models.Identity, error)
	GetByEmail(ctx context.Context, email string) (*models.Identity, error)
	Confirm(ctx context.Context, id string, at time.Time) error
	CreateAuthCode(ctx context.Context, code *models.AuthCode) error
	ConsumeAuthCode(ctx context.Context, code string, now time.Time) (*models.AuthCode, error)
	StoreRefreshToken(ctx context.Context, token *models.RefreshToken) error
	GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, token string, at time.Time) error
}

// ResourceRepository defines the interface for the four resource tables
type ResourceRepository interface {
	List(ctx context.Context, t models.ResourceType) ([]models.Resource, error)
	Create(ctx context.Context, res *models.Resource) error
	Count(ctx context.Context, t models.ResourceType) (int, error)
}

// ScheduleRepository defines the interface for saved schedules
type ScheduleRepository interface {
	Create(ctx context.Context, schedule *models.Schedule) error
	GetByID(ctx context.Context, id string) (*models.Schedule, error)
	List(ctx context.Context) ([]*models.Schedule, error)
	Count(ctx context.Context) (int, error)
}

// BoardRepository defines the interface for the singleton current_board row.
//
// Get returns an error matching models.ErrNotFound when the row does not
// exist yet. Save writes the row only if its stored version equals
// baseVersion (0 meaning "no row yet") and otherwise fails with
// models.ErrConflict; on success it returns the stored row.
type BoardRepository interface {
	Get(ctx context.Context) (*models.CurrentBoard, error)
	Save(ctx context.Context, row *models.CurrentBoard, baseVersion int64) (*models.CurrentBoard, error)
}

// Transactor runs fn with repositories bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(repos *Repositories) error) error
}

// Repositories holds all repository interfaces
type Repositories struct {
	Profile  ProfileRepository
	Identity IdentityRepository
	Resource ResourceRepository
	Schedule ScheduleRepository
	Board    BoardRepository
	// Tx may be nil, in which case InTx runs fn on these repositories
	Tx Transactor
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	repos := bind(db)
	repos.Tx = &sqlTransactor{db: db}
	return repos
}

func bind(q database.Querier) *Repositories {
	return &Repositories{
		Profile:  NewProfileRepo(q),
		Identity: NewIdentityRepo(q),
		Resource: NewResourceRepo(q),
		Schedule: NewScheduleRepo(q),
		Board:    NewBoardRepo(q),
	}
}

// InTx runs fn inside a transaction when a Transactor is configured.
// Repositories handed to fn have no Transactor, so nested calls join the
// outer transaction.
func (r *Repositories) InTx(ctx context.Context, fn func(repos *Repositories) error) error {
	if r.Tx == nil {
		return fn(r)
	}
	return r.Tx.WithinTx(ctx, fn)
}

type sqlTransactor struct {
	db *database.DB
}

func (t *sqlTransactor) WithinTx(ctx context.Context, fn func(repos *Repositories) error) error {
	return t.db.WithTx(ctx, func(tx *sql.Tx) error {
		return fn(bind(tx))
	})
}

// helper to convert empty string to NULL
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullJSON stores an empty blob as NULL
func nullJSON(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

// queryError wraps err with the operation and table, mapping driver errors
// onto the models sentinels
func queryError(op, table string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case err == sql.ErrNoRows, database.IsInvalidText(err):
		err = models.ErrNotFound
	case database.IsUniqueViolation(err):
		err = models.ErrDuplicate
	}
	return &models.QueryError{Op: op, Table: table, Err: err}
}
