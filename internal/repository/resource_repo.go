package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/database"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/models"
)

// resourceRepo is the concrete implementation of ResourceRepository. The
// four resource tables share one shape; the table is picked from the type.
type resourceRepo struct {
	db database.Querier
}

// NewResourceRepo creates a new resource repository
func NewResourceRepo(db database.Querier) ResourceRepository {
	return &resourceRepo{db: db}
}

func tableFor(t models.ResourceType) (string, error) {
	if !t.Valid() {
		return "", fmt.Errorf("unknown resource type %q: %w", t, models.ErrInvalidInput)
	}
	return t.Table(), nil
}

// List returns every resource of type t ordered by name
func (r *resourceRepo) List(ctx context.Context, t models.ResourceType) ([]models.Resource, error) {
	table, err := tableFor(t)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT id, name, status, location, created_by, created_at FROM %s ORDER BY name`, table)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, queryError("select", table, err)
	}
	defer rows.Close()

	resources := []models.Resource{}
	for rows.Next() {
		var res models.Resource
		var createdBy sql.NullString
		var createdAt time.Time
		if err := rows.Scan(&res.ID, &res.Name, &res.Status, &res.Location, &createdBy, &createdAt); err != nil {
			return nil, queryError("scan", table, err)
		}
		res.Type = t
		res.CreatedBy = createdBy.String
		res.CreatedAt = &createdAt
		resources = append(resources, res)
	}
	return resources, rows.Err()
}

// Create inserts a resource into the table for its type
func (r *resourceRepo) Create(ctx context.Context, res *models.Resource) error {
	table, err := tableFor(res.Type)
	if err != nil {
		return err
	}

	if res.CreatedAt == nil {
		now := time.Now()
		res.CreatedAt = &now
	}
	if res.Status == "" {
		res.Status = models.StatusAvailable
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, status, location, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, table)
	_, err = r.db.ExecContext(ctx, query,
		res.ID, res.Name, res.Status, res.Location, nullString(res.CreatedBy), *res.CreatedAt,
	)
	return queryError("insert", table, err)
}

// Count returns the number of resources of type t
func (r *resourceRepo) Count(ctx context.Context, t models.ResourceType) (int, error) {
	table, err := tableFor(t)
	if err != nil {
		return 0, err
	}
	var count int
	err = r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count)
	return count, queryError("count", table, err)
}
