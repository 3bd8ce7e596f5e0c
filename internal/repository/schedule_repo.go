package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/database"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/models"
)

const scheduleColumns = `id, name, board_data, permanent_boxes_data, location_data, created_by, created_at, updated_at`

// scheduleRepo is the concrete implementation of ScheduleRepository
type scheduleRepo struct {
	db database.Querier
}

// NewScheduleRepo creates a new schedule repository
func NewScheduleRepo(db database.Querier) ScheduleRepository {
	return &scheduleRepo{db: db}
}

// Create inserts a saved schedule
func (r *scheduleRepo) Create(ctx context.Context, s *models.Schedule) error {
	query := `
		INSERT INTO schedules (` + scheduleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.Name, nullJSON(s.BoardData), nullJSON(s.PermanentBoxesData), nullJSON(s.LocationData),
		nullString(s.CreatedBy), s.CreatedAt, s.UpdatedAt,
	)
	return queryError("insert", "schedules", err)
}

// GetByID retrieves a schedule by ID
func (r *scheduleRepo) GetByID(ctx context.Context, id string) (*models.Schedule, error) {
	s, err := scanSchedule(r.db.QueryRowContext(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, queryError("select", "schedules", err)
	}
	return s, nil
}

// List returns every schedule, newest first
func (r *scheduleRepo) List(ctx context.Context) ([]*models.Schedule, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+scheduleColumns+` FROM schedules ORDER BY created_at DESC`)
	if err != nil {
		return nil, queryError("select", "schedules", err)
	}
	defer rows.Close()

	schedules := []*models.Schedule{}
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, queryError("scan", "schedules", err)
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}

// Count returns the number of saved schedules
func (r *scheduleRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schedules").Scan(&count)
	return count, queryError("count", "schedules", err)
}

func scanSchedule(row rowScanner) (*models.Schedule, error) {
	var s models.Schedule
	var boardData, permanent, location []byte
	var createdBy sql.NullString
	err := row.Scan(&s.ID, &s.Name, &boardData, &permanent, &location, &createdBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.BoardData = boardData
	s.PermanentBoxesData = permanent
	s.LocationData = location
	s.CreatedBy = createdBy.String
	return &s, nil
}
