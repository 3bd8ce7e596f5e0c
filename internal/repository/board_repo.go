package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/database"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/models"
)

// boardRepo is the concrete implementation of BoardRepository
type boardRepo struct {
	db database.Querier
}

// NewBoardRepo creates a new board repository
func NewBoardRepo(db database.Querier) BoardRepository {
	return &boardRepo{db: db}
}

// Get retrieves the singleton board row
func (r *boardRepo) Get(ctx context.Context) (*models.CurrentBoard, error) {
	query := `
		SELECT id, board_data, permanent_boxes_data, location_data, last_updated_by, updated_at, version
		FROM current_board WHERE id = $1
	`
	var row models.CurrentBoard
	var boardData, permanent, location []byte
	var lastUpdatedBy sql.NullString

	err := r.db.QueryRowContext(ctx, query, models.CurrentBoardID).Scan(
		&row.ID, &boardData, &permanent, &location, &lastUpdatedBy, &row.UpdatedAt, &row.Version,
	)
	if err != nil {
		return nil, queryError("select", "current_board", err)
	}

	row.BoardData = boardData
	row.PermanentBoxesData = permanent
	row.LocationData = location
	row.LastUpdatedBy = lastUpdatedBy.String
	return &row, nil
}

// Save writes the singleton row with a compare-and-swap on version. A base
// version of 0 inserts the row and conflicts if one already exists.
func (r *boardRepo) Save(ctx context.Context, row *models.CurrentBoard, baseVersion int64) (*models.CurrentBoard, error) {
	updatedAt := row.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	var query string
	args := []interface{}{
		models.CurrentBoardID,
		nullJSON(row.BoardData), nullJSON(row.PermanentBoxesData), nullJSON(row.LocationData),
		nullString(row.LastUpdatedBy), updatedAt,
	}

	if baseVersion == 0 {
		query = `
			INSERT INTO current_board (id, board_data, permanent_boxes_data, location_data, last_updated_by, updated_at, version)
			VALUES ($1, $2, $3, $4, $5, $6, 1)
			ON CONFLICT (id) DO NOTHING
			RETURNING version, updated_at
		`
	} else {
		query = `
			UPDATE current_board SET
				board_data = $2, permanent_boxes_data = $3, location_data = $4,
				last_updated_by = $5, updated_at = $6, version = version + 1
			WHERE id = $1 AND version = $7
			RETURNING version, updated_at
		`
		args = append(args, baseVersion)
	}

	saved := *row
	saved.ID = models.CurrentBoardID
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&saved.Version, &saved.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, &models.QueryError{Op: "save", Table: "current_board", Err: models.ErrConflict}
	}
	if err != nil {
		return nil, queryError("save", "current_board", err)
	}
	return &saved, nil
}
