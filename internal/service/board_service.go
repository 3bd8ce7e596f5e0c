package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/board"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/events"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/metrics"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/models"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/repository"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/validation"
	"github.com/rs/zerolog"
)

// boardService is the concrete implementation of BoardService
type boardService struct {
	repos     *repository.Repositories
	publisher events.Publisher
	metrics   *metrics.Metrics
	log       zerolog.Logger
	now       func() time.Time
}

// newBoardService creates a new BoardService
func newBoardService(repos *repository.Repositories, publisher events.Publisher, m *metrics.Metrics, log zerolog.Logger) *boardService {
	return &boardService{
		repos:     repos,
		publisher: publisher,
		metrics:   m,
		log:       log.With().Str("service", "board").Logger(),
		now:       time.Now,
	}
}

// Get returns the singleton row. A missing row is reported with an error
// matching models.ErrNotFound.
func (s *boardService) Get(ctx context.Context) (*models.CurrentBoard, error) {
	row, err := s.repos.Board.Get(ctx)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordPull()
	return row, nil
}

// Push replaces the board with the pushed document if the actor is an admin
// and the base version still matches the stored one
func (s *boardService) Push(ctx context.Context, actorID string, req *models.PushRequest) (*models.CurrentBoard, error) {
	if _, err := requireAdmin(ctx, s.repos.Profile, actorID); err != nil {
		if errors.Is(err, models.ErrForbidden) {
			s.metrics.RecordPush("forbidden", 0)
			s.log.Warn().Str("user_id", actorID).Msg("Rejected board push from non-admin")
		}
		return nil, err
	}

	doc, err := board.Decode(req.BoardData, req.PermanentBoxesData, req.LocationData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	if err := validation.AsError(validation.ValidateDocument(doc)); err != nil {
		return nil, err
	}

	return s.write(ctx, actorID, doc, req.BaseVersion)
}

// write stores doc with a compare-and-swap on baseVersion and announces
// the new row
func (s *boardService) write(ctx context.Context, actorID string, doc *models.BoardDocument, baseVersion int64) (*models.CurrentBoard, error) {
	row, err := board.ToRow(doc)
	if err != nil {
		return nil, err
	}
	row.LastUpdatedBy = actorID
	row.UpdatedAt = s.now().UTC().Truncate(time.Microsecond)

	saved, err := s.repos.Board.Save(ctx, row, baseVersion)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			s.metrics.RecordPush("conflict", 0)
			s.log.Info().
				Str("user_id", actorID).
				Int64("base_version", baseVersion).
				Msg("Board push conflicted with a newer version")
		} else {
			s.metrics.RecordPush("error", 0)
			s.log.Error().Err(err).Str("user_id", actorID).Msg("Failed to save board")
		}
		return nil, err
	}

	s.metrics.RecordPush("ok", saved.Version)
	s.log.Info().
		Str("user_id", actorID).
		Int64("version", saved.Version).
		Int("columns", len(doc.Columns)).
		Msg("Board saved")

	s.publisher.Publish(events.Event{Type: events.BoardUpdated, Row: saved})
	return saved, nil
}

// currentVersion returns the stored version, or 0 when there is no row
func (s *boardService) currentVersion(ctx context.Context) (int64, error) {
	row, err := s.repos.Board.Get(ctx)
	if models.IsNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return row.Version, nil
}
