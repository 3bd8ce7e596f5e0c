package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/board"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/config"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/metrics"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/models"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/repository"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/validation"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// scheduleService is the concrete implementation of ScheduleService
type scheduleService struct {
	repos   *repository.Repositories
	board   *boardService
	metrics *metrics.Metrics
	spec    string
	log     zerolog.Logger
	now     func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
	running bool
}

// newScheduleService creates a new ScheduleService
func newScheduleService(repos *repository.Repositories, boardSvc *boardService, cfg *config.Config, m *metrics.Metrics, log zerolog.Logger) *scheduleService {
	return &scheduleService{
		repos:   repos,
		board:   boardSvc,
		metrics: m,
		spec:    cfg.Snapshot.Cron,
		log:     log.With().Str("service", "schedule").Logger(),
		now:     time.Now,
	}
}

// Snapshot copies the current board into a saved schedule. A blank name
// becomes "Week of <date>".
func (s *scheduleService) Snapshot(ctx context.Context, actorID, name string) (*models.Schedule, error) {
	if _, err := requireAdmin(ctx, s.repos.Profile, actorID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) != "" {
		if err := validation.AsError(validation.ValidateName("name", name)); err != nil {
			return nil, err
		}
	}
	return s.save(ctx, actorID, name, "manual")
}

func (s *scheduleService) save(ctx context.Context, actorID, name, trigger string) (*models.Schedule, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = WeekName(s.now())
	}

	schedule := &models.Schedule{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedBy: actorID,
	}

	row, err := s.repos.Board.Get(ctx)
	switch {
	case models.IsNotFound(err):
		empty, encErr := board.ToRow(board.New())
		if encErr != nil {
			return nil, encErr
		}
		row = empty
	case err != nil:
		return nil, fmt.Errorf("failed to load board: %w", err)
	}
	schedule.BoardData = row.BoardData
	schedule.PermanentBoxesData = row.PermanentBoxesData
	schedule.LocationData = row.LocationData

	if err := s.repos.Schedule.Create(ctx, schedule); err != nil {
		return nil, err
	}

	s.metrics.RecordScheduleSaved(trigger)
	s.log.Info().
		Str("schedule_id", schedule.ID).
		Str("name", schedule.Name).
		Str("trigger", trigger).
		Msg("Schedule saved")
	return schedule, nil
}

// List returns saved schedules, newest first
func (s *scheduleService) List(ctx context.Context) ([]*models.Schedule, error) {
	return s.repos.Schedule.List(ctx)
}

// Get returns one saved schedule
func (s *scheduleService) Get(ctx context.Context, id string) (*models.Schedule, error) {
	schedule, err := s.repos.Schedule.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		return nil, fmt.Errorf("schedule %s: %w", id, models.ErrNotFound)
	}
	return schedule, nil
}

// Restore makes a saved schedule the current board
func (s *scheduleService) Restore(ctx context.Context, actorID, id string) (*models.CurrentBoard, error) {
	if _, err := requireAdmin(ctx, s.repos.Profile, actorID); err != nil {
		return nil, err
	}
	schedule, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	doc, err := board.Decode(schedule.BoardData, schedule.PermanentBoxesData, schedule.LocationData)
	if err != nil {
		return nil, fmt.Errorf("schedule %s is unreadable: %w", id, err)
	}
	base, err := s.board.currentVersion(ctx)
	if err != nil {
		return nil, err
	}

	row, err := s.board.write(ctx, actorID, doc, base)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("schedule_id", id).Str("actor_id", actorID).Msg("Schedule restored")
	return row, nil
}

// Start schedules the weekly snapshot. An empty cron spec disables it.
func (s *scheduleService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running || s.spec == "" {
		return nil
	}

	jobCtx, cancel := context.WithCancel(ctx)
	c := cron.New()
	if _, err := c.AddFunc(s.spec, func() { s.runWeeklySnapshot(jobCtx) }); err != nil {
		cancel()
		return fmt.Errorf("invalid SNAPSHOT_CRON %q: %w", s.spec, err)
	}

	s.cron = c
	s.cancel = cancel
	s.running = true
	c.Start()

	s.log.Info().Str("spec", s.spec).Msg("Weekly snapshot job started")
	return nil
}

// Stop cancels the job and waits for a running snapshot to finish
func (s *scheduleService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	c, cancel := s.cron, s.cancel
	s.running = false
	s.mu.Unlock()

	cancel()
	<-c.Stop().Done()
	s.log.Info().Msg("Weekly snapshot job stopped")
}

// Running reports whether the weekly job is scheduled
func (s *scheduleService) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *scheduleService) runWeeklySnapshot(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("Weekly snapshot panicked - recovered")
		}
	}()

	if _, err := s.save(ctx, "", "", "cron"); err != nil {
		s.log.Error().Err(err).Msg("Weekly snapshot failed")
	}
}

// WeekName is the default name of a snapshot taken at t
func WeekName(t time.Time) string {
	return "Week of " + t.Format("2006-01-02")
}
