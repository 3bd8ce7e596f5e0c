package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/models"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/repository"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// resourceService is the concrete implementation of ResourceService
type resourceService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

// newResourceService creates a new ResourceService
func newResourceService(repos *repository.Repositories, log zerolog.Logger) *resourceService {
	return &resourceService{
		repos: repos,
		log:   log.With().Str("service", "resource").Logger(),
	}
}

func (s *resourceService) List(ctx context.Context, t models.ResourceType) ([]models.Resource, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown resource type %q: %w", t, models.ErrInvalidInput)
	}
	return s.repos.Resource.List(ctx, t)
}

func (s *resourceService) ListAll(ctx context.Context) (map[models.ResourceType][]models.Resource, error) {
	all := make(map[models.ResourceType][]models.Resource, len(models.ResourceTypes))
	for _, t := range models.ResourceTypes {
		list, err := s.repos.Resource.List(ctx, t)
		if err != nil {
			return nil, err
		}
		all[t] = list
	}
	return all, nil
}

// Create inserts a resource; admins only
func (s *resourceService) Create(ctx context.Context, actorID string, t models.ResourceType, name string) (*models.Resource, error) {
	if _, err := requireAdmin(ctx, s.repos.Profile, actorID); err != nil {
		return nil, err
	}
	if !t.Valid() {
		return nil, fmt.Errorf("unknown resource type %q: %w", t, models.ErrInvalidInput)
	}
	if err := validation.AsError(validation.ValidateName("name", name)); err != nil {
		return nil, err
	}

	res := &models.Resource{
		ID:        string(t) + "-" + uuid.New().String(),
		Name:      strings.TrimSpace(name),
		Type:      t,
		Status:    models.StatusAvailable,
		CreatedBy: actorID,
	}
	if err := s.repos.Resource.Create(ctx, res); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("resource_id", res.ID).
		Str("type", string(t)).
		Str("user_id", actorID).
		Msg("Resource created")
	return res, nil
}

// Counts returns the number of rows per resource table
func (s *resourceService) Counts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(models.ResourceTypes))
	for _, t := range models.ResourceTypes {
		n, err := s.repos.Resource.Count(ctx, t)
		if err != nil {
			return nil, err
		}
		counts[t.Table()] = n
	}
	return counts, nil
}
