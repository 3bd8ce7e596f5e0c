package service

import (
	"context"
	"fmt"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/models"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/repository"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/validation"
	"github.com/rs/zerolog"
)

// userService is the concrete implementation of UserService
type userService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

// newUserService creates a new UserService
func newUserService(repos *repository.Repositories, log zerolog.Logger) *userService {
	return &userService{
		repos: repos,
		log:   log.With().Str("service", "user").Logger(),
	}
}

// List returns all users, newest first
func (s *userService) List(ctx context.Context, actorID string) ([]*models.Profile, error) {
	if _, err := requireAdmin(ctx, s.repos.Profile, actorID); err != nil {
		return nil, err
	}
	return s.repos.Profile.List(ctx)
}

// UpdateRole sets the role of userID
func (s *userService) UpdateRole(ctx context.Context, actorID, userID string, role models.Role) (*models.Profile, error) {
	if _, err := requireAdmin(ctx, s.repos.Profile, actorID); err != nil {
		return nil, err
	}
	if err := validation.AsError(validation.ValidateRole(role)); err != nil {
		return nil, err
	}

	ok, err := s.repos.Profile.UpdateRole(ctx, userID, role)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, models.ErrNotFound)
	}

	s.log.Info().
		Str("user_id", userID).
		Str("role", string(role)).
		Str("actor_id", actorID).
		Msg("User role updated")
	return s.repos.Profile.GetByID(ctx, userID)
}

// ResetPassword flags the user as having to change their password
func (s *userService) ResetPassword(ctx context.Context, actorID, userID string) (*models.Profile, error) {
	if _, err := requireAdmin(ctx, s.repos.Profile, actorID); err != nil {
		return nil, err
	}

	ok, err := s.repos.Profile.SetPasswordChanged(ctx, userID, false)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, models.ErrNotFound)
	}

	s.log.Info().Str("user_id", userID).Str("actor_id", actorID).Msg("Password reset requested")
	return s.repos.Profile.GetByID(ctx, userID)
}
