package service

import (
	"context"
	"fmt"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/auth"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/config"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/events"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/metrics"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/models"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/repository"
	"github.com/rs/zerolog"
)

// AuthService is the identity provider: sign-up with email confirmation,
// password sign-in, token refresh and access token validation
type AuthService interface {
	SignUp(ctx context.Context, req *models.SignUpRequest) (*models.SignUpResult, error)
	SignIn(ctx context.Context, req *models.SignInRequest) (*models.AuthSession, error)
	ExchangeCode(ctx context.Context, code string) (*models.AuthSession, error)
	Refresh(ctx context.Context, refreshToken string) (*models.AuthSession, error)
	SignOut(ctx context.Context, refreshToken string) error
	Authenticate(ctx context.Context, accessToken string) (*auth.Claims, error)
	Profile(ctx context.Context, userID string) (*models.Profile, error)
}

// BoardService reads and writes the singleton board row
type BoardService interface {
	Get(ctx context.Context) (*models.CurrentBoard, error)
	Push(ctx context.Context, actorID string, req *models.PushRequest) (*models.CurrentBoard, error)
}

// ResourceService manages the crew, truck, trailer and equipment pools
type ResourceService interface {
	List(ctx context.Context, t models.ResourceType) ([]models.Resource, error)
	ListAll(ctx context.Context) (map[models.ResourceType][]models.Resource, error)
	Create(ctx context.Context, actorID string, t models.ResourceType, name string) (*models.Resource, error)
	Counts(ctx context.Context) (map[string]int, error)
}

// ScheduleService saves and restores snapshots of the board, and runs the
// weekly snapshot job
type ScheduleService interface {
	Snapshot(ctx context.Context, actorID, name string) (*models.Schedule, error)
	List(ctx context.Context) ([]*models.Schedule, error)
	Get(ctx context.Context, id string) (*models.Schedule, error)
	Restore(ctx context.Context, actorID, id string) (*models.CurrentBoard, error)
	Start(ctx context.Context) error
	Stop()
}

// UserService is the admin panel: list users, change roles, force a
// password reset
type UserService interface {
	List(ctx context.Context, actorID string) ([]*models.Profile, error)
	UpdateRole(ctx context.Context, actorID, userID string, role models.Role) (*models.Profile, error)
	ResetPassword(ctx context.Context, actorID, userID string) (*models.Profile, error)
}

// Options carries the optional collaborators of the services
type Options struct {
	// Mailer delivers confirmation links; defaults to a log-only mailer
	Mailer Mailer
	// Publisher receives board events; defaults to the in-process bus
	Publisher events.Publisher
	// Bus is the in-process event bus; a new one is created when nil
	Bus *events.Bus
	// Metrics may be nil
	Metrics *metrics.Metrics
}

// Services holds all service interfaces
type Services struct {
	Auth     AuthService
	Board    BoardService
	Resource ResourceService
	Schedule ScheduleService
	User     UserService
	// Events delivers BoardUpdated events to live subscribers
	Events *events.Bus
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, cfg *config.Config, log zerolog.Logger, opts Options) *Services {
	if opts.Bus == nil {
		opts.Bus = events.NewBus()
	}
	if opts.Publisher == nil {
		opts.Publisher = opts.Bus
	}
	if opts.Mailer == nil {
		opts.Mailer = NewLogMailer(log)
	}

	boardSvc := newBoardService(repos, opts.Publisher, opts.Metrics, log)

	return &Services{
		Auth:     newAuthService(repos, cfg, opts.Mailer, opts.Metrics, log),
		Board:    boardSvc,
		Resource: newResourceService(repos, log),
		Schedule: newScheduleService(repos, boardSvc, cfg, opts.Metrics, log),
		User:     newUserService(repos, log),
		Events:   opts.Bus,
	}
}

// requireAdmin loads the actor's profile and fails with ErrForbidden unless
// it carries the admin role. The stored role is authoritative, not the token.
func requireAdmin(ctx context.Context, profiles repository.ProfileRepository, actorID string) (*models.Profile, error) {
	if actorID == "" {
		return nil, models.ErrUnauthenticated
	}
	profile, err := profiles.GetByID(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if !profile.IsAdmin() {
		return nil, models.ErrForbidden
	}
	return profile, nil
}
