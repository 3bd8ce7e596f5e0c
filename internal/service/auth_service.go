package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/auth"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/config"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/metrics"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/models"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/repository"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// authService is the concrete implementation of AuthService
type authService struct {
	repos   *repository.Repositories
	issuer  *auth.Issuer
	mailer  Mailer
	metrics *metrics.Metrics
	cfg     config.AuthConfig
	log     zerolog.Logger
	now     func() time.Time
}

// newAuthService creates a new AuthService
func newAuthService(repos *repository.Repositories, cfg *config.Config, mailer Mailer, m *metrics.Metrics, log zerolog.Logger) *authService {
	return &authService{
		repos:   repos,
		issuer:  auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.AccessTokenTTL),
		mailer:  mailer,
		metrics: m,
		cfg:     cfg.Auth,
		log:     log.With().Str("service", "auth").Logger(),
		now:     time.Now,
	}
}

// SignUp registers an identity. The configured admin address is granted the
// admin role; everybody else starts as a viewer.
func (s *authService) SignUp(ctx context.Context, req *models.SignUpRequest) (*models.SignUpResult, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if err := validation.AsError(validation.ValidateSignUp(req)); err != nil {
		return nil, models.NewAuthError(models.AuthInvalidInput, err)
	}

	existing, err := s.repos.Identity.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, models.NewAuthError(models.AuthUnavailable, err)
	}
	if existing != nil {
		return nil, models.NewAuthError(models.AuthDuplicate, models.ErrDuplicate)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, models.NewAuthError(models.AuthUnavailable, err)
	}

	role := models.RoleView
	if s.cfg.AdminEmail != "" && strings.EqualFold(req.Email, s.cfg.AdminEmail) {
		role = models.RoleAdmin
	}

	now := s.now()
	identity := &models.Identity{
		ID:            uuid.New().String(),
		Email:         req.Email,
		PasswordHash:  hash,
		Username:      req.Username,
		RequestedRole: role,
		CreatedAt:     now,
	}
	if !s.cfg.RequireConfirmation {
		identity.ConfirmedAt = &now
	}

	if err := s.repos.Identity.Create(ctx, identity); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return nil, models.NewAuthError(models.AuthDuplicate, err)
		}
		return nil, models.NewAuthError(models.AuthUnavailable, err)
	}

	result := &models.SignUpResult{
		UserID:               identity.ID,
		Role:                 role,
		ConfirmationRequired: s.cfg.RequireConfirmation,
	}

	if !s.cfg.RequireConfirmation {
		if err := s.materializeProfile(ctx, identity); err != nil {
			return nil, models.NewAuthError(models.AuthUnavailable, err)
		}
	} else if err := s.sendConfirmation(ctx, identity); err != nil {
		s.log.Error().Err(err).Str("user_id", identity.ID).Msg("Failed to send confirmation")
	}

	s.log.Info().
		Str("user_id", identity.ID).
		Str("role", string(role)).
		Bool("confirmation_required", s.cfg.RequireConfirmation).
		Msg("Identity registered")

	return result, nil
}

func (s *authService) sendConfirmation(ctx context.Context, identity *models.Identity) error {
	code := &models.AuthCode{
		Code:       uuid.NewString(),
		IdentityID: identity.ID,
		ExpiresAt:  s.now().Add(s.cfg.ConfirmationTTL),
	}
	if err := s.repos.Identity.CreateAuthCode(ctx, code); err != nil {
		return fmt.Errorf("failed to store auth code: %w", err)
	}
	link := s.cfg.SiteURL + "/auth/callback?code=" + url.QueryEscape(code.Code)
	return s.mailer.SendConfirmation(ctx, identity.Email, link)
}

// materializeProfile creates the users row for a confirmed identity
func (s *authService) materializeProfile(ctx context.Context, identity *models.Identity) error {
	return createProfile(ctx, s.repos.Profile, identity, s.now())
}

func createProfile(ctx context.Context, profiles repository.ProfileRepository, identity *models.Identity, now time.Time) error {
	role := identity.RequestedRole
	if !models.ValidRoles[role] {
		role = models.RoleView
	}
	return profiles.Create(ctx, &models.Profile{
		ID:              identity.ID,
		Email:           identity.Email,
		Username:        identity.Username,
		Role:            role,
		PasswordChanged: true,
		CreatedAt:       now,
	})
}

// ensureProfile creates the users row of a confirmed identity that has none
func (s *authService) ensureProfile(ctx context.Context, identity *models.Identity) error {
	profile, err := s.repos.Profile.GetByID(ctx, identity.ID)
	if err != nil {
		return err
	}
	if profile != nil {
		return nil
	}
	s.log.Warn().Str("user_id", identity.ID).Msg("Confirmed identity has no profile, creating it")
	return s.materializeProfile(ctx, identity)
}

// SignIn checks a password and issues a session. Unknown email and wrong
// password produce the same error.
func (s *authService) SignIn(ctx context.Context, req *models.SignInRequest) (*models.AuthSession, error) {
	if err := validation.AsError(validation.ValidateSignIn(req)); err != nil {
		s.metrics.RecordSignIn("invalid")
		return nil, models.NewAuthError(models.AuthInvalidInput, err)
	}

	identity, err := s.repos.Identity.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		s.metrics.RecordSignIn("error")
		return nil, models.NewAuthError(models.AuthUnavailable, err)
	}
	if identity == nil {
		s.metrics.RecordSignIn("invalid")
		return nil, models.NewAuthError(models.AuthInvalidCredentials, nil)
	}

	ok, err := auth.CheckPassword(identity.PasswordHash, req.Password)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", identity.ID).Msg("Stored password hash is unreadable")
		s.metrics.RecordSignIn("error")
		return nil, models.NewAuthError(models.AuthUnavailable, err)
	}
	if !ok {
		s.metrics.RecordSignIn("invalid")
		return nil, models.NewAuthError(models.AuthInvalidCredentials, nil)
	}
	if s.cfg.RequireConfirmation && !identity.Confirmed() {
		s.metrics.RecordSignIn("unconfirmed")
		return nil, models.NewAuthError(models.AuthUnconfirmed, nil)
	}
	if err := s.ensureProfile(ctx, identity); err != nil {
		s.metrics.RecordSignIn("error")
		return nil, models.NewAuthError(models.AuthUnavailable, err)
	}

	session, err := s.issueSession(ctx, identity)
	if err != nil {
		s.metrics.RecordSignIn("error")
		return nil, err
	}
	s.metrics.RecordSignIn("ok")
	s.log.Info().Str("user_id", identity.ID).Msg("Signed in")
	return session, nil
}

// ExchangeCode consumes a confirmation code, confirms the identity and
// creates its profile row. The three writes share one transaction, so a
// failure leaves the code usable.
func (s *authService) ExchangeCode(ctx context.Context, code string) (*models.AuthSession, error) {
	if code == "" {
		return nil, models.NewAuthError(models.AuthInvalidToken, nil)
	}

	now := s.now()
	var identity *models.Identity
	err := s.repos.InTx(ctx, func(repos *repository.Repositories) error {
		ac, err := repos.Identity.ConsumeAuthCode(ctx, code, now)
		if err != nil {
			return models.NewAuthError(models.AuthUnavailable, err)
		}
		if ac == nil {
			return models.NewAuthError(models.AuthInvalidToken, nil)
		}

		identity, err = repos.Identity.GetByID(ctx, ac.IdentityID)
		if err != nil {
			return models.NewAuthError(models.AuthUnavailable, err)
		}
		if identity == nil {
			return models.NewAuthError(models.AuthInvalidToken, nil)
		}

		if err := repos.Identity.Confirm(ctx, identity.ID, now); err != nil {
			return models.NewAuthError(models.AuthUnavailable, err)
		}
		if err := createProfile(ctx, repos.Profile, identity, now); err != nil {
			return models.NewAuthError(models.AuthUnavailable, err)
		}
		return nil
	})
	if err != nil {
		var authErr *models.AuthError
		if errors.As(err, &authErr) {
			return nil, authErr
		}
		return nil, models.NewAuthError(models.AuthUnavailable, err)
	}

	s.log.Info().Str("user_id", identity.ID).Msg("Email confirmed")
	return s.issueSession(ctx, identity)
}

// Refresh rotates a refresh token into a new session
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*models.AuthSession, error) {
	rt, err := s.repos.Identity.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, models.NewAuthError(models.AuthUnavailable, err)
	}
	now := s.now()
	if rt == nil || !rt.Usable(now) {
		return nil, models.NewAuthError(models.AuthInvalidToken, nil)
	}

	if err := s.repos.Identity.RevokeRefreshToken(ctx, rt.Token, now); err != nil {
		return nil, models.NewAuthError(models.AuthUnavailable, err)
	}

	identity, err := s.repos.Identity.GetByID(ctx, rt.IdentityID)
	if err != nil {
		return nil, models.NewAuthError(models.AuthUnavailable, err)
	}
	if identity == nil {
		return nil, models.NewAuthError(models.AuthInvalidToken, nil)
	}
	return s.issueSession(ctx, identity)
}

// SignOut revokes the refresh token. Unknown or revoked tokens are fine.
func (s *authService) SignOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.repos.Identity.RevokeRefreshToken(ctx, refreshToken, s.now()); err != nil {
		return models.NewAuthError(models.AuthUnavailable, err)
	}
	return nil
}

// Authenticate validates an access token
func (s *authService) Authenticate(ctx context.Context, accessToken string) (*auth.Claims, error) {
	claims, err := s.issuer.Parse(accessToken)
	if err != nil {
		return nil, models.NewAuthError(models.AuthInvalidToken, err)
	}
	return claims, nil
}

// Profile returns the users row for userID
func (s *authService) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.repos.Profile.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("profile %s: %w", userID, models.ErrNotFound)
	}
	return profile, nil
}

func (s *authService) issueSession(ctx context.Context, identity *models.Identity) (*models.AuthSession, error) {
	access, expiresAt, err := s.issuer.Issue(identity.ID, identity.Email)
	if err != nil {
		return nil, models.NewAuthError(models.AuthUnavailable, err)
	}

	rt := &models.RefreshToken{
		Token:      uuid.NewString(),
		IdentityID: identity.ID,
		ExpiresAt:  s.now().Add(s.cfg.RefreshTokenTTL),
	}
	if err := s.repos.Identity.StoreRefreshToken(ctx, rt); err != nil {
		return nil, models.NewAuthError(models.AuthUnavailable, err)
	}

	return &models.AuthSession{
		AccessToken:  access,
		RefreshToken: rt.Token,
		TokenType:    "bearer",
		ExpiresAt:    expiresAt,
		User:         models.User{ID: identity.ID, Email: identity.Email},
	}, nil
}
