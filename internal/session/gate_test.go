package session

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/models"
)

type fakeProvider struct {
	mu          sync.Mutex
	signInErr   error
	refreshErr  error
	profile     *models.Profile
	profileErr  error
	signedOut   []string
	signUps     []*models.SignUpRequest
	nextSession int
}

func (f *fakeProvider) session(id, email string) *models.AuthSession {
	f.nextSession++
	return &models.AuthSession{
		AccessToken:  "access-" + id,
		RefreshToken: "refresh-" + id + "-" + strconv.Itoa(f.nextSession),
		TokenType:    "bearer",
		User:         models.User{ID: id, Email: email},
	}
}

func (f *fakeProvider) SignIn(ctx context.Context, email, password string) (*models.AuthSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return f.session("user-1", email), nil
}

func (f *fakeProvider) SignUp(ctx context.Context, req *models.SignUpRequest) (*models.SignUpResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signUps = append(f.signUps, req)
	return &models.SignUpResult{UserID: "new-user", Role: models.RoleView, ConfirmationRequired: true}, nil
}

func (f *fakeProvider) SignOut(ctx context.Context, refreshToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signedOut = append(f.signedOut, refreshToken)
	return nil
}

func (f *fakeProvider) Refresh(ctx context.Context, refreshToken string) (*models.AuthSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.session("user-1", "geno@rnstower.com"), nil
}

func (f *fakeProvider) FetchProfile(ctx context.Context, accessToken string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	if f.profile == nil {
		return nil, nil
	}
	p := *f.profile
	return &p, nil
}

func TestGate_SignInReachesReady(t *testing.T) {
	provider := &fakeProvider{profile: &models.Profile{ID: "user-1", Email: "a@rnstower.com", Role: models.RoleAdmin}}
	gate := NewGate(provider, zerolog.Nop())

	var states []State
	gate.Subscribe(func(s Snapshot) { states = append(states, s.State) })

	require.NoError(t, gate.SignIn(context.Background(), "a@rnstower.com", "secret123"))

	assert.Equal(t, []State{Authenticating, AuthenticatedLoading, Ready}, states)
	assert.Equal(t, Ready, gate.State())
	assert.True(t, gate.Authenticated())
	assert.True(t, gate.IsAdmin())
	assert.Equal(t, "access-user-1", gate.AccessToken())
}

func TestGate_SignInFailureLeavesUnauthenticated(t *testing.T) {
	provider := &fakeProvider{signInErr: models.NewAuthError(models.AuthInvalidCredentials, nil)}
	gate := NewGate(provider, zerolog.Nop())

	err := gate.SignIn(context.Background(), "a@rnstower.com", "nope")

	var authErr *models.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Invalid login credentials", authErr.Message)
	assert.Equal(t, Unauthenticated, gate.State())
	assert.Nil(t, gate.Snapshot().Session)
	assert.False(t, gate.IsAdmin())
}

func TestGate_TransportErrorBecomesAuthError(t *testing.T) {
	gate := NewGate(&fakeProvider{signInErr: errors.New("dial tcp: refused")}, zerolog.Nop())

	err := gate.SignIn(context.Background(), "a@rnstower.com", "secret123")

	var authErr *models.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, models.AuthUnavailable, authErr.Kind)
}

func TestGate_ProfileFallback(t *testing.T) {
	for name, provider := range map[string]*fakeProvider{
		"no row":      {},
		"fetch error": {profileErr: errors.New("boom")},
		"not found":   {profileErr: models.ErrNotFound},
	} {
		t.Run(name, func(t *testing.T) {
			gate := NewGate(provider, zerolog.Nop())
			require.NoError(t, gate.SignIn(context.Background(), "geno@rnstower.com", "secret123"))

			snap := gate.Snapshot()
			require.NotNil(t, snap.Profile)
			assert.Equal(t, Ready, snap.State)
			assert.Equal(t, models.RoleView, snap.Profile.Role)
			assert.Equal(t, "user-1", snap.Profile.ID)
			assert.Equal(t, "geno@rnstower.com", snap.Profile.Email)
			assert.False(t, gate.IsAdmin())
		})
	}
}

func TestGate_SignOutIsIdempotent(t *testing.T) {
	provider := &fakeProvider{}
	gate := NewGate(provider, zerolog.Nop())
	ctx := context.Background()

	gate.SignOut(ctx)
	assert.Empty(t, provider.signedOut)

	require.NoError(t, gate.SignIn(ctx, "geno@rnstower.com", "secret123"))
	token := gate.Snapshot().Session.RefreshToken

	gate.SignOut(ctx)
	gate.SignOut(ctx)

	assert.Equal(t, []string{token}, provider.signedOut)
	assert.Equal(t, Unauthenticated, gate.State())
	assert.Equal(t, "", gate.AccessToken())
}

func TestGate_Refresh(t *testing.T) {
	provider := &fakeProvider{}
	gate := NewGate(provider, zerolog.Nop())
	ctx := context.Background()

	assert.ErrorIs(t, gate.Refresh(ctx), models.ErrUnauthenticated)

	require.NoError(t, gate.SignIn(ctx, "geno@rnstower.com", "secret123"))
	before := gate.Snapshot().Session.RefreshToken

	require.NoError(t, gate.Refresh(ctx))
	assert.NotEqual(t, before, gate.Snapshot().Session.RefreshToken)
	assert.Equal(t, Ready, gate.State())

	provider.refreshErr = models.NewAuthError(models.AuthInvalidToken, nil)
	assert.Error(t, gate.Refresh(ctx))
	assert.Equal(t, Unauthenticated, gate.State())
}

func TestGate_SetSessionAndSignUp(t *testing.T) {
	provider := &fakeProvider{profile: &models.Profile{ID: "user-9", Role: models.RoleView}}
	gate := NewGate(provider, zerolog.Nop())
	ctx := context.Background()

	id, err := gate.SignUp(ctx, "new@rnstower.com", "secret123", "newbie")
	require.NoError(t, err)
	assert.Equal(t, "new-user", id)
	assert.Equal(t, Unauthenticated, gate.State())
	require.Len(t, provider.signUps, 1)
	assert.Equal(t, "newbie", provider.signUps[0].Username)

	gate.SetSession(ctx, &models.AuthSession{AccessToken: "cb", RefreshToken: "cb-r", User: models.User{ID: "user-9"}})
	assert.Equal(t, Ready, gate.State())

	gate.SetSession(ctx, nil)
	assert.Equal(t, Unauthenticated, gate.State())
}

func TestGate_Unsubscribe(t *testing.T) {
	gate := NewGate(&fakeProvider{}, zerolog.Nop())
	calls := 0
	unsubscribe := gate.Subscribe(func(Snapshot) { calls++ })
	unsubscribe()

	require.NoError(t, gate.SignIn(context.Background(), "geno@rnstower.com", "secret123"))
	assert.Equal(t, 0, calls)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "ready", Ready.String())
	assert.Equal(t, "authenticated_loading", AuthenticatedLoading.String())
	assert.Equal(t, "unknown", State(42).String())
}
