// Package session is the client-side authentication gate. It owns the
// current auth session and the derived profile, and tells subscribers
// whenever either changes.
package session

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/models"
	"github.com/rs/zerolog"
)

// State is the position of the gate in its sign-in lifecycle
type State int

const (
	Unauthenticated State = iota
	Authenticating
	AuthenticatedLoading
	Ready
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case AuthenticatedLoading:
		return "authenticated_loading"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// IdentityProvider is the remote side of the gate
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (*models.AuthSession, error)
	SignUp(ctx context.Context, req *models.SignUpRequest) (*models.SignUpResult, error)
	SignOut(ctx context.Context, refreshToken string) error
	Refresh(ctx context.Context, refreshToken string) (*models.AuthSession, error)
	FetchProfile(ctx context.Context, accessToken string) (*models.Profile, error)
}

// Snapshot is a consistent copy of the gate state
type Snapshot struct {
	State   State
	Session *models.AuthSession
	Profile *models.Profile
}

// Authenticated reports whether the snapshot carries a session
func (s Snapshot) Authenticated() bool {
	return s.Session != nil && (s.State == AuthenticatedLoading || s.State == Ready)
}

// Gate holds the session. It is safe for concurrent use; no provider call
// is made while holding the lock and subscribers are called outside it.
type Gate struct {
	provider IdentityProvider
	log      zerolog.Logger

	mu         sync.Mutex
	state      State
	session    *models.AuthSession
	profile    *models.Profile
	generation uint64

	subMu  sync.Mutex
	subs   map[int]func(Snapshot)
	nextID int
}

// NewGate creates a gate in the Unauthenticated state
func NewGate(provider IdentityProvider, log zerolog.Logger) *Gate {
	return &Gate{
		provider: provider,
		log:      log.With().Str("component", "session").Logger(),
		subs:     make(map[int]func(Snapshot)),
	}
}

// SignIn authenticates with email and password. On failure the gate is
// left Unauthenticated and the error is an *models.AuthError.
func (g *Gate) SignIn(ctx context.Context, email, password string) error {
	gen := g.begin()

	session, err := g.provider.SignIn(ctx, email, password)
	if err != nil {
		g.fail(gen)
		return asAuthError(err)
	}
	g.establish(ctx, gen, session)
	return nil
}

// SignUp registers a new identity and returns its id. The gate state does
// not change; the user signs in after confirming the email address.
func (g *Gate) SignUp(ctx context.Context, email, password, username string) (string, error) {
	result, err := g.provider.SignUp(ctx, &models.SignUpRequest{
		Email:    email,
		Password: password,
		Username: username,
	})
	if err != nil {
		return "", asAuthError(err)
	}
	return result.UserID, nil
}

// SignOut clears the local session and revokes it remotely. Calling it
// without a session is a no-op.
func (g *Gate) SignOut(ctx context.Context) {
	g.mu.Lock()
	session := g.session
	wasSignedIn := g.state != Unauthenticated
	g.generation++
	g.state = Unauthenticated
	g.session = nil
	g.profile = nil
	g.mu.Unlock()

	if wasSignedIn {
		g.notify()
	}
	if session == nil {
		return
	}
	if err := g.provider.SignOut(ctx, session.RefreshToken); err != nil {
		g.log.Warn().Err(err).Msg("Remote sign-out failed")
	}
}

// Refresh exchanges the refresh token for a new session
func (g *Gate) Refresh(ctx context.Context) error {
	g.mu.Lock()
	session := g.session
	g.mu.Unlock()
	if session == nil {
		return models.ErrUnauthenticated
	}

	gen := g.begin()
	next, err := g.provider.Refresh(ctx, session.RefreshToken)
	if err != nil {
		g.fail(gen)
		return asAuthError(err)
	}
	g.establish(ctx, gen, next)
	return nil
}

// SetSession adopts a session obtained elsewhere, such as the callback
// code exchange
func (g *Gate) SetSession(ctx context.Context, session *models.AuthSession) {
	if session == nil {
		g.SignOut(ctx)
		return
	}
	gen := g.begin()
	g.establish(ctx, gen, session)
}

// begin enters Authenticating and returns the generation that owns it
func (g *Gate) begin() uint64 {
	g.mu.Lock()
	g.generation++
	gen := g.generation
	g.state = Authenticating
	g.mu.Unlock()
	g.notify()
	return gen
}

func (g *Gate) fail(gen uint64) {
	g.mu.Lock()
	if g.generation != gen {
		g.mu.Unlock()
		return
	}
	g.state = Unauthenticated
	g.session = nil
	g.profile = nil
	g.mu.Unlock()
	g.notify()
}

// establish stores the session, then loads the profile. A missing or
// unreadable profile is replaced by a view-only default that is never
// written back.
func (g *Gate) establish(ctx context.Context, gen uint64, session *models.AuthSession) {
	g.mu.Lock()
	if g.generation != gen {
		g.mu.Unlock()
		return
	}
	g.session = session
	g.profile = nil
	g.state = AuthenticatedLoading
	g.mu.Unlock()
	g.notify()

	profile, err := g.provider.FetchProfile(ctx, session.AccessToken)
	if err != nil || profile == nil {
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			g.log.Warn().Err(err).Str("user_id", session.User.ID).Msg("Profile fetch failed, using default profile")
		}
		profile = models.DefaultProfile(session.User.ID, session.User.Email)
	}

	g.mu.Lock()
	if g.generation != gen {
		g.mu.Unlock()
		return
	}
	g.profile = profile
	g.state = Ready
	g.mu.Unlock()
	g.notify()
}

// Snapshot returns a copy of the current state
func (g *Gate) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

func (g *Gate) snapshotLocked() Snapshot {
	snap := Snapshot{State: g.state}
	if g.session != nil {
		s := *g.session
		snap.Session = &s
	}
	if g.profile != nil {
		p := *g.profile
		snap.Profile = &p
	}
	return snap
}

// State returns the current state
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Authenticated reports whether a session is held
func (g *Gate) Authenticated() bool {
	return g.Snapshot().Authenticated()
}

// IsAdmin reports whether the loaded profile has the admin role. The
// server checks the role again on every write.
func (g *Gate) IsAdmin() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.profile.IsAdmin()
}

// AccessToken returns the bearer token of the current session, or ""
func (g *Gate) AccessToken() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.session == nil {
		return ""
	}
	return g.session.AccessToken
}

// Subscribe registers fn for state changes and returns a function that
// removes it
func (g *Gate) Subscribe(fn func(Snapshot)) func() {
	g.subMu.Lock()
	id := g.nextID
	g.nextID++
	g.subs[id] = fn
	g.subMu.Unlock()

	return func() {
		g.subMu.Lock()
		delete(g.subs, id)
		g.subMu.Unlock()
	}
}

func (g *Gate) notify() {
	snap := g.Snapshot()

	g.subMu.Lock()
	ids := make([]int, 0, len(g.subs))
	for id := range g.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Snapshot), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, g.subs[id])
	}
	g.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// asAuthError makes sure callers always see an *models.AuthError
func asAuthError(err error) error {
	var authErr *models.AuthError
	if errors.As(err, &authErr) {
		return authErr
	}
	return models.NewAuthError(models.AuthUnavailable, err)
}
