package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/models"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/repository"
)

var (
	_ repository.ProfileRepository  = (*MockProfileRepository)(nil)
	_ repository.IdentityRepository = (*MockIdentityRepository)(nil)
	_ repository.ResourceRepository = (*MockResourceRepository)(nil)
	_ repository.ScheduleRepository = (*MockScheduleRepository)(nil)
	_ repository.BoardRepository    = (*MockBoardRepository)(nil)
	_ repository.Transactor         = (*MockTransactor)(nil)
)

// NewRepositories returns a Repositories aggregate backed by fresh
// in-memory mocks
func NewRepositories() *repository.Repositories {
	profiles := NewMockProfileRepository()
	identities := NewMockIdentityRepository()
	return &repository.Repositories{
		Profile:  profiles,
		Identity: identities,
		Resource: NewMockResourceRepository(),
		Schedule: NewMockScheduleRepository(),
		Board:    NewMockBoardRepository(),
		Tx:       &MockTransactor{Profiles: profiles, Identities: identities},
	}
}

// MockTransactor gives the profile and identity mocks transaction
// semantics: their state is restored when fn fails
type MockTransactor struct {
	mu         sync.Mutex
	Profiles   *MockProfileRepository
	Identities *MockIdentityRepository
	Commits    int
	Rollbacks  int
}

func (m *MockTransactor) WithinTx(ctx context.Context, fn func(repos *repository.Repositories) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	profiles := m.Profiles.snapshot()
	identities := m.Identities.snapshot()

	repos := &repository.Repositories{Profile: m.Profiles, Identity: m.Identities}
	if err := fn(repos); err != nil {
		m.Profiles.restore(profiles)
		m.Identities.restore(identities)
		m.Rollbacks++
		return err
	}
	m.Commits++
	return nil
}

// MockProfileRepository is a mock implementation of ProfileRepository
type MockProfileRepository struct {
	mu          sync.Mutex
	Profiles    map[string]*models.Profile
	GetError    error
	CreateError error
}

func NewMockProfileRepository() *MockProfileRepository {
	return &MockProfileRepository{Profiles: make(map[string]*models.Profile)}
}

func (m *MockProfileRepository) Create(ctx context.Context, p *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return m.CreateError
	}
	if _, ok := m.Profiles[p.ID]; ok {
		return nil
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.UpdatedAt = p.CreatedAt
	stored := *p
	m.Profiles[p.ID] = &stored
	return nil
}

func (m *MockProfileRepository) snapshot() map[string]models.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]models.Profile, len(m.Profiles))
	for id, p := range m.Profiles {
		out[id] = *p
	}
	return out
}

func (m *MockProfileRepository) restore(saved map[string]models.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Profiles = make(map[string]*models.Profile, len(saved))
	for id, p := range saved {
		p := p
		m.Profiles[id] = &p
	}
}

func (m *MockProfileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	p, ok := m.Profiles[id]
	if !ok {
		return nil, nil
	}
	out := *p
	return &out, nil
}

func (m *MockProfileRepository) List(ctx context.Context) ([]*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Profile, 0, len(m.Profiles))
	for _, p := range m.Profiles {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MockProfileRepository) UpdateRole(ctx context.Context, id string, role models.Role) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Profiles[id]
	if !ok {
		return false, nil
	}
	p.Role = role
	p.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockProfileRepository) SetPasswordChanged(ctx context.Context, id string, changed bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Profiles[id]
	if !ok {
		return false, nil
	}
	p.PasswordChanged = changed
	p.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockProfileRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Profiles), nil
}

// MockIdentityRepository is a mock implementation of IdentityRepository
type MockIdentityRepository struct {
	mu            sync.Mutex
	Identities    map[string]*models.Identity
	EmailToID     map[string]string
	Codes         map[string]*models.AuthCode
	RefreshTokens map[string]*models.RefreshToken
	// Err is returned by every call when set
	Err error
}

func NewMockIdentityRepository() *MockIdentityRepository {
	return &MockIdentityRepository{
		Identities:    make(map[string]*models.Identity),
		EmailToID:     make(map[string]string),
		Codes:         make(map[string]*models.AuthCode),
		RefreshTokens: make(map[string]*models.RefreshToken),
	}
}

func (m *MockIdentityRepository) Create(ctx context.Context, identity *models.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	identity.Email = strings.ToLower(identity.Email)
	if _, ok := m.EmailToID[identity.Email]; ok {
		return &models.QueryError{Op: "insert", Table: "identities", Err: models.ErrDuplicate}
	}
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = time.Now()
	}
	stored := *identity
	m.Identities[identity.ID] = &stored
	m.EmailToID[identity.Email] = identity.ID
	return nil
}

type identityState struct {
	identities map[string]models.Identity
	emails     map[string]string
	codes      map[string]models.AuthCode
	tokens     map[string]models.RefreshToken
}

func (m *MockIdentityRepository) snapshot() identityState {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := identityState{
		identities: make(map[string]models.Identity, len(m.Identities)),
		emails:     make(map[string]string, len(m.EmailToID)),
		codes:      make(map[string]models.AuthCode, len(m.Codes)),
		tokens:     make(map[string]models.RefreshToken, len(m.RefreshTokens)),
	}
	for k, v := range m.Identities {
		st.identities[k] = *v
	}
	for k, v := range m.EmailToID {
		st.emails[k] = v
	}
	for k, v := range m.Codes {
		st.codes[k] = *v
	}
	for k, v := range m.RefreshTokens {
		st.tokens[k] = *v
	}
	return st
}

func (m *MockIdentityRepository) restore(st identityState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Identities = make(map[string]*models.Identity, len(st.identities))
	for k, v := range st.identities {
		v := v
		m.Identities[k] = &v
	}
	m.EmailToID = st.emails
	m.Codes = make(map[string]*models.AuthCode, len(st.codes))
	for k, v := range st.codes {
		v := v
		m.Codes[k] = &v
	}
	m.RefreshTokens = make(map[string]*models.RefreshToken, len(st.tokens))
	for k, v := range st.tokens {
		v := v
		m.RefreshTokens[k] = &v
	}
}

func (m *MockIdentityRepository) GetByID(ctx context.Context, id string) (*models.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	identity, ok := m.Identities[id]
	if !ok {
		return nil, nil
	}
	out := *identity
	return &out, nil
}

func (m *MockIdentityRepository) GetByEmail(ctx context.Context, email string) (*models.Identity, error) {
	m.mu.Lock()
	id, ok := m.EmailToID[strings.ToLower(email)]
	m.mu.Unlock()
	if !ok {
		if m.Err != nil {
			return nil, m.Err
		}
		return nil, nil
	}
	return m.GetByID(ctx, id)
}

func (m *MockIdentityRepository) Confirm(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if identity, ok := m.Identities[id]; ok && identity.ConfirmedAt == nil {
		identity.ConfirmedAt = &at
	}
	return m.Err
}

func (m *MockIdentityRepository) CreateAuthCode(ctx context.Context, code *models.AuthCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	stored := *code
	m.Codes[code.Code] = &stored
	return nil
}

func (m *MockIdentityRepository) ConsumeAuthCode(ctx context.Context, code string, now time.Time) (*models.AuthCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	ac, ok := m.Codes[code]
	if !ok || ac.UsedAt != nil || !now.Before(ac.ExpiresAt) {
		return nil, nil
	}
	ac.UsedAt = &now
	out := *ac
	return &out, nil
}

func (m *MockIdentityRepository) StoreRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	stored := *token
	m.RefreshTokens[token.Token] = &stored
	return nil
}

func (m *MockIdentityRepository) GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	rt, ok := m.RefreshTokens[token]
	if !ok {
		return nil, nil
	}
	out := *rt
	return &out, nil
}

func (m *MockIdentityRepository) RevokeRefreshToken(ctx context.Context, token string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rt, ok := m.RefreshTokens[token]; ok && rt.RevokedAt == nil {
		rt.RevokedAt = &at
	}
	return m.Err
}

// MockResourceRepository is a mock implementation of ResourceRepository
type MockResourceRepository struct {
	mu        sync.Mutex
	Resources map[models.ResourceType][]models.Resource
}

func NewMockResourceRepository() *MockResourceRepository {
	return &MockResourceRepository{Resources: make(map[models.ResourceType][]models.Resource)}
}

func (m *MockResourceRepository) List(ctx context.Context, t models.ResourceType) ([]models.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]models.Resource{}, m.Resources[t]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MockResourceRepository) Create(ctx context.Context, res *models.Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.Resources[res.Type] {
		if existing.ID == res.ID {
			return &models.QueryError{Op: "insert", Table: res.Type.Table(), Err: models.ErrDuplicate}
		}
	}
	if res.CreatedAt == nil {
		now := time.Now()
		res.CreatedAt = &now
	}
	if res.Status == "" {
		res.Status = models.StatusAvailable
	}
	m.Resources[res.Type] = append(m.Resources[res.Type], *res)
	return nil
}

func (m *MockResourceRepository) Count(ctx context.Context, t models.ResourceType) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Resources[t]), nil
}

// MockScheduleRepository is a mock implementation of ScheduleRepository
type MockScheduleRepository struct {
	mu        sync.Mutex
	Schedules map[string]*models.Schedule
}

func NewMockScheduleRepository() *MockScheduleRepository {
	return &MockScheduleRepository{Schedules: make(map[string]*models.Schedule)}
}

func (m *MockScheduleRepository) Create(ctx context.Context, s *models.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	stored := *s
	m.Schedules[s.ID] = &stored
	return nil
}

func (m *MockScheduleRepository) GetByID(ctx context.Context, id string) (*models.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.Schedules[id]
	if !ok {
		return nil, nil
	}
	out := *s
	return &out, nil
}

func (m *MockScheduleRepository) List(ctx context.Context) ([]*models.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Schedule, 0, len(m.Schedules))
	for _, s := range m.Schedules {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MockScheduleRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Schedules), nil
}

// MockBoardRepository is a mock implementation of BoardRepository with the
// same version check as the SQL one
type MockBoardRepository struct {
	mu        sync.Mutex
	Row       *models.CurrentBoard
	GetError  error
	SaveError error
	SaveCalls int
}

func NewMockBoardRepository() *MockBoardRepository {
	return &MockBoardRepository{}
}

func (m *MockBoardRepository) Get(ctx context.Context) (*models.CurrentBoard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	if m.Row == nil {
		return nil, &models.QueryError{Op: "select", Table: "current_board", Err: models.ErrNotFound}
	}
	out := *m.Row
	return &out, nil
}

func (m *MockBoardRepository) Save(ctx context.Context, row *models.CurrentBoard, baseVersion int64) (*models.CurrentBoard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls++
	if m.SaveError != nil {
		return nil, m.SaveError
	}

	var current int64
	if m.Row != nil {
		current = m.Row.Version
	}
	if current != baseVersion {
		return nil, &models.QueryError{Op: "save", Table: "current_board", Err: models.ErrConflict}
	}

	saved := *row
	saved.ID = models.CurrentBoardID
	saved.Version = current + 1
	if saved.UpdatedAt.IsZero() {
		saved.UpdatedAt = time.Now()
	}
	m.Row = &saved
	out := saved
	return &out, nil
}
