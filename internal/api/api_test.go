package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/api"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/auth"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/board"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/client"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/config"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/events"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/metrics"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/mocks"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/models"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/planner"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/repository"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/service"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/session"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/syncer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminEmail = "antenicka.west@rnstower.com"
	password   = "secret123"
)

var geno = models.Resource{ID: "crew-1", Name: "Geno", Type: models.ResourceCrew}

func init() {
	auth.PasswordCost = bcrypt.MinCost
}

// stubHealth fails the health check while err is set
type stubHealth struct {
	err error
}

func (s *stubHealth) HealthCheck(ctx context.Context) error {
	return s.err
}

type testServer struct {
	srv      *httptest.Server
	health   *stubHealth
	repos    *repository.Repositories
	mailer   *mocks.MockMailer
	services *service.Services
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:           "0123456789abcdef0123456789abcdef",
			Issuer:              "schedule-board",
			AccessTokenTTL:      time.Hour,
			RefreshTokenTTL:     24 * time.Hour,
			ConfirmationTTL:     time.Hour,
			RequireConfirmation: true,
			AdminEmail:          adminEmail,
			SiteURL:             "http://board.test",
		},
	}

	registry := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(registry)

	ts := &testServer{
		repos:  mocks.NewRepositories(),
		mailer: mocks.NewMockMailer(),
		health: &stubHealth{},
	}
	ts.repos.Resource.(*mocks.MockResourceRepository).Resources[models.ResourceCrew] = []models.Resource{geno}

	log := zerolog.Nop()
	ts.services = service.NewServices(ts.repos, cfg, log, service.Options{Mailer: ts.mailer, Metrics: m})
	router := api.NewRouter(ts.services, cfg, log, api.RouterOptions{Metrics: m, Gatherer: registry, Health: ts.health})

	ts.srv = httptest.NewServer(router)
	t.Cleanup(ts.srv.Close)
	return ts
}

// noRedirect returns redirects to the caller instead of following them
func noRedirect() *http.Client {
	return &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}
}

// register signs up email and follows the mailed confirmation link
func (ts *testServer) register(t *testing.T, email string) *models.SignUpResult {
	t.Helper()
	ctx := context.Background()

	result, err := client.New(ts.srv.URL).SignUp(ctx, &models.SignUpRequest{Email: email, Password: password})
	if err != nil {
		t.Fatalf("SignUp(%s) failed: %v", email, err)
	}

	mail, ok := ts.mailer.Last()
	if !ok {
		t.Fatal("expected a confirmation mail")
	}
	link, err := url.Parse(mail.Link)
	if err != nil {
		t.Fatalf("bad confirmation link %q: %v", mail.Link, err)
	}

	resp, err := noRedirect().Get(ts.srv.URL + link.Path + "?" + link.RawQuery)
	if err != nil {
		t.Fatalf("callback failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("Expected callback status 302, got %d", resp.StatusCode)
	}
	return result
}

type boardClient struct {
	api     *client.Client
	gate    *session.Gate
	engine  *syncer.Engine
	planner *planner.Planner
}

// signIn builds the full client stack for email and signs it in
func (ts *testServer) signIn(t *testing.T, email string) *boardClient {
	t.Helper()
	log := zerolog.Nop()

	bc := &boardClient{}
	bc.api = client.New(ts.srv.URL, client.WithTokenSource(func() string { return bc.gate.AccessToken() }))
	bc.gate = session.NewGate(bc.api, log)
	bus := events.NewBus()
	bc.engine = syncer.New(bc.api, bc.gate, bus, 0, log)
	bc.planner = planner.New(bc.gate, bc.engine, bc.api, bus, log)
	t.Cleanup(func() {
		bc.planner.Close()
		bc.engine.Close()
	})

	if err := bc.gate.SignIn(context.Background(), email, password); err != nil {
		t.Fatalf("SignIn(%s) failed: %v", email, err)
	}
	if bc.gate.State() != session.Ready {
		t.Fatalf("Expected gate to be ready, got %s", bc.gate.State())
	}
	return bc
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, api.ErrorResponse) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, _ := json.Marshal(body)
		reader = bytes.NewReader(buf)
	}
	req, _ := http.NewRequest(method, ts.srv.URL+path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	var errResp api.ErrorResponse
	if resp.StatusCode >= 400 {
		json.NewDecoder(resp.Body).Decode(&errResp)
	}
	return resp, errResp
}

func TestHealthEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	resp, err := http.Get(ts.srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var response map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&response)

	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", response["status"])
	}
	if response["service"] != "schedule-board" {
		t.Errorf("Expected service name, got %v", response["service"])
	}
}

func TestHealthEndpoint_DatabaseDown(t *testing.T) {
	ts := setupTestServer(t)
	ts.health.err = errors.New("connection refused")

	resp, err := http.Get(ts.srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", resp.StatusCode)
	}
	var response map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&response)
	if response["status"] != "unhealthy" {
		t.Errorf("Expected status 'unhealthy', got %v", response["status"])
	}
}

func TestStatsEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	resp, err := http.Get(ts.srv.URL + "/stats")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var response map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&response)

	db := response["database"].(map[string]interface{})
	if db["crews"].(float64) != 1 {
		t.Errorf("Expected 1 crew, got %v", db["crews"])
	}
	if db["trucks"].(float64) != 0 {
		t.Errorf("Expected 0 trucks, got %v", db["trucks"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	ts.do(t, http.MethodGet, "/v1/board", "", nil)

	resp, err := http.Get(ts.srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), `schedule_board_http_requests_total{endpoint="/v1/board",method="GET",status="4xx"} 1`) {
		t.Errorf("Expected request counter for /v1/board, got:\n%s", body)
	}
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	ts := setupTestServer(t)

	resp, errResp := ts.do(t, http.MethodGet, "/v1/board", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", resp.StatusCode)
	}
	if errResp.Code != api.CodeUnauthenticated {
		t.Errorf("Expected code %q, got %q", api.CodeUnauthenticated, errResp.Code)
	}

	resp, errResp = ts.do(t, http.MethodGet, "/v1/board", "not-a-jwt", nil)
	if resp.StatusCode != http.StatusUnauthorized || errResp.Code != string(models.AuthInvalidToken) {
		t.Errorf("Expected 401 invalid_token, got %d %q", resp.StatusCode, errResp.Code)
	}
}

func TestSignUp_AdminEmailGetsAdminRole(t *testing.T) {
	ts := setupTestServer(t)

	admin := ts.register(t, adminEmail)
	viewer := ts.register(t, "crew.lead@rnstower.com")

	if admin.Role != models.RoleAdmin {
		t.Errorf("Expected admin role for %s, got %s", adminEmail, admin.Role)
	}
	if viewer.Role != models.RoleView {
		t.Errorf("Expected view role, got %s", viewer.Role)
	}

	a := ts.signIn(t, adminEmail)
	if !a.gate.IsAdmin() {
		t.Error("Expected admin gate to report IsAdmin")
	}
	v := ts.signIn(t, "crew.lead@rnstower.com")
	if v.gate.IsAdmin() {
		t.Error("Expected view gate not to report IsAdmin")
	}
}

func TestSignIn_Unconfirmed(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()
	c := client.New(ts.srv.URL)

	if _, err := c.SignUp(ctx, &models.SignUpRequest{Email: "new@rnstower.com", Password: password}); err != nil {
		t.Fatal(err)
	}

	gate := session.NewGate(c, zerolog.Nop())
	err := gate.SignIn(ctx, "new@rnstower.com", password)
	if err == nil || err.Error() != "Email not confirmed" {
		t.Errorf("Expected 'Email not confirmed', got %v", err)
	}
	if gate.State() != session.Unauthenticated {
		t.Errorf("Expected unauthenticated gate, got %s", gate.State())
	}
}

func TestCallback_RedirectsRegardless(t *testing.T) {
	ts := setupTestServer(t)

	resp, err := noRedirect().Get(ts.srv.URL + "/auth/callback?code=bogus")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/" {
		t.Errorf("Expected 302 to /, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	if len(resp.Cookies()) != 0 {
		t.Errorf("Expected no cookies for a bad code, got %v", resp.Cookies())
	}

	if _, err := client.New(ts.srv.URL).SignUp(context.Background(), &models.SignUpRequest{Email: adminEmail, Password: password}); err != nil {
		t.Fatal(err)
	}
	mail, _ := ts.mailer.Last()
	link, _ := url.Parse(mail.Link)

	resp, err = noRedirect().Get(ts.srv.URL + "/auth/callback?" + link.RawQuery)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/" {
		t.Errorf("Expected 302 to /, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	names := map[string]bool{}
	for _, c := range resp.Cookies() {
		names[c.Name] = c.Value != ""
	}
	if !names[api.AccessTokenCookie] || !names[api.RefreshTokenCookie] {
		t.Errorf("Expected session cookies, got %v", resp.Cookies())
	}
}

func TestMe_FallsBackToDefaultProfile(t *testing.T) {
	ts := setupTestServer(t)
	ts.register(t, adminEmail)
	a := ts.signIn(t, adminEmail)

	profiles := ts.repos.Profile.(*mocks.MockProfileRepository)
	profiles.Profiles = map[string]*models.Profile{}

	p, err := a.api.FetchProfile(context.Background(), a.gate.AccessToken())
	if err != nil {
		t.Fatal(err)
	}
	if p.Role != models.RoleView || p.Email != adminEmail {
		t.Errorf("Expected default view profile, got %+v", p)
	}
}

func TestGetBoard_NotFound(t *testing.T) {
	ts := setupTestServer(t)
	ts.register(t, adminEmail)
	a := ts.signIn(t, adminEmail)

	resp, errResp := ts.do(t, http.MethodGet, "/v1/board", a.gate.AccessToken(), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.StatusCode)
	}
	if errResp.Code != api.CodeNotFound {
		t.Errorf("Expected code not_found, got %q", errResp.Code)
	}

	if err := a.engine.PullBoard(context.Background()); err != nil {
		t.Errorf("Expected pull of an absent board to be benign, got %v", err)
	}
	if a.engine.SyncError() != nil {
		t.Errorf("Expected no sync error, got %v", a.engine.SyncError())
	}
}

func TestAddSite_SecondClientPullsIt(t *testing.T) {
	ts := setupTestServer(t)
	ts.register(t, adminEmail)
	ts.register(t, "viewer@rnstower.com")
	ctx := context.Background()

	a := ts.signIn(t, adminEmail)
	v := ts.signIn(t, "viewer@rnstower.com")

	if _, err := a.planner.AddSite(ctx, "Site 1"); err != nil {
		t.Fatalf("AddSite failed: %v", err)
	}
	if err := v.engine.PullBoard(ctx); err != nil {
		t.Fatalf("PullBoard failed: %v", err)
	}

	cols := v.planner.Board().Columns
	if len(cols) != 1 || cols[0].Name != "Site 1" || len(cols[0].Items) != 0 {
		t.Errorf("Expected [{Site 1 []}], got %+v", cols)
	}
}

func TestMoveGeno_RoundTrip(t *testing.T) {
	ts := setupTestServer(t)
	ts.register(t, adminEmail)
	ctx := context.Background()

	a := ts.signIn(t, adminEmail)
	if err := a.planner.LoadResources(ctx); err != nil {
		t.Fatal(err)
	}
	if got := a.planner.Available(models.ResourceCrew); len(got) != 1 || got[0].Name != "Geno" {
		t.Fatalf("Expected Geno in the crew pool, got %+v", got)
	}

	if _, err := a.planner.AddSite(ctx, "Site 1"); err != nil {
		t.Fatal(err)
	}
	if err := a.planner.MoveItem(ctx, geno, board.ToColumn(0)); err != nil {
		t.Fatal(err)
	}

	fresh := ts.signIn(t, adminEmail)
	if err := fresh.engine.PullBoard(ctx); err != nil {
		t.Fatal(err)
	}
	items := fresh.planner.Board().Columns[0].Items
	if len(items) != 1 || items[0] != geno {
		t.Errorf("Expected exactly Geno in column 0, got %+v", items)
	}
	if len(fresh.planner.Available(models.ResourceCrew)) != 0 {
		t.Error("Expected Geno to be placed")
	}
}

func TestViewerPush_IsNoop(t *testing.T) {
	ts := setupTestServer(t)
	ts.register(t, adminEmail)
	ts.register(t, "viewer@rnstower.com")
	ctx := context.Background()

	a := ts.signIn(t, adminEmail)
	if _, err := a.planner.AddSite(ctx, "Site 1"); err != nil {
		t.Fatal(err)
	}
	before, _ := ts.repos.Board.Get(ctx)

	v := ts.signIn(t, "viewer@rnstower.com")
	doc := board.New()
	board.AddSite(doc, "Rogue site")
	if err := v.engine.PushBoard(ctx, doc); err != nil {
		t.Errorf("Expected view push to be a silent no-op, got %v", err)
	}

	after, _ := ts.repos.Board.Get(ctx)
	if !after.UpdatedAt.Equal(before.UpdatedAt) || after.Version != before.Version {
		t.Errorf("Expected board untouched, updated_at %v -> %v", before.UpdatedAt, after.UpdatedAt)
	}
}

func TestViewerPut_Forbidden(t *testing.T) {
	ts := setupTestServer(t)
	ts.register(t, "viewer@rnstower.com")
	v := ts.signIn(t, "viewer@rnstower.com")

	row, _ := board.ToRow(board.New())
	body := models.PushRequest{BoardData: row.BoardData}
	resp, errResp := ts.do(t, http.MethodPut, "/v1/board", v.gate.AccessToken(), body)

	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", resp.StatusCode)
	}
	if errResp.Code != api.CodeForbidden {
		t.Errorf("Expected code forbidden, got %q", errResp.Code)
	}
}

func TestPush_InvalidDocument(t *testing.T) {
	ts := setupTestServer(t)
	ts.register(t, adminEmail)
	a := ts.signIn(t, adminEmail)

	body := map[string]interface{}{"board_data": json.RawMessage(`{"columns":"nope"}`)}
	resp, errResp := ts.do(t, http.MethodPut, "/v1/board", a.gate.AccessToken(), body)
	if resp.StatusCode != http.StatusBadRequest || errResp.Code != api.CodeInvalidInput {
		t.Errorf("Expected 400 invalid_input, got %d %q", resp.StatusCode, errResp.Code)
	}
}

func TestConcurrentAdmins_Conflict(t *testing.T) {
	ts := setupTestServer(t)
	second := ts.register(t, "foreman@rnstower.com")
	ts.register(t, adminEmail)
	ctx := context.Background()

	a := ts.signIn(t, adminEmail)
	if _, err := a.api.UpdateRole(ctx, second.UserID, models.RoleAdmin); err != nil {
		t.Fatalf("UpdateRole failed: %v", err)
	}
	b := ts.signIn(t, "foreman@rnstower.com")
	if !b.gate.IsAdmin() {
		t.Fatal("Expected promoted user to be admin")
	}

	if _, err := a.planner.AddSite(ctx, "Site A"); err != nil {
		t.Fatal(err)
	}

	_, err := b.planner.AddSite(ctx, "Site B")
	if err == nil {
		t.Fatal("Expected stale push to fail")
	}
	if !strings.Contains(err.Error(), "409") {
		t.Errorf("Expected a 409 from the server, got %v", err)
	}

	cols := b.planner.Board().Columns
	if len(cols) != 1 || cols[0].Name != "Site A" {
		t.Errorf("Expected the losing client to converge on Site A, got %+v", cols)
	}
}

func TestMalformedIDs_NotFound(t *testing.T) {
	ts := setupTestServer(t)
	ts.register(t, adminEmail)
	a := ts.signIn(t, adminEmail)
	token := a.gate.AccessToken()

	tests := []struct {
		method string
		path   string
		body   interface{}
	}{
		{http.MethodGet, "/v1/schedules/abc", nil},
		{http.MethodPost, "/v1/schedules/abc/restore", nil},
		{http.MethodPatch, "/v1/users/abc/role", map[string]string{"role": "admin"}},
		{http.MethodPost, "/v1/users/abc/reset-password", nil},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp, errResp := ts.do(t, tt.method, tt.path, token, tt.body)
			if resp.StatusCode != http.StatusNotFound {
				t.Errorf("Expected status 404, got %d", resp.StatusCode)
			}
			if errResp.Code != api.CodeNotFound {
				t.Errorf("Expected code not_found, got %q", errResp.Code)
			}
		})
	}
}

func TestUserManagement(t *testing.T) {
	ts := setupTestServer(t)
	ts.register(t, adminEmail)
	viewer := ts.register(t, "viewer@rnstower.com")
	ctx := context.Background()

	a := ts.signIn(t, adminEmail)
	v := ts.signIn(t, "viewer@rnstower.com")

	users, err := a.api.ListUsers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 2 {
		t.Errorf("Expected 2 users, got %d", len(users))
	}

	if _, err := v.api.ListUsers(ctx); err == nil {
		t.Error("Expected viewer to be refused the user list")
	}

	resp, _ := ts.do(t, http.MethodPost, "/v1/users/"+viewer.UserID+"/reset-password", a.gate.AccessToken(), nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	p, _ := ts.repos.Profile.GetByID(ctx, viewer.UserID)
	if p.PasswordChanged {
		t.Error("Expected password_changed to be cleared")
	}

	resp, errResp := ts.do(t, http.MethodPatch, "/v1/users/"+viewer.UserID+"/role", a.gate.AccessToken(), map[string]string{"role": "owner"})
	if resp.StatusCode != http.StatusBadRequest || errResp.Code != api.CodeInvalidInput {
		t.Errorf("Expected 400 invalid_input for an unknown role, got %d %q", resp.StatusCode, errResp.Code)
	}
}

func TestSchedules_SnapshotAndRestore(t *testing.T) {
	ts := setupTestServer(t)
	ts.register(t, adminEmail)
	ctx := context.Background()
	a := ts.signIn(t, adminEmail)

	if _, err := a.planner.AddSite(ctx, "Week 1 site"); err != nil {
		t.Fatal(err)
	}
	saved, err := a.api.SaveSchedule(ctx, "Week 1")
	if err != nil {
		t.Fatal(err)
	}

	if err := a.planner.ClearBoard(ctx); err != nil {
		t.Fatal(err)
	}

	list, err := a.api.ListSchedules(ctx)
	if err != nil || len(list) != 1 || list[0].Name != "Week 1" {
		t.Fatalf("Expected one schedule named Week 1, got %+v (%v)", list, err)
	}

	row, err := a.api.RestoreSchedule(ctx, saved.ID)
	if err != nil {
		t.Fatal(err)
	}
	if row.Version != 3 {
		t.Errorf("Expected version 3 after restore, got %d", row.Version)
	}

	if err := a.engine.PullBoard(ctx); err != nil {
		t.Fatal(err)
	}
	cols := a.planner.Board().Columns
	if len(cols) != 1 || cols[0].Name != "Week 1 site" {
		t.Errorf("Expected restored site, got %+v", cols)
	}
}

func TestResources_CreateRequiresAdmin(t *testing.T) {
	ts := setupTestServer(t)
	ts.register(t, adminEmail)
	ts.register(t, "viewer@rnstower.com")
	ctx := context.Background()

	a := ts.signIn(t, adminEmail)
	v := ts.signIn(t, "viewer@rnstower.com")

	if _, err := a.planner.AddResource(ctx, models.ResourceTruck, "T-12"); err != nil {
		t.Fatalf("AddResource failed: %v", err)
	}
	if _, err := v.api.CreateResource(ctx, models.ResourceTruck, "T-13"); err == nil {
		t.Error("Expected viewer create to fail")
	}

	trucks, err := v.api.ListResources(ctx, models.ResourceTruck)
	if err != nil {
		t.Fatal(err)
	}
	if len(trucks) != 1 || trucks[0].Name != "T-12" {
		t.Errorf("Expected [T-12], got %+v", trucks)
	}

	resp, _ := ts.do(t, http.MethodGet, "/v1/resources/boats", a.gate.AccessToken(), nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400 for unknown type, got %d", resp.StatusCode)
	}
}

func TestBoardStream_ReceivesUpdates(t *testing.T) {
	ts := setupTestServer(t)
	ts.register(t, adminEmail)
	a := ts.signIn(t, adminEmail)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rows := make(chan *models.CurrentBoard, 1)
	watchDone := make(chan error, 1)
	go func() {
		watchDone <- a.api.Watch(ctx, func(row *models.CurrentBoard) { rows <- row })
	}()

	deadline := time.Now().Add(2 * time.Second)
	for ts.services.Events.Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Expected the stream to subscribe")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if _, err := a.planner.AddSite(context.Background(), "Site 1"); err != nil {
		t.Fatal(err)
	}

	select {
	case row := <-rows:
		if row.Version != 1 {
			t.Errorf("Expected version 1, got %d", row.Version)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Expected a board update on the stream")
	}

	cancel()
	select {
	case <-watchDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected Watch to return after cancel")
	}
}

func TestSignOut_ClearsGate(t *testing.T) {
	ts := setupTestServer(t)
	ts.register(t, adminEmail)
	a := ts.signIn(t, adminEmail)

	a.engine.ToggleAutoSync()
	if a.engine.ActiveTimers() != 1 {
		t.Fatalf("Expected one timer, got %d", a.engine.ActiveTimers())
	}

	a.gate.SignOut(context.Background())
	if a.gate.Authenticated() {
		t.Error("Expected gate to be signed out")
	}
	if a.engine.ActiveTimers() != 0 {
		t.Errorf("Expected timer to stop on sign-out, got %d", a.engine.ActiveTimers())
	}
}
