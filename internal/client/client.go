// Package client talks to the board server over HTTP. A Client is the
// identity provider of a session.Gate, the remote store of a syncer.Engine
// and the resource store of a planner.Planner.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/models"
)

// DefaultTimeout bounds every request made with the default http.Client
const DefaultTimeout = 15 * time.Second

// APIError is a non-2xx response. Err is the models sentinel matching Code,
// when there is one.
type APIError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

var sentinels = map[string]error{
	"not_found":       models.ErrNotFound,
	"conflict":        models.ErrConflict,
	"forbidden":       models.ErrForbidden,
	"unauthenticated": models.ErrUnauthenticated,
	"duplicate":       models.ErrDuplicate,
	"invalid_input":   models.ErrInvalidInput,
}

var authKinds = map[string]models.AuthErrorKind{
	string(models.AuthInvalidCredentials): models.AuthInvalidCredentials,
	string(models.AuthUnconfirmed):        models.AuthUnconfirmed,
	string(models.AuthDuplicate):          models.AuthDuplicate,
	string(models.AuthUnavailable):        models.AuthUnavailable,
	string(models.AuthInvalidToken):       models.AuthInvalidToken,
	string(models.AuthInvalidInput):       models.AuthInvalidInput,
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTokenSource sets the function that supplies the access token for
// authenticated calls, normally session.Gate.AccessToken
func WithTokenSource(fn func() string) Option {
	return func(c *Client) { c.token = fn }
}

// Client is safe for concurrent use
type Client struct {
	baseURL string
	http    *http.Client
	token   func() string
}

// New creates a client for the server at baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		token:   func() string { return "" },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server address
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do sends body as JSON and decodes a 2xx response into out. token
// overrides the token source when not empty.
func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token == "" {
		token = c.token()
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &body); err != nil {
		body.Error = strings.TrimSpace(string(raw))
	}

	if kind, ok := authKinds[body.Code]; ok && body.Code != "invalid_input" {
		return &models.AuthError{Kind: kind, Message: body.Error}
	}
	return &APIError{
		Status:  resp.StatusCode,
		Code:    body.Code,
		Message: body.Error,
		Err:     sentinels[body.Code],
	}
}

// SignUp registers a new login
func (c *Client) SignUp(ctx context.Context, req *models.SignUpRequest) (*models.SignUpResult, error) {
	var out models.SignUpResult
	if err := c.do(ctx, http.MethodPost, "/v1/auth/signup", "", req, &out); err != nil {
		return nil, authError(err)
	}
	return &out, nil
}

// SignIn exchanges a password for a session
func (c *Client) SignIn(ctx context.Context, email, password string) (*models.AuthSession, error) {
	var out models.AuthSession
	req := &models.SignInRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/v1/auth/signin", "", req, &out); err != nil {
		return nil, authError(err)
	}
	return &out, nil
}

// Refresh rotates a refresh token
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*models.AuthSession, error) {
	var out models.AuthSession
	body := map[string]string{"refresh_token": refreshToken}
	if err := c.do(ctx, http.MethodPost, "/v1/auth/refresh", "", body, &out); err != nil {
		return nil, authError(err)
	}
	return &out, nil
}

// SignOut revokes a refresh token
func (c *Client) SignOut(ctx context.Context, refreshToken string) error {
	body := map[string]string{"refresh_token": refreshToken}
	return c.do(ctx, http.MethodPost, "/v1/auth/signout", "", body, nil)
}

// FetchProfile loads the profile of the user holding accessToken
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (*models.Profile, error) {
	var out models.Profile
	if err := c.do(ctx, http.MethodGet, "/v1/me", accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// authError makes every auth endpoint failure an *models.AuthError
func authError(err error) error {
	var authErr *models.AuthError
	if errors.As(err, &authErr) {
		return err
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Code == "invalid_input" {
		return &models.AuthError{Kind: models.AuthInvalidInput, Message: apiErr.Message, Err: err}
	}
	return models.NewAuthError(models.AuthUnavailable, err)
}

// FetchBoard returns the singleton board row
func (c *Client) FetchBoard(ctx context.Context) (*models.CurrentBoard, error) {
	var out models.CurrentBoard
	if err := c.do(ctx, http.MethodGet, "/v1/board", "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveBoard writes row as the whole board, expecting the stored version
// to still be baseVersion
func (c *Client) SaveBoard(ctx context.Context, row *models.CurrentBoard, baseVersion int64) (*models.CurrentBoard, error) {
	req := &models.PushRequest{
		BoardData:          row.BoardData,
		PermanentBoxesData: row.PermanentBoxesData,
		LocationData:       row.LocationData,
		BaseVersion:        baseVersion,
	}
	var out models.CurrentBoard
	if err := c.do(ctx, http.MethodPut, "/v1/board", "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type listResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

// ListResources returns the pool of type t ordered by name
func (c *Client) ListResources(ctx context.Context, t models.ResourceType) ([]models.Resource, error) {
	var out listResponse[models.Resource]
	if err := c.do(ctx, http.MethodGet, "/v1/resources/"+url.PathEscape(t.Table()), "", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// CreateResource adds a resource to the pool of type t
func (c *Client) CreateResource(ctx context.Context, t models.ResourceType, name string) (*models.Resource, error) {
	var out models.Resource
	body := map[string]string{"name": name}
	if err := c.do(ctx, http.MethodPost, "/v1/resources/"+url.PathEscape(t.Table()), "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListSchedules returns saved schedules, newest first
func (c *Client) ListSchedules(ctx context.Context) ([]*models.Schedule, error) {
	var out listResponse[*models.Schedule]
	if err := c.do(ctx, http.MethodGet, "/v1/schedules", "", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// SaveSchedule snapshots the current board under name
func (c *Client) SaveSchedule(ctx context.Context, name string) (*models.Schedule, error) {
	var out models.Schedule
	body := map[string]string{"name": name}
	if err := c.do(ctx, http.MethodPost, "/v1/schedules", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RestoreSchedule makes a saved schedule the current board
func (c *Client) RestoreSchedule(ctx context.Context, id string) (*models.CurrentBoard, error) {
	var out models.CurrentBoard
	if err := c.do(ctx, http.MethodPost, "/v1/schedules/"+url.PathEscape(id)+"/restore", "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUsers returns every profile. Admin only.
func (c *Client) ListUsers(ctx context.Context) ([]*models.Profile, error) {
	var out listResponse[*models.Profile]
	if err := c.do(ctx, http.MethodGet, "/v1/users", "", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// UpdateRole changes the role of a user. Admin only.
func (c *Client) UpdateRole(ctx context.Context, userID string, role models.Role) (*models.Profile, error) {
	var out models.Profile
	body := map[string]models.Role{"role": role}
	if err := c.do(ctx, http.MethodPatch, "/v1/users/"+url.PathEscape(userID)+"/role", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
