package api

import (
	"net/http"
	"strings"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/config"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/models"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Cookie names set by the confirmation callback
const (
	AccessTokenCookie  = "sb-access-token"
	RefreshTokenCookie = "sb-refresh-token"
)

// AuthHandler handles sign-up, sign-in and the confirmation callback
type AuthHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "auth").Logger(),
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// SignUp handles POST /v1/auth/signup
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}

	result, err := h.services.Auth.SignUp(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// SignIn handles POST /v1/auth/signin
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req models.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}

	session, err := h.services.Auth.SignIn(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// Refresh handles POST /v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		badRequest(c, "refresh_token is required")
		return
	}

	session, err := h.services.Auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// SignOut handles POST /v1/auth/signout. Unknown tokens are not an error.
func (h *AuthHandler) SignOut(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}

	if err := h.services.Auth.SignOut(c.Request.Context(), req.RefreshToken); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Callback handles GET /auth/callback. It accepts either a confirmation
// code or an access/refresh token pair, stores the session in cookies when
// it checks out, and always redirects to the site root.
func (h *AuthHandler) Callback(c *gin.Context) {
	ctx := c.Request.Context()

	var session *models.AuthSession
	switch {
	case c.Query("code") != "":
		s, err := h.services.Auth.ExchangeCode(ctx, c.Query("code"))
		if err != nil {
			h.log.Warn().Err(err).Msg("Confirmation code exchange failed")
			break
		}
		session = s
	case c.Query("access_token") != "" && c.Query("refresh_token") != "":
		if _, err := h.services.Auth.Authenticate(ctx, c.Query("access_token")); err != nil {
			h.log.Warn().Err(err).Msg("Callback access token rejected")
			break
		}
		session = &models.AuthSession{
			AccessToken:  c.Query("access_token"),
			RefreshToken: c.Query("refresh_token"),
		}
	}

	if session != nil {
		secure := strings.HasPrefix(h.cfg.Auth.SiteURL, "https://")
		accessAge := int(h.cfg.Auth.AccessTokenTTL.Seconds())
		refreshAge := int(h.cfg.Auth.RefreshTokenTTL.Seconds())
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(AccessTokenCookie, session.AccessToken, accessAge, "/", "", secure, true)
		c.SetCookie(RefreshTokenCookie, session.RefreshToken, refreshAge, "/", "", secure, true)
	}

	c.Redirect(http.StatusFound, "/")
}

// Me handles GET /v1/me. A user without a profile row gets the default
// view profile.
func (h *AuthHandler) Me(c *gin.Context) {
	profile, err := h.services.Auth.Profile(c.Request.Context(), actorID(c))
	if models.IsNotFound(err) {
		h.log.Warn().Str("user_id", actorID(c)).Msg("No profile row, using default")
		profile, err = models.DefaultProfile(actorID(c), c.GetString(ctxEmail)), nil
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
