package api

import (
	"errors"
	"net/http"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/models"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/validation"
	"github.com/gin-gonic/gin"
)

// Error codes carried in the "code" field of error bodies
const (
	CodeNotFound        = "not_found"
	CodeConflict        = "conflict"
	CodeForbidden       = "forbidden"
	CodeUnauthenticated = "unauthenticated"
	CodeDuplicate       = "duplicate"
	CodeInvalidInput    = "invalid_input"
	CodeInternal        = "internal"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error  string                       `json:"error"`
	Code   string                       `json:"code"`
	Fields []validation.ValidationError `json:"fields,omitempty"`
}

// errorStatus maps an error onto a status code and error code
func errorStatus(err error) (int, string) {
	var authErr *models.AuthError
	if errors.As(err, &authErr) {
		switch authErr.Kind {
		case models.AuthInvalidCredentials, models.AuthInvalidToken:
			return http.StatusUnauthorized, string(authErr.Kind)
		case models.AuthUnconfirmed:
			return http.StatusForbidden, string(authErr.Kind)
		case models.AuthDuplicate:
			return http.StatusConflict, string(authErr.Kind)
		case models.AuthInvalidInput:
			return http.StatusBadRequest, string(authErr.Kind)
		default:
			return http.StatusServiceUnavailable, string(authErr.Kind)
		}
	}

	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden, CodeForbidden
	case errors.Is(err, models.ErrUnauthenticated):
		return http.StatusUnauthorized, CodeUnauthenticated
	case errors.Is(err, models.ErrDuplicate):
		return http.StatusConflict, CodeDuplicate
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest, CodeInvalidInput
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// respondError writes err as JSON. Internal errors are not echoed back.
func respondError(c *gin.Context, err error) {
	status, code := errorStatus(err)
	resp := ErrorResponse{Error: err.Error(), Code: code}
	if status == http.StatusInternalServerError {
		resp.Error = "Internal server error"
		_ = c.Error(err)
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		resp.Fields = verrs
	}
	c.AbortWithStatusJSON(status, resp)
}

// idParam returns the :id path parameter. A value that is not a UUID cannot
// match any row, so it is answered with 404 here.
func idParam(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if !validation.IsValidUUID(id) {
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Error: "resource not found", Code: CodeNotFound})
		return "", false
	}
	return id, true
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: CodeInvalidInput})
}
