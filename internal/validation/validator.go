package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/board"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/models"
	"github.com/google/uuid"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

const (
	MinPasswordLength = 6
	MaxUsernameLength = 50
	MaxNameLength     = 100
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Errors is a list of validation errors usable as an error value
type Errors []ValidationError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, v := range e {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return strings.Join(parts, "; ")
}

// Unwrap lets callers match validation failures with models.ErrInvalidInput
func (e Errors) Unwrap() error {
	return models.ErrInvalidInput
}

// AsError returns nil for an empty list
func AsError(errs []ValidationError) error {
	if len(errs) == 0 {
		return nil
	}
	return Errors(errs)
}

// ValidateSignUp validates a sign-up request
func ValidateSignUp(req *models.SignUpRequest) []ValidationError {
	var errors []ValidationError

	errors = append(errors, validateEmail(req.Email)...)

	// Validate password
	if req.Password == "" {
		errors = append(errors, ValidationError{Field: "password", Message: "password is required"})
	} else if len(req.Password) < MinPasswordLength {
		errors = append(errors, ValidationError{
			Field:   "password",
			Message: fmt.Sprintf("password must be at least %d characters", MinPasswordLength),
		})
	}

	// Username is optional but bounded
	if len(req.Username) > MaxUsernameLength {
		errors = append(errors, ValidationError{
			Field:   "username",
			Message: fmt.Sprintf("username must be at most %d characters", MaxUsernameLength),
			Value:   req.Username,
		})
	}

	return errors
}

// ValidateSignIn validates a password sign-in request
func ValidateSignIn(req *models.SignInRequest) []ValidationError {
	var errors []ValidationError
	if strings.TrimSpace(req.Email) == "" {
		errors = append(errors, ValidationError{Field: "email", Message: "email is required"})
	}
	if req.Password == "" {
		errors = append(errors, ValidationError{Field: "password", Message: "password is required"})
	}
	return errors
}

func validateEmail(email string) []ValidationError {
	if email == "" {
		return []ValidationError{{Field: "email", Message: "email is required"}}
	}
	if !emailRegex.MatchString(email) {
		return []ValidationError{{Field: "email", Message: "invalid email format", Value: email}}
	}
	return nil
}

// ValidateName validates a display name such as a resource or schedule name
func ValidateName(field, name string) []ValidationError {
	name = strings.TrimSpace(name)
	if name == "" {
		return []ValidationError{{Field: field, Message: field + " is required"}}
	}
	if len(name) > MaxNameLength {
		return []ValidationError{{
			Field:   field,
			Message: fmt.Sprintf("%s must be at most %d characters", field, MaxNameLength),
			Value:   name,
		}}
	}
	return nil
}

// ValidateRole validates a role value
func ValidateRole(role models.Role) []ValidationError {
	if role == "" {
		return []ValidationError{{Field: "role", Message: "role is required"}}
	}
	if !models.ValidRoles[role] {
		return []ValidationError{{
			Field:   "role",
			Message: "invalid role, must be one of: admin, view",
			Value:   role,
		}}
	}
	return nil
}

// ValidateDocument checks a board document before it is written. Every
// column needs a unique id, every item an id and a known type, and no
// resource may be placed twice.
func ValidateDocument(doc *models.BoardDocument) []ValidationError {
	var errors []ValidationError

	columnIDs := make(map[string]bool, len(doc.Columns))
	for i, col := range doc.Columns {
		field := fmt.Sprintf("columns[%d]", i)
		if col.ID == "" {
			errors = append(errors, ValidationError{Field: field + ".id", Message: "id is required"})
		} else if columnIDs[col.ID] {
			errors = append(errors, ValidationError{Field: field + ".id", Message: "duplicate column id", Value: col.ID})
		}
		columnIDs[col.ID] = true
		errors = append(errors, validateItems(field+".items", col.Items)...)
	}
	for key, items := range doc.PermanentBoxes {
		errors = append(errors, validateItems("permanentBoxes."+key, items)...)
	}
	for key, items := range doc.Locations {
		errors = append(errors, validateItems("locations."+key, items)...)
	}

	for _, id := range board.Duplicates(doc) {
		errors = append(errors, ValidationError{Field: "items", Message: "resource placed more than once", Value: id})
	}

	return errors
}

func validateItems(field string, items []models.Resource) []ValidationError {
	var errors []ValidationError
	for i, it := range items {
		if it.ID == "" {
			errors = append(errors, ValidationError{Field: fmt.Sprintf("%s[%d].id", field, i), Message: "id is required"})
		}
		if it.Type != "" && !it.Type.Valid() {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("%s[%d].type", field, i),
				Message: "invalid type, must be one of: crew, truck, trailer, equipment",
				Value:   it.Type,
			})
		}
	}
	return errors
}

// IsValidUUID checks if a string is a valid UUID
func IsValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
