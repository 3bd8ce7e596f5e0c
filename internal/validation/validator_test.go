package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/models"
)

func TestValidateSignUp(t *testing.T) {
	tests := []struct {
		name       string
		req        *models.SignUpRequest
		wantErrors int
		wantFields []string
	}{
		{
			name:       "valid sign-up",
			req:        &models.SignUpRequest{Email: "geno@rnstower.com", Password: "secret123", Username: "geno"},
			wantErrors: 0,
		},
		{
			name:       "username is optional",
			req:        &models.SignUpRequest{Email: "geno@rnstower.com", Password: "secret123"},
			wantErrors: 0,
		},
		{
			name:       "missing email",
			req:        &models.SignUpRequest{Password: "secret123"},
			wantErrors: 1,
			wantFields: []string{"email"},
		},
		{
			name:       "invalid email format",
			req:        &models.SignUpRequest{Email: "not-an-email", Password: "secret123"},
			wantErrors: 1,
			wantFields: []string{"email"},
		},
		{
			name:       "short password",
			req:        &models.SignUpRequest{Email: "geno@rnstower.com", Password: "abc"},
			wantErrors: 1,
			wantFields: []string{"password"},
		},
		{
			name:       "long username and no password",
			req:        &models.SignUpRequest{Email: "geno@rnstower.com", Username: strings.Repeat("g", 51)},
			wantErrors: 2,
			wantFields: []string{"password", "username"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateSignUp(tt.req)
			if len(errs) != tt.wantErrors {
				t.Errorf("ValidateSignUp() got %d errors, want %d: %+v", len(errs), tt.wantErrors, errs)
			}
			for i, field := range tt.wantFields {
				if i < len(errs) && errs[i].Field != field {
					t.Errorf("error %d field = %q, want %q", i, errs[i].Field, field)
				}
			}
		})
	}
}

func TestValidateSignIn(t *testing.T) {
	if errs := ValidateSignIn(&models.SignInRequest{Email: "a@b.co", Password: "x"}); len(errs) != 0 {
		t.Errorf("Expected no errors, got %+v", errs)
	}
	if errs := ValidateSignIn(&models.SignInRequest{Email: "  "}); len(errs) != 2 {
		t.Errorf("Expected 2 errors, got %+v", errs)
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"simple", "Truck 101", true},
		{"blank", "   ", false},
		{"too long", strings.Repeat("x", MaxNameLength+1), false},
		{"exactly max", strings.Repeat("x", MaxNameLength), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateName("name", tt.input)
			if (len(errs) == 0) != tt.valid {
				t.Errorf("ValidateName(%q) = %+v, valid want %v", tt.input, errs, tt.valid)
			}
		})
	}
}

func TestValidateRole(t *testing.T) {
	if errs := ValidateRole(models.RoleAdmin); len(errs) != 0 {
		t.Errorf("admin should be valid, got %+v", errs)
	}
	if errs := ValidateRole(models.RoleView); len(errs) != 0 {
		t.Errorf("view should be valid, got %+v", errs)
	}
	if errs := ValidateRole("editor"); len(errs) != 1 {
		t.Errorf("editor should be rejected, got %+v", errs)
	}
	if errs := ValidateRole(""); len(errs) != 1 || errs[0].Message != "role is required" {
		t.Errorf("empty role should be required, got %+v", errs)
	}
}

func TestAsError(t *testing.T) {
	if err := AsError(nil); err != nil {
		t.Errorf("Expected nil, got %v", err)
	}

	err := AsError([]ValidationError{
		{Field: "email", Message: "email is required"},
		{Field: "password", Message: "password is required"},
	})
	if err == nil {
		t.Fatal("Expected error")
	}
	if !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
	if err.Error() != "email: email is required; password: password is required" {
		t.Errorf("Unexpected message %q", err.Error())
	}
}

func TestIsValidUUID(t *testing.T) {
	if !IsValidUUID(models.CurrentBoardID) {
		t.Error("board id should be a valid UUID")
	}
	if IsValidUUID("crew-1") {
		t.Error("crew-1 is not a UUID")
	}
}
