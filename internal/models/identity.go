package models

import (
	"time"
)

// Identity is a registered login. The profile row is created from it once
// the email address has been confirmed.
type Identity struct {
	ID            string     `json:"id" db:"id"`
	Email         string     `json:"email" db:"email"`
	PasswordHash  string     `json:"-" db:"password_hash"`
	Username      string     `json:"username,omitempty" db:"username"`
	RequestedRole Role       `json:"role" db:"requested_role"`
	ConfirmedAt   *time.Time `json:"confirmed_at,omitempty" db:"confirmed_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

// Confirmed reports whether the identity finished email confirmation
func (i *Identity) Confirmed() bool {
	return i.ConfirmedAt != nil
}

// AuthCode is a one-time code mailed at sign-up and exchanged at the
// callback endpoint
type AuthCode struct {
	Code       string     `db:"code"`
	IdentityID string     `db:"identity_id"`
	ExpiresAt  time.Time  `db:"expires_at"`
	UsedAt     *time.Time `db:"used_at"`
}

// RefreshToken is an opaque long-lived token used to mint access tokens
type RefreshToken struct {
	Token      string     `db:"token"`
	IdentityID string     `db:"identity_id"`
	ExpiresAt  time.Time  `db:"expires_at"`
	RevokedAt  *time.Time `db:"revoked_at"`
}

// Usable reports whether the token can still be exchanged at now
func (t *RefreshToken) Usable(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

// User is the identity part of an auth session
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthSession is what the identity provider hands out on sign-in,
// code exchange and refresh
type AuthSession struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// SignUpRequest is the body of a sign-up call
type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// SignInRequest is the body of a password sign-in
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUpResult reports the created identity
type SignUpResult struct {
	UserID               string `json:"user_id"`
	Role                 Role   `json:"role"`
	ConfirmationRequired bool   `json:"confirmation_required"`
}
