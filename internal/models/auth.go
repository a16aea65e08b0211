package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating an account.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued access token and account info.
type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int64       `json:"expires_in"`
	Account     AccountInfo `json:"account"`
	IssuedAt    time.Time   `json:"issued_at"`
}

// AccountInfo describes the authenticated account in responses.
type AccountInfo struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	Role       Role   `json:"role"`
	LecturerID *int64 `json:"lecturer_id,omitempty"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID     int64  `json:"user_id"`
	Role       Role   `json:"role"`
	LecturerID *int64 `json:"lecturer_id,omitempty"`
	Email      string `json:"email"`
	jwt.RegisteredClaims
}
