package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*LoginResult, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, rawToken string) error
	Authenticate(ctx context.Context, rawToken string) (*Session, error)
	GetAccount(ctx context.Context, id string) (*Account, error)
}

type RegisterRequest struct {
	Handle      string `json:"handle" binding:"required"`
	DisplayName string `json:"display_name" binding:"required"`
	Address     string `json:"address"`
	Password    string `json:"password" binding:"required"`
	UserAgent   string `json:"-"`
	IPAddress   string `json:"-"`
}

type LoginRequest struct {
	Handle    string `json:"handle" binding:"required"`
	Password  string `json:"password" binding:"required"`
	UserAgent string `json:"-"`
	IPAddress string `json:"-"`
}

type LoginResult struct {
	Account   *Account
	RawToken  string
	ExpiresAt time.Time
}

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidHandle      = errors.New("invalid_handle")
	ErrInvalidDisplayName = errors.New("invalid_display_name")
	ErrInvalidAddress     = errors.New("invalid_address")
	ErrInvalidPassword    = errors.New("invalid_password")
	ErrAccountExists      = errors.New("account_exists")
	ErrAccountNotFound    = errors.New("account_not_found")
	ErrSessionNotFound    = errors.New("session_not_found")
	ErrInvalidSession     = errors.New("invalid_session")
	ErrSessionExpired     = errors.New("session_expired")
	ErrSessionRevoked     = errors.New("session_revoked")
)
