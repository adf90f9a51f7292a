package repository

import (
	"errors"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrUnscopedQuery = errors.New("task query without owner scope")
)

// Identity provider outcomes callers may need to tell apart. All match entity.ErrUnauthorized.
var (
	ErrInvalidCredentials = entity.Unauthorizedf("Invalid login credentials")
	ErrEmailNotConfirmed  = entity.Unauthorizedf("Email not confirmed")
	ErrInvalidToken       = entity.Unauthorizedf("invalid token")
)
