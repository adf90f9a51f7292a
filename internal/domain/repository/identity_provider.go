package repository

import (
	"context"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
)

// SignUpResult is returned by IdentityProvider.SignUp. When the provider requires
// email confirmation Session is nil and RequiresConfirmation is true.
type SignUpResult struct {
	User                 *entity.User
	Session              *entity.Session
	RequiresConfirmation bool
}

// AuthResult is a user with a freshly issued session.
type AuthResult struct {
	User    *entity.User
	Session *entity.Session
}

// IdentityProvider issues and verifies bearer credentials.
// Authentication failures match entity.ErrUnauthorized.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password, username string) (*SignUpResult, error)
	SignInWithPassword(ctx context.Context, email, password string) (*AuthResult, error)
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (*entity.User, error)
	RefreshSession(ctx context.Context, refreshToken string) (*AuthResult, error)
	ConfirmEmail(ctx context.Context, token string) (*entity.User, error)
	ResendConfirmation(ctx context.Context, email string) error
}
