package repository

import (
	"context"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
)

// UserRepository defines the persistence operations the identity provider needs.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	SetConfirmed(ctx context.Context, id string) error
}
