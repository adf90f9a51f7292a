package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
	"github.com/oksasatya/go-task-manager/internal/domain/repository"
)

type UserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*entity.User
	byEmail map[string]string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[string]*entity.User),
		byEmail: make(map[string]string),
	}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if _, ok := r.byEmail[u.Email]; ok {
		return repository.ErrEmailTaken
	}
	now := time.Now().UTC()
	u.ID = uuid.NewString()
	u.CreatedAt = now
	u.UpdatedAt = now
	cp := *u
	r.byID[u.ID] = &cp
	r.byEmail[u.Email] = u.ID
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	id, ok := r.byEmail[strings.ToLower(strings.TrimSpace(email))]
	r.mu.RUnlock()
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) SetConfirmed(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	if u.EmailConfirmedAt == nil {
		now := time.Now().UTC()
		u.EmailConfirmedAt = &now
		u.UpdatedAt = now
	}
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
