package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
	"github.com/oksasatya/go-task-manager/internal/domain/repository"
)

const uniqueViolation = "23505"

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id::text, email, password_hash, username, email_confirmed_at, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, username, email_confirmed_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text, created_at, updated_at
	`, u.Email, u.Password, u.Username, u.EmailConfirmedAt)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(strings.TrimSpace(email)))
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg string) (*entity.User, error) {
	u := &entity.User{}
	row := r.pool.QueryRow(ctx, query, arg)
	if err := row.Scan(&u.ID, &u.Email, &u.Password, &u.Username, &u.EmailConfirmedAt,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) SetConfirmed(ctx context.Context, id string) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET email_confirmed_at = COALESCE(email_confirmed_at, now()), updated_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
