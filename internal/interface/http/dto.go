package handlers

import (
	"time"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
	"github.com/oksasatya/go-task-manager/internal/interface/middleware"
)

type UserDTO struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Username         string     `json:"username"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at,omitempty"`
}

type SessionDTO struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
}

// AuthPayload is the data of register, login and refresh responses.
type AuthPayload struct {
	User                 *UserDTO    `json:"user,omitempty"`
	Session              *SessionDTO `json:"session,omitempty"`
	RequiresConfirmation bool        `json:"requiresConfirmation,omitempty"`
}

type TaskDTO struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description *string           `json:"description"`
	Status      entity.TaskStatus `json:"status"`
	UserID      string            `json:"user_id"`
	CreatedAt   time.Time         `json:"created_at"`
}

func toUserDTO(u *entity.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{ID: u.ID, Email: u.Email, Username: u.DisplayName(), EmailConfirmedAt: u.EmailConfirmedAt}
}

func identityDTO(id middleware.Identity) *UserDTO {
	return &UserDTO{ID: id.ID, Email: id.Email, Username: id.Username}
}

func toSessionDTO(s *entity.Session, now time.Time) *SessionDTO {
	if s == nil {
		return nil
	}
	return &SessionDTO{
		AccessToken:  s.AccessToken,
		TokenType:    s.TokenType,
		ExpiresIn:    s.ExpiresIn(now),
		ExpiresAt:    s.ExpiresAt.Unix(),
		RefreshToken: s.RefreshToken,
	}
}

func toTaskDTO(t *entity.Task) TaskDTO {
	return TaskDTO{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		UserID:      t.UserID,
		CreatedAt:   t.CreatedAt,
	}
}

func toTaskDTOs(ts []entity.Task) []TaskDTO {
	out := make([]TaskDTO, 0, len(ts))
	for i := range ts {
		out = append(out, toTaskDTO(&ts[i]))
	}
	return out
}
