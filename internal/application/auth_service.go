package application

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
	repo "github.com/oksasatya/go-task-manager/internal/domain/repository"
	"github.com/oksasatya/go-task-manager/internal/metrics"
)

// ErrLoginFailed is the sanitized message for bad credentials.
var ErrLoginFailed = entity.Unauthorizedf("Invalid email or password")

// AuthService fronts the identity provider for the HTTP layer.
type AuthService struct {
	IdP     repo.IdentityProvider
	Logger  *logrus.Logger
	Metrics metrics.Recorder
}

func NewAuthService(idp repo.IdentityProvider, logger *logrus.Logger, rec metrics.Recorder) *AuthService {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &AuthService{IdP: idp, Logger: logger, Metrics: rec}
}

type RegisterInput struct {
	Email    string
	Password string
	Username string
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*repo.SignUpResult, error) {
	res, err := s.IdP.SignUp(ctx, in.Email, in.Password, in.Username)
	s.record("register", err)
	if err != nil {
		s.logFailure("register", err, logrus.Fields{"email": in.Email})
		return nil, err
	}
	fields := logrus.Fields{"user_id": res.User.ID, "requires_confirmation": res.RequiresConfirmation}
	s.logger().WithFields(fields).Info("user registered")
	return res, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*repo.AuthResult, error) {
	res, err := s.IdP.SignInWithPassword(ctx, email, password)
	s.record("login", err)
	if err != nil {
		s.logFailure("login", err, logrus.Fields{"email": email})
		if errors.Is(err, repo.ErrInvalidCredentials) {
			return nil, ErrLoginFailed
		}
		return nil, err
	}
	return res, nil
}

// Logout revokes token when one is given. It never fails: the client drops its
// session regardless.
func (s *AuthService) Logout(ctx context.Context, token string) {
	if token == "" {
		s.record("logout", nil)
		return
	}
	err := s.IdP.SignOut(ctx, token)
	s.record("logout", err)
	if err != nil {
		s.logger().WithError(err).Debug("logout with unusable token")
	}
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*repo.AuthResult, error) {
	res, err := s.IdP.RefreshSession(ctx, refreshToken)
	s.record("refresh", err)
	if err != nil {
		s.logFailure("refresh", err, nil)
		return nil, err
	}
	return res, nil
}

func (s *AuthService) Confirm(ctx context.Context, token string) (*entity.User, error) {
	u, err := s.IdP.ConfirmEmail(ctx, token)
	s.record("confirm", err)
	if err != nil {
		s.logFailure("confirm", err, nil)
		return nil, err
	}
	return u, nil
}

// ResendConfirmation does not reveal whether the address is registered.
func (s *AuthService) ResendConfirmation(ctx context.Context, email string) error {
	err := s.IdP.ResendConfirmation(ctx, email)
	s.record("confirm_resend", err)
	if err != nil && !errors.Is(err, entity.ErrStore) {
		s.logFailure("confirm_resend", err, logrus.Fields{"email": email})
		return nil
	}
	return err
}

func (s *AuthService) record(event string, err error) {
	s.Metrics.RecordAuthEvent(event, outcomeOf(err))
}

func (s *AuthService) logFailure(event string, err error, fields logrus.Fields) {
	if fields == nil {
		fields = logrus.Fields{}
	}
	fields["event"] = event
	entry := s.logger().WithError(err).WithFields(fields)
	if errors.Is(err, entity.ErrValidation) || errors.Is(err, entity.ErrUnauthorized) {
		entry.Warn("auth request rejected")
		return
	}
	entry.Error("auth request failed")
}

func (s *AuthService) logger() *logrus.Logger {
	if s.Logger == nil {
		return nopLogger
	}
	return s.Logger
}
