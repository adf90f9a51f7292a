// Package identity is the local identity provider: users live in the user
// repository, credentials are bcrypt hashes, sessions are signed JWT pairs.
// Redis holds single-use confirmation tokens and the revocation list.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
	"github.com/oksasatya/go-task-manager/internal/domain/repository"
	"github.com/oksasatya/go-task-manager/pkg/helpers"
	"github.com/oksasatya/go-task-manager/pkg/mailer"
	tpl "github.com/oksasatya/go-task-manager/pkg/mailer/templates"
)

var (
	ErrInvalidConfirmation = entity.Validationf("Token has expired or is invalid")
	ErrUserExists          = entity.Validationf("User already registered")
)

const defaultMinPasswordLength = 6

// Options tune signup behaviour.
type Options struct {
	AppName             string
	RequireConfirmation bool
	ConfirmTokenTTL     time.Duration
	ConfirmURL          string
	BcryptCost          int
	MinPasswordLength   int
}

type Provider struct {
	users  repository.UserRepository
	jwt    *helpers.JWTManager
	hasher helpers.PasswordHasher
	rdb    *redis.Client
	pub    helpers.JSONPublisher
	logger *logrus.Logger
	opts   Options
	now    func() time.Time
}

// New builds a provider. rdb may be nil only when confirmation is not required;
// without Redis signed-out tokens stay valid until they expire. pub may be nil,
// in which case confirmation links are only logged.
func New(users repository.UserRepository, jwt *helpers.JWTManager, rdb *redis.Client, pub helpers.JSONPublisher, logger *logrus.Logger, opts Options) (*Provider, error) {
	if users == nil || jwt == nil {
		return nil, errors.New("identity: user repository and jwt manager are required")
	}
	if opts.RequireConfirmation && rdb == nil {
		return nil, errors.New("identity: email confirmation requires redis")
	}
	if opts.ConfirmTokenTTL <= 0 {
		opts.ConfirmTokenTTL = 24 * time.Hour
	}
	if opts.MinPasswordLength <= 0 {
		opts.MinPasswordLength = defaultMinPasswordLength
	}
	return &Provider{
		users:  users,
		jwt:    jwt,
		hasher: helpers.NewPasswordHasher(opts.BcryptCost),
		rdb:    rdb,
		pub:    pub,
		logger: logger,
		opts:   opts,
		now:    time.Now,
	}, nil
}

// Key helpers
func keyConfirmToken(t string) string { return "auth:confirm:token:" + t }
func keyRevoked(jti string) string    { return "auth:revoked:" + jti }
func keySessionRevoked(sid string) string {
	return "auth:revoked:sid:" + sid
}

type confirmPayload struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

func (p *Provider) SignUp(ctx context.Context, email, password, username string) (*repository.SignUpResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, entity.Validationf("Unable to validate email address: invalid format")
	}
	if len(password) < p.opts.MinPasswordLength {
		return nil, entity.Validationf("Password should be at least %d characters", p.opts.MinPasswordLength)
	}
	if strings.TrimSpace(username) == "" {
		username = entity.UsernameFromEmail(email)
	}

	hash, err := p.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	u := &entity.User{Email: email, Password: hash, Username: strings.TrimSpace(username)}
	if !p.opts.RequireConfirmation {
		now := p.now().UTC()
		u.EmailConfirmedAt = &now
	}
	if err := p.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, ErrUserExists
		}
		return nil, entity.NewStoreError(err)
	}

	if p.opts.RequireConfirmation {
		if err := p.issueConfirmation(ctx, u); err != nil {
			return nil, err
		}
		return &repository.SignUpResult{User: u, RequiresConfirmation: true}, nil
	}

	sess, err := p.issueSession(u, "")
	if err != nil {
		return nil, err
	}
	return &repository.SignUpResult{User: u, Session: sess}, nil
}

func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (*repository.AuthResult, error) {
	u, err := p.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, repository.ErrInvalidCredentials
	}
	if err != nil {
		return nil, entity.NewStoreError(err)
	}
	if !p.hasher.Matches(u.Password, password) {
		return nil, repository.ErrInvalidCredentials
	}
	if !u.IsConfirmed() {
		return nil, repository.ErrEmailNotConfirmed
	}
	sess, err := p.issueSession(u, "")
	if err != nil {
		return nil, err
	}
	return &repository.AuthResult{User: u, Session: sess}, nil
}

// SignOut ends the whole session: the access token and every refresh token
// issued alongside it stop working at once.
func (p *Provider) SignOut(ctx context.Context, accessToken string) error {
	claims, err := p.jwt.ParseAccessToken(accessToken)
	if err != nil {
		return repository.ErrInvalidToken
	}
	if err := p.revoke(ctx, claims); err != nil {
		return err
	}
	if p.rdb == nil || claims.SessionID == "" {
		return nil
	}
	// refresh tokens of this session may be issued up to RefreshTTL from now
	if err := helpers.RedisMark(ctx, p.rdb, keySessionRevoked(claims.SessionID), p.jwt.RefreshTTL); err != nil {
		return entity.NewStoreError(err)
	}
	return nil
}

func (p *Provider) GetUser(ctx context.Context, accessToken string) (*entity.User, error) {
	claims, err := p.jwt.ParseAccessToken(accessToken)
	if err != nil {
		if p.logger != nil {
			p.logger.WithError(err).Debug("access token rejected")
		}
		return nil, repository.ErrInvalidToken
	}
	if err := p.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}
	u, err := p.users.GetByID(ctx, claims.UserID())
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, repository.ErrInvalidToken
	}
	if err != nil {
		return nil, entity.NewStoreError(err)
	}
	return u, nil
}

// RefreshSession rotates the pair; the presented refresh token cannot be reused.
func (p *Provider) RefreshSession(ctx context.Context, refreshToken string) (*repository.AuthResult, error) {
	claims, err := p.jwt.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, repository.ErrInvalidToken
	}
	if err := p.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}
	u, err := p.users.GetByID(ctx, claims.UserID())
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, repository.ErrInvalidToken
	}
	if err != nil {
		return nil, entity.NewStoreError(err)
	}
	if err := p.consume(ctx, claims); err != nil {
		return nil, err
	}
	sess, err := p.issueSession(u, claims.SessionID)
	if err != nil {
		return nil, err
	}
	return &repository.AuthResult{User: u, Session: sess}, nil
}

func (p *Provider) ConfirmEmail(ctx context.Context, token string) (*entity.User, error) {
	if p.rdb == nil || strings.TrimSpace(token) == "" {
		return nil, ErrInvalidConfirmation
	}
	var payload confirmPayload
	ok, err := helpers.RedisTakeJSON(ctx, p.rdb, keyConfirmToken(token), &payload)
	if err != nil {
		return nil, entity.NewStoreError(err)
	}
	if !ok {
		return nil, ErrInvalidConfirmation
	}
	if err := p.users.SetConfirmed(ctx, payload.UserID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidConfirmation
		}
		// put the token back so the link can be retried
		if rerr := helpers.RedisSetJSON(ctx, p.rdb, keyConfirmToken(token), payload, p.opts.ConfirmTokenTTL); rerr != nil {
			helpers.LogWarn(p.logger, "confirmation token restore failed", rerr, logrus.Fields{"user_id": payload.UserID})
		}
		return nil, entity.NewStoreError(err)
	}
	u, err := p.users.GetByID(ctx, payload.UserID)
	if err != nil {
		return nil, entity.NewStoreError(err)
	}
	return u, nil
}

// ResendConfirmation is silent for unknown or already confirmed addresses.
func (p *Provider) ResendConfirmation(ctx context.Context, email string) error {
	if p.rdb == nil {
		return nil
	}
	u, err := p.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return entity.NewStoreError(err)
	}
	if u.IsConfirmed() {
		return nil
	}
	return p.issueConfirmation(ctx, u)
}

// issueSession signs a token pair. sid is empty for a fresh sign-in and
// carried over on refresh.
func (p *Provider) issueSession(u *entity.User, sid string) (*entity.Session, error) {
	if sid == "" {
		sid = uuid.NewString()
	}
	tu := helpers.TokenUser{ID: u.ID, Email: u.Email, Username: u.DisplayName(), SessionID: sid}
	access, aexp, err := p.jwt.GenerateAccessToken(tu)
	if err != nil {
		helpers.LogError(p.logger, "generate access token failed", err, logrus.Fields{"user_id": u.ID})
		return nil, err
	}
	refresh, _, err := p.jwt.GenerateRefreshToken(tu)
	if err != nil {
		helpers.LogError(p.logger, "generate refresh token failed", err, logrus.Fields{"user_id": u.ID})
		return nil, err
	}
	return &entity.Session{AccessToken: access, TokenType: "bearer", ExpiresAt: aexp, RefreshToken: refresh}, nil
}

func (p *Provider) issueConfirmation(ctx context.Context, u *entity.User) error {
	tok, err := genToken(32)
	if err != nil {
		return err
	}
	if err := helpers.RedisSetJSON(ctx, p.rdb, keyConfirmToken(tok), confirmPayload{UserID: u.ID, Email: u.Email}, p.opts.ConfirmTokenTTL); err != nil {
		return entity.NewStoreError(err)
	}
	link := confirmLink(p.opts.ConfirmURL, tok)
	if p.pub == nil {
		helpers.LogInfo(p.logger, "confirmation link issued", logrus.Fields{"user_id": u.ID, "link": link})
		return nil
	}
	data := tpl.NewConfirmSignupData(p.opts.AppName, u.DisplayName(), u.Email, link, p.now().Add(p.opts.ConfirmTokenTTL))
	job := mailer.TemplateJob(u.Email, tpl.ConfirmSignup, data)
	if err := p.pub.PublishJSON(ctx, job); err != nil {
		// The token stays valid; the user can ask for a resend.
		helpers.LogWarn(p.logger, "failed to publish confirmation email", err, logrus.Fields{"user_id": u.ID})
	}
	return nil
}

func (p *Provider) revoke(ctx context.Context, claims *helpers.Claims) error {
	if p.rdb == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(p.now())
	if err := helpers.RedisMark(ctx, p.rdb, keyRevoked(claims.ID), ttl); err != nil {
		return entity.NewStoreError(err)
	}
	return nil
}

// consume marks a refresh token used. Of two concurrent refreshes with the
// same token only one wins the SETNX.
func (p *Provider) consume(ctx context.Context, claims *helpers.Claims) error {
	if p.rdb == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(p.now())
	if ttl <= 0 {
		return repository.ErrInvalidToken
	}
	won, err := helpers.RedisClaim(ctx, p.rdb, keyRevoked(claims.ID), ttl)
	if err != nil {
		return entity.NewStoreError(err)
	}
	if !won {
		return repository.ErrInvalidToken
	}
	return nil
}

func (p *Provider) checkRevoked(ctx context.Context, claims *helpers.Claims) error {
	if p.rdb == nil || claims.ID == "" {
		return nil
	}
	keys := []string{keyRevoked(claims.ID)}
	if claims.SessionID != "" {
		keys = append(keys, keySessionRevoked(claims.SessionID))
	}
	revoked, err := helpers.RedisExists(ctx, p.rdb, keys...)
	if err != nil {
		return entity.NewStoreError(err)
	}
	if revoked {
		return repository.ErrInvalidToken
	}
	return nil
}

func genToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func confirmLink(base, token string) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "token=" + url.QueryEscape(token)
}

var _ repository.IdentityProvider = (*Provider)(nil)
