package client

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type AuthEvent string

const (
	EventSignedIn       AuthEvent = "SIGNED_IN"
	EventSignedOut      AuthEvent = "SIGNED_OUT"
	EventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
)

// AuthListener receives auth state changes. s is nil for EventSignedOut.
type AuthListener func(ctx context.Context, event AuthEvent, s *Session)

// Subscription is the handle returned by OnAuthStateChange.
type Subscription struct {
	auth *Auth
	id   int
	once sync.Once
}

// Unsubscribe removes the listener. Calling it more than once is a no-op.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.auth.mu.Lock()
		delete(s.auth.listeners, s.id)
		s.auth.mu.Unlock()
	})
}

// Auth owns the local session and tells listeners when it changes.
type Auth struct {
	api    *API
	store  SessionStore
	logger *logrus.Logger
	now    func() time.Time

	// RefreshMargin is how early Watch refreshes ahead of expiry.
	RefreshMargin time.Duration

	mu        sync.Mutex
	listeners map[int]AuthListener
	nextID    int
}

func NewAuth(api *API, store SessionStore, logger *logrus.Logger) *Auth {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Auth{
		api:           api,
		store:         store,
		logger:        logger,
		now:           time.Now,
		RefreshMargin: 30 * time.Second,
		listeners:     map[int]AuthListener{},
	}
}

func (a *Auth) API() *API { return a.api }

// SignUp registers and, when the server issues a session right away, signs in.
func (a *Auth) SignUp(ctx context.Context, email, password, username string) (*AuthResult, error) {
	res, err := a.api.Register(ctx, email, password, username)
	if err != nil {
		return nil, err
	}
	if res.Session != nil {
		if err := a.setSession(ctx, EventSignedIn, res.Session); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (a *Auth) SignInWithPassword(ctx context.Context, email, password string) (*AuthResult, error) {
	res, err := a.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if res.Session == nil {
		return nil, errors.New("login returned no session")
	}
	if err := a.setSession(ctx, EventSignedIn, res.Session); err != nil {
		return nil, err
	}
	return res, nil
}

// SignOut asks the server to revoke the token, then always drops the local
// session. Only a failure to clear the store is returned.
func (a *Auth) SignOut(ctx context.Context) error {
	s, err := a.store.Load()
	if err != nil {
		a.logger.WithError(err).Warn("load session on sign out")
	}
	if s != nil {
		if err := a.api.Logout(ctx, s.AccessToken); err != nil {
			a.logger.WithError(err).Warn("server logout failed")
		}
	}
	if err := a.store.Clear(); err != nil {
		return err
	}
	a.emit(ctx, EventSignedOut, nil)
	return nil
}

// GetSession returns the stored session, or nil when there is none or the
// access token has expired.
func (a *Auth) GetSession() (*Session, error) {
	s, err := a.store.Load()
	if err != nil || s == nil {
		return nil, err
	}
	if s.ExpiresWithin(a.now(), 0) {
		return nil, nil
	}
	return s, nil
}

// RefreshSession trades the stored refresh token for a new session. When the
// server refuses, the local session is dropped and listeners see SIGNED_OUT.
func (a *Auth) RefreshSession(ctx context.Context) (*Session, error) {
	s, err := a.store.Load()
	if err != nil {
		return nil, err
	}
	if s == nil || s.RefreshToken == "" {
		return nil, errors.New("no session to refresh")
	}
	res, err := a.api.Refresh(ctx, s.RefreshToken)
	if err != nil {
		if IsUnauthorized(err) {
			if cerr := a.store.Clear(); cerr != nil {
				a.logger.WithError(cerr).Warn("clear session")
			}
			a.emit(ctx, EventSignedOut, nil)
		}
		return nil, err
	}
	if res.Session == nil {
		return nil, errors.New("refresh returned no session")
	}
	if err := a.setSession(ctx, EventTokenRefreshed, res.Session); err != nil {
		return nil, err
	}
	return res.Session, nil
}

// OnAuthStateChange registers fn. Listeners run synchronously in the
// goroutine that caused the change, in registration order.
func (a *Auth) OnAuthStateChange(fn AuthListener) *Subscription {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextID++
	a.listeners[a.nextID] = fn
	return &Subscription{auth: a, id: a.nextID}
}

// Watch checks the stored session every interval until ctx is done. A
// session close to expiry is refreshed; one that cannot be refreshed is
// dropped.
func (a *Auth) Watch(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			a.check(ctx)
		}
	}
}

func (a *Auth) check(ctx context.Context) {
	s, err := a.store.Load()
	if err != nil {
		a.logger.WithError(err).Warn("load session")
		return
	}
	if s == nil || !s.ExpiresWithin(a.now(), a.RefreshMargin) {
		return
	}
	if s.RefreshToken == "" {
		a.expire(ctx)
		return
	}
	if _, err := a.RefreshSession(ctx); err != nil && !IsUnauthorized(err) {
		a.logger.WithError(err).Warn("session refresh failed")
		if s.ExpiresWithin(a.now(), 0) {
			a.expire(ctx)
		}
	}
}

func (a *Auth) expire(ctx context.Context) {
	if err := a.store.Clear(); err != nil {
		a.logger.WithError(err).Warn("clear session")
	}
	a.emit(ctx, EventSignedOut, nil)
}

func (a *Auth) setSession(ctx context.Context, ev AuthEvent, s *Session) error {
	if err := a.store.Save(s); err != nil {
		return err
	}
	a.emit(ctx, ev, s)
	return nil
}

func (a *Auth) emit(ctx context.Context, ev AuthEvent, s *Session) {
	a.mu.Lock()
	ids := make([]int, 0, len(a.listeners))
	for id := range a.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]AuthListener, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, a.listeners[id])
	}
	a.mu.Unlock()

	a.logger.WithField("event", string(ev)).Debug("auth state changed")
	for _, fn := range fns {
		fn(ctx, ev, s)
	}
}
