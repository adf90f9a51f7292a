package client

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/oksasatya/go-task-manager/config"
	"github.com/oksasatya/go-task-manager/internal/container"
	"github.com/oksasatya/go-task-manager/internal/router"
	"github.com/oksasatya/go-task-manager/pkg/mailer"
)

func init() { gin.SetMode(gin.TestMode) }

const testPassword = "secret123"

type mailbox struct {
	mu   sync.Mutex
	jobs []mailer.EmailJob
}

func (m *mailbox) PublishJSON(_ context.Context, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	var job mailer.EmailJob
	if err := json.Unmarshal(b, &job); err != nil {
		return err
	}
	m.mu.Lock()
	m.jobs = append(m.jobs, job)
	m.mu.Unlock()
	return nil
}

func (m *mailbox) token(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.jobs) == 0 {
		t.Fatal("no email queued")
	}
	link, _ := m.jobs[len(m.jobs)-1].Data["ConfirmURL"].(string)
	_, tok, ok := strings.Cut(link, "token=")
	if !ok {
		t.Fatalf("no token in %q", link)
	}
	return tok
}

type testEnv struct {
	srv   *httptest.Server
	box   *mailbox
	c     *container.Container
	api   *API
	auth  *Auth
	store *MemoryStore
}

func newEnv(t *testing.T, requireConfirmation bool) *testEnv {
	t.Helper()
	cfg := &config.Config{
		AppName:                 "task-manager-test",
		Env:                     "test",
		StoreDriver:             container.DriverMemory,
		JWTAccessSecret:         "access",
		JWTRefreshSecret:        "refresh",
		JWTIssuer:               "test",
		AccessTTL:               time.Hour,
		RefreshTTL:              24 * time.Hour,
		BcryptCost:              4,
		AuthRequireConfirmation: requireConfirmation,
		ConfirmTokenTTL:         time.Hour,
		ConfirmEmailURL:         "http://localhost:3000/confirm",
		CORSAllowedOrigins:      "http://localhost:3000",
	}
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	box := &mailbox{}
	logger, _ := logtest.NewNullLogger()
	c, err := container.Build(cfg, logger, &container.Infra{Redis: rdb, Publisher: box})
	if err != nil {
		t.Fatalf("container.Build: %v", err)
	}
	srv := httptest.NewServer(router.New(c))
	t.Cleanup(srv.Close)

	api := NewAPI(srv.URL, srv.Client())
	store := NewMemoryStore()
	return &testEnv{srv: srv, box: box, c: c, api: api, auth: NewAuth(api, store, logger), store: store}
}

// recorder collects auth events.
type recorder struct {
	mu     sync.Mutex
	events []AuthEvent
	ch     chan AuthEvent
}

func newRecorder() *recorder { return &recorder{ch: make(chan AuthEvent, 16)} }

func (r *recorder) listen(_ context.Context, ev AuthEvent, _ *Session) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	r.ch <- ev
}

func (r *recorder) got() []AuthEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]AuthEvent(nil), r.events...)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
