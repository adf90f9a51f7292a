package container

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/oksasatya/go-task-manager/config"
	"github.com/oksasatya/go-task-manager/internal/application"
)

func baseConfig() *config.Config {
	return &config.Config{
		AppName:          "container-test",
		Env:              "test",
		StoreDriver:      DriverMemory,
		JWTAccessSecret:  "a",
		JWTRefreshSecret: "r",
		JWTIssuer:        "test",
		AccessTTL:        time.Hour,
		RefreshTTL:       time.Hour,
		BcryptCost:       4,
		ConfirmTokenTTL:  time.Hour,
	}
}

func TestBuildMemory(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	c, err := Build(baseConfig(), logger, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer c.Close()
	if c.TaskService == nil || c.AuthService == nil || c.Identity == nil {
		t.Fatal("services should be wired")
	}
	if c.Index != nil {
		t.Fatal("no search index without Elasticsearch")
	}

	ctx := context.Background()
	res, err := c.AuthService.Register(ctx, application.RegisterInput{Email: "a@b.co", Password: "secret123"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := c.TaskService.CreateTask(ctx, application.CreateTaskInput{Title: "wired"}, res.User.ID); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	mfs, err := c.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	seen := map[string]bool{}
	for _, mf := range mfs {
		seen[mf.GetName()] = true
	}
	for _, name := range []string{"go_goroutines", "taskmanager_task_operations_total", "taskmanager_auth_events_total"} {
		if !seen[name] {
			t.Errorf("metric %s not registered", name)
		}
	}
}

func TestBuildRejectsBadStoreConfig(t *testing.T) {
	logger, _ := logtest.NewNullLogger()

	cfg := baseConfig()
	cfg.StoreDriver = DriverPostgres
	if _, err := Build(cfg, logger, &Infra{}); err == nil {
		t.Fatal("postgres without a pool should fail")
	}

	cfg.StoreDriver = "sqlite"
	if _, err := Build(cfg, logger, nil); err == nil {
		t.Fatal("unknown driver should fail")
	}
}

func TestBuildConfirmationNeedsRedis(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	cfg := baseConfig()
	cfg.AuthRequireConfirmation = true
	if _, err := Build(cfg, logger, nil); err == nil {
		t.Fatal("confirmation without Redis should fail")
	}
}

func TestConnectMemoryWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	logger, _ := logtest.NewNullLogger()
	cfg := baseConfig()
	cfg.RedisEnabled = true
	cfg.RedisAddr = mr.Addr()

	in, err := Connect(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer in.Close()
	if in.Redis == nil || in.PGPool != nil || in.ES != nil || in.Publisher != nil {
		t.Fatalf("unexpected infra %+v", in)
	}
}
