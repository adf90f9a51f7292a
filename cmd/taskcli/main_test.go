package main

import (
	"bytes"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/oksasatya/go-task-manager/config"
	"github.com/oksasatya/go-task-manager/internal/container"
	"github.com/oksasatya/go-task-manager/internal/router"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		AppName:            "taskcli-test",
		Env:                "test",
		StoreDriver:        container.DriverMemory,
		JWTAccessSecret:    "access",
		JWTRefreshSecret:   "refresh",
		JWTIssuer:          "test",
		AccessTTL:          time.Hour,
		RefreshTTL:         24 * time.Hour,
		BcryptCost:         4,
		CORSAllowedOrigins: "http://localhost:3000",
	}
	logger, _ := logtest.NewNullLogger()
	c, err := container.Build(cfg, logger, nil)
	if err != nil {
		t.Fatalf("container.Build: %v", err)
	}
	srv := httptest.NewServer(router.New(c))
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCLISession(t *testing.T) {
	srv := newTestServer(t)
	common := []string{"--api", srv.URL, "--session", filepath.Join(t.TempDir(), "session.json")}
	with := func(args ...string) []string { return append(append([]string{}, args...), common...) }

	if _, err := execute(t, with("list")...); err == nil {
		t.Fatal("list without a session should fail")
	}

	out, err := execute(t, with("register", "-e", "ada@example.com", "-p", "secret123")...)
	if err != nil {
		t.Fatalf("register: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Welcome, ada@example.com") {
		t.Fatalf("register output: %s", out)
	}

	out, err = execute(t, with("add", "Buy", "milk", "-d", "two litres")...)
	if err != nil || !strings.Contains(out, "Buy milk") {
		t.Fatalf("add: %v\n%s", err, out)
	}

	out, err = execute(t, with("ls")...)
	if err != nil || !strings.Contains(out, "[ ]") || !strings.Contains(out, "two litres") {
		t.Fatalf("list: %v\n%s", err, out)
	}
	id := strings.Fields(strings.TrimSpace(out))[len(strings.Fields(strings.TrimSpace(out)))-1]

	out, err = execute(t, with("toggle", id)...)
	if err != nil || !strings.Contains(out, "[x]") {
		t.Fatalf("toggle: %v\n%s", err, out)
	}

	out, err = execute(t, with("search", "milk")...)
	if err != nil || !strings.Contains(out, id) {
		t.Fatalf("search: %v\n%s", err, out)
	}

	if out, err = execute(t, with("rm", id)...); err != nil {
		t.Fatalf("rm: %v\n%s", err, out)
	}
	if _, err = execute(t, with("rm", id)...); err == nil {
		t.Fatal("second rm should fail")
	}

	if out, err = execute(t, with("logout")...); err != nil {
		t.Fatalf("logout: %v\n%s", err, out)
	}
	if _, err := execute(t, with("whoami")...); err == nil {
		t.Fatal("whoami after logout should fail")
	}
}

func TestPrintTasksEmpty(t *testing.T) {
	var b bytes.Buffer
	printTasks(&b, nil)
	if b.String() != "No tasks yet\n" {
		t.Fatalf("got %q", b.String())
	}
}
