package helpers

import (
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

func TestNewLoggerLevels(t *testing.T) {
	if l := NewLogger("app", "development", ""); l.GetLevel() != logrus.DebugLevel {
		t.Errorf("development level = %s", l.GetLevel())
	}
	if l := NewLogger("app", "production", ""); l.GetLevel() != logrus.InfoLevel {
		t.Errorf("production level = %s", l.GetLevel())
	}
	if l := NewLogger("app", "production", "warn"); l.GetLevel() != logrus.WarnLevel {
		t.Errorf("override level = %s", l.GetLevel())
	}
	if l := NewLogger("app", "production", "chatty"); l.GetLevel() != logrus.InfoLevel {
		t.Errorf("bad override should keep default, got %s", l.GetLevel())
	}
}

func TestAppHookAndHelpers(t *testing.T) {
	logger := NewLogger("tasks", "test", "debug")
	logger.SetOutput(io.Discard)
	hook := logtest.NewLocal(logger)

	LogWarn(logger, "publish failed", errors.New("boom"), logrus.Fields{"user_id": "u1"})
	e := hook.LastEntry()
	if e == nil || e.Level != logrus.WarnLevel || e.Message != "publish failed" {
		t.Fatalf("unexpected entry %+v", e)
	}
	if e.Data["app"] != "tasks" || e.Data["env"] != "test" || e.Data["user_id"] != "u1" {
		t.Fatalf("fields = %v", e.Data)
	}
	if err, _ := e.Data[logrus.ErrorKey].(error); err == nil || err.Error() != "boom" {
		t.Fatalf("error field = %v", e.Data[logrus.ErrorKey])
	}

	LogInfo(nil, "ignored", nil)
	LogError(logger, "no fields", nil, nil)
	if hook.LastEntry().Level != logrus.ErrorLevel {
		t.Fatal("LogError should log at error level")
	}
}
