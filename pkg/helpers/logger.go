package helpers

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger returns the process logger. Development gets colourless text at
// debug level, everything else JSON at info. level, when valid, overrides
// the default. Every entry is stamped with app and env.
func NewLogger(appName, env, level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	lvl := logrus.InfoLevel
	if env == "development" {
		lvl = logrus.DebugLevel
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if level != "" {
		if parsed, err := logrus.ParseLevel(level); err == nil {
			lvl = parsed
		} else {
			defer logger.WithField("level", level).Warn("unknown LOG_LEVEL, keeping default")
		}
	}
	logger.SetLevel(lvl)
	logger.AddHook(appHook{app: appName, env: env})
	return logger
}

type appHook struct{ app, env string }

func (appHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h appHook) Fire(e *logrus.Entry) error {
	if _, ok := e.Data["app"]; !ok {
		e.Data["app"] = h.app
	}
	if _, ok := e.Data["env"]; !ok {
		e.Data["env"] = h.env
	}
	return nil
}

// LogError, LogWarn and LogInfo tolerate a nil logger so optional
// collaborators can log without checks.
func LogError(logger *logrus.Logger, msg string, err error, fields logrus.Fields) {
	logAt(logger, logrus.ErrorLevel, msg, err, fields)
}

func LogWarn(logger *logrus.Logger, msg string, err error, fields logrus.Fields) {
	logAt(logger, logrus.WarnLevel, msg, err, fields)
}

func LogInfo(logger *logrus.Logger, msg string, fields logrus.Fields) {
	logAt(logger, logrus.InfoLevel, msg, nil, fields)
}

func logAt(logger *logrus.Logger, lvl logrus.Level, msg string, err error, fields logrus.Fields) {
	if logger == nil {
		return
	}
	entry := logger.WithFields(fields)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Log(lvl, msg)
}
