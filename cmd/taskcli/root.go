package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/oksasatya/go-task-manager/config"
	"github.com/oksasatya/go-task-manager/internal/client"
	"github.com/oksasatya/go-task-manager/internal/container"
)

type options struct {
	apiURL      string
	sessionPath string
	direct      bool
	verbose     bool
}

// session is what every command works with.
type session struct {
	api   *client.API
	auth  *client.Auth
	app   *client.App
	out   io.Writer
	close func()
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "taskcli",
		Short:        "Manage your tasks from the terminal",
		SilenceUsage: true,
	}
	def := os.Getenv("TASKS_API_URL")
	if def == "" {
		def = "http://localhost:5000"
	}
	root.PersistentFlags().StringVar(&opts.apiURL, "api", def, "API base URL (env TASKS_API_URL)")
	root.PersistentFlags().StringVar(&opts.sessionPath, "session", "", "session file (default: user config dir)")
	root.PersistentFlags().BoolVar(&opts.direct, "direct", false, "read and write tasks straight through the record store configured in .env")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		registerCmd(opts),
		loginCmd(opts),
		logoutCmd(opts),
		whoamiCmd(opts),
		confirmCmd(opts),
		resendCmd(opts),
		listCmd(opts),
		searchCmd(opts),
		addCmd(opts),
		toggleCmd(opts),
		removeCmd(opts),
		watchCmd(opts),
	)
	return root
}

func newLogger(verbose bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// open builds the client stack and starts the App.
func open(ctx context.Context, cmd *cobra.Command, opts *options) (*session, error) {
	logger := newLogger(opts.verbose)

	path := opts.sessionPath
	if path == "" {
		p, err := client.DefaultSessionPath()
		if err != nil {
			return nil, fmt.Errorf("locate session file: %w", err)
		}
		path = p
	}

	api := client.NewAPI(opts.apiURL, nil)
	auth := client.NewAuth(api, client.NewFileStore(path), logger)
	s := &session{api: api, auth: auth, out: cmd.OutOrStdout(), close: func() {}}

	var backend client.TaskBackend = client.NewHTTPBackend(auth)
	if opts.direct {
		_ = godotenv.Load()
		cfg := config.Load()
		infra, err := container.Connect(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("connect record store: %w", err)
		}
		c, err := container.Build(cfg, logger, infra)
		if err != nil {
			infra.Close()
			return nil, fmt.Errorf("build container: %w", err)
		}
		backend = client.NewDirectBackend(auth, c.Identity, c.TaskService)
		s.close = c.Close
	}

	s.app = client.NewApp(auth, backend, logger)
	s.app.Start(ctx)
	prev := s.close
	s.close = func() {
		s.app.Close()
		prev()
	}
	return s, nil
}

// run opens a session, calls fn and turns a leftover view error into the
// command's error.
func run(opts *options, fn func(ctx context.Context, s *session, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		s, err := open(ctx, cmd, opts)
		if err != nil {
			return err
		}
		defer s.close()
		if err := fn(ctx, s, args); err != nil {
			return err
		}
		return s.app.Err()
	}
}
