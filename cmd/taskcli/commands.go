package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/oksasatya/go-task-manager/internal/client"
	"github.com/oksasatya/go-task-manager/internal/domain/entity"
)

type credentials struct {
	email    string
	password string
	username string
}

func (c *credentials) bind(cmd *cobra.Command, withUsername bool) {
	cmd.Flags().StringVarP(&c.email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&c.password, "password", "p", "", "password (prompted when empty)")
	if withUsername {
		cmd.Flags().StringVarP(&c.username, "username", "u", "", "display name")
	}
	_ = cmd.MarkFlagRequired("email")
}

// fill prompts for the password on stdin when it was not given as a flag.
func (c *credentials) fill(cmd *cobra.Command) error {
	if c.password != "" {
		return nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	c.password = strings.TrimRight(line, "\r\n")
	return nil
}

func submit(ctx context.Context, s *session, mode client.AuthMode, c *credentials) error {
	s.app.SetMode(mode)
	s.app.SetCredentials(c.email, c.password)
	if err := s.app.Submit(ctx); err != nil {
		return errors.New(s.app.View().Error)
	}
	v := s.app.View()
	fmt.Fprintln(s.out, v.Info)
	if v.State == client.StateAuthenticated && v.User != nil {
		fmt.Fprintf(s.out, "Welcome, %s\n", v.User.Email)
	}
	return nil
}

func registerCmd(opts *options) *cobra.Command {
	c := &credentials{}
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
	}
	c.bind(cmd, true)
	cmd.RunE = run(opts, func(ctx context.Context, s *session, _ []string) error {
		if err := c.fill(cmd); err != nil {
			return err
		}
		if c.username == "" {
			return submit(ctx, s, client.ModeRegister, c)
		}
		// the form has no username field, so go through Auth directly
		res, err := s.auth.SignUp(ctx, c.email, c.password, c.username)
		if err != nil {
			return err
		}
		if res.RequiresConfirmation {
			fmt.Fprintln(s.out, client.MsgConfirmEmail)
			return nil
		}
		fmt.Fprintln(s.out, client.MsgRegistered)
		return nil
	})
	return cmd
}

func loginCmd(opts *options) *cobra.Command {
	c := &credentials{}
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
	}
	c.bind(cmd, false)
	cmd.RunE = run(opts, func(ctx context.Context, s *session, _ []string) error {
		if err := c.fill(cmd); err != nil {
			return err
		}
		return submit(ctx, s, client.ModeLogin, c)
	})
	return cmd
}

func logoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: run(opts, func(ctx context.Context, s *session, _ []string) error {
			if err := s.app.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(s.out, "Logged out")
			return nil
		}),
	}
}

func whoamiCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: run(opts, func(ctx context.Context, s *session, _ []string) error {
			sess, err := s.auth.GetSession()
			if err != nil {
				return err
			}
			if sess == nil {
				return errors.New("not signed in")
			}
			u, err := s.api.Me(ctx, sess.AccessToken)
			if err != nil {
				return err
			}
			fmt.Fprintf(s.out, "%s <%s> (%s)\nsession expires %s\n",
				u.Username, u.Email, u.ID, sess.Expiry().Local().Format(time.RFC1123))
			return nil
		}),
	}
}

func confirmCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "confirm TOKEN",
		Short: "Confirm an email address with the token from the confirmation link",
		Args:  cobra.ExactArgs(1),
		RunE: run(opts, func(ctx context.Context, s *session, args []string) error {
			tok := args[0]
			if _, after, ok := strings.Cut(tok, "token="); ok {
				tok = after
			}
			u, err := s.api.Confirm(ctx, tok)
			if err != nil {
				return err
			}
			fmt.Fprintf(s.out, "Confirmed %s, you can log in now\n", u.Email)
			return nil
		}),
	}
}

func resendCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "resend EMAIL",
		Short: "Send the confirmation email again",
		Args:  cobra.ExactArgs(1),
		RunE: run(opts, func(ctx context.Context, s *session, args []string) error {
			if err := s.api.ResendConfirmation(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(s.out, "If the account exists and is unconfirmed, a confirmation email is on its way")
			return nil
		}),
	}
}

func requireSignedIn(s *session) error {
	if s.app.View().State != client.StateAuthenticated {
		return errors.New("not signed in, run `taskcli login` first")
	}
	return nil
}

func listCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your tasks, newest first",
		Args:    cobra.NoArgs,
		RunE: run(opts, func(_ context.Context, s *session, _ []string) error {
			if err := requireSignedIn(s); err != nil {
				return err
			}
			printTasks(s.out, s.app.View().Tasks)
			return nil
		}),
	}
}

func searchCmd(opts *options) *cobra.Command {
	var size int
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search your tasks by title and description",
		Args:  cobra.MinimumNArgs(1),
	}
	cmd.Flags().IntVar(&size, "size", 20, "max results")
	cmd.RunE = run(opts, func(ctx context.Context, s *session, args []string) error {
		if err := requireSignedIn(s); err != nil {
			return err
		}
		sess, err := s.auth.GetSession()
		if err != nil || sess == nil {
			return errors.New("not signed in")
		}
		tasks, err := s.api.SearchTasks(ctx, sess.AccessToken, strings.Join(args, " "), size)
		if err != nil {
			return err
		}
		printTasks(s.out, tasks)
		return nil
	})
	return cmd
}

func addCmd(opts *options) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "optional description")
	cmd.RunE = run(opts, func(ctx context.Context, s *session, args []string) error {
		if !s.app.AddTask(ctx, strings.Join(args, " "), description) {
			return nil // view error is returned by run
		}
		printTasks(s.out, s.app.View().Tasks[:1])
		return nil
	})
	return cmd
}

func toggleCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle ID",
		Short: "Flip a task between pending and done",
		Args:  cobra.ExactArgs(1),
		RunE: run(opts, func(ctx context.Context, s *session, args []string) error {
			s.app.ToggleTask(ctx, args[0])
			for _, t := range s.app.View().Tasks {
				if t.ID == args[0] {
					printTasks(s.out, []client.Task{t})
				}
			}
			return nil
		}),
	}
}

func removeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: run(opts, func(ctx context.Context, s *session, args []string) error {
			s.app.DeleteTask(ctx, args[0])
			if s.app.View().Error == "" {
				fmt.Fprintln(s.out, "Task deleted successfully")
			}
			return nil
		}),
	}
}

func watchCmd(opts *options) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the session fresh and report auth state changes until interrupted",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().DurationVar(&interval, "interval", 15*time.Second, "how often to check the session")
	cmd.RunE = run(opts, func(ctx context.Context, s *session, _ []string) error {
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		sub := s.auth.OnAuthStateChange(func(_ context.Context, ev client.AuthEvent, sess *client.Session) {
			line := fmt.Sprintf("%s %s", time.Now().Format(time.TimeOnly), ev)
			if sess != nil {
				line += " until " + sess.Expiry().Local().Format(time.TimeOnly)
			}
			fmt.Fprintln(s.out, line)
		})
		defer sub.Unsubscribe()

		fmt.Fprintf(s.out, "state: %s\n", s.app.View().State)
		s.auth.Watch(ctx, interval)
		return nil
	})
	return cmd
}

func printTasks(w io.Writer, tasks []client.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks yet")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, t := range tasks {
		mark := " "
		if t.Status == entity.TaskStatusDone {
			mark = "x"
		}
		desc := ""
		if t.Description != nil {
			desc = *t.Description
		}
		fmt.Fprintf(tw, "[%s]\t%s\t%s\t%s\n", mark, t.Title, desc, t.ID)
	}
	_ = tw.Flush()
}
