package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mcoot/s3arena/internal/client"
	"github.com/mcoot/s3arena/internal/dependencies/clock"
	"github.com/mcoot/s3arena/internal/session"
	"github.com/mcoot/s3arena/internal/taskrepo"
)

// env is the state shared by every command of one invocation
type env struct {
	cfg    *Config
	store  session.Store
	sess   *session.Session
	api    *client.Client
	tasks  *taskrepo.Repository
	clock  *clock.OffsetClock
	logger *slog.Logger
	out    *Output
}

// Option customises the root command
type Option func(*options)

type options struct {
	clock clock.Clock
}

// WithClock replaces the wall clock used for countdowns
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// NewRootCmd creates the root command
func NewRootCmd(opts ...Option) *cobra.Command {
	o := options{clock: clock.New()}
	for _, opt := range opts {
		opt(&o)
	}

	e := &env{cfg: DefaultConfig(), clock: clock.NewOffset(o.clock)}

	rootCmd := &cobra.Command{
		Use:   "s3arena",
		Short: "CLI for the S3 Arena sports academy",
		Long: `s3arena is a terminal client for the S3 Arena academy API.

It signs you in, shows the dashboard for your role, and lets coaches assign
tasks, players start timed tasks, and parents follow their child's progress.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.setup(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&e.cfg.ServerURL, "server", e.cfg.ServerURL, "API base URL (env: S3ARENA_SERVER)")
	rootCmd.PersistentFlags().StringVar(&e.cfg.SessionFile, "session-file", e.cfg.SessionFile, "Session file path (env: S3ARENA_SESSION_FILE)")
	rootCmd.PersistentFlags().StringVarP(&e.cfg.Output, "output", "o", e.cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&e.cfg.Verbose, "verbose", "v", e.cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newLoginCmd(e))
	rootCmd.AddCommand(newLogoutCmd(e))
	rootCmd.AddCommand(newWhoamiCmd(e))
	rootCmd.AddCommand(newRegisterCmd(e))
	rootCmd.AddCommand(newRegisterParentCmd(e))
	rootCmd.AddCommand(newAuthCmd(e))
	rootCmd.AddCommand(newProfileCmd(e))
	rootCmd.AddCommand(newDashboardCmd(e))
	rootCmd.AddCommand(newTasksCmd(e))
	rootCmd.AddCommand(newUsersCmd(e))
	rootCmd.AddCommand(newEventsCmd(e))
	rootCmd.AddCommand(newHealthCmd(e))

	return rootCmd
}

func (e *env) setup(cmd *cobra.Command) error {
	if e.cfg.Output != "text" && e.cfg.Output != "json" {
		return fmt.Errorf("unknown output format %q", e.cfg.Output)
	}
	e.out = NewOutput(e.cfg.Output, cmd.OutOrStdout(), cmd.ErrOrStderr())

	level := slog.LevelWarn
	if e.cfg.Verbose {
		level = slog.LevelDebug
	}
	e.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	e.store = session.NewFileStore(e.cfg.SessionFile)
	sess, err := e.store.Load()
	switch {
	case errors.Is(err, session.ErrNoSession):
		sess = nil
	case err != nil:
		return err
	}
	e.sess = sess

	e.api = client.New(e.cfg.ServerURL, sess, client.WithClock(e.clock))
	e.tasks = taskrepo.New(e.api)
	return nil
}

// requireSession returns the signed-in session or a hint to log in
func (e *env) requireSession() (*session.Session, error) {
	if !e.sess.Authenticated() {
		return nil, errors.New("not logged in; run 's3arena login' first")
	}
	return e.sess, nil
}

// syncClock lines the countdown clock up with the server's, as measured on
// the last response
func (e *env) syncClock() {
	offset := e.api.ClockOffset()
	e.clock.SetOffset(offset)
	if offset != 0 {
		e.logger.Debug("adjusted for server clock skew", slog.Duration("offset", offset))
	}
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		out := NewOutput(outputFlag(cmd), os.Stdout, os.Stderr)
		out.PrintError(err)
		stop()
		os.Exit(1)
	}
}

func outputFlag(cmd *cobra.Command) string {
	if f := cmd.PersistentFlags().Lookup("output"); f != nil {
		return f.Value.String()
	}
	return "text"
}
