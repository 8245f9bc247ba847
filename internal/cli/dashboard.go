package cli

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/s3arena/internal/client"
	"github.com/mcoot/s3arena/internal/dashboard"
	"github.com/mcoot/s3arena/internal/dependencies/clock"
	"github.com/mcoot/s3arena/internal/session"
	"github.com/mcoot/s3arena/internal/taskrepo"
)

func newDashboardCmd(e *env) *cobra.Command {
	var (
		opts  dashboard.Options
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the dashboard for your role",
		Long: `Show the dashboard for your role.

Management sees academy members (filter with --sport), coaches see their
roster and assigned tasks, players see their tasks and opportunities, and
parents see their child's tasks.

With --watch the dashboard reloads whenever one of your tasks changes and
running countdowns are printed every second. Press Ctrl+C to stop.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := e.requireSession()
			if err != nil {
				return err
			}
			return e.runDashboard(cmd.Context(), sess, opts, watch)
		},
	}

	cmd.Flags().StringVar(&opts.Sport, "sport", "", "Only list members of this sport (management)")
	cmd.Flags().BoolVar(&watch, "watch", false, "Keep running and show live updates")

	return cmd
}

// cardSource remembers how to rebuild task cards for the current view
type cardSource struct {
	tasks  []taskrepo.Task
	viewer int64
	parent bool
}

func (s cardSource) cards(now time.Time) []dashboard.TaskCard {
	return dashboard.Cards(s.tasks, s.viewer, s.parent, now)
}

func sourceFor(sess *session.Session, view dashboard.View) cardSource {
	switch v := view.(type) {
	case dashboard.CoachView:
		return cardSource{tasks: v.Tasks, viewer: sess.UserID}
	case dashboard.PlayerView:
		return cardSource{tasks: v.Tasks, viewer: sess.UserID}
	case dashboard.ParentView:
		return cardSource{tasks: v.Tasks, viewer: v.Child.ID, parent: true}
	default:
		return cardSource{}
	}
}

func (e *env) runDashboard(ctx context.Context, sess *session.Session, opts dashboard.Options, watch bool) error {
	route, err := dashboard.RouteFor(sess.Role)
	if err != nil {
		return err
	}
	board := dashboard.NewBoard(dashboard.Deps{Directory: e.api, Tasks: e.tasks}, sess)

	var source cardSource
	render := func() error {
		st, err := board.Refresh(ctx, opts)
		if err != nil {
			return err
		}
		if st.Err != nil {
			return st.Err
		}
		e.syncClock()
		source = sourceFor(sess, st.View)
		e.out.Print(DashboardResult{
			Role:   sess.Role,
			Route:  route,
			View:   st.View,
			Cards:  source.cards(e.clock.Now()),
			Notice: st.Notice,
		})
		return nil
	}

	if err := render(); err != nil {
		return err
	}
	if !watch {
		return nil
	}

	changed := make(chan struct{}, 1)
	go func() {
		err := e.api.Events(ctx, func(ev client.Event) error {
			if ev.Name == client.EventConnected {
				return nil
			}
			select {
			case changed <- struct{}{}:
			default:
			}
			return nil
		})
		if err != nil {
			e.logger.Warn("event stream ended", slog.String("error", err.Error()))
		}
	}()

	var ticker clock.Ticker
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()
	for {
		// Tick only while something is counting down
		running := dashboard.AnyRunning(source.cards(e.clock.Now()))
		switch {
		case running && ticker == nil:
			ticker = e.clock.NewTicker(time.Second)
		case !running && ticker != nil:
			ticker.Stop()
			ticker = nil
		}
		var tick <-chan time.Time
		if ticker != nil {
			tick = ticker.C()
		}

		select {
		case <-ctx.Done():
			return nil
		case <-changed:
			if err := render(); err != nil && !errors.Is(err, dashboard.ErrSuperseded) {
				e.out.PrintError(err)
			}
		case <-tick:
			for _, c := range source.cards(e.clock.Now()) {
				if c.Countdown == "" {
					continue
				}
				e.out.Print(TimerTick{TaskID: c.Task.ID, State: c.State, Text: c.Countdown, Visible: true})
			}
		}
	}
}
