package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/s3arena/internal/client"
	"github.com/mcoot/s3arena/internal/countdown"
	"github.com/mcoot/s3arena/internal/dashboard"
	"github.com/mcoot/s3arena/internal/session"
	"github.com/mcoot/s3arena/internal/taskrepo"
)

func newTasksCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Task commands",
	}

	cmd.AddCommand(newTasksListCmd(e))
	cmd.AddCommand(newTasksCreateCmd(e))
	cmd.AddCommand(newTasksStartCmd(e))
	cmd.AddCommand(newTasksCompleteCmd(e))
	cmd.AddCommand(newTasksTimerCmd(e))

	return cmd
}

// viewerTasks fetches the tasks relevant to the session's role and the
// user whose completions the cards should show
func (e *env) viewerTasks(ctx context.Context, sess *session.Session) (cardSource, bool, error) {
	switch sess.Role {
	case session.RoleCoach:
		tasks, err := e.tasks.ListCreatedBy(ctx, sess.Username)
		return cardSource{tasks: tasks, viewer: sess.UserID}, true, err
	case session.RolePlayer:
		tasks, err := e.tasks.ListAssignedTo(ctx)
		return cardSource{tasks: tasks, viewer: sess.UserID}, false, err
	case session.RoleParent:
		child, err := e.tasks.ListForChild(ctx)
		if err != nil {
			return cardSource{}, false, err
		}
		return cardSource{tasks: child.Tasks, viewer: child.Child.ID, parent: true}, false, nil
	default:
		tasks, err := e.tasks.ListAll(ctx)
		return cardSource{tasks: tasks, viewer: sess.UserID, parent: true}, true, err
	}
}

func newTasksListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the tasks relevant to you",
		Long: `List tasks for your role: coaches see the tasks they assigned, players
their own tasks, parents their child's tasks and management every task.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := e.requireSession()
			if err != nil {
				return err
			}
			source, coach, err := e.viewerTasks(cmd.Context(), sess)
			if err != nil {
				return err
			}
			e.syncClock()
			e.out.Print(TaskList{Coach: coach, Cards: source.cards(e.clock.Now())})
			return nil
		},
	}
}

func newTasksCreateCmd(e *env) *cobra.Command {
	var (
		in      taskrepo.NewTask
		due     string
		limit   int
		players []int64
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Assign a new task to players (coach only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := e.requireSession(); err != nil {
				return err
			}

			in.PlayerIDs = players
			if due != "" {
				d, err := time.Parse(taskrepo.DateLayout, due)
				if err != nil {
					return fmt.Errorf("invalid --due %q: use YYYY-MM-DD", due)
				}
				in.DueDate = &d
			}
			if cmd.Flags().Changed("limit") {
				in.TimeLimitMinutes = &limit
			}

			task, err := e.tasks.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			e.out.Print(task)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Title, "title", "", "Task title (required)")
	cmd.Flags().StringVar(&in.Description, "description", "", "Task description")
	cmd.Flags().Int64SliceVar(&players, "players", nil, "Comma-separated player user ids")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Time limit in minutes")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newTasksStartCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "start <task-id>",
		Short: "Start the countdown on one of your tasks (player only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := e.requireSession(); err != nil {
				return err
			}
			taskID, err := parseID("task id", args[0])
			if err != nil {
				return err
			}
			completion, err := e.tasks.Start(cmd.Context(), taskID)
			if err != nil {
				return err
			}
			e.out.Print(completion)
			return nil
		},
	}
}

func newTasksCompleteCmd(e *env) *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "complete <task-id> <player-id>",
		Short: "Mark a player's task as completed (coach only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := e.requireSession(); err != nil {
				return err
			}
			taskID, err := parseID("task id", args[0])
			if err != nil {
				return err
			}
			playerID, err := parseID("player id", args[1])
			if err != nil {
				return err
			}

			var notesArg *string
			if cmd.Flags().Changed("notes") {
				notesArg = &notes
			}
			completion, err := e.tasks.MarkComplete(cmd.Context(), taskID, playerID, notesArg)
			if err != nil {
				return err
			}
			e.out.Print(completion)
			return nil
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Notes for the player")

	return cmd
}

var errTaskNotListed = errors.New("task not found in your task list")

// countdownInput finds taskID among the viewer's tasks
func (e *env) countdownInput(ctx context.Context, sess *session.Session, taskID int64) (countdown.Input, error) {
	source, _, err := e.viewerTasks(ctx, sess)
	if err != nil {
		return countdown.Input{}, err
	}
	for i := range source.tasks {
		t := &source.tasks[i]
		if t.ID == taskID {
			return dashboard.CountdownInput(t, t.CompletionFor(source.viewer)), nil
		}
	}
	return countdown.Input{}, errTaskNotListed
}

func newTasksTimerCmd(e *env) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "timer <task-id>",
		Short: "Follow the countdown of a started task",
		Long: `Print the time left on a task every second until it runs out or is
completed. Players follow their own countdown, parents their child's.

Use --once to print the current value and exit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := e.requireSession()
			if err != nil {
				return err
			}
			taskID, err := parseID("task id", args[0])
			if err != nil {
				return err
			}

			in, err := e.countdownInput(cmd.Context(), sess, taskID)
			if err != nil {
				return err
			}
			e.syncClock()

			if once {
				now := e.clock.Now()
				text := countdown.Text(in, now)
				e.out.Print(TimerTick{TaskID: taskID, State: countdown.StateOf(in, now), Text: text, Visible: text != ""})
				return nil
			}
			return e.followTimer(cmd.Context(), sess, taskID, in)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Print the current countdown and exit")

	return cmd
}

// followTimer prints countdown updates until the countdown is over. Events
// about the task reload its input so a completion stops the timer.
func (e *env) followTimer(ctx context.Context, sess *session.Session, taskID int64, in countdown.Input) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	timer := countdown.NewTimer(e.clock, in)

	go func() {
		err := e.api.Events(ctx, func(ev client.Event) error {
			te, err := ev.TaskEvent()
			if err != nil || te.TaskID != taskID {
				return nil
			}
			next, err := e.countdownInput(ctx, sess, taskID)
			if err != nil {
				e.logger.Warn("failed to reload task", slog.String("error", err.Error()))
				return nil
			}
			timer.Update(next)
			return nil
		})
		if err != nil {
			e.logger.Debug("event stream ended", slog.String("error", err.Error()))
		}
	}()

	timer.Run(ctx, func(d countdown.Display) {
		e.out.Print(TimerTick{TaskID: taskID, State: d.State, Text: d.Text, Visible: d.Visible})
		switch d.State {
		case countdown.Expired, countdown.Completed, countdown.NoLimit:
			cancel()
		}
	})
	return nil
}

func newUsersCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Academy member commands",
	}

	var sport string
	list := &cobra.Command{
		Use:   "list",
		Short: "List academy members",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := e.requireSession(); err != nil {
				return err
			}
			users, err := e.api.Users(cmd.Context(), sport)
			if err != nil {
				return err
			}
			e.out.Print(users)
			return nil
		},
	}
	list.Flags().StringVar(&sport, "sport", "", "Only members of this sport")

	tasks := &cobra.Command{
		Use:   "tasks <user-id>",
		Short: "Show the tasks assigned to a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := e.requireSession(); err != nil {
				return err
			}
			userID, err := parseID("user id", args[0])
			if err != nil {
				return err
			}
			assigned, err := dashboard.TasksForUser(cmd.Context(), dashboard.Deps{Directory: e.api, Tasks: e.tasks}, userID)
			if err != nil {
				return err
			}
			e.syncClock()
			e.out.Print(TaskList{Cards: dashboard.Cards(assigned, userID, true, e.clock.Now())})
			return nil
		},
	}

	cmd.AddCommand(list, tasks)
	return cmd
}

func parseID(what, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", what, s)
	}
	return id, nil
}
