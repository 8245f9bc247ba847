// Package dashboard composes the per-role views from the account and task APIs.
package dashboard

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/mcoot/s3arena/internal/client"
	"github.com/mcoot/s3arena/internal/session"
	"github.com/mcoot/s3arena/internal/taskrepo"
)

// ErrUnknownRole is returned for a session whose role has no dashboard
var ErrUnknownRole = errors.New("no dashboard for role")

var routes = map[session.Role]string{
	session.RoleManagement: "/admin",
	session.RoleCoach:      "/coach",
	session.RolePlayer:     "/player",
	session.RoleParent:     "/parent",
}

// RouteFor returns the landing route for role
func RouteFor(role session.Role) (string, error) {
	route, ok := routes[role]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownRole, role)
	}
	return route, nil
}

// Directory looks up accounts
type Directory interface {
	Users(ctx context.Context, sport string) ([]client.User, error)
	Profiles(ctx context.Context) ([]client.SportProfile, error)
}

// TaskSource is the task queries a dashboard needs
type TaskSource interface {
	ListCreatedBy(ctx context.Context, coachUsername string) ([]taskrepo.Task, error)
	ListAssignedTo(ctx context.Context) ([]taskrepo.Task, error)
	ListForChild(ctx context.Context) (*taskrepo.ChildTasks, error)
	ListAssignedToUser(ctx context.Context, userID int64) ([]taskrepo.Task, error)
}

// Deps are the data sources a dashboard is built from
type Deps struct {
	Directory Directory
	Tasks     TaskSource
}

// Options tune a dashboard load
type Options struct {
	// Sport filters the management user list
	Sport string
}

// View is one of ManagementView, CoachView, PlayerView or ParentView
type View interface {
	Role() session.Role
}

// ManagementView lists academy members
type ManagementView struct {
	Sport string        `json:"sport,omitempty"`
	Users []client.User `json:"users"`
}

func (ManagementView) Role() session.Role { return session.RoleManagement }

// CoachView is a coach's roster and the tasks they assigned
type CoachView struct {
	Me     client.User     `json:"me"`
	Roster []client.User   `json:"roster"`
	Tasks  []taskrepo.Task `json:"tasks"`
}

func (CoachView) Role() session.Role { return session.RoleCoach }

// PlayerView is a player's tasks, coach and opportunities
type PlayerView struct {
	Me            client.User     `json:"me"`
	Coach         *client.User    `json:"coach"`
	Tasks         []taskrepo.Task `json:"tasks"`
	Opportunities Opportunities   `json:"opportunities"`
}

func (PlayerView) Role() session.Role { return session.RolePlayer }

// ParentView is a parent's child and the child's tasks
type ParentView struct {
	Child client.User     `json:"child"`
	Tasks []taskrepo.Task `json:"tasks"`
}

func (ParentView) Role() session.Role { return session.RoleParent }

// Load builds the dashboard for the session's role
func Load(ctx context.Context, deps Deps, sess *session.Session, opts Options) (View, error) {
	if !sess.Authenticated() {
		return nil, session.ErrNoSession
	}
	var (
		view View
		err  error
	)
	switch sess.Role {
	case session.RoleManagement:
		view, err = loadManagement(ctx, deps, opts)
	case session.RoleCoach:
		view, err = loadCoach(ctx, deps, sess)
	case session.RolePlayer:
		view, err = loadPlayer(ctx, deps, sess)
	case session.RoleParent:
		view, err = loadParent(ctx, deps)
	default:
		err = fmt.Errorf("%w %q", ErrUnknownRole, sess.Role)
	}
	if err != nil {
		return nil, err
	}
	return view, nil
}

func loadManagement(ctx context.Context, deps Deps, opts Options) (ManagementView, error) {
	users, err := deps.Directory.Users(ctx, opts.Sport)
	if err != nil {
		return ManagementView{}, err
	}
	return ManagementView{Sport: opts.Sport, Users: users}, nil
}

// TasksForUser is the management "view tasks" action
func TasksForUser(ctx context.Context, deps Deps, userID int64) ([]taskrepo.Task, error) {
	return deps.Tasks.ListAssignedToUser(ctx, userID)
}

func loadCoach(ctx context.Context, deps Deps, sess *session.Session) (CoachView, error) {
	var (
		users    []client.User
		profiles []client.SportProfile
		tasks    []taskrepo.Task
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		users, err = deps.Directory.Users(gctx, "")
		return err
	})
	g.Go(func() (err error) {
		profiles, err = deps.Directory.Profiles(gctx)
		return err
	})
	g.Go(func() (err error) {
		tasks, err = deps.Tasks.ListCreatedBy(gctx, sess.Username)
		return err
	})
	if err := g.Wait(); err != nil {
		return CoachView{}, err
	}

	me, err := findUser(users, sess.Username)
	if err != nil {
		return CoachView{}, err
	}

	roster := []client.User{}
	if sport := me.Sport(); sport != "" {
		for _, p := range profiles {
			if p.User.Role == string(session.RolePlayer) && p.Sport != nil && *p.Sport == sport {
				roster = append(roster, p.User)
			}
		}
	}
	return CoachView{Me: *me, Roster: roster, Tasks: tasks}, nil
}

func loadPlayer(ctx context.Context, deps Deps, sess *session.Session) (PlayerView, error) {
	var (
		users []client.User
		tasks []taskrepo.Task
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		users, err = deps.Directory.Users(gctx, "")
		return err
	})
	g.Go(func() (err error) {
		tasks, err = deps.Tasks.ListAssignedTo(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return PlayerView{}, err
	}

	me, err := findUser(users, sess.Username)
	if err != nil {
		return PlayerView{}, err
	}

	view := PlayerView{Me: *me, Tasks: tasks, Opportunities: OpportunitiesFor(me.Sport())}
	// No coach for the sport is not an error
	if sport := me.Sport(); sport != "" {
		for i := range users {
			if users[i].Role == string(session.RoleCoach) && users[i].Sport() == sport {
				view.Coach = &users[i]
				break
			}
		}
	}
	return view, nil
}

func loadParent(ctx context.Context, deps Deps) (ParentView, error) {
	child, err := deps.Tasks.ListForChild(ctx)
	if err != nil {
		return ParentView{}, err
	}
	return ParentView{Child: child.Child, Tasks: child.Tasks}, nil
}

func findUser(users []client.User, username string) (*client.User, error) {
	for i := range users {
		if users[i].Username == username {
			return &users[i], nil
		}
	}
	return nil, client.ErrUserNotListed
}
