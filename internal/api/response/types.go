package response

import (
	"time"

	"github.com/mcoot/s3arena/internal/model"
	"github.com/mcoot/s3arena/internal/services/account"
	"github.com/mcoot/s3arena/internal/services/auth"
	"github.com/mcoot/s3arena/internal/services/tasks"
)

// MediaURL is the public prefix stored photos are served under
const MediaURL = "/media/"

const dateLayout = "2006-01-02"

// ProfileBrief is the profile summary nested in a user
type ProfileBrief struct {
	Sport *string `json:"sport"`
}

// User represents an account in API responses
type User struct {
	ID                  int64         `json:"id"`
	Username            string        `json:"username"`
	Email               string        `json:"email"`
	Role                string        `json:"role"`
	Profile             *ProfileBrief `json:"profile"`
	PlayerID            *string       `json:"player_id"`
	Photo               *string       `json:"photo"`
	MembershipStartDate *string       `json:"membership_start_date"`
	MembershipEndDate   *string       `json:"membership_end_date"`
}

// UserFromModel converts a user with its profile
func UserFromModel(d *model.UserDetail) User {
	u := d.User
	out := User{
		ID:                  int64(u.ID),
		Username:            u.Username,
		Email:               u.Email,
		Role:                string(u.Role),
		PlayerID:            optString(u.PlayerCode),
		MembershipStartDate: optDate(u.MembershipStart),
		MembershipEndDate:   optDate(u.MembershipEnd),
	}
	if u.Photo != "" {
		url := MediaURL + u.Photo
		out.Photo = &url
	}
	if d.Profile != nil {
		out.Profile = &ProfileBrief{Sport: optString(string(d.Profile.Sport))}
	}
	return out
}

// UsersFromModel converts a list of users
func UsersFromModel(ds []*model.UserDetail) []User {
	out := make([]User, 0, len(ds))
	for _, d := range ds {
		out = append(out, UserFromModel(d))
	}
	return out
}

// Profile is a sport profile with its nested user
type Profile struct {
	ID    int64   `json:"id"`
	User  User    `json:"user"`
	Sport *string `json:"sport"`
}

// ProfilesFromModel converts profile listings
func ProfilesFromModel(ps []*account.ProfileDetail) []Profile {
	out := make([]Profile, 0, len(ps))
	for _, p := range ps {
		out = append(out, Profile{
			ID:    p.Profile.ID,
			User:  UserFromModel(p.User),
			Sport: optString(string(p.Profile.Sport)),
		})
	}
	return out
}

// Completion is one player's progress on a task
type Completion struct {
	ID               int64      `json:"id"`
	Task             int64      `json:"task"`
	Player           int64      `json:"player"`
	PlayerUsername   string     `json:"player_username"`
	Started          bool       `json:"started"`
	StartedAt        *time.Time `json:"started_at"`
	Completed        bool       `json:"completed"`
	Notes            string     `json:"notes"`
	TimeTakenSeconds *int       `json:"time_taken_seconds"`
}

// CompletionFromModel converts a completion
func CompletionFromModel(c *tasks.CompletionDetail) Completion {
	return Completion{
		ID:               int64(c.ID),
		Task:             int64(c.TaskID),
		Player:           int64(c.PlayerID),
		PlayerUsername:   c.PlayerUsername,
		Started:          c.Started(),
		StartedAt:        c.StartedAt,
		Completed:        c.Completed,
		Notes:            c.Notes,
		TimeTakenSeconds: c.TimeTakenSeconds,
	}
}

// Task represents a task with its users and completions
type Task struct {
	ID               int64        `json:"id"`
	Title            string       `json:"title"`
	Description      string       `json:"description"`
	AssignedBy       *User        `json:"assigned_by"`
	CreatedAt        time.Time    `json:"created_at"`
	DueDate          *string      `json:"due_date"`
	TimeLimitMinutes *int         `json:"time_limit_minutes"`
	Sport            *string      `json:"sport"`
	Players          []User       `json:"players"`
	Completions      []Completion `json:"completions"`
}

// TaskFromModel converts a task detail
func TaskFromModel(d *tasks.TaskDetail) Task {
	t := d.Task
	out := Task{
		ID:               int64(t.ID),
		Title:            t.Title,
		Description:      t.Description,
		CreatedAt:        t.CreatedAt,
		DueDate:          optDate(t.DueDate),
		TimeLimitMinutes: t.TimeLimitMinutes,
		Sport:            optString(string(t.Sport)),
		Players:          UsersFromModel(d.Players),
		Completions:      make([]Completion, 0, len(d.Completions)),
	}
	if d.AssignedBy != nil {
		u := UserFromModel(d.AssignedBy)
		out.AssignedBy = &u
	}
	for _, c := range d.Completions {
		out.Completions = append(out.Completions, CompletionFromModel(c))
	}
	return out
}

// TasksFromModel converts a task list
func TasksFromModel(ds []*tasks.TaskDetail) []Task {
	out := make([]Task, 0, len(ds))
	for _, d := range ds {
		out = append(out, TaskFromModel(d))
	}
	return out
}

// ParentDashboard is a parent's view of their child
type ParentDashboard struct {
	Child User   `json:"child"`
	Tasks []Task `json:"tasks"`
}

// ParentDashboardFromModel converts a parent view
func ParentDashboardFromModel(v *tasks.ParentView) ParentDashboard {
	return ParentDashboard{
		Child: UserFromModel(v.Child),
		Tasks: TasksFromModel(v.Tasks),
	}
}

// TokenPair is returned by the token endpoint
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// TokenPairFromAuth converts an issued pair
func TokenPairFromAuth(p *auth.TokenPair) TokenPair {
	return TokenPair{Access: p.Access, Refresh: p.Refresh}
}

// AccessToken is returned by the refresh endpoint
type AccessToken struct {
	Access string `json:"access"`
}

// Health is the liveness response
type Health struct {
	Status string `json:"status"`
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}
