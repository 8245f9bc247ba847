package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mcoot/s3arena/internal/client"
	"github.com/mcoot/s3arena/internal/countdown"
	"github.com/mcoot/s3arena/internal/dashboard"
	"github.com/mcoot/s3arena/internal/session"
	"github.com/mcoot/s3arena/internal/taskrepo"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
	errW   io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, w, errW io.Writer) *Output {
	return &Output{format: format, w: w, errW: errW}
}

// JSON reports whether machine-readable output was requested
func (o *Output) JSON() bool {
	return o.format == "json"
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.JSON() {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.JSON() {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		_, _ = fmt.Fprintln(o.errW, string(data))
	} else {
		_, _ = fmt.Fprintf(o.errW, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.JSON() {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(o.w, format, args...)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case *session.Session:
		o.printSession(v)
	case *client.User:
		o.printUser(v)
	case []client.User:
		o.printUsers(v)
	case TaskList:
		o.printTaskList(v)
	case *taskrepo.Task:
		o.printTaskDetail(v)
	case *taskrepo.Completion:
		o.printCompletion(v)
	case DashboardResult:
		o.printDashboard(v)
	case TimerTick:
		o.printTimerTick(v)
	case EventLine:
		o.printEventLine(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// TaskList is a set of task cards for one viewer
type TaskList struct {
	// Coach lists show per-player progress instead of the viewer's own state
	Coach bool                 `json:"coach"`
	Cards []dashboard.TaskCard `json:"cards"`
}

// DashboardResult is the rendered dashboard of one role
type DashboardResult struct {
	Role   session.Role         `json:"role"`
	Route  string               `json:"route"`
	View   dashboard.View       `json:"view"`
	Cards  []dashboard.TaskCard `json:"cards"`
	Notice string               `json:"notice,omitempty"`
}

// TimerTick is one countdown update
type TimerTick struct {
	TaskID  int64           `json:"task_id"`
	State   countdown.State `json:"state"`
	Text    string          `json:"text,omitempty"`
	Visible bool            `json:"visible"`
}

// EventLine is one received server event
type EventLine struct {
	Event string `json:"event"`
	Data  string `json:"data"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printSession(s *session.Session) {
	o.printf("Logged in as %s (%s, id %d)\n", s.Username, s.Role, s.UserID)
	if route, err := dashboard.RouteFor(s.Role); err == nil {
		o.printf("Dashboard: %s\n", route)
	}
	if s.PhotoURL != "" {
		o.printf("Photo: %s\n", s.PhotoURL)
	}
}

func (o *Output) printUser(u *client.User) {
	o.printf("User: %s (id %d)\n", u.Username, u.ID)
	o.printf("Role: %s\n", u.Role)
	if u.Email != "" {
		o.printf("Email: %s\n", u.Email)
	}
	if sport := u.Sport(); sport != "" {
		o.printf("Sport: %s\n", sportLabel(sport))
	}
	if u.PlayerID != nil {
		o.printf("Player ID: %s\n", *u.PlayerID)
	}
	if u.Photo != nil {
		o.printf("Photo: %s\n", *u.Photo)
	}
	if u.MembershipStartDate != nil || u.MembershipEndDate != nil {
		o.printf("Membership: %s to %s\n", deref(u.MembershipStartDate, "?"), deref(u.MembershipEndDate, "?"))
	}
}

func (o *Output) printUsers(users []client.User) {
	if len(users) == 0 {
		o.printf("No users.\n")
		return
	}
	for _, u := range users {
		sport := sportLabel(u.Sport())
		if sport == "" {
			sport = "-"
		}
		o.printf("  %4d  %-20s %-11s %s\n", u.ID, u.Username, u.Role, sport)
	}
}

func (o *Output) printTaskList(l TaskList) {
	if len(l.Cards) == 0 {
		o.printf("No tasks.\n")
		return
	}
	for _, c := range l.Cards {
		o.printCard(c, l.Coach)
	}
}

func (o *Output) printCard(c dashboard.TaskCard, coach bool) {
	t := c.Task
	status := c.Badge
	if coach {
		done, total := dashboard.Progress(t)
		status = fmt.Sprintf("%d/%d done", done, total)
	}
	o.printf("[%d] %s  (%s)\n", t.ID, t.Title, status)
	if t.Description != "" {
		o.printf("     %s\n", t.Description)
	}

	meta := []string{"created " + t.CreatedAt.Format("2006-01-02")}
	if t.DueDate != nil {
		meta = append(meta, "due "+*t.DueDate)
	}
	if c.LimitText != "" {
		meta = append(meta, c.LimitText)
	}
	o.printf("     %s\n", strings.Join(meta, ", "))

	if coach {
		for _, comp := range t.Completions {
			o.printf("       - %s (id %d): %s\n", comp.PlayerUsername, comp.Player, completionStatus(&comp))
		}
		return
	}
	if c.Countdown != "" {
		o.printf("     Time left: %s\n", c.Countdown)
	}
	if c.CanStart {
		o.printf("     Start with: s3arena tasks start %d\n", t.ID)
	}
}

func (o *Output) printTaskDetail(t *taskrepo.Task) {
	o.printf("Task %d: %s\n", t.ID, t.Title)
	if t.Sport != nil {
		o.printf("Sport: %s\n", sportLabel(*t.Sport))
	}
	if t.TimeLimitMinutes != nil {
		o.printf("Time limit: %d min\n", *t.TimeLimitMinutes)
	}
	if t.DueDate != nil {
		o.printf("Due: %s\n", *t.DueDate)
	}
	o.printf("Players:\n")
	for _, p := range t.Players {
		o.printf("  - %s (id %d)\n", p.Username, p.ID)
	}
}

func (o *Output) printCompletion(c *taskrepo.Completion) {
	o.printf("Task %d, %s: %s\n", c.Task, c.PlayerUsername, completionStatus(c))
	if c.StartedAt != nil {
		o.printf("Started at: %s\n", c.StartedAt.Format("2006-01-02 15:04:05 MST"))
	}
	if c.Completed && c.Notes != "" {
		o.printf("Notes: %s\n", c.Notes)
	}
}

func (o *Output) printDashboard(d DashboardResult) {
	if d.Notice != "" {
		o.printf("! %s\n", d.Notice)
	}
	switch v := d.View.(type) {
	case dashboard.ManagementView:
		o.printf("Management Dashboard")
		if v.Sport != "" {
			o.printf(" (%s)", sportLabel(v.Sport))
		}
		o.printf("\n")
		o.printUsers(v.Users)
	case dashboard.CoachView:
		o.printf("Coach Dashboard: %s (%s)\n", v.Me.Username, sportLabel(v.Me.Sport()))
		o.printf("\nRoster:\n")
		o.printUsers(v.Roster)
		o.printf("\nAssigned tasks:\n")
		o.printTaskList(TaskList{Coach: true, Cards: d.Cards})
	case dashboard.PlayerView:
		o.printf("Player Dashboard: %s", v.Me.Username)
		if v.Me.PlayerID != nil {
			o.printf(" [%s]", *v.Me.PlayerID)
		}
		o.printf("\n")
		if v.Coach != nil {
			o.printf("Coach: %s\n", v.Coach.Username)
		}
		o.printf("\nMy tasks:\n")
		o.printTaskList(TaskList{Cards: d.Cards})
		if len(v.Opportunities.Tournaments) > 0 {
			o.printf("\nTournaments:\n")
			for _, t := range v.Opportunities.Tournaments {
				o.printf("  - %s, %s (%s)\n", t.Name, t.Date, t.Location)
			}
		}
		if len(v.Opportunities.Scholarships) > 0 {
			o.printf("\nScholarships:\n")
			for _, s := range v.Opportunities.Scholarships {
				o.printf("  - %s: %s\n", s.Name, s.Description)
			}
		}
	case dashboard.ParentView:
		o.printf("Parent Dashboard: following %s\n", v.Child.Username)
		o.printf("\nTasks:\n")
		o.printTaskList(TaskList{Cards: d.Cards})
	default:
		o.printJSON(d)
	}
}

func (o *Output) printTimerTick(t TimerTick) {
	switch {
	case t.Visible:
		o.printf("Task %d: %s\n", t.TaskID, t.Text)
	case t.State == countdown.Completed:
		o.printf("Task %d: completed\n", t.TaskID)
	case t.State == countdown.NotStarted:
		o.printf("Task %d: not started\n", t.TaskID)
	default:
		o.printf("Task %d: no time limit\n", t.TaskID)
	}
}

func (o *Output) printEventLine(e EventLine) {
	data := strings.ReplaceAll(e.Data, "\n", " ")
	if len(data) > 100 {
		data = data[:100] + "..."
	}
	o.printf("%s: %s\n", e.Event, data)
}

func (o *Output) printHealthResult(h HealthResult) {
	o.printf("Status: %s\n", h.Status)
}

func completionStatus(c *taskrepo.Completion) string {
	switch {
	case c.Completed && c.TimeTakenSeconds != nil:
		return fmt.Sprintf("completed in %s", countdown.Format(*c.TimeTakenSeconds))
	case c.Completed:
		return "completed"
	case c.Started:
		return "started"
	default:
		return "pending"
	}
}

// sportLabel renders a sport key for display, e.g. table_tennis as TABLE TENNIS
func sportLabel(sport string) string {
	return strings.ToUpper(strings.ReplaceAll(sport, "_", " "))
}

func deref(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
