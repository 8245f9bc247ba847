package tasks

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mcoot/s3arena/internal/dependencies/clock"
	"github.com/mcoot/s3arena/internal/metrics"
	"github.com/mcoot/s3arena/internal/model"
	"github.com/mcoot/s3arena/internal/storage"
)

// DefaultCompletionNotes is stored when a coach completes a task without notes
const DefaultCompletionNotes = "Completed by coach."

// EventPublisher receives task lifecycle events
type EventPublisher interface {
	Publish(ctx context.Context, event model.TaskEvent)
}

// NewTask is the input for task creation
type NewTask struct {
	Title            string
	Description      string
	Players          []model.UserID
	DueDate          *time.Time
	TimeLimitMinutes *int
}

// CompletionDetail is a completion with its player's username
type CompletionDetail struct {
	*model.Completion
	PlayerUsername string
}

// TaskDetail is a task with its users and completions resolved
type TaskDetail struct {
	Task        *model.Task
	AssignedBy  *model.UserDetail // nil if the coach no longer exists
	Players     []*model.UserDetail
	Completions []*CompletionDetail
}

// ParentView is what a parent sees: their child and the child's tasks
type ParentView struct {
	Child *model.UserDetail
	Tasks []*TaskDetail
}

// Service runs the task lifecycle
type Service struct {
	storage   storage.Storage
	clock     clock.Clock
	publisher EventPublisher
	metrics   metrics.Recorder
	logger    *slog.Logger
	// locks serialise completion repair within this process; storage
	// updates are atomic across processes
	locks *keyedMutex
}

// New creates a tasks Service
func New(
	storage storage.Storage,
	clock clock.Clock,
	publisher EventPublisher,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *Service {
	return &Service{
		storage:   storage,
		clock:     clock,
		publisher: publisher,
		metrics:   recorder,
		logger:    logger,
		locks:     newKeyedMutex(),
	}
}

// Create makes a task for the coach and one completion per assigned player.
// The task inherits the coach's sport.
func (s *Service) Create(ctx context.Context, coachID model.UserID, in NewTask) (*TaskDetail, error) {
	coach, err := s.requireRole(ctx, coachID, model.RoleCoach, model.ErrNotCoach)
	if err != nil {
		return nil, err
	}

	players := dedupe(in.Players)
	if len(players) == 0 {
		return nil, model.ErrNoPlayers
	}
	for _, id := range players {
		u, err := s.storage.GetUser(ctx, id)
		if err != nil {
			if errors.Is(err, model.ErrUserNotFound) {
				return nil, &model.InvalidPlayerError{ID: id}
			}
			return nil, err
		}
		if u.Role != model.RolePlayer {
			return nil, &model.InvalidPlayerError{ID: id}
		}
	}

	var sport model.Sport
	if p, err := s.storage.GetProfileByUser(ctx, coach.ID); err == nil {
		sport = p.Sport
	} else if !errors.Is(err, model.ErrProfileNotFound) {
		return nil, err
	}

	id, err := s.storage.NextID(ctx, storage.SeqTask)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	task := &model.Task{
		ID:               model.TaskID(id),
		Title:            in.Title,
		Description:      in.Description,
		AssignedBy:       coach.ID,
		Sport:            sport,
		Players:          players,
		DueDate:          in.DueDate,
		TimeLimitMinutes: in.TimeLimitMinutes,
		CreatedAt:        now,
	}

	for _, playerID := range players {
		cid, err := s.storage.NextID(ctx, storage.SeqCompletion)
		if err != nil {
			return nil, err
		}
		if err := s.storage.SaveCompletion(ctx, &model.Completion{
			ID:        model.CompletionID(cid),
			TaskID:    task.ID,
			PlayerID:  playerID,
			UpdatedAt: now,
		}); err != nil {
			return nil, err
		}
	}

	// Saved last so the task never appears without its completions
	if err := s.storage.SaveTask(ctx, task); err != nil {
		s.logger.Error("failed to save task",
			slog.Int64("task_id", int64(task.ID)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.metrics.RecordTaskCreated(string(sport), len(players))
	s.logger.Info("task created",
		slog.Int64("task_id", int64(task.ID)),
		slog.Int64("coach_id", int64(coach.ID)),
		slog.Int("player_count", len(players)),
	)
	s.publish(ctx, model.TaskEvent{
		Type:       model.EventTaskCreated,
		Timestamp:  now,
		TaskID:     task.ID,
		Recipients: append([]model.UserID{coach.ID}, players...),
	})

	return s.detail(ctx, task, newUserCache(s.storage))
}

// List returns every task newest first, optionally only those assigned by a username
func (s *Service) List(ctx context.Context, assignedBy string) ([]*TaskDetail, error) {
	tasks, err := s.storage.ListTasks(ctx)
	if err != nil {
		return nil, err
	}

	var coachID model.UserID
	if assignedBy != "" {
		coach, err := s.storage.GetUserByUsername(ctx, assignedBy)
		if err != nil {
			if errors.Is(err, model.ErrUserNotFound) {
				return []*TaskDetail{}, nil
			}
			return nil, err
		}
		coachID = coach.ID
	}

	return s.details(ctx, tasks, func(t *model.Task) bool {
		return assignedBy == "" || t.AssignedBy == coachID
	})
}

// ListForPlayer returns the tasks a player is assigned to, newest first
func (s *Service) ListForPlayer(ctx context.Context, playerID model.UserID) ([]*TaskDetail, error) {
	tasks, err := s.storage.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	return s.details(ctx, tasks, func(t *model.Task) bool { return t.HasPlayer(playerID) })
}

// ParentDashboard resolves the parent's linked child and the child's tasks
func (s *Service) ParentDashboard(ctx context.Context, parentID model.UserID) (*ParentView, error) {
	if _, err := s.requireRole(ctx, parentID, model.RoleParent, model.ErrNotParent); err != nil {
		return nil, err
	}

	childID, err := s.storage.GetChildOf(ctx, parentID)
	if err != nil {
		return nil, err
	}

	cache := newUserCache(s.storage)
	child, err := cache.get(ctx, childID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, model.ErrNoLinkedChild
		}
		return nil, err
	}

	tasks, err := s.ListForPlayer(ctx, childID)
	if err != nil {
		return nil, err
	}
	return &ParentView{Child: child, Tasks: tasks}, nil
}

// Start records the player's start time on the server clock.
// Repeat calls, and calls after completion, return the record unchanged.
func (s *Service) Start(ctx context.Context, playerID model.UserID, taskID model.TaskID) (*CompletionDetail, error) {
	player, err := s.requireRole(ctx, playerID, model.RolePlayer, model.ErrNotPlayer)
	if err != nil {
		return nil, err
	}

	task, err := s.storage.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !task.HasPlayer(playerID) {
		return nil, model.ErrTaskNotFound
	}

	unlock := s.locks.Lock(taskID)
	defer unlock()

	if _, err := s.completionFor(ctx, task.ID, playerID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	c, changed, err := s.storage.UpdateCompletion(ctx, task.ID, playerID, func(c *model.Completion) bool {
		return c.Start(now)
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.metrics.RecordTaskStarted()
		s.logger.Info("task started",
			slog.Int64("task_id", int64(task.ID)),
			slog.Int64("player_id", int64(playerID)),
		)
		s.publish(ctx, model.TaskEvent{
			Type:       model.EventTaskStarted,
			Timestamp:  now,
			TaskID:     task.ID,
			PlayerID:   playerID,
			Recipients: []model.UserID{task.AssignedBy, playerID},
		})
	}

	return &CompletionDetail{Completion: c, PlayerUsername: player.Username}, nil
}

// MarkComplete marks a player's completion done. Only the assigning coach may do this.
// A nil notes pointer stores the default note. Repeat calls change nothing.
func (s *Service) MarkComplete(ctx context.Context, coachID model.UserID, taskID model.TaskID, playerID model.UserID, notes *string) (*CompletionDetail, error) {
	if _, err := s.requireRole(ctx, coachID, model.RoleCoach, model.ErrNotCoach); err != nil {
		return nil, err
	}

	task, err := s.storage.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.AssignedBy != coachID {
		return nil, model.ErrTaskNotFound
	}

	player, err := s.storage.GetUser(ctx, playerID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, model.ErrNotAssigned
		}
		return nil, err
	}
	if player.Role != model.RolePlayer || !task.HasPlayer(playerID) {
		return nil, model.ErrNotAssigned
	}

	unlock := s.locks.Lock(taskID)
	defer unlock()

	if _, err := s.completionFor(ctx, task.ID, playerID); err != nil {
		return nil, err
	}

	note := DefaultCompletionNotes
	if notes != nil {
		note = *notes
	}

	now := s.clock.Now()
	c, changed, err := s.storage.UpdateCompletion(ctx, task.ID, playerID, func(c *model.Completion) bool {
		return c.Complete(now, note)
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.metrics.RecordTaskCompleted()
		s.logger.Info("task completed",
			slog.Int64("task_id", int64(task.ID)),
			slog.Int64("player_id", int64(playerID)),
		)
		s.publish(ctx, model.TaskEvent{
			Type:       model.EventTaskCompleted,
			Timestamp:  now,
			TaskID:     task.ID,
			PlayerID:   playerID,
			Recipients: []model.UserID{coachID, playerID},
		})
	}

	return &CompletionDetail{Completion: c, PlayerUsername: player.Username}, nil
}

// completionFor loads the completion for an assigned player, creating it if a
// record is missing so every assignee always has exactly one
func (s *Service) completionFor(ctx context.Context, taskID model.TaskID, playerID model.UserID) (*model.Completion, error) {
	c, err := s.storage.GetCompletion(ctx, taskID, playerID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, model.ErrCompletionNotFound) {
		return nil, err
	}

	id, err := s.storage.NextID(ctx, storage.SeqCompletion)
	if err != nil {
		return nil, err
	}
	c = &model.Completion{
		ID:        model.CompletionID(id),
		TaskID:    taskID,
		PlayerID:  playerID,
		UpdatedAt: s.clock.Now(),
	}
	if err := s.storage.SaveCompletion(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Warn("created missing completion",
		slog.Int64("task_id", int64(taskID)),
		slog.Int64("player_id", int64(playerID)),
	)
	return c, nil
}

func (s *Service) requireRole(ctx context.Context, id model.UserID, role model.Role, wrong error) (*model.User, error) {
	u, err := s.storage.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, wrong
		}
		return nil, err
	}
	if u.Role != role {
		return nil, wrong
	}
	return u, nil
}

func (s *Service) publish(ctx context.Context, event model.TaskEvent) {
	if s.publisher != nil {
		s.publisher.Publish(ctx, event)
	}
}

func (s *Service) details(ctx context.Context, tasks []*model.Task, keep func(*model.Task) bool) ([]*TaskDetail, error) {
	cache := newUserCache(s.storage)
	out := make([]*TaskDetail, 0, len(tasks))
	for _, t := range tasks {
		if !keep(t) {
			continue
		}
		d, err := s.detail(ctx, t, cache)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *Service) detail(ctx context.Context, task *model.Task, cache *userCache) (*TaskDetail, error) {
	d := &TaskDetail{Task: task}

	coach, err := cache.get(ctx, task.AssignedBy)
	if err != nil && !errors.Is(err, model.ErrUserNotFound) {
		return nil, err
	}
	d.AssignedBy = coach

	for _, id := range task.Players {
		p, err := cache.get(ctx, id)
		if err != nil {
			if errors.Is(err, model.ErrUserNotFound) {
				continue
			}
			return nil, err
		}
		d.Players = append(d.Players, p)
	}

	completions, err := s.storage.GetCompletionsForTask(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	for _, c := range completions {
		cd := &CompletionDetail{Completion: c}
		if p, err := cache.get(ctx, c.PlayerID); err == nil {
			cd.PlayerUsername = p.User.Username
		}
		d.Completions = append(d.Completions, cd)
	}

	return d, nil
}

func dedupe(ids []model.UserID) []model.UserID {
	seen := make(map[model.UserID]bool, len(ids))
	out := make([]model.UserID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// userCache memoises user lookups for the span of one request
type userCache struct {
	storage storage.Storage
	users   map[model.UserID]*model.UserDetail
}

func newUserCache(storage storage.Storage) *userCache {
	return &userCache{storage: storage, users: make(map[model.UserID]*model.UserDetail)}
}

func (c *userCache) get(ctx context.Context, id model.UserID) (*model.UserDetail, error) {
	if d, ok := c.users[id]; ok {
		return d, nil
	}
	u, err := c.storage.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	d := &model.UserDetail{User: u}
	if p, err := c.storage.GetProfileByUser(ctx, id); err == nil {
		d.Profile = p
	} else if !errors.Is(err, model.ErrProfileNotFound) {
		return nil, err
	}
	c.users[id] = d
	return d, nil
}
