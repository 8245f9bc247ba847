package memory

import (
	"context"
	"sync"

	"github.com/mcoot/s3arena/internal/model"
	"github.com/mcoot/s3arena/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	sequences map[storage.Sequence]int64

	users          map[model.UserID]*model.User
	usernameIndex  map[string]model.UserID
	playerCodes    map[string]model.UserID
	credentials    map[model.UserID]*model.Credentials
	profiles       map[model.UserID]*model.Profile
	parentToChild  map[model.UserID]model.UserID
	childToParent  map[model.UserID]model.UserID
	tasks          map[model.TaskID]*model.Task
	completions    map[completionKey]*model.Completion
	taskCompletion map[model.TaskID][]completionKey
}

type completionKey struct {
	taskID   model.TaskID
	playerID model.UserID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		sequences:      make(map[storage.Sequence]int64),
		users:          make(map[model.UserID]*model.User),
		usernameIndex:  make(map[string]model.UserID),
		playerCodes:    make(map[string]model.UserID),
		credentials:    make(map[model.UserID]*model.Credentials),
		profiles:       make(map[model.UserID]*model.Profile),
		parentToChild:  make(map[model.UserID]model.UserID),
		childToParent:  make(map[model.UserID]model.UserID),
		tasks:          make(map[model.TaskID]*model.Task),
		completions:    make(map[completionKey]*model.Completion),
		taskCompletion: make(map[model.TaskID][]completionKey),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) NextID(ctx context.Context, seq storage.Sequence) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequences[seq]++
	return s.sequences[seq], nil
}

// User operations

func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.usernameIndex[user.Username]; ok {
		return model.ErrUsernameExists
	}
	s.putUser(user)
	return nil
}

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.users[user.ID]; ok && old.Username != user.Username {
		if _, taken := s.usernameIndex[user.Username]; taken {
			return model.ErrUsernameExists
		}
		delete(s.usernameIndex, old.Username)
	}
	s.putUser(user)
	return nil
}

func (s *Storage) putUser(user *model.User) {
	s.users[user.ID] = user.Clone()
	s.usernameIndex[user.Username] = user.ID
	if user.PlayerCode != "" {
		s.playerCodes[user.PlayerCode] = user.ID
	}
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return user.Clone(), nil
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usernameIndex[username]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return s.users[id].Clone(), nil
}

func (s *Storage) GetUserByPlayerCode(ctx context.Context, code string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.playerCodes[code]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return s.users[id].Clone(), nil
}

func (s *Storage) ListUsers(ctx context.Context) ([]*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]*model.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u.Clone())
	}
	storage.SortUsersByID(users)
	return users, nil
}

func (s *Storage) DeleteUser(ctx context.Context, id model.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil
	}
	delete(s.users, id)
	if s.usernameIndex[user.Username] == id {
		delete(s.usernameIndex, user.Username)
	}
	if user.PlayerCode != "" {
		delete(s.playerCodes, user.PlayerCode)
	}
	delete(s.credentials, id)
	delete(s.profiles, id)
	return nil
}

// Credential operations

func (s *Storage) SaveCredentials(ctx context.Context, creds *model.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *creds
	s.credentials[creds.UserID] = &c
	return nil
}

func (s *Storage) GetCredentials(ctx context.Context, userID model.UserID) (*model.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	creds, ok := s.credentials[userID]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	c := *creds
	return &c, nil
}

// Profile operations

func (s *Storage) SaveProfile(ctx context.Context, profile *model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.UserID] = profile.Clone()
	return nil
}

func (s *Storage) GetProfileByUser(ctx context.Context, userID model.UserID) (*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, model.ErrProfileNotFound
	}
	return p.Clone(), nil
}

func (s *Storage) ListProfiles(ctx context.Context) ([]*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profiles := make([]*model.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		profiles = append(profiles, p.Clone())
	}
	storage.SortProfilesByID(profiles)
	return profiles, nil
}

// Parent link operations

func (s *Storage) CreateParentLink(ctx context.Context, link *model.ParentChildLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.childToParent[link.ChildID]; ok {
		return model.ErrChildLinked
	}
	s.parentToChild[link.ParentID] = link.ChildID
	s.childToParent[link.ChildID] = link.ParentID
	return nil
}

func (s *Storage) GetChildOf(ctx context.Context, parentID model.UserID) (model.UserID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	child, ok := s.parentToChild[parentID]
	if !ok {
		return 0, model.ErrNoLinkedChild
	}
	return child, nil
}

// Task operations

func (s *Storage) SaveTask(ctx context.Context, task *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = task.Clone()
	return nil
}

func (s *Storage) GetTask(ctx context.Context, id model.TaskID) (*model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, model.ErrTaskNotFound
	}
	return task.Clone(), nil
}

func (s *Storage) ListTasks(ctx context.Context) ([]*model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tasks := make([]*model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t.Clone())
	}
	storage.SortTasksNewestFirst(tasks)
	return tasks, nil
}

// Completion operations

func (s *Storage) SaveCompletion(ctx context.Context, c *model.Completion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := completionKey{taskID: c.TaskID, playerID: c.PlayerID}
	if _, ok := s.completions[key]; !ok {
		s.taskCompletion[c.TaskID] = append(s.taskCompletion[c.TaskID], key)
	}
	s.completions[key] = c.Clone()
	return nil
}

func (s *Storage) GetCompletion(ctx context.Context, taskID model.TaskID, playerID model.UserID) (*model.Completion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.completions[completionKey{taskID: taskID, playerID: playerID}]
	if !ok {
		return nil, model.ErrCompletionNotFound
	}
	return c.Clone(), nil
}

func (s *Storage) UpdateCompletion(ctx context.Context, taskID model.TaskID, playerID model.UserID, fn func(*model.Completion) bool) (*model.Completion, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := completionKey{taskID: taskID, playerID: playerID}
	stored, ok := s.completions[key]
	if !ok {
		return nil, false, model.ErrCompletionNotFound
	}
	c := stored.Clone()
	if !fn(c) {
		return c, false, nil
	}
	s.completions[key] = c.Clone()
	return c, true, nil
}

func (s *Storage) GetCompletionsForTask(ctx context.Context, taskID model.TaskID) ([]*model.Completion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := s.taskCompletion[taskID]
	out := make([]*model.Completion, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.completions[k].Clone())
	}
	storage.SortCompletionsByID(out)
	return out, nil
}
