package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/s3arena/internal/model"
	"github.com/mcoot/s3arena/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) NextID(ctx context.Context, seq storage.Sequence) (int64, error) {
	return s.client.Incr(ctx, sequenceKey(seq)).Result()
}

// getJSON loads a JSON value, mapping a missing key to notFound
func getJSON[T any](ctx context.Context, c *redis.Client, key string, notFound error) (*T, error) {
	data, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, notFound
		}
		return nil, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// listJSON loads every value whose key is in the given index set
func listJSON[T any](ctx context.Context, c *redis.Client, indexKey string) ([]*T, error) {
	keys, err := c.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []*T{}, nil
	}

	values, err := c.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]*T, 0, len(values))
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue
		}
		var v T
		if err := json.Unmarshal([]byte(str), &v); err != nil {
			continue // Skip invalid data
		}
		out = append(out, &v)
	}
	return out, nil
}

// User operations

func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	// Claim the username first so concurrent registrations cannot both win
	ok, err := s.client.SetNX(ctx, usernameIndexKey(user.Username), int64(user.ID), 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrUsernameExists
	}
	return s.writeUser(ctx, user)
}

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	old, err := s.GetUser(ctx, user.ID)
	if err != nil && !errors.Is(err, model.ErrUserNotFound) {
		return err
	}
	if old != nil && old.Username != user.Username {
		ok, err := s.client.SetNX(ctx, usernameIndexKey(user.Username), int64(user.ID), 0).Result()
		if err != nil {
			return err
		}
		if !ok {
			return model.ErrUsernameExists
		}
		if err := s.client.Del(ctx, usernameIndexKey(old.Username)).Err(); err != nil {
			return err
		}
	}
	return s.writeUser(ctx, user)
}

func (s *Storage) writeUser(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	key := userKey(user.ID)
	pipe := s.client.Pipeline()
	pipe.Set(ctx, key, data, 0)
	pipe.SAdd(ctx, usersIndexKey(), key)
	pipe.Set(ctx, usernameIndexKey(user.Username), int64(user.ID), 0)
	if user.PlayerCode != "" {
		pipe.Set(ctx, playerCodeIndexKey(user.PlayerCode), int64(user.ID), 0)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	return getJSON[model.User](ctx, s.client, userKey(id), model.ErrUserNotFound)
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	id, err := s.lookupID(ctx, usernameIndexKey(username), model.ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	return s.GetUser(ctx, model.UserID(id))
}

func (s *Storage) GetUserByPlayerCode(ctx context.Context, code string) (*model.User, error) {
	id, err := s.lookupID(ctx, playerCodeIndexKey(code), model.ErrPlayerNotFound)
	if err != nil {
		return nil, err
	}
	user, err := s.GetUser(ctx, model.UserID(id))
	if errors.Is(err, model.ErrUserNotFound) {
		return nil, model.ErrPlayerNotFound
	}
	return user, err
}

func (s *Storage) lookupID(ctx context.Context, key string, notFound error) (int64, error) {
	str, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, notFound
		}
		return 0, err
	}
	return strconv.ParseInt(str, 10, 64)
}

func (s *Storage) ListUsers(ctx context.Context) ([]*model.User, error) {
	users, err := listJSON[model.User](ctx, s.client, usersIndexKey())
	if err != nil {
		return nil, err
	}
	storage.SortUsersByID(users)
	return users, nil
}

func (s *Storage) DeleteUser(ctx context.Context, id model.UserID) error {
	user, err := s.GetUser(ctx, id)
	if errors.Is(err, model.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	key := userKey(id)
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key, usernameIndexKey(user.Username), credentialsKey(id), profileKey(id))
	if user.PlayerCode != "" {
		pipe.Del(ctx, playerCodeIndexKey(user.PlayerCode))
	}
	pipe.SRem(ctx, usersIndexKey(), key)
	pipe.SRem(ctx, profilesIndexKey(), profileKey(id))
	_, err = pipe.Exec(ctx)
	return err
}

// Credential operations

func (s *Storage) SaveCredentials(ctx context.Context, creds *model.Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, credentialsKey(creds.UserID), data, 0).Err()
}

func (s *Storage) GetCredentials(ctx context.Context, userID model.UserID) (*model.Credentials, error) {
	return getJSON[model.Credentials](ctx, s.client, credentialsKey(userID), model.ErrUserNotFound)
}

// Profile operations

func (s *Storage) SaveProfile(ctx context.Context, profile *model.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}

	key := profileKey(profile.UserID)
	pipe := s.client.Pipeline()
	pipe.Set(ctx, key, data, 0)
	pipe.SAdd(ctx, profilesIndexKey(), key)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetProfileByUser(ctx context.Context, userID model.UserID) (*model.Profile, error) {
	return getJSON[model.Profile](ctx, s.client, profileKey(userID), model.ErrProfileNotFound)
}

func (s *Storage) ListProfiles(ctx context.Context) ([]*model.Profile, error) {
	profiles, err := listJSON[model.Profile](ctx, s.client, profilesIndexKey())
	if err != nil {
		return nil, err
	}
	storage.SortProfilesByID(profiles)
	return profiles, nil
}

// Parent link operations

func (s *Storage) CreateParentLink(ctx context.Context, link *model.ParentChildLink) error {
	ok, err := s.client.SetNX(ctx, childParentKey(link.ChildID), int64(link.ParentID), 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrChildLinked
	}
	return s.client.Set(ctx, parentChildKey(link.ParentID), int64(link.ChildID), 0).Err()
}

func (s *Storage) GetChildOf(ctx context.Context, parentID model.UserID) (model.UserID, error) {
	id, err := s.lookupID(ctx, parentChildKey(parentID), model.ErrNoLinkedChild)
	if err != nil {
		return 0, err
	}
	return model.UserID(id), nil
}

// Task operations

func (s *Storage) SaveTask(ctx context.Context, task *model.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}

	key := taskKey(task.ID)
	pipe := s.client.Pipeline()
	pipe.Set(ctx, key, data, 0)
	pipe.SAdd(ctx, tasksIndexKey(), key)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetTask(ctx context.Context, id model.TaskID) (*model.Task, error) {
	return getJSON[model.Task](ctx, s.client, taskKey(id), model.ErrTaskNotFound)
}

func (s *Storage) ListTasks(ctx context.Context) ([]*model.Task, error) {
	tasks, err := listJSON[model.Task](ctx, s.client, tasksIndexKey())
	if err != nil {
		return nil, err
	}
	storage.SortTasksNewestFirst(tasks)
	return tasks, nil
}

// Completion operations

func (s *Storage) SaveCompletion(ctx context.Context, c *model.Completion) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}

	key := completionKey(c.TaskID, c.PlayerID)
	pipe := s.client.Pipeline()
	pipe.Set(ctx, key, data, 0)
	pipe.SAdd(ctx, completionsForTaskIndexKey(c.TaskID), key)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetCompletion(ctx context.Context, taskID model.TaskID, playerID model.UserID) (*model.Completion, error) {
	return getJSON[model.Completion](ctx, s.client, completionKey(taskID, playerID), model.ErrCompletionNotFound)
}

// maxTxRetries bounds optimistic transaction retries under contention
const maxTxRetries = 10

func (s *Storage) UpdateCompletion(ctx context.Context, taskID model.TaskID, playerID model.UserID, fn func(*model.Completion) bool) (*model.Completion, bool, error) {
	key := completionKey(taskID, playerID)

	var (
		c       *model.Completion
		changed bool
	)
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return model.ErrCompletionNotFound
		}
		if err != nil {
			return err
		}
		c = &model.Completion{}
		if err := json.Unmarshal(data, c); err != nil {
			return err
		}
		changed = fn(c)
		if !changed {
			return nil
		}
		next, err := json.Marshal(c)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, false, err
		}
		return c, changed, nil
	}
	return nil, false, fmt.Errorf("update completion %d/%d: %w", taskID, playerID, redis.TxFailedErr)
}

func (s *Storage) GetCompletionsForTask(ctx context.Context, taskID model.TaskID) ([]*model.Completion, error) {
	cs, err := listJSON[model.Completion](ctx, s.client, completionsForTaskIndexKey(taskID))
	if err != nil {
		return nil, err
	}
	storage.SortCompletionsByID(cs)
	return cs, nil
}
