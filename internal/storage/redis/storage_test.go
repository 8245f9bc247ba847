package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/s3arena/internal/model"
	"github.com/mcoot/s3arena/internal/storage"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	s.storage = NewWithClient(client, DefaultConfig())
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) TestNextIDUsesCounterKey() {
	id, err := s.storage.NextID(s.ctx, storage.SeqTask)
	s.Require().NoError(err)
	s.Equal(int64(1), id)

	id, _ = s.storage.NextID(s.ctx, storage.SeqTask)
	s.Equal(int64(2), id)

	val, err := s.mini.Get(sequenceKey(storage.SeqTask))
	s.Require().NoError(err)
	s.Equal("2", val)
}

// User tests

func (s *StorageSuite) TestCreateAndGetUser() {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	user := &model.User{
		ID:              1,
		Username:        "alice",
		Email:           "alice@example.com",
		Role:            model.RolePlayer,
		PlayerCode:      "S3-0001",
		MembershipStart: &start,
	}
	s.Require().NoError(s.storage.CreateUser(s.ctx, user))

	got, err := s.storage.GetUser(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal("alice@example.com", got.Email)
	s.Require().NotNil(got.MembershipStart)
	s.True(start.Equal(*got.MembershipStart))

	byName, err := s.storage.GetUserByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.UserID(1), byName.ID)

	byCode, err := s.storage.GetUserByPlayerCode(s.ctx, "S3-0001")
	s.Require().NoError(err)
	s.Equal(model.UserID(1), byCode.ID)

	s.True(s.mini.Exists(userKey(1)))
	s.True(s.mini.Exists(usernameIndexKey("alice")))
}

func (s *StorageSuite) TestCreateUserDuplicateUsername() {
	s.Require().NoError(s.storage.CreateUser(s.ctx, &model.User{ID: 1, Username: "alice"}))
	err := s.storage.CreateUser(s.ctx, &model.User{ID: 2, Username: "alice"})
	s.ErrorIs(err, model.ErrUsernameExists)

	_, err = s.storage.GetUser(s.ctx, 2)
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *StorageSuite) TestSaveUserUpdatesFields() {
	s.Require().NoError(s.storage.CreateUser(s.ctx, &model.User{ID: 1, Username: "alice"}))
	s.Require().NoError(s.storage.SaveUser(s.ctx, &model.User{ID: 1, Username: "alice", Photo: "profile_photos/a.jpg"}))

	got, err := s.storage.GetUser(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal("profile_photos/a.jpg", got.Photo)
}

func (s *StorageSuite) TestListUsers() {
	s.Require().NoError(s.storage.CreateUser(s.ctx, &model.User{ID: 2, Username: "bob"}))
	s.Require().NoError(s.storage.CreateUser(s.ctx, &model.User{ID: 1, Username: "alice"}))

	users, err := s.storage.ListUsers(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(users, 2)
	s.Equal("alice", users[0].Username)
	s.Equal("bob", users[1].Username)
}

func (s *StorageSuite) TestListUsersEmpty() {
	users, err := s.storage.ListUsers(s.ctx)
	s.Require().NoError(err)
	s.Empty(users)
}

// Credential and profile tests

func (s *StorageSuite) TestCredentials() {
	s.Require().NoError(s.storage.SaveCredentials(s.ctx, &model.Credentials{UserID: 1, PasswordHash: "hash"}))

	creds, err := s.storage.GetCredentials(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal("hash", creds.PasswordHash)

	_, err = s.storage.GetCredentials(s.ctx, 2)
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *StorageSuite) TestProfiles() {
	s.Require().NoError(s.storage.SaveProfile(s.ctx, &model.Profile{ID: 2, UserID: 20, Sport: model.SportCricket}))
	s.Require().NoError(s.storage.SaveProfile(s.ctx, &model.Profile{ID: 1, UserID: 10, Sport: model.SportFootball}))

	p, err := s.storage.GetProfileByUser(s.ctx, 10)
	s.Require().NoError(err)
	s.Equal(model.SportFootball, p.Sport)

	all, err := s.storage.ListProfiles(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(int64(1), all[0].ID)

	_, err = s.storage.GetProfileByUser(s.ctx, 99)
	s.ErrorIs(err, model.ErrProfileNotFound)
}

// Parent link tests

func (s *StorageSuite) TestParentLink() {
	s.Require().NoError(s.storage.CreateParentLink(s.ctx, &model.ParentChildLink{ParentID: 5, ChildID: 1}))

	child, err := s.storage.GetChildOf(s.ctx, 5)
	s.Require().NoError(err)
	s.Equal(model.UserID(1), child)

	err = s.storage.CreateParentLink(s.ctx, &model.ParentChildLink{ParentID: 6, ChildID: 1})
	s.ErrorIs(err, model.ErrChildLinked)

	_, err = s.storage.GetChildOf(s.ctx, 6)
	s.ErrorIs(err, model.ErrNoLinkedChild)
}

// Task and completion tests

func (s *StorageSuite) TestSaveAndGetTask() {
	limit := 20
	task := &model.Task{
		ID:               1,
		Title:            "Serve Drill",
		AssignedBy:       3,
		Sport:            model.SportTennis,
		Players:          []model.UserID{1, 2},
		TimeLimitMinutes: &limit,
		CreatedAt:        time.Now().UTC(),
	}
	s.Require().NoError(s.storage.SaveTask(s.ctx, task))

	got, err := s.storage.GetTask(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal("Serve Drill", got.Title)
	s.Equal([]model.UserID{1, 2}, got.Players)
	s.Require().NotNil(got.TimeLimitMinutes)
	s.Equal(20, *got.TimeLimitMinutes)
}

func (s *StorageSuite) TestListTasksNewestFirst() {
	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	s.Require().NoError(s.storage.SaveTask(s.ctx, &model.Task{ID: 1, Title: "old", CreatedAt: t0}))
	s.Require().NoError(s.storage.SaveTask(s.ctx, &model.Task{ID: 2, Title: "new", CreatedAt: t0.Add(time.Minute)}))

	tasks, err := s.storage.ListTasks(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(tasks, 2)
	s.Equal("new", tasks[0].Title)
}

func (s *StorageSuite) TestCompletionsForTask() {
	s.Require().NoError(s.storage.SaveCompletion(s.ctx, &model.Completion{ID: 2, TaskID: 1, PlayerID: 8}))
	s.Require().NoError(s.storage.SaveCompletion(s.ctx, &model.Completion{ID: 1, TaskID: 1, PlayerID: 7}))
	s.Require().NoError(s.storage.SaveCompletion(s.ctx, &model.Completion{ID: 3, TaskID: 2, PlayerID: 7}))

	cs, err := s.storage.GetCompletionsForTask(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(cs, 2)
	s.Equal(model.UserID(7), cs[0].PlayerID)
	s.Equal(model.UserID(8), cs[1].PlayerID)

	one, err := s.storage.GetCompletion(s.ctx, 2, 7)
	s.Require().NoError(err)
	s.Equal(model.CompletionID(3), one.ID)

	_, err = s.storage.GetCompletion(s.ctx, 2, 8)
	s.ErrorIs(err, model.ErrCompletionNotFound)
}

func (s *StorageSuite) TestUpdateCompletionConcurrentStarts() {
	s.Require().NoError(s.storage.SaveCompletion(s.ctx, &model.Completion{ID: 1, TaskID: 1, PlayerID: 7}))
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		changes int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			at := base.Add(time.Duration(i) * time.Second)
			_, changed, err := s.storage.UpdateCompletion(s.ctx, 1, 7, func(c *model.Completion) bool { return c.Start(at) })
			s.NoError(err)
			if changed {
				mu.Lock()
				changes++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	s.Equal(1, changes)
	stored, err := s.storage.GetCompletion(s.ctx, 1, 7)
	s.Require().NoError(err)
	s.NotNil(stored.StartedAt)

	_, _, err = s.storage.UpdateCompletion(s.ctx, 1, 8, func(c *model.Completion) bool { return true })
	s.ErrorIs(err, model.ErrCompletionNotFound)
}

func (s *StorageSuite) TestDeleteUser() {
	s.Require().NoError(s.storage.CreateUser(s.ctx, &model.User{ID: 1, Username: "alice", PlayerCode: "S3-0001"}))
	s.Require().NoError(s.storage.SaveCredentials(s.ctx, &model.Credentials{UserID: 1, PasswordHash: "x"}))
	s.Require().NoError(s.storage.SaveProfile(s.ctx, &model.Profile{ID: 1, UserID: 1}))

	s.Require().NoError(s.storage.DeleteUser(s.ctx, 1))

	s.False(s.mini.Exists(userKey(1)))
	s.False(s.mini.Exists(usernameIndexKey("alice")))
	s.False(s.mini.Exists(playerCodeIndexKey("S3-0001")))
	s.False(s.mini.Exists(credentialsKey(1)))
	s.False(s.mini.Exists(profileKey(1)))

	users, err := s.storage.ListUsers(s.ctx)
	s.Require().NoError(err)
	s.Empty(users)
	profiles, err := s.storage.ListProfiles(s.ctx)
	s.Require().NoError(err)
	s.Empty(profiles)

	s.NoError(s.storage.DeleteUser(s.ctx, 99))
}
