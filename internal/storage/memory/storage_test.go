package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/s3arena/internal/model"
	"github.com/mcoot/s3arena/internal/storage"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

func (s *StorageSuite) TestNextIDIsPerSequence() {
	a, _ := s.storage.NextID(s.ctx, storage.SeqUser)
	b, _ := s.storage.NextID(s.ctx, storage.SeqUser)
	c, _ := s.storage.NextID(s.ctx, storage.SeqTask)

	s.Equal(int64(1), a)
	s.Equal(int64(2), b)
	s.Equal(int64(1), c)
}

// User tests

func (s *StorageSuite) TestCreateAndGetUser() {
	user := &model.User{ID: 1, Username: "alice", Role: model.RolePlayer, PlayerCode: "S3-0001"}
	s.Require().NoError(s.storage.CreateUser(s.ctx, user))

	byID, err := s.storage.GetUser(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal("alice", byID.Username)

	byName, err := s.storage.GetUserByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.UserID(1), byName.ID)

	byCode, err := s.storage.GetUserByPlayerCode(s.ctx, "S3-0001")
	s.Require().NoError(err)
	s.Equal(model.UserID(1), byCode.ID)
}

func (s *StorageSuite) TestCreateUserDuplicateUsername() {
	s.Require().NoError(s.storage.CreateUser(s.ctx, &model.User{ID: 1, Username: "alice"}))
	err := s.storage.CreateUser(s.ctx, &model.User{ID: 2, Username: "alice"})
	s.ErrorIs(err, model.ErrUsernameExists)
}

func (s *StorageSuite) TestGetUserNotFound() {
	_, err := s.storage.GetUser(s.ctx, 99)
	s.ErrorIs(err, model.ErrUserNotFound)

	_, err = s.storage.GetUserByPlayerCode(s.ctx, "S3-9999")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestReturnedUserIsACopy() {
	s.Require().NoError(s.storage.CreateUser(s.ctx, &model.User{ID: 1, Username: "alice"}))

	u, _ := s.storage.GetUser(s.ctx, 1)
	u.Photo = "changed.jpg"

	again, _ := s.storage.GetUser(s.ctx, 1)
	s.Empty(again.Photo)
}

func (s *StorageSuite) TestListUsersOrderedByID() {
	for _, u := range []*model.User{{ID: 3, Username: "c"}, {ID: 1, Username: "a"}, {ID: 2, Username: "b"}} {
		s.Require().NoError(s.storage.CreateUser(s.ctx, u))
	}

	users, err := s.storage.ListUsers(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(users, 3)
	s.Equal([]string{"a", "b", "c"}, []string{users[0].Username, users[1].Username, users[2].Username})
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

// Task tests

func (s *StorageSuite) TestListTasksNewestFirst() {
	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	s.Require().NoError(s.storage.SaveTask(s.ctx, &model.Task{ID: 1, Title: "old", CreatedAt: t0}))
	s.Require().NoError(s.storage.SaveTask(s.ctx, &model.Task{ID: 2, Title: "new", CreatedAt: t0.Add(time.Hour)}))

	tasks, err := s.storage.ListTasks(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(tasks, 2)
	s.Equal("new", tasks[0].Title)
	s.Equal("old", tasks[1].Title)
}

func (s *StorageSuite) TestGetTaskNotFound() {
	_, err := s.storage.GetTask(s.ctx, 42)
	s.ErrorIs(err, model.ErrTaskNotFound)
}

// Completion tests

func (s *StorageSuite) TestSaveCompletionOverwritesSameKey() {
	c := &model.Completion{ID: 1, TaskID: 1, PlayerID: 7}
	s.Require().NoError(s.storage.SaveCompletion(s.ctx, c))

	c.Completed = true
	s.Require().NoError(s.storage.SaveCompletion(s.ctx, c))

	all, err := s.storage.GetCompletionsForTask(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(all, 1)
	s.True(all[0].Completed)
}

func (s *StorageSuite) TestGetCompletionNotFound() {
	_, err := s.storage.GetCompletion(s.ctx, 1, 1)
	s.ErrorIs(err, model.ErrCompletionNotFound)
}

func (s *StorageSuite) TestUpdateCompletion() {
	s.Require().NoError(s.storage.SaveCompletion(s.ctx, &model.Completion{ID: 1, TaskID: 1, PlayerID: 7}))
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	c, changed, err := s.storage.UpdateCompletion(s.ctx, 1, 7, func(c *model.Completion) bool { return c.Start(now) })
	s.Require().NoError(err)
	s.True(changed)
	s.Require().NotNil(c.StartedAt)

	_, changed, err = s.storage.UpdateCompletion(s.ctx, 1, 7, func(c *model.Completion) bool { return c.Start(now.Add(time.Minute)) })
	s.Require().NoError(err)
	s.False(changed)

	stored, err := s.storage.GetCompletion(s.ctx, 1, 7)
	s.Require().NoError(err)
	s.True(now.Equal(*stored.StartedAt))

	_, _, err = s.storage.UpdateCompletion(s.ctx, 1, 8, func(c *model.Completion) bool { return true })
	s.ErrorIs(err, model.ErrCompletionNotFound)
}

func (s *StorageSuite) TestDeleteUser() {
	s.Require().NoError(s.storage.CreateUser(s.ctx, &model.User{ID: 1, Username: "alice", PlayerCode: "S3-0001"}))
	s.Require().NoError(s.storage.SaveCredentials(s.ctx, &model.Credentials{UserID: 1, PasswordHash: "x"}))
	s.Require().NoError(s.storage.SaveProfile(s.ctx, &model.Profile{ID: 1, UserID: 1}))

	s.Require().NoError(s.storage.DeleteUser(s.ctx, 1))

	_, err := s.storage.GetUser(s.ctx, 1)
	s.ErrorIs(err, model.ErrUserNotFound)
	_, err = s.storage.GetUserByPlayerCode(s.ctx, "S3-0001")
	s.ErrorIs(err, model.ErrPlayerNotFound)
	_, err = s.storage.GetCredentials(s.ctx, 1)
	s.ErrorIs(err, model.ErrUserNotFound)
	_, err = s.storage.GetProfileByUser(s.ctx, 1)
	s.ErrorIs(err, model.ErrProfileNotFound)

	// The username is free again
	s.NoError(s.storage.CreateUser(s.ctx, &model.User{ID: 2, Username: "alice"}))
	s.NoError(s.storage.DeleteUser(s.ctx, 99))
}
