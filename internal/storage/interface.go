package storage

import (
	"context"

	"github.com/mcoot/s3arena/internal/model"
)

// Sequence names an id counter
type Sequence string

const (
	SeqUser       Sequence = "user"
	SeqProfile    Sequence = "profile"
	SeqTask       Sequence = "task"
	SeqCompletion Sequence = "completion"
)

// Storage defines the interface for data persistence.
// Implementations return copies; callers save changes explicitly.
type Storage interface {
	// NextID returns the next value of a sequence, starting at 1
	NextID(ctx context.Context, seq Sequence) (int64, error)

	// User operations
	// CreateUser fails with model.ErrUsernameExists if the username is taken
	CreateUser(ctx context.Context, user *model.User) error
	SaveUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id model.UserID) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByPlayerCode(ctx context.Context, code string) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
	// DeleteUser removes a user with its indexes, credentials and profile.
	// Deleting a missing user is not an error.
	DeleteUser(ctx context.Context, id model.UserID) error

	// Credential operations
	SaveCredentials(ctx context.Context, creds *model.Credentials) error
	GetCredentials(ctx context.Context, userID model.UserID) (*model.Credentials, error)

	// Profile operations
	SaveProfile(ctx context.Context, profile *model.Profile) error
	GetProfileByUser(ctx context.Context, userID model.UserID) (*model.Profile, error)
	ListProfiles(ctx context.Context) ([]*model.Profile, error)

	// Parent link operations
	// CreateParentLink fails with model.ErrChildLinked if the child already has a parent
	CreateParentLink(ctx context.Context, link *model.ParentChildLink) error
	GetChildOf(ctx context.Context, parentID model.UserID) (model.UserID, error)

	// Task operations
	SaveTask(ctx context.Context, task *model.Task) error
	GetTask(ctx context.Context, id model.TaskID) (*model.Task, error)
	// ListTasks returns every task, newest first
	ListTasks(ctx context.Context) ([]*model.Task, error)

	// Completion operations
	SaveCompletion(ctx context.Context, c *model.Completion) error
	GetCompletion(ctx context.Context, taskID model.TaskID, playerID model.UserID) (*model.Completion, error)
	// UpdateCompletion applies fn to the stored completion and saves it when fn
	// reports a change. No other update of the same completion, from this
	// process or another, can interleave between the read and the write.
	UpdateCompletion(ctx context.Context, taskID model.TaskID, playerID model.UserID, fn func(*model.Completion) bool) (*model.Completion, bool, error)
	// GetCompletionsForTask returns the task's completions ordered by id
	GetCompletionsForTask(ctx context.Context, taskID model.TaskID) ([]*model.Completion, error)
}
