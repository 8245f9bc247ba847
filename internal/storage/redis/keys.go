package redis

import (
	"fmt"

	"github.com/mcoot/s3arena/internal/model"
	"github.com/mcoot/s3arena/internal/storage"
)

// Key prefix for all academy data
const keyPrefix = "s3arena"

// sequenceKey returns the Redis key for an id counter
func sequenceKey(seq storage.Sequence) string {
	return fmt.Sprintf("%s:seq:%s", keyPrefix, seq)
}

// userKey returns the Redis key for a User
func userKey(id model.UserID) string {
	return fmt.Sprintf("%s:user:%d", keyPrefix, id)
}

// usersIndexKey returns the Redis key for the SET of all user keys
func usersIndexKey() string {
	return fmt.Sprintf("%s:idx:users", keyPrefix)
}

// usernameIndexKey returns the Redis key for the username -> user id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

// playerCodeIndexKey returns the Redis key for the player code -> user id index
func playerCodeIndexKey(code string) string {
	return fmt.Sprintf("%s:idx:player_code:%s", keyPrefix, code)
}

// credentialsKey returns the Redis key for a user's Credentials
func credentialsKey(id model.UserID) string {
	return fmt.Sprintf("%s:credentials:%d", keyPrefix, id)
}

// profileKey returns the Redis key for a user's Profile
func profileKey(userID model.UserID) string {
	return fmt.Sprintf("%s:profile:%d", keyPrefix, userID)
}

// profilesIndexKey returns the Redis key for the SET of all profile keys
func profilesIndexKey() string {
	return fmt.Sprintf("%s:idx:profiles", keyPrefix)
}

// parentChildKey returns the Redis key for parent -> child
func parentChildKey(parentID model.UserID) string {
	return fmt.Sprintf("%s:parent_child:%d", keyPrefix, parentID)
}

// childParentKey returns the Redis key for child -> parent
func childParentKey(childID model.UserID) string {
	return fmt.Sprintf("%s:child_parent:%d", keyPrefix, childID)
}

// taskKey returns the Redis key for a Task
func taskKey(id model.TaskID) string {
	return fmt.Sprintf("%s:task:%d", keyPrefix, id)
}

// tasksIndexKey returns the Redis key for the SET of all task keys
func tasksIndexKey() string {
	return fmt.Sprintf("%s:idx:tasks", keyPrefix)
}

// completionKey returns the Redis key for a Completion
func completionKey(taskID model.TaskID, playerID model.UserID) string {
	return fmt.Sprintf("%s:completion:%d:%d", keyPrefix, taskID, playerID)
}

// completionsForTaskIndexKey returns the Redis key for the SET of completions of a task
func completionsForTaskIndexKey(taskID model.TaskID) string {
	return fmt.Sprintf("%s:idx:completions_for_task:%d", keyPrefix, taskID)
}
