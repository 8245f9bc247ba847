package model

import (
	"errors"
	"fmt"
)

// Common errors used across the application
var (
	// User errors
	ErrUserNotFound    = errors.New("user not found")
	ErrUsernameExists  = errors.New("username already exists")
	ErrInvalidRole     = errors.New("invalid role")
	ErrInvalidSport    = errors.New("invalid sport")
	ErrPlayerNotFound  = errors.New("no active player found with this id")
	ErrProfileNotFound = errors.New("profile not found")

	// Parent errors
	ErrNotParent     = errors.New("not a parent account")
	ErrNoLinkedChild = errors.New("no child linked to this parent account")
	ErrChildLinked   = errors.New("player already linked to a parent")

	// Task errors
	ErrTaskNotFound       = errors.New("task not found")
	ErrCompletionNotFound = errors.New("completion not found")
	ErrNotCoach           = errors.New("only coaches can perform this action")
	ErrNotPlayer          = errors.New("only players can start tasks")
	ErrNotAssigned        = errors.New("player is not assigned to this task")
	ErrNoPlayers          = errors.New("task needs at least one player")

	// Access errors
	ErrForbidden = errors.New("not allowed")
)

// InvalidPlayerError reports a task assignee that is not an existing player
type InvalidPlayerError struct {
	ID UserID
}

func (e *InvalidPlayerError) Error() string {
	return fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", e.ID)
}
