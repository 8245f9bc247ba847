// Package session holds the credentials and identity of a signed-in client.
// A Session is an explicit value; components receive it as an argument
// rather than reading shared state.
package session

import (
	"errors"
	"fmt"
)

// ErrNoSession is returned by Store.Load when nobody is signed in
var ErrNoSession = errors.New("not logged in")

// Role is the closed set of account kinds a session can carry
type Role string

const (
	RoleManagement Role = "management"
	RoleCoach      Role = "coach"
	RolePlayer     Role = "player"
	RoleParent     Role = "parent"
)

// Roles lists every role
var Roles = []Role{RoleManagement, RoleCoach, RolePlayer, RoleParent}

// ParseRole converts a wire value into a Role
func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Session is what the client remembers between invocations
type Session struct {
	Access   string `json:"access"`
	Refresh  string `json:"refresh"`
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	PhotoURL string `json:"photoUrl"`
}

// Authenticated reports whether the session carries an access token
func (s *Session) Authenticated() bool {
	return s != nil && s.Access != ""
}

// Store persists a single session
type Store interface {
	Load() (*Session, error)
	Save(*Session) error
	Clear() error
}
