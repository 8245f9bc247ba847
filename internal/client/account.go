package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/mcoot/s3arena/internal/session"
)

// ErrUserNotListed is returned when a login succeeds but the account is
// missing from the user listing
var ErrUserNotListed = errors.New("could not find user details after login")

// Profile is the sport summary nested in a user
type Profile struct {
	Sport *string `json:"sport"`
}

// User is an academy account as the API reports it
type User struct {
	ID                  int64    `json:"id"`
	Username            string   `json:"username"`
	Email               string   `json:"email"`
	Role                string   `json:"role"`
	Profile             *Profile `json:"profile"`
	PlayerID            *string  `json:"player_id"`
	Photo               *string  `json:"photo"`
	MembershipStartDate *string  `json:"membership_start_date"`
	MembershipEndDate   *string  `json:"membership_end_date"`
}

// Sport returns the user's sport, or "" when none is set
func (u *User) Sport() string {
	if u == nil || u.Profile == nil || u.Profile.Sport == nil {
		return ""
	}
	return *u.Profile.Sport
}

// SportProfile is a profile listing entry with its nested user
type SportProfile struct {
	ID    int64   `json:"id"`
	User  User    `json:"user"`
	Sport *string `json:"sport"`
}

// TokenPair holds issued credentials
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Registration is a new player, coach or management account
type Registration struct {
	Username string
	Email    string
	Password string
	Role     session.Role
	Sport    string
}

// ParentRegistration is a new parent account linked to a player
type ParentRegistration struct {
	Username      string
	Email         string
	Password      string
	ChildPlayerID string
}

// UserUpdate holds the editable fields of a user; nil fields are left alone
type UserUpdate struct {
	Email               *string `json:"email,omitempty"`
	MembershipStartDate *string `json:"membership_start_date,omitempty"`
	MembershipEndDate   *string `json:"membership_end_date,omitempty"`
}

// Login exchanges credentials for tokens, then looks the account up in the
// user listing to fill in the rest of the session. The client adopts the
// returned session.
func (c *Client) Login(ctx context.Context, username, password string) (*session.Session, error) {
	var pair TokenPair
	body := map[string]string{"username": username, "password": password}
	if err := c.Post(ctx, "/auth/token/", body, &pair); err != nil {
		return nil, err
	}

	sess := &session.Session{Access: pair.Access, Refresh: pair.Refresh, Username: username}
	c.SetSession(sess)

	me, err := c.Me(ctx)
	if err != nil {
		c.SetSession(nil)
		return nil, err
	}

	role, err := session.ParseRole(me.Role)
	if err != nil {
		c.SetSession(nil)
		return nil, err
	}
	sess.UserID = me.ID
	sess.Role = role
	if me.Photo != nil {
		sess.PhotoURL = *me.Photo
	}
	return sess, nil
}

// RefreshAccess exchanges the session's refresh token for a new access token
// and returns the updated session
func (c *Client) RefreshAccess(ctx context.Context) (*session.Session, error) {
	current := c.Session()
	if current == nil || current.Refresh == "" {
		return nil, session.ErrNoSession
	}

	var out struct {
		Access string `json:"access"`
	}
	if err := c.Post(ctx, "/auth/token/refresh/", map[string]string{"refresh": current.Refresh}, &out); err != nil {
		return nil, err
	}

	next := *current
	next.Access = out.Access
	c.SetSession(&next)
	return &next, nil
}

// Register creates a player, coach or management account
func (c *Client) Register(ctx context.Context, r Registration) (*User, error) {
	body := map[string]any{
		"username": r.Username,
		"email":    r.Email,
		"password": r.Password,
		"role":     r.Role,
	}
	if r.Sport != "" {
		body["profile"] = map[string]string{"sport": r.Sport}
	}
	var u User
	if err := c.Post(ctx, "/auth/register/", body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// RegisterParent creates a parent account linked to the given player id
func (c *Client) RegisterParent(ctx context.Context, r ParentRegistration) (*User, error) {
	body := map[string]string{
		"username":        r.Username,
		"email":           r.Email,
		"password":        r.Password,
		"child_player_id": r.ChildPlayerID,
	}
	var u User
	if err := c.Post(ctx, "/auth/register/parent/", body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Users lists accounts, optionally only those with the given sport
func (c *Client) Users(ctx context.Context, sport string) ([]User, error) {
	path := "/users/"
	if sport != "" {
		path += "?sport=" + sport
	}
	var users []User
	if err := c.Get(ctx, path, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// User fetches one account
func (c *Client) User(ctx context.Context, id int64) (*User, error) {
	var u User
	if err := c.Get(ctx, fmt.Sprintf("/users/%d/", id), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Me finds the session's own account by username in the user listing
func (c *Client) Me(ctx context.Context) (*User, error) {
	sess := c.Session()
	if sess == nil {
		return nil, session.ErrNoSession
	}
	users, err := c.Users(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Username == sess.Username {
			return &users[i], nil
		}
	}
	return nil, ErrUserNotListed
}

// Profiles lists sport profiles with their users
func (c *Client) Profiles(ctx context.Context) ([]SportProfile, error) {
	var profiles []SportProfile
	if err := c.Get(ctx, "/profiles/", &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// UpdateUser patches editable fields of an account
func (c *Client) UpdateUser(ctx context.Context, id int64, update UserUpdate) (*User, error) {
	var u User
	if err := c.Patch(ctx, fmt.Sprintf("/users/%d/", id), update, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UploadPhoto replaces an account's profile photo
func (c *Client) UploadPhoto(ctx context.Context, id int64, filename string, content io.Reader) (*User, error) {
	body, err := NewMultipart(nil, &FilePart{Field: "photo", Filename: filename, Content: content})
	if err != nil {
		return nil, err
	}
	var u User
	if err := c.Call(ctx, http.MethodPatch, fmt.Sprintf("/users/%d/", id), body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Health checks that the API is up
func (c *Client) Health(ctx context.Context) (string, error) {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.Get(ctx, "/health", &out); err != nil {
		return "", err
	}
	return out.Status, nil
}
