package model

import (
	"fmt"
	"time"
)

// UserID uniquely identifies a user account
type UserID int64

// Role is the closed set of account kinds
type Role string

const (
	RoleManagement Role = "management"
	RoleCoach      Role = "coach"
	RolePlayer     Role = "player"
	RoleParent     Role = "parent"
)

// Roles lists every valid role
var Roles = []Role{RoleManagement, RoleCoach, RolePlayer, RoleParent}

// ParseRole validates a role string
func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// Sport is one of the disciplines offered by the academy
type Sport string

const (
	SportTableTennis Sport = "table_tennis"
	SportFootball    Sport = "football"
	SportAthletics   Sport = "athletics"
	SportCricket     Sport = "cricket"
	SportBadminton   Sport = "badminton"
	SportBasketball  Sport = "basketball"
	SportSwimming    Sport = "swimming"
	SportBoxing      Sport = "boxing"
	SportWrestling   Sport = "wrestling"
	SportTennis      Sport = "tennis"
	SportHockey      Sport = "hockey"
	SportCycling     Sport = "cycling"
)

// Sports lists every valid sport in display order
var Sports = []Sport{
	SportTableTennis, SportFootball, SportAthletics, SportCricket,
	SportBadminton, SportBasketball, SportSwimming, SportBoxing,
	SportWrestling, SportTennis, SportHockey, SportCycling,
}

// Valid reports whether s is a known sport
func (s Sport) Valid() bool {
	for _, sp := range Sports {
		if sp == s {
			return true
		}
	}
	return false
}

// User is an academy account
type User struct {
	ID       UserID
	Username string
	Email    string
	Role     Role

	// Photo is the media path of the profile photo ("" when none)
	Photo string

	// PlayerCode is the shareable player identifier, only set for players
	PlayerCode string

	MembershipStart *time.Time
	MembershipEnd   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Credentials holds the password hash for a user.
// Stored separately so user lookups never carry the hash around.
type Credentials struct {
	UserID       UserID
	PasswordHash string
	UpdatedAt    time.Time
}

// PlayerCodeFor returns the shareable player identifier for a user id
func PlayerCodeFor(id UserID) string {
	return fmt.Sprintf("S3-%04d", id)
}

// Profile holds the sport-related details of a user
type Profile struct {
	ID           int64
	UserID       UserID
	Sport        Sport
	StudyDetails string
	Stats        map[string]any
}

// ParentChildLink connects a parent account to exactly one player
type ParentChildLink struct {
	ParentID UserID
	ChildID  UserID
}

// Clone returns a deep copy of the user
func (u *User) Clone() *User {
	c := *u
	if u.MembershipStart != nil {
		s := *u.MembershipStart
		c.MembershipStart = &s
	}
	if u.MembershipEnd != nil {
		e := *u.MembershipEnd
		c.MembershipEnd = &e
	}
	return &c
}

// Clone returns a copy of the profile with its own stats map
func (p *Profile) Clone() *Profile {
	c := *p
	if p.Stats != nil {
		c.Stats = make(map[string]any, len(p.Stats))
		for k, v := range p.Stats {
			c.Stats[k] = v
		}
	}
	return &c
}

// UserDetail is a user together with their profile, as shown to clients
type UserDetail struct {
	User    *User
	Profile *Profile // nil if the user has no profile
}

// Sport returns the profile sport, or "" when unset
func (d *UserDetail) Sport() Sport {
	if d == nil || d.Profile == nil {
		return ""
	}
	return d.Profile.Sport
}
