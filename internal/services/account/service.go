package account

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/s3arena/internal/dependencies/clock"
	"github.com/mcoot/s3arena/internal/model"
	"github.com/mcoot/s3arena/internal/services/auth"
	"github.com/mcoot/s3arena/internal/storage"
)

// ErrParentRegistration is returned when a parent tries the plain registration path
var ErrParentRegistration = errors.New("parents must register with a child player id")

// PhotoStore persists processed profile photos
type PhotoStore interface {
	Save(r io.Reader) (string, error)
	Remove(mediaPath string) error
}

// Registration is the input for player, coach and management sign-up
type Registration struct {
	Username string
	Email    string
	Password string
	Role     model.Role
	Sport    model.Sport // optional
}

// ParentRegistration is the input for parent sign-up
type ParentRegistration struct {
	Username      string
	Email         string
	Password      string
	ChildPlayerID string
}

// Patch holds optional user field updates
type Patch struct {
	Email           *string
	MembershipStart *time.Time
	MembershipEnd   *time.Time
	// Photo is the raw upload of a new profile photo
	Photo io.Reader
}

// Service manages accounts, profiles and photos
type Service struct {
	storage storage.Storage
	photos  PhotoStore
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates an account Service
func New(storage storage.Storage, photos PhotoStore, clock clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		photos:  photos,
		clock:   clock,
		logger:  logger,
	}
}

// Register creates a user with credentials and a profile.
// Players get a player code derived from their id.
func (s *Service) Register(ctx context.Context, reg Registration) (*model.UserDetail, error) {
	if reg.Role == model.RoleParent {
		return nil, ErrParentRegistration
	}
	if _, err := model.ParseRole(string(reg.Role)); err != nil {
		return nil, err
	}
	if reg.Sport != "" && !reg.Sport.Valid() {
		return nil, model.ErrInvalidSport
	}

	user, err := s.createUser(ctx, reg.Username, reg.Email, reg.Password, reg.Role)
	if err != nil {
		return nil, err
	}

	profile, err := s.createProfile(ctx, user.ID, reg.Sport)
	if err != nil {
		s.removeUser(ctx, user.ID)
		return nil, err
	}

	s.logger.Info("user registered",
		slog.Int64("user_id", int64(user.ID)),
		slog.String("role", string(user.Role)),
	)

	return &model.UserDetail{User: user, Profile: profile}, nil
}

// RegisterParent creates a parent account linked to an existing player.
// The link is written last; a failed link removes the new account.
func (s *Service) RegisterParent(ctx context.Context, reg ParentRegistration) (*model.UserDetail, error) {
	child, err := s.storage.GetUserByPlayerCode(ctx, reg.ChildPlayerID)
	if err != nil {
		return nil, err
	}
	if child.Role != model.RolePlayer {
		return nil, model.ErrPlayerNotFound
	}

	parent, err := s.createUser(ctx, reg.Username, reg.Email, reg.Password, model.RoleParent)
	if err != nil {
		return nil, err
	}

	profile, err := s.createProfile(ctx, parent.ID, "")
	if err == nil {
		err = s.storage.CreateParentLink(ctx, &model.ParentChildLink{ParentID: parent.ID, ChildID: child.ID})
	}
	if err != nil {
		s.removeUser(ctx, parent.ID)
		return nil, err
	}

	s.logger.Info("parent registered",
		slog.Int64("user_id", int64(parent.ID)),
		slog.Int64("child_id", int64(child.ID)),
	)

	return &model.UserDetail{User: parent, Profile: profile}, nil
}

// createUser stores the user and its credentials. The password is hashed
// before anything is written.
func (s *Service) createUser(ctx context.Context, username, email, password string, role model.Role) (*model.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	id, err := s.storage.NextID(ctx, storage.SeqUser)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	user := &model.User{
		ID:        model.UserID(id),
		Username:  username,
		Email:     email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if role == model.RolePlayer {
		user.PlayerCode = model.PlayerCodeFor(user.ID)
	}

	if err := s.storage.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	if err := s.storage.SaveCredentials(ctx, &model.Credentials{
		UserID:       user.ID,
		PasswordHash: hash,
		UpdatedAt:    now,
	}); err != nil {
		s.removeUser(ctx, user.ID)
		return nil, err
	}
	return user, nil
}

// removeUser undoes a partially created account
func (s *Service) removeUser(ctx context.Context, id model.UserID) {
	if err := s.storage.DeleteUser(ctx, id); err != nil {
		s.logger.Error("failed to remove partially created user",
			slog.Int64("user_id", int64(id)),
			slog.Any("error", err),
		)
	}
}

func (s *Service) createProfile(ctx context.Context, userID model.UserID, sport model.Sport) (*model.Profile, error) {
	id, err := s.storage.NextID(ctx, storage.SeqProfile)
	if err != nil {
		return nil, err
	}
	profile := &model.Profile{
		ID:     id,
		UserID: userID,
		Sport:  sport,
		Stats:  map[string]any{},
	}
	if err := s.storage.SaveProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// GetUser returns a user with their profile
func (s *Service) GetUser(ctx context.Context, id model.UserID) (*model.UserDetail, error) {
	user, err := s.storage.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withProfile(ctx, user)
}

// ListUsers returns all users, optionally only those whose profile has the sport
func (s *Service) ListUsers(ctx context.Context, sport model.Sport) ([]*model.UserDetail, error) {
	users, err := s.storage.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	profiles, err := s.profilesByUser(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*model.UserDetail, 0, len(users))
	for _, u := range users {
		d := &model.UserDetail{User: u, Profile: profiles[u.ID]}
		if sport != "" && d.Sport() != sport {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// ProfileDetail is a profile with its owning user
type ProfileDetail struct {
	Profile *model.Profile
	User    *model.UserDetail
}

// ListProfiles returns every profile with its user
func (s *Service) ListProfiles(ctx context.Context) ([]*ProfileDetail, error) {
	profiles, err := s.storage.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*ProfileDetail, 0, len(profiles))
	for _, p := range profiles {
		user, err := s.storage.GetUser(ctx, p.UserID)
		if err != nil {
			if errors.Is(err, model.ErrUserNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, &ProfileDetail{
			Profile: p,
			User:    &model.UserDetail{User: user, Profile: p},
		})
	}
	return out, nil
}

// UpdatePhoto replaces a user's profile photo.
// Users may change their own photo; management may change anyone's.
func (s *Service) UpdatePhoto(ctx context.Context, actorID, userID model.UserID, r io.Reader) (*model.UserDetail, error) {
	return s.Update(ctx, actorID, userID, Patch{Photo: r})
}

// Update applies a field patch. Membership dates are management only.
// Every check runs before a new photo is stored, and a failed save removes
// it again, so a rejected update changes nothing.
func (s *Service) Update(ctx context.Context, actorID, userID model.UserID, patch Patch) (*model.UserDetail, error) {
	user, err := s.authorizeEdit(ctx, actorID, userID)
	if err != nil {
		return nil, err
	}

	if patch.MembershipStart != nil || patch.MembershipEnd != nil {
		actor, err := s.storage.GetUser(ctx, actorID)
		if err != nil {
			return nil, err
		}
		if actor.Role != model.RoleManagement {
			return nil, model.ErrForbidden
		}
	}

	if patch.Email != nil {
		user.Email = *patch.Email
	}
	if patch.MembershipStart != nil {
		user.MembershipStart = patch.MembershipStart
	}
	if patch.MembershipEnd != nil {
		user.MembershipEnd = patch.MembershipEnd
	}

	old := user.Photo
	if patch.Photo != nil {
		mediaPath, err := s.photos.Save(patch.Photo)
		if err != nil {
			return nil, err
		}
		user.Photo = mediaPath
	}
	user.UpdatedAt = s.clock.Now()

	if err := s.storage.SaveUser(ctx, user); err != nil {
		if patch.Photo != nil {
			_ = s.photos.Remove(user.Photo)
		}
		return nil, err
	}

	if patch.Photo != nil {
		if err := s.photos.Remove(old); err != nil {
			s.logger.Warn("failed to remove old photo",
				slog.String("path", old),
				slog.Any("error", err),
			)
		}
		s.logger.Info("photo updated", slog.Int64("user_id", int64(user.ID)))
	}
	return s.withProfile(ctx, user)
}

func (s *Service) authorizeEdit(ctx context.Context, actorID, userID model.UserID) (*model.User, error) {
	user, err := s.storage.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if actorID == userID {
		return user, nil
	}
	actor, err := s.storage.GetUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != model.RoleManagement {
		return nil, model.ErrForbidden
	}
	return user, nil
}

func (s *Service) withProfile(ctx context.Context, user *model.User) (*model.UserDetail, error) {
	profile, err := s.storage.GetProfileByUser(ctx, user.ID)
	if err != nil {
		if errors.Is(err, model.ErrProfileNotFound) {
			return &model.UserDetail{User: user}, nil
		}
		return nil, err
	}
	return &model.UserDetail{User: user, Profile: profile}, nil
}

func (s *Service) profilesByUser(ctx context.Context) (map[model.UserID]*model.Profile, error) {
	profiles, err := s.storage.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[model.UserID]*model.Profile, len(profiles))
	for _, p := range profiles {
		out[p.UserID] = p
	}
	return out, nil
}
