package account

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/s3arena/internal/dependencies/mocks"
	"github.com/mcoot/s3arena/internal/model"
	"github.com/mcoot/s3arena/internal/services/auth"
	"github.com/mcoot/s3arena/internal/storage/memory"
	"github.com/mcoot/s3arena/internal/testutil"
)

type fakePhotos struct {
	saved   []string
	removed []string
	err     error
}

func (f *fakePhotos) Save(r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	data, _ := io.ReadAll(r)
	p := "profile_photos/" + string(data) + ".jpg"
	f.saved = append(f.saved, p)
	return p, nil
}

func (f *fakePhotos) Remove(p string) error {
	if p != "" {
		f.removed = append(f.removed, p)
	}
	return nil
}

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	photos  *fakePhotos
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.photos = &fakePhotos{}
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.storage, s.photos, s.clock, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) register(username string, role model.Role, sport model.Sport) *model.UserDetail {
	d, err := s.service.Register(s.ctx, Registration{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
		Role:     role,
		Sport:    sport,
	})
	s.Require().NoError(err)
	return d
}

// Register tests

func (s *ServiceSuite) TestRegisterPlayerGetsPlayerCode() {
	d := s.register("alice", model.RolePlayer, model.SportTennis)

	s.Equal(model.PlayerCodeFor(d.User.ID), d.User.PlayerCode)
	s.Equal("S3-0001", d.User.PlayerCode)
	s.Require().NotNil(d.Profile)
	s.Equal(model.SportTennis, d.Profile.Sport)
}

func (s *ServiceSuite) TestRegisterCoachHasNoPlayerCode() {
	d := s.register("coach", model.RoleCoach, model.SportTennis)
	s.Empty(d.User.PlayerCode)
}

func (s *ServiceSuite) TestRegisterCreatesProfileWithoutSport() {
	d := s.register("boss", model.RoleManagement, "")

	p, err := s.storage.GetProfileByUser(s.ctx, d.User.ID)
	s.Require().NoError(err)
	s.Empty(p.Sport)
}

func (s *ServiceSuite) TestRegisterDuplicateUsername() {
	s.register("alice", model.RolePlayer, "")

	_, err := s.service.Register(s.ctx, Registration{Username: "alice", Password: "x", Role: model.RoleCoach})
	s.ErrorIs(err, model.ErrUsernameExists)
}

func (s *ServiceSuite) TestRegisterRejectsParentAndUnknownRole() {
	_, err := s.service.Register(s.ctx, Registration{Username: "p", Password: "x", Role: model.RoleParent})
	s.ErrorIs(err, ErrParentRegistration)

	_, err = s.service.Register(s.ctx, Registration{Username: "q", Password: "x", Role: "janitor"})
	s.ErrorIs(err, model.ErrInvalidRole)

	_, err = s.service.Register(s.ctx, Registration{Username: "r", Password: "x", Role: model.RolePlayer, Sport: "quidditch"})
	s.ErrorIs(err, model.ErrInvalidSport)
}

// Parent registration tests

func (s *ServiceSuite) TestRegisterParentLinksChild() {
	child := s.register("kid", model.RolePlayer, model.SportFootball)

	parent, err := s.service.RegisterParent(s.ctx, ParentRegistration{
		Username:      "mum",
		Password:      "password123",
		ChildPlayerID: child.User.PlayerCode,
	})
	s.Require().NoError(err)
	s.Equal(model.RoleParent, parent.User.Role)
	s.Empty(parent.User.PlayerCode)

	linked, err := s.storage.GetChildOf(s.ctx, parent.User.ID)
	s.Require().NoError(err)
	s.Equal(child.User.ID, linked)
}

func (s *ServiceSuite) TestRegisterParentUnknownChild() {
	_, err := s.service.RegisterParent(s.ctx, ParentRegistration{Username: "mum", Password: "x", ChildPlayerID: "S3-9999"})
	s.ErrorIs(err, model.ErrPlayerNotFound)

	_, err = s.storage.GetUserByUsername(s.ctx, "mum")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *ServiceSuite) TestRegisterParentChildAlreadyLinked() {
	child := s.register("kid", model.RolePlayer, "")
	_, err := s.service.RegisterParent(s.ctx, ParentRegistration{Username: "mum", Password: "x", ChildPlayerID: child.User.PlayerCode})
	s.Require().NoError(err)

	_, err = s.service.RegisterParent(s.ctx, ParentRegistration{Username: "dad", Password: "x", ChildPlayerID: child.User.PlayerCode})
	s.ErrorIs(err, model.ErrChildLinked)

	_, err = s.storage.GetUserByUsername(s.ctx, "dad")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *ServiceSuite) TestRegisterParentLongPasswordLeavesChildUnlinked() {
	child := s.register("kid", model.RolePlayer, model.SportTennis)

	_, err := s.service.RegisterParent(s.ctx, ParentRegistration{
		Username:      "mum",
		Password:      strings.Repeat("p", 80),
		ChildPlayerID: child.User.PlayerCode,
	})
	s.ErrorIs(err, auth.ErrPasswordTooLong)

	_, err = s.storage.GetUserByUsername(s.ctx, "mum")
	s.ErrorIs(err, model.ErrUserNotFound)

	parent, err := s.service.RegisterParent(s.ctx, ParentRegistration{
		Username:      "mum",
		Password:      "password123",
		ChildPlayerID: child.User.PlayerCode,
	})
	s.Require().NoError(err)

	linked, err := s.storage.GetChildOf(s.ctx, parent.User.ID)
	s.Require().NoError(err)
	s.Equal(child.User.ID, linked)
}

func (s *ServiceSuite) TestRegisterParentDuplicateUsernameLeavesChildUnlinked() {
	child := s.register("kid", model.RolePlayer, "")
	s.register("taken", model.RoleCoach, "")

	_, err := s.service.RegisterParent(s.ctx, ParentRegistration{Username: "taken", Password: "x", ChildPlayerID: child.User.PlayerCode})
	s.ErrorIs(err, model.ErrUsernameExists)

	_, err = s.service.RegisterParent(s.ctx, ParentRegistration{Username: "mum", Password: "x", ChildPlayerID: child.User.PlayerCode})
	s.NoError(err)
}

func (s *ServiceSuite) TestRegisterLongPasswordWritesNothing() {
	_, err := s.service.Register(s.ctx, Registration{
		Username: "long",
		Password: strings.Repeat("p", 73),
		Role:     model.RolePlayer,
	})
	s.ErrorIs(err, auth.ErrPasswordTooLong)

	users, err := s.storage.ListUsers(s.ctx)
	s.Require().NoError(err)
	s.Empty(users)
}

// Listing tests

func (s *ServiceSuite) TestListUsersSportFilter() {
	s.register("a", model.RolePlayer, model.SportTennis)
	s.register("b", model.RolePlayer, model.SportCricket)
	s.register("c", model.RoleCoach, model.SportTennis)

	all, err := s.service.ListUsers(s.ctx, "")
	s.Require().NoError(err)
	s.Len(all, 3)

	tennis, err := s.service.ListUsers(s.ctx, model.SportTennis)
	s.Require().NoError(err)
	s.Require().Len(tennis, 2)
	s.Equal("a", tennis[0].User.Username)
	s.Equal("c", tennis[1].User.Username)
}

func (s *ServiceSuite) TestListProfilesIncludesUser() {
	s.register("a", model.RolePlayer, model.SportTennis)

	profiles, err := s.service.ListProfiles(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(profiles, 1)
	s.Equal("a", profiles[0].User.User.Username)
	s.Equal(model.SportTennis, profiles[0].Profile.Sport)
}

// Photo tests

func (s *ServiceSuite) TestUpdatePhotoSelf() {
	d := s.register("a", model.RolePlayer, "")

	updated, err := s.service.UpdatePhoto(s.ctx, d.User.ID, d.User.ID, strings.NewReader("one"))
	s.Require().NoError(err)
	s.Equal("profile_photos/one.jpg", updated.User.Photo)

	updated, err = s.service.UpdatePhoto(s.ctx, d.User.ID, d.User.ID, strings.NewReader("two"))
	s.Require().NoError(err)
	s.Equal("profile_photos/two.jpg", updated.User.Photo)
	s.Equal([]string{"profile_photos/one.jpg"}, s.photos.removed)
}

func (s *ServiceSuite) TestUpdatePhotoOtherUserForbidden() {
	a := s.register("a", model.RolePlayer, "")
	b := s.register("b", model.RolePlayer, "")

	_, err := s.service.UpdatePhoto(s.ctx, a.User.ID, b.User.ID, strings.NewReader("x"))
	s.ErrorIs(err, model.ErrForbidden)
	s.Empty(s.photos.saved)
}

func (s *ServiceSuite) TestUpdatePhotoByManagement() {
	boss := s.register("boss", model.RoleManagement, "")
	b := s.register("b", model.RolePlayer, "")

	_, err := s.service.UpdatePhoto(s.ctx, boss.User.ID, b.User.ID, strings.NewReader("x"))
	s.NoError(err)
}

func (s *ServiceSuite) TestUpdatePhotoStoreError() {
	d := s.register("a", model.RolePlayer, "")
	s.photos.err = errors.New("bad image")

	_, err := s.service.UpdatePhoto(s.ctx, d.User.ID, d.User.ID, strings.NewReader("x"))
	s.Error(err)

	u, _ := s.storage.GetUser(s.ctx, d.User.ID)
	s.Empty(u.Photo)
}

// Update tests

func (s *ServiceSuite) TestUpdateMembershipManagementOnly() {
	boss := s.register("boss", model.RoleManagement, "")
	p := s.register("p", model.RolePlayer, "")
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	_, err := s.service.Update(s.ctx, p.User.ID, p.User.ID, Patch{MembershipStart: &start})
	s.ErrorIs(err, model.ErrForbidden)

	updated, err := s.service.Update(s.ctx, boss.User.ID, p.User.ID, Patch{MembershipStart: &start})
	s.Require().NoError(err)
	s.Require().NotNil(updated.User.MembershipStart)
	s.True(start.Equal(*updated.User.MembershipStart))
}

func (s *ServiceSuite) TestUpdateOwnEmail() {
	p := s.register("p", model.RolePlayer, "")
	email := "new@example.com"

	updated, err := s.service.Update(s.ctx, p.User.ID, p.User.ID, Patch{Email: &email})
	s.Require().NoError(err)
	s.Equal(email, updated.User.Email)
}

func (s *ServiceSuite) TestUpdateForbiddenMembershipKeepsPhoto() {
	p := s.register("p", model.RolePlayer, "")
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	_, err := s.service.Update(s.ctx, p.User.ID, p.User.ID, Patch{
		MembershipStart: &start,
		Photo:           strings.NewReader("x"),
	})
	s.ErrorIs(err, model.ErrForbidden)
	s.Empty(s.photos.saved)

	u, err := s.storage.GetUser(s.ctx, p.User.ID)
	s.Require().NoError(err)
	s.Empty(u.Photo)
	s.Nil(u.MembershipStart)
}

func (s *ServiceSuite) TestUpdateEmailAndPhotoTogether() {
	p := s.register("p", model.RolePlayer, "")
	email := "new@example.com"

	updated, err := s.service.Update(s.ctx, p.User.ID, p.User.ID, Patch{Email: &email, Photo: strings.NewReader("pic")})
	s.Require().NoError(err)
	s.Equal(email, updated.User.Email)
	s.Equal("profile_photos/pic.jpg", updated.User.Photo)
}
