package dashboard_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/s3arena/internal/apitest"
	"github.com/mcoot/s3arena/internal/client"
	"github.com/mcoot/s3arena/internal/dashboard"
	"github.com/mcoot/s3arena/internal/model"
	"github.com/mcoot/s3arena/internal/taskrepo"
)

func depsFor(c *client.Client) dashboard.Deps {
	return dashboard.Deps{Directory: c, Tasks: taskrepo.New(c)}
}

func TestDashboardsAgainstAPI(t *testing.T) {
	srv := apitest.NewServer(t)
	ctx := context.Background()

	srv.Register(t, "coach_c", model.RoleCoach, model.SportFootball)
	p1 := srv.Register(t, "p1", model.RolePlayer, model.SportFootball)
	srv.Register(t, "p_other", model.RolePlayer, model.SportBoxing)

	coachAPI, coachSess := srv.Login(t, "coach_c")
	limit := 15
	_, err := taskrepo.New(coachAPI).Create(ctx, taskrepo.NewTask{
		Title: "Dribbling", PlayerIDs: []int64{int64(p1.User.ID)}, TimeLimitMinutes: &limit,
	})
	require.NoError(t, err)

	view, err := dashboard.Load(ctx, depsFor(coachAPI), coachSess, dashboard.Options{})
	require.NoError(t, err)
	cv := view.(dashboard.CoachView)
	require.Len(t, cv.Roster, 1)
	assert.Equal(t, "p1", cv.Roster[0].Username)
	require.Len(t, cv.Tasks, 1)

	// The player starts from their dashboard and sees the countdown
	playerAPI, playerSess := srv.Login(t, "p1")
	view, err = dashboard.Load(ctx, depsFor(playerAPI), playerSess, dashboard.Options{})
	require.NoError(t, err)
	pv := view.(dashboard.PlayerView)
	require.NotNil(t, pv.Coach)
	assert.Equal(t, "coach_c", pv.Coach.Username)
	require.Len(t, pv.Tasks, 1)

	now := srv.App.MockClock.Now()
	card := dashboard.NewTaskCard(pv.Tasks[0], playerSess.UserID, false, now)
	require.True(t, card.CanStart)

	_, err = taskrepo.New(playerAPI).Start(ctx, card.Task.ID)
	require.NoError(t, err)

	srv.App.MockClock.Advance(5 * time.Minute)
	view, err = dashboard.Load(ctx, depsFor(playerAPI), playerSess, dashboard.Options{})
	require.NoError(t, err)
	card = dashboard.NewTaskCard(view.(dashboard.PlayerView).Tasks[0], playerSess.UserID, false, srv.App.MockClock.Now())
	assert.Equal(t, "10:00", card.Countdown)
	assert.False(t, card.CanStart)
}
