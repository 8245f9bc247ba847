// Package apitest runs the full API over a real listener for client-side tests.
package apitest

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mcoot/s3arena/internal/api"
	"github.com/mcoot/s3arena/internal/client"
	"github.com/mcoot/s3arena/internal/factory"
	"github.com/mcoot/s3arena/internal/metrics"
	"github.com/mcoot/s3arena/internal/model"
	"github.com/mcoot/s3arena/internal/session"
	"github.com/mcoot/s3arena/internal/testutil"
)

// Password is the password of every account created by Server.Register
const Password = "password"

// Server is a running API backed by a test app with a mock clock
type Server struct {
	*httptest.Server
	App *factory.TestApp
}

// NewServer starts the API; it is shut down when the test ends
func NewServer(t *testing.T) *Server {
	t.Helper()

	app := factory.NewTestApp(t.TempDir())
	router := api.NewRouter(api.RouterConfig{
		Logger:         testutil.NopLogger(),
		Clock:          app.MockClock,
		AuthService:    app.AuthService,
		AccountService: app.AccountService,
		TaskService:    app.TaskService,
		HubManager:     app.HubManager,
		Metrics:        app.Metrics,
		MetricsHandler: metrics.Handler(app.Registry),
		MediaRoot:      app.Photos.Root(),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		app.HubManager.Close()
		srv.Close()
	})
	return &Server{Server: srv, App: app}
}

// APIURL is the base URL clients should use
func (s *Server) APIURL() string {
	return s.URL + "/api"
}

// Register creates an account directly through the services
func (s *Server) Register(t *testing.T, username string, role model.Role, sport model.Sport) *model.UserDetail {
	t.Helper()
	d, err := s.App.Register(context.Background(), username, role, sport)
	require.NoError(t, err)
	return d
}

// Login signs in over HTTP and returns a client holding the new session
func (s *Server) Login(t *testing.T, username string) (*client.Client, *session.Session) {
	t.Helper()
	c := client.New(s.APIURL(), nil, client.WithClock(s.App.MockClock))
	sess, err := c.Login(context.Background(), username, Password)
	require.NoError(t, err)
	return c, sess
}
