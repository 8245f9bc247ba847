package factory

import (
	"context"
	"time"

	"github.com/mcoot/s3arena/internal/dependencies/mocks"
	"github.com/mcoot/s3arena/internal/model"
	"github.com/mcoot/s3arena/internal/services/account"
	"github.com/mcoot/s3arena/internal/services/auth"
	"github.com/mcoot/s3arena/internal/storage/memory"
	"github.com/mcoot/s3arena/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// Photos are written under mediaRoot.
func NewTestApp(mediaRoot string) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	authCfg := auth.DefaultConfig()
	authCfg.Secret = "test-secret"

	app := newWithDependencies(store, mockClock, mockRandom, authCfg, mediaRoot, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}

// Register creates an account with the password "password" and the given sport
func (t *TestApp) Register(ctx context.Context, username string, role model.Role, sport model.Sport) (*model.UserDetail, error) {
	return t.AccountService.Register(ctx, account.Registration{
		Username: username,
		Email:    username + "@example.com",
		Password: "password",
		Role:     role,
		Sport:    sport,
	})
}
