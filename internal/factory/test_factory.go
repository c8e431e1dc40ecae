package factory

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/omgplatform/gameserver/internal/config"
	"github.com/omgplatform/gameserver/internal/dependencies/mocks"
	"github.com/omgplatform/gameserver/internal/storage/memory"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock
	Memory    *memory.Directory
}

// NewTestApp creates an App configured for testing with a mocked clock
// and in-memory storage
func NewTestApp() *TestApp {
	directory := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	cfg := config.Default()
	cfg.Token.Secret = "test-factory-secret-with-enough-bytes-to-sign"

	app, err := newWithDependencies(cfg, directory, mockClock, logger)
	if err != nil {
		panic(fmt.Sprintf("building test app: %v", err))
	}

	return &TestApp{
		App:       app,
		MockClock: mockClock,
		Memory:    directory,
	}
}
