package factory

import (
	"time"

	"github.com/debsndprgs5/transcendence-game/internal/dependencies/mocks"
	"github.com/debsndprgs5/transcendence-game/internal/events"
	"github.com/debsndprgs5/transcendence-game/internal/gateway"
	"github.com/debsndprgs5/transcendence-game/internal/services/gameroom"
	"github.com/debsndprgs5/transcendence-game/internal/services/matchmaking"
	"github.com/debsndprgs5/transcendence-game/internal/services/reconnect"
	"github.com/debsndprgs5/transcendence-game/internal/services/registry"
	"github.com/debsndprgs5/transcendence-game/internal/services/tournament"
	"github.com/debsndprgs5/transcendence-game/internal/storage/memory"
	"github.com/debsndprgs5/transcendence-game/internal/testutil"
)

// TestApp is a fully wired in-memory application with mocked time and
// randomness, for integration-style tests.
type TestApp struct {
	*App
	Clock  *mocks.MockClock
	Random *mocks.MockRandom
}

// NewTestApp wires the application over memory storage, a nop
// publisher and mocked dependencies.
func NewTestApp() *TestApp {
	cfg := DefaultConfig()
	logger := testutil.NopLogger()
	clk := mocks.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	rnd := mocks.NewMockRandom()

	app := &App{
		Config:    cfg,
		Logger:    logger,
		Store:     memory.New(),
		Publisher: events.NewNopPublisher(),
	}

	app.Registry = registry.New(clk, logger)
	app.Rooms = gameroom.New(cfg.Game, app.Registry, app.Store, app.Publisher, clk, rnd, logger)
	app.Broker = matchmaking.New(app.Rooms, app.Registry, clk, cfg.InviteTTL, logger)
	app.Supervisor = reconnect.New(app.Rooms, app.Registry, clk, cfg.GracePeriod, logger)
	app.Tournaments = tournament.New(app.Rooms, app.Registry, app.Store, app.Publisher, clk, rnd, logger)

	app.Registry.SetListener(app.Supervisor)
	app.Supervisor.SetTournaments(app.Tournaments)
	app.Rooms.SetRoomEndedHook(app.Tournaments.HandleRoomEnded)

	app.Gateway = gateway.New(
		app.Registry,
		app.Broker,
		app.Rooms,
		app.Tournaments,
		gateway.NewHeaderIdentity(),
		logger,
	)

	return &TestApp{App: app, Clock: clk, Random: rnd}
}
