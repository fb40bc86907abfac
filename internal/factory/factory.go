// Package factory wires the application together
package factory

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/debsndprgs5/transcendence-game/internal/api"
	"github.com/debsndprgs5/transcendence-game/internal/dependencies/clock"
	"github.com/debsndprgs5/transcendence-game/internal/dependencies/random"
	"github.com/debsndprgs5/transcendence-game/internal/events"
	"github.com/debsndprgs5/transcendence-game/internal/gateway"
	"github.com/debsndprgs5/transcendence-game/internal/services/gameroom"
	"github.com/debsndprgs5/transcendence-game/internal/services/matchmaking"
	"github.com/debsndprgs5/transcendence-game/internal/services/reconnect"
	"github.com/debsndprgs5/transcendence-game/internal/services/registry"
	"github.com/debsndprgs5/transcendence-game/internal/services/tournament"
	"github.com/debsndprgs5/transcendence-game/internal/storage"
	"github.com/debsndprgs5/transcendence-game/internal/storage/memory"
	redisstorage "github.com/debsndprgs5/transcendence-game/internal/storage/redis"
)

// Storage backends
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// Config is the full application configuration
type Config struct {
	Server api.Config
	Game   gameroom.Config

	StorageType string
	Redis       redisstorage.Config

	// NATSURL enables the event publisher when non-empty
	NATSURL string

	GracePeriod time.Duration
	InviteTTL   time.Duration
}

// DefaultConfig returns the standard configuration
func DefaultConfig() Config {
	return Config{
		Server:      api.DefaultConfig(),
		Game:        gameroom.DefaultConfig(),
		StorageType: StorageMemory,
		Redis:       redisstorage.DefaultConfig(),
		GracePeriod: reconnect.DefaultGracePeriod,
		InviteTTL:   matchmaking.DefaultInviteTTL,
	}
}

// LoadFromEnv overlays PONG_* environment variables onto the defaults
func LoadFromEnv() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("PONG_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PONG_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PONG_STORAGE"); v != "" {
		cfg.StorageType = v
	}
	if v := os.Getenv("PONG_REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("PONG_NATS_URL"); v != "" {
		cfg.NATSURL = v
	}
	if v := os.Getenv("PONG_GRACE_PERIOD"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.GracePeriod = d
		}
	}
	if v := os.Getenv("PONG_TICK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Game.TickInterval = d
		}
	}
	return cfg
}

// App holds the wired application
type App struct {
	Config Config
	Logger *slog.Logger

	Registry    *registry.Registry
	Rooms       *gameroom.Controller
	Broker      *matchmaking.Broker
	Supervisor  *reconnect.Supervisor
	Tournaments *tournament.Coordinator
	Gateway     *gateway.Gateway
	Server      *api.Server

	Store     storage.Storage
	Publisher events.Publisher

	storeCloser func() error
}

// New builds the application from the configuration
func New(cfg Config, logger *slog.Logger) (*App, error) {
	clk := clock.New()
	rnd := random.New()

	app := &App{
		Config: cfg,
		Logger: logger,
	}

	switch cfg.StorageType {
	case StorageMemory:
		app.Store = memory.New()
	case StorageRedis:
		store, err := redisstorage.New(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		app.Store = store
		app.storeCloser = store.Close
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.StorageType)
	}

	if cfg.NATSURL != "" {
		publisher, err := events.NewNATSPublisher(cfg.NATSURL, logger)
		if err != nil {
			return nil, fmt.Errorf("connecting to nats: %w", err)
		}
		app.Publisher = publisher
	} else {
		app.Publisher = events.NewNopPublisher()
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

	router := gateway.NewRouter(app.Gateway, app.Store, logger)
	app.Server = api.New(cfg.Server, router, logger)

	return app, nil
}

// Close terminates live rooms and releases external connections
func (a *App) Close() {
	a.Rooms.Shutdown()
	a.Publisher.Close()
	if a.storeCloser != nil {
		if err := a.storeCloser(); err != nil {
			a.Logger.Warn("failed to close storage", slog.String("error", err.Error()))
		}
	}
}
