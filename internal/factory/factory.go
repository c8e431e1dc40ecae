package factory

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/omgplatform/gameserver/internal/api"
	"github.com/omgplatform/gameserver/internal/config"
	"github.com/omgplatform/gameserver/internal/dependencies/clock"
	"github.com/omgplatform/gameserver/internal/game"
	"github.com/omgplatform/gameserver/internal/services/user"
	"github.com/omgplatform/gameserver/internal/session"
	"github.com/omgplatform/gameserver/internal/storage"
	"github.com/omgplatform/gameserver/internal/storage/memory"
	redisstorage "github.com/omgplatform/gameserver/internal/storage/redis"
	"github.com/omgplatform/gameserver/internal/token"
	"github.com/omgplatform/gameserver/internal/ws"
)

// App contains all wired application components
type App struct {
	// Storage
	Directory storage.UserDirectory

	// External dependencies
	Clock clock.Clock

	// Core components
	TokenCodec  *token.Codec
	UserService *user.Service
	Presence    *game.PresenceStore
	Registry    *session.Registry
	Router      *ws.Router
	Reaper      *game.Reaper

	// Handler is the fully assembled HTTP handler, REST routes plus
	// the game channel endpoint
	Handler http.Handler
}

// New creates a new application with all dependencies wired from the
// given configuration
func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var directory storage.UserDirectory
	switch cfg.Storage.Type {
	case config.StorageTypeRedis:
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.Storage.RedisURL
		redisDir, err := redisstorage.New(redisCfg)
		if err != nil {
			return nil, err
		}
		directory = redisDir
	default:
		directory = memory.New()
	}

	clk := clock.New()
	return newWithDependencies(cfg, directory, clk, logger)
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(cfg config.Config, directory storage.UserDirectory, clk clock.Clock, logger *slog.Logger) (*App, error) {
	codec, err := token.New(token.Config{
		Secret: cfg.Token.Secret,
		TTL:    cfg.TokenTTL(),
	}, clk)
	if err != nil {
		return nil, err
	}

	userService := user.New(directory, codec, clk, logger)
	presence := game.NewPresenceStore(clk, logger, cfg.Rooms.DefaultMaxPlayers)
	registry := session.NewRegistry(logger)
	router := ws.NewRouter(codec, directory, presence, registry, clk, logger)
	channelHandler := ws.NewHandler(router, cfg.CORS.AllowedOrigins, cfg.IdleTimeout(), logger)

	// Players reaped for inactivity also lose their connection, so the
	// session registry and presence store cannot drift apart.
	reaper := game.NewReaper(presence, cfg.ReapTimeout(), cfg.ReapInterval(), router.DisconnectUser, logger)

	handler := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		UserService:    userService,
		TokenCodec:     codec,
		ChannelHandler: channelHandler,
		ChannelPath:    cfg.Server.WSPath,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	return &App{
		Directory:   directory,
		Clock:       clk,
		TokenCodec:  codec,
		UserService: userService,
		Presence:    presence,
		Registry:    registry,
		Router:      router,
		Reaper:      reaper,
		Handler:     handler,
	}, nil
}
