package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/omgplatform/gameserver/internal/api/handler"
	"github.com/omgplatform/gameserver/internal/api/middleware"
	"github.com/omgplatform/gameserver/internal/services/user"
	"github.com/omgplatform/gameserver/internal/token"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	UserService    *user.Service
	TokenCodec     *token.Codec
	ChannelHandler http.Handler
	ChannelPath    string
	AllowedOrigins []string
}

// NewRouter creates a new router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	userHandler := handler.NewUserHandler(cfg.UserService)

	authMiddleware := middleware.Auth(cfg.TokenCodec)
	corsMiddleware := middleware.CORS(cfg.AllowedOrigins)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(corsMiddleware)

	// User routes (no auth required for registering/logging in).
	// OPTIONS must match too: mux only runs middleware on matched
	// routes, and browser preflights arrive as OPTIONS. The CORS
	// middleware answers them before the handlers run.
	r.HandleFunc("/users/register", userHandler.Register).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/users/login", userHandler.Login).Methods(http.MethodPost, http.MethodOptions)

	// Protected user routes
	protected := r.PathPrefix("/users").Subrouter()
	protected.Use(authMiddleware)
	protected.HandleFunc("", userHandler.List).Methods(http.MethodGet, http.MethodOptions)

	// Game channel endpoint. Auth happens in-channel via the JOIN
	// handshake, not through the bearer middleware.
	if cfg.ChannelHandler != nil {
		r.Handle(cfg.ChannelPath, cfg.ChannelHandler).Methods(http.MethodGet)
	}

	// Health check endpoint (no auth)
	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
