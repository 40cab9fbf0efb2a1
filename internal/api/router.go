package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/lfroste/livepoll-be/internal/api/handlers"
	"github.com/lfroste/livepoll-be/internal/auth"
	"github.com/lfroste/livepoll-be/internal/services"
	"github.com/lfroste/livepoll-be/internal/session"
	"github.com/lfroste/livepoll-be/internal/websocket"
)

// RouterDeps bundles everything the router wires together.
type RouterDeps struct {
	Hub            *websocket.Hub
	Registry       *session.Registry
	Tokens         *auth.Manager
	UserService    services.UserServiceProvider
	PollService    services.PollServiceProvider
	VoteService    services.VoteServiceProvider
	StatsService   services.StatsServiceProvider
	AllowedOrigins []string
}

// NewRouter creates and configures a new Chi router.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(deps.UserService, deps.Tokens, deps.Registry)
	pollHandler := handlers.NewPollHandler(deps.PollService)
	voteHandler := handlers.NewVoteHandler(deps.VoteService)
	statsHandler := handlers.NewStatsHandler(deps.StatsService)
	wsHandler := handlers.NewWebSocketHandler(deps.Hub, deps.Registry)

	authRequired := deps.Tokens.Middleware()

	r.Route("/api", func(r chi.Router) {
		// WebSocket connection endpoint
		r.Get("/ws", wsHandler.Serve)

		r.Route("/users", func(r chi.Router) {
			r.Post("/", userHandler.Register)
			r.Post("/login", userHandler.Login)
			// Admin-style listing; unauthenticated in the original, kept as-is.
			r.Get("/", userHandler.List)
			r.With(authRequired).Get("/{id}", userHandler.Get)
		})

		r.Route("/polls", func(r chi.Router) {
			r.Get("/", pollHandler.List)
			r.Get("/{id}", pollHandler.Get)
			r.Group(func(r chi.Router) {
				r.Use(authRequired)
				r.Post("/", pollHandler.Create)
				r.Patch("/{id}/publish", pollHandler.Publish)
			})
		})

		r.With(authRequired).Post("/votes", voteHandler.Create)

		r.Get("/stats", statsHandler.Get)
	})

	return r
}
