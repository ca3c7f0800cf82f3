package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/ludoteca/catalog-api/internal/api/handlers"
	"github.com/ludoteca/catalog-api/internal/api/middleware"
	"github.com/ludoteca/catalog-api/internal/oidc"
	"github.com/ludoteca/catalog-api/internal/service"
	"go.uber.org/zap"
)

func NewRouter(services *service.Services, provider *oidc.Provider, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.CORS)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.Auth)
	usersHandler := handlers.NewUsersHandler(services.User)
	gamesHandler := handlers.NewBoardGamesHandler(services.BoardGame)
	oauthHandler := handlers.NewOAuthHandler(provider, logger)
	interactionHandler := handlers.NewInteractionHandler(provider, services.Auth, logger)

	// Token issuance for API clients
	r.Post("/auth/token", authHandler.Token)

	// Authorization server endpoints
	r.Get("/oauth/authorize", oauthHandler.Authorize)
	r.Post("/oauth/token", oauthHandler.Token)
	r.Get("/home", oauthHandler.Home)

	// Login and consent pages
	r.Route("/interaction/{uid}", func(r chi.Router) {
		r.Get("/", interactionHandler.Page)
		r.Post("/login", interactionHandler.Login)
		r.Post("/consent/confirm", interactionHandler.ConfirmConsent)
		r.Post("/consent/abort", interactionHandler.AbortConsent)
	})

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(services.Auth))

		r.Route("/users", func(r chi.Router) {
			r.Get("/", usersHandler.List)
			r.Post("/", usersHandler.Create)
			r.Get("/{id}", usersHandler.Get)
			r.Put("/{id}", usersHandler.Update)
			r.Delete("/{id}", usersHandler.Delete)
		})

		r.Route("/boardgames", func(r chi.Router) {
			r.Get("/", gamesHandler.List)
			r.Get("/{id}", gamesHandler.Get)
			r.Post("/{userId}", gamesHandler.Create)
			r.Post("/{userId}/batch", gamesHandler.CreateBatch)
			r.Put("/{id}", gamesHandler.Update)
			r.Delete("/{id}", gamesHandler.Delete)
		})
	})

	return r
}
