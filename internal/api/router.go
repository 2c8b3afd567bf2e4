package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/member-accounts-be/internal/api/handlers"
	"github.com/isdelr/member-accounts-be/internal/auth"
	"github.com/isdelr/member-accounts-be/internal/logger"
	"github.com/isdelr/member-accounts-be/internal/services"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(userService services.UserServiceProvider, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.RequestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	userHandler := handlers.NewUserHandler(userService)

	r.Get("/", userHandler.Root)
	r.Get("/healthz", userHandler.Health)
	r.Post("/register", userHandler.Register)
	r.Post("/login", userHandler.Login)

	// Routes that need an access token
	r.Group(func(r chi.Router) {
		r.Use(auth.Guard(userService))
		r.Get("/me", userHandler.GetMe)
		r.Delete("/delete/{id}", userHandler.Delete)
	})

	return r
}
