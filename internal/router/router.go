package router

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pocketfolio/finance-backend/internal/handlers"
	"github.com/pocketfolio/finance-backend/internal/middleware"
)

func NewRouter(deps *handlers.Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewLoggerMiddleware(deps.Log).LoggerMiddleware)

	ah := handlers.NewAuthHandlers(deps)
	ph := handlers.NewPlaidHandlers(deps)

	r.Mount("/auth", ah.AuthRoutes())
	r.Route("/plaid", func(r chi.Router) {
		r.Use(deps.Middleware.BearerAuth)
		r.Mount("/", ph.PlaidRoutes())
	})

	return r
}
