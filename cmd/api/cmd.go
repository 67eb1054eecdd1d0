package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/pocketfolio/finance-backend/internal/auth"
	"github.com/pocketfolio/finance-backend/internal/bootstrap"
	"github.com/pocketfolio/finance-backend/internal/config"
	"github.com/pocketfolio/finance-backend/internal/handlers"
	"github.com/pocketfolio/finance-backend/internal/middleware"
	"github.com/pocketfolio/finance-backend/internal/response"
	"github.com/pocketfolio/finance-backend/internal/router"
	"github.com/pocketfolio/finance-backend/internal/services"
	"github.com/pocketfolio/finance-backend/internal/store"
)

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

func main() {
	// bootstrap
	cfg := config.New()
	bs, err := bootstrap.Run(cfg)
	exitOnError("bootstrap failed", err, bs.Log)
	defer bs.Close()

	// auth helpers
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTExpiresIn)

	// stores
	ustore := store.NewUserStore(bs.Firestore, bs.Cipher)

	// services
	aserv := services.NewAuthService(ustore, tokens)
	plserv := services.NewPlaidService(bs.PlaidAdapter, ustore)
	agserv := services.NewAggregationService(bs.PlaidAdapter, ustore)

	// response handler
	rh := response.New(bs.Log)

	// dependancies
	deps := new(handlers.Deps)
	deps.Log = bs.Log
	deps.ResponseHandler = rh
	deps.Middleware = middleware.NewMiddleware(tokens)
	deps.AuthSvc = aserv
	deps.PlaidSvc = plserv
	deps.AggregationSvc = agserv

	// router
	r := router.NewRouter(deps)
	err = http.ListenAndServe(":"+cfg.Port, r)
	exitOnError("server start failed", err, bs.Log)
}
