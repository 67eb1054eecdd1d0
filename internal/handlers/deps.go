package handlers

import (
	"log/slog"

	"github.com/pocketfolio/finance-backend/internal/middleware"
	"github.com/pocketfolio/finance-backend/internal/response"
)

type Deps struct {
	Log             *slog.Logger
	ResponseHandler response.ResponseHandler
	Middleware      *middleware.Middleware
	AuthSvc         AuthService
	PlaidSvc        PlaidService
	AggregationSvc  AggregationService
}
