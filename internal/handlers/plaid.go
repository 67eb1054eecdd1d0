package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pocketfolio/finance-backend/internal/dto"
	"github.com/pocketfolio/finance-backend/internal/errs"
	"github.com/pocketfolio/finance-backend/internal/middleware"
	"github.com/pocketfolio/finance-backend/internal/response"
)

type PlaidService interface {
	CreateLinkToken(ctx context.Context, uid string) (dto.LinkToken, error)
	ExchangePublicToken(ctx context.Context, uid, publicToken, institutionID, institutionName string) error
}

type AggregationService interface {
	FetchTransactions(ctx context.Context, uid, startDate, endDate string) (dto.GroupedTransactions, error)
	SummarizeSpend(ctx context.Context, uid string) (dto.SpendSummary, error)
	ListAccounts(ctx context.Context, uid string) (dto.AccountList, error)
}

type plaidHandlers struct {
	ResponseHandler response.ResponseHandler
	PlaidSvc        PlaidService
	AggregationSvc  AggregationService
}

func NewPlaidHandlers(deps *Deps) *plaidHandlers {
	return &plaidHandlers{
		ResponseHandler: deps.ResponseHandler,
		PlaidSvc:        deps.PlaidSvc,
		AggregationSvc:  deps.AggregationSvc,
	}
}

func (h *plaidHandlers) PlaidRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/create-link-token", h.CreateLinkToken)
	r.Post("/exchange-public-token", h.ExchangePublicToken)
	r.Get("/transactions", h.GetTransactions)
	r.Get("/accounts", h.GetAccounts)
	r.Get("/summary", h.GetSummary)
	return r
}

func (h *plaidHandlers) CreateLinkToken(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFrom(r.Context())

	linkToken, err := h.PlaidSvc.CreateLinkToken(r.Context(), p.UID)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteJSON(w, r, http.StatusOK, linkToken)
}

func (h *plaidHandlers) ExchangePublicToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PublicToken     string `json:"publicToken"`
		InstitutionID   string `json:"institutionId,omitempty"`
		InstitutionName string `json:"institutionName,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("invalid request body"))
		return
	}

	p := middleware.PrincipalFrom(r.Context())
	if err := h.PlaidSvc.ExchangePublicToken(r.Context(), p.UID, body.PublicToken, body.InstitutionID, body.InstitutionName); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteJSON(w, r, http.StatusOK, map[string]string{"message": "Successfully linked bank account"})
}

func (h *plaidHandlers) GetTransactions(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFrom(r.Context())
	startDate := r.URL.Query().Get("startDate")
	endDate := r.URL.Query().Get("endDate")

	grouped, err := h.AggregationSvc.FetchTransactions(r.Context(), p.UID, startDate, endDate)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteJSON(w, r, http.StatusOK, grouped)
}

func (h *plaidHandlers) GetAccounts(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFrom(r.Context())

	accounts, err := h.AggregationSvc.ListAccounts(r.Context(), p.UID)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteJSON(w, r, http.StatusOK, accounts)
}

func (h *plaidHandlers) GetSummary(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFrom(r.Context())

	summary, err := h.AggregationSvc.SummarizeSpend(r.Context(), p.UID)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteJSON(w, r, http.StatusOK, summary)
}
