package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pocketfolio/finance-backend/internal/errs"
	"github.com/pocketfolio/finance-backend/internal/response"
)

type AuthService interface {
	Register(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, password string) (string, error)
}

type authHandlers struct {
	ResponseHandler response.ResponseHandler
	AuthSvc         AuthService
}

func NewAuthHandlers(deps *Deps) *authHandlers {
	return &authHandlers{
		ResponseHandler: deps.ResponseHandler,
		AuthSvc:         deps.AuthSvc,
	}
}

func (h *authHandlers) AuthRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	return r
}

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *authHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("invalid request body"))
		return
	}

	if err := h.AuthSvc.Register(r.Context(), body.Email, body.Password); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteJSON(w, r, http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

func (h *authHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("invalid request body"))
		return
	}

	token, err := h.AuthSvc.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteJSON(w, r, http.StatusOK, map[string]string{"token": token})
}
