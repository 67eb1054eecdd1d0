package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pocketfolio/finance-backend/internal/auth"
	"github.com/pocketfolio/finance-backend/internal/errs"
	"github.com/pocketfolio/finance-backend/internal/models"
	"github.com/pocketfolio/finance-backend/pkg/logger"
)

type userAuthStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type tokenIssuer interface {
	Generate(uid, email string) (string, error)
}

type authService struct {
	users  userAuthStore
	tokens tokenIssuer
}

func NewAuthService(users userAuthStore, tokens tokenIssuer) *authService {
	return &authService{users: users, tokens: tokens}
}

func (s *authService) Register(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return errs.NewValidationError("email and password are required")
	}

	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return errs.NewAlreadyExistsError("Email already registered")
	}
	var notFound *errs.NotFoundError
	if !errors.As(err, &notFound) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	user := &models.User{
		UID:          uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Institutions: []models.LinkedInstitution{},
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	log.Info("user registered", "uid", user.UID)
	return nil
}

// Login verifies credentials and returns a signed bearer token. Lookup and
// password failures collapse into one unauthorized error so the response
// does not reveal which half was wrong.
func (s *authService) Login(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", errs.NewValidationError("email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		var notFound *errs.NotFoundError
		if errors.As(err, &notFound) {
			return "", errs.NewUnauthorizedError("Invalid email or password")
		}
		return "", err
	}

	if err := auth.VerifyPassword(user.PasswordHash, password); err != nil {
		return "", errs.NewUnauthorizedError("Invalid email or password")
	}

	token, err := s.tokens.Generate(user.UID, user.Email)
	if err != nil {
		return "", err
	}

	log := logger.FromContext(ctx)
	log.Info("user logged in", "uid", user.UID)
	return token, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
