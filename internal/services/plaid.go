package services

import (
	"context"
	"time"

	"github.com/pocketfolio/finance-backend/internal/dto"
	"github.com/pocketfolio/finance-backend/internal/errs"
	"github.com/pocketfolio/finance-backend/internal/models"
	"github.com/pocketfolio/finance-backend/pkg/logger"
)

// plaidLinkClient is the adapter surface used for the linking flow.
type plaidLinkClient interface {
	CreateLinkToken(ctx context.Context, uid string) (dto.LinkToken, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (itemID, accessToken string, err error)
}

type userPSStore interface {
	AppendInstitution(ctx context.Context, uid string, inst models.LinkedInstitution) error
}

type plaidService struct {
	plaid    plaidLinkClient
	users    userPSStore
	clockNow func() time.Time
}

func NewPlaidService(plaid plaidLinkClient, users userPSStore) *plaidService {
	return &plaidService{
		plaid:    plaid,
		users:    users,
		clockNow: time.Now,
	}
}

func (s *plaidService) CreateLinkToken(ctx context.Context, uid string) (dto.LinkToken, error) {
	return s.plaid.CreateLinkToken(ctx, uid)
}

// ExchangePublicToken swaps the short-lived public token for a long-lived
// access token and records the linkage on the user. The exchange is not
// idempotent upstream, so a failed append leaves an orphaned token at Plaid;
// the institution list itself is append-only and duplicate-tolerant.
func (s *plaidService) ExchangePublicToken(ctx context.Context, uid, publicToken, institutionID, institutionName string) error {
	if publicToken == "" {
		return errs.NewValidationError("publicToken is required")
	}

	itemID, accessToken, err := s.plaid.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return err
	}

	inst := models.LinkedInstitution{
		AccessToken:     accessToken,
		ItemID:          itemID,
		InstitutionID:   institutionID,
		InstitutionName: institutionName,
		LinkedAt:        s.clockNow(),
	}
	if err := s.users.AppendInstitution(ctx, uid, inst); err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	log.Info("institution linked", "item_id", itemID, "institution", institutionName)
	return nil
}
