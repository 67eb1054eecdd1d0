package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/pocketfolio/finance-backend/internal/dto"
	"github.com/pocketfolio/finance-backend/internal/errs"
	"github.com/pocketfolio/finance-backend/internal/models"
	"github.com/pocketfolio/finance-backend/pkg/logger"
)

const dateLayout = "2006-01-02"

// aggregationClient is the adapter surface used for per-institution reads.
type aggregationClient interface {
	GetTransactions(ctx context.Context, itemID, accessToken, startDate, endDate string) ([]models.Transaction, error)
	GetAccounts(ctx context.Context, itemID, accessToken string) ([]models.Account, error)
}

type userAGStore interface {
	Get(ctx context.Context, uid string) (*models.User, error)
}

type aggregationService struct {
	plaid    aggregationClient
	users    userAGStore
	clockNow func() time.Time
}

func NewAggregationService(plaid aggregationClient, users userAGStore) *aggregationService {
	return &aggregationService{
		plaid:    plaid,
		users:    users,
		clockNow: time.Now,
	}
}

// FetchTransactions pulls every linked institution's transactions for the
// inclusive date range and groups them by date. The fan-out runs
// concurrently but results are merged in institution list order, so the
// output is deterministic for an unchanged upstream. Any single institution
// failure fails the whole call.
func (s *aggregationService) FetchTransactions(ctx context.Context, uid, startDate, endDate string) (dto.GroupedTransactions, error) {
	result := dto.GroupedTransactions{Transactions: map[string][]models.Transaction{}}

	if err := validateRange(startDate, endDate); err != nil {
		return result, err
	}

	user, err := s.users.Get(ctx, uid)
	if err != nil {
		return result, err
	}

	perInstitution, err := s.fetchAll(ctx, user.Institutions, startDate, endDate)
	if err != nil {
		return result, err
	}

	for _, txs := range perInstitution {
		for _, tx := range txs {
			result.Transactions[tx.Date] = append(result.Transactions[tx.Date], tx)
			result.Total++
		}
	}

	log := logger.FromContext(ctx)
	log.Info("transactions fetched", "institutions", len(user.Institutions), "total", result.Total)
	return result, nil
}

// SummarizeSpend computes outflow sums for four windows ending at the
// current date. One year-to-date fetch per institution covers all windows.
//
// Sign convention: positive amounts count as spend and negative amounts are
// skipped. Plaid reports debits as positive, so this matches the upstream
// data even though it reads backwards against ledger convention.
func (s *aggregationService) SummarizeSpend(ctx context.Context, uid string) (dto.SpendSummary, error) {
	user, err := s.users.Get(ctx, uid)
	if err != nil {
		return dto.SpendSummary{}, err
	}

	asOf := s.clockNow()
	today := asOf.Format(dateLayout)
	weekStart := startOfWeek(asOf).Format(dateLayout)
	monthStart := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, asOf.Location()).Format(dateLayout)
	yearStart := time.Date(asOf.Year(), time.January, 1, 0, 0, 0, 0, asOf.Location()).Format(dateLayout)

	perInstitution, err := s.fetchAll(ctx, user.Institutions, yearStart, today)
	if err != nil {
		return dto.SpendSummary{}, err
	}

	var day, week, month, ytd decimal.Decimal
	for _, txs := range perInstitution {
		for _, tx := range txs {
			if tx.Amount < 0 {
				continue
			}
			amount := decimal.NewFromFloat(tx.Amount).Abs()

			// Dates are YYYY-MM-DD strings, so lexicographic comparison is
			// chronological. Window starts are inclusive.
			if tx.Date == today {
				day = day.Add(amount)
			}
			if tx.Date >= weekStart {
				week = week.Add(amount)
			}
			if tx.Date >= monthStart {
				month = month.Add(amount)
			}
			if tx.Date >= yearStart {
				ytd = ytd.Add(amount)
			}
		}
	}

	return dto.SpendSummary{
		Day:   day.InexactFloat64(),
		Week:  week.InexactFloat64(),
		Month: month.InexactFloat64(),
		YTD:   ytd.InexactFloat64(),
	}, nil
}

// ListAccounts returns every linked institution's accounts concatenated in
// institution list order.
func (s *aggregationService) ListAccounts(ctx context.Context, uid string) (dto.AccountList, error) {
	result := dto.AccountList{Accounts: []models.Account{}}

	user, err := s.users.Get(ctx, uid)
	if err != nil {
		return result, err
	}

	perInstitution, err := fanOut(ctx, user.Institutions, func(ctx context.Context, inst models.LinkedInstitution) ([]models.Account, error) {
		return s.plaid.GetAccounts(ctx, inst.ItemID, inst.AccessToken)
	})
	if err != nil {
		return result, err
	}

	for _, accounts := range perInstitution {
		result.Accounts = append(result.Accounts, accounts...)
	}
	return result, nil
}

func (s *aggregationService) fetchAll(ctx context.Context, insts []models.LinkedInstitution, startDate, endDate string) ([][]models.Transaction, error) {
	return fanOut(ctx, insts, func(ctx context.Context, inst models.LinkedInstitution) ([]models.Transaction, error) {
		return s.plaid.GetTransactions(ctx, inst.ItemID, inst.AccessToken, startDate, endDate)
	})
}

// fanOut runs fetch once per institution concurrently and returns the
// results indexed by institution list position. The first failure cancels
// the remaining calls and surfaces as the aggregate error.
func fanOut[T any](ctx context.Context, insts []models.LinkedInstitution, fetch func(ctx context.Context, inst models.LinkedInstitution) ([]T, error)) ([][]T, error) {
	results := make([][]T, len(insts))
	g, ctx := errgroup.WithContext(ctx)
	for i, inst := range insts {
		g.Go(func() error {
			out, err := fetch(ctx, inst)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// startOfWeek returns the Sunday that opens asOf's week. A Sunday belongs to
// the week it closes, so the result is always strictly before asOf.
func startOfWeek(asOf time.Time) time.Time {
	offset := int(asOf.Weekday())
	if offset == 0 {
		offset = 7
	}
	return asOf.AddDate(0, 0, -offset)
}

func validateRange(startDate, endDate string) error {
	if startDate == "" || endDate == "" {
		return errs.NewValidationError("startDate and endDate are required")
	}
	if _, err := time.Parse(dateLayout, startDate); err != nil {
		return errs.NewValidationError("startDate must be YYYY-MM-DD")
	}
	if _, err := time.Parse(dateLayout, endDate); err != nil {
		return errs.NewValidationError("endDate must be YYYY-MM-DD")
	}
	return nil
}
