package services

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/pocketfolio/finance-backend/internal/errs"
	"github.com/pocketfolio/finance-backend/internal/models"
	"github.com/pocketfolio/finance-backend/pkg/helpers"
)

// --- fakes ---

type fakeAggClient struct {
	mu sync.Mutex

	txsByItem      map[string][]models.Transaction
	accountsByItem map[string][]models.Account
	failItem       string
	err            error

	txCalls      int
	accountCalls int
	gotRanges    [][2]string
}

func (f *fakeAggClient) GetTransactions(ctx context.Context, itemID, accessToken, startDate, endDate string) ([]models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txCalls++
	f.gotRanges = append(f.gotRanges, [2]string{startDate, endDate})
	if f.failItem == itemID && f.err != nil {
		return nil, f.err
	}
	return f.txsByItem[itemID], nil
}

func (f *fakeAggClient) GetAccounts(ctx context.Context, itemID, accessToken string) ([]models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accountCalls++
	if f.failItem == itemID && f.err != nil {
		return nil, f.err
	}
	return f.accountsByItem[itemID], nil
}

type fakeUserStore struct {
	user *models.User
	err  error
}

func (f *fakeUserStore) Get(ctx context.Context, uid string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func twoInstitutionUser() *models.User {
	return &models.User{
		UID: "uid-1",
		Institutions: []models.LinkedInstitution{
			{ItemID: "item-a", AccessToken: "at-a", InstitutionName: "Bank A"},
			{ItemID: "item-b", AccessToken: "at-b", InstitutionName: "Bank B"},
		},
	}
}

// --- FetchTransactions ---

func TestFetchTransactionsGroupsByDate(t *testing.T) {
	client := &fakeAggClient{
		txsByItem: map[string][]models.Transaction{
			"item-a": {
				{TransactionID: "t1", Date: "2024-06-01", Amount: 50},
				{TransactionID: "t2", Date: "2024-06-01", Amount: -20},
			},
			"item-b": {
				{TransactionID: "t3", Date: "2024-06-02", Amount: 30},
			},
		},
	}
	svc := NewAggregationService(client, &fakeUserStore{user: twoInstitutionUser()})

	got, err := svc.FetchTransactions(helpers.TestCtx(), "uid-1", "2024-06-01", "2024-06-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Total != 3 {
		t.Fatalf("total = %d, want 3", got.Total)
	}
	if len(got.Transactions) != 2 {
		t.Fatalf("expected 2 date groups, got %d", len(got.Transactions))
	}
	if len(got.Transactions["2024-06-01"]) != 2 || len(got.Transactions["2024-06-02"]) != 1 {
		t.Fatalf("unexpected grouping: %+v", got.Transactions)
	}
	if got.Transactions["2024-06-01"][0].TransactionID != "t1" {
		t.Fatalf("expected institution list order preserved inside group, got %+v", got.Transactions["2024-06-01"])
	}

	// total equals the sum of group sizes
	sum := 0
	for _, g := range got.Transactions {
		sum += len(g)
	}
	if sum != got.Total {
		t.Fatalf("sum of group sizes = %d, total = %d", sum, got.Total)
	}
}

func TestFetchTransactionsIdempotent(t *testing.T) {
	client := &fakeAggClient{
		txsByItem: map[string][]models.Transaction{
			"item-a": {{TransactionID: "t1", Date: "2024-06-01", Amount: 50}},
			"item-b": {{TransactionID: "t3", Date: "2024-06-02", Amount: 30}},
		},
	}
	svc := NewAggregationService(client, &fakeUserStore{user: twoInstitutionUser()})

	first, err := svc.FetchTransactions(helpers.TestCtx(), "uid-1", "2024-06-01", "2024-06-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.FetchTransactions(helpers.TestCtx(), "uid-1", "2024-06-01", "2024-06-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("results differ across identical calls:\n%+v\n%+v", first, second)
	}
}

func TestFetchTransactionsEmptyInstitutions(t *testing.T) {
	client := &fakeAggClient{}
	svc := NewAggregationService(client, &fakeUserStore{user: &models.User{UID: "uid-1"}})

	got, err := svc.FetchTransactions(helpers.TestCtx(), "uid-1", "2024-06-01", "2024-06-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Total != 0 || got.Transactions == nil || len(got.Transactions) != 0 {
		t.Fatalf("expected empty map and zero total, got %+v", got)
	}
	if client.txCalls != 0 {
		t.Fatalf("expected no upstream calls, got %d", client.txCalls)
	}
}

func TestFetchTransactionsMissingRange(t *testing.T) {
	svc := NewAggregationService(&fakeAggClient{}, &fakeUserStore{user: twoInstitutionUser()})

	_, err := svc.FetchTransactions(helpers.TestCtx(), "uid-1", "", "2024-06-02")
	var verr *errs.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	_, err = svc.FetchTransactions(helpers.TestCtx(), "uid-1", "2024-06-01", "not-a-date")
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestFetchTransactionsFailsWhenOneInstitutionFails(t *testing.T) {
	upstreamErr := errs.NewExternalServiceError("plaid", "item revoked", false)
	client := &fakeAggClient{
		txsByItem: map[string][]models.Transaction{
			"item-a": {{TransactionID: "t1", Date: "2024-06-01", Amount: 50}},
		},
		failItem: "item-b",
		err:      upstreamErr,
	}
	svc := NewAggregationService(client, &fakeUserStore{user: twoInstitutionUser()})

	_, err := svc.FetchTransactions(helpers.TestCtx(), "uid-1", "2024-06-01", "2024-06-02")
	var serr *errs.ExternalServiceError
	if !errors.As(err, &serr) {
		t.Fatalf("expected aggregate upstream failure, got %v", err)
	}
}

func TestFetchTransactionsUserNotFound(t *testing.T) {
	svc := NewAggregationService(&fakeAggClient{}, &fakeUserStore{err: errs.NewNotFoundError("User not found")})

	_, err := svc.FetchTransactions(helpers.TestCtx(), "uid-missing", "2024-06-01", "2024-06-02")
	var nferr *errs.NotFoundError
	if !errors.As(err, &nferr) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

// --- SummarizeSpend ---

func summaryServiceAt(client *fakeAggClient, user *models.User, asOf string) *aggregationService {
	svc := NewAggregationService(client, &fakeUserStore{user: user})
	svc.clockNow = func() time.Time {
		t, _ := time.Parse(dateLayout, asOf)
		return t
	}
	return svc
}

func TestSummarizeSpendTwoInstitutions(t *testing.T) {
	// asOf 2024-06-02 is a Sunday; its week opens on Sunday 2024-05-26.
	client := &fakeAggClient{
		txsByItem: map[string][]models.Transaction{
			"item-a": {
				{Date: "2024-06-01", Amount: 50},
				{Date: "2024-06-01", Amount: -20},
			},
			"item-b": {
				{Date: "2024-06-02", Amount: 30},
			},
		},
	}
	svc := summaryServiceAt(client, twoInstitutionUser(), "2024-06-02")

	got, err := svc.SummarizeSpend(helpers.TestCtx(), "uid-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Day != 30 || got.Week != 80 || got.Month != 80 || got.YTD != 80 {
		t.Fatalf("summary = %+v, want day=30 week=80 month=80 ytd=80", got)
	}

	// one year-to-date fetch per institution, not one per window
	if client.txCalls != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", client.txCalls)
	}
	for _, r := range client.gotRanges {
		if r[0] != "2024-01-01" || r[1] != "2024-06-02" {
			t.Fatalf("expected range 2024-01-01..2024-06-02, got %v", r)
		}
	}
}

func TestSummarizeSpendNegativeAmountsIgnored(t *testing.T) {
	client := &fakeAggClient{
		txsByItem: map[string][]models.Transaction{
			"item-a": {
				{Date: "2024-06-02", Amount: -10},
				{Date: "2024-06-01", Amount: -99.5},
			},
		},
	}
	user := &models.User{UID: "uid-1", Institutions: []models.LinkedInstitution{{ItemID: "item-a", AccessToken: "at-a"}}}
	svc := summaryServiceAt(client, user, "2024-06-02")

	got, err := svc.SummarizeSpend(helpers.TestCtx(), "uid-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Day != 0 || got.Week != 0 || got.Month != 0 || got.YTD != 0 {
		t.Fatalf("negative amounts must not contribute, got %+v", got)
	}
}

func TestSummarizeSpendWindowStartInclusive(t *testing.T) {
	client := &fakeAggClient{
		txsByItem: map[string][]models.Transaction{
			"item-a": {
				{Date: "2024-05-26", Amount: 5}, // week start
				{Date: "2024-06-01", Amount: 7}, // month start
				{Date: "2024-01-01", Amount: 11}, // year start
			},
		},
	}
	user := &models.User{UID: "uid-1", Institutions: []models.LinkedInstitution{{ItemID: "item-a", AccessToken: "at-a"}}}
	svc := summaryServiceAt(client, user, "2024-06-02")

	got, err := svc.SummarizeSpend(helpers.TestCtx(), "uid-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Week != 12 { // 5 + 7
		t.Fatalf("week = %v, want 12 (start boundary inclusive)", got.Week)
	}
	if got.Month != 7 {
		t.Fatalf("month = %v, want 7", got.Month)
	}
	if got.YTD != 23 {
		t.Fatalf("ytd = %v, want 23", got.YTD)
	}
}

func TestSummarizeSpendTodayCountsInAllWindows(t *testing.T) {
	client := &fakeAggClient{
		txsByItem: map[string][]models.Transaction{
			"item-a": {{Date: "2024-06-05", Amount: 42}},
		},
	}
	user := &models.User{UID: "uid-1", Institutions: []models.LinkedInstitution{{ItemID: "item-a", AccessToken: "at-a"}}}
	svc := summaryServiceAt(client, user, "2024-06-05")

	got, err := svc.SummarizeSpend(helpers.TestCtx(), "uid-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Day != 42 || got.Week != 42 || got.Month != 42 || got.YTD != 42 {
		t.Fatalf("a same-day transaction must hit all four windows, got %+v", got)
	}
}

func TestSummarizeSpendDecimalAccumulation(t *testing.T) {
	// 0.1 three times must sum to exactly 0.3, not 0.30000000000000004.
	client := &fakeAggClient{
		txsByItem: map[string][]models.Transaction{
			"item-a": {
				{Date: "2024-06-05", Amount: 0.1},
				{Date: "2024-06-05", Amount: 0.1},
				{Date: "2024-06-05", Amount: 0.1},
			},
		},
	}
	user := &models.User{UID: "uid-1", Institutions: []models.LinkedInstitution{{ItemID: "item-a", AccessToken: "at-a"}}}
	svc := summaryServiceAt(client, user, "2024-06-05")

	got, err := svc.SummarizeSpend(helpers.TestCtx(), "uid-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Day != 0.3 {
		t.Fatalf("day = %v, want exactly 0.3", got.Day)
	}
}

func TestSummarizeSpendEmptyInstitutions(t *testing.T) {
	client := &fakeAggClient{}
	svc := summaryServiceAt(client, &models.User{UID: "uid-1"}, "2024-06-02")

	got, err := svc.SummarizeSpend(helpers.TestCtx(), "uid-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Day != 0 || got.Week != 0 || got.Month != 0 || got.YTD != 0 {
		t.Fatalf("expected zero summary, got %+v", got)
	}
	if client.txCalls != 0 {
		t.Fatalf("expected no upstream calls, got %d", client.txCalls)
	}
}

func TestSummarizeSpendPropagatesUpstreamError(t *testing.T) {
	client := &fakeAggClient{
		failItem: "item-a",
		err:      errs.NewExternalServiceError("plaid", "timeout", true),
	}
	user := &models.User{UID: "uid-1", Institutions: []models.LinkedInstitution{{ItemID: "item-a", AccessToken: "at-a"}}}
	svc := summaryServiceAt(client, user, "2024-06-02")

	_, err := svc.SummarizeSpend(helpers.TestCtx(), "uid-1")
	var serr *errs.ExternalServiceError
	if !errors.As(err, &serr) || !serr.Transient {
		t.Fatalf("expected transient upstream error, got %v", err)
	}
}

// --- ListAccounts ---

func TestListAccountsConcatenatesInOrder(t *testing.T) {
	client := &fakeAggClient{
		accountsByItem: map[string][]models.Account{
			"item-a": {{AccountID: "acc-1", ItemID: "item-a", Balances: models.AccountBalance{Available: helpers.Ptr(120.50)}}},
			"item-b": {{AccountID: "acc-2", ItemID: "item-b"}},
		},
	}
	svc := NewAggregationService(client, &fakeUserStore{user: twoInstitutionUser()})

	got, err := svc.ListAccounts(helpers.TestCtx(), "uid-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Accounts) != 2 || got.Accounts[0].AccountID != "acc-1" || got.Accounts[1].AccountID != "acc-2" {
		t.Fatalf("unexpected accounts: %+v", got.Accounts)
	}
	if helpers.Value(got.Accounts[0].Balances.Available) != 120.50 {
		t.Fatalf("balances must pass through unmodified, got %+v", got.Accounts[0].Balances)
	}
	if client.accountCalls != 2 {
		t.Fatalf("expected one upstream call per institution, got %d", client.accountCalls)
	}
}

// --- week anchoring ---

func TestStartOfWeek(t *testing.T) {
	cases := []struct {
		asOf, want string
	}{
		{"2024-06-02", "2024-05-26"}, // Sunday belongs to the week it closes
		{"2024-06-03", "2024-06-02"}, // Monday
		{"2024-06-05", "2024-06-02"}, // Wednesday
		{"2024-06-08", "2024-06-02"}, // Saturday
	}
	for _, c := range cases {
		asOf, _ := time.Parse(dateLayout, c.asOf)
		if got := startOfWeek(asOf).Format(dateLayout); got != c.want {
			t.Errorf("startOfWeek(%s) = %s, want %s", c.asOf, got, c.want)
		}
	}
}
