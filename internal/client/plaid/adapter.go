package plaidclient

import (
	"context"
	"errors"
	"time"

	"github.com/plaid/plaid-go/v24/plaid"

	"github.com/pocketfolio/finance-backend/internal/dto"
	"github.com/pocketfolio/finance-backend/internal/errs"
	"github.com/pocketfolio/finance-backend/internal/models"
)

const (
	serviceName = "plaid"
	pageSize    = 500
)

// Adapter wraps the Plaid SDK. One instance is constructed at bootstrap and
// injected into the services that need it; there is no package-level client.
type Adapter struct {
	client  *plaid.APIClient
	timeout time.Duration
}

func NewAdapter(clientID, secret string, env dto.PlaidEnvironment, timeout time.Duration) *Adapter {
	cfg := plaid.NewConfiguration()
	cfg.AddDefaultHeader("PLAID-CLIENT-ID", clientID)
	cfg.AddDefaultHeader("PLAID-SECRET", secret)
	cfg.UseEnvironment(toPlaidEnv(env))

	return &Adapter{
		client:  plaid.NewAPIClient(cfg),
		timeout: timeout,
	}
}

func (a *Adapter) CreateLinkToken(ctx context.Context, uid string) (dto.LinkToken, error) {
	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	req := plaid.NewLinkTokenCreateRequest(
		"Personal Finance App",
		"en",
		[]plaid.CountryCode{plaid.COUNTRYCODE_US},
		plaid.LinkTokenCreateRequestUser{ClientUserId: uid},
	)
	req.SetProducts([]plaid.Products{plaid.PRODUCTS_TRANSACTIONS})

	resp, _, err := a.client.PlaidApi.LinkTokenCreate(ctx).LinkTokenCreateRequest(*req).Execute()
	if err != nil {
		return dto.LinkToken{}, wrapErr(err)
	}
	return dto.LinkToken{
		LinkToken:  resp.GetLinkToken(),
		Expiration: resp.GetExpiration(),
		RequestID:  resp.GetRequestId(),
	}, nil
}

func (a *Adapter) ExchangePublicToken(ctx context.Context, publicToken string) (itemID, accessToken string, err error) {
	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	req := plaid.NewItemPublicTokenExchangeRequest(publicToken)
	resp, _, err := a.client.PlaidApi.ItemPublicTokenExchange(ctx).ItemPublicTokenExchangeRequest(*req).Execute()
	if err != nil {
		return "", "", wrapErr(err)
	}
	return resp.GetItemId(), resp.GetAccessToken(), nil
}

// GetTransactions fetches every transaction in the inclusive date range,
// paging through /transactions/get until the reported total is reached.
func (a *Adapter) GetTransactions(ctx context.Context, itemID, accessToken, startDate, endDate string) ([]models.Transaction, error) {
	var txs []models.Transaction

	for {
		callCtx, cancel := a.callCtx(ctx)

		req := plaid.NewTransactionsGetRequest(accessToken, startDate, endDate)
		opts := plaid.NewTransactionsGetRequestOptions()
		opts.SetCount(pageSize)
		opts.SetOffset(int32(len(txs)))
		req.SetOptions(*opts)

		resp, _, err := a.client.PlaidApi.TransactionsGet(callCtx).TransactionsGetRequest(*req).Execute()
		cancel()
		if err != nil {
			return nil, wrapErr(err)
		}

		for _, t := range resp.GetTransactions() {
			txs = append(txs, convertTransaction(itemID, t))
		}
		if len(txs) >= int(resp.GetTotalTransactions()) || len(resp.GetTransactions()) == 0 {
			return txs, nil
		}
	}
}

func (a *Adapter) GetAccounts(ctx context.Context, itemID, accessToken string) ([]models.Account, error) {
	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	req := plaid.NewAccountsGetRequest(accessToken)
	resp, _, err := a.client.PlaidApi.AccountsGet(ctx).AccountsGetRequest(*req).Execute()
	if err != nil {
		return nil, wrapErr(err)
	}

	accounts := make([]models.Account, 0, len(resp.GetAccounts()))
	for _, acc := range resp.GetAccounts() {
		accounts = append(accounts, convertAccount(itemID, acc))
	}
	return accounts, nil
}

func (a *Adapter) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, a.timeout)
}

func convertTransaction(itemID string, t plaid.Transaction) models.Transaction {
	pfc := t.GetPersonalFinanceCategory()
	return models.Transaction{
		TransactionID: t.GetTransactionId(),
		AccountID:     t.GetAccountId(),
		ItemID:        itemID,
		Name:          t.GetName(),
		MerchantName:  t.GetMerchantName(),
		Amount:        t.GetAmount(),
		Currency:      t.GetIsoCurrencyCode(),
		Pending:       t.GetPending(),
		Date:          t.GetDate(),
		Categories:    t.GetCategory(),
		PFCPrimary:    pfc.GetPrimary(),
		PFCDetailed:   pfc.GetDetailed(),
	}
}

func convertAccount(itemID string, acc plaid.AccountBase) models.Account {
	bal := acc.GetBalances()
	out := models.Account{
		AccountID:    acc.GetAccountId(),
		ItemID:       itemID,
		Name:         acc.GetName(),
		OfficialName: acc.GetOfficialName(),
		Mask:         acc.GetMask(),
		Type:         string(acc.GetType()),
		Subtype:      string(acc.GetSubtype()),
		Balances: models.AccountBalance{
			Currency: bal.GetIsoCurrencyCode(),
		},
	}
	if v, ok := bal.GetAvailableOk(); ok {
		out.Balances.Available = v
	}
	if v, ok := bal.GetCurrentOk(); ok {
		out.Balances.Current = v
	}
	if v, ok := bal.GetLimitOk(); ok {
		out.Balances.Limit = v
	}
	return out
}

// wrapErr keeps upstream detail inside the error for server-side logging;
// the response layer replaces it with a generic message before it reaches a
// client.
func wrapErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return errs.NewExternalServiceError(serviceName, "plaid call exceeded deadline", true)
	}
	return errs.NewExternalServiceError(serviceName, err.Error(), false)
}

func toPlaidEnv(env dto.PlaidEnvironment) plaid.Environment {
	switch env {
	case dto.PlaidProduction:
		return plaid.Production
	default:
		return plaid.Sandbox
	}
}
