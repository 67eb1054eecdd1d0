package models

type Transaction struct {
	TransactionID string   `json:"transactionId"` // Plaid transaction_id
	AccountID     string   `json:"accountId"`
	ItemID        string   `json:"itemId"` // Plaid item_id of the owning institution
	Name          string   `json:"name"`
	MerchantName  string   `json:"merchantName,omitempty"`
	Amount        float64  `json:"amount"`
	Currency      string   `json:"currency"`
	Pending       bool     `json:"pending"`
	Date          string   `json:"date"` // YYYY-MM-DD as Plaid returns
	Categories    []string `json:"categories,omitempty"`
	PFCPrimary    string   `json:"pfcPrimary,omitempty"`
	PFCDetailed   string   `json:"pfcDetailed,omitempty"`
}
