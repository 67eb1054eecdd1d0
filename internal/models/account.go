package models

type Account struct {
	AccountID    string         `json:"accountId"`
	ItemID       string         `json:"itemId"`
	Name         string         `json:"name"`
	OfficialName string         `json:"officialName,omitempty"`
	Mask         string         `json:"mask,omitempty"`
	Type         string         `json:"type"`
	Subtype      string         `json:"subtype,omitempty"`
	Balances     AccountBalance `json:"balances"`
}

type AccountBalance struct {
	Available *float64 `json:"available"`
	Current   *float64 `json:"current"`
	Limit     *float64 `json:"limit,omitempty"`
	Currency  string   `json:"currency,omitempty"`
}
