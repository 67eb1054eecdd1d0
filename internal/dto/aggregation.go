package dto

import "github.com/pocketfolio/finance-backend/internal/models"

// GroupedTransactions maps calendar date (YYYY-MM-DD) to the transactions on
// that date, concatenated across all of the user's linked institutions.
type GroupedTransactions struct {
	Transactions map[string][]models.Transaction `json:"transactions"`
	Total        int                             `json:"total"`
}

// SpendSummary holds outflow sums for four windows anchored to the summary's
// as-of date. Values are accumulated with decimals and converted at the
// boundary.
type SpendSummary struct {
	Day   float64 `json:"day"`
	Week  float64 `json:"week"`
	Month float64 `json:"month"`
	YTD   float64 `json:"ytd"`
}

type AccountList struct {
	Accounts []models.Account `json:"accounts"`
}
