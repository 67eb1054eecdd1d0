package dto

import (
	"time"
)

// LinkToken is the /link/token/create response passed through to the client.
type LinkToken struct {
	LinkToken  string    `json:"link_token"`
	Expiration time.Time `json:"expiration"`
	RequestID  string    `json:"request_id"`
}

type PlaidEnvironment string

const (
	PlaidSandbox    PlaidEnvironment = "sandbox"
	PlaidProduction PlaidEnvironment = "production"
)
