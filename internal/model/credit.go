package model

// CreditBalance is the weekly booking allowance of one identity.
type CreditBalance struct {
	Email   string `json:"email"`
	Credits int    `json:"credits"`
}
