package request

// CreatePortfolioRequest represents the payload for creating a portfolio.
// Every portfolio starts with an initial cash deposit so that its ledger is
// never empty.
type CreatePortfolioRequest struct {
	Name           string  `json:"name"`
	Currency       string  `json:"currency"`
	InitialDeposit float64 `json:"initialDeposit"`
}
