package request

// AppendTransactionRequest represents the payload for recording a ledger
// transaction. Amount is required for deposits and withdrawals (always given
// as a positive number). Ticker and Quantity are required for trades;
// PricePerShare is optional for trades and resolved from market data when
// omitted. Timestamp is optional RFC3339 and defaults to now; backdated
// timestamps are accepted.
type AppendTransactionRequest struct {
	Type          string  `json:"type"`
	Timestamp     string  `json:"timestamp,omitempty"`
	Amount        float64 `json:"amount,omitempty"`
	Ticker        string  `json:"ticker,omitempty"`
	Quantity      float64 `json:"quantity,omitempty"`
	PricePerShare float64 `json:"pricePerShare,omitempty"`
	Notes         string  `json:"notes,omitempty"`
}
