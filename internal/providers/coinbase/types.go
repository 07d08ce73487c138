package coinbase

// Money is an amount/currency pair as Coinbase reports it. The amount is a
// signed decimal string (negative for outgoing).
type Money struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// Account is one entry of the accounts listing
type Account struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Currency struct {
		Code string `json:"code"`
	} `json:"currency"`
}

// Transaction is one entry of an account's transaction listing
type Transaction struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Status       string `json:"status"`
	Amount       Money  `json:"amount"`
	NativeAmount Money  `json:"native_amount"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at,omitempty"`
	Details      struct {
		Title    string `json:"title"`
		Subtitle string `json:"subtitle"`
	} `json:"details"`
}

// accountsResponse is the envelope of the accounts endpoint
type accountsResponse struct {
	Data []Account `json:"data"`
}

// transactionsResponse is the envelope of the account transactions endpoint
type transactionsResponse struct {
	Data []Transaction `json:"data"`
}
