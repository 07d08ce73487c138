package etherscan

// Transaction is one entry of the Etherscan account/txlist (external
// transactions) or account/txlistinternal (internal transfers) response.
// The two actions share most fields; internal entries carry a TraceID and
// no receipt status or gas accounting of their own.
type Transaction struct {
	BlockNumber     string `json:"blockNumber"`
	TimeStamp       string `json:"timeStamp"`
	Hash            string `json:"hash"`
	From            string `json:"from"`
	To              string `json:"to"`
	Value           string `json:"value"`
	Gas             string `json:"gas,omitempty"`
	GasPrice        string `json:"gasPrice,omitempty"`
	GasUsed         string `json:"gasUsed,omitempty"`
	Input           string `json:"input,omitempty"`
	ContractAddress string `json:"contractAddress,omitempty"`
	IsError         string `json:"isError,omitempty"`
	TxReceiptStatus string `json:"txreceipt_status,omitempty"`

	// TraceID is only present on internal transfer entries
	TraceID string `json:"traceId,omitempty"`

	// Decoded token transfer details, joined by the connector from the
	// account/tokentx action for transactions that moved ERC-20 tokens
	// (DEX swaps in particular). Empty when no token movement matched.
	TokenSymbol  string `json:"tokenSymbol,omitempty"`
	TokenDecimal string `json:"tokenDecimal,omitempty"`
	TokenValue   string `json:"tokenValue,omitempty"`
}

// Internal reports whether this entry came from the internal transfer list
func (t *Transaction) Internal() bool {
	return t.TraceID != ""
}

// response is the Etherscan API envelope
type response struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Result  []Transaction `json:"result"`
}
