package coinbase

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"github.com/flowledger/crypto-tracker/internal/adapter"
	"github.com/flowledger/crypto-tracker/internal/domain"
)

const (
	PROVIDER_NAME = "coinbase"

	// API version pin, sent on every request
	apiVersion = "2021-04-29"
)

var ErrNoCredentials = errors.New("coinbase API key and secret are required")

// Client defines the interface for the exchange connector.
// It supplies raw payloads only; normalization happens in the core.
//
//go:generate mockgen -source=client.go -destination=../../mocks/coinbase_client.go -package=mocks -mock_names=Client=MockCoinbaseClient
type Client interface {
	// AccountTransactions fetches the transactions of every account as raw payloads
	AccountTransactions(ctx context.Context) ([]domain.RawPayload, error)
}

// Config holds the connector configuration
type Config struct {
	APIURL    string
	APIKey    string
	APISecret string
}

type client struct {
	httpClient adapter.HTTPClient
	json       adapter.JSON
	clock      adapter.Clock
	config     Config
}

// NewClient creates a new Coinbase client
func NewClient(httpClient adapter.HTTPClient, jsonAdapter adapter.JSON, clock adapter.Clock, cfg Config) Client {
	return &client{
		httpClient: httpClient,
		json:       jsonAdapter,
		clock:      clock,
		config:     cfg,
	}
}

// AccountTransactions fetches the transactions of every account
func (c *client) AccountTransactions(ctx context.Context) ([]domain.RawPayload, error) {
	if c.config.APIKey == "" || c.config.APISecret == "" {
		return nil, ErrNoCredentials
	}

	var accounts accountsResponse
	if err := c.get(ctx, "/accounts", &accounts); err != nil {
		return nil, err
	}

	var payloads []domain.RawPayload
	for _, account := range accounts.Data {
		var txs transactionsResponse
		endpoint := fmt.Sprintf("/accounts/%s/transactions", account.ID)
		if err := c.get(ctx, endpoint, &txs); err != nil {
			return nil, err
		}

		for i := range txs.Data {
			data, err := c.json.Marshal(&txs.Data[i])
			if err != nil {
				return nil, fmt.Errorf("failed to marshal payload: %w", err)
			}
			payloads = append(payloads, domain.RawPayload{
				Source: domain.SourceCoinbase,
				Ref:    txs.Data[i].ID,
				Data:   data,
			})
		}
	}

	return payloads, nil
}

// get performs a signed GET request against the Coinbase API
func (c *client) get(ctx context.Context, endpoint string, result interface{}) error {
	timestamp := strconv.FormatInt(c.clock.Now().Unix(), 10)

	headers := map[string]string{
		"CB-ACCESS-KEY":       c.config.APIKey,
		"CB-ACCESS-SIGN":      c.sign(timestamp, "GET", "/v2"+endpoint, ""),
		"CB-ACCESS-TIMESTAMP": timestamp,
		"CB-VERSION":          apiVersion,
	}

	url := c.config.APIURL + endpoint
	if err := c.httpClient.Get(ctx, url, headers, result); err != nil {
		return fmt.Errorf("%w: coinbase %s: %s", domain.ErrUpstreamUnavailable, endpoint, err)
	}

	return nil
}

// sign computes the CB-ACCESS-SIGN header: HMAC-SHA256 over
// timestamp + method + requestPath + body
func (c *client) sign(timestamp, method, requestPath, body string) string {
	mac := hmac.New(sha256.New, []byte(c.config.APISecret))
	mac.Write([]byte(timestamp + method + requestPath + body))
	return hex.EncodeToString(mac.Sum(nil))
}
