package etherscan

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/flowledger/crypto-tracker/internal/adapter"
	"github.com/flowledger/crypto-tracker/internal/domain"
)

const PROVIDER_NAME = "etherscan"

// Client defines the interface for the blockchain explorer connector.
// It supplies raw payloads only; normalization happens in the core.
//
//go:generate mockgen -source=client.go -destination=../../mocks/etherscan_client.go -package=mocks -mock_names=Client=MockEtherscanClient
type Client interface {
	// AddressTransactions fetches all external and internal transactions
	// for an address as raw payloads, oldest first
	AddressTransactions(ctx context.Context, address string) ([]domain.RawPayload, error)
}

// Config holds the connector configuration
type Config struct {
	APIURL            string
	APIKey            string
	RequestsPerSecond float64
	StartBlock        uint64
	EndBlock          uint64
}

type client struct {
	httpClient adapter.HTTPClient
	json       adapter.JSON
	limiter    *rate.Limiter
	config     Config
}

// NewClient creates a new Etherscan client. Requests are throttled locally
// to stay inside the provider's rate limit (5 req/s on the free tier).
func NewClient(httpClient adapter.HTTPClient, jsonAdapter adapter.JSON, cfg Config) Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	if cfg.EndBlock == 0 {
		cfg.EndBlock = 99999999
	}
	return &client{
		httpClient: httpClient,
		json:       jsonAdapter,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		config:     cfg,
	}
}

// AddressTransactions fetches external transactions, internal transfers and
// ERC-20 token movements for an address, joins decoded token details onto
// the external entries by hash, and returns everything as raw payloads.
func (c *client) AddressTransactions(ctx context.Context, address string) ([]domain.RawPayload, error) {
	external, err := c.fetch(ctx, "txlist", address)
	if err != nil {
		return nil, err
	}

	internal, err := c.fetch(ctx, "txlistinternal", address)
	if err != nil {
		return nil, err
	}

	tokenTransfers, err := c.fetch(ctx, "tokentx", address)
	if err != nil {
		return nil, err
	}

	// Join decoded token movement onto the external transaction that
	// produced it, so the DEX normalizer can see both legs of a swap
	// without doing any I/O of its own.
	tokenByHash := make(map[string]Transaction, len(tokenTransfers))
	for _, tt := range tokenTransfers {
		tokenByHash[strings.ToLower(tt.Hash)] = tt
	}
	for i := range external {
		tt, ok := tokenByHash[strings.ToLower(external[i].Hash)]
		if !ok {
			continue
		}
		external[i].TokenSymbol = tt.TokenSymbol
		external[i].TokenDecimal = tt.TokenDecimal
		external[i].TokenValue = tt.Value
	}

	payloads := make([]domain.RawPayload, 0, len(external)+len(internal))
	for i := range external {
		payload, err := c.toPayload(&external[i])
		if err != nil {
			return nil, err
		}
		payloads = append(payloads, payload)
	}
	for i := range internal {
		payload, err := c.toPayload(&internal[i])
		if err != nil {
			return nil, err
		}
		payloads = append(payloads, payload)
	}

	return payloads, nil
}

func (c *client) toPayload(tx *Transaction) (domain.RawPayload, error) {
	data, err := c.json.Marshal(tx)
	if err != nil {
		return domain.RawPayload{}, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return domain.RawPayload{
		Source: domain.SourceBlockchain,
		Ref:    tx.Hash,
		Data:   data,
	}, nil
}

// fetch performs one Etherscan account module action
func (c *client) fetch(ctx context.Context, action string, address string) ([]Transaction, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", action)
	params.Set("address", address)
	params.Set("startblock", strconv.FormatUint(c.config.StartBlock, 10))
	params.Set("endblock", strconv.FormatUint(c.config.EndBlock, 10))
	params.Set("sort", "asc")
	params.Set("apikey", c.config.APIKey)

	requestURL := fmt.Sprintf("%s?%s", c.config.APIURL, params.Encode())

	var resp response
	if err := c.httpClient.Get(ctx, requestURL, nil, &resp); err != nil {
		return nil, fmt.Errorf("%w: etherscan %s: %s", domain.ErrUpstreamUnavailable, action, err)
	}

	// Etherscan reports "no transactions found" as status 0; that is an
	// empty result, not a failure.
	if resp.Status != "1" && !strings.Contains(strings.ToLower(resp.Message), "no transactions") {
		return nil, fmt.Errorf("%w: etherscan %s: %s", domain.ErrUpstreamUnavailable, action, resp.Message)
	}

	return resp.Result, nil
}
