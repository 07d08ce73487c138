package mocks

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/flowledger/crypto-tracker/internal/domain"
)

// EtherscanClient is a canned-response etherscan.Client
type EtherscanClient struct {
	Payloads []domain.RawPayload
	Err      error

	// Addresses records every address queried
	Addresses []string
}

// AddressTransactions returns the canned payloads
func (c *EtherscanClient) AddressTransactions(_ context.Context, address string) ([]domain.RawPayload, error) {
	c.Addresses = append(c.Addresses, address)
	if c.Err != nil {
		return nil, c.Err
	}
	return c.Payloads, nil
}

// CoinbaseClient is a canned-response coinbase.Client
type CoinbaseClient struct {
	Payloads []domain.RawPayload
	Err      error
}

// AccountTransactions returns the canned payloads
func (c *CoinbaseClient) AccountTransactions(_ context.Context) ([]domain.RawPayload, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	return c.Payloads, nil
}

// EthereumClient is a canned-response node ethereum.Client
type EthereumClient struct {
	BalanceResult decimal.Decimal
	Payload       *domain.RawPayload
	Err           error
}

// Balance returns the canned balance
func (c *EthereumClient) Balance(_ context.Context, _ string) (decimal.Decimal, error) {
	if c.Err != nil {
		return decimal.Zero, c.Err
	}
	return c.BalanceResult, nil
}

// TransactionPayload returns the canned payload
func (c *EthereumClient) TransactionPayload(_ context.Context, _ string) (*domain.RawPayload, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	return c.Payload, nil
}

// Close is a no-op
func (c *EthereumClient) Close() {}
