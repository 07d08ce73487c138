package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"

	"github.com/flowledger/crypto-tracker/internal/adapter"
	"github.com/flowledger/crypto-tracker/internal/domain"
	"github.com/flowledger/crypto-tracker/internal/providers/etherscan"
)

// Client defines the interface for direct Ethereum node operations
//
//go:generate mockgen -source=client.go -destination=../../mocks/ethereum_client.go -package=mocks -mock_names=Client=MockEthereumClient
type Client interface {
	// Balance returns the ETH balance of an address
	Balance(ctx context.Context, address string) (decimal.Decimal, error)

	// TransactionPayload looks up a single transaction by hash and returns
	// it as a raw blockchain payload the normalizer understands
	TransactionPayload(ctx context.Context, hash string) (*domain.RawPayload, error)

	// Close closes the underlying connection
	Close()
}

type client struct {
	eth  adapter.EthClient
	json adapter.JSON
}

// NewClient creates a new node RPC client
func NewClient(eth adapter.EthClient, jsonAdapter adapter.JSON) Client {
	return &client{eth: eth, json: jsonAdapter}
}

// Balance returns the ETH balance of an address at the latest block
func (c *client) Balance(ctx context.Context, address string) (decimal.Decimal, error) {
	if !common.IsHexAddress(address) {
		return decimal.Zero, fmt.Errorf("invalid ethereum address %q", address)
	}

	wei, err := c.eth.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: balance lookup: %s", domain.ErrUpstreamUnavailable, err)
	}

	return domain.WeiToETH(wei), nil
}

// TransactionPayload looks up a single transaction by hash. The node data
// is reshaped into the same payload format the explorer connector emits,
// so a single normalizer covers both paths.
func (c *client) TransactionPayload(ctx context.Context, hash string) (*domain.RawPayload, error) {
	txHash := common.HexToHash(hash)

	tx, isPending, err := c.eth.TransactionByHash(ctx, txHash)
	if err != nil {
		return nil, fmt.Errorf("%w: transaction lookup: %s", domain.ErrUpstreamUnavailable, err)
	}

	from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return nil, fmt.Errorf("failed to recover sender: %w", err)
	}

	entry := etherscan.Transaction{
		Hash:     tx.Hash().Hex(),
		From:     from.Hex(),
		Value:    tx.Value().String(),
		GasPrice: tx.GasPrice().String(),
		Input:    common.Bytes2Hex(tx.Data()),
	}
	if to := tx.To(); to != nil {
		entry.To = to.Hex()
	}

	if !isPending {
		receipt, err := c.eth.TransactionReceipt(ctx, txHash)
		if err != nil {
			return nil, fmt.Errorf("%w: receipt lookup: %s", domain.ErrUpstreamUnavailable, err)
		}

		header, err := c.eth.HeaderByNumber(ctx, receipt.BlockNumber)
		if err != nil {
			return nil, fmt.Errorf("%w: header lookup: %s", domain.ErrUpstreamUnavailable, err)
		}

		entry.BlockNumber = receipt.BlockNumber.String()
		entry.TimeStamp = strconv.FormatUint(header.Time, 10)
		entry.GasUsed = new(big.Int).SetUint64(receipt.GasUsed).String()
		if receipt.Status == types.ReceiptStatusSuccessful {
			entry.TxReceiptStatus = "1"
		} else {
			entry.TxReceiptStatus = "0"
		}
	}

	data, err := c.json.Marshal(&entry)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return &domain.RawPayload{
		Source: domain.SourceBlockchain,
		Ref:    entry.Hash,
		Data:   data,
	}, nil
}

// Close closes the underlying connection
func (c *client) Close() {
	c.eth.Close()
}
