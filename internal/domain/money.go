package domain

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// WeiToETH converts a wei magnitude into an ETH decimal rounded to the
// fixed display precision. Decimal arithmetic only; float64 would drift
// once amounts get aggregated and compared.
func WeiToETH(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -WEI_DECIMALS).Round(ETH_DISPLAY_DECIMALS)
}

// ParseWei parses a base-10 wei string (the representation Etherscan and
// node RPCs hand back) into a big.Int.
func ParseWei(value string) (*big.Int, error) {
	wei, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid wei value %q", value)
	}
	return wei, nil
}

// ParseAmount parses a source-reported decimal amount and normalizes it to
// a non-negative magnitude. Exchanges report signed amounts (negative for
// outgoing); the canonical model carries direction in the type instead.
func ParseAmount(value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return d.Abs(), nil
}
