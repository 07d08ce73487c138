package domain

const (
	// Wei per ETH, as a decimal exponent
	WEI_DECIMALS = 18

	// ETH_DISPLAY_DECIMALS is the fixed number of fractional digits
	// ETH-denominated amounts are normalized to
	ETH_DISPLAY_DECIMALS = 8

	// Blockchain constants
	ETHEREUM_ZERO_ADDRESS = "0x0000000000000000000000000000000000000000"
)
