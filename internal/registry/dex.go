package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// DEXRegistry defines the interface for DEX contract recognition
//
//go:generate mockgen -source=dex.go -destination=../mocks/dex_registry.go -package=mocks -mock_names=DEXRegistry=MockDEXRegistry
type DEXRegistry interface {
	// IsRouter checks if a contract address is a known DEX router
	IsRouter(contractAddress string) bool

	// SwapFunction resolves a 4-byte function selector (with 0x prefix) to
	// its swap function name
	SwapFunction(selector string) (string, bool)
}

// DEXRegistryData represents the structure of the dex_registry.json file
type DEXRegistryData struct {
	// Routers maps a venue name (e.g. "uniswap_v2") to its router address
	Routers map[string]string `json:"routers"`
	// SwapSelectors maps a 4-byte selector to the swap function name
	SwapSelectors map[string]string `json:"swap_selectors"`
}

// dexRegistry is the internal implementation of the DEXRegistry interface
type dexRegistry struct {
	// Fast lookup: lowercased router address -> true
	routers map[string]bool
	// Lowercased selector -> function name
	selectors map[string]string
}

// LoadDEXRegistry loads the DEX registry from a JSON file
func LoadDEXRegistry(filePath string) (DEXRegistry, error) {
	data, err := os.ReadFile(filePath) //nolint:gosec,G304 // This should be a trusted file
	if err != nil {
		return nil, fmt.Errorf("failed to read dex registry file: %w", err)
	}

	var registryData DEXRegistryData
	if err := json.Unmarshal(data, &registryData); err != nil {
		return nil, fmt.Errorf("failed to parse dex registry JSON: %w", err)
	}

	return newDEXRegistry(registryData), nil
}

// NewDefaultDEXRegistry builds a registry with the bundled router and
// selector tables, used when no registry file is configured.
func NewDefaultDEXRegistry() DEXRegistry {
	return newDEXRegistry(DEXRegistryData{
		Routers: map[string]string{
			"uniswap_v2": "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D",
			"uniswap_v3": "0xE592427A0AEce92De3Edee1F18E0157C05861564",
			"sushiswap":  "0xd9e1cE17f2641f24aE83637ab66a2cca9C378B9F",
		},
		SwapSelectors: map[string]string{
			"0x38ed1739": "swapExactTokensForTokens",
			"0x7ff36ab5": "swapExactETHForTokens",
			"0x4a25d94a": "swapTokensForExactETH",
			"0x18cbafe5": "swapExactTokensForETH",
			"0x5c11d795": "swapExactTokensForTokensSupportingFeeOnTransferTokens",
		},
	})
}

func newDEXRegistry(data DEXRegistryData) *dexRegistry {
	r := &dexRegistry{
		routers:   make(map[string]bool, len(data.Routers)),
		selectors: make(map[string]string, len(data.SwapSelectors)),
	}

	for _, addr := range data.Routers {
		r.routers[strings.ToLower(addr)] = true
	}
	for selector, name := range data.SwapSelectors {
		r.selectors[strings.ToLower(selector)] = name
	}

	return r
}

// IsRouter checks if a contract address is a known DEX router
func (r *dexRegistry) IsRouter(contractAddress string) bool {
	if r == nil || contractAddress == "" {
		return false
	}
	return r.routers[strings.ToLower(contractAddress)]
}

// SwapFunction resolves a 4-byte function selector to its swap function name
func (r *dexRegistry) SwapFunction(selector string) (string, bool) {
	if r == nil {
		return "", false
	}
	name, ok := r.selectors[strings.ToLower(selector)]
	return name, ok
}
