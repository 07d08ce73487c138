package registry_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowledger/crypto-tracker/internal/registry"
)

func TestNewDefaultDEXRegistry(t *testing.T) {
	reg := registry.NewDefaultDEXRegistry()

	// lookups are case-insensitive; explorers report addresses with mixed
	// checksum casing
	assert.True(t, reg.IsRouter("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"))
	assert.True(t, reg.IsRouter("0x7a250d5630b4cf539739df2c5dacb4c659f2488d"))
	assert.True(t, reg.IsRouter("0xE592427A0AEce92De3Edee1F18E0157C05861564"))
	assert.True(t, reg.IsRouter("0xd9e1cE17f2641f24aE83637ab66a2cca9C378B9F"))

	assert.False(t, reg.IsRouter("0x1111111111111111111111111111111111111111"))
	assert.False(t, reg.IsRouter(""))

	name, ok := reg.SwapFunction("0x7ff36ab5")
	require.True(t, ok)
	assert.Equal(t, "swapExactETHForTokens", name)

	name, ok = reg.SwapFunction("0x38ED1739")
	require.True(t, ok)
	assert.Equal(t, "swapExactTokensForTokens", name)

	_, ok = reg.SwapFunction("0xdeadbeef")
	assert.False(t, ok)
}

func TestLoadDEXRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	content := `{
		"routers": {
			"custom_dex": "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
		},
		"swap_selectors": {
			"0x12345678": "customSwap"
		}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	reg, err := registry.LoadDEXRegistry(path)
	require.NoError(t, err)

	assert.True(t, reg.IsRouter("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"))
	assert.False(t, reg.IsRouter("0x7a250d5630b4cf539739df2c5dacb4c659f2488d"))

	name, ok := reg.SwapFunction("0x12345678")
	require.True(t, ok)
	assert.Equal(t, "customSwap", name)
}

func TestLoadDEXRegistry_Errors(t *testing.T) {
	_, err := registry.LoadDEXRegistry(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))
	_, err = registry.LoadDEXRegistry(path)
	assert.Error(t, err)
}

func TestLoadDEXRegistry_BundledFile(t *testing.T) {
	// the file shipped in config/ must stay loadable
	reg, err := registry.LoadDEXRegistry(filepath.Join("..", "..", "config", "dex_registry.json"))
	require.NoError(t, err)
	assert.True(t, reg.IsRouter("0x7a250d5630b4cf539739df2c5dacb4c659f2488d"))
}
