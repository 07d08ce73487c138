package etherscan_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowledger/crypto-tracker/internal/adapter"
	"github.com/flowledger/crypto-tracker/internal/domain"
	"github.com/flowledger/crypto-tracker/internal/mocks"
	"github.com/flowledger/crypto-tracker/internal/providers/etherscan"
)

const testAddress = "0x1111111111111111111111111111111111111111"

func newTestClient(httpClient *mocks.HTTPClient) etherscan.Client {
	return etherscan.NewClient(httpClient, adapter.NewJSON(), etherscan.Config{
		APIURL:            "https://api.etherscan.io/api",
		APIKey:            "test-key",
		RequestsPerSecond: 1000, // don't throttle tests
	})
}

func TestClient_AddressTransactions(t *testing.T) {
	httpClient := &mocks.HTTPClient{
		Responses: map[string]string{
			"action=txlist&": `{
				"status": "1",
				"message": "OK",
				"result": [
					{"hash": "0xaaa", "timeStamp": "1710504000", "from": "0x2222222222222222222222222222222222222222", "to": "` + testAddress + `", "value": "1500000000000000000", "txreceipt_status": "1"},
					{"hash": "0xbbb", "timeStamp": "1710507600", "from": "` + testAddress + `", "to": "0x3333333333333333333333333333333333333333", "value": "250000000000000000", "txreceipt_status": "1"}
				]
			}`,
			"action=txlistinternal": `{
				"status": "1",
				"message": "OK",
				"result": [
					{"hash": "0xccc", "timeStamp": "1710511200", "from": "0x4444444444444444444444444444444444444444", "to": "` + testAddress + `", "value": "100000000000000000", "traceId": "0_1"}
				]
			}`,
			"action=tokentx": `{
				"status": "1",
				"message": "OK",
				"result": []
			}`,
		},
	}
	client := newTestClient(httpClient)

	payloads, err := client.AddressTransactions(context.Background(), testAddress)
	require.NoError(t, err)
	require.Len(t, payloads, 3)

	assert.Equal(t, "0xaaa", payloads[0].Ref)
	assert.Equal(t, "0xbbb", payloads[1].Ref)
	assert.Equal(t, "0xccc", payloads[2].Ref)
	for _, payload := range payloads {
		assert.Equal(t, domain.SourceBlockchain, payload.Source)
		assert.NotEmpty(t, payload.Data)
	}

	// the internal entry keeps its trace id through the payload round-trip
	var internal etherscan.Transaction
	require.NoError(t, json.Unmarshal(payloads[2].Data, &internal))
	assert.True(t, internal.Internal())
	assert.Equal(t, "0_1", internal.TraceID)

	// three account actions were queried, each carrying the API key
	require.Len(t, httpClient.Requests, 3)
	for _, req := range httpClient.Requests {
		assert.Contains(t, req.URL, "module=account")
		assert.Contains(t, req.URL, "apikey=test-key")
		assert.Contains(t, req.URL, "address="+testAddress)
	}
}

func TestClient_AddressTransactions_TokenJoin(t *testing.T) {
	httpClient := &mocks.HTTPClient{
		Responses: map[string]string{
			"action=txlist&": `{
				"status": "1",
				"message": "OK",
				"result": [
					{"hash": "0xSWAP", "timeStamp": "1710504000", "from": "` + testAddress + `", "to": "0x7a250d5630b4cf539739df2c5dacb4c659f2488d", "value": "1000000000000000000", "input": "0x7ff36ab500", "txreceipt_status": "1"}
				]
			}`,
			"action=txlistinternal": `{"status": "1", "message": "OK", "result": []}`,
			"action=tokentx": `{
				"status": "1",
				"message": "OK",
				"result": [
					{"hash": "0xswap", "timeStamp": "1710504000", "value": "2500000000", "tokenSymbol": "USDC", "tokenDecimal": "6"}
				]
			}`,
		},
	}
	client := newTestClient(httpClient)

	payloads, err := client.AddressTransactions(context.Background(), testAddress)
	require.NoError(t, err)
	require.Len(t, payloads, 1)

	// token movement joined onto the external entry, matched on hash
	// case-insensitively
	var entry etherscan.Transaction
	require.NoError(t, json.Unmarshal(payloads[0].Data, &entry))
	assert.Equal(t, "USDC", entry.TokenSymbol)
	assert.Equal(t, "6", entry.TokenDecimal)
	assert.Equal(t, "2500000000", entry.TokenValue)
}

func TestClient_AddressTransactions_Empty(t *testing.T) {
	// "no transactions found" comes back with status 0 but is not an error
	empty := `{"status": "0", "message": "No transactions found", "result": []}`
	httpClient := &mocks.HTTPClient{
		Responses: map[string]string{
			"action=txlist&":        empty,
			"action=txlistinternal": empty,
			"action=tokentx":        empty,
		},
	}
	client := newTestClient(httpClient)

	payloads, err := client.AddressTransactions(context.Background(), testAddress)
	require.NoError(t, err)
	assert.Empty(t, payloads)
}

func TestClient_AddressTransactions_APIError(t *testing.T) {
	httpClient := &mocks.HTTPClient{
		Responses: map[string]string{
			"action=": `{"status": "0", "message": "NOTOK", "result": []}`,
		},
	}
	client := newTestClient(httpClient)

	_, err := client.AddressTransactions(context.Background(), testAddress)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestClient_AddressTransactions_TransportError(t *testing.T) {
	httpClient := &mocks.HTTPClient{Err: assert.AnError}
	client := newTestClient(httpClient)

	_, err := client.AddressTransactions(context.Background(), testAddress)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}
