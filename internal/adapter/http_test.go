package adapter_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowledger/crypto-tracker/internal/adapter"
)

func TestRealHTTPClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-value", r.Header.Get("X-Test-Header"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message": "hello"}`))
	}))
	defer server.Close()

	client := adapter.NewHTTPClient(5 * time.Second)

	var result struct {
		Message string `json:"message"`
	}
	err := client.Get(context.Background(), server.URL, map[string]string{"X-Test-Header": "test-value"}, &result)
	require.NoError(t, err)
	assert.Equal(t, "hello", result.Message)
}

func TestRealHTTPClient_GetBytes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("raw body"))
	}))
	defer server.Close()

	client := adapter.NewHTTPClient(5 * time.Second)

	body, err := client.GetBytes(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("raw body"), body)
}

func TestRealHTTPClient_PermanentError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := adapter.NewHTTPClient(5 * time.Second)

	_, err := client.GetBytes(context.Background(), server.URL, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	// non-429 failures are not retried
	assert.EqualValues(t, 1, calls.Load())
}

func TestRealHTTPClient_RetriesRateLimit(t *testing.T) {
	if testing.Short() {
		t.Skip("retry backoff sleeps for seconds")
	}

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := adapter.NewHTTPClient(5 * time.Second)

	body, err := client.GetBytes(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), body)
	assert.EqualValues(t, 2, calls.Load())
}

func TestRealHTTPClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := adapter.NewHTTPClient(5 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := client.GetBytes(ctx, server.URL, nil)
	assert.Error(t, err)
}
