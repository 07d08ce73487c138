package mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// HTTPRequest records one request seen by the fake HTTP client
type HTTPRequest struct {
	URL     string
	Headers map[string]string
}

// HTTPClient is a canned-response adapter.HTTPClient. Responses are keyed
// by URL substring; the longest key contained in the requested URL wins.
type HTTPClient struct {
	Responses map[string]string
	Err       error

	Requests []HTTPRequest
}

// GetBytes returns the canned body matching the URL
func (c *HTTPClient) GetBytes(_ context.Context, url string, headers map[string]string) ([]byte, error) {
	c.Requests = append(c.Requests, HTTPRequest{URL: url, Headers: headers})
	if c.Err != nil {
		return nil, c.Err
	}
	var best string
	found := false
	for key := range c.Responses {
		if strings.Contains(url, key) && (!found || len(key) > len(best)) {
			best, found = key, true
		}
	}
	if !found {
		return nil, fmt.Errorf("no canned response for %s", url)
	}
	return []byte(c.Responses[best]), nil
}

// Get returns the canned body matching the URL, decoded into result
func (c *HTTPClient) Get(ctx context.Context, url string, headers map[string]string, result interface{}) error {
	body, err := c.GetBytes(ctx, url, headers)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, result)
}
