package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the job proxy.
type Client interface {
	Submit(ctx context.Context, sub Submission) (*SubmitResponse, error)
	Status(ctx context.Context, route string) (*StatusResponse, error)
}

// HTTPClient calls a codesync server's /api proxy routes.
type HTTPClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *HTTPClient) Submit(ctx context.Context, sub Submission) (*SubmitResponse, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/set-job", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var ack SubmitResponse
	if err := c.do(req, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// Status fetches route, the statusUrl returned by Submit, through the proxy.
func (c *HTTPClient) Status(ctx context.Context, route string) (*StatusResponse, error) {
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api"+route, nil)
	if err != nil {
		return nil, err
	}

	var status StatusResponse
	if err := c.do(req, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// do decodes the JSON body whatever the status code: the proxy relays
// backend codes unchanged and error bodies still carry a status field.
func (c *HTTPClient) do(req *http.Request, out interface{}) error {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s response: %w", req.URL.Path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s response (HTTP %d): %w", req.URL.Path, resp.StatusCode, err)
	}
	return nil
}
